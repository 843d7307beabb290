// Package recovery converts panics raised by caller-supplied code on
// worker goroutines into errors.
// A panic on a goroutine the caller did not start cannot be recovered by
// the caller, so batch compilation recovers it here and returns it as an
// error instead of crashing the process.
package recovery

import (
	"log/slog"
	"runtime/debug"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// RecoverToValue wraps a function that returns a value and error.
// If the function panics, returns the zero value and a gRPC Internal error.
//
// Example:
//
//	s, err := recovery.RecoverToValue(logger, "compile predicate 3", func() (string, error) {
//	    return filter.Compile(pred, fields)
//	})
func RecoverToValue[T any](logger *slog.Logger, operation string, fn func() (T, error)) (result T, err error) {
	defer func() {
		if r := recover(); r != nil {
			// Capture stack trace
			stack := debug.Stack()

			logger.Error("Panic recovered",
				"operation", operation,
				"panic", r,
				"stack", string(stack),
			)

			var zero T
			result = zero
			err = status.Errorf(codes.Internal, "%s panicked: %v", operation, r)
		}
	}()

	return fn()
}
