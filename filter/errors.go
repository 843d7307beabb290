package filter

import (
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Error classes. Use errors.Is to classify an error returned by [Compile].
var (
	// ErrUnsupportedOperation indicates a node kind or operator the filter grammar cannot express.
	ErrUnsupportedOperation = errors.New("unsupported operation")

	// ErrUnsupportedMember indicates a field the record schema does not declare.
	ErrUnsupportedMember = errors.New("unsupported member")

	// ErrMethodNotSupported indicates a call on the record that is not startswith.
	ErrMethodNotSupported = errors.New("method not supported")
)

// UnsupportedOperationError is returned for a node kind or operator
// with no mapping in the filter grammar.
type UnsupportedOperationError struct {
	// Tag is the node kind or operator, e.g. "INCREMENT" or "CONSTANT(map[string]int)".
	Tag string
}

func (e *UnsupportedOperationError) Error() string {
	return "filter: unsupported operation: " + e.Tag
}

func (e *UnsupportedOperationError) Unwrap() error { return ErrUnsupportedOperation }

// GRPCStatus maps the error to codes.Unimplemented.
func (e *UnsupportedOperationError) GRPCStatus() *status.Status {
	return status.New(codes.Unimplemented, e.Error())
}

// UnsupportedMemberError is returned for a field reference that is not
// declared on the record schema.
type UnsupportedMemberError struct {
	Field string
}

func (e *UnsupportedMemberError) Error() string {
	return "filter: unsupported member: " + e.Field
}

func (e *UnsupportedMemberError) Unwrap() error { return ErrUnsupportedMember }

// GRPCStatus maps the error to codes.InvalidArgument.
func (e *UnsupportedMemberError) GRPCStatus() *status.Status {
	return status.New(codes.InvalidArgument, e.Error())
}

// MethodNotSupportedError is returned for a call that depends on the
// record but is not the startswith string test.
type MethodNotSupportedError struct {
	Method string
	Detail string
}

func (e *MethodNotSupportedError) Error() string {
	msg := "filter: method not supported: " + e.Method
	if e.Detail != "" {
		msg += " (" + e.Detail + ")"
	}
	return msg
}

func (e *MethodNotSupportedError) Unwrap() error { return ErrMethodNotSupported }

// GRPCStatus maps the error to codes.Unimplemented.
func (e *MethodNotSupportedError) GRPCStatus() *status.Status {
	return status.New(codes.Unimplemented, e.Error())
}
