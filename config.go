package listfilter

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/hugr-lab/listfilter/schema"
)

// Config contains configuration for a predicate Compiler.
type Config struct {
	// Schemas resolves the fields declared on record types.
	// OPTIONAL: If nil, an empty registry is created.
	// Record types missing from the registry are registered from their
	// reflected Go struct fields on first use, unless StrictSchemas is set.
	Schemas *schema.Registry

	// StrictSchemas disables registration of reflected schemas.
	// OPTIONAL: If true, only record types present in Schemas can be
	// filtered; every field of any other type is rejected.
	StrictSchemas bool

	// Logger for internal logging.
	// OPTIONAL: Uses a text logger on stderr if nil.
	// Note: If LogLevel is specified, the created logger uses that level.
	Logger *slog.Logger

	// LogLevel sets the logging level.
	// OPTIONAL: If nil, uses Info level.
	// If Logger is also provided, LogLevel is ignored (use pre-configured logger).
	LogLevel *slog.Level

	// MaxConcurrency bounds the number of predicates CompileAll compiles at once.
	// OPTIONAL: If 0, uses runtime.GOMAXPROCS(0).
	MaxConcurrency int
}

// Standard errors returned by listfilter package.
var (
	// ErrInvalidConfig indicates Config validation failed.
	ErrInvalidConfig = errors.New("invalid compiler config")
)

// validateConfig checks that Config fields are valid.
func validateConfig(config Config) error {
	if config.MaxConcurrency < 0 {
		return fmt.Errorf("max concurrency must not be negative, got %d", config.MaxConcurrency)
	}
	if config.StrictSchemas && config.Schemas == nil {
		return fmt.Errorf("strict schemas require a schema registry")
	}
	return nil
}
