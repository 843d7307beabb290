package listfilter

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"strconv"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/hugr-lab/listfilter/expr"
	"github.com/hugr-lab/listfilter/filter"
	"github.com/hugr-lab/listfilter/internal/recovery"
	"github.com/hugr-lab/listfilter/schema"
)

// FilterSetter is implemented by list requests that accept a filter string.
type FilterSetter interface {
	SetFilter(filter string)
}

// Compiler compiles predicates against a registry of record schemas.
// A Compiler is safe for concurrent use.
type Compiler struct {
	schemas        *schema.Registry
	strict         bool
	logger         *slog.Logger
	maxConcurrency int
}

// New creates a Compiler.
// Returns error if config is invalid.
//
// Example:
//
//	level := slog.LevelDebug
//	c, err := listfilter.New(listfilter.Config{
//	    Schemas:  schema.NewRegistry(schema.FromArrow(schema.TypeName(reflect.TypeFor[User]()), usersSchema)),
//	    LogLevel: &level,
//	})
func New(config Config) (*Compiler, error) {
	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	// Use defaults for optional fields
	schemas := config.Schemas
	if schemas == nil {
		schemas = schema.NewRegistry()
	}

	logger := config.Logger
	if logger == nil {
		level := slog.LevelInfo
		if config.LogLevel != nil {
			level = *config.LogLevel
		}
		handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: level,
		})
		logger = slog.New(handler)
	}

	maxConcurrency := config.MaxConcurrency
	if maxConcurrency == 0 {
		maxConcurrency = runtime.GOMAXPROCS(0)
	}

	return &Compiler{
		schemas:        schemas,
		strict:         config.StrictSchemas,
		logger:         logger,
		maxConcurrency: maxConcurrency,
	}, nil
}

// Compile translates pred into a filter string.
// Errors are those of [filter.Compile] and are returned unchanged.
func (c *Compiler) Compile(pred *expr.Lambda) (string, error) {
	var fields schema.Lookup = c.schemas
	if pred != nil && pred.Param != nil && !c.strict {
		fields = c.schemas.Ensure(pred.Param.Type())
	}

	s, err := filter.Compile(pred, fields)
	if err != nil {
		return "", err
	}

	c.logger.Debug("Predicate compiled",
		"record", schema.TypeName(pred.Param.Type()),
		"filter", s,
	)
	return s, nil
}

// Apply compiles pred and sets the result as the filter of req.
// req is left untouched if compilation fails.
func (c *Compiler) Apply(req FilterSetter, pred *expr.Lambda) error {
	s, err := c.Compile(pred)
	if err != nil {
		return err
	}
	req.SetFilter(s)
	return nil
}

// CompileAll compiles independent predicates concurrently.
// Results are returned in the order of preds. The first error cancels
// the remaining work and is returned wrapped with the predicate index.
// A panic raised by caller code during compilation is returned as a
// gRPC Internal error instead of crashing the process.
func (c *Compiler) CompileAll(ctx context.Context, preds []*expr.Lambda) ([]string, error) {
	out := make([]string, len(preds))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(c.maxConcurrency)

	for i, pred := range preds {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			op := "compile predicate " + strconv.Itoa(i)
			s, err := recovery.RecoverToValue(c.logger, op, func() (string, error) {
				return c.Compile(pred)
			})
			if err != nil {
				return fmt.Errorf("predicate %d: %w", i, err)
			}
			out[i] = s
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	c.logger.Debug("Predicates compiled", "count", len(preds))
	return out, nil
}

var defaultCompiler = sync.OnceValue(func() *Compiler {
	c, err := New(Config{Logger: slog.Default()})
	if err != nil {
		panic(err)
	}
	return c
})

// Compile translates pred into a filter string using a default Compiler
// that reflects record schemas from their Go types.
func Compile(pred *expr.Lambda) (string, error) {
	return defaultCompiler().Compile(pred)
}

// Apply compiles pred with the default Compiler and sets the result as
// the filter of req.
func Apply(req FilterSetter, pred *expr.Lambda) error {
	return defaultCompiler().Apply(req, pred)
}
