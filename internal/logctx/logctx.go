// Package logctx carries zerolog loggers through context.Context so that
// chunk-scoped operations inherit contextual fields (chunk_id, container)
// without threading a logger parameter through every call.
package logctx

import (
	"context"
	"os"
	"sync"

	"github.com/rs/zerolog"
)

// loggerKey is the private key type for storing loggers in context.
type loggerKey struct{}

var (
	defaultLogger     zerolog.Logger
	defaultLoggerOnce sync.Once
)

// DefaultLogger returns the process-wide fallback logger: JSON to stderr
// with timestamps.
func DefaultLogger() zerolog.Logger {
	defaultLoggerOnce.Do(func() {
		defaultLogger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	})
	return defaultLogger
}

// WithLogger returns a new context with the given logger attached.
func WithLogger(ctx context.Context, logger zerolog.Logger) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, loggerKey{}, logger)
}

// FromContext extracts the logger from the context, falling back to the
// default logger. Never returns a zero-value logger.
func FromContext(ctx context.Context) zerolog.Logger {
	if ctx == nil {
		return DefaultLogger()
	}
	if logger, ok := ctx.Value(loggerKey{}).(zerolog.Logger); ok {
		return logger
	}
	return DefaultLogger()
}

// WithChunk returns a context whose logger carries the chunk_id field.
func WithChunk(ctx context.Context, chunkID string) context.Context {
	logger := FromContext(ctx).With().Str("chunk_id", chunkID).Logger()
	return WithLogger(ctx, logger)
}

// WithContainer returns a context whose logger carries the container field.
func WithContainer(ctx context.Context, path string) context.Context {
	logger := FromContext(ctx).With().Str("container", path).Logger()
	return WithLogger(ctx, logger)
}
