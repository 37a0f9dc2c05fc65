package logging

import (
	"context"
	"sort"
	"time"

	"github.com/rs/zerolog"
)

// Unexported key types keep context values collision-free.
type loggerKey struct{}
type runIDKey struct{}

// WithLogger stores a logger in the context. A nil logger stores the
// default one so FromContext never hands back nil.
func WithLogger(ctx context.Context, logger *zerolog.Logger) context.Context {
	if logger == nil {
		logger = Default()
	}
	return context.WithValue(ctx, loggerKey{}, logger)
}

// FromContext returns the logger stored in ctx, or the default logger.
func FromContext(ctx context.Context) *zerolog.Logger {
	if ctx != nil {
		if logger, ok := ctx.Value(loggerKey{}).(*zerolog.Logger); ok && logger != nil {
			return logger
		}
	}
	return Default()
}

// Ctx is a shorter alias for FromContext.
func Ctx(ctx context.Context) *zerolog.Logger {
	return FromContext(ctx)
}

// WithRunID stores the invocation's run id and stamps it on the context
// logger so catalog and policy-service log lines can be correlated.
func WithRunID(ctx context.Context, runID string) context.Context {
	ctx = context.WithValue(ctx, runIDKey{}, runID)
	stamped := FromContext(ctx).With().Str("run_id", runID).Logger()
	return WithLogger(ctx, &stamped)
}

// RunID returns the run id stored in ctx, or the empty string.
func RunID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(runIDKey{}).(string)
	return id
}

// WithField derives a context whose logger carries one extra field.
func WithField(ctx context.Context, key string, value any) context.Context {
	logger := appendField(FromContext(ctx).With(), key, value).Logger()
	return WithLogger(ctx, &logger)
}

// WithFields derives a context whose logger carries the given fields,
// applied in key order.
func WithFields(ctx context.Context, fields map[string]any) context.Context {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	lc := FromContext(ctx).With()
	for _, k := range keys {
		lc = appendField(lc, k, fields[k])
	}
	logger := lc.Logger()
	return WithLogger(ctx, &logger)
}

// WithOperation tags the context logger with the running operation, usually
// the subcommand name.
func WithOperation(ctx context.Context, operation string) context.Context {
	return WithField(ctx, "operation", operation)
}

// appendField adds one typed field to a logger context.
func appendField(lc zerolog.Context, key string, value any) zerolog.Context {
	switch v := value.(type) {
	case string:
		return lc.Str(key, v)
	case bool:
		return lc.Bool(key, v)
	case int:
		return lc.Int(key, v)
	case int64:
		return lc.Int64(key, v)
	case uint:
		return lc.Uint(key, v)
	case uint64:
		return lc.Uint64(key, v)
	case float32:
		return lc.Float32(key, v)
	case float64:
		return lc.Float64(key, v)
	case time.Time:
		return lc.Time(key, v)
	case error:
		if key == "error" || key == "err" {
			return lc.Err(v)
		}
		return lc.Str(key, v.Error())
	default:
		return lc.Interface(key, v)
	}
}
