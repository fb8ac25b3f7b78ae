package observe

import (
	"context"
	"time"
)

// ExecuteFunc is the signature Middleware wraps.
type ExecuteFunc func(ctx context.Context, op OpMeta, input any) (any, error)

// Outcomer is implemented by results that report a categorical outcome,
// recorded as the imagecache.outcome attribute.
type Outcomer interface {
	Outcome() string
}

// Middleware wraps operations with tracing, metrics and logging.
//
// Contract:
//   - Concurrency: Wrap returns a thread-safe ExecuteFunc.
//   - Context: the span context is passed to the wrapped function.
//   - Errors: errors from the wrapped function are recorded and returned unchanged.
type Middleware struct {
	tracer  Tracer
	metrics Metrics
	logger  Logger
}

// NewMiddleware creates a Middleware from its components.
func NewMiddleware(tracer Tracer, metrics Metrics, logger Logger) *Middleware {
	return &Middleware{tracer: tracer, metrics: metrics, logger: logger}
}

// MiddlewareFromObserver creates a Middleware backed by obs.
func MiddlewareFromObserver(obs Observer) (*Middleware, error) {
	metrics, err := NewMetrics(obs.Meter())
	if err != nil {
		return nil, err
	}
	return NewMiddleware(NewTracer(obs.Tracer()), metrics, obs.Logger()), nil
}

// Logger returns the middleware logger.
func (m *Middleware) Logger() Logger {
	return m.logger
}

// Wrap wraps fn with tracing, metrics and logging.
func (m *Middleware) Wrap(fn ExecuteFunc) ExecuteFunc {
	return func(ctx context.Context, op OpMeta, input any) (any, error) {
		ctx, span := m.tracer.StartSpan(ctx, op)
		start := time.Now()

		result, err := fn(ctx, op, input)

		duration := time.Since(start)
		var outcome string
		if o, ok := result.(Outcomer); ok && err == nil {
			outcome = o.Outcome()
		}

		m.tracer.EndSpan(span, outcome, err)
		m.metrics.RecordOperation(ctx, op, outcome, duration, err)

		fields := []Field{{Key: "duration_ms", Value: float64(duration) / float64(time.Millisecond)}}
		if outcome != "" {
			fields = append(fields, Field{Key: "outcome", Value: outcome})
		}

		opLogger := m.logger.WithOp(op)
		if err != nil {
			fields = append(fields, Field{Key: "error", Value: err.Error()})
			opLogger.Error(ctx, "operation failed", fields...)
		} else {
			opLogger.Debug(ctx, "operation completed", fields...)
		}

		return result, err
	}
}
