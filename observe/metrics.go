package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metric instrument names.
const (
	MetricOpTotal    = "imagecache.op.total"
	MetricOpErrors   = "imagecache.op.errors"
	MetricOpDuration = "imagecache.op.duration_ms"
)

// Metrics records operation metrics.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: implementations must not panic.
type Metrics interface {
	// RecordOperation records one operation with its outcome, duration and
	// error status.
	RecordOperation(ctx context.Context, meta OpMeta, outcome string, duration time.Duration, err error)
}

type metricsImpl struct {
	totalCount   metric.Int64Counter
	errorCount   metric.Int64Counter
	durationHist metric.Float64Histogram
}

// NewMetrics creates the operation instruments on meter.
func NewMetrics(meter metric.Meter) (Metrics, error) {
	totalCount, err := meter.Int64Counter(
		MetricOpTotal,
		metric.WithDescription("Total number of image cache operations"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, err
	}

	errorCount, err := meter.Int64Counter(
		MetricOpErrors,
		metric.WithDescription("Total number of failed image cache operations"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	durationHist, err := meter.Float64Histogram(
		MetricOpDuration,
		metric.WithDescription("Image cache operation duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	return &metricsImpl{
		totalCount:   totalCount,
		errorCount:   errorCount,
		durationHist: durationHist,
	}, nil
}

func (m *metricsImpl) RecordOperation(ctx context.Context, meta OpMeta, outcome string, duration time.Duration, err error) {
	attrs := meta.Attributes()
	opt := metric.WithAttributes(attrs...)

	if outcome != "" {
		m.totalCount.Add(ctx, 1, metric.WithAttributes(append(attrs, attribute.String(AttrOutcome, outcome))...))
	} else {
		m.totalCount.Add(ctx, 1, opt)
	}
	if err != nil {
		m.errorCount.Add(ctx, 1, opt)
	}
	m.durationHist.Record(ctx, float64(duration)/float64(time.Millisecond), opt)
}
