package observability

import (
	"context"
	"time"

	"github.com/ajwerner/avltable/internal/addrspace"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	metricOpsTotal      = "ops.total"
	metricOpDuration    = "op.duration.seconds"
	metricErrorsTotal   = "errors.total"
	metricRegions       = "regions"
	metricReservedBytes = "reserved.bytes"

	attrOp     = "op"
	attrStatus = "status"

	statusOK    = "ok"
	statusError = "error"
)

// durationBucketBoundaries covers 100ns to 10ms.
var durationBucketBoundaries = []float64{1e-7, 5e-7, 1e-6, 5e-6, 1e-5, 5e-5, 1e-4, 1e-3, 1e-2}

// Metrics records address space measurements with OTel instruments. It
// implements addrspace.Recorder.
type Metrics struct {
	opsTotal      metric.Int64Counter
	opDuration    metric.Float64Histogram
	errorsTotal   metric.Int64Counter
	regions       metric.Int64Gauge
	reservedBytes metric.Int64Gauge
}

var _ addrspace.Recorder = (*Metrics)(nil)

// NewMetrics creates the instruments from mt. Instrument names are
// prefixed with namespace and a dot.
func NewMetrics(mt metric.Meter, namespace string) (*Metrics, error) {
	b := newMetricBuilder(mt)
	name := func(s string) string { return namespace + "." + s }
	m := &Metrics{
		opsTotal:      b.counter(name(metricOpsTotal), "Total number of address space operations", "{operation}"),
		opDuration:    b.histogram(name(metricOpDuration), "Operation duration in seconds", "s", durationBucketBoundaries...),
		errorsTotal:   b.counter(name(metricErrorsTotal), "Total number of failed operations", "{error}"),
		regions:       b.gauge(name(metricRegions), "Number of reserved regions", "{region}"),
		reservedBytes: b.gauge(name(metricReservedBytes), "Bytes covered by reserved regions", "By"),
	}
	if b.err != nil {
		return nil, b.err
	}
	return m, nil
}

// RecordOp records a completed operation.
func (m *Metrics) RecordOp(ctx context.Context, op addrspace.Op, d time.Duration, err error) {
	status := statusOK
	if err != nil {
		status = statusError
	}
	attrs := metric.WithAttributes(
		attribute.String(attrOp, string(op)),
		attribute.String(attrStatus, status),
	)
	m.opsTotal.Add(ctx, 1, attrs)
	m.opDuration.Record(ctx, d.Seconds(), attrs)
	if err != nil {
		m.errorsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String(attrOp, string(op))))
	}
}

// RecordUsage records the current size of the address space.
func (m *Metrics) RecordUsage(ctx context.Context, regions int, reserved uint64) {
	m.regions.Record(ctx, int64(regions))
	m.reservedBytes.Record(ctx, int64(reserved))
}
