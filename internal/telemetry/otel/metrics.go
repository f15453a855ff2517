package otel

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "sleeptracker/backend/sleeplog"

// SleepMetrics records sleep log writes on an OTel meter.
type SleepMetrics struct {
	writes    metric.Int64Counter
	timeInBed metric.Float64Histogram
}

// NewSleepMetrics creates the instruments on mp.
func NewSleepMetrics(mp metric.MeterProvider) (*SleepMetrics, error) {
	meter := mp.Meter(meterName)
	writes, err := meter.Int64Counter("sleeptracker.sleep_log.writes",
		metric.WithDescription("Sleep log create, update, and delete operations."))
	if err != nil {
		return nil, err
	}
	timeInBed, err := meter.Float64Histogram("sleeptracker.sleep_log.time_in_bed",
		metric.WithDescription("Time in bed of created and updated sessions."),
		metric.WithUnit("min"),
		metric.WithExplicitBucketBoundaries(240, 300, 360, 420, 480, 540, 600, 720))
	if err != nil {
		return nil, err
	}
	return &SleepMetrics{writes: writes, timeInBed: timeInBed}, nil
}

// RecordWrite counts one write. Deletes do not feed the time-in-bed histogram.
func (m *SleepMetrics) RecordWrite(ctx context.Context, action string, minutes float64, feeling string) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("action", action),
		attribute.String("morning_feeling", feeling),
	)
	m.writes.Add(ctx, 1, attrs)
	if action != "delete" {
		m.timeInBed.Record(ctx, minutes, metric.WithAttributes(attribute.String("morning_feeling", feeling)))
	}
}
