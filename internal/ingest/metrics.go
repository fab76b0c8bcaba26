package ingest

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	recordsSaved metric.Int64Counter
	recordErrors metric.Int64Counter
	runsTotal    metric.Int64Counter
)

// InitIngestMetrics registers the pipeline counters on the given meter.
// Safe to skip in tests; the record helpers tolerate nil instruments.
func InitIngestMetrics(meter metric.Meter) error {
	var err error
	recordsSaved, err = meter.Int64Counter("ingest_records_saved_total",
		metric.WithDescription("Records upserted into the price cache, by kind"))
	if err != nil {
		return err
	}
	recordErrors, err = meter.Int64Counter("ingest_record_errors_total",
		metric.WithDescription("Records that failed to persist, by kind"))
	if err != nil {
		return err
	}
	runsTotal, err = meter.Int64Counter("ingest_runs_total",
		metric.WithDescription("Completed pipeline runs, by terminal status"))
	if err != nil {
		return err
	}
	return nil
}

func recordSaved(ctx context.Context, kind string, n int) {
	if recordsSaved == nil || n == 0 {
		return
	}
	recordsSaved.Add(ctx, int64(n), metric.WithAttributes(attribute.String("kind", kind)))
}

func recordFailed(ctx context.Context, kind string, n int) {
	if recordErrors == nil || n == 0 {
		return
	}
	recordErrors.Add(ctx, int64(n), metric.WithAttributes(attribute.String("kind", kind)))
}

func recordRun(ctx context.Context, status string) {
	if runsTotal == nil {
		return
	}
	runsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
}
