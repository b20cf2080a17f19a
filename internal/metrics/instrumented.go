package metrics

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/chris-regnier/lintel/internal/metrics"

// Instruments mirrors recorded pass events into OpenTelemetry metrics. With
// telemetry disabled the global meter provider is a no-op and so are these.
type Instruments struct {
	files       metric.Int64Counter
	diagnostics metric.Int64Counter
	fixes       metric.Int64Counter
	conflicts   metric.Int64Counter
	faults      metric.Int64Counter
	duration    metric.Float64Histogram
}

// NewInstruments creates the instruments on the global meter provider.
func NewInstruments() (*Instruments, error) {
	return NewInstrumentsFrom(otel.GetMeterProvider())
}

// NewInstrumentsFrom creates the instruments on mp.
func NewInstrumentsFrom(mp metric.MeterProvider) (*Instruments, error) {
	m := mp.Meter(meterName)
	in := &Instruments{}
	var err error

	if in.files, err = m.Int64Counter("lintel.files",
		metric.WithDescription("Files linted"), metric.WithUnit("{file}")); err != nil {
		return nil, err
	}
	if in.diagnostics, err = m.Int64Counter("lintel.diagnostics",
		metric.WithDescription("Diagnostics remaining after fixing"), metric.WithUnit("{diagnostic}")); err != nil {
		return nil, err
	}
	if in.fixes, err = m.Int64Counter("lintel.fixes.applied",
		metric.WithDescription("Fixes applied"), metric.WithUnit("{fix}")); err != nil {
		return nil, err
	}
	if in.conflicts, err = m.Int64Counter("lintel.fixes.conflicts",
		metric.WithDescription("Fixes skipped because they overlapped another fix"), metric.WithUnit("{fix}")); err != nil {
		return nil, err
	}
	if in.faults, err = m.Int64Counter("lintel.rule.faults",
		metric.WithDescription("Rule handler faults"), metric.WithUnit("{fault}")); err != nil {
		return nil, err
	}
	if in.duration, err = m.Float64Histogram("lintel.lint.duration",
		metric.WithDescription("Time spent linting one file"), metric.WithUnit("ms")); err != nil {
		return nil, err
	}
	return in, nil
}

func (in *Instruments) record(e PassEvent) {
	ctx := context.Background()
	attrs := metric.WithAttributes(
		attribute.String("language", e.Language),
		attribute.Bool("failed", e.Error != ""),
	)
	in.files.Add(ctx, 1, attrs)
	in.diagnostics.Add(ctx, int64(e.Diagnostics), attrs)
	in.fixes.Add(ctx, int64(e.FixesApplied), attrs)
	in.conflicts.Add(ctx, int64(e.Conflicts), attrs)
	in.faults.Add(ctx, int64(e.Faults), attrs)
	in.duration.Record(ctx, durationMs(e.LintDuration), attrs)
}
