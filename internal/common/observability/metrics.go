package observability

import (
	"context"
	"log"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
)

type Observability struct {
	meterProvider    *metric.MeterProvider
	meter            otelmetric.Meter
	reportCounter    otelmetric.Int64Counter
	scenarioDuration otelmetric.Float64Histogram
}

func New(serviceName string) *Observability {
	exporter, err := prometheus.New()
	if err != nil {
		log.Printf("Failed to create Prometheus exporter: %v", err)
		return &Observability{}
	}

	provider := metric.NewMeterProvider(metric.WithReader(exporter))
	otel.SetMeterProvider(provider)

	meter := provider.Meter(serviceName)

	reportCounter, _ := meter.Int64Counter(
		"reports.generated",
		otelmetric.WithDescription("Number of assessment reports generated"),
	)

	scenarioDuration, _ := meter.Float64Histogram(
		"scenarios.scoring.duration",
		otelmetric.WithDescription("Per-scenario scoring duration"),
		otelmetric.WithUnit("ms"),
	)

	return &Observability{
		meterProvider:    provider,
		meter:            meter,
		reportCounter:    reportCounter,
		scenarioDuration: scenarioDuration,
	}
}

func (o *Observability) RecordReportGenerated(ctx context.Context, status string) {
	if o.reportCounter != nil {
		o.reportCounter.Add(ctx, 1, otelmetric.WithAttributes(
			attribute.String("status", status),
		))
	}
}

func (o *Observability) RecordScenarioDuration(ctx context.Context, duration time.Duration, tier string) {
	if o.scenarioDuration != nil {
		o.scenarioDuration.Record(ctx, float64(duration.Milliseconds()), otelmetric.WithAttributes(
			attribute.String("tier", tier),
		))
	}
}

func (o *Observability) Shutdown() {
	if o.meterProvider != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		o.meterProvider.Shutdown(ctx)
	}
}
