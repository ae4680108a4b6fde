package exporters

import (
	"github.com/pkg/errors"
	"github.com/prometheus/otlptranslator"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	metricSdk "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// Prometheus returns a meter whose instruments are exposed on the default prometheus registry.
func Prometheus(appName, appVersion string) (metric.Meter, *metricSdk.MeterProvider, error) {
	exporter, err := prometheus.New(
		prometheus.WithoutTargetInfo(),
		prometheus.WithTranslationStrategy(otlptranslator.NoTranslation))
	if err != nil {
		return nil, nil, errors.Wrap(err, "create prometheus exporter")
	}

	provider := metricSdk.NewMeterProvider(
		metricSdk.WithReader(exporter),
		metricSdk.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceNameKey.String(appName),
		)))

	return provider.Meter(appName, metric.WithInstrumentationVersion(appVersion)), provider, nil
}
