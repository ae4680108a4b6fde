package metrics

import (
	"context"
	"sync"

	"github.com/nemaks/recordstore/infrastructure/logger"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.uber.org/zap"
)

// Manager owns named instruments so callers record by name without holding instrument handles.
// Recording on an unregistered name is logged and dropped.
type Manager interface {
	NewCounter(name, desc string)
	NewUpDownCounter(name, desc string)
	NewHistogram(name, desc string, buckets ...float64)
	NewGauge(name, desc string)

	IncrementCounter(ctx context.Context, name string, labels ...attribute.KeyValue)
	AddCounter(ctx context.Context, name string, value int64, labels ...attribute.KeyValue)
	DeltaUpDownCounter(ctx context.Context, name string, value int64, labels ...attribute.KeyValue)
	RecordHistogram(ctx context.Context, name string, value float64, labels ...attribute.KeyValue)
	SetGauge(name string, value float64, labels ...attribute.KeyValue)
}

type metricsManager struct {
	meter  metric.Meter
	logger *logger.Logger

	mu         sync.RWMutex
	counters   map[string]metric.Int64Counter
	upDowns    map[string]metric.Int64UpDownCounter
	histograms map[string]metric.Float64Histogram
	gauges     map[string]metric.Float64Gauge
}

func NewMetricsManager(meter metric.Meter, logger *logger.Logger) Manager {
	return &metricsManager{
		meter:      meter,
		logger:     logger,
		counters:   map[string]metric.Int64Counter{},
		upDowns:    map[string]metric.Int64UpDownCounter{},
		histograms: map[string]metric.Float64Histogram{},
		gauges:     map[string]metric.Float64Gauge{},
	}
}

// NewNoopManager returns a Manager with every default instrument registered on a noop meter.
func NewNoopManager() Manager {
	m := NewMetricsManager(noop.NewMeterProvider().Meter("noop"), logger.NewNopLogger())
	RegisterDefaults(m)
	return m
}

func (m *metricsManager) NewCounter(name, desc string) {
	c, err := m.meter.Int64Counter(name, metric.WithDescription(desc))
	if err != nil {
		m.logger.Error("failed to create counter", zap.String("name", name), zap.Error(err))
		return
	}
	m.mu.Lock()
	m.counters[name] = c
	m.mu.Unlock()
}

func (m *metricsManager) NewUpDownCounter(name, desc string) {
	c, err := m.meter.Int64UpDownCounter(name, metric.WithDescription(desc))
	if err != nil {
		m.logger.Error("failed to create up-down counter", zap.String("name", name), zap.Error(err))
		return
	}
	m.mu.Lock()
	m.upDowns[name] = c
	m.mu.Unlock()
}

func (m *metricsManager) NewHistogram(name, desc string, buckets ...float64) {
	opts := []metric.Float64HistogramOption{metric.WithDescription(desc)}
	if len(buckets) > 0 {
		opts = append(opts, metric.WithExplicitBucketBoundaries(buckets...))
	}
	h, err := m.meter.Float64Histogram(name, opts...)
	if err != nil {
		m.logger.Error("failed to create histogram", zap.String("name", name), zap.Error(err))
		return
	}
	m.mu.Lock()
	m.histograms[name] = h
	m.mu.Unlock()
}

func (m *metricsManager) NewGauge(name, desc string) {
	g, err := m.meter.Float64Gauge(name, metric.WithDescription(desc))
	if err != nil {
		m.logger.Error("failed to create gauge", zap.String("name", name), zap.Error(err))
		return
	}
	m.mu.Lock()
	m.gauges[name] = g
	m.mu.Unlock()
}

func (m *metricsManager) IncrementCounter(ctx context.Context, name string, labels ...attribute.KeyValue) {
	m.AddCounter(ctx, name, 1, labels...)
}

func (m *metricsManager) AddCounter(ctx context.Context, name string, value int64, labels ...attribute.KeyValue) {
	m.mu.RLock()
	c, ok := m.counters[name]
	m.mu.RUnlock()
	if !ok {
		m.logger.Warn("counter not registered", zap.String("name", name))
		return
	}
	c.Add(ctx, value, metric.WithAttributes(labels...))
}

func (m *metricsManager) DeltaUpDownCounter(ctx context.Context, name string, value int64, labels ...attribute.KeyValue) {
	m.mu.RLock()
	c, ok := m.upDowns[name]
	m.mu.RUnlock()
	if !ok {
		m.logger.Warn("up-down counter not registered", zap.String("name", name))
		return
	}
	c.Add(ctx, value, metric.WithAttributes(labels...))
}

func (m *metricsManager) RecordHistogram(ctx context.Context, name string, value float64, labels ...attribute.KeyValue) {
	m.mu.RLock()
	h, ok := m.histograms[name]
	m.mu.RUnlock()
	if !ok {
		m.logger.Warn("histogram not registered", zap.String("name", name))
		return
	}
	h.Record(ctx, value, metric.WithAttributes(labels...))
}

func (m *metricsManager) SetGauge(name string, value float64, labels ...attribute.KeyValue) {
	m.mu.RLock()
	g, ok := m.gauges[name]
	m.mu.RUnlock()
	if !ok {
		m.logger.Warn("gauge not registered", zap.String("name", name))
		return
	}
	g.Record(context.Background(), value, metric.WithAttributes(labels...))
}
