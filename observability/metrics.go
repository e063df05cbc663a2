// Package observability exposes OpenTelemetry metrics for the resolution pipeline.
package observability

import (
	"context"
	"fmt"
	"sync"

	"chesswager/config"
	"chesswager/models"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
)

// Metric names
const (
	ResolutionsTotal   = "chesswager.resolutions.total"
	SettlementsTotal   = "chesswager.settlements.total"
	StakeSettledTotal  = "chesswager.stake.settled"
	FetchFailuresTotal = "chesswager.archive.fetch_failures.total"
)

// Attribute keys
const (
	LabelStatus  = "status"
	LabelOutcome = "outcome"
)

const meterName = "chesswager"

// MetricsProvider manages OpenTelemetry metrics for the service.
// It satisfies service.MetricsRecorder; every method is a no-op until Initialize enables it.
type MetricsProvider struct {
	config        config.MetricsConfig
	environment   string
	meterProvider *sdkmetric.MeterProvider
	initialized   bool
	enabled       bool
	mu            sync.RWMutex

	resolutionsCounter   metric.Int64Counter
	settlementsCounter   metric.Int64Counter
	stakeCounter         metric.Int64Counter
	fetchFailuresCounter metric.Int64Counter
}

// NewMetricsProvider creates a new metrics provider
func NewMetricsProvider(cfg config.MetricsConfig, environment string) *MetricsProvider {
	return &MetricsProvider{config: cfg, environment: environment}
}

// Initialize sets up the meter provider with the configured exporter
func (mp *MetricsProvider) Initialize(ctx context.Context) error {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if mp.initialized {
		return nil
	}

	if !mp.config.Enabled {
		log.Info("OpenTelemetry metrics disabled")
		mp.initialized = true
		return nil
	}

	var reader sdkmetric.Reader
	switch mp.config.ExporterType {
	case "console":
		exporter, err := stdoutmetric.New()
		if err != nil {
			return fmt.Errorf("failed to create console exporter: %w", err)
		}
		reader = sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(mp.config.ExportInterval))
		log.Info("Using console metric exporter")
	case "none":
		log.Info("Metrics export disabled (exporter_type='none')")
		mp.initialized = true
		return nil
	default:
		return fmt.Errorf("unknown exporter type: %s", mp.config.ExporterType)
	}

	if err := mp.start(reader); err != nil {
		return err
	}
	otel.SetMeterProvider(mp.meterProvider)
	log.Info("Metrics provider initialized successfully")
	return nil
}

// start builds the meter provider around reader. Caller holds mu.
func (mp *MetricsProvider) start(reader sdkmetric.Reader) error {
	serviceName := mp.config.ServiceName
	if serviceName == "" {
		serviceName = meterName
	}
	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(serviceName),
			attribute.String("environment", mp.environment),
		),
	)
	if err != nil {
		return fmt.Errorf("failed to create resource: %w", err)
	}

	mp.meterProvider = sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(reader),
	)
	if err := mp.createInstruments(mp.meterProvider.Meter(meterName)); err != nil {
		return fmt.Errorf("failed to create instruments: %w", err)
	}

	mp.initialized = true
	mp.enabled = true
	return nil
}

func (mp *MetricsProvider) createInstruments(meter metric.Meter) error {
	var err error

	mp.resolutionsCounter, err = meter.Int64Counter(
		ResolutionsTotal,
		metric.WithDescription("Resolution attempts by end state"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create resolutions counter: %w", err)
	}

	mp.settlementsCounter, err = meter.Int64Counter(
		SettlementsTotal,
		metric.WithDescription("Committed settlements by outcome"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create settlements counter: %w", err)
	}

	mp.stakeCounter, err = meter.Int64Counter(
		StakeSettledTotal,
		metric.WithDescription("Stake moved between balances, in minor units"),
		metric.WithUnit("{minor_unit}"),
	)
	if err != nil {
		return fmt.Errorf("failed to create stake counter: %w", err)
	}

	mp.fetchFailuresCounter, err = meter.Int64Counter(
		FetchFailuresTotal,
		metric.WithDescription("Game archive fetches that failed or timed out"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create fetch failures counter: %w", err)
	}
	return nil
}

// Shutdown flushes and stops the meter provider
func (mp *MetricsProvider) Shutdown(ctx context.Context) error {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if mp.meterProvider != nil {
		return mp.meterProvider.Shutdown(ctx)
	}
	return nil
}

func (mp *MetricsProvider) RecordResolution(ctx context.Context, status models.ResolutionStatus) {
	if !mp.isEnabled() {
		return
	}
	mp.resolutionsCounter.Add(ctx, 1, metric.WithAttributes(attribute.String(LabelStatus, string(status))))
}

// RecordSettlement counts the settlement and, for decisive outcomes, the stake that moved
func (mp *MetricsProvider) RecordSettlement(ctx context.Context, outcome models.Outcome, stake int64) {
	if !mp.isEnabled() {
		return
	}
	attrs := metric.WithAttributes(attribute.String(LabelOutcome, string(outcome)))
	mp.settlementsCounter.Add(ctx, 1, attrs)
	if outcome != models.OutcomeDraw && stake > 0 {
		mp.stakeCounter.Add(ctx, stake, attrs)
	}
}

func (mp *MetricsProvider) RecordFetchFailure(ctx context.Context) {
	if !mp.isEnabled() {
		return
	}
	mp.fetchFailuresCounter.Add(ctx, 1)
}

func (mp *MetricsProvider) isEnabled() bool {
	mp.mu.RLock()
	defer mp.mu.RUnlock()
	return mp.initialized && mp.enabled
}
