// Package telemetry exposes the OpenTelemetry instruments recorded around
// vision computations.
package telemetry

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
)

const (
	instrumentationName = "github.com/hailam/chessvision"

	defaultInterval = 30 * time.Second
)

// Config holds telemetry settings.
type Config struct {
	Enabled     bool
	ServiceName string

	// Interval is how often metrics are exported. Zero means 30s.
	Interval time.Duration
	// Output receives the exported metrics as JSON. Nil means stderr.
	Output io.Writer
	// Reader replaces the periodic stdout export, e.g. with a
	// sdkmetric.ManualReader.
	Reader sdkmetric.Reader
}

// Instruments are the counters and histograms used by the game sessions.
type Instruments struct {
	computations metric.Int64Counter
	duration     metric.Float64Histogram
	moves        metric.Int64Counter
	service      attribute.KeyValue

	provider *sdkmetric.MeterProvider
}

// New creates the instruments. When telemetry is disabled they come from a
// no-op meter. Otherwise an SDK meter provider is built, installed as the
// global provider and exported through cfg.Reader or to cfg.Output every
// cfg.Interval. Call Shutdown to flush.
func New(cfg Config) (*Instruments, error) {
	if !cfg.Enabled {
		return newInstruments(noop.Meter{}, cfg.ServiceName)
	}

	reader := cfg.Reader
	if reader == nil {
		out := cfg.Output
		if out == nil {
			out = os.Stderr
		}
		exporter, err := stdoutmetric.New(stdoutmetric.WithWriter(out))
		if err != nil {
			return nil, fmt.Errorf("creating stdout exporter: %w", err)
		}
		interval := cfg.Interval
		if interval <= 0 {
			interval = defaultInterval
		}
		reader = sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(interval))
	}

	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(reader),
		sdkmetric.WithResource(resource.NewSchemaless(attribute.String("service.name", cfg.ServiceName))),
	)
	otel.SetMeterProvider(provider)

	in, err := newInstruments(provider.Meter(instrumentationName), cfg.ServiceName)
	if err != nil {
		_ = provider.Shutdown(context.Background())
		return nil, err
	}
	in.provider = provider
	return in, nil
}

// Noop returns instruments that record nothing.
func Noop() *Instruments {
	in, err := newInstruments(noop.Meter{}, "")
	if err != nil {
		// The no-op meter never fails.
		panic(err)
	}
	return in
}

// Shutdown flushes pending metrics and stops the exporter. It is a no-op
// for disabled or no-op instruments.
func (in *Instruments) Shutdown(ctx context.Context) error {
	if in.provider == nil {
		return nil
	}
	if err := in.provider.Shutdown(ctx); err != nil {
		return fmt.Errorf("telemetry shutdown: %w", err)
	}
	return nil
}

func newInstruments(m metric.Meter, service string) (*Instruments, error) {
	in := &Instruments{service: attribute.String("service", service)}

	var err error
	in.computations, err = m.Int64Counter(
		"chessvision.vision.computations",
		metric.WithDescription("Total full-board vision computations"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating computations counter: %w", err)
	}

	in.duration, err = m.Float64Histogram(
		"chessvision.vision.duration",
		metric.WithDescription("Time spent computing one vision grid"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating duration histogram: %w", err)
	}

	in.moves, err = m.Int64Counter(
		"chessvision.moves.applied",
		metric.WithDescription("Total moves applied to game sessions"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating moves counter: %w", err)
	}

	return in, nil
}

// RecordVision records one grid computation that took d.
func (in *Instruments) RecordVision(ctx context.Context, d time.Duration) {
	attrs := metric.WithAttributes(in.service)
	in.computations.Add(ctx, 1, attrs)
	in.duration.Record(ctx, float64(d)/float64(time.Millisecond), attrs)
}

// RecordMove records one applied move.
func (in *Instruments) RecordMove(ctx context.Context) {
	in.moves.Add(ctx, 1, metric.WithAttributes(in.service))
}
