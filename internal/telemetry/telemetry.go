// Package telemetry wraps scenario-run and generation-batch spans in
// OpenTelemetry tracing: one span per scenario run, one per generation.
// The exporter is constructed lazily and becomes a no-op tracer provider
// if no OTLP endpoint is configured, so call sites never need to guard on
// configuration.
package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/cdstlab/optimizer"

// Provider owns the process-wide tracer provider lifecycle.
type Provider struct {
	tp     *sdktrace.TracerProvider
	tracer trace.Tracer
}

// NewProvider constructs a Provider. If endpoint is empty, spans are
// recorded by a default (non-exporting) provider — tracing calls remain
// cheap no-ops rather than requiring call sites to guard on configuration.
func NewProvider(ctx context.Context, endpoint string) (*Provider, error) {
	if endpoint == "" {
		tp := sdktrace.NewTracerProvider()
		return &Provider{tp: tp, tracer: tp.Tracer(tracerName)}, nil
	}

	client := otlptracegrpc.NewClient(otlptracegrpc.WithEndpoint(endpoint), otlptracegrpc.WithInsecure())
	exporter, err := otlptrace.New(ctx, client)
	if err != nil {
		return nil, err
	}
	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
	otel.SetTracerProvider(tp)
	return &Provider{tp: tp, tracer: tp.Tracer(tracerName)}, nil
}

// Shutdown flushes and stops the exporter.
func (p *Provider) Shutdown(ctx context.Context) error {
	return p.tp.Shutdown(ctx)
}

// StartScenarioRun opens a span covering an entire scenario run.
func (p *Provider) StartScenarioRun(ctx context.Context, scenarioID string, populationSize, maxGenerations int) (context.Context, trace.Span) {
	return p.tracer.Start(ctx, "scenario.run",
		trace.WithAttributes(
			attribute.String("scenario.id", scenarioID),
			attribute.Int("scenario.population_size", populationSize),
			attribute.Int("scenario.max_generations", maxGenerations),
		),
	)
}

// StartGeneration opens a span covering one generation batch.
func (p *Provider) StartGeneration(ctx context.Context, generation int, hypervolume float64) (context.Context, trace.Span) {
	return p.tracer.Start(ctx, "scenario.generation",
		trace.WithAttributes(
			attribute.Int("generation.number", generation),
			attribute.Float64("generation.hypervolume", hypervolume),
		),
	)
}

// RecordGenerationDuration is a convenience helper for call sites that
// measure generation wall time outside of a span (e.g. for the metrics
// histogram) and want to annotate the currently active span too.
func RecordGenerationDuration(span trace.Span, d time.Duration) {
	span.SetAttributes(attribute.Float64("generation.duration_seconds", d.Seconds()))
}
