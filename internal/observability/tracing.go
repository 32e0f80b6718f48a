package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
)

const TracerName = "github.com/DRSN-tech/imgcluster"

// Имена стадий конвейера для спанов
const (
	StageLoad     = "load"
	StageColor    = "color"
	StageEmbed    = "embed"
	StageFuse     = "fuse"
	StageAutoK    = "autok"
	StageAssemble = "assemble"
	StageIndex    = "index"
)

// TracingConfig — настройки OpenTelemetry. Пустой OTLPEndpoint отключает экспорт.
type TracingConfig struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	OTLPEndpoint   string
	SampleRate     float64
}

func DefaultTracingConfig() *TracingConfig {
	return &TracingConfig{
		ServiceName:    "imgcluster",
		ServiceVersion: "dev",
		Environment:    "development",
		SampleRate:     1.0,
	}
}

type TracerProvider struct {
	provider *sdktrace.TracerProvider
	tracer   trace.Tracer
}

// InitTracing настраивает глобальный провайдер трассировки.
// Без OTLPEndpoint возвращается no-op трассировщик.
func InitTracing(ctx context.Context, cfg *TracingConfig) (*TracerProvider, error) {
	if cfg == nil {
		cfg = DefaultTracingConfig()
	}

	if cfg.OTLPEndpoint == "" {
		return &TracerProvider{tracer: otel.Tracer(TracerName)}, nil
	}

	exporter, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(cfg.OTLPEndpoint),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		return nil, fmt.Errorf("create OTLP exporter: %w", err)
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.ServiceVersion),
			semconv.DeploymentEnvironment(cfg.Environment),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("create resource: %w", err)
	}

	var sampler sdktrace.Sampler
	switch {
	case cfg.SampleRate >= 1.0:
		sampler = sdktrace.AlwaysSample()
	case cfg.SampleRate <= 0:
		sampler = sdktrace.NeverSample()
	default:
		sampler = sdktrace.TraceIDRatioBased(cfg.SampleRate)
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler),
	)

	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return &TracerProvider{
		provider: provider,
		tracer:   provider.Tracer(TracerName),
	}, nil
}

func (tp *TracerProvider) Shutdown(ctx context.Context) error {
	if tp.provider != nil {
		return tp.provider.Shutdown(ctx)
	}
	return nil
}

func (tp *TracerProvider) Tracer() trace.Tracer {
	return tp.tracer
}

// StartStageSpan открывает спан стадии конвейера.
func StartStageSpan(ctx context.Context, stage string, items int) (context.Context, trace.Span) {
	return otel.Tracer(TracerName).Start(ctx, "pipeline."+stage,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("imgcluster.stage", stage),
			attribute.Int("imgcluster.items", items),
		),
	)
}

// StartJobSpan открывает корневой спан фоновой задачи.
func StartJobSpan(ctx context.Context, jobID string, images int) (context.Context, trace.Span) {
	return otel.Tracer(TracerName).Start(ctx, "job.run",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("imgcluster.job_id", jobID),
			attribute.Int("imgcluster.images", images),
		),
	)
}

// RecordSelection записывает итог выбора K.
func RecordSelection(span trace.Span, k int, score float64, candidates int) {
	span.SetAttributes(
		attribute.Int("autok.k", k),
		attribute.Float64("autok.score", score),
		attribute.Int("autok.candidates", candidates),
	)
}

// RecordSkipped записывает число пропущенных изображений.
func RecordSkipped(span trace.Span, skipped int) {
	span.SetAttributes(attribute.Int("imgcluster.skipped", skipped))
}

func RecordError(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}
