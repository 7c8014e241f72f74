package tracer

import (
	"context"
	"fmt"

	"github.com/Aleph-Alpha/statsagg/v1/logger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
	"go.opentelemetry.io/otel/trace"
)

// Tracer wraps the OpenTelemetry SDK provider. Flush cycles and sink
// deliveries create their spans through it.
type Tracer struct {
	provider *sdktrace.TracerProvider
	logger   logger.Logger
}

// NewClient builds the tracer provider, installs it as the global provider
// and sets the W3C trace context and baggage propagators.
//
// Example:
//
//	t, err := tracer.NewClient(tracer.Config{ServiceName: "billing", AppEnv: "prod"}, log)
//	if err != nil {
//		return err
//	}
//	defer t.Shutdown(context.Background())
func NewClient(cfg Config, log logger.Logger, opts ...sdktrace.TracerProviderOption) (*Tracer, error) {
	if log == nil {
		log = logger.NewNop()
	}

	var options []sdktrace.TracerProviderOption
	if cfg.EnableExport {
		var clientOpts []otlptracehttp.Option
		if cfg.Endpoint != "" {
			clientOpts = append(clientOpts, otlptracehttp.WithEndpoint(cfg.Endpoint))
		}
		if cfg.Insecure {
			clientOpts = append(clientOpts, otlptracehttp.WithInsecure())
		}
		exporter, err := otlptracehttp.New(context.Background(), clientOpts...)
		if err != nil {
			return nil, fmt.Errorf("cannot initiate trace exporter: %w", err)
		}
		options = append(options, sdktrace.WithBatcher(exporter))
	}

	options = append(options, sdktrace.WithResource(resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(cfg.ServiceName),
		semconv.DeploymentEnvironment(cfg.AppEnv),
		attribute.String("environment", cfg.AppEnv),
	)))
	options = append(options, opts...)

	tp := sdktrace.NewTracerProvider(options...)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))

	log.Info("tracer initialized", nil, map[string]interface{}{
		"service": cfg.ServiceName,
		"export":  cfg.EnableExport,
	})
	return &Tracer{provider: tp, logger: log}, nil
}

// Provider returns the provider for components that create their own tracers.
func (t *Tracer) Provider() trace.TracerProvider {
	return t.provider
}

// Shutdown flushes pending spans and stops the exporter.
func (t *Tracer) Shutdown(ctx context.Context) error {
	if t == nil || t.provider == nil {
		return nil
	}
	t.logger.Info("shutting down tracer", nil)
	return t.provider.Shutdown(ctx)
}
