// Package tracer configures OpenTelemetry tracing for statsagg.
//
// NewClient installs an SDK tracer provider as the global provider, with an
// optional OTLP/HTTP exporter. The flush scheduler creates one span per
// cycle; the Kafka and RabbitMQ sinks propagate the span context in message
// headers.
//
//	t, err := tracer.NewClient(tracer.Config{
//		ServiceName:  "billing",
//		AppEnv:       "prod",
//		EnableExport: true,
//		Endpoint:     "otel-collector:4318",
//	}, log)
//	scheduler := flush.NewScheduler(cfg, registry, client, client,
//		flush.WithTracerProvider(t.Provider()))
package tracer
