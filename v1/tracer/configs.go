package tracer

// Config defines the tracer provider settings.
type Config struct {
	// ServiceName is recorded as the service.name resource attribute.
	ServiceName string `yaml:"service_name" mapstructure:"service_name" envconfig:"DD_SERVICE"`

	// AppEnv is recorded as deployment.environment.
	AppEnv string `yaml:"app_env" mapstructure:"app_env" envconfig:"DD_ENV"`

	// EnableExport sends spans to an OTLP/HTTP collector. The endpoint is
	// Endpoint if set, otherwise the standard OTEL_EXPORTER_OTLP_* variables.
	EnableExport bool `yaml:"enable_export" mapstructure:"enable_export" envconfig:"TRACER_ENABLE_EXPORT"`

	// Endpoint is host:port of the collector.
	Endpoint string `yaml:"endpoint" mapstructure:"endpoint" envconfig:"TRACER_ENDPOINT"`

	// Insecure disables TLS towards the collector.
	Insecure bool `yaml:"insecure" mapstructure:"insecure" envconfig:"TRACER_INSECURE"`
}
