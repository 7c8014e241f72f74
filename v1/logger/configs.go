package logger

// Log levels accepted by Config.Level.
const (
	Debug   = "debug"
	Info    = "info"
	Warning = "warning"
	Error   = "error"
)

// Config defines the configuration for the logger.
type Config struct {
	// Level is the minimum level that is written. One of Debug, Info, Warning
	// or Error. Unknown values fall back to Info.
	Level string `yaml:"level" mapstructure:"level" envconfig:"ZAP_LOGGER_LEVEL"`

	// ServiceName is attached to every entry as the "service" field.
	ServiceName string `yaml:"service_name" mapstructure:"service_name" envconfig:"DD_SERVICE"`

	// EnableTracing makes the *WithContext methods attach trace_id and
	// span_id from the OpenTelemetry span carried by the context.
	EnableTracing bool `yaml:"enable_tracing" mapstructure:"enable_tracing" envconfig:"LOGGER_ENABLE_TRACING"`
}
