package metrics

// DefaultNamespace prefixes every self-telemetry metric name.
const DefaultNamespace = "statsagg"

// Config defines how the self-telemetry registry is built.
type Config struct {
	// ServiceName is attached to every metric as the constant "service" label.
	ServiceName string `yaml:"service_name" mapstructure:"service_name" envconfig:"DD_SERVICE"`

	// Namespace prefixes metric names, e.g. "statsagg_flushes_total".
	Namespace string `yaml:"namespace" mapstructure:"namespace" envconfig:"METRICS_PROMETHEUS_NAMESPACE"`

	// EnableDefaultCollectors adds the Go runtime, process and build info
	// collectors to the registry.
	EnableDefaultCollectors bool `yaml:"enable_default_collectors" mapstructure:"enable_default_collectors" envconfig:"METRICS_ENABLE_DEFAULT_COLLECTORS"`
}
