package statsd

import (
	"time"

	"github.com/Aleph-Alpha/statsagg/v1/logger"
)

// Defaults applied by NewClient and NewEncoder for zero-valued fields.
const (
	DefaultHost = "0.0.0.0"
	DefaultPort = 8125

	// DefaultMaxPacketSize keeps datagrams below a typical 1500 byte MTU
	// after IP and UDP headers.
	DefaultMaxPacketSize = 1432

	DefaultRateLimit    = 42000
	DefaultBurst        = 42
	DefaultWriteTimeout = time.Second
)

// Config describes where and how encoded metrics are sent.
type Config struct {
	// Host and Port of the DogStatsD agent.
	Host string `yaml:"host" mapstructure:"host" envconfig:"STATSD_HOST"`
	Port int    `yaml:"port" mapstructure:"port" envconfig:"STATSD_PORT"`

	// SocketPath selects a unix datagram socket instead of UDP when set.
	SocketPath string `yaml:"socket_path" mapstructure:"socket_path" envconfig:"STATSD_SOCKET_PATH"`

	// Namespace is prepended to every metric name, separated by a dot.
	Namespace string `yaml:"namespace" mapstructure:"namespace" envconfig:"STATSD_NAMESPACE"`

	// Env, Version and Service become the env:, version: and service: tags
	// on every line.
	Env     string `yaml:"env" mapstructure:"env" envconfig:"DD_ENV"`
	Version string `yaml:"version" mapstructure:"version" envconfig:"DD_VERSION"`
	Service string `yaml:"service" mapstructure:"service" envconfig:"DD_SERVICE"`

	// Tags are extra "key:value" tags added to every line.
	Tags []string `yaml:"tags" mapstructure:"tags" envconfig:"STATSD_TAGS"`

	// MaxPacketSize is the largest datagram written. Lines are packed
	// newline-separated up to this size.
	MaxPacketSize int `yaml:"max_packet_size" mapstructure:"max_packet_size" envconfig:"STATSD_MAX_PACKET_SIZE"`

	// RateLimit is the number of datagrams per second the client may write,
	// with bursts of up to Burst. A negative RateLimit disables limiting.
	RateLimit float64 `yaml:"rate_limit" mapstructure:"rate_limit" envconfig:"STATSD_RATE_LIMIT"`
	Burst     int     `yaml:"burst" mapstructure:"burst" envconfig:"STATSD_BURST"`

	// WriteTimeout bounds a single write when the context carries no deadline.
	WriteTimeout time.Duration `yaml:"write_timeout" mapstructure:"write_timeout" envconfig:"STATSD_WRITE_TIMEOUT"`

	Logger logger.Logger `yaml:"-" mapstructure:"-"`
}

func (c Config) withDefaults() Config {
	if c.Host == "" {
		c.Host = DefaultHost
	}
	if c.Port == 0 {
		c.Port = DefaultPort
	}
	if c.MaxPacketSize <= 0 {
		c.MaxPacketSize = DefaultMaxPacketSize
	}
	if c.RateLimit == 0 {
		c.RateLimit = DefaultRateLimit
	}
	if c.Burst <= 0 {
		c.Burst = DefaultBurst
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = DefaultWriteTimeout
	}
	if c.Logger == nil {
		c.Logger = logger.NewNop()
	}
	return c
}

// Validate reports values that cannot be defaulted.
func (c Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return ErrInvalidPort
	}
	return nil
}
