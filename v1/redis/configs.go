package redis

import (
	"fmt"
	"time"

	"github.com/Aleph-Alpha/statsagg/v1/logger"
)

// Publish modes accepted in Config.Mode.
const (
	// ModeStream appends one entry per window to a stream with XADD.
	ModeStream = "stream"

	// ModePubSub publishes one message per window to a channel.
	ModePubSub = "pubsub"
)

// Defaults applied by NewSink for zero-valued fields.
const (
	DefaultHost            = "localhost"
	DefaultPort            = 6379
	DefaultKey             = "statsagg:metrics"
	DefaultMaxLen          = 10000
	DefaultMaxRetries      = 3
	DefaultMinRetryBackoff = 8 * time.Millisecond
	DefaultMaxRetryBackoff = 512 * time.Millisecond
	DefaultDialTimeout     = 5 * time.Second
	DefaultWriteTimeout    = 2 * time.Second
)

// Config configures the Redis sink.
type Config struct {
	Host     string `yaml:"host" mapstructure:"host" envconfig:"REDIS_HOST"`
	Port     int    `yaml:"port" mapstructure:"port" envconfig:"REDIS_PORT"`
	Username string `yaml:"username" mapstructure:"username" envconfig:"REDIS_USERNAME"`
	Password string `yaml:"password" mapstructure:"password" envconfig:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" mapstructure:"db" envconfig:"REDIS_DB"`

	// Mode is stream or pubsub. Defaults to stream.
	Mode string `yaml:"mode" mapstructure:"mode" envconfig:"REDIS_MODE"`

	// Key is the stream or channel name.
	Key string `yaml:"key" mapstructure:"key" envconfig:"REDIS_KEY"`

	// MaxLen caps the stream length with approximate trimming. Negative
	// disables trimming. Ignored in pubsub mode.
	MaxLen int64 `yaml:"max_len" mapstructure:"max_len" envconfig:"REDIS_MAX_LEN"`

	MaxRetries      int           `yaml:"max_retries" mapstructure:"max_retries" envconfig:"REDIS_MAX_RETRIES"`
	MinRetryBackoff time.Duration `yaml:"min_retry_backoff" mapstructure:"min_retry_backoff"`
	MaxRetryBackoff time.Duration `yaml:"max_retry_backoff" mapstructure:"max_retry_backoff"`
	DialTimeout     time.Duration `yaml:"dial_timeout" mapstructure:"dial_timeout" envconfig:"REDIS_DIAL_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" mapstructure:"write_timeout" envconfig:"REDIS_WRITE_TIMEOUT"`

	TLS TLSConfig `yaml:"tls" mapstructure:"tls"`

	Logger logger.Logger `yaml:"-" mapstructure:"-"`
}

// TLSConfig enables TLS towards the server.
type TLSConfig struct {
	Enabled            bool   `yaml:"enabled" mapstructure:"enabled" envconfig:"REDIS_TLS_ENABLED"`
	CACertPath         string `yaml:"ca_cert_path" mapstructure:"ca_cert_path" envconfig:"REDIS_TLS_CA_CERT_PATH"`
	ClientCertPath     string `yaml:"client_cert_path" mapstructure:"client_cert_path" envconfig:"REDIS_TLS_CLIENT_CERT_PATH"`
	ClientKeyPath      string `yaml:"client_key_path" mapstructure:"client_key_path" envconfig:"REDIS_TLS_CLIENT_KEY_PATH"`
	InsecureSkipVerify bool   `yaml:"insecure_skip_verify" mapstructure:"insecure_skip_verify" envconfig:"REDIS_TLS_INSECURE_SKIP_VERIFY"`
	ServerName         string `yaml:"server_name" mapstructure:"server_name" envconfig:"REDIS_TLS_SERVER_NAME"`
}

func (c Config) withDefaults() Config {
	if c.Host == "" {
		c.Host = DefaultHost
	}
	if c.Port == 0 {
		c.Port = DefaultPort
	}
	if c.Mode == "" {
		c.Mode = ModeStream
	}
	if c.Key == "" {
		c.Key = DefaultKey
	}
	if c.MaxLen == 0 {
		c.MaxLen = DefaultMaxLen
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = DefaultMaxRetries
	}
	if c.MinRetryBackoff == 0 {
		c.MinRetryBackoff = DefaultMinRetryBackoff
	}
	if c.MaxRetryBackoff == 0 {
		c.MaxRetryBackoff = DefaultMaxRetryBackoff
	}
	if c.DialTimeout == 0 {
		c.DialTimeout = DefaultDialTimeout
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = DefaultWriteTimeout
	}
	if c.Logger == nil {
		c.Logger = logger.NewNop()
	}
	return c
}

// Validate reports values that cannot be defaulted.
func (c Config) Validate() error {
	switch c.Mode {
	case "", ModeStream, ModePubSub:
	default:
		return fmt.Errorf("%w: unknown mode %q", ErrInvalidConfig, c.Mode)
	}
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("%w: port %d out of range", ErrInvalidConfig, c.Port)
	}
	if c.DB < 0 {
		return fmt.Errorf("%w: negative db", ErrInvalidConfig)
	}
	return nil
}
