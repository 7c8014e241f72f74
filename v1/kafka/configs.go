package kafka

import (
	"fmt"
	"time"

	"github.com/Aleph-Alpha/statsagg/v1/logger"
	"github.com/segmentio/kafka-go"
)

// Defaults applied by NewSink for zero-valued fields.
const (
	DefaultRequiredAcks = kafka.RequireOne
	DefaultMaxAttempts  = 3
	DefaultWriteTimeout = 2 * time.Second
	DefaultBatchSize    = 500
	DefaultBatchTimeout = 10 * time.Millisecond
)

// Config configures the Kafka sink.
type Config struct {
	// Brokers is the list of bootstrap brokers, host:port.
	Brokers []string `yaml:"brokers" mapstructure:"brokers" envconfig:"KAFKA_BROKERS"`

	// Topic receives one message per encoded metric line.
	Topic string `yaml:"topic" mapstructure:"topic" envconfig:"KAFKA_TOPIC"`

	// Key is set as the message key of every record. Empty keys let the
	// balancer spread records across partitions.
	Key string `yaml:"key" mapstructure:"key" envconfig:"KAFKA_KEY"`

	// RequiredAcks is -1 (all) or 1 (leader). Zero selects the leader.
	RequiredAcks kafka.RequiredAcks `yaml:"required_acks" mapstructure:"required_acks" envconfig:"KAFKA_REQUIRED_ACKS"`

	MaxAttempts  int           `yaml:"max_attempts" mapstructure:"max_attempts" envconfig:"KAFKA_MAX_ATTEMPTS"`
	WriteTimeout time.Duration `yaml:"write_timeout" mapstructure:"write_timeout" envconfig:"KAFKA_WRITE_TIMEOUT"`
	BatchSize    int           `yaml:"batch_size" mapstructure:"batch_size" envconfig:"KAFKA_BATCH_SIZE"`
	BatchTimeout time.Duration `yaml:"batch_timeout" mapstructure:"batch_timeout" envconfig:"KAFKA_BATCH_TIMEOUT"`

	// CompressionCodec is one of gzip, snappy, lz4, zstd or empty.
	CompressionCodec string `yaml:"compression_codec" mapstructure:"compression_codec" envconfig:"KAFKA_COMPRESSION_CODEC"`

	TLS  TLSConfig  `yaml:"tls" mapstructure:"tls"`
	SASL SASLConfig `yaml:"sasl" mapstructure:"sasl"`

	Logger logger.Logger `yaml:"-" mapstructure:"-"`
}

// TLSConfig enables TLS towards the brokers.
type TLSConfig struct {
	Enabled            bool   `yaml:"enabled" mapstructure:"enabled" envconfig:"KAFKA_TLS_ENABLED"`
	CACertPath         string `yaml:"ca_cert_path" mapstructure:"ca_cert_path" envconfig:"KAFKA_TLS_CA_CERT_PATH"`
	ClientCertPath     string `yaml:"client_cert_path" mapstructure:"client_cert_path" envconfig:"KAFKA_TLS_CLIENT_CERT_PATH"`
	ClientKeyPath      string `yaml:"client_key_path" mapstructure:"client_key_path" envconfig:"KAFKA_TLS_CLIENT_KEY_PATH"`
	InsecureSkipVerify bool   `yaml:"insecure_skip_verify" mapstructure:"insecure_skip_verify" envconfig:"KAFKA_TLS_INSECURE_SKIP_VERIFY"`
}

// SASLConfig enables SASL authentication. Mechanism is PLAIN,
// SCRAM-SHA-256 or SCRAM-SHA-512.
type SASLConfig struct {
	Enabled   bool   `yaml:"enabled" mapstructure:"enabled" envconfig:"KAFKA_SASL_ENABLED"`
	Mechanism string `yaml:"mechanism" mapstructure:"mechanism" envconfig:"KAFKA_SASL_MECHANISM"`
	Username  string `yaml:"username" mapstructure:"username" envconfig:"KAFKA_SASL_USERNAME"`
	Password  string `yaml:"password" mapstructure:"password" envconfig:"KAFKA_SASL_PASSWORD"`
}

func (c Config) withDefaults() Config {
	if c.RequiredAcks == 0 {
		c.RequiredAcks = DefaultRequiredAcks
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = DefaultMaxAttempts
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = DefaultWriteTimeout
	}
	if c.BatchSize <= 0 {
		c.BatchSize = DefaultBatchSize
	}
	if c.BatchTimeout <= 0 {
		c.BatchTimeout = DefaultBatchTimeout
	}
	if c.Logger == nil {
		c.Logger = logger.NewNop()
	}
	return c
}

// Validate checks the fields NewSink cannot default.
func (c Config) Validate() error {
	if len(c.Brokers) == 0 {
		return fmt.Errorf("%w: no brokers", ErrInvalidConfig)
	}
	if c.Topic == "" {
		return fmt.Errorf("%w: empty topic", ErrInvalidConfig)
	}
	switch c.CompressionCodec {
	case "", "gzip", "snappy", "lz4", "zstd":
	default:
		return fmt.Errorf("%w: unknown compression codec %q", ErrInvalidConfig, c.CompressionCodec)
	}
	return nil
}
