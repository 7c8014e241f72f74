package rabbit

import (
	"fmt"
	"time"

	"github.com/Aleph-Alpha/statsagg/v1/logger"
)

// Defaults applied by NewSink for zero-valued fields.
const (
	DefaultPort        = 5672
	DefaultHeartbeat   = 2 * time.Second
	DefaultDialTimeout = 10 * time.Second
	DefaultContentType = "text/plain"
)

// Config configures the RabbitMQ sink.
type Config struct {
	Connection Connection `yaml:"connection" mapstructure:"connection"`
	Exchange   Exchange   `yaml:"exchange" mapstructure:"exchange"`

	Logger logger.Logger `yaml:"-" mapstructure:"-"`
}

// Connection holds the broker address, credentials and TLS settings.
type Connection struct {
	Host     string `yaml:"host" mapstructure:"host" envconfig:"RABBITMQ_HOST"`
	Port     uint   `yaml:"port" mapstructure:"port" envconfig:"RABBITMQ_PORT"`
	User     string `yaml:"user" mapstructure:"user" envconfig:"RABBITMQ_USER"`
	Password string `yaml:"password" mapstructure:"password" envconfig:"RABBITMQ_PASSWORD"`
	VHost    string `yaml:"vhost" mapstructure:"vhost" envconfig:"RABBITMQ_VHOST"`

	// IsSSLEnabled switches to amqps. UseCert additionally presents the
	// client certificate for mutual TLS.
	IsSSLEnabled   bool   `yaml:"is_ssl_enabled" mapstructure:"is_ssl_enabled" envconfig:"RABBITMQ_SSL_ENABLED"`
	UseCert        bool   `yaml:"use_cert" mapstructure:"use_cert" envconfig:"RABBITMQ_USE_CERT"`
	CACertPath     string `yaml:"ca_cert_path" mapstructure:"ca_cert_path" envconfig:"RABBITMQ_CA_CERT_PATH"`
	ClientCertPath string `yaml:"client_cert_path" mapstructure:"client_cert_path" envconfig:"RABBITMQ_CLIENT_CERT_PATH"`
	ClientKeyPath  string `yaml:"client_key_path" mapstructure:"client_key_path" envconfig:"RABBITMQ_CLIENT_KEY_PATH"`
	ServerName     string `yaml:"server_name" mapstructure:"server_name" envconfig:"RABBITMQ_SERVER_NAME"`

	Heartbeat time.Duration `yaml:"heartbeat" mapstructure:"heartbeat" envconfig:"RABBITMQ_HEARTBEAT"`

	// DialTimeout bounds the initial connection made by NewSink. Reconnects
	// during Send are bounded by the caller's context instead, and by
	// DialTimeout when that context has no deadline.
	DialTimeout time.Duration `yaml:"dial_timeout" mapstructure:"dial_timeout" envconfig:"RABBITMQ_DIAL_TIMEOUT"`
}

// Exchange describes where batches are published.
type Exchange struct {
	Name string `yaml:"name" mapstructure:"name" envconfig:"RABBITMQ_EXCHANGE"`

	// Type is used when Declare is set: direct, fanout, topic or headers.
	Type    string `yaml:"type" mapstructure:"type" envconfig:"RABBITMQ_EXCHANGE_TYPE"`
	Declare bool   `yaml:"declare" mapstructure:"declare" envconfig:"RABBITMQ_EXCHANGE_DECLARE"`

	RoutingKey  string `yaml:"routing_key" mapstructure:"routing_key" envconfig:"RABBITMQ_ROUTING_KEY"`
	ContentType string `yaml:"content_type" mapstructure:"content_type" envconfig:"RABBITMQ_CONTENT_TYPE"`

	// Persistent marks messages as persistent (delivery mode 2).
	Persistent bool `yaml:"persistent" mapstructure:"persistent" envconfig:"RABBITMQ_PERSISTENT"`
}

func (c Config) withDefaults() Config {
	if c.Connection.Port == 0 {
		c.Connection.Port = DefaultPort
	}
	if c.Connection.Heartbeat <= 0 {
		c.Connection.Heartbeat = DefaultHeartbeat
	}
	if c.Connection.DialTimeout <= 0 {
		c.Connection.DialTimeout = DefaultDialTimeout
	}
	if c.Exchange.ContentType == "" {
		c.Exchange.ContentType = DefaultContentType
	}
	if c.Exchange.Type == "" {
		c.Exchange.Type = "topic"
	}
	if c.Logger == nil {
		c.Logger = logger.NewNop()
	}
	return c
}

// Validate checks the fields NewSink cannot default.
func (c Config) Validate() error {
	if c.Connection.Host == "" {
		return fmt.Errorf("%w: empty host", ErrInvalidConfig)
	}
	if c.Connection.UseCert && (c.Connection.ClientCertPath == "" || c.Connection.ClientKeyPath == "") {
		return fmt.Errorf("%w: use_cert requires client_cert_path and client_key_path", ErrInvalidConfig)
	}
	if c.Exchange.Name == "" && c.Exchange.RoutingKey == "" {
		return fmt.Errorf("%w: default exchange needs a routing key", ErrInvalidConfig)
	}
	return nil
}
