package config

import (
	"fmt"

	"github.com/Aleph-Alpha/statsagg/v1/aggregator"
	"github.com/Aleph-Alpha/statsagg/v1/flush"
	"github.com/Aleph-Alpha/statsagg/v1/kafka"
	"github.com/Aleph-Alpha/statsagg/v1/logger"
	"github.com/Aleph-Alpha/statsagg/v1/metrics"
	"github.com/Aleph-Alpha/statsagg/v1/rabbit"
	"github.com/Aleph-Alpha/statsagg/v1/redis"
	"github.com/Aleph-Alpha/statsagg/v1/statsd"
	"github.com/Aleph-Alpha/statsagg/v1/tracer"
	"go.uber.org/multierr"
)

// Sink types accepted in Sink.Type.
const (
	SinkStatsD = "statsd"
	SinkKafka  = "kafka"
	SinkRabbit = "rabbit"
	SinkRedis  = "redis"
)

// Config is the complete configuration of an embedding service.
type Config struct {
	Logger     logger.Config     `yaml:"logger" mapstructure:"logger"`
	Tracer     tracer.Config     `yaml:"tracer" mapstructure:"tracer"`
	Aggregator aggregator.Config `yaml:"aggregator" mapstructure:"aggregator"`
	StatsD     statsd.Config     `yaml:"statsd" mapstructure:"statsd"`
	Flush      flush.Config      `yaml:"flush" mapstructure:"flush"`
	Metrics    metrics.Config    `yaml:"metrics" mapstructure:"metrics"`
	Sink       Sink              `yaml:"sink" mapstructure:"sink"`
}

// Sink selects where flushed windows go. StatsD settings always drive the
// line format; the broker sections are only read for their sink type.
type Sink struct {
	Type   string        `yaml:"type" mapstructure:"type" envconfig:"METRICS_SINK"`
	Kafka  kafka.Config  `yaml:"kafka" mapstructure:"kafka"`
	Rabbit rabbit.Config `yaml:"rabbit" mapstructure:"rabbit"`
	Redis  redis.Config  `yaml:"redis" mapstructure:"redis"`
}

// Validate checks every section that is in use and reports all problems.
func (c Config) Validate() error {
	var err error
	err = multierr.Append(err, c.Aggregator.Validate())
	err = multierr.Append(err, c.StatsD.Validate())
	err = multierr.Append(err, c.Flush.Validate())

	switch c.Sink.Type {
	case SinkStatsD:
	case SinkKafka:
		err = multierr.Append(err, c.Sink.Kafka.Validate())
	case SinkRabbit:
		err = multierr.Append(err, c.Sink.Rabbit.Validate())
	case SinkRedis:
		err = multierr.Append(err, c.Sink.Redis.Validate())
	default:
		err = multierr.Append(err, fmt.Errorf("%w: %q", ErrUnknownSink, c.Sink.Type))
	}
	return err
}
