package config

import (
	"github.com/Aleph-Alpha/statsagg/v1/aggregator"
	"github.com/Aleph-Alpha/statsagg/v1/flush"
	"github.com/Aleph-Alpha/statsagg/v1/kafka"
	"github.com/Aleph-Alpha/statsagg/v1/logger"
	"github.com/Aleph-Alpha/statsagg/v1/metrics"
	"github.com/Aleph-Alpha/statsagg/v1/rabbit"
	"github.com/Aleph-Alpha/statsagg/v1/redis"
	"github.com/Aleph-Alpha/statsagg/v1/statsd"
	"github.com/Aleph-Alpha/statsagg/v1/tracer"
	"go.uber.org/fx"
)

// FXModule splits a Config in the container into the per-package configs
// the other modules consume.
//
// Usage:
//
//	cfg, err := config.Load(path)
//	app := fx.New(
//	    fx.Supply(cfg),
//	    config.FXModule,
//	    logger.FXModule,
//	    aggregator.FXModule,
//	    config.TransportModule(cfg.Sink.Type),
//	    flush.FXModule,
//	)
var FXModule = fx.Module("config",
	fx.Provide(
		func(c Config) logger.Config { return c.Logger },
		func(c Config) tracer.Config { return c.Tracer },
		func(c Config) aggregator.Config { return c.Aggregator },
		func(c Config) statsd.Config { return c.StatsD },
		func(c Config) flush.Config { return c.Flush },
		func(c Config) metrics.Config { return c.Metrics },
		func(c Config) kafka.Config { return c.Sink.Kafka },
		func(c Config) rabbit.Config { return c.Sink.Rabbit },
		func(c Config) redis.Config { return c.Sink.Redis },
	),
)

// TransportModule returns the modules providing the flush.Encoder and
// flush.Transport for sinkType. Unknown types fall back to statsd;
// Config.Validate rejects them before this is reached.
func TransportModule(sinkType string) fx.Option {
	switch sinkType {
	case SinkKafka:
		return fx.Options(statsd.EncoderFXModule, kafka.FXModule)
	case SinkRabbit:
		return fx.Options(statsd.EncoderFXModule, rabbit.FXModule)
	case SinkRedis:
		return fx.Options(statsd.EncoderFXModule, redis.FXModule)
	default:
		return statsd.FXModule
	}
}

// Module assembles the whole pipeline for cfg: logging, tracing, the
// registry, the configured transport, the flush scheduler and the
// self-telemetry collector.
func Module(cfg Config) fx.Option {
	return fx.Options(
		fx.Supply(cfg),
		FXModule,
		logger.FXModule,
		tracer.FXModule,
		aggregator.FXModule,
		TransportModule(cfg.Sink.Type),
		flush.FXModule,
		metrics.FXModule,
	)
}
