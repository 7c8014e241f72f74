package config

import (
	"errors"
	"fmt"
	"io/fs"
	"reflect"
	"strings"

	"github.com/Aleph-Alpha/statsagg/v1/aggregator"
	"github.com/Aleph-Alpha/statsagg/v1/flush"
	"github.com/Aleph-Alpha/statsagg/v1/logger"
	"github.com/Aleph-Alpha/statsagg/v1/metrics"
	"github.com/Aleph-Alpha/statsagg/v1/statsd"
	"github.com/spf13/viper"
)

// Load builds a Config from defaults, the YAML file at path and the
// environment, in increasing order of precedence. An empty path or a
// missing file is not an error.
//
// Environment variables are the envconfig names on each field, e.g.
// STATSD_HOST, DD_ENV, METRICS_FLUSH_INTERVAL or ZAP_LOGGER_LEVEL.
//
// Example:
//
//	cfg, err := config.Load("/etc/billing/metrics.yaml")
//	if err != nil {
//		return err
//	}
//	registry := aggregator.NewRegistry(cfg.Aggregator)
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	if err := bindEnvs(v, "", reflect.TypeOf(Config{})); err != nil {
		return Config{}, err
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("%w %s: %w", ErrReadConfig, path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("%w %s: %w", ErrReadConfig, path, err)
	}
	cfg.Sink.Type = strings.ToLower(cfg.Sink.Type)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logger.level", logger.Info)
	v.SetDefault("aggregator.quantiles", aggregator.DefaultQuantiles)
	v.SetDefault("aggregator.histogram_significant_figures", aggregator.DefaultHistogramSignificantFigures)
	v.SetDefault("statsd.host", statsd.DefaultHost)
	v.SetDefault("statsd.port", statsd.DefaultPort)
	v.SetDefault("statsd.max_packet_size", statsd.DefaultMaxPacketSize)
	v.SetDefault("statsd.rate_limit", statsd.DefaultRateLimit)
	v.SetDefault("statsd.burst", statsd.DefaultBurst)
	v.SetDefault("flush.interval", flush.DefaultInterval)
	v.SetDefault("flush.send_timeout", flush.DefaultSendTimeout)
	v.SetDefault("flush.final_flush_timeout", flush.DefaultFinalFlushTimeout)
	v.SetDefault("metrics.namespace", metrics.DefaultNamespace)
	v.SetDefault("sink.type", SinkStatsD)
}

// bindEnvs walks the mapstructure keys of t and binds each field carrying
// an envconfig tag to that variable.
func bindEnvs(v *viper.Viper, prefix string, t reflect.Type) error {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		key := f.Tag.Get("mapstructure")
		if key == "" || key == "-" {
			continue
		}
		if prefix != "" {
			key = prefix + "." + key
		}

		if f.Type.Kind() == reflect.Struct && f.Type.PkgPath() != "time" {
			if err := bindEnvs(v, key, f.Type); err != nil {
				return err
			}
			continue
		}
		if env := f.Tag.Get("envconfig"); env != "" {
			if err := v.BindEnv(key, env); err != nil {
				return fmt.Errorf("bind %s to %s: %w", key, env, err)
			}
		}
	}
	return nil
}
