package flush

import (
	"time"

	"github.com/Aleph-Alpha/statsagg/v1/logger"
)

// Defaults applied by NewScheduler for zero-valued fields.
const (
	DefaultInterval          = 3 * time.Second
	DefaultSendTimeout       = 2 * time.Second
	DefaultFinalFlushTimeout = 5 * time.Second
	DefaultSelfMetricName    = "statsagg.aggregate.time_to_emit_metrics"
)

// Config controls the flush cadence and transport deadlines.
type Config struct {
	// Interval is the window length. A flush runs on every tick.
	Interval time.Duration `yaml:"interval" mapstructure:"interval" envconfig:"METRICS_FLUSH_INTERVAL"`

	// Delay postpones the first flush after Start. Ticks that fall inside
	// the delay are skipped.
	Delay time.Duration `yaml:"delay" mapstructure:"delay" envconfig:"METRICS_FLUSH_DELAY"`

	// SendTimeout bounds each call to Transport.Send.
	SendTimeout time.Duration `yaml:"send_timeout" mapstructure:"send_timeout" envconfig:"METRICS_SEND_TIMEOUT"`

	// FinalFlushTimeout bounds the flush performed by Stop.
	FinalFlushTimeout time.Duration `yaml:"final_flush_timeout" mapstructure:"final_flush_timeout" envconfig:"METRICS_FINAL_FLUSH_TIMEOUT"`

	// SelfMetricName is the gauge that receives the duration of each flush
	// cycle in microseconds. It is reported in the following window.
	SelfMetricName string `yaml:"self_metric_name" mapstructure:"self_metric_name" envconfig:"METRICS_SELF_METRIC_NAME"`

	// DisableSelfMetrics turns the cycle duration gauge off.
	DisableSelfMetrics bool `yaml:"disable_self_metrics" mapstructure:"disable_self_metrics" envconfig:"METRICS_DISABLE_SELF_METRICS"`

	Logger logger.Logger `yaml:"-" mapstructure:"-"`
}

func (c Config) withDefaults() Config {
	if c.Interval <= 0 {
		c.Interval = DefaultInterval
	}
	if c.Delay < 0 {
		c.Delay = 0
	}
	if c.SendTimeout <= 0 {
		c.SendTimeout = DefaultSendTimeout
	}
	if c.FinalFlushTimeout <= 0 {
		c.FinalFlushTimeout = DefaultFinalFlushTimeout
	}
	if c.SelfMetricName == "" {
		c.SelfMetricName = DefaultSelfMetricName
	}
	if c.Logger == nil {
		c.Logger = logger.NewNop()
	}
	return c
}

// Validate reports values that cannot be defaulted.
func (c Config) Validate() error {
	if c.Interval < 0 || c.SendTimeout < 0 || c.FinalFlushTimeout < 0 {
		return ErrInvalidConfig
	}
	if c.SendTimeout > 0 && c.Interval > 0 && c.SendTimeout > c.Interval {
		return ErrInvalidConfig
	}
	return nil
}
