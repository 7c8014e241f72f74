package aggregator

// Defaults applied by NewRegistry for zero-valued Config fields.
const (
	// DefaultHistogramSignificantFigures keeps quantile relative error below 1%.
	DefaultHistogramSignificantFigures = 2

	// DefaultHistogramMaxValue is the largest value a distribution tracks with
	// full precision. Larger observations still count toward count, sum, min
	// and max, but land in the top histogram bucket.
	DefaultHistogramMaxValue = 1e7

	// DefaultHistogramResolution is the number of histogram units per 1.0 of
	// observed value, i.e. values are resolved to 0.001.
	DefaultHistogramResolution = 1000
)

// DefaultQuantiles are reported for every distribution unless Config.Quantiles is set.
var DefaultQuantiles = []float64{0.5, 0.9, 0.99}

// Config controls registry limits and distribution sketches.
type Config struct {
	// MaxSeries caps the number of distinct identities the registry holds.
	// Zero disables the cap. Once reached, new identities share one detached
	// aggregator per kind whose recordings are never reported. Each rejected
	// identity is counted once in Stats.RejectedSeries.
	MaxSeries int `yaml:"max_series" mapstructure:"max_series" envconfig:"METRICS_MAX_SERIES"`

	// ResetGauges makes rotation clear gauges to "unset". By default a gauge
	// keeps reporting its last value in every window until it is set again.
	ResetGauges bool `yaml:"reset_gauges" mapstructure:"reset_gauges" envconfig:"METRICS_RESET_GAUGES"`

	// Quantiles reported for distributions, each in (0, 1].
	Quantiles []float64 `yaml:"quantiles" mapstructure:"quantiles"`

	// HistogramSignificantFigures is the precision of the distribution sketch (1-5).
	HistogramSignificantFigures int `yaml:"histogram_significant_figures" mapstructure:"histogram_significant_figures"`

	// HistogramMaxValue is the largest value tracked with full precision.
	HistogramMaxValue float64 `yaml:"histogram_max_value" mapstructure:"histogram_max_value"`

	// HistogramResolution is the number of sketch units per 1.0 of value.
	HistogramResolution float64 `yaml:"histogram_resolution" mapstructure:"histogram_resolution"`

	// Logger receives registration conflicts and cardinality warnings.
	Logger Logger `yaml:"-" mapstructure:"-"`
}

func (c Config) withDefaults() Config {
	if len(c.Quantiles) == 0 {
		c.Quantiles = DefaultQuantiles
	}
	if c.HistogramSignificantFigures <= 0 || c.HistogramSignificantFigures > 5 {
		c.HistogramSignificantFigures = DefaultHistogramSignificantFigures
	}
	if c.HistogramMaxValue <= 0 {
		c.HistogramMaxValue = DefaultHistogramMaxValue
	}
	if c.HistogramResolution <= 0 {
		c.HistogramResolution = DefaultHistogramResolution
	}
	if c.Logger == nil {
		c.Logger = nopLogger{}
	}
	return c
}

// Validate reports configuration values that cannot be defaulted.
func (c Config) Validate() error {
	if c.MaxSeries < 0 {
		return ErrInvalidConfig
	}
	for _, q := range c.Quantiles {
		if q <= 0 || q > 1 {
			return ErrInvalidQuantile
		}
	}
	return nil
}
