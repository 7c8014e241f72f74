package aggregator

// Aggregator is a live accumulator bound to one Identity.
// Concrete types are *Counter, *Gauge, *Distribution and *TimingCount.
type Aggregator interface {
	Kind() Kind
	Identity() Identity

	// snapshot returns the window's accumulated state and resets it.
	snapshot(resetGauge bool) Sample
}

// Logger is the subset of logger.Logger this package writes to.
type Logger interface {
	Info(msg string, err error, fields ...map[string]interface{})
	Warn(msg string, err error, fields ...map[string]interface{})
	Error(msg string, err error, fields ...map[string]interface{})
}

type nopLogger struct{}

func (nopLogger) Info(string, error, ...map[string]interface{})  {}
func (nopLogger) Warn(string, error, ...map[string]interface{})  {}
func (nopLogger) Error(string, error, ...map[string]interface{}) {}

var (
	_ Aggregator = (*Counter)(nil)
	_ Aggregator = (*Gauge)(nil)
	_ Aggregator = (*Distribution)(nil)
	_ Aggregator = (*TimingCount)(nil)
)
