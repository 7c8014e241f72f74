package aggregator

import (
	"fmt"
	"strings"
	"time"
)

// Kind is the aggregation policy of a metric.
type Kind uint8

const (
	KindCounter Kind = iota + 1
	KindGauge
	KindDistribution
	KindTimingCount
)

func (k Kind) valid() bool {
	return k >= KindCounter && k <= KindTimingCount
}

func (k Kind) String() string {
	switch k {
	case KindCounter:
		return "counter"
	case KindGauge:
		return "gauge"
	case KindDistribution:
		return "distribution"
	case KindTimingCount:
		return "timing_count"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Unit is the resolution a TimingCount accumulates durations in.
type Unit uint8

const (
	Micros Unit = iota
	Millis
	Seconds
)

// Duration returns the length of one unit.
func (u Unit) Duration() time.Duration {
	switch u {
	case Millis:
		return time.Millisecond
	case Seconds:
		return time.Second
	default:
		return time.Microsecond
	}
}

func (u Unit) String() string {
	switch u {
	case Millis:
		return "ms"
	case Seconds:
		return "s"
	default:
		return "us"
	}
}

// ParseUnit accepts "us", "ms" and "s" (and their long forms). Empty means Micros.
func ParseUnit(s string) (Unit, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "us", "micros", "microseconds":
		return Micros, nil
	case "ms", "millis", "milliseconds":
		return Millis, nil
	case "s", "seconds":
		return Seconds, nil
	default:
		return Micros, fmt.Errorf("%w: unknown unit %q", ErrInvalidBinding, s)
	}
}
