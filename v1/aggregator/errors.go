package aggregator

import (
	"errors"
	"fmt"
)

var (
	// ErrKindMismatch is returned when a metric name is registered with a
	// different kind than the one it already has.
	ErrKindMismatch = errors.New("metric registered with conflicting kind")

	// ErrInvalidKind is returned by GetOrCreate for a Kind outside the
	// declared constants.
	ErrInvalidKind = errors.New("unknown metric kind")

	// ErrInvalidName is returned for empty metric names.
	ErrInvalidName = errors.New("metric name must not be empty")

	// ErrInvalidConfig is returned by Config.Validate for negative limits.
	ErrInvalidConfig = errors.New("invalid aggregator configuration")

	// ErrInvalidQuantile is returned for quantiles outside (0, 1].
	ErrInvalidQuantile = errors.New("quantile must be in (0, 1]")

	// ErrInvalidBinding is returned by Bind for targets it cannot populate.
	ErrInvalidBinding = errors.New("invalid metric binding")
)

// KindMismatchError describes a registration conflict.
type KindMismatchError struct {
	Name       string
	Registered Kind
	Requested  Kind
}

func (e *KindMismatchError) Error() string {
	return fmt.Sprintf("metric %q is a %s, cannot register it as a %s", e.Name, e.Registered, e.Requested)
}

func (e *KindMismatchError) Unwrap() error {
	return ErrKindMismatch
}

// IsKindMismatch reports whether err is a registration conflict.
func IsKindMismatch(err error) bool {
	return errors.Is(err, ErrKindMismatch)
}
