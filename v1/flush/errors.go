package flush

import "errors"

var (
	// ErrAlreadyStarted is returned by Start on a running scheduler.
	ErrAlreadyStarted = errors.New("flush scheduler already started")

	// ErrStopped is returned by Start after Stop.
	ErrStopped = errors.New("flush scheduler stopped")

	// ErrBatchDropped is returned by FlushNow when the previous batch did not
	// finish transmitting before the context ended.
	ErrBatchDropped = errors.New("metric batch dropped")

	// ErrInvalidConfig is returned by Config.Validate.
	ErrInvalidConfig = errors.New("invalid flush configuration")
)
