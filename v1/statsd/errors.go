package statsd

import "errors"

var (
	// ErrLineTooLong is returned by the single-line sends when the encoded
	// line exceeds MaxPacketSize. Batch sends skip such lines instead.
	ErrLineTooLong = errors.New("statsd line exceeds max packet size")

	// ErrClientClosed is returned by sends after Close.
	ErrClientClosed = errors.New("statsd client closed")

	// ErrInvalidPort is returned by Config.Validate.
	ErrInvalidPort = errors.New("statsd port out of range")
)

// IsLineTooLong reports whether err is ErrLineTooLong.
func IsLineTooLong(err error) bool {
	return errors.Is(err, ErrLineTooLong)
}
