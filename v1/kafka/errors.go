package kafka

import "errors"

var (
	// ErrInvalidConfig is returned by Config.Validate.
	ErrInvalidConfig = errors.New("invalid kafka sink config")

	// ErrSinkClosed is returned by Send after Close.
	ErrSinkClosed = errors.New("kafka sink closed")

	// ErrPublish wraps writer failures returned from Send.
	ErrPublish = errors.New("kafka publish failed")
)

// IsPublishError reports whether err came from the Kafka writer.
func IsPublishError(err error) bool {
	return errors.Is(err, ErrPublish)
}
