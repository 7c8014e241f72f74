package redis

import (
	"errors"

	"github.com/redis/go-redis/v9"
)

var (
	// ErrInvalidConfig is returned by Config.Validate.
	ErrInvalidConfig = errors.New("invalid redis sink config")

	// ErrSinkClosed is returned by Send after Close.
	ErrSinkClosed = errors.New("redis sink closed")

	// ErrPublish wraps server and network errors returned from Send.
	ErrPublish = errors.New("redis publish failed")
)

// IsPublishError reports whether err came from the Redis server or the
// connection to it.
func IsPublishError(err error) bool {
	return errors.Is(err, ErrPublish)
}

// IsClosedError reports whether err is due to a closed sink or client.
func IsClosedError(err error) bool {
	return errors.Is(err, ErrSinkClosed) || errors.Is(err, redis.ErrClosed)
}
