package rabbit

import (
	"errors"
	"fmt"
	"net"
	"syscall"

	amqp "github.com/rabbitmq/amqp091-go"
)

var (
	// ErrInvalidConfig is returned by Config.Validate.
	ErrInvalidConfig = errors.New("invalid rabbit sink config")

	// ErrSinkClosed is returned by Send after Close.
	ErrSinkClosed = errors.New("rabbit sink closed")

	// ErrConnectionFailed is returned when the broker cannot be reached.
	ErrConnectionFailed = errors.New("connection failed")

	// ErrConnectionLost is returned when an established connection breaks.
	ErrConnectionLost = errors.New("connection lost")

	// ErrAccessDenied is returned for authentication and permission failures.
	ErrAccessDenied = errors.New("access denied")

	// ErrExchangeNotFound is returned when publishing to a missing exchange.
	ErrExchangeNotFound = errors.New("exchange not found")

	// ErrPreconditionFailed is returned when a declared exchange exists with
	// different properties.
	ErrPreconditionFailed = errors.New("precondition failed")

	// ErrMessageTooLarge is returned when the broker rejects the batch size.
	ErrMessageTooLarge = errors.New("message too large")

	// ErrNotConfirmed is returned when the broker nacks a publish.
	ErrNotConfirmed = errors.New("publish not confirmed")

	// ErrTimeout is returned on network timeouts.
	ErrTimeout = errors.New("operation timeout")

	// ErrPublishFailed covers every other publish error.
	ErrPublishFailed = errors.New("publish failed")
)

// translateError wraps err with the matching sentinel, keeping the
// original error in the chain.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrSinkClosed) || errors.Is(err, ErrNotConfirmed) {
		return err
	}
	return fmt.Errorf("%w: %w", classify(err), err)
}

func classify(err error) error {
	var amqpErr *amqp.Error
	if errors.As(err, &amqpErr) {
		switch amqpErr.Code {
		case amqp.AccessRefused:
			return ErrAccessDenied
		case amqp.NotFound:
			return ErrExchangeNotFound
		case amqp.PreconditionFailed:
			return ErrPreconditionFailed
		case amqp.ContentTooLarge, amqp.FrameError:
			return ErrMessageTooLarge
		case amqp.ConnectionForced, amqp.ChannelError:
			return ErrConnectionLost
		}
		return ErrPublishFailed
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrTimeout
	}

	var errno syscall.Errno
	if errors.As(err, &errno) {
		switch errno {
		case syscall.ECONNREFUSED, syscall.EHOSTUNREACH, syscall.ENETUNREACH:
			return ErrConnectionFailed
		case syscall.ECONNRESET, syscall.EPIPE, syscall.ENOTCONN:
			return ErrConnectionLost
		case syscall.ETIMEDOUT:
			return ErrTimeout
		}
	}
	return ErrPublishFailed
}

// IsConnectionError reports whether err means the broker connection is
// unusable.
func IsConnectionError(err error) bool {
	return errors.Is(err, ErrConnectionFailed) || errors.Is(err, ErrConnectionLost)
}

// IsPermanentError reports whether retrying with the same configuration
// cannot succeed.
func IsPermanentError(err error) bool {
	return errors.Is(err, ErrAccessDenied) ||
		errors.Is(err, ErrExchangeNotFound) ||
		errors.Is(err, ErrPreconditionFailed) ||
		errors.Is(err, ErrInvalidConfig)
}
