package rabbit

import (
	"context"

	amqp "github.com/rabbitmq/amqp091-go"
)

// channel is the part of an AMQP channel in confirm mode the sink uses.
type channel interface {
	Publish(ctx context.Context, exchange, key string, msg amqp.Publishing) (confirmation, error)
	IsClosed() bool
	Close() error
}

// confirmation is a pending broker acknowledgement.
// *amqp.DeferredConfirmation implements it.
type confirmation interface {
	WaitContext(ctx context.Context) (bool, error)
}

// dialFunc opens a connection and a confirm-mode channel on it. It returns
// once ctx is done even if the broker has not answered. The returned closer
// closes the connection.
type dialFunc func(ctx context.Context, cfg Config) (channel, func() error, error)

type amqpChannel struct {
	ch *amqp.Channel
}

func (c amqpChannel) Publish(ctx context.Context, exchange, key string, msg amqp.Publishing) (confirmation, error) {
	dc, err := c.ch.PublishWithDeferredConfirmWithContext(ctx, exchange, key, false, false, msg)
	if err != nil {
		return nil, err
	}
	if dc == nil {
		return nil, nil
	}
	return dc, nil
}

func (c amqpChannel) IsClosed() bool { return c.ch.IsClosed() }

func (c amqpChannel) Close() error { return c.ch.Close() }
