package statsd

import (
	"context"

	"github.com/Aleph-Alpha/statsagg/v1/flush"
	"github.com/Aleph-Alpha/statsagg/v1/logger"
	"go.uber.org/fx"
)

// FXModule provides a *Client and exposes it as both flush.Encoder and
// flush.Transport. The socket is closed on application stop, after any
// component that depends on the client has stopped.
//
// Usage:
//
//	app := fx.New(
//	    statsd.FXModule,
//	    fx.Provide(func() statsd.Config { return statsd.Config{Namespace: "billing"} }),
//	)
var FXModule = fx.Module("statsd",
	fx.Provide(
		NewClientWithDI,
		func(c *Client) flush.Transport { return c },
		func(c *Client) flush.Encoder { return c.Encoder },
	),
)

// EncoderFXModule provides only the line encoder, for use with a transport
// other than the datagram client (see the kafka, rabbit and redis packages).
var EncoderFXModule = fx.Module("statsd-encoder",
	fx.Provide(
		func(cfg Config) flush.Encoder { return NewEncoder(cfg) },
	),
)

// ClientParams groups the dependencies of NewClientWithDI.
type ClientParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	Config    Config
	Logger    logger.Logger `optional:"true"`
}

// NewClientWithDI dials the agent and registers Close on the lifecycle.
// Registering in the constructor orders the close hook before the hooks of
// every dependent component, so fx runs it after they stop.
func NewClientWithDI(params ClientParams) (*Client, error) {
	cfg := params.Config
	if params.Logger != nil {
		cfg.Logger = params.Logger
	}

	client, err := NewClient(cfg)
	if err != nil {
		return nil, err
	}

	params.Lifecycle.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return client.Close()
		},
	})
	return client, nil
}
