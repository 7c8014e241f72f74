package kafka

import (
	"context"

	"github.com/Aleph-Alpha/statsagg/v1/flush"
	"github.com/Aleph-Alpha/statsagg/v1/logger"
	"go.uber.org/fx"
)

// FXModule provides a *Sink as the flush.Transport. Pair it with
// statsd.EncoderFXModule for the record format.
//
// Usage:
//
//	app := fx.New(
//	    statsd.EncoderFXModule,
//	    kafka.FXModule,
//	    flush.FXModule,
//	)
var FXModule = fx.Module("kafka",
	fx.Provide(
		NewSinkWithDI,
		func(s *Sink) flush.Transport { return s },
	),
)

// SinkParams groups the dependencies of NewSinkWithDI.
type SinkParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	Config    Config
	Logger    logger.Logger `optional:"true"`
}

// NewSinkWithDI creates the sink and closes it on application stop, after
// the scheduler has made its final flush.
func NewSinkWithDI(params SinkParams) (*Sink, error) {
	cfg := params.Config
	if params.Logger != nil {
		cfg.Logger = params.Logger
	}
	sink, err := NewSink(cfg)
	if err != nil {
		return nil, err
	}
	params.Lifecycle.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return sink.Close()
		},
	})
	return sink, nil
}
