package flush

import (
	"context"

	"github.com/Aleph-Alpha/statsagg/v1/aggregator"
	"github.com/Aleph-Alpha/statsagg/v1/logger"
	"github.com/benbjohnson/clock"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
)

// FXModule provides a *Scheduler that starts with the application and
// performs a final flush when it stops.
//
// It needs an *aggregator.Registry, an Encoder and a Transport in the
// container, e.g. from aggregator.FXModule and statsd.FXModule:
//
//	app := fx.New(
//	    logger.FXModule,
//	    aggregator.FXModule,
//	    statsd.FXModule,
//	    flush.FXModule,
//	    config.FXModule,
//	)
var FXModule = fx.Module("flush",
	fx.Provide(NewSchedulerWithDI),
	fx.Invoke(RegisterSchedulerLifecycle),
)

// SchedulerParams groups the dependencies of NewSchedulerWithDI.
type SchedulerParams struct {
	fx.In

	Config         Config
	Registry       *aggregator.Registry
	Encoder        Encoder
	Transport      Transport
	Logger         logger.Logger        `optional:"true"`
	Clock          clock.Clock          `optional:"true"`
	TracerProvider trace.TracerProvider `optional:"true"`
}

// NewSchedulerWithDI creates a scheduler using dependency injection.
func NewSchedulerWithDI(params SchedulerParams) *Scheduler {
	cfg := params.Config
	if params.Logger != nil {
		cfg.Logger = params.Logger
	}

	var opts []Option
	if params.Clock != nil {
		opts = append(opts, WithClock(params.Clock))
	}
	if params.TracerProvider != nil {
		opts = append(opts, WithTracerProvider(params.TracerProvider))
	}
	return NewScheduler(cfg, params.Registry, params.Encoder, params.Transport, opts...)
}

// RegisterSchedulerLifecycle starts the scheduler on application start and
// stops it, with a final flush, on application stop. A failed final flush is
// logged by Stop and does not fail the shutdown.
func RegisterSchedulerLifecycle(lc fx.Lifecycle, s *Scheduler) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return s.Start()
		},
		OnStop: func(ctx context.Context) error {
			_ = s.Stop(ctx)
			return nil
		},
	})
}
