package aggregator

import (
	"github.com/Aleph-Alpha/statsagg/v1/logger"
	"github.com/benbjohnson/clock"
	"go.uber.org/fx"
)

// FXModule provides a *Registry built from the aggregator.Config in the container.
//
// Usage:
//
//	app := fx.New(
//	    aggregator.FXModule,
//	    fx.Provide(func() aggregator.Config { return aggregator.Config{MaxSeries: 10000} }),
//	)
var FXModule = fx.Module("aggregator",
	fx.Provide(NewRegistryWithDI),
)

// RegistryParams groups the dependencies of NewRegistryWithDI.
type RegistryParams struct {
	fx.In

	Config Config
	Logger logger.Logger `optional:"true"`
	Clock  clock.Clock   `optional:"true"`
}

// NewRegistryWithDI creates a registry using dependency injection.
// The logger and clock are optional.
func NewRegistryWithDI(params RegistryParams) *Registry {
	cfg := params.Config
	if params.Logger != nil {
		cfg.Logger = params.Logger
	}

	var opts []Option
	if params.Clock != nil {
		opts = append(opts, WithClock(params.Clock))
	}
	return NewRegistry(cfg, opts...)
}
