//go:build wireinject
// +build wireinject

// The build tag makes sure the stub is not built in the final build.

package injector

import (
	"context"

	"github.com/google/wire"

	"github.com/zeusync/simstore/internal/config"
	"github.com/zeusync/simstore/internal/core/observability/log"
)

var ProviderSet = wire.NewSet(
	ProvideLogger,
	wire.Bind(new(log.Log), new(*log.Logger)),
	ProvideSink,
	ProvideStore,
	ProvideWorld,
	ProvideServer,
	NewApp,
)

// InitializeApp builds the application graph from cfg.
func InitializeApp(ctx context.Context, cfg *config.Config) (*App, func(), error) {
	wire.Build(ProviderSet)
	return nil, nil, nil
}
