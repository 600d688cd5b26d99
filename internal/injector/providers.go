package injector

import (
	"context"

	"github.com/zeusync/simstore/internal/config"
	"github.com/zeusync/simstore/internal/core/observability/log"
	"github.com/zeusync/simstore/internal/persist"
	"github.com/zeusync/simstore/internal/server"
	"github.com/zeusync/simstore/internal/world"
)

func ProvideLogger(cfg *config.Config) *log.Logger {
	return log.New(log.ParseLevel(cfg.Logging.Level))
}

// ProvideSink routes the core's diagnostics into the zap logger.
func ProvideSink(logger log.Log) (*log.Sink, func()) {
	sink := log.DefaultSink()
	cancel := sink.Subscribe(log.ZapSubscriber(logger.With(log.String("component", "core"))))
	return sink, cancel
}

// ProvideStore opens the configured snapshot store. It yields a nil store
// when persistence is disabled.
func ProvideStore(ctx context.Context, cfg *config.Config, logger log.Log) (world.SnapshotStore, func(), error) {
	if !cfg.PersistenceEnabled() {
		logger.Info("persistence disabled")
		return nil, func() {}, nil
	}
	store, err := persist.Open(ctx, cfg.Storage, logger)
	if err != nil {
		return nil, nil, err
	}
	return store, func() {
		if err := store.Close(); err != nil {
			logger.Warn("close snapshot store", log.Error(err))
		}
	}, nil
}

// ProvideWorld builds the world and loads its initial state.
func ProvideWorld(ctx context.Context, cfg *config.Config, store world.SnapshotStore, logger log.Log, sink *log.Sink) (*world.World, error) {
	w, err := world.New(cfg, store, logger, sink)
	if err != nil {
		return nil, err
	}
	if err := w.Load(ctx); err != nil {
		return nil, err
	}
	return w, nil
}

// ProvideServer returns nil when the HTTP endpoint is disabled.
func ProvideServer(cfg *config.Config, w *world.World, logger log.Log) (*server.Server, error) {
	if !cfg.Server.Enabled {
		return nil, nil
	}
	return server.New(cfg.Server, w.Clock(), w.Registry(), logger)
}
