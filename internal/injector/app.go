package injector

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/zeusync/simstore/internal/core/observability/log"
	"github.com/zeusync/simstore/internal/server"
	"github.com/zeusync/simstore/internal/world"
)

// App is the assembled process.
type App struct {
	Logger *log.Logger
	World  *world.World
	Server *server.Server
}

func NewApp(logger *log.Logger, w *world.World, srv *server.Server) *App {
	return &App{Logger: logger, World: w, Server: srv}
}

// Run blocks until ctx is done and every part has shut down.
func (a *App) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return a.World.Run(gctx) })
	if a.Server != nil {
		g.Go(func() error { return a.Server.Run(gctx) })
	}
	err := g.Wait()
	_ = a.Logger.Sync()
	return err
}
