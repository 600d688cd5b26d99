package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/profile"

	"github.com/zeusync/simstore/internal/config"
	"github.com/zeusync/simstore/internal/core/observability/log"
	"github.com/zeusync/simstore/internal/injector"
)

func main() {
	var (
		configPath = flag.String("config", "", "path to the YAML config file")
		profileDir = flag.String("profile", "", "write a CPU profile into this directory")
	)
	flag.Parse()

	var prof interface{ Stop() }
	if *profileDir != "" {
		prof = profile.Start(profile.CPUProfile, profile.ProfilePath(*profileDir), profile.NoShutdownHook)
	}

	err := run(*configPath)
	if prof != nil {
		prof.Stop()
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "simstore:", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, cleanup, err := injector.InitializeApp(ctx, cfg)
	if err != nil {
		return fmt.Errorf("initialize: %w", err)
	}
	defer cleanup()

	app.Logger.Info("simstore starting",
		log.String("config", configPath),
		log.Int("ticks_per_second", cfg.Clock.TicksPerSecond),
		log.String("storage", cfg.Storage.Driver),
	)
	if err := app.Run(ctx); err != nil {
		return err
	}
	app.Logger.Info("simstore stopped")
	return nil
}
