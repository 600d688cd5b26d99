package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/zeusync/simstore/internal/config"
	"github.com/zeusync/simstore/internal/core/models"
	"github.com/zeusync/simstore/internal/core/observability/log"
	"github.com/zeusync/simstore/pkg/generic"
)

// Ticker is the clock surface the server reads and controls.
type Ticker interface {
	Time() uint64
	Paused() bool
	SetPaused(bool)
}

// Entities is the registry surface the server streams from.
type Entities interface {
	Len(mask models.Category) int
	Visit(mask models.Category, fn func(models.Category, *models.Entity) error) error
}

// Server exposes health, clock control and the entity stream over HTTP.
type Server struct {
	config   config.ServerConfig
	clock    Ticker
	entities Entities
	logger   log.Log

	buffers *generic.Pool[*bytes.Buffer]
	http    *http.Server
	stop    chan struct{}

	running atomic.Bool
	closed  atomic.Bool
	streams atomic.Int64
}

func New(cfg config.ServerConfig, clock Ticker, entities Entities, logger log.Log) (*Server, error) {
	if cfg.StreamInterval <= 0 {
		return nil, fmt.Errorf("%w: stream interval %s", ErrInvalidConfig, cfg.StreamInterval)
	}
	s := &Server{
		config:   cfg,
		clock:    clock,
		entities: entities,
		logger:   logger.With(log.String("component", "server")),
		buffers:  generic.NewBufferPool(frameBufferSize),
		stop:     make(chan struct{}),
	}
	s.http = &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s, nil
}

// Handler returns the routing handler, usable without Run.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("POST /clock/pause", s.handlePause(true))
	mux.HandleFunc("POST /clock/resume", s.handlePause(false))
	mux.HandleFunc("GET /entities", s.handleEntities)
	return mux
}

// Run listens on the configured address until ctx is done, then shuts the
// HTTP server down gracefully.
func (s *Server) Run(ctx context.Context) error {
	if s.closed.Load() {
		return ErrServerClosed
	}
	if !s.running.CompareAndSwap(false, true) {
		return ErrServerAlreadyRunning
	}

	ln, err := net.Listen("tcp", s.config.ListenAddr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.config.ListenAddr, err)
	}
	s.logger.Info("http server listening", log.String("addr", ln.Addr().String()))

	errc := make(chan error, 1)
	go func() { errc <- s.http.Serve(ln) }()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	return s.Stop(context.Background())
}

// Stop shuts the server down, waiting up to five seconds for handlers.
func (s *Server) Stop(ctx context.Context) error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	close(s.stop)
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := s.http.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	s.logger.Info("http server stopped")
	return nil
}

// Streams returns the number of open entity streams.
func (s *Server) Streams() int64 { return s.streams.Load() }
