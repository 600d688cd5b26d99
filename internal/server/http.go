package server

import (
	"encoding/json"
	"net/http"

	"github.com/zeusync/simstore/internal/core/models"
	"github.com/zeusync/simstore/internal/core/observability/log"
)

type healthResponse struct {
	Tick     uint64 `json:"tick"`
	Paused   bool   `json:"paused"`
	Entities int    `json:"entities"`
	Streams  int64  `json:"streams"`
}

func (s *Server) health() healthResponse {
	return healthResponse{
		Tick:     s.clock.Time(),
		Paused:   s.clock.Paused(),
		Entities: s.entities.Len(models.CategoryAll),
		Streams:  s.streams.Load(),
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.health())
}

// handlePause answers with the health document reflecting the new state.

func (s *Server) handlePause(paused bool) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		s.clock.SetPaused(paused)
		s.logger.Info("clock paused state changed", log.Bool("paused", paused), log.Uint64("tick", s.clock.Time()))
		writeJSON(w, http.StatusOK, s.health())
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
