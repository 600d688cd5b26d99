package server

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/zeusync/simstore/internal/core/models"
	"github.com/zeusync/simstore/internal/core/observability/log"
)

// frameBufferSize fits the built-in components of one entity.
const frameBufferSize = 64

// EndFrame closes every stream pass. A real frame always carries a
// non-zero category byte.
var EndFrame = []byte{byte(models.CategoryNone)}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
}

// handleEntities streams every registered entity as one binary frame
// (category byte + tagged entity bytes) per pass, then an EndFrame.
func (s *Server) handleEntities(w http.ResponseWriter, r *http.Request) {
	mask, err := ParseMask(r.URL.Query().Get("mask"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", log.Error(err))
		return
	}
	defer conn.Close()

	s.streams.Add(1)
	defer s.streams.Add(-1)

	gone := make(chan struct{})
	go readPump(conn, gone)

	ticker := time.NewTicker(s.config.StreamInterval)
	defer ticker.Stop()

	remote := conn.RemoteAddr().String()
	s.logger.Debug("entity stream opened", log.String("remote", remote), log.String("mask", mask.String()))

	for {
		if err := s.streamPass(conn, mask); err != nil {
			s.logger.Debug("entity stream closed", log.String("remote", remote), log.Error(err))
			return
		}
		select {
		case <-ticker.C:
		case <-gone:
			return
		case <-s.stop:
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server stopping"),
				time.Now().Add(time.Second))
			return
		}
	}
}

// streamPass encodes under the registry's bucket locks and writes after
// they are released.
func (s *Server) streamPass(conn *websocket.Conn, mask models.Category) error {
	var frames []*bytes.Buffer
	defer func() {
		for _, f := range frames {
			s.buffers.Put(f)
		}
	}()

	err := s.entities.Visit(mask, func(c models.Category, e *models.Entity) error {
		buf := s.buffers.Get()
		frames = append(frames, buf)
		buf.WriteByte(byte(c))
		_, err := e.EncodeTo(buf)
		return err
	})
	if err != nil {
		return fmt.Errorf("encode entities: %w", err)
	}

	for _, f := range frames {
		if err := s.write(conn, f.Bytes()); err != nil {
			return err
		}
	}
	return s.write(conn, EndFrame)
}

func (s *Server) write(conn *websocket.Conn, payload []byte) error {
	if s.config.WriteTimeout > 0 {
		_ = conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
	}
	return conn.WriteMessage(websocket.BinaryMessage, payload)
}

// readPump drains client frames so control messages are handled, and
// closes gone once the peer disconnects.
func readPump(conn *websocket.Conn, gone chan<- struct{}) {
	defer close(gone)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// ParseMask reads a comma separated list of category names or numeric
// masks. An empty string selects every category.
func ParseMask(raw string) (models.Category, error) {
	if strings.TrimSpace(raw) == "" {
		return models.CategoryAll, nil
	}
	var mask models.Category
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if c, ok := models.ParseCategory(part); ok {
			mask |= c
			continue
		}
		if part == "all" {
			mask |= models.CategoryAll
			continue
		}
		n, err := strconv.ParseUint(part, 0, 8)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrInvalidMask, part)
		}
		mask |= models.Category(n)
	}
	if mask == models.CategoryNone {
		return 0, fmt.Errorf("%w: %q", ErrInvalidMask, raw)
	}
	return mask, nil
}
