package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/simstore/internal/config"
	"github.com/zeusync/simstore/internal/core/clock"
	"github.com/zeusync/simstore/internal/core/models"
	"github.com/zeusync/simstore/internal/core/observability/log"
	"github.com/zeusync/simstore/internal/core/registry"
)

type fixture struct {
	srv     *Server
	http    *httptest.Server
	clock   *clock.Clock
	reg     *registry.Registry
	factory *models.Factory
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	sink := log.NewSink()
	clk, err := clock.New(clock.Config{Period: time.Hour, StartPaused: true, StartTick: 10}, clock.WithSink(sink))
	require.NoError(t, err)
	reg := registry.New(registry.WithSink(sink))

	cfg := config.Defaults().Server
	cfg.StreamInterval = 20 * time.Millisecond
	srv, err := New(cfg, clk, reg, log.Nop())
	require.NoError(t, err)

	hs := httptest.NewServer(srv.Handler())
	t.Cleanup(hs.Close)
	return &fixture{srv: srv, http: hs, clock: clk, reg: reg, factory: models.NewFactory(sink)}
}

func (f *fixture) spawn(t *testing.T, kind models.EntityKind, c models.Category) *models.Entity {
	t.Helper()
	e, err := f.factory.New(kind)
	require.NoError(t, err)
	require.NoError(t, f.reg.Register(c, e))
	return e
}

func (f *fixture) dial(t *testing.T, query string) *websocket.Conn {
	t.Helper()
	u := "ws" + strings.TrimPrefix(f.http.URL, "http") + "/entities" + query
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

// readPass collects frames until the end frame.
func readPass(t *testing.T, conn *websocket.Conn) [][]byte {
	t.Helper()
	var frames [][]byte
	for {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		typ, data, err := conn.ReadMessage()
		require.NoError(t, err)
		require.Equal(t, websocket.BinaryMessage, typ)
		if len(data) == 1 && data[0] == EndFrame[0] {
			return frames
		}
		frames = append(frames, data)
	}
}

func TestNew_RejectsZeroInterval(t *testing.T) {
	_, err := New(config.ServerConfig{}, nil, nil, log.Nop())
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestHealth(t *testing.T) {
	f := newFixture(t)
	f.spawn(t, models.EntityKindBox, models.CategoryDynamicObject)
	f.spawn(t, models.EntityKindPlayer, models.CategoryPlayer)

	resp, err := http.Get(f.http.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var body healthResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, healthResponse{Tick: 10, Paused: true, Entities: 2}, body)
}

func TestClockControl(t *testing.T) {
	f := newFixture(t)
	f.spawn(t, models.EntityKindBox, models.CategoryDynamicObject)

	post := func(path string) healthResponse {
		t.Helper()
		resp, err := http.Post(f.http.URL+path, "", nil)
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
		var body healthResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		return body
	}

	assert.Equal(t, healthResponse{Tick: 10, Paused: false, Entities: 1}, post("/clock/resume"))
	assert.False(t, f.clock.Paused())

	assert.Equal(t, healthResponse{Tick: 10, Paused: true, Entities: 1}, post("/clock/pause"))
	assert.True(t, f.clock.Paused())

	resp, err := http.Get(f.http.URL + "/clock/pause")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestEntityStream(t *testing.T) {
	f := newFixture(t)
	box := f.spawn(t, models.EntityKindBox, models.CategoryDynamicObject)
	player := f.spawn(t, models.EntityKindPlayer, models.CategoryPlayer)
	models.Get[*models.Position](box).Vec2[0] = 7

	conn := f.dial(t, "")
	frames := readPass(t, conn)
	require.Len(t, frames, 2)

	// declaration order: players before dynamic objects
	assert.Equal(t, byte(models.CategoryPlayer), frames[0][0])
	assert.Equal(t, byte(models.CategoryDynamicObject), frames[1][0])

	decoded, err := f.factory.Decode(frames[1][1:])
	require.NoError(t, err)
	assert.Equal(t, box.GUID(), decoded.GUID())
	assert.Equal(t, float32(7), models.Get[*models.Position](decoded).X())

	first, err := f.factory.Decode(frames[0][1:])
	require.NoError(t, err)
	assert.Equal(t, player.GUID(), first.GUID())

	// the next pass sees registry changes
	require.NoError(t, f.reg.Unregister(player))
	var next [][]byte
	for i := 0; i < 10; i++ {
		if next = readPass(t, conn); len(next) == 1 {
			break
		}
	}
	require.Len(t, next, 1)
	assert.Equal(t, byte(models.CategoryDynamicObject), next[0][0])
	assert.Equal(t, int64(1), f.srv.Streams())
}

func TestEntityStream_Mask(t *testing.T) {
	f := newFixture(t)
	f.spawn(t, models.EntityKindBox, models.CategoryDynamicObject)
	f.spawn(t, models.EntityKindVehicle, models.CategoryVehicle)

	frames := readPass(t, f.dial(t, "?mask=vehicle"))
	require.Len(t, frames, 1)
	assert.Equal(t, byte(models.CategoryVehicle), frames[0][0])

	resp, err := http.Get(f.http.URL + "/entities?mask=dragons")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestStopClosesStreams(t *testing.T) {
	f := newFixture(t)
	conn := f.dial(t, "")
	readPass(t, conn)

	require.NoError(t, f.srv.Stop(context.Background()))
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway), "got %v", err)
			break
		}
	}
	assert.ErrorIs(t, f.srv.Run(context.Background()), ErrServerClosed)
}

func TestParseMask(t *testing.T) {
	m, err := ParseMask("")
	require.NoError(t, err)
	assert.Equal(t, models.CategoryAll, m)

	m, err = ParseMask("player, mob")
	require.NoError(t, err)
	assert.Equal(t, models.CategoryPlayer|models.CategoryMob, m)

	m, err = ParseMask("0x14")
	require.NoError(t, err)
	assert.Equal(t, models.CategoryDynamicObject|models.CategoryVehicle, m)

	m, err = ParseMask("all")
	require.NoError(t, err)
	assert.Equal(t, models.CategoryAll, m)

	_, err = ParseMask("0")
	assert.ErrorIs(t, err, ErrInvalidMask)
	_, err = ParseMask("256")
	assert.ErrorIs(t, err, ErrInvalidMask)
}

func TestRun_ServesUntilCancelled(t *testing.T) {
	cfg := config.Defaults().Server
	cfg.ListenAddr = "127.0.0.1:0"
	clk, err := clock.New(clock.Config{Period: time.Hour})
	require.NoError(t, err)
	srv, err := New(cfg, clk, registry.New(registry.WithSink(log.NewSink())), log.Nop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- srv.Run(ctx) }()

	require.Eventually(t, func() bool { return srv.running.Load() }, time.Second, time.Millisecond)
	assert.ErrorIs(t, srv.Run(ctx), ErrServerAlreadyRunning)
	cancel()
	select {
	case err := <-errc:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
