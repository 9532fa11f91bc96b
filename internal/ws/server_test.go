package ws

import (
	"encoding/json"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreman2200/layercube/internal/anim"
	"github.com/coreman2200/layercube/internal/app"
	"github.com/coreman2200/layercube/internal/config"
	"github.com/coreman2200/layercube/internal/cube"
	"github.com/coreman2200/layercube/internal/hwlink"
	"github.com/coreman2200/layercube/internal/led"
	"github.com/coreman2200/layercube/internal/sequence"
)

type fixture struct {
	cond *app.Conductor
	srv  *Server
	http *httptest.Server
	cfg  *config.Config
	path string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	s := sequence.NewScheduler(anim.WithRand(rand.New(rand.NewSource(3))))
	s.AddBuiltins()
	link, _ := hwlink.Simulated(hwlink.SimOpts{})
	m := led.NewMatrix(link)
	t.Cleanup(m.Shutdown)
	cond := app.NewConductor(s, m, app.Options{})

	cfg := config.Default()
	path := filepath.Join(t.TempDir(), "cube.yaml")
	srv := NewServer(cond, m, Options{FPS: 50, ConfigPath: path, Config: cfg, Sample: cond.Sample})
	hs := httptest.NewServer(srv.Handler())
	t.Cleanup(hs.Close)
	return &fixture{cond: cond, srv: srv, http: hs, cfg: cfg, path: path}
}

func (f *fixture) dial(t *testing.T, path string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(f.http.URL, "http") + path
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	return conn
}

func command(t *testing.T, conn *websocket.Conn, cmd string) Reply {
	t.Helper()
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(cmd)))
	var rep Reply
	require.NoError(t, conn.ReadJSON(&rep))
	return rep
}

func TestControlCommands(t *testing.T) {
	f := newFixture(t)
	conn := f.dial(t, "/control")

	rep := command(t, conn, `{"play":"Rain","orient":{"pitch":0,"yaw":90}}`)
	require.True(t, rep.OK, rep.Error)
	assert.Equal(t, "Rain", rep.Status.Animation)

	rep = command(t, conn, `{"play":"Fireworks"}`)
	assert.False(t, rep.OK)
	assert.Contains(t, rep.Error, "not found")
	assert.Equal(t, "Rain", rep.Status.Animation)

	rep = command(t, conn, `{"pause":true}`)
	assert.True(t, rep.Status.Paused)

	rep = command(t, conn, `{"runTest":"plane_z"}`)
	assert.True(t, rep.OK)
	assert.Equal(t, "plane_z", rep.Status.Test)

	rep = command(t, conn, `{"playlist":"start"}`)
	assert.False(t, rep.OK, "no program loaded")

	rep = command(t, conn, `not json`)
	assert.False(t, rep.OK)
}

func TestBrightnessPersistsConfig(t *testing.T) {
	f := newFixture(t)
	conn := f.dial(t, "/control")

	rep := command(t, conn, `{"brightness":0.3,"refresh_hz":90}`)
	require.True(t, rep.OK, rep.Error)
	assert.Equal(t, 0.3, rep.Status.Brightness)
	assert.Equal(t, 90, rep.Status.RefreshHz)

	saved, err := config.Load(f.path)
	require.NoError(t, err)
	assert.Equal(t, 0.3, saved.Brightness)
	assert.Equal(t, 90, saved.RefreshHz)
}

func TestFramesStream(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.cond.Play("Wave"))
	f.cond.Step(0.016)

	conn := f.dial(t, "/ws")
	var top map[string]any
	require.NoError(t, conn.ReadJSON(&top))
	assert.Equal(t, "sim", top["link"])
	assert.Equal(t, map[string]any{"x": 64.0, "y": 64.0, "z": 6.0}, top["dim"])

	require.Eventually(t, func() bool {
		f.srv.mu.RLock()
		defer f.srv.mu.RUnlock()
		return len(f.srv.clients) == 1
	}, time.Second, time.Millisecond)
	f.srv.broadcastFrame()

	var fr frame
	require.NoError(t, conn.ReadJSON(&fr))
	assert.Equal(t, uint64(1), fr.FrameID)
	require.Len(t, fr.RGB, cube.Total*3)
	want := f.cond.Matrix.Snapshot().Get(cube.Coord{})
	assert.Equal(t, []byte{want.R, want.G, want.B}, fr.RGB[:3])
}

func TestDiagStreamReportsChanges(t *testing.T) {
	f := newFixture(t)
	conn := f.dial(t, "/diag")
	require.Eventually(t, func() bool {
		f.srv.mu.RLock()
		defer f.srv.mu.RUnlock()
		return len(f.srv.diagClients) == 1
	}, time.Second, time.Millisecond)

	f.srv.checkDiagnostics()
	var d map[string]any
	require.NoError(t, conn.ReadJSON(&d))
	assert.Equal(t, "LINK_DOWN", d["code"])

	// unchanged findings are not repeated
	f.srv.checkDiagnostics()
	require.NoError(t, f.cond.Matrix.Initialize())
	f.srv.checkDiagnostics()
	require.NoError(t, conn.ReadJSON(&d))
	assert.Equal(t, "IDLE", d["code"])
}

func TestHealth(t *testing.T) {
	f := newFixture(t)
	res, err := http.Get(f.http.URL + "/health")
	require.NoError(t, err)
	defer res.Body.Close()
	assert.Equal(t, "application/json", res.Header.Get("Content-Type"))

	var body map[string]any
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	assert.Equal(t, float64(cube.Total), body["count"])
	assert.Contains(t, body, "status")
}
