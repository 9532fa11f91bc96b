// Package ws serves the live preview and control surface over websockets.
package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/coreman2200/layercube/internal/app"
	"github.com/coreman2200/layercube/internal/config"
	"github.com/coreman2200/layercube/internal/cube"
	diag "github.com/coreman2200/layercube/internal/diagnostics"
)

// Control is the subset of the conductor the server drives.
type Control interface {
	Play(name string) error
	Pause()
	Resume()
	Stop()
	StartPlaylist() error
	StopPlaylist()
	SetBrightness(b float64)
	SetRefreshRate(hz int)
	SetSpeed(speed float64)
	Orient(pitch, yaw float64) bool
	RunTest(kind string) error
	Status() app.Status
}

// FrameSource yields the most recently submitted frame, which may not have
// been scanned out yet.
type FrameSource interface {
	Snapshot() *cube.Volume
}

type Options struct {
	// FPS caps preview broadcasts.
	FPS int
	// ConfigPath, when set, receives Config after brightness or refresh
	// changes.
	ConfigPath string
	Config     *config.Config
	// Sample feeds the diagnostics stream; nil disables it.
	Sample func() diag.Sample
}

const writeWait = 200 * time.Millisecond

type client struct {
	id   string
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *client) send(b []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(websocket.TextMessage, b)
}

type Server struct {
	ctl     Control
	frames  FrameSource
	opts    Options
	limiter *rate.Limiter
	up      websocket.Upgrader
	start   time.Time
	log     zerolog.Logger

	mu          sync.RWMutex
	clients     map[string]*client
	diagClients map[string]*client
	frameID     uint64
	lastDiag    string
}

func NewServer(ctl Control, frames FrameSource, o Options) *Server {
	if o.FPS <= 0 {
		o.FPS = 20
	}
	return &Server{
		ctl:         ctl,
		frames:      frames,
		opts:        o,
		limiter:     rate.NewLimiter(rate.Every(time.Second/time.Duration(o.FPS)), 1),
		up:          websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
		start:       time.Now(),
		log:         log.With().Str("component", "ws").Logger(),
		clients:     map[string]*client{},
		diagClients: map[string]*client{},
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.HandleFramesWS)
	mux.HandleFunc("/diag", s.HandleDiagWS)
	mux.HandleFunc("/control", s.HandleControlWS)
	mux.HandleFunc("/health", s.HandleHealth)
	return mux
}

// ListenAndServe serves on addr and broadcasts until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.Handler()}
	go s.Run(ctx)
	go func() {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(shutCtx)
	}()
	s.log.Info().Str("addr", addr).Msg("preview server listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Run paces frame broadcasts with the limiter and checks diagnostics once a
// second.
func (s *Server) Run(ctx context.Context) {
	diagTick := time.NewTicker(time.Second)
	defer diagTick.Stop()
	for {
		if err := s.limiter.Wait(ctx); err != nil {
			return
		}
		s.broadcastFrame()
		select {
		case <-diagTick.C:
			s.checkDiagnostics()
		default:
		}
	}
}

func (s *Server) register(set map[string]*client, conn *websocket.Conn) *client {
	c := &client{id: uuid.New().String(), conn: conn}
	s.mu.Lock()
	set[c.id] = c
	s.mu.Unlock()
	return c
}

// drain reads until the peer goes away, then forgets the client.
func (s *Server) drain(set map[string]*client, c *client) {
	defer func() {
		s.mu.Lock()
		delete(set, c.id)
		s.mu.Unlock()
		c.conn.Close()
		s.log.Debug().Str("client", c.id).Msg("disconnected")
	}()
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (s *Server) HandleFramesWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.up.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	c := s.register(s.clients, conn)
	s.log.Info().Str("client", c.id).Str("remote", r.RemoteAddr).Msg("preview connected")
	s.sendTopology(c)
	go s.drain(s.clients, c)
}

func (s *Server) HandleDiagWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.up.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	c := s.register(s.diagClients, conn)
	go s.drain(s.diagClients, c)
}

// Orientation is a cube tilt in degrees.
type Orientation struct {
	Pitch float64 `json:"pitch"`
	Yaw   float64 `json:"yaw"`
}

// Command is one control message. Every field is optional and applied in
// declaration order.
type Command struct {
	Play       string       `json:"play,omitempty"`
	Pause      bool         `json:"pause,omitempty"`
	Resume     bool         `json:"resume,omitempty"`
	Stop       bool         `json:"stop,omitempty"`
	Playlist   string       `json:"playlist,omitempty"` // "start" | "stop"
	Brightness *float64     `json:"brightness,omitempty"`
	RefreshHz  *int         `json:"refresh_hz,omitempty"`
	Speed      *float64     `json:"speed,omitempty"`
	Orient     *Orientation `json:"orient,omitempty"`
	RunTest    string       `json:"runTest,omitempty"`
}

type Reply struct {
	OK     bool       `json:"ok"`
	Error  string     `json:"error,omitempty"`
	Status app.Status `json:"status"`
}

func (s *Server) HandleControlWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.up.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	c := &client{id: uuid.New().String(), conn: conn}
	defer conn.Close()
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var cmd Command
		rep := Reply{OK: true}
		if err := json.Unmarshal(data, &cmd); err != nil {
			rep.OK, rep.Error = false, "bad command: "+err.Error()
		} else if err := s.apply(cmd); err != nil {
			rep.OK, rep.Error = false, err.Error()
		}
		rep.Status = s.ctl.Status()
		b, _ := json.Marshal(rep)
		if err := c.send(b); err != nil {
			return
		}
	}
}

func (s *Server) apply(cmd Command) error {
	var errs []error
	if cmd.Play != "" {
		errs = append(errs, s.ctl.Play(cmd.Play))
	}
	if cmd.Pause {
		s.ctl.Pause()
	}
	if cmd.Resume {
		s.ctl.Resume()
	}
	if cmd.Stop {
		s.ctl.Stop()
	}
	switch cmd.Playlist {
	case "start":
		errs = append(errs, s.ctl.StartPlaylist())
	case "stop":
		s.ctl.StopPlaylist()
	case "":
	default:
		errs = append(errs, errors.New("playlist: want start or stop"))
	}
	persist := false
	if cmd.Brightness != nil {
		s.ctl.SetBrightness(*cmd.Brightness)
		persist = true
	}
	if cmd.RefreshHz != nil {
		s.ctl.SetRefreshRate(*cmd.RefreshHz)
		persist = true
	}
	if cmd.Speed != nil {
		s.ctl.SetSpeed(*cmd.Speed)
	}
	if cmd.Orient != nil && !s.ctl.Orient(cmd.Orient.Pitch, cmd.Orient.Yaw) {
		s.log.Debug().Msg("current animation ignores orientation")
	}
	if cmd.RunTest != "" {
		if err := s.ctl.RunTest(cmd.RunTest); err != nil {
			s.pushDiag(diag.Diagnostic{
				Severity: diag.Warn, Code: "TEST.UNKNOWN", Summary: "Unknown test name",
				Evidence: map[string]any{"name": cmd.RunTest},
			})
			errs = append(errs, err)
		} else {
			s.pushDiag(diag.Diagnostic{Severity: diag.Info, Code: "TEST.RUNNING", Summary: "Running test", Detail: cmd.RunTest})
		}
	}
	if persist {
		s.saveConfig()
	}
	return errors.Join(errs...)
}

func (s *Server) saveConfig() {
	if s.opts.ConfigPath == "" || s.opts.Config == nil {
		return
	}
	st := s.ctl.Status()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.opts.Config.Brightness = st.Brightness
	s.opts.Config.RefreshHz = st.RefreshHz
	if err := config.Save(s.opts.ConfigPath, s.opts.Config); err != nil {
		s.log.Warn().Err(err).Str("path", s.opts.ConfigPath).Msg("save config")
	}
}

func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	resp := map[string]any{
		"frame_id":     s.frameID,
		"uptime_s":     time.Since(s.start).Seconds(),
		"count":        cube.Total,
		"clients":      len(s.clients),
		"diag_clients": len(s.diagClients),
	}
	s.mu.RUnlock()
	resp["status"] = s.ctl.Status()
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func (s *Server) sendTopology(c *client) {
	top := map[string]any{
		"dim":    map[string]int{"x": cube.Size, "y": cube.Size, "z": cube.Depth},
		"format": "rgb24",
		"client": c.id,
	}
	if s.opts.Config != nil {
		top["link"] = s.opts.Config.Link
	}
	b, _ := json.Marshal(top)
	_ = c.send(b)
}

type frame struct {
	T       int64  `json:"t"`
	FrameID uint64 `json:"frame_id"`
	RGB     []byte `json:"rgb"`
}

func (s *Server) broadcastFrame() {
	s.mu.Lock()
	if len(s.clients) == 0 {
		s.mu.Unlock()
		return
	}
	s.frameID++
	id := s.frameID
	targets := make([]*client, 0, len(s.clients))
	for _, c := range s.clients {
		targets = append(targets, c)
	}
	s.mu.Unlock()

	b, _ := json.Marshal(frame{T: time.Now().UnixNano(), FrameID: id, RGB: s.frames.Snapshot().Packed24()})
	for _, c := range targets {
		if err := c.send(b); err != nil {
			s.log.Debug().Err(err).Str("client", c.id).Msg("write frame")
		}
	}
}

// checkDiagnostics pushes findings when they change.
func (s *Server) checkDiagnostics() {
	if s.opts.Sample == nil {
		return
	}
	ds := diag.Evaluate(s.opts.Sample())
	key := ""
	for _, d := range ds {
		key += d.Code + ";"
	}
	s.mu.Lock()
	changed := key != s.lastDiag
	s.lastDiag = key
	s.mu.Unlock()
	if !changed {
		return
	}
	for _, d := range ds {
		s.pushDiag(d)
	}
}

func (s *Server) pushDiag(d diag.Diagnostic) {
	b, _ := json.Marshal(d)
	s.mu.RLock()
	targets := make([]*client, 0, len(s.diagClients))
	for _, c := range s.diagClients {
		targets = append(targets, c)
	}
	s.mu.RUnlock()
	for _, c := range targets {
		_ = c.send(b)
	}
}
