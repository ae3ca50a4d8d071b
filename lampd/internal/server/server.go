// Package server owns the daemon's shared state: the resolved lamp
// settings, the playlist, and the websocket fan-out for preview frames
// and diagnostics.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/michaelkamprath/sn3193"
	"github.com/michaelkamprath/sn3193/lampd/internal/config"
	"github.com/michaelkamprath/sn3193/lampd/internal/lamp"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// frame is one preview sample broadcast to /ws clients. Breath is the
// modeled position in the breathing cycle, RGB the resulting color.
type frame struct {
	T        float64 `json:"t"`
	FrameID  uint64  `json:"frame_id"`
	Driver   string  `json:"driver"`
	Profile  string  `json:"profile"`
	Mode     string  `json:"mode"`
	Current  string  `json:"current"`
	Levels   [3]int  `json:"levels"`
	Breath   float64 `json:"breath"`
	RGB      string  `json:"rgb"`
	Playlist string  `json:"playlist"`
}

// State is the daemon's hub. One RunLoop goroutine ticks it; websocket
// handlers and control messages mutate it under mu.
type State struct {
	mu sync.RWMutex

	FPS        int
	ConfigPath string

	ctrl       lamp.Controller
	driverName string

	cfg      *config.Config
	profile  string
	settings lamp.Settings
	env      lamp.Envelope
	dirty    bool

	playlist *lamp.Player

	frameID   uint64
	startTime time.Time
	lastErr   string

	clients     map[*websocket.Conn]bool
	diagClients map[*websocket.Conn]bool

	// diagMu serializes the diag fan-out. Frames have a single writer
	// (the run loop), but diagnostics are pushed from the run loop and
	// from control readers, and a websocket conn takes one writer at a
	// time.
	diagMu sync.Mutex
}

// NewState wires cfg to a controller. The active profile is resolved
// immediately and flagged for the first Apply.
func NewState(cfg *config.Config, path string, ctrl lamp.Controller, driverName string) *State {
	s := &State{
		FPS:         cfg.FPS,
		ConfigPath:  path,
		ctrl:        ctrl,
		driverName:  driverName,
		cfg:         cfg,
		startTime:   time.Now(),
		clients:     make(map[*websocket.Conn]bool),
		diagClients: make(map[*websocket.Conn]bool),
	}
	if s.FPS <= 0 {
		s.FPS = 10
	}
	s.playlist = lamp.NewPlayer(lamp.Hooks{SetProfile: func(name string) {
		// Runs inside Tick, mu already held.
		if !s.setProfileLocked(name) {
			log.Warn().Str("profile", name).Msg("playlist names unknown profile")
		}
	}})
	if !s.setProfileLocked(cfg.Profile) {
		log.Warn().Str("profile", cfg.Profile).Msg("active profile missing, lamp stays off")
	}
	return s
}

// setProfileLocked switches to a named profile and marks the settings
// dirty. Callers hold mu (or own the state exclusively).
func (s *State) setProfileLocked(name string) bool {
	p, ok := s.cfg.Profiles[name]
	if !ok {
		return false
	}
	s.profile = name
	s.settings = lamp.Resolve(p, s.cfg.Gamma)
	s.env = lamp.BreathEnvelope(s.settings.Times)
	s.dirty = true
	return true
}

// RunLoop ticks the playlist, pushes dirty settings to the hardware and
// broadcasts a preview frame, FPS times a second until ctx is done.
func (s *State) RunLoop(ctx context.Context) {
	period := time.Second / time.Duration(s.FPS)
	ticker := time.NewTicker(period)
	defer ticker.Stop()
	dt := period.Seconds()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.step(dt)
		}
	}
}

func (s *State) step(dt float64) {
	s.mu.Lock()
	s.playlist.Tick(dt)
	apply := false
	var set lamp.Settings
	if s.dirty {
		apply, set = true, s.settings
		s.dirty = false
	}
	s.frameID++
	f := s.buildFrameLocked()
	s.mu.Unlock()

	if apply {
		if err := s.ctrl.Apply(set); err != nil {
			s.mu.Lock()
			s.lastErr = err.Error()
			s.mu.Unlock()
			s.pushDiag(Diagnostic{
				Severity: SevError,
				Code:     "DRIVER.APPLY",
				Summary:  "could not program the lamp",
				Detail:   err.Error(),
				Evidence: map[string]any{"driver": s.driverName},
			})
		}
	}
	s.broadcastFrame(f)
}

func (s *State) buildFrameLocked() frame {
	t := time.Since(s.startTime).Seconds()
	br := 1.0
	switch s.settings.Mode {
	case sn3193.ModeBreathing:
		br = s.env.At(t)
	case sn3193.ModeOff:
		br = 0
	}
	var lv [3]int
	var rgb [3]byte
	for i := range lv {
		l := s.settings.Levels[i]
		if !s.settings.Enable[i] {
			l = 0
		}
		lv[i] = int(l)
		rgb[i] = byte(math.Round(float64(l) * br))
	}
	return frame{
		T:        t,
		FrameID:  s.frameID,
		Driver:   s.driverName,
		Profile:  s.profile,
		Mode:     s.settings.Mode.String(),
		Current:  s.settings.Current.String(),
		Levels:   lv,
		Breath:   br,
		RGB:      fmt.Sprintf("#%02X%02X%02X", rgb[0], rgb[1], rgb[2]),
		Playlist: s.playlist.State().String(),
	}
}

func (s *State) broadcastFrame(f frame) {
	buf, err := json.Marshal(f)
	if err != nil {
		log.Error().Err(err).Msg("marshal frame")
		return
	}
	for _, c := range s.snapshot(s.clients) {
		c.SetWriteDeadline(time.Now().Add(200 * time.Millisecond))
		if err := c.WriteMessage(websocket.TextMessage, buf); err != nil {
			log.Debug().Err(err).Msg("write frame")
			s.dropClient(c)
		}
	}
}

// pushDiag stamps, logs and fans out a diagnostic.
func (s *State) pushDiag(d Diagnostic) {
	d.T = time.Since(s.startTime).Seconds()
	switch d.Severity {
	case SevError:
		log.Error().Str("code", d.Code).Str("detail", d.Detail).Msg(d.Summary)
	case SevWarn:
		log.Warn().Str("code", d.Code).Msg(d.Summary)
	default:
		log.Info().Str("code", d.Code).Msg(d.Summary)
	}
	buf, err := json.Marshal(d)
	if err != nil {
		return
	}
	s.diagMu.Lock()
	defer s.diagMu.Unlock()
	for _, c := range s.snapshot(s.diagClients) {
		c.SetWriteDeadline(time.Now().Add(200 * time.Millisecond))
		if err := c.WriteMessage(websocket.TextMessage, buf); err != nil {
			log.Debug().Err(err).Msg("write diag")
			s.dropClient(c)
		}
	}
}

func (s *State) snapshot(m map[*websocket.Conn]bool) []*websocket.Conn {
	s.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(m))
	for c := range m {
		conns = append(conns, c)
	}
	s.mu.RUnlock()
	return conns
}

func (s *State) dropClient(c *websocket.Conn) {
	s.mu.Lock()
	delete(s.clients, c)
	delete(s.diagClients, c)
	s.mu.Unlock()
	c.Close()
}

// HandleWS subscribes a client to preview frames.
func (s *State) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("upgrade ws")
		return
	}
	s.mu.Lock()
	s.clients[conn] = true
	s.mu.Unlock()
	log.Info().Str("remote", conn.RemoteAddr().String()).Msg("frame client connected")
	go s.reapOnClose(conn)
}

// HandleDiag subscribes a client to diagnostics.
func (s *State) HandleDiag(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("upgrade diag")
		return
	}
	s.mu.Lock()
	s.diagClients[conn] = true
	s.mu.Unlock()
	log.Info().Str("remote", conn.RemoteAddr().String()).Msg("diag client connected")
	go s.reapOnClose(conn)
}

// reapOnClose drains reads until the peer goes away, then drops it.
func (s *State) reapOnClose(conn *websocket.Conn) {
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			s.dropClient(conn)
			return
		}
	}
}

// HandleControl accepts a websocket of JSON control messages.
func (s *State) HandleControl(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("upgrade control")
		return
	}
	defer conn.Close()
	log.Info().Str("remote", conn.RemoteAddr().String()).Msg("control client connected")
	for {
		_, buf, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var msg map[string]any
		if err := json.Unmarshal(buf, &msg); err != nil {
			s.pushDiag(Diagnostic{
				Severity: SevWarn,
				Code:     "CONTROL.PARSE",
				Summary:  "control message is not JSON",
				Detail:   err.Error(),
			})
			continue
		}
		s.ApplyControl(msg)
	}
}

// ApplyControl folds one control message into the state. Edits target
// the active profile and are written back to the config file; bad
// values turn into diagnostics, never fatal errors.
func (s *State) ApplyControl(msg map[string]any) {
	var diags []Diagnostic
	changed := false

	s.mu.Lock()
	for k, v := range msg {
		switch k {
		case "profile":
			name, _ := v.(string)
			if s.setProfileLocked(name) {
				s.cfg.Profile = name
				changed = true
			} else {
				diags = append(diags, Diagnostic{
					Severity: SevWarn,
					Code:     "PROFILE.UNKNOWN",
					Summary:  "no such profile",
					Evidence: map[string]any{"name": v},
				})
			}
		case "mode":
			mode, _ := v.(string)
			switch mode {
			case "off", "pwm", "breathing":
				p := s.cfg.Profiles[s.profile]
				p.Mode = mode
				s.cfg.Profiles[s.profile] = p
				s.setProfileLocked(s.profile)
				changed = true
			default:
				diags = append(diags, Diagnostic{
					Severity: SevWarn,
					Code:     "MODE.UNKNOWN",
					Summary:  "no such mode",
					Evidence: map[string]any{"mode": v},
				})
			}
		case "levels":
			raw, ok := v.([]any)
			if !ok || len(raw) != 3 {
				diags = append(diags, Diagnostic{
					Severity: SevWarn,
					Code:     "LEVELS.SHAPE",
					Summary:  "levels must be three numbers",
				})
				continue
			}
			levels := make([]int, 3)
			for i, rv := range raw {
				f, _ := rv.(float64)
				levels[i] = int(f)
			}
			p := s.cfg.Profiles[s.profile]
			p.Levels = levels
			s.cfg.Profiles[s.profile] = p
			s.setProfileLocked(s.profile)
			changed = true
		case "current_ma":
			f, ok := v.(float64)
			if !ok {
				diags = append(diags, Diagnostic{
					Severity: SevWarn,
					Code:     "CURRENT.SHAPE",
					Summary:  "current_ma must be a number",
				})
				continue
			}
			p := s.cfg.Profiles[s.profile]
			p.CurrentMA = f
			s.cfg.Profiles[s.profile] = p
			s.setProfileLocked(s.profile)
			changed = true
		case "playlist":
			action, _ := v.(string)
			switch action {
			case "start":
				if err := s.playlist.Load(s.cfg.Playlist); err != nil {
					diags = append(diags, Diagnostic{
						Severity: SevWarn,
						Code:     "PLAYLIST.LOAD",
						Summary:  "playlist will not load",
						Detail:   err.Error(),
					})
					continue
				}
				s.playlist.Start()
			case "pause":
				s.playlist.Pause()
			case "resume":
				s.playlist.Resume()
			case "stop":
				s.playlist.Stop()
			default:
				diags = append(diags, Diagnostic{
					Severity: SevWarn,
					Code:     "PLAYLIST.ACTION",
					Summary:  "unknown playlist action",
					Evidence: map[string]any{"action": v},
				})
			}
		default:
			diags = append(diags, Diagnostic{
				Severity: SevInfo,
				Code:     "CONTROL.KEY",
				Summary:  "ignoring unknown control key",
				Evidence: map[string]any{"key": k},
			})
		}
	}
	s.mu.Unlock()

	for _, d := range diags {
		s.pushDiag(d)
	}
	if changed {
		s.saveConfig()
	}
}

func (s *State) saveConfig() {
	if s.ConfigPath == "" {
		return
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := config.Save(s.ConfigPath, s.cfg); err != nil {
		log.Error().Err(err).Str("path", s.ConfigPath).Msg("save config")
	}
}

// HandleHealth reports liveness and the last driver error, if any.
func (s *State) HandleHealth(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	resp := map[string]any{
		"ok":       s.lastErr == "",
		"driver":   s.driverName,
		"profile":  s.profile,
		"fps":      s.FPS,
		"frame_id": s.frameID,
		"uptime_s": time.Since(s.startTime).Seconds(),
		"playlist": s.playlist.State().String(),
	}
	if s.lastErr != "" {
		resp["last_error"] = s.lastErr
	}
	s.mu.RUnlock()
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// Profile returns the active profile name, for tests and the CLI.
func (s *State) Profile() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.profile
}

// Settings returns a copy of the resolved settings.
func (s *State) Settings() lamp.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

// Playlist exposes the player for the run loop's owner.
func (s *State) Playlist() *lamp.Player { return s.playlist }
