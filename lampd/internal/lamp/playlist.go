package lamp

import (
	"fmt"

	"github.com/michaelkamprath/sn3193/lampd/internal/config"
)

// PlayState is the lifecycle of a playlist run.
type PlayState int

const (
	StateIdle PlayState = iota
	StateRunning
	StatePaused
)

func (s PlayState) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StatePaused:
		return "paused"
	default:
		return "idle"
	}
}

// Hooks are the callbacks a player drives. Nil hooks are skipped.
type Hooks struct {
	SetProfile func(name string)
}

// Player steps through a playlist, switching profiles as entries
// expire. It is not safe for concurrent use; the daemon ticks it under
// its own lock.
type Player struct {
	entries []config.PlaylistEntry
	loop    bool
	state   PlayState
	clip    int
	elapsed float64
	hooks   Hooks
}

func NewPlayer(h Hooks) *Player {
	return &Player{hooks: h}
}

// Load replaces the playlist. The player stops first so a running show
// never mixes old and new entries.
func (p *Player) Load(pl config.Playlist) error {
	if len(pl.Entries) == 0 {
		return fmt.Errorf("playlist: no entries")
	}
	for i, e := range pl.Entries {
		if e.Profile == "" {
			return fmt.Errorf("playlist: entry %d has no profile", i)
		}
		if e.DurationS <= 0 {
			return fmt.Errorf("playlist: entry %d has duration %v", i, e.DurationS)
		}
	}
	p.Stop()
	p.entries = append([]config.PlaylistEntry(nil), pl.Entries...)
	p.loop = pl.Loop
	return nil
}

func (p *Player) State() PlayState { return p.state }

// Current returns the active entry's profile name.
func (p *Player) Current() (string, bool) {
	if p.state == StateIdle || p.clip >= len(p.entries) {
		return "", false
	}
	return p.entries[p.clip].Profile, true
}

// Start begins the playlist from the top.
func (p *Player) Start() {
	if len(p.entries) == 0 {
		return
	}
	p.state = StateRunning
	p.clip = 0
	p.elapsed = 0
	p.fireProfile()
}

func (p *Player) Pause() {
	if p.state == StateRunning {
		p.state = StatePaused
	}
}

func (p *Player) Resume() {
	if p.state == StatePaused {
		p.state = StateRunning
	}
}

func (p *Player) Stop() {
	p.state = StateIdle
	p.clip = 0
	p.elapsed = 0
}

// Tick advances playback by dt seconds and switches entries whose time
// is up.
func (p *Player) Tick(dt float64) {
	if p.state != StateRunning {
		return
	}
	p.elapsed += dt
	for p.elapsed >= p.entries[p.clip].DurationS {
		p.elapsed -= p.entries[p.clip].DurationS
		if !p.advance() {
			return
		}
	}
}

// advance moves to the next entry, wrapping when looping. It reports
// whether playback continues.
func (p *Player) advance() bool {
	p.clip++
	if p.clip >= len(p.entries) {
		if !p.loop {
			p.Stop()
			return false
		}
		p.clip = 0
	}
	p.fireProfile()
	return true
}

func (p *Player) fireProfile() {
	if p.hooks.SetProfile != nil {
		p.hooks.SetProfile(p.entries[p.clip].Profile)
	}
}
