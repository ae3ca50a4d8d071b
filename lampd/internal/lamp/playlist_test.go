package lamp

import (
	"reflect"
	"testing"

	"github.com/michaelkamprath/sn3193/lampd/internal/config"
)

func testPlaylist() config.Playlist {
	return config.Playlist{
		Entries: []config.PlaylistEntry{
			{Profile: "red", DurationS: 1},
			{Profile: "green", DurationS: 2},
			{Profile: "blue", DurationS: 1},
		},
	}
}

func TestPlayerRunsThrough(t *testing.T) {
	var calls []string
	p := NewPlayer(Hooks{SetProfile: func(name string) { calls = append(calls, name) }})
	if err := p.Load(testPlaylist()); err != nil {
		t.Fatalf("load: %v", err)
	}
	p.Start()
	for i := 0; i < 50; i++ {
		p.Tick(0.1)
	}
	want := []string{"red", "green", "blue"}
	if !reflect.DeepEqual(calls, want) {
		t.Errorf("profile calls = %v, want %v", calls, want)
	}
	if p.State() != StateIdle {
		t.Errorf("state = %s, want idle after the last entry", p.State())
	}
	if _, ok := p.Current(); ok {
		t.Error("Current should report nothing when idle")
	}
}

func TestPlayerLoops(t *testing.T) {
	var calls []string
	p := NewPlayer(Hooks{SetProfile: func(name string) { calls = append(calls, name) }})
	pl := testPlaylist()
	pl.Loop = true
	if err := p.Load(pl); err != nil {
		t.Fatalf("load: %v", err)
	}
	p.Start()
	for i := 0; i < 50; i++ {
		p.Tick(0.1)
	}
	if len(calls) < 4 {
		t.Fatalf("got %d profile calls, want the list to wrap", len(calls))
	}
	if !reflect.DeepEqual(calls[:4], []string{"red", "green", "blue", "red"}) {
		t.Errorf("profile calls = %v", calls[:4])
	}
	if p.State() != StateRunning {
		t.Errorf("state = %s, want running", p.State())
	}
}

func TestPlayerPauseResume(t *testing.T) {
	var calls []string
	p := NewPlayer(Hooks{SetProfile: func(name string) { calls = append(calls, name) }})
	if err := p.Load(testPlaylist()); err != nil {
		t.Fatalf("load: %v", err)
	}
	p.Start()
	p.Pause()
	p.Tick(10)
	if len(calls) != 1 {
		t.Fatalf("paused player advanced: %v", calls)
	}
	if p.State() != StatePaused {
		t.Errorf("state = %s, want paused", p.State())
	}
	p.Resume()
	p.Tick(1.5)
	if !reflect.DeepEqual(calls, []string{"red", "green"}) {
		t.Errorf("profile calls = %v", calls)
	}
	if name, _ := p.Current(); name != "green" {
		t.Errorf("current = %q, want green", name)
	}
}

func TestPlayerLoadValidates(t *testing.T) {
	p := NewPlayer(Hooks{})
	if err := p.Load(config.Playlist{}); err == nil {
		t.Error("empty playlist should not load")
	}
	bad := config.Playlist{Entries: []config.PlaylistEntry{{Profile: "", DurationS: 1}}}
	if err := p.Load(bad); err == nil {
		t.Error("entry without a profile should not load")
	}
	bad = config.Playlist{Entries: []config.PlaylistEntry{{Profile: "x", DurationS: 0}}}
	if err := p.Load(bad); err == nil {
		t.Error("entry without a duration should not load")
	}
}

func TestPlayerLoadStopsPlayback(t *testing.T) {
	p := NewPlayer(Hooks{})
	if err := p.Load(testPlaylist()); err != nil {
		t.Fatalf("load: %v", err)
	}
	p.Start()
	if err := p.Load(testPlaylist()); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if p.State() != StateIdle {
		t.Errorf("state = %s, want idle after reload", p.State())
	}
}
