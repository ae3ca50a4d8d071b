package config

import (
	"path/filepath"
	"reflect"
	"testing"
)

func TestRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lampd.yaml")
	want := Default()
	want.Profile = "breathe"
	want.Playlist = Playlist{
		Loop: true,
		Entries: []PlaylistEntry{
			{Profile: "steady", DurationS: 30},
			{Profile: "breathe", DurationS: 60},
		},
	}
	if err := Save(path, want); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("round trip changed the config:\ngot  %+v\nwant %+v", got, want)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("loading a missing file should fail")
	}
}

func TestDefaultIsUsable(t *testing.T) {
	c := Default()
	if c.FPS <= 0 {
		t.Errorf("fps = %d", c.FPS)
	}
	if c.Listen == "" {
		t.Error("no listen address")
	}
	if _, ok := c.Profiles[c.Profile]; !ok {
		t.Errorf("active profile %q is not defined", c.Profile)
	}
	for name, p := range c.Profiles {
		if len(p.Levels) != 3 {
			t.Errorf("profile %q has %d levels", name, len(p.Levels))
		}
	}
}
