package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

type Breathing struct {
	IntroMs    int `yaml:"intro_ms"`
	RampUpMs   int `yaml:"ramp_up_ms"`
	HoldHighMs int `yaml:"hold_high_ms"`
	RampDownMs int `yaml:"ramp_down_ms"`
	HoldLowMs  int `yaml:"hold_low_ms"`
}

// Profile is a named lamp look. Values are free-form; the lamp layer
// quantizes them onto the chip's discrete steps.
type Profile struct {
	Mode      string    `yaml:"mode"` // "off" | "pwm" | "breathing"
	CurrentMA float64   `yaml:"current_ma"`
	Levels    []int     `yaml:"levels"` // r,g,b 0..255
	Enable    []bool    `yaml:"enable,omitempty"`
	Breathing Breathing `yaml:"breathing,omitempty"`
}

type PlaylistEntry struct {
	Profile   string  `yaml:"profile"`
	DurationS float64 `yaml:"duration_s"`
}

type Playlist struct {
	Loop    bool            `yaml:"loop"`
	Entries []PlaylistEntry `yaml:"entries,omitempty"`
}

type Config struct {
	Driver string `yaml:"driver"` // "i2c" | "sim"
	Bus    string `yaml:"bus"`    // I²C bus name, empty picks the first
	Listen string `yaml:"listen"` // HTTP listen address
	FPS    int    `yaml:"fps"`    // preview frame rate
	Gamma  bool   `yaml:"gamma"`  // gamma-correct profile levels

	Profile  string             `yaml:"profile"` // active profile name
	Profiles map[string]Profile `yaml:"profiles"`

	Playlist Playlist `yaml:"playlist,omitempty"`
}

// Default returns a usable configuration for a lamp with no config
// file yet: a steady warm white and a slow breathing pulse.
func Default() *Config {
	return &Config{
		Driver:  "i2c",
		Listen:  ":8080",
		FPS:     30,
		Gamma:   true,
		Profile: "steady",
		Profiles: map[string]Profile{
			"steady": {
				Mode:      "pwm",
				CurrentMA: 17.5,
				Levels:    []int{255, 180, 100},
			},
			"breathe": {
				Mode:      "breathing",
				CurrentMA: 10,
				Levels:    []int{0, 90, 255},
				Breathing: Breathing{
					IntroMs:    130,
					RampUpMs:   1040,
					HoldHighMs: 520,
					RampDownMs: 2080,
					HoldLowMs:  520,
				},
			},
		},
	}
}

func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func Save(path string, c *Config) error {
	b, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0644)
}
