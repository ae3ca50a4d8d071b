// Command breathsim renders a profile's breathing cycle to the
// terminal, for tuning timings without hardware.
package main

import (
	"flag"
	"fmt"
	"log"
	"math"
	"strings"
	"time"

	"github.com/michaelkamprath/sn3193/lampd/internal/config"
	"github.com/michaelkamprath/sn3193/lampd/internal/lamp"
)

func main() {
	var (
		configPath = flag.String("config", "lampd.yaml", "path to the config file")
		profile    = flag.String("profile", "", "profile to simulate, default the active one")
		fps        = flag.Int("fps", 20, "samples per second")
		cycles     = flag.Int("cycles", 1, "breathing cycles to render")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Printf("config not loaded (%v), using defaults", err)
		cfg = config.Default()
	}
	name := *profile
	if name == "" {
		name = cfg.Profile
	}
	p, ok := cfg.Profiles[name]
	if !ok {
		log.Fatalf("no profile %q in %s", name, *configPath)
	}

	set := lamp.Resolve(p, cfg.Gamma)
	env := lamp.BreathEnvelope(set.Times)
	period := set.Times.Period()
	fmt.Printf("profile %q: mode=%s current=%s period=%s\n", name, set.Mode, set.Current, period)
	if period <= 0 {
		log.Fatal("profile has a zero breathing period")
	}

	step := time.Second / time.Duration(*fps)
	total := time.Duration(*cycles) * period
	for t := time.Duration(0); t <= total; t += step {
		br := env.At(t.Seconds())
		var rgb [3]byte
		for i, l := range set.Levels {
			if !set.Enable[i] {
				l = 0
			}
			rgb[i] = byte(math.Round(float64(l) * br))
		}
		bar := strings.Repeat("#", int(br*40+0.5))
		fmt.Printf("%7.2fs  #%02X%02X%02X  |%-40s|\n", t.Seconds(), rgb[0], rgb[1], rgb[2], bar)
	}
}
