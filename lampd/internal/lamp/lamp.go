// Package lamp resolves free-form profile values onto the SN3193's
// closed settings and drives a controller with the result.
package lamp

import (
	"math"
	"time"

	"periph.io/x/conn/v3/physic"

	"github.com/michaelkamprath/sn3193"
	"github.com/michaelkamprath/sn3193/lampd/internal/config"
)

// Settings is the quantized chip state a profile resolves to.
type Settings struct {
	Mode    sn3193.Mode
	Current sn3193.Current
	Levels  [3]byte
	Enable  [3]bool
	Times   BreathTimes
}

// BreathTimes holds the five quantized breathing phases.
type BreathTimes struct {
	Intro sn3193.IntroTime
	Up    sn3193.RampUpTime
	High  sn3193.HoldHighTime
	Down  sn3193.RampDownTime
	Low   sn3193.HoldLowTime
}

// Period returns the length of one full breathing cycle.
func (bt BreathTimes) Period() time.Duration {
	return bt.Intro.Duration() + bt.Up.Duration() + bt.High.Duration() +
		bt.Down.Duration() + bt.Low.Duration()
}

var currentSteps = []sn3193.Current{
	sn3193.Current5mA,
	sn3193.Current10mA,
	sn3193.Current17p5mA,
	sn3193.Current30mA,
	sn3193.Current42mA,
}

var introSteps = []sn3193.IntroTime{
	sn3193.IntroTime0s,
	sn3193.IntroTime130ms,
	sn3193.IntroTime260ms,
	sn3193.IntroTime520ms,
	sn3193.IntroTime1p04s,
	sn3193.IntroTime2p08s,
	sn3193.IntroTime4p16s,
	sn3193.IntroTime8p32s,
	sn3193.IntroTime16p64s,
	sn3193.IntroTime33p28s,
	sn3193.IntroTime66p56s,
}

var rampUpSteps = []sn3193.RampUpTime{
	sn3193.RampUpTime130ms,
	sn3193.RampUpTime260ms,
	sn3193.RampUpTime520ms,
	sn3193.RampUpTime1p04s,
	sn3193.RampUpTime2p08s,
	sn3193.RampUpTime4p16s,
	sn3193.RampUpTime8p32s,
	sn3193.RampUpTime16p64s,
}

var holdHighSteps = []sn3193.HoldHighTime{
	sn3193.HoldHighTime0s,
	sn3193.HoldHighTime130ms,
	sn3193.HoldHighTime260ms,
	sn3193.HoldHighTime520ms,
	sn3193.HoldHighTime1p04s,
	sn3193.HoldHighTime2p08s,
	sn3193.HoldHighTime4p16s,
	sn3193.HoldHighTime8p32s,
	sn3193.HoldHighTime16p64s,
}

var rampDownSteps = []sn3193.RampDownTime{
	sn3193.RampDownTime130ms,
	sn3193.RampDownTime260ms,
	sn3193.RampDownTime520ms,
	sn3193.RampDownTime1p04s,
	sn3193.RampDownTime2p08s,
	sn3193.RampDownTime4p16s,
	sn3193.RampDownTime8p32s,
	sn3193.RampDownTime16p64s,
}

var holdLowSteps = []sn3193.HoldLowTime{
	sn3193.HoldLowTime0s,
	sn3193.HoldLowTime130ms,
	sn3193.HoldLowTime260ms,
	sn3193.HoldLowTime520ms,
	sn3193.HoldLowTime1p04s,
	sn3193.HoldLowTime2p08s,
	sn3193.HoldLowTime4p16s,
	sn3193.HoldLowTime8p32s,
	sn3193.HoldLowTime16p64s,
	sn3193.HoldLowTime33p28s,
	sn3193.HoldLowTime66p56s,
}

// nearestStep picks the index whose duration is closest to want.
func nearestStep(want time.Duration, steps []time.Duration) int {
	best := 0
	bestDiff := time.Duration(math.MaxInt64)
	for i, s := range steps {
		diff := want - s
		if diff < 0 {
			diff = -diff
		}
		if diff < bestDiff {
			best, bestDiff = i, diff
		}
	}
	return best
}

// NearestCurrent returns the chip step closest to ma milliamps.
func NearestCurrent(ma float64) sn3193.Current {
	want := physic.ElectricCurrent(math.Round(ma * float64(physic.MilliAmpere)))
	best := currentSteps[0]
	bestDiff := physic.ElectricCurrent(math.MaxInt64)
	for _, s := range currentSteps {
		diff := s.Limit() - want
		if diff < 0 {
			diff = -diff
		}
		if diff < bestDiff {
			best, bestDiff = s, diff
		}
	}
	return best
}

// NearestIntro returns the intro step closest to d.
func NearestIntro(d time.Duration) sn3193.IntroTime {
	ds := make([]time.Duration, len(introSteps))
	for i, s := range introSteps {
		ds[i] = s.Duration()
	}
	return introSteps[nearestStep(d, ds)]
}

// NearestRampUp returns the ramp up step closest to d.
func NearestRampUp(d time.Duration) sn3193.RampUpTime {
	ds := make([]time.Duration, len(rampUpSteps))
	for i, s := range rampUpSteps {
		ds[i] = s.Duration()
	}
	return rampUpSteps[nearestStep(d, ds)]
}

// NearestHoldHigh returns the hold high step closest to d.
func NearestHoldHigh(d time.Duration) sn3193.HoldHighTime {
	ds := make([]time.Duration, len(holdHighSteps))
	for i, s := range holdHighSteps {
		ds[i] = s.Duration()
	}
	return holdHighSteps[nearestStep(d, ds)]
}

// NearestRampDown returns the ramp down step closest to d.
func NearestRampDown(d time.Duration) sn3193.RampDownTime {
	ds := make([]time.Duration, len(rampDownSteps))
	for i, s := range rampDownSteps {
		ds[i] = s.Duration()
	}
	return rampDownSteps[nearestStep(d, ds)]
}

// NearestHoldLow returns the hold low step closest to d.
func NearestHoldLow(d time.Duration) sn3193.HoldLowTime {
	ds := make([]time.Duration, len(holdLowSteps))
	for i, s := range holdLowSteps {
		ds[i] = s.Duration()
	}
	return holdLowSteps[nearestStep(d, ds)]
}

// Resolve maps a profile onto chip settings. Unknown modes fall back
// to Off, missing enables default to all on, levels are clamped and
// optionally gamma corrected.
func Resolve(p config.Profile, gamma bool) Settings {
	s := Settings{
		Current: NearestCurrent(p.CurrentMA),
		Enable:  [3]bool{true, true, true},
	}
	switch p.Mode {
	case "pwm":
		s.Mode = sn3193.ModePWM
	case "breathing":
		s.Mode = sn3193.ModeBreathing
	default:
		s.Mode = sn3193.ModeOff
	}
	for i := 0; i < 3 && i < len(p.Levels); i++ {
		l := p.Levels[i]
		if l < 0 {
			l = 0
		}
		if l > 255 {
			l = 255
		}
		lvl := byte(l)
		if gamma {
			lvl = Gamma(lvl)
		}
		s.Levels[i] = lvl
	}
	for i := 0; i < 3 && i < len(p.Enable); i++ {
		s.Enable[i] = p.Enable[i]
	}
	b := p.Breathing
	s.Times = BreathTimes{
		Intro: NearestIntro(time.Duration(b.IntroMs) * time.Millisecond),
		Up:    NearestRampUp(time.Duration(b.RampUpMs) * time.Millisecond),
		High:  NearestHoldHigh(time.Duration(b.HoldHighMs) * time.Millisecond),
		Down:  NearestRampDown(time.Duration(b.RampDownMs) * time.Millisecond),
		Low:   NearestHoldLow(time.Duration(b.HoldLowMs) * time.Millisecond),
	}
	return s
}
