package lamp

import (
	"math"
	"testing"

	"github.com/michaelkamprath/sn3193"
)

func TestEnvelopeEval(t *testing.T) {
	e := Envelope{Keys: []Keyframe{{T: 0, V: 0}, {T: 1, V: 1}, {T: 3, V: 0}}}
	cases := []struct{ t, want float64 }{
		{-1, 0},
		{0, 0},
		{0.5, 0.5},
		{1, 1},
		{2, 0.5},
		{3, 0},
		{5, 0},
	}
	for _, c := range cases {
		if got := e.Eval(c.t); math.Abs(got-c.want) > 1e-9 {
			t.Errorf("Eval(%v) = %v, want %v", c.t, got, c.want)
		}
	}
}

func TestEnvelopeEase(t *testing.T) {
	e := Envelope{Keys: []Keyframe{{T: 0, V: 0}, {T: 1, V: 1, Ease: "inout"}}}
	if got := e.Eval(0.5); math.Abs(got-0.5) > 1e-9 {
		t.Errorf("Eval(0.5) = %v, want 0.5", got)
	}
	if got := e.Eval(0.25); got >= 0.25 {
		t.Errorf("inout should lag linear early, got %v", got)
	}
	if got := e.Eval(0.75); got <= 0.75 {
		t.Errorf("inout should lead linear late, got %v", got)
	}
}

func TestEnvelopeZeroSegment(t *testing.T) {
	e := Envelope{Keys: []Keyframe{{T: 0, V: 0}, {T: 0, V: 0}, {T: 1, V: 1}}}
	if got := e.Eval(0.5); math.Abs(got-0.5) > 1e-9 {
		t.Errorf("Eval(0.5) = %v, want 0.5", got)
	}
}

func TestEnvelopeEmpty(t *testing.T) {
	var e Envelope
	if got := e.Eval(1); got != 0 {
		t.Errorf("Eval on empty envelope = %v, want 0", got)
	}
	if got := e.At(1); got != 0 {
		t.Errorf("At on empty envelope = %v, want 0", got)
	}
}

func TestBreathEnvelopeShape(t *testing.T) {
	bt := BreathTimes{
		Intro: sn3193.IntroTime130ms,
		Up:    sn3193.RampUpTime520ms,
		High:  sn3193.HoldHighTime260ms,
		Down:  sn3193.RampDownTime520ms,
		Low:   sn3193.HoldLowTime260ms,
	}
	e := BreathEnvelope(bt)
	if got := e.Period(); math.Abs(got-1.69) > 1e-9 {
		t.Fatalf("period = %v, want 1.69", got)
	}
	if got := e.Eval(0.05); got != 0 {
		t.Errorf("intro should stay dark, got %v", got)
	}
	if got := e.Eval(0.13 + 0.52); math.Abs(got-1) > 1e-9 {
		t.Errorf("top of ramp = %v, want 1", got)
	}
	if got := e.Eval(0.80); math.Abs(got-1) > 1e-9 {
		t.Errorf("hold high = %v, want 1", got)
	}
	if got := e.Eval(1.60); got != 0 {
		t.Errorf("hold low = %v, want 0", got)
	}
}

func TestEnvelopeAtWraps(t *testing.T) {
	bt := BreathTimes{
		Intro: sn3193.IntroTime130ms,
		Up:    sn3193.RampUpTime520ms,
		High:  sn3193.HoldHighTime260ms,
		Down:  sn3193.RampDownTime520ms,
		Low:   sn3193.HoldLowTime260ms,
	}
	e := BreathEnvelope(bt)
	p := e.Period()
	for _, ti := range []float64{0.05, 0.4, 0.9, 1.3} {
		if got, want := e.At(ti+p), e.Eval(ti); math.Abs(got-want) > 1e-6 {
			t.Errorf("At(%v+period) = %v, want %v", ti, got, want)
		}
	}
}
