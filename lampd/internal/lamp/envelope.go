package lamp

import "math"

// Keyframe is one point of an envelope. Ease names the curve used to
// approach this key from the previous one.
type Keyframe struct {
	T    float64 `json:"t" yaml:"t"`
	V    float64 `json:"v" yaml:"v"`
	Ease string  `json:"ease,omitempty" yaml:"ease,omitempty"`
}

// Envelope is a piecewise curve over seconds, evaluated by
// interpolating between keyframes.
type Envelope struct {
	Keys []Keyframe `json:"keys" yaml:"keys"`
}

// Eval returns the envelope value at time t. Before the first key it
// holds the first value, after the last key the last value.
func (e Envelope) Eval(t float64) float64 {
	if len(e.Keys) == 0 {
		return 0
	}
	if t <= e.Keys[0].T {
		return e.Keys[0].V
	}
	last := e.Keys[len(e.Keys)-1]
	if t >= last.T {
		return last.V
	}
	for i := 1; i < len(e.Keys); i++ {
		k0, k1 := e.Keys[i-1], e.Keys[i]
		if t > k1.T {
			continue
		}
		den := k1.T - k0.T
		if den <= 0 {
			return k1.V
		}
		u := clamp01((t - k0.T) / den)
		u = easeApply(k1.Ease, u)
		return k0.V + (k1.V-k0.V)*u
	}
	return last.V
}

// Period returns the time of the last key.
func (e Envelope) Period() float64 {
	if len(e.Keys) == 0 {
		return 0
	}
	return e.Keys[len(e.Keys)-1].T
}

// At evaluates the envelope at t wrapped into one period, so callers
// can treat it as cyclic.
func (e Envelope) At(t float64) float64 {
	p := e.Period()
	if p <= 0 {
		return e.Eval(0)
	}
	t = math.Mod(t, p)
	if t < 0 {
		t += p
	}
	return e.Eval(t)
}

// BreathEnvelope models one breathing cycle of the chip as a unit
// envelope over seconds. Zero-length phases collapse their segment.
func BreathEnvelope(bt BreathTimes) Envelope {
	t0 := bt.Intro.Duration().Seconds()
	t1 := bt.Up.Duration().Seconds()
	t2 := bt.High.Duration().Seconds()
	t3 := bt.Down.Duration().Seconds()
	t4 := bt.Low.Duration().Seconds()
	return Envelope{Keys: []Keyframe{
		{T: 0, V: 0},
		{T: t0, V: 0},
		{T: t0 + t1, V: 1, Ease: "inout"},
		{T: t0 + t1 + t2, V: 1},
		{T: t0 + t1 + t2 + t3, V: 0, Ease: "inout"},
		{T: t0 + t1 + t2 + t3 + t4, V: 0},
	}}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func easeApply(name string, u float64) float64 {
	switch name {
	case "", "linear":
		return u
	case "in":
		return u * u
	case "out":
		return 1 - (1-u)*(1-u)
	case "inout":
		return u * u * (3 - 2*u)
	default:
		return u
	}
}
