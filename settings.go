package sn3193

import (
	"time"

	"periph.io/x/conn/v3/physic"
)

// Mode selects what drives the three outputs. It is a device-wide
// setting occupying the control register's mode field; the per-channel
// enable bits are independent of it.
type Mode byte

const (
	ModeOff       Mode = 0x00 // (00b) outputs off regardless of enables
	ModePWM       Mode = 0x10 // (01b) constant duty from the PWM registers
	ModeBreathing Mode = 0x20 // (10b) chip-sequenced five-phase pattern
)

func (m Mode) String() string {
	switch m {
	case ModeOff:
		return "off"
	case ModePWM:
		return "pwm"
	case ModeBreathing:
		return "breathing"
	}
	return "unknown"
}

// Current is the output current limit, shared by all three channels.
// The chip supports only these steps; CurrentDefault is what a reset
// leaves behind.
type Current byte

const (
	Current5mA    Current = 0x00 // (000b)
	Current10mA   Current = 0x04 // (001b)
	Current17p5mA Current = 0x08 // (010b)
	Current30mA   Current = 0x0C // (011b)
	Current42mA   Current = 0x10 // (100b)

	CurrentDefault = Current5mA
)

// Limit returns the step as a physical quantity.
func (c Current) Limit() physic.ElectricCurrent {
	switch c {
	case Current5mA:
		return 5 * physic.MilliAmpere
	case Current10mA:
		return 10 * physic.MilliAmpere
	case Current17p5mA:
		return 17500 * physic.MicroAmpere
	case Current30mA:
		return 30 * physic.MilliAmpere
	case Current42mA:
		return 42 * physic.MilliAmpere
	}
	return 0
}

func (c Current) String() string {
	return c.Limit().String()
}

// Channel selects which outputs a breathing timing write touches.
// Values form a bitmask; All expands to the three physical channels in
// ascending order.
type Channel byte

const (
	Channel1 Channel = 0x01
	Channel2 Channel = 0x02
	Channel3 Channel = 0x04
	All      Channel = Channel1 | Channel2 | Channel3
)

// String names the selected channels.
func (c Channel) String() string {
	if c == All {
		return "all"
	}
	s := ""
	for i, name := range [...]string{"led1", "led2", "led3"} {
		if c&(1<<i) == 0 {
			continue
		}
		if s != "" {
			s += "+"
		}
		s += name
	}
	if s == "" {
		return "none"
	}
	return s
}

// Breathing phase durations. Every phase steps in multiples of the
// chip's 130 ms base period, doubling per step, but each phase accepts
// its own subset of steps in its own register bits, so each gets its
// own type. The constant value is the register code.

// IntroTime is the T0 phase, the wait before the first ramp starts.
type IntroTime byte

const (
	IntroTime0s     IntroTime = 0x00
	IntroTime130ms  IntroTime = 0x10
	IntroTime260ms  IntroTime = 0x20
	IntroTime520ms  IntroTime = 0x30
	IntroTime1p04s  IntroTime = 0x40
	IntroTime2p08s  IntroTime = 0x50
	IntroTime4p16s  IntroTime = 0x60
	IntroTime8p32s  IntroTime = 0x70
	IntroTime16p64s IntroTime = 0x80
	IntroTime33p28s IntroTime = 0x90
	IntroTime66p56s IntroTime = 0xA0
)

// RampUpTime is the T1 phase, the fade from zero up to the PWM level.
type RampUpTime byte

const (
	RampUpTime130ms  RampUpTime = 0x00
	RampUpTime260ms  RampUpTime = 0x20
	RampUpTime520ms  RampUpTime = 0x40
	RampUpTime1p04s  RampUpTime = 0x60
	RampUpTime2p08s  RampUpTime = 0x80
	RampUpTime4p16s  RampUpTime = 0xA0
	RampUpTime8p32s  RampUpTime = 0xC0
	RampUpTime16p64s RampUpTime = 0xE0
)

// HoldHighTime is the T2 phase, the dwell at full level between ramps.
type HoldHighTime byte

const (
	HoldHighTime0s     HoldHighTime = 0x00
	HoldHighTime130ms  HoldHighTime = 0x02
	HoldHighTime260ms  HoldHighTime = 0x04
	HoldHighTime520ms  HoldHighTime = 0x06
	HoldHighTime1p04s  HoldHighTime = 0x08
	HoldHighTime2p08s  HoldHighTime = 0x0A
	HoldHighTime4p16s  HoldHighTime = 0x0C
	HoldHighTime8p32s  HoldHighTime = 0x0E
	HoldHighTime16p64s HoldHighTime = 0x10
)

// RampDownTime is the T3 phase, the fade from the PWM level back to
// zero.
type RampDownTime byte

const (
	RampDownTime130ms  RampDownTime = 0x00
	RampDownTime260ms  RampDownTime = 0x20
	RampDownTime520ms  RampDownTime = 0x40
	RampDownTime1p04s  RampDownTime = 0x60
	RampDownTime2p08s  RampDownTime = 0x80
	RampDownTime4p16s  RampDownTime = 0xA0
	RampDownTime8p32s  RampDownTime = 0xC0
	RampDownTime16p64s RampDownTime = 0xE0
)

// HoldLowTime is the T4 phase, the dwell at zero before the cycle
// repeats.
type HoldLowTime byte

const (
	HoldLowTime0s     HoldLowTime = 0x00
	HoldLowTime130ms  HoldLowTime = 0x02
	HoldLowTime260ms  HoldLowTime = 0x04
	HoldLowTime520ms  HoldLowTime = 0x06
	HoldLowTime1p04s  HoldLowTime = 0x08
	HoldLowTime2p08s  HoldLowTime = 0x0A
	HoldLowTime4p16s  HoldLowTime = 0x0C
	HoldLowTime8p32s  HoldLowTime = 0x0E
	HoldLowTime16p64s HoldLowTime = 0x10
	HoldLowTime33p28s HoldLowTime = 0x12
	HoldLowTime66p56s HoldLowTime = 0x14
)

// phaseDurations holds the doubling series shared by all five phases.
var phaseDurations = [...]time.Duration{
	0,
	130 * time.Millisecond,
	260 * time.Millisecond,
	520 * time.Millisecond,
	1040 * time.Millisecond,
	2080 * time.Millisecond,
	4160 * time.Millisecond,
	8320 * time.Millisecond,
	16640 * time.Millisecond,
	33280 * time.Millisecond,
	66560 * time.Millisecond,
}

// Duration returns the nominal wall-clock length of the phase.
func (t IntroTime) Duration() time.Duration { return phaseDurations[t>>4] }

// Duration returns the nominal wall-clock length of the phase.
func (t RampUpTime) Duration() time.Duration { return phaseDurations[(t>>5)+1] }

// Duration returns the nominal wall-clock length of the phase.
func (t HoldHighTime) Duration() time.Duration { return phaseDurations[t>>1] }

// Duration returns the nominal wall-clock length of the phase.
func (t RampDownTime) Duration() time.Duration { return phaseDurations[(t>>5)+1] }

// Duration returns the nominal wall-clock length of the phase.
func (t HoldLowTime) Duration() time.Duration { return phaseDurations[t>>1] }
