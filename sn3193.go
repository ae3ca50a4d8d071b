// Package sn3193 controls an SN3193 3-channel LED driver over I²C.
//
// The chip drives up to three LEDs with 8 bit PWM duty control, a
// selectable output current limit and a five phase breathing pattern
// (intro, ramp up, hold high, ramp down, hold low) that it sequences
// on its own once programmed. Settings writes are buffered by the
// chip; every mutator here finishes with a write to the update
// register so the new state is live before the call returns.
//
// The device address is fixed by the AD pin at manufacture time and is
// not configurable here.
//
// Datasheet
//
// https://www.si-en.com/uploadpdf/SN3193.pdf
package sn3193

import (
	"fmt"
	"time"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/i2c"
)

// Delay is the blocking wait capability Init uses for the post-reset
// settle time. Pass nil to New to wait with time.Sleep.
type Delay interface {
	Sleep(d time.Duration)
}

type sleeper struct{}

func (sleeper) Sleep(d time.Duration) { time.Sleep(d) }

// Dev is a handle to an SN3193 on an I²C bus.
//
// A Dev assumes sole access to the chip for its lifetime. Every method
// blocks until its bus transactions complete and does no internal
// locking; when the bus is shared with other peripherals the caller
// serializes access. The only state kept host-side is a shadow of the
// control register, needed to change the mode field and the enable
// bits independently of each other.
type Dev struct {
	c     i2c.Dev
	delay Delay
	ctrl  byte
}

// New returns a driver for the SN3193 on bus. It performs no I/O;
// call Init before any configuration method.
func New(bus i2c.Bus, delay Delay) *Dev {
	if delay == nil {
		delay = sleeper{}
	}
	return &Dev{c: i2c.Dev{Bus: bus, Addr: Address}, delay: delay}
}

// Init resets the chip and waits for it to settle. The reset clears
// every register, leaving mode Off, all channels disabled, the lowest
// current step and zero PWM and timing values. Configuration methods
// called before a successful Init leave the chip in an undefined
// state; nothing software-side guards against that.
func (d *Dev) Init() (*Dev, error) {
	if err := d.writeRegister(regShutdown, resetValue); err != nil {
		return nil, err
	}
	d.delay.Sleep(settleTime)
	d.ctrl = 0
	return d, nil
}

// SetLEDMode selects Off, PWM or Breathing operation for the whole
// chip. The channel enable bits are left untouched.
func (d *Dev) SetLEDMode(m Mode) (*Dev, error) {
	if err := d.writeControl(d.ctrl&^modeMask | byte(m)); err != nil {
		return nil, err
	}
	if err := d.commit(); err != nil {
		return nil, err
	}
	return d, nil
}

// SetPWMLevels sets the duty code of each channel, 0 for off through
// 255 for full on. The channels are independent of each other.
func (d *Dev) SetPWMLevels(led1, led2, led3 byte) (*Dev, error) {
	for i, level := range [3]byte{led1, led2, led3} {
		if err := d.writeRegister(regPWM1+byte(i), level); err != nil {
			return nil, err
		}
	}
	if err := d.commit(); err != nil {
		return nil, err
	}
	return d, nil
}

// SetCurrent sets the output current limit for all three channels.
func (d *Dev) SetCurrent(c Current) (*Dev, error) {
	if err := d.writeRegister(regCurrent, byte(c)); err != nil {
		return nil, err
	}
	if err := d.commit(); err != nil {
		return nil, err
	}
	return d, nil
}

// SetBreathingTimes programs the five breathing phase durations for
// the selected channels. All writes the full five-register sequence to
// channels 1, 2 and 3 in order with a single latch at the end, so the
// chip picks up all three channels on the same update. A failed write
// aborts the sequence; channels written before the failure keep their
// new timing, as the chip cannot revert a buffered register.
func (d *Dev) SetBreathingTimes(ch Channel, intro IntroTime, up RampUpTime, high HoldHighTime, down RampDownTime, low HoldLowTime) (*Dev, error) {
	phases := [5]struct{ base, code byte }{
		{regTimeIntro, byte(intro)},
		{regTimeRampUp, byte(up)},
		{regTimeHoldHigh, byte(high)},
		{regTimeRampDown, byte(down)},
		{regTimeHoldLow, byte(low)},
	}
	for i := 0; i < 3; i++ {
		if ch&(1<<i) == 0 {
			continue
		}
		for _, p := range phases {
			if err := d.writeRegister(p.base+byte(i), p.code); err != nil {
				return nil, err
			}
		}
	}
	if err := d.commit(); err != nil {
		return nil, err
	}
	return d, nil
}

// EnableLEDs switches the individual channel outputs on or off. The
// mode field is left untouched.
func (d *Dev) EnableLEDs(led1, led2, led3 bool) (*Dev, error) {
	b := d.ctrl &^ enableMask
	if led1 {
		b |= enableLED1
	}
	if led2 {
		b |= enableLED2
	}
	if led3 {
		b |= enableLED3
	}
	if err := d.writeControl(b); err != nil {
		return nil, err
	}
	if err := d.commit(); err != nil {
		return nil, err
	}
	return d, nil
}

// Halt sets the mode to Off. Enable bits and latched settings stay in
// place, so a later SetLEDMode resumes output where it was.
func (d *Dev) Halt() error {
	_, err := d.SetLEDMode(ModeOff)
	return err
}

func (d *Dev) String() string {
	return fmt.Sprintf("SN3193{%s}", &d.c)
}

// writeControl writes the control register and refreshes the shadow,
// which only ever tracks values the chip acknowledged.
func (d *Dev) writeControl(b byte) error {
	if err := d.writeRegister(regControl, b); err != nil {
		return err
	}
	d.ctrl = b
	return nil
}

// commit latches all buffered settings writes into the outputs.
func (d *Dev) commit() error {
	return d.writeRegister(regUpdate, latchValue)
}

func (d *Dev) writeRegister(reg, value byte) error {
	if err := d.c.Tx([]byte{reg, value}, nil); err != nil {
		return wrap(err)
	}
	return nil
}

func wrap(err error) error {
	return fmt.Errorf("sn3193: %w", err)
}

var _ conn.Resource = &Dev{}
