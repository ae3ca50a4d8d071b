package lamp

import (
	"github.com/rs/zerolog/log"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"

	"github.com/michaelkamprath/sn3193"
)

// Controller pushes resolved settings to a lamp backend.
type Controller interface {
	Apply(s Settings) error
	Close() error
}

// Device drives a real SN3193 on an I2C bus.
type Device struct {
	bus i2c.BusCloser
	dev *sn3193.Dev
}

// NewDevice opens busName (empty for the first available bus) and
// resets the chip on it.
func NewDevice(busName string) (*Device, error) {
	bus, err := i2creg.Open(busName)
	if err != nil {
		return nil, err
	}
	dev, err := sn3193.New(bus, nil).Init()
	if err != nil {
		bus.Close()
		return nil, err
	}
	return &Device{bus: bus, dev: dev}, nil
}

// Apply programs the chip with s. Breathing times are only written when
// the mode asks for them; the mode itself goes last so the lamp never
// animates with stale timing.
func (d *Device) Apply(s Settings) error {
	dev, err := d.dev.SetCurrent(s.Current)
	if err != nil {
		return err
	}
	dev, err = dev.SetPWMLevels(s.Levels[0], s.Levels[1], s.Levels[2])
	if err != nil {
		return err
	}
	if s.Mode == sn3193.ModeBreathing {
		dev, err = dev.SetBreathingTimes(sn3193.All,
			s.Times.Intro, s.Times.Up, s.Times.High, s.Times.Down, s.Times.Low)
		if err != nil {
			return err
		}
	}
	dev, err = dev.EnableLEDs(s.Enable[0], s.Enable[1], s.Enable[2])
	if err != nil {
		return err
	}
	_, err = dev.SetLEDMode(s.Mode)
	return err
}

// Close blanks the lamp and releases the bus.
func (d *Device) Close() error {
	if err := d.dev.Halt(); err != nil {
		d.bus.Close()
		return err
	}
	return d.bus.Close()
}

// Sim is a stand-in controller that logs applied settings instead of
// touching hardware.
type Sim struct{}

func (Sim) Apply(s Settings) error {
	ev := log.Debug().
		Str("mode", s.Mode.String()).
		Str("current", s.Current.String()).
		Ints("levels", []int{int(s.Levels[0]), int(s.Levels[1]), int(s.Levels[2])}).
		Bools("enable", s.Enable[:])
	if s.Mode == sn3193.ModeBreathing {
		ev = ev.Dur("period", s.Times.Period())
	}
	ev.Msg("apply")
	return nil
}

func (Sim) Close() error { return nil }
