// Package sn3193smoketest is leveraged by periph-smoketest to verify
// that an SN3193 accepts its full configuration surface by driving a
// visible pattern on all three channels.
package sn3193smoketest

import (
	"flag"
	"fmt"
	"log"
	"time"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/i2c/i2ctest"

	"github.com/michaelkamprath/sn3193"
)

// SmokeTest is imported by periph-smoketest.
type SmokeTest struct {
}

func (s *SmokeTest) String() string {
	return s.Name()
}

// Name implements the SmokeTest interface.
func (s *SmokeTest) Name() string {
	return "sn3193"
}

// Description implements the SmokeTest interface.
func (s *SmokeTest) Description() string {
	return "Tests an SN3193 by sweeping current steps, ramping PWM duty and running the breathing pattern"
}

// Run implements the SmokeTest interface.
func (s *SmokeTest) Run(args []string) (err error) {
	f := flag.NewFlagSet("buses", flag.ExitOnError)
	i2cName := f.String("i2c", "", "I²C bus to use")
	record := f.Bool("record", false, "record operation (for playback unit testing)")
	f.Parse(args)

	i2cBus, err2 := i2creg.Open(*i2cName)
	if err2 != nil {
		return err2
	}
	defer func() {
		if err2 := i2cBus.Close(); err == nil {
			err = err2
		}
	}()

	if !*record {
		return s.run(i2cBus)
	}

	recorder := i2ctest.Record{Bus: i2cBus}
	err = s.run(&recorder)
	if len(recorder.Ops) != 0 {
		fmt.Printf("I²C recorder Addr: 0x%02X\n", recorder.Ops[0].Addr)
	} else {
		fmt.Print("I²C recorder\n")
	}
	for _, op := range recorder.Ops {
		fmt.Print("  Write: ")
		for i, b := range op.W {
			if i != 0 {
				fmt.Print(", ")
			}
			fmt.Printf("0x%02X", b)
		}
		fmt.Print("\n")
	}
	return err
}

func (s *SmokeTest) run(bus i2c.Bus) error {
	d, err := sn3193.New(bus, nil).Init()
	if err != nil {
		return err
	}

	log.Printf("%s: current sweep at half duty", s)
	if _, err := d.SetPWMLevels(128, 128, 128); err != nil {
		return err
	}
	if _, err := d.EnableLEDs(true, true, true); err != nil {
		return err
	}
	if _, err := d.SetLEDMode(sn3193.ModePWM); err != nil {
		return err
	}
	steps := []sn3193.Current{
		sn3193.Current5mA,
		sn3193.Current10mA,
		sn3193.Current17p5mA,
		sn3193.Current30mA,
		sn3193.Current42mA,
	}
	for _, c := range steps {
		log.Printf("%s: %s", s, c)
		if _, err := d.SetCurrent(c); err != nil {
			return err
		}
		time.Sleep(500 * time.Millisecond)
	}
	if _, err := d.SetCurrent(sn3193.Current17p5mA); err != nil {
		return err
	}

	log.Printf("%s: per channel duty ramp", s)
	for ch := 0; ch < 3; ch++ {
		for duty := 0; duty < 256; duty += 15 {
			var levels [3]byte
			levels[ch] = byte(duty)
			if _, err := d.SetPWMLevels(levels[0], levels[1], levels[2]); err != nil {
				return err
			}
			time.Sleep(20 * time.Millisecond)
		}
	}

	log.Printf("%s: breathing on all channels", s)
	intro := sn3193.IntroTime130ms
	up := sn3193.RampUpTime520ms
	high := sn3193.HoldHighTime260ms
	down := sn3193.RampDownTime1p04s
	low := sn3193.HoldLowTime260ms
	if _, err := d.SetPWMLevels(255, 255, 255); err != nil {
		return err
	}
	if _, err := d.SetBreathingTimes(sn3193.All, intro, up, high, down, low); err != nil {
		return err
	}
	if _, err := d.SetLEDMode(sn3193.ModeBreathing); err != nil {
		return err
	}
	cycle := intro.Duration() + up.Duration() + high.Duration() + down.Duration() + low.Duration()
	time.Sleep(2 * cycle)

	log.Printf("%s: off", s)
	return d.Halt()
}
