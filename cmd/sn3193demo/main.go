// Command sn3193demo drives an SN3193 through a color wheel or the
// chip's breathing pattern, optionally mirroring the color on a
// WS281x strip over SPI.
package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"image/color"
	"log"
	"math"
	"os"
	"os/signal"
	"sync"
	"time"

	"periph.io/x/conn/v3/display"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/devices/v3/nrzled"
	"periph.io/x/host/v3"

	"github.com/michaelkamprath/sn3193"
)

const DFLT_FPS = 30

func main() {
	i2cName := flag.String("i2c", "", "I²C bus (empty selects the first available)")
	noMirror := flag.Bool("no-mirror", false, "skip the SPI strip mirror")
	pixels := flag.Int("pixels", 8, "pixels on the mirror strip")
	breathe := flag.Bool("breathe", false, "run the chip-sequenced breathing pattern instead of the color wheel")
	period := flag.Duration("period", 6*time.Second, "color wheel period")
	flag.Parse()

	if _, err := host.Init(); err != nil {
		log.Fatal(err)
	}

	bus, err := i2creg.Open(*i2cName)
	if err != nil {
		log.Fatal(err)
	}
	defer bus.Close()

	d, err := sn3193.New(bus, nil).Init()
	if err != nil {
		log.Fatal(err)
	}
	if _, err := d.SetCurrent(sn3193.Current17p5mA); err != nil {
		log.Fatal(err)
	}
	if _, err := d.EnableLEDs(true, true, true); err != nil {
		log.Fatal(err)
	}

	m := initMirror(*noMirror, *pixels)
	defer m.Clear()

	if *breathe {
		runBreathing(d, m)
		return
	}
	runColorWheel(d, m, *period)
}

func runColorWheel(d *sn3193.Dev, m *mirror, period time.Duration) {
	if _, err := d.SetLEDMode(sn3193.ModePWM); err != nil {
		log.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	wg := &sync.WaitGroup{}
	wg.Add(1)

	// trap Ctrl+C and call cancel on the context
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)
	defer func() {
		signal.Stop(c)
		cancel()
	}()

	go func(cc context.Context) {
		start := time.Now()
		ticker := time.NewTicker(time.Second / DFLT_FPS)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				elapsed := time.Since(start)
				h := math.Mod(elapsed.Seconds()/period.Seconds(), 1.0)
				col := colorWheel(h)
				if _, err := d.SetPWMLevels(col.R, col.G, col.B); err != nil {
					log.Fatal(err)
				}
				m.Show(col)

			case sig := <-c:
				fmt.Printf("Got %s signal. Aborting...\n", sig)
				if err := d.Halt(); err != nil {
					log.Print(err)
				}
				wg.Done()
				return

			case <-cc.Done():
				wg.Done()
				return
			}
		}
	}(ctx)

	wg.Wait()
}

func runBreathing(d *sn3193.Dev, m *mirror) {
	intro := sn3193.IntroTime130ms
	up := sn3193.RampUpTime1p04s
	high := sn3193.HoldHighTime520ms
	down := sn3193.RampDownTime2p08s
	low := sn3193.HoldLowTime520ms

	col := color.NRGBA{R: 255, G: 180, B: 40, A: 255}
	if _, err := d.SetPWMLevels(col.R, col.G, col.B); err != nil {
		log.Fatal(err)
	}
	if _, err := d.SetBreathingTimes(sn3193.All, intro, up, high, down, low); err != nil {
		log.Fatal(err)
	}
	if _, err := d.SetLEDMode(sn3193.ModeBreathing); err != nil {
		log.Fatal(err)
	}
	m.Show(col)

	cycle := intro.Duration() + up.Duration() + high.Duration() + down.Duration() + low.Duration()
	log.Printf("breathing with a %s cycle, Ctrl+C to stop", cycle)

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)
	sig := <-c
	fmt.Printf("Got %s signal. Aborting...\n", sig)
	if err := d.Halt(); err != nil {
		log.Print(err)
	}
}

// mirror repeats the lamp color on a strip when SPI hardware is
// around, and on the console when it is not.
type mirror struct {
	drawer display.Drawer
}

func initMirror(disabled bool, pixels int) *mirror {
	m := &mirror{}
	if disabled {
		return m
	}
	port, err := spireg.Open("")
	if err != nil {
		fmt.Printf("Failed to find a SPI port, mirroring at the console:\n")
		return m
	}

	opts := nrzled.Opts{
		NumPixels: pixels,
		Channels:  3,
		Freq:      2500 * physic.KiloHertz,
	}
	d, err := nrzled.NewSPI(port, &opts)
	if err != nil {
		log.Fatal(err)
	}
	d.Halt()
	m.drawer = d
	return m
}

func (m *mirror) Show(col color.NRGBA) {
	if m.drawer == nil {
		fmt.Printf("\rled: #%02X%02X%02X", col.R, col.G, col.B)
		return
	}
	img := image.NewNRGBA(m.drawer.Bounds())
	for x := 0; x < img.Rect.Dx(); x++ {
		img.SetNRGBA(x, 0, col)
	}
	if err := m.drawer.Draw(m.drawer.Bounds(), img, image.Point{}); err != nil {
		log.Fatal(err)
	}
}

func (m *mirror) Clear() {
	if m.drawer == nil {
		fmt.Printf("\n")
		return
	}
	if err := m.drawer.Halt(); err != nil {
		log.Fatal(err)
	}
}

func colorWheel(h float64) color.NRGBA {
	h *= 6
	switch {
	case h < 1.:
		return color.NRGBA{R: 255, G: byte(255 * h), A: 255}
	case h < 2.:
		return color.NRGBA{R: byte(255 * (2 - h)), G: 255, A: 255}
	case h < 3.:
		return color.NRGBA{G: 255, B: byte(255 * (h - 2)), A: 255}
	case h < 4.:
		return color.NRGBA{G: byte(255 * (4 - h)), B: 255, A: 255}
	case h < 5.:
		return color.NRGBA{R: byte(255 * (h - 4)), B: 255, A: 255}
	default:
		return color.NRGBA{R: 255, B: byte(255 * (6 - h)), A: 255}
	}
}
