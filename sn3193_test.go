package sn3193_test

import (
	"testing"
	"time"

	"periph.io/x/conn/v3/i2c/i2ctest"

	"github.com/michaelkamprath/sn3193"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingDelay counts settle waits instead of sleeping.
type recordingDelay struct {
	waits []time.Duration
}

func (r *recordingDelay) Sleep(d time.Duration) { r.waits = append(r.waits, d) }

func TestInit(t *testing.T) {
	bus := i2ctest.Playback{
		Ops: []i2ctest.IO{
			{Addr: 0x68, W: []byte{0x00, 0x00}},
		},
	}
	delay := &recordingDelay{}

	d := sn3193.New(&bus, delay)
	d2, err := d.Init()
	require.NoError(t, err)
	assert.Same(t, d, d2, "Init should hand back the same driver")

	require.Len(t, delay.waits, 1, "exactly one settle wait")
	assert.GreaterOrEqual(t, int64(delay.waits[0]), int64(50*time.Millisecond), "settle wait too short")

	if err := bus.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestSetPWMLevels(t *testing.T) {
	bus := i2ctest.Playback{
		Ops: []i2ctest.IO{
			{Addr: 0x68, W: []byte{0x04, 0xFF}},
			{Addr: 0x68, W: []byte{0x05, 0x80}},
			{Addr: 0x68, W: []byte{0x06, 0x00}},
			{Addr: 0x68, W: []byte{0x07, 0xFF}},
		},
	}

	d := sn3193.New(&bus, &recordingDelay{})
	_, err := d.SetPWMLevels(255, 128, 0)
	require.NoError(t, err)

	if err := bus.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestSetCurrentLowestStep(t *testing.T) {
	bus := i2ctest.Playback{
		Ops: []i2ctest.IO{
			{Addr: 0x68, W: []byte{0x03, 0x00}},
			{Addr: 0x68, W: []byte{0x07, 0xFF}},
		},
	}

	d := sn3193.New(&bus, &recordingDelay{})
	_, err := d.SetCurrent(sn3193.Current5mA)
	require.NoError(t, err)

	if err := bus.Close(); err != nil {
		t.Fatal(err)
	}
}

// Mode and enable share the control register; switching one must never
// disturb the other.
func TestModeAndEnableKeepTheirBits(t *testing.T) {
	bus := i2ctest.Playback{
		Ops: []i2ctest.IO{
			{Addr: 0x68, W: []byte{0x02, 0x10}}, // mode PWM, nothing enabled yet
			{Addr: 0x68, W: []byte{0x07, 0xFF}},
			{Addr: 0x68, W: []byte{0x02, 0x15}}, // enable 1 and 3, mode kept
			{Addr: 0x68, W: []byte{0x07, 0xFF}},
			{Addr: 0x68, W: []byte{0x02, 0x25}}, // mode breathing, enables kept
			{Addr: 0x68, W: []byte{0x07, 0xFF}},
			{Addr: 0x68, W: []byte{0x02, 0x20}}, // all disabled, mode kept
			{Addr: 0x68, W: []byte{0x07, 0xFF}},
		},
	}

	d := sn3193.New(&bus, &recordingDelay{})
	_, err := d.SetLEDMode(sn3193.ModePWM)
	require.NoError(t, err)
	_, err = d.EnableLEDs(true, false, true)
	require.NoError(t, err)
	_, err = d.SetLEDMode(sn3193.ModeBreathing)
	require.NoError(t, err)
	_, err = d.EnableLEDs(false, false, false)
	require.NoError(t, err)

	if err := bus.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestSetBreathingTimesAllChannels(t *testing.T) {
	// Three full five-register sequences in channel order, then one
	// latch for the lot.
	bus := i2ctest.Playback{
		Ops: []i2ctest.IO{
			{Addr: 0x68, W: []byte{0x0A, 0x20}},
			{Addr: 0x68, W: []byte{0x10, 0x60}},
			{Addr: 0x68, W: []byte{0x13, 0x06}},
			{Addr: 0x68, W: []byte{0x16, 0x80}},
			{Addr: 0x68, W: []byte{0x19, 0x00}},
			{Addr: 0x68, W: []byte{0x0B, 0x20}},
			{Addr: 0x68, W: []byte{0x11, 0x60}},
			{Addr: 0x68, W: []byte{0x14, 0x06}},
			{Addr: 0x68, W: []byte{0x17, 0x80}},
			{Addr: 0x68, W: []byte{0x1A, 0x00}},
			{Addr: 0x68, W: []byte{0x0C, 0x20}},
			{Addr: 0x68, W: []byte{0x12, 0x60}},
			{Addr: 0x68, W: []byte{0x15, 0x06}},
			{Addr: 0x68, W: []byte{0x18, 0x80}},
			{Addr: 0x68, W: []byte{0x1B, 0x00}},
			{Addr: 0x68, W: []byte{0x07, 0xFF}},
		},
	}

	d := sn3193.New(&bus, &recordingDelay{})
	_, err := d.SetBreathingTimes(sn3193.All,
		sn3193.IntroTime260ms,
		sn3193.RampUpTime1p04s,
		sn3193.HoldHighTime520ms,
		sn3193.RampDownTime2p08s,
		sn3193.HoldLowTime0s)
	require.NoError(t, err)

	if err := bus.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestSetBreathingTimesSingleChannel(t *testing.T) {
	bus := i2ctest.Playback{
		Ops: []i2ctest.IO{
			{Addr: 0x68, W: []byte{0x0B, 0x40}},
			{Addr: 0x68, W: []byte{0x11, 0x00}},
			{Addr: 0x68, W: []byte{0x14, 0x10}},
			{Addr: 0x68, W: []byte{0x17, 0xE0}},
			{Addr: 0x68, W: []byte{0x1A, 0x14}},
			{Addr: 0x68, W: []byte{0x07, 0xFF}},
		},
	}

	d := sn3193.New(&bus, &recordingDelay{})
	_, err := d.SetBreathingTimes(sn3193.Channel2,
		sn3193.IntroTime1p04s,
		sn3193.RampUpTime130ms,
		sn3193.HoldHighTime16p64s,
		sn3193.RampDownTime16p64s,
		sn3193.HoldLowTime66p56s)
	require.NoError(t, err)

	if err := bus.Close(); err != nil {
		t.Fatal(err)
	}
}

// A failing write must abort the sequence where it happened and skip
// the latch.
func TestWriteFailureStopsTheChain(t *testing.T) {
	bus := i2ctest.Playback{
		Ops: []i2ctest.IO{
			{Addr: 0x68, W: []byte{0x04, 0x01}},
			{Addr: 0x68, W: []byte{0x05, 0x02}},
		},
		DontPanic: true,
	}

	d := sn3193.New(&bus, &recordingDelay{})
	d2, err := d.SetPWMLevels(1, 2, 3)
	require.Error(t, err, "third duty write had nowhere to go")
	assert.Nil(t, d2, "a broken chain must not hand back the driver")
	assert.Contains(t, err.Error(), "sn3193:", "bus errors are wrapped")
	assert.Equal(t, bus.Count, 2, "no writes after the failed one")

	if err := bus.Close(); err != nil {
		t.Fatal(err)
	}
}

// A failure partway through an All sequence leaves the channels already
// written holding their new timing (the chip cannot revert buffered
// registers) and must skip the latch, so the old timing stays live.
func TestBreathingTimesFailureSkipsTheLatch(t *testing.T) {
	bus := i2ctest.Playback{
		Ops: []i2ctest.IO{
			{Addr: 0x68, W: []byte{0x0A, 0x20}},
			{Addr: 0x68, W: []byte{0x10, 0x60}},
			{Addr: 0x68, W: []byte{0x13, 0x06}},
			{Addr: 0x68, W: []byte{0x16, 0x80}},
			{Addr: 0x68, W: []byte{0x19, 0x02}},
			{Addr: 0x68, W: []byte{0x0B, 0x20}},
			{Addr: 0x68, W: []byte{0x11, 0x60}},
		},
		DontPanic: true,
	}

	d := sn3193.New(&bus, &recordingDelay{})
	d2, err := d.SetBreathingTimes(sn3193.All,
		sn3193.IntroTime260ms,
		sn3193.RampUpTime1p04s,
		sn3193.HoldHighTime520ms,
		sn3193.RampDownTime2p08s,
		sn3193.HoldLowTime130ms)
	require.Error(t, err, "channel 2's third phase write had nowhere to go")
	assert.Nil(t, d2, "a broken chain must not hand back the driver")
	assert.Contains(t, err.Error(), "sn3193:", "bus errors are wrapped")
	assert.Equal(t, bus.Count, 7, "no writes after the failed one, the latch included")

	// Close passing means the script was consumed exactly: channel 1
	// complete, channel 2 partial, no 0x07/0xFF op anywhere.
	if err := bus.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestChainedConfiguration(t *testing.T) {
	bus := i2ctest.Playback{
		Ops: []i2ctest.IO{
			{Addr: 0x68, W: []byte{0x00, 0x00}},
			{Addr: 0x68, W: []byte{0x03, 0x08}},
			{Addr: 0x68, W: []byte{0x07, 0xFF}},
			{Addr: 0x68, W: []byte{0x04, 0x0A}},
			{Addr: 0x68, W: []byte{0x05, 0x14}},
			{Addr: 0x68, W: []byte{0x06, 0x1E}},
			{Addr: 0x68, W: []byte{0x07, 0xFF}},
			{Addr: 0x68, W: []byte{0x02, 0x07}},
			{Addr: 0x68, W: []byte{0x07, 0xFF}},
			{Addr: 0x68, W: []byte{0x02, 0x17}},
			{Addr: 0x68, W: []byte{0x07, 0xFF}},
		},
	}

	d, err := sn3193.New(&bus, &recordingDelay{}).Init()
	require.NoError(t, err)
	d, err = d.SetCurrent(sn3193.Current17p5mA)
	require.NoError(t, err)
	d, err = d.SetPWMLevels(10, 20, 30)
	require.NoError(t, err)
	d, err = d.EnableLEDs(true, true, true)
	require.NoError(t, err)
	_, err = d.SetLEDMode(sn3193.ModePWM)
	require.NoError(t, err)

	if err := bus.Close(); err != nil {
		t.Fatal(err)
	}
}

// Halt drops the mode to Off but leaves the enables latched, so the
// session can be resumed with a single mode write.
func TestHaltKeepsEnables(t *testing.T) {
	bus := i2ctest.Playback{
		Ops: []i2ctest.IO{
			{Addr: 0x68, W: []byte{0x02, 0x07}},
			{Addr: 0x68, W: []byte{0x07, 0xFF}},
			{Addr: 0x68, W: []byte{0x02, 0x27}},
			{Addr: 0x68, W: []byte{0x07, 0xFF}},
			{Addr: 0x68, W: []byte{0x02, 0x07}},
			{Addr: 0x68, W: []byte{0x07, 0xFF}},
		},
	}

	d := sn3193.New(&bus, &recordingDelay{})
	_, err := d.EnableLEDs(true, true, true)
	require.NoError(t, err)
	_, err = d.SetLEDMode(sn3193.ModeBreathing)
	require.NoError(t, err)
	require.NoError(t, d.Halt())

	if err := bus.Close(); err != nil {
		t.Fatal(err)
	}
}

// The recording double captures a whole session for inspection.
func TestRecordedSession(t *testing.T) {
	bus := i2ctest.Record{}
	delay := &recordingDelay{}

	d, err := sn3193.New(&bus, delay).Init()
	require.NoError(t, err)
	d, err = d.SetCurrent(sn3193.Current10mA)
	require.NoError(t, err)
	_, err = d.SetPWMLevels(0x40, 0x40, 0x40)
	require.NoError(t, err)

	expected := [][]byte{
		{0x00, 0x00},
		{0x03, 0x04},
		{0x07, 0xFF},
		{0x04, 0x40},
		{0x05, 0x40},
		{0x06, 0x40},
		{0x07, 0xFF},
	}
	require.Len(t, bus.Ops, len(expected), "one recorded op per write")
	for i, op := range bus.Ops {
		assert.Equal(t, op.Addr, uint16(0x68), "all writes go to the fixed address")
		assert.Equal(t, op.W, expected[i], "recorded write should match the session")
	}
}

func TestString(t *testing.T) {
	bus := i2ctest.Playback{}
	d := sn3193.New(&bus, nil)
	if got, expected := d.String(), "SN3193{playback(104)}"; got != expected {
		t.Fatalf("\nGot:  %s\nWant: %s\n", got, expected)
	}
}
