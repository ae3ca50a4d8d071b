package sn3193

import "time"

// Address is the chip's fixed 7-bit I²C address, with the AD pin tied
// to GND.
const Address uint16 = 0x68

// Register map. The chip buffers every settings write until the update
// register is written, so each mutator ends with a write of latchValue
// to regUpdate.
const (
	regShutdown byte = 0x00 // writing resetValue clears all registers and leaves shutdown
	regControl  byte = 0x02 // mode field plus channel enable bits
	regCurrent  byte = 0x03 // output current select
	regPWM1     byte = 0x04 // duty code for OUT1; OUT2 and OUT3 follow
	regUpdate   byte = 0x07 // latch register, accepts latchValue only

	// Breathing timing registers, one per phase per channel. Each
	// base address is OUT1; OUT2 and OUT3 sit at +1 and +2.
	regTimeIntro    byte = 0x0A
	regTimeRampUp   byte = 0x10
	regTimeHoldHigh byte = 0x13
	regTimeRampDown byte = 0x16
	regTimeHoldLow  byte = 0x19
)

const (
	resetValue byte = 0x00
	latchValue byte = 0xFF
)

// Control register layout.
const (
	modeMask   byte = 0x30
	enableMask byte = 0x07
	enableLED1 byte = 0x01
	enableLED2 byte = 0x02
	enableLED3 byte = 0x04
)

// settleTime is how long the chip needs after a reset before it
// accepts configuration.
const settleTime = 50 * time.Millisecond
