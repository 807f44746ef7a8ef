// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package hd44780 controls a Hitachi HD44780 compatible character LCD wired
// to six GPIO lines: DB4-DB7, E and RS, with R/W tied to ground.
//
// The bus is 4 bits wide and write-only, so every byte is sent as two
// nibbles, high nibble first, each latched on the falling edge of E, and the
// driver relies on fixed delays instead of the busy flag.
//
// Dev is not safe for concurrent use. The lines are owned by one writer and a
// byte interrupted between its two nibbles leaves the controller out of sync
// until the next Init.
//
// # Datasheet
//
// https://www.sparkfun.com/datasheets/LCD/HD44780.pdf
package hd44780

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/display"
	"periph.io/x/conn/v3/gpio"
)

type writeMode bool

const (
	modeCommand writeMode = false
	modeData    writeMode = true
)

// Instructions and their flags.
const (
	cmdClear          byte = 0x01
	cmdHome           byte = 0x02
	cmdEntryMode      byte = 0x04
	cmdDisplayControl byte = 0x08
	cmdShift          byte = 0x10
	cmdFunctionSet    byte = 0x20
	cmdSetDDRAM       byte = 0x80

	entryIncrement byte = 0x02
	entryShift     byte = 0x01

	displayOn byte = 0x04
	cursorOn  byte = 0x02
	blinkOn   byte = 0x01

	shiftRight byte = 0x04

	fnTwoLines byte = 0x08
)

const (
	// Upper nibble of "function set, 8 bit". Sent alone, three times, to
	// bring the interface back to a known state.
	nibbleForce8Bit byte = 0x03
	// Upper nibble of "function set, 4 bit".
	nibbleSet4Bit byte = 0x02

	forcePulses = 3

	// Columns past this are written at the current cursor without
	// addressing.
	addressableCols = 16
)

// DDRAM offset of each row. Rows 2 and 3 are the first and second line
// continued in the second half of their 0x40 byte window.
var rowOffsets = [...]byte{0x00, 0x40, 0x20, 0x60}

// wideRowOffsets is the layout of glass that is not 16 columns wide, e.g.
// 20x4 where rows 2 and 3 continue rows 0 and 1.
var wideRowOffsets = [...]byte{0x00, 0x40, 0x14, 0x54}

// initCommands are sent by Init once the interface is in 4 bit mode.
var initCommands = []byte{
	cmdFunctionSet | fnTwoLines,   // 4 bit, 2 lines, 5x8
	cmdDisplayControl,             // display, cursor and blink off
	cmdClear,                      // blank DDRAM, cursor home
	cmdEntryMode | entryIncrement, // left to right, no shift
	cmdDisplayControl | displayOn, // on, no cursor
}

var (
	// ErrInvalidLines is returned when a binding has a missing or a shared
	// line.
	ErrInvalidLines = errors.New("hd44780: invalid lines")
	// ErrInvalidTiming is returned for zero delays or a command delay not
	// longer than the data delay.
	ErrInvalidTiming = errors.New("hd44780: invalid timing")
	// ErrOutOfRange is returned for a cursor position that cannot be
	// addressed.
	ErrOutOfRange = errors.New("hd44780: position out of range")
)

// Opts holds the configuration of a Dev.
type Opts struct {
	// Rows and Cols describe the glass. They bound MoveTo and are reported
	// by Rows() and Cols(); SetText does not check them.
	Rows int
	Cols int
	// Timing is used as is unless it is the zero value, in which case
	// DefaultTiming is used.
	Timing Timing
	// Sleep blocks for the given duration. Defaults to time.Sleep.
	Sleep func(time.Duration)
	// Logger receives the initialization trace at debug level. Defaults to
	// a discarding logger.
	Logger logrus.FieldLogger
}

// DefaultOpts is a 16x2 display with DefaultTiming.
var DefaultOpts = Opts{
	Rows:   2,
	Cols:   16,
	Timing: DefaultTiming,
}

// Dev is a display bound to its lines.
type Dev struct {
	lines  Lines
	rows   int
	cols   int
	timing Timing
	sleep  func(time.Duration)
	log    logrus.FieldLogger
}

// Bind validates lines and drives all of them low, which configures them as
// outputs, in the order DB4-DB7, E, RS. An error from a pin is returned as
// is.
//
// The returned Dev must be initialized with Init before anything else is
// written to it.
func Bind(lines Lines, opts *Opts) (*Dev, error) {
	if opts == nil {
		opts = &DefaultOpts
	}
	if err := lines.validate(); err != nil {
		return nil, err
	}
	d := &Dev{
		lines:  lines,
		rows:   opts.Rows,
		cols:   opts.Cols,
		timing: opts.Timing,
		sleep:  opts.Sleep,
		log:    opts.Logger,
	}
	if d.rows <= 0 {
		d.rows = DefaultOpts.Rows
	}
	if d.cols <= 0 {
		d.cols = DefaultOpts.Cols
	}
	if d.timing == (Timing{}) {
		d.timing = DefaultTiming
	}
	if err := d.timing.validate(); err != nil {
		return nil, err
	}
	if d.sleep == nil {
		d.sleep = time.Sleep
	}
	if d.log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		d.log = l
	}
	for _, p := range lines.all() {
		if err := p.Out(gpio.Low); err != nil {
			return nil, err
		}
	}
	return d, nil
}

// BindDefault binds DefaultPinMap.
func BindDefault(opts *Opts) (*Dev, error) {
	lines, err := DefaultPinMap.Lines()
	if err != nil {
		return nil, err
	}
	return Bind(lines, opts)
}

// New binds lines and runs Init, returning a display ready for use.
func New(lines Lines, opts *Opts) (*Dev, error) {
	d, err := Bind(lines, opts)
	if err != nil {
		return nil, err
	}
	if err := d.Init(); err != nil {
		return nil, err
	}
	return d, nil
}

type initState int

const (
	statePowerOn initState = iota
	stateForce8Bit
	stateSwitch4Bit
	stateConfigure
	stateReady
)

func (s initState) String() string {
	switch s {
	case statePowerOn:
		return "POWER_ON"
	case stateForce8Bit:
		return "FORCE_8BIT_x3"
	case stateSwitch4Bit:
		return "SWITCH_4BIT"
	case stateConfigure:
		return "CONFIGURE"
	case stateReady:
		return "READY"
	}
	return "initState(" + strconv.Itoa(int(s)) + ")"
}

// Init runs the power-on reset sequence for 4 bit operation. It is safe to
// call again at any time to recover a controller that lost nibble sync.
//
// The controller may be in 8 bit mode, or in 4 bit mode halfway through a
// byte, so the function set 8 bit nibble is forced three times before
// switching to 4 bit mode and configuring the display.
func (d *Dev) Init() error {
	for s := statePowerOn; s < stateReady; s++ {
		d.log.WithField("state", s).Debug("hd44780: init")
		if err := d.runState(s); err != nil {
			d.log.WithField("state", s).WithError(err).Debug("hd44780: init failed")
			return err
		}
	}
	d.log.WithField("state", stateReady).Debug("hd44780: init")
	return nil
}

func (d *Dev) runState(s initState) error {
	switch s {
	case statePowerOn:
		d.sleep(d.timing.PowerOn)
	case stateForce8Bit:
		if err := d.lines.RegisterSelect.Out(gpio.Level(modeCommand)); err != nil {
			return err
		}
		if err := d.sendNibble(nibbleForce8Bit); err != nil {
			return err
		}
		for range forcePulses {
			if err := d.triggerEnable(); err != nil {
				return err
			}
			d.sleep(d.timing.ForceSettle)
		}
	case stateSwitch4Bit:
		if err := d.sendNibble(nibbleSet4Bit); err != nil {
			return err
		}
		if err := d.triggerEnable(); err != nil {
			return err
		}
		d.sleep(d.timing.ForceSettle)
	case stateConfigure:
		for _, c := range initCommands {
			if err := d.writeByte(c, modeCommand); err != nil {
				return err
			}
		}
	}
	return nil
}

// Clear blanks the display and moves the cursor home.
func (d *Dev) Clear() error {
	return d.writeByte(cmdClear, modeCommand)
}

// SetText writes text starting at col, row, both zero based.
//
// For col < 16 the cursor is moved first. Larger columns skip addressing
// and text is written wherever the cursor is, which lets a caller continue
// after a previous write. Writing stops at the first NUL byte. Text that
// does not fit the line is still sent; what the controller does with it
// depends on the glass.
func (d *Dev) SetText(text string, col, row int) error {
	if col < 0 || row < 0 {
		return fmt.Errorf("%w: (%d,%d)", ErrOutOfRange, col, row)
	}
	if col < addressableCols {
		if err := d.writeByte(ddramAddress(col, row), modeCommand); err != nil {
			return err
		}
	}
	for i := 0; i < len(text) && text[i] != 0; i++ {
		if err := d.writeByte(text[i], modeData); err != nil {
			return err
		}
	}
	return nil
}

// SetInt writes the decimal representation of value like SetText.
func (d *Dev) SetInt(value, col, row int) error {
	return d.SetText(strconv.Itoa(value), col, row)
}

// Command sends a raw instruction.
func (d *Dev) Command(c byte) error {
	return d.writeByte(c, modeCommand)
}

// WriteByte writes a single character at the cursor.
func (d *Dev) WriteByte(c byte) error {
	return d.writeByte(c, modeData)
}

// Halt turns the display off and drives all lines low. The lines stay
// owned by the caller.
func (d *Dev) Halt() error {
	err := d.Display(false)
	for _, p := range d.lines.all() {
		if e := p.Out(gpio.Low); e != nil && err == nil {
			err = e
		}
	}
	return err
}

func (d *Dev) String() string {
	return fmt.Sprintf("HD44780{%s} %dx%d", d.lines.String(), d.rows, d.cols)
}

func ddramAddress(col, row int) byte {
	addr := cmdSetDDRAM | byte(col)
	if row < len(rowOffsets) {
		addr |= rowOffsets[row]
	}
	return addr
}

// cursorAddress is ddramAddress for the glass geometry of d.
func (d *Dev) cursorAddress(col, row int) byte {
	if d.cols == addressableCols {
		return ddramAddress(col, row)
	}
	addr := cmdSetDDRAM | byte(col)
	if row < len(wideRowOffsets) {
		addr += wideRowOffsets[row]
	}
	return addr
}

// writeByte sends b as two nibbles with RS set for mode and waits for the
// controller to execute it.
func (d *Dev) writeByte(b byte, mode writeMode) error {
	if err := d.lines.RegisterSelect.Out(gpio.Level(mode)); err != nil {
		return err
	}
	if err := d.sendNibble(b >> 4); err != nil {
		return err
	}
	if err := d.triggerEnable(); err != nil {
		return err
	}
	if err := d.sendNibble(b & 0x0f); err != nil {
		return err
	}
	if err := d.triggerEnable(); err != nil {
		return err
	}
	if mode == modeCommand {
		d.sleep(d.timing.CommandSettle)
	} else {
		d.sleep(d.timing.DataSettle)
	}
	return nil
}

// sendNibble puts bit i of n on Data[i]. It does not latch.
func (d *Dev) sendNibble(n byte) error {
	for i, p := range d.lines.Data {
		if err := p.Out(gpio.Level(n&(1<<uint(i)) != 0)); err != nil {
			return err
		}
	}
	return nil
}

// triggerEnable brackets a high pulse on E with lows. The controller latches
// the bus on the falling edge.
func (d *Dev) triggerEnable() error {
	for _, l := range []gpio.Level{gpio.Low, gpio.High, gpio.Low} {
		if err := d.lines.Enable.Out(l); err != nil {
			return err
		}
		d.sleep(d.timing.EnablePulse)
	}
	return nil
}

var _ display.TextDisplay = &Dev{}
var _ conn.Resource = &Dev{}
var _ io.ByteWriter = &Dev{}
