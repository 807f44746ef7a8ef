// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package lcdsim emulates an HD44780 controller behind six GPIO lines.
//
// The Controller samples DB4-DB7 and RS on each falling edge of E, tracks
// the 8 bit / 4 bit interface state like the real chip after power on, and
// executes the resulting instructions against its DDRAM. It can be rendered
// to a terminal with ANSI colors or to a PNG.
//
// Useful to run the driver without hardware, and to check what the glass
// would show.
package lcdsim

import (
	"fmt"
	"sync"

	"github.com/GermanBionicSystems/charlcd/hd44780"
	"periph.io/x/conn/v3/gpio"
)

const ddramSize = 0x80

const (
	lineDB4 = iota
	lineDB5
	lineDB6
	lineDB7
	lineE
	lineRS
	numLines
)

var lineNames = [numLines]string{"DB4", "DB5", "DB6", "DB7", "E", "RS"}

// Geometry describes the glass in front of the controller.
type Geometry struct {
	Rows int
	Cols int
	// RowAddr is the DDRAM address shown in the first column of each row.
	RowAddr []byte
}

var (
	// Geometry16x2 is the common 1602 module.
	Geometry16x2 = Geometry{Rows: 2, Cols: 16, RowAddr: []byte{0x00, 0x40}}
	// Geometry16x4 shows rows 2 and 3 at the addresses hd44780.Dev.SetText
	// uses for them.
	Geometry16x4 = Geometry{Rows: 4, Cols: 16, RowAddr: []byte{0x00, 0x40, 0x20, 0x60}}
	// Geometry20x4 is the common 2004 module.
	Geometry20x4 = Geometry{Rows: 4, Cols: 20, RowAddr: []byte{0x00, 0x40, 0x14, 0x54}}
)

// Instruction is a byte executed by the controller.
type Instruction struct {
	// Data is set for character writes (RS high).
	Data  bool
	Value byte
	// Wide is set when the byte was latched in 8 bit interface mode, with
	// only the upper nibble connected.
	Wide bool
}

func (i Instruction) String() string {
	kind := "cmd"
	if i.Data {
		kind = "data"
	}
	if i.Wide {
		kind += "/8"
	}
	return fmt.Sprintf("%s %#02x", kind, i.Value)
}

// State is a snapshot of the controller registers.
type State struct {
	FourBit   bool
	TwoLines  bool
	DisplayOn bool
	Cursor    bool
	Blink     bool
	Increment bool
	Shift     bool
	Address   byte
	// Offset is the current display shift, in columns.
	Offset int
}

// Controller is a simulated HD44780.
type Controller struct {
	geo  Geometry
	pins [numLines]Pin

	mu       sync.Mutex
	levels   [numLines]gpio.Level
	pending  bool
	high     byte
	ddram    [ddramSize]byte
	state    State
	history  []Instruction
	onUpdate func()
}

// New returns a controller in its power on state: 8 bit interface, display
// off, DDRAM blank. A zero Geometry selects Geometry16x2.
func New(g Geometry) *Controller {
	if g.Rows <= 0 || g.Cols <= 0 || len(g.RowAddr) < g.Rows {
		g = Geometry16x2
	}
	c := &Controller{geo: g}
	for ix := range c.pins {
		c.pins[ix] = Pin{c: c, line: ix, name: "LCD_" + lineNames[ix]}
	}
	c.reset()
	return c
}

// Lines returns the controller inputs as a binding for hd44780.Bind.
func (c *Controller) Lines() hd44780.Lines {
	return hd44780.Lines{
		Data:           [4]gpio.PinOut{&c.pins[lineDB4], &c.pins[lineDB5], &c.pins[lineDB6], &c.pins[lineDB7]},
		Enable:         &c.pins[lineE],
		RegisterSelect: &c.pins[lineRS],
	}
}

// Geometry returns the glass layout.
func (c *Controller) Geometry() Geometry {
	return c.geo
}

// OnUpdate registers f to be called after every executed instruction. f
// runs on the goroutine driving the pins and may call Text or State.
func (c *Controller) OnUpdate(f func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onUpdate = f
}

// Reset puts the controller back in its power on state.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reset()
}

// State returns the registers.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// History returns every instruction executed since power on.
func (c *Controller) History() []Instruction {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Instruction(nil), c.history...)
}

// DDRAM returns a copy of the display memory.
func (c *Controller) DDRAM() []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]byte(nil), c.ddram[:]...)
}

// Text returns what each row of the glass shows, ignoring whether the
// display is on. Characters outside printable ASCII are shown as spaces.
func (c *Controller) Text() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, c.geo.Rows)
	buf := make([]byte, c.geo.Cols)
	for r := range c.geo.Rows {
		for col := range c.geo.Cols {
			ch := c.ddram[c.cell(r, col)]
			if ch < 0x20 || ch > 0x7e {
				ch = ' '
			}
			buf[col] = ch
		}
		out[r] = string(buf)
	}
	return out
}

func (c *Controller) String() string {
	return fmt.Sprintf("lcdsim{%dx%d}", c.geo.Rows, c.geo.Cols)
}

// cell returns the DDRAM address shown at r, col.
func (c *Controller) cell(r, col int) byte {
	return byte(int(c.geo.RowAddr[r])+col+c.state.Offset) & (ddramSize - 1)
}

func (c *Controller) reset() {
	for ix := range c.ddram {
		c.ddram[ix] = ' '
	}
	c.levels = [numLines]gpio.Level{}
	c.pending = false
	c.high = 0
	c.state = State{Increment: true}
	c.history = nil
}

// set is called by the pins.
func (c *Controller) set(line int, l gpio.Level) {
	c.mu.Lock()
	falling := line == lineE && c.levels[lineE] == gpio.High && l == gpio.Low
	c.levels[line] = l
	executed := false
	if falling {
		executed = c.latch()
	}
	f := c.onUpdate
	c.mu.Unlock()
	if executed && f != nil {
		f()
	}
}

// latch samples the bus. It returns true when a full instruction was
// executed.
func (c *Controller) latch() bool {
	var n byte
	for ix := lineDB4; ix <= lineDB7; ix++ {
		if c.levels[ix] {
			n |= 1 << uint(ix-lineDB4)
		}
	}
	rs := bool(c.levels[lineRS])
	if !c.state.FourBit {
		c.execute(Instruction{Data: rs, Value: n << 4, Wide: true})
		return true
	}
	if !c.pending {
		c.pending = true
		c.high = n
		return false
	}
	c.pending = false
	c.execute(Instruction{Data: rs, Value: c.high<<4 | n})
	return true
}

func (c *Controller) execute(in Instruction) {
	c.history = append(c.history, in)
	if in.Data {
		c.ddram[c.state.Address] = in.Value
		c.advance()
		if c.state.Shift {
			c.shiftDisplay(c.state.Increment)
		}
		return
	}
	b := in.Value
	switch {
	case b&0x80 != 0:
		c.state.Address = b & (ddramSize - 1)
	case b&0x40 != 0:
		// CGRAM address; character generator RAM is not emulated.
	case b&0x20 != 0:
		c.state.FourBit = b&0x10 == 0
		c.state.TwoLines = b&0x08 != 0
	case b&0x10 != 0:
		right := b&0x04 != 0
		if b&0x08 != 0 {
			c.shiftDisplay(right)
		} else {
			c.move(right)
		}
	case b&0x08 != 0:
		c.state.DisplayOn = b&0x04 != 0
		c.state.Cursor = b&0x02 != 0
		c.state.Blink = b&0x01 != 0
	case b&0x04 != 0:
		c.state.Increment = b&0x02 != 0
		c.state.Shift = b&0x01 != 0
	case b&0x02 != 0:
		c.state.Address = 0
		c.state.Offset = 0
	case b&0x01 != 0:
		for ix := range c.ddram {
			c.ddram[ix] = ' '
		}
		c.state.Address = 0
		c.state.Offset = 0
		c.state.Increment = true
	}
}

func (c *Controller) advance() {
	c.move(c.state.Increment)
}

func (c *Controller) move(right bool) {
	if right {
		c.state.Address = (c.state.Address + 1) & (ddramSize - 1)
	} else {
		c.state.Address = (c.state.Address - 1) & (ddramSize - 1)
	}
}

// shiftDisplay moves the text on the glass; right moves it left, like the
// chip does when it follows an incrementing cursor.
func (c *Controller) shiftDisplay(right bool) {
	if right {
		c.state.Offset++
	} else {
		c.state.Offset--
	}
	c.state.Offset = ((c.state.Offset % ddramSize) + ddramSize) % ddramSize
}
