// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package backpack drives an HD44780 through an 8 bit serial to parallel
// "backpack" board instead of direct GPIO lines.
//
// Each backpack holds the level of its eight outputs in a shadow register and
// sends the whole byte whenever one of them changes. The outputs are exposed
// as gpio.PinOut so hd44780.Bind runs unchanged on top of them; every Out call
// costs one bus transaction.
//
// Supported boards:
//
//   - the SPI side of the Adafruit I2C/SPI backpack, a 74HC595
//   - the I²C side of the same backpack, an MCP23008
//   - the common PCF8574 "LCD1602 / LCD2004 I2C" boards
//
// # Product Information
//
// https://www.adafruit.com/product/292
//
// https://www.handsontec.com/dataspecs/I2C_2004_LCD.pdf
package backpack

import (
	"errors"
	"fmt"
	"sync"

	"github.com/GermanBionicSystems/charlcd/hd44780"
	"periph.io/x/conn/v3/display"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/spi"
)

const numPins = 8

// NotWired marks an optional output that is not connected.
const NotWired = -1

// MCP23008 registers.
const (
	mcpIODIR = 0x00
	mcpOLAT  = 0x0a
)

var (
	// ErrInvalidWiring is returned for an output number outside 0-7 or an
	// output used twice.
	ErrInvalidWiring = errors.New("backpack: invalid wiring")
)

// Wiring maps the LCD lines to the outputs of the backpack.
type Wiring struct {
	// Data holds the outputs connected to DB4, DB5, DB6 and DB7.
	Data           [4]int
	RegisterSelect int
	Enable         int
	// Backlight and ReadWrite may be NotWired. R/W is held low when wired.
	Backlight int
	ReadWrite int
}

var (
	// AdafruitSPIWiring is the 74HC595 side of the Adafruit backpack. The
	// data lines are in the reverse order of the I²C side.
	AdafruitSPIWiring = Wiring{Data: [4]int{6, 5, 4, 3}, RegisterSelect: 1, Enable: 2, Backlight: 7, ReadWrite: NotWired}
	// AdafruitI2CWiring is the MCP23008 side of the Adafruit backpack.
	AdafruitI2CWiring = Wiring{Data: [4]int{3, 4, 5, 6}, RegisterSelect: 1, Enable: 2, Backlight: 7, ReadWrite: NotWired}
	// PCF8574Wiring fits the usual PCF8574 boards.
	PCF8574Wiring = Wiring{Data: [4]int{4, 5, 6, 7}, RegisterSelect: 0, Enable: 2, Backlight: 3, ReadWrite: 1}
)

func (w *Wiring) validate() error {
	used := map[int]string{}
	check := func(name string, n int, optional bool) error {
		if optional && n == NotWired {
			return nil
		}
		if n < 0 || n >= numPins {
			return fmt.Errorf("%w: %s on output %d", ErrInvalidWiring, name, n)
		}
		if other, ok := used[n]; ok {
			return fmt.Errorf("%w: %s and %s share output %d", ErrInvalidWiring, other, name, n)
		}
		used[n] = name
		return nil
	}
	for i, n := range w.Data {
		if err := check(fmt.Sprintf("DB%d", i+4), n, false); err != nil {
			return err
		}
	}
	if err := check("RS", w.RegisterSelect, false); err != nil {
		return err
	}
	if err := check("E", w.Enable, false); err != nil {
		return err
	}
	if err := check("BL", w.Backlight, true); err != nil {
		return err
	}
	return check("RW", w.ReadWrite, true)
}

// Dev is a backpack.
type Dev struct {
	name   string
	wiring Wiring
	pins   [numPins]Pin

	mu    sync.Mutex
	tx    func(v byte) error
	value uint16
}

// NewSPI returns the 74HC595 backpack on conn. w defaults to
// AdafruitSPIWiring.
func NewSPI(conn spi.Conn, w *Wiring) (*Dev, error) {
	return newDev("74HC595", w, &AdafruitSPIWiring, func(v byte) error {
		return conn.Tx([]byte{v}, nil)
	})
}

// NewPCF8574 returns the PCF8574 backpack at addr. w defaults to
// PCF8574Wiring.
func NewPCF8574(bus i2c.Bus, addr uint16, w *Wiring) (*Dev, error) {
	d := &i2c.Dev{Bus: bus, Addr: addr}
	return newDev("PCF8574", w, &PCF8574Wiring, func(v byte) error {
		return d.Tx([]byte{v}, nil)
	})
}

// NewMCP23008 returns the MCP23008 backpack at addr, with all its GPIOs
// configured as outputs. w defaults to AdafruitI2CWiring.
func NewMCP23008(bus i2c.Bus, addr uint16, w *Wiring) (*Dev, error) {
	d := &i2c.Dev{Bus: bus, Addr: addr}
	if err := d.Tx([]byte{mcpIODIR, 0x00}, nil); err != nil {
		return nil, err
	}
	return newDev("MCP23008", w, &AdafruitI2CWiring, func(v byte) error {
		return d.Tx([]byte{mcpOLAT, v}, nil)
	})
}

func newDev(name string, w, def *Wiring, tx func(byte) error) (*Dev, error) {
	if w == nil {
		w = def
	}
	if err := w.validate(); err != nil {
		return nil, err
	}
	// An invalid initial value forces the first write to happen, even if
	// it's 0.
	dev := &Dev{name: name, wiring: *w, tx: tx, value: 1 << 9}
	for ix := range numPins {
		dev.pins[ix] = Pin{dev: dev, number: ix, name: fmt.Sprintf("%s_GPO%d", name, ix)}
	}
	if w.ReadWrite != NotWired {
		if err := dev.pins[w.ReadWrite].Out(gpio.Low); err != nil {
			return nil, err
		}
	}
	return dev, nil
}

// Lines returns the LCD lines for hd44780.Bind.
func (dev *Dev) Lines() hd44780.Lines {
	var l hd44780.Lines
	for i, n := range dev.wiring.Data {
		l.Data[i] = &dev.pins[n]
	}
	l.Enable = &dev.pins[dev.wiring.Enable]
	l.RegisterSelect = &dev.pins[dev.wiring.RegisterSelect]
	return l
}

// Pin returns output n, 0 to 7, or nil when there is no such output.
func (dev *Dev) Pin(n int) *Pin {
	if n < 0 || n >= numPins {
		return nil
	}
	return &dev.pins[n]
}

// Backlight implements display.DisplayBacklight.
func (dev *Dev) Backlight(intensity display.Intensity) error {
	if dev.wiring.Backlight == NotWired {
		return fmt.Errorf("backpack: backlight: %w", display.ErrNotImplemented)
	}
	return hd44780.NewBacklight(&dev.pins[dev.wiring.Backlight], false).Backlight(intensity)
}

// Halt drives every output low, which also turns the backlight off.
func (dev *Dev) Halt() error {
	return dev.write(0, 0xff)
}

func (dev *Dev) String() string {
	return dev.name
}

// Value returns the last byte sent to the backpack.
func (dev *Dev) Value() byte {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	return byte(dev.value)
}

// write updates the outputs in mask to value, and sends the register if it
// changed.
func (dev *Dev) write(value, mask byte) error {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	newValue := uint16(byte(dev.value)&^mask | value&mask)
	if dev.value == newValue {
		return nil
	}
	if err := dev.tx(byte(newValue)); err != nil {
		return err
	}
	dev.value = newValue
	return nil
}

var _ display.DisplayBacklight = &Dev{}
