// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"fmt"
	"io"
	"time"

	"github.com/GermanBionicSystems/charlcd/backpack"
	"github.com/GermanBionicSystems/charlcd/hd44780"
	"github.com/GermanBionicSystems/charlcd/lcdsim"
	log "github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/display"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"
)

// DDRAM address of the first column of each row, as hd44780.Dev.SetText
// addresses them.
var simRowAddr = []byte{0x00, 0x40, 0x20, 0x60}

// lcd is an initialized display and what it holds open.
type lcd struct {
	*hd44780.Dev
	// sim is set for the sim backend.
	sim *lcdsim.Controller
	// backlight is nil when the backend has none.
	backlight display.DisplayBacklight
	closers   []func() error
}

// Close releases the buses and resets the terminal colors of the sim
// backend. The display keeps showing its content.
func (l *lcd) Close() error {
	var err error
	for i := len(l.closers) - 1; i >= 0; i-- {
		if e := l.closers[i](); e != nil && err == nil {
			err = e
		}
	}
	l.closers = nil
	return err
}

// openDisplay binds and initializes the display selected by conf. The sim
// backend draws on out after each instruction when out is not nil.
func openDisplay(conf *Config, out io.Writer) (*lcd, error) {
	logger := log.WithField("backend", conf.Backend)
	opts := &hd44780.Opts{
		Rows:   conf.Display.Rows,
		Cols:   conf.Display.Cols,
		Timing: conf.Timing,
		Logger: logger,
	}
	l := &lcd{}
	lines, err := l.lines(conf, opts, out)
	if err != nil {
		_ = l.Close()
		return nil, err
	}
	logger.WithField("lines", lines.String()).Debug("binding display")
	if l.Dev, err = hd44780.New(lines, opts); err != nil {
		_ = l.Close()
		return nil, err
	}
	logger.WithField("display", l.Dev.String()).Info("display ready")
	return l, nil
}

func (l *lcd) lines(conf *Config, opts *hd44780.Opts, out io.Writer) (hd44780.Lines, error) {
	if conf.Backend == backendSim {
		rows := min(conf.Display.Rows, len(simRowAddr))
		l.sim = lcdsim.New(lcdsim.Geometry{Rows: rows, Cols: conf.Display.Cols, RowAddr: simRowAddr[:rows]})
		if out != nil {
			term := lcdsim.NewTerminal(&lcdsim.TerminalOpts{W: out, Redraw: true})
			term.Attach(l.sim)
			l.closers = append(l.closers, term.Halt)
		}
		// The simulator executes instructions as soon as they are latched.
		opts.Sleep = func(time.Duration) {}
		return l.sim.Lines(), nil
	}

	if _, err := host.Init(); err != nil {
		return hd44780.Lines{}, err
	}
	switch conf.Backend {
	case backendGPIO:
		if conf.Backlight != "" {
			p := gpioreg.ByName(conf.Backlight)
			if p == nil {
				return hd44780.Lines{}, fmt.Errorf("no GPIO line named %q for the backlight", conf.Backlight)
			}
			l.backlight = hd44780.NewBacklight(p, false)
		}
		return conf.Pins.Lines()

	case backendSPI:
		port, err := spireg.Open(conf.SPI.Port)
		if err != nil {
			return hd44780.Lines{}, err
		}
		l.closers = append(l.closers, port.Close)
		c, err := port.Connect(physic.Frequency(conf.SPI.Hz)*physic.Hertz, spi.Mode0, 8)
		if err != nil {
			return hd44780.Lines{}, err
		}
		bp, err := backpack.NewSPI(c, nil)
		if err != nil {
			return hd44780.Lines{}, err
		}
		l.backlight = bp
		return bp.Lines(), nil

	case backendPCF8574, backendMCP23008:
		bus, err := i2creg.Open(conf.I2C.Bus)
		if err != nil {
			return hd44780.Lines{}, err
		}
		l.closers = append(l.closers, bus.Close)
		var bp *backpack.Dev
		if conf.Backend == backendPCF8574 {
			bp, err = backpack.NewPCF8574(bus, conf.I2C.Addr, nil)
		} else {
			bp, err = backpack.NewMCP23008(bus, conf.I2C.Addr, nil)
		}
		if err != nil {
			return hd44780.Lines{}, err
		}
		l.backlight = bp
		return bp.Lines(), nil
	}
	return hd44780.Lines{}, fmt.Errorf("unknown backend %q", conf.Backend)
}
