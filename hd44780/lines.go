// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package hd44780

import (
	"fmt"
	"strings"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
)

// Lines is the set of GPIO lines wired to the display.
//
// Data[0] is connected to DB4 and carries the least significant bit of a
// nibble, Data[3] is connected to DB7. R/W must be tied to ground; the
// display is never read.
type Lines struct {
	Data           [4]gpio.PinOut
	Enable         gpio.PinOut
	RegisterSelect gpio.PinOut
}

// all returns the lines in the order they are configured by Bind.
func (l *Lines) all() []gpio.PinOut {
	return []gpio.PinOut{l.Data[0], l.Data[1], l.Data[2], l.Data[3], l.Enable, l.RegisterSelect}
}

func (l *Lines) validate() error {
	seen := make(map[string]int, 6)
	for ix, p := range l.all() {
		if p == nil {
			return fmt.Errorf("%w: %s is not connected", ErrInvalidLines, lineName(ix))
		}
		id := p.String()
		if prev, ok := seen[id]; ok {
			return fmt.Errorf("%w: %s and %s both use %s", ErrInvalidLines, lineName(prev), lineName(ix), id)
		}
		seen[id] = ix
	}
	return nil
}

func (l *Lines) String() string {
	var sb strings.Builder
	sb.WriteString("DB4-7[")
	for ix, p := range l.Data {
		if ix > 0 {
			sb.WriteString(" ")
		}
		sb.WriteString(pinString(p))
	}
	fmt.Fprintf(&sb, "] E=%s RS=%s", pinString(l.Enable), pinString(l.RegisterSelect))
	return sb.String()
}

func pinString(p gpio.PinOut) string {
	if p == nil {
		return "<nil>"
	}
	return p.String()
}

func lineName(ix int) string {
	switch {
	case ix < 4:
		return fmt.Sprintf("DB%d", ix+4)
	case ix == 4:
		return "E"
	default:
		return "RS"
	}
}

// PinMap names the host GPIO lines of a binding. Names are anything
// gpioreg.ByName accepts, e.g. "GPIO17", "17" or a header position like
// "P1_11".
type PinMap struct {
	Data           [4]string `yaml:"data"`
	Enable         string    `yaml:"enable"`
	RegisterSelect string    `yaml:"rs"`
}

// DefaultPinMap is the wiring of the reference board.
var DefaultPinMap = PinMap{
	Data:           [4]string{"GPIO33", "GPIO32", "GPIO35", "GPIO34"},
	Enable:         "GPIO39",
	RegisterSelect: "GPIO36",
}

// Lines resolves the names in the map. host.Init() must have been called
// first.
func (m PinMap) Lines() (Lines, error) {
	var l Lines
	var err error
	for ix, name := range m.Data {
		if l.Data[ix], err = byName(name); err != nil {
			return Lines{}, err
		}
	}
	if l.Enable, err = byName(m.Enable); err != nil {
		return Lines{}, err
	}
	if l.RegisterSelect, err = byName(m.RegisterSelect); err != nil {
		return Lines{}, err
	}
	return l, nil
}

func byName(name string) (gpio.PinOut, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: empty pin name", ErrInvalidLines)
	}
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, fmt.Errorf("hd44780: no GPIO line named %q", name)
	}
	return p, nil
}
