// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package hd44780

import (
	"periph.io/x/conn/v3/display"
	"periph.io/x/conn/v3/gpio"
)

// Backlight switches the LED backlight of a module with a single line. Any
// non zero intensity turns it on.
type Backlight struct {
	pin       gpio.PinOut
	activeLow bool
}

// NewBacklight returns a Backlight driven by p. Set activeLow when the
// backlight transistor turns on with a low level.
func NewBacklight(p gpio.PinOut, activeLow bool) *Backlight {
	return &Backlight{pin: p, activeLow: activeLow}
}

// Backlight implements display.DisplayBacklight.
func (bl *Backlight) Backlight(intensity display.Intensity) error {
	on := intensity != 0
	return bl.pin.Out(gpio.Level(on != bl.activeLow))
}

// Halt turns the backlight off.
func (bl *Backlight) Halt() error {
	return bl.Backlight(0)
}

func (bl *Backlight) String() string {
	return "Backlight{" + pinString(bl.pin) + "}"
}

var _ display.DisplayBacklight = &Backlight{}
