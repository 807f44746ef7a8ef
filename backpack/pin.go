// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package backpack

import (
	"fmt"

	"periph.io/x/conn/v3/display"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
)

// Pin is one output of a backpack.
type Pin struct {
	dev    *Dev
	name   string
	number int
}

// Halt implements conn.Resource.
func (p *Pin) Halt() error {
	return nil
}

// Name returns the name of the output.
func (p *Pin) Name() string {
	return p.name
}

// Number returns the output number, 0 to 7.
func (p *Pin) Number() int {
	return p.number
}

// Deprecated: returns "Out"
func (p *Pin) Function() string {
	return "Out"
}

// Out sets the output. Nothing is sent when the level does not change.
func (p *Pin) Out(l gpio.Level) error {
	mask := byte(1 << uint(p.number))
	var v byte
	if l {
		v = mask
	}
	return p.dev.write(v, mask)
}

// PWM is not supported.
func (p *Pin) PWM(duty gpio.Duty, f physic.Frequency) error {
	return fmt.Errorf("backpack: PWM on %s: %w", p.name, display.ErrNotImplemented)
}

func (p *Pin) String() string {
	return p.name
}

var _ gpio.PinOut = &Pin{}
