// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package hd44780

import (
	"fmt"
	"time"
)

// Timing holds the delays the driver inserts between pin transitions. The
// controller has no busy flag on a write-only bus, so these are the only
// thing keeping it in sync.
type Timing struct {
	// PowerOn is waited once before the first line is touched by Init.
	PowerOn time.Duration `yaml:"powerOn"`
	// EnablePulse is waited after each of the three E transitions of a
	// pulse. It must cover the enable pulse width of the controller.
	EnablePulse time.Duration `yaml:"enablePulse"`
	// ForceSettle follows each of the interface reset pulses in Init.
	ForceSettle time.Duration `yaml:"forceSettle"`
	// CommandSettle follows every instruction. Clear and Home are the slow
	// ones.
	CommandSettle time.Duration `yaml:"commandSettle"`
	// DataSettle follows every character.
	DataSettle time.Duration `yaml:"dataSettle"`
}

// DefaultTiming is safe for a 270kHz controller driven from Linux userspace.
var DefaultTiming = Timing{
	PowerOn:       100 * time.Millisecond,
	EnablePulse:   2 * time.Microsecond,
	ForceSettle:   5 * time.Millisecond,
	CommandSettle: 10 * time.Millisecond,
	DataSettle:    200 * time.Microsecond,
}

func (t *Timing) validate() error {
	for _, d := range []struct {
		name string
		v    time.Duration
	}{
		{"PowerOn", t.PowerOn},
		{"EnablePulse", t.EnablePulse},
		{"ForceSettle", t.ForceSettle},
		{"CommandSettle", t.CommandSettle},
		{"DataSettle", t.DataSettle},
	} {
		if d.v <= 0 {
			return fmt.Errorf("%w: %s must be positive, got %s", ErrInvalidTiming, d.name, d.v)
		}
	}
	if t.CommandSettle <= t.DataSettle {
		return fmt.Errorf("%w: CommandSettle (%s) must exceed DataSettle (%s)", ErrInvalidTiming, t.CommandSettle, t.DataSettle)
	}
	return nil
}
