// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package hd44780test is meant to be used to test drivers that bit-bang a
// parallel bus over GPIO lines.
//
// A Recorder hands out pins and a sleep function that append to one shared
// event log, so the exact interleaving of level changes and delays can be
// checked without real time passing.
package hd44780test

import (
	"fmt"
	"sync"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
)

// Kind is the type of an Event.
type Kind int

const (
	// Out is a call to Pin.Out.
	Out Kind = iota
	// Sleep is a call to Recorder.Sleep.
	Sleep
)

func (k Kind) String() string {
	if k == Out {
		return "Out"
	}
	return "Sleep"
}

// Event is one recorded operation.
type Event struct {
	Kind  Kind
	Pin   string        // set for Out
	Level gpio.Level    // set for Out
	D     time.Duration // set for Sleep
}

func (e Event) String() string {
	if e.Kind == Out {
		return fmt.Sprintf("%s=%s", e.Pin, e.Level)
	}
	return fmt.Sprintf("sleep(%s)", e.D)
}

// Latch is the bus content captured on a falling edge of the strobe line.
type Latch struct {
	RS     gpio.Level
	Nibble byte
}

func (l Latch) String() string {
	return fmt.Sprintf("RS=%s %#x", l.RS, l.Nibble)
}

// Recorder records pin levels and sleeps in a single log.
type Recorder struct {
	mu     sync.Mutex
	events []Event
	pins   map[string]*Pin
}

// Pin is a gpiotest.Pin whose Out calls are recorded.
//
// Set Err to make Out fail without recording anything.
type Pin struct {
	gpiotest.Pin
	Err error

	r *Recorder
}

// Out implements gpio.PinOut.
func (p *Pin) Out(l gpio.Level) error {
	if p.Err != nil {
		return p.Err
	}
	if err := p.Pin.Out(l); err != nil {
		return err
	}
	p.r.append(Event{Kind: Out, Pin: p.N, Level: l})
	return nil
}

// Pin returns the pin named name, creating it on first use.
func (r *Recorder) Pin(name string) *Pin {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.pins == nil {
		r.pins = map[string]*Pin{}
	}
	p, ok := r.pins[name]
	if !ok {
		p = &Pin{Pin: gpiotest.Pin{N: name, Num: len(r.pins)}, r: r}
		r.pins[name] = p
	}
	return p
}

// Sleep records d instead of sleeping.
func (r *Recorder) Sleep(d time.Duration) {
	r.append(Event{Kind: Sleep, D: d})
}

// Events returns a copy of the log.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Reset clears the log. Pins keep their level.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}

// Levels returns the levels written to the named pin, in order.
func (r *Recorder) Levels(name string) []gpio.Level {
	var out []gpio.Level
	for _, e := range r.Events() {
		if e.Kind == Out && e.Pin == name {
			out = append(out, e.Level)
		}
	}
	return out
}

// Sleeps returns the recorded sleeps, in order.
func (r *Recorder) Sleeps() []time.Duration {
	var out []time.Duration
	for _, e := range r.Events() {
		if e.Kind == Sleep {
			out = append(out, e.D)
		}
	}
	return out
}

// Latches replays the log and returns what a controller sampling data and rs
// on each high to low transition of strobe would have seen. data[0] is the
// least significant bit. Lines never written read as low.
func (r *Recorder) Latches(data [4]string, strobe, rs string) []Latch {
	levels := map[string]gpio.Level{}
	var out []Latch
	for _, e := range r.Events() {
		if e.Kind != Out {
			continue
		}
		if e.Pin == strobe && levels[strobe] == gpio.High && e.Level == gpio.Low {
			var n byte
			for i, name := range data {
				if levels[name] {
					n |= 1 << uint(i)
				}
			}
			out = append(out, Latch{RS: levels[rs], Nibble: n})
		}
		levels[e.Pin] = e.Level
	}
	return out
}

func (r *Recorder) append(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

var _ gpio.PinOut = &Pin{}
