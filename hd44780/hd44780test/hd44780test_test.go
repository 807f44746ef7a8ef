// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package hd44780test

import (
	"errors"
	"testing"
	"time"

	"periph.io/x/conn/v3/gpio"
)

func TestRecorderLog(t *testing.T) {
	r := &Recorder{}
	_ = r.Pin("A").Out(gpio.High)
	r.Sleep(time.Millisecond)
	_ = r.Pin("B").Out(gpio.Low)

	ev := r.Events()
	if len(ev) != 3 {
		t.Fatalf("expected 3 events, got %v", ev)
	}
	if s := ev[0].String(); s != "A=High" {
		t.Errorf("ev[0] = %q", s)
	}
	if s := ev[1].String(); s != "sleep(1ms)" {
		t.Errorf("ev[1] = %q", s)
	}
	if l := r.Levels("A"); len(l) != 1 || l[0] != gpio.High {
		t.Errorf("Levels(A) = %v", l)
	}
	if s := r.Sleeps(); len(s) != 1 || s[0] != time.Millisecond {
		t.Errorf("Sleeps() = %v", s)
	}
	if r.Pin("A") != r.Pin("A") {
		t.Error("Pin() must return the same pin for the same name")
	}
	r.Reset()
	if len(r.Events()) != 0 {
		t.Error("Reset() kept events")
	}
}

func TestPinErr(t *testing.T) {
	r := &Recorder{}
	p := r.Pin("A")
	want := errors.New("boom")
	p.Err = want
	if err := p.Out(gpio.High); err != want {
		t.Errorf("Out() = %v, want %v", err, want)
	}
	if len(r.Events()) != 0 {
		t.Error("failed Out() was recorded")
	}
}

func TestLatches(t *testing.T) {
	r := &Recorder{}
	data := [4]string{"D0", "D1", "D2", "D3"}
	_ = r.Pin("RS").Out(gpio.High)
	_ = r.Pin("D0").Out(gpio.High)
	_ = r.Pin("D3").Out(gpio.High)
	// Rising edge only, nothing latched.
	_ = r.Pin("E").Out(gpio.High)
	_ = r.Pin("E").Out(gpio.Low)
	// Low to low is not an edge.
	_ = r.Pin("E").Out(gpio.Low)
	_ = r.Pin("RS").Out(gpio.Low)
	_ = r.Pin("D3").Out(gpio.Low)
	_ = r.Pin("E").Out(gpio.High)
	_ = r.Pin("E").Out(gpio.Low)

	got := r.Latches(data, "E", "RS")
	want := []Latch{{RS: gpio.High, Nibble: 0x9}, {RS: gpio.Low, Nibble: 0x1}}
	if len(got) != len(want) {
		t.Fatalf("Latches() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("latch %d = %v, want %v", i, got[i], want[i])
		}
	}
}
