// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package lcdsim

import (
	"bytes"
	"fmt"
	"image/color"
	"io"
	"strings"
	"sync"

	"github.com/maruel/ansi256"
	"github.com/mattn/go-colorable"
)

// TerminalOpts represents the options of a Terminal.
type TerminalOpts struct {
	// W receives the frames. Defaults to stdout, with ANSI codes translated
	// on Windows.
	W       io.Writer
	Palette *ansi256.Palette
	// Bezel is the color of the frame around the glass.
	Bezel color.Color
	// Redraw moves the cursor back up before each frame after the first,
	// so the display is animated in place.
	Redraw bool

	_ struct{}
}

// Terminal draws a Controller at the console using ANSI color codes.
type Terminal struct {
	w       io.Writer
	palette ansi256.Palette
	bezel   color.NRGBA
	redraw  bool

	mu     sync.Mutex
	frames int
	buf    bytes.Buffer
}

// NewTerminal returns a Terminal. opts may be nil.
func NewTerminal(opts *TerminalOpts) *Terminal {
	if opts == nil {
		opts = &TerminalOpts{}
	}
	p := opts.Palette
	if p == nil {
		p = ansi256.Default
	}
	t := &Terminal{
		w:       opts.W,
		palette: *p,
		bezel:   color.NRGBA{0x20, 0x40, 0xa0, 0xff},
		redraw:  opts.Redraw,
	}
	if t.w == nil {
		t.w = colorable.NewColorableStdout()
	}
	if opts.Bezel != nil {
		t.bezel = color.NRGBAModel.Convert(opts.Bezel).(color.NRGBA)
	}
	return t
}

// Attach renders c after every instruction it executes.
func (t *Terminal) Attach(c *Controller) {
	c.OnUpdate(func() {
		_ = t.Render(c)
	})
}

// Render draws one frame of c. The glass is blank while the display is off.
func (t *Terminal) Render(c *Controller) error {
	g := c.Geometry()
	st := c.State()
	text := c.Text()

	t.mu.Lock()
	defer t.mu.Unlock()
	t.buf.Reset()
	if t.redraw && t.frames > 0 {
		fmt.Fprintf(&t.buf, "\033[%dA", g.Rows+2)
	}
	edge := t.palette.Block(t.bezel)
	border := strings.Repeat(edge, g.Cols+2) + "\033[0m\n"
	_, _ = t.buf.WriteString("\r\033[0m")
	_, _ = t.buf.WriteString(border)
	for _, row := range text {
		if !st.DisplayOn {
			row = strings.Repeat(" ", len(row))
		}
		_, _ = io.WriteString(&t.buf, edge)
		_, _ = t.buf.WriteString("\033[0m")
		for _, ch := range []byte(row) {
			// A palette block is two cells wide.
			_ = t.buf.WriteByte(ch)
			_ = t.buf.WriteByte(' ')
		}
		_, _ = io.WriteString(&t.buf, edge)
		_, _ = t.buf.WriteString("\033[0m\n")
	}
	_, _ = t.buf.WriteString(border)
	t.frames++
	_, err := t.buf.WriteTo(t.w)
	return err
}

// Halt implements conn.Resource.
//
// It resets the colors so the terminal is not left corrupted.
func (t *Terminal) Halt() error {
	_, err := t.w.Write([]byte("\n\033[0m"))
	return err
}

func (t *Terminal) String() string {
	return "Terminal"
}
