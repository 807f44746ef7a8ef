// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package lcdsim

import (
	"image"
	"image/color"
	"io"
	"sync"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font/gofont/gomono"
)

// SnapshotOpts represents the options of Snapshot.
type SnapshotOpts struct {
	// FontSize in points. Defaults to 24.
	FontSize float64
	// Background is the lit glass, Foreground the characters.
	Background color.Color
	Foreground color.Color

	_ struct{}
}

var (
	monoOnce sync.Once
	monoFont *truetype.Font
	monoErr  error
)

func mono() (*truetype.Font, error) {
	monoOnce.Do(func() {
		monoFont, monoErr = truetype.Parse(gomono.TTF)
	})
	return monoFont, monoErr
}

// Snapshot renders what c shows as an image, one monospace cell per
// character. The cell under the cursor is underlined when the cursor is on.
func Snapshot(c *Controller, opts *SnapshotOpts) (image.Image, error) {
	dc, err := snapshot(c, opts)
	if err != nil {
		return nil, err
	}
	return dc.Image(), nil
}

// WritePNG writes Snapshot(c, opts) to w as a PNG.
func WritePNG(w io.Writer, c *Controller, opts *SnapshotOpts) error {
	dc, err := snapshot(c, opts)
	if err != nil {
		return err
	}
	return dc.EncodePNG(w)
}

func snapshot(c *Controller, opts *SnapshotOpts) (*gg.Context, error) {
	o := SnapshotOpts{FontSize: 24, Background: color.NRGBA{0x9c, 0xc4, 0x3c, 0xff}, Foreground: color.NRGBA{0x10, 0x20, 0x10, 0xff}}
	if opts != nil {
		if opts.FontSize > 0 {
			o.FontSize = opts.FontSize
		}
		if opts.Background != nil {
			o.Background = opts.Background
		}
		if opts.Foreground != nil {
			o.Foreground = opts.Foreground
		}
	}
	f, err := mono()
	if err != nil {
		return nil, err
	}
	face := truetype.NewFace(f, &truetype.Options{Size: o.FontSize})

	g := c.Geometry()
	st := c.State()
	text := c.Text()

	m := gg.NewContext(1, 1)
	m.SetFontFace(face)
	cw, _ := m.MeasureString("M")
	lh := m.FontHeight() * 1.5
	pad := cw

	w := int(cw*float64(g.Cols) + 2*pad)
	h := int(lh*float64(g.Rows) + 2*pad)
	dc := gg.NewContext(w, h)
	dc.SetFontFace(face)
	dc.SetColor(o.Background)
	dc.Clear()
	if !st.DisplayOn {
		return dc, nil
	}
	dc.SetColor(o.Foreground)
	for r, row := range text {
		y := pad + lh*float64(r+1) - lh/4
		for col, ch := range []byte(row) {
			if ch == ' ' {
				continue
			}
			dc.DrawString(string(rune(ch)), pad+cw*float64(col), y)
		}
	}
	if st.Cursor {
		if r, col, ok := cursorCell(g, st); ok {
			dc.DrawRectangle(pad+cw*float64(col), pad+lh*float64(r+1)-lh/8, cw, 2)
			dc.Fill()
		}
	}
	return dc, nil
}

// cursorCell returns where the cursor address is visible, if it is.
func cursorCell(g Geometry, st State) (int, int, bool) {
	for r := range g.Rows {
		col := (int(st.Address) - int(g.RowAddr[r]) - st.Offset) & (ddramSize - 1)
		if col < g.Cols {
			return r, col, true
		}
	}
	return 0, 0, false
}
