// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package lcdsim

import (
	"bytes"
	"image/color"
	"image/png"
	"strings"
	"testing"
	"time"

	"github.com/GermanBionicSystems/charlcd/hd44780"
	"github.com/maruel/ansi256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/display"
	"periph.io/x/conn/v3/display/displaytest"
	"periph.io/x/conn/v3/gpio"
)

func noSleep(time.Duration) {}

func newDev(t *testing.T, g Geometry) (*Controller, *hd44780.Dev) {
	t.Helper()
	c := New(g)
	opts := hd44780.DefaultOpts
	opts.Rows = c.Geometry().Rows
	opts.Cols = c.Geometry().Cols
	opts.Sleep = noSleep
	d, err := hd44780.New(c.Lines(), &opts)
	require.NoError(t, err)
	return c, d
}

func blank(n int) string {
	return strings.Repeat(" ", n)
}

func TestInit(t *testing.T) {
	c, _ := newDev(t, Geometry{})
	want := []Instruction{
		{Value: 0x30, Wide: true},
		{Value: 0x30, Wide: true},
		{Value: 0x30, Wide: true},
		{Value: 0x20, Wide: true},
		{Value: 0x28},
		{Value: 0x08},
		{Value: 0x01},
		{Value: 0x06},
		{Value: 0x0C},
	}
	assert.Equal(t, want, c.History())
	st := c.State()
	assert.True(t, st.FourBit)
	assert.True(t, st.TwoLines)
	assert.True(t, st.DisplayOn)
	assert.False(t, st.Cursor)
	assert.False(t, st.Blink)
	assert.True(t, st.Increment)
	assert.False(t, st.Shift)
	assert.Equal(t, []string{blank(16), blank(16)}, c.Text())
}

func TestSetText(t *testing.T) {
	c, d := newDev(t, Geometry16x2)
	require.NoError(t, d.SetText("Hello", 0, 0))
	require.NoError(t, d.SetText("World", 3, 1))
	assert.Equal(t, []string{"Hello" + blank(11), "   World" + blank(8)}, c.Text())
}

func TestSetTextContinues(t *testing.T) {
	c, d := newDev(t, Geometry16x2)
	require.NoError(t, d.SetText("Count: ", 0, 1))
	require.NoError(t, d.SetInt(42, 16, 1))
	assert.Equal(t, "Count: 42"+blank(7), c.Text()[1])
}

func TestSetTextFourRows(t *testing.T) {
	c, d := newDev(t, Geometry16x4)
	for row, s := range []string{"zero", "one", "two", "three"} {
		require.NoError(t, d.SetText(s, 0, row))
	}
	assert.Equal(t, []string{
		"zero" + blank(12),
		"one" + blank(13),
		"two" + blank(13),
		"three" + blank(11),
	}, c.Text())
}

func TestClear(t *testing.T) {
	c, d := newDev(t, Geometry16x2)
	require.NoError(t, d.SetText("junk", 4, 1))
	require.NoError(t, d.Clear())
	assert.Equal(t, []string{blank(16), blank(16)}, c.Text())
	assert.Equal(t, byte(0), c.State().Address)
}

func TestDisplayAndCursor(t *testing.T) {
	c, d := newDev(t, Geometry16x2)
	require.NoError(t, d.Display(false))
	assert.False(t, c.State().DisplayOn)
	require.NoError(t, d.Cursor(display.CursorUnderline, display.CursorBlink))
	st := c.State()
	assert.True(t, st.DisplayOn)
	assert.True(t, st.Cursor)
	assert.True(t, st.Blink)
}

func TestMove(t *testing.T) {
	c, d := newDev(t, Geometry16x2)
	require.NoError(t, d.MoveTo(2, 5))
	assert.Equal(t, byte(0x44), c.State().Address)
	require.NoError(t, d.Move(display.Forward))
	assert.Equal(t, byte(0x45), c.State().Address)
	require.NoError(t, d.Move(display.Backward))
	require.NoError(t, d.Move(display.Backward))
	assert.Equal(t, byte(0x43), c.State().Address)
	require.NoError(t, d.Home())
	assert.Equal(t, byte(0), c.State().Address)
}

func TestMoveToFourRows(t *testing.T) {
	for _, g := range []Geometry{Geometry16x4, Geometry20x4} {
		c, d := newDev(t, g)
		for row := 1; row <= 4; row++ {
			require.NoError(t, d.MoveTo(row, 1))
			_, err := d.WriteString("X")
			require.NoError(t, err)
		}
		want := "X" + blank(g.Cols-1)
		assert.Equal(t, []string{want, want, want, want}, c.Text(), "%v", c)
	}
}

func TestAutoScroll(t *testing.T) {
	c, d := newDev(t, Geometry16x2)
	require.NoError(t, d.AutoScroll(true))
	require.NoError(t, d.SetText("ab", 0, 0))
	assert.Equal(t, 2, c.State().Offset)
	assert.Equal(t, "ab", string(c.DDRAM()[:2]))
	require.NoError(t, d.Home())
	assert.Equal(t, 0, c.State().Offset)
	assert.Equal(t, "ab"+blank(14), c.Text()[0])
}

func TestReinitRecoversSync(t *testing.T) {
	c, d := newDev(t, Geometry16x2)
	// Half a byte leaves the controller waiting for the low nibble.
	l := c.Lines()
	require.NoError(t, l.Data[0].Out(gpio.High))
	require.NoError(t, l.Enable.Out(gpio.High))
	require.NoError(t, l.Enable.Out(gpio.Low))

	require.NoError(t, d.Init())
	require.NoError(t, d.SetText("ok", 0, 0))
	assert.Equal(t, "ok"+blank(14), c.Text()[0])
	assert.True(t, c.State().FourBit)
}

func TestReset(t *testing.T) {
	c, d := newDev(t, Geometry16x2)
	require.NoError(t, d.SetText("x", 0, 0))
	c.Reset()
	assert.Empty(t, c.History())
	assert.False(t, c.State().FourBit)
	assert.Equal(t, blank(16), c.Text()[0])
}

func TestTextDisplay(t *testing.T) {
	_, d := newDev(t, Geometry20x4)
	assert.Empty(t, displaytest.TestTextDisplay(d, false))
}

func TestNonPrintable(t *testing.T) {
	c, d := newDev(t, Geometry16x2)
	_, err := d.Write([]byte{'a', 0x00, 0xff, 'b'})
	require.NoError(t, err)
	assert.Equal(t, "a  b"+blank(12), c.Text()[0])
	assert.Equal(t, []byte{'a', 0x00, 0xff, 'b'}, c.DDRAM()[:4])
}

func TestInstructionString(t *testing.T) {
	assert.Equal(t, "cmd/8 0x30", Instruction{Value: 0x30, Wide: true}.String())
	assert.Equal(t, "data 0x41", Instruction{Data: true, Value: 'A'}.String())
	assert.Equal(t, "lcdsim{4x20}", New(Geometry20x4).String())
}

func TestPin(t *testing.T) {
	c := New(Geometry16x2)
	l := c.Lines()
	assert.Equal(t, "LCD_DB4", l.Data[0].String())
	assert.Equal(t, "LCD_RS", l.RegisterSelect.Name())
	assert.Equal(t, 4, l.Enable.Number())
	assert.Equal(t, "OUT", l.Enable.Function())
	assert.NoError(t, l.Enable.Halt())
	assert.Error(t, l.Enable.PWM(gpio.DutyHalf, 0))
}

func TestTerminal(t *testing.T) {
	var buf bytes.Buffer
	c, d := newDev(t, Geometry16x2)
	term := NewTerminal(&TerminalOpts{W: &buf})
	require.NoError(t, d.SetText("Hello", 0, 0))
	require.NoError(t, term.Render(c))
	assert.Contains(t, buf.String(), "H e l l o ")
	assert.Equal(t, 4, strings.Count(buf.String(), "\n"))

	buf.Reset()
	require.NoError(t, d.Display(false))
	require.NoError(t, term.Render(c))
	assert.NotContains(t, buf.String(), "H e l l o")

	buf.Reset()
	require.NoError(t, term.Halt())
	assert.Equal(t, "\n\033[0m", buf.String())
}

func TestTerminalBezel(t *testing.T) {
	var buf bytes.Buffer
	c := New(Geometry16x2)
	bezel := color.RGBA{0x80, 0, 0, 0xff}
	term := NewTerminal(&TerminalOpts{W: &buf, Bezel: bezel})
	require.NoError(t, term.Render(c))
	assert.Contains(t, buf.String(), ansi256.Default.Block(color.NRGBA{0x80, 0, 0, 0xff}))
}

func TestTerminalAttach(t *testing.T) {
	var buf bytes.Buffer
	c := New(Geometry16x2)
	term := NewTerminal(&TerminalOpts{W: &buf, Redraw: true})
	term.Attach(c)
	opts := hd44780.DefaultOpts
	opts.Sleep = noSleep
	d, err := hd44780.New(c.Lines(), &opts)
	require.NoError(t, err)
	require.NoError(t, d.SetText("hi", 0, 0))
	out := buf.String()
	assert.Contains(t, out, "h i ")
	// One frame per executed instruction; all but the first move up.
	frames := len(c.History())
	assert.Equal(t, frames-1, strings.Count(out, "\033[4A"))
}

func TestSnapshot(t *testing.T) {
	c, d := newDev(t, Geometry16x2)
	require.NoError(t, d.SetText("Snap", 0, 0))
	bg := color.NRGBA{0xff, 0xff, 0xff, 0xff}
	img, err := Snapshot(c, &SnapshotOpts{FontSize: 12, Background: bg, Foreground: color.Black})
	require.NoError(t, err)
	b := img.Bounds()
	assert.Greater(t, b.Dx(), b.Dy())
	r, g, bl, _ := img.At(0, 0).RGBA()
	assert.Equal(t, [3]uint32{0xffff, 0xffff, 0xffff}, [3]uint32{r, g, bl})

	dark := false
	for y := b.Min.Y; y < b.Max.Y && !dark; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if r, _, _, _ := img.At(x, y).RGBA(); r < 0x8000 {
				dark = true
				break
			}
		}
	}
	assert.True(t, dark, "no character was drawn")
}

func TestWritePNG(t *testing.T) {
	c, d := newDev(t, Geometry16x2)
	require.NoError(t, d.Cursor(display.CursorUnderline))
	var buf bytes.Buffer
	require.NoError(t, WritePNG(&buf, c, nil))
	img, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.False(t, img.Bounds().Empty())
}

func TestCursorCell(t *testing.T) {
	r, col, ok := cursorCell(Geometry16x2, State{Address: 0x45})
	assert.True(t, ok)
	assert.Equal(t, 1, r)
	assert.Equal(t, 5, col)
	_, _, ok = cursorCell(Geometry16x2, State{Address: 0x30})
	assert.False(t, ok)
}
