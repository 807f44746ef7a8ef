// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package hd44780

import (
	"fmt"

	"periph.io/x/conn/v3/display"
)

// The methods below implement display.TextDisplay. Dev keeps no copy of the
// controller state, so each instruction is sent whole: Display(true) turns
// the cursor off and Cursor() turns the display on.

// AutoScroll makes the display shift with each character instead of the
// cursor moving.
func (d *Dev) AutoScroll(enabled bool) error {
	val := cmdEntryMode | entryIncrement
	if enabled {
		val |= entryShift
	}
	return d.writeByte(val, modeCommand)
}

// Cols returns the number of columns of the glass.
func (d *Dev) Cols() int {
	return d.cols
}

// Rows returns the number of rows of the glass.
func (d *Dev) Rows() int {
	return d.rows
}

// MinCol returns 1; MoveTo is one based.
func (d *Dev) MinCol() int {
	return 1
}

// MinRow returns 1; MoveTo is one based.
func (d *Dev) MinRow() int {
	return 1
}

// Cursor sets the cursor mode and turns the display on. Modes combine, e.g.
// Cursor(display.CursorUnderline, display.CursorBlink).
func (d *Dev) Cursor(modes ...display.CursorMode) error {
	val := cmdDisplayControl | displayOn
	for _, mode := range modes {
		switch mode {
		case display.CursorOff:
			val &^= cursorOn | blinkOn
		case display.CursorUnderline:
			val |= cursorOn
		case display.CursorBlock, display.CursorBlink:
			val |= blinkOn
		default:
			return fmt.Errorf("hd44780: cursor mode %d: %w", mode, display.ErrInvalidCommand)
		}
	}
	return d.writeByte(val, modeCommand)
}

// Display turns the display on or off. DDRAM is kept while off.
func (d *Dev) Display(on bool) error {
	val := cmdDisplayControl
	if on {
		val |= displayOn
	}
	return d.writeByte(val, modeCommand)
}

// Home moves the cursor to the first position and undoes any shift.
func (d *Dev) Home() error {
	return d.writeByte(cmdHome, modeCommand)
}

// Move moves the cursor one position. Only Forward and Backward exist on
// this controller.
func (d *Dev) Move(dir display.CursorDirection) error {
	switch dir {
	case display.Backward:
		return d.writeByte(cmdShift, modeCommand)
	case display.Forward:
		return d.writeByte(cmdShift|shiftRight, modeCommand)
	case display.Up, display.Down:
		return fmt.Errorf("hd44780: move %d: %w", dir, display.ErrNotImplemented)
	}
	return fmt.Errorf("hd44780: move %d: %w", dir, display.ErrInvalidCommand)
}

// MoveTo moves the cursor to row, col, both one based.
//
// Unlike SetText, rows 3 and 4 follow the glass: 0x20 and 0x60 on 16
// columns, 0x14 and 0x54 otherwise.
func (d *Dev) MoveTo(row, col int) error {
	if row < d.MinRow() || row > d.rows || col < d.MinCol() || col > d.cols {
		return fmt.Errorf("%w: MoveTo(%d,%d) on %dx%d", ErrOutOfRange, row, col, d.rows, d.cols)
	}
	return d.writeByte(d.cursorAddress(col-1, row-1), modeCommand)
}

// Write writes p at the cursor. Every byte is sent, including NUL.
func (d *Dev) Write(p []byte) (n int, err error) {
	for _, c := range p {
		if err = d.writeByte(c, modeData); err != nil {
			return
		}
		n++
	}
	return
}

// WriteString writes text at the cursor.
func (d *Dev) WriteString(text string) (int, error) {
	return d.Write([]byte(text))
}
