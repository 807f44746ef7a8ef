// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"bytes"
	"context"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/GermanBionicSystems/charlcd/lcdsim"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func simConfig() *Config {
	c := defaultConfig()
	c.Backend = backendSim
	return c
}

func pad(s string) string {
	return s + strings.Repeat(" ", 16-len(s))
}

func TestHello(t *testing.T) {
	l, err := openDisplay(simConfig(), nil)
	require.NoError(t, err)
	defer l.Close()
	require.NoError(t, showHello(l))
	assert.Equal(t, []string{pad(greeting), pad("10")}, l.sim.Text())
	assert.Nil(t, l.backlight)
}

func TestOpenDisplayTerminal(t *testing.T) {
	var buf bytes.Buffer
	l, err := openDisplay(simConfig(), &buf)
	require.NoError(t, err)
	require.NoError(t, l.Close())
	// One frame per init instruction, redrawn in place.
	assert.Contains(t, buf.String(), "\033[4A")
	assert.True(t, strings.HasSuffix(buf.String(), "\n\033[0m"), "colors not reset")
}

func TestOpenDisplayFourRows(t *testing.T) {
	c := simConfig()
	c.Display.Rows = 4
	c.Display.Cols = 20
	l, err := openDisplay(c, nil)
	require.NoError(t, err)
	require.NoError(t, l.SetText("third", 0, 2))
	assert.Equal(t, "third"+strings.Repeat(" ", 15), l.sim.Text()[2])
	assert.Equal(t, 4, l.Rows())
	assert.Equal(t, 20, l.Cols())
}

func TestCount(t *testing.T) {
	l, err := openDisplay(simConfig(), nil)
	require.NoError(t, err)
	err = runCount(context.Background(), l, countOpts{Interval: time.Millisecond, Restart: 2, Limit: 3})
	require.NoError(t, err)
	assert.Equal(t, []string{pad(banner()), pad("Count:  2")}, l.sim.Text())

	// Initial Init plus one restart.
	inits := 0
	for _, in := range l.sim.History() {
		if in == (lcdsim.Instruction{Value: 0x20, Wide: true}) {
			inits++
		}
	}
	assert.Equal(t, 2, inits)
}

func TestCountStopsOnCancel(t *testing.T) {
	l, err := openDisplay(simConfig(), nil)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, runCount(ctx, l, countOpts{Interval: time.Hour}))
	assert.Equal(t, pad("Count:  0"), l.sim.Text()[1])
}

func TestRun(t *testing.T) {
	for _, tc := range []struct {
		args []string
		want string
	}{
		{[]string{"--backend", "sim", "hello"}, "H e l l o "},
		{[]string{"text", "hi", "--col", "3", "--row", "1"}, "      h i "},
		{[]string{"int", "42"}, "4 2 "},
		{[]string{"clear"}, "\033[0m"},
		{[]string{"count", "--limit", "2", "--interval", "1ms"}, "C o u n t :     1 "},
		{[]string{"version"}, "dev (built: unknown)\n"},
	} {
		t.Run(tc.args[0], func(t *testing.T) {
			cmd, err := app.Parse(tc.args)
			require.NoError(t, err)
			var buf bytes.Buffer
			require.NoError(t, run(context.Background(), cmd, simConfig(), &buf))
			assert.Contains(t, buf.String(), tc.want)
		})
	}
}

func TestRunSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lcd.png")
	cmd, err := app.Parse([]string{"snapshot", path})
	require.NoError(t, err)
	// The snapshot always uses the simulator.
	c := simConfig()
	c.Backend = backendGPIO
	require.NoError(t, run(context.Background(), cmd, c, nil))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Greater(t, img.Bounds().Dx(), img.Bounds().Dy())
}
