// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/GermanBionicSystems/charlcd/lcdsim"
	log "github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/display"
)

const greeting = "Hello World!"

func banner() string {
	return "charlcd " + buildVersion
}

// run executes the parsed command cmd.
func run(ctx context.Context, cmd string, conf *Config, out io.Writer) error {
	if cmd == version.FullCommand() {
		showVersion(out)
		return nil
	}
	if cmd == snapshot.FullCommand() {
		return writeSnapshot(conf, *snapshotFile)
	}

	l, err := openDisplay(conf, out)
	if err != nil {
		return err
	}
	defer l.Close()

	switch cmd {
	case hello.FullCommand():
		return showHello(l)
	case text.FullCommand():
		return l.SetText(*textArg, *textCol, *textRow)
	case number.FullCommand():
		return l.SetInt(*numberArg, *numberCol, *numberRow)
	case clearCmd.FullCommand():
		return l.Clear()
	case count.FullCommand():
		return runCount(ctx, l, countOpts{Interval: *countInterval, Restart: *countRestart, Limit: *countLimit})
	}
	return fmt.Errorf("unrecognized command %q", cmd)
}

// showHello lights the backlight and shows the greeting over a number.
func showHello(l *lcd) error {
	if l.backlight != nil {
		if err := l.backlight.Backlight(display.Intensity(255)); err != nil {
			return err
		}
	}
	if err := l.Clear(); err != nil {
		return err
	}
	if err := l.SetText(greeting, 0, 0); err != nil {
		return err
	}
	return l.SetInt(10, 0, 1)
}

type countOpts struct {
	Interval time.Duration
	// Restart turns the display off and runs Init again every Restart
	// updates. 0 never does.
	Restart int
	// Limit stops after Limit updates. 0 runs until ctx is done.
	Limit int
}

// runCount shows the banner on the first row and a counter on the second,
// updated every o.Interval. It returns nil once ctx is done.
func runCount(ctx context.Context, l *lcd, o countOpts) error {
	drawBanner := func() error {
		if err := l.Clear(); err != nil {
			return err
		}
		return l.SetText(banner(), 0, 0)
	}
	if err := drawBanner(); err != nil {
		return err
	}

	t := time.NewTicker(o.Interval)
	defer t.Stop()
	for n := 0; ; n++ {
		if o.Restart > 0 && n > 0 && n%o.Restart == 0 {
			log.WithField("count", n).Info("re-initializing display")
			if err := l.Halt(); err != nil {
				return err
			}
			if err := l.Init(); err != nil {
				return err
			}
			if err := drawBanner(); err != nil {
				return err
			}
		}
		if err := l.SetText("Count: ", 0, 1); err != nil {
			return err
		}
		if err := l.SetInt(n, 8, 1); err != nil {
			return err
		}
		log.WithField("count", n).Debug("tick")
		if o.Limit > 0 && n+1 >= o.Limit {
			return nil
		}
		select {
		case <-ctx.Done():
			log.Info("Done...")
			return nil
		case <-t.C:
		}
	}
}

// writeSnapshot shows the greeting on a simulated display and saves it.
func writeSnapshot(conf *Config, path string) error {
	c := *conf
	c.Backend = backendSim
	l, err := openDisplay(&c, nil)
	if err != nil {
		return err
	}
	defer l.Close()
	if err := showHello(l); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := lcdsim.WritePNG(f, l.sim, nil); err != nil {
		_ = f.Close()
		return err
	}
	log.WithField("file", path).Info("snapshot written")
	return f.Close()
}
