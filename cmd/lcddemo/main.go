// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// lcddemo drives an HD44780 character LCD from the command line, directly on
// GPIO lines, through a serial backpack, or on a simulated display in the
// terminal.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	"gopkg.in/alecthomas/kingpin.v2"
)

var (
	app        = kingpin.New("lcddemo", "HD44780 character LCD demo")
	debug      = app.Flag("debug", "Turn on debug logging.").Bool()
	configFile = app.Flag("config", "YAML configuration file.").Short('c').String()
	backend    = app.Flag("backend", "Override the configured backend.").Enum(backendGPIO, backendSPI, backendPCF8574, backendMCP23008, backendSim)

	hello = app.Command("hello", "Show the greeting.")

	text    = app.Command("text", "Write text at a position.")
	textArg = text.Arg("text", "Text to write.").Required().String()
	textCol = text.Flag("col", "Zero based column; 16 and up continue at the cursor.").Default("0").Int()
	textRow = text.Flag("row", "Zero based row.").Default("0").Int()

	number    = app.Command("int", "Write a number at a position.")
	numberArg = number.Arg("value", "Number to write.").Required().Int()
	numberCol = number.Flag("col", "Zero based column; 16 and up continue at the cursor.").Default("0").Int()
	numberRow = number.Flag("row", "Zero based row.").Default("0").Int()

	clearCmd = app.Command("clear", "Blank the display.")

	count         = app.Command("count", "Show a counter until interrupted.")
	countInterval = count.Flag("interval", "Time between two updates.").Default("1s").Duration()
	countRestart  = count.Flag("restart", "Turn the display off and initialize it again every n updates, 0 never does.").Default("0").Int()
	countLimit    = count.Flag("limit", "Stop after n updates, 0 runs until interrupted.").Default("0").Int()

	snapshot     = app.Command("snapshot", "Show the greeting on the simulator and save it as a PNG.")
	snapshotFile = snapshot.Arg("file", "PNG to write.").Default("lcd.png").String()

	version = app.Command("version", "Show current version.")
)

var (
	buildTime    = "unknown"
	buildVersion = "dev"
)

func showVersion(w io.Writer) {
	fmt.Fprintf(w, "%s (built: %s)\n", buildVersion, buildTime)
}

func main() {
	cmd, err := app.Parse(os.Args[1:])
	if err != nil {
		fmt.Printf("%v: Try --help\n", err.Error())
		os.Exit(1)
	}

	log.SetFormatter(&log.TextFormatter{
		TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if *debug {
		log.Info("Enabling debug output...")
		log.SetLevel(log.DebugLevel)
	}

	if cmd == version.FullCommand() {
		showVersion(os.Stdout)
		return
	}

	conf, err := readConfig(*configFile)
	if err != nil {
		log.Fatal(err)
	}
	if *backend != "" {
		conf.Backend = *backend
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err = run(ctx, cmd, conf, os.Stdout)
	stop()
	if err != nil {
		log.Fatal(err)
	}
}
