// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"fmt"
	"os"

	"github.com/GermanBionicSystems/charlcd/hd44780"
	"gopkg.in/yaml.v3"
)

const (
	backendGPIO     = "gpio"
	backendSPI      = "spi"
	backendPCF8574  = "pcf8574"
	backendMCP23008 = "mcp23008"
	backendSim      = "sim"

	defaultSPIHz        = 1000000
	defaultPCF8574Addr  = 0x27
	defaultMCP23008Addr = 0x20

	// DDRAM holds 80 characters.
	maxCells = 80
)

// Config is the content of the configuration file. Absent keys keep their
// default.
type Config struct {
	Backend string         `yaml:"backend"`
	Pins    hd44780.PinMap `yaml:"pins"`
	// Backlight is the GPIO line of the backlight, if any, for the gpio
	// backend.
	Backlight string `yaml:"backlight"`
	SPI       struct {
		Port string `yaml:"port"`
		Hz   int64  `yaml:"hz"`
	} `yaml:"spi"`
	I2C struct {
		Bus  string `yaml:"bus"`
		Addr uint16 `yaml:"addr"`
	} `yaml:"i2c"`
	Display struct {
		Rows int `yaml:"rows"`
		Cols int `yaml:"cols"`
	} `yaml:"display"`
	Timing hd44780.Timing `yaml:"timing"`
}

func defaultConfig() *Config {
	c := &Config{
		Backend: backendGPIO,
		Pins:    hd44780.DefaultPinMap,
		Timing:  hd44780.DefaultTiming,
	}
	c.SPI.Hz = defaultSPIHz
	c.Display.Rows = hd44780.DefaultOpts.Rows
	c.Display.Cols = hd44780.DefaultOpts.Cols
	return c
}

func parseConfig(content []byte) (*Config, error) {
	c := defaultConfig()
	err := yaml.Unmarshal(content, c)
	if err != nil {
		return nil, err
	}

	switch c.Backend {
	case backendGPIO, backendSPI, backendSim:
	case backendPCF8574:
		if c.I2C.Addr == 0 {
			c.I2C.Addr = defaultPCF8574Addr
		}
	case backendMCP23008:
		if c.I2C.Addr == 0 {
			c.I2C.Addr = defaultMCP23008Addr
		}
	default:
		return nil, fmt.Errorf("unknown backend %q", c.Backend)
	}
	if c.I2C.Addr > 0x7f {
		return nil, fmt.Errorf("i2c address %#x is not a 7 bit address", c.I2C.Addr)
	}
	if c.SPI.Hz <= 0 {
		return nil, fmt.Errorf("spi frequency must be positive, got %d", c.SPI.Hz)
	}
	if c.Display.Rows < 1 || c.Display.Rows > 4 {
		return nil, fmt.Errorf("display must have 1 to 4 rows, got %d", c.Display.Rows)
	}
	if c.Display.Cols < 1 || c.Display.Rows*c.Display.Cols > maxCells {
		return nil, fmt.Errorf("display of %dx%d does not fit the controller", c.Display.Rows, c.Display.Cols)
	}
	if c.Timing.CommandSettle <= c.Timing.DataSettle {
		return nil, fmt.Errorf("timing: commandSettle (%s) must exceed dataSettle (%s)", c.Timing.CommandSettle, c.Timing.DataSettle)
	}
	return c, nil
}

// readConfig parses the file at path. An empty path returns the defaults.
func readConfig(path string) (*Config, error) {
	if path == "" {
		return defaultConfig(), nil
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c, err := parseConfig(content)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}
