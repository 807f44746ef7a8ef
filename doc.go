// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package charlcd is a container for the HD44780 character LCD driver and its
// companions.
//
// hd44780 drives the display over four data lines, E and RS. backpack exposes
// serial backpack boards as those lines, and lcdsim emulates the controller
// for use without hardware. cmd/lcddemo puts them together.
package charlcd
