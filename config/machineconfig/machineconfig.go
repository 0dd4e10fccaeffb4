/*
 * config/machineconfig - Machine wiring directives
 *
 * Copyright 2025, CNC Motion Core contributors
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in
 * all copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 */

// Package machineconfig registers the AXIS, NVRAM and LISTEN directives
// against config/cfgfile, the way config/configparser's emu/models
// registrations bind a mainframe config line to a device constructor.
// Unlike the $-settings (kinematic limits, feature flags), which live in
// the NVRAM image and are set at the console, these three directives
// describe the host's physical wiring: which NVRAM file backs the
// settings store, which GPIO pins or network endpoint drive each axis,
// and what address the front-end transport listens on. main.go reads
// the package-level results back after LoadConfigFile returns.
package machineconfig

import (
	"errors"
	"strings"

	"github.com/cncmotion/core/config/cfgfile"
	"github.com/cncmotion/core/core/axis"
)

// AxisWiring describes one AXIS directive: either a GPIO-backed driver
// (driver=gpio) naming three periph.io pin names, or a simulated driver
// (driver=sim, the default) with no physical pins at all.
type AxisWiring struct {
	Axis   int
	Driver string // "gpio" or "sim"
	Step   string
	Dir    string
	Enable string
}

// NVRAMFile is the file= value of the most recently loaded NVRAM
// directive. Empty until LoadConfigFile processes one.
var NVRAMFile string

// ListenAddr is the addr= value of the most recently loaded LISTEN
// directive. Empty until LoadConfigFile processes one.
var ListenAddr string

// Axes accumulates one AxisWiring per AXIS directive seen, in file order.
var Axes []AxisWiring

func init() {
	cfgfile.RegisterDirective("NVRAM", setNVRAM)
	cfgfile.RegisterDirective("LISTEN", setListen)
	cfgfile.RegisterDirective("AXIS", setAxis)
}

func setNVRAM(_ string, options []cfgfile.Option) error {
	for _, opt := range options {
		if opt.Name == "file" {
			NVRAMFile = opt.Value
			return nil
		}
	}
	return errors.New("machineconfig: NVRAM requires file=")
}

func setListen(_ string, options []cfgfile.Option) error {
	for _, opt := range options {
		if opt.Name == "addr" {
			ListenAddr = opt.Value
			return nil
		}
	}
	return errors.New("machineconfig: LISTEN requires addr=")
}

var axisNames = map[string]int{"X": axis.X, "Y": axis.Y, "Z": axis.Z, "A": axis.A, "B": axis.B}

func setAxis(value string, options []cfgfile.Option) error {
	idx, ok := axisNames[strings.ToUpper(value)]
	if !ok {
		return errors.New("machineconfig: AXIS: unknown axis " + value)
	}
	w := AxisWiring{Axis: idx, Driver: "sim"}
	for _, opt := range options {
		switch opt.Name {
		case "driver":
			w.Driver = opt.Value
		case "step":
			w.Step = opt.Value
		case "dir":
			w.Dir = opt.Value
		case "enable":
			w.Enable = opt.Value
		}
	}
	if w.Driver == "gpio" && (w.Step == "" || w.Dir == "" || w.Enable == "") {
		return errors.New("machineconfig: AXIS " + value + ": driver=gpio requires step=, dir= and enable=")
	}
	Axes = append(Axes, w)
	return nil
}
