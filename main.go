/*
 * CNC motion controller - Main process.
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

package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	getopt "github.com/pborman/getopt/v2"
	"periph.io/x/periph/host"

	"github.com/cncmotion/core/config/cfgfile"
	"github.com/cncmotion/core/config/filenvram"
	"github.com/cncmotion/core/config/machineconfig"
	"github.com/cncmotion/core/console"
	"github.com/cncmotion/core/core/axis"
	"github.com/cncmotion/core/core/controller"
	"github.com/cncmotion/core/core/settings"
	"github.com/cncmotion/core/core/stepper"
	"github.com/cncmotion/core/transport"
	"github.com/cncmotion/core/util/debug"
	"github.com/cncmotion/core/util/logger"

	_ "github.com/cncmotion/core/config/debugflags"
)

var Logger *slog.Logger

func main() {
	optConfig := getopt.StringLong("config", 'c', "machine.cfg", "Configuration file")
	optLogFile := getopt.StringLong("log", 'l', "", "Log file")
	optListen := getopt.StringLong("listen", 'L', "", "Listen address, overrides LISTEN in the config file")
	optHelp := getopt.BoolLong("help", 'h', "Help")
	getopt.Parse()

	if *optHelp {
		getopt.Usage()
		os.Exit(0)
	}

	var file *os.File
	if *optLogFile != "" {
		file, _ = os.Create(*optLogFile)
		debug.SetFile(file)
	}
	programLevel := new(slog.LevelVar)
	programLevel.Set(slog.LevelInfo)
	Logger = slog.New(logger.NewHandler(file, &slog.HandlerOptions{Level: programLevel, AddSource: false}, false))
	slog.SetDefault(Logger)

	Logger.Info("motion controller started")

	if _, err := os.Stat(*optConfig); os.IsNotExist(err) {
		Logger.Error("configuration file not found", "file", *optConfig)
		os.Exit(1)
	}
	if err := cfgfile.LoadConfigFile(*optConfig); err != nil {
		Logger.Error("loading configuration file", "error", err)
		os.Exit(1)
	}

	nvramFile := machineconfig.NVRAMFile
	if nvramFile == "" {
		nvramFile = "machine.nvram"
	}
	nv, err := filenvram.Open(nvramFile)
	if err != nil {
		Logger.Error("opening NVRAM image", "file", nvramFile, "error", err)
		os.Exit(1)
	}
	defer nv.Close()

	store := settings.NewStore(nv)
	if err := store.Load(); err != nil {
		Logger.Warn("NVRAM settings failed validation, restored factory defaults", "error", err)
	}

	axes, err := buildAxisSet(machineconfig.Axes)
	if err != nil {
		Logger.Error("wiring axis drivers", "error", err)
		os.Exit(1)
	}

	ctrl := controller.New(store, axes)
	ctrl.Start()

	addr := machineconfig.ListenAddr
	if *optListen != "" {
		addr = *optListen
	}

	var srv *transport.TCPServer
	if addr != "" {
		c := console.New(ctrl)
		srv, err = transport.NewTCPServer(addr, c)
		if err != nil {
			Logger.Error("starting listener", "address", addr, "error", err)
			os.Exit(1)
		}
		srv.Start()
		Logger.Info("listening", "address", addr)
	}

	replDone := make(chan struct{})
	go func() {
		console.Run(ctrl)
		close(replDone)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigChan:
		Logger.Info("got quit signal")
	case <-replDone:
		Logger.Info("console exited")
	}

	if srv != nil {
		srv.Stop()
	}
	ctrl.Stop()
	if err := store.Save(); err != nil {
		Logger.Error("saving settings to NVRAM", "error", err)
	}
	Logger.Info("shut down")
}

// buildAxisSet turns the AXIS directives collected by config/machineconfig
// into a stepper.AxisSet. An axis with no directive, or driver=sim, gets
// a simulated driver with no physical output at all, keeping the
// controller runnable on a host with no attached hardware the same way
// rcornwell-S370's emu/models can stand a dummy device in for a real one.
func buildAxisSet(wiring []machineconfig.AxisWiring) (stepper.AxisSet, error) {
	var set stepper.AxisSet
	for i := range set.Drivers {
		set.Drivers[i] = &simDriver{name: axis.Names[i]}
	}
	set.Inputs = &simInputs{}

	needsGPIO := false
	for _, w := range wiring {
		if w.Driver == "gpio" {
			needsGPIO = true
			break
		}
	}
	if needsGPIO {
		if _, err := host.Init(); err != nil {
			return stepper.AxisSet{}, err
		}
	}

	for _, w := range wiring {
		if w.Driver != "gpio" {
			continue
		}
		d, err := transport.NewGPIOAxis(w.Step, w.Dir, w.Enable)
		if err != nil {
			return stepper.AxisSet{}, err
		}
		set.Drivers[w.Axis] = d
	}
	return set, nil
}

// simDriver is the default axis.Driver for a host with nothing attached:
// every call is a no-op other than the pulse-width wait Step takes on
// real hardware, so timing-sensitive callers (core/stepper's tests
// aside) see realistic latency even in simulation.
type simDriver struct {
	name string
}

func (d *simDriver) Step() {
	debug.Debugf("AXIS", debug.LevelTrace, "%s step", d.name)
	time.Sleep(stepper.PulseWidth)
}
func (d *simDriver) SetDirection(bool)       {}
func (d *simDriver) SetEnabled(enabled bool) {}

// simInputs is the default axis.InputPoller: no switch ever trips.
type simInputs struct{}

func (simInputs) ReadLimits() uint8   { return 0 }
func (simInputs) ReadControls() uint8 { return 0 }
func (simInputs) ReadProbe() bool     { return false }
