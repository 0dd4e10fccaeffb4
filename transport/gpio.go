/*
 * transport - GPIO-backed axis driver
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

package transport

import (
	"fmt"
	"time"

	"periph.io/x/periph/conn/gpio"
	"periph.io/x/periph/conn/gpio/gpioreg"

	"github.com/cncmotion/core/core/stepper"
)

// GPIOAxis drives one physical axis's step/direction/enable lines
// through three periph.io GPIO pins, for a build running directly on a
// Linux SBC (Raspberry Pi and similar) instead of against a simulated or
// network-attached driver. Satisfies core/axis.Driver.
type GPIOAxis struct {
	step   gpio.PinOut
	dir    gpio.PinOut
	enable gpio.PinOut
}

// NewGPIOAxis looks up three already-named periph.io pins (registered by
// host.Init, called once by the caller before any axis is opened) and
// wires them as one axis's step/direction/enable outputs. A caller on a
// host with no such pins (anything but the target SBC) gets an error
// instead of a panic, the same as a missing COM port would for
// transport.NewTCPServer.
func NewGPIOAxis(stepPin, dirPin, enablePin string) (*GPIOAxis, error) {
	step := gpioreg.ByName(stepPin)
	if step == nil {
		return nil, fmt.Errorf("transport: no such GPIO pin %q", stepPin)
	}
	dir := gpioreg.ByName(dirPin)
	if dir == nil {
		return nil, fmt.Errorf("transport: no such GPIO pin %q", dirPin)
	}
	enable := gpioreg.ByName(enablePin)
	if enable == nil {
		return nil, fmt.Errorf("transport: no such GPIO pin %q", enablePin)
	}

	if err := step.Out(gpio.Low); err != nil {
		return nil, fmt.Errorf("transport: init step pin %s: %w", stepPin, err)
	}
	if err := dir.Out(gpio.Low); err != nil {
		return nil, fmt.Errorf("transport: init dir pin %s: %w", dirPin, err)
	}
	if err := enable.Out(gpio.High); err != nil {
		return nil, fmt.Errorf("transport: init enable pin %s: %w", enablePin, err)
	}

	return &GPIOAxis{step: step, dir: dir, enable: enable}, nil
}

// Step asserts the step line high for stepper.PulseWidth then drops it,
// a software-timed analogue of the ISR pulse/reset pair stepper.Executor
// otherwise relies on hardware timers for.
func (a *GPIOAxis) Step() {
	a.step.Out(gpio.High)
	time.Sleep(stepper.PulseWidth)
	a.step.Out(gpio.Low)
}

// SetDirection drives the direction line; true asserts the line a
// decreasing-position move uses.
func (a *GPIOAxis) SetDirection(negative bool) {
	if negative {
		a.dir.Out(gpio.High)
		return
	}
	a.dir.Out(gpio.Low)
}

// SetEnabled drives the driver's enable line. Most stepper drivers
// (DRV8825, TMC family) enable on a low input, so true pulls the line
// low.
func (a *GPIOAxis) SetEnabled(enabled bool) {
	if enabled {
		a.enable.Out(gpio.Low)
		return
	}
	a.enable.Out(gpio.High)
}
