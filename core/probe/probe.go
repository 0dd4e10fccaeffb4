/*
 * core/probe - Touch probe motion monitor
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

// Package probe monitors the probe input during a G38.2/.3/.4/.5 motion
// and reports the step position at the moment of contact, grounded on
// original_source/grbl/Probe.c's state monitor.
package probe

import (
	"fmt"

	"github.com/cncmotion/core/core/axis"
	"github.com/cncmotion/core/core/stepper"
)

// ErrNoContact is returned when G38.2/G38.4 (the "error" variants)
// complete their travel budget without the probe tripping.
var ErrNoContact = fmt.Errorf("probe: no contact within travel")

// Monitor watches the probe input while the stepper executor pulses a
// direct (non-planned) move, the same "system motion" bypass homing
// uses.
type Monitor struct {
	Steppers *stepper.Executor
	Inputs   axis.InputPoller
}

// Result reports where contact occurred, in steps for each axis, and
// whether contact was made at all.
type Result struct {
	Position [axis.Count]int32
	Touched  bool
}

// Run pulses toward target (expressed as per-axis step counts and
// directions relative to the current position) until the probe input
// trips or the travel budget is exhausted. errorOnMiss selects between
// the G38.2/G38.4 (error) and G38.3/G38.5 (no error) variants.
func (m *Monitor) Run(steps [axis.Count]int32, directionNeg [axis.Count]bool, errorOnMiss bool) (Result, error) {
	var dominant int32
	for _, s := range steps {
		abs := s
		if abs < 0 {
			abs = -abs
		}
		if abs > dominant {
			dominant = abs
		}
	}
	if dominant == 0 {
		return Result{}, nil
	}

	m.Steppers.LoadBlock(steps, directionNeg)

	var traveled [axis.Count]int32
	for n := int32(0); n < dominant; n++ {
		stepped := m.Steppers.Pulse(uint32(dominant))
		for i := 0; i < axis.Count; i++ {
			if stepped&(1<<uint(i)) == 0 {
				continue
			}
			if directionNeg[i] {
				traveled[i]--
			} else {
				traveled[i]++
			}
		}
		if m.Inputs != nil && m.Inputs.ReadProbe() {
			return Result{Position: traveled, Touched: true}, nil
		}
	}

	if errorOnMiss {
		return Result{Position: traveled}, ErrNoContact
	}
	return Result{Position: traveled}, nil
}
