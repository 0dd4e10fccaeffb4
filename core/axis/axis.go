/*
 * core/axis - Axis output and position contracts
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

package axis

// Number of supported axes: X, Y, Z, A, B.
const Count = 5

// Axis index constants.
const (
	X = iota
	Y
	Z
	A
	B
)

var Names = [Count]string{"X", "Y", "Z", "A", "B"}

// Driver is the external collaborator contract for one physical axis: the
// GPIO/timer hardware that turns a step/direction bit pattern into motor
// motion. Implementations live outside this module (microcontroller GPIO,
// or a software stand-in for tests/simulation).
type Driver interface {
	// Step asserts the step line for one pulse width. Direction must have
	// been set with SetDirection before this is called.
	Step()
	// SetDirection sets the direction line. negative == true drives the
	// line that corresponds to a decreasing position.
	SetDirection(negative bool)
	// SetEnabled drives the stepper driver's enable line (invert-aware at
	// the caller).
	SetEnabled(enabled bool)
}

// InputPoller is the external collaborator contract for the limit/control
// switch and probe inputs, read by homing and probing between step
// pulses; no periodic tick polls it. A single call returns the raw,
// not-yet-debounced pin state for every monitored input.
type InputPoller interface {
	// ReadLimits returns a bitmask, bit i set when axis i's limit input is
	// active (invert-mask already applied by the implementation).
	ReadLimits() uint8
	// ReadControls returns the raw state of reset/feed-hold/cycle-start/
	// safety-door inputs as a bitmask defined by core/exec.
	ReadControls() uint8
	// ReadProbe returns the current probe input state (true == tripped,
	// polarity already applied).
	ReadProbe() bool
}

// Position holds a single axis's position in the three coordinate spaces
// described in spec.md §3. Steps is authoritative; MachineMM and WorkMM are
// derived.
type Position struct {
	Steps     int32   // Machine-absolute position, integer steps.
	MachineMM float32 // Machine-absolute position, millimeters.
	WorkMM    float32 // Work-coordinate position (machine + WCS + G92 + TLO).
}

// Vector is a fixed-size per-axis float vector, used for offsets, limits,
// and unit vectors throughout the planner and interpreter.
type Vector [Count]float32

// Add returns the elementwise sum of v and o.
func (v Vector) Add(o Vector) Vector {
	var r Vector
	for i := range v {
		r[i] = v[i] + o[i]
	}
	return r
}

// Sub returns the elementwise difference v - o.
func (v Vector) Sub(o Vector) Vector {
	var r Vector
	for i := range v {
		r[i] = v[i] - o[i]
	}
	return r
}
