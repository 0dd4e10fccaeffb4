/*
 * core/stepper - Bresenham step-pulse generation
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

// Package stepper drives the physical (or simulated) axis outputs from a
// stream of segments: a Bresenham accumulator per axis decides which
// axes pulse on a given step event, and RunSegments issues the pulses
// synchronously on the caller's goroutine, calling an optional reset
// callback after each one in place of the source firmware's two hardware
// ISRs (spec.md §4.5).
package stepper

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cncmotion/core/core/axis"
	"github.com/cncmotion/core/core/segment"
)

// PulseWidth is the minimum high time of a step pulse before the reset
// ISR analog drops it low again.
const PulseWidth = 5 * time.Microsecond

// AxisSet is the external collaborator contract the executor drives
// directly: one Driver per axis, plus shared limit/control/probe input
// polling. Owned exclusively by the stepper sub-aggregate, never shared
// with the rest of Controller (spec.md §9).
type AxisSet struct {
	Drivers [axis.Count]axis.Driver
	Inputs  axis.InputPoller
}

// bresenham tracks one axis's fractional step accumulation across a
// block's dominant-axis step events, the same counter-per-axis algorithm
// Grbl-family firmwares use to keep every axis's step timing
// proportional without floating point division per pulse.
type bresenham struct {
	steps     uint32 // total steps this axis must take over the block
	remaining uint32 // steps not yet issued
	counter   int32  // Bresenham error accumulator
	negative  bool
}

// Executor generates step pulses for the currently-executing planner
// block, one segment at a time. It holds no reference to the planner or
// interpreter; the caller feeds it blocks and segments (spec.md §9's
// published-snapshot hand-off, not a shared pointer to the live block).
type Executor struct {
	axes AxisSet

	mu      sync.Mutex
	running [axis.Count]bresenham
	locked  uint8 // axis-lock bitmask: locked axes never step

	idle     atomic.Bool
	stepping atomic.Bool

	wg   sync.WaitGroup
	done chan struct{}
}

// NewExecutor wires an Executor to its axis outputs.
func NewExecutor(axes AxisSet) *Executor {
	return &Executor{axes: axes, done: make(chan struct{})}
}

// LoadBlock arms the Bresenham accumulators for a new block's step
// counts and directions, and sets each axis's direction output.
func (e *Executor) LoadBlock(steps [axis.Count]int32, directionNeg [axis.Count]bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	var dominant int32
	for i := 0; i < axis.Count; i++ {
		s := steps[i]
		if s < 0 {
			s = -s
		}
		if s > dominant {
			dominant = s
		}
	}

	for i := 0; i < axis.Count; i++ {
		s := steps[i]
		if s < 0 {
			s = -s
		}
		e.running[i] = bresenham{steps: uint32(s), remaining: uint32(s), counter: dominant / 2, negative: directionNeg[i]}
		if e.axes.Drivers[i] != nil {
			e.axes.Drivers[i].SetDirection(directionNeg[i])
		}
	}
}

// SetAxisLock masks axes out of step pulse generation, used during
// homing when only the axes currently seeking a switch should move.
func (e *Executor) SetAxisLock(mask uint8) {
	e.mu.Lock()
	e.locked = mask
	e.mu.Unlock()
}

// Pulse executes one step event: every axis whose Bresenham counter
// rolls over this event gets a step pulse, scaled to the segment's
// dominant-axis step budget. Returns the bitmask of axes that stepped.
func (e *Executor) Pulse(dominantSteps uint32) uint8 {
	e.mu.Lock()
	defer e.mu.Unlock()

	var stepped uint8
	for i := 0; i < axis.Count; i++ {
		if e.locked&(1<<uint(i)) != 0 {
			continue
		}
		r := &e.running[i]
		if r.remaining == 0 {
			continue
		}
		r.counter -= int32(r.steps)
		if r.counter < 0 {
			r.counter += int32(dominantSteps)
			r.remaining--
			stepped |= 1 << uint(i)
			if e.axes.Drivers[i] != nil {
				e.axes.Drivers[i].Step()
			}
		}
	}
	return stepped
}

// RunSegments executes a full segment list synchronously, pulsing once
// per step event and calling resetAfter between pulses to model the
// port-reset ISR dropping the step lines low again. dominantSteps is the
// block's step_event_count. Pulses are issued back to back: no delay is
// inserted between step events, and a segment's ReloadTicks is only
// checked for zero (such a segment is skipped), never used for timing.
func (e *Executor) RunSegments(segs []segment.Segment, dominantSteps uint32, resetAfter func()) {
	e.stepping.Store(true)
	defer e.stepping.Store(false)

	for _, seg := range segs {
		if seg.ReloadTicks == 0 || seg.StepEvents == 0 {
			continue
		}
		interval := time.Duration(seg.StepEvents) * PulseWidth
		if interval <= 0 {
			interval = PulseWidth
		}
		for i := uint32(0); i < seg.StepEvents; i++ {
			e.Pulse(dominantSteps)
			if resetAfter != nil {
				resetAfter()
			}
		}
	}
}

// WakeUp enables the output drivers and clears the idle flag, the
// software analog of the stepper ISR's enable-pin toggle.
func (e *Executor) WakeUp() {
	e.idle.Store(false)
	for i := range e.axes.Drivers {
		if e.axes.Drivers[i] != nil {
			e.axes.Drivers[i].SetEnabled(true)
		}
	}
}

// Disable immediately de-energizes every axis driver and marks the
// executor idle. Matches the source firmware's "immediately disables
// steppers" contract: no ramp-down, drivers drop out at once.
func (e *Executor) Disable() {
	e.idle.Store(true)
	for i := range e.axes.Drivers {
		if e.axes.Drivers[i] != nil {
			e.axes.Drivers[i].SetEnabled(false)
		}
	}
	slog.Debug("stepper disabled")
}

// Idle reports whether the idle-lock timeout has fired and steppers are
// currently de-energized.
func (e *Executor) Idle() bool { return e.idle.Load() }

// Stepping reports whether a segment run is currently in progress.
func (e *Executor) Stepping() bool { return e.stepping.Load() }
