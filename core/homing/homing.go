/*
 * core/homing - Homing cycle
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

// Package homing drives the two-phase seek/pulloff cycle that locates an
// axis's limit switch and establishes its machine-coordinate zero,
// bypassing the planner the way the source firmware's Limits_GoHome does
// (spec.md §4.7): homing motion is a direct axis-lock step sequence, not
// a queued motion block.
package homing

import (
	"fmt"

	"github.com/cncmotion/core/core/axis"
	"github.com/cncmotion/core/core/settings"
	"github.com/cncmotion/core/core/stepper"
)

// SearchScalar multiplies max travel to guarantee the switch engages
// even if max_travel is under-measured, matching HOMING_AXIS_SEARCH_SCALAR.
const SearchScalar = 1.5

// LocateScalar matches HOMING_AXIS_LOCATE_SCALAR, the source firmware's
// pulloff multiplier for its repeated locate passes. Run makes a single
// approach-then-pulloff pass and does not use it.
const LocateScalar = 5.0

// ErrSwitchNotFound is returned when an axis fails to trip its limit
// switch within the computed search travel.
var ErrSwitchNotFound = fmt.Errorf("homing: limit switch not found during approach")

// Cycle drives one homing pass for a bitmask of axes sharing a limit
// switch wiring group (spec.md's per-cycle axis grouping, e.g. Z alone,
// then X and Y together).
type Cycle struct {
	Steppers *stepper.Executor
	Inputs   axis.InputPoller
}

// Run executes the approach-then-pulloff sequence for every axis set in
// mask, using rec for rates/pulloff/direction, and returns the new
// machine-space step position for each homed axis via positions.
func (c *Cycle) Run(mask uint8, rec settings.Record) (positions [axis.Count]int32, err error) {
	if mask == 0 {
		return positions, nil
	}

	locked := ^mask & axisMaskAll()
	c.Steppers.SetAxisLock(locked)
	defer c.Steppers.SetAxisLock(0)

	maxTravelMM := searchTravelMM(mask, rec)

	if err := c.seekUntilTripped(mask, rec, maxTravelMM); err != nil {
		return positions, err
	}

	pulloffSteps := c.pulloffSteps(mask, rec)
	c.Steppers.LoadBlock(pulloffSteps, oppositeDirections(mask, rec))
	for i := 0; i < int(maxStepsOf(pulloffSteps)); i++ {
		c.Steppers.Pulse(uint32(maxStepsOf(pulloffSteps)))
	}

	for i := 0; i < axis.Count; i++ {
		if mask&(1<<uint(i)) == 0 {
			continue
		}
		sign := int32(1)
		if rec.HomingDirMask&(1<<uint(i)) != 0 {
			sign = -1
		}
		positions[i] = sign * -int32(float32(rec.HomingPulloff)*rec.StepsPerMM[i])
	}
	return positions, nil
}

// seekUntilTripped pulses every unlocked axis toward its switch until
// Inputs.ReadLimits reports every masked axis tripped, or the search
// travel budget is exhausted.
func (c *Cycle) seekUntilTripped(mask uint8, rec settings.Record, maxTravelMM float32) error {
	var steps [axis.Count]int32
	var dominant int32
	for i := 0; i < axis.Count; i++ {
		if mask&(1<<uint(i)) == 0 {
			continue
		}
		steps[i] = int32(maxTravelMM * rec.StepsPerMM[i])
		if steps[i] > dominant {
			dominant = steps[i]
		}
	}
	c.Steppers.LoadBlock(steps, approachDirections(mask, rec))

	for n := int32(0); n < dominant; n++ {
		c.Steppers.Pulse(uint32(dominant))
		if c.Inputs != nil && c.Inputs.ReadLimits()&mask == mask {
			return nil
		}
	}
	return ErrSwitchNotFound
}

func (c *Cycle) pulloffSteps(mask uint8, rec settings.Record) [axis.Count]int32 {
	var steps [axis.Count]int32
	for i := 0; i < axis.Count; i++ {
		if mask&(1<<uint(i)) == 0 {
			continue
		}
		steps[i] = int32(rec.HomingPulloff * rec.StepsPerMM[i])
		if steps[i] < 1 {
			steps[i] = 1
		}
	}
	return steps
}

func maxStepsOf(steps [axis.Count]int32) int32 {
	var m int32
	for _, s := range steps {
		if s > m {
			m = s
		}
	}
	return m
}

func approachDirections(mask uint8, rec settings.Record) [axis.Count]bool {
	var dir [axis.Count]bool
	for i := 0; i < axis.Count; i++ {
		if mask&(1<<uint(i)) == 0 {
			continue
		}
		dir[i] = rec.HomingDirMask&(1<<uint(i)) != 0
	}
	return dir
}

// oppositeDirections reverses approachDirections for the pulloff move,
// which always travels away from the switch that was just tripped.
func oppositeDirections(mask uint8, rec settings.Record) [axis.Count]bool {
	dir := approachDirections(mask, rec)
	for i := range dir {
		dir[i] = !dir[i]
	}
	return dir
}

func searchTravelMM(mask uint8, rec settings.Record) float32 {
	var maxTravel float32
	for i := 0; i < axis.Count; i++ {
		if mask&(1<<uint(i)) == 0 {
			continue
		}
		t := -SearchScalar * rec.MaxTravel[i]
		if t > maxTravel {
			maxTravel = t
		}
	}
	return maxTravel
}

func axisMaskAll() uint8 {
	var m uint8
	for i := 0; i < axis.Count; i++ {
		m |= 1 << uint(i)
	}
	return m
}
