/*
 * core/segment - Step segment generator
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

// Package segment turns the currently-executing planner block into a
// series of fixed-duration step segments: how many step events occur
// and at what per-axis timer reload value, across the accelerate/cruise/
// decelerate phases of the trapezoidal (or triangular, if too short to
// reach nominal speed) velocity profile described in spec.md §4.4.
package segment

import "math"

// TicksPerSecond is how many segments are generated per second of
// machine time, matching the source firmware's ACCELERATION_TICKS_PER_SECOND.
const TicksPerSecond = 100

// AmassLevels are the adaptive multi-axis step smoothing shift amounts
// Generate chooses from and records in Segment.AmassLevel. The chosen
// level does not change a segment's StepEvents or ReloadTicks: the step
// count is not scaled and the reload stays timerFreq divided by the
// unscaled step rate, so it is not bounded at slow feed rates.
var AmassLevels = []uint{0, 2, 4, 6}

// AmassRateThreshold selects the smallest level whose scaled step rate
// clears this floor (steps/sec), mirroring the source firmware's
// cutoff bands for 20kHz/4kHz/1kHz timers.
const AmassRateThreshold = 8000.0

// Profile describes the trapezoidal (or triangular) velocity profile for
// one block, expressed as distances in millimeters from the start of
// the block.
type Profile struct {
	EntrySpeed      float32
	NominalSpeed    float32
	ExitSpeed       float32
	Acceleration    float32
	AccelerateUntil float32 // mm into the block where cruise begins
	DecelerateAfter float32 // mm into the block where decel begins
	Millimeters     float32
}

// NewProfile computes the ramp breakpoints for a block of length mm with
// the given entry/nominal/exit speeds and acceleration. If the block is
// too short to reach nominal speed, the profile degrades to a triangle:
// accelerate until the speed peak, then decelerate straight through.
func NewProfile(mm, entrySpeed, nominalSpeed, exitSpeed, acceleration float32) Profile {
	p := Profile{
		EntrySpeed:   entrySpeed,
		NominalSpeed: nominalSpeed,
		ExitSpeed:    exitSpeed,
		Acceleration: acceleration,
		Millimeters:  mm,
	}
	if acceleration <= 0 {
		p.AccelerateUntil = 0
		p.DecelerateAfter = mm
		return p
	}

	accelDist := (nominalSpeed*nominalSpeed - entrySpeed*entrySpeed) / (2 * acceleration)
	decelDist := (nominalSpeed*nominalSpeed - exitSpeed*exitSpeed) / (2 * acceleration)

	if accelDist+decelDist >= mm {
		// Triangle profile: peak speed never reaches nominal. Solve for
		// the peak speed at the point the two ramps meet.
		peakSqr := (2*acceleration*mm + entrySpeed*entrySpeed + exitSpeed*exitSpeed) / 2
		peak := float32(math.Sqrt(float64(peakSqr)))
		if peak < entrySpeed {
			peak = entrySpeed
		}
		accelDist = (peak*peak - entrySpeed*entrySpeed) / (2 * acceleration)
		if accelDist < 0 {
			accelDist = 0
		}
		if accelDist > mm {
			accelDist = mm
		}
		p.AccelerateUntil = accelDist
		p.DecelerateAfter = accelDist
		return p
	}

	p.AccelerateUntil = accelDist
	p.DecelerateAfter = mm - decelDist
	return p
}

// SpeedAt returns the instantaneous speed at distance d (mm) into the
// block, per the three-phase profile.
func (p Profile) SpeedAt(d float32) float32 {
	switch {
	case d <= p.AccelerateUntil:
		return rampSpeed(p.EntrySpeed, p.Acceleration, d)
	case d >= p.DecelerateAfter:
		remaining := p.Millimeters - d
		return rampSpeed(p.ExitSpeed, p.Acceleration, remaining)
	default:
		return p.NominalSpeed
	}
}

func rampSpeed(v0, a, d float32) float32 {
	vSqr := v0*v0 + 2*a*d
	if vSqr < 0 {
		vSqr = 0
	}
	return float32(math.Sqrt(float64(vSqr)))
}

// Segment is one fixed-duration slice of stepper execution: the number
// of step events the Bresenham accumulator should issue for the fastest
// axis, the timer reload for one step event at the segment's step rate,
// and the AMASS level chosen for that rate (informational only; the
// other two fields do not depend on it).
type Segment struct {
	StepEvents  uint32
	ReloadTicks uint32
	AmassLevel  uint
}

// Generate slices the profile into segments of 1/TicksPerSecond seconds
// each, starting at distance travelled and accumulating step events at
// stepsPerMM until the block's full step-event count is consumed.
// timerFreq is the hardware tick rate the reload value is computed
// against (matches the source firmware's F_CPU/prescaler).
func Generate(p Profile, stepsPerMM, timerFreq float32, startDistance float32, remainingSteps uint32) []Segment {
	if remainingSteps == 0 {
		return nil
	}
	const dt = 1.0 / TicksPerSecond

	var segments []Segment
	d := startDistance
	for remainingSteps > 0 {
		speed := p.SpeedAt(d)
		stepRate := speed * stepsPerMM
		level := amassLevel(stepRate)
		scaled := stepRate * float32(uint(1)<<level)

		events := uint32(stepRate * dt)
		if events == 0 {
			events = 1
		}
		if events > remainingSteps {
			events = remainingSteps
		}

		reload := uint32(timerFreq * float32(uint(1)<<level) / maxf(scaled, 1))

		segments = append(segments, Segment{
			StepEvents:  events,
			ReloadTicks: reload,
			AmassLevel:  level,
		})

		remainingSteps -= events
		d += speed * dt
		if d > p.Millimeters {
			d = p.Millimeters
		}
	}
	return segments
}

// amassLevel picks the smallest shift level that keeps the scaled step
// rate above AmassRateThreshold, falling back to the coarsest level at
// very low rates.
func amassLevel(stepRate float32) uint {
	for _, level := range AmassLevels {
		if stepRate*float32(uint(1)<<level) >= AmassRateThreshold {
			return level
		}
	}
	return AmassLevels[len(AmassLevels)-1]
}

func maxf(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}
