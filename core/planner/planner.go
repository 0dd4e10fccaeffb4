/*
 * core/planner - Look-ahead motion planner
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

// Package planner buffers motion blocks in a ring and maintains an
// optimal forward/reverse look-ahead velocity plan, per spec.md §3/§4.3.
// The cornering math is the junction-deviation half-angle identity used
// by every Grbl-derived planner: no trig calls, just the dot product of
// adjacent unit vectors.
package planner

import (
	"math"

	"github.com/cncmotion/core/core/axis"
	"github.com/cncmotion/core/core/opcodes"
)

// BufferSize is the ring capacity. Must be a small fixed size; the buffer
// block at Head is always kept empty, matching the source firmware's
// "head is never equal to tail while non-empty" invariant.
const BufferSize = 18

// MinimumJunctionSpeed is the speed (mm/s) assumed at a zero-length or
// full-reversal junction, and the floor under every computed junction
// speed.
const MinimumJunctionSpeed = 0.0

// MinimumFeedRate floors the override-scaled nominal speed, so a feed
// override driven all the way down never stalls a block's profile to
// zero, matching Planner.c's Planner_ComputeProfileNominalSpeed clamp.
const MinimumFeedRate = 1.0

// someLargeValue stands in for an effectively-infinite junction speed on
// a straight-through (180 degree) junction.
const someLargeValue = 1e9

// Block is one planned linear move, expressed as this move's own per-axis
// step counts (not absolute positions) plus the
// precomputed velocity-profile parameters the segment generator consumes.
type Block struct {
	Steps          [axis.Count]int32
	DirectionNeg   [axis.Count]bool
	StepEventCount int32

	Condition    uint16
	LineNumber   int
	SpindleSpeed float32

	// Backlash marks a block inserted by insertBacklash to take up
	// lost motion ahead of a direction reversal, rather than one
	// corresponding to a commanded line of g-code.
	Backlash bool

	Millimeters    float32
	Acceleration   float32
	RapidRate      float32
	ProgrammedRate float32
	NominalSpeed   float32

	MaxJunctionSpeedSqr float32
	MaxEntrySpeedSqr    float32
	EntrySpeedSqr       float32

	// OverrideReplan is set by Replan on every block still in the ring
	// when a feed/rapid override changed the plan out from under it,
	// letting core/controller notice the currently executing block's
	// profile moved and refresh the segment generator accordingly
	// (spec.md §4.3's "flag the executing block").
	OverrideReplan bool
}

// Buffer is the fixed-capacity look-ahead ring. The zero value is not
// usable; construct with New.
type Buffer struct {
	blocks [BufferSize]Block

	tail    int // next block to execute
	head    int // next free slot; always empty
	next    int // head after the pending append
	planned int // first block after the last optimally-planned block

	prevUnitVec     [axis.Count]float32
	prevNominalSpd  float32
	position        [axis.Count]int32 // planner's notion of absolute step position

	// backlashTarget and backlashDirNeg mirror MotionControl.c's static
	// target_prev/dir_negative: the last commanded (uncompensated) target
	// in millimeters and the direction each axis last moved. Kept in mm
	// rather than steps since settings.Record.Backlash is specified in mm.
	backlashTarget axis.Vector
	backlashDirNeg [axis.Count]bool
}

// New returns an empty planner buffer. Every axis starts assuming its last
// move was negative, matching MC_Init's dir_negative default before a
// homing cycle establishes the real direction mask.
func New() *Buffer {
	b := &Buffer{}
	b.next = b.nextIndex(b.head)
	for i := range b.backlashDirNeg {
		b.backlashDirNeg[i] = true
	}
	return b
}

func (b *Buffer) nextIndex(i int) int {
	i++
	if i == BufferSize {
		i = 0
	}
	return i
}

func (b *Buffer) prevIndex(i int) int {
	if i == 0 {
		return BufferSize - 1
	}
	return i - 1
}

// Empty reports whether the buffer has no blocks pending execution.
func (b *Buffer) Empty() bool { return b.head == b.tail }

// Full reports whether a new block cannot be appended.
func (b *Buffer) Full() bool { return b.next == b.tail }

// Len returns the number of blocks currently queued for execution,
// matching Report_RealtimeStatus's Bf: available-blocks field (reported
// as consumed slots rather than free ones).
func (b *Buffer) Len() int {
	if b.head >= b.tail {
		return b.head - b.tail
	}
	return BufferSize - b.tail + b.head
}

// Current returns the block currently executing (buffer tail), or nil if
// the buffer is empty.
func (b *Buffer) Current() *Block {
	if b.Empty() {
		return nil
	}
	return &b.blocks[b.tail]
}

// Discard retires the current block once execution completes, advancing
// tail and pulling the planned pointer forward if it had not moved past
// the discarded block yet.
func (b *Buffer) Discard() {
	if b.Empty() {
		return
	}
	next := b.nextIndex(b.tail)
	if b.tail == b.planned {
		b.planned = next
	}
	b.tail = next
}

// LineData carries the per-move parameters the g-code interpreter
// supplies alongside a target position (spec.md §4.3 MotionBlock inputs).
type LineData struct {
	FeedRate     float32
	SpindleSpeed float32
	LineNumber   int
	Condition    uint16
	Backlash     bool
}

// StepsPerMM and axis-limited acceleration/rate are supplied by the
// caller (normally settings.Record) rather than imported directly, so
// the planner has no dependency on the settings package.
type AxisLimits struct {
	StepsPerMM   axis.Vector
	Acceleration axis.Vector
	MaxRate      axis.Vector
	JunctionDev  float32

	// FeedOverride, RapidOverride and SpindleOverride are the live
	// percentages from core/exec.Overrides (100 = unscaled), consulted
	// by computeNominalSpeed the same way Planner_ComputeProfileNominalSpeed
	// consults sys.f_override/sys.r_override. SpindleOverride is not used
	// by the planner directly; it is carried here so callers building
	// AxisLimits from one source don't need a second override snapshot.
	FeedOverride    int
	RapidOverride   int
	SpindleOverride int

	// Backlash is settings.Record.Backlash: the per-axis lost-motion
	// distance (mm) BufferLine takes up with a rapid compensation block
	// whenever that axis reverses direction.
	Backlash axis.Vector
}

// BufferLine computes a new block for the move from the planner's
// current position to targetMM (absolute machine millimeters) and
// appends it to the ring, recalculating the look-ahead plan. Returns
// false if the buffer is full or the move has zero step length.
func (b *Buffer) BufferLine(targetMM axis.Vector, data LineData, limits AxisLimits) bool {
	if b.Full() {
		return false
	}

	systemMotion := data.Condition&opcodes.CondSystemMotion != 0

	if !data.Backlash && !systemMotion {
		b.insertBacklash(targetMM, limits, data.FeedRate, data.SpindleSpeed, data.LineNumber)
		if b.Full() {
			return false
		}
	}

	block := &b.blocks[b.head]
	*block = Block{}
	block.Condition = data.Condition
	block.SpindleSpeed = data.SpindleSpeed * overrideFraction(limits.SpindleOverride)
	block.LineNumber = data.LineNumber
	block.Backlash = data.Backlash

	posSteps := b.position

	var targetSteps [axis.Count]int32
	var unitVec [axis.Count]float32
	for i := 0; i < axis.Count; i++ {
		targetSteps[i] = int32(math.Round(float64(targetMM[i]) * float64(limits.StepsPerMM[i])))
		steps := targetSteps[i] - posSteps[i]
		if steps < 0 {
			steps = -steps
		}
		block.Steps[i] = steps
		if steps > block.StepEventCount {
			block.StepEventCount = steps
		}
		deltaMM := float32(targetSteps[i]-posSteps[i]) / limits.StepsPerMM[i]
		unitVec[i] = deltaMM
		if deltaMM < 0 {
			block.DirectionNeg[i] = true
		}
	}

	if block.StepEventCount == 0 {
		return false
	}

	block.Millimeters = vectorLength(unitVec)
	normalize(&unitVec, block.Millimeters)
	block.Acceleration = limitByAxisMax(limits.Acceleration, unitVec)
	block.RapidRate = limitByAxisMax(limits.MaxRate, unitVec)

	if data.Condition&opcodes.CondRapidMotion != 0 {
		block.ProgrammedRate = block.RapidRate
	} else {
		block.ProgrammedRate = data.FeedRate
		if data.Condition&opcodes.CondInverseTime != 0 {
			block.ProgrammedRate *= block.Millimeters
		}
	}

	if b.Empty() || systemMotion {
		block.EntrySpeedSqr = 0
		block.MaxJunctionSpeedSqr = 0
	} else {
		block.MaxJunctionSpeedSqr = junctionSpeedSqr(b.prevUnitVec, unitVec, limits)
	}

	if !systemMotion {
		nominal := computeNominalSpeed(block, limits)
		block.NominalSpeed = nominal

		computeProfileParams(block, nominal, b.prevNominalSpd)
		b.prevNominalSpd = nominal

		b.prevUnitVec = unitVec
		b.position = targetSteps

		b.head = b.next
		b.next = b.nextIndex(b.head)
		b.recalculate()
	}

	return true
}

// insertBacklash checks each axis for a direction reversal against the
// last commanded target and, if any axis carries backlash compensation,
// queues a rapid compensation block ahead of the real move so the
// drivetrain takes up lost motion before cutting. Grounded on
// MotionControl.c's MC_Line: target_prev/dir_negative track the
// uncompensated commanded position across calls, a reversed axis bumps
// target_prev by settings.backlash[i], and the compensation move itself
// is only queued when backlash_enable (anyBacklash here) is set, even
// though direction tracking always runs.
func (b *Buffer) insertBacklash(targetMM axis.Vector, limits AxisLimits, feedRate, spindleSpeed float32, lineNumber int) {
	compTarget := b.backlashTarget
	reversed := false
	for i := 0; i < axis.Count; i++ {
		switch {
		case targetMM[i] > b.backlashTarget[i]:
			if b.backlashDirNeg[i] {
				b.backlashDirNeg[i] = false
				compTarget[i] += limits.Backlash[i]
				reversed = true
			}
		case targetMM[i] < b.backlashTarget[i]:
			if !b.backlashDirNeg[i] {
				b.backlashDirNeg[i] = true
				compTarget[i] -= limits.Backlash[i]
				reversed = true
			}
		}
	}
	b.backlashTarget = targetMM

	if !reversed || !anyBacklash(limits.Backlash) {
		return
	}

	b.BufferLine(compTarget, LineData{
		FeedRate:     feedRate,
		SpindleSpeed: spindleSpeed,
		LineNumber:   lineNumber,
		Condition:    opcodes.CondRapidMotion | opcodes.CondBacklashMotion,
		Backlash:     true,
	}, limits)
}

// anyBacklash reports whether backlash compensation is configured for any
// axis, matching MC_Init's one-time backlash_enable scan.
func anyBacklash(v axis.Vector) bool {
	for i := 0; i < axis.Count; i++ {
		if v[i] > 0.0001 {
			return true
		}
	}
	return false
}

// junctionSpeedSqr implements the half-angle cornering identity from
// original_source/grbl/Planner.c: cos(theta) from the negated dot
// product of adjacent unit vectors, then sin(theta/2) without any trig
// call.
func junctionSpeedSqr(prev, cur [axis.Count]float32, limits AxisLimits) float32 {
	var cosTheta float32
	var junctionVec [axis.Count]float32
	for i := 0; i < axis.Count; i++ {
		cosTheta -= prev[i] * cur[i]
		junctionVec[i] = cur[i] - prev[i]
	}

	minSqr := float32(MinimumJunctionSpeed * MinimumJunctionSpeed)

	if cosTheta > 0.999999 {
		return minSqr
	}
	if cosTheta < -0.999999 {
		return someLargeValue
	}

	length := vectorLength(junctionVec)
	normalize(&junctionVec, length)
	accel := limitByAxisMax(limits.Acceleration, junctionVec)
	sinThetaD2 := float32(math.Sqrt(0.5 * (1 - float64(cosTheta))))

	v := (accel * limits.JunctionDev * sinThetaD2) / (1 - sinThetaD2)
	if v < minSqr {
		return minSqr
	}
	return v
}

// overrideFraction turns a percent (100 = unscaled) into a multiplier,
// treating an unset (zero value) override as 100%: AxisLimits built
// without override awareness behaves exactly as it did before overrides
// existed.
func overrideFraction(percent int) float32 {
	if percent == 0 {
		return 1
	}
	return float32(percent) / 100
}

// computeNominalSpeed derives a block's nominal speed from its raw
// programmed rate and the live feed/rapid override percentages, matching
// Planner.c's Planner_ComputeProfileNominalSpeed: a rapid move honors
// only the rapid override, a feed move honors the feed override unless
// CondNoFeedOverride is set (jog moves, per Jog_Execute), and the result
// is clamped to the block's rapid rate and floored at MinimumFeedRate.
func computeNominalSpeed(block *Block, limits AxisLimits) float32 {
	nominal := block.ProgrammedRate
	if block.Condition&opcodes.CondRapidMotion != 0 {
		nominal *= overrideFraction(limits.RapidOverride)
	} else {
		if block.Condition&opcodes.CondNoFeedOverride == 0 {
			nominal *= overrideFraction(limits.FeedOverride)
		}
		if nominal > block.RapidRate {
			nominal = block.RapidRate
		}
	}
	if nominal > MinimumFeedRate {
		return nominal
	}
	return MinimumFeedRate
}

// Replan recomputes every queued block's nominal speed and profile
// parameters against the current limits (normally called after a
// feed/rapid override change) and flags each one with OverrideReplan,
// then reruns the reverse/forward look-ahead pass. Matches
// Planner.c's Planner_UpdateVelocityProfileParams, generalized to carry
// the live AxisLimits instead of reading global override state directly.
func (b *Buffer) Replan(limits AxisLimits) {
	if b.Empty() {
		return
	}
	prevNominal := float32(someLargeValue)
	idx := b.tail
	for idx != b.head {
		block := &b.blocks[idx]
		nominal := computeNominalSpeed(block, limits)
		computeProfileParams(block, nominal, prevNominal)
		block.NominalSpeed = nominal
		block.OverrideReplan = true
		prevNominal = nominal
		idx = b.nextIndex(idx)
	}
	b.prevNominalSpd = prevNominal
	b.planned = b.tail
	b.recalculate()
}

// computeProfileParams sets the block's max entry speed from the
// smaller of its own and the previous block's nominal speed, clamped to
// the precomputed junction limit.
func computeProfileParams(block *Block, nominalSpeed, prevNominalSpeed float32) {
	if nominalSpeed > prevNominalSpeed {
		block.MaxEntrySpeedSqr = prevNominalSpeed * prevNominalSpeed
	} else {
		block.MaxEntrySpeedSqr = nominalSpeed * nominalSpeed
	}
	if block.MaxEntrySpeedSqr > block.MaxJunctionSpeedSqr {
		block.MaxEntrySpeedSqr = block.MaxJunctionSpeedSqr
	}
}

// recalculate re-derives entry speeds for every planned block: a reverse
// pass maximizes deceleration curves back from the newest block, then a
// forward pass caps acceleration and advances the planned pointer past
// any stretch that cannot be further improved.
func (b *Buffer) recalculate() {
	blockIndex := b.prevIndex(b.head)
	if blockIndex == b.planned {
		return
	}

	current := &b.blocks[blockIndex]
	current.EntrySpeedSqr = min32(current.MaxEntrySpeedSqr, 2*current.Acceleration*current.Millimeters)

	blockIndex = b.prevIndex(blockIndex)
	if blockIndex != b.planned {
		for blockIndex != b.planned {
			next := current
			current = &b.blocks[blockIndex]
			blockIndex = b.prevIndex(blockIndex)

			if current.EntrySpeedSqr != current.MaxEntrySpeedSqr {
				entrySqr := next.EntrySpeedSqr + 2*current.Acceleration*current.Millimeters
				if entrySqr < current.MaxEntrySpeedSqr {
					current.EntrySpeedSqr = entrySqr
				} else {
					current.EntrySpeedSqr = current.MaxEntrySpeedSqr
				}
			}
		}
	}

	next := &b.blocks[b.planned]
	idx := b.nextIndex(b.planned)
	for idx != b.head {
		cur := next
		next = &b.blocks[idx]

		if cur.EntrySpeedSqr < next.EntrySpeedSqr {
			entrySqr := cur.EntrySpeedSqr + 2*cur.Acceleration*cur.Millimeters
			if entrySqr < next.EntrySpeedSqr {
				next.EntrySpeedSqr = entrySqr
				b.planned = idx
			}
		}
		if next.EntrySpeedSqr == next.MaxEntrySpeedSqr {
			b.planned = idx
		}
		idx = b.nextIndex(idx)
	}
}

func vectorLength(v [axis.Count]float32) float32 {
	var sumSq float64
	for _, c := range v {
		sumSq += float64(c) * float64(c)
	}
	return float32(math.Sqrt(sumSq))
}

func normalize(v *[axis.Count]float32, length float32) {
	if length == 0 {
		return
	}
	for i := range v {
		v[i] /= length
	}
}

// limitByAxisMax scales a maximum axis value down to the smallest value
// respected by every axis participating in the move, given its unit
// vector component (spec.md §4.3 cornering/rate-limiting rule).
func limitByAxisMax(max axis.Vector, unitVec [axis.Count]float32) float32 {
	limit := float32(math.MaxFloat32)
	for i := 0; i < axis.Count; i++ {
		if unitVec[i] == 0 {
			continue
		}
		v := max[i] / absf(unitVec[i])
		if v < limit {
			limit = v
		}
	}
	return limit
}

func absf(f float32) float32 {
	if f < 0 {
		return -f
	}
	return f
}

func min32(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}
