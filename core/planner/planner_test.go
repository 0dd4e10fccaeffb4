/*
 * core/planner - Planner test set.
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

package planner

import (
	"testing"

	"github.com/cncmotion/core/core/axis"
	"github.com/cncmotion/core/core/opcodes"
)

func testLimits() AxisLimits {
	return AxisLimits{
		StepsPerMM:   axis.Vector{250, 250, 250, 250, 250},
		Acceleration: axis.Vector{10, 10, 10, 10, 10},
		MaxRate:      axis.Vector{500, 500, 500, 500, 500},
		JunctionDev:  0.01,
	}
}

func TestBufferLineAppendsAndAdvancesHead(t *testing.T) {
	b := New()
	limits := testLimits()
	ok := b.BufferLine(axis.Vector{10, 0, 0, 0, 0}, LineData{FeedRate: 200}, limits)
	if !ok {
		t.Fatalf("BufferLine rejected a valid move")
	}
	if b.Empty() {
		t.Fatalf("buffer empty after append")
	}
	block := b.Current()
	if block.StepEventCount != 2500 {
		t.Errorf("StepEventCount = %d, want 2500", block.StepEventCount)
	}
}

func TestBufferLineRejectsZeroLength(t *testing.T) {
	b := New()
	ok := b.BufferLine(axis.Vector{}, LineData{FeedRate: 200}, testLimits())
	if ok {
		t.Errorf("expected zero-length move to be rejected")
	}
	if !b.Empty() {
		t.Errorf("buffer should remain empty after rejected move")
	}
}

func TestFirstBlockStartsFromZeroEntrySpeed(t *testing.T) {
	b := New()
	b.BufferLine(axis.Vector{10, 0, 0, 0, 0}, LineData{FeedRate: 200}, testLimits())
	block := b.Current()
	if block.EntrySpeedSqr != 0 {
		t.Errorf("first block entry speed sqr = %v, want 0", block.EntrySpeedSqr)
	}
}

func TestStraightJunctionGetsMaximalSpeed(t *testing.T) {
	b := New()
	limits := testLimits()
	b.BufferLine(axis.Vector{10, 0, 0, 0, 0}, LineData{FeedRate: 200}, limits)
	b.BufferLine(axis.Vector{20, 0, 0, 0, 0}, LineData{FeedRate: 200}, limits)

	// The second block's max junction speed should reflect a straight
	// (0-degree turn) junction: effectively unlimited by cornering.
	idx := b.nextIndex(b.tail)
	second := &b.blocks[idx]
	if second.MaxJunctionSpeedSqr < someLargeValue/2 {
		t.Errorf("straight junction speed sqr = %v, want near someLargeValue", second.MaxJunctionSpeedSqr)
	}
}

func TestSharpCornerLimitsJunctionSpeed(t *testing.T) {
	b := New()
	limits := testLimits()
	b.BufferLine(axis.Vector{10, 0, 0, 0, 0}, LineData{FeedRate: 200}, limits)
	b.BufferLine(axis.Vector{10, 10, 0, 0, 0}, LineData{FeedRate: 200}, limits)

	idx := b.nextIndex(b.tail)
	second := &b.blocks[idx]
	if second.MaxJunctionSpeedSqr >= someLargeValue/2 {
		t.Errorf("90 degree corner should be speed limited, got %v", second.MaxJunctionSpeedSqr)
	}
}

func TestDiscardAdvancesTail(t *testing.T) {
	b := New()
	limits := testLimits()
	b.BufferLine(axis.Vector{10, 0, 0, 0, 0}, LineData{FeedRate: 200}, limits)
	b.BufferLine(axis.Vector{20, 0, 0, 0, 0}, LineData{FeedRate: 200}, limits)
	b.Discard()
	if b.Empty() {
		t.Fatalf("buffer should still have one block")
	}
	b.Discard()
	if !b.Empty() {
		t.Errorf("buffer should be empty after discarding both blocks")
	}
}

func TestBacklashInsertsCompensationBlockOnReversal(t *testing.T) {
	b := New()
	limits := testLimits()
	limits.Backlash = axis.Vector{0.5, 0, 0, 0, 0}

	b.BufferLine(axis.Vector{-10, 0, 0, 0, 0}, LineData{FeedRate: 200}, limits)
	b.BufferLine(axis.Vector{10, 0, 0, 0, 0}, LineData{FeedRate: 200}, limits)

	if got := b.Len(); got != 3 {
		t.Fatalf("Len() = %d, want 3 (real move, backlash compensation, real move)", got)
	}

	comp := &b.blocks[b.nextIndex(b.tail)]
	if !comp.Backlash {
		t.Errorf("middle block Backlash = false, want true")
	}
	if comp.Condition&opcodes.CondBacklashMotion == 0 {
		t.Errorf("compensation block missing CondBacklashMotion")
	}
	if comp.Condition&opcodes.CondRapidMotion == 0 {
		t.Errorf("compensation block missing CondRapidMotion")
	}

	last := &b.blocks[b.prevIndex(b.head)]
	if last.Backlash {
		t.Errorf("trailing real block should not carry Backlash")
	}
}

func TestBacklashNotInsertedWithoutConfiguredBacklash(t *testing.T) {
	b := New()
	limits := testLimits()

	b.BufferLine(axis.Vector{-10, 0, 0, 0, 0}, LineData{FeedRate: 200}, limits)
	b.BufferLine(axis.Vector{10, 0, 0, 0, 0}, LineData{FeedRate: 200}, limits)

	if got := b.Len(); got != 2 {
		t.Fatalf("Len() = %d, want 2 (no backlash configured, no compensation block)", got)
	}
}

func TestBacklashNotInsertedWithoutDirectionReversal(t *testing.T) {
	b := New()
	limits := testLimits()
	limits.Backlash = axis.Vector{0.5, 0, 0, 0, 0}

	b.BufferLine(axis.Vector{-10, 0, 0, 0, 0}, LineData{FeedRate: 200}, limits)
	b.BufferLine(axis.Vector{-20, 0, 0, 0, 0}, LineData{FeedRate: 200}, limits)

	if got := b.Len(); got != 2 {
		t.Fatalf("Len() = %d, want 2 (same direction, no compensation block)", got)
	}
}

func TestBufferFullRejectsAppend(t *testing.T) {
	b := New()
	limits := testLimits()
	var ok bool
	for i := 0; i < BufferSize+2; i++ {
		ok = b.BufferLine(axis.Vector{float32(i + 1), 0, 0, 0, 0}, LineData{FeedRate: 200}, limits)
	}
	if ok {
		t.Errorf("expected buffer to reject append once full")
	}
}
