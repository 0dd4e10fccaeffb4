/*
 * core/jog - Jog motion
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

// Package jog validates and submits a single jog move ($J=...), bypassing
// the ordinary modal-state bookkeeping of core/interp: jogging is always
// an absolute-or-incremental single line, feed overrides never apply to
// it, and it is rejected outright if it would cross a soft limit.
package jog

import (
	"github.com/cncmotion/core/core/axis"
	"github.com/cncmotion/core/core/gcode"
	"github.com/cncmotion/core/core/opcodes"
	"github.com/cncmotion/core/core/settings"
)

// Sink submits a planned jog move; satisfied by a core/controller
// adapter over planner.Buffer the same way core/interp.MotionSink is.
type Sink interface {
	BufferLine(target axis.Vector, feedRate float32, condition uint16, lineNumber int, backlash bool) bool
}

// Request describes a single validated jog command.
type Request struct {
	Target     axis.Vector
	FeedRate   float32
	LineNumber int
}

// Execute checks target against soft limits when enabled and submits the
// move with CondNoFeedOverride set, matching Jog_Execute's
// PL_COND_FLAG_NO_FEED_OVERRIDE.
func Execute(sink Sink, rec settings.Record, req Request) gcode.StatusCode {
	if rec.Flags&settings.FlagSoftLimitsEnable != 0 {
		if exceedsTravel(req.Target, rec.MaxTravel) {
			return gcode.StatusTravelExceeded
		}
	}

	condition := uint16(opcodes.CondNoFeedOverride)
	if !sink.BufferLine(req.Target, req.FeedRate, condition, req.LineNumber, false) {
		return gcode.StatusGcodeInvalidTarget
	}
	return gcode.StatusOK
}

// exceedsTravel reports whether target falls outside the machine's
// negative-direction travel envelope, matching
// System_CheckTravelLimits: MaxTravel entries are negative bounds
// measured from machine zero.
func exceedsTravel(target axis.Vector, maxTravel axis.Vector) bool {
	for i := 0; i < axis.Count; i++ {
		if target[i] > 0 || target[i] < maxTravel[i] {
			return true
		}
	}
	return false
}
