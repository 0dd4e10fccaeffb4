/*
 * core/toolchange - Tool change handling
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

// Package toolchange implements the M6 tool-change sequence for each of
// the four modes in settings.ToolChangeMode, grounded on
// original_source/grbl/ToolChange.c's TC_ChangeCurrentTool /
// TC_ProbeTLS split between a manual pause and an automatic probe cycle.
package toolchange

import (
	"github.com/cncmotion/core/core/axis"
	"github.com/cncmotion/core/core/gcode"
	"github.com/cncmotion/core/core/opcodes"
	"github.com/cncmotion/core/core/probe"
	"github.com/cncmotion/core/core/settings"
)

// ToolSensorOffset is the Z distance from the tool-length-sensor contact
// point to spindle gauge-line zero, matching TOOL_SENSOR_OFFSET.
const ToolSensorOffset = 70.0

// ProbeFastRate and ProbeSlowRate hold the seek/locate feed rates of
// TOOL_PROBE_FAST / TOOL_PROBE_SLOW. The semi-automatic probe cycle in
// this package applies neither of them.
const (
	ProbeFastRate = 250.0
	ProbeSlowRate = 40.0
)

// Sink submits a direct rapid move during the change sequence, satisfied
// by the same controller adapter as core/interp.MotionSink.
type Sink interface {
	BufferLine(target axis.Vector, feedRate float32, condition uint16, lineNumber int, backlash bool) bool
}

// Request describes the pending M6 invocation.
type Request struct {
	Tool           int
	CurrentMM      axis.Vector
	G59_3Position  axis.Vector
	TLSPosition    axis.Vector
	TLSValid       bool
	ToolLengthAxis int
	LineNumber     int
}

// Result reports what the caller (core/controller) must do next.
type Result struct {
	// RequirePause is true when the cycle must halt for the operator to
	// swap the physical tool and issue a cycle start, matching
	// STATE_TOOL_CHANGE in the manual modes.
	RequirePause bool
	// NewLengthOffset is populated only after a successful semi-automatic
	// probe cycle.
	NewLengthOffset float32
	Probed          bool
}

// Execute dispatches M6 according to mode. Disabled mode is a no-op
// (matching a firmware build with no tool-change support compiled in).
func Execute(sink Sink, mon *probe.Monitor, rec settings.Record, req Request) (Result, gcode.StatusCode) {
	switch rec.ToolChange {
	case settings.ToolChangeDisabled:
		return Result{}, gcode.StatusOK

	case settings.ToolChangeManual:
		return retractAndPause(sink, req)

	case settings.ToolChangeManualG59_3:
		return moveToFixedAndPause(sink, req)

	case settings.ToolChangeSemiAutomatic:
		return probeToolLength(sink, mon, rec, req)
	}
	return Result{}, gcode.StatusOK
}

// retractAndPause lifts the tool-length axis to zero before handing
// control back to the operator, matching TC_ChangeCurrentTool's
// position[TOOL_LENGTH_OFFSET_AXIS] = 0.0 retract.
func retractAndPause(sink Sink, req Request) (Result, gcode.StatusCode) {
	target := req.CurrentMM
	target[req.ToolLengthAxis] = 0
	if !sink.BufferLine(target, 0, uint16(opcodes.CondRapidMotion), req.LineNumber, false) {
		return Result{}, gcode.StatusGcodeInvalidTarget
	}
	return Result{RequirePause: true}, gcode.StatusOK
}

// moveToFixedAndPause additionally parks at the fixed G59.3 tool-change
// position before pausing, matching the ManualG59_3 mode.
func moveToFixedAndPause(sink Sink, req Request) (Result, gcode.StatusCode) {
	res, status := retractAndPause(sink, req)
	if status != gcode.StatusOK {
		return res, status
	}
	if !sink.BufferLine(req.G59_3Position, 0, uint16(opcodes.CondRapidMotion), req.LineNumber, false) {
		return Result{}, gcode.StatusGcodeInvalidTarget
	}
	return Result{RequirePause: true}, gcode.StatusOK
}

// probeToolLength rapids to the tool-length-sensor XY, then probes down
// with the monitor to measure the new tool's length offset. Where
// TC_ProbeTLS seeks fast and then locates slow, this makes a single
// probing pass, and no feed rate is given to it (probe.Monitor.Run takes
// none).
func probeToolLength(sink Sink, mon *probe.Monitor, rec settings.Record, req Request) (Result, gcode.StatusCode) {
	if !req.TLSValid {
		return Result{}, gcode.StatusGcodeValueWordMissing
	}

	approach := req.TLSPosition
	approach[req.ToolLengthAxis] = 0
	if !sink.BufferLine(approach, 0, uint16(opcodes.CondRapidMotion), req.LineNumber, false) {
		return Result{}, gcode.StatusGcodeInvalidTarget
	}

	var steps [axis.Count]int32
	steps[req.ToolLengthAxis] = int32(2 * ToolSensorOffset * rec.StepsPerMM[req.ToolLengthAxis])
	var dir [axis.Count]bool
	dir[req.ToolLengthAxis] = true

	res, err := mon.Run(steps, dir, true)
	if err != nil {
		return Result{}, gcode.StatusGcodeInvalidTarget
	}

	traveledMM := float32(-res.Position[req.ToolLengthAxis]) / rec.StepsPerMM[req.ToolLengthAxis]
	return Result{
		Probed:          true,
		NewLengthOffset: ToolSensorOffset - traveledMM,
	}, gcode.StatusOK
}
