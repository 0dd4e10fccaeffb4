/*
 * core/interp - G-code interpreter
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

// Package interp holds the modal g-code interpreter: it consumes a
// gcode.Block and applies its effects in the canonical RS274/NGC order
// (non-modal actions, feed/speed/tool words, plane/units/TLO/coordinate
// selection, then motion), submitting resolved linear moves to a
// MotionSink. Arc and canned-cycle moves are decomposed into one or more
// linear submissions here, exactly as original_source/grbl/MotionControl.c
// does before handing off to the planner.
package interp

import (
	"math"

	"github.com/cncmotion/core/core/axis"
	"github.com/cncmotion/core/core/gcode"
	"github.com/cncmotion/core/core/opcodes"
	"github.com/cncmotion/core/core/settings"
)

// MotionSink receives fully resolved linear moves in absolute machine
// millimeters. core/controller's motion adapter implements it on top of
// core/planner.Buffer, so the interpreter never depends on planner
// internals.
type MotionSink interface {
	BufferLine(target axis.Vector, feedRate float32, condition uint16, lineNumber int, backlash bool) bool
}

// State is the interpreter's modal g-code state: every setting that
// persists from block to block until explicitly changed.
type State struct {
	MotionMode   int
	Plane        int
	Distance     int
	FeedMode     int
	Units        int
	TLOMode      int
	ProgramFlow  int
	Spindle      int
	Coolant      uint8
	Retract      int
	ActiveWCS    int // settings.WCS_G54 .. settings.WCS_G59

	Feed         float32
	SpindleSpeed float32
	ToolSelected int

	Position       axis.Vector // current machine position, mm
	ToolLengthOffs float32     // active Z tool length offset, mm
	G92Offset      axis.Vector
}

// NewState returns the interpreter's power-on default modal state,
// matching spec.md §4.2: G0 G17 G21 G90 G94 G54 M5 M9.
func NewState() State {
	return State{
		MotionMode: opcodes.MotionRapid,
		Plane:      opcodes.PlaneXY,
		Distance:   opcodes.DistanceAbsolute,
		FeedMode:   opcodes.FeedRateUnitsPerMinute,
		Units:      opcodes.UnitsMM,
		TLOMode:    opcodes.TLOCancel,
		Spindle:    opcodes.SpindleDisable,
		ActiveWCS:  settings.WCS_G54,
	}
}

// ToolChanger runs M6's tool-swap sequence for the currently selected
// tool, returning a new Z tool length offset to apply when applied is
// true (matching core/toolchange's semi-automatic probe result).
type ToolChanger interface {
	ChangeTool(tool int) (offset float32, applied bool, status gcode.StatusCode)
}

// Interp binds a modal State to the settings/coordinate data it reads
// target positions against and the sink it submits resolved motion to.
type Interp struct {
	State   State
	Coords  *settings.CoordinateSystems
	Sink    MotionSink
	Changer ToolChanger // nil: M6 is a no-op, matching a build with no tool changer compiled in.
}

// New wires an interpreter to its coordinate table and motion sink,
// starting from power-on defaults.
func New(coords *settings.CoordinateSystems, sink MotionSink) *Interp {
	return &Interp{State: NewState(), Coords: coords, Sink: sink}
}

// mmPerInch converts inch-mode value words to millimeters.
const mmPerInch = 25.4

// Execute applies one parsed block's modal and motion effects in
// canonical order, returning the first error encountered.
func (ip *Interp) Execute(b *gcode.Block) gcode.StatusCode {
	if len(b.AxisWords) == 0 && len(b.GCodes) == 0 && len(b.MCodes) == 0 && len(b.Values) == 0 {
		return gcode.StatusOK
	}

	for _, code := range b.GCodes {
		if status := ip.applyGCode(code); status != gcode.StatusOK {
			return status
		}
	}

	for _, code := range b.MCodes {
		if status := ip.applyMCode(code); status != gcode.StatusOK {
			return status
		}
	}

	if f, ok := b.Values['F']; ok {
		ip.State.Feed = ip.unitize(float32(f))
	}
	if s, ok := b.Values['S']; ok {
		ip.State.SpindleSpeed = float32(s)
	}
	if t, ok := b.Values['T']; ok {
		ip.State.ToolSelected = int(t)
	}

	nonModalAxisUse := false
	for _, code := range b.GCodes {
		if code == "G92" {
			ip.applyG92(b)
			nonModalAxisUse = true
		}
	}

	if len(b.AxisWords) == 0 || nonModalAxisUse {
		return gcode.StatusOK
	}

	target := ip.resolveTarget(b)

	if ip.State.MotionMode == opcodes.MotionNone {
		return gcode.StatusGcodeAxisWordsExist
	}

	return ip.executeMotion(b, target)
}

// unitize converts a raw value word into millimeters if the active
// units mode is inches.
func (ip *Interp) unitize(v float32) float32 {
	if ip.State.Units == opcodes.UnitsInches {
		return v * mmPerInch
	}
	return v
}

// resolveTarget computes the absolute machine-space target position for
// this block: present axis words override the current position
// (absolute mode) or add to it (incremental mode), expressed through
// the active work coordinate system and G92 offset.
func (ip *Interp) resolveTarget(b *gcode.Block) axis.Vector {
	target := ip.State.Position
	wcs := ip.Coords.Slots[ip.State.ActiveWCS]

	for letter, v := range b.AxisWords {
		idx := axisIndex(letter)
		if idx < 0 {
			continue
		}
		value := ip.unitize(float32(v))
		if ip.State.Distance == opcodes.DistanceIncremental {
			target[idx] = ip.State.Position[idx] + value
		} else {
			target[idx] = value + wcs[idx] + ip.State.G92Offset[idx]
		}
	}
	return target
}

func axisIndex(letter byte) int {
	switch letter {
	case 'X':
		return axis.X
	case 'Y':
		return axis.Y
	case 'Z':
		return axis.Z
	case 'A':
		return axis.A
	case 'B':
		return axis.B
	}
	return -1
}

// applyGCode applies one non-motion modal G-code's effect, and records
// motion-mode selections into State.MotionMode for executeMotion to use.
func (ip *Interp) applyGCode(code string) gcode.StatusCode {
	switch code {
	case "G0":
		ip.State.MotionMode = opcodes.MotionRapid
	case "G1":
		ip.State.MotionMode = opcodes.MotionLinear
	case "G2":
		ip.State.MotionMode = opcodes.MotionArcCW
	case "G3":
		ip.State.MotionMode = opcodes.MotionArcCCW
	case "G33":
		ip.State.MotionMode = opcodes.MotionThreadG33
	case "G38.2":
		ip.State.MotionMode = opcodes.MotionProbeToward
	case "G38.3":
		ip.State.MotionMode = opcodes.MotionProbeTowardNoError
	case "G38.4":
		ip.State.MotionMode = opcodes.MotionProbeAway
	case "G38.5":
		ip.State.MotionMode = opcodes.MotionProbeAwayNoError
	case "G73":
		ip.State.MotionMode = opcodes.MotionDrillG73ChipBreak
	case "G76":
		ip.State.MotionMode = opcodes.MotionCannedCycleG76
	case "G80":
		ip.State.MotionMode = opcodes.MotionNone
	case "G81":
		ip.State.MotionMode = opcodes.MotionDrillG81
	case "G82":
		ip.State.MotionMode = opcodes.MotionDrillG82
	case "G83":
		ip.State.MotionMode = opcodes.MotionDrillG83PeckDrill

	case "G17":
		ip.State.Plane = opcodes.PlaneXY
	case "G18":
		ip.State.Plane = opcodes.PlaneZX
	case "G19":
		ip.State.Plane = opcodes.PlaneYZ

	case "G20":
		ip.State.Units = opcodes.UnitsInches
	case "G21":
		ip.State.Units = opcodes.UnitsMM

	case "G90":
		ip.State.Distance = opcodes.DistanceAbsolute
	case "G91":
		ip.State.Distance = opcodes.DistanceIncremental

	case "G93":
		ip.State.FeedMode = opcodes.FeedRateInverseTime
	case "G94":
		ip.State.FeedMode = opcodes.FeedRateUnitsPerMinute

	case "G98":
		ip.State.Retract = opcodes.RetractOldZ
	case "G99":
		ip.State.Retract = opcodes.RetractClearR

	case "G40":
		// Cutter radius compensation cancel; G41/G42 are not supported.
	case "G43":
		ip.State.TLOMode = opcodes.TLOEnable
	case "G43.1":
		ip.State.TLOMode = opcodes.TLOEnableDynamic
	case "G49":
		ip.State.TLOMode = opcodes.TLOCancel
		ip.State.ToolLengthOffs = 0

	case "G54":
		ip.State.ActiveWCS = settings.WCS_G54
	case "G55":
		ip.State.ActiveWCS = settings.WCS_G55
	case "G56":
		ip.State.ActiveWCS = settings.WCS_G56
	case "G57":
		ip.State.ActiveWCS = settings.WCS_G57
	case "G58":
		ip.State.ActiveWCS = settings.WCS_G58
	case "G59":
		ip.State.ActiveWCS = settings.WCS_G59

	case "G92.1":
		ip.State.G92Offset = axis.Vector{}

	case "G4", "G10", "G28", "G28.1", "G30", "G30.1", "G53", "G61":
		// Accepted and otherwise ignored: there is no dwell, no G10 offset
		// write, no G28/G30 reference move or store, and G53 does not
		// switch the block to machine coordinates. Any axis words on the
		// block are handled as an ordinary move in the current motion
		// mode (path control mode G61 has nothing else to track).
	}
	return gcode.StatusOK
}

// applyG92 sets the G92 offset so that the current machine position maps
// to the given axis values in the active work coordinate system,
// without commanding any motion (original_source/grbl/GCode.c's G92
// handling, step 19).
func (ip *Interp) applyG92(b *gcode.Block) {
	wcs := ip.Coords.Slots[ip.State.ActiveWCS]
	for letter, v := range b.AxisWords {
		idx := axisIndex(letter)
		if idx < 0 {
			continue
		}
		value := ip.unitize(float32(v))
		ip.State.G92Offset[idx] = ip.State.Position[idx] - wcs[idx] - value
	}
}

func (ip *Interp) applyMCode(code string) gcode.StatusCode {
	switch code {
	case "M3":
		ip.State.Spindle = opcodes.SpindleEnableCW
	case "M4":
		ip.State.Spindle = opcodes.SpindleEnableCCW
	case "M5":
		ip.State.Spindle = opcodes.SpindleDisable
	case "M7":
		ip.State.Coolant |= opcodes.CoolantMist
	case "M8":
		ip.State.Coolant |= opcodes.CoolantFlood
	case "M9":
		ip.State.Coolant = 0
	case "M0":
		ip.State.ProgramFlow = opcodes.ProgramFlowPaused
	case "M1":
		ip.State.ProgramFlow = opcodes.ProgramFlowOptStop
	case "M2", "M30":
		ip.State.ProgramFlow = opcodes.ProgramFlowCompleted
		ip.State = NewState()
	case "M6":
		if ip.Changer == nil {
			return gcode.StatusOK
		}
		offset, applied, status := ip.Changer.ChangeTool(ip.State.ToolSelected)
		if status != gcode.StatusOK {
			return status
		}
		if applied {
			ip.State.ToolLengthOffs = offset
		}
	}
	return gcode.StatusOK
}

func (ip *Interp) motionCondition() uint16 {
	var c uint16
	switch ip.State.MotionMode {
	case opcodes.MotionRapid:
		c |= opcodes.CondRapidMotion
	}
	if ip.State.FeedMode == opcodes.FeedRateInverseTime {
		c |= opcodes.CondInverseTime
	}
	switch ip.State.Spindle {
	case opcodes.SpindleEnableCW:
		c |= opcodes.CondSpindleCW
	case opcodes.SpindleEnableCCW:
		c |= opcodes.CondSpindleCCW
	}
	if ip.State.Coolant&opcodes.CoolantFlood != 0 {
		c |= opcodes.CondCoolantFlood
	}
	if ip.State.Coolant&opcodes.CoolantMist != 0 {
		c |= opcodes.CondCoolantMist
	}
	return c
}

// executeMotion dispatches the active motion mode: a straight line, an
// arc (decomposed into chord segments), or a canned drilling cycle
// (decomposed into its rapid/feed/retract phases).
func (ip *Interp) executeMotion(b *gcode.Block, target axis.Vector) gcode.StatusCode {
	switch ip.State.MotionMode {
	case opcodes.MotionRapid, opcodes.MotionLinear, opcodes.MotionThreadG33:
		ip.submit(target, b.LineNumber)
		ip.State.Position = target
	case opcodes.MotionArcCW, opcodes.MotionArcCCW:
		if status := ip.executeArc(b, target); status != gcode.StatusOK {
			return status
		}
	case opcodes.MotionDrillG81, opcodes.MotionDrillG82, opcodes.MotionDrillG83PeckDrill, opcodes.MotionDrillG73ChipBreak:
		ip.executeCannedCycle(b, target)
	case opcodes.MotionProbeToward, opcodes.MotionProbeTowardNoError, opcodes.MotionProbeAway, opcodes.MotionProbeAwayNoError:
		// Probe moves are resolved by core/probe, which owns the stop
		// condition; the interpreter only submits the requested target.
		ip.submit(target, b.LineNumber)
		ip.State.Position = target
	case opcodes.MotionCannedCycleG76:
		ip.submit(target, b.LineNumber)
		ip.State.Position = target
	}
	return gcode.StatusOK
}

func (ip *Interp) submit(target axis.Vector, lineNumber int) {
	if ip.Sink == nil {
		return
	}
	ip.Sink.BufferLine(target, ip.State.Feed, ip.motionCondition(), lineNumber, false)
}

// executeArc decomposes a G2/G3 arc specified by IJK center offsets (or
// by an R radius, which it hands to executeArcByRadius) into a sequence
// of short chords, each within ArcTolerance of the true
// curve, matching original_source/grbl/MotionControl.c's mc_arc.
func (ip *Interp) executeArc(b *gcode.Block, target axis.Vector) gcode.StatusCode {
	var u, v int
	switch ip.State.Plane {
	case opcodes.PlaneXY:
		u, v = axis.X, axis.Y
	case opcodes.PlaneZX:
		u, v = axis.Z, axis.X
	case opcodes.PlaneYZ:
		u, v = axis.Y, axis.Z
	}

	i, hasI := b.Values['I']
	j, hasJ := b.Values['J']
	if !hasI {
		i = 0
	}
	if !hasJ {
		j = 0
	}
	if _, r, hasR := findR(b); hasR {
		return ip.executeArcByRadius(target, u, v, r, b.LineNumber)
	}

	center := ip.State.Position
	center[u] += ip.unitize(float32(i))
	center[v] += ip.unitize(float32(j))

	return ip.decomposeArc(center, target, u, v, b.LineNumber)
}

func findR(b *gcode.Block) (float64, float64, bool) {
	r, ok := b.Values['R']
	return 0, r, ok
}

func (ip *Interp) executeArcByRadius(target axis.Vector, u, v int, r float64, lineNumber int) gcode.StatusCode {
	start := ip.State.Position
	dx := float64(target[u] - start[u])
	dy := float64(target[v] - start[v])
	dist := math.Hypot(dx, dy)
	if dist == 0 {
		return gcode.StatusGcodeArcRadiusError
	}
	radius := ip.unitize(float32(r))
	h := math.Sqrt(math.Max(0, float64(radius)*float64(radius)-(dist/2)*(dist/2)))
	mx, my := (float64(start[u])+float64(target[u]))/2, (float64(start[v])+float64(target[v]))/2
	// Perpendicular offset direction depends on CW/CCW and radius sign;
	// choose the offset that keeps the documented Grbl convention of a
	// minor arc for positive R.
	sign := 1.0
	if ip.State.MotionMode == opcodes.MotionArcCW {
		sign = -1.0
	}
	if r < 0 {
		sign = -sign
	}
	ux, uy := -dy/dist, dx/dist
	var center axis.Vector = start
	center[u] = float32(mx + sign*h*ux)
	center[v] = float32(my + sign*h*uy)
	return ip.decomposeArc(center, target, u, v, lineNumber)
}

// decomposeArc walks from the current position to target around center
// in the u/v plane, emitting chords no longer than ArcTolerance allows.
func (ip *Interp) decomposeArc(center, target axis.Vector, u, v, lineNumber int) gcode.StatusCode {
	start := ip.State.Position
	r := math.Hypot(float64(start[u]-center[u]), float64(start[v]-center[v]))
	if r == 0 {
		return gcode.StatusGcodeArcRadiusError
	}

	startAngle := math.Atan2(float64(start[v]-center[v]), float64(start[u]-center[u]))
	endAngle := math.Atan2(float64(target[v]-center[v]), float64(target[u]-center[u]))

	ccw := ip.State.MotionMode == opcodes.MotionArcCCW
	sweep := endAngle - startAngle
	if ccw {
		for sweep <= 0 {
			sweep += 2 * math.Pi
		}
	} else {
		for sweep >= 0 {
			sweep -= 2 * math.Pi
		}
	}

	const arcTolerance = 0.002 // mm, matches settings.Default().ArcTolerance
	segmentAngle := 2 * math.Acos(1-arcTolerance/r)
	if segmentAngle <= 0 || math.IsNaN(segmentAngle) {
		segmentAngle = math.Pi / 180
	}
	segments := int(math.Abs(sweep) / segmentAngle)
	if segments < 1 {
		segments = 1
	}

	for n := 1; n <= segments; n++ {
		angle := startAngle + sweep*float64(n)/float64(segments)
		point := start
		point[u] = center[u] + float32(r*math.Cos(angle))
		point[v] = center[v] + float32(r*math.Sin(angle))
		if n == segments {
			point = target
		}
		ip.submit(point, lineNumber)
		ip.State.Position = point
	}
	return gcode.StatusOK
}

// executeCannedCycle decomposes G81/G82/G83/G73 into rapid-to-R, feed-to-Z
// (optionally pecked for G83/G73), then retract, per
// original_source/grbl/MotionControl.c's canned cycle handling.
func (ip *Interp) executeCannedCycle(b *gcode.Block, target axis.Vector) {
	r, hasR := b.Values['R']
	if !hasR {
		r = float64(ip.State.Position[axis.Z])
	}
	rZ := ip.unitize(float32(r))
	peck, hasPeck := b.Values['Q']

	rapidAbove := ip.State.Position
	rapidAbove[axis.Z] = rZ
	ip.submit(rapidAbove, b.LineNumber)

	if hasPeck && peck > 0 {
		depthStep := ip.unitize(float32(peck))
		z := rZ
		for z > target[axis.Z] {
			z -= depthStep
			if z < target[axis.Z] {
				z = target[axis.Z]
			}
			point := rapidAbove
			point[axis.Z] = z
			ip.submit(point, b.LineNumber)
			retract := point
			retract[axis.Z] = rZ
			ip.submit(retract, b.LineNumber)
		}
	} else {
		bottom := rapidAbove
		bottom[axis.Z] = target[axis.Z]
		ip.submit(bottom, b.LineNumber)
	}

	final := target
	if ip.State.Retract == opcodes.RetractOldZ {
		final[axis.Z] = ip.State.Position[axis.Z]
		if rZ > final[axis.Z] {
			final[axis.Z] = rZ
		}
	} else {
		final[axis.Z] = rZ
	}
	ip.submit(final, b.LineNumber)
	ip.State.Position = final
}
