/*
 * core/opcodes - G/M word and modal-group constant tables
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

// Package opcodes holds the constant tables the parser and interpreter
// dispatch on: modal group numbers, the enumerated G/M codes, and the
// per-word-letter modal group membership used to reject blocks with two
// words from the same group (spec.md §4.1).
package opcodes

// Modal groups, matching original_source/grbl/GCode.c's MODAL_GROUP_* enum.
const (
	ModalGroupG0  = iota // Non-modal (G4, G10, G28, G30, G53, G92, G92.1...)
	ModalGroupG1         // Motion (G0/G1/G2/G3/G38.x/G73/G76/G80/G81..G83)
	ModalGroupG2         // Plane select (G17/G18/G19)
	ModalGroupG3         // Distance mode (G90/G91)
	ModalGroupG4         // Feed rate mode (G93/G94)
	ModalGroupG5         // Units (G20/G21)
	ModalGroupG6         // Cutter length comp (G40/G43/G43.1/G49)
	ModalGroupG7         // Tool length offset -- combined with G6 in practice
	ModalGroupG8         // Program flow (M0/M1/M2/M30)
	ModalGroupG10        // Active WCS select (G54..G59)
	ModalGroupG12        // Spindle state (M3/M4/M5)
	ModalGroupG13        // Coolant state (M7/M8/M9)
	ModalGroupG14        // Override control (M48/M49/M56)
	ModalGroupM4         // Tool change mode placeholder (M6)
	modalGroupCount
)

// ModalGroupCount is the number of distinct modal groups tracked per
// block.
const ModalGroupCount = modalGroupCount

// Motion modes (modal group G1).
const (
	MotionRapid = iota
	MotionLinear
	MotionArcCW
	MotionArcCCW
	MotionProbeToward
	MotionProbeTowardNoError
	MotionProbeAway
	MotionProbeAwayNoError
	MotionDrillG81
	MotionDrillG82
	MotionDrillG83PeckDrill
	MotionDrillG73ChipBreak
	MotionThreadG33
	MotionCannedCycleG76
	MotionNone // G80
)

// Plane select (modal group G2).
const (
	PlaneXY = iota
	PlaneZX
	PlaneYZ
)

// Distance mode (modal group G3).
const (
	DistanceAbsolute = iota
	DistanceIncremental
)

// Feed rate mode (modal group G4).
const (
	FeedRateUnitsPerMinute = iota
	FeedRateInverseTime
)

// Units (modal group G5).
const (
	UnitsMM = iota
	UnitsInches
)

// Cutter/tool length offset mode (modal groups G6/G7).
const (
	TLOCancel = iota
	TLOEnableDynamic // G43.1
	TLOEnable        // G43
)

// Program flow (modal group G8).
const (
	ProgramFlowNone = iota
	ProgramFlowPaused  // M0
	ProgramFlowOptStop // M1
	ProgramFlowCompleted
)

// Spindle state (modal group G12).
const (
	SpindleDisable = iota
	SpindleEnableCW
	SpindleEnableCCW
)

// Coolant state bits (modal group G13; both may be set simultaneously).
const (
	CoolantFlood uint8 = 1 << iota
	CoolantMist
)

// Override control (modal group G14).
const (
	OverrideDisabled = iota
	OverrideParkingMotion
)

// Retract mode, non-modal but tracked alongside plane/units.
const (
	RetractOldZ = iota // G98
	RetractClearR      // G99
)

// Spindle speed mode (RPM vs constant surface speed, lathe only).
const (
	SpindleRPMMode = iota
	SpindleSurfaceSpeedMode
)

// Block condition bits (spec.md §3 MotionBlock.condition).
const (
	CondRapidMotion uint16 = 1 << iota
	CondSystemMotion
	CondNoFeedOverride
	CondInverseTime
	CondSpindleCW
	CondSpindleCCW
	CondCoolantFlood
	CondCoolantMist
	CondBacklashMotion
)

// Word is a single parsed `<letter><value>` token.
type Word struct {
	Letter byte
	Value  float64
}

// wordModalGroup maps a normalized command word ("G1", "G38.2", "M3") to
// its modal group. Fractional G-codes have their own string keys, so no
// floating point comparison is needed.
var wordModalGroup = map[string]int{
	"G0":    ModalGroupG1,
	"G1":    ModalGroupG1,
	"G2":    ModalGroupG1,
	"G3":    ModalGroupG1,
	"G4":    ModalGroupG0,
	"G10":   ModalGroupG0,
	"G17":   ModalGroupG2,
	"G18":   ModalGroupG2,
	"G19":   ModalGroupG2,
	"G20":   ModalGroupG5,
	"G21":   ModalGroupG5,
	"G28":   ModalGroupG0,
	"G28.1": ModalGroupG0,
	"G30":   ModalGroupG0,
	"G30.1": ModalGroupG0,
	"G33":   ModalGroupG1,
	"G38.2": ModalGroupG1,
	"G38.3": ModalGroupG1,
	"G38.4": ModalGroupG1,
	"G38.5": ModalGroupG1,
	"G40":   ModalGroupG6,
	"G43":   ModalGroupG6,
	"G43.1": ModalGroupG6,
	"G49":   ModalGroupG6,
	"G53":   ModalGroupG0,
	"G54":   ModalGroupG10,
	"G55":   ModalGroupG10,
	"G56":   ModalGroupG10,
	"G57":   ModalGroupG10,
	"G58":   ModalGroupG10,
	"G59":   ModalGroupG10,
	"G61":   ModalGroupG0, // path control, tracked but not enforced beyond exact-stop
	"G73":   ModalGroupG1,
	"G76":   ModalGroupG1,
	"G80":   ModalGroupG1,
	"G81":   ModalGroupG1,
	"G82":   ModalGroupG1,
	"G83":   ModalGroupG1,
	"G90":   ModalGroupG3,
	"G91":   ModalGroupG3,
	"G92":   ModalGroupG0,
	"G92.1": ModalGroupG0,
	"G93":   ModalGroupG4,
	"G94":   ModalGroupG4,
	"G96":   ModalGroupG14, // surface speed mode, shares override-adjacent slot
	"G97":   ModalGroupG14,
	"G98":   ModalGroupG0,
	"G99":   ModalGroupG0,
	"G7":    ModalGroupG0, // lathe diameter mode
	"G8":    ModalGroupG0,
	"M0":    ModalGroupG8,
	"M1":    ModalGroupG8,
	"M2":    ModalGroupG8,
	"M30":   ModalGroupG8,
	"M3":    ModalGroupG12,
	"M4":    ModalGroupG12,
	"M5":    ModalGroupG12,
	"M6":    ModalGroupM4,
	"M7":    ModalGroupG13,
	"M8":    ModalGroupG13,
	"M9":    ModalGroupG13,
	"M48":   ModalGroupG14,
	"M49":   ModalGroupG14,
	"M56":   ModalGroupG14,
	"M61":   ModalGroupM4,
}

// ModalGroupOf returns the modal group for a normalized "G1"/"G38.2"/"M3"
// style code string, and whether that code is recognized at all.
func ModalGroupOf(code string) (int, bool) {
	g, ok := wordModalGroup[code]
	return g, ok
}

// FractionalGCodes is the set of G-codes accepted with a non-integer
// mantissa (spec.md §4.1 item 2).
var FractionalGCodes = map[string]bool{
	"G38.2": true,
	"G38.3": true,
	"G38.4": true,
	"G38.5": true,
	"G43.1": true,
	"G91.1": true,
	"G92.1": true,
	"G28.1": true,
	"G30.1": true,
}
