/*
 * core/gcode - Parser/interpreter status code enumeration
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

package gcode

import "strconv"

// StatusCode is the parser/interpreter error enum reported to the sender
// as `error:<N>` (spec.md §6, §7). Zero always means success.
type StatusCode int

const (
	StatusOK StatusCode = iota
	StatusExpectedCommandLetter
	StatusBadNumberFormat
	StatusInvalidStatement
	StatusNegativeValue
	StatusSettingDisabled
	StatusSettingStepPulseMin
	StatusSettingReadFail
	StatusIdleError
	StatusSystemGCLock
	StatusSoftLimitError
	StatusOverflow
	StatusMaxStepRateExceeded
	StatusCheckDoor
	StatusLineLengthExceeded
	StatusTravelExceeded
	StatusInvalidJogCommand
	StatusSettingDisabledLaser
	StatusMachineNotHomed
	StatusTLSNotSet
	StatusGcodeUnsupportedCommand
	StatusGcodeModalGroupViolation
	StatusGcodeUndefinedFeedRate
	StatusGcodeCommandValueNotInteger
	StatusGcodeAxisCommandConflict
	StatusGcodeWordRepeated
	StatusGcodeNoAxisWords
	StatusGcodeInvalidLineNumber
	StatusGcodeValueWordMissing
	StatusGcodeUnsupportedCoordSys
	StatusGcodeG53InvalidMotionMode
	StatusGcodeAxisWordsExist
	StatusGcodeNoAxisWordsInPlane
	StatusGcodeInvalidTarget
	StatusGcodeArcRadiusError
	StatusGcodeNoOffsetsInPlane
	StatusGcodeUnusedWords
	StatusGcodeG43DynamicAxisError
	StatusGcodeMaxValueExceeded
)

var statusText = map[StatusCode]string{
	StatusOK:                          "ok",
	StatusExpectedCommandLetter:       "expected command letter",
	StatusBadNumberFormat:             "bad number format",
	StatusInvalidStatement:            "invalid statement",
	StatusNegativeValue:               "value must be positive",
	StatusSettingDisabled:             "setting disabled",
	StatusSettingStepPulseMin:         "step pulse must be >= 3 microseconds",
	StatusSettingReadFail:             "setting read failed",
	StatusIdleError:                   "must be idle",
	StatusSystemGCLock:                "g-code locked out during alarm or jog state",
	StatusSoftLimitError:              "soft limit error",
	StatusOverflow:                    "line overflow",
	StatusMaxStepRateExceeded:         "max step rate exceeded",
	StatusCheckDoor:                   "safety door open",
	StatusLineLengthExceeded:          "line length exceeded",
	StatusTravelExceeded:              "travel exceeded",
	StatusInvalidJogCommand:           "invalid jog command",
	StatusSettingDisabledLaser:        "setting disabled in laser mode",
	StatusMachineNotHomed:             "machine must be homed",
	StatusTLSNotSet:                   "tool length sensor not set",
	StatusGcodeUnsupportedCommand:     "unsupported g/m code",
	StatusGcodeModalGroupViolation:    "two words in same modal group",
	StatusGcodeUndefinedFeedRate:      "feed rate not defined",
	StatusGcodeCommandValueNotInteger: "command value not an integer",
	StatusGcodeAxisCommandConflict:    "axis word conflicts with command",
	StatusGcodeWordRepeated:           "word repeated in block",
	StatusGcodeNoAxisWords:            "no axis words in block",
	StatusGcodeInvalidLineNumber:      "invalid line number",
	StatusGcodeValueWordMissing:       "value word missing",
	StatusGcodeUnsupportedCoordSys:    "unsupported coordinate system",
	StatusGcodeG53InvalidMotionMode:   "G53 requires G0 or G1",
	StatusGcodeAxisWordsExist:         "unused axis words",
	StatusGcodeNoAxisWordsInPlane:     "no axis words in selected plane",
	StatusGcodeInvalidTarget:         "invalid target",
	StatusGcodeArcRadiusError:         "arc radius error",
	StatusGcodeNoOffsetsInPlane:       "no offsets in plane",
	StatusGcodeUnusedWords:            "unused words",
	StatusGcodeG43DynamicAxisError:    "G43.1 requires exactly one axis word",
	StatusGcodeMaxValueExceeded:       "max value exceeded",
}

func (s StatusCode) Error() string {
	if t, ok := statusText[s]; ok {
		return t
	}
	return "unknown status"
}

// Line formats the wire response for this status, matching spec.md §6:
// "ok\r\n" or "error:<N>\r\n".
func (s StatusCode) Line() string {
	if s == StatusOK {
		return "ok\r\n"
	}
	return "error:" + strconv.Itoa(int(s)) + "\r\n"
}
