/*
 * core/report - Status, alarm and feedback message formatting
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

// Package report formats the wire-protocol messages sent back to the
// sender: the "ok"/"error:N" response line, the bracketed realtime
// status report, alarm lines and bracketed feedback messages, grounded
// on original_source/grbl/Report.c's Report_StatusMessage,
// Report_AlarmMessage and Report_RealtimeStatus.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/cncmotion/core/core/axis"
	"github.com/cncmotion/core/core/gcode"
)

// MachineState is the top-level machine state reported in a realtime
// status line's leading field, mirroring sys.state in System.h.
type MachineState uint8

const (
	StateIdle MachineState = iota
	StateRun
	StateHoldComplete
	StateHoldActive
	StateJog
	StateHoming
	StateAlarm
	StateCheck
	StateDoorRetracting
	StateDoorAjar
	StateDoorReady
	StateDoorRestoring
	StateSleep
	StateDwell
	StateToolChange
	StateBusy
)

func (s MachineState) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateRun:
		return "Run"
	case StateHoldComplete:
		return "Hold:0"
	case StateHoldActive:
		return "Hold:1"
	case StateJog:
		return "Jog"
	case StateHoming:
		return "Home"
	case StateAlarm:
		return "Alarm"
	case StateCheck:
		return "Check"
	case StateDoorRetracting:
		return "Door:2"
	case StateDoorAjar:
		return "Door:1"
	case StateDoorReady:
		return "Door:0"
	case StateDoorRestoring:
		return "Door:3"
	case StateSleep:
		return "Sleep"
	case StateDwell:
		return "Dwell"
	case StateToolChange:
		return "Tool"
	case StateBusy:
		return "Busy"
	}
	return "Unknown"
}

// AlarmCode enumerates the conditions that force the machine into
// StateAlarm, matching EXEC_ALARM_* in System.h.
type AlarmCode uint8

const (
	AlarmNone AlarmCode = iota
	AlarmHardLimit
	AlarmSoftLimit
	AlarmAbortCycle
	AlarmProbeFailInitial
	AlarmProbeFailContact
	AlarmHomingFailReset
	AlarmHomingFailDoor
	AlarmHomingFailPulloff
	AlarmHomingFailApproach
)

func (a AlarmCode) String() string {
	switch a {
	case AlarmHardLimit:
		return "Hard limit triggered"
	case AlarmSoftLimit:
		return "Soft limit alarm"
	case AlarmAbortCycle:
		return "Abort during cycle"
	case AlarmProbeFailInitial:
		return "Probe fail, initial"
	case AlarmProbeFailContact:
		return "Probe fail, contact loss"
	case AlarmHomingFailReset:
		return "Homing fail, reset"
	case AlarmHomingFailDoor:
		return "Homing fail, door open"
	case AlarmHomingFailPulloff:
		return "Homing fail, pulloff"
	case AlarmHomingFailApproach:
		return "Homing fail, approach"
	}
	return "Unknown alarm"
}

// StatusMessage writes "ok" for StatusOK, else "error:<N>", matching
// Report_StatusMessage's wire format.
func StatusMessage(w io.Writer, code gcode.StatusCode) error {
	if code == gcode.StatusOK {
		_, err := io.WriteString(w, "ok\n")
		return err
	}
	_, err := fmt.Fprintf(w, "error:%d\n", int(code))
	return err
}

// AlarmMessage writes "ALARM:<N>", matching Report_AlarmMessage.
func AlarmMessage(w io.Writer, code AlarmCode) error {
	_, err := fmt.Fprintf(w, "ALARM:%d\n", int(code))
	return err
}

// FeedbackMessage writes a bracketed operator message, matching
// Report_FeedbackMessage's "[MSG:...]" lines.
func FeedbackMessage(w io.Writer, text string) error {
	_, err := fmt.Fprintf(w, "[MSG:%s]\n", text)
	return err
}

// PinState is the bitmask reported in a status line's Pn: field.
type PinState struct {
	Limits   uint8 // bit i set when axis i's limit switch is active.
	Probe    bool
	Door     bool
	Reset    bool
	FeedHold bool
	CycleStart bool
}

func (p PinState) empty() bool {
	return p.Limits == 0 && !p.Probe && !p.Door && !p.Reset && !p.FeedHold && !p.CycleStart
}

func (p PinState) String() string {
	var b strings.Builder
	if p.Probe {
		b.WriteByte('P')
	}
	for i := 0; i < axis.Count; i++ {
		if p.Limits&(1<<uint(i)) != 0 {
			b.WriteString(axis.Names[i])
		}
	}
	if p.Door {
		b.WriteByte('D')
	}
	if p.Reset {
		b.WriteByte('R')
	}
	if p.FeedHold {
		b.WriteByte('H')
	}
	if p.CycleStart {
		b.WriteByte('S')
	}
	return b.String()
}

// Snapshot carries every field a realtime status line may report. Zero
// values suppress their optional field, matching the
// settings.flags_report bitmask's effect in the source firmware.
type Snapshot struct {
	State          MachineState
	MachinePos     axis.Vector
	WorkOffset     axis.Vector // coordinate system + G92 + tool length offset, already summed.
	ReportWorkPos  bool        // false reports MPos, true reports WPos (MachinePos - WorkOffset).
	LineNumber     int
	FeedRate       float32
	SpindleSpeed   float32
	ReportFeed     bool
	Pins           PinState
	ReportPins     bool
	BufferBlocks   int
	BufferBytes    int
	ReportBuffer   bool
}

// Status writes one bracketed realtime status line, matching
// Report_RealtimeStatus's field ordering: state, position, buffer, line
// number, feed/speed, pin state.
func Status(w io.Writer, s Snapshot) error {
	var b strings.Builder
	b.WriteByte('<')
	b.WriteString(s.State.String())

	pos := s.MachinePos
	if s.ReportWorkPos {
		pos = pos.Sub(s.WorkOffset)
		b.WriteString("|WPos:")
	} else {
		b.WriteString("|MPos:")
	}
	for i := 0; i < 3; i++ {
		if i > 0 {
			b.WriteByte(',')
		}
		fmt.Fprintf(&b, "%.3f", pos[i])
	}

	if s.ReportBuffer {
		fmt.Fprintf(&b, "|Bf:%d,%d", s.BufferBlocks, s.BufferBytes)
	}
	if s.LineNumber > 0 {
		fmt.Fprintf(&b, "|Ln:%d", s.LineNumber)
	}
	if s.ReportFeed {
		fmt.Fprintf(&b, "|FS:%.1f,%.1f", s.FeedRate, s.SpindleSpeed)
	}
	if s.ReportPins && !s.Pins.empty() {
		fmt.Fprintf(&b, "|Pn:%s", s.Pins)
	}
	b.WriteByte('>')
	b.WriteByte('\n')

	_, err := io.WriteString(w, b.String())
	return err
}
