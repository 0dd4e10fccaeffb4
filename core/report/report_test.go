/*
 * core/report - Report formatting test set.
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

package report

import (
	"bytes"
	"testing"

	"github.com/cncmotion/core/core/axis"
	"github.com/cncmotion/core/core/gcode"
)

func TestStatusMessageOK(t *testing.T) {
	var buf bytes.Buffer
	if err := StatusMessage(&buf, gcode.StatusOK); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if buf.String() != "ok\n" {
		t.Errorf("got %q, want %q", buf.String(), "ok\n")
	}
}

func TestStatusMessageError(t *testing.T) {
	var buf bytes.Buffer
	StatusMessage(&buf, gcode.StatusBadNumberFormat)
	want := "error:2\n"
	if buf.String() != want {
		t.Errorf("got %q, want %q", buf.String(), want)
	}
}

func TestAlarmMessage(t *testing.T) {
	var buf bytes.Buffer
	AlarmMessage(&buf, AlarmHardLimit)
	if buf.String() != "ALARM:1\n" {
		t.Errorf("got %q", buf.String())
	}
}

func TestFeedbackMessage(t *testing.T) {
	var buf bytes.Buffer
	FeedbackMessage(&buf, "Caution: Unlocked")
	if buf.String() != "[MSG:Caution: Unlocked]\n" {
		t.Errorf("got %q", buf.String())
	}
}

func TestStatusReportsMachinePosition(t *testing.T) {
	var buf bytes.Buffer
	s := Snapshot{
		State:      StateRun,
		MachinePos: axis.Vector{axis.X: 1, axis.Y: 2, axis.Z: 3},
	}
	Status(&buf, s)
	want := "<Run|MPos:1.000,2.000,3.000>\n"
	if buf.String() != want {
		t.Errorf("got %q, want %q", buf.String(), want)
	}
}

func TestStatusReportsWorkPositionWithOffset(t *testing.T) {
	var buf bytes.Buffer
	s := Snapshot{
		State:         StateIdle,
		MachinePos:    axis.Vector{axis.X: 10},
		WorkOffset:    axis.Vector{axis.X: 4},
		ReportWorkPos: true,
	}
	Status(&buf, s)
	want := "<Idle|WPos:6.000,0.000,0.000>\n"
	if buf.String() != want {
		t.Errorf("got %q, want %q", buf.String(), want)
	}
}

func TestStatusOptionalFieldsSuppressedByDefault(t *testing.T) {
	var buf bytes.Buffer
	Status(&buf, Snapshot{State: StateIdle, LineNumber: 42, FeedRate: 100})
	if !bytes.Contains(buf.Bytes(), []byte("Ln:42")) {
		t.Errorf("expected line number to be reported when > 0: %q", buf.String())
	}
	if bytes.Contains(buf.Bytes(), []byte("FS:")) {
		t.Errorf("FS should be suppressed when ReportFeed is false: %q", buf.String())
	}
}

func TestStatusReportsPins(t *testing.T) {
	var buf bytes.Buffer
	s := Snapshot{
		State:      StateAlarm,
		ReportPins: true,
		Pins:       PinState{Limits: 1 << uint(axis.X), Probe: true},
	}
	Status(&buf, s)
	want := "<Alarm|MPos:0.000,0.000,0.000|Pn:PX>\n"
	if buf.String() != want {
		t.Errorf("got %q, want %q", buf.String(), want)
	}
}
