/*
 * core/gcode - Parser and lexer test set.
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

import "testing"

func feedLine(t *testing.T, a *LineAssembler, s string) (string, bool) {
	t.Helper()
	var line string
	var ok bool
	for i := 0; i < len(s); i++ {
		line, _, ok = a.Feed(s[i])
	}
	return line, ok
}

func TestLineAssemblerStripsCommentsAndSpaces(t *testing.T) {
	a := NewLineAssembler()
	line, ok := feedLine(t, a, "g1 x1.0 (rapid to start) y2.0\r")
	if !ok {
		t.Fatalf("expected line completion")
	}
	want := "G1X1.0Y2.0"
	if line != want {
		t.Errorf("got %q, want %q", line, want)
	}
}

func TestLineAssemblerSemicolonComment(t *testing.T) {
	a := NewLineAssembler()
	line, ok := feedLine(t, a, "g0 x0 ; rapid home\r")
	if !ok || line != "G0X0" {
		t.Errorf("got %q, ok=%v", line, ok)
	}
}

func TestLineAssemblerOverflow(t *testing.T) {
	a := NewLineAssembler()
	long := make([]byte, LineCapacity+10)
	for i := range long {
		long[i] = 'X'
	}
	var overflow bool
	for _, c := range long {
		_, overflow, _ = a.Feed(c)
	}
	_, overflow, ok := a.Feed('\r')
	if !ok || !overflow {
		t.Errorf("expected overflow on oversized line, ok=%v overflow=%v", ok, overflow)
	}
}

func TestClassifyRealtimeBytes(t *testing.T) {
	cases := map[byte]RealtimeByte{
		0x18: RTReset,
		'?':  RTStatusReport,
		'~':  RTCycleStart,
		'!':  RTFeedHold,
	}
	for b, want := range cases {
		got, ok := ClassifyRealtime(b)
		if !ok || got != want {
			t.Errorf("ClassifyRealtime(%q) = %v, %v; want %v, true", b, got, ok, want)
		}
	}
	if _, ok := ClassifyRealtime('X'); ok {
		t.Errorf("ordinary letter misclassified as realtime")
	}
}

func TestParseSimpleMotionBlock(t *testing.T) {
	b, status := Parse("G1X10Y-5F200")
	if status != StatusOK {
		t.Fatalf("parse failed: %v", status)
	}
	if len(b.GCodes) != 1 || b.GCodes[0] != "G1" {
		t.Errorf("GCodes = %v", b.GCodes)
	}
	if b.AxisWords['X'] != 10 || b.AxisWords['Y'] != -5 {
		t.Errorf("axis words = %v", b.AxisWords)
	}
	if b.Values['F'] != 200 {
		t.Errorf("F = %v, want 200", b.Values['F'])
	}
}

func TestParseSkipsSpacesBetweenWords(t *testing.T) {
	b, status := Parse("G1 X10 Y0 F600")
	if status != StatusOK {
		t.Fatalf("parse failed: %v", status)
	}
	if len(b.GCodes) != 1 || b.GCodes[0] != "G1" {
		t.Errorf("GCodes = %v", b.GCodes)
	}
	if b.AxisWords['X'] != 10 || b.AxisWords['Y'] != 0 {
		t.Errorf("axis words = %v", b.AxisWords)
	}
	if b.Values['F'] != 600 {
		t.Errorf("F = %v, want 600", b.Values['F'])
	}
}

func TestParseFractionalGCode(t *testing.T) {
	b, status := Parse("G38.2Z-10F50")
	if status != StatusOK {
		t.Fatalf("parse failed: %v", status)
	}
	if len(b.GCodes) != 1 || b.GCodes[0] != "G38.2" {
		t.Errorf("GCodes = %v", b.GCodes)
	}
}

func TestParseRejectsModalGroupViolation(t *testing.T) {
	_, status := Parse("G0G1X1")
	if status != StatusGcodeModalGroupViolation {
		t.Errorf("status = %v, want StatusGcodeModalGroupViolation", status)
	}
}

func TestParseRejectsRepeatedWord(t *testing.T) {
	_, status := Parse("G1X1X2")
	if status != StatusGcodeWordRepeated {
		t.Errorf("status = %v, want StatusGcodeWordRepeated", status)
	}
}

func TestParseRejectsUnsupportedCode(t *testing.T) {
	_, status := Parse("G200X1")
	if status != StatusGcodeUnsupportedCommand {
		t.Errorf("status = %v, want StatusGcodeUnsupportedCommand", status)
	}
}

func TestParseLineNumber(t *testing.T) {
	b, status := Parse("N10G1X1")
	if status != StatusOK {
		t.Fatalf("parse failed: %v", status)
	}
	if !b.HasLine || b.LineNumber != 10 {
		t.Errorf("line number = %v, hasLine=%v", b.LineNumber, b.HasLine)
	}
}
