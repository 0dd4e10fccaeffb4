/*
 * core/gcode - Line assembler and real-time byte sniffer
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

// Package gcode implements the strict RS274/NGC line assembler and word
// parser described in spec.md §4.1: byte-at-a-time line assembly with
// comment stripping, a pre-buffer real-time byte sniffer, and modal-group
// validated word decomposition into a Block.
package gcode

import "unicode"

// LineCapacity bounds one assembled line; exceeding it sets overflow and
// rejects the line (spec.md §4.1).
const LineCapacity = 256

// RealtimeByte classifies a single incoming byte as a real-time command
// that must never reach the line buffer, per spec.md §4.1's table.
type RealtimeByte int

const (
	RTNone RealtimeByte = iota
	RTReset
	RTStatusReport
	RTCycleStart
	RTFeedHold
	RTSafetyDoor
	RTJogCancel
	RTFeedOverrideReset
	RTFeedOverrideCoarsePlus
	RTFeedOverrideCoarseMinus
	RTFeedOverrideFinePlus
	RTFeedOverrideFineMinus
	RTRapidOverrideReset
	RTRapidOverrideMedium
	RTRapidOverrideLow
	RTSpindleOverrideReset
	RTSpindleOverrideCoarsePlus
	RTSpindleOverrideCoarseMinus
	RTSpindleOverrideFinePlus
	RTSpindleOverrideFineMinus
	RTSpindleStopToggle
	RTCoolantFloodToggle
	RTCoolantMistToggle
)

// realtimeBytes maps the extended-ASCII override/toggle bytes from
// spec.md §4.1 to their RealtimeByte classification. Values follow the
// source firmware's System.h CMD_* byte assignments.
var realtimeBytes = map[byte]RealtimeByte{
	0x18: RTReset,
	'?':  RTStatusReport,
	'~':  RTCycleStart,
	'!':  RTFeedHold,
	0x84: RTSafetyDoor,
	0x85: RTJogCancel,
	0x90: RTFeedOverrideReset,
	0x91: RTFeedOverrideCoarsePlus,
	0x92: RTFeedOverrideCoarseMinus,
	0x93: RTFeedOverrideFinePlus,
	0x94: RTFeedOverrideFineMinus,
	0x95: RTRapidOverrideReset,
	0x96: RTRapidOverrideMedium,
	0x97: RTRapidOverrideLow,
	0x99: RTSpindleOverrideReset,
	0x9A: RTSpindleOverrideCoarsePlus,
	0x9B: RTSpindleOverrideCoarseMinus,
	0x9C: RTSpindleOverrideFinePlus,
	0x9D: RTSpindleOverrideFineMinus,
	0x9E: RTSpindleStopToggle,
	0xA0: RTCoolantFloodToggle,
	0xA1: RTCoolantMistToggle,
}

// ClassifyRealtime reports whether b is a real-time command byte never
// buffered into a line (spec.md §4.1's intercepted-pre-buffer set).
func ClassifyRealtime(b byte) (RealtimeByte, bool) {
	rt, ok := realtimeBytes[b]
	return rt, ok
}

// LineAssembler consumes one byte at a time and emits a normalized,
// uppercase ASCII line on end-of-line. Comments in parens and ';' to
// end-of-line are stripped; real-time bytes are never appended (the caller
// is expected to have routed them to ClassifyRealtime first).
type LineAssembler struct {
	buf      []byte
	inParen  bool
	overflow bool
}

// NewLineAssembler returns an empty assembler.
func NewLineAssembler() *LineAssembler { return &LineAssembler{buf: make([]byte, 0, LineCapacity)} }

// lineResult is returned by Feed when a full line completed.
type lineResult struct {
	Line     string
	Overflow bool
}

// Feed appends one byte. ok is true when b (CR or LF) terminated a line
// that holds content or overflowed; a CR/LF with nothing buffered (a bare
// CR/LF, or the LF of a CR LF pair) returns ok false.
func (a *LineAssembler) Feed(b byte) (line string, overflow bool, ok bool) {
	if b == '\r' || b == '\n' {
		if len(a.buf) == 0 && !a.overflow {
			return "", false, false
		}
		line = string(a.buf)
		overflow = a.overflow
		a.buf = a.buf[:0]
		a.inParen = false
		a.overflow = false
		return line, overflow, true
	}

	if a.inParen {
		if b == ')' {
			a.inParen = false
		}
		return "", false, false
	}
	if b == '(' {
		a.inParen = true
		return "", false, false
	}
	if b == ';' {
		// Comment to end of line: swallow everything until CR/LF by
		// treating the rest of the line as if it were inside parens.
		a.inParen = true
		return "", false, false
	}
	if b == ' ' || b == '\t' {
		return "", false, false
	}
	if len(a.buf) >= LineCapacity {
		a.overflow = true
		return "", false, false
	}
	a.buf = append(a.buf, byte(unicode.ToUpper(rune(b))))
	return "", false, false
}

// Assemble normalizes a complete line through a fresh LineAssembler, for
// callers that already hold a whole string rather than a byte stream
// (Console.Dispatch's line-at-a-time entry point, the interactive REPL).
// A terminator is appended internally, so the caller never passes one.
func Assemble(s string) (line string, overflow bool) {
	a := NewLineAssembler()
	for i := 0; i < len(s); i++ {
		line, overflow, _ = a.Feed(s[i])
	}
	line, overflow, _ = a.Feed('\n')
	return line, overflow
}
