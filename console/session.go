/*
 * console - Byte-level session front end
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

package console

import (
	"io"

	"github.com/cncmotion/core/core/gcode"
	"github.com/cncmotion/core/core/report"
)

// Session holds one connection's line-assembly state, so a transport can
// feed it raw bytes as they arrive off the wire instead of whole lines.
// A realtime byte is acted on the instant it is seen, never waiting for
// a line terminator, matching System.c's serial ISR sniffing CMD_* bytes
// ahead of the line buffer (spec.md §4.1's testable invariant 8).
type Session struct {
	console *Console
	asm     *gcode.LineAssembler
}

// NewSession starts a fresh line assembler bound to this Console, one per
// connection.
func (c *Console) NewSession() *Session {
	return &Session{console: c, asm: gcode.NewLineAssembler()}
}

// Feed processes one byte of input, writing any response to w.
func (s *Session) Feed(w io.Writer, b byte) error {
	if rt, ok := gcode.ClassifyRealtime(b); ok {
		return s.console.realtime(w, rt)
	}
	line, overflow, ok := s.asm.Feed(b)
	if overflow {
		return report.StatusMessage(w, gcode.StatusOverflow)
	}
	if !ok {
		return nil
	}
	return s.console.dispatchLine(w, line)
}
