/*
 * util/program - Program reader test set.
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

package program

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeProgram(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "job.nc")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestNextLineSkipsBlanksAndTracksLineNumber(t *testing.T) {
	path := writeProgram(t, "G21\n\nG1X10F200\nM30\n")
	c := NewContext()
	if err := c.Attach(path); err != nil {
		t.Fatalf("Attach: %v", err)
	}
	defer c.Detach()

	want := []string{"G21", "G1X10F200", "M30"}
	for i, w := range want {
		line, err := c.NextLine()
		if err != nil {
			t.Fatalf("NextLine[%d]: %v", i, err)
		}
		if line != w {
			t.Errorf("NextLine[%d] = %q, want %q", i, line, w)
		}
	}
	if _, err := c.NextLine(); !errors.Is(err, ErrEndOfProgram) {
		t.Errorf("final NextLine error = %v, want ErrEndOfProgram", err)
	}
	if c.LineNumber() != 4 {
		t.Errorf("LineNumber = %d, want 4 (blank line still counted)", c.LineNumber())
	}
}

func TestNextLineBeforeAttachReturnsNotAttached(t *testing.T) {
	c := NewContext()
	if _, err := c.NextLine(); !errors.Is(err, ErrNotAttached) {
		t.Errorf("error = %v, want ErrNotAttached", err)
	}
}

func TestRewindResetsPosition(t *testing.T) {
	path := writeProgram(t, "G21\nG1X10F200\n")
	c := NewContext()
	if err := c.Attach(path); err != nil {
		t.Fatalf("Attach: %v", err)
	}
	defer c.Detach()

	first, _ := c.NextLine()
	if _, err := c.NextLine(); err != nil {
		t.Fatalf("NextLine: %v", err)
	}
	if err := c.Rewind(); err != nil {
		t.Fatalf("Rewind: %v", err)
	}
	again, err := c.NextLine()
	if err != nil {
		t.Fatalf("NextLine after rewind: %v", err)
	}
	if again != first {
		t.Errorf("after rewind got %q, want %q", again, first)
	}
	if c.LineNumber() != 1 {
		t.Errorf("LineNumber after rewind = %d, want 1", c.LineNumber())
	}
}
