/*
 * util/logger - slog wrapper test set.
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

package logger

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestHandleWritesTimestampLevelAndAttrs(t *testing.T) {
	var buf bytes.Buffer
	levelVar := new(slog.LevelVar)
	levelVar.Set(slog.LevelDebug)
	h := NewHandler(&buf, &slog.HandlerOptions{Level: levelVar}, false)
	log := slog.New(h)

	log.Info("axis alarm", "axis", "Z", "code", 3)

	out := buf.String()
	if !strings.Contains(out, "INFO:") {
		t.Errorf("output = %q, want level prefix", out)
	}
	if !strings.Contains(out, "axis alarm") {
		t.Errorf("output = %q, want message", out)
	}
	if !strings.Contains(out, "axis=Z") || !strings.Contains(out, "code=3") {
		t.Errorf("output = %q, want key=value attrs", out)
	}
}

func TestSetDebugSetsDebugFlag(t *testing.T) {
	var buf bytes.Buffer
	h := NewHandler(&buf, nil, false)
	if h.debug {
		t.Fatalf("debug should start false")
	}
	h.SetDebug(true)
	if !h.debug {
		t.Errorf("SetDebug(true) did not take effect")
	}
}
