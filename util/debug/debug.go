/*
 * util/debug - Log debug data to a file
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

// Package debug writes bitmask-gated trace lines for paths too hot to
// leave slog calls in permanently; in this module its only caller is
// main.go's simulated axis driver. A zero mask is the default, silent,
// build; a config file line such as "DEBUG PLANNER trace" or
// "DEBUG STEPPER 1" enables a module at startup.
package debug

import (
	"fmt"
	"os"
)

// Per-module debug bit, OR'd into that module's mask.
const (
	LevelTrace = 1 << iota
	LevelVerbose
	LevelTiming
)

var logFile *os.File

var masks = map[string]int{}

// SetFile redirects debug output to an already-open file, replacing the
// default of no output. Passing nil disables output again.
func SetFile(f *os.File) {
	logFile = f
}

// Enable turns on level (a LevelTrace/LevelVerbose/LevelTiming bit) for
// module, additively: repeated calls OR further bits in.
func Enable(module string, level int) {
	masks[module] |= level
}

// Debugf writes one line gated on the caller's module and level both
// being enabled. A disabled line costs one map lookup.
func Debugf(module string, level int, format string, a ...interface{}) {
	if logFile == nil {
		return
	}
	if (masks[module] & level) == 0 {
		return
	}
	fmt.Fprintf(logFile, module+": "+format+"\n", a...)
}

// AxisDebugf is Debugf scoped to one axis index, matching the per-device
// debug lines the teacher's DebugDevf produces for a device number.
func AxisDebugf(module string, axisIdx int, level int, format string, a ...interface{}) {
	if logFile == nil {
		return
	}
	if (masks[module] & level) == 0 {
		return
	}
	prefix := fmt.Sprintf("%s[%d]: ", module, axisIdx)
	fmt.Fprintf(logFile, prefix+format+"\n", a...)
}
