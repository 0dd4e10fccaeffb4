/*
 * config/debugflags - Debug option configuration
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

// Package debugflags wires a "DEBUG module level..." config file line to
// util/debug.Enable, blank-imported by main.go the way the teacher
// blank-imports config/debugconfig so the directive registers itself
// before LoadConfigFile runs.
package debugflags

import (
	"errors"
	"strconv"
	"strings"

	"github.com/cncmotion/core/config/cfgfile"
	"github.com/cncmotion/core/util/debug"
)

func init() {
	cfgfile.RegisterDirective("DEBUG", setDebug)
}

var levelNames = map[string]int{
	"TRACE":   debug.LevelTrace,
	"VERBOSE": debug.LevelVerbose,
	"TIMING":  debug.LevelTiming,
}

// setDebug handles "DEBUG PLANNER 1" (numeric bitmask) and
// "DEBUG STEPPER trace timing" (named levels) forms.
func setDebug(module string, options []cfgfile.Option) error {
	if module == "" {
		return errors.New("debugflags: DEBUG requires a module name")
	}
	module = strings.ToUpper(module)

	if len(options) == 0 {
		debug.Enable(module, debug.LevelTrace)
		return nil
	}

	for _, opt := range options {
		level, ok := levelNames[strings.ToUpper(opt.Name)]
		if !ok {
			n, err := strconv.Atoi(opt.Name)
			if err != nil {
				return errors.New("debugflags: unknown level " + opt.Name + " for module " + module)
			}
			level = n
		}
		debug.Enable(module, level)
	}
	return nil
}
