/*
 * console - Interactive terminal front end
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
	"errors"
	"log/slog"
	"os"
	"strings"

	"github.com/peterh/liner"

	"github.com/cncmotion/core/core/controller"
)

// Run drives an interactive prompt/history/tab-completion loop around a
// Console, writing responses to stdout until the operator aborts with
// Ctrl-D or Ctrl-C.
func Run(ctrl *controller.Controller) {
	c := New(ctrl)

	line := liner.NewLiner()
	defer line.Close()

	line.SetCtrlCAborts(true)
	line.SetCompleter(completer)

	for {
		input, err := line.Prompt("grbl> ")
		if err == nil {
			line.AppendHistory(input)
			if dispErr := c.Dispatch(os.Stdout, input); dispErr != nil {
				slog.Error("console dispatch failed", "error", dispErr)
			}
			continue
		}

		if errors.Is(err, liner.ErrPromptAborted) {
			return
		}
		slog.Error("error reading console line", "error", err)
		return
	}
}

// completer offers the "$" system command prefixes, the only command
// vocabulary this console has beyond free-form g-code.
func completer(line string) []string {
	if !strings.HasPrefix(line, "$") {
		return nil
	}
	matches := make([]string, 0, len(sysCmdList))
	for _, entry := range sysCmdList {
		if strings.HasPrefix(entry.prefix, line) {
			matches = append(matches, entry.prefix)
		}
	}
	return matches
}
