/*
 * util/program - Sequential g-code program reader
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

// Package program reads a g-code program file one line at a time,
// tracking the current line number and supporting a rewind to the start.
package program

import (
	"bufio"
	"errors"
	"io"
	"os"
	"strings"
)

// ErrNotAttached is returned by any operation before Attach succeeds.
var ErrNotAttached = errors.New("program: not attached")

// ErrEndOfProgram is returned by NextLine once every line has been read.
var ErrEndOfProgram = errors.New("program: end of program")

// Context holds one open program file and the reader's position in it.
type Context struct {
	file    *os.File
	reader  *bufio.Reader
	lineNum int
	atEOF   bool
}

// NewContext returns an unattached reader.
func NewContext() *Context {
	return &Context{}
}

// Attach opens fileName for sequential reading, resetting position to
// the start of the program.
func (c *Context) Attach(fileName string) error {
	file, err := os.Open(fileName)
	if err != nil {
		return err
	}
	c.file = file
	c.reader = bufio.NewReader(file)
	c.lineNum = 0
	c.atEOF = false
	return nil
}

// Detach closes the underlying file.
func (c *Context) Detach() error {
	if c.file == nil {
		return ErrNotAttached
	}
	err := c.file.Close()
	c.file = nil
	c.reader = nil
	return err
}

// Attached reports whether a program file is currently open.
func (c *Context) Attached() bool {
	return c.file != nil
}

// LineNumber returns the 1-based line most recently returned by
// NextLine, 0 before the first call.
func (c *Context) LineNumber() int {
	return c.lineNum
}

// Rewind seeks back to the start of the program, resetting line count.
func (c *Context) Rewind() error {
	if c.file == nil {
		return ErrNotAttached
	}
	if _, err := c.file.Seek(0, io.SeekStart); err != nil {
		return err
	}
	c.reader = bufio.NewReader(c.file)
	c.lineNum = 0
	c.atEOF = false
	return nil
}

// NextLine returns the next non-blank line with surrounding whitespace
// trimmed, or ErrEndOfProgram once the file is exhausted. Blank lines are
// skipped but still count toward LineNumber, matching a CNC sender's
// line-number semantics. Comment stripping is core/gcode.Parse's job, not
// this reader's.
func (c *Context) NextLine() (string, error) {
	if c.file == nil {
		return "", ErrNotAttached
	}
	if c.atEOF {
		return "", ErrEndOfProgram
	}

	for {
		raw, err := c.reader.ReadString('\n')
		if len(raw) == 0 && err != nil {
			if errors.Is(err, io.EOF) {
				c.atEOF = true
				return "", ErrEndOfProgram
			}
			return "", err
		}
		c.lineNum++

		trimmed := strings.TrimSpace(raw)
		if trimmed == "" {
			if errors.Is(err, io.EOF) {
				c.atEOF = true
				return "", ErrEndOfProgram
			}
			continue
		}

		if errors.Is(err, io.EOF) {
			c.atEOF = true
		}
		return trimmed, nil
	}
}
