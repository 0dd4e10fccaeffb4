/*
 * core/gcode - RS274/NGC word parser
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

import (
	"strconv"
	"strings"

	"github.com/cncmotion/core/core/opcodes"
)

// axisLetters are the value-words that carry a target position rather
// than a command or parameter.
var axisLetters = map[byte]bool{'X': true, 'Y': true, 'Z': true, 'A': true, 'B': true}

// Block is the decomposed form of one assembled line: every word sorted
// into its command or value slot, with bitfields recording which modal
// groups and which value letters were actually present. The interpreter
// consumes a Block, never raw text.
type Block struct {
	LineNumber int
	HasLine    bool

	GCodes []string // normalized "G1", "G38.2" style codes present, in order of appearance
	MCodes []string

	Values     map[byte]float64 // non-axis value words: F, S, P, R, I, J, K, L, Q, T (N goes to LineNumber)
	AxisWords  map[byte]float64
	ModalSeen  [opcodes.ModalGroupCount]bool
	wordLetters map[byte]bool // every letter seen, for word-repeated detection
}

func newBlock() *Block {
	return &Block{
		Values:      make(map[byte]float64),
		AxisWords:   make(map[byte]float64),
		wordLetters: make(map[byte]bool),
	}
}

// HasAxisWord reports whether letter was present as a target position.
func (b *Block) HasAxisWord(letter byte) bool {
	_, ok := b.AxisWords[letter]
	return ok
}

// Parse decomposes a normalized (uppercase, comment-stripped) line into a
// Block, validating word-at-a-time exactly as original_source/grbl/GCode.c's
// gc_execute_line does: one pass collecting every word, rejecting a second
// word on a letter already seen or a second G/M code in a modal group
// already claimed this block. Spaces and tabs between words are skipped,
// so both "G1X10Y0F600" and the canonical spaced "G1 X10 Y0 F600" form
// parse identically; LineAssembler strips them before Parse ever sees a
// live line, but Parse tolerates them on its own for direct callers.
func Parse(line string) (*Block, StatusCode) {
	b := newBlock()
	i := 0
	n := len(line)
	for i < n {
		for i < n && (line[i] == ' ' || line[i] == '\t') {
			i++
		}
		if i >= n {
			break
		}
		letter := line[i]
		if letter < 'A' || letter > 'Z' {
			return nil, StatusExpectedCommandLetter
		}
		i++
		start := i
		for i < n && isNumberByte(line[i]) {
			i++
		}
		if start == i {
			return nil, StatusBadNumberFormat
		}
		valueText := line[start:i]
		value, err := strconv.ParseFloat(valueText, 64)
		if err != nil {
			return nil, StatusBadNumberFormat
		}

		if letter == 'G' || letter == 'M' {
			code, fracOK := normalizeCode(letter, valueText, value)
			if !fracOK {
				return nil, StatusGcodeCommandValueNotInteger
			}
			group, known := opcodes.ModalGroupOf(code)
			if !known {
				return nil, StatusGcodeUnsupportedCommand
			}
			if b.ModalSeen[group] {
				return nil, StatusGcodeModalGroupViolation
			}
			b.ModalSeen[group] = true
			if letter == 'G' {
				b.GCodes = append(b.GCodes, code)
			} else {
				b.MCodes = append(b.MCodes, code)
			}
			continue
		}

		if b.wordLetters[letter] {
			return nil, StatusGcodeWordRepeated
		}
		b.wordLetters[letter] = true

		switch {
		case letter == 'N':
			b.LineNumber = int(value)
			b.HasLine = true
		case axisLetters[letter]:
			b.AxisWords[letter] = value
		default:
			b.Values[letter] = value
		}
	}
	return b, StatusOK
}

func isNumberByte(c byte) bool {
	return (c >= '0' && c <= '9') || c == '.' || c == '-' || c == '+'
}

// normalizeCode turns a letter+raw-text value into a canonical "G1" or
// "G38.2" style string, rejecting fractional mantissas on codes that do
// not permit them (spec.md §4.1 item 2).
func normalizeCode(letter byte, raw string, value float64) (string, bool) {
	whole := int(value)
	frac := value - float64(whole)
	if frac == 0 {
		return string(letter) + strconv.Itoa(whole), true
	}
	code := string(letter) + strings.TrimRight(strings.TrimRight(raw, "0"), ".")
	if !opcodes.FractionalGCodes[code] {
		return "", false
	}
	return code, true
}
