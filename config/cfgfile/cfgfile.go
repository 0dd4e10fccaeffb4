/*
 * config/cfgfile - Configuration file parser
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

package cfgfile

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode"
)

/* Configuration file format:
 *
 * '#' indicates comment, rest of line is ignored.
 * <line> := <directive> <whitespace> <value> *(<whitespace> <option>)
 * <directive> := <string>, upper-cased before lookup
 * <value> := *(<letter> | <number> | ':' | '.' | '/' | '_' | '-')
 * <option> := <name> ['=' <value>]
 *
 * Example:
 *   AXIS X driver=gpio step=GPIO17 dir=GPIO27 enable=GPIO22
 *   NVRAM file=machine.nvram
 *   LISTEN addr=:23
 */

// Option is one name[=value] pair trailing a directive's first value.
type Option struct {
	Name  string
	Value string
}

// directiveFn handles one parsed line: the directive's first bare value
// and any trailing whitespace-separated options.
type directiveFn func(value string, options []Option) error

var directives = map[string]directiveFn{}

var lineNumber int

// RegisterDirective binds a top-level keyword (AXIS, NVRAM, LISTEN, ...)
// to the function that configures it, called from an init() the way
// config/configparser.RegisterModel is.
func RegisterDirective(name string, fn directiveFn) {
	directives[strings.ToUpper(name)] = fn
}

// LoadConfigFile reads name line by line, dispatching each non-blank,
// non-comment line to its registered directive.
func LoadConfigFile(name string) error {
	file, err := os.Open(name)
	if err != nil {
		return err
	}
	defer file.Close()

	lineNumber = 0
	reader := bufio.NewReader(file)
	for {
		raw, err := reader.ReadString('\n')
		lineNumber++
		if len(raw) == 0 && err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		if parseErr := parseLine(raw); parseErr != nil {
			return parseErr
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
	}
}

func parseLine(raw string) error {
	line := stripComment(raw)
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}

	name := strings.ToUpper(fields[0])
	fn, ok := directives[name]
	if !ok {
		return fmt.Errorf("cfgfile: unknown directive %q, line %d", fields[0], lineNumber)
	}

	if len(fields) < 2 {
		return fn("", nil)
	}

	value := fields[1]
	if strings.ContainsRune(value, '=') {
		// No bare value, only options (e.g. "NVRAM file=machine.nvram").
		options, err := parseOptions(fields[1:])
		if err != nil {
			return fmt.Errorf("cfgfile: line %d: %w", lineNumber, err)
		}
		return fn("", options)
	}

	options, err := parseOptions(fields[2:])
	if err != nil {
		return fmt.Errorf("cfgfile: line %d: %w", lineNumber, err)
	}
	return fn(value, options)
}

func stripComment(line string) string {
	if i := strings.IndexByte(line, '#'); i >= 0 {
		line = line[:i]
	}
	return line
}

// parseOptions turns "name=value" or bare "name" tokens into Options.
func parseOptions(fields []string) ([]Option, error) {
	if len(fields) == 0 {
		return nil, nil
	}
	options := make([]Option, 0, len(fields))
	for _, field := range fields {
		name, value, _ := strings.Cut(field, "=")
		if !isIdentifier(name) {
			return nil, fmt.Errorf("invalid option name %q", name)
		}
		options = append(options, Option{Name: name, Value: value})
	}
	return options, nil
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if unicode.IsLetter(r) || r == '_' {
			continue
		}
		if unicode.IsDigit(r) {
			continue
		}
		return false
	}
	return true
}
