/*
 * config/cfgfile - Config file parser test set.
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
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "machine.cfg")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestLoadConfigFileDispatchesRegisteredDirective(t *testing.T) {
	var gotValue string
	var gotOpts []Option
	RegisterDirective("TESTAXIS", func(value string, options []Option) error {
		gotValue = value
		gotOpts = options
		return nil
	})

	path := writeConfig(t, "# comment line\nTESTAXIS X stepsPerMM=250 maxRate=500\n")
	if err := LoadConfigFile(path); err != nil {
		t.Fatalf("LoadConfigFile: %v", err)
	}
	if gotValue != "X" {
		t.Errorf("value = %q, want %q", gotValue, "X")
	}
	if len(gotOpts) != 2 || gotOpts[0].Name != "stepsPerMM" || gotOpts[0].Value != "250" {
		t.Errorf("options = %+v", gotOpts)
	}
}

func TestLoadConfigFileUnknownDirectiveErrors(t *testing.T) {
	path := writeConfig(t, "NOSUCHTHING foo\n")
	if err := LoadConfigFile(path); err == nil {
		t.Fatalf("expected error for unknown directive")
	}
}

func TestLoadConfigFileOptionsOnlyLine(t *testing.T) {
	var gotOpts []Option
	RegisterDirective("TESTNVRAM", func(value string, options []Option) error {
		gotOpts = options
		return nil
	})

	path := writeConfig(t, "TESTNVRAM file=machine.nvram\n")
	if err := LoadConfigFile(path); err != nil {
		t.Fatalf("LoadConfigFile: %v", err)
	}
	if len(gotOpts) != 1 || gotOpts[0].Name != "file" || gotOpts[0].Value != "machine.nvram" {
		t.Errorf("options = %+v", gotOpts)
	}
}
