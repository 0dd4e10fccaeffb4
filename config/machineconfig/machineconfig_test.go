/*
 * config/machineconfig - Machine wiring directives test set.
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

package machineconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cncmotion/core/config/cfgfile"
	"github.com/cncmotion/core/core/axis"
)

func resetState(t *testing.T) {
	t.Helper()
	NVRAMFile = ""
	ListenAddr = ""
	Axes = nil
	t.Cleanup(func() {
		NVRAMFile = ""
		ListenAddr = ""
		Axes = nil
	})
}

func loadConfig(t *testing.T, body string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "machine.cfg")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if err := cfgfile.LoadConfigFile(path); err != nil {
		t.Fatalf("LoadConfigFile: %v", err)
	}
}

func TestNVRAMDirectiveSetsFile(t *testing.T) {
	resetState(t)
	loadConfig(t, "NVRAM file=machine.nvram\n")
	if NVRAMFile != "machine.nvram" {
		t.Errorf("NVRAMFile = %q, want %q", NVRAMFile, "machine.nvram")
	}
}

func TestListenDirectiveSetsAddr(t *testing.T) {
	resetState(t)
	loadConfig(t, "LISTEN addr=:23\n")
	if ListenAddr != ":23" {
		t.Errorf("ListenAddr = %q, want %q", ListenAddr, ":23")
	}
}

func TestAxisDirectiveDefaultsToSim(t *testing.T) {
	resetState(t)
	loadConfig(t, "AXIS X\n")
	if len(Axes) != 1 || Axes[0].Axis != axis.X || Axes[0].Driver != "sim" {
		t.Errorf("Axes = %+v", Axes)
	}
}

func TestAxisDirectiveGPIORequiresAllPins(t *testing.T) {
	resetState(t)
	path := filepath.Join(t.TempDir(), "machine.cfg")
	if err := os.WriteFile(path, []byte("AXIS Y driver=gpio step=GPIO17\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if err := cfgfile.LoadConfigFile(path); err == nil {
		t.Fatalf("expected error for incomplete gpio wiring")
	}
}

func TestAxisDirectiveGPIOWiring(t *testing.T) {
	resetState(t)
	loadConfig(t, "AXIS Z driver=gpio step=GPIO17 dir=GPIO27 enable=GPIO22\n")
	if len(Axes) != 1 {
		t.Fatalf("Axes = %+v", Axes)
	}
	w := Axes[0]
	if w.Axis != axis.Z || w.Driver != "gpio" || w.Step != "GPIO17" || w.Dir != "GPIO27" || w.Enable != "GPIO22" {
		t.Errorf("wiring = %+v", w)
	}
}

func TestAxisDirectiveUnknownAxisErrors(t *testing.T) {
	resetState(t)
	path := filepath.Join(t.TempDir(), "machine.cfg")
	if err := os.WriteFile(path, []byte("AXIS Q\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if err := cfgfile.LoadConfigFile(path); err == nil {
		t.Fatalf("expected error for unknown axis")
	}
}
