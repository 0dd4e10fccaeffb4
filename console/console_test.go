/*
 * console - Dispatch test set.
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
	"strings"
	"testing"
	"time"

	"github.com/cncmotion/core/core/axis"
	"github.com/cncmotion/core/core/controller"
	"github.com/cncmotion/core/core/exec"
	"github.com/cncmotion/core/core/report"
	"github.com/cncmotion/core/core/settings"
	"github.com/cncmotion/core/core/stepper"
)

type noopDriver struct{}

func (noopDriver) Step()                      {}
func (noopDriver) SetDirection(negative bool) {}
func (noopDriver) SetEnabled(enabled bool)    {}

type allLimitsTripped struct{}

func (allLimitsTripped) ReadLimits() uint8   { return 0x1F }
func (allLimitsTripped) ReadControls() uint8 { return 0 }
func (allLimitsTripped) ReadProbe() bool     { return false }

type memNVRAM struct {
	data map[uint32][]byte
}

func newMemNVRAM() *memNVRAM { return &memNVRAM{data: make(map[uint32][]byte)} }

func (m *memNVRAM) ReadBlock(addr uint32, length int) ([]byte, error) {
	b, ok := m.data[addr]
	if !ok || len(b) != length {
		return make([]byte, length), nil
	}
	return b, nil
}

func (m *memNVRAM) WriteBlock(addr uint32, data []byte) error {
	cp := make([]byte, len(data))
	copy(cp, data)
	m.data[addr] = cp
	return nil
}

func testConsole(t *testing.T) *Console {
	t.Helper()
	store := settings.NewStore(newMemNVRAM())
	store.Settings = settings.Default()

	var set stepper.AxisSet
	for i := 0; i < axis.Count; i++ {
		set.Drivers[i] = noopDriver{}
	}
	set.Inputs = allLimitsTripped{}

	ctrl := controller.New(store, set)
	ctrl.Start()
	t.Cleanup(ctrl.Stop)
	return New(ctrl)
}

func waitForState(t *testing.T, c *Console, want report.MachineState) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if c.Ctrl.Exec.State() == want {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("state = %v, want %v", c.Ctrl.Exec.State(), want)
}

func TestDispatchGCodeLineRunsOnCycleStart(t *testing.T) {
	c := testConsole(t)
	var out strings.Builder

	if err := c.Dispatch(&out, "G1X10F200"); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if got := out.String(); got != "ok\n" {
		t.Errorf("response = %q, want %q", got, "ok\n")
	}
	if c.Ctrl.Planner.Empty() {
		t.Fatalf("expected queued motion block")
	}

	out.Reset()
	if err := c.Dispatch(&out, "~"); err != nil {
		t.Fatalf("Dispatch cycle start: %v", err)
	}
	waitForState(t, c, report.StateRun)
	waitForState(t, c, report.StateIdle)
}

func TestDispatchUnknownSystemCommandReportsError(t *testing.T) {
	c := testConsole(t)
	var out strings.Builder
	if err := c.Dispatch(&out, "$Z"); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if !strings.HasPrefix(out.String(), "error:") {
		t.Errorf("response = %q, want error line", out.String())
	}
}

func TestDispatchViewSettingsListsStepsPerMM(t *testing.T) {
	c := testConsole(t)
	var out strings.Builder
	if err := c.Dispatch(&out, "$$"); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if !strings.Contains(out.String(), "$20=250.000") {
		t.Errorf("settings dump missing $20 entry: %q", out.String())
	}
}

func TestDispatchWriteSettingUpdatesRecordAndPersists(t *testing.T) {
	c := testConsole(t)
	var out strings.Builder
	if err := c.Dispatch(&out, "$20=320"); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if got := out.String(); got != "ok\n" {
		t.Fatalf("response = %q, want ok", got)
	}
	if c.Ctrl.Store.Settings.StepsPerMM[axis.X] != 320 {
		t.Errorf("StepsPerMM[X] = %v, want 320", c.Ctrl.Store.Settings.StepsPerMM[axis.X])
	}
}

func TestDispatchWriteSettingRejectsNonPositiveStepsPerMM(t *testing.T) {
	c := testConsole(t)
	var out strings.Builder
	if err := c.Dispatch(&out, "$20=0"); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if !strings.HasPrefix(out.String(), "error:") {
		t.Errorf("response = %q, want error line", out.String())
	}
}

func TestDispatchJogQueuesMotion(t *testing.T) {
	c := testConsole(t)
	var out strings.Builder
	if err := c.Dispatch(&out, "$J=G91X-5F300"); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if got := out.String(); got != "ok\n" {
		t.Fatalf("response = %q, want ok: dump=%s", got, out.String())
	}
	if c.Ctrl.Planner.Empty() {
		t.Fatalf("expected jog to queue a motion block")
	}
}

func TestDispatchHomeWhenDisabledReturnsSettingDisabled(t *testing.T) {
	c := testConsole(t)
	c.Ctrl.Store.Settings.Flags &^= settings.FlagHomingEnable

	var out strings.Builder
	if err := c.Dispatch(&out, "$H"); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if !strings.HasPrefix(out.String(), "error:") {
		t.Errorf("response = %q, want error line", out.String())
	}
}

func TestDispatchHomeUpdatesMachinePosition(t *testing.T) {
	c := testConsole(t)
	var out strings.Builder
	if err := c.Dispatch(&out, "$H"); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if got := out.String(); got != "ok\n" {
		t.Fatalf("response = %q, want ok", got)
	}
	if got := c.Ctrl.Interp.State.Position[axis.X]; got != -1 {
		t.Errorf("X position after homing = %v, want -1 (pulled off the switch)", got)
	}
}

func TestDispatchStatusReportIncludesState(t *testing.T) {
	c := testConsole(t)
	var out strings.Builder
	if err := c.Dispatch(&out, "?"); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if !strings.HasPrefix(out.String(), "<Idle|MPos:") {
		t.Errorf("status report = %q", out.String())
	}
}

func TestDispatchUnlockReturnsToIdleFromAlarm(t *testing.T) {
	c := testConsole(t)
	c.Ctrl.Exec.Submit(exec.Packet{Kind: exec.PacketAlarm, Alarm: report.AlarmHardLimit})
	waitForState(t, c, report.StateAlarm)

	var out strings.Builder
	if err := c.Dispatch(&out, "$X"); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	waitForState(t, c, report.StateIdle)
}
