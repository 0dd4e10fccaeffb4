/*
 * core/controller - Controller aggregate test set.
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

package controller

import (
	"testing"
	"time"

	"github.com/cncmotion/core/core/axis"
	"github.com/cncmotion/core/core/exec"
	"github.com/cncmotion/core/core/gcode"
	"github.com/cncmotion/core/core/report"
	"github.com/cncmotion/core/core/settings"
	"github.com/cncmotion/core/core/stepper"
)

type countingDriver struct {
	steps int
}

func (d *countingDriver) Step()                      { d.steps++ }
func (d *countingDriver) SetDirection(negative bool) {}
func (d *countingDriver) SetEnabled(enabled bool)     {}

type noInputs struct{}

func (noInputs) ReadLimits() uint8   { return 0 }
func (noInputs) ReadControls() uint8 { return 0 }
func (noInputs) ReadProbe() bool     { return false }

type memNVRAM struct {
	data map[uint32][]byte
}

func newMemNVRAM() *memNVRAM { return &memNVRAM{data: make(map[uint32][]byte)} }

func (m *memNVRAM) ReadBlock(addr uint32, length int) ([]byte, error) {
	b, ok := m.data[addr]
	if !ok || len(b) != length {
		buf := make([]byte, length)
		return buf, nil
	}
	return b, nil
}

func (m *memNVRAM) WriteBlock(addr uint32, data []byte) error {
	cp := make([]byte, len(data))
	copy(cp, data)
	m.data[addr] = cp
	return nil
}

func testController(t *testing.T) (*Controller, *countingDriver) {
	t.Helper()
	store := settings.NewStore(newMemNVRAM())
	store.Settings = settings.Default()

	var set stepper.AxisSet
	driverX := &countingDriver{}
	set.Drivers[axis.X] = driverX
	for i := 0; i < axis.Count; i++ {
		if set.Drivers[i] == nil {
			set.Drivers[i] = &countingDriver{}
		}
	}
	set.Inputs = noInputs{}

	c := New(store, set)
	c.Start()
	t.Cleanup(c.Stop)
	return c, driverX
}

func waitForState(t *testing.T, c *Controller, want report.MachineState) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if c.Exec.State() == want {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("state = %v, want %v", c.Exec.State(), want)
}

func TestExecuteQueuesMotionAndCycleStartDrainsIt(t *testing.T) {
	c, driverX := testController(t)

	status := c.Execute("G1X10F200")
	if status != gcode.StatusOK {
		t.Fatalf("Execute failed: %v", status)
	}
	if c.Planner.Empty() {
		t.Fatalf("expected queued block")
	}

	c.Exec.Submit(exec.Packet{Kind: exec.PacketCycleStart})
	waitForState(t, c, report.StateRun)
	waitForState(t, c, report.StateIdle)

	if driverX.steps == 0 {
		t.Errorf("expected X driver to receive step pulses")
	}
	if !c.Planner.Empty() {
		t.Errorf("expected planner buffer drained after cycle completes")
	}
}

func TestFeedOverrideChangeReplansQueuedBlock(t *testing.T) {
	c, _ := testController(t)

	if status := c.Execute("G1X10F200"); status != gcode.StatusOK {
		t.Fatalf("Execute failed: %v", status)
	}
	before := c.Planner.Current().NominalSpeed

	c.Exec.Submit(exec.Packet{Kind: exec.PacketFeedOverride, Delta: -exec.OverrideCoarseStep})

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && !c.Planner.Current().OverrideReplan {
		time.Sleep(time.Millisecond)
	}
	block := c.Planner.Current()
	if !block.OverrideReplan {
		t.Fatalf("queued block never flagged OverrideReplan after feed override change")
	}
	if block.NominalSpeed >= before {
		t.Errorf("NominalSpeed = %v, want less than pre-override %v", block.NominalSpeed, before)
	}
}

func TestParseErrorDoesNotQueueMotion(t *testing.T) {
	c, _ := testController(t)
	status := c.Execute("G1G0X1")
	if status == gcode.StatusOK {
		t.Fatalf("expected modal group violation for G1+G0 on one line")
	}
	if !c.Planner.Empty() {
		t.Errorf("expected no motion queued on parse error")
	}
}
