/*
 * core/exec - Executor state machine test set.
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

package exec

import (
	"testing"
	"time"

	"github.com/cncmotion/core/core/report"
)

func runningExecutor(t *testing.T) *Executor {
	t.Helper()
	e := New()
	go e.Start()
	t.Cleanup(e.Stop)
	return e
}

func waitForState(t *testing.T, e *Executor, want report.MachineState) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if e.State() == want {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("state = %v, want %v", e.State(), want)
}

func TestCycleStartFromIdleRuns(t *testing.T) {
	e := runningExecutor(t)
	e.Submit(Packet{Kind: PacketCycleStart})
	waitForState(t, e, report.StateRun)
}

func TestFeedHoldThenSettleReachesHoldComplete(t *testing.T) {
	e := runningExecutor(t)
	e.Submit(Packet{Kind: PacketCycleStart})
	waitForState(t, e, report.StateRun)
	e.Submit(Packet{Kind: PacketFeedHold})
	waitForState(t, e, report.StateHoldActive)
	e.Submit(Packet{Kind: PacketHoldSettled})
	waitForState(t, e, report.StateHoldComplete)
}

func TestResumeFromHoldComplete(t *testing.T) {
	e := runningExecutor(t)
	e.Submit(Packet{Kind: PacketCycleStart})
	waitForState(t, e, report.StateRun)
	e.Submit(Packet{Kind: PacketFeedHold})
	waitForState(t, e, report.StateHoldActive)
	e.Submit(Packet{Kind: PacketHoldSettled})
	waitForState(t, e, report.StateHoldComplete)
	e.Submit(Packet{Kind: PacketCycleStart})
	waitForState(t, e, report.StateRun)
}

func TestResetClearsAlarmAndReturnsToIdle(t *testing.T) {
	e := runningExecutor(t)
	e.Submit(Packet{Kind: PacketAlarm, Alarm: report.AlarmHardLimit})
	waitForState(t, e, report.StateAlarm)
	if e.Alarm() != report.AlarmHardLimit {
		t.Fatalf("Alarm() = %v, want AlarmHardLimit", e.Alarm())
	}
	e.Submit(Packet{Kind: PacketReset})
	waitForState(t, e, report.StateIdle)
	if e.Alarm() != report.AlarmNone {
		t.Errorf("Alarm() after reset = %v, want AlarmNone", e.Alarm())
	}
}

func TestSafetyDoorDuringRunEntersRetracting(t *testing.T) {
	e := runningExecutor(t)
	e.Submit(Packet{Kind: PacketCycleStart})
	waitForState(t, e, report.StateRun)
	e.Submit(Packet{Kind: PacketSafetyDoorOpen})
	waitForState(t, e, report.StateDoorRetracting)
}

func TestFeedOverrideClampsToBounds(t *testing.T) {
	e := runningExecutor(t)
	e.Submit(Packet{Kind: PacketFeedOverride, Delta: -1000})
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) && e.Overrides().Feed != OverrideFeedMin {
		time.Sleep(time.Millisecond)
	}
	if got := e.Overrides().Feed; got != OverrideFeedMin {
		t.Errorf("Feed override = %d, want clamped to %d", got, OverrideFeedMin)
	}
}

func TestSpindleStopToggleDeenergizesThenRestoresOnCycleStart(t *testing.T) {
	e := runningExecutor(t)
	energize := make(chan bool, 4)
	e.OnSpindleChange = func(on bool) { energize <- on }

	e.Submit(Packet{Kind: PacketCycleStart})
	waitForState(t, e, report.StateRun)
	e.Submit(Packet{Kind: PacketFeedHold})
	waitForState(t, e, report.StateHoldActive)
	e.Submit(Packet{Kind: PacketHoldSettled})
	waitForState(t, e, report.StateHoldComplete)

	e.Submit(Packet{Kind: PacketSpindleStopToggle})
	select {
	case on := <-energize:
		if on {
			t.Fatalf("spindle-stop toggle energize = %v, want de-energize", on)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for spindle de-energize callback")
	}

	e.Submit(Packet{Kind: PacketCycleStart})
	select {
	case on := <-energize:
		if !on {
			t.Fatalf("cycle start energize = %v, want re-energize", on)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for spindle restore callback")
	}
	waitForState(t, e, report.StateRun)
}

func TestCoolantToggleFlipsIndependently(t *testing.T) {
	e := runningExecutor(t)
	e.Submit(Packet{Kind: PacketCoolantToggle, Coolant: CoolantFlood})
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) && !e.Coolant().Flood {
		time.Sleep(time.Millisecond)
	}
	if !e.Coolant().Flood {
		t.Fatalf("Coolant().Flood = false, want true")
	}
	if e.Coolant().Mist {
		t.Fatalf("Coolant().Mist = true, want false")
	}

	e.Submit(Packet{Kind: PacketCoolantToggle, Coolant: CoolantMist})
	for time.Now().Before(deadline) && !e.Coolant().Mist {
		time.Sleep(time.Millisecond)
	}
	if !e.Coolant().Mist || !e.Coolant().Flood {
		t.Fatalf("Coolant() = %+v, want both streams on", e.Coolant())
	}
}

func TestOnStateChangeCallbackFires(t *testing.T) {
	e := New()
	seen := make(chan report.MachineState, 4)
	e.OnStateChange = func(s report.MachineState) { seen <- s }
	go e.Start()
	defer e.Stop()

	e.Submit(Packet{Kind: PacketCycleStart})
	select {
	case s := <-seen:
		if s != report.StateRun {
			t.Errorf("callback state = %v, want StateRun", s)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for state change callback")
	}
}
