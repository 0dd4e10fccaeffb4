/*
 * core/exec - Realtime executor and master state machine
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

// Package exec drives the top-level machine state machine from a
// control-plane channel of realtime packets, the same foreground-loop
// shape as rcornwell-S370/emu/core/core.go's Start/processPacket pair,
// applied to the Idle/Run/Hold/Jog/Homing/Alarm/... states a motion
// controller cycles through (spec.md §4.6, original_source/grbl/System.c).
package exec

import (
	"log/slog"
	"sync"
	"time"

	"github.com/cncmotion/core/core/event"
	"github.com/cncmotion/core/core/report"
)

// PollInterval is the foreground loop's tick period, driving both the
// delta-time event list and input debounce polling.
const PollInterval = time.Millisecond

// Override percentage bounds and step sizes, matching Grbl's
// DEFAULT_FEED_OVERRIDE family of constants.
const (
	OverrideDefault       = 100
	OverrideFeedMin       = 10
	OverrideFeedMax       = 200
	OverrideRapidLow      = 25
	OverrideRapidMedium   = 50
	OverrideRapidFull     = 100
	OverrideSpindleMin    = 10
	OverrideSpindleMax    = 200
	OverrideCoarseStep    = 10
	OverrideFineStep      = 1
)

// PacketKind enumerates control-plane events delivered to the
// executor's foreground loop.
type PacketKind int

const (
	PacketCycleStart PacketKind = iota
	PacketFeedHold
	PacketReset
	PacketSafetyDoorOpen
	PacketSafetyDoorClose
	PacketJogCancel
	PacketHoldSettled
	PacketHomingStart
	PacketHomingComplete
	PacketHomingFailed
	PacketToolChangeStart
	PacketToolChangeComplete
	PacketSleepTimeout
	PacketCheckModeToggle
	PacketAlarm
	PacketFeedOverride
	PacketRapidOverride
	PacketSpindleOverride
	PacketCoolantToggle
	PacketSpindleStopToggle
	PacketCycleComplete
)

// Packet is one control-plane message, mirroring master.Packet's shape
// in the teacher (a tagged union carried over a channel rather than a
// direct function call, so every state transition happens on the
// foreground goroutine).
type Packet struct {
	Kind    PacketKind
	Alarm   report.AlarmCode
	Delta   int         // signed step for feed/spindle overrides; the new percentage for PacketRapidOverride.
	Coolant CoolantKind // which stream PacketCoolantToggle flips.
}

// Overrides holds the three independently adjustable motion scalers.
type Overrides struct {
	Feed    int
	Rapid   int
	Spindle int
}

func defaultOverrides() Overrides {
	return Overrides{Feed: OverrideDefault, Rapid: OverrideRapidFull, Spindle: OverrideDefault}
}

// CoolantKind selects which coolant stream a PacketCoolantToggle flips.
type CoolantKind int

const (
	CoolantFlood CoolantKind = iota
	CoolantMist
)

// CoolantState reports which coolant streams are currently energized.
type CoolantState struct {
	Flood bool
	Mist  bool
}

// SpindleStopOverride tracks the disabled/initiate/enabled/restore cycle
// a spindle-stop-toggle realtime command drives during a feed hold,
// matching original_source/grbl/System.h's sys.spindle_stop_ovr bitmask
// (collapsed to an enum here: this controller has no spindle driver that
// can be mid-transition on more than one of these states at once).
type SpindleStopOverride int

const (
	SpindleStopOverrideDisabled SpindleStopOverride = iota
	SpindleStopOverrideInitiate
	SpindleStopOverrideEnabled
	SpindleStopOverrideRestore
	SpindleStopOverrideRestoreCycle
)

// Executor owns the machine's top-level state and the foreground loop
// that serializes every transition onto a single goroutine. It holds no
// reference to the planner or interpreter directly: callers observe
// State()/Alarm() and submit packets, keeping the state machine testable
// without a full motion stack.
type Executor struct {
	mu             sync.Mutex
	state          report.MachineState
	alarm          report.AlarmCode
	overrides      Overrides
	coolant        CoolantState
	spindleStopOvr SpindleStopOverride
	preHold        report.MachineState // state to restore to after a door/hold clears.

	events *event.List

	control chan Packet
	done    chan struct{}
	wg      sync.WaitGroup

	// OnStateChange, when set, is called with the new state after every
	// transition, letting core/controller drive stepper enable/disable
	// and report broadcasting without this package depending on either.
	OnStateChange func(report.MachineState)

	// OnSpindleChange, when set, is called whenever the spindle-stop
	// override de-energizes or restores the spindle, letting a future
	// spindle driver hook the same sub-state machine Protocol.c's
	// suspend-manager loop drives without this package depending on it.
	OnSpindleChange func(energize bool)

	// OnOverrideChange, when set, is called with the new Overrides
	// snapshot after every feed/rapid/spindle override packet, letting
	// core/controller trigger a planner.Replan without this package
	// depending on core/planner.
	OnOverrideChange func(Overrides)
}

// New creates an Executor in StateIdle with default override percentages.
func New() *Executor {
	return &Executor{
		state:     report.StateIdle,
		overrides: defaultOverrides(),
		events:    event.NewList(),
		control:   make(chan Packet, 16),
		done:      make(chan struct{}),
	}
}

// State returns the current top-level machine state.
func (e *Executor) State() report.MachineState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Alarm returns the latched alarm code, report.AlarmNone when clear.
func (e *Executor) Alarm() report.AlarmCode {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.alarm
}

// Overrides returns a snapshot of the current override percentages.
func (e *Executor) Overrides() Overrides {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.overrides
}

// Coolant returns a snapshot of which coolant streams are energized.
func (e *Executor) Coolant() CoolantState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.coolant
}

// Events exposes the delta-time event list so callers can schedule
// dwells, idle-lock timeouts and debounce windows on the same clock the
// foreground loop advances.
func (e *Executor) Events() *event.List { return e.events }

// Submit enqueues a packet for processing on the foreground loop. Safe
// to call from any goroutine (console, transport, input poller).
func (e *Executor) Submit(p Packet) {
	select {
	case e.control <- p:
	case <-e.done:
	}
}

// Start runs the foreground loop until Stop is called.
func (e *Executor) Start() {
	e.wg.Add(1)
	defer e.wg.Done()

	ticker := time.NewTicker(PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-e.done:
			return
		case p := <-e.control:
			e.process(p)
		case <-ticker.C:
			e.mu.Lock()
			e.tickSpindleStopOvrLocked()
			e.mu.Unlock()
			e.events.Advance(PollInterval)
		}
	}
}

// Stop shuts the foreground loop down, waiting up to one second.
func (e *Executor) Stop() {
	close(e.done)
	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		slog.Warn("timed out waiting for executor to stop")
	}
}

func (e *Executor) process(p Packet) {
	e.mu.Lock()
	switch p.Kind {
	case PacketCycleStart:
		e.onCycleStart()
	case PacketFeedHold:
		e.onFeedHold()
	case PacketReset:
		e.onReset()
	case PacketSafetyDoorOpen:
		e.onDoorOpen()
	case PacketSafetyDoorClose:
		e.onDoorClose()
	case PacketJogCancel:
		if e.state == report.StateJog {
			e.setLocked(report.StateIdle)
		}
	case PacketCycleComplete:
		if e.state == report.StateRun {
			e.setLocked(report.StateIdle)
		}
	case PacketHoldSettled:
		if e.state == report.StateHoldActive {
			e.setLocked(report.StateHoldComplete)
		}
	case PacketHomingStart:
		e.setLocked(report.StateHoming)
	case PacketHomingComplete:
		if e.state == report.StateHoming {
			e.setLocked(report.StateIdle)
		}
	case PacketHomingFailed:
		e.raiseAlarmLocked(report.AlarmHomingFailApproach)
	case PacketToolChangeStart:
		e.setLocked(report.StateToolChange)
	case PacketToolChangeComplete:
		if e.state == report.StateToolChange {
			e.setLocked(report.StateIdle)
		}
	case PacketSleepTimeout:
		if e.state == report.StateIdle {
			e.setLocked(report.StateSleep)
		}
	case PacketCheckModeToggle:
		if e.state == report.StateIdle {
			e.setLocked(report.StateCheck)
		} else if e.state == report.StateCheck {
			e.setLocked(report.StateIdle)
		}
	case PacketAlarm:
		e.raiseAlarmLocked(p.Alarm)
	case PacketFeedOverride:
		e.overrides.Feed = clamp(e.overrides.Feed+p.Delta, OverrideFeedMin, OverrideFeedMax)
		e.fireOverrideChangeLocked()
	case PacketRapidOverride:
		e.overrides.Rapid = p.Delta
		e.fireOverrideChangeLocked()
	case PacketSpindleOverride:
		e.overrides.Spindle = clamp(e.overrides.Spindle+p.Delta, OverrideSpindleMin, OverrideSpindleMax)
		e.fireOverrideChangeLocked()
	case PacketSpindleStopToggle:
		e.onSpindleStopToggle()
	case PacketCoolantToggle:
		switch p.Coolant {
		case CoolantFlood:
			e.coolant.Flood = !e.coolant.Flood
		case CoolantMist:
			e.coolant.Mist = !e.coolant.Mist
		}
	}
	e.mu.Unlock()
}

// onCycleStart resumes a held/idle machine into Run, matching the
// cycle-start realtime command's effect across every resumable state.
// A cycle start issued while the spindle-stop override has de-energized
// the spindle does not resume immediately: it instead flags
// RestoreCycle so the spindle re-energizes first, matching
// Protocol.c:423-424's "OR in RESTORE_CYCLE, resume after restore".
func (e *Executor) onCycleStart() {
	switch e.state {
	case report.StateHoldComplete:
		if e.spindleStopOvr == SpindleStopOverrideEnabled {
			e.spindleStopOvr = SpindleStopOverrideRestoreCycle
			return
		}
		e.setLocked(report.StateRun)
	case report.StateIdle, report.StateDoorReady:
		e.setLocked(report.StateRun)
	}
}

// onSpindleStopToggle advances the spindle-stop override one step:
// idle toggles it to Initiate (the next tick de-energizes the spindle),
// Enabled toggles it to Restore (the next tick re-energizes it), and a
// toggle while a restore is already pending is ignored, mirroring
// Protocol.c:573-577's toggle handler.
func (e *Executor) onSpindleStopToggle() {
	switch e.spindleStopOvr {
	case SpindleStopOverrideDisabled:
		e.spindleStopOvr = SpindleStopOverrideInitiate
	case SpindleStopOverrideEnabled:
		e.spindleStopOvr = SpindleStopOverrideRestore
	}
}

// tickSpindleStopOvrLocked advances a pending Initiate/Restore step once
// per poll interval, the Go equivalent of Protocol.c's hold-manager loop
// acting on sys.spindle_stop_ovr once per iteration. Caller holds e.mu.
func (e *Executor) tickSpindleStopOvrLocked() {
	switch e.spindleStopOvr {
	case SpindleStopOverrideInitiate:
		e.spindleStopOvr = SpindleStopOverrideEnabled
		e.fireSpindleChangeLocked(false)
	case SpindleStopOverrideRestore:
		e.spindleStopOvr = SpindleStopOverrideDisabled
		e.fireSpindleChangeLocked(true)
	case SpindleStopOverrideRestoreCycle:
		e.spindleStopOvr = SpindleStopOverrideDisabled
		e.fireSpindleChangeLocked(true)
		e.setLocked(report.StateRun)
	}
}

// fireSpindleChangeLocked calls OnSpindleChange, if set, without holding
// e.mu, the same pattern setLocked uses for OnStateChange.
func (e *Executor) fireSpindleChangeLocked(energize bool) {
	cb := e.OnSpindleChange
	if cb == nil {
		return
	}
	e.mu.Unlock()
	cb(energize)
	e.mu.Lock()
}

// fireOverrideChangeLocked calls OnOverrideChange, if set, without
// holding e.mu.
func (e *Executor) fireOverrideChangeLocked() {
	cb := e.OnOverrideChange
	if cb == nil {
		return
	}
	ov := e.overrides
	e.mu.Unlock()
	cb(ov)
	e.mu.Lock()
}

// onFeedHold begins a hold from any actively-moving state. The
// transition to StateHoldComplete happens later via PacketHoldSettled,
// once the caller's stepper sub-aggregate reports zero velocity.
func (e *Executor) onFeedHold() {
	switch e.state {
	case report.StateRun, report.StateJog:
		e.setLocked(report.StateHoldActive)
	}
}

// onReset clears any alarm and forces the machine back to Idle,
// matching MC_Reset's unconditional state clear.
func (e *Executor) onReset() {
	e.alarm = report.AlarmNone
	e.overrides = defaultOverrides()
	e.spindleStopOvr = SpindleStopOverrideDisabled
	e.coolant = CoolantState{}
	e.setLocked(report.StateIdle)
}

func (e *Executor) onDoorOpen() {
	switch e.state {
	case report.StateRun, report.StateJog, report.StateHoldActive:
		e.preHold = e.state
		e.setLocked(report.StateDoorRetracting)
	case report.StateIdle, report.StateHoldComplete:
		e.preHold = e.state
		e.setLocked(report.StateDoorAjar)
	}
}

func (e *Executor) onDoorClose() {
	if e.state == report.StateDoorAjar || e.state == report.StateDoorRestoring {
		e.setLocked(report.StateDoorReady)
	}
}

func (e *Executor) raiseAlarmLocked(code report.AlarmCode) {
	e.alarm = code
	e.setLocked(report.StateAlarm)
}

// setLocked assigns the new state and fires OnStateChange. Caller must
// hold e.mu; the callback itself runs without the lock held to avoid a
// re-entrant Submit deadlocking against a full control channel.
func (e *Executor) setLocked(s report.MachineState) {
	e.state = s
	cb := e.OnStateChange
	if cb == nil {
		return
	}
	e.mu.Unlock()
	cb(s)
	e.mu.Lock()
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
