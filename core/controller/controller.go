/*
 * core/controller - Top-level motion controller aggregate
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

// Package controller wires every subsystem package into the single
// aggregate spec.md §9 asks for in place of the source firmware's
// process-wide globals: one struct owns settings, the interpreter, the
// planner, the stepper sub-aggregate and the executor state machine, and
// a foreground goroutine drains the planner into step segments the way
// rcornwell-S370/main.go wires its core, timer and telnet listener
// together and starts them as a group.
package controller

import (
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/cncmotion/core/core/axis"
	"github.com/cncmotion/core/core/exec"
	"github.com/cncmotion/core/core/gcode"
	"github.com/cncmotion/core/core/homing"
	"github.com/cncmotion/core/core/interp"
	"github.com/cncmotion/core/core/jog"
	"github.com/cncmotion/core/core/planner"
	"github.com/cncmotion/core/core/probe"
	"github.com/cncmotion/core/core/report"
	"github.com/cncmotion/core/core/segment"
	"github.com/cncmotion/core/core/settings"
	"github.com/cncmotion/core/core/stepper"
	"github.com/cncmotion/core/core/toolchange"
)

// TimerFreq is the stepper ISR's hardware reload clock, matching a
// typical STM32 advanced-control timer running from a prescaled
// F_CPU (util.h's 96MHz system clock divided to a 2MHz tick).
const TimerFreq = 2_000_000

// motionAdapter implements interp.MotionSink, jog.Sink and
// toolchange.Sink (all three share the same flat BufferLine shape) by
// packing their arguments into planner.LineData/AxisLimits, bridging the
// interpreter's narrow submission contract to the planner's richer one
// (see DESIGN.md's core/interp entry for why the two are split).
type motionAdapter struct {
	planner *planner.Buffer
	limits  planner.AxisLimits
}

func (a *motionAdapter) BufferLine(target axis.Vector, feedRate float32, condition uint16, lineNumber int, backlash bool) bool {
	return a.planner.BufferLine(target, planner.LineData{
		FeedRate:   feedRate,
		LineNumber: lineNumber,
		Condition:  condition,
		Backlash:   backlash,
	}, a.limits)
}

func limitsFromRecord(rec settings.Record) planner.AxisLimits {
	return planner.AxisLimits{
		StepsPerMM:      rec.StepsPerMM,
		Acceleration:    rec.Acceleration,
		MaxRate:         rec.MaxRate,
		JunctionDev:     rec.JunctionDev,
		FeedOverride:    exec.OverrideDefault,
		RapidOverride:   exec.OverrideRapidFull,
		SpindleOverride: exec.OverrideDefault,
		Backlash:        rec.Backlash,
	}
}

// Controller owns every long-lived subsystem and the goroutine that
// drains planner blocks into stepper motion.
type Controller struct {
	Store    *settings.Store
	Interp   *interp.Interp
	Planner  *planner.Buffer
	Steppers *stepper.Executor
	Exec     *exec.Executor
	Homing   *homing.Cycle
	Probe    *probe.Monitor

	adapter *motionAdapter

	wg   sync.WaitGroup
	done chan struct{}
}

// New wires a Controller from a loaded settings store and a concrete
// set of axis drivers/input pollers.
func New(store *settings.Store, axes stepper.AxisSet) *Controller {
	pl := planner.New()
	adapter := &motionAdapter{planner: pl, limits: limitsFromRecord(store.Settings)}
	st := stepper.NewExecutor(axes)

	c := &Controller{
		Store:    store,
		Planner:  pl,
		Steppers: st,
		Exec:     exec.New(),
		Homing:   &homing.Cycle{Steppers: st, Inputs: axes.Inputs},
		Probe:    &probe.Monitor{Steppers: st, Inputs: axes.Inputs},
		adapter:  adapter,
		done:     make(chan struct{}),
	}
	c.Interp = interp.New(&store.Coords, adapter)
	c.Interp.Changer = &toolChanger{c: c}
	c.Exec.OnStateChange = c.onStateChange
	c.Exec.OnOverrideChange = c.onOverrideChange
	return c
}

// onOverrideChange refreshes the planner's live override percentages and
// re-derives every queued block's nominal speed and entry-speed plan
// against them, so a feed/rapid/spindle override actually changes motion
// instead of sitting unread in core/exec (spec.md §4.3's override
// re-plan, grounded on Planner.c's Planner_UpdateVelocityProfileParams).
func (c *Controller) onOverrideChange(ov exec.Overrides) {
	c.adapter.limits.FeedOverride = ov.Feed
	c.adapter.limits.RapidOverride = ov.Rapid
	c.adapter.limits.SpindleOverride = ov.Spindle
	c.Planner.Replan(c.adapter.limits)
}

// toolChanger bridges interp.ToolChanger to core/toolchange.Execute,
// supplying the live position, tool-length-sensor location and G59.3
// fixture position the change sequence needs.
type toolChanger struct {
	c *Controller
}

func (t *toolChanger) ChangeTool(tool int) (float32, bool, gcode.StatusCode) {
	rec := t.c.Store.Settings
	tls := axis.Vector{}
	for i := 0; i < 3; i++ {
		tls[i] = float32(rec.TLSPosition[i]) / rec.StepsPerMM[i]
	}

	res, status := toolchange.Execute(t.c.ToolChangeSink(), t.c.Probe, rec, toolchange.Request{
		Tool:           tool,
		CurrentMM:      t.c.Interp.State.Position,
		G59_3Position:  t.c.Store.Coords.Slots[settings.WCS_G59],
		TLSPosition:    tls,
		TLSValid:       rec.TLSValid,
		ToolLengthAxis: axis.Z,
	})
	if status != gcode.StatusOK {
		return 0, false, status
	}
	if res.RequirePause {
		t.c.Exec.Submit(exec.Packet{Kind: exec.PacketToolChangeStart})
	}
	return res.NewLengthOffset, res.Probed, gcode.StatusOK
}

// RefreshLimits recomputes the planner's axis-limit snapshot after a
// $-setting write changes steps/mm, acceleration, max rate or junction
// deviation. Blocks already queued keep their originally computed
// ramps; only new BufferLine calls see the update.
func (c *Controller) RefreshLimits() {
	c.adapter.limits = limitsFromRecord(c.Store.Settings)
}

// JogSink and ToolChangeSink expose the shared motion adapter to the
// jog and toolchange packages without either importing core/planner
// directly.
func (c *Controller) JogSink() jog.Sink               { return c.adapter }
func (c *Controller) ToolChangeSink() toolchange.Sink { return c.adapter }

// Execute parses and runs one line of G-code through the interpreter,
// returning the status line the sender should see.
func (c *Controller) Execute(line string) gcode.StatusCode {
	block, status := gcode.Parse(line)
	if status != gcode.StatusOK {
		return status
	}
	return c.Interp.Execute(block)
}

// Start launches the background goroutine that drains planner blocks
// into stepper segments, plus the executor's own foreground loop.
func (c *Controller) Start() {
	go c.Exec.Start()
	c.wg.Add(1)
	go c.run()
}

// Stop halts both background goroutines, waiting up to one second for
// the drain loop to notice.
func (c *Controller) Stop() {
	close(c.done)
	waited := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(waited)
	}()
	select {
	case <-waited:
	case <-time.After(time.Second):
		slog.Warn("timed out waiting for controller drain loop to stop")
	}
	c.Exec.Stop()
}

// run is the consumer side of the planner ring buffer: while the
// executor is in StateRun, pull the current block, generate its step
// segments and drive the stepper executor, then discard the block and
// move to the next. Idles (sleeping idlePoll between checks) when the buffer is
// empty or the executor isn't in a motion-producing state.
func (c *Controller) run() {
	defer c.wg.Done()
	const idlePoll = 2 * time.Millisecond

	for {
		select {
		case <-c.done:
			return
		default:
		}

		if c.Exec.State() != report.StateRun && c.Exec.State() != report.StateJog && c.Exec.State() != report.StateHoming {
			time.Sleep(idlePoll)
			continue
		}

		if c.Planner.Empty() {
			c.Exec.Submit(exec.Packet{Kind: exec.PacketCycleComplete})
			time.Sleep(idlePoll)
			continue
		}

		c.runBlock(c.Planner.Current())
		c.Planner.Discard()
	}
}

// runBlock drives one planner block to completion via segment
// generation, the spec.md §4.4/§4.5 handoff from planned block to
// per-segment step pulses.
func (c *Controller) runBlock(block *planner.Block) {
	if block.StepEventCount == 0 {
		return
	}

	c.Steppers.WakeUp()
	c.Steppers.LoadBlock(block.Steps, block.DirectionNeg)

	stepsPerMM := float32(block.StepEventCount) / maxf(block.Millimeters, 1e-6)
	entry := float32(math.Sqrt(float64(block.EntrySpeedSqr)))
	profile := segment.NewProfile(block.Millimeters, entry, block.NominalSpeed, 0, block.Acceleration)
	segs := segment.Generate(profile, stepsPerMM, TimerFreq, 0, uint32(block.StepEventCount))

	c.Steppers.RunSegments(segs, uint32(block.StepEventCount), nil)

	select {
	case <-c.done:
	default:
		if c.Exec.State() == report.StateHoldActive && !c.Steppers.Stepping() {
			c.Exec.Submit(exec.Packet{Kind: exec.PacketHoldSettled})
		}
	}
}

func maxf(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}

func (c *Controller) onStateChange(s report.MachineState) {
	switch s {
	case report.StateAlarm, report.StateIdle, report.StateSleep:
		c.Steppers.Disable()
	case report.StateRun, report.StateJog, report.StateHoming:
		c.Steppers.WakeUp()
	}
}
