/*
 * console - Line-oriented command dispatch
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

// Package console dispatches one line at a time against a
// core/controller.Controller: "$"-prefixed system commands and bare
// g-code lines, the same table-driven shape
// rcornwell-S370/command/parser.ProcessCommand uses for its
// attach/detach/set/show family, applied to grbl's "$" command set
// (original_source/grbl/System.c's system_execute_line) instead.
package console

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/cncmotion/core/core/axis"
	"github.com/cncmotion/core/core/controller"
	"github.com/cncmotion/core/core/exec"
	"github.com/cncmotion/core/core/gcode"
	"github.com/cncmotion/core/core/jog"
	"github.com/cncmotion/core/core/opcodes"
	"github.com/cncmotion/core/core/report"
	"github.com/cncmotion/core/core/settings"
)

// Console binds command dispatch to a running Controller.
type Console struct {
	Ctrl *controller.Controller
}

// New wires a Console to a Controller.
func New(ctrl *controller.Controller) *Console {
	return &Console{Ctrl: ctrl}
}

// sysCmd is one "$" command table entry, mirroring parser.cmd's
// name/process/complete shape with "min" dropped: grbl's $ vocabulary is
// never abbreviated, so an exact prefix is the whole match.
type sysCmd struct {
	prefix  string
	process func(c *Console, w io.Writer, body string) gcode.StatusCode
}

var sysCmdList = []sysCmd{
	{prefix: "$$", process: (*Console).viewSettings},
	{prefix: "$#", process: (*Console).viewParameters},
	{prefix: "$G", process: (*Console).viewParserState},
	{prefix: "$I", process: (*Console).viewBuildInfo},
	{prefix: "$N", process: (*Console).viewStartupLines},
	{prefix: "$H", process: (*Console).home},
	{prefix: "$X", process: (*Console).unlock},
	{prefix: "$C", process: (*Console).toggleCheckMode},
	{prefix: "$J=", process: (*Console).jog},
	{prefix: "$RST=$", process: (*Console).restoreSettings},
	{prefix: "$RST=#", process: (*Console).restoreParameters},
	{prefix: "$RST=*", process: (*Console).restoreAll},
}

// Dispatch runs one line of input: a single realtime byte, a "$" system
// command, or a g-code block, writing the response to w. line is
// normalized through gcode.Assemble first, so lowercase g-code and
// "(...)"/";" comments are stripped the same way a byte-fed Session
// normalizes live transport input.
func (c *Console) Dispatch(w io.Writer, line string) error {
	if len(line) == 1 {
		if rt, ok := gcode.ClassifyRealtime(line[0]); ok {
			return c.realtime(w, rt)
		}
	}

	normalized, overflow := gcode.Assemble(line)
	if overflow {
		return report.StatusMessage(w, gcode.StatusOverflow)
	}
	return c.dispatchLine(w, normalized)
}

// dispatchLine routes one already-normalized line to the "$" system
// command table or the g-code interpreter. Both Dispatch and Session.Feed
// funnel through here once a complete line is in hand.
func (c *Console) dispatchLine(w io.Writer, line string) error {
	if line == "" {
		return nil
	}
	if line[0] == '$' {
		return report.StatusMessage(w, c.dispatchSystem(w, line))
	}
	return report.StatusMessage(w, c.Ctrl.Execute(line))
}

// realtime handles grbl's single-byte immediate commands, which bypass
// line buffering and the planner entirely (System.c's
// CMD_STATUS_REPORT/CMD_CYCLE_START/CMD_FEED_HOLD and the extended-ASCII
// override/toggle bytes gcode.ClassifyRealtime recognizes alongside them).
func (c *Console) realtime(w io.Writer, rt gcode.RealtimeByte) error {
	ov := c.Ctrl.Exec.Overrides()
	switch rt {
	case gcode.RTStatusReport:
		return report.Status(w, c.snapshot())
	case gcode.RTCycleStart:
		c.Ctrl.Exec.Submit(exec.Packet{Kind: exec.PacketCycleStart})
	case gcode.RTFeedHold:
		c.Ctrl.Exec.Submit(exec.Packet{Kind: exec.PacketFeedHold})
	case gcode.RTReset:
		c.Ctrl.Exec.Submit(exec.Packet{Kind: exec.PacketReset})
	case gcode.RTSafetyDoor:
		c.Ctrl.Exec.Submit(exec.Packet{Kind: exec.PacketSafetyDoorOpen})
	case gcode.RTJogCancel:
		c.Ctrl.Exec.Submit(exec.Packet{Kind: exec.PacketJogCancel})
	case gcode.RTFeedOverrideReset:
		c.Ctrl.Exec.Submit(exec.Packet{Kind: exec.PacketFeedOverride, Delta: exec.OverrideDefault - ov.Feed})
	case gcode.RTFeedOverrideCoarsePlus:
		c.Ctrl.Exec.Submit(exec.Packet{Kind: exec.PacketFeedOverride, Delta: exec.OverrideCoarseStep})
	case gcode.RTFeedOverrideCoarseMinus:
		c.Ctrl.Exec.Submit(exec.Packet{Kind: exec.PacketFeedOverride, Delta: -exec.OverrideCoarseStep})
	case gcode.RTFeedOverrideFinePlus:
		c.Ctrl.Exec.Submit(exec.Packet{Kind: exec.PacketFeedOverride, Delta: exec.OverrideFineStep})
	case gcode.RTFeedOverrideFineMinus:
		c.Ctrl.Exec.Submit(exec.Packet{Kind: exec.PacketFeedOverride, Delta: -exec.OverrideFineStep})
	case gcode.RTRapidOverrideReset:
		c.Ctrl.Exec.Submit(exec.Packet{Kind: exec.PacketRapidOverride, Delta: exec.OverrideRapidFull})
	case gcode.RTRapidOverrideMedium:
		c.Ctrl.Exec.Submit(exec.Packet{Kind: exec.PacketRapidOverride, Delta: exec.OverrideRapidMedium})
	case gcode.RTRapidOverrideLow:
		c.Ctrl.Exec.Submit(exec.Packet{Kind: exec.PacketRapidOverride, Delta: exec.OverrideRapidLow})
	case gcode.RTSpindleOverrideReset:
		c.Ctrl.Exec.Submit(exec.Packet{Kind: exec.PacketSpindleOverride, Delta: exec.OverrideDefault - ov.Spindle})
	case gcode.RTSpindleOverrideCoarsePlus:
		c.Ctrl.Exec.Submit(exec.Packet{Kind: exec.PacketSpindleOverride, Delta: exec.OverrideCoarseStep})
	case gcode.RTSpindleOverrideCoarseMinus:
		c.Ctrl.Exec.Submit(exec.Packet{Kind: exec.PacketSpindleOverride, Delta: -exec.OverrideCoarseStep})
	case gcode.RTSpindleOverrideFinePlus:
		c.Ctrl.Exec.Submit(exec.Packet{Kind: exec.PacketSpindleOverride, Delta: exec.OverrideFineStep})
	case gcode.RTSpindleOverrideFineMinus:
		c.Ctrl.Exec.Submit(exec.Packet{Kind: exec.PacketSpindleOverride, Delta: -exec.OverrideFineStep})
	case gcode.RTSpindleStopToggle:
		c.Ctrl.Exec.Submit(exec.Packet{Kind: exec.PacketSpindleStopToggle})
	case gcode.RTCoolantFloodToggle:
		c.Ctrl.Exec.Submit(exec.Packet{Kind: exec.PacketCoolantToggle, Coolant: exec.CoolantFlood})
	case gcode.RTCoolantMistToggle:
		c.Ctrl.Exec.Submit(exec.Packet{Kind: exec.PacketCoolantToggle, Coolant: exec.CoolantMist})
	}
	return nil
}

// snapshot builds a realtime status report from live controller state.
// Override percentages (core/exec.Overrides) have no field in
// report.Snapshot yet; they are reported separately once a transport
// wants grbl's "Ov:" field.
func (c *Console) snapshot() report.Snapshot {
	st := c.Ctrl.Store.Settings
	ip := c.Ctrl.Interp
	workOffset := ip.Coords.Slots[ip.State.ActiveWCS].Add(ip.State.G92Offset)
	workOffset[axis.Z] += ip.State.ToolLengthOffs
	return report.Snapshot{
		State:         c.Ctrl.Exec.State(),
		MachinePos:    c.Ctrl.Interp.State.Position,
		WorkOffset:    workOffset,
		ReportWorkPos: st.FlagsReport&settings.ReportWorkCoordOffset != 0,
		FeedRate:      c.Ctrl.Interp.State.Feed,
		SpindleSpeed:  c.Ctrl.Interp.State.SpindleSpeed,
		ReportFeed:    st.FlagsReport&settings.ReportCurFeedSpeed != 0,
		ReportPins:    st.FlagsReport&settings.ReportPinState != 0,
		BufferBlocks:  c.Ctrl.Planner.Len(),
		ReportBuffer:  st.FlagsReport&settings.ReportBufferState != 0,
	}
}

// dispatchSystem matches a "$" line against sysCmdList by longest prefix,
// then a numbered "$n=value" setting write if nothing in the table fits.
func (c *Console) dispatchSystem(w io.Writer, line string) gcode.StatusCode {
	var best *sysCmd
	for i := range sysCmdList {
		entry := &sysCmdList[i]
		if strings.HasPrefix(line, entry.prefix) {
			if best == nil || len(entry.prefix) > len(best.prefix) {
				best = entry
			}
		}
	}
	if best != nil {
		return best.process(c, w, line[len(best.prefix):])
	}
	if status, ok := c.writeSetting(line); ok {
		return status
	}
	return gcode.StatusInvalidStatement
}

// viewSettings prints every numbered setting as "$n=value", matching
// Report_GrblSettings' format (the numbering is this firmware's own
// settingsTable order, not stock Grbl's, since the Record layout differs).
func (c *Console) viewSettings(w io.Writer, _ string) gcode.StatusCode {
	rec := &c.Ctrl.Store.Settings
	for _, e := range settingsTable {
		fmt.Fprintf(w, "$%d=%s\n", e.n, e.get(rec))
	}
	return gcode.StatusOK
}

// viewParameters prints the work coordinate systems, G92 offset, and
// active tool length offset, matching Report_GCodeParamsCoord's
// "[G54:...]"/"[G92:...]"/"[TLO:...]" family.
func (c *Console) viewParameters(w io.Writer, _ string) gcode.StatusCode {
	names := []string{"G54", "G55", "G56", "G57", "G58", "G59", "G28", "G30"}
	coords := &c.Ctrl.Store.Coords
	for i, name := range names {
		fmt.Fprintf(w, "[%s:%s]\n", name, formatVector(coords.Slots[i]))
	}
	fmt.Fprintf(w, "[G92:%s]\n", formatVector(coords.G92))
	fmt.Fprintf(w, "[TLO:%.3f]\n", c.Ctrl.Interp.State.ToolLengthOffs)
	return gcode.StatusOK
}

// viewParserState prints the active modal state, matching Report_GCodeModes'
// "[GC:...]" line.
func (c *Console) viewParserState(w io.Writer, _ string) gcode.StatusCode {
	st := c.Ctrl.Interp.State
	fmt.Fprintf(w, "[GC:G%s G%s G%s G%s G%s F%.1f S%.1f T%d]\n",
		motionGCode(st.MotionMode), planeGCode(st.Plane), distanceGCode(st.Distance),
		unitsGCode(st.Units), wcsGCode(st.ActiveWCS), st.Feed, st.SpindleSpeed, st.ToolSelected)
	return gcode.StatusOK
}

func (c *Console) viewBuildInfo(w io.Writer, _ string) gcode.StatusCode {
	fmt.Fprintf(w, "[VER:%s]\n", c.Ctrl.Store.Settings.BuildInfo)
	return gcode.StatusOK
}

func (c *Console) viewStartupLines(w io.Writer, _ string) gcode.StatusCode {
	for i, line := range c.Ctrl.Store.Settings.StartupLines {
		fmt.Fprintf(w, "$N%d=%s\n", i, line)
	}
	return gcode.StatusOK
}

// home triggers a blocking homing cycle across every homing-enabled axis,
// matching "$H"'s synchronous behavior in the source firmware (the
// sender's line is not acknowledged until the cycle completes).
func (c *Console) home(w io.Writer, _ string) gcode.StatusCode {
	rec := c.Ctrl.Store.Settings
	if rec.Flags&settings.FlagHomingEnable == 0 {
		return gcode.StatusSettingDisabled
	}
	c.Ctrl.Exec.Submit(exec.Packet{Kind: exec.PacketHomingStart})
	positions, err := c.Ctrl.Homing.Run(homingMaskAll(), rec)
	if err != nil {
		c.Ctrl.Exec.Submit(exec.Packet{Kind: exec.PacketHomingFailed})
		return gcode.StatusSoftLimitError
	}
	for i := 0; i < axis.Count; i++ {
		c.Ctrl.Interp.State.Position[i] = float32(positions[i]) / rec.StepsPerMM[i]
	}
	c.Ctrl.Exec.Submit(exec.Packet{Kind: exec.PacketHomingComplete})
	return gcode.StatusOK
}

func homingMaskAll() uint8 {
	var m uint8
	for i := 0; i < axis.Count; i++ {
		m |= 1 << uint(i)
	}
	return m
}

// unlock handles "$X" by submitting exec.PacketReset, so it performs the
// executor's full reset handling rather than a separate alarm-only unlock.
func (c *Console) unlock(w io.Writer, _ string) gcode.StatusCode {
	c.Ctrl.Exec.Submit(exec.Packet{Kind: exec.PacketReset})
	return gcode.StatusOK
}

func (c *Console) toggleCheckMode(w io.Writer, _ string) gcode.StatusCode {
	c.Ctrl.Exec.Submit(exec.Packet{Kind: exec.PacketCheckModeToggle})
	return gcode.StatusOK
}

func (c *Console) restoreSettings(w io.Writer, _ string) gcode.StatusCode {
	c.Ctrl.Store.RestoreSettings()
	c.Ctrl.RefreshLimits()
	return gcode.StatusOK
}

func (c *Console) restoreParameters(w io.Writer, _ string) gcode.StatusCode {
	c.Ctrl.Store.RestoreParameters()
	return gcode.StatusOK
}

func (c *Console) restoreAll(w io.Writer, _ string) gcode.StatusCode {
	c.Ctrl.Store.RestoreDefaults()
	c.Ctrl.RefreshLimits()
	return gcode.StatusOK
}

// jog parses a "$J=" body as an ordinary motion block (it accepts G90/G91
// and unit words the same as a program line) and submits it through
// core/jog, bypassing the interpreter's modal bookkeeping the way
// Jog_Execute bypasses Gcode_ParseLine's program-flow state.
func (c *Console) jog(w io.Writer, body string) gcode.StatusCode {
	block, status := gcode.Parse(body)
	if status != gcode.StatusOK {
		return status
	}
	if len(block.AxisWords) == 0 {
		return gcode.StatusInvalidJogCommand
	}
	feed, ok := block.Values['F']
	if !ok {
		return gcode.StatusGcodeUndefinedFeedRate
	}

	incremental := containsCode(block.GCodes, "G91")
	inches := containsCode(block.GCodes, "G20")

	target := c.Ctrl.Interp.State.Position
	for letter, value := range block.AxisWords {
		idx := jogAxisIndex(letter)
		if idx < 0 {
			continue
		}
		v := float32(value)
		if inches {
			v *= 25.4
		}
		if incremental {
			target[idx] = c.Ctrl.Interp.State.Position[idx] + v
		} else {
			target[idx] = v
		}
	}

	status = jog.Execute(c.Ctrl.JogSink(), c.Ctrl.Store.Settings, jog.Request{
		Target:     target,
		FeedRate:   float32(feed),
		LineNumber: block.LineNumber,
	})
	if status != gcode.StatusOK {
		return status
	}
	c.Ctrl.Exec.Submit(exec.Packet{Kind: exec.PacketCycleStart})
	return gcode.StatusOK
}

func containsCode(codes []string, want string) bool {
	for _, code := range codes {
		if code == want {
			return true
		}
	}
	return false
}

func jogAxisIndex(letter byte) int {
	switch letter {
	case 'X':
		return axis.X
	case 'Y':
		return axis.Y
	case 'Z':
		return axis.Z
	case 'A':
		return axis.A
	case 'B':
		return axis.B
	}
	return -1
}

func formatVector(v axis.Vector) string {
	var b strings.Builder
	for i := 0; i < 3; i++ {
		if i > 0 {
			b.WriteByte(',')
		}
		fmt.Fprintf(&b, "%.3f", v[i])
	}
	return b.String()
}

func motionGCode(m int) string {
	switch m {
	case opcodes.MotionRapid:
		return "0"
	case opcodes.MotionLinear:
		return "1"
	case opcodes.MotionArcCW:
		return "2"
	case opcodes.MotionArcCCW:
		return "3"
	}
	return "0"
}

func planeGCode(p int) string {
	switch p {
	case opcodes.PlaneXY:
		return "17"
	case opcodes.PlaneZX:
		return "18"
	case opcodes.PlaneYZ:
		return "19"
	}
	return "17"
}

func distanceGCode(d int) string {
	if d == opcodes.DistanceIncremental {
		return "91"
	}
	return "90"
}

func unitsGCode(u int) string {
	if u == opcodes.UnitsInches {
		return "20"
	}
	return "21"
}

func wcsGCode(wcs int) string {
	return strconv.Itoa(54 + wcs)
}

// settingsTable defines the "$n" numbering this firmware reports and
// accepts writes against. Grouped by record section the way
// original_source/grbl/Settings.c's settings_store_global_setting switch
// is grouped, but renumbered around this Record's own field layout.
var settingsTable = buildSettingsTable()

type settingEntry struct {
	n   int
	get func(*settings.Record) string
	set func(*settings.Record, float64) gcode.StatusCode
}

func buildSettingsTable() []settingEntry {
	var t []settingEntry
	t = append(t,
		settingEntry{0, func(r *settings.Record) string { return strconv.Itoa(int(r.StepInvert)) },
			func(r *settings.Record, v float64) gcode.StatusCode { r.StepInvert = uint8(v); return gcode.StatusOK }},
		settingEntry{1, func(r *settings.Record) string { return strconv.Itoa(int(r.DirInvert)) },
			func(r *settings.Record, v float64) gcode.StatusCode { r.DirInvert = uint8(v); return gcode.StatusOK }},
		settingEntry{2, func(r *settings.Record) string { return strconv.Itoa(int(r.IdleLockTime)) },
			func(r *settings.Record, v float64) gcode.StatusCode { r.IdleLockTime = uint8(v); return gcode.StatusOK }},
		settingEntry{3, func(r *settings.Record) string { return strconv.Itoa(int(r.SystemFlags)) },
			func(r *settings.Record, v float64) gcode.StatusCode { r.SystemFlags = uint8(v); return gcode.StatusOK }},
		settingEntry{4, func(r *settings.Record) string { return strconv.Itoa(int(r.Flags)) },
			func(r *settings.Record, v float64) gcode.StatusCode { r.Flags = uint8(v); return gcode.StatusOK }},
		settingEntry{5, func(r *settings.Record) string { return strconv.Itoa(int(r.FlagsExt)) },
			func(r *settings.Record, v float64) gcode.StatusCode { r.FlagsExt = uint16(v); return gcode.StatusOK }},
		settingEntry{6, func(r *settings.Record) string { return strconv.Itoa(int(r.FlagsReport)) },
			func(r *settings.Record, v float64) gcode.StatusCode { r.FlagsReport = uint8(v); return gcode.StatusOK }},
		settingEntry{7, func(r *settings.Record) string { return fmt.Sprintf("%.4f", r.JunctionDev) },
			func(r *settings.Record, v float64) gcode.StatusCode { r.JunctionDev = float32(v); return gcode.StatusOK }},
		settingEntry{8, func(r *settings.Record) string { return fmt.Sprintf("%.4f", r.ArcTolerance) },
			func(r *settings.Record, v float64) gcode.StatusCode { r.ArcTolerance = float32(v); return gcode.StatusOK }},
		settingEntry{9, func(r *settings.Record) string { return fmt.Sprintf("%.1f", r.RPMMax) },
			func(r *settings.Record, v float64) gcode.StatusCode { r.RPMMax = float32(v); return gcode.StatusOK }},
		settingEntry{10, func(r *settings.Record) string { return fmt.Sprintf("%.1f", r.RPMMin) },
			func(r *settings.Record, v float64) gcode.StatusCode { r.RPMMin = float32(v); return gcode.StatusOK }},
		settingEntry{11, func(r *settings.Record) string { return strconv.Itoa(int(r.EncoderPPR)) },
			func(r *settings.Record, v float64) gcode.StatusCode { r.EncoderPPR = uint16(v); return gcode.StatusOK }},
		settingEntry{12, func(r *settings.Record) string { return strconv.Itoa(int(r.HomingDirMask)) },
			func(r *settings.Record, v float64) gcode.StatusCode { r.HomingDirMask = settings.HomingDirMask(v); return gcode.StatusOK }},
		settingEntry{13, func(r *settings.Record) string { return fmt.Sprintf("%.1f", r.HomingFeed) },
			func(r *settings.Record, v float64) gcode.StatusCode { r.HomingFeed = float32(v); return gcode.StatusOK }},
		settingEntry{14, func(r *settings.Record) string { return fmt.Sprintf("%.1f", r.HomingSeek) },
			func(r *settings.Record, v float64) gcode.StatusCode { r.HomingSeek = float32(v); return gcode.StatusOK }},
		settingEntry{15, func(r *settings.Record) string { return strconv.Itoa(int(r.HomingDebounceMS)) },
			func(r *settings.Record, v float64) gcode.StatusCode { r.HomingDebounceMS = uint16(v); return gcode.StatusOK }},
		settingEntry{16, func(r *settings.Record) string { return fmt.Sprintf("%.3f", r.HomingPulloff) },
			func(r *settings.Record, v float64) gcode.StatusCode { r.HomingPulloff = float32(v); return gcode.StatusOK }},
		settingEntry{17, func(r *settings.Record) string { return strconv.Itoa(int(r.ToolChange)) },
			func(r *settings.Record, v float64) gcode.StatusCode { r.ToolChange = settings.ToolChangeMode(v); return gcode.StatusOK }},
	)
	for i := 0; i < axis.Count; i++ {
		i := i
		t = append(t, settingEntry{20 + i,
			func(r *settings.Record) string { return fmt.Sprintf("%.3f", r.StepsPerMM[i]) },
			func(r *settings.Record, v float64) gcode.StatusCode {
				if v <= 0 {
					return gcode.StatusNegativeValue
				}
				r.StepsPerMM[i] = float32(v)
				return gcode.StatusOK
			}})
	}
	for i := 0; i < axis.Count; i++ {
		i := i
		t = append(t, settingEntry{30 + i,
			func(r *settings.Record) string { return fmt.Sprintf("%.3f", r.MaxRate[i]) },
			func(r *settings.Record, v float64) gcode.StatusCode { r.MaxRate[i] = float32(v); return gcode.StatusOK }})
	}
	for i := 0; i < axis.Count; i++ {
		i := i
		t = append(t, settingEntry{40 + i,
			func(r *settings.Record) string { return fmt.Sprintf("%.3f", r.Acceleration[i]) },
			func(r *settings.Record, v float64) gcode.StatusCode { r.Acceleration[i] = float32(v); return gcode.StatusOK }})
	}
	for i := 0; i < axis.Count; i++ {
		i := i
		t = append(t, settingEntry{50 + i,
			func(r *settings.Record) string { return fmt.Sprintf("%.3f", r.MaxTravel[i]) },
			func(r *settings.Record, v float64) gcode.StatusCode { r.MaxTravel[i] = float32(v); return gcode.StatusOK }})
	}
	for i := 0; i < axis.Count; i++ {
		i := i
		t = append(t, settingEntry{60 + i,
			func(r *settings.Record) string { return fmt.Sprintf("%.3f", r.Backlash[i]) },
			func(r *settings.Record, v float64) gcode.StatusCode { r.Backlash[i] = float32(v); return gcode.StatusOK }})
	}
	return t
}

// writeSetting handles "$n=value". ok is false when the line isn't of
// that shape at all (not a recognized command, rather than a bad value).
func (c *Console) writeSetting(line string) (gcode.StatusCode, bool) {
	body := line[1:]
	eq := strings.IndexByte(body, '=')
	if eq < 0 {
		return gcode.StatusOK, false
	}
	n, err := strconv.Atoi(body[:eq])
	if err != nil {
		return gcode.StatusOK, false
	}
	value, err := strconv.ParseFloat(body[eq+1:], 64)
	if err != nil {
		return gcode.StatusBadNumberFormat, true
	}
	for _, e := range settingsTable {
		if e.n != n {
			continue
		}
		status := e.set(&c.Ctrl.Store.Settings, value)
		if status == gcode.StatusOK {
			if err := c.Ctrl.Store.Save(); err != nil {
				return gcode.StatusSettingReadFail, true
			}
			c.Ctrl.RefreshLimits()
		}
		return status, true
	}
	return gcode.StatusInvalidStatement, true
}

