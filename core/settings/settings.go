/*
 * core/settings - Persistent settings record, tool table, coordinate systems
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

// Package settings holds the controller's persisted configuration: per-axis
// kinematic limits, feature flags, homing parameters, the tool table, and
// the work coordinate systems. Every record is CRC-8 protected the way the
// source firmware protects its EEPROM blocks; this package only defines the
// byte layout and validation, not the NVRAM byte transport (see the NVRAM
// interface in nvram.go).
package settings

import (
	"bytes"
	"encoding/binary"

	"github.com/cncmotion/core/core/axis"
)

// Schema version stored in NVRAM byte 0. Bumped when the record layout
// changes so a stale image forces a restore-to-defaults instead of a
// silent misread.
const SchemaVersion uint8 = 1

// ToolChangeMode selects how M6 is handled.
type ToolChangeMode uint8

const (
	ToolChangeDisabled ToolChangeMode = iota
	ToolChangeManual
	ToolChangeManualG59_3
	ToolChangeSemiAutomatic
)

// System-flag bits (settings.SystemFlags).
const (
	FlagInvertReset uint8 = 1 << iota
	FlagInvertFeedHold
	FlagInvertCycleStart
	FlagInvertSafetyDoor
	FlagEnableHardLimits
)

// General feature-flag bits (settings.Flags).
const (
	FlagReportInches uint8 = 1 << iota
	FlagLaserMode
	FlagInvertStepperEnable
	FlagHardLimitsEnable
	FlagHomingEnable
	FlagSoftLimitsEnable
	FlagInvertLimitPins
	FlagInvertProbePin
)

// Extended feature-flag bits (settings.FlagsExt).
const (
	FlagLatheMode uint16 = 1 << iota
	FlagBufferSyncNVMWrite
	FlagEnableM7
	FlagForceHardLimitCheck
	FlagEnableBacklashComp
	FlagEnableMultiAxis
	FlagHomingInitLock
	FlagHomingForceSetOrigin
	FlagForceInitAlarm
	FlagCheckLimitsAtInit
)

// Status-report field bits (settings.FlagsReport).
const (
	ReportBufferState uint8 = 1 << iota
	ReportPinState
	ReportCurFeedSpeed
	ReportWorkCoordOffset
	ReportOverrides
	ReportLineNumbers
)

// Homing direction mask bits, one per axis; 1 == home toward negative.
type HomingDirMask uint8

// Record is the persistent settings struct. Field order matches
// original_source/grbl/Settings.h's Settings_t so the CRC-8 is computed
// over a stable, predictable byte layout.
type Record struct {
	StepsPerMM    axis.Vector
	MaxRate       axis.Vector
	Acceleration  axis.Vector
	MaxTravel     axis.Vector // Negative values: travel is bounded below zero.
	Backlash      axis.Vector
	ToolChange    ToolChangeMode
	TLSPosition   [3]int32 // Tool-length-sensor machine position, XYZ only.
	TLSValid      bool
	SystemFlags   uint8
	StepInvert    uint8
	DirInvert     uint8
	InputInvert   uint8 // Invert mask applied to limit/control inputs.
	IdleLockTime  uint8 // 0xFF: never disable steppers.
	StatusMask    uint8
	JunctionDev   float32
	ArcTolerance  float32
	RPMMax        float32
	RPMMin        float32
	EncoderPPR    uint16
	Flags         uint8
	FlagsExt      uint16
	FlagsReport   uint8
	HomingDirMask HomingDirMask
	HomingFeed    float32
	HomingSeek    float32
	HomingDebounceMS uint16
	HomingPulloff float32
	StartupLines  [2]string
	BuildInfo     string
}

// Default returns the factory-default settings record, grounded on
// original_source/grbl/defaults.h's nominal 3-axis mill values extended to
// five axes (A/B default to the same kinematics as Z).
func Default() Record {
	r := Record{
		StepsPerMM:   axis.Vector{250, 250, 250, 250, 250},
		MaxRate:      axis.Vector{500, 500, 500, 500, 500},
		Acceleration: axis.Vector{10, 10, 10, 10, 10},
		MaxTravel:    axis.Vector{-200, -200, -200, -200, -200},
		Backlash:     axis.Vector{},
		ToolChange:   ToolChangeManual,
		SystemFlags:  FlagEnableHardLimits,
		StepInvert:   0,
		DirInvert:    0,
		InputInvert:  0,
		IdleLockTime: 25,
		StatusMask:   0,
		JunctionDev:  0.01,
		ArcTolerance: 0.002,
		RPMMax:       1000,
		RPMMin:       0,
		EncoderPPR:   400,
		Flags:        FlagHomingEnable | FlagSoftLimitsEnable,
		FlagsExt:     0,
		FlagsReport:  ReportBufferState | ReportPinState | ReportCurFeedSpeed | ReportOverrides,
		HomingDirMask: 0,
		HomingFeed:    25,
		HomingSeek:    500,
		HomingDebounceMS: 250,
		HomingPulloff: 1,
		BuildInfo:     "",
	}
	return r
}

// Marshal packs the record into a stable byte layout for NVRAM storage.
func (r Record) Marshal() []byte {
	buf := &bytes.Buffer{}
	for _, v := range []axis.Vector{r.StepsPerMM, r.MaxRate, r.Acceleration, r.MaxTravel, r.Backlash} {
		for _, f := range v {
			binary.Write(buf, binary.LittleEndian, f)
		}
	}
	binary.Write(buf, binary.LittleEndian, uint8(r.ToolChange))
	for _, p := range r.TLSPosition {
		binary.Write(buf, binary.LittleEndian, p)
	}
	binary.Write(buf, binary.LittleEndian, boolByte(r.TLSValid))
	binary.Write(buf, binary.LittleEndian, r.SystemFlags)
	binary.Write(buf, binary.LittleEndian, r.StepInvert)
	binary.Write(buf, binary.LittleEndian, r.DirInvert)
	binary.Write(buf, binary.LittleEndian, r.InputInvert)
	binary.Write(buf, binary.LittleEndian, r.IdleLockTime)
	binary.Write(buf, binary.LittleEndian, r.StatusMask)
	binary.Write(buf, binary.LittleEndian, r.JunctionDev)
	binary.Write(buf, binary.LittleEndian, r.ArcTolerance)
	binary.Write(buf, binary.LittleEndian, r.RPMMax)
	binary.Write(buf, binary.LittleEndian, r.RPMMin)
	binary.Write(buf, binary.LittleEndian, r.EncoderPPR)
	binary.Write(buf, binary.LittleEndian, r.Flags)
	binary.Write(buf, binary.LittleEndian, r.FlagsExt)
	binary.Write(buf, binary.LittleEndian, r.FlagsReport)
	binary.Write(buf, binary.LittleEndian, uint8(r.HomingDirMask))
	binary.Write(buf, binary.LittleEndian, r.HomingFeed)
	binary.Write(buf, binary.LittleEndian, r.HomingSeek)
	binary.Write(buf, binary.LittleEndian, r.HomingDebounceMS)
	binary.Write(buf, binary.LittleEndian, r.HomingPulloff)
	return buf.Bytes()
}

func boolByte(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}

// Unmarshal decodes bytes produced by Marshal back into a Record, field by
// field in the same order. Startup lines and build info are not part of
// this layout, and Store.Save and Store.Load do not write or read them
// elsewhere: nvram.go reserves their offsets but stores nothing there.
func Unmarshal(data []byte) (Record, error) {
	r := Record{}
	buf := bytes.NewReader(data)
	for i := range []axis.Vector{{}, {}, {}, {}, {}} {
		v := [5]*axis.Vector{&r.StepsPerMM, &r.MaxRate, &r.Acceleration, &r.MaxTravel, &r.Backlash}[i]
		for j := range v {
			if err := binary.Read(buf, binary.LittleEndian, &v[j]); err != nil {
				return r, err
			}
		}
	}
	var toolChange uint8
	if err := binary.Read(buf, binary.LittleEndian, &toolChange); err != nil {
		return r, err
	}
	r.ToolChange = ToolChangeMode(toolChange)
	for i := range r.TLSPosition {
		if err := binary.Read(buf, binary.LittleEndian, &r.TLSPosition[i]); err != nil {
			return r, err
		}
	}
	var tlsValid uint8
	if err := binary.Read(buf, binary.LittleEndian, &tlsValid); err != nil {
		return r, err
	}
	r.TLSValid = tlsValid != 0
	for _, field := range []*uint8{&r.SystemFlags, &r.StepInvert, &r.DirInvert, &r.InputInvert, &r.IdleLockTime, &r.StatusMask} {
		if err := binary.Read(buf, binary.LittleEndian, field); err != nil {
			return r, err
		}
	}
	for _, field := range []*float32{&r.JunctionDev, &r.ArcTolerance, &r.RPMMax, &r.RPMMin} {
		if err := binary.Read(buf, binary.LittleEndian, field); err != nil {
			return r, err
		}
	}
	if err := binary.Read(buf, binary.LittleEndian, &r.EncoderPPR); err != nil {
		return r, err
	}
	if err := binary.Read(buf, binary.LittleEndian, &r.Flags); err != nil {
		return r, err
	}
	if err := binary.Read(buf, binary.LittleEndian, &r.FlagsExt); err != nil {
		return r, err
	}
	if err := binary.Read(buf, binary.LittleEndian, &r.FlagsReport); err != nil {
		return r, err
	}
	var homingDir uint8
	if err := binary.Read(buf, binary.LittleEndian, &homingDir); err != nil {
		return r, err
	}
	r.HomingDirMask = HomingDirMask(homingDir)
	for _, field := range []*float32{&r.HomingFeed, &r.HomingSeek} {
		if err := binary.Read(buf, binary.LittleEndian, field); err != nil {
			return r, err
		}
	}
	if err := binary.Read(buf, binary.LittleEndian, &r.HomingDebounceMS); err != nil {
		return r, err
	}
	if err := binary.Read(buf, binary.LittleEndian, &r.HomingPulloff); err != nil {
		return r, err
	}
	return r, nil
}

// CRC8 returns the CRC-8 over the record's marshaled bytes.
func (r Record) CRC8() uint8 {
	return CalculateCRC8(r.Marshal())
}

// HasFlag reports whether bit b is set in Flags.
func (r Record) HasFlag(b uint8) bool { return r.Flags&b != 0 }

// HasFlagExt reports whether bit b is set in FlagsExt.
func (r Record) HasFlagExt(b uint16) bool { return r.FlagsExt&b != 0 }

// LaserMode reports whether laser mode (dynamic power on motion) is active.
func (r Record) LaserMode() bool { return r.HasFlag(FlagLaserMode) }

// LatheMode reports whether X diameter mode is active.
func (r Record) LatheMode() bool { return r.HasFlagExt(FlagLatheMode) }
