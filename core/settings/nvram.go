/*
 * core/settings - NVRAM-backed persistence
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

package settings

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"log/slog"

	"github.com/cncmotion/core/core/axis"
)

// NVRAM is the external byte-storage collaborator (EEPROM, flash page,
// battery-backed SRAM, or a file on a host build). Only byte-range
// read/write is required of it; every higher-level concern (layout, CRC,
// restore-to-defaults) lives in this package, matching spec.md §1's "NVRAM
// byte I/O" external-collaborator boundary.
type NVRAM interface {
	ReadBlock(addr uint32, length int) ([]byte, error)
	WriteBlock(addr uint32, data []byte) error
}

// NVRAM layout, per spec.md §6.
const (
	AddrSchemaVersion = 0
	AddrGlobal        = 1
	AddrGlobalCRC     = 1018
	AddrToolTable     = 180
	AddrToolTableCRC  = 1019
	AddrCoordSystems  = 512
	coordSlotLen      = axis.Count*4 + 1 // N_AXIS floats + one CRC-8 byte.
	AddrStartupLines  = 768
	StartupLineLen    = 80
	AddrBuildInfo     = 926
)

// Store is the in-memory settings aggregate plus the NVRAM backend it is
// persisted to.
type Store struct {
	nv       NVRAM
	Settings Record
	Tools    ToolTable
	Coords   CoordinateSystems
}

// NewStore wires an NVRAM backend to a Store whose Settings start at
// Default() and whose Tools and Coords start zeroed; Load replaces all
// three with the stored records.
func NewStore(nv NVRAM) *Store {
	return &Store{nv: nv, Settings: Default()}
}

// Load reads the schema version, settings, tool table, and coordinate
// systems from NVRAM, validating each CRC-8 independently. A schema
// mismatch or CRC failure on the settings block forces a full
// restore-to-defaults (spec.md §7: "Fatal invariants ... restore defaults,
// report via status and continue; never brick"). A CRC failure isolated to
// the tool table or a single coordinate slot only resets that record.
func (s *Store) Load() error {
	verBuf, err := s.nv.ReadBlock(AddrSchemaVersion, 1)
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if len(verBuf) != 1 || verBuf[0] != SchemaVersion {
		slog.Warn("nvram schema mismatch, restoring defaults", "found", verBuf, "want", SchemaVersion)
		s.RestoreDefaults()
		return s.Save()
	}

	globalLen := len(s.Settings.Marshal())
	global, err := s.nv.ReadBlock(AddrGlobal, globalLen)
	if err != nil {
		return fmt.Errorf("read settings: %w", err)
	}
	crcBuf, err := s.nv.ReadBlock(AddrGlobalCRC, 1)
	if err != nil {
		return fmt.Errorf("read settings crc: %w", err)
	}
	if len(crcBuf) == 1 && CalculateCRC8(global) == crcBuf[0] {
		if rec, err := Unmarshal(global); err == nil {
			s.Settings = rec
		} else {
			slog.Warn("settings decode failed, restoring defaults", "err", err)
			s.Settings = Default()
		}
	} else {
		slog.Warn("settings crc mismatch, restoring defaults")
		s.Settings = Default()
	}

	toolLen := len(s.Tools.Marshal())
	toolBuf, err := s.nv.ReadBlock(AddrToolTable, toolLen)
	if err == nil {
		toolCRC, err2 := s.nv.ReadBlock(AddrToolTableCRC, 1)
		if err2 == nil && len(toolCRC) == 1 && CalculateCRC8(toolBuf) == toolCRC[0] {
			if tt, err3 := UnmarshalToolTable(toolBuf); err3 == nil {
				s.Tools = tt
			} else {
				s.Tools = ToolTable{}
			}
		} else {
			slog.Warn("tool table crc mismatch, clearing table")
			s.Tools = ToolTable{}
		}
	}

	for slot := 0; slot < WCSCount; slot++ {
		off := uint32(AddrCoordSystems + slot*coordSlotLen)
		record, err := s.nv.ReadBlock(off, coordSlotLen)
		if err != nil || len(record) != coordSlotLen {
			continue
		}
		payload, crc := record[:coordSlotLen-1], record[coordSlotLen-1]
		if CalculateCRC8(payload) != crc {
			slog.Warn("coordinate system crc mismatch, clearing slot", "slot", slot)
			s.Coords.Slots[slot] = axis.Vector{}
			continue
		}
		var v axis.Vector
		r := bytes.NewReader(payload)
		for i := range v {
			binary.Read(r, binary.LittleEndian, &v[i])
		}
		s.Coords.Slots[slot] = v
	}
	return nil
}

// Save writes the schema version, settings, tool table, and coordinate
// systems back to NVRAM with freshly computed CRC-8s.
func (s *Store) Save() error {
	if err := s.nv.WriteBlock(AddrSchemaVersion, []byte{SchemaVersion}); err != nil {
		return err
	}
	global := s.Settings.Marshal()
	if err := s.nv.WriteBlock(AddrGlobal, global); err != nil {
		return err
	}
	if err := s.nv.WriteBlock(AddrGlobalCRC, []byte{CalculateCRC8(global)}); err != nil {
		return err
	}
	toolBytes := s.Tools.Marshal()
	if err := s.nv.WriteBlock(AddrToolTable, toolBytes); err != nil {
		return err
	}
	if err := s.nv.WriteBlock(AddrToolTableCRC, []byte{CalculateCRC8(toolBytes)}); err != nil {
		return err
	}
	for slot := 0; slot < WCSCount; slot++ {
		buf := &bytes.Buffer{}
		for _, f := range s.Coords.Slots[slot] {
			binary.Write(buf, binary.LittleEndian, f)
		}
		payload := buf.Bytes()
		off := uint32(AddrCoordSystems + slot*coordSlotLen)
		if err := s.nv.WriteBlock(off, append(payload, CalculateCRC8(payload))); err != nil {
			return err
		}
	}
	return nil
}

// RestoreDefaults resets settings, tool table, and coordinate systems to
// factory defaults in memory. Callers must Save to persist.
func (s *Store) RestoreDefaults() {
	s.Settings = Default()
	s.Tools = ToolTable{}
	s.Coords = CoordinateSystems{}
}

// RestoreSettings resets only the settings record ($RST=$).
func (s *Store) RestoreSettings() { s.Settings = Default() }

// RestoreParameters resets only the coordinate systems ($RST=#).
func (s *Store) RestoreParameters() { s.Coords = CoordinateSystems{} }

// RestoreTools clears the tool table ($RST=&).
func (s *Store) RestoreTools() { s.Tools = ToolTable{} }
