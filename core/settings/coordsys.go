/*
 * core/settings - Work coordinate system table
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

	"github.com/cncmotion/core/core/axis"
)

// Coordinate system slot indices. G54..G59 occupy 0..5; G28 and G30 are
// reference positions, not selectable as the active WCS.
const (
	WCS_G54 = iota
	WCS_G55
	WCS_G56
	WCS_G57
	WCS_G58
	WCS_G59
	WCS_G28
	WCS_G30
	WCSCount
)

// CoordinateSystems holds the eight (G54..G59, G28, G30; G92 is kept
// separately) offset vectors, each individually CRC-8 protected as its own NVRAM record so a
// corrupt G59 slot doesn't invalidate G54.
type CoordinateSystems struct {
	Slots [WCSCount]axis.Vector
	G92   axis.Vector // Non-persistent extra offset, reset by G92.1 or power-up.
}

// SlotCRC8 returns the CRC-8 of one slot's marshaled bytes.
func (c *CoordinateSystems) SlotCRC8(slot int) uint8 {
	buf := &bytes.Buffer{}
	for _, f := range c.Slots[slot] {
		binary.Write(buf, binary.LittleEndian, f)
	}
	return CalculateCRC8(buf.Bytes())
}
