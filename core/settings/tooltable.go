/*
 * core/settings - Tool table
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
)

// MaxTools is the fixed tool table size (spec.md §3: "≥20 entries").
const MaxTools = 20

// ToolEntry is one tool table slot: an offset vector plus a radius, kept as
// a stable 4-float layout so the table's CRC-8 covers a fixed byte size
// regardless of which fields are in use.
type ToolEntry struct {
	XOffset  float32
	YOffset  float32
	ZOffset  float32
	Reserved float32 // Radius for lathe tools; unused slot kept for layout stability.
}

// ToolTable is the fixed-size, CRC-8 protected array of tool offsets.
type ToolTable struct {
	Tools [MaxTools]ToolEntry
}

// Get returns the entry for tool number n (1-based, as in G-code H/T
// words). Tool 0 means "no offset" and always returns the zero entry.
func (t *ToolTable) Get(n int) (ToolEntry, error) {
	if n == 0 {
		return ToolEntry{}, nil
	}
	if n < 1 || n > MaxTools {
		return ToolEntry{}, fmt.Errorf("tool number %d out of range [0,%d]", n, MaxTools)
	}
	return t.Tools[n-1], nil
}

// Set stores the entry for tool number n (1-based).
func (t *ToolTable) Set(n int, e ToolEntry) error {
	if n < 1 || n > MaxTools {
		return fmt.Errorf("tool number %d out of range [1,%d]", n, MaxTools)
	}
	t.Tools[n-1] = e
	return nil
}

// Marshal packs the table into a stable byte layout.
func (t *ToolTable) Marshal() []byte {
	buf := &bytes.Buffer{}
	for _, e := range t.Tools {
		binary.Write(buf, binary.LittleEndian, e)
	}
	return buf.Bytes()
}

// CRC8 returns the CRC-8 over the table's marshaled bytes.
func (t *ToolTable) CRC8() uint8 {
	return CalculateCRC8(t.Marshal())
}

// UnmarshalToolTable decodes bytes produced by Marshal back into a
// ToolTable.
func UnmarshalToolTable(data []byte) (ToolTable, error) {
	var t ToolTable
	buf := bytes.NewReader(data)
	for i := range t.Tools {
		if err := binary.Read(buf, binary.LittleEndian, &t.Tools[i]); err != nil {
			return t, fmt.Errorf("decode tool %d: %w", i+1, err)
		}
	}
	return t, nil
}
