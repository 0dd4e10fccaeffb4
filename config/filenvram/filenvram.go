/*
 * config/filenvram - File-backed NVRAM
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

// Package filenvram implements core/settings.NVRAM over a plain host
// file, standing in for the battery-backed SRAM or EEPROM block a real
// controller board would read and write at fixed byte offsets.
package filenvram

import (
	"os"
)

// imageSize covers every offset core/settings/nvram.go defines
// (AddrToolTableCRC at 1019 is the highest used byte) with headroom for
// schema growth.
const imageSize = 2048

// File is a settings.NVRAM backed by a single os.File, opened once at
// start and kept open for the life of the process.
type File struct {
	f *os.File
}

// Open opens (creating and zero-filling if necessary) name as an NVRAM
// image file.
func Open(name string) (*File, error) {
	f, err := os.OpenFile(name, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if info.Size() < imageSize {
		if err := f.Truncate(imageSize); err != nil {
			f.Close()
			return nil, err
		}
	}
	return &File{f: f}, nil
}

// Close releases the underlying file handle.
func (n *File) Close() error {
	return n.f.Close()
}

// ReadBlock reads length bytes starting at addr.
func (n *File) ReadBlock(addr uint32, length int) ([]byte, error) {
	buf := make([]byte, length)
	if _, err := n.f.ReadAt(buf, int64(addr)); err != nil {
		return nil, err
	}
	return buf, nil
}

// WriteBlock writes data starting at addr.
func (n *File) WriteBlock(addr uint32, data []byte) error {
	_, err := n.f.WriteAt(data, int64(addr))
	return err
}
