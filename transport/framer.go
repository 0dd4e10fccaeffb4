/*
 * transport - Optional GrIP-style frame codec
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

package transport

import (
	"encoding/binary"

	"github.com/cncmotion/core/core/settings"
)

// FrameMagic opens every frame on a framed (non-raw-line) transport.
const FrameMagic = 0x55

// FrameVersion is the only header version this codec accepts.
const FrameVersion = 1

// frameHeaderLen is len(magic, version, msg_type, return_code, length-lo,
// length-hi, crc8, counter).
const frameHeaderLen = 8

// maxFramePayload bounds length so a corrupted header can't make the
// reader block waiting for gigabytes that will never arrive.
const maxFramePayload = 4096

// Frame is one decoded message: a header plus its payload.
type Frame struct {
	MsgType    uint8
	ReturnCode uint8
	Counter    uint8
	Payload    []byte
}

// EncodeFrame marshals f into wire bytes: magic, version, msg_type,
// return_code, a little-endian length, a CRC-8 over the payload, the
// counter, then the payload itself.
func EncodeFrame(f Frame) []byte {
	buf := make([]byte, frameHeaderLen+len(f.Payload))
	buf[0] = FrameMagic
	buf[1] = FrameVersion
	buf[2] = f.MsgType
	buf[3] = f.ReturnCode
	binary.LittleEndian.PutUint16(buf[4:6], uint16(len(f.Payload)))
	buf[6] = settings.CalculateCRC8(f.Payload)
	buf[7] = f.Counter
	copy(buf[frameHeaderLen:], f.Payload)
	return buf
}

// framerState is the byte-at-a-time decode state, the software analogue
// of a UART receive ISR resetting to idle on any framing error.
type framerState int

const (
	stateIdle framerState = iota
	stateHeader
	statePayload
)

// Framer decodes one frame at a time out of a byte stream that may
// deliver partial frames across multiple Feed calls, matching the
// original firmware's interrupt-driven single-byte receive path.
type Framer struct {
	state   framerState
	header  [frameHeaderLen]byte
	headPos int
	payload []byte
	payPos  int
}

// Feed consumes one received byte. It returns a decoded Frame and true
// once a complete, CRC-valid frame has been assembled; any framing
// error (bad magic, bad version, oversized length, bad CRC) silently
// resets the state machine to idle and resumes hunting for the next
// magic byte, exactly as a wire receiver would resync after noise.
func (fr *Framer) Feed(b byte) (Frame, bool) {
	switch fr.state {
	case stateIdle:
		if b == FrameMagic {
			fr.header[0] = b
			fr.headPos = 1
			fr.state = stateHeader
		}
		return Frame{}, false

	case stateHeader:
		fr.header[fr.headPos] = b
		fr.headPos++
		if fr.headPos < frameHeaderLen {
			return Frame{}, false
		}
		if fr.header[1] != FrameVersion {
			fr.reset()
			return Frame{}, false
		}
		length := int(binary.LittleEndian.Uint16(fr.header[4:6]))
		if length > maxFramePayload {
			fr.reset()
			return Frame{}, false
		}
		if length == 0 {
			return fr.complete()
		}
		fr.payload = make([]byte, length)
		fr.payPos = 0
		fr.state = statePayload
		return Frame{}, false

	case statePayload:
		fr.payload[fr.payPos] = b
		fr.payPos++
		if fr.payPos < len(fr.payload) {
			return Frame{}, false
		}
		return fr.complete()
	}
	return Frame{}, false
}

func (fr *Framer) complete() (Frame, bool) {
	defer fr.reset()
	if settings.CalculateCRC8(fr.payload) != fr.header[6] {
		return Frame{}, false
	}
	return Frame{
		MsgType:    fr.header[2],
		ReturnCode: fr.header[3],
		Counter:    fr.header[7],
		Payload:    fr.payload,
	}, true
}

func (fr *Framer) reset() {
	fr.state = stateIdle
	fr.headPos = 0
	fr.payPos = 0
	fr.payload = nil
}
