/*
 * transport - Frame codec test set.
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

import "testing"

func feedAll(fr *Framer, data []byte) (Frame, bool) {
	for i, b := range data {
		frame, ok := fr.Feed(b)
		if ok {
			return frame, i == len(data)-1
		}
	}
	return Frame{}, false
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	want := Frame{MsgType: 3, ReturnCode: 0, Counter: 7, Payload: []byte("G1X10")}
	wire := EncodeFrame(want)

	var fr Framer
	got, ok := feedAll(&fr, wire)
	if !ok {
		t.Fatalf("frame not decoded from wire bytes: % x", wire)
	}
	if got.MsgType != want.MsgType || got.Counter != want.Counter {
		t.Errorf("decoded header = %+v, want %+v", got, want)
	}
	if string(got.Payload) != string(want.Payload) {
		t.Errorf("decoded payload = %q, want %q", got.Payload, want.Payload)
	}
}

func TestFeedRejectsBadVersion(t *testing.T) {
	wire := EncodeFrame(Frame{MsgType: 1, Payload: []byte("x")})
	wire[1] = FrameVersion + 1

	var fr Framer
	if _, ok := feedAll(&fr, wire); ok {
		t.Fatalf("expected no frame decoded for bad version")
	}
}

func TestFeedRejectsBadCRC(t *testing.T) {
	wire := EncodeFrame(Frame{MsgType: 1, Payload: []byte("x")})
	wire[6] ^= 0xFF

	var fr Framer
	if _, ok := feedAll(&fr, wire); ok {
		t.Fatalf("expected no frame decoded for corrupted CRC")
	}
}

func TestFeedResyncsAfterNoise(t *testing.T) {
	noise := []byte{0x00, 0x01, 0xAA}
	wire := EncodeFrame(Frame{MsgType: 9, Payload: []byte("ok")})

	var fr Framer
	stream := append(noise, wire...)
	got, ok := feedAll(&fr, stream)
	if !ok {
		t.Fatalf("expected frame to decode after leading noise")
	}
	if got.MsgType != 9 {
		t.Errorf("MsgType = %d, want 9", got.MsgType)
	}
}

func TestFeedRejectsOversizedLength(t *testing.T) {
	wire := EncodeFrame(Frame{MsgType: 1, Payload: []byte("x")})
	wire[4] = 0xFF
	wire[5] = 0xFF

	var fr Framer
	for _, b := range wire[:frameHeaderLen] {
		if _, ok := fr.Feed(b); ok {
			t.Fatalf("unexpected frame completion on oversized-length header")
		}
	}
	if fr.state != stateIdle {
		t.Errorf("state = %v, want stateIdle after oversized length reset", fr.state)
	}
}
