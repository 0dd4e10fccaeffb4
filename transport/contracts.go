/*
 * transport - External collaborator contracts
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

// Package transport names the external collaborators this module reads
// and writes through but never implements itself: the byte stream an
// operator or CAM sender talks over, the stepper driver chip wired to
// each axis, and non-volatile settings storage. Every type in this file is
// an interface, the way core/axis.Driver and core/settings.NVRAM are
// contracts rather than GPIO/flash code; the package's other files hold
// reference implementations (TCPServer, GPIOAxis, Framer).
package transport

import (
	"io"

	"github.com/cncmotion/core/core/axis"
)

// ByteTransport is one bidirectional line-oriented connection: a serial
// port, a TCP socket, or a test pipe. Close unblocks any pending Read.
type ByteTransport interface {
	io.ReadWriteCloser
}

// Listener accepts ByteTransport connections. TCPServer in transport/tcp.go
// uses a net.Listener directly and does not implement this interface.
type Listener interface {
	Accept() (ByteTransport, error)
	Close() error
}

// RegisterComm is the register-level wire protocol to a stepper driver
// chip (TMC-class: UART single-wire or SPI daisy chain), addressed by a
// per-chip index when multiple drivers share one bus.
type RegisterComm interface {
	WriteRegister(reg uint8, value uint32, address uint8) error
	ReadRegister(reg uint8, address uint8) (uint32, error)
}

// AxisDriver is a stepper driver chip wired to one axis: step/dir/enable
// output (core/axis.Driver) plus the register channel used to read back
// driver status (IOIN, stall flags) or write run current and microstep
// configuration. A build driving axes with plain step/dir signals and no
// register interface never implements this; it satisfies core/axis.Driver
// alone.
type AxisDriver interface {
	axis.Driver
	RegisterComm
	Version() (uint8, error)
}
