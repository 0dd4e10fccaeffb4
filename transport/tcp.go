/*
 * transport - Reference TCP line listener
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
	"bufio"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/cncmotion/core/console"
)

// TCPServer listens on one port and runs a Console.Dispatch loop per
// connection, each connection getting its own line scanner but sharing
// the one Controller (and therefore the one motion state) underneath.
type TCPServer struct {
	wg         sync.WaitGroup
	listener   net.Listener
	shutdown   chan struct{}
	connection chan net.Conn
	console    *console.Console
	port       string
}

// NewTCPServer opens a listener on address (host:port or :port) serving
// the given console to every connection.
func NewTCPServer(address string, c *console.Console) (*TCPServer, error) {
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on address %s: %w", address, err)
	}
	return &TCPServer{
		listener:   listener,
		shutdown:   make(chan struct{}),
		connection: make(chan net.Conn),
		console:    c,
		port:       address,
	}, nil
}

// Start launches the accept and dispatch goroutines.
func (s *TCPServer) Start() {
	s.wg.Add(2)
	go s.acceptConnections()
	go s.handleConnections()
	slog.Info("transport: tcp listener started", "addr", s.listener.Addr().String())
}

// Stop closes the listener and waits up to one second for in-flight
// connections to notice the shutdown signal.
func (s *TCPServer) Stop() {
	close(s.shutdown)
	s.listener.Close()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		slog.Warn("transport: timed out waiting for tcp connections to finish", "addr", s.port)
	}
}

func (s *TCPServer) acceptConnections() {
	defer s.wg.Done()
	for {
		select {
		case <-s.shutdown:
			return
		default:
			conn, err := s.listener.Accept()
			if err != nil {
				continue
			}
			s.connection <- conn
		}
	}
}

func (s *TCPServer) handleConnections() {
	defer s.wg.Done()
	for {
		select {
		case <-s.shutdown:
			return
		case conn := <-s.connection:
			go s.handleClient(conn)
		}
	}
}

// handleClient feeds each received byte to a console.Session, until the
// peer disconnects. Byte-at-a-time reading (rather than a line-buffered
// bufio.Scanner) is what lets a realtime command byte act immediately
// even when it arrives mid-stream with no trailing CR/LF.
func (s *TCPServer) handleClient(conn net.Conn) {
	defer conn.Close()

	sess := s.console.NewSession()
	r := bufio.NewReader(conn)
	for {
		b, err := r.ReadByte()
		if err != nil {
			return
		}
		if dispErr := sess.Feed(conn, b); dispErr != nil {
			slog.Error("transport: dispatch error", "remote", conn.RemoteAddr(), "error", dispErr)
			return
		}
	}
}
