// go-xcp
// Copyright (c) 2025 The Calibra Project Contributors.
// SPDX-License-Identifier: LGPL-3.0-or-later
//
// This file is part of go-xcp.
//
// go-xcp is free software; you can redistribute it and/or
// modify it under the terms of the GNU Lesser General Public
// License as published by the Free Software Foundation; either
// version 3 of the License, or (at your option) any later version.
//
// go-xcp is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with go-xcp; if not, write to the Free Software Foundation,
// Inc., 51 Franklin Street, Fifth Floor, Boston, MA  02110-1301, USA.

package xcp

import (
	"context"
	"sync"
	"time"
)

// MockTransport is an in-memory transport for tests. Responses are
// scripted per command code or through a response function, and every
// command frame is recorded in order so tests can assert on command
// sequencing and serialization.
type MockTransport struct {
	responses    map[byte][]byte
	errs         map[byte]error
	ResponseFunc func(cmd Frame) ([]byte, error)
	exchanges    []Frame
	Delay        time.Duration
	timeout      time.Duration
	mu           sync.Mutex
	closed       bool
}

// NewMockTransport creates a mock transport that answers every command
// with a positive, zero-payload response until scripted otherwise.
func NewMockTransport() *MockTransport {
	return &MockTransport{
		responses: make(map[byte][]byte),
		errs:      make(map[byte]error),
		timeout:   time.Second,
	}
}

// SetResponse scripts the raw response returned for a command code.
func (m *MockTransport) SetResponse(cmd byte, response []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[cmd] = append([]byte(nil), response...)
}

// SetError scripts an exchange failure for a command code.
func (m *MockTransport) SetError(cmd byte, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errs[cmd] = err
}

// Exchange records the command frame and returns the scripted response.
// A non-zero Delay holds the bus lock for its duration, emulating the
// target's processing gap for overlap tests.
func (m *MockTransport) Exchange(_ context.Context, cmd Frame) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, NewTransportClosedError("Exchange", "mock")
	}
	m.exchanges = append(m.exchanges, cmd)

	if m.Delay > 0 {
		time.Sleep(m.Delay)
	}

	if m.ResponseFunc != nil {
		return m.ResponseFunc(cmd)
	}
	if err, ok := m.errs[cmd[0]]; ok {
		return nil, err
	}
	if resp, ok := m.responses[cmd[0]]; ok {
		return append([]byte(nil), resp...), nil
	}
	return []byte{StatusOK, 0, 0, 0, 0, 0, 0, 0}, nil
}

// Exchanges returns the command frames seen so far, in order.
func (m *MockTransport) Exchanges() []Frame {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Frame(nil), m.exchanges...)
}

// CallCount returns how many frames with the given command code were
// exchanged.
func (m *MockTransport) CallCount(cmd byte) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, f := range m.exchanges {
		if f[0] == cmd {
			n++
		}
	}
	return n
}

// Close marks the transport closed.
func (m *MockTransport) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// SetTimeout records the configured timeout.
func (m *MockTransport) SetTimeout(timeout time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.timeout = timeout
	return nil
}

// IsConnected reports whether Close has been called.
func (m *MockTransport) IsConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return !m.closed
}

// Type returns TransportMock
func (*MockTransport) Type() TransportType {
	return TransportMock
}

// Ensure MockTransport implements Transport
var _ Transport = (*MockTransport)(nil)
