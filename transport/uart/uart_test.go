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

package uart

import (
	"context"
	"errors"
	"testing"
	"time"

	xcp "github.com/CalibraProject/go-xcp"
)

// TestTransportCreation verifies basic transport creation and properties
func TestTransportCreation(t *testing.T) {
	t.Parallel()

	testPortName := "/dev/ttyUSB0"
	transport := &Transport{
		portName: testPortName,
		timeout:  time.Second,
	}

	// Verify port name is stored correctly
	if transport.portName != testPortName {
		t.Errorf("Expected port name %s, got %s", testPortName, transport.portName)
	}

	// Verify transport type
	if transport.Type() != xcp.TransportUART {
		t.Errorf("Expected transport type %v, got %v", xcp.TransportUART, transport.Type())
	}

	// Verify IsConnected returns false for uninitialized transport
	if transport.IsConnected() {
		t.Error("Expected IsConnected() to return false for uninitialized transport")
	}
}

func TestExchangeOnClosedTransport(t *testing.T) {
	t.Parallel()

	transport := &Transport{
		portName: "/dev/ttyUSB0",
		timeout:  time.Second,
		closed:   true,
	}

	_, err := transport.Exchange(context.Background(), xcp.BuildSetMTA(0x2000))
	if !errors.Is(err, xcp.ErrTransportClosed) {
		t.Errorf("Expected ErrTransportClosed, got %v", err)
	}
}

func TestExchangeHonorsCancelledContext(t *testing.T) {
	t.Parallel()

	transport := &Transport{
		portName: "/dev/ttyUSB0",
		timeout:  time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := transport.Exchange(ctx, xcp.BuildSetMTA(0x2000))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestSetTimeoutValidation(t *testing.T) {
	t.Parallel()

	transport := &Transport{portName: "/dev/ttyUSB0", timeout: time.Second}

	if err := transport.SetTimeout(-time.Second); !errors.Is(err, xcp.ErrInvalidParameter) {
		t.Errorf("Expected ErrInvalidParameter, got %v", err)
	}

	if err := transport.SetTimeout(500 * time.Millisecond); err != nil {
		t.Errorf("SetTimeout failed: %v", err)
	}
	if transport.timeout != 500*time.Millisecond {
		t.Errorf("timeout = %v, want 500ms", transport.timeout)
	}
}
