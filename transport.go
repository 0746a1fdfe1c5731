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
	"time"
)

// Transport performs one synchronous frame exchange with the calibration
// slave. Implementations own the bus handle for their lifetime and must
// serialize exchanges internally: the bus has no multiplexing, and two
// interleaved exchanges would corrupt both responses.
type Transport interface {
	// Exchange transmits one command frame and returns the slave's
	// response bytes, normally a full frame. It blocks for the bus's
	// response-retrieval handshake and must respect ctx cancellation and
	// the configured timeout. A closed transport returns
	// ErrTransportClosed.
	Exchange(ctx context.Context, cmd Frame) ([]byte, error)

	// Close releases the bus handle. Further exchanges fail.
	Close() error

	// SetTimeout sets the per-exchange timeout.
	SetTimeout(timeout time.Duration) error

	// IsConnected reports whether the bus handle is open.
	IsConnected() bool

	// Type returns the transport type.
	Type() TransportType
}

// TransportType represents the type of transport
type TransportType string

const (
	// TransportSPI represents the native SPI calibration bus.
	TransportSPI TransportType = "spi"
	// TransportUART represents a serial bridge carrying the same frames.
	TransportUART TransportType = "uart"
	// TransportMock represents a mock transport for testing
	TransportMock TransportType = "mock"
)
