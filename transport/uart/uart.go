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

// Package uart provides a serial-bridge transport carrying XCP frames.
//
// Bench setups sometimes route the 8-byte calibration frames through a
// UART bridge instead of the native SPI bus. The link is full duplex, so
// there is no prime-then-read filler handshake: the bridge pushes the
// slave's response back as soon as it is ready.
package uart

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	xcp "github.com/CalibraProject/go-xcp"
	"go.bug.st/serial"
)

const (
	defaultBaudRate = 115200
	defaultTimeout  = time.Second
)

// Transport implements the xcp.Transport interface over a serial port.
type Transport struct {
	port     serial.Port
	portName string
	timeout  time.Duration
	busMu    sync.Mutex
	stateMu  sync.Mutex
	closed   bool
}

// Option configures the transport at construction time.
type Option func(*config)

type config struct {
	baudRate int
}

// WithBaudRate sets the serial baud rate.
func WithBaudRate(baudRate int) Option {
	return func(c *config) { c.baudRate = baudRate }
}

// New creates a new UART transport on the named serial port
// (e.g. /dev/ttyUSB0 or COM3).
func New(portName string, opts ...Option) (*Transport, error) {
	cfg := &config{baudRate: defaultBaudRate}
	for _, opt := range opts {
		opt(cfg)
	}

	mode := &serial.Mode{
		BaudRate: cfg.baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(portName, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", portName, err)
	}

	t := &Transport{
		port:     port,
		portName: portName,
		timeout:  defaultTimeout,
	}
	if err := port.SetReadTimeout(t.timeout); err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("failed to set read timeout on %s: %w", portName, err)
	}

	return t, nil
}

// Exchange writes one command frame and reads back one response frame.
func (t *Transport) Exchange(ctx context.Context, cmd xcp.Frame) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("exchange cancelled: %w", err)
	}

	t.stateMu.Lock()
	if t.closed {
		t.stateMu.Unlock()
		return nil, xcp.NewTransportClosedError("Exchange", t.portName)
	}
	timeout := t.timeout
	t.stateMu.Unlock()

	t.busMu.Lock()
	defer t.busMu.Unlock()

	if _, err := t.port.Write(cmd[:]); err != nil {
		return nil, xcp.NewTransportError("Exchange", t.portName,
			fmt.Errorf("%w: %w", xcp.ErrTransportWrite, err), xcp.ErrorTypeTransient)
	}

	// The serial read timeout bounds each Read call; the deadline bounds
	// the whole frame so a trickling bridge cannot hang the exchange.
	resp := make([]byte, xcp.FrameSize)
	deadline := time.Now().Add(timeout)
	read := 0
	for read < len(resp) {
		if time.Now().After(deadline) {
			return nil, xcp.NewTimeoutError("Exchange", t.portName)
		}
		n, err := t.port.Read(resp[read:])
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, xcp.NewTransportError("Exchange", t.portName,
				fmt.Errorf("%w: %w", xcp.ErrTransportRead, err), xcp.ErrorTypeTransient)
		}
		if n == 0 {
			// read timeout expired with no data
			return nil, xcp.NewTimeoutError("Exchange", t.portName)
		}
		read += n
	}

	return resp[:read], nil
}

// SetTimeout sets the per-exchange timeout.
func (t *Transport) SetTimeout(timeout time.Duration) error {
	if timeout <= 0 {
		return xcp.ErrInvalidParameter
	}
	t.stateMu.Lock()
	defer t.stateMu.Unlock()
	t.timeout = timeout
	if t.port != nil {
		if err := t.port.SetReadTimeout(timeout); err != nil {
			return fmt.Errorf("failed to set read timeout on %s: %w", t.portName, err)
		}
	}
	return nil
}

// Close releases the serial port.
func (t *Transport) Close() error {
	t.stateMu.Lock()
	if t.closed {
		t.stateMu.Unlock()
		return nil
	}
	t.closed = true
	t.stateMu.Unlock()

	t.busMu.Lock()
	defer t.busMu.Unlock()
	if t.port == nil {
		return nil
	}
	if err := t.port.Close(); err != nil {
		return fmt.Errorf("failed to close serial port %s: %w", t.portName, err)
	}
	return nil
}

// IsConnected reports whether the port is open.
func (t *Transport) IsConnected() bool {
	t.stateMu.Lock()
	defer t.stateMu.Unlock()
	return !t.closed && t.port != nil
}

// Type returns the transport type.
func (*Transport) Type() xcp.TransportType {
	return xcp.TransportUART
}

// Ensure Transport implements xcp.Transport
var _ xcp.Transport = (*Transport)(nil)
