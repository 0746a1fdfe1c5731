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

// Package spi provides the SPI transport for the XCP calibration bus
package spi

import (
	"context"
	"fmt"
	"sync"
	"time"

	xcp "github.com/CalibraProject/go-xcp"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"
)

const (
	// Default bus clock matching the target firmware's qualification.
	defaultSpeed = 500 * physic.KiloHertz

	// Processing gap the target needs between receiving a command and
	// having its response ready to clock out.
	defaultDelay = time.Millisecond

	defaultTimeout = time.Second
)

// Transport implements the xcp.Transport interface for the native SPI
// calibration bus.
//
// SPI is full duplex at the electrical level but the target's command
// handler is half duplex: the bytes shifted in during the command
// transaction are garbage. The real response is retrieved by clocking
// filler frames after a short processing gap: one filler transaction
// primes the slave's output register, the next one captures the
// response. The sequence is a property of the target firmware and every
// exchange reproduces it exactly.
type Transport struct {
	port     spi.PortCloser
	conn     spi.Conn
	portName string
	delay    time.Duration
	timeout  time.Duration
	busMu    sync.Mutex
	stateMu  sync.Mutex
	closed   bool
}

// Option configures the transport at construction time.
type Option func(*config)

type config struct {
	speed physic.Frequency
	mode  spi.Mode
	delay time.Duration
}

// WithSpeed sets the bus clock frequency.
func WithSpeed(speed physic.Frequency) Option {
	return func(c *config) { c.speed = speed }
}

// WithMode sets the SPI mode.
func WithMode(mode spi.Mode) Option {
	return func(c *config) { c.mode = mode }
}

// WithDelay sets the processing gap between the command transaction and
// the response retrieval.
func WithDelay(delay time.Duration) Option {
	return func(c *config) { c.delay = delay }
}

// New creates a new SPI transport on the named port (e.g. "SPI0.0", or
// empty for the first available bus).
func New(portName string, opts ...Option) (*Transport, error) {
	cfg := &config{
		speed: defaultSpeed,
		mode:  spi.Mode0,
		delay: defaultDelay,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	// Initialize host
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize periph host: %w", err)
	}

	port, err := spireg.Open(portName)
	if err != nil {
		return nil, fmt.Errorf("failed to open SPI port %s: %w", portName, err)
	}

	conn, err := port.Connect(cfg.speed, cfg.mode, 8)
	if err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("failed to connect on SPI port %s: %w", portName, err)
	}

	return &Transport{
		port:     port,
		conn:     conn,
		portName: portName,
		delay:    cfg.delay,
		timeout:  defaultTimeout,
	}, nil
}

// Exchange performs one command/response transaction on the bus. The
// physical sequence runs under the bus lock in a separate goroutine so
// the caller can observe the timeout; the lock is only released once the
// in-flight sequence finishes, so a timed-out exchange can never
// interleave with the next one.
func (t *Transport) Exchange(ctx context.Context, cmd xcp.Frame) ([]byte, error) {
	t.stateMu.Lock()
	if t.closed {
		t.stateMu.Unlock()
		return nil, xcp.NewTransportClosedError("Exchange", t.portName)
	}
	timeout := t.timeout
	t.stateMu.Unlock()

	type result struct {
		resp []byte
		err  error
	}
	done := make(chan result, 1)
	go func() {
		t.busMu.Lock()
		defer t.busMu.Unlock()
		resp, err := t.transact(cmd)
		done <- result{resp, err}
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case r := <-done:
		return r.resp, r.err
	case <-ctx.Done():
		return nil, fmt.Errorf("exchange cancelled: %w", ctx.Err())
	case <-timer.C:
		return nil, xcp.NewTimeoutError("Exchange", t.portName)
	}
}

// transact runs the physical command/response sequence. Callers hold the
// bus lock.
func (t *Transport) transact(cmd xcp.Frame) ([]byte, error) {
	discard := make([]byte, xcp.FrameSize)

	// Shift out the command; the bytes received here are garbage.
	if err := t.conn.Tx(cmd[:], discard); err != nil {
		return nil, xcp.NewTransportError("Exchange", t.portName,
			fmt.Errorf("%w: %w", xcp.ErrTransportWrite, err), xcp.ErrorTypeTransient)
	}

	// Give the target time to process the command.
	time.Sleep(t.delay)

	// Prime, then read: the first filler frame shifts the response into
	// the slave's output register, the second captures it.
	filler := xcp.FillerFrame()
	if err := t.conn.Tx(filler[:], discard); err != nil {
		return nil, xcp.NewTransportError("Exchange", t.portName,
			fmt.Errorf("%w: %w", xcp.ErrTransportRead, err), xcp.ErrorTypeTransient)
	}

	resp := make([]byte, xcp.FrameSize)
	if err := t.conn.Tx(filler[:], resp); err != nil {
		return nil, xcp.NewTransportError("Exchange", t.portName,
			fmt.Errorf("%w: %w", xcp.ErrTransportRead, err), xcp.ErrorTypeTransient)
	}

	return resp, nil
}

// SetTimeout sets the per-exchange timeout.
func (t *Transport) SetTimeout(timeout time.Duration) error {
	if timeout <= 0 {
		return xcp.ErrInvalidParameter
	}
	t.stateMu.Lock()
	defer t.stateMu.Unlock()
	t.timeout = timeout
	return nil
}

// Close waits for any in-flight exchange and releases the SPI port.
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
		return fmt.Errorf("failed to close SPI port %s: %w", t.portName, err)
	}
	return nil
}

// IsConnected reports whether the bus handle is open.
func (t *Transport) IsConnected() bool {
	t.stateMu.Lock()
	defer t.stateMu.Unlock()
	return !t.closed && t.conn != nil
}

// Type returns the transport type.
func (*Transport) Type() xcp.TransportType {
	return xcp.TransportSPI
}

// Ensure Transport implements xcp.Transport
var _ xcp.Transport = (*Transport)(nil)
