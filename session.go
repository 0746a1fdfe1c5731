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
	"encoding/binary"
	"fmt"
	"sync"
)

// Session sequences logical memory operations into ordered command
// exchanges on the calibration bus.
//
// The target keeps a single Memory Transfer Address register, and a
// transfer is only meaningful immediately after a successful SET_MTA to
// the same address, so every Read and Write re-issues SET_MTA before its
// transfer. There is no persistent protocol state between operations.
//
// A session mutex holds exactly one logical operation in flight at a
// time: the SET_MTA and transfer exchanges of one operation must never
// interleave with another operation's exchanges.
type Session struct {
	transport Transport
	mu        sync.Mutex
}

// NewSession creates a session driving the given transport. The session
// takes ownership of the transport; Close releases it.
func NewSession(transport Transport, opts ...SessionOption) (*Session, error) {
	s := &Session{transport: transport}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Transport returns the underlying transport.
func (s *Session) Transport() Transport {
	return s.transport
}

// Close releases the underlying transport.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.transport.Close(); err != nil {
		return fmt.Errorf("failed to close transport: %w", err)
	}
	return nil
}

// Read reads one value of the given width in bits from the target
// address. Standard widths of 8, 16 and 32 bits read 1, 2 and 4 bytes;
// any other width is passed to the target as a raw byte count and must
// fit the single count byte of a SHORT_UPLOAD frame.
//
// The value is decoded little-endian from the response payload. A
// positive response carrying fewer payload bytes than the width requires
// fails with ErrShortResponse rather than decoding out of bounds.
func (s *Session) Read(ctx context.Context, addr uint32, widthBits uint) (uint64, error) {
	// A width of zero or one that truncates in the count byte would put
	// a zero-element request on the wire and decode a value from nothing.
	if widthBits == 0 || widthBits > 0xFF {
		return 0, fmt.Errorf("%w: read width %d does not fit the element count byte",
			ErrMalformedRequest, widthBits)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.setMTA(ctx, addr); err != nil {
		return 0, err
	}

	count := NumElements(widthBits)
	resp, err := s.exchange(ctx, BuildShortUpload(count, addr))
	if err != nil {
		return 0, err
	}
	if !resp.OK() {
		debugf("SHORT_UPLOAD addr=%#08x status=%#02x", addr, resp.Status)
		return 0, ErrTransferFailed
	}
	if int(count) > len(resp.Payload) {
		return 0, fmt.Errorf("%w: need %d payload bytes, got %d",
			ErrShortResponse, count, len(resp.Payload))
	}
	return resp.Value(int(count)), nil
}

// Write writes one value of the given width in bits to the target
// address. The width must be a multiple of eight bits and fit the six
// data bytes of a DOWNLOAD frame. No retry is attempted on failure; the
// caller decides whether to resend.
func (s *Session) Write(ctx context.Context, addr uint32, widthBits uint, value uint64) error {
	if widthBits == 0 || widthBits%8 != 0 {
		return fmt.Errorf("%w: write width %d is not a multiple of 8 bits",
			ErrMalformedRequest, widthBits)
	}
	n := int(widthBits / 8)

	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], value)
	frame, err := BuildDownload(buf[:n])
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.setMTA(ctx, addr); err != nil {
		return err
	}

	resp, err := s.exchange(ctx, frame)
	if err != nil {
		return err
	}
	if !resp.OK() {
		debugf("DOWNLOAD addr=%#08x status=%#02x", addr, resp.Status)
		return ErrTransferFailed
	}
	return nil
}

// setMTA points the target's transfer address register at addr. Callers
// hold the session mutex.
func (s *Session) setMTA(ctx context.Context, addr uint32) error {
	resp, err := s.exchange(ctx, BuildSetMTA(addr))
	if err != nil {
		return err
	}
	if !resp.OK() {
		debugf("SET_MTA addr=%#08x status=%#02x", addr, resp.Status)
		return ErrSetMTAFailed
	}
	return nil
}

func (s *Session) exchange(ctx context.Context, cmd Frame) (Response, error) {
	debugf("TX % 02X", cmd[:])
	raw, err := s.transport.Exchange(ctx, cmd)
	if err != nil {
		return Response{}, err
	}
	debugf("RX % 02X", raw)
	return ParseResponse(raw)
}
