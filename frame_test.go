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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildSetMTA(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		addr uint32
		want Frame
	}{
		{
			name: "sram address",
			addr: 0x20000010,
			want: Frame{0xF6, 0x00, 0x00, 0x00, 0x10, 0x00, 0x00, 0x20},
		},
		{
			name: "zero address",
			addr: 0x00000000,
			want: Frame{0xF6, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00},
		},
		{
			name: "middle bytes are never transmitted",
			addr: 0xDEADBEEF,
			want: Frame{0xF6, 0x00, 0x00, 0x00, 0xEF, 0x00, 0x00, 0xDE},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, BuildSetMTA(tt.addr))
		})
	}
}

func TestBuildShortUpload(t *testing.T) {
	t.Parallel()
	got := BuildShortUpload(4, 0x20000010)
	want := Frame{0xF5, 0x04, 0x00, 0x00, 0x10, 0x00, 0x00, 0x20}
	assert.Equal(t, want, got)
}

// The wire format carries only bits 0-7 and 24-31 of the address, so a
// header round-trip recovers the address masked to those bits.
func TestAddressRoundTrip(t *testing.T) {
	t.Parallel()
	addrs := []uint32{0x00000000, 0x20000010, 0x080000FF, 0xDEADBEEF, 0xFFFFFFFF}
	for _, addr := range addrs {
		masked := addr & 0xFF0000FF
		assert.Equal(t, masked, setMTAAddress(BuildSetMTA(addr)), "SET_MTA addr %#08x", addr)
		assert.Equal(t, masked, setMTAAddress(BuildShortUpload(1, addr)), "SHORT_UPLOAD addr %#08x", addr)
	}
}

func TestBuildDownload(t *testing.T) {
	t.Parallel()

	t.Run("FourBytesLittleEndian", func(t *testing.T) {
		t.Parallel()
		frame, err := BuildDownload([]byte{0xEF, 0xBE, 0xAD, 0xDE})
		require.NoError(t, err)
		assert.Equal(t, Frame{0xF0, 0x04, 0xEF, 0xBE, 0xAD, 0xDE, 0x00, 0x00}, frame)
	})

	t.Run("SingleByte", func(t *testing.T) {
		t.Parallel()
		frame, err := BuildDownload([]byte{0x7F})
		require.NoError(t, err)
		assert.Equal(t, Frame{0xF0, 0x01, 0x7F, 0x00, 0x00, 0x00, 0x00, 0x00}, frame)
	})

	t.Run("MaxPayload", func(t *testing.T) {
		t.Parallel()
		frame, err := BuildDownload([]byte{1, 2, 3, 4, 5, 6})
		require.NoError(t, err)
		assert.Equal(t, Frame{0xF0, 0x06, 1, 2, 3, 4, 5, 6}, frame)
	})

	t.Run("TooLarge", func(t *testing.T) {
		t.Parallel()
		_, err := BuildDownload([]byte{1, 2, 3, 4, 5, 6, 7})
		assert.ErrorIs(t, err, ErrDataTooLarge)
	})
}

func TestNumElements(t *testing.T) {
	t.Parallel()
	tests := []struct {
		widthBits uint
		want      byte
	}{
		{8, 1},
		{16, 2},
		{32, 4},
		// non-standard widths pass through as a raw byte count
		{1, 1},
		{5, 5},
		{24, 24},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, NumElements(tt.widthBits), "width %d", tt.widthBits)
	}
}

func TestParseResponse(t *testing.T) {
	t.Parallel()

	t.Run("PositiveResponse", func(t *testing.T) {
		t.Parallel()
		resp, err := ParseResponse([]byte{0xFF, 0x78, 0x56, 0x34, 0x12, 0x00, 0x00, 0x00})
		require.NoError(t, err)
		assert.True(t, resp.OK())
		assert.Equal(t, uint64(0x12345678), resp.Value(4))
		assert.Equal(t, uint64(0x5678), resp.Value(2))
		assert.Equal(t, uint64(0x78), resp.Value(1))
	})

	t.Run("NegativeResponse", func(t *testing.T) {
		t.Parallel()
		resp, err := ParseResponse([]byte{0xFE, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00})
		require.NoError(t, err)
		assert.False(t, resp.OK())
		assert.Equal(t, byte(StatusErr), resp.Status)
	})

	t.Run("Empty", func(t *testing.T) {
		t.Parallel()
		_, err := ParseResponse(nil)
		assert.ErrorIs(t, err, ErrShortResponse)
	})

	t.Run("ValueCapsAtPayload", func(t *testing.T) {
		t.Parallel()
		resp, err := ParseResponse([]byte{0xFF, 0xAB})
		require.NoError(t, err)
		assert.Equal(t, uint64(0xAB), resp.Value(4))
	})
}

func TestFillerFrame(t *testing.T) {
	t.Parallel()
	f := FillerFrame()
	for i, b := range f {
		assert.Equal(t, byte(0xAA), b, "byte %d", i)
	}
}
