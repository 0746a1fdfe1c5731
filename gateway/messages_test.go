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

package gateway

import (
	"testing"

	xcp "github.com/CalibraProject/go-xcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAddress(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		in      string
		want    uint32
		wantErr bool
	}{
		{"with prefix", "0x20000010", 0x20000010, false},
		{"without prefix", "20000010", 0x20000010, false},
		{"whitespace", " 0x1000 ", 0x1000, false},
		{"max", "0xFFFFFFFF", 0xFFFFFFFF, false},
		{"empty", "", 0, true},
		{"not hex", "street", 0, true},
		{"too wide", "0x100000000", 0, true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := parseAddress(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, xcp.ErrMalformedRequest)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseSize(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		in      string
		want    uint
		wantErr bool
	}{
		{"decimal", "32", 32, false},
		{"hex", "0x20", 32, false},
		{"eight", "8", 8, false},
		{"zero", "0", 0, true},
		{"empty", "", 0, true},
		{"garbage", "many", 0, true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := parseSize(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, xcp.ErrMalformedRequest)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseBinary(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		in      string
		want    uint64
		wantErr bool
	}{
		{"byte", "0b00101010", 0x2A, false},
		{"word", "0b11011110101011011011111011101111", 0xDEADBEEF, false},
		{"bare digits", "1010", 10, false},
		{"empty", "", 0, true},
		{"prefix only", "0b", 0, true},
		{"not binary", "0b21", 0, true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := parseBinary(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, xcp.ErrMalformedRequest)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatBinary(t *testing.T) {
	t.Parallel()
	tests := []struct {
		value     uint64
		widthBits uint
		want      string
	}{
		{0x2A, 8, "0b00101010"},
		{0x12345678, 32, "0b00010010001101000101011001111000"},
		{0, 16, "0b0000000000000000"},
		{1, 8, "0b00000001"},
		// a non-standard width is a byte count; the three bytes read
		// for width 3 are kept in full, not masked down to three bits
		{0x030201, 3, "0b110000001000000001"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, formatBinary(tt.value, tt.widthBits),
			"value %#x width %d", tt.value, tt.widthBits)
	}
}
