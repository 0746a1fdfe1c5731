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

// FrameSize is the fixed size of every command and response frame on the
// calibration bus. There is no higher-level packetization: one bus
// transaction always moves exactly one frame in each direction.
const FrameSize = 8

// maxDownloadData is the number of data bytes a DOWNLOAD frame can carry
// after the command code and length byte.
const maxDownloadData = 6

// Frame is one fixed-size command frame: a command code followed by up to
// seven bytes of command-specific payload, zero padded.
type Frame [FrameSize]byte

// FillerFrame returns a frame consisting entirely of filler bytes. It
// carries no command and is transmitted only to clock a response out of
// the slave.
func FillerFrame() Frame {
	return Frame{
		FillerByte, FillerByte, FillerByte, FillerByte,
		FillerByte, FillerByte, FillerByte, FillerByte,
	}
}

// BuildSetMTA builds a SET_MTA frame for the given target address.
//
// The slave firmware decodes only bits 0-7 and 24-31 of the address: the
// low byte sits at offset 4 and the high byte at offset 7, with the two
// middle bytes forced to zero. This is a quirk of the target's command
// parser, not a contiguous little-endian word, and must be reproduced
// exactly for bit compatibility.
func BuildSetMTA(addr uint32) Frame {
	var f Frame
	f[0] = cmdSetMTA
	f[4] = byte(addr)
	f[7] = byte(addr >> 24)
	return f
}

// BuildShortUpload builds a SHORT_UPLOAD frame requesting count bytes
// from the given address. The address uses the same partial encoding as
// SET_MTA.
func BuildShortUpload(count byte, addr uint32) Frame {
	var f Frame
	f[0] = cmdShortUpload
	f[1] = count
	f[4] = byte(addr)
	f[7] = byte(addr >> 24)
	return f
}

// BuildDownload builds a DOWNLOAD frame writing the given bytes at the
// current MTA. Returns ErrDataTooLarge if data exceeds the six bytes a
// single frame can carry.
func BuildDownload(data []byte) (Frame, error) {
	var f Frame
	if len(data) > maxDownloadData {
		return f, ErrDataTooLarge
	}
	f[0] = cmdDownload
	f[1] = byte(len(data))
	copy(f[2:], data)
	return f, nil
}

// Response is a decoded slave response: the status identifier followed by
// up to seven payload bytes. Only SHORT_UPLOAD responses carry a payload;
// its bytes hold the read value in little-endian order.
type Response struct {
	Payload []byte
	Status  byte
}

// OK reports whether the response carries the positive identifier.
func (r Response) OK() bool {
	return r.Status == StatusOK
}

// Value decodes the first n payload bytes as a little-endian unsigned
// integer. Callers must validate the payload length first; n is capped at
// the available payload.
func (r Response) Value(n int) uint64 {
	if n > len(r.Payload) {
		n = len(r.Payload)
	}
	var v uint64
	for i := n - 1; i >= 0; i-- {
		v = v<<8 | uint64(r.Payload[i])
	}
	return v
}

// ParseResponse decodes a raw response buffer as received from the bus.
// Returns ErrShortResponse for an empty buffer: a response with no status
// byte is meaningless and must never be interpreted as data.
func ParseResponse(buf []byte) (Response, error) {
	if len(buf) == 0 {
		return Response{}, ErrShortResponse
	}
	return Response{Status: buf[0], Payload: buf[1:]}, nil
}

// NumElements maps a request width in bits to the byte count transmitted
// in a SHORT_UPLOAD frame. The standard widths map to their byte sizes;
// any other width passes through unchanged as a raw byte count, which
// mirrors the target's permissive handling of non-standard widths.
// Callers must reject widths that do not fit the count byte before
// building the frame.
func NumElements(widthBits uint) byte {
	switch widthBits {
	case 8:
		return 1
	case 16:
		return 2
	case 32:
		return 4
	default:
		return byte(widthBits)
	}
}

// setMTAAddress recovers the address encoded in a SET_MTA or SHORT_UPLOAD
// frame. Only the low and high bytes are present on the wire; bits 8-23
// are always zero.
func setMTAAddress(f Frame) uint32 {
	return uint32(f[4]) | uint32(f[7])<<24
}
