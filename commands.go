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

// XCP command codes (master to slave)
const (
	cmdSetMTA      = 0xF6
	cmdShortUpload = 0xF5
	cmdDownload    = 0xF0
)

// XCP response packet identifiers (slave to master)
const (
	// StatusOK is the positive response identifier (RES).
	StatusOK = 0xFF
	// StatusErr is the negative response identifier (ERR).
	StatusErr = 0xFE
)

// FillerByte is clocked onto the bus when the master only needs to drive
// the clock to shift out the slave's response.
const FillerByte = 0xAA
