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

/*
Package xcp reads and writes memory on a running embedded target through a
restricted subset of the Universal Measurement and Calibration Protocol.

The supported command set is SET_MTA, SHORT_UPLOAD and DOWNLOAD, exchanged
as fixed 8-byte frames over a half-duplex calibration bus. A Session turns
logical read/write requests into correctly ordered command sequences: the
target's Memory Transfer Address register is re-set before every transfer,
and exactly one operation is in flight at a time.

Basic Usage:

	import (
	    "github.com/CalibraProject/go-xcp"
	    "github.com/CalibraProject/go-xcp/transport/spi"
	)

	// Open the calibration bus
	transport, err := spi.New("SPI0.0")
	if err != nil {
	    log.Fatal(err)
	}

	session, err := xcp.NewSession(transport, xcp.WithTimeout(time.Second))
	if err != nil {
	    log.Fatal(err)
	}
	defer session.Close()

	value, err := session.Read(ctx, 0x20000010, 32)
	if err != nil {
	    log.Fatal(err)
	}

	err = session.Write(ctx, 0x20000014, 16, 0x1234)

Transport Selection:

The native calibration bus is SPI (package transport/spi), which
implements the target firmware's prime-then-read response handshake. A
serial bridge carrying the same 8-byte frames is supported through
package transport/uart.

Error Handling:

All operations return inspectable errors:

	if errors.Is(err, xcp.ErrSetMTAFailed) {
	    // target rejected the addressing command; nothing was transferred
	}

Scope:

This package implements exactly the command subset above: no seed/key
security, no DAQ/STIM, no paged memory and no block transfers. The
control-channel gateway built on top of it lives in package gateway.
*/
package xcp
