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
	"time"
)

// SessionOption is a functional option for configuring a Session
type SessionOption func(*Session) error

// WithTimeout sets the per-exchange timeout on the session's transport.
func WithTimeout(timeout time.Duration) SessionOption {
	return func(s *Session) error {
		if timeout <= 0 {
			return ErrInvalidParameter
		}
		return s.transport.SetTimeout(timeout)
	}
}
