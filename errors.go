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
	"errors"
	"fmt"
)

// Transport errors
var (
	// ErrTransportClosed is returned when an exchange is attempted on a
	// transport whose bus handle is no longer open.
	ErrTransportClosed = errors.New("transport closed")
	// ErrTransportTimeout is returned when a bus exchange does not
	// complete within the configured timeout.
	ErrTransportTimeout = errors.New("transport timeout")
	// ErrTransportRead indicates a failed read on the bus.
	ErrTransportRead = errors.New("transport read failed")
	// ErrTransportWrite indicates a failed write on the bus.
	ErrTransportWrite = errors.New("transport write failed")
	// ErrCommunicationFailed indicates a bus transaction that failed for
	// an unspecified reason.
	ErrCommunicationFailed = errors.New("communication failed")
)

// Protocol errors
var (
	// ErrSetMTAFailed is returned when the target rejects or errors the
	// SET_MTA command. No transfer is attempted after this.
	ErrSetMTAFailed = errors.New("SET_MTA failed")
	// ErrTransferFailed is returned when the target rejects the
	// SHORT_UPLOAD or DOWNLOAD following a successful SET_MTA.
	ErrTransferFailed = errors.New("transfer failed")
	// ErrShortResponse is returned when a positive response carries fewer
	// payload bytes than the requested width requires. It is never
	// silently zero-filled.
	ErrShortResponse = errors.New("short response")
	// ErrMalformedRequest is returned for unparseable request fields or a
	// write width that is not a multiple of eight bits.
	ErrMalformedRequest = errors.New("malformed request")
	// ErrDataTooLarge is returned when a DOWNLOAD payload exceeds the
	// six data bytes of a single frame.
	ErrDataTooLarge = errors.New("data too large for frame")
	// ErrInvalidParameter is returned for invalid configuration values.
	ErrInvalidParameter = errors.New("invalid parameter")
)

// ErrorType classifies errors for callers deciding whether to retry.
type ErrorType int

const (
	// ErrorTypePermanent indicates an error that will not resolve by
	// retrying.
	ErrorTypePermanent ErrorType = iota
	// ErrorTypeTransient indicates an error that may resolve by retrying.
	ErrorTypeTransient
	// ErrorTypeTimeout indicates an operation that exceeded its deadline.
	ErrorTypeTimeout
)

// TransportError wraps a bus-level failure with the operation and port it
// occurred on.
type TransportError struct {
	Err       error
	Op        string
	Port      string
	Type      ErrorType
	Retryable bool
}

func (e *TransportError) Error() string {
	if e.Port != "" {
		return fmt.Sprintf("%s %s: %v", e.Op, e.Port, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// NewTransportError creates a TransportError with the retryable flag
// derived from the error type.
func NewTransportError(op, port string, err error, errType ErrorType) *TransportError {
	return &TransportError{
		Op:        op,
		Port:      port,
		Err:       err,
		Type:      errType,
		Retryable: errType == ErrorTypeTransient || errType == ErrorTypeTimeout,
	}
}

// NewTimeoutError creates a retryable timeout TransportError.
func NewTimeoutError(op, port string) *TransportError {
	return NewTransportError(op, port, ErrTransportTimeout, ErrorTypeTimeout)
}

// NewTransportClosedError creates a permanent TransportError for use of a
// closed transport.
func NewTransportClosedError(op, port string) *TransportError {
	return NewTransportError(op, port, ErrTransportClosed, ErrorTypePermanent)
}

// IsRetryable reports whether the operation that produced err may succeed
// if retried. A TransportError carries an explicit flag; sentinel errors
// are classified by identity.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var te *TransportError
	if errors.As(err, &te) {
		return te.Retryable
	}
	switch {
	case errors.Is(err, ErrTransportTimeout),
		errors.Is(err, ErrTransportRead),
		errors.Is(err, ErrTransportWrite),
		errors.Is(err, ErrCommunicationFailed):
		return true
	default:
		return false
	}
}

// GetErrorType classifies err into an ErrorType. Unknown errors are
// treated as permanent.
func GetErrorType(err error) ErrorType {
	if err == nil {
		return ErrorTypePermanent
	}
	var te *TransportError
	if errors.As(err, &te) {
		return te.Type
	}
	switch {
	case errors.Is(err, ErrTransportTimeout):
		return ErrorTypeTimeout
	case errors.Is(err, ErrTransportRead),
		errors.Is(err, ErrTransportWrite),
		errors.Is(err, ErrCommunicationFailed):
		return ErrorTypeTransient
	default:
		return ErrorTypePermanent
	}
}
