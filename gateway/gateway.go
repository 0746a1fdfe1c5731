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

// Package gateway bridges a websocket control channel to an XCP session.
//
// The gateway dials out to the control server, receives JSON request
// messages and answers each known request with exactly one reply. All
// request failures, including malformed fields and bus errors, are
// reported in the reply; nothing short of losing the channel stops the
// listener, and one bad message never affects the next.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	xcp "github.com/CalibraProject/go-xcp"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const writeWait = 10 * time.Second

// Client owns the control-channel connection and the XCP session behind
// it. It reconnects with backoff when the channel drops and releases the
// calibration bus deterministically when Run returns.
type Client struct {
	session *xcp.Session
	log     logrus.FieldLogger
	dialer  *websocket.Dialer
	retry   *xcp.RetryConfig
	conn    *websocket.Conn
	url     string
	writeMu sync.Mutex
}

// Option is a functional option for configuring a Client
type Option func(*Client)

// WithLogger sets the logger used for channel lifecycle and diagnostics.
func WithLogger(log logrus.FieldLogger) Option {
	return func(c *Client) { c.log = log }
}

// WithRetryConfig sets the dial/reconnect backoff policy.
func WithRetryConfig(config *xcp.RetryConfig) Option {
	return func(c *Client) { c.retry = config }
}

// WithHandshakeTimeout bounds the websocket handshake.
func WithHandshakeTimeout(timeout time.Duration) Option {
	return func(c *Client) { c.dialer.HandshakeTimeout = timeout }
}

// New creates a gateway client for the given control-channel URL. The
// client takes ownership of the session and closes it when Run returns.
func New(url string, session *xcp.Session, opts ...Option) *Client {
	c := &Client{
		url:     url,
		session: session,
		log:     logrus.StandardLogger(),
		dialer:  &websocket.Dialer{HandshakeTimeout: 30 * time.Second},
		retry:   xcp.DefaultRetryConfig(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run connects to the control channel and serves requests until ctx is
// cancelled or the reconnect attempts are exhausted. The session, and
// with it the calibration bus, is released before Run returns.
func (c *Client) Run(ctx context.Context) error {
	defer func() {
		if err := c.session.Close(); err != nil {
			c.log.WithError(err).Warn("failed to release calibration bus")
		} else {
			c.log.Info("calibration bus released")
		}
	}()

	for {
		conn, err := c.dial(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
		c.log.WithField("url", c.url).Info("control channel connected")

		c.serve(ctx, conn)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.log.Info("control channel lost, reconnecting")
	}
}

// dial connects with backoff. Dial failures are transient by nature
// (server restarts, tunnels flapping) and retried up to the configured
// attempts.
func (c *Client) dial(ctx context.Context) (*websocket.Conn, error) {
	var conn *websocket.Conn
	err := xcp.RetryWithConfig(ctx, c.retry, func() error {
		var dialErr error
		conn, _, dialErr = c.dialer.DialContext(ctx, c.url, nil) //nolint:bodyclose // handled by websocket
		if dialErr != nil {
			c.log.WithError(dialErr).WithField("url", c.url).Warn("control channel dial failed")
			return xcp.NewTransportError("dial", c.url, dialErr, xcp.ErrorTypeTransient)
		}
		return nil
	})
	return conn, err
}

// serve reads messages until the connection drops or ctx is cancelled.
func (c *Client) serve(ctx context.Context, conn *websocket.Conn) {
	c.writeMu.Lock()
	c.conn = conn
	c.writeMu.Unlock()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "shutting down")
			_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
			_ = conn.Close()
		case <-done:
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			c.log.WithError(err).Info("control channel closed")
			_ = conn.Close()
			return
		}
		if reply, ok := c.dispatch(ctx, data); ok {
			if err := c.send(reply); err != nil {
				c.log.WithError(err).Warn("failed to send reply")
			}
		}
	}
}

// dispatch parses one inbound message and produces its reply, if any.
// Unknown commands and messages that do not parse at all are logged and
// ignored without a reply.
func (c *Client) dispatch(ctx context.Context, data []byte) (any, bool) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		c.log.WithError(err).Warn("discarding unparseable control message")
		return nil, false
	}

	switch req.Cmd {
	case CmdInit:
		return c.handleInit(req), true
	case CmdMemRead:
		return c.handleMemRead(ctx, req), true
	case CmdMemWrite:
		return c.handleMemWrite(ctx, req), true
	case "":
		c.log.Warn("control message without cmd field")
		return nil, false
	default:
		c.log.WithField("cmd", req.Cmd).Warn("unknown control command")
		return nil, false
	}
}

func (c *Client) handleInit(req Request) InitReply {
	conID := req.ConID
	if conID == "" {
		conID = defaultConID
	}
	c.log.WithField("con_id", conID).Info("init acknowledged")
	return InitReply{Res: CmdInit, ConID: conID}
}

func (c *Client) handleMemRead(ctx context.Context, req Request) ReadReply {
	reply := ReadReply{Res: CmdMemRead, Add: req.Add}

	addr, err := parseAddress(req.Add)
	if err != nil {
		c.log.WithError(err).Warn("mem_read rejected")
		reply.Error = err.Error()
		return reply
	}
	width, err := parseSize(sizeOrDefault(req.Size))
	if err != nil {
		c.log.WithError(err).Warn("mem_read rejected")
		reply.Error = err.Error()
		return reply
	}

	value, err := c.session.Read(ctx, addr, width)
	if err != nil {
		c.log.WithError(err).WithFields(logrus.Fields{
			"add":  req.Add,
			"size": width,
		}).Warn("mem_read failed")
		reply.Error = readErrorString(err)
		return reply
	}

	formatted := formatBinary(value, width)
	reply.Value = &formatted
	c.log.WithFields(logrus.Fields{
		"add":   req.Add,
		"size":  width,
		"value": formatted,
	}).Debug("mem_read ok")
	return reply
}

func (c *Client) handleMemWrite(ctx context.Context, req Request) WriteReply {
	reply := WriteReply{Res: CmdMemWrite, Add: req.Add}

	addr, err := parseAddress(req.Add)
	if err != nil {
		c.log.WithError(err).Warn("mem_write rejected")
		reply.State = err.Error()
		return reply
	}
	width, err := parseSize(sizeOrDefault(req.Size))
	if err != nil {
		c.log.WithError(err).Warn("mem_write rejected")
		reply.State = err.Error()
		return reply
	}
	value, err := parseBinary(dataOrDefault(req.Data))
	if err != nil {
		c.log.WithError(err).Warn("mem_write rejected")
		reply.State = err.Error()
		return reply
	}

	if err := c.session.Write(ctx, addr, width, value); err != nil {
		c.log.WithError(err).WithFields(logrus.Fields{
			"add":  req.Add,
			"size": width,
		}).Warn("mem_write failed")
		reply.State = writeErrorString(err)
		return reply
	}

	reply.State = "success"
	c.log.WithFields(logrus.Fields{
		"add":  req.Add,
		"size": width,
	}).Debug("mem_write ok")
	return reply
}

// send serializes one reply onto the channel. The websocket writer is
// not safe for concurrent use, so replies funnel through a mutex.
func (c *Client) send(v any) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if c.conn == nil {
		return xcp.ErrTransportClosed
	}
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.conn.WriteJSON(v)
}

func sizeOrDefault(size string) string {
	if size == "" {
		return "1"
	}
	return size
}

func dataOrDefault(data string) string {
	if data == "" {
		return "0b00000000"
	}
	return data
}

// readErrorString maps a read failure to the error string the control
// client expects.
func readErrorString(err error) string {
	switch {
	case errors.Is(err, xcp.ErrSetMTAFailed):
		return "SET_MTA failed"
	case errors.Is(err, xcp.ErrTransferFailed):
		return "SHORT_UPLOAD failed"
	case errors.Is(err, xcp.ErrShortResponse):
		return "short response"
	default:
		return err.Error()
	}
}

// writeErrorString maps a write failure to the state string the control
// client expects.
func writeErrorString(err error) string {
	switch {
	case errors.Is(err, xcp.ErrSetMTAFailed):
		return "SET_MTA failed"
	case errors.Is(err, xcp.ErrTransferFailed):
		return "fail"
	default:
		return err.Error()
	}
}
