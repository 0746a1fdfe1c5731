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

// Command xcpgw bridges a websocket control channel to a calibration
// target on an SPI or UART bus.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	xcp "github.com/CalibraProject/go-xcp"
	"github.com/CalibraProject/go-xcp/gateway"
	"github.com/CalibraProject/go-xcp/transport/spi"
	"github.com/CalibraProject/go-xcp/transport/uart"
	"github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/physic"
)

type config struct {
	url               *string
	devicePath        *string
	spiSpeed          *int
	baudRate          *int
	exchangeDelay     *time.Duration
	timeout           *time.Duration
	reconnectAttempts *int
	reconnectBackoff  *time.Duration
	debug             *bool
}

func parseFlags() *config {
	cfg := &config{
		url: flag.String("url", "ws://localhost:8000/ws",
			"Websocket URL of the control server"),
		devicePath: flag.String("device", "/dev/spidev0.0",
			"Bus device path (e.g., /dev/spidev0.0 or /dev/ttyUSB0)"),
		spiSpeed: flag.Int("spi-speed", 500_000,
			"SPI clock speed in Hz (SPI devices only)"),
		baudRate: flag.Int("baud", 115200,
			"Baud rate (UART devices only)"),
		exchangeDelay: flag.Duration("exchange-delay", time.Millisecond,
			"Pause between command and response phases of a bus exchange (SPI devices only)"),
		timeout: flag.Duration("timeout", time.Second,
			"Timeout for a single bus exchange"),
		reconnectAttempts: flag.Int("reconnect-attempts", 0,
			"Websocket dial attempts per connection (0 = retry forever)"),
		reconnectBackoff: flag.Duration("reconnect-backoff", time.Second,
			"Initial backoff between websocket dial attempts"),
		debug: flag.Bool("debug", false, "Enable debug output"),
	}
	flag.Parse()

	if *cfg.debug {
		xcp.SetDebugEnabled(true)
	}

	return cfg
}

// newTransport creates a bus transport from a device path.
func newTransport(cfg *config) (xcp.Transport, error) {
	path := *cfg.devicePath
	if path == "" {
		return nil, errors.New("empty device path")
	}

	// Check for SPI pattern
	if strings.Contains(strings.ToLower(path), "spi") {
		transport, err := spi.New(path,
			spi.WithSpeed(physic.Frequency(*cfg.spiSpeed)*physic.Hertz),
			spi.WithDelay(*cfg.exchangeDelay),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create SPI transport: %w", err)
		}
		return transport, nil
	}

	// Default to UART for serial ports
	transport, err := uart.New(path, uart.WithBaudRate(*cfg.baudRate))
	if err != nil {
		return nil, fmt.Errorf("failed to create UART transport: %w", err)
	}
	return transport, nil
}

func retryConfig(cfg *config) *xcp.RetryConfig {
	rc := xcp.DefaultRetryConfig()
	rc.InitialBackoff = *cfg.reconnectBackoff
	// 0 disables the attempt limit: dialing retries until shutdown.
	rc.MaxAttempts = *cfg.reconnectAttempts
	return rc
}

func run() error {
	cfg := parseFlags()

	log := logrus.New()
	if *cfg.debug {
		log.SetLevel(logrus.DebugLevel)
	}

	transport, err := newTransport(cfg)
	if err != nil {
		return err
	}

	session, err := xcp.NewSession(transport, xcp.WithTimeout(*cfg.timeout))
	if err != nil {
		_ = transport.Close()
		return fmt.Errorf("failed to create session: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.WithFields(logrus.Fields{
		"url":    *cfg.url,
		"device": *cfg.devicePath,
		"bus":    transport.Type(),
	}).Info("starting gateway")

	client := gateway.New(*cfg.url, session,
		gateway.WithLogger(log),
		gateway.WithRetryConfig(retryConfig(cfg)),
	)
	return client.Run(ctx)
}

func main() {
	if err := run(); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
