// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

// Package deviceutil implements CLI sessions to network devices.
package deviceutil

import (
	"context"
	"errors"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/ssh"
)

const (
	DefaultPort           = 22
	DefaultTimeout        = 30 * time.Second
	DefaultCommandTimeout = 90 * time.Second
)

// Connection holds the parameters required to open a CLI session to a device.
type Connection struct {
	// Address is the host name or IP address of the device, optionally including a port.
	Address  string
	Username string
	Password string // #nosec G117
	// Port is used if Address does not carry a port. Defaults to [DefaultPort].
	Port int
	// Timeout bounds connection establishment and authentication.
	Timeout time.Duration
	// CommandTimeout bounds the execution of a single command.
	CommandTimeout time.Duration
	// HostKeyCallback verifies the host key presented by the device.
	// If nil, host keys are not verified.
	HostKeyCallback ssh.HostKeyCallback
}

// HostPort returns the address of the device in "host:port" form.
func (c *Connection) HostPort() string {
	if _, _, err := net.SplitHostPort(c.Address); err == nil {
		return c.Address
	}
	port := c.Port
	if port == 0 {
		port = DefaultPort
	}
	return net.JoinHostPort(c.Address, strconv.Itoa(port))
}

// Session runs CLI commands on a connected device.
type Session interface {
	// Run executes cmd and returns its standard output.
	Run(ctx context.Context, cmd string) (string, error)
	// Close terminates the session.
	Close() error
}

// Dialer opens sessions to devices.
type Dialer interface {
	Dial(ctx context.Context, conn *Connection) (Session, error)
}

var (
	// ErrAuthentication is matched by errors caused by rejected credentials.
	ErrAuthentication = errors.New("authentication failed")
	// ErrTimeout is matched by errors caused by an exceeded deadline.
	ErrTimeout = errors.New("timeout")
	// ErrCommand is matched by all other session errors.
	ErrCommand = errors.New("command failed")
)

type classifiedError struct {
	kind error
	err  error
}

func (e *classifiedError) Error() string {
	return e.err.Error()
}

func (e *classifiedError) Unwrap() []error {
	return []error{e.kind, e.err}
}

// classify wraps err so that it matches exactly one of [ErrAuthentication],
// [ErrTimeout] or [ErrCommand].
func classify(err error) error {
	var netErr net.Error
	switch {
	case errors.Is(err, ErrAuthentication), errors.Is(err, ErrTimeout), errors.Is(err, ErrCommand):
		return err
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, os.ErrDeadlineExceeded):
		return &classifiedError{ErrTimeout, err}
	case errors.As(err, &netErr) && netErr.Timeout():
		return &classifiedError{ErrTimeout, err}
	case strings.Contains(err.Error(), "unable to authenticate"):
		return &classifiedError{ErrAuthentication, err}
	default:
		return &classifiedError{ErrCommand, err}
	}
}
