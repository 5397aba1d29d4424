// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

package deviceutil

import (
	"bytes"
	"cmp"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"time"

	"golang.org/x/crypto/ssh"
)

// SSHDialer opens sessions over SSH using password or keyboard-interactive authentication.
type SSHDialer struct{}

var _ Dialer = SSHDialer{}

func (SSHDialer) Dial(ctx context.Context, conn *Connection) (Session, error) {
	timeout := cmp.Or(conn.Timeout, DefaultTimeout)
	hostKeyCallback := conn.HostKeyCallback
	if hostKeyCallback == nil {
		hostKeyCallback = ssh.InsecureIgnoreHostKey() //nolint:gosec
	}
	config := &ssh.ClientConfig{
		User: conn.Username,
		Auth: []ssh.AuthMethod{
			ssh.Password(conn.Password),
			ssh.KeyboardInteractive(func(_, _ string, questions []string, _ []bool) ([]string, error) {
				answers := make([]string, len(questions))
				for i := range answers {
					answers[i] = conn.Password
				}
				return answers, nil
			}),
		},
		HostKeyCallback: hostKeyCallback,
		Timeout:         timeout,
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	addr := conn.HostPort()
	var d net.Dialer
	nc, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, classify(fmt.Errorf("failed to connect to %s: %w", addr, err))
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = nc.SetDeadline(deadline)
	}
	c, chans, reqs, err := ssh.NewClientConn(nc, addr, config)
	if err != nil {
		_ = nc.Close()
		return nil, classify(err)
	}
	_ = nc.SetDeadline(time.Time{})

	return &sshSession{
		client:  ssh.NewClient(c, chans, reqs),
		timeout: cmp.Or(conn.CommandTimeout, DefaultCommandTimeout),
	}, nil
}

type sshSession struct {
	client  *ssh.Client
	timeout time.Duration
}

func (s *sshSession) Run(ctx context.Context, cmd string) (_ string, reterr error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	session, err := s.client.NewSession()
	if err != nil {
		return "", classify(fmt.Errorf("failed to create ssh session: %w", err))
	}
	defer func() {
		if err := session.Close(); err != nil && !errors.Is(err, io.EOF) && reterr == nil {
			reterr = classify(fmt.Errorf("failed to close ssh session: %w", err))
		}
	}()

	var stdout, stderr bytes.Buffer
	session.Stdout = &stdout
	session.Stderr = &stderr

	done := make(chan error, 1)
	go func() { done <- session.Run(cmd) }()

	select {
	case <-ctx.Done():
		_ = session.Close()
		return "", classify(fmt.Errorf("command %q did not complete: %w", cmd, ctx.Err()))
	case err := <-done:
		if err != nil {
			if msg := strings.TrimSpace(stderr.String()); msg != "" {
				err = fmt.Errorf("%w: %s", err, msg)
			}
			return "", &classifiedError{ErrCommand, fmt.Errorf("command %q failed: %w", cmd, err)}
		}
	}
	return stdout.String(), nil
}

func (s *sshSession) Close() error {
	return s.client.Close()
}
