// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

package iosxr

import (
	"context"
	"errors"
	"fmt"

	"github.com/ironcore-dev/lag-report/internal/capacity"
	"github.com/ironcore-dev/lag-report/internal/deviceutil"
	"github.com/ironcore-dev/lag-report/internal/provider"
)

var (
	_ provider.Provider         = &Provider{}
	_ provider.CapacityProvider = &Provider{}
)

// ShowBundleInterfacesCommand retrieves the state of all bundle interfaces without paging.
const ShowBundleInterfacesCommand = "show interfaces Bundle-Ether | no-more"

// Platforms lists the equivalent platform names this provider is registered for.
var Platforms = []string{"cisco_xr", "iosxr", "cisco-iosxr"}

type Provider struct {
	dialer  deviceutil.Dialer
	session deviceutil.Session
}

type Option func(*Provider)

// WithDialer sets the dialer used to open device sessions.
// By default, sessions are opened with [deviceutil.SSHDialer].
func WithDialer(d deviceutil.Dialer) Option {
	return func(p *Provider) {
		p.dialer = d
	}
}

func NewProvider(opts ...Option) provider.Provider {
	p := &Provider{dialer: deviceutil.SSHDialer{}}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Provider) Connect(ctx context.Context, conn *deviceutil.Connection) (err error) {
	p.session, err = p.dialer.Dial(ctx, conn)
	if err != nil {
		return fmt.Errorf("failed to open session to %s: %w", conn.HostPort(), err)
	}
	return nil
}

func (p *Provider) Disconnect(_ context.Context, _ *deviceutil.Connection) error {
	if p.session == nil {
		return nil
	}
	err := p.session.Close()
	p.session = nil
	return err
}

func (p *Provider) ShowBundleInterfaces(ctx context.Context) (string, error) {
	if p.session == nil {
		return "", errors.New("session is not connected")
	}
	return p.session.Run(ctx, ShowBundleInterfacesCommand)
}

func (p *Provider) ExtractCapacity(raw, peer string) []capacity.Record {
	return ExtractBundleCapacity(raw, peer)
}

func init() {
	for _, name := range Platforms {
		provider.Register(name, func() provider.Provider { return NewProvider() })
	}
}
