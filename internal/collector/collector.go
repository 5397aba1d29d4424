// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

// Package collector retrieves bundle interface capacity from all devices of a peer.
package collector

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-logr/logr"
	"golang.org/x/sync/errgroup"

	"github.com/ironcore-dev/lag-report/api/v1alpha1"
	"github.com/ironcore-dev/lag-report/internal/capacity"
	"github.com/ironcore-dev/lag-report/internal/credentials"
	"github.com/ironcore-dev/lag-report/internal/deviceutil"
	"github.com/ironcore-dev/lag-report/internal/provider"
)

// ResolveFunc returns the provider registered for a platform.
type ResolveFunc func(platform string) (provider.ProviderFunc, error)

// Collector collects capacity records from devices.
type Collector struct {
	// Resolve looks up the provider of a device platform. Devices whose
	// platform cannot be resolved are skipped. Defaults to [provider.Get].
	Resolve ResolveFunc

	// Credentials are used to log in to every device.
	Credentials credentials.Credentials

	// Connection holds the connection settings shared by all devices.
	// Address, Username and Password are set per device.
	Connection deviceutil.Connection

	// Workers is the maximum number of devices collected concurrently.
	// Values below 1 collect devices sequentially.
	Workers int
}

// Collect retrieves capacity records for peer from all supported devices.
// Results are returned in the order of devices; unsupported devices are omitted.
// The failure of one device never affects the collection of the others.
func (c *Collector) Collect(ctx context.Context, peer string, devices []v1alpha1.Device) []capacity.DeviceResult {
	log := logr.FromContextOrDiscard(ctx)

	resolve := c.Resolve
	if resolve == nil {
		resolve = provider.Get
	}

	type job struct {
		device v1alpha1.Device
		prov   provider.ProviderFunc
	}
	jobs := make([]job, 0, len(devices))
	for _, dev := range devices {
		fn, err := resolve(dev.Platform())
		if err != nil {
			log.V(1).Info("Skipping device of unsupported platform", "host", dev.Host, "platform", dev.DeviceType)
			continue
		}
		jobs = append(jobs, job{dev, fn})
	}

	results := make([]capacity.DeviceResult, len(jobs))
	var g errgroup.Group
	g.SetLimit(max(c.Workers, 1))
	for i, j := range jobs {
		g.Go(func() error {
			results[i] = c.collect(ctx, peer, j.device, j.prov)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (c *Collector) collect(ctx context.Context, peer string, dev v1alpha1.Device, fn provider.ProviderFunc) capacity.DeviceResult {
	log := logr.FromContextOrDiscard(ctx).WithValues("host", dev.Host)
	res := capacity.DeviceResult{Host: dev.Host, Platform: dev.Platform()}
	fail := func(reason capacity.Reason, err error) capacity.DeviceResult {
		cerr := &capacity.CollectionError{Host: dev.Host, Reason: reason, Err: err}
		log.Error(err, "Failed to collect device", "reason", reason)
		res.Errors = append(res.Errors, cerr)
		return res
	}

	prov, ok := fn().(provider.CapacityProvider)
	if !ok {
		return fail(capacity.ReasonCommand, fmt.Errorf("provider for platform %q does not support capacity retrieval", dev.DeviceType))
	}

	conn := c.Connection
	conn.Address = dev.Host
	conn.Username = c.Credentials.Username
	conn.Password = c.Credentials.Password
	if dev.Port != 0 {
		conn.Port = dev.Port
	}

	start := time.Now()
	log.V(1).Info("Connecting to device", "address", conn.HostPort())
	if err := prov.Connect(ctx, &conn); err != nil {
		return fail(reasonFor(err), err)
	}
	raw, err := prov.ShowBundleInterfaces(ctx)
	if derr := prov.Disconnect(ctx, &conn); derr != nil {
		log.V(1).Info("Failed to close session", "error", derr.Error())
	}
	if err != nil {
		return fail(reasonFor(err), err)
	}

	records, err := extract(prov, raw, peer)
	if err != nil {
		return fail(capacity.ReasonParse, err)
	}
	res.Records = records
	log.Info("Collected bundle interfaces", "records", len(records), "duration", time.Since(start).String())
	return res
}

// extract converts a panic of the extractor into an error.
func extract(p provider.CapacityProvider, raw, peer string) (records []capacity.Record, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("failed to extract capacity: %v", r)
		}
	}()
	return p.ExtractCapacity(raw, peer), nil
}

func reasonFor(err error) capacity.Reason {
	switch {
	case errors.Is(err, deviceutil.ErrAuthentication):
		return capacity.ReasonAuthentication
	case errors.Is(err, deviceutil.ErrTimeout):
		return capacity.ReasonTimeout
	default:
		return capacity.ReasonCommand
	}
}
