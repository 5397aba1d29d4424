// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

package collector

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-logr/logr"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"k8s.io/utils/ptr"

	"github.com/ironcore-dev/lag-report/api/v1alpha1"
	"github.com/ironcore-dev/lag-report/internal/capacity"
	"github.com/ironcore-dev/lag-report/internal/credentials"
	"github.com/ironcore-dev/lag-report/internal/deviceutil"
	"github.com/ironcore-dev/lag-report/internal/provider"
)

// behavior describes how the fake device of a host responds.
type behavior struct {
	connectErr error
	runErr     error
	output     string
	panics     bool
	delay      time.Duration
}

// fakeFleet hands out providers backed by per-host behaviors and records
// what the collector asked for.
type fakeFleet struct {
	mu          sync.Mutex
	hosts       map[string]behavior
	connections []deviceutil.Connection
	active      atomic.Int32
	peak        atomic.Int32
}

func (f *fakeFleet) resolve(platform string) (provider.ProviderFunc, error) {
	if platform != "fake" {
		return nil, fmt.Errorf("unknown provider %q", platform)
	}
	return func() provider.Provider { return &fakeProvider{fleet: f} }, nil
}

type fakeProvider struct {
	fleet *fakeFleet
	b     behavior
}

func (p *fakeProvider) Connect(_ context.Context, conn *deviceutil.Connection) error {
	p.fleet.mu.Lock()
	p.fleet.connections = append(p.fleet.connections, *conn)
	p.b = p.fleet.hosts[conn.Address]
	p.fleet.mu.Unlock()
	if p.b.connectErr != nil {
		return p.b.connectErr
	}
	n := p.fleet.active.Add(1)
	for {
		peak := p.fleet.peak.Load()
		if n <= peak || p.fleet.peak.CompareAndSwap(peak, n) {
			break
		}
	}
	return nil
}

func (p *fakeProvider) Disconnect(context.Context, *deviceutil.Connection) error {
	p.fleet.active.Add(-1)
	return nil
}

func (p *fakeProvider) ShowBundleInterfaces(context.Context) (string, error) {
	time.Sleep(p.b.delay)
	return p.b.output, p.b.runErr
}

func (p *fakeProvider) ExtractCapacity(raw, peer string) []capacity.Record {
	if p.b.panics {
		panic("unexpected token")
	}
	return []capacity.Record{{Interface: raw, Description: "[NAME=" + peer + "]", InputBps: ptr.To(1.0)}}
}

var _ = Describe("Collector", func() {
	var (
		ctx   context.Context
		fleet *fakeFleet
		c     *Collector
	)

	BeforeEach(func() {
		ctx = logr.NewContext(context.Background(), GinkgoLogr)
		fleet = &fakeFleet{hosts: map[string]behavior{}}
		c = &Collector{
			Resolve:     fleet.resolve,
			Credentials: credentials.Credentials{Username: "admin", Password: "secret"},
			Connection:  deviceutil.Connection{Timeout: time.Second, CommandTimeout: 2 * time.Second},
		}
	})

	It("should collect supported devices in inventory order", func() {
		fleet.hosts["r1"] = behavior{output: "Bundle-Ether1"}
		fleet.hosts["r2"] = behavior{output: "Bundle-Ether2"}

		results := c.Collect(ctx, "NETFLIX", []v1alpha1.Device{
			{Host: "r1", DeviceType: "FAKE"},
			{Host: "sw1", DeviceType: "juniper_junos"},
			{Host: "r2", DeviceType: "fake", Port: 2222},
		})

		Expect(results).To(HaveLen(2))
		Expect(results[0].Host).To(Equal("r1"))
		Expect(results[0].Platform).To(Equal("fake"))
		Expect(results[0].Records).To(HaveLen(1))
		Expect(results[0].Records[0].Interface).To(Equal("Bundle-Ether1"))
		Expect(results[0].Records[0].Description).To(Equal("[NAME=NETFLIX]"))
		Expect(results[1].Host).To(Equal("r2"))
		Expect(results[1].Records[0].Interface).To(Equal("Bundle-Ether2"))
		for _, res := range results {
			Expect(res.Failed()).To(BeFalse())
		}

		By("passing credentials and device settings to the provider")
		Expect(fleet.connections).To(HaveLen(2))
		Expect(fleet.connections).To(ContainElement(deviceutil.Connection{
			Address:        "r2",
			Username:       "admin",
			Password:       "secret",
			Port:           2222,
			Timeout:        time.Second,
			CommandTimeout: 2 * time.Second,
		}))
	})

	It("should treat a device without matching interfaces as success", func() {
		fleet.hosts["r1"] = behavior{output: ""}
		c.Resolve = func(string) (provider.ProviderFunc, error) {
			return func() provider.Provider { return &emptyProvider{} }, nil
		}

		results := c.Collect(ctx, "NETFLIX", []v1alpha1.Device{{Host: "r1", DeviceType: "fake"}})

		Expect(results).To(HaveLen(1))
		Expect(results[0].Failed()).To(BeFalse())
		Expect(results[0].Records).To(BeEmpty())
	})

	It("should record failures per device without aborting the others", func() {
		fleet.hosts["auth"] = behavior{connectErr: fmt.Errorf("%w: permission denied", deviceutil.ErrAuthentication)}
		fleet.hosts["slow"] = behavior{runErr: fmt.Errorf("%w: i/o timeout", deviceutil.ErrTimeout)}
		fleet.hosts["broken"] = behavior{runErr: fmt.Errorf("%w: %% Invalid input", deviceutil.ErrCommand)}
		fleet.hosts["panics"] = behavior{output: "garbage", panics: true}
		fleet.hosts["ok"] = behavior{output: "Bundle-Ether1"}

		c.Workers = 3
		results := c.Collect(ctx, "NETFLIX", []v1alpha1.Device{
			{Host: "auth", DeviceType: "fake"},
			{Host: "slow", DeviceType: "fake"},
			{Host: "broken", DeviceType: "fake"},
			{Host: "panics", DeviceType: "fake"},
			{Host: "ok", DeviceType: "fake"},
		})

		Expect(results).To(HaveLen(5))
		expected := []capacity.Reason{
			capacity.ReasonAuthentication,
			capacity.ReasonTimeout,
			capacity.ReasonCommand,
			capacity.ReasonParse,
		}
		for i, reason := range expected {
			Expect(results[i].Failed()).To(BeTrue(), results[i].Host)
			Expect(results[i].Records).To(BeEmpty())
			Expect(results[i].Errors).To(HaveLen(1))
			Expect(results[i].Errors[0].Reason).To(Equal(reason), results[i].Host)
			Expect(results[i].Errors[0].Host).To(Equal(results[i].Host))
		}
		Expect(results[3].ErrorMessages()[0]).To(Equal("panics: parse error: failed to extract capacity: unexpected token"))
		Expect(results[4].Failed()).To(BeFalse())
		Expect(results[4].Records).To(HaveLen(1))
	})

	It("should bound the number of concurrent sessions", func() {
		var devices []v1alpha1.Device
		for i := range 8 {
			host := fmt.Sprintf("r%d", i)
			fleet.hosts[host] = behavior{output: host, delay: 20 * time.Millisecond}
			devices = append(devices, v1alpha1.Device{Host: host, DeviceType: "fake"})
		}

		c.Workers = 3
		results := c.Collect(ctx, "NETFLIX", devices)

		Expect(fleet.peak.Load()).To(BeNumerically("<=", 3))
		Expect(fleet.peak.Load()).To(BeNumerically(">", 1))
		Expect(results).To(HaveLen(8))
		for i, res := range results {
			Expect(res.Host).To(Equal(devices[i].Host))
			Expect(res.Records[0].Interface).To(Equal(devices[i].Host))
		}
	})

	It("should collect sequentially by default", func() {
		for _, host := range []string{"r1", "r2", "r3"} {
			fleet.hosts[host] = behavior{output: host, delay: 5 * time.Millisecond}
		}

		c.Collect(ctx, "NETFLIX", []v1alpha1.Device{
			{Host: "r1", DeviceType: "fake"},
			{Host: "r2", DeviceType: "fake"},
			{Host: "r3", DeviceType: "fake"},
		})

		Expect(fleet.peak.Load()).To(Equal(int32(1)))
		Expect(fleet.connections).To(HaveLen(3))
		Expect(fleet.connections[0].Address).To(Equal("r1"))
		Expect(fleet.connections[2].Address).To(Equal("r3"))
	})

	It("should fail devices whose provider cannot retrieve capacity", func() {
		c.Resolve = func(string) (provider.ProviderFunc, error) {
			return func() provider.Provider { return &connectOnlyProvider{} }, nil
		}

		results := c.Collect(ctx, "NETFLIX", []v1alpha1.Device{{Host: "r1", DeviceType: "other"}})

		Expect(results).To(HaveLen(1))
		Expect(results[0].Errors).To(HaveLen(1))
		Expect(results[0].Errors[0].Reason).To(Equal(capacity.ReasonCommand))
	})
})

type connectOnlyProvider struct{}

func (connectOnlyProvider) Connect(context.Context, *deviceutil.Connection) error    { return nil }
func (connectOnlyProvider) Disconnect(context.Context, *deviceutil.Connection) error { return nil }

type emptyProvider struct{ connectOnlyProvider }

func (emptyProvider) ShowBundleInterfaces(context.Context) (string, error) { return "", nil }
func (emptyProvider) ExtractCapacity(string, string) []capacity.Record     { return nil }
