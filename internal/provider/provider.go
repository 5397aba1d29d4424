// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0
package provider

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/ironcore-dev/lag-report/internal/capacity"
	"github.com/ironcore-dev/lag-report/internal/deviceutil"
)

// Provider is the common interface used to establish and tear down connections to the provider.
type Provider interface {
	Connect(context.Context, *deviceutil.Connection) error
	Disconnect(context.Context, *deviceutil.Connection) error
}

// CapacityProvider is the interface for the retrieval of bundle interface capacity over different providers.
type CapacityProvider interface {
	Provider

	// ShowBundleInterfaces runs the retrieval command on the connected device and returns its raw output.
	ShowBundleInterfaces(context.Context) (string, error)
	// ExtractCapacity turns the raw output of [CapacityProvider.ShowBundleInterfaces] into capacity
	// records for the bundle interfaces tagged with the given peer.
	ExtractCapacity(raw, peer string) []capacity.Record
}

var mu sync.RWMutex

// ProviderFunc returns a new [Provider] instance.
type ProviderFunc func() Provider

// providers holds all registered providers keyed by lower-cased platform name.
// It should be accessed in a thread-safe manner and kept private to this package.
var providers = make(map[string]ProviderFunc)

// Register registers a new provider for the given platform name.
// Platform names are case-insensitive. Several names may be registered for the same provider.
// If a provider with the same name already exists, it panics.
func Register(platform string, provider ProviderFunc) {
	mu.Lock()
	defer mu.Unlock()
	if provider == nil {
		panic("Register provider is nil")
	}
	key := strings.ToLower(platform)
	if _, ok := providers[key]; ok {
		panic("Register called twice for provider " + platform)
	}
	providers[key] = provider
}

// Get returns the provider registered for the given platform name.
// If the provider does not exist, it returns an error.
func Get(platform string) (ProviderFunc, error) {
	mu.RLock()
	defer mu.RUnlock()
	provider, ok := providers[strings.ToLower(strings.TrimSpace(platform))]
	if !ok {
		return nil, fmt.Errorf("unknown provider %q", platform)
	}
	return provider, nil
}

// Providers returns a slice of all registered platform names.
func Providers() []string {
	mu.RLock()
	defer mu.RUnlock()
	return slices.Sorted(maps.Keys(providers))
}
