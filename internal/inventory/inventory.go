// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

// Package inventory loads the device inventory of peering partners.
package inventory

import (
	"errors"
	"fmt"
	"os"

	"sigs.k8s.io/yaml"

	"github.com/ironcore-dev/lag-report/api/v1alpha1"
)

var (
	// ErrPeerNotFound is returned if the inventory has no entry for the peer.
	ErrPeerNotFound = errors.New("peer not found in inventory")
	// ErrNoDevices is returned if the inventory lists no devices for the peer.
	ErrNoDevices = errors.New("no devices listed for peer")
)

// Load reads and decodes the YAML inventory file at path.
func Load(path string) (*v1alpha1.Inventory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read inventory %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes a YAML inventory.
func Parse(data []byte) (*v1alpha1.Inventory, error) {
	inv := new(v1alpha1.Inventory)
	if err := yaml.Unmarshal(data, inv); err != nil {
		return nil, fmt.Errorf("failed to decode inventory: %w", err)
	}
	return inv, nil
}

// Devices returns the devices listed for peer in the order of the inventory.
// Peer names are matched exactly.
func Devices(inv *v1alpha1.Inventory, peer string) ([]v1alpha1.Device, error) {
	devices, ok := inv.Peers[peer]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrPeerNotFound, peer)
	}
	if len(devices) == 0 {
		return nil, fmt.Errorf("%w %q", ErrNoDevices, peer)
	}
	for i, d := range devices {
		if d.Host == "" {
			return nil, fmt.Errorf("device %d of peer %q has no host", i, peer)
		}
	}
	return devices, nil
}
