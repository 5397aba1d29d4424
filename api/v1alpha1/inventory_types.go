// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

package v1alpha1

import "strings"

// Inventory maps peering partners to the devices that serve them.
type Inventory struct {
	// Peers maps the peer name, e.g. "NETFLIX", to an ordered list of devices.
	// +required
	Peers map[string][]Device `json:"peers"`
}

// Device describes a single network device of the inventory.
type Device struct {
	// Host is the host name or IP address of the device, optionally including a port.
	// +required
	Host string `json:"host"`

	// DeviceType is the platform of the device, e.g. "cisco_xr".
	// Devices of unsupported platforms are skipped.
	// +required
	DeviceType string `json:"device_type"`

	// Port overrides the default SSH port of the device.
	// +optional
	Port int `json:"port,omitempty"`
}

// Platform returns the normalized platform name of the device.
func (d *Device) Platform() string {
	return strings.ToLower(strings.TrimSpace(d.DeviceType))
}
