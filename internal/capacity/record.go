// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

// Package capacity provides the data model and the classification policy for
// link-aggregation-group capacity records collected from network devices.
package capacity

import (
	"fmt"

	"k8s.io/utils/ptr"
)

// Record holds the capacity and traffic statistics of a single bundle
// interface on one device, as observed during one collection run.
// Optional values are nil when the device did not report them.
type Record struct {
	// Interface is the vendor-assigned interface name, e.g. "Bundle-Ether10".
	Interface string `json:"interface"`
	// Description is the interface description as configured on the device.
	Description string `json:"description"`
	// ConfiguredBps is the capacity declared by the operator in the description.
	ConfiguredBps *float64 `json:"configuredBps,omitempty"`
	// AvailableBps is the operational bandwidth reported by the device.
	AvailableBps *float64 `json:"availableBps,omitempty"`
	// InputBps is the rolling input rate reported by the device.
	InputBps *float64 `json:"inputBps,omitempty"`
}

// Utilization returns the ratio of observed input to available capacity.
// It returns nil if either value is absent or the available capacity is zero.
// The ratio may exceed 1.
func (r *Record) Utilization() *float64 {
	if r.InputBps == nil || r.AvailableBps == nil || *r.AvailableBps == 0 {
		return nil
	}
	return ptr.To(*r.InputBps / *r.AvailableBps)
}

// Reason classifies why the collection of a device failed.
type Reason string

const (
	ReasonAuthentication Reason = "auth failed"
	ReasonTimeout        Reason = "timeout"
	ReasonCommand        Reason = "command error"
	ReasonParse          Reason = "parse error"
)

// CollectionError is returned when the interaction with a single device failed.
type CollectionError struct {
	Host   string
	Reason Reason
	Err    error
}

func (e *CollectionError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Host, e.Reason, e.Err)
}

func (e *CollectionError) Unwrap() error {
	return e.Err
}

// DeviceResult is the outcome of one collection run for a single device.
// A result without records and without errors is a valid success.
type DeviceResult struct {
	Host     string             `json:"host"`
	Platform string             `json:"platform"`
	Records  []Record           `json:"records"`
	Errors   []*CollectionError `json:"-"`
}

// Failed reports whether the collection of the device failed.
func (d *DeviceResult) Failed() bool {
	return len(d.Errors) > 0
}

// ErrorMessages returns the human-readable messages of all collection errors.
func (d *DeviceResult) ErrorMessages() []string {
	msgs := make([]string, 0, len(d.Errors))
	for _, err := range d.Errors {
		msgs = append(msgs, err.Error())
	}
	return msgs
}
