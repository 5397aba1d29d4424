// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

package capacity

import (
	"testing"

	"k8s.io/utils/ptr"
)

func TestFormatBps(t *testing.T) {
	tests := []struct {
		input    *float64
		expected string
	}{
		{nil, Placeholder},
		{ptr.To(0.0), "0 bps"},
		{ptr.To(999.0), "999 bps"},
		{ptr.To(1e3), "1.00 Kbps"},
		{ptr.To(1500e3), "1.50 Mbps"},
		{ptr.To(85e9), "85.00 Gbps"},
		{ptr.To(100e9), "100.00 Gbps"},
		{ptr.To(1.2e12), "1.20 Tbps"},
	}

	for _, test := range tests {
		if got := FormatBps(test.input); got != test.expected {
			t.Errorf("FormatBps(%v) = %q, expected %q", ptr.Deref(test.input, -1), got, test.expected)
		}
	}
}
