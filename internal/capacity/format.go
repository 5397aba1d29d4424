// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

package capacity

import (
	"fmt"
	"strconv"
)

var units = []struct {
	name   string
	factor float64
}{
	{"Tbps", 1e12},
	{"Gbps", 1e9},
	{"Mbps", 1e6},
	{"Kbps", 1e3},
}

// FormatBps renders a bits-per-second value with a magnitude suffix.
// A nil value is rendered as [Placeholder].
func FormatBps(bps *float64) string {
	if bps == nil {
		return Placeholder
	}
	v := *bps
	for _, u := range units {
		if v >= u.factor {
			return fmt.Sprintf("%.2f %s", v/u.factor, u.name)
		}
	}
	if v >= 1 {
		return strconv.FormatInt(int64(v), 10) + " bps"
	}
	return fmt.Sprintf("%.0f bps", v)
}
