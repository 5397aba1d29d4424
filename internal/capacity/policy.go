// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

package capacity

import (
	"fmt"
	"math"
)

const (
	// DefaultNormalMax is the exclusive upper bound of the normal utilization band.
	DefaultNormalMax = 0.60
	// DefaultElevatedMax is the inclusive upper bound of the elevated utilization band.
	DefaultElevatedMax = 0.80
	// DefaultMismatchTolerance is the relative difference between configured
	// and available capacity above which a record is flagged.
	DefaultMismatchTolerance = 0.02
)

// Placeholder is displayed in place of absent values.
const Placeholder = "—"

// Tier is the utilization band of a record.
type Tier string

const (
	TierUnknown  Tier = "unknown"
	TierNormal   Tier = "normal"
	TierElevated Tier = "elevated"
	TierCritical Tier = "critical"
)

// CSSClass returns the report style class for the tier.
func (t Tier) CSSClass() string {
	switch t {
	case TierNormal:
		return "util-green"
	case TierElevated:
		return "util-orange"
	case TierCritical:
		return "util-red"
	default:
		return ""
	}
}

// Classifier assigns utilization tiers.
type Classifier struct {
	// NormalMax is the exclusive upper bound of [TierNormal].
	NormalMax float64
	// ElevatedMax is the inclusive upper bound of [TierElevated].
	ElevatedMax float64
}

// DefaultClassifier uses [DefaultNormalMax] and [DefaultElevatedMax].
var DefaultClassifier = Classifier{NormalMax: DefaultNormalMax, ElevatedMax: DefaultElevatedMax}

// Classify returns the tier for the given utilization ratio together with the
// ratio formatted as a percentage. A nil ratio yields [TierUnknown] and [Placeholder].
func (c Classifier) Classify(ratio *float64) (Tier, string) {
	if ratio == nil {
		return TierUnknown, Placeholder
	}
	display := fmt.Sprintf("%.1f%%", *ratio*100)
	switch r := *ratio; {
	case r < c.NormalMax:
		return TierNormal, display
	case r <= c.ElevatedMax:
		return TierElevated, display
	default:
		return TierCritical, display
	}
}

// Validate checks that the thresholds are ordered and within [0, 1].
func (c Classifier) Validate() error {
	if c.NormalMax < 0 || c.ElevatedMax > 1 || c.NormalMax > c.ElevatedMax {
		return fmt.Errorf("invalid utilization thresholds: normal < %v, elevated <= %v", c.NormalMax, c.ElevatedMax)
	}
	return nil
}

// MismatchDetector flags records whose configured capacity diverges from the
// capacity reported by the device.
type MismatchDetector struct {
	// Tolerance is the accepted relative difference.
	Tolerance float64
}

// DefaultMismatchDetector uses [DefaultMismatchTolerance].
var DefaultMismatchDetector = MismatchDetector{Tolerance: DefaultMismatchTolerance}

// HasMismatch reports whether configured and available capacity differ by more
// than the tolerance relative to the larger of both. Absent or zero values
// cannot be judged and never mismatch.
func (d MismatchDetector) HasMismatch(configured, available *float64) bool {
	if configured == nil || available == nil || *configured == 0 || *available == 0 {
		return false
	}
	c, a := *configured, *available
	return math.Abs(c-a)/math.Max(c, a) > d.Tolerance
}
