// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

package iosxr

import (
	"regexp"
	"strconv"
	"strings"

	"k8s.io/utils/ptr"

	"github.com/ironcore-dev/lag-report/internal/capacity"
)

var (
	// A stanza starts with the status line of a bundle interface, e.g.
	// "Bundle-Ether10 is up, line protocol is up".
	stanzaRe      = regexp.MustCompile(`(?m)^Bundle-Ether\S* is [^\n]*?, line protocol is`)
	ifaceNameRe   = regexp.MustCompile(`^Bundle-Ether\S+`)
	descriptionRe = regexp.MustCompile(`(?m)^[ \t]*Description:[ \t]*(.+)$`)
	bwTagRe       = regexp.MustCompile(`(?i)\[BW=(\d+(?:\.\d+)?)\s*G\]`)
	bandwidthRe   = regexp.MustCompile(`\bBW\s+(\d+)\s*Kbit`)
	inputRateRe   = regexp.MustCompile(`(?i)30 second input rate\s+(\d+)\s+bits/sec`)
)

// ExtractBundleCapacity parses the output of "show interfaces Bundle-Ether" and
// returns a record for each bundle interface whose description carries the
// tag "[NAME=<peer>]". Records are returned in the order of the output.
// Stanzas lacking the tag, including those without a description, are skipped.
func ExtractBundleCapacity(raw, peer string) []capacity.Record {
	peerRe := peerTagRegexp(peer)
	var records []capacity.Record
	for _, stanza := range SplitBundleStanzas(raw) {
		name := interfaceName(stanza)
		if name == "" {
			continue
		}
		desc := description(stanza)
		if !peerRe.MatchString(desc) {
			continue
		}
		records = append(records, capacity.Record{
			Interface:     name,
			Description:   desc,
			ConfiguredBps: configuredCapacity(desc),
			AvailableBps:  availableCapacity(stanza),
			InputBps:      inputRate(stanza),
		})
	}
	return records
}

// SplitBundleStanzas splits raw command output into one stanza per bundle interface.
// Text preceding the first bundle status line is discarded.
func SplitBundleStanzas(raw string) []string {
	idx := stanzaRe.FindAllStringIndex(raw, -1)
	stanzas := make([]string, 0, len(idx))
	for i, loc := range idx {
		end := len(raw)
		if i+1 < len(idx) {
			end = idx[i+1][0]
		}
		stanzas = append(stanzas, raw[loc[0]:end])
	}
	return stanzas
}

func peerTagRegexp(peer string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)\[NAME=` + regexp.QuoteMeta(peer) + `\]`)
}

// interfaceName returns the bundle interface name the stanza starts with.
func interfaceName(stanza string) string {
	return ifaceNameRe.FindString(stanza)
}

// description returns the value of the first "Description:" line, or "" if there is none.
func description(stanza string) string {
	m := descriptionRe.FindStringSubmatch(stanza)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}

// configuredCapacity returns the capacity declared by a "[BW=<n>G]" tag in bits/sec.
func configuredCapacity(desc string) *float64 {
	return scaled(bwTagRe, desc, 1e9)
}

// availableCapacity returns the operational bandwidth reported as "BW <n> Kbit" in bits/sec.
func availableCapacity(stanza string) *float64 {
	return scaled(bandwidthRe, stanza, 1e3)
}

// inputRate returns the 30 second input rate in bits/sec.
func inputRate(stanza string) *float64 {
	return scaled(inputRateRe, stanza, 1)
}

func scaled(re *regexp.Regexp, s string, factor float64) *float64 {
	m := re.FindStringSubmatch(s)
	if m == nil {
		return nil
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return nil
	}
	return ptr.To(v * factor)
}
