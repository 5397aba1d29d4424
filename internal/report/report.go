// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

// Package report assembles classified capacity records into a document and renders it.
package report

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/ironcore-dev/lag-report/internal/capacity"
)

// Report is the document produced for one peer and one collection run.
type Report struct {
	Title     string    `json:"title"`
	Peer      string    `json:"peer"`
	Generated time.Time `json:"generated"`
	Legend    Legend    `json:"legend"`
	Sections  []Section `json:"devices"`
}

// Legend describes the utilization bands used for classification.
type Legend struct {
	Normal   string `json:"normal"`
	Elevated string `json:"elevated"`
	Critical string `json:"critical"`
}

// Section holds the rows of a single device.
type Section struct {
	Device   string   `json:"device"`
	Platform string   `json:"platform"`
	Rows     []Row    `json:"interfaces"`
	Errors   []string `json:"errors,omitempty"`
}

// Row is a classified capacity record ready for display.
type Row struct {
	Interface   string        `json:"interface"`
	Description string        `json:"description"`
	Configured  string        `json:"configured"`
	Available   string        `json:"available"`
	MaxInput    string        `json:"maxInput"`
	Utilization string        `json:"utilization"`
	Tier        capacity.Tier `json:"tier"`
	Mismatch    bool          `json:"mismatch"`

	ConfiguredBps    *float64 `json:"configuredBps,omitempty"`
	AvailableBps     *float64 `json:"availableBps,omitempty"`
	InputBps         *float64 `json:"inputBps,omitempty"`
	UtilizationRatio *float64 `json:"utilizationRatio,omitempty"`
}

// RowClass returns the style class of the table row.
func (r Row) RowClass() string {
	if r.Mismatch {
		return "cap-mismatch"
	}
	return ""
}

// UtilClass returns the style class of the utilization cell.
func (r Row) UtilClass() string {
	return r.Tier.CSSClass()
}

// Options control the classification applied while assembling a report.
type Options struct {
	// Classifier defaults to [capacity.DefaultClassifier].
	Classifier *capacity.Classifier
	// Detector defaults to [capacity.DefaultMismatchDetector].
	Detector *capacity.MismatchDetector
	// Now is the generation time. Defaults to [time.Now].
	Now time.Time
}

// Assemble builds the report for peer from the collection results.
// Sections follow the order of results.
func Assemble(peer string, results []capacity.DeviceResult, opts Options) *Report {
	classifier := capacity.DefaultClassifier
	if opts.Classifier != nil {
		classifier = *opts.Classifier
	}
	detector := capacity.DefaultMismatchDetector
	if opts.Detector != nil {
		detector = *opts.Detector
	}
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}

	r := &Report{
		Title:     fmt.Sprintf("LAG Capacity & Utilization — %s (Cisco only)", peer),
		Peer:      peer,
		Generated: now,
		Legend: Legend{
			Normal:   fmt.Sprintf("Util < %s", percent(classifier.NormalMax)),
			Elevated: fmt.Sprintf("%s–%s", percent(classifier.NormalMax), percent(classifier.ElevatedMax)),
			Critical: fmt.Sprintf("Util > %s", percent(classifier.ElevatedMax)),
		},
		Sections: make([]Section, 0, len(results)),
	}
	for _, res := range results {
		s := Section{
			Device:   res.Host,
			Platform: res.Platform,
			Rows:     make([]Row, 0, len(res.Records)),
			Errors:   res.ErrorMessages(),
		}
		for _, rec := range res.Records {
			s.Rows = append(s.Rows, newRow(rec, classifier, detector))
		}
		r.Sections = append(r.Sections, s)
	}
	return r
}

func newRow(rec capacity.Record, c capacity.Classifier, d capacity.MismatchDetector) Row {
	ratio := rec.Utilization()
	tier, util := c.Classify(ratio)
	return Row{
		Interface:        rec.Interface,
		Description:      rec.Description,
		Configured:       capacity.FormatBps(rec.ConfiguredBps),
		Available:        capacity.FormatBps(rec.AvailableBps),
		MaxInput:         capacity.FormatBps(rec.InputBps),
		Utilization:      util,
		Tier:             tier,
		Mismatch:         d.HasMismatch(rec.ConfiguredBps, rec.AvailableBps),
		ConfiguredBps:    rec.ConfiguredBps,
		AvailableBps:     rec.AvailableBps,
		InputBps:         rec.InputBps,
		UtilizationRatio: ratio,
	}
}

// percent formats a ratio as a percentage with at most two decimals.
func percent(v float64) string {
	return strconv.FormatFloat(math.Round(v*1e4)/1e2, 'f', -1, 64) + "%"
}
