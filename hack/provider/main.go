// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"golang.org/x/crypto/ssh"
	"sigs.k8s.io/yaml"

	// Import all supported provider implementations.
	_ "github.com/ironcore-dev/lag-report/internal/provider/cisco/iosxr"

	"github.com/ironcore-dev/lag-report/internal/capacity"
	"github.com/ironcore-dev/lag-report/internal/deviceutil"
	"github.com/ironcore-dev/lag-report/internal/provider"
)

var (
	address      = flag.String("address", "", "Device address, required unless -file is given")
	username     = flag.String("username", "", "Username for authentication")
	password     = flag.String("password", "", "Password for authentication")
	file         = flag.String("file", "", "Path to captured command output to extract instead of connecting to a device")
	peer         = flag.String("peer", "", "Peer name matched against the [NAME=<peer>] description tag (required)")
	providerName = flag.String("provider", "cisco_xr", "Provider implementation to use")
	raw          = flag.Bool("raw", false, "Print the command output instead of the extracted records")
)

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: %s [flags]\n\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "A debug tool for testing provider implementations.\n\n")
	fmt.Fprintf(os.Stderr, "Flags:\n")
	flag.PrintDefaults()
	fmt.Fprintf(os.Stderr, "\nExamples:\n")
	fmt.Fprintf(os.Stderr, "  %s -address=192.168.1.1 -username=admin -password=secret -peer=NETFLIX\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "  %s -file=internal/provider/cisco/iosxr/testdata/show_interfaces_bundle_ether.txt -peer=NETFLIX\n", os.Args[0])
}

func validateFlags() error {
	if *peer == "" && !*raw {
		return errors.New("peer flag is required")
	}
	if *file != "" {
		return nil
	}
	if *address == "" {
		return errors.New("address flag is required")
	}
	if *username == "" {
		return errors.New("username flag is required")
	}
	if *password == "" {
		return errors.New("password flag is required")
	}
	return nil
}

// record is the printed form of a capacity record.
type record struct {
	capacity.Record `json:",inline"`

	Configured  string        `json:"configured"`
	Available   string        `json:"available"`
	MaxInput    string        `json:"maxInput"`
	Utilization string        `json:"utilization"`
	Tier        capacity.Tier `json:"tier"`
	Mismatch    bool          `json:"mismatch"`
}

func main() {
	flag.Usage = usage
	flag.Parse()

	if err := validateFlags(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n\n", err)
		usage()
		os.Exit(1)
	}

	prov, err := provider.Get(*providerName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	p, ok := prov().(provider.CapacityProvider)
	if !ok {
		fmt.Fprintf(os.Stderr, "Error: provider %q does not support capacity retrieval\n", *providerName)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	out, err := output(ctx, p)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if *raw {
		fmt.Print(out)
		return
	}

	records := p.ExtractCapacity(out, *peer)
	printed := make([]record, 0, len(records))
	for _, r := range records {
		ratio := r.Utilization()
		tier, util := capacity.DefaultClassifier.Classify(ratio)
		printed = append(printed, record{
			Record:      r,
			Configured:  capacity.FormatBps(r.ConfiguredBps),
			Available:   capacity.FormatBps(r.AvailableBps),
			MaxInput:    capacity.FormatBps(r.InputBps),
			Utilization: util,
			Tier:        tier,
			Mismatch:    capacity.DefaultMismatchDetector.HasMismatch(r.ConfiguredBps, r.AvailableBps),
		})
	}
	data, err := yaml.Marshal(printed)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to marshal records: %v\n", err)
		os.Exit(1)
	}
	fmt.Print(string(data))
	fmt.Fprintf(os.Stderr, "Extracted %d bundle interface(s) for peer %s\n", len(records), *peer)
}

// output returns the bundle interface output from the file or the device.
func output(ctx context.Context, p provider.CapacityProvider) (_ string, reterr error) {
	if *file != "" {
		data, err := os.ReadFile(*file)
		if err != nil {
			return "", fmt.Errorf("failed to read file %s: %w", *file, err)
		}
		return string(data), nil
	}

	conn := &deviceutil.Connection{
		Address:         *address,
		Username:        *username,
		Password:        *password,
		HostKeyCallback: ssh.InsecureIgnoreHostKey(), //nolint:gosec
	}
	if err := p.Connect(ctx, conn); err != nil {
		return "", fmt.Errorf("failed to connect to device: %w", err)
	}
	defer func() {
		if err := p.Disconnect(ctx, conn); err != nil {
			reterr = errors.Join(reterr, fmt.Errorf("failed to disconnect from device: %w", err))
		}
	}()
	return p.ShowBundleInterfaces(ctx)
}
