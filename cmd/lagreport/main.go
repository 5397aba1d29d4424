// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	// Set runtime concurrency to match CPU limit imposed by Kubernetes
	_ "go.uber.org/automaxprocs"

	"github.com/go-logr/logr"
	"github.com/sapcc/go-api-declarations/bininfo"
	"go.uber.org/zap/zapcore"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
	"sigs.k8s.io/controller-runtime/pkg/log/zap"

	// Import all supported provider implementations.
	_ "github.com/ironcore-dev/lag-report/internal/provider/cisco/iosxr"

	"github.com/ironcore-dev/lag-report/internal/capacity"
	"github.com/ironcore-dev/lag-report/internal/collector"
	"github.com/ironcore-dev/lag-report/internal/credentials"
	"github.com/ironcore-dev/lag-report/internal/deviceutil"
	"github.com/ironcore-dev/lag-report/internal/inventory"
	"github.com/ironcore-dev/lag-report/internal/metrics"
	"github.com/ironcore-dev/lag-report/internal/provider"
	"github.com/ironcore-dev/lag-report/internal/report"
)

const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

func main() {
	// if called with `--version`, report version and exit
	bininfo.HandleVersionArgument()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := newApp().run(ctx, os.Args[1:])
	stop()
	os.Exit(code)
}

// app holds the process environment of a run.
type app struct {
	stdin     io.Reader
	stdout    io.Writer
	stderr    io.Writer
	lookupEnv func(string) (string, bool)
	// resolve looks up the provider of a device platform.
	resolve collector.ResolveFunc
	// workDir is the base of relative paths. Empty means the process working directory.
	workDir string
	now     func() time.Time
}

func newApp() *app {
	return &app{
		stdin:     os.Stdin,
		stdout:    os.Stdout,
		stderr:    os.Stderr,
		lookupEnv: os.LookupEnv,
		resolve:   provider.Get,
		now:       time.Now,
	}
}

func (a *app) path(p string) string {
	if p == "" || a.workDir == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(a.workDir, p)
}

// usageError is reported on stderr and exits with [exitUsage].
type usageError struct{ msg string }

func (e *usageError) Error() string { return e.msg }

func usagef(format string, args ...any) error {
	return &usageError{msg: fmt.Sprintf(format, args...)}
}

func (a *app) run(ctx context.Context, args []string) int {
	var peer string
	var inventoryPath string
	var outputPath string
	var format string
	var workers int
	var timeout time.Duration
	var commandTimeout time.Duration
	var port int
	var knownHostsPath string
	var username string
	var metricsPath string
	var normalMax, elevatedMax float64
	var tolerance float64

	fs := flag.NewFlagSet("lagreport", flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	fs.StringVar(&peer, "peer", "", "The peer name as listed in the inventory and in the [NAME=<peer>] description tag (required).")
	fs.StringVar(&inventoryPath, "inventory", "", "Path to the YAML inventory file (required).")
	fs.StringVar(&outputPath, "output", "", "Path of the report file. Defaults to peer_report_<PEER>_cisco.<format>.")
	fs.StringVar(&format, "format", "html", "The report format. Available formats: "+strings.Join(report.Formats(), ", "))
	fs.IntVar(&workers, "workers", 1, "The maximum number of devices collected concurrently.")
	fs.DurationVar(&timeout, "timeout", deviceutil.DefaultTimeout, "The timeout for establishing a session with a device.")
	fs.DurationVar(&commandTimeout, "command-timeout", deviceutil.DefaultCommandTimeout, "The timeout for a command to complete on a device.")
	fs.IntVar(&port, "port", deviceutil.DefaultPort, "The SSH port used for devices that do not specify one.")
	fs.StringVar(&knownHostsPath, "known-hosts", "", "Path to a known_hosts file used to verify device host keys. If unset, host keys are not verified.")
	fs.StringVar(&username, "username", "", fmt.Sprintf("The username used to log in to devices. Defaults to $%s or a prompt.", credentials.UsernameEnv))
	fs.StringVar(&metricsPath, "metrics-file", "", "If set, write the collected values to this file in the Prometheus text format.")
	fs.Float64Var(&normalMax, "normal-max", capacity.DefaultNormalMax, "Utilization below this ratio is normal.")
	fs.Float64Var(&elevatedMax, "elevated-max", capacity.DefaultElevatedMax, "Utilization up to and including this ratio is elevated, above it is critical.")
	fs.Float64Var(&tolerance, "mismatch-tolerance", capacity.DefaultMismatchTolerance, "The relative difference between configured and available capacity that is flagged as a mismatch.")
	opts := zap.Options{
		Development: true,
		TimeEncoder: zapcore.ISO8601TimeEncoder,
		DestWriter:  a.stderr,
	}
	opts.BindFlags(fs)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}

	log := zap.New(zap.UseFlagOptions(&opts))
	ctx = logr.NewContext(ctx, log)

	out, err := a.generate(ctx, config{
		peer:           peer,
		inventory:      inventoryPath,
		output:         outputPath,
		format:         format,
		workers:        workers,
		timeout:        timeout,
		commandTimeout: commandTimeout,
		port:           port,
		knownHosts:     knownHostsPath,
		username:       username,
		metrics:        metricsPath,
		classifier:     capacity.Classifier{NormalMax: normalMax, ElevatedMax: elevatedMax},
		detector:       capacity.MismatchDetector{Tolerance: tolerance},
	})
	if ue := (*usageError)(nil); errors.As(err, &ue) {
		fmt.Fprintln(a.stderr, ue.msg)
		return exitUsage
	}
	if err != nil {
		log.Error(err, "Failed to generate report")
		return exitError
	}

	fmt.Fprintf(a.stdout, "Report written to: %s\n", out)
	return exitOK
}

type config struct {
	peer           string
	inventory      string
	output         string
	format         string
	workers        int
	timeout        time.Duration
	commandTimeout time.Duration
	port           int
	knownHosts     string
	username       string
	metrics        string
	classifier     capacity.Classifier
	detector       capacity.MismatchDetector
}

// generate collects the devices of the peer and writes the report.
// It returns the path of the report as it should be shown to the user.
func (a *app) generate(ctx context.Context, cfg config) (string, error) {
	log := logr.FromContextOrDiscard(ctx)

	switch {
	case cfg.peer == "":
		return "", usagef("Missing required flag -peer")
	case cfg.inventory == "":
		return "", usagef("Missing required flag -inventory")
	case cfg.workers < 1:
		return "", usagef("Invalid -workers %d, must be at least 1", cfg.workers)
	case cfg.detector.Tolerance < 0:
		return "", usagef("Invalid -mismatch-tolerance %v, must not be negative", cfg.detector.Tolerance)
	}
	if err := cfg.classifier.Validate(); err != nil {
		return "", usagef("%v", err)
	}
	renderer, err := report.NewRenderer(cfg.format)
	if err != nil {
		return "", usagef("%v", err)
	}

	inv, err := inventory.Load(a.path(cfg.inventory))
	if err != nil {
		return "", usagef("Failed to read inventory: %v", err)
	}
	devices, err := inventory.Devices(inv, cfg.peer)
	switch {
	case errors.Is(err, inventory.ErrPeerNotFound):
		return "", usagef("Peer '%s' not found in inventory", cfg.peer)
	case errors.Is(err, inventory.ErrNoDevices):
		return "", usagef("No devices listed for peer '%s'", cfg.peer)
	case err != nil:
		return "", usagef("Invalid inventory: %v", err)
	}

	hostKeyCallback := ssh.InsecureIgnoreHostKey() //nolint:gosec
	if cfg.knownHosts != "" {
		if hostKeyCallback, err = knownhosts.New(a.path(cfg.knownHosts)); err != nil {
			return "", usagef("Failed to read known hosts: %v", err)
		}
	}

	prompter := &credentials.Prompter{In: a.stdin, Out: a.stderr, LookupEnv: a.lookupEnv}
	creds, err := prompter.Resolve(cfg.username)
	if err != nil {
		return "", err
	}

	c := &collector.Collector{
		Resolve:     a.resolve,
		Credentials: creds,
		Connection: deviceutil.Connection{
			Port:            cfg.port,
			Timeout:         cfg.timeout,
			CommandTimeout:  cfg.commandTimeout,
			HostKeyCallback: hostKeyCallback,
		},
		Workers: cfg.workers,
	}
	log.Info("Collecting bundle interfaces", "peer", cfg.peer, "devices", len(devices), "workers", cfg.workers)
	results := c.Collect(ctx, cfg.peer, devices)

	r := report.Assemble(cfg.peer, results, report.Options{
		Classifier: &cfg.classifier,
		Detector:   &cfg.detector,
		Now:        a.now(),
	})

	out := cfg.output
	if out == "" {
		out = fmt.Sprintf("peer_report_%s_cisco%s", cfg.peer, renderer.Extension())
	}
	if err := writeReport(a.path(out), renderer, r); err != nil {
		return "", err
	}

	if cfg.metrics != "" {
		e := metrics.NewExporter()
		e.Observe(cfg.peer, results, cfg.detector)
		if err := e.WriteFile(a.path(cfg.metrics)); err != nil {
			return "", err
		}
		log.V(1).Info("Wrote metrics file", "path", cfg.metrics)
	}
	return out, nil
}

func writeReport(path string, renderer report.Renderer, r *report.Report) (reterr error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			reterr = errors.Join(reterr, fmt.Errorf("failed to close report file: %w", err))
		}
	}()
	return renderer.Render(f, r)
}
