// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"rsc.io/script"
	"rsc.io/script/scripttest"

	"github.com/ironcore-dev/lag-report/internal/deviceutil"
	"github.com/ironcore-dev/lag-report/internal/provider"
	"github.com/ironcore-dev/lag-report/internal/provider/cisco/iosxr"
)

var generated = time.Date(2025, 3, 14, 9, 26, 53, 0, time.Local)

// TestScripts runs the CLI scripts in testdata/script against devices
// emulated from the files in the devices directory of each script.
func TestScripts(t *testing.T) {
	cmds := scripttest.DefaultCmds()
	cmds["lagreport"] = LagReport()
	engine := &script.Engine{
		Conds: scripttest.DefaultConds(),
		Cmds:  cmds,
		Quiet: !testing.Verbose(),
	}
	env := []string{"LAGREPORT_USERNAME=", "LAGREPORT_PASSWORD="}
	scripttest.Test(t, t.Context(), engine, env, "testdata/script/*.txt")
}

// LagReport returns a script command that runs the CLI in-process.
//
// Devices are emulated by files in the devices directory of the script's
// working directory: devices/<host>.txt holds the command output of the host.
// A host without such a file rejects the login, a host with a devices/<host>.timeout
// file never answers.
func LagReport() script.Cmd {
	return script.Command(
		script.CmdUsage{
			Summary: "run lagreport against emulated devices",
			Args:    "[flags...]",
		},
		func(s *script.State, args ...string) (script.WaitFunc, error) {
			return func(s *script.State) (stdout, stderr string, err error) {
				var outBuf, errBuf strings.Builder
				a := &app{
					stdin:     strings.NewReader(""),
					stdout:    &outBuf,
					stderr:    &errBuf,
					lookupEnv: s.LookupEnv,
					resolve:   fakeResolver(filepath.Join(s.Getwd(), "devices")),
					workDir:   s.Getwd(),
					now:       func() time.Time { return generated },
				}
				if code := a.run(s.Context(), args); code != exitOK {
					err = fmt.Errorf("exit status %d", code)
				}
				return outBuf.String(), errBuf.String(), err
			}, nil
		})
}

func fakeResolver(dir string) func(string) (provider.ProviderFunc, error) {
	return func(platform string) (provider.ProviderFunc, error) {
		if _, err := provider.Get(platform); err != nil {
			return nil, err
		}
		return func() provider.Provider {
			return iosxr.NewProvider(iosxr.WithDialer(fileDialer{dir: dir}))
		}, nil
	}
}

// fileDialer opens sessions that answer commands from files.
type fileDialer struct {
	dir string
}

func (d fileDialer) Dial(_ context.Context, conn *deviceutil.Connection) (deviceutil.Session, error) {
	if conn.Username != "admin" || conn.Password != "secret" {
		return nil, fmt.Errorf("%w: ssh: unable to authenticate", deviceutil.ErrAuthentication)
	}
	if _, err := os.Stat(filepath.Join(d.dir, conn.Address+".timeout")); err == nil {
		return nil, fmt.Errorf("%w: dial tcp %s: i/o timeout", deviceutil.ErrTimeout, conn.HostPort())
	}
	data, err := os.ReadFile(filepath.Join(d.dir, conn.Address+".txt"))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: ssh: unable to authenticate", deviceutil.ErrAuthentication)
	}
	if err != nil {
		return nil, err
	}
	return &fileSession{output: string(data)}, nil
}

type fileSession struct {
	output string
}

func (s *fileSession) Run(_ context.Context, cmd string) (string, error) {
	if cmd != iosxr.ShowBundleInterfacesCommand {
		return "", fmt.Errorf("%w: %% Invalid input detected at '^' marker", deviceutil.ErrCommand)
	}
	return s.output, nil
}

func (s *fileSession) Close() error { return nil }
