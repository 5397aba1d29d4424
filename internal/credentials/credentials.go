// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

// Package credentials acquires the device login before collection starts.
package credentials

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

const (
	// UsernameEnv names the environment variable holding the username.
	UsernameEnv = "LAGREPORT_USERNAME"
	// PasswordEnv names the environment variable holding the password.
	PasswordEnv = "LAGREPORT_PASSWORD" // #nosec G101
)

// Credentials are used for all devices of a run.
type Credentials struct {
	Username string
	Password string // #nosec G117
}

// Prompter asks for values that were not supplied otherwise.
type Prompter struct {
	// In is read for values; if it is a terminal, the password is read without echo.
	In io.Reader
	// Out receives the prompts.
	Out io.Writer
	// LookupEnv looks up environment variables. Defaults to [os.LookupEnv].
	LookupEnv func(string) (string, bool)

	r *bufio.Reader
}

// Resolve returns the credentials for the run. The username flag takes
// precedence over the environment, which takes precedence over prompting.
func (p *Prompter) Resolve(username string) (Credentials, error) {
	lookup := p.LookupEnv
	if lookup == nil {
		lookup = os.LookupEnv
	}
	creds := Credentials{Username: username}
	if creds.Username == "" {
		creds.Username, _ = lookup(UsernameEnv)
	}
	creds.Password, _ = lookup(PasswordEnv)

	var err error
	if creds.Username == "" {
		if creds.Username, err = p.readLine("Username: "); err != nil {
			return Credentials{}, fmt.Errorf("failed to read username: %w", err)
		}
		creds.Username = strings.TrimSpace(creds.Username)
	}
	if creds.Password == "" {
		if creds.Password, err = p.readPassword("Password: "); err != nil {
			return Credentials{}, fmt.Errorf("failed to read password: %w", err)
		}
	}
	if creds.Username == "" {
		return Credentials{}, errors.New("username must not be empty")
	}
	return creds, nil
}

func (p *Prompter) readLine(prompt string) (string, error) {
	fmt.Fprint(p.Out, prompt)
	if p.r == nil {
		p.r = bufio.NewReader(p.In)
	}
	line, err := p.r.ReadString('\n')
	if err != nil && (!errors.Is(err, io.EOF) || line == "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (p *Prompter) readPassword(prompt string) (string, error) {
	f, ok := p.In.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return p.readLine(prompt)
	}
	fmt.Fprint(p.Out, prompt)
	b, err := term.ReadPassword(int(f.Fd()))
	fmt.Fprintln(p.Out)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
