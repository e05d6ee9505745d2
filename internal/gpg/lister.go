// Copyright (c) 2026 Key Report Team
// Key Report - PGP key expiration reporting
// This source code is licensed under the MIT license found in the LICENSE file.

// Package gpg runs the keyring listing command and returns its raw output.
package gpg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/freedombox/key-report/internal/logging"
)

// DefaultTimeout bounds a listing when no timeout is configured.
const DefaultTimeout = 30 * time.Second

// ErrListingUnavailable is returned when the keyring tool is missing, fails
// or does not finish in time.
var ErrListingUnavailable = errors.New("key listing unavailable")

// listArgs is the fixed listing command. --fixed-list-mode keeps timestamps
// as epoch seconds.
var listArgs = []string{"--list-keys", "--fixed-list-mode", "--with-colons"}

// Lister runs gpg against a keyring. The zero value uses "gpg" on PATH with
// the tool's default keyring.
type Lister struct {
	// Binary is the gpg executable, looked up on PATH when not absolute.
	Binary string
	// Homedir selects a keyring directory; empty uses the tool default.
	Homedir string
	Timeout time.Duration
}

// New returns a Lister for the given binary, keyring directory and timeout.
func New(binary, homedir string, timeout time.Duration) *Lister {
	return &Lister{Binary: binary, Homedir: homedir, Timeout: timeout}
}

func (l *Lister) binary() string {
	if l.Binary == "" {
		return "gpg"
	}
	return l.Binary
}

func (l *Lister) timeout() time.Duration {
	if l.Timeout <= 0 {
		return DefaultTimeout
	}
	return l.Timeout
}

// Args returns the arguments passed to the binary.
func (l *Lister) Args() []string {
	args := make([]string, 0, len(listArgs)+2)
	if l.Homedir != "" {
		args = append(args, "--homedir", l.Homedir)
	}
	return append(args, listArgs...)
}

// ListKeys runs the listing and returns its standard output.
func (l *Lister) ListKeys(ctx context.Context) (string, error) {
	bin, timeout := l.binary(), l.timeout()
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	args := l.Args()
	logging.Debugf("running %s %s", bin, strings.Join(args, " "))

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.Env = append(os.Environ(), "LC_ALL=C")
	// Children that inherit the pipes must not hold Wait past the deadline.
	cmd.WaitDelay = time.Second

	err := cmd.Run()
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return "", fmt.Errorf("%w: %s timed out after %s", ErrListingUnavailable, bin, timeout)
	}
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return "", fmt.Errorf("%w: %s: %v: %s", ErrListingUnavailable, bin, err, msg)
		}
		return "", fmt.Errorf("%w: %s: %v", ErrListingUnavailable, bin, err)
	}
	if msg := strings.TrimSpace(stderr.String()); msg != "" {
		logging.Debugf("%s stderr: %s", bin, msg)
	}
	return stdout.String(), nil
}
