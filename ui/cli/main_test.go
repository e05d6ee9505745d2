// Copyright (c) 2026 Key Report Team
// Key Report - PGP key expiration reporting
// This source code is licensed under the MIT license found in the LICENSE file.

package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/freedombox/key-report/internal/config"
	"github.com/freedombox/key-report/internal/core"
	"github.com/freedombox/key-report/internal/gpg"
	"github.com/freedombox/key-report/internal/keyring"
	"github.com/freedombox/key-report/internal/logging"
)

var now = time.Date(2024, time.March, 15, 9, 0, 0, 0, time.UTC)

type fakeLister struct {
	out string
	err error
}

func (f fakeLister) ListKeys(ctx context.Context) (string, error) { return f.out, f.err }

func line(trust, id string, days int, expires bool) string {
	exp := ""
	if expires {
		exp = strconv.FormatInt(keyring.Day(now).AddDate(0, 0, days).Unix(), 10)
	}
	return fmt.Sprintf("pub:%s:4096:1:%s:1262304000:%s::q:::scESC:\n", trust, id, exp)
}

// executeCommand runs a fresh root command against lister and returns its
// stdout and stderr.
func executeCommand(t *testing.T, lister core.KeyLister, args ...string) (string, string, error) {
	t.Helper()
	prev := logging.L
	t.Cleanup(func() { logging.L = prev })

	cmd := newRootCmd(services{
		newLister: func(config.GPGConfig) core.KeyLister { return lister },
		clock:     core.FixedClock(now),
	})
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	// A nil slice would make cobra fall back to os.Args.
	cmd.SetArgs(append([]string{}, args...))
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

// tableRows splits rendered table output into whitespace separated cells.
func tableRows(out string) [][]string {
	var rows [][]string
	for _, l := range strings.Split(strings.TrimSpace(out), "\n") {
		rows = append(rows, strings.Fields(l))
	}
	return rows
}

func TestReport_Default(t *testing.T) {
	listing := line("f", "AAAAAAAAAAAAAAA1", -1, true) +
		line("f", "AAAAAAAAAAAAAAA2", 0, false) +
		line("m", "AAAAAAAAAAAAAAA3", 45, true) +
		line("n", "AAAAAAAAAAAAAAA4", 400, true) +
		line("r", "AAAAAAAAAAAAAAA5", 10, true)

	out, _, err := executeCommand(t, fakeLister{out: listing})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}

	rows := tableRows(out)
	want := [][]string{
		{"SEVERITY", "BUCKET", "ID", "EXPIRES"},
		{"error", "valid", "AAAAAAAAAAAAAAA1", "2024-03-14"},
		{"warning", "valid", "AAAAAAAAAAAAAAA3", "2024-04-29"},
		{"valid", "invalid", "AAAAAAAAAAAAAAA4", "2025-04-19"},
		{"critical", "revoked", "AAAAAAAAAAAAAAA5", "2024-03-25"},
		{"never", "indefinite", "AAAAAAAAAAAAAAA2"},
	}
	if len(rows) != len(want) {
		t.Fatalf("got %d lines, want %d:\n%s", len(rows), len(want), out)
	}
	for i := range want {
		if strings.Join(rows[i], " ") != strings.Join(want[i], " ") {
			t.Errorf("line %d = %v, want %v", i, rows[i], want[i])
		}
	}
}

func TestReport_Thresholds(t *testing.T) {
	listing := line("f", "AAAAAAAAAAAAAAA1", 20, true)

	out, _, err := executeCommand(t, fakeLister{out: listing}, "--critical", "10", "--warning", "30")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if rows := tableRows(out); len(rows) != 2 || rows[1][0] != "warning" {
		t.Fatalf("expected warning row, got:\n%s", out)
	}

	out, _, err = executeCommand(t, fakeLister{out: listing}, "--critical", "5", "--warning", "10")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if rows := tableRows(out); len(rows) != 2 || rows[1][0] != "valid" {
		t.Fatalf("expected valid row, got:\n%s", out)
	}
}

func TestReport_InvertedThresholdsWarn(t *testing.T) {
	_, stderr, err := executeCommand(t, fakeLister{}, "--critical", "90", "--warning", "30")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !strings.Contains(stderr, "exceeds warning threshold") {
		t.Fatalf("expected inverted threshold warning, got: %s", stderr)
	}
}

func TestReport_NegativeThreshold(t *testing.T) {
	_, _, err := executeCommand(t, fakeLister{}, "--critical=-1")
	if !errors.Is(err, keyring.ErrNegativeThreshold) {
		t.Fatalf("expected ErrNegativeThreshold, got %v", err)
	}
}

func TestReport_ListingUnavailable(t *testing.T) {
	lister := fakeLister{err: fmt.Errorf("%w: gpg: executable file not found in $PATH", gpg.ErrListingUnavailable)}
	out, _, err := executeCommand(t, lister)
	if !errors.Is(err, gpg.ErrListingUnavailable) {
		t.Fatalf("expected ErrListingUnavailable, got %v", err)
	}
	if out != "" {
		t.Fatalf("nothing should be printed on listing failure, got: %s", out)
	}
}

func TestReport_SkippedLinesAreLogged(t *testing.T) {
	listing := "pub:f:4096:1:BROKEN:notadate:::\n" + line("f", "AAAAAAAAAAAAAAA1", 200, true)
	out, stderr, err := executeCommand(t, fakeLister{out: listing})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !strings.Contains(stderr, "line 1") {
		t.Fatalf("expected dropped line to be logged, got: %s", stderr)
	}
	if !strings.Contains(out, "AAAAAAAAAAAAAAA1") {
		t.Fatalf("expected remaining key in report, got: %s", out)
	}
}

func TestReport_RejectsArguments(t *testing.T) {
	if _, _, err := executeCommand(t, fakeLister{}, "extra"); err == nil {
		t.Fatalf("expected error for positional argument")
	}
}

func TestReport_WritesDrafts(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "drafts")
	t.Setenv("KEY_REPORT_DRAFTS_DIR", dir)
	t.Setenv("KEY_REPORT_DRAFTS_FROM", "admin@example.org")

	listing := line("f", "AAAAAAAAAAAAAAA1", 12, true) +
		"uid:f::::1262304000::ABCDEF::Owner <owner@example.org>:\n" +
		line("f", "AAAAAAAAAAAAAAA2", 300, true)
	if _, _, err := executeCommand(t, fakeLister{out: listing}); err != nil {
		t.Fatalf("execute: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read drafts dir: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != "AAAAAAAAAAAAAAA1.eml" {
		t.Fatalf("unexpected drafts: %v", entries)
	}
	data, err := os.ReadFile(filepath.Join(dir, entries[0].Name()))
	if err != nil {
		t.Fatalf("read draft: %v", err)
	}
	if !strings.Contains(string(data), "<owner@example.org>") {
		t.Fatalf("draft not addressed to key owner:\n%s", data)
	}
}

func TestSelfTest(t *testing.T) {
	out, _, err := executeCommand(t, fakeLister{err: errors.New("must not be called")}, "--test")
	if err != nil {
		t.Fatalf("self-test: %v\n%s", err, out)
	}
	if !strings.Contains(out, "ok   parse: colon primary key") || !strings.Contains(out, " 0 failed") {
		t.Fatalf("unexpected self-test output:\n%s", out)
	}
}

func TestNewPalette_PlainForBuffers(t *testing.T) {
	if p := newPalette(&bytes.Buffer{}); p != nil {
		t.Fatalf("expected no colors for a buffer")
	}
	var p palette
	if got := p.render(keyring.SeverityCritical); got != "critical" {
		t.Fatalf("plain render = %q", got)
	}
}

func TestReport_GPGConfigFromEnvironment(t *testing.T) {
	t.Setenv("KEY_REPORT_GPG_BINARY", "/usr/local/bin/gpg2")
	t.Setenv("KEY_REPORT_GPG_HOMEDIR", "/srv/keyring")
	t.Setenv("KEY_REPORT_GPG_TIMEOUT", "2s")
	prev := logging.L
	t.Cleanup(func() { logging.L = prev })

	var got config.GPGConfig
	cmd := newRootCmd(services{
		newLister: func(c config.GPGConfig) core.KeyLister {
			got = c
			return fakeLister{}
		},
		clock: core.FixedClock(now),
	})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}
	want := config.GPGConfig{Binary: "/usr/local/bin/gpg2", Homedir: "/srv/keyring", Timeout: 2 * time.Second}
	if got != want {
		t.Fatalf("lister config = %+v, want %+v", got, want)
	}
}
