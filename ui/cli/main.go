// Copyright (c) 2026 Key Report Team
// Key Report - PGP key expiration reporting
// This source code is licensed under the MIT license found in the LICENSE file.

// main.go sets up the key-report command using the Cobra library: its flags,
// configuration loading and the report and self-test runs.

package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/freedombox/key-report/internal/config"
	"github.com/freedombox/key-report/internal/core"
	"github.com/freedombox/key-report/internal/gpg"
	"github.com/freedombox/key-report/internal/keyring"
	"github.com/freedombox/key-report/internal/logging"
	"github.com/freedombox/key-report/internal/notify"
	"github.com/freedombox/key-report/internal/selftest"
)

// ErrSelfTestFailed is returned by --test when a vector fails.
var ErrSelfTestFailed = errors.New("self-test failed")

// services holds the collaborators the command talks to. Tests replace them.
type services struct {
	newLister func(config.GPGConfig) core.KeyLister
	clock     core.Clock
}

func defaultServices() services {
	return services{
		newLister: func(c config.GPGConfig) core.KeyLister {
			return gpg.New(c.Binary, c.Homedir, c.Timeout)
		},
		clock: core.SystemClock{},
	}
}

// Execute runs the CLI entrypoint. The main package should call this function
// and handle process exit.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return NewRootCmd().ExecuteContext(ctx)
}

// NewRootCmd creates and configures a new root cobra command.
// This function is used to create the main application command as well as
// fresh instances for isolated testing.
func NewRootCmd() *cobra.Command {
	return newRootCmd(defaultServices())
}

func newRootCmd(svc services) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "key-report",
		Short: "Report when the keys in your PGP keyring expire.",
		Long: `Key Report lists the keys in your gpg keyring and shows when they expire:

  error     the key has expired
  critical  the key expires within --critical days
  warning   the key expires within --warning days
  valid     the key is good for longer than that
  never     the key does not expire

Keys are grouped into valid (trustworthy), invalid (untrusted), revoked and
indefinite keys.

The keyring tool is configured through the environment: KEY_REPORT_GPG_BINARY,
KEY_REPORT_GPG_HOMEDIR and KEY_REPORT_GPG_TIMEOUT. Set KEY_REPORT_DRAFTS_DIR to
write notification drafts for keys that expire soon.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, svc)
		},
	}

	cmd.Flags().Int("warning", keyring.DefaultWarningDays, "Number of days before expiration to warn user.")
	cmd.Flags().Int("critical", keyring.DefaultCriticalDays, "Number of days before expiration to freak out.")
	cmd.Flags().Bool("test", false, "Run the built-in self-test and exit.")

	return cmd
}

func run(cmd *cobra.Command, svc services) error {
	cfg, err := config.Load(cmd)
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}
	if err := logging.Configure(cmd.ErrOrStderr(), cfg.Log.Level); err != nil {
		return err
	}

	if cfg.Test {
		res, err := selftest.Run(cmd.OutOrStdout())
		if err != nil {
			return err
		}
		if !res.OK() {
			return fmt.Errorf("%w: %d of %d vectors", ErrSelfTestFailed, res.Failed, res.Failed+res.Passed)
		}
		return nil
	}

	th := keyring.Thresholds{Critical: cfg.Critical, Warning: cfg.Warning}
	if err := th.Validate(); err != nil {
		return err
	}
	if th.Inverted() {
		logging.Warnf("critical threshold (%d days) exceeds warning threshold (%d days); no key will be labelled warning", th.Critical, th.Warning)
	}

	rp := &core.Reporter{
		Lister:     svc.newLister(cfg.GPG),
		Clock:      svc.clock,
		Thresholds: th,
	}
	rep, err := rp.Run(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	renderReport(out, rep, newPalette(out))

	if cfg.Drafts.Dir != "" {
		meta := notify.Meta{From: cfg.Drafts.From, FromName: cfg.Drafts.FromName}
		paths, err := notify.WriteDrafts(cfg.Drafts.Dir, meta, rep)
		if err != nil {
			return err
		}
		logging.Infof("wrote %d drafts to %s", len(paths), cfg.Drafts.Dir)
	}
	return nil
}
