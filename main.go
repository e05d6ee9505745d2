// Copyright (c) 2026 Key Report Team
// Key Report - PGP key expiration reporting
// This source code is licensed under the MIT license found in the LICENSE file.

// Command-line entrypoint for Key Report.
//
// Usage:
//
//	go run . [--warning DAYS] [--critical DAYS] [--test]
//	./key-report [flags]
//
// See --help for options.
package main

import (
	"os"

	"github.com/freedombox/key-report/internal/logging"
	"github.com/freedombox/key-report/ui/cli"
)

// main is the entrypoint for the Key Report CLI.
func main() {
	if err := cli.Execute(); err != nil {
		logging.Errorf("%v", err)
		os.Exit(1)
	}
}
