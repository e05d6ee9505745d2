// Copyright (c) 2026 Key Report Team
// Key Report - PGP key expiration reporting
// This source code is licensed under the MIT license found in the LICENSE file.
//
// Package cli implements the command-line interface for Key Report using Cobra.
// It wires configuration and logging, then delegates to `core` to build the
// report. CLI code should remain thin: it only resolves settings and formats
// output.
package cli
