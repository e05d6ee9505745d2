// Copyright (c) 2026 Key Report Team
// Key Report - PGP key expiration reporting
// This source code is licensed under the MIT license found in the LICENSE file.

// Package keyring turns the textual key listing of gpg into key records,
// groups them into buckets and labels expiration dates by severity. It does
// no I/O; the listing is obtained by package gpg.
package keyring
