// Copyright (c) 2026 Key Report Team
// Key Report - PGP key expiration reporting
// This source code is licensed under the MIT license found in the LICENSE file.

package core

import "time"

// Clock provides an abstraction over time.Now for testability.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// FixedClock always returns the same instant.
type FixedClock time.Time

func (c FixedClock) Now() time.Time { return time.Time(c) }
