// Copyright (c) 2026 Key Report Team
// Key Report - PGP key expiration reporting
// This source code is licensed under the MIT license found in the LICENSE file.

package keyring

import (
	"errors"
	"fmt"
	"time"
)

// Severity labels how close an expiration date is.
type Severity string

const (
	SeverityError    Severity = "error"
	SeverityCritical Severity = "critical"
	SeverityWarning  Severity = "warning"
	SeverityValid    Severity = "valid"
	// SeverityNever labels keys without an expiration date.
	SeverityNever Severity = "never"
)

// Default thresholds, in days before expiration.
const (
	DefaultCriticalDays = 30
	DefaultWarningDays  = 90
)

var ErrNegativeThreshold = errors.New("threshold must not be negative")

// Thresholds are the day counts before expiration at which a key becomes
// critical or warning.
type Thresholds struct {
	Critical int
	Warning  int
}

// DefaultThresholds returns critical=30, warning=90.
func DefaultThresholds() Thresholds {
	return Thresholds{Critical: DefaultCriticalDays, Warning: DefaultWarningDays}
}

// Validate rejects negative thresholds. A critical threshold larger than the
// warning threshold is accepted; see Inverted.
func (t Thresholds) Validate() error {
	if t.Critical < 0 {
		return fmt.Errorf("critical %d: %w", t.Critical, ErrNegativeThreshold)
	}
	if t.Warning < 0 {
		return fmt.Errorf("warning %d: %w", t.Warning, ErrNegativeThreshold)
	}
	return nil
}

// Inverted reports whether the critical window is wider than the warning
// window, in which case no key is ever labelled warning.
func (t Thresholds) Inverted() bool {
	return t.Critical > t.Warning
}

// SeverityOf labels an expiration date relative to today. Dates are compared
// by calendar day and boundaries are inclusive.
func SeverityOf(expires, today time.Time, criticalDays, warningDays int) Severity {
	expires, today = Day(expires), Day(today)
	switch {
	case !expires.After(today):
		return SeverityError
	case !expires.AddDate(0, 0, -criticalDays).After(today):
		return SeverityCritical
	case !expires.AddDate(0, 0, -warningDays).After(today):
		return SeverityWarning
	default:
		return SeverityValid
	}
}

// Label is SeverityOf with t's thresholds.
func (t Thresholds) Label(expires, today time.Time) Severity {
	return SeverityOf(expires, today, t.Critical, t.Warning)
}
