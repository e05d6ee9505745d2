// Copyright (c) 2026 Key Report Team
// Key Report - PGP key expiration reporting
// This source code is licensed under the MIT license found in the LICENSE file.

// Package core ties the key listing, parsing and classification together into
// a report for one run.
package core

import (
	"context"
	"time"

	"github.com/freedombox/key-report/internal/keyring"
	"github.com/freedombox/key-report/internal/logging"
)

// KeyLister returns the raw keyring listing.
type KeyLister interface {
	ListKeys(ctx context.Context) (string, error)
}

// Row is one line of the report.
type Row struct {
	Severity keyring.Severity
	Bucket   keyring.Bucket
	ID       string
	UserID   string
	// Expires is the zero time for keys that never expire.
	Expires time.Time
}

// ExpiresString formats Expires as YYYY-MM-DD, or "" for keys that never
// expire.
func (r Row) ExpiresString() string {
	if r.Expires.IsZero() {
		return ""
	}
	return r.Expires.Format(keyring.DateLayout)
}

// DaysLeft returns the number of days from today until the key expires.
// It is negative for expired keys and meaningless for indefinite rows.
func (r Row) DaysLeft(today time.Time) int {
	return int(keyring.Day(r.Expires).Sub(keyring.Day(today)).Hours() / 24)
}

// Report is the outcome of one run.
type Report struct {
	Today      time.Time
	Thresholds keyring.Thresholds
	Buckets    keyring.Buckets
	Rows       []Row
	// Dropped holds the key lines that could not be parsed.
	Dropped []*keyring.LineError
}

// Counts returns the number of rows per severity.
func (r Report) Counts() map[keyring.Severity]int {
	counts := make(map[keyring.Severity]int)
	for _, row := range r.Rows {
		counts[row.Severity]++
	}
	return counts
}

// Reporter produces reports from a key lister.
type Reporter struct {
	Lister     KeyLister
	Clock      Clock
	Thresholds keyring.Thresholds
}

// Run lists the keyring once and classifies every key in it. Listing
// failures are returned unchanged; unparseable lines are logged and skipped.
func (rp *Reporter) Run(ctx context.Context) (Report, error) {
	if err := rp.Thresholds.Validate(); err != nil {
		return Report{}, err
	}
	clock := rp.Clock
	if clock == nil {
		clock = SystemClock{}
	}
	today := keyring.Day(clock.Now())

	raw, err := rp.Lister.ListKeys(ctx)
	if err != nil {
		return Report{}, err
	}
	return Build(raw, today, rp.Thresholds), nil
}

// Build parses and classifies a raw listing as of today.
func Build(raw string, today time.Time, th keyring.Thresholds) Report {
	today = keyring.Day(today)
	records, dropped := keyring.ParseListing(raw, today)
	for _, d := range dropped {
		logging.Warnf("skipping %v: %q", d, d.Text)
	}
	logging.Debugf("parsed %d key records, dropped %d lines", len(records), len(dropped))

	userIDs := make(map[string]string, len(records))
	for _, r := range records {
		if r.UserID != "" {
			userIDs[r.ID] = r.UserID
		}
	}

	b := keyring.Classify(records)
	rows := Rows(b, today, th)
	for i := range rows {
		rows[i].UserID = userIDs[rows[i].ID]
	}
	return Report{
		Today:      today,
		Thresholds: th,
		Buckets:    b,
		Rows:       rows,
		Dropped:    dropped,
	}
}

// Rows flattens buckets into report rows: valid, invalid, revoked and then
// indefinite keys, each dated group in ascending date order.
func Rows(b keyring.Buckets, today time.Time, th keyring.Thresholds) []Row {
	rows := make([]Row, 0, b.Len())
	for _, group := range []struct {
		bucket keyring.Bucket
		keys   keyring.ByDate
	}{
		{keyring.BucketValid, b.Valid},
		{keyring.BucketInvalid, b.Invalid},
		{keyring.BucketRevoked, b.Revoked},
	} {
		for _, d := range group.keys.Dates() {
			sev := th.Label(d, today)
			for _, id := range group.keys[d] {
				rows = append(rows, Row{Severity: sev, Bucket: group.bucket, ID: id, Expires: d})
			}
		}
	}
	for _, id := range b.Indefinite {
		rows = append(rows, Row{Severity: keyring.SeverityNever, Bucket: keyring.BucketIndefinite, ID: id})
	}
	return rows
}
