// Copyright (c) 2026 Key Report Team
// Key Report - PGP key expiration reporting
// This source code is licensed under the MIT license found in the LICENSE file.

package keyring

import (
	"fmt"
	"time"
)

// DateLayout is the calendar date format used for input and output.
const DateLayout = "2006-01-02"

// Never is the expiration date of keys that do not expire.
var Never = time.Date(9999, time.December, 31, 0, 0, 0, 0, time.UTC)

// Day truncates t to the calendar date it falls on in its own location and
// returns that date as UTC midnight.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Status is the trust or validity state of a key.
type Status string

const (
	StatusUnknown    Status = "unknown"
	StatusInvalid    Status = "invalid"
	StatusRevoked    Status = "revoked"
	StatusExpired    Status = "expired"
	StatusUndefined  Status = "undefined"
	StatusUntrusted  Status = "untrusted"
	StatusMarginal   Status = "marginal"
	StatusFull       Status = "full"
	StatusUltimate   Status = "ultimate"
	StatusIndefinite Status = "indefinite"
)

// trustCodes maps gpg's single-character validity field to a Status.
var trustCodes = map[string]Status{
	"o": StatusUnknown,
	"i": StatusInvalid,
	"r": StatusRevoked,
	"e": StatusExpired,
	"-": StatusUnknown,
	"q": StatusUndefined,
	"n": StatusUntrusted,
	"m": StatusMarginal,
	"f": StatusFull,
	"u": StatusUltimate,
}

// StatusFromCode returns the Status for a gpg validity code. Unrecognized and
// empty codes are StatusUnknown.
func StatusFromCode(code string) Status {
	if s, ok := trustCodes[code]; ok {
		return s
	}
	return StatusUnknown
}

// Trustworthy reports whether keys with this status are listed with the
// valid keys. Expired keys are deliberately included so they are still
// reported with a severity.
func (s Status) Trustworthy() bool {
	switch s {
	case StatusUnknown, StatusUndefined, StatusMarginal, StatusFull, StatusUltimate, StatusExpired:
		return true
	}
	return false
}

// Kind distinguishes primary keys from subkeys.
type Kind string

const (
	KindPrimary Kind = "pub"
	KindSubkey  Kind = "sub"
)

// Format names the listing format a record was parsed from.
type Format string

const (
	FormatColon    Format = "colon"
	FormatColumnar Format = "columnar"
)

// Record is one key (or subkey) line of a keyring listing.
type Record struct {
	ID        string
	Kind      Kind
	Status    Status
	CreatedAt time.Time
	// ExpiresAt is Never for keys without an expiration date.
	ExpiresAt time.Time
	Format    Format
	// UserID is the first user ID listed for the key, if any. Subkeys carry
	// the user ID of their primary key.
	UserID string
}

// NeverExpires reports whether the key has no expiration date.
func (r Record) NeverExpires() bool {
	return r.ExpiresAt.Equal(Never)
}

func (r Record) String() string {
	expires := "never"
	if !r.NeverExpires() {
		expires = r.ExpiresAt.Format(DateLayout)
	}
	return fmt.Sprintf("%s %s %s created %s expires %s", r.Kind, r.ID, r.Status, r.CreatedAt.Format(DateLayout), expires)
}
