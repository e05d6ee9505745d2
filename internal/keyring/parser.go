// Copyright (c) 2026 Key Report Team
// Key Report - PGP key expiration reporting
// This source code is licensed under the MIT license found in the LICENSE file.

package keyring

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrUnrecognizedLine is returned for key lines in neither listing format.
	ErrUnrecognizedLine = errors.New("unrecognized key line")
	// ErrMalformedLine is returned when a key line lacks a required field.
	ErrMalformedLine = errors.New("malformed key line")
	// ErrMalformedDate is returned when a key's creation date cannot be read.
	ErrMalformedDate = errors.New("malformed creation date")
)

// LineParser parses a single key line of one listing format. today is used by
// formats that derive a status from the key's dates.
type LineParser interface {
	Parse(line string, today time.Time) (Record, error)
}

// ColonParser reads gpg's machine-readable --with-colons output:
//
//	pub:f:4096:1:0000000000000001:0:86400::q:::scESC:
//
// Field 1 is the validity code, field 4 the key ID, fields 5 and 6 the
// creation and expiration times in seconds since the epoch.
type ColonParser struct{}

const (
	colonType = iota
	colonValidity
	colonLength
	colonAlgorithm
	colonKeyID
	colonCreated
	colonExpires
)

func (ColonParser) Parse(line string, today time.Time) (Record, error) {
	fields := strings.Split(line, ":")
	if len(fields) <= colonCreated {
		return Record{}, fmt.Errorf("%w: expected at least %d fields, got %d", ErrMalformedLine, colonCreated+1, len(fields))
	}

	rec := Record{
		ID:     strings.TrimSpace(fields[colonKeyID]),
		Kind:   Kind(fields[colonType]),
		Status: StatusFromCode(fields[colonValidity]),
		Format: FormatColon,
	}
	if rec.ID == "" {
		return Record{}, fmt.Errorf("%w: empty key id", ErrMalformedLine)
	}

	created, err := parseTimestamp(fields[colonCreated])
	if err != nil {
		return Record{}, fmt.Errorf("%w %q: %v", ErrMalformedDate, fields[colonCreated], err)
	}
	rec.CreatedAt = created

	rec.ExpiresAt = Never
	if len(fields) > colonExpires && fields[colonExpires] != "" {
		if expires, err := parseTimestamp(fields[colonExpires]); err == nil {
			rec.ExpiresAt = expires
		}
	}
	return rec, nil
}

// parseTimestamp accepts epoch seconds (optionally fractional) and the ISO
// 8601 basic form gpg emits without --fixed-list-mode.
func parseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, errors.New("empty timestamp")
	}
	if strings.Contains(s, "T") {
		t, err := time.Parse("20060102T150405", s)
		if err != nil {
			return time.Time{}, err
		}
		return Day(t), nil
	}
	secs, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return time.Time{}, err
	}
	if math.IsNaN(secs) || math.IsInf(secs, 0) {
		return time.Time{}, fmt.Errorf("timestamp out of range: %s", s)
	}
	return Day(time.Unix(int64(secs), 0).UTC()), nil
}

// ColumnarParser reads the human-readable listing of older gpg releases:
//
//	pub   4096R/00000000 2013-07-31 [expires: 2013-08-01]
//
// The key ID follows the slash, the creation date is the next token and the
// expiration date, if any, sits in a labelled bracket clause.
type ColumnarParser struct{}

var expiryClause = regexp.MustCompile(`\[(expires|expired|revoked):\s*([^\]]*)\]`)

var expiryLabels = map[string]Status{
	"expires": StatusUnknown,
	"expired": StatusExpired,
	"revoked": StatusRevoked,
}

func (ColumnarParser) Parse(line string, today time.Time) (Record, error) {
	fields := strings.Fields(line)
	if len(fields) < 3 {
		return Record{}, fmt.Errorf("%w: expected type, key and creation date", ErrMalformedLine)
	}
	slash := strings.Index(fields[1], "/")
	if slash < 0 {
		return Record{}, fmt.Errorf("%w: no key id in %q", ErrMalformedLine, fields[1])
	}

	rec := Record{
		ID:     fields[1][slash+1:],
		Kind:   Kind(fields[0]),
		Format: FormatColumnar,
	}
	if rec.ID == "" {
		return Record{}, fmt.Errorf("%w: empty key id", ErrMalformedLine)
	}

	created, err := time.Parse(DateLayout, fields[2])
	if err != nil {
		return Record{}, fmt.Errorf("%w %q: %v", ErrMalformedDate, fields[2], err)
	}
	rec.CreatedAt = created

	rec.ExpiresAt = Never
	rec.Status = StatusIndefinite
	m := expiryClause.FindStringSubmatch(line)
	if m == nil {
		return rec, nil
	}
	expires, err := time.Parse(DateLayout, strings.TrimSpace(m[2]))
	if err != nil {
		return rec, nil
	}
	rec.ExpiresAt = expires
	rec.Status = expiryLabels[m[1]]

	// Expired keys and keys whose dates contradict each other are reported
	// as revoked whatever the listing says.
	if !expires.After(Day(today)) || !created.Before(expires) {
		rec.Status = StatusRevoked
	}
	return rec, nil
}

// sniff selects the parser for a line. ok is false for lines that are not
// primary or subkey lines and should be skipped.
func sniff(line string) (p LineParser, ok bool, err error) {
	if strings.HasPrefix(line, "pub:") || strings.HasPrefix(line, "sub:") {
		return ColonParser{}, true, nil
	}
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil, false, nil
	}
	if Kind(fields[0]) != KindPrimary && Kind(fields[0]) != KindSubkey {
		return nil, false, nil
	}
	if len(fields) >= 2 && strings.Contains(fields[1], "/") {
		return ColumnarParser{}, true, nil
	}
	return nil, true, fmt.Errorf("%w: %q", ErrUnrecognizedLine, line)
}

// ParseLine parses a single listing line. ok is false when the line is not a
// key line (user IDs, signatures, fingerprints, blank lines) and was skipped.
func ParseLine(line string, today time.Time) (rec Record, ok bool, err error) {
	line = strings.TrimRight(line, "\r")
	p, ok, err := sniff(line)
	if !ok || err != nil {
		return Record{}, ok, err
	}
	rec, err = p.Parse(line, today)
	if err != nil {
		return Record{}, true, err
	}
	return rec, true, nil
}

// LineError records a key line that was dropped.
type LineError struct {
	Line int
	Text string
	Err  error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *LineError) Unwrap() error { return e.Err }

// parseUserID extracts the user ID from a colon or columnar uid line.
func parseUserID(line string) (string, bool) {
	if strings.HasPrefix(line, "uid:") {
		fields := strings.Split(line, ":")
		if len(fields) <= 9 {
			return "", false
		}
		uid := strings.ReplaceAll(fields[9], `\x3a`, ":")
		return uid, uid != ""
	}
	rest, ok := strings.CutPrefix(strings.TrimSpace(line), "uid ")
	if !ok {
		return "", false
	}
	rest = strings.TrimSpace(rest)
	// Newer listings prefix the user ID with its validity, e.g. "[ultimate]".
	if strings.HasPrefix(rest, "[") {
		if end := strings.Index(rest, "]"); end >= 0 {
			rest = strings.TrimSpace(rest[end+1:])
		}
	}
	return rest, rest != ""
}

// ParseListing parses every key line of a listing, in order. Lines that fail
// to parse are returned as LineErrors and do not abort parsing. The first
// user ID following a primary key is attached to it and its subkeys.
func ParseListing(text string, today time.Time) ([]Record, []*LineError) {
	var (
		records []Record
		dropped []*LineError
		primary = -1
	)
	for i, line := range strings.Split(text, "\n") {
		if uid, ok := parseUserID(strings.TrimRight(line, "\r")); ok {
			if primary >= 0 && records[primary].UserID == "" {
				records[primary].UserID = uid
			}
			continue
		}
		rec, ok, err := ParseLine(line, today)
		if err != nil {
			dropped = append(dropped, &LineError{Line: i + 1, Text: line, Err: err})
			if strings.HasPrefix(strings.TrimSpace(line), string(KindPrimary)) {
				primary = -1
			}
			continue
		}
		if !ok {
			continue
		}
		switch {
		case rec.Kind == KindPrimary:
			primary = len(records)
		case primary >= 0:
			rec.UserID = records[primary].UserID
		}
		records = append(records, rec)
	}
	return records, dropped
}
