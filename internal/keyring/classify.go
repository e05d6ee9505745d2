// Copyright (c) 2026 Key Report Team
// Key Report - PGP key expiration reporting
// This source code is licensed under the MIT license found in the LICENSE file.

package keyring

import (
	"slices"
	"time"
)

// ByDate groups key IDs by expiration date.
type ByDate map[time.Time][]string

// Dates returns the dates of g in ascending order.
func (g ByDate) Dates() []time.Time {
	dates := make([]time.Time, 0, len(g))
	for d := range g {
		dates = append(dates, d)
	}
	slices.SortFunc(dates, func(a, b time.Time) int { return a.Compare(b) })
	return dates
}

func (g ByDate) add(d time.Time, id string) {
	g[d] = append(g[d], id)
}

// Buckets is the classification of one keyring listing.
type Buckets struct {
	Valid      ByDate
	Invalid    ByDate
	Revoked    ByDate
	Indefinite []string
}

// Bucket names one of the groups of Buckets.
type Bucket string

const (
	BucketValid      Bucket = "valid"
	BucketInvalid    Bucket = "invalid"
	BucketRevoked    Bucket = "revoked"
	BucketIndefinite Bucket = "indefinite"
)

// BucketOf returns the bucket a record is classified into.
func BucketOf(r Record) Bucket {
	switch {
	case r.NeverExpires():
		return BucketIndefinite
	case r.Status.Trustworthy():
		return BucketValid
	case r.Status == StatusRevoked:
		return BucketRevoked
	default:
		return BucketInvalid
	}
}

// Classify groups records into buckets. Keys that never expire go to the
// indefinite list regardless of status. records is not modified.
func Classify(records []Record) Buckets {
	b := Buckets{
		Valid:   ByDate{},
		Invalid: ByDate{},
		Revoked: ByDate{},
	}
	for _, r := range records {
		switch BucketOf(r) {
		case BucketIndefinite:
			b.Indefinite = append(b.Indefinite, r.ID)
		case BucketValid:
			b.Valid.add(r.ExpiresAt, r.ID)
		case BucketRevoked:
			b.Revoked.add(r.ExpiresAt, r.ID)
		default:
			b.Invalid.add(r.ExpiresAt, r.ID)
		}
	}
	return b
}

// Len returns the number of keys across all buckets.
func (b Buckets) Len() int {
	n := len(b.Indefinite)
	for _, g := range []ByDate{b.Valid, b.Invalid, b.Revoked} {
		for _, ids := range g {
			n += len(ids)
		}
	}
	return n
}
