// Copyright (c) 2026 Key Report Team
// Key Report - PGP key expiration reporting
// This source code is licensed under the MIT license found in the LICENSE file.

// Package selftest checks the line parser and severity labeller against a
// set of vectors embedded in the binary.
package selftest

import (
	_ "embed"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/goccy/go-yaml"

	"github.com/freedombox/key-report/internal/keyring"
)

//go:embed vectors.yaml
var vectorsYAML []byte

// Vectors is the decoded vector file.
type Vectors struct {
	Today    string          `yaml:"today"`
	Lines    []LineVector    `yaml:"lines"`
	Severity SeverityVectors `yaml:"severity"`
}

// LineVector is a listing line and what parsing it must produce. Error names
// the expected failure ("malformed-date", "malformed-line", "unrecognized").
type LineVector struct {
	Name    string `yaml:"name"`
	Line    string `yaml:"line"`
	ID      string `yaml:"id"`
	Status  string `yaml:"status"`
	Created string `yaml:"created"`
	Expires string `yaml:"expires"`
	Skip    bool   `yaml:"skip"`
	Error   string `yaml:"error"`
}

type SeverityVectors struct {
	Critical int            `yaml:"critical"`
	Warning  int            `yaml:"warning"`
	Cases    []SeverityCase `yaml:"cases"`
}

// SeverityCase expects Want for a key expiring Offset days after today.
type SeverityCase struct {
	Offset int    `yaml:"offset"`
	Want   string `yaml:"want"`
}

var errorNames = map[string]error{
	"malformed-date": keyring.ErrMalformedDate,
	"malformed-line": keyring.ErrMalformedLine,
	"unrecognized":   keyring.ErrUnrecognizedLine,
}

// Load decodes the embedded vectors.
func Load() (Vectors, error) {
	return Decode(vectorsYAML)
}

// Decode decodes a vector file.
func Decode(data []byte) (Vectors, error) {
	var v Vectors
	if err := yaml.Unmarshal(data, &v); err != nil {
		return v, fmt.Errorf("decode self-test vectors: %w", err)
	}
	if _, err := time.Parse(keyring.DateLayout, v.Today); err != nil {
		return v, fmt.Errorf("self-test vectors: invalid today %q: %w", v.Today, err)
	}
	return v, nil
}

// Result counts the outcome of a run.
type Result struct {
	Passed int
	Failed int
}

// OK reports whether every vector passed.
func (r Result) OK() bool { return r.Failed == 0 }

// Run checks the embedded vectors and writes one line per vector and a
// summary to w.
func Run(w io.Writer) (Result, error) {
	v, err := Load()
	if err != nil {
		return Result{}, err
	}
	return v.Run(w), nil
}

// Run checks v and writes one line per vector and a summary to w.
func (v Vectors) Run(w io.Writer) Result {
	var res Result
	today, _ := time.Parse(keyring.DateLayout, v.Today)

	report := func(name string, err error) {
		if err != nil {
			res.Failed++
			fmt.Fprintf(w, "FAIL %s: %v\n", name, err)
			return
		}
		res.Passed++
		fmt.Fprintf(w, "ok   %s\n", name)
	}

	for _, lv := range v.Lines {
		report("parse: "+lv.Name, lv.Check(today))
	}
	for _, sc := range v.Severity.Cases {
		name := fmt.Sprintf("severity: today%+d days", sc.Offset)
		report(name, sc.Check(today, v.Severity.Critical, v.Severity.Warning))
	}

	fmt.Fprintf(w, "%d passed, %d failed\n", res.Passed, res.Failed)
	return res
}

// Check parses the vector's line as of today and compares the outcome.
func (lv LineVector) Check(today time.Time) error {
	rec, ok, err := keyring.ParseLine(lv.Line, today)
	if lv.Skip {
		if ok || err != nil {
			return fmt.Errorf("expected line to be skipped, got ok=%v err=%v", ok, err)
		}
		return nil
	}
	if lv.Error != "" {
		want, known := errorNames[lv.Error]
		if !known {
			return fmt.Errorf("unknown expected error %q", lv.Error)
		}
		if !errors.Is(err, want) {
			return fmt.Errorf("expected %v, got %v", want, err)
		}
		return nil
	}
	if err != nil {
		return err
	}
	if !ok {
		return errors.New("line was skipped")
	}

	expires := "never"
	if !rec.NeverExpires() {
		expires = rec.ExpiresAt.Format(keyring.DateLayout)
	}
	for _, c := range []struct{ field, got, want string }{
		{"id", rec.ID, lv.ID},
		{"status", string(rec.Status), lv.Status},
		{"created", rec.CreatedAt.Format(keyring.DateLayout), lv.Created},
		{"expires", expires, lv.Expires},
	} {
		if c.got != c.want {
			return fmt.Errorf("%s = %q, want %q", c.field, c.got, c.want)
		}
	}
	return nil
}

// Check labels a date Offset days after today and compares the label.
func (sc SeverityCase) Check(today time.Time, critical, warning int) error {
	got := keyring.SeverityOf(today.AddDate(0, 0, sc.Offset), today, critical, warning)
	if string(got) != sc.Want {
		return fmt.Errorf("got %s, want %s", got, sc.Want)
	}
	return nil
}
