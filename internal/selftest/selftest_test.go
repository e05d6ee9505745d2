// Copyright (c) 2026 Key Report Team
// Key Report - PGP key expiration reporting
// This source code is licensed under the MIT license found in the LICENSE file.

package selftest

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestEmbeddedVectorsPass(t *testing.T) {
	var buf bytes.Buffer
	res, err := Run(&buf)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !res.OK() {
		t.Fatalf("self-test failed:\n%s", buf.String())
	}
	if res.Passed == 0 {
		t.Fatalf("no vectors were run")
	}
	if !strings.HasSuffix(buf.String(), "0 failed\n") {
		t.Fatalf("missing summary line:\n%s", buf.String())
	}
}

func TestVectors_ReportFailures(t *testing.T) {
	v, err := Decode([]byte(`
today: "2024-03-15"
lines:
  - name: wrong id
    line: "pub:f:4096:1:0000000000000001:0:86400:"
    id: "FFFFFFFFFFFFFFFF"
    status: full
    created: "1970-01-01"
    expires: "1970-01-02"
  - name: not skipped
    line: "pub:f:4096:1:0000000000000001:0:86400:"
    skip: true
severity:
  critical: 30
  warning: 90
  cases:
    - {offset: 0, want: valid}
`))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	var buf bytes.Buffer
	res := v.Run(&buf)
	if res.OK() || res.Failed != 3 || res.Passed != 0 {
		t.Fatalf("expected 3 failures, got %+v:\n%s", res, buf.String())
	}
	out := buf.String()
	if !strings.Contains(out, `FAIL parse: wrong id: id = "0000000000000001", want "FFFFFFFFFFFFFFFF"`) {
		t.Fatalf("missing id mismatch:\n%s", out)
	}
	if !strings.Contains(out, "FAIL severity: today+0 days: got error, want valid") {
		t.Fatalf("missing severity mismatch:\n%s", out)
	}
}

func TestDecode_InvalidToday(t *testing.T) {
	if _, err := Decode([]byte("today: someday\n")); err == nil {
		t.Fatalf("expected error for invalid today")
	}
}

func TestLineVector_UnknownErrorName(t *testing.T) {
	lv := LineVector{Line: "pub:f:4096", Error: "exploded"}
	if err := lv.Check(time.Now()); err == nil {
		t.Fatalf("expected error for unknown error name")
	}
}
