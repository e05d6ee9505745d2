// Copyright (c) 2026 Key Report Team
// Key Report - PGP key expiration reporting
// This source code is licensed under the MIT license found in the LICENSE file.

// Package notify drafts messages telling key owners that their key is about
// to expire. Drafts are written to files for a human to review and send.
package notify

import (
	"bytes"
	"errors"
	"fmt"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"text/template"
	"time"

	sprig "github.com/go-task/slim-sprig/v3"

	"github.com/freedombox/key-report/internal/core"
	"github.com/freedombox/key-report/internal/keyring"
	"github.com/freedombox/key-report/internal/logging"
)

var ErrNoKeyID = errors.New("draft needs a key id")

// Meta describes the sender of drafts.
type Meta struct {
	From     string
	FromName string
}

// Notice is everything a draft says about one key.
type Notice struct {
	KeyID    string
	UserID   string
	Expires  time.Time
	DaysLeft int
}

const draftText = `From: {{ .From }}
To: {{ .To }}
Subject: PGP Key Expiring

<#secure method=pgpmime mode=signencrypt>
Hi {{ .ToName | default "there" }}, I just wanted to let you know that your PGP key is going to
expire within the next {{ .DaysLeft }} days:

{{ .KeyID }} {{ .Expires }}

You should publish another key (with a transitional signing statement)
or extend your current key's expiration date (if your key hasn't been
compromised).

Thanks for your time,
{{ .Signature | trim }}
`

var draftTemplate = template.Must(template.New("draft").Funcs(sprig.TxtFuncMap()).Parse(draftText))

type draftData struct {
	From, To, ToName string
	KeyID, Expires   string
	DaysLeft         int
	Signature        string
}

// Draft renders the notification message for one key.
func Draft(meta Meta, n Notice) (string, error) {
	if n.KeyID == "" {
		return "", ErrNoKeyID
	}
	data := draftData{
		From:      meta.From,
		To:        n.UserID,
		KeyID:     n.KeyID,
		Expires:   n.Expires.Format(keyring.DateLayout),
		DaysLeft:  n.DaysLeft,
		Signature: meta.FromName,
	}
	if meta.FromName != "" && meta.From != "" {
		data.From = (&mail.Address{Name: meta.FromName, Address: meta.From}).String()
	}
	if data.Signature == "" {
		data.Signature = meta.From
	}
	if addr, err := mail.ParseAddress(n.UserID); err == nil {
		data.To = addr.String()
		data.ToName = addr.Name
	}

	var buf bytes.Buffer
	if err := draftTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render draft for %s: %w", n.KeyID, err)
	}
	return buf.String(), nil
}

// Due reports whether a row should get a draft: a trustworthy key that is
// critical or in its warning window.
func Due(r core.Row) bool {
	if r.Bucket != keyring.BucketValid {
		return false
	}
	return r.Severity == keyring.SeverityCritical || r.Severity == keyring.SeverityWarning
}

// WriteDrafts writes one <key id>.eml draft per due row of rep into dir and
// returns the paths written.
func WriteDrafts(dir string, meta Meta, rep core.Report) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("could not create drafts directory %s: %w", dir, err)
	}

	var written []string
	for _, r := range rep.Rows {
		if !Due(r) {
			continue
		}
		text, err := Draft(meta, Notice{
			KeyID:    r.ID,
			UserID:   r.UserID,
			Expires:  r.Expires,
			DaysLeft: r.DaysLeft(rep.Today),
		})
		if err != nil {
			return written, err
		}
		path := filepath.Join(dir, safeName(r.ID)+".eml")
		if err := os.WriteFile(path, []byte(text), 0o600); err != nil {
			return written, fmt.Errorf("write draft %s: %w", path, err)
		}
		logging.Infof("wrote draft for %s to %s", r.ID, path)
		written = append(written, path)
	}
	return written, nil
}

// safeName keeps key ids from escaping the drafts directory.
func safeName(id string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= '0' && r <= '9', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
			return r
		}
		return '_'
	}, id)
}
