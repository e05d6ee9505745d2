// Copyright (c) 2026 Key Report Team
// Key Report - PGP key expiration reporting
// This source code is licensed under the MIT license found in the LICENSE file.

package cli

import (
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/olekukonko/tablewriter"
	"golang.org/x/term"

	"github.com/freedombox/key-report/internal/core"
	"github.com/freedombox/key-report/internal/keyring"
)

// Severity colors, matching the palette of the rest of the tooling.
const (
	colorError    = lipgloss.Color("196") // bright red
	colorCritical = lipgloss.Color("208") // orange
	colorWarning  = lipgloss.Color("220") // yellow
	colorValid    = lipgloss.Color("40")  // green
	colorSubtle   = lipgloss.Color("240") // muted gray
)

// palette styles severity labels. A nil palette prints them plain.
type palette map[keyring.Severity]lipgloss.Style

// newPalette returns a colored palette when w is a terminal and NO_COLOR is
// unset, nil otherwise.
func newPalette(w io.Writer) palette {
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) || os.Getenv("NO_COLOR") != "" {
		return nil
	}
	r := lipgloss.NewRenderer(f)
	return palette{
		keyring.SeverityError:    r.NewStyle().Foreground(colorError).Bold(true),
		keyring.SeverityCritical: r.NewStyle().Foreground(colorCritical).Bold(true),
		keyring.SeverityWarning:  r.NewStyle().Foreground(colorWarning),
		keyring.SeverityValid:    r.NewStyle().Foreground(colorValid),
		keyring.SeverityNever:    r.NewStyle().Foreground(colorSubtle),
	}
}

func (p palette) render(s keyring.Severity) string {
	if style, ok := p[s]; ok {
		return style.Render(string(s))
	}
	return string(s)
}

// reportHeader is the column header of the report table.
var reportHeader = []string{"Severity", "Bucket", "ID", "Expires"}

// reportRows converts report rows into table cells.
func reportRows(rep core.Report, p palette) [][]string {
	rows := make([][]string, 0, len(rep.Rows))
	for _, r := range rep.Rows {
		rows = append(rows, []string{p.render(r.Severity), string(r.Bucket), r.ID, r.ExpiresString()})
	}
	return rows
}

// renderReport prints the report as a borderless, tab-padded table.
func renderReport(w io.Writer, rep core.Report, p palette) {
	table := tablewriter.NewWriter(w)
	table.SetHeader(reportHeader)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")
	table.SetNoWhiteSpace(true)
	table.AppendBulk(reportRows(rep, p))
	table.Render()
}
