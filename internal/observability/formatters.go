// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/jonathan/version-auditor/internal/notify"
	"github.com/jonathan/version-auditor/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 72
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 10
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, truncate(line, boxWidth-4))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// truncate shortens s to at most n runes.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n-3]) + "..."
}

func more(sb *strings.Builder, total int, noun string) {
	if total > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("\n... and %d more %s", total-maxItemsToShow, noun))
	}
}

// PrintRequirements outputs the normalized recommended-version table.
func (p *Printer) PrintRequirements(reqs []types.RequirementRow) {
	if len(reqs) == 0 {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%-12s %-30s %s\n", "JOIN KEY", "TYPE", "RECOMMENDED"))
	count := min(len(reqs), maxItemsToShow)
	for i := 0; i < count; i++ {
		r := reqs[i]
		sb.WriteString(fmt.Sprintf("%-12s %-30s %s\n", truncate(r.JoinKey, 12), truncate(r.ProductFamily, 30), r.RecommendedVersion))
	}
	more(&sb, len(reqs), "rows")

	p.printBox(fmt.Sprintf("REQUIREMENTS (%d)", len(reqs)), strings.TrimSuffix(sb.String(), "\n"))
}

// PrintSessions outputs the deduplicated session records with parsed versions.
func (p *Printer) PrintSessions(sessions []types.SessionRecord) {
	if len(sessions) == 0 {
		return
	}

	var sb strings.Builder
	count := min(len(sessions), maxItemsToShow)
	for i := 0; i < count; i++ {
		s := sessions[i]
		id := s.Identifier()
		if s.ClientIdentifier == nil {
			id = "<none>"
		}
		sb.WriteString(fmt.Sprintf("• %s  [%s]  %s\n", id, s.Version, s.UserName))
	}
	more(&sb, len(sessions), "sessions")

	p.printBox(fmt.Sprintf("UNIQUE SESSIONS (%d)", len(sessions)), strings.TrimSuffix(sb.String(), "\n"))
}

// PrintMismatches outputs the reconciled mismatch records.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintMismatches(recs []types.MismatchRecord) {
	if len(recs) == 0 {
		fmt.Fprintf(p.out, "┌%s┐\n", strings.Repeat("─", boxWidth-2))
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, "✅ ALL CLIENTS AT RECOMMENDED VERSION")
		fmt.Fprintf(p.out, "└%s┘\n", strings.Repeat("─", boxWidth-2))
		return
	}

	var sb strings.Builder
	for i, r := range recs {
		email := "<no contact>"
		if r.HasEmail() {
			email = *r.Email
		}
		sb.WriteString(fmt.Sprintf("⚠ %s (%s)\n", r.UserName, email))
		sb.WriteString(fmt.Sprintf("  %s: %s -> %s\n", r.ClientIdentifier, r.ObservedVersion, r.RecommendedVersion))
		if i < len(recs)-1 {
			sb.WriteString("\n")
		}
	}

	p.printBox(fmt.Sprintf("VERSION MISMATCHES (%d)", len(recs)), strings.TrimSuffix(sb.String(), "\n"))
}

// PrintSummary outputs notification delivery results.
func (p *Printer) PrintSummary(summary notify.Summary) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Attempted: %d\n", summary.Attempted()))
	sb.WriteString(fmt.Sprintf("Sent:     %d\n", len(summary.Sent)))
	sb.WriteString(fmt.Sprintf("Skipped:  %d (no contact)\n", summary.Skipped))
	sb.WriteString(fmt.Sprintf("Failed:   %d", len(summary.Failures)))
	for _, f := range summary.Failures {
		sb.WriteString(fmt.Sprintf("\n  ✗ %s: %v", f.Recipient, f.Cause))
	}

	p.printBox("NOTIFICATIONS", sb.String())
}
