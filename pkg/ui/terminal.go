// Package ui renders user-facing terminal output for the tracker. Everything
// here is presentation only; structured logging lives in pkg/logger.
package ui

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"

	"friendtrack/pkg/snapshot"
)

// Terminal writes colored status output. Quiet mode suppresses everything
// except errors and the change report.
type Terminal struct {
	out   io.Writer
	quiet bool

	success   *color.Color
	errColor  *color.Color
	warn      *color.Color
	info      *color.Color
	highlight *color.Color
}

// NewTerminal creates a terminal writer on stdout
func NewTerminal(quiet, noColor bool) *Terminal {
	if noColor {
		color.NoColor = true
	}

	return &Terminal{
		out:       os.Stdout,
		quiet:     quiet,
		success:   color.New(color.FgGreen),
		errColor:  color.New(color.FgRed, color.Bold),
		warn:      color.New(color.FgYellow),
		info:      color.New(color.FgCyan),
		highlight: color.New(color.FgWhite, color.Bold),
	}
}

// SetOutput redirects output (used in tests)
func (t *Terminal) SetOutput(w io.Writer) {
	t.out = w
}

// Info prints an informational line
func (t *Terminal) Info(format string, args ...interface{}) {
	if t.quiet {
		return
	}
	t.info.Fprintf(t.out, format+"\n", args...)
}

// Success prints a success line
func (t *Terminal) Success(format string, args ...interface{}) {
	if t.quiet {
		return
	}
	t.success.Fprintf(t.out, format+"\n", args...)
}

// Warning prints a warning line
func (t *Terminal) Warning(format string, args ...interface{}) {
	if t.quiet {
		return
	}
	t.warn.Fprintf(t.out, format+"\n", args...)
}

// Error prints an error line, quiet mode or not
func (t *Terminal) Error(format string, args ...interface{}) {
	t.errColor.Fprintf(t.out, format+"\n", args...)
}

// PrintReport renders the reconciliation report. Changes print even in quiet
// mode; they are the whole point of a run.
func (t *Terminal) PrintReport(report snapshot.Report) {
	if report.Empty() {
		if !t.quiet {
			t.success.Fprintln(t.out, "No friend list changes detected.")
		}
		return
	}

	if len(report.Unfriended) > 0 {
		t.errColor.Fprintf(t.out, "Unfriended (%d):\n", len(report.Unfriended))
		for _, rec := range report.Unfriended {
			fmt.Fprintf(t.out, "  ❌ %s (ID: %d)\n", rec.Username, rec.ID)
		}
	}

	if len(report.NewFriends) > 0 {
		t.success.Fprintf(t.out, "New friends (%d):\n", len(report.NewFriends))
		for _, rec := range report.NewFriends {
			fmt.Fprintf(t.out, "  ✅ %s (ID: %d)\n", rec.Username, rec.ID)
		}
	}
}

// PrintSummary renders the end-of-run summary line
func (t *Terminal) PrintSummary(username string, total, recovered int) {
	if t.quiet {
		return
	}
	t.highlight.Fprintf(t.out, "%s: %d friends tracked", username, total)
	if recovered > 0 {
		t.warn.Fprintf(t.out, " (%d usernames recovered from history)", recovered)
	}
	fmt.Fprintln(t.out)
}
