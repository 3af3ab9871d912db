// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runbatch

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/matt-FFFFFF/pipebatch/internal/color"
)

const resultsHeader = "===== Results ====="

// OutputOptions controls what is included in the output.
type OutputOptions struct {
	IncludeOutput      bool // Whether to include the tail of the captured output
	TailLines          int  // Number of trailing output lines to include
	ShowSuccessDetails bool // Whether to show details for completed jobs
}

// DefaultOutputOptions returns a default set of output options.
func DefaultOutputOptions() *OutputOptions {
	return &OutputOptions{
		IncludeOutput:      true,
		TailLines:          10,
		ShowSuccessDetails: false,
	}
}

// writeTextResults writes formatted results to the provided writer.
func writeTextResults(w io.Writer, results Results, options *OutputOptions) error {
	if options == nil {
		options = DefaultOutputOptions()
	}

	if _, err := fmt.Fprintf(w, "%s\n\n", resultsHeader); err != nil {
		return err
	}

	for _, r := range results {
		if err := writeResult(w, r, options); err != nil {
			return err
		}
	}

	_, err := fmt.Fprintf(w, "\n%d completed, %d timed out, %d launch failed, %d cancelled\n",
		results.Count(StatusCompleted),
		results.Count(StatusTimedOut),
		results.Count(StatusLaunchFailed),
		results.Count(StatusCancelled),
	)

	return err
}

func writeResult(w io.Writer, r *Result, options *OutputOptions) error {
	var (
		symbol string
		style  []color.Code
	)

	switch r.Status {
	case StatusCompleted:
		symbol, style = "✓", []color.Code{color.Bold, color.FgGreen}
	case StatusTimedOut:
		symbol, style = "⏱", []color.Code{color.Bold, color.FgMagenta}
	case StatusCancelled:
		symbol, style = "~", []color.Code{color.Bold, color.FgYellow}
	case StatusLaunchFailed:
		symbol, style = "✗", []color.Code{color.Bold, color.FgRed}
	default:
		symbol, style = "?", []color.Code{color.FgWhite}
	}

	label := r.Label
	if label == "" {
		label = "[unnamed]"
	}

	if _, err := fmt.Fprintf(w, "%s %s (%s",
		color.Colorize(symbol, style[len(style)-1]),
		color.Colorize(label, style...),
		r.Duration.Round(time.Millisecond),
	); err != nil {
		return err
	}

	// A non-zero exit code does not change the status, it is shown for information.
	if r.ExitCode != 0 && r.Status == StatusCompleted {
		fmt.Fprintf(w, ", exit code: %d", r.ExitCode) // nolint:errcheck
	}

	fmt.Fprintln(w, ")") // nolint:errcheck

	if r.Error != nil {
		fmt.Fprintf(w, "  %s %s\n", color.Colorize("➜ Error:", color.FgRed), r.Error) // nolint:errcheck
	}

	showDetails := r.Status != StatusCompleted || options.ShowSuccessDetails
	if !showDetails || !options.IncludeOutput || len(r.Lines) == 0 {
		return nil
	}

	lines := r.Lines
	if options.TailLines > 0 && len(lines) > options.TailLines {
		lines = lines[len(lines)-options.TailLines:]
	}

	fmt.Fprintf(w, "  %s\n", color.Colorize("➜ Output:", color.Faint)) // nolint:errcheck
	_, err := io.WriteString(w, formatOutput(lines, "     "))

	return err
}

// formatOutput indents each line.
func formatOutput(lines []string, indent string) string {
	sb := strings.Builder{}
	for _, line := range lines {
		if line == "" {
			sb.WriteString("\n")
			continue
		}

		sb.WriteString(indent)
		sb.WriteString(line)
		sb.WriteString("\n")
	}

	return sb.String()
}

// FormatTotal renders d as whole hours, minutes and seconds.
func FormatTotal(d time.Duration) string {
	secs := int64(d / time.Second)

	return fmt.Sprintf("hours: %d, minutes: %d, seconds: %d", secs/3600, (secs/60)%60, secs%60)
}
