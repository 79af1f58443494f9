package report

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/sigscan/sigscan/internal/types"
)

// PrintOptions controls rendering of scan results.
type PrintOptions struct {
	NoColor      bool
	Duration     time.Duration
	FilesScanned int
	FilesSkipped int
}

var (
	styleHigh = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	styleMed  = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	styleLow  = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
)

// PrintText writes results in a compact columnar format, one line per
// matching rule, followed by a summary footer.
func PrintText(w io.Writer, files []types.FileMatches, opts PrintOptions) {
	total := 0
	for _, f := range files {
		total += len(f.Matches)
	}
	if total == 0 {
		fmt.Fprintln(w, "No matches.")
	}
	for _, f := range files {
		for _, m := range f.Matches {
			sev := severityLabel(m.Severity(), opts.NoColor)
			fmt.Fprintf(w, "%-8s %-24s %s\n", sev, m.Rule, f.Path)
			for _, s := range m.FoundStrings {
				fmt.Fprintf(w, "         found: %s\n", s)
			}
		}
	}
	printSummary(w, files, opts)
}

func printSummary(w io.Writer, files []types.FileMatches, opts PrintOptions) {
	high, med, low := CountBySeverity(files)
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Matches: %d (high: %d, medium: %d, low: %d)\n", high+med+low, high, med, low)
	if opts.Duration > 0 {
		fmt.Fprintf(w, "Scan duration: %.2fs\n", opts.Duration.Seconds())
	}
	if opts.FilesScanned > 0 {
		fmt.Fprintf(w, "Files scanned: %d\n", opts.FilesScanned)
	}
	if opts.FilesSkipped > 0 {
		fmt.Fprintf(w, "Files skipped (cache): %d\n", opts.FilesSkipped)
	}
}

// CountBySeverity tallies matches per severity bucket.
func CountBySeverity(files []types.FileMatches) (high, med, low int) {
	for _, f := range files {
		for _, m := range f.Matches {
			switch m.Severity() {
			case types.SevHigh:
				high++
			case types.SevMed:
				med++
			default:
				low++
			}
		}
	}
	return high, med, low
}

func severityLabel(s types.Severity, noColor bool) string {
	if noColor {
		return string(s)
	}
	switch s {
	case types.SevHigh:
		return styleHigh.Render(string(s))
	case types.SevMed:
		return styleMed.Render(string(s))
	default:
		return styleLow.Render(string(s))
	}
}

// sevRank orders severities for threshold comparison.
func sevRank(s types.Severity) int {
	switch s {
	case types.SevHigh:
		return 2
	case types.SevMed:
		return 1
	}
	return 0
}

// ExceedsThreshold reports whether any match is at or above the fail-on
// severity. It drives the CLI exit code.
func ExceedsThreshold(files []types.FileMatches, failOn types.Severity) bool {
	for _, f := range files {
		for _, m := range f.Matches {
			if sevRank(m.Severity()) >= sevRank(failOn) {
				return true
			}
		}
	}
	return false
}

// ParseSeverity maps a user-supplied threshold string to a Severity,
// defaulting to medium.
func ParseSeverity(s string) types.Severity {
	switch s {
	case "low":
		return types.SevLow
	case "high":
		return types.SevHigh
	}
	return types.SevMed
}
