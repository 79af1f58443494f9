package report

import (
	"io"
	"strings"

	"github.com/olekukonko/tablewriter"

	"github.com/sigscan/sigscan/internal/types"
)

// PrintTable writes results as a bordered table, one row per matching rule.
func PrintTable(w io.Writer, files []types.FileMatches, opts PrintOptions) {
	table := tablewriter.NewWriter(w)
	table.Header("Severity", "Rule", "Path", "Found")
	for _, f := range files {
		for _, m := range f.Matches {
			found := strings.Join(m.FoundStrings, "\n")
			_ = table.Append(string(m.Severity()), m.Rule, f.Path, found)
		}
	}
	_ = table.Render()
	printSummary(w, files, opts)
}
