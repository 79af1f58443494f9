package report

import (
	"encoding/json"
	"io"
	"time"

	"github.com/sigscan/sigscan/internal/types"
)

type jsonReport struct {
	Files        []types.FileMatches `json:"files"`
	TotalMatches int                 `json:"total_matches"`
	FilesScanned int                 `json:"files_scanned"`
	Duration     string              `json:"duration,omitempty"`
}

// WriteJSON emits the machine-readable report.
func WriteJSON(w io.Writer, files []types.FileMatches, opts PrintOptions) error {
	if files == nil {
		files = []types.FileMatches{}
	}
	total := 0
	for _, f := range files {
		total += len(f.Matches)
	}
	rep := jsonReport{
		Files:        files,
		TotalMatches: total,
		FilesScanned: opts.FilesScanned,
	}
	if opts.Duration > 0 {
		rep.Duration = opts.Duration.Round(time.Millisecond).String()
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rep)
}
