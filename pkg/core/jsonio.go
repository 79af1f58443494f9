package core

import (
	"encoding/json"
	"io"
)

// MarshalMatches pretty-prints per-file matches as JSON for humans or pipelines.
func MarshalMatches(w io.Writer, files []FileMatches) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(files)
}

// UnmarshalMatches decodes matches JSON, useful for ingestion tests.
func UnmarshalMatches(r io.Reader) ([]FileMatches, error) {
	var fs []FileMatches
	if err := json.NewDecoder(r).Decode(&fs); err != nil {
		return nil, err
	}
	return fs, nil
}
