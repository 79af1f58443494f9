package types

import "encoding/json"

// Severity is a coarse-grained risk level attached to a rule match.
type Severity string

const (
	SevLow  Severity = "low"
	SevMed  Severity = "medium"
	SevHigh Severity = "high"
)

// MetaPair is one rule metadata entry. Metadata is kept as an ordered list
// because rule authors rely on declaration order when reading reports.
type MetaPair struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Match is the result of one rule matching the scanned input: the rule's
// identifier, its declared metadata in declaration order, and the concrete
// string excerpts found in the input (plain text for textual patterns, a
// hex preview for binary ones).
type Match struct {
	Rule         string     `json:"rule"`
	Meta         []MetaPair `json:"meta,omitempty"`
	FoundStrings []string   `json:"found_strings,omitempty"`
}

// MetaValue returns the value for key, or "" if the rule does not declare it.
func (m *Match) MetaValue(key string) string {
	for _, p := range m.Meta {
		if p.Key == key {
			return p.Value
		}
	}
	return ""
}

// Severity derives a severity from the match's "severity" metadata entry.
// Rules without one default to medium.
func (m *Match) Severity() Severity {
	switch m.MetaValue("severity") {
	case "low", "info":
		return SevLow
	case "high", "critical":
		return SevHigh
	}
	return SevMed
}

// ScanResult is the ordered list of matches produced by one scan, one entry
// per matching rule. An empty result means either no rules matched or no
// rules were loaded; the scanner logs a diagnostic in the latter case.
type ScanResult []Match

// FileMatches groups the matches found in a single file during a tree scan.
type FileMatches struct {
	Path    string     `json:"path"`
	Matches ScanResult `json:"matches"`
}

// MarshalJSON renders a nil result as an empty array rather than null so
// downstream consumers always see a list.
func (r ScanResult) MarshalJSON() ([]byte, error) {
	if r == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]Match(r))
}
