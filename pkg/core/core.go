package core

import (
	"github.com/sigscan/sigscan/internal/engine"
	"github.com/sigscan/sigscan/internal/types"
	"github.com/sigscan/sigscan/internal/yarascan"
)

// Re-export selected internal types as a stable public API surface.
// These are type aliases so external consumers can depend on a stable path.
// We can replace these with decoupled structs later without breaking callers.
type Config = engine.Config
type Result = engine.Result
type Match = types.Match
type ScanResult = types.ScanResult
type FileMatches = types.FileMatches

// Scan is the stable entrypoint for other programs. It walks cfg.Root and
// returns the per-file matches.
func Scan(cfg Config) ([]FileMatches, error) {
	return engine.Scan(cfg)
}

// ScanWithStats runs a scan and returns matches along with execution
// statistics.
func ScanWithStats(cfg Config) (Result, error) {
	return engine.ScanWithStats(cfg)
}

// ScanBytes compiles the rule set at rulesPath and scans a single
// in-memory buffer. Intended for embedding sigscan in services that
// already hold the data; for trees or repeated scans use Scan, which
// reuses compiled artifacts and worker scanners.
func ScanBytes(rulesPath string, data []byte) (ScanResult, error) {
	s := yarascan.New()
	defer s.Close()
	if err := s.LoadRules(rulesPath); err != nil {
		return nil, err
	}
	return s.ScanBytes(data), nil
}
