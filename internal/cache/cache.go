// Package cache persists per-file scan results between runs so unchanged
// files with clean results are skipped. Entries are keyed by relative path
// and invalidated by content hash; the whole cache is dropped when the rule
// source changes.
package cache

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
)

// DB maps a path relative to the scan root to the content hash (xxhash64
// hex) it was last scanned clean with.
type DB struct {
	RulesHash string            `json:"rules_hash"`
	Entries   map[string]string `json:"entries"`
}

func defaultPath(root string) string {
	// Prefer storing the cache under .git to avoid accidental commits.
	gitDir := filepath.Join(root, ".git")
	if st, err := os.Stat(gitDir); err == nil && st.IsDir() {
		return filepath.Join(gitDir, "sigscancache.json")
	}
	return filepath.Join(root, ".sigscancache.json")
}

// Load reads the cache for root. A fresh, empty DB is returned alongside
// any error so callers can always use the result.
func Load(root, rulesHash string) (DB, error) {
	db := DB{RulesHash: rulesHash, Entries: map[string]string{}}
	b, err := os.ReadFile(defaultPath(root))
	if err != nil {
		return db, err
	}
	var stored DB
	if err := json.Unmarshal(b, &stored); err != nil {
		return db, err
	}
	if stored.Entries == nil || stored.RulesHash != rulesHash {
		// Different rule set: everything needs rescanning.
		return db, nil
	}
	return stored, nil
}

// Save writes the cache for root.
func Save(root string, db DB) error {
	if db.Entries == nil {
		return errors.New("empty cache")
	}
	b, _ := json.MarshalIndent(db, "", "  ")
	return os.WriteFile(defaultPath(root), b, 0o644)
}
