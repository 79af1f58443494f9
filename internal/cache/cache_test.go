package cache

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadSave(t *testing.T) {
	dir := t.TempDir()
	db, _ := Load(dir, "rh1")
	if db.Entries == nil {
		t.Fatalf("expected entries map initialized")
	}
	db.Entries["a.bin"] = "deadbeef"
	if err := Save(dir, db); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, ".sigscancache.json")); err != nil {
		t.Fatalf("cache file not written: %v", err)
	}
	db2, err := Load(dir, "rh1")
	if err != nil {
		t.Fatalf("load after save: %v", err)
	}
	if got := db2.Entries["a.bin"]; got != "deadbeef" {
		t.Fatalf("unexpected entry: %q", got)
	}
}

func TestLoadDropsEntriesOnRulesChange(t *testing.T) {
	dir := t.TempDir()
	db, _ := Load(dir, "rh1")
	db.Entries["a.bin"] = "deadbeef"
	if err := Save(dir, db); err != nil {
		t.Fatalf("save: %v", err)
	}
	db2, err := Load(dir, "rh2")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(db2.Entries) != 0 {
		t.Fatalf("expected empty cache after rules change, got %v", db2.Entries)
	}
}
