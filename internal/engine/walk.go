package engine

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	doublestar "github.com/bmatcuk/doublestar/v4"

	"github.com/sigscan/sigscan/internal/ignore"
)

type target struct {
	abs string
	rel string // empty when the root itself is the target file
}

// collectTargets resolves the scan root into the list of files to scan.
// A file root yields exactly one target with an empty rel path.
func collectTargets(cfg Config) ([]target, error) {
	abs, err := filepath.Abs(cfg.Root)
	if err != nil {
		return nil, err
	}
	if st, err := os.Stat(abs); err == nil && !st.IsDir() {
		return []target{{abs: abs}}, nil
	}

	ign, _ := ignore.Load(filepath.Join(abs, ".sigscanignore"))

	var targets []target
	err = filepath.WalkDir(abs, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if isDefaultDirExcluded(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		rel, _ := filepath.Rel(abs, p)
		rel = filepath.ToSlash(rel)
		if !allowedByGlobs(rel, cfg) {
			return nil
		}
		if ign.Match(rel) {
			return nil
		}
		if info, err := d.Info(); err != nil || info.Size() > cfg.MaxBytes {
			return nil
		}
		targets = append(targets, target{abs: p, rel: rel})
		return nil
	})
	return targets, err
}

func isDefaultDirExcluded(name string) bool {
	switch name {
	case ".git", ".hg", ".svn":
		return true
	}
	return false
}

// allowedByGlobs applies comma-separated include then exclude globs. An
// empty include list means everything is included.
func allowedByGlobs(rel string, cfg Config) bool {
	if cfg.IncludeGlobs != "" {
		matched := false
		for _, g := range splitGlobs(cfg.IncludeGlobs) {
			if ok, _ := doublestar.Match(g, rel); ok {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	for _, g := range splitGlobs(cfg.ExcludeGlobs) {
		if ok, _ := doublestar.Match(g, rel); ok {
			return false
		}
	}
	return true
}

func splitGlobs(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
