// Package ignore loads .sigscanignore files: one glob per line, # comments,
// matched against paths relative to the scan root.
package ignore

import (
	"bufio"
	"os"
	"strings"

	doublestar "github.com/bmatcuk/doublestar/v4"
)

// Matcher answers whether a relative path is excluded from scanning.
type Matcher struct {
	patterns []string
}

// Load reads an ignore file. A missing file yields an empty matcher.
func Load(path string) (Matcher, error) {
	var m Matcher
	f, err := os.Open(path)
	if err != nil {
		return m, nil
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		m.patterns = append(m.patterns, line)
	}
	return m, sc.Err()
}

// Match reports whether rel matches any ignore pattern. A pattern matches
// the path itself or any directory prefix of it.
func (m Matcher) Match(rel string) bool {
	rel = strings.TrimPrefix(rel, "./")
	for _, p := range m.patterns {
		if ok, _ := doublestar.Match(p, rel); ok {
			return true
		}
		// Directory pattern: ignore everything beneath it.
		if ok, _ := doublestar.Match(strings.TrimSuffix(p, "/")+"/**", rel); ok {
			return true
		}
	}
	return false
}
