// Package rulecache implements the freshness policy for precompiled rule
// artifacts. An artifact lives next to its source at source+"c" (so
// rules.yar compiles to rules.yarc); a sidecar stamp records the source
// hash so the optional validation mode can detect edits to the readable
// source that would otherwise be served stale from the artifact.
package rulecache

import (
	"fmt"
	"os"

	xxhash "github.com/cespare/xxhash/v2"
)

// ArtifactPath returns the precompiled artifact path for a rule source.
func ArtifactPath(src string) string {
	return src + "c"
}

// StampPath returns the sidecar stamp path for a rule source.
func StampPath(src string) string {
	return ArtifactPath(src) + ".sum"
}

// SourceHash hashes rule source text for the stamp.
func SourceHash(data []byte) string {
	return fmt.Sprintf("%016x", xxhash.Sum64(data))
}

// Fresh reports whether the artifact for src may be trusted. Without
// validation an existing artifact is always trusted, even if the source was
// edited after it was compiled. With validation the artifact additionally
// needs a stamp matching the current source hash.
func Fresh(src string, validate bool) bool {
	if _, err := os.Stat(ArtifactPath(src)); err != nil {
		return false
	}
	if !validate {
		return true
	}
	stamp, err := os.ReadFile(StampPath(src))
	if err != nil {
		return false
	}
	data, err := os.ReadFile(src)
	if err != nil {
		return false
	}
	return string(stamp) == SourceHash(data)
}

// WriteStamp records the current source hash next to the artifact. Written
// together with the artifact after a successful compile.
func WriteStamp(src string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(StampPath(src), []byte(SourceHash(data)), 0o644)
}
