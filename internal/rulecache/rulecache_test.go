package rulecache

import (
	"os"
	"path/filepath"
	"testing"
)

func write(t *testing.T, path, body string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestArtifactAndStampPaths(t *testing.T) {
	if got := ArtifactPath("rules.yar"); got != "rules.yarc" {
		t.Fatalf("artifact path: %q", got)
	}
	if got := StampPath("rules.yar"); got != "rules.yarc.sum" {
		t.Fatalf("stamp path: %q", got)
	}
}

func TestFreshWithoutArtifact(t *testing.T) {
	src := filepath.Join(t.TempDir(), "rules.yar")
	write(t, src, "rule a { condition: true }")
	if Fresh(src, false) {
		t.Fatal("missing artifact must not be fresh")
	}
}

func TestFreshWithoutValidationTrustsStaleArtifact(t *testing.T) {
	src := filepath.Join(t.TempDir(), "rules.yar")
	write(t, src, "rule a { condition: true }")
	write(t, ArtifactPath(src), "compiled-bytes")

	// Edit the source after the artifact was written. Without validation
	// the artifact is still trusted; this is the documented stale-cache
	// behavior, not a bug.
	write(t, src, "rule a { condition: false }")
	if !Fresh(src, false) {
		t.Fatal("artifact should be trusted without validation")
	}
}

func TestFreshWithValidation(t *testing.T) {
	src := filepath.Join(t.TempDir(), "rules.yar")
	write(t, src, "rule a { condition: true }")
	write(t, ArtifactPath(src), "compiled-bytes")

	// No stamp yet: stale.
	if Fresh(src, true) {
		t.Fatal("artifact without stamp must be stale under validation")
	}

	if err := WriteStamp(src); err != nil {
		t.Fatalf("write stamp: %v", err)
	}
	if !Fresh(src, true) {
		t.Fatal("stamped artifact must be fresh")
	}

	// Editing the source invalidates the stamp.
	write(t, src, "rule a { condition: false }")
	if Fresh(src, true) {
		t.Fatal("edited source must invalidate the artifact under validation")
	}
}

func TestSourceHashStable(t *testing.T) {
	a := SourceHash([]byte("rule a { condition: true }"))
	b := SourceHash([]byte("rule a { condition: true }"))
	c := SourceHash([]byte("rule a { condition: false }"))
	if a != b {
		t.Fatal("hash must be deterministic")
	}
	if a == c {
		t.Fatal("different sources must hash differently")
	}
	if len(a) != 16 {
		t.Fatalf("expected 16 hex chars, got %q", a)
	}
}
