package yarascan

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testRules = `
rule hello_text {
    meta:
        author = "tester"
        severity = "high"
    strings:
        $a = "hello yara"
    condition:
        $a
}

rule wide_marker {
    strings:
        $w = "widestr" wide
    condition:
        $w
}
`

const otherRules = `
rule other_only {
    strings:
        $b = "completely different"
    condition:
        $b
}
`

func newTestScanner(t *testing.T, opts ...Option) *Scanner {
	t.Helper()
	opts = append([]Option{WithLogger(zerolog.Nop())}, opts...)
	s := New(opts...)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func writeRules(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestScanBytesNoRulesLoaded(t *testing.T) {
	s := newTestScanner(t)
	res := s.ScanBytes([]byte("anything"))
	assert.Empty(t, res)
}

func TestScanBytesEmptyBuffer(t *testing.T) {
	s := newTestScanner(t)
	p := writeRules(t, t.TempDir(), "r.yar", testRules)
	require.NoError(t, s.LoadRules(p))
	assert.Empty(t, s.ScanBytes(nil))
	assert.Empty(t, s.ScanBytes([]byte{}))
}

func TestLoadRulesCompilesAndPersistsArtifact(t *testing.T) {
	s := newTestScanner(t)
	p := writeRules(t, t.TempDir(), "r.yar", testRules)
	require.NoError(t, s.LoadRules(p))

	if _, err := os.Stat(p + "c"); err != nil {
		t.Fatalf("expected compiled artifact next to source: %v", err)
	}

	res := s.ScanBytes([]byte("xx hello yara xx"))
	require.Len(t, res, 1)
	assert.Equal(t, "hello_text", res[0].Rule)
	assert.Equal(t, "tester", res[0].MetaValue("author"))
	assert.Equal(t, "high", res[0].MetaValue("severity"))
	require.NotEmpty(t, res[0].FoundStrings)
	assert.Equal(t, "hello yara", res[0].FoundStrings[0])
}

func TestLoadRulesSamePathIsNoOp(t *testing.T) {
	s := newTestScanner(t)
	p := writeRules(t, t.TempDir(), "r.yar", testRules)
	require.NoError(t, s.LoadRules(p))

	// Remove both source and artifact; the reload must not need them.
	require.NoError(t, os.Remove(p))
	require.NoError(t, os.Remove(p+"c"))
	require.NoError(t, s.LoadRules(p))

	loaded, ok := s.Loaded()
	assert.True(t, ok)
	assert.Equal(t, p, loaded)
}

func TestLoadRulesPrefersArtifact(t *testing.T) {
	dir := t.TempDir()
	p := writeRules(t, dir, "r.yar", testRules)

	s1 := newTestScanner(t)
	require.NoError(t, s1.LoadRules(p))
	require.NoError(t, s1.Close())

	// Break the source. Without validation the artifact is still trusted,
	// so loading must succeed without recompiling.
	require.NoError(t, os.WriteFile(p, []byte("rule { this is not yara"), 0o644))

	s2 := newTestScanner(t)
	require.NoError(t, s2.LoadRules(p))
	res := s2.ScanBytes([]byte("hello yara"))
	require.Len(t, res, 1)
	assert.Equal(t, "hello_text", res[0].Rule)
}

func TestLoadRulesInvalidArtifactFallsBackToSource(t *testing.T) {
	dir := t.TempDir()
	p := writeRules(t, dir, "r.yar", testRules)
	// A garbage artifact must not be fatal: the source compiles instead.
	require.NoError(t, os.WriteFile(p+"c", []byte("not a compiled ruleset"), 0o644))

	s := newTestScanner(t)
	require.NoError(t, s.LoadRules(p))
	res := s.ScanBytes([]byte("hello yara"))
	require.Len(t, res, 1)
}

func TestLoadRulesSwitchingPathReleasesOldSet(t *testing.T) {
	dir := t.TempDir()
	p1 := writeRules(t, dir, "a.yar", testRules)
	p2 := writeRules(t, dir, "b.yar", otherRules)

	s := newTestScanner(t)
	require.NoError(t, s.LoadRules(p1))
	require.Len(t, s.ScanBytes([]byte("hello yara")), 1)

	require.NoError(t, s.LoadRules(p2))
	// The old rule set must be gone: its rule can no longer match.
	assert.Empty(t, s.ScanBytes([]byte("hello yara")))
	require.Len(t, s.ScanBytes([]byte("completely different")), 1)
}

func TestLoadRulesBadSourceLeavesNothingLoaded(t *testing.T) {
	dir := t.TempDir()
	bad := writeRules(t, dir, "bad.yar", "rule { syntax error")

	s := newTestScanner(t)
	require.Error(t, s.LoadRules(bad))
	_, ok := s.Loaded()
	assert.False(t, ok)
}

func TestScanBytesWideStringExcerptHasNoNULs(t *testing.T) {
	s := newTestScanner(t)
	p := writeRules(t, t.TempDir(), "r.yar", testRules)
	require.NoError(t, s.LoadRules(p))

	// UTF-16LE encoding of "widestr", as matched by a wide string.
	buf := []byte("w\x00i\x00d\x00e\x00s\x00t\x00r\x00")
	res := s.ScanBytes(buf)
	require.Len(t, res, 1)
	require.NotEmpty(t, res[0].FoundStrings)
	assert.Equal(t, "widestr", res[0].FoundStrings[0])
}

func TestScanBytesMultipleRulesNoShortCircuit(t *testing.T) {
	s := newTestScanner(t)
	p := writeRules(t, t.TempDir(), "r.yar", testRules)
	require.NoError(t, s.LoadRules(p))

	buf := []byte("hello yara w\x00i\x00d\x00e\x00s\x00t\x00r\x00")
	res := s.ScanBytes(buf)
	require.Len(t, res, 2)
	names := []string{res[0].Rule, res[1].Rule}
	assert.Contains(t, names, "hello_text")
	assert.Contains(t, names, "wide_marker")
}

func TestScanBytesDoesNotMutateCaller(t *testing.T) {
	s := newTestScanner(t)
	p := writeRules(t, t.TempDir(), "r.yar", testRules)
	require.NoError(t, s.LoadRules(p))

	buf := []byte("hello yara")
	want := string(buf)
	_ = s.ScanBytes(buf)
	assert.Equal(t, want, string(buf))
}

func TestScanFile(t *testing.T) {
	dir := t.TempDir()
	p := writeRules(t, dir, "r.yar", testRules)
	target := filepath.Join(dir, "sample.bin")
	require.NoError(t, os.WriteFile(target, []byte("payload hello yara payload"), 0o644))

	s := newTestScanner(t)
	require.NoError(t, s.LoadRules(p))
	res := s.ScanFile(target, nil)
	require.Len(t, res, 1)
	assert.Equal(t, "hello_text", res[0].Rule)
}

func TestRuleInfos(t *testing.T) {
	s := newTestScanner(t)
	assert.Nil(t, s.RuleInfos())

	p := writeRules(t, t.TempDir(), "r.yar", testRules)
	require.NoError(t, s.LoadRules(p))
	infos := s.RuleInfos()
	require.Len(t, infos, 2)
	assert.Equal(t, "hello_text", infos[0].Identifier)
}
