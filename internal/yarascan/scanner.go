// Package yarascan wraps the YARA engine behind a small Scanner type: it
// manages the engine's process-wide lifecycle, compiles or loads rule sets
// from disk (preferring a precompiled artifact), drives scans over byte
// buffers and files, and translates the engine's callback protocol into
// plain Match records.
//
// A Scanner is not safe for concurrent use; create one per goroutine.
// Multiple independent instances may coexist.
package yarascan

import (
	"errors"
	"fmt"
	"os"

	yara "github.com/hillu/go-yara/v4"
	"github.com/rs/zerolog"

	"github.com/sigscan/sigscan/internal/pemeta"
	"github.com/sigscan/sigscan/internal/rulecache"
	"github.com/sigscan/sigscan/internal/types"
)

// libyara status codes this adapter needs to tell apart (yara/error.h).
// Anything in the invalid-file family means "this is not a loadable
// compiled artifact" and triggers the compile-from-source fallback.
const (
	errInvalidFile            = 6
	errCorruptFile            = 7
	errUnsupportedFileVersion = 8
)

// Scanner owns at most one compiled rule set at a time and mediates access
// to the engine. The loaded source path acts as a cache key: loading the
// same path twice is a no-op.
type Scanner struct {
	log        zerolog.Logger
	rules      *yara.Rules
	compiler   *yara.Compiler
	loadedPath string
	namespace  string
	validate   bool
	closed     bool
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithLogger replaces the default stderr logger.
func WithLogger(log zerolog.Logger) Option {
	return func(s *Scanner) { s.log = log }
}

// WithCacheValidation controls whether a precompiled artifact must carry a
// matching source-hash stamp before it is trusted. Off by default, which
// preserves the historical cache-forever behavior: an artifact is served
// even if the readable source was edited after it was compiled.
func WithCacheValidation(on bool) Option {
	return func(s *Scanner) { s.validate = on }
}

// WithNamespace sets the namespace rules are compiled into.
func WithNamespace(ns string) Option {
	return func(s *Scanner) { s.namespace = ns }
}

// New creates a Scanner and takes a reference on the engine's process-wide
// state. Callers must Close it.
func New(opts ...Option) *Scanner {
	s := &Scanner{
		log: zerolog.New(os.Stderr).With().Timestamp().Str("component", "yarascan").Logger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	acquireEngine()
	return s
}

// Close releases the compiled rule set and drops the engine reference,
// finalizing the engine's global state when this was the last Scanner.
// Close is idempotent.
func (s *Scanner) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.releaseRules()
	releaseEngine()
	return nil
}

// releaseRules frees the compiler and rule-set handles, if any. The loaded
// path is cleared so a failed reload never leaves stale cache-key state.
func (s *Scanner) releaseRules() {
	if s.compiler != nil {
		s.compiler.Destroy()
		s.compiler = nil
	}
	if s.rules != nil {
		s.rules.Destroy()
		s.rules = nil
	}
	s.loadedPath = ""
}

// LoadRules compiles or loads the rule set at path. A precompiled artifact
// at path+"c" is preferred; if it is missing or not a valid compiled rule
// set, the source is compiled and the artifact persisted for future loads.
// Loading the path that is already loaded returns immediately without I/O.
func (s *Scanner) LoadRules(path string) error {
	if s.closed {
		return errors.New("scanner is closed")
	}
	if path == s.loadedPath && s.rules != nil {
		return nil
	}
	s.releaseRules()

	artifact := rulecache.ArtifactPath(path)
	if rulecache.Fresh(path, s.validate) {
		rules, err := yara.LoadRules(artifact)
		if err == nil {
			s.rules = rules
			s.loadedPath = path
			s.log.Debug().Str("artifact", artifact).Msg("loaded precompiled rules")
			return nil
		}
		if !isNotCompiled(err) {
			s.log.Error().Err(err).Str("artifact", artifact).Msg("could not load rules")
			return fmt.Errorf("load compiled rules %s: %w", artifact, err)
		}
		// Artifact exists but is not a usable compiled rule set; compile
		// the source instead.
	}
	return s.compileAndPersist(path)
}

func (s *Scanner) compileAndPersist(path string) error {
	compiler, err := yara.NewCompiler()
	if err != nil {
		s.log.Error().Err(err).Msg("could not create rule compiler")
		return fmt.Errorf("create compiler: %w", err)
	}
	s.compiler = compiler
	defer func() {
		s.compiler.Destroy()
		s.compiler = nil
	}()

	f, err := os.Open(path)
	if err != nil {
		s.log.Error().Err(err).Str("path", path).Msg("could not open rule source")
		return fmt.Errorf("open rules %s: %w", path, err)
	}
	defer f.Close()

	if err := compiler.AddFile(f, s.namespace); err != nil {
		s.log.Error().Err(err).Str("path", path).Msg("could not compile rules")
		return fmt.Errorf("compile rules %s: %w", path, err)
	}
	rules, err := compiler.GetRules()
	if err != nil {
		s.log.Error().Err(err).Str("path", path).Msg("could not extract compiled rules")
		return fmt.Errorf("get rules %s: %w", path, err)
	}

	// Persist the artifact so subsequent loads skip compilation. The stamp
	// records the source hash for the optional freshness check.
	artifact := rulecache.ArtifactPath(path)
	if err := rules.Save(artifact); err != nil {
		rules.Destroy()
		s.log.Error().Err(err).Str("artifact", artifact).Msg("could not persist compiled rules")
		return fmt.Errorf("save compiled rules %s: %w", artifact, err)
	}
	if err := rulecache.WriteStamp(path); err != nil {
		rules.Destroy()
		s.log.Error().Err(err).Str("path", path).Msg("could not write rule stamp")
		return fmt.Errorf("write rule stamp for %s: %w", path, err)
	}

	s.rules = rules
	s.loadedPath = path
	return nil
}

// Loaded reports whether a rule set is currently loaded, and its path.
func (s *Scanner) Loaded() (string, bool) {
	return s.loadedPath, s.rules != nil
}

// ScanBytes scans an in-memory buffer against the loaded rule set. With no
// rules loaded it logs a diagnostic and returns an empty result; an empty
// buffer returns an empty result without touching the engine. The buffer is
// copied before scanning because the engine does not guarantee it leaves
// the input untouched.
//
// Scans run without a timeout. On an engine error all accumulated matches
// are discarded and an empty result is returned with a logged diagnostic.
func (s *Scanner) ScanBytes(buf []byte) types.ScanResult {
	if s.rules == nil {
		s.log.Error().Msg("no rules loaded")
		return types.ScanResult{}
	}
	if len(buf) == 0 {
		return types.ScanResult{}
	}

	cp := make([]byte, len(buf))
	copy(cp, buf)

	col := &collector{log: s.log}
	if err := s.rules.ScanMem(cp, yara.ScanFlagsProcessMemory, 0, col); err != nil {
		s.log.Error().Err(err).Msg("scan failed, discarding partial matches")
		return types.ScanResult{}
	}
	return col.matches
}

// ScanFile scans the file at path against the loaded rule set. The aux
// report, when non-nil, is exposed to rules importing the PE metadata
// module; it is borrowed only for the duration of this call. Rules that
// import the module while aux is nil abort the scan with a callback error.
func (s *Scanner) ScanFile(path string, aux *pemeta.Report) types.ScanResult {
	if s.rules == nil {
		s.log.Error().Msg("no rules loaded")
		return types.ScanResult{}
	}

	col := &collector{log: s.log, aux: aux}
	if err := s.rules.ScanFile(path, yara.ScanFlagsProcessMemory, 0, col); err != nil {
		s.log.Error().Err(err).Str("path", path).Msg("scan failed, discarding partial matches")
		return types.ScanResult{}
	}
	return col.matches
}

// RuleInfo summarizes one rule in the loaded set.
type RuleInfo struct {
	Identifier string           `json:"identifier"`
	Tags       []string         `json:"tags,omitempty"`
	Meta       []types.MetaPair `json:"meta,omitempty"`
}

// RuleInfos lists the rules in the loaded set, or nil when none is loaded.
func (s *Scanner) RuleInfos() []RuleInfo {
	if s.rules == nil {
		return nil
	}
	var infos []RuleInfo
	for _, r := range s.rules.GetRules() {
		info := RuleInfo{Identifier: r.Identifier(), Tags: r.Tags()}
		for _, meta := range r.Metas() {
			info.Meta = append(info.Meta, types.MetaPair{
				Key:   meta.Identifier,
				Value: fmt.Sprintf("%v", meta.Value),
			})
		}
		infos = append(infos, info)
	}
	return infos
}

// isNotCompiled reports whether err means "not a valid compiled rule set",
// which covers handing the engine a rule source or a truncated artifact.
func isNotCompiled(err error) bool {
	var ye yara.Error
	if !errors.As(err, &ye) {
		return false
	}
	switch ye.Code {
	case errInvalidFile, errCorruptFile, errUnsupportedFileVersion:
		return true
	}
	return false
}
