// Package engine drives YARA scans over directory trees: it walks the
// root, filters targets, fans work out to workers that each own their own
// scanner instance, and merges results in path order.
package engine

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"sync"
	"time"

	xxhash "github.com/cespare/xxhash/v2"
	"github.com/rs/zerolog"

	"github.com/sigscan/sigscan/internal/cache"
	"github.com/sigscan/sigscan/internal/pemeta"
	"github.com/sigscan/sigscan/internal/rulecache"
	"github.com/sigscan/sigscan/internal/types"
	"github.com/sigscan/sigscan/internal/yarascan"
)

// Config controls scanning behavior including scope, performance, and filters.
type Config struct {
	Root          string
	RulesPath     string
	ValidateCache bool
	Namespace     string
	IncludeGlobs  string
	ExcludeGlobs  string
	MaxBytes      int64
	Threads       int
	NoCache       bool
	PEMeta        bool
	Logger        *zerolog.Logger
	Progress      func()
}

// Result contains per-file matches and basic scan statistics.
type Result struct {
	Files        []types.FileMatches
	FilesScanned int
	FilesSkipped int
	Duration     time.Duration
}

// Findings flattens the result into one list of matches.
func (r Result) Findings() types.ScanResult {
	var out types.ScanResult
	for _, f := range r.Files {
		out = append(out, f.Matches...)
	}
	return out
}

func (c Config) logger() zerolog.Logger {
	if c.Logger != nil {
		return *c.Logger
	}
	return zerolog.New(os.Stderr).With().Timestamp().Str("component", "engine").Logger()
}

// Scan runs a scan and returns only the per-file matches.
func Scan(cfg Config) ([]types.FileMatches, error) {
	res, err := ScanWithStats(cfg)
	if err != nil {
		return nil, err
	}
	return res.Files, nil
}

// ScanWithStats walks cfg.Root (a file or a directory) and scans every
// eligible file against the rule set at cfg.RulesPath. Scanner instances
// are not safe for concurrent use, so each worker owns one; a primer
// instance compiles the rule artifact up front so workers only ever load it.
func ScanWithStats(cfg Config) (Result, error) {
	var result Result
	start := time.Now()
	log := cfg.logger()

	if cfg.RulesPath == "" {
		return result, errors.New("no rules path configured")
	}
	if cfg.Threads <= 0 {
		cfg.Threads = runtime.GOMAXPROCS(0)
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = 64 << 20
	}

	primer := yarascan.New(
		yarascan.WithLogger(log),
		yarascan.WithCacheValidation(cfg.ValidateCache),
		yarascan.WithNamespace(cfg.Namespace),
	)
	defer primer.Close()
	if err := primer.LoadRules(cfg.RulesPath); err != nil {
		return result, fmt.Errorf("load rules: %w", err)
	}

	ruleSrc, err := os.ReadFile(cfg.RulesPath)
	var rulesHash string
	if err == nil {
		rulesHash = rulecache.SourceHash(ruleSrc)
	}

	targets, err := collectTargets(cfg)
	if err != nil {
		return result, err
	}

	// Single-file roots bypass the tree machinery.
	if len(targets) == 1 && targets[0].rel == "" {
		fm := scanOne(primer, cfg, targets[0].abs)
		result.FilesScanned = 1
		if len(fm.Matches) > 0 {
			result.Files = append(result.Files, fm)
		}
		result.Duration = time.Since(start)
		return result, nil
	}

	var db cache.DB
	if !cfg.NoCache && rulesHash != "" {
		db, _ = cache.Load(cfg.Root, rulesHash)
	} else {
		db.Entries = map[string]string{}
	}

	jobs := make(chan target)
	var (
		mu      sync.Mutex
		files   []types.FileMatches
		updated = map[string]string{}
		skipped int
		scanned int
	)

	var wg sync.WaitGroup
	for i := 0; i < cfg.Threads; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s := yarascan.New(
				yarascan.WithLogger(log),
				yarascan.WithCacheValidation(cfg.ValidateCache),
				yarascan.WithNamespace(cfg.Namespace),
			)
			defer s.Close()
			if err := s.LoadRules(cfg.RulesPath); err != nil {
				log.Error().Err(err).Msg("worker could not load rules")
				for range jobs {
					// drain so the producer never blocks
				}
				return
			}
			for tgt := range jobs {
				data, err := os.ReadFile(tgt.abs)
				if err != nil {
					log.Warn().Err(err).Str("path", tgt.rel).Msg("skipping unreadable file")
					continue
				}
				hash := fmt.Sprintf("%016x", xxhash.Sum64(data))

				mu.Lock()
				prev, cached := db.Entries[tgt.rel]
				mu.Unlock()
				if cached && prev == hash {
					mu.Lock()
					skipped++
					mu.Unlock()
					if cfg.Progress != nil {
						cfg.Progress()
					}
					continue
				}

				matches := scanData(s, cfg, tgt.abs, data)

				mu.Lock()
				scanned++
				if len(matches) > 0 {
					files = append(files, types.FileMatches{Path: tgt.rel, Matches: matches})
				} else {
					// Only clean files are cached; matches should resurface
					// on every run.
					updated[tgt.rel] = hash
				}
				mu.Unlock()
				if cfg.Progress != nil {
					cfg.Progress()
				}
			}
		}()
	}

	for _, tgt := range targets {
		jobs <- tgt
	}
	close(jobs)
	wg.Wait()

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	result.Files = files
	result.FilesScanned = scanned
	result.FilesSkipped = skipped
	result.Duration = time.Since(start)

	if !cfg.NoCache && rulesHash != "" {
		for k, v := range updated {
			db.Entries[k] = v
		}
		if err := cache.Save(cfg.Root, db); err != nil {
			log.Debug().Err(err).Msg("could not save scan cache")
		}
	}
	return result, nil
}

// scanOne reads and scans a single file with the given scanner.
func scanOne(s *yarascan.Scanner, cfg Config, abs string) types.FileMatches {
	data, err := os.ReadFile(abs)
	if err != nil {
		return types.FileMatches{Path: abs}
	}
	return types.FileMatches{Path: abs, Matches: scanData(s, cfg, abs, data)}
}

// scanData picks the scan entry point: PE files get their parsed metadata
// attached when PE metadata support is enabled, everything else goes
// through the plain buffer scan.
func scanData(s *yarascan.Scanner, cfg Config, abs string, data []byte) types.ScanResult {
	if cfg.PEMeta && looksPE(data) {
		if rep, err := pemeta.Parse(abs); err == nil {
			return s.ScanFile(abs, rep)
		}
	}
	return s.ScanBytes(data)
}

func looksPE(data []byte) bool {
	return len(data) >= 2 && data[0] == 'M' && data[1] == 'Z'
}
