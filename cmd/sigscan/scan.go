package sigscan

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/sigscan/sigscan/internal/config"
	"github.com/sigscan/sigscan/internal/engine"
	"github.com/sigscan/sigscan/internal/report"
	"github.com/sigscan/sigscan/internal/types"
	"github.com/sigscan/sigscan/internal/update"
	"github.com/sigscan/sigscan/internal/yarascan"
)

var (
	flagPath          string
	flagRules         string
	flagInclude       string
	flagExclude       string
	flagMaxBytes      int64
	flagNoCache       bool
	flagPEMeta        bool
	flagValidateCache bool
	flagNamespace     string
	flagVerbose       bool
	flagStdin         bool
)

func init() {
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Scan a file or directory tree against a rule set",
		RunE:  runScan,
	}
	rootCmd.AddCommand(cmd)

	cmd.Flags().StringVarP(&flagPath, "path", "p", ".", "file or directory to scan")
	cmd.Flags().StringVarP(&flagRules, "rules", "r", "", "path to YARA rule source (.yar); a compiled artifact next to it is preferred")
	cmd.Flags().StringVar(&flagInclude, "include", "", "comma-separated include globs")
	cmd.Flags().StringVar(&flagExclude, "exclude", "", "comma-separated exclude globs")
	cmd.Flags().Int64Var(&flagMaxBytes, "max-bytes", 64<<20, "skip files larger than this")
	cmd.Flags().BoolVar(&flagNoCache, "no-cache", false, "disable incremental scan cache")
	cmd.Flags().BoolVar(&flagPEMeta, "pe-meta", false, "parse PE headers and expose them to rules importing \"pemeta\"")
	cmd.Flags().BoolVar(&flagValidateCache, "validate-cache", false, "recompile when the rule source no longer matches the compiled artifact")
	cmd.Flags().StringVar(&flagNamespace, "namespace", "", "compile rules into this namespace")
	cmd.Flags().BoolVarP(&flagVerbose, "verbose", "v", false, "debug logging")
	cmd.Flags().BoolVar(&flagStdin, "bytes", false, "scan bytes read from stdin instead of a path")
}

func newLogger(noColor bool) zerolog.Logger {
	level := zerolog.WarnLevel
	if flagVerbose {
		level = zerolog.DebugLevel
	}
	out := zerolog.ConsoleWriter{Out: os.Stderr, NoColor: noColor}
	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}

func runScan(cmd *cobra.Command, _ []string) error {
	abs, _ := filepath.Abs(flagPath)

	// Load configs: CLI > local > global
	var gcfg, lcfg config.FileConfig
	if c, err := config.LoadGlobal(); err == nil {
		gcfg = c
	}
	if c, err := config.LoadLocal(abs); err == nil {
		lcfg = c
	}

	noColor := resolveNoColor(colorDisabled(), lcfg, gcfg)
	log := newLogger(noColor)

	cfg := engine.Config{
		Root:          abs,
		RulesPath:     config.PickString(flagRules, lcfg.Rules, gcfg.Rules),
		ValidateCache: config.PickBool(flagValidateCache, lcfg.ValidateCache, gcfg.ValidateCache),
		Namespace:     config.PickString(flagNamespace, lcfg.Namespace, gcfg.Namespace),
		IncludeGlobs:  config.PickString(flagInclude, lcfg.Include, gcfg.Include),
		ExcludeGlobs:  config.PickString(flagExclude, lcfg.Exclude, gcfg.Exclude),
		MaxBytes:      resolveMaxBytes(flagMaxBytes, cmd.Flags().Changed("max-bytes"), lcfg, gcfg),
		Threads:       config.PickInt(flagThreads, lcfg.Threads, gcfg.Threads),
		NoCache:       flagNoCache,
		PEMeta:        config.PickBool(flagPEMeta, lcfg.PEMeta, gcfg.PEMeta),
		Logger:        &log,
	}
	if cfg.RulesPath == "" {
		return fmt.Errorf("no rule set: pass --rules or set rules in config")
	}
	if r, err := filepath.Abs(cfg.RulesPath); err == nil {
		cfg.RulesPath = r
	}

	if flagStdin {
		return scanStdin(cfg, noColor)
	}
	if !flagJSON && !flagNoUpdateCheck {
		if res := update.CheckLatest("v"+version, "sigscan/sigscan"); res != nil && res.NeedsUpdate() {
			fmt.Fprintf(os.Stderr, "(new version available: %s)  %s\n", res.Latest, res.UpdateURL)
		}
	}

	// Lightweight progress line on stderr for interactive runs. Workers
	// call the hook concurrently, hence the atomic counter.
	var progressed atomic.Int64
	if !flagJSON && !noColor {
		cfg.Progress = func() {
			if n := progressed.Add(1); n%25 == 0 {
				fmt.Fprintf(os.Stderr, "\r%d files", n)
			}
		}
	}
	res, err := engine.ScanWithStats(cfg)
	if err != nil {
		return fmt.Errorf("scan error: %w", err)
	}
	if progressed.Load() >= 25 {
		fmt.Fprintln(os.Stderr)
	}

	opts := report.PrintOptions{
		NoColor:      noColor,
		Duration:     res.Duration,
		FilesScanned: res.FilesScanned,
		FilesSkipped: res.FilesSkipped,
	}
	switch {
	case flagJSON:
		if err := report.WriteJSON(os.Stdout, res.Files, opts); err != nil {
			return err
		}
	case flagTable:
		report.PrintTable(os.Stdout, res.Files, opts)
	default:
		report.PrintText(os.Stdout, res.Files, opts)
	}

	// The flag has a default, so config only applies when it was not set.
	failOn := flagFailOn
	if !cmd.Flags().Changed("fail-on") {
		if v := config.PickString("", lcfg.FailOn, gcfg.FailOn); v != "" {
			failOn = v
		}
	}
	if report.ExceedsThreshold(res.Files, report.ParseSeverity(failOn)) {
		os.Exit(1)
	}
	return nil
}

// resolveMaxBytes applies config only when the flag kept its default; the
// flag has a non-zero default, so PickInt64 alone would always shadow config.
func resolveMaxBytes(flagVal int64, flagChanged bool, lcfg, gcfg config.FileConfig) int64 {
	if flagChanged {
		return flagVal
	}
	if v := config.PickInt64(0, lcfg.MaxBytes, gcfg.MaxBytes); v != 0 {
		return v
	}
	return flagVal
}

// resolveNoColor folds the flag/tty decision together with the config key:
// any of them disabling color wins.
func resolveNoColor(disabled bool, lcfg, gcfg config.FileConfig) bool {
	if disabled {
		return true
	}
	return config.PickBool(false, lcfg.NoColor, gcfg.NoColor)
}

// scanStdin scans a single buffer read from standard input.
func scanStdin(cfg engine.Config, noColor bool) error {
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return fmt.Errorf("read stdin: %w", err)
	}

	s := yarascan.New(
		yarascan.WithLogger(*cfg.Logger),
		yarascan.WithCacheValidation(cfg.ValidateCache),
		yarascan.WithNamespace(cfg.Namespace),
	)
	defer s.Close()
	if err := s.LoadRules(cfg.RulesPath); err != nil {
		return fmt.Errorf("load rules: %w", err)
	}

	var files []types.FileMatches
	if matches := s.ScanBytes(data); len(matches) > 0 {
		files = append(files, types.FileMatches{Path: "<stdin>", Matches: matches})
	}

	opts := report.PrintOptions{NoColor: noColor, FilesScanned: 1}
	switch {
	case flagJSON:
		if err := report.WriteJSON(os.Stdout, files, opts); err != nil {
			return err
		}
	case flagTable:
		report.PrintTable(os.Stdout, files, opts)
	default:
		report.PrintText(os.Stdout, files, opts)
	}

	if report.ExceedsThreshold(files, report.ParseSeverity(flagFailOn)) {
		os.Exit(1)
	}
	return nil
}
