package sigscan

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	flagJSON          bool
	flagTable         bool
	flagThreads       int
	flagFailOn        string
	flagNoColor       bool
	flagNoUpdateCheck bool

	version = "0.1.0"
)

// rootCmd is the base Cobra command for the sigscan CLI.
var rootCmd = &cobra.Command{
	Use:           "sigscan",
	Short:         "Scan files with YARA rules",
	Long:          "sigscan scans files and directory trees against a YARA rule set and reports matching rules with their metadata and matched strings.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the sigscan CLI. It should be called by the main package.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(2)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "emit JSON")
	rootCmd.PersistentFlags().BoolVar(&flagTable, "table", false, "output in table format with borders")
	rootCmd.PersistentFlags().IntVar(&flagThreads, "threads", 0, "worker count (0 = GOMAXPROCS)")
	rootCmd.PersistentFlags().StringVar(&flagFailOn, "fail-on", "medium", "exit non-zero on matches at low|medium|high")
	rootCmd.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "disable colorized output")
	rootCmd.PersistentFlags().BoolVar(&flagNoUpdateCheck, "no-update-check", false, "disable update check")
}

// colorDisabled folds the flag together with tty detection: piped output
// never gets ANSI escapes.
func colorDisabled() bool {
	if flagNoColor {
		return true
	}
	return !term.IsTerminal(int(os.Stdout.Fd()))
}
