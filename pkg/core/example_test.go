package core_test

import (
	"fmt"
	"os"

	"github.com/sigscan/sigscan/pkg/core"
)

// ExampleScan demonstrates a simple scan of a directory tree.
func ExampleScan() {
	cfg := core.Config{
		Root:         ".",              // Scan the current directory
		RulesPath:    "rules.yar",      // YARA source or a precompiled .yarac next to it
		Threads:      4,                // Number of concurrent workers
		IncludeGlobs: "**/*.exe,**/*.dll",
		MaxBytes:     32 * 1024 * 1024, // Skip files larger than 32MB
	}

	files, err := core.Scan(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Scan failed: %v\n", err)
		return
	}

	if len(files) == 0 {
		fmt.Println("No matches.")
	} else {
		fmt.Printf("Matches in %d files.\n", len(files))
		_ = core.MarshalMatches(os.Stdout, files)
	}
}

// ExampleScanWithStats shows how to retrieve execution statistics.
func ExampleScanWithStats() {
	cfg := core.Config{
		Root:      "samples",
		RulesPath: "rules.yar",
		PEMeta:    true, // attach PE metadata for rules importing "pemeta"
	}

	result, err := core.ScanWithStats(cfg)
	if err != nil {
		panic(err)
	}

	fmt.Printf("Scanned %d files in %s\n", result.FilesScanned, result.Duration)
	fmt.Printf("Found %d matches\n", len(result.Findings()))
	if result.FilesSkipped > 0 {
		fmt.Printf("%d clean files served from cache\n", result.FilesSkipped)
	}
}
