package sigscan

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/sigscan/sigscan/internal/rulecache"
	"github.com/sigscan/sigscan/internal/yarascan"
)

var flagCompileForce bool

func init() {
	cmd := &cobra.Command{
		Use:   "compile <rules.yar>",
		Short: "Precompile a rule source into a reusable artifact",
		Long:  "Compiles the rule source and writes the artifact next to it, so later scans can skip compilation. The artifact also carries a content stamp used by --validate-cache.",
		Args:  cobra.ExactArgs(1),
		RunE:  runCompile,
	}
	rootCmd.AddCommand(cmd)

	cmd.Flags().BoolVarP(&flagCompileForce, "force", "f", false, "recompile even when a fresh artifact exists")
}

func runCompile(_ *cobra.Command, args []string) error {
	src, err := filepath.Abs(args[0])
	if err != nil {
		return err
	}
	artifact := rulecache.ArtifactPath(src)
	if flagCompileForce {
		_ = os.Remove(artifact)
	}

	log := newLogger(colorDisabled())
	s := yarascan.New(
		yarascan.WithLogger(log),
		yarascan.WithCacheValidation(true),
	)
	defer s.Close()
	if err := s.LoadRules(src); err != nil {
		return fmt.Errorf("compile: %w", err)
	}
	fmt.Printf("compiled %s -> %s (%d rules)\n", src, artifact, len(s.RuleInfos()))
	return nil
}
