package sigscan

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sigscan/sigscan/internal/yarascan"
)

func init() {
	cmd := &cobra.Command{
		Use:   "rules <rules.yar>",
		Short: "List the rules in a rule set",
		Args:  cobra.ExactArgs(1),
		RunE:  runRules,
	}
	rootCmd.AddCommand(cmd)
}

func runRules(_ *cobra.Command, args []string) error {
	src, err := filepath.Abs(args[0])
	if err != nil {
		return err
	}

	log := newLogger(colorDisabled())
	s := yarascan.New(yarascan.WithLogger(log))
	defer s.Close()
	if err := s.LoadRules(src); err != nil {
		return fmt.Errorf("load rules: %w", err)
	}

	infos := s.RuleInfos()
	if flagJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(infos)
	}
	for _, info := range infos {
		line := info.Identifier
		if len(info.Tags) > 0 {
			line += " [" + strings.Join(info.Tags, ",") + "]"
		}
		for _, m := range info.Meta {
			if m.Key == "severity" {
				line += " (" + m.Value + ")"
			}
		}
		fmt.Println(line)
	}
	fmt.Fprintf(os.Stderr, "%d rules\n", len(infos))
	return nil
}
