package sigscan

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sigscan/sigscan/internal/update"
)

var flagCheckUpdate bool

func init() {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print the sigscan version",
		RunE:  runVersion,
	}
	rootCmd.AddCommand(cmd)

	cmd.Flags().BoolVar(&flagCheckUpdate, "check-update", false, "also query GitHub for the latest release")
}

func runVersion(_ *cobra.Command, _ []string) error {
	fmt.Printf("sigscan v%s\n", version)
	if !flagCheckUpdate {
		return nil
	}
	res := update.CheckLatest("v"+version, "sigscan/sigscan")
	switch {
	case res == nil:
		fmt.Println("update check unavailable")
	case res.NeedsUpdate():
		fmt.Printf("newer release available: %s\n  %s\n", res.Latest, res.UpdateURL)
	default:
		fmt.Println("up to date")
	}
	return nil
}
