package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/refyne-linkedin/internal/output"
	"github.com/jmylchreest/refyne-linkedin/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return output.Print(cmd.OutOrStdout(), output.FormatJSON, version.Get())
		}
		_, err := fmt.Fprintln(cmd.OutOrStdout(), version.Full())
		return err
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
	versionCmd.Flags().Bool("json", false, "print as JSON")
}
