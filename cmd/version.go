package cmd

import (
	"fmt"

	"github.com/matheuskafuri/dbroast/internal/update"
	"github.com/spf13/cobra"
)

var flagVersionCheck bool

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Fprintf(cmd.OutOrStdout(), "dbroast %s (commit: %s, built: %s)\n", version, commit, date)
		if !flagVersionCheck {
			return nil
		}

		res, err := update.NewChecker().Check(cmd.Context(), version)
		if err != nil {
			return fmt.Errorf("checking for updates: %w", err)
		}
		if res == nil {
			fmt.Fprintln(cmd.OutOrStdout(), "You are on the latest release.")
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Update available: v%s %s\n", res.LatestVersion, res.URL)
		return nil
	},
}

func init() {
	versionCmd.Flags().BoolVar(&flagVersionCheck, "check", false, "check GitHub for a newer release")
}
