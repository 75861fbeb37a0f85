package cmd

import (
	"github.com/matheuskafuri/dbroast/internal/tui"
	"github.com/spf13/cobra"
)

var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Browse cached roasts in the terminal",
	Long:  "Open the two-pane roast browser. Roasts are rendered as markdown; press o to open the original article.",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := setup()
		if err != nil {
			return err
		}
		defer e.store.Close()

		entries, err := e.loadEntries(cmd)
		if err != nil {
			return err
		}
		return tui.Run(tui.RunOpts{Entries: entries, FeedName: e.cfg.FeedName})
	},
}
