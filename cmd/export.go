package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/matheuskafuri/dbroast/internal/cache"
	"github.com/spf13/cobra"
)

var flagExportOut string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write cached roasts as JSON for a static site generator",
	Long: `Write every cached roast as a JSON array sorted by publish date, newest
first. Nothing is fetched or generated. Writes to stdout unless --out is set.`,
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

		if flagExportOut == "" || flagExportOut == "-" {
			return writeExport(cmd.OutOrStdout(), entries)
		}
		if err := writeExportFile(flagExportOut, entries); err != nil {
			return err
		}
		e.log.Info("exported roasts", "entries", len(entries), "path", flagExportOut)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVarP(&flagExportOut, "out", "o", "", "output file (default stdout)")
}

// writeExport encodes entries as an indented JSON array. An empty cache is
// written as [] rather than null.
func writeExport(w io.Writer, entries []cache.Entry) error {
	if entries == nil {
		entries = []cache.Entry{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(entries); err != nil {
		return fmt.Errorf("encoding export: %w", err)
	}
	return nil
}

func writeExportFile(path string, entries []cache.Entry) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating export directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating export file: %w", err)
	}
	if err := writeExport(f, entries); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("writing export file: %w", err)
	}
	return nil
}
