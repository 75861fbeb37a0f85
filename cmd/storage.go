package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/matheuskafuri/dbroast/internal/cache"
	"github.com/spf13/cobra"
)

var (
	flagListLimit int
	flagListSince string
)

type statser interface {
	Stats(ctx context.Context) (cache.Stats, error)
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cache statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := setup()
		if err != nil {
			return err
		}
		defer e.store.Close()

		s, ok := e.store.(statser)
		if !ok {
			return fmt.Errorf("cache backend %q does not report stats", e.cfg.CacheBackend())
		}
		st, err := s.Stats(cmd.Context())
		if err != nil {
			return fmt.Errorf("reading stats: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Cache: %s\n", e.path)
		fmt.Fprintf(cmd.OutOrStdout(), "Backend: %s\n", e.cfg.CacheBackend())
		fmt.Fprintf(cmd.OutOrStdout(), "Roasts: %d\n", st.Entries)
		fmt.Fprintf(cmd.OutOrStdout(), "Size: %s\n", formatBytes(st.Size))
		return nil
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List cached roasts, newest first",
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

		if flagListSince != "" {
			d, err := parseSince(flagListSince)
			if err != nil {
				return fmt.Errorf("invalid --since value: %w", err)
			}
			entries = since(entries, time.Now().Add(-d))
		}
		if flagListLimit > 0 && len(entries) > flagListLimit {
			entries = entries[:flagListLimit]
		}

		printList(cmd.OutOrStdout(), entries, e.cfg.FeedName)
		return nil
	},
}

func init() {
	listCmd.Flags().IntVarP(&flagListLimit, "limit", "n", 20, "maximum number of roasts to show (0 for all)")
	listCmd.Flags().StringVar(&flagListSince, "since", "", "only roasts published within this duration (e.g. 7d, 24h)")
}

var (
	listTitleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.AdaptiveColor{Light: "#B02E0C", Dark: "#F2A65A"})
	listMetaStyle    = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#9B9B9B", Dark: "#626262"})
	listSlugStyle    = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#D9480F", Dark: "#FF8C42"})
	listPersonaStyle = lipgloss.NewStyle().Italic(true)
)

func printList(w io.Writer, entries []cache.Entry, feedName func(string) string) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No roasts cached yet.")
		return
	}
	for _, e := range entries {
		date := "undated"
		if t := e.Published(); !t.IsZero() {
			date = t.Format("2006-01-02")
		}
		meta := date + " · " + feedName(e.OriginalFeed)
		if e.PersonaName != "" {
			meta += " · " + listPersonaStyle.Render(e.PersonaName)
		}
		fmt.Fprintln(w, listTitleStyle.Render(e.Title))
		fmt.Fprintln(w, "  "+listMetaStyle.Render(meta))
		fmt.Fprintln(w, "  "+listSlugStyle.Render(e.Slug))
	}
}

// since keeps entries published at or after cutoff. Entries come newest
// first, so the first older entry ends the scan; undated ones are dropped.
func since(entries []cache.Entry, cutoff time.Time) []cache.Entry {
	for i, e := range entries {
		if t := e.Published(); t.IsZero() || t.Before(cutoff) {
			return entries[:i]
		}
	}
	return entries
}

func parseSince(s string) (time.Duration, error) {
	if len(s) > 1 && s[len(s)-1] == 'd' {
		var days int
		if _, err := fmt.Sscanf(s, "%dd", &days); err == nil {
			return time.Duration(days) * 24 * time.Hour, nil
		}
	}
	return time.ParseDuration(s)
}

func formatBytes(b int64) string {
	switch {
	case b >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(b)/(1<<20))
	case b >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(b)/(1<<10))
	default:
		return fmt.Sprintf("%d B", b)
	}
}
