package cmd

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/matheuskafuri/dbroast/internal/ai"
	"github.com/matheuskafuri/dbroast/internal/feed"
	"github.com/matheuskafuri/dbroast/internal/pipeline"
	"github.com/spf13/cobra"
)

var flagExport string

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Fetch feeds and roast every new article",
	Long: `Fetch each configured feed, generate a roast for each of the first few
items not already cached, and save the cache. Feeds or articles that fail are
skipped and retried on the next run.`,
	RunE: runRefresh,
}

func init() {
	runCmd.Flags().StringVar(&flagExport, "export", "", "also write the sorted roasts as JSON to this path")
}

func runRefresh(cmd *cobra.Command, args []string) error {
	e, err := setup()
	if err != nil {
		return err
	}
	defer e.store.Close()

	feeds, err := e.cfg.FeedURLs()
	if err != nil {
		return fmt.Errorf("collecting feeds: %w", err)
	}
	if len(feeds) == 0 {
		return fmt.Errorf("no enabled feeds in config")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gen, err := ai.New(ctx, e.cfg.AI, e.cfg.AIKey(), e.log)
	if err != nil {
		return fmt.Errorf("creating generator: %w", err)
	}

	p := pipeline.New(pipeline.Options{
		Fetcher:      feed.NewRSSFetcher(&http.Client{Timeout: 30 * time.Second}),
		Generator:    gen,
		Logger:       e.log,
		ItemsPerFeed: e.cfg.GetItemsPerFeed(),
		Delay:        e.cfg.DelayDuration(),
	})

	e.log.Info("starting refresh", "feeds", len(feeds), "generator", gen.Name(), "cache", e.path)
	entries, report := p.Refresh(ctx, e.store, feeds)
	printReport(cmd.OutOrStdout(), report, len(entries))

	if flagExport != "" {
		if err := writeExportFile(flagExport, entries); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Exported %d roast(s) to %s\n", len(entries), flagExport)
	}

	if ctx.Err() != nil {
		return errors.New("interrupted; finished roasts were saved")
	}
	return nil
}

func printReport(w io.Writer, r pipeline.Report, total int) {
	fmt.Fprintf(w, "Feeds: %d processed, %d failed\n", r.Feeds, r.FeedsFailed)
	fmt.Fprintf(w, "Articles: %d seen, %d already roasted, %d roasted, %d failed\n",
		r.Items, r.Skipped, r.Generated, r.Failed)
	fmt.Fprintf(w, "Cache: %d roast(s)\n", total)
}
