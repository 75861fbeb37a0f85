package pipeline

import (
	"context"

	"github.com/matheuskafuri/dbroast/internal/cache"
)

// Refresh loads the cache, runs the pipeline over feeds, saves the result and
// returns every cached entry, newest first. Load and save failures are logged;
// the in-memory result is returned either way.
func (p *Pipeline) Refresh(ctx context.Context, store cache.Store, feeds []string) ([]cache.Entry, Report) {
	c, err := store.Load(ctx)
	if err != nil {
		p.logger.Warn("no usable cache, starting fresh", "error", err)
	}
	if c == nil {
		c = cache.New()
	}
	before := c.Len()

	report := p.Run(ctx, c, feeds)

	// Save even when the run was interrupted so finished roasts are kept.
	if err := store.Save(context.WithoutCancel(ctx), c); err != nil {
		p.logger.Error("saving cache", "error", err)
	} else {
		p.logger.Info("cache updated", "entries", c.Len(), "new", c.Len()-before)
	}

	return c.Entries(), report
}
