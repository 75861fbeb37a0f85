package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/matheuskafuri/dbroast/internal/ai"
	"github.com/matheuskafuri/dbroast/internal/cache"
	"github.com/matheuskafuri/dbroast/internal/feed"
	"github.com/matheuskafuri/dbroast/internal/prompt"
	"github.com/matheuskafuri/dbroast/internal/slug"
)

// SleepFunc pauses for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

type Options struct {
	Fetcher      feed.Fetcher
	Generator    ai.Generator
	Builder      *prompt.Builder
	Logger       *slog.Logger
	ItemsPerFeed int
	Delay        time.Duration
	Sleep        SleepFunc
}

// Pipeline turns new feed items into cached roasts, strictly one feed and one
// item at a time.
type Pipeline struct {
	fetcher      feed.Fetcher
	generator    ai.Generator
	builder      *prompt.Builder
	logger       *slog.Logger
	itemsPerFeed int
	delay        time.Duration
	sleep        SleepFunc
}

func New(opts Options) *Pipeline {
	p := &Pipeline{
		fetcher:      opts.Fetcher,
		generator:    opts.Generator,
		builder:      opts.Builder,
		logger:       opts.Logger,
		itemsPerFeed: opts.ItemsPerFeed,
		delay:        opts.Delay,
		sleep:        opts.Sleep,
	}
	if p.builder == nil {
		p.builder = prompt.NewBuilder(nil)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	if p.itemsPerFeed <= 0 {
		p.itemsPerFeed = 2
	}
	if p.sleep == nil {
		p.sleep = sleepContext
	}
	return p
}

// Report summarizes one run.
type Report struct {
	Feeds       int
	FeedsFailed int
	Items       int
	Skipped     int
	Generated   int
	Failed      int
	Errors      []error
}

type outcome int

const (
	skipped outcome = iota
	generated
	failed
)

// Run processes feeds in order and merges new roasts into c. A failing feed
// or item is logged and recorded; it never stops the rest of the run.
func (p *Pipeline) Run(ctx context.Context, c *cache.Cache, feeds []string) Report {
	var r Report
	for _, url := range feeds {
		if ctx.Err() != nil {
			p.logger.Warn("run interrupted", "error", ctx.Err())
			break
		}
		r.Feeds++
		if err := p.processFeed(ctx, c, url, &r); err != nil {
			r.FeedsFailed++
			r.Errors = append(r.Errors, err)
			p.logger.Warn("skipping feed", "feed", url, "error", err)
		}
	}
	return r
}

func (p *Pipeline) processFeed(ctx context.Context, c *cache.Cache, feedURL string, r *Report) error {
	p.logger.Info("processing feed", "feed", feedURL)

	items, err := p.fetcher.Fetch(ctx, feedURL)
	if err != nil {
		return err
	}

	for _, item := range feed.Take(items, p.itemsPerFeed) {
		if ctx.Err() != nil {
			return nil
		}
		r.Items++

		res, err := p.processItem(ctx, c, feedURL, item)
		switch res {
		case skipped:
			r.Skipped++
		case generated:
			r.Generated++
		case failed:
			r.Failed++
			r.Errors = append(r.Errors, err)
			p.logger.Warn("skipping article", "feed", feedURL, "title", item.Title, "error", err)
		}
	}
	return nil
}

func (p *Pipeline) processItem(ctx context.Context, c *cache.Cache, feedURL string, item feed.Item) (outcome, error) {
	id := item.Identity()
	if c.Has(id) {
		p.logger.Debug("already roasted", "identity", id)
		return skipped, nil
	}

	p.logger.Info("processing new article", "title", item.Title)
	req := p.builder.Build(item)

	text, err := p.generator.Generate(ctx, req.Prompt)
	if err != nil {
		return failed, fmt.Errorf("generating roast for %q: %w", item.Title, err)
	}

	entry := cache.Entry{
		Title:        item.Title,
		Link:         item.Link,
		PubDate:      item.PubDate,
		Roast:        text,
		OriginalFeed: feedURL,
		PersonaName:  req.Persona.Name,
		PersonaRole:  req.Persona.Role,
		Slug:         c.UniqueSlug(slug.Base(item.Title)),
	}
	if err := c.Insert(id, entry); err != nil {
		return failed, err
	}
	p.logger.Info("generated roast", "title", item.Title, "slug", entry.Slug, "persona", entry.PersonaName)

	if err := p.sleep(ctx, p.delay); err != nil {
		p.logger.Debug("pause interrupted", "error", err)
	}
	return generated, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
