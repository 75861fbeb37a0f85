package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/matheuskafuri/dbroast/internal/cache"
	"github.com/matheuskafuri/dbroast/internal/feed"
	"github.com/matheuskafuri/dbroast/internal/logger"
	"github.com/matheuskafuri/dbroast/internal/prompt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	feedA = "https://a.example.com/rss"
	feedB = "https://b.example.com/rss"
	feedC = "https://c.example.com/rss"
)

func item(title, link, date string) feed.Item {
	return feed.Item{Title: title, Link: link, PubDate: date, Snippet: "snippet of " + title}
}

func testPipeline(f feed.Fetcher, g *fakeGenerator, s *sleepRecorder) *Pipeline {
	return New(Options{
		Fetcher:      f,
		Generator:    g,
		Builder:      prompt.NewBuilder(nil),
		Logger:       logger.Discard(),
		ItemsPerFeed: 2,
		Delay:        time.Second,
		Sleep:        s.Sleep,
	})
}

func threeFeeds() *fakeFetcher {
	return &fakeFetcher{feeds: map[string][]feed.Item{
		feedA: {
			item("Postgres 18 Released", "https://a.example.com/pg18", "2025-09-25T10:00:00Z"),
			item("Vacuum Tuning", "https://a.example.com/vacuum", "2025-09-20T10:00:00Z"),
		},
		feedB: {
			item("Redis Is A Database Now", "https://b.example.com/redis", "2025-09-24T10:00:00Z"),
		},
		feedC: {
			item("DuckDB Everywhere", "https://c.example.com/duck", "2025-09-26T10:00:00Z"),
		},
	}}
}

func TestRunGeneratesNewArticles(t *testing.T) {
	g := &fakeGenerator{}
	s := &sleepRecorder{}
	c := cache.New()

	r := testPipeline(threeFeeds(), g, s).Run(context.Background(), c, []string{feedA, feedB, feedC})

	assert.Equal(t, 3, r.Feeds)
	assert.Equal(t, 0, r.FeedsFailed)
	assert.Equal(t, 4, r.Generated)
	assert.Equal(t, 4, c.Len())

	e, ok := c.Get("https://a.example.com/pg18")
	require.True(t, ok)
	assert.Equal(t, "Postgres 18 Released", e.Title)
	assert.Equal(t, "postgres-18-released", e.Slug)
	assert.Equal(t, feedA, e.OriginalFeed)
	assert.Equal(t, "2025-09-25T10:00:00Z", e.PubDate)
	assert.NotEmpty(t, e.Roast)
	assert.NotEmpty(t, e.PersonaName)
	assert.NotEmpty(t, e.PersonaRole)
}

func TestRunTakesFirstNItems(t *testing.T) {
	f := &fakeFetcher{feeds: map[string][]feed.Item{
		feedA: {
			item("One", "https://a/1", ""),
			item("Two", "https://a/2", ""),
			item("Three", "https://a/3", ""),
			item("Four", "https://a/4", ""),
		},
	}}
	g := &fakeGenerator{}
	c := cache.New()

	r := testPipeline(f, g, &sleepRecorder{}).Run(context.Background(), c, []string{feedA})

	assert.Equal(t, 2, r.Items)
	assert.Equal(t, 2, g.Calls())
	assert.True(t, c.Has("https://a/1"))
	assert.True(t, c.Has("https://a/2"))
	assert.False(t, c.Has("https://a/3"))
}

func TestRunIsIdempotent(t *testing.T) {
	f := threeFeeds()
	g := &fakeGenerator{}
	store := cache.NewMemoryStore(nil)
	p := testPipeline(f, g, &sleepRecorder{})
	feeds := []string{feedA, feedB, feedC}

	first, r1 := p.Refresh(context.Background(), store, feeds)
	require.Len(t, first, 4)
	assert.Equal(t, 4, r1.Generated)
	calls := g.Calls()

	second, r2 := p.Refresh(context.Background(), store, feeds)
	assert.Len(t, second, 4)
	assert.Equal(t, 0, r2.Generated)
	assert.Equal(t, 4, r2.Skipped)
	assert.Equal(t, calls, g.Calls(), "no generation calls on the second run")
}

func TestRunUniqueSlugsInFirstSeenOrder(t *testing.T) {
	f := &fakeFetcher{feeds: map[string][]feed.Item{
		feedA: {
			item("Same Title!", "https://a/1", ""),
			item("Same Title?", "https://a/2", ""),
		},
		feedB: {
			item("same   title", "https://b/1", ""),
		},
	}}
	c := cache.New()
	testPipeline(f, &fakeGenerator{}, &sleepRecorder{}).Run(context.Background(), c, []string{feedA, feedB})

	want := map[string]string{
		"https://a/1": "same-title",
		"https://a/2": "same-title-1",
		"https://b/1": "same-title-2",
	}
	for id, slug := range want {
		e, ok := c.Get(id)
		require.True(t, ok, id)
		assert.Equal(t, slug, e.Slug, id)
	}
}

func TestRunSlugsAvoidCachedEntries(t *testing.T) {
	c := cache.New()
	require.NoError(t, c.Insert("https://old/1", cache.Entry{Title: "Same Title", Slug: "same-title"}))

	f := &fakeFetcher{feeds: map[string][]feed.Item{
		feedA: {item("Same Title", "https://a/1", "")},
	}}
	testPipeline(f, &fakeGenerator{}, &sleepRecorder{}).Run(context.Background(), c, []string{feedA})

	e, ok := c.Get("https://a/1")
	require.True(t, ok)
	assert.Equal(t, "same-title-1", e.Slug)
}

func TestRunContentFallback(t *testing.T) {
	f := &fakeFetcher{feeds: map[string][]feed.Item{
		feedA: {
			{Title: "Has Content", Link: "https://a/1", Content: "<p>the full content body</p>"},
			{Title: "Title Only Article", Link: "https://a/2"},
		},
	}}
	g := &fakeGenerator{}
	testPipeline(f, g, &sleepRecorder{}).Run(context.Background(), cache.New(), []string{feedA})

	require.Len(t, g.prompts, 2)
	assert.Contains(t, g.prompts[0], "<p>the full content body</p>")
	assert.Contains(t, g.prompts[1], "Title Only Article")
}

func TestRunSkipsFailedFeed(t *testing.T) {
	f := threeFeeds()
	f.errs = map[string]error{feedB: assert.AnError}
	g := &fakeGenerator{}
	c := cache.New()

	r := testPipeline(f, g, &sleepRecorder{}).Run(context.Background(), c, []string{feedA, feedB, feedC})

	assert.Equal(t, 1, r.FeedsFailed)
	assert.Equal(t, []string{feedA, feedB, feedC}, f.calls)
	assert.True(t, c.Has("https://a.example.com/pg18"))
	assert.True(t, c.Has("https://c.example.com/duck"))
	assert.False(t, c.Has("https://b.example.com/redis"))
	assert.Len(t, r.Errors, 1)
}

func TestRunGenerationFailureLeavesArticleAbsent(t *testing.T) {
	f := threeFeeds()
	g := &fakeGenerator{failOn: []string{"Vacuum Tuning"}}
	s := &sleepRecorder{}
	store := cache.NewMemoryStore(nil)
	p := testPipeline(f, g, s)
	feeds := []string{feedA, feedB, feedC}

	_, r := p.Refresh(context.Background(), store, feeds)
	assert.Equal(t, 1, r.Failed)
	assert.Equal(t, 3, r.Generated)
	assert.NotContains(t, store.Snapshot(), "https://a.example.com/vacuum")
	assert.Len(t, s.pauses, 3, "pause only after successful generations")

	g.failOn = nil
	_, r = p.Refresh(context.Background(), store, feeds)
	assert.Equal(t, 1, r.Generated, "failed article is retried on the next run")
	assert.Contains(t, store.Snapshot(), "https://a.example.com/vacuum")
}

func TestRunPausesAfterEachSuccess(t *testing.T) {
	s := &sleepRecorder{}
	testPipeline(threeFeeds(), &fakeGenerator{}, s).Run(context.Background(), cache.New(), []string{feedA, feedB, feedC})

	require.Len(t, s.pauses, 4)
	for _, d := range s.pauses {
		assert.Equal(t, time.Second, d)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	g := &fakeGenerator{}
	c := cache.New()
	p := New(Options{
		Fetcher:      threeFeeds(),
		Generator:    g,
		Logger:       logger.Discard(),
		ItemsPerFeed: 2,
		Sleep: func(context.Context, time.Duration) error {
			cancel()
			return context.Canceled
		},
	})

	p.Run(ctx, c, []string{feedA, feedB, feedC})

	assert.Equal(t, 1, g.Calls())
	assert.Equal(t, 1, c.Len())
}

func TestRefreshSortsNewestFirst(t *testing.T) {
	store := cache.NewMemoryStore(map[string]cache.Entry{
		"https://old/1": {Title: "Ancient", PubDate: "2020-01-01T00:00:00Z", Slug: "ancient", Roast: "old"},
	})
	entries, _ := testPipeline(threeFeeds(), &fakeGenerator{}, &sleepRecorder{}).
		Refresh(context.Background(), store, []string{feedA, feedB, feedC})

	require.Len(t, entries, 5)
	for i := 1; i < len(entries); i++ {
		assert.False(t, entries[i].Published().After(entries[i-1].Published()),
			"entry %d (%s) is newer than entry %d (%s)", i, entries[i].PubDate, i-1, entries[i-1].PubDate)
	}
	assert.Equal(t, "DuckDB Everywhere", entries[0].Title)
	assert.Equal(t, "Ancient", entries[len(entries)-1].Title)
}

func TestRefreshKeepsExistingEntries(t *testing.T) {
	existing := cache.Entry{
		Title:        "Postgres 18 Released",
		Link:         "https://a.example.com/pg18",
		PubDate:      "2025-09-25T10:00:00Z",
		Roast:        "the original roast",
		OriginalFeed: feedA,
		PersonaName:  "Gerald",
		PersonaRole:  "grizzled DBA",
		Slug:         "custom-slug",
	}
	store := cache.NewMemoryStore(map[string]cache.Entry{existing.Link: existing})

	testPipeline(threeFeeds(), &fakeGenerator{}, &sleepRecorder{}).
		Refresh(context.Background(), store, []string{feedA, feedB, feedC})

	assert.Equal(t, existing, store.Snapshot()[existing.Link])
}

func TestRefreshRecoversFromCorruptCache(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roasts.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"broken": `), 0o644))
	store := cache.NewJSONStore(path)

	entries, r := testPipeline(threeFeeds(), &fakeGenerator{}, &sleepRecorder{}).
		Refresh(context.Background(), store, []string{feedA, feedB, feedC})

	assert.Len(t, entries, 4)
	assert.Equal(t, 4, r.Generated)

	reloaded, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, reloaded.Len())
	assert.False(t, reloaded.Has("broken"))
}

func TestRefreshReturnsEntriesWhenSaveFails(t *testing.T) {
	store := cache.NewMemoryStore(nil)
	store.SaveErr = assert.AnError

	entries, _ := testPipeline(threeFeeds(), &fakeGenerator{}, &sleepRecorder{}).
		Refresh(context.Background(), store, []string{feedA})

	assert.Len(t, entries, 2)
	assert.Equal(t, 1, store.Saves())
	assert.Empty(t, store.Snapshot())
}

func TestRefreshLoadFailureStartsEmpty(t *testing.T) {
	store := cache.NewMemoryStore(map[string]cache.Entry{"x": {Slug: "x"}})
	store.LoadErr = assert.AnError

	entries, _ := testPipeline(threeFeeds(), &fakeGenerator{}, &sleepRecorder{}).
		Refresh(context.Background(), store, []string{feedA})

	assert.Len(t, entries, 2)
}

func TestSleepContext(t *testing.T) {
	assert.NoError(t, sleepContext(context.Background(), 0))
	assert.NoError(t, sleepContext(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, sleepContext(ctx, time.Hour), context.Canceled)
}
