package feed

import (
	"context"
	"crypto/sha256"
	"fmt"
	"html"
	"net/http"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/mmcdole/gofeed"
)

const userAgent = "dbroast/1.0 (+https://github.com/matheuskafuri/dbroast)"

// Item is one feed entry reduced to what the roast pipeline needs.
type Item struct {
	Title   string
	Link    string
	GUID    string
	PubDate string
	Snippet string
	Content string
}

// Identity is the cache key: the link, else the GUID, else a hash of the title.
func (i Item) Identity() string {
	if i.Link != "" {
		return i.Link
	}
	if i.GUID != "" {
		return i.GUID
	}
	h := sha256.Sum256([]byte(i.Title))
	return fmt.Sprintf("title:%x", h[:16])
}

type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]Item, error)
}

type RSSFetcher struct {
	parser *gofeed.Parser
	strict *bluemonday.Policy
}

func NewRSSFetcher(client *http.Client) *RSSFetcher {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	p := gofeed.NewParser()
	p.Client = client
	p.UserAgent = userAgent
	return &RSSFetcher{parser: p, strict: bluemonday.StrictPolicy()}
}

// Fetch downloads and parses one feed, preserving the feed's item order.
func (f *RSSFetcher) Fetch(ctx context.Context, url string) ([]Item, error) {
	feed, err := f.parser.ParseURLWithContext(url, ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", url, err)
	}

	items := make([]Item, 0, len(feed.Items))
	for _, it := range feed.Items {
		if it == nil {
			continue
		}
		content := it.Content
		if content == "" {
			content = it.Description
		}
		items = append(items, Item{
			Title:   strings.TrimSpace(it.Title),
			Link:    strings.TrimSpace(it.Link),
			GUID:    strings.TrimSpace(it.GUID),
			PubDate: pubDate(it),
			Snippet: f.snippet(content),
			Content: content,
		})
	}
	return items, nil
}

func pubDate(it *gofeed.Item) string {
	switch {
	case it.PublishedParsed != nil:
		return it.PublishedParsed.UTC().Format(time.RFC3339)
	case it.UpdatedParsed != nil:
		return it.UpdatedParsed.UTC().Format(time.RFC3339)
	case it.Published != "":
		return it.Published
	default:
		return it.Updated
	}
}

// snippet reduces HTML content to plain text on a single line.
func (f *RSSFetcher) snippet(content string) string {
	if content == "" {
		return ""
	}
	text := html.UnescapeString(f.strict.Sanitize(content))
	return strings.Join(strings.Fields(text), " ")
}

// Take returns at most n items from the head of items.
func Take(items []Item, n int) []Item {
	if n <= 0 || len(items) <= n {
		return items
	}
	return items[:n]
}
