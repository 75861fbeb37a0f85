package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/matheuskafuri/dbroast/internal/cache"
)

// filterBar narrows the listing to a subset of feeds.
type filterBar struct {
	feeds        []string
	active       map[string]bool
	filterMode   bool
	filterCursor int
}

func newFilterBar(feeds []string) filterBar {
	return filterBar{
		feeds:  feeds,
		active: make(map[string]bool),
	}
}

func (f *filterBar) toggle(feed string) {
	if f.active[feed] {
		delete(f.active, feed)
	} else {
		f.active[feed] = true
	}
}

func (f *filterBar) toggleCurrent() {
	if f.filterCursor < len(f.feeds) {
		f.toggle(f.feeds[f.filterCursor])
	}
}

func (f *filterBar) activeFeeds() []string {
	if len(f.active) == 0 {
		return nil
	}
	var out []string
	for _, s := range f.feeds {
		if f.active[s] {
			out = append(out, s)
		}
	}
	return out
}

func (f *filterBar) activeLabel() string {
	active := f.activeFeeds()
	if active == nil {
		return "All"
	}
	return strings.Join(active, ", ")
}

func (f *filterBar) render(width int) string {
	sep := tabSeparatorStyle.Render(" · ")

	parts := []string{tabInactiveStyle.Render("All")}
	if len(f.active) == 0 {
		parts[0] = tabActiveStyle.Render("All")
	}
	for i, s := range f.feeds {
		style := tabInactiveStyle
		if f.active[s] {
			style = tabActiveStyle
		}
		label := s
		if f.filterMode && i == f.filterCursor {
			label = "[" + s + "]"
		}
		parts = append(parts, style.Render(label))
	}

	var row string
	for i, part := range parts {
		candidate := row
		if i > 0 {
			candidate += sep
		}
		candidate += part
		if lipgloss.Width(candidate) > width && row != "" {
			break
		}
		row = candidate
	}

	return filterRowStyle.Width(width).Render(row)
}

// filterEntries keeps the entries whose feed label is in feeds (nil means
// every feed) and whose title, persona or roast contains query, ignoring
// case. Order is preserved.
func filterEntries(entries []cache.Entry, label func(cache.Entry) string, feeds []string, query string) []cache.Entry {
	allowed := make(map[string]bool, len(feeds))
	for _, f := range feeds {
		allowed[f] = true
	}
	query = strings.ToLower(strings.TrimSpace(query))

	out := make([]cache.Entry, 0, len(entries))
	for _, e := range entries {
		if len(allowed) > 0 && !allowed[label(e)] {
			continue
		}
		if query != "" && !matches(e, query) {
			continue
		}
		out = append(out, e)
	}
	return out
}

func matches(e cache.Entry, query string) bool {
	for _, field := range []string{e.Title, e.PersonaName, e.Roast} {
		if strings.Contains(strings.ToLower(field), query) {
			return true
		}
	}
	return false
}
