package cache

import (
	"errors"
	"fmt"
	"sort"

	"github.com/matheuskafuri/dbroast/internal/slug"
)

var (
	ErrExists    = errors.New("entry already cached")
	ErrSlugTaken = errors.New("slug already in use")
)

// Cache is the in-memory view of every generated entry, keyed by article
// identity. Entries are only ever added.
type Cache struct {
	entries map[string]Entry
	order   []string
	slugs   map[string]struct{}
}

func New() *Cache {
	return &Cache{
		entries: make(map[string]Entry),
		slugs:   make(map[string]struct{}),
	}
}

func (c *Cache) Len() int {
	return len(c.entries)
}

func (c *Cache) Has(id string) bool {
	_, ok := c.entries[id]
	return ok
}

func (c *Cache) Get(id string) (Entry, bool) {
	e, ok := c.entries[id]
	return e, ok
}

// SlugTaken reports whether any cached entry already uses s.
func (c *Cache) SlugTaken(s string) bool {
	_, ok := c.slugs[s]
	return ok
}

// UniqueSlug returns base, or base with the lowest free numeric suffix.
func (c *Cache) UniqueSlug(base string) string {
	return slug.Unique(base, c.SlugTaken)
}

// Insert adds a new entry. Existing identities are never overwritten.
func (c *Cache) Insert(id string, e Entry) error {
	if _, ok := c.entries[id]; ok {
		return fmt.Errorf("inserting %s: %w", id, ErrExists)
	}
	if c.SlugTaken(e.Slug) {
		return fmt.Errorf("inserting %s: slug %q: %w", id, e.Slug, ErrSlugTaken)
	}
	c.add(id, e)
	return nil
}

func (c *Cache) add(id string, e Entry) {
	c.entries[id] = e
	c.order = append(c.order, id)
	c.slugs[e.Slug] = struct{}{}
}

// Keys returns identities in insertion order.
func (c *Cache) Keys() []string {
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

// Entries returns every entry, most recently published first. Entries whose
// date cannot be parsed sort last; ties keep insertion order.
func (c *Cache) Entries() []Entry {
	type dated struct {
		entry Entry
		at    int64
		ok    bool
	}
	rows := make([]dated, 0, len(c.order))
	for _, id := range c.order {
		e := c.entries[id]
		t := e.Published()
		rows = append(rows, dated{entry: e, at: t.UnixNano(), ok: !t.IsZero()})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].ok != rows[j].ok {
			return rows[i].ok
		}
		return rows[i].at > rows[j].at
	})

	out := make([]Entry, len(rows))
	for i, r := range rows {
		out[i] = r.entry
	}
	return out
}

// fromMap builds a cache from decoded storage. Keys are added in sorted order
// so later slug assignment is deterministic across loads. Stored entries are
// kept as-is even when an older writer left duplicate slugs behind.
func fromMap(m map[string]Entry) *Cache {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	c := New()
	for _, k := range keys {
		c.add(k, m[k])
	}
	return c
}

func (c *Cache) toMap() map[string]Entry {
	m := make(map[string]Entry, len(c.entries))
	for k, v := range c.entries {
		m[k] = v
	}
	return m
}
