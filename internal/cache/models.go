package cache

import (
	"time"

	"github.com/araddon/dateparse"
)

// Entry is one generated roast. Field names match the on-disk cache format.
type Entry struct {
	Title        string `json:"title"`
	Link         string `json:"link"`
	PubDate      string `json:"pubDate"`
	Roast        string `json:"roast"`
	OriginalFeed string `json:"originalFeed"`
	PersonaName  string `json:"personaName,omitempty"`
	PersonaRole  string `json:"personaRole,omitempty"`
	Slug         string `json:"slug"`
}

// Published parses PubDate leniently. Unknown or empty dates yield the zero time.
func (e Entry) Published() time.Time {
	if e.PubDate == "" {
		return time.Time{}
	}
	t, err := dateparse.ParseAny(e.PubDate)
	if err != nil {
		return time.Time{}
	}
	return t
}
