package slug

import (
	"fmt"
	"regexp"
	"strings"
)

const fallback = "untitled"

// space matches Unicode separators (NBSP, ideographic space, ...) as well as
// ASCII whitespace, so they become hyphens instead of being stripped.
const space = `\s\v\p{Z}\x{FEFF}`

var (
	nonWord    = regexp.MustCompile(`[^\w` + space + `-]`)
	whitespace = regexp.MustCompile(`[` + space + `]+`)
	hyphens    = regexp.MustCompile(`-+`)
)

// Base derives a URL-safe slug from a title: lowercased, punctuation removed,
// whitespace collapsed to single hyphens, leading and trailing hyphens trimmed.
func Base(title string) string {
	s := strings.ToLower(title)
	s = nonWord.ReplaceAllString(s, "")
	s = whitespace.ReplaceAllString(s, "-")
	s = hyphens.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if s == "" {
		return fallback
	}
	return s
}

// Unique returns base if it is free, otherwise the first of base-1, base-2, ...
// for which taken reports false.
func Unique(base string, taken func(string) bool) string {
	if !taken(base) {
		return base
	}
	for n := 1; ; n++ {
		candidate := fmt.Sprintf("%s-%d", base, n)
		if !taken(candidate) {
			return candidate
		}
	}
}
