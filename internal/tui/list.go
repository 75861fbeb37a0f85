package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/matheuskafuri/dbroast/internal/cache"
)

func relativeTime(t time.Time) string {
	if t.IsZero() {
		return "undated"
	}
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh", int(d.Hours()))
	case d < 7*24*time.Hour:
		return fmt.Sprintf("%dd", int(d.Hours()/24))
	default:
		return t.Format("Jan 2")
	}
}

func renderListItem(e cache.Entry, label string, selected bool, width int) string {
	if width < 10 {
		width = 30
	}

	var title string
	if selected {
		title = itemSelectedStyle.Render("> " + truncateStr(e.Title, width-4))
	} else {
		title = itemTitleStyle.Render("  " + truncateStr(e.Title, width-4))
	}

	meta := "  " + itemSourceStyle.Render(label) + " " + itemTimeStyle.Render("· "+relativeTime(e.Published()))
	if e.PersonaName != "" {
		meta += " " + itemPersonaStyle.Render("· "+e.PersonaName)
	}

	return title + "\n" + meta
}

func truncateStr(s string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	if n <= 3 {
		return string(runes[:n])
	}
	return string(runes[:n-3]) + "..."
}

// visibleRange returns the half-open window of n rows that keeps cursor on
// screen when each row is itemHeight lines tall.
func visibleRange(n, cursor, height, itemHeight int) (int, int) {
	visible := height / itemHeight
	if visible < 1 {
		visible = 1
	}
	start := 0
	if cursor >= visible {
		start = cursor - visible + 1
	}
	end := start + visible
	if end > n {
		end = n
		start = max(0, end-visible)
	}
	return start, end
}

func renderList(entries []cache.Entry, label func(cache.Entry) string, cursor, height, width int) string {
	if len(entries) == 0 {
		return centerText("No roasts yet. Run dbroast first.", width, height)
	}

	// 2 lines per item plus a blank separator
	start, end := visibleRange(len(entries), cursor, height, 3)

	var b strings.Builder
	for i := start; i < end; i++ {
		b.WriteString(renderListItem(entries[i], label(entries[i]), i == cursor, width))
		if i < end-1 {
			b.WriteString("\n\n")
		}
	}
	return b.String()
}

func centerText(s string, width, height int) string {
	pad := (width - len(s)) / 2
	if pad < 0 {
		pad = 0
	}
	return strings.Repeat("\n", height/3) + strings.Repeat(" ", pad) + s
}
