package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

func renderStatusBar(shown, total int, filterLabel, query string, width int, searching bool) string {
	left := fmt.Sprintf(" %d roasts", shown)
	if shown != total {
		left = fmt.Sprintf(" %d/%d roasts", shown, total)
	}
	if filterLabel != "All" {
		left += " · " + filterLabel
	}
	if query != "" && !searching {
		left += " · " + searchTermStyle.Render("\""+query+"\"")
	}

	right := " o open  / search  f filter  ? help  q quit "
	if searching {
		right = " esc cancel  enter search "
	}

	gap := max(width-lipgloss.Width(left)-lipgloss.Width(right), 0)
	bar := left + fmt.Sprintf("%*s", gap, "") + right

	return statusBarStyle.Width(width).Render(bar)
}
