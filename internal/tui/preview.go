package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/matheuskafuri/dbroast/internal/cache"
)

// renderMarkdown renders a roast for the terminal. style is a glamour
// standard style name ("dark", "light", "notty").
func renderMarkdown(md, style string, width int) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", fmt.Errorf("creating markdown renderer: %w", err)
	}
	out, err := r.Render(md)
	if err != nil {
		return "", fmt.Errorf("rendering markdown: %w", err)
	}
	return strings.Trim(out, "\n"), nil
}

func previewHeader(e cache.Entry, label string, width int) string {
	title := previewTitleStyle.Width(width).Render(e.Title)

	meta := label
	if t := e.Published(); !t.IsZero() {
		meta += " · " + t.Format("Jan 2, 2006")
	}
	source := previewSourceStyle.Render(meta)

	if e.PersonaName == "" {
		return lipgloss.JoinVertical(lipgloss.Left, title, source)
	}
	persona := e.PersonaName
	if e.PersonaRole != "" {
		persona += ", " + e.PersonaRole
	}
	byline := previewPersonaStyle.Width(width).Render("roasted by " + persona)
	return lipgloss.JoinVertical(lipgloss.Left, title, source, byline)
}

// renderPreview lays out the selected entry. body is the rendered roast; an
// empty body falls back to the raw markdown wrapped at width.
func renderPreview(e *cache.Entry, label, body string, width, height, scroll int) string {
	if e == nil {
		return centerText("Select a roast", width, height)
	}

	contentWidth := max(width-2, 10)

	if body == "" {
		body = previewBodyStyle.Width(contentWidth).Render(wrapText(e.Roast, contentWidth))
	}
	link := previewLinkStyle.Width(contentWidth).Render("Original: " + e.Link)

	content := lipgloss.JoinVertical(lipgloss.Left, previewHeader(*e, label, contentWidth), "", body, "", link)

	lines := strings.Split(content, "\n")
	if scroll > 0 && scroll < len(lines) {
		lines = lines[scroll:]
	}
	if len(lines) < height {
		lines = append(lines, make([]string, height-len(lines))...)
	} else if len(lines) > height {
		lines = lines[:height]
	}
	return strings.Join(lines, "\n")
}

// wrapText word-wraps s, keeping paragraph breaks.
func wrapText(s string, width int) string {
	if width <= 0 {
		return s
	}
	var out []string
	for _, para := range strings.Split(s, "\n\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			continue
		}
		line := words[0]
		var lines []string
		for _, w := range words[1:] {
			if len(line)+1+len(w) > width {
				lines = append(lines, line)
				line = w
			} else {
				line += " " + w
			}
		}
		lines = append(lines, line)
		out = append(out, strings.Join(lines, "\n"))
	}
	return strings.Join(out, "\n\n")
}
