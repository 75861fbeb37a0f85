package tui

import (
	"fmt"
	"sort"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/matheuskafuri/dbroast/internal/browser"
	"github.com/matheuskafuri/dbroast/internal/cache"
)

type focusPane int

const (
	focusList focusPane = iota
	focusPreview
)

type mode int

const (
	modeNormal mode = iota
	modeSearch
	modeFilter
	modeHelp
)

// renderKey identifies a rendered roast by its markdown and wrap width.
type renderKey struct {
	roast string
	width int
}

type App struct {
	all      []cache.Entry
	entries  []cache.Entry
	label    func(cache.Entry) string
	cursor   int
	focus    focusPane
	mode     mode
	style    string
	openLink func(string) error

	width  int
	height int

	searchInput textinput.Model
	filterBar   filterBar

	rendered      map[renderKey]string
	previewScroll int
	err           error
}

// RunOpts holds all parameters for launching the browser.
type RunOpts struct {
	// Entries are shown in the order given, newest first from cache.Entries.
	Entries []cache.Entry
	// FeedName maps a feed URL to its display name. Optional.
	FeedName func(url string) string
	// Style is a glamour standard style. Empty picks dark or light from the
	// terminal background.
	Style string
}

func NewApp(opts RunOpts) *App {
	ti := textinput.New()
	ti.Placeholder = "Search roasts..."
	ti.Prompt = searchPromptStyle.Render("/ ")
	ti.CharLimit = 100

	name := opts.FeedName
	if name == nil {
		name = func(url string) string { return url }
	}
	label := func(e cache.Entry) string { return name(e.OriginalFeed) }

	style := opts.Style
	if style == "" {
		style = "light"
		if lipgloss.HasDarkBackground() {
			style = "dark"
		}
	}

	return &App{
		all:         opts.Entries,
		entries:     opts.Entries,
		label:       label,
		style:       style,
		openLink:    browser.Open,
		searchInput: ti,
		filterBar:   newFilterBar(feedLabels(opts.Entries, label)),
		rendered:    make(map[renderKey]string),
	}
}

// feedLabels returns the distinct feed labels of entries, sorted.
func feedLabels(entries []cache.Entry, label func(cache.Entry) string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, e := range entries {
		l := label(e)
		if !seen[l] {
			seen[l] = true
			out = append(out, l)
		}
	}
	sort.Strings(out)
	return out
}

func (a *App) Init() tea.Cmd {
	return nil
}

func (a *App) selected() *cache.Entry {
	if len(a.entries) == 0 || a.cursor >= len(a.entries) {
		return nil
	}
	return &a.entries[a.cursor]
}

func (a *App) previewWidth() int {
	listWidth := int(float64(a.width) * 0.35)
	return a.width - listWidth - 1 - 6
}

// renderSelectedCmd renders the selected roast in the background unless it is
// already rendered at the current width.
func (a *App) renderSelectedCmd() tea.Cmd {
	e := a.selected()
	if e == nil || a.width == 0 {
		return nil
	}
	key := renderKey{roast: e.Roast, width: max(a.previewWidth(), 20)}
	if _, ok := a.rendered[key]; ok {
		return nil
	}
	style := a.style
	return func() tea.Msg {
		out, err := renderMarkdown(key.roast, style, key.width)
		if err != nil {
			return nil
		}
		return renderedMsg{key: key, out: out}
	}
}

func (a *App) applyFilters() tea.Cmd {
	a.entries = filterEntries(a.all, a.label, a.filterBar.activeFeeds(), a.searchInput.Value())
	if a.cursor >= len(a.entries) {
		a.cursor = max(0, len(a.entries)-1)
	}
	a.previewScroll = 0
	return a.renderSelectedCmd()
}

func (a *App) openCmd(url string) tea.Cmd {
	open := a.openLink
	return func() tea.Msg {
		if err := open(url); err != nil {
			return openErrMsg{err: err}
		}
		return nil
	}
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		return a, a.renderSelectedCmd()

	case tea.KeyMsg:
		a.err = nil
		return a.handleKey(msg)

	case renderedMsg:
		a.rendered[msg.key] = msg.out
		return a, nil

	case openErrMsg:
		a.err = msg.err
		return a, nil
	}

	return a, nil
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return a, tea.Quit
	}

	switch a.mode {
	case modeSearch:
		return a.handleSearchKey(msg)
	case modeFilter:
		return a.handleFilterKey(msg)
	case modeHelp:
		switch msg.String() {
		case "?", "esc", "q":
			a.mode = modeNormal
		}
		return a, nil
	}

	switch msg.String() {
	case "q":
		return a, tea.Quit
	case "j", "down":
		if a.focus == focusList && a.cursor < len(a.entries)-1 {
			a.cursor++
			a.previewScroll = 0
			return a, a.renderSelectedCmd()
		} else if a.focus == focusPreview {
			a.previewScroll++
		}
		return a, nil
	case "k", "up":
		if a.focus == focusList && a.cursor > 0 {
			a.cursor--
			a.previewScroll = 0
			return a, a.renderSelectedCmd()
		} else if a.focus == focusPreview && a.previewScroll > 0 {
			a.previewScroll--
		}
		return a, nil
	case "g", "home":
		a.cursor = 0
		a.previewScroll = 0
		return a, a.renderSelectedCmd()
	case "G", "end":
		a.cursor = max(0, len(a.entries)-1)
		a.previewScroll = 0
		return a, a.renderSelectedCmd()
	case "tab":
		if a.focus == focusList {
			a.focus = focusPreview
		} else {
			a.focus = focusList
		}
		return a, nil
	case "o", "enter":
		if e := a.selected(); e != nil {
			return a, a.openCmd(e.Link)
		}
		return a, nil
	case "/":
		a.mode = modeSearch
		a.searchInput.Focus()
		return a, textinput.Blink
	case "f":
		a.mode = modeFilter
		a.filterBar.filterMode = true
		return a, nil
	case "?":
		a.mode = modeHelp
		return a, nil
	}

	return a, nil
}

func (a *App) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		a.mode = modeNormal
		a.searchInput.SetValue("")
		a.searchInput.Blur()
		return a, a.applyFilters()
	case "enter":
		a.mode = modeNormal
		a.searchInput.Blur()
		return a, a.applyFilters()
	}

	var cmd tea.Cmd
	a.searchInput, cmd = a.searchInput.Update(msg)
	return a, cmd
}

func (a *App) handleFilterKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "f":
		a.mode = modeNormal
		a.filterBar.filterMode = false
		return a, nil
	case "left", "h":
		if a.filterBar.filterCursor > 0 {
			a.filterBar.filterCursor--
		}
		return a, nil
	case "right", "l":
		if a.filterBar.filterCursor < len(a.filterBar.feeds)-1 {
			a.filterBar.filterCursor++
		}
		return a, nil
	case " ", "enter":
		a.filterBar.toggleCurrent()
		a.cursor = 0
		return a, a.applyFilters()
	case "1", "2", "3", "4", "5", "6", "7", "8", "9":
		idx := int(msg.String()[0] - '1')
		if idx < len(a.filterBar.feeds) {
			a.filterBar.toggle(a.filterBar.feeds[idx])
			a.cursor = 0
			return a, a.applyFilters()
		}
		return a, nil
	}
	return a, nil
}

func (a *App) View() string {
	if a.width == 0 {
		return headerStyle.Render("dbroast")
	}

	if a.mode == modeHelp {
		return a.renderHelp()
	}

	contentHeight := max(a.height-3-4, 3)
	listWidth := int(float64(a.width) * 0.35)
	previewWidth := a.width - listWidth - 1

	headerLeft := headerStyle.Render("dbroast")
	headerRight := headerDateStyle.Render(fmt.Sprintf("%d roasted", len(a.all)))
	gap := max(a.width-lipgloss.Width(headerLeft)-lipgloss.Width(headerRight), 0)
	header := headerLeft + fmt.Sprintf("%*s", gap, "") + headerRight

	filter := a.filterBar.render(a.width)
	if a.mode == modeSearch {
		filter = a.searchInput.View()
	}

	listContent := renderList(a.entries, a.label, a.cursor, contentHeight, listWidth-4)
	listStyle := listPaneStyle
	if a.focus == focusList {
		listStyle = listPaneActiveStyle
	}
	listPane := listStyle.Width(listWidth - 2).Height(contentHeight).Render(listContent)

	var label, body string
	sel := a.selected()
	if sel != nil {
		label = a.label(*sel)
		body = a.rendered[renderKey{roast: sel.Roast, width: max(a.previewWidth(), 20)}]
	}
	previewContent := renderPreview(sel, label, body, previewWidth-4, contentHeight, a.previewScroll)
	previewStyle := previewPaneStyle
	if a.focus == focusPreview {
		previewStyle = previewPaneActiveStyle
	}
	previewPane := previewStyle.Width(previewWidth - 2).Height(contentHeight).Render(previewContent)

	content := lipgloss.JoinHorizontal(lipgloss.Top, listPane, previewPane)

	status := renderStatusBar(len(a.entries), len(a.all), a.filterBar.activeLabel(), a.searchInput.Value(), a.width, a.mode == modeSearch)
	if a.err != nil {
		status = errorStyle.Render(a.err.Error())
	}

	return lipgloss.JoinVertical(lipgloss.Left, header, filter, content, status)
}

func (a *App) renderHelp() string {
	title := headerStyle.Render("dbroast")
	dim := helpDimStyle

	help := title + dim.Render(" keyboard shortcuts") + "\n\n" +
		dim.Render("Navigation") + "\n" +
		"  j/k, ↑/↓      Move through roasts\n" +
		"  g/G           First / last roast\n" +
		"  tab           Switch focus between list and preview\n\n" +
		dim.Render("Actions") + "\n" +
		"  o, enter      Open the original article\n" +
		"  /             Search titles, personas and roasts\n" +
		"  f             Toggle feed filter mode\n\n" +
		dim.Render("Filter Mode") + "\n" +
		"  ←/→, h/l      Move between feeds\n" +
		"  space/enter   Toggle feed\n" +
		"  1-9           Toggle feed by number\n" +
		"  esc, f        Exit filter mode\n\n" +
		dim.Render("General") + "\n" +
		"  ?             Toggle this help\n" +
		"  q, ctrl+c     Quit"

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, helpCardStyle.Render(help))
}

// Run starts the browser and blocks until the user quits.
func Run(opts RunOpts) error {
	p := tea.NewProgram(NewApp(opts), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
