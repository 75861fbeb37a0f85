package tui

type openErrMsg struct {
	err error
}

// renderedMsg carries a roast rendered to terminal markdown at one width.
type renderedMsg struct {
	key renderKey
	out string
}
