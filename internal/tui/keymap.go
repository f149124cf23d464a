package tui

import "fmt"

// KeyMap defines the keyboard shortcuts displayed in the footer.
type KeyMap struct {
	Kill      string
	ForceKill string
	Refresh   string
	Quit      string
}

// DefaultKeyMap returns the default shortcut mapping.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Kill:      "k",
		ForceKill: "K",
		Refresh:   "r",
		Quit:      "q",
	}
}

// HelpLine renders the footer help text.
func (k KeyMap) HelpLine() string {
	return fmt.Sprintf("[%s] terminate  [%s/9] force kill  [%s] refresh  [%s] quit",
		k.Kill, k.ForceKill, k.Refresh, k.Quit)
}
