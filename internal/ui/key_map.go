package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	up       key.Binding
	down     key.Binding
	enter    key.Binding
	back     key.Binding
	favorite key.Binding
	comment  key.Binding
	remove   key.Binding
	play     key.Binding
	rating   key.Binding
	reload   key.Binding
	yes      key.Binding
	no       key.Binding
	quit     key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		enter:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open")),
		back:     key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		favorite: key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "favorite")),
		comment:  key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "comment")),
		remove:   key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete comment")),
		play:     key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "play")),
		rating:   key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "rating")),
		reload:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
		yes:      key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "yes")),
		no:       key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "no")),
		quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down, k.enter},
		{k.favorite, k.comment, k.remove, k.play},
		{k.back, k.reload, k.quit},
	}
}
