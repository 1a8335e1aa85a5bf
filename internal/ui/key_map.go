package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	search    key.Binding
	mood      key.Binding
	similar   key.Binding
	play      key.Binding
	pause     key.Binding
	stop      key.Binding
	rewind    key.Binding
	forward   key.Binding
	volUp     key.Binding
	volDown   key.Binding
	add       key.Binding
	remove    key.Binding
	switchTab key.Binding
	back      key.Binding
	quit      key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		search:    key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
		mood:      key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "mood mix")),
		similar:   key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "similar")),
		play:      key.NewBinding(key.WithKeys("enter", " "), key.WithHelp("enter", "play")),
		pause:     key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "pause")),
		stop:      key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "stop")),
		rewind:    key.NewBinding(key.WithKeys("left"), key.WithHelp("←", "-5s")),
		forward:   key.NewBinding(key.WithKeys("right"), key.WithHelp("→", "+5s")),
		volUp:     key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "vol up")),
		volDown:   key.NewBinding(key.WithKeys("-"), key.WithHelp("-", "vol down")),
		add:       key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add")),
		remove:    key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "remove")),
		switchTab: key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "switch view")),
		back:      key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
		quit:      key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.search, k.play, k.pause, k.add, k.switchTab, k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.search, k.mood, k.similar},
		{k.play, k.pause, k.stop, k.rewind, k.forward},
		{k.volUp, k.volDown},
		{k.add, k.remove, k.switchTab, k.quit},
	}
}
