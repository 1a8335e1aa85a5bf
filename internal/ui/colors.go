package ui

import (
	"github.com/charmbracelet/lipgloss"
)

var styles = NewPalette("#1DB954", "#04B575", "#FF5F87", "#FFA500", "#626262")

// struct Palette is a simple stylesheet built with named [lipgloss.Style] fields
type Palette struct {
	title   lipgloss.Style
	tab     lipgloss.Style
	active  lipgloss.Style
	playing lipgloss.Style
	err     lipgloss.Style
	warn    lipgloss.Style
	help    lipgloss.Style
	footer  lipgloss.Style
}

func NewPalette(accent, ok, e, w, muted string) *Palette {
	return &Palette{
		title:   NewBold(accent).MarginBottom(1),
		tab:     NewStyle(muted).Padding(0, 1),
		active:  NewBold(accent).Padding(0, 1).Underline(true),
		playing: NewBold(ok),
		err:     NewBold(e),
		warn:    NewStyle(w),
		help:    NewEm(muted),
		footer: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder(), true, false, false, false).
			BorderForeground(lipgloss.Color(muted)).
			PaddingTop(0),
	}
}

func NewStyle(fg string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(fg))
}

func NewBold(fg string) lipgloss.Style {
	return NewStyle(fg).Bold(true)
}

func NewEm(fg string) lipgloss.Style {
	return NewStyle(fg).Italic(true)
}
