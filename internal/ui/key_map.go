package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	up       key.Binding
	down     key.Binding
	enter    key.Binding
	back     key.Binding
	next     key.Binding
	quick    key.Binding
	mode     key.Binding
	add      key.Binding
	del      key.Binding
	title    key.Binding
	start    key.Binding
	end      key.Binding
	custom   key.Binding
	preset   key.Binding
	format   key.Binding
	generate key.Binding
	save     key.Binding
	open     key.Binding
	copy     key.Binding
	toggle   key.Binding
	restart  key.Binding
	quit     key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		enter:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "select")),
		back:     key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		next:     key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "next")),
		quick:    key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "quick (AI)")),
		mode:     key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "mode")),
		add:      key.NewBinding(key.WithKeys("+"), key.WithHelp("+", "add")),
		del:      key.NewBinding(key.WithKeys("-", "x"), key.WithHelp("-", "delete")),
		title:    key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "title")),
		start:    key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "start")),
		end:      key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "end")),
		custom:   key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "custom colors")),
		preset:   key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "size preset")),
		format:   key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "format")),
		generate: key.NewBinding(key.WithKeys("g"), key.WithHelp("g", "generate")),
		save:     key.NewBinding(key.WithKeys("w"), key.WithHelp("w", "save")),
		open:     key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "preview")),
		copy:     key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy")),
		toggle:   key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "toggle")),
		restart:  key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "restart")),
		quit:     key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.back, k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down, k.enter, k.back},
		{k.next, k.quick, k.generate, k.save},
		{k.copy, k.restart, k.quit},
	}
}
