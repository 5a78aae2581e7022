package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the decision prompt.
type keyMap struct {
	accept key.Binding
	manual key.Binding
	list   key.Binding
	skip   key.Binding
	enter  key.Binding
	back   key.Binding
	quit   key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		accept: key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "accept suggestion")),
		manual: key.NewBinding(key.WithKeys("u"), key.WithHelp("u", "enter id/url")),
		list:   key.NewBinding(key.WithKeys("l"), key.WithHelp("l", "list alternatives")),
		skip:   key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "skip")),
		enter:  key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "confirm")),
		back:   key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		quit:   key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "skip")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.accept, k.manual, k.list, k.skip}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.accept, k.manual},
		{k.list, k.skip},
		{k.enter, k.back},
	}
}
