package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
//
// Text fields swallow plain letters, so actions outside the history list use ctrl chords.
type keyMap struct {
	submit     key.Binding
	mode       key.Binding
	history    key.Binding
	account    key.Binding
	upgrade    key.Binding
	dismiss    key.Binding
	download   key.Binding
	open       key.Binding
	listSave   key.Binding
	listOpen   key.Binding
	nextField  key.Binding
	toggleAuth key.Binding
	back       key.Binding
	quit       key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		submit:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "submit")),
		mode:       key.NewBinding(key.WithKeys("ctrl+f"), key.WithHelp("ctrl+f", "url/file")),
		history:    key.NewBinding(key.WithKeys("ctrl+p"), key.WithHelp("ctrl+p", "history")),
		account:    key.NewBinding(key.WithKeys("ctrl+l"), key.WithHelp("ctrl+l", "log in/out")),
		upgrade:    key.NewBinding(key.WithKeys("ctrl+u"), key.WithHelp("ctrl+u", "upgrade")),
		dismiss:    key.NewBinding(key.WithKeys("ctrl+x"), key.WithHelp("ctrl+x", "dismiss")),
		download:   key.NewBinding(key.WithKeys("ctrl+d"), key.WithHelp("ctrl+d", "download")),
		open:       key.NewBinding(key.WithKeys("ctrl+o"), key.WithHelp("ctrl+o", "open link")),
		listSave:   key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "download")),
		listOpen:   key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "open link")),
		nextField:  key.NewBinding(key.WithKeys("tab", "shift+tab"), key.WithHelp("tab", "next field")),
		toggleAuth: key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("ctrl+r", "log in/register")),
		back:       key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		quit:       key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.submit, k.history, k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.submit, k.mode, k.history},
		{k.account, k.upgrade, k.dismiss},
		{k.download, k.open, k.quit},
	}
}
