// Package keymap defines keybindings for the progress display.
package keymap

import (
	"github.com/charmbracelet/bubbles/key"
)

// KeyMap defines the keybindings.
type KeyMap struct {
	// Cancel stops the ingestion. Batches already upserted stay committed.
	Cancel key.Binding
}

// DefaultKeyMap returns the default keybindings.
func DefaultKeyMap() *KeyMap {
	return &KeyMap{
		Cancel: key.NewBinding(
			key.WithKeys("ctrl+c", "esc"),
			key.WithHelp("ctrl+c", "cancel"),
		),
	}
}

// RunningHelp returns the hints shown while ingesting.
func (k *KeyMap) RunningHelp() []key.Binding {
	return []key.Binding{k.Cancel}
}
