package main

import "github.com/charmbracelet/bubbles/key"

// keyMap holds the chat key bindings
type keyMap struct {
	Submit  key.Binding
	Confirm key.Binding
	Cancel  key.Binding
	Command key.Binding
	Quit    key.Binding
	Scroll  key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "enviar mensaje"),
		),
		Confirm: key.NewBinding(
			key.WithKeys("ctrl+y"),
			key.WithHelp("ctrl+y", "confirmar acción"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("ctrl+n"),
			key.WithHelp("ctrl+n", "cancelar acción"),
		),
		Command: key.NewBinding(
			key.WithKeys(":"),
			key.WithHelp(":", "comando (con el mensaje vacío)"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c ×2", "salir"),
		),
		Scroll: key.NewBinding(
			key.WithKeys("pgup", "pgdown", "ctrl+home", "ctrl+end"),
			key.WithHelp("pgup/pgdown", "desplazar"),
		),
	}
}

// bindings lists the bindings shown in help
func (k keyMap) bindings() []key.Binding {
	return []key.Binding{k.Submit, k.Confirm, k.Cancel, k.Command, k.Scroll, k.Quit}
}
