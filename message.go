package main

// Role identifies the author of a chat message
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single entry in a conversation. Messages are never edited
// after they are appended.
type Message struct {
	Role      Role   `json:"role"`
	Content   string `json:"content"`
	Timestamp int64  `json:"timestamp"`

	// transient marks the in-progress placeholder, which is never persisted
	// nor sent to the assistant.
	transient bool
}

// Transient reports whether m is the in-progress placeholder
func (m Message) Transient() bool {
	return m.transient
}

// PendingAction is an assistant-proposed operation awaiting confirmation
type PendingAction struct {
	Description string
	// Payload is the action object exactly as the assistant sent it
	Payload map[string]any
}

// Label is the text shown in the action panel
func (a *PendingAction) Label() string {
	if a.Description == "" {
		return defaultActionLabel
	}
	return a.Description
}

// DispatchState tracks whether a request to the assistant is in flight
type DispatchState int

const (
	StateIdle DispatchState = iota
	StateSending
)

func (s DispatchState) String() string {
	switch s {
	case StateSending:
		return "sending"
	default:
		return "idle"
	}
}

// User-facing texts. The product speaks Spanish.
const (
	placeholderText     = "⏳ Procesando..."
	cancelledText       = "Acción cancelada."
	noWebhookText       = "❌ Webhook no configurado."
	noReplyText         = "Sin respuesta"
	invalidReplyText    = "❌ Error: respuesta inválida"
	defaultActionLabel  = "Confirma tu acción"
	defaultConfirmLabel = "transacción"
	confirmPrefix       = "Confirmar: "
	loggedOutText       = "Por favor inicia sesión."
)
