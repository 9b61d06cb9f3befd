package main

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

const toastTimeout = 3 * time.Second

// Command represents a : command
type Command struct {
	Name        string
	Description string
	Handler     func(*TUIModel, []string) tea.Cmd
}

// CommandRegistry holds all available commands
type CommandRegistry struct {
	Commands map[string]Command
	order    []string
}

func normalizeCommandName(name string) string {
	if name == "" {
		return ""
	}
	if strings.HasPrefix(name, ":") {
		return "/" + strings.TrimPrefix(name, ":")
	}
	return name
}

// NewCommandRegistry creates a new command registry
func NewCommandRegistry() CommandRegistry {
	registry := CommandRegistry{
		Commands: make(map[string]Command),
	}

	registry.RegisterCommand("/confirm", "Confirmar la acción pendiente", handleConfirmCommand)
	registry.RegisterCommand("/cancel", "Cancelar la acción pendiente", handleCancelCommand)
	registry.RegisterCommand("/clear", "Borrar el historial de esta conversación", handleClearCommand)
	registry.RegisterCommand("/export", "Exportar la conversación y abrirla en $EDITOR", handleExportCommand)
	registry.RegisterCommand("/logout", "Cerrar sesión y borrar el historial", handleLogoutCommand)
	registry.RegisterCommand("/help", "Mostrar la ayuda", handleHelpCommand)
	registry.RegisterCommand("/quit", "Salir", handleQuitCommand)

	return registry
}

// RegisterCommand registers a new command
func (cr *CommandRegistry) RegisterCommand(name, description string, handler func(*TUIModel, []string) tea.Cmd) {
	normalized := normalizeCommandName(name)
	if normalized == "" {
		return
	}
	if _, exists := cr.Commands[normalized]; !exists {
		cr.order = append(cr.order, normalized)
	}
	cr.Commands[normalized] = Command{
		Name:        normalized,
		Description: description,
		Handler:     handler,
	}
}

// GetCommand gets a command by name
func (cr CommandRegistry) GetCommand(name string) (Command, bool) {
	cmd, exists := cr.Commands[normalizeCommandName(name)]
	return cmd, exists
}

// FindCommand finds commands by prefix (like vim).
// Returns the command when exactly one matches, plus every match.
func (cr CommandRegistry) FindCommand(prefix string) (exactMatch Command, matches []string, found bool) {
	normalized := normalizeCommandName(prefix)
	if normalized == "" {
		return Command{}, nil, false
	}

	if cmd, exists := cr.Commands[normalized]; exists {
		return cmd, []string{normalized}, true
	}

	var matched []string
	searchPrefix := strings.TrimPrefix(normalized, "/")
	for _, name := range cr.order {
		if strings.HasPrefix(strings.TrimPrefix(name, "/"), searchPrefix) {
			matched = append(matched, name)
		}
	}

	if len(matched) == 1 {
		return cr.Commands[matched[0]], matched, true
	}
	return Command{}, matched, false
}

// GetAllCommands returns all registered commands
func (cr CommandRegistry) GetAllCommands() []Command {
	var commands []Command
	for _, name := range cr.order {
		if cmd, ok := cr.Commands[name]; ok {
			commands = append(commands, cmd)
		}
	}
	return commands
}

// executeCommand runs a : command line such as "confirm" or "h"
func (m *TUIModel) executeCommand(line string) tea.Cmd {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}

	cmd, matches, found := m.commandRegistry.FindCommand(":" + fields[0])
	if !found {
		if len(matches) > 1 {
			m.commandLine.AddToast(fmt.Sprintf("Comando ambiguo: %s", strings.Join(matches, ", ")), "warning", toastTimeout)
		} else {
			m.commandLine.AddToast(fmt.Sprintf("Comando desconocido: %s", fields[0]), "error", toastTimeout)
		}
		return nil
	}

	slog.Debug("command", "name", cmd.Name)
	return cmd.Handler(m, fields[1:])
}

// Command handlers

func handleConfirmCommand(model *TUIModel, args []string) tea.Cmd {
	model.confirmAction()
	return nil
}

func handleCancelCommand(model *TUIModel, args []string) tea.Cmd {
	model.cancelAction()
	return nil
}

func handleClearCommand(model *TUIModel, args []string) tea.Cmd {
	if err := model.widget.ClearHistory(); err != nil {
		if errors.Is(err, ErrBusy) {
			model.commandLine.AddToast("Espera a que termine la respuesta", "warning", toastTimeout)
		} else {
			slog.Warn("clear history failed", "error", err)
			model.commandLine.AddToast("No se pudo borrar el historial", "error", toastTimeout)
		}
		return nil
	}
	model.commandLine.AddToast("Historial borrado", "success", toastTimeout)
	return nil
}

func handleExportCommand(model *TUIModel, args []string) tea.Cmd {
	sess := model.widget.Session()
	if sess == nil {
		return nil
	}
	return exportAndEdit(sess, model.widget.Messages())
}

func handleLogoutCommand(model *TUIModel, args []string) tea.Cmd {
	if err := model.widget.Logout(); err != nil {
		slog.Warn("logout incomplete", "error", err)
		model.commandLine.AddToast("Sesión cerrada con errores, revisa el log", "error", toastTimeout)
	}
	return nil
}

func handleHelpCommand(model *TUIModel, args []string) tea.Cmd {
	model.showHelp = true
	return nil
}

func handleQuitCommand(model *TUIModel, args []string) tea.Cmd {
	if model.showHelp {
		model.showHelp = false
		return nil
	}
	return tea.Quit
}
