package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/housegur/hgchat/api"
)

// Columns shown first in REST listings, when present
var (
	propertyColumns = []string{"id", "nombre", "name", "ubicacion", "location", "precio_token", "token_price", "tokens_disponibles"}
	holdingColumns  = []string{"property_id", "propiedad", "nombre", "tokens", "valor"}
	tradeColumns    = []string{"status", "transaction_id", "property_id", "tokens", "total"}
)

type loginCmd struct {
	Name  string `required:"" help:"Your name"`
	Email string `required:"" help:"Your email"`
}

func (c *loginCmd) Run(ctx context.Context) error {
	var (
		client   *api.Client
		sessions *SessionStore
	)
	return withApp(appMode{Debug: cli.Debug}, func() error {
		result, err := client.Login(ctx, c.Name, c.Email)
		if err != nil {
			return err
		}
		if err := sessions.SaveSession(Session{UserID: result.UserID, DisplayName: result.Name}); err != nil {
			return fmt.Errorf("failed to save session: %w", err)
		}
		fmt.Printf("Sesión iniciada como %s (#%s)\n", result.Name, result.UserID)
		return nil
	}, &client, &sessions)
}

type logoutCmd struct{}

func (c *logoutCmd) Run() error {
	var (
		sessions *SessionStore
		history  *ChatHistory
	)
	return withApp(appMode{Debug: cli.Debug}, func() error {
		if sessions.ResolveSession() == nil {
			fmt.Println("No hay ninguna sesión activa.")
			return nil
		}
		widget := NewWidget(sessions, history, nil, newConsolePresenter(io.Discard))
		if err := widget.Logout(); err != nil {
			return err
		}
		fmt.Println("Sesión cerrada.")
		if sessions.EnvOverride() {
			fmt.Fprintf(os.Stderr, "Aviso: %s sigue definida; la sesión se restaurará en la próxima ejecución.\n", sessionEnvVar)
		}
		return nil
	}, &sessions, &history)
}

type propertiesCmd struct{}

func (c *propertiesCmd) Run(ctx context.Context) error {
	var client *api.Client
	return withApp(appMode{Debug: cli.Debug}, func() error {
		rows, err := client.Properties(ctx)
		if err != nil {
			return err
		}
		printRows(os.Stdout, rows, propertyColumns, "No hay propiedades disponibles.")
		return nil
	}, &client)
}

type holdingsCmd struct{}

func (c *holdingsCmd) Run(ctx context.Context) error {
	var (
		client   *api.Client
		sessions *SessionStore
	)
	return withApp(appMode{Debug: cli.Debug}, func() error {
		sess := sessions.ResolveSession()
		if sess == nil {
			return errNotLoggedIn
		}
		rows, err := client.Holdings(ctx, sess.UserID)
		if err != nil {
			return err
		}
		printRows(os.Stdout, rows, holdingColumns, "Todavía no tienes tokens.")
		return nil
	}, &client, &sessions)
}

// tradeFlags are shared by buy and sell
type tradeFlags struct {
	Property string `required:"" help:"Property id"`
	Tokens   int    `required:"" help:"Number of tokens"`
}

type buyCmd struct {
	tradeFlags
}

func (c *buyCmd) Run(ctx context.Context) error {
	return runTrade(ctx, c.tradeFlags, (*api.Client).Buy)
}

type sellCmd struct {
	tradeFlags
}

func (c *sellCmd) Run(ctx context.Context) error {
	return runTrade(ctx, c.tradeFlags, (*api.Client).Sell)
}

func runTrade(ctx context.Context, flags tradeFlags, trade func(*api.Client, context.Context, api.Trade) (api.Row, error)) error {
	var (
		client   *api.Client
		sessions *SessionStore
	)
	return withApp(appMode{Debug: cli.Debug}, func() error {
		sess := sessions.ResolveSession()
		if sess == nil {
			return errNotLoggedIn
		}
		row, err := trade(client, ctx, api.Trade{
			UserID:     sess.UserID,
			PropertyID: flags.Property,
			Tokens:     flags.Tokens,
		})
		if err != nil {
			return err
		}
		printRows(os.Stdout, []api.Row{row}, tradeColumns, "")
		return nil
	}, &client, &sessions)
}

type historyCmd struct {
	Limit    int  `help:"Only print the last N messages" default:"0"`
	Markdown bool `help:"Print the conversation as a markdown document"`
}

func (c *historyCmd) Run() error {
	var (
		sessions *SessionStore
		history  *ChatHistory
	)
	return withApp(appMode{Debug: cli.Debug}, func() error {
		sess := sessions.ResolveSession()
		if sess == nil {
			return errNotLoggedIn
		}
		messages := history.Load(sess.UserID)
		if c.Limit > 0 && len(messages) > c.Limit {
			messages = messages[len(messages)-c.Limit:]
		}
		if c.Markdown {
			fmt.Print(formatConversation(sess, messages, time.Now()))
			return nil
		}
		printHistory(os.Stdout, messages)
		return nil
	}, &sessions, &history)
}

// printHistory writes a stored conversation, one message per block
func printHistory(w io.Writer, messages []Message) {
	if len(messages) == 0 {
		fmt.Fprintln(w, "No hay mensajes.")
		return
	}
	stamp := lipgloss.NewStyle().Foreground(globalTheme.MutedText)
	for _, msg := range messages {
		when := time.UnixMilli(msg.Timestamp).Format("2006-01-02 15:04")
		prefix := assistantPrefix
		if msg.Role == RoleUser {
			prefix = userPrefix + " "
		}
		fmt.Fprintf(w, "%s %s%s\n", stamp.Render(when), prefix, msg.Content)
	}
}

// printRows renders REST rows as a table. The preferred columns come first.
func printRows(w io.Writer, rows []api.Row, preferred []string, empty string) {
	if len(rows) == 0 {
		if empty != "" {
			fmt.Fprintln(w, empty)
		}
		return
	}
	fmt.Fprintln(w, rowsTable(rows, preferred).Render())
}

func rowsTable(rows []api.Row, preferred []string) *table.Table {
	columns := api.Columns(rows, preferred...)

	headers := make([]string, len(columns))
	for i, column := range columns {
		headers[i] = strings.ToUpper(strings.ReplaceAll(column, "_", " "))
	}

	data := make([][]string, 0, len(rows))
	for _, row := range rows {
		cells := make([]string, len(columns))
		for i, column := range columns {
			cells[i] = row.String(column)
		}
		data = append(data, cells)
	}

	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(globalTheme.Brand).Padding(0, 1)
	cellStyle := lipgloss.NewStyle().Foreground(globalTheme.TextColor).Padding(0, 1)

	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(globalTheme.DarkBorder)).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers(headers...).
		Rows(data...)
}
