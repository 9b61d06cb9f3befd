package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/alecthomas/kong"
	tea "github.com/charmbracelet/bubbletea"
	isatty "github.com/mattn/go-isatty"
)

type runCmd struct{}

type versionCmd struct{}

var cli struct {
	Prompt string `short:"p" help:"Send one message to the assistant and print the reply"`
	Yes    bool   `help:"With --prompt, confirm the action the assistant proposes"`
	Debug  bool   `help:"Enable debug logging"`

	Run        runCmd        `cmd:"" default:"1" help:"Run the interactive chat"`
	Login      loginCmd      `cmd:"" help:"Sign in to Housegur"`
	Logout     logoutCmd     `cmd:"" help:"Sign out and forget the local conversation (a session set through HGCHAT_SESSION stays active until the variable is unset)"`
	Properties propertiesCmd `cmd:"" help:"List the property catalogue"`
	Holdings   holdingsCmd   `cmd:"" help:"List your property tokens"`
	Buy        buyCmd        `cmd:"" help:"Buy property tokens"`
	Sell       sellCmd       `cmd:"" help:"Sell property tokens"`
	History    historyCmd    `cmd:"" help:"Print the stored conversation"`
	Update     updateCmd     `cmd:"" help:"Update hgchat to the latest release"`
	Version    versionCmd    `cmd:"version" help:"Print version information"`
}

// Update the version as part of the version release process
var version = "0.1.0"

// errNotLoggedIn is returned by commands that need a session
var errNotLoggedIn = errors.New("no active session, run `hgchat login` first")

func (v versionCmd) Run() error {
	fmt.Printf("hgchat v%s\n", version)
	return nil
}

func (r *runCmd) Run(ctx context.Context) error {
	// Check if we are running in a terminal
	if !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsTerminal(os.Stdin.Fd()) {
		fmt.Println("This program requires a terminal to run.")
		fmt.Println("Use `hgchat -p <message>` for non-interactive use.")
		return nil
	}

	var program *tea.Program
	return withApp(appMode{Interactive: true, Debug: cli.Debug}, func() error {
		slog.Debug("starting TUI")
		if _, err := program.Run(); err != nil {
			return fmt.Errorf("alas, there's been an error: %w", err)
		}
		return nil
	}, &program)
}

// runPrompt sends a single message and prints the assistant's answer. With
// confirm set, an action proposed in that answer is confirmed right away.
func runPrompt(ctx context.Context, prompt string, confirm bool) error {
	var (
		sessions  *SessionStore
		history   *ChatHistory
		assistant *AssistantClient
	)
	return withApp(appMode{Debug: cli.Debug}, func() error {
		widget := NewWidget(sessions, history, assistant, newConsolePresenter(os.Stdout))
		defer widget.Close()

		if widget.Session() == nil {
			return errNotLoggedIn
		}
		if !widget.Send(ctx, prompt) {
			return errors.New("nothing to send")
		}
		widget.Wait()

		if confirm && widget.Pending() != nil {
			widget.Confirm(ctx)
			widget.Wait()
		}
		return nil
	}, &sessions, &history, &assistant)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	kctx := kong.Parse(&cli,
		kong.Name("hgchat"),
		kong.Description("Chat with the Housegur assistant from the terminal."),
		kong.BindTo(ctx, (*context.Context)(nil)),
	)

	var err error
	if cli.Prompt != "" {
		// Non-interactive mode
		err = runPrompt(ctx, cli.Prompt, cli.Yes)
	} else {
		err = kctx.Run()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}
