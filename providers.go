package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/housegur/hgchat/api"
	"github.com/housegur/hgchat/storage"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

// multiHandler wraps multiple handlers and writes to all of them
type multiHandler struct {
	handlers []slog.Handler
}

func (m *multiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	// Enable if any handler is enabled
	for _, h := range m.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (m *multiHandler) Handle(ctx context.Context, r slog.Record) error {
	for _, h := range m.handlers {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil {
			return err
		}
	}
	return nil
}

func (m *multiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	handlers := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		handlers[i] = h.WithAttrs(attrs)
	}
	return &multiHandler{handlers: handlers}
}

func (m *multiHandler) WithGroup(name string) slog.Handler {
	handlers := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		handlers[i] = h.WithGroup(name)
	}
	return &multiHandler{handlers: handlers}
}

// appMode tells providers whether the terminal belongs to the TUI
type appMode struct {
	Interactive bool
	Debug       bool
}

// LoggerParams holds parameters for logger creation
type LoggerParams struct {
	fx.In
	Config *Config
	Mode   appMode
}

// LoggerResult holds the configured logger
type LoggerResult struct {
	fx.Out
	Logger *slog.Logger
}

// ProvideLogger creates the rotating file logger and installs it as default.
// Outside the TUI, warnings are also written to stderr.
func ProvideLogger(params LoggerParams) (LoggerResult, error) {
	logPath, err := getLogFilePath()
	if err != nil {
		return LoggerResult{}, err
	}

	// Set up lumberjack for log rotation
	logFile := &lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
		Compress:   true,
	}

	level := parseLogLevel(params.Config.Logging.Level)
	if params.Mode.Debug {
		level = slog.LevelDebug
	}

	handler := newLogHandler(logFile, params.Config.Logging.Format, level)
	if !params.Mode.Interactive {
		handler = &multiHandler{handlers: []slog.Handler{
			handler,
			slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}),
		}}
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)

	return LoggerResult{Logger: logger}, nil
}

func getLogFilePath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	logDir := filepath.Join(homeDir, ".local", "share", "hgchat")
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create log directory %s: %w", logDir, err)
	}
	return filepath.Join(logDir, "hgchat.log"), nil
}

func newLogHandler(w io.Writer, format string, level slog.Level) slog.Handler {
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(format, "json") {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}

func parseLogLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// ProvideConfig loads the application configuration
func ProvideConfig() (*Config, error) {
	config, err := LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return config, nil
}

// StorageParams holds parameters for storage initialization
type StorageParams struct {
	fx.In
	Lifecycle fx.Lifecycle
	Config    *Config
	Logger    *slog.Logger
}

// StorageResult holds the storage initialization result
type StorageResult struct {
	fx.Out
	DB *storage.DB
}

// ProvideStorage initializes the SQLite storage database
func ProvideStorage(params StorageParams) (StorageResult, error) {
	params.Logger.Info("initializing storage", "database_path", params.Config.Storage.DatabasePath)
	db, err := storage.InitDB(params.Config.Storage.DatabasePath)
	if err != nil {
		params.Logger.Error("failed to initialize storage", "error", err)
		return StorageResult{}, fmt.Errorf("failed to initialize storage: %w", err)
	}
	stats, err := db.Stats()
	if err != nil {
		params.Logger.Warn("failed to read storage stats", "error", err)
	}
	params.Logger.Info("storage initialized successfully", "stats", stats)

	// Register cleanup on shutdown
	params.Lifecycle.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			params.Logger.Info("closing storage")
			if err := db.Close(); err != nil {
				params.Logger.Error("failed to close storage", "error", err)
				return err
			}
			params.Logger.Info("storage closed successfully")
			return nil
		},
	})

	return StorageResult{DB: db}, nil
}

// ProvideSessionStore creates the session store over the configured backend
func ProvideSessionStore(db *storage.DB, config *Config, logger *slog.Logger) (*SessionStore, error) {
	logger.Info("opening session store", "backend", config.Session.Backend)
	return NewSessionStore(db, config.Session.Backend)
}

// ProvideChatHistory creates the per-user chat history
func ProvideChatHistory(db *storage.DB, config *Config) (*ChatHistory, error) {
	return NewChatHistory(db, config.History.MaxMessages)
}

// ProvideAssistant creates the assistant webhook client
func ProvideAssistant(config *Config, logger *slog.Logger) *AssistantClient {
	if config.Assistant.WebhookURL == "" {
		logger.Warn("assistant webhook not configured")
	}
	return NewAssistantClient(config.Assistant.WebhookURL, config.Assistant.Timeout)
}

// ProvideAPIClient creates the Housegur REST client
func ProvideAPIClient(config *Config) *api.Client {
	return api.New(config.API.BaseURL, config.API.Timeout)
}

// WidgetParams holds parameters for mounting the chat widget
type WidgetParams struct {
	fx.In
	Lifecycle fx.Lifecycle
	Sessions  *SessionStore
	History   *ChatHistory
	Assistant *AssistantClient
	Logger    *slog.Logger
}

// WidgetResult holds the mounted widget and the presenter it renders to
type WidgetResult struct {
	fx.Out
	Widget    *Widget
	Presenter *teaPresenter
}

// ProvideWidget mounts the chat widget on a bubbletea presenter
func ProvideWidget(params WidgetParams) WidgetResult {
	presenter := newTeaPresenter()
	widget := NewWidget(params.Sessions, params.History, params.Assistant, presenter)

	params.Lifecycle.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			params.Logger.Info("closing chat widget")
			widget.Close()
			presenter.Stop()
			return nil
		},
	})

	return WidgetResult{Widget: widget, Presenter: presenter}
}

// TUIModelParams holds parameters for TUI model creation
type TUIModelParams struct {
	fx.In
	Config    *Config
	Widget    *Widget
	Presenter *teaPresenter
}

// ProvideTUIModel creates and returns the TUI model
func ProvideTUIModel(params TUIModelParams) *TUIModel {
	return NewTUIModel(context.Background(), params.Config, params.Widget, params.Presenter)
}

// TUIProgramParams holds parameters for TUI program initialization
type TUIProgramParams struct {
	fx.In
	Model  *TUIModel
	Logger *slog.Logger
}

// StartTUI creates the TUI program
func StartTUI(params TUIProgramParams) *tea.Program {
	params.Logger.Info("creating TUI program")

	// Create the bubbletea program with alt screen and mouse support
	return tea.NewProgram(params.Model, tea.WithAltScreen(), tea.WithMouseCellMotion())
}

// appProviders builds the object graph shared by every command. Constructors
// are lazy: a command only pays for what it populates.
func appProviders(mode appMode) fx.Option {
	return fx.Options(
		fx.Supply(mode),
		fx.Provide(
			ProvideConfig,
			ProvideLogger,
			ProvideStorage,
			ProvideSessionStore,
			ProvideChatHistory,
			ProvideAssistant,
			ProvideAPIClient,
			ProvideWidget,
			ProvideTUIModel,
			StartTUI,
		),
		fx.WithLogger(func(logger *slog.Logger) fxevent.Logger {
			l := &fxevent.SlogLogger{Logger: logger}
			l.UseLogLevel(slog.LevelDebug)
			return l
		}),
	)
}

// withApp populates targets from the object graph, starts it, calls run and
// stops the graph again whatever run returned
func withApp(mode appMode, run func() error, targets ...any) error {
	app := fx.New(appProviders(mode), fx.Populate(targets...))
	if err := app.Err(); err != nil {
		return err
	}

	ctx := context.Background()
	if err := app.Start(ctx); err != nil {
		return err
	}
	runErr := run()
	if err := app.Stop(ctx); err != nil && runErr == nil {
		return err
	}
	return runErr
}
