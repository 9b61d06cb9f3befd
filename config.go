package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	koanftoml "github.com/knadh/koanf/parsers/toml/v2"
	koanfenv "github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	koanf "github.com/knadh/koanf/v2"
)

const (
	envPrefix = "HGCHAT_"

	defaultWebhookURL = "https://palasino.app.n8n.cloud/webhook/housegur-chat"
	defaultAPIBaseURL = "https://housegur-api.up.railway.app"
)

// Config represents the application configuration structure
type Config struct {
	Storage   StorageConfig   `koanf:"storage"`
	Logging   LoggingConfig   `koanf:"logging"`
	UI        UIConfig        `koanf:"ui"`
	Assistant AssistantConfig `koanf:"assistant"`
	API       APIConfig       `koanf:"api"`
	History   HistoryConfig   `koanf:"history"`
	Session   SessionConfig   `koanf:"session"`
}

// StorageConfig holds storage configuration
type StorageConfig struct {
	DatabasePath string `koanf:"database_path"` // Path to SQLite database
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// AssistantConfig points at the chat webhook
type AssistantConfig struct {
	WebhookURL string `koanf:"webhook_url"`
	// Timeout of a single exchange. Zero keeps the transport default.
	Timeout time.Duration `koanf:"timeout"`
}

// APIConfig points at the Housegur REST API
type APIConfig struct {
	BaseURL string        `koanf:"base_url"`
	Timeout time.Duration `koanf:"timeout"`
}

// HistoryConfig holds chat history configuration
type HistoryConfig struct {
	MaxMessages int `koanf:"max_messages"` // 0 keeps everything
}

// SessionConfig selects where the signed-in identity is kept
type SessionConfig struct {
	Backend string `koanf:"backend"` // sqlite or keyring
}

// UIConfig holds UI-specific configuration
type UIConfig struct {
	MarkdownEnabled bool `koanf:"markdown_enabled"`
}

// defaultConfig returns the configuration populated with sensible defaults.
func defaultConfig() Config {
	homeDir, _ := os.UserHomeDir()
	dbPath := filepath.Join(homeDir, ".local", "share", "hgchat", "hgchat.sqlite")

	return Config{
		Storage: StorageConfig{
			DatabasePath: dbPath,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Assistant: AssistantConfig{
			WebhookURL: defaultWebhookURL,
		},
		API: APIConfig{
			BaseURL: defaultAPIBaseURL,
			Timeout: 30 * time.Second,
		},
		History: HistoryConfig{
			MaxMessages: 0,
		},
		Session: SessionConfig{
			Backend: "sqlite",
		},
		UI: UIConfig{
			MarkdownEnabled: true,
		},
	}
}

// LoadConfig loads configuration from multiple sources. Later sources win:
// defaults, user config, project config, .env, then HGCHAT_* variables.
func LoadConfig() (*Config, error) {
	k := koanf.New(".")

	homeDir, err := os.UserHomeDir()
	if err != nil {
		log.Printf("Failed to get user home directory: %v", err)
	} else {
		userConfigPath := filepath.Join(homeDir, ".config", "hgchat", "conf.toml")
		if err := loadConfigFile(k, userConfigPath); err != nil {
			log.Printf("Failed to load user config from %s: %v", userConfigPath, err)
		}
	}

	projectConfigPath := ".hgchat.toml"
	if err := loadConfigFile(k, projectConfigPath); err != nil {
		log.Printf("Failed to load project config from %s: %v", projectConfigPath, err)
	}

	// .env only fills variables that are not already set
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Failed to load .env: %v", err)
	}

	// HGCHAT_ASSISTANT_WEBHOOK_URL becomes "assistant.webhook_url"
	if err := k.Load(koanfenv.Provider(".", koanfenv.Opt{
		Prefix:        envPrefix,
		TransformFunc: envKey,
	}), nil); err != nil {
		log.Printf("Failed to load environment variables: %v", err)
	}

	config := defaultConfig()
	if err := k.Unmarshal("", &config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func loadConfigFile(k *koanf.Koanf, path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return k.Load(file.Provider(path), koanftoml.Parser())
}

// envKey maps HGCHAT_SECTION_SOME_KEY to section.some_key. Only the first
// underscore separates the section, so keys keep their own underscores.
func envKey(key, value string) (string, any) {
	if key == sessionEnvVar {
		return "", nil
	}
	key = strings.ToLower(strings.TrimPrefix(key, envPrefix))
	section, rest, found := strings.Cut(key, "_")
	if !found {
		return "", nil
	}
	return section + "." + rest, value
}

func (c *Config) validate() error {
	switch c.Session.Backend {
	case "", "sqlite", "keyring":
	default:
		return fmt.Errorf("invalid session.backend %q: expected sqlite or keyring", c.Session.Backend)
	}
	if c.History.MaxMessages < 0 {
		return fmt.Errorf("invalid history.max_messages %d: must not be negative", c.History.MaxMessages)
	}
	if c.Assistant.Timeout < 0 {
		return fmt.Errorf("invalid assistant.timeout %s: must not be negative", c.Assistant.Timeout)
	}
	return nil
}
