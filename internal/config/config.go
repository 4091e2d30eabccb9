// Package config loads the YAML run configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultDataDir is where the store lives unless configured otherwise
const DefaultDataDir = "~/.local/share/campus-events"

// APIKeyEnv names the environment variable holding the OpenAI key
const APIKeyEnv = "OPENAI_API_KEY"

type OpenAIConfig struct {
	Enabled bool   `yaml:"enabled"`
	Model   string `yaml:"model"`
	BaseURL string `yaml:"base_url"` // optional, for compatible endpoints
	APIKey  string `yaml:"-"`        // from OPENAI_API_KEY only
}

type FetchConfig struct {
	Timeout    time.Duration `yaml:"timeout"`
	MaxRetries int           `yaml:"max_retries"`
	Backoff    time.Duration `yaml:"backoff"` // initial backoff
	UserAgent  string        `yaml:"user_agent"`
}

// TelegramEnv names the environment variable holding the bot token
const TelegramEnv = "TELEGRAM_BOT_TOKEN"

type TelegramConfig struct {
	Enabled  bool   `yaml:"enabled"`
	ChatID   string `yaml:"chat_id"`
	BotToken string `yaml:"-"` // from TELEGRAM_BOT_TOKEN only
}

// NotifyConfig selects where new events are announced. Twitter
// credentials are read from the environment by the notifier itself.
type NotifyConfig struct {
	Telegram TelegramConfig `yaml:"telegram"`
	Twitter  struct {
		Enabled bool `yaml:"enabled"`
	} `yaml:"twitter"`
}

type Config struct {
	DataDir      string       `yaml:"data_dir"`
	PatternsFile string       `yaml:"patterns_file"` // optional Pattern Tables override
	Concurrency  int          `yaml:"concurrency"`
	LogLevel     string       `yaml:"log_level"`
	Sources      []string     `yaml:"sources"`
	OpenAI       OpenAIConfig `yaml:"openai"`
	Fetch        FetchConfig  `yaml:"fetch"`
	Notify       NotifyConfig `yaml:"notify"`
}

// Default returns the configuration used when no file is given
func Default() Config {
	return Config{
		DataDir:     DefaultDataDir,
		Concurrency: 4,
		LogLevel:    "info",
		OpenAI: OpenAIConfig{
			Model: "gpt-4o-mini",
		},
		Fetch: FetchConfig{
			Timeout:    30 * time.Second,
			MaxRetries: 3,
			Backoff:    500 * time.Millisecond,
		},
	}
}

// Load reads path over the defaults. An empty path or a missing file
// yields the defaults. The OpenAI key always comes from the environment.
func Load(path string) (Config, error) {
	c := Default()

	if path != "" {
		b, err := os.ReadFile(expandHome(path))
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return Config{}, fmt.Errorf("reading config: %w", err)
		default:
			if err := yaml.Unmarshal(b, &c); err != nil {
				return Config{}, fmt.Errorf("parsing config: %w", err)
			}
		}
	}

	c.OpenAI.APIKey = os.Getenv(APIKeyEnv)
	c.Notify.Telegram.BotToken = os.Getenv(TelegramEnv)
	c.DataDir = expandHome(c.DataDir)
	c.PatternsFile = expandHome(c.PatternsFile)

	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate fills zero values that have a sane default and rejects the rest
func (c *Config) Validate() error {
	if c.DataDir == "" {
		c.DataDir = expandHome(DefaultDataDir)
	}
	if c.Concurrency <= 0 {
		c.Concurrency = 1
	}
	if c.Fetch.Timeout < 0 {
		return fmt.Errorf("fetch.timeout must not be negative: %s", c.Fetch.Timeout)
	}
	if c.Fetch.MaxRetries < 0 {
		return fmt.Errorf("fetch.max_retries must not be negative: %d", c.Fetch.MaxRetries)
	}
	if c.Notify.Telegram.Enabled && c.Notify.Telegram.ChatID == "" {
		return errors.New("notify.telegram.chat_id is required when telegram is enabled")
	}
	for i, src := range c.Sources {
		src = strings.TrimSpace(src)
		if !strings.HasPrefix(src, "http://") && !strings.HasPrefix(src, "https://") {
			return fmt.Errorf("sources[%d]: not an http(s) URL: %q", i, src)
		}
		c.Sources[i] = src
	}
	return nil
}

// AIEnabled reports whether the OpenAI categorizer can be used
func (c Config) AIEnabled() bool {
	return c.OpenAI.Enabled && c.OpenAI.APIKey != ""
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}
