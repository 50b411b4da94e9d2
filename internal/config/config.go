// Package config loads the service configuration from a TOML file.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
)

const (
	DefaultConfigPath     = "config.toml"
	DefaultLogLevel       = "info"
	DefaultLogFormat      = "text"
	DefaultDatabasePath   = "lmgram.db"
	DefaultBackendBaseURL = "http://localhost:1234/v1"
	DefaultModel          = "llava"
	DefaultTimeoutSecs    = 180
	DefaultVisionSecs     = 240
	DefaultMaxTokens      = 400
	DefaultVisionTokens   = 500
	DefaultTemperature    = 0.7
	DefaultTopP           = 1.0
	DefaultHistoryChars   = 12000
)

type Config struct {
	Log      LogConfig      `toml:"log"`
	Telegram TelegramConfig `toml:"telegram"`
	Backend  BackendConfig  `toml:"backend"`
	History  HistoryConfig  `toml:"history"`
	Database DatabaseConfig `toml:"database"`
}

type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

type TelegramConfig struct {
	BotToken string `toml:"bot_token" validate:"required"`
}

type BackendConfig struct {
	BaseURL           string  `toml:"base_url" validate:"required,url"`
	Model             string  `toml:"model" validate:"required"`
	TimeoutSeconds    int     `toml:"timeout_seconds" validate:"gt=0"`
	VisionTimeoutSecs int     `toml:"vision_timeout_seconds" validate:"gt=0"`
	MaxTokens         int     `toml:"max_tokens" validate:"gt=0"`
	VisionMaxTokens   int     `toml:"vision_max_tokens" validate:"gt=0"`
	Temperature       float64 `toml:"temperature" validate:"gte=0"`
	TopP              float64 `toml:"top_p" validate:"gt=0,lte=1"`
}

type HistoryConfig struct {
	MaxChars int `toml:"max_chars" validate:"gt=0"`
}

type DatabaseConfig struct {
	Path string `toml:"path" validate:"required"`
}

func defaults() Config {
	return Config{
		Log: LogConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
		Backend: BackendConfig{
			BaseURL:           DefaultBackendBaseURL,
			Model:             DefaultModel,
			TimeoutSeconds:    DefaultTimeoutSecs,
			VisionTimeoutSecs: DefaultVisionSecs,
			MaxTokens:         DefaultMaxTokens,
			VisionMaxTokens:   DefaultVisionTokens,
			Temperature:       DefaultTemperature,
			TopP:              DefaultTopP,
		},
		History: HistoryConfig{
			MaxChars: DefaultHistoryChars,
		},
		Database: DatabaseConfig{
			Path: DefaultDatabasePath,
		},
	}
}

// Load reads the config file at path over the defaults. A missing file is
// fine; the bot token may also come from the TELEGRAM_BOT_TOKEN environment
// variable, which wins over the file.
func Load(path string) (Config, error) {
	cfg := defaults()
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if _, err := toml.DecodeFile(path, &cfg); err != nil {
				return Config{}, fmt.Errorf("decoding config file: %w", err)
			}
		} else if !os.IsNotExist(err) {
			return Config{}, fmt.Errorf("reading config file: %w", err)
		}
	}
	if token := os.Getenv("TELEGRAM_BOT_TOKEN"); token != "" {
		cfg.Telegram.BotToken = token
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
