package oracle

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the oracle settings file, hot-reloadable via the
// reload_ai_config command or the file watcher.
type Config struct {
	APIURL     string        `yaml:"api_url"`
	Model      string        `yaml:"model"`
	PrimaryKey string        `yaml:"primary_key"`
	BackupKey  string        `yaml:"backup_key"`
	DailyLimit int           `yaml:"daily_limit"`
	Timeout    time.Duration `yaml:"timeout"`
	MaxTokens  int           `yaml:"max_tokens"`
}

// DefaultConfig returns built-in oracle settings. Credentials come from the
// environment when no file overrides them.
func DefaultConfig() Config {
	return Config{
		APIURL:     "https://api.groq.com/openai/v1/chat/completions",
		Model:      "llama-3.1-8b-instant",
		PrimaryKey: os.Getenv("AI_API_KEY"),
		BackupKey:  os.Getenv("AI_BACKUP_KEY"),
		DailyLimit: 1000,
		Timeout:    defaultTimeout,
		MaxTokens:  defaultMaxTokens,
	}
}

// LoadConfig loads oracle settings from a YAML file.
// Empty path or missing file returns defaults; invalid YAML is an error.
// File fields overlay the defaults, so a partial file is fine.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read oracle config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse oracle config: %w", err)
	}
	return cfg, nil
}
