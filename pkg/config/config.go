package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig             `json:"server" yaml:"server"`
	Database DatabaseConfig           `json:"database" yaml:"database"`
	LLM      LLMConfig                `json:"llm" yaml:"llm"`
	Scanners map[string]ScannerConfig `json:"scanners" yaml:"scanners"`
	History  HistoryConfig            `json:"history" yaml:"history"`
	Logging  LoggingConfig            `json:"logging" yaml:"logging"`
}

type ServerConfig struct {
	Addr         string `json:"addr" yaml:"addr"`
	CookieSecure bool   `json:"cookie_secure" yaml:"cookie_secure"`
}

type DatabaseConfig struct {
	Driver string `json:"driver" yaml:"driver"`
	DSN    string `json:"dsn" yaml:"dsn"`
}

type LLMConfig struct {
	Provider   string   `json:"provider" yaml:"provider"`
	Model      string   `json:"model" yaml:"model"`
	BaseURL    string   `json:"base_url" yaml:"base_url"`
	APIKey     string   `json:"api_key" yaml:"api_key"`
	Prompt     string   `json:"prompt" yaml:"prompt"`
	MaxRetries int      `json:"max_retries" yaml:"max_retries"`
	Timeout    Duration `json:"timeout" yaml:"timeout"`
}

type ScannerConfig struct {
	Command      string   `json:"command" yaml:"command"`
	Args         []string `json:"args" yaml:"args"`
	Timeout      Duration `json:"timeout" yaml:"timeout"`
	SuccessCodes []int    `json:"success_codes" yaml:"success_codes"`
}

type HistoryConfig struct {
	Limit int `json:"limit" yaml:"limit"`
}

type LoggingConfig struct {
	Level  string `json:"level" yaml:"level"`
	Format string `json:"format" yaml:"format"`
}

var (
	supportedProviders = []string{"openai", "ollama"}
	supportedDrivers   = []string{"sqlite", "postgres"}
	supportedFormats   = []string{"json", "console"}
)

func Default() *Config {
	return &Config{
		Server: ServerConfig{Addr: ":8080"},
		Database: DatabaseConfig{
			Driver: "sqlite",
			DSN:    filepath.Join("data", "securecode.db"),
		},
		LLM: LLMConfig{
			Provider:   "openai",
			Model:      "gpt-4o-mini",
			Prompt:     "default",
			MaxRetries: 3,
			Timeout:    Duration(2 * time.Minute),
		},
		Scanners: map[string]ScannerConfig{
			"python": {
				Command:      "bandit",
				Args:         []string{"-f", "txt", "{file}"},
				Timeout:      Duration(time.Minute),
				SuccessCodes: []int{1},
			},
		},
		History: HistoryConfig{Limit: 100},
		Logging: LoggingConfig{Level: "info", Format: "json"},
	}
}

// LoadConfig reads a JSON or YAML file over the defaults and applies
// environment overrides. An empty filename loads only the defaults.
func LoadConfig(filename string) (*Config, error) {
	config := Default()

	if filename != "" {
		data, err := os.ReadFile(filename)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		switch strings.ToLower(filepath.Ext(filename)) {
		case ".yaml", ".yml":
			err = yaml.Unmarshal(data, config)
		default:
			err = json.Unmarshal(data, config)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	config.applyEnv(os.Getenv)

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *Config) applyEnv(getenv func(string) string) {
	if v := getenv("OPENAI_API_KEY"); v != "" && c.LLM.APIKey == "" {
		c.LLM.APIKey = v
	}
	if v := getenv("SECURECODE_DATABASE_DRIVER"); v != "" {
		c.Database.Driver = v
	}
	if v := getenv("SECURECODE_DATABASE_DSN"); v != "" {
		c.Database.DSN = v
	}
	if v := getenv("SECURECODE_ADDR"); v != "" {
		c.Server.Addr = v
	}
}

func (c *Config) Validate() error {
	if !slices.Contains(supportedProviders, c.LLM.Provider) {
		return fmt.Errorf("unsupported llm provider %q (supported: %s)", c.LLM.Provider, strings.Join(supportedProviders, ", "))
	}
	if !slices.Contains(supportedDrivers, c.Database.Driver) {
		return fmt.Errorf("unsupported database driver %q (supported: %s)", c.Database.Driver, strings.Join(supportedDrivers, ", "))
	}
	if c.Database.DSN == "" {
		return fmt.Errorf("database dsn is required")
	}
	if c.Logging.Format != "" && !slices.Contains(supportedFormats, c.Logging.Format) {
		return fmt.Errorf("unsupported log format %q", c.Logging.Format)
	}
	if c.LLM.MaxRetries < 0 {
		return fmt.Errorf("llm max_retries must not be negative")
	}
	for lang, sc := range c.Scanners {
		if sc.Command == "" {
			return fmt.Errorf("scanner for %s has no command", lang)
		}
	}
	return nil
}

// Duration reads "90s" style strings or a number of seconds.
type Duration time.Duration

func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d *Duration) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	return d.set(v)
}

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var v any
	if err := node.Decode(&v); err != nil {
		return err
	}
	return d.set(v)
}

func (d *Duration) set(v any) error {
	switch val := v.(type) {
	case string:
		parsed, err := time.ParseDuration(val)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", val, err)
		}
		*d = Duration(parsed)
	case float64:
		*d = Duration(time.Duration(val * float64(time.Second)))
	case int:
		*d = Duration(time.Duration(val) * time.Second)
	default:
		return fmt.Errorf("invalid duration %v", v)
	}
	return nil
}
