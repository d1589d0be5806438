package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var DefaultConfigYAML []byte

type Config struct {
	LLM        LLM        `yaml:"llm"`
	Images     Images     `yaml:"images"`
	Trends     Trends     `yaml:"trends"`
	Automation Automation `yaml:"automation"`
	Server     Server     `yaml:"server"`
	Security   Security   `yaml:"security"`
	Output     Output     `yaml:"output"`
	Logging    Logging    `yaml:"logging"`
}

type LLM struct {
	Provider        string `yaml:"provider"`
	Model           string `yaml:"model"`
	OllamaURL       string `yaml:"ollama_url"`
	OpenAIModel     string `yaml:"openai_model"`
	APIKeyEnv       string `yaml:"api_key_env"`
	AnthropicModel  string `yaml:"anthropic_model"`
	AnthropicKeyEnv string `yaml:"anthropic_key_env"`
	Language        string `yaml:"language"`
	MaxTokens       int    `yaml:"max_tokens"`
}

type Images struct {
	UnsplashKeyEnv string `yaml:"unsplash_key_env"`
	PexelsKeyEnv   string `yaml:"pexels_key_env"`
	SearchCount    int    `yaml:"search_count"`
}

type Trends struct {
	// Feeds are URL templates; "{query}" is replaced with the business category.
	Feeds        []string `yaml:"feeds"`
	MaxHeadlines int      `yaml:"max_headlines"`
}

type Automation struct {
	SimilarityThreshold float64 `yaml:"similarity_threshold"`
	MaxSelectAttempts   int     `yaml:"max_select_attempts"`
	HistoryLimit        int     `yaml:"history_limit"`
	Cron                string  `yaml:"cron"`
}

type Server struct {
	Port          int    `yaml:"port"`
	CronSecretEnv string `yaml:"cron_secret_env"`
}

type Security struct {
	SecretKeyEnv string `yaml:"secret_key_env"`
}

type Output struct {
	DataDir string `yaml:"data_dir"`
}

type Logging struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// ConfigDir returns the XDG config directory for bloggen.
func ConfigDir() string {
	return filepath.Join(homeDir(), ".config", "bloggen")
}

// DataDir returns the XDG data directory for bloggen.
func DataDir() string {
	return filepath.Join(homeDir(), ".local", "share", "bloggen")
}

// ResolveConfigPath finds the config file following priority:
// explicit path > ~/.config/bloggen/config.yaml > ./config.yaml
func ResolveConfigPath(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	xdgConfig := filepath.Join(ConfigDir(), "config.yaml")
	if _, err := os.Stat(xdgConfig); err == nil {
		return xdgConfig, nil
	}

	cwdConfig := "config.yaml"
	if _, err := os.Stat(cwdConfig); err == nil {
		return cwdConfig, nil
	}

	return "", fmt.Errorf(
		"no config file found; searched:\n  %s\n  ./config.yaml\n\nRun 'bloggen init' to create a default config",
		xdgConfig,
	)
}

// Load reads and parses a config YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return parse(data)
}

// parse parses YAML bytes into a Config, applying defaults.
func parse(data []byte) (*Config, error) {
	cfg := Default()

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// Default returns a Config populated with built-in defaults.
func Default() *Config {
	return &Config{
		LLM: LLM{
			Provider:        "openai",
			Model:           "qwen2.5:7b",
			OllamaURL:       "http://localhost:11434",
			OpenAIModel:     "gpt-4o-mini",
			APIKeyEnv:       "OPENAI_API_KEY",
			AnthropicModel:  "claude-3-5-haiku-latest",
			AnthropicKeyEnv: "ANTHROPIC_API_KEY",
			Language:        "Brazilian Portuguese",
			MaxTokens:       4096,
		},
		Images: Images{
			UnsplashKeyEnv: "UNSPLASH_ACCESS_KEY",
			PexelsKeyEnv:   "PEXELS_API_KEY",
			SearchCount:    5,
		},
		Trends: Trends{MaxHeadlines: 10},
		Automation: Automation{
			SimilarityThreshold: 0.5,
			MaxSelectAttempts:   5,
			HistoryLimit:        50,
		},
		Server:   Server{Port: 8000, CronSecretEnv: "CRON_SECRET"},
		Security: Security{SecretKeyEnv: "BLOGGEN_SECRET_KEY"},
		Logging:  Logging{Level: "INFO"},
	}
}

// GetDataDir returns the effective data directory from config or XDG default.
func (c *Config) GetDataDir() string {
	if c.Output.DataDir != "" {
		return c.Output.DataDir
	}
	return DataDir()
}

// CronSecret returns the shared trigger secret, or "" when the endpoint is open.
func (c *Config) CronSecret() string {
	if c.Server.CronSecretEnv == "" {
		return ""
	}
	return os.Getenv(c.Server.CronSecretEnv)
}

// SecretKey returns the raw credential encryption key material.
func (c *Config) SecretKey() string {
	if c.Security.SecretKeyEnv == "" {
		return ""
	}
	return os.Getenv(c.Security.SecretKeyEnv)
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
