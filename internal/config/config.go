// Package config loads the tool configuration: a YAML file layered
// under .env and environment-variable overrides, so an API key never
// has to live in a checked-in file.
package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Project struct {
		Root string `yaml:"root"`
		Out  string `yaml:"out"`
	} `yaml:"project"`
	AI struct {
		Provider string `yaml:"provider"` // "", "none", "gemini", "openai"
		Model    string `yaml:"model"`
		APIKey   string `yaml:"api_key"`
		BaseURL  string `yaml:"base_url"` // OpenAI-compatible endpoints only
	} `yaml:"ai"`
	Engine struct {
		Concurrency        int     `yaml:"concurrency"`
		FallbackConfidence float64 `yaml:"fallback_confidence"`
	} `yaml:"engine"`
	Equivalence struct {
		StructuralTolerance float64 `yaml:"structural_tolerance"`
		ElementTolerance    float64 `yaml:"element_tolerance"`
	} `yaml:"equivalence"`
	Backup struct {
		Limit int `yaml:"limit"`
	} `yaml:"backup"`
	History struct {
		Path string `yaml:"path"`
	} `yaml:"history"`
}

// LoadConfig reads the YAML file at path. A missing file is not an
// error; the zero config plus overrides is a valid setup for a run
// without AI assistance.
func LoadConfig(path string) (*Config, error) {
	// 1. Load .env if exists
	_ = godotenv.Load()

	var cfg Config

	// 2. Load YAML config
	file, err := os.ReadFile(path)
	if err == nil {
		if uerr := yaml.Unmarshal(file, &cfg); uerr != nil {
			return nil, uerr
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	// 3. Override with Environment Variables if present
	if apiKey := os.Getenv("STACKSHIFT_API_KEY"); apiKey != "" {
		cfg.AI.APIKey = apiKey
	}
	if provider := os.Getenv("STACKSHIFT_AI_PROVIDER"); provider != "" {
		cfg.AI.Provider = provider
	}
	if model := os.Getenv("STACKSHIFT_AI_MODEL"); model != "" {
		cfg.AI.Model = model
	}
	if baseURL := os.Getenv("STACKSHIFT_AI_BASE_URL"); baseURL != "" {
		cfg.AI.BaseURL = baseURL
	}
	if conc := os.Getenv("STACKSHIFT_CONCURRENCY"); conc != "" {
		if n, cerr := strconv.Atoi(conc); cerr == nil {
			cfg.Engine.Concurrency = n
		}
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Project.Root == "" {
		c.Project.Root = "."
	}
	if c.History.Path == "" {
		c.History.Path = "stackshift.db"
	}
}
