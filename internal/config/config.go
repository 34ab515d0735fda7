package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults applied before the config file and environment are read.
const (
	DefaultAPIBaseURL = "http://localhost:8080/rag/api/v1"
	DefaultTimeout    = 30 * time.Second
	DefaultModel      = "local"
	DefaultAddr       = ":8080"
	DefaultBasePath   = "/rag/api/v1"
)

// Config is the contents of config.yaml.
type Config struct {
	// APIBaseURL is the template service root, e.g. http://host/rag/api/v1.
	APIBaseURL string        `yaml:"api_base_url"`
	Token      string        `yaml:"token"`
	Timeout    time.Duration `yaml:"timeout"`
	Model      string        `yaml:"model"`
	Server     ServerConfig  `yaml:"server"`
}

// ServerConfig configures `ragprompt serve`.
type ServerConfig struct {
	Addr         string   `yaml:"addr"`
	BasePath     string   `yaml:"base_path"`
	SettingsFile string   `yaml:"settings_file"`
	UserTokens   []string `yaml:"user_tokens"`
	AdminTokens  []string `yaml:"admin_tokens"`
}

// Default returns a Config populated with defaults.
func Default() *Config {
	return &Config{
		APIBaseURL: DefaultAPIBaseURL,
		Timeout:    DefaultTimeout,
		Model:      DefaultModel,
		Server: ServerConfig{
			Addr:     DefaultAddr,
			BasePath: DefaultBasePath,
		},
	}
}

// Load reads the config file at path over the defaults, then applies
// environment overrides. An empty path means DefaultPath, and a missing
// default file is not an error; a missing explicit path is.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}

	if path != "" {
		err := cfg.readFile(path)
		if err != nil && (explicit || !errors.Is(err, fs.ErrNotExist)) {
			return nil, err
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) readFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing config %s: %w", path, err)
	}
	return nil
}

// applyEnv overrides file values with RAGPROMPT_* environment variables.
func (c *Config) applyEnv() error {
	if v := os.Getenv("RAGPROMPT_API_BASE_URL"); v != "" {
		c.APIBaseURL = v
	}
	if v := os.Getenv("RAGPROMPT_TOKEN"); v != "" {
		c.Token = v
	}
	if v := os.Getenv("RAGPROMPT_MODEL"); v != "" {
		c.Model = v
	}
	if v := os.Getenv("RAGPROMPT_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("RAGPROMPT_TIMEOUT"); v != "" {
		timeout, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parsing RAGPROMPT_TIMEOUT: %w", err)
		}
		c.Timeout = timeout
	}
	return nil
}

// Validate checks values that would otherwise fail late.
func (c *Config) Validate() error {
	if c.APIBaseURL != "" {
		parsed, err := url.Parse(c.APIBaseURL)
		if err != nil || parsed.Scheme == "" || parsed.Host == "" {
			return fmt.Errorf("api_base_url %q must be an absolute URL", c.APIBaseURL)
		}
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative, got %s", c.Timeout)
	}
	if c.Server.BasePath != "" && !strings.HasPrefix(c.Server.BasePath, "/") {
		return fmt.Errorf("server.base_path %q must start with /", c.Server.BasePath)
	}
	return nil
}
