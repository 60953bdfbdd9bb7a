package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the bot configuration. Values come from, in increasing order of
// precedence: defaults, the YAML file, DOADDOAD_* environment variables
// (optionally from .env files), and command line flags.
type Config struct {
	StateFile string          `yaml:"state_file"`
	Generator GeneratorConfig `yaml:"generator"`

	// Trim caps the corpus size on save; 0 keeps everything.
	Trim int `yaml:"trim"`
	// Language restricts generator input to posts in this language.
	Language  string `yaml:"lang"`
	MaxLength int    `yaml:"max_length"`

	// Refresh is how old the saved corpus may get before an update.
	Refresh time.Duration `yaml:"refresh"`
	// MaxUpdates caps how many follower timelines are read per update; 0
	// reads them all.
	MaxUpdates    int `yaml:"max_updates"`
	TimelineCount int `yaml:"timeline_count"`
	Concurrency   int `yaml:"concurrency"`

	Social SocialConfig `yaml:"social"`
	Feeds  []Feed       `yaml:"feeds"`

	LogFile string `yaml:"log_file"`
	Debug   bool   `yaml:"debug"`
	DryRun  bool   `yaml:"dry_run"`
}

// GeneratorConfig locates the external text generator.
type GeneratorConfig struct {
	Path    string        `yaml:"path"`
	Timeout time.Duration `yaml:"timeout"`
}

// SocialConfig holds the account the bot posts as.
type SocialConfig struct {
	Server            string  `yaml:"server"`
	AccessToken       string  `yaml:"access_token"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
}

// Feed is an RSS or Atom feed mixed into the corpus.
type Feed struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

// Default returns the stock configuration.
func Default() *Config {
	return &Config{
		StateFile: "doaddoad.db",
		Generator: GeneratorConfig{
			Path:    "/usr/bin/dadadodo",
			Timeout: 30 * time.Second,
		},
		Trim:          5000,
		MaxLength:     140,
		Refresh:       2 * time.Hour,
		TimelineCount: 20,
		Concurrency:   5,
		Social: SocialConfig{
			RequestsPerSecond: 1,
		},
	}
}

// Load reads the YAML file at path on top of the defaults, then applies
// environment overrides. A missing file is not an error. envFiles are
// dotenv files loaded first; missing ones are skipped and variables
// already set in the environment win.
func Load(path string, envFiles ...string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	if err := LoadEnvFiles(envFiles...); err != nil {
		return nil, err
	}
	cfg.ApplyEnv()
	return cfg, nil
}

// LoadEnvFiles loads the dotenv files that exist.
func LoadEnvFiles(files ...string) error {
	for _, file := range files {
		if _, err := os.Stat(file); err != nil {
			continue
		}
		if err := godotenv.Load(file); err != nil {
			return fmt.Errorf("load %s: %w", file, err)
		}
	}
	return nil
}

// ApplyEnv overrides fields from DOADDOAD_* environment variables.
func (c *Config) ApplyEnv() {
	c.Social.AccessToken = getEnv("DOADDOAD_ACCESS_TOKEN", c.Social.AccessToken)
	c.Social.Server = getEnv("DOADDOAD_SERVER", c.Social.Server)
	c.StateFile = getEnv("DOADDOAD_STATE_FILE", c.StateFile)
	c.Generator.Path = getEnv("DOADDOAD_GENERATOR", c.Generator.Path)
	c.Language = getEnv("DOADDOAD_LANG", c.Language)
	c.LogFile = getEnv("DOADDOAD_LOG_FILE", c.LogFile)
	c.Trim = getEnvInt("DOADDOAD_TRIM", c.Trim)
	c.Debug = getEnvBool("DOADDOAD_DEBUG", c.Debug)
}

// Validate rejects values no component can work with.
func (c *Config) Validate() error {
	var errs []error
	if c.StateFile == "" {
		errs = append(errs, errors.New("state file must be set"))
	}
	if c.Trim < 0 {
		errs = append(errs, fmt.Errorf("trim must not be negative, got %d", c.Trim))
	}
	if c.MaxLength <= 0 {
		errs = append(errs, fmt.Errorf("max length must be positive, got %d", c.MaxLength))
	}
	if c.Refresh < 0 {
		errs = append(errs, fmt.Errorf("refresh must not be negative, got %s", c.Refresh))
	}
	if c.Generator.Timeout < 0 {
		errs = append(errs, fmt.Errorf("generator timeout must not be negative, got %s", c.Generator.Timeout))
	}
	if c.MaxUpdates < 0 {
		errs = append(errs, fmt.Errorf("max updates must not be negative, got %d", c.MaxUpdates))
	}
	if c.TimelineCount < 0 || c.Concurrency < 0 {
		errs = append(errs, errors.New("timeline count and concurrency must not be negative"))
	}
	if c.Social.AccessToken != "" && c.Social.Server == "" {
		errs = append(errs, errors.New("social server must be set when an access token is"))
	}
	for i, f := range c.Feeds {
		if f.URL == "" {
			errs = append(errs, fmt.Errorf("feed %d (%q) has no url", i, f.Name))
		}
	}
	return errors.Join(errs...)
}

// HasSocial reports whether a social account is configured.
func (c *Config) HasSocial() bool {
	return c.Social.Server != "" && c.Social.AccessToken != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
