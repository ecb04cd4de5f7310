package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ScraperConfig holds general scraper settings.
type ScraperConfig struct {
	// Workers caps concurrent detail fetches: a number, "0" for no cap, or "auto".
	Workers        string        `yaml:"workers"`
	Headless       bool          `yaml:"headless"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	DetailTimeout  time.Duration `yaml:"detail_timeout"`
	UserAgent      string        `yaml:"user_agent"`
}

// ServerConfig holds the API server settings.
type ServerConfig struct {
	Addr   string `yaml:"addr"`
	ApiKey string `yaml:"api_key"`
}

// Config is the complete structure for the config.yml file.
type Config struct {
	Scraper ScraperConfig `yaml:"scraper"`
	Server  ServerConfig  `yaml:"server"`
}

// Default returns the settings used for anything config.yml leaves out.
func Default() *Config {
	return &Config{
		Scraper: ScraperConfig{
			Workers:        "auto",
			Headless:       true,
			RequestTimeout: 30 * time.Second,
			DetailTimeout:  15 * time.Second,
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
	}
}

// Load reads a YAML config over the defaults. A missing file is not an error.
func Load(filepath string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(filepath)
	if errors.Is(err, fs.ErrNotExist) {
		log.Printf("Config file %s not found, using defaults", filepath)
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config YAML: %w", err)
	}
	if cfg.Scraper.Workers == "" {
		cfg.Scraper.Workers = "auto"
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	return cfg, nil
}

// LoadConfig is Load for commands: any error is fatal.
func LoadConfig(filepath string) *Config {
	cfg, err := Load(filepath)
	if err != nil {
		log.Fatalf("%v", err)
	}
	return cfg
}
