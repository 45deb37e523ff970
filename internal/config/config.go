package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config models fieldline.yml.
type Config struct {
	API struct {
		BaseURL string `yaml:"base_url"`
		Token   string `yaml:"token"`
	} `yaml:"api"`
	PCO struct {
		ID   string `yaml:"id"`
		Name string `yaml:"name"`
	} `yaml:"pco"`
	Queue struct {
		DrainInterval   string `yaml:"drain_interval"`
		ReportPriority  int    `yaml:"report_priority"`
		DefaultPriority int    `yaml:"default_priority"`
	} `yaml:"queue"`
}

// Load reads and validates config from workspace.
func Load(workspace string) (*Config, error) {
	path := Path(workspace)
	cfg, err := FromFile(path)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("config %s not found; create it with fl config init", path)
	}
	return cfg, err
}

// LoadOptional returns nil,nil if the config file does not exist.
func LoadOptional(workspace string) (*Config, error) {
	cfg, err := FromFile(Path(workspace))
	if os.IsNotExist(err) {
		return nil, nil
	}
	return cfg, err
}

// Validate ensures the config meets required structure.
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("config.api.base_url is required")
	}
	if c.PCO.ID == "" {
		return fmt.Errorf("config.pco.id is required")
	}
	if c.Queue.DrainInterval != "" {
		if _, err := time.ParseDuration(c.Queue.DrainInterval); err != nil {
			return fmt.Errorf("config.queue.drain_interval: %w", err)
		}
	}
	if c.Queue.ReportPriority < 0 || c.Queue.DefaultPriority < 0 {
		return fmt.Errorf("queue priorities must not be negative")
	}
	return nil
}

// DrainInterval returns the parsed drain interval, defaulting to 30s.
func (c *Config) DrainInterval() time.Duration {
	if c.Queue.DrainInterval == "" {
		return 30 * time.Second
	}
	d, err := time.ParseDuration(c.Queue.DrainInterval)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// Path returns the config file path for a workspace.
func Path(workspace string) string {
	if workspace == "" {
		workspace = "."
	}
	return filepath.Join(workspace, "fieldline.yml")
}

// Default returns the default Config struct for a PCO.
func Default(pcoID string) *Config {
	var cfg Config
	_ = yaml.Unmarshal([]byte(fmt.Sprintf(defaultTemplate, pcoID)), &cfg)
	return &cfg
}

// GenerateDefault returns default config YAML.
func GenerateDefault(pcoID string) string {
	return fmt.Sprintf(defaultTemplate, pcoID)
}

// FromYAML parses and validates config from raw YAML bytes.
func FromYAML(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("invalid config yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// FromFile reads YAML config from the given path.
func FromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return FromYAML(data)
}

const defaultTemplate = `api:
  base_url: http://127.0.0.1:8080
  token: ""

pco:
  id: %s
  name: ""

queue:
  drain_interval: 30s
  report_priority: 2
  default_priority: 1
`
