package tracker

import (
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds the tracker daemon configuration. Runtime settings live in
// the store, not here.
type Config struct {
	DBPath string       `yaml:"db_path"`
	Listen string       `yaml:"listen"`
	API    APIConfig    `yaml:"api"`
	Notify NotifyConfig `yaml:"notify"`
}

// APIConfig controls the HTTP surface.
type APIConfig struct {
	// TokenHash is a bcrypt hash of the bearer token. Empty disables auth.
	TokenHash      string   `yaml:"token_hash"`
	CORSOrigins    []string `yaml:"cors_origins"`
	MaxImportBytes int64    `yaml:"max_import_bytes"`
}

// NotifyConfig selects where notifications go besides the log.
type NotifyConfig struct {
	WebhookURL   string `yaml:"webhook_url"`
	AllowPrivate bool   `yaml:"allow_private"`
}

func (c *Config) defaults() {
	if c.DBPath == "" {
		c.DBPath = "jobtrack.db"
	}
	if c.Listen == "" {
		c.Listen = "127.0.0.1:8787"
	}
	if c.API.MaxImportBytes <= 0 {
		c.API.MaxImportBytes = 8 << 20
	}
}

// LoadConfigFile reads a YAML config file.
func LoadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
