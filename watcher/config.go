package watcher

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config configures the page watcher.
type Config struct {
	// TrackerURL is the base URL of the jobtrack daemon.
	TrackerURL string `yaml:"tracker_url"`
	// Token is the bearer token sent to the daemon, if it requires one.
	Token string `yaml:"token"`

	// StartURLs are opened in one tab each.
	StartURLs []string `yaml:"start_urls"`

	// RemoteURL is the WebSocket URL of an already running Chrome. Empty
	// launches a local one.
	RemoteURL string `yaml:"remote_url"`
	Headful   bool   `yaml:"headful"`

	// PollInterval is how often each tab's URL is compared with the last
	// one seen.
	PollInterval time.Duration `yaml:"poll_interval"`
	NavTimeout   time.Duration `yaml:"nav_timeout"`
	CallTimeout  time.Duration `yaml:"call_timeout"`
}

func (c *Config) defaults() {
	if c.TrackerURL == "" {
		c.TrackerURL = "http://127.0.0.1:8787"
	}
	if c.PollInterval <= 0 {
		c.PollInterval = time.Second
	}
	if c.NavTimeout <= 0 {
		c.NavTimeout = 30 * time.Second
	}
	if c.CallTimeout <= 0 {
		c.CallTimeout = 5 * time.Second
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
