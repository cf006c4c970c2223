package formkit

import (
	"errors"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config containing all the configuration values for a service.
type Config struct {
	// Title of the service pages.
	Title string `yaml:"title"`
	// Port the web server listens on.
	Port uint16 `yaml:"port"`
	// Name of the session cookie.
	CookieName string `yaml:"cookie_name"`
	// Path of the sqlite file storing jobs and sessions.
	DBPath string `yaml:"db_path"`
	// Directory with stylesheets and scripts overriding the embedded assets.
	AssetsDir string `yaml:"assets_dir,omitempty"`
	// Number of launched jobs that can wait for the worker.
	QueueLength int `yaml:"queue_length"`
	// Serve Prometheus metrics on /metrics.
	Metrics bool `yaml:"metrics"`
	// Sessions idle for longer are closed.
	SessionTTL time.Duration `yaml:"session_ttl"`
	// Label of the launch button.
	LaunchLabel string `yaml:"launch_label"`
	// Directory file fields complete paths in.  Typed paths are relative to
	// it and cannot leave it.
	CompletionRoot string `yaml:"completion_root"`
}

// DefaultConfig returns the configuration used for values a config file does
// not set.
func DefaultConfig() Config {
	return Config{
		Title:          "formkit",
		Port:           3000,
		CookieName:     "formkit-session",
		DBPath:         "./formkit.db",
		QueueLength:    100,
		Metrics:        true,
		SessionTTL:     24 * time.Hour,
		LaunchLabel:    "Launch",
		CompletionRoot: ".",
	}
}

// LoadConfig reads a Config from a file path on top of DefaultConfig.
func LoadConfig(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	cfg := DefaultConfig()
	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Save writes the Config to a file path.
func (c *Config) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := yaml.NewEncoder(f)
	enc.SetIndent(2)
	return enc.Encode(c)
}

// Validate checks the configuration for required fields and valid values.
func (c *Config) Validate() error {
	if c.Port == 0 {
		return errors.New("port must be set")
	}
	if c.CookieName == "" {
		return errors.New("cookie name must be set")
	}
	if c.DBPath == "" {
		return errors.New("database path must be set")
	}
	if c.QueueLength < 0 {
		return errors.New("queue length must not be negative")
	}
	if c.SessionTTL <= 0 {
		return errors.New("session TTL must be positive")
	}
	if c.CompletionRoot == "" {
		return errors.New("completion root must be set")
	}
	return nil
}
