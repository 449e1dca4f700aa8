package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// TomlServer represents the HTTP server configuration
type TomlServer struct {
	Address       string `toml:"address"`
	StoreTimeout  string `toml:"store_timeout"`
	SessionSecure bool   `toml:"session_secure"`
}

// TomlDatabase selects the store driver. Driver is either "sqlite" or "postgres".
type TomlDatabase struct {
	Driver string `toml:"driver"`
	DSN    string `toml:"dsn"`
}

// TomlLog configures logrus
type TomlLog struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "text" or "json"
}

// TomlBlog seeds the preference row on init
type TomlBlog struct {
	Title          string `toml:"title"`
	Subtitle       string `toml:"subtitle"`
	Host           string `toml:"host"`
	TimeZone       string `toml:"time_zone"`
	Locale         string `toml:"locale"`
	FeedOutputMode string `toml:"feed_output_mode"`
}

// TomlConfig represents the top-level configuration
type TomlConfig struct {
	Server   TomlServer   `toml:"server"`
	Database TomlDatabase `toml:"database"`
	Log      TomlLog      `toml:"log"`
	Blog     TomlBlog     `toml:"blog"`
}

// Default returns the configuration used when no file is given
func Default() *TomlConfig {
	return &TomlConfig{
		Server: TomlServer{
			Address:      ":8080",
			StoreTimeout: "5s",
		},
		Database: TomlDatabase{
			Driver: "sqlite",
			DSN:    "solo.db",
		},
		Log: TomlLog{
			Level:  "info",
			Format: "text",
		},
		Blog: TomlBlog{
			Title:          "Solo",
			Subtitle:       "Java 开源博客",
			Host:           "localhost:8080",
			TimeZone:       "Asia/Shanghai",
			Locale:         "zh_CN",
			FeedOutputMode: "abstract",
		},
	}
}

// LoadConfig reads path on top of the defaults. Keys missing from the file keep
// their default value.
func LoadConfig(path string) (*TomlConfig, error) {
	config := Default()
	if path == "" {
		return config, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func (c *TomlConfig) validate() error {
	switch c.Database.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}

	if _, err := c.StoreTimeout(); err != nil {
		return err
	}

	switch c.Blog.FeedOutputMode {
	case "abstract", "fullContent":
	default:
		return fmt.Errorf("unsupported feed output mode %q", c.Blog.FeedOutputMode)
	}

	return nil
}

// StoreTimeout returns the deadline applied to each store call of a request
func (c *TomlConfig) StoreTimeout() (time.Duration, error) {
	d, err := time.ParseDuration(c.Server.StoreTimeout)
	if err != nil {
		return 0, fmt.Errorf("invalid store_timeout: %w", err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("store_timeout must be positive")
	}
	return d, nil
}
