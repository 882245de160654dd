package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Extractor ExtractorConfig
}

// ServerConfig holds HTTP settings.
type ServerConfig struct {
	Addr string
}

// DatabaseConfig holds sqlite settings.
type DatabaseConfig struct {
	Path string
}

// ExtractorConfig holds email extraction subprocess settings.
type ExtractorConfig struct {
	Python         string
	ExtractScript  string `mapstructure:"extract_script"`
	ProcessScript  string `mapstructure:"process_script"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// Load reads configuration from file and env. Env var overrides use prefix
// CENTIME_.
func Load() (Config, error) {
	v := viper.New()

	v.SetDefault("server.addr", ":5000")
	v.SetDefault("database.path", filepath.Join(os.Getenv("HOME"), ".local", "share", "centime", "centime.db"))
	v.SetDefault("extractor.python", "python3")
	v.SetDefault("extractor.extract_script", "scripts/extract_emails.py")
	v.SetDefault("extractor.process_script", "scripts/process_queue.py")
	v.SetDefault("extractor.timeout_seconds", 120)

	v.SetConfigType("toml")

	cfgPath := os.Getenv("CENTIME_CONFIG")
	if cfgPath != "" {
		v.SetConfigFile(cfgPath)
	} else {
		v.AddConfigPath(filepath.Join(os.Getenv("HOME"), ".config", "centime"))
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("CENTIME")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// read config file if present
	_ = v.ReadInConfig()

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return c, nil
}
