// Package config loads application configuration from file, environment,
// and flags via viper.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config holds all runtime settings for the routing engine.
type Config struct {
	Database DatabaseConfig
	Engine   EngineConfig
	Server   ServerConfig
	Logging  LoggingConfig
}

// DatabaseConfig configures the SQLite store.
type DatabaseConfig struct {
	Path string
}

// EngineConfig configures routing behavior. The confidence threshold and
// lookup timeout are tunable; 70 is a heuristic default, not a contract.
type EngineConfig struct {
	ConfidenceThreshold int
	LookupTimeout       time.Duration
	Workers             int
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr string
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	Level  string
	Format string
}

// SetDefaults registers default values on the global viper instance.
func SetDefaults() {
	viper.SetDefault("database.path", defaultDatabasePath())
	viper.SetDefault("engine.confidence_threshold", 70)
	viper.SetDefault("engine.lookup_timeout", "3s")
	viper.SetDefault("engine.workers", 4)
	viper.SetDefault("server.addr", ":8080")
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "console")
}

// Load reads the resolved configuration out of viper.
func Load() (*Config, error) {
	cfg := &Config{
		Database: DatabaseConfig{
			Path: viper.GetString("database.path"),
		},
		Engine: EngineConfig{
			ConfidenceThreshold: viper.GetInt("engine.confidence_threshold"),
			LookupTimeout:       viper.GetDuration("engine.lookup_timeout"),
			Workers:             viper.GetInt("engine.workers"),
		},
		Server: ServerConfig{
			Addr: viper.GetString("server.addr"),
		},
		Logging: LoggingConfig{
			Level:  viper.GetString("logging.level"),
			Format: viper.GetString("logging.format"),
		},
	}

	if cfg.Engine.ConfidenceThreshold < 0 || cfg.Engine.ConfidenceThreshold > 100 {
		return nil, fmt.Errorf("engine.confidence_threshold must be between 0 and 100")
	}

	return cfg, nil
}

func defaultDatabasePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "ledgerroute.db"
	}
	return filepath.Join(home, ".local", "share", "ledgerroute", "ledgerroute.db")
}
