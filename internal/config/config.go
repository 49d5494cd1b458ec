package config

import (
	"runtime"
	"time"

	"github.com/spf13/viper"
)

// Config represents the scanner configuration
type Config struct {
	// Scan settings
	Workers     int           `mapstructure:"workers"`      // number of worker goroutines
	MaxSize     string        `mapstructure:"max_size"`     // maximum file size to scan
	FileTimeout time.Duration `mapstructure:"file_timeout"` // per-file read+hash timeout, 0 disables
	Exclude     []string      `mapstructure:"exclude"`      // directories to exclude

	// Heuristic settings
	EntropyThreshold float64 `mapstructure:"entropy_threshold"` // suspicious at or above this value
	EntropyWindow    string  `mapstructure:"entropy_window"`    // prefix window for entropy on large files

	// Definition settings
	DefinitionsPath string `mapstructure:"definitions_path"` // path to definition YAML files

	// Vault settings
	VaultDir string `mapstructure:"vault_dir"` // quarantine vault root directory

	// Log settings
	LogsDir string `mapstructure:"logs_dir"` // event log directory
}

// LoadConfig loads configuration from environment variables and defaults
func LoadConfig() (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("workers", runtime.NumCPU())
	v.SetDefault("max_size", "256M")
	v.SetDefault("file_timeout", time.Duration(0))
	v.SetDefault("exclude", []string{".git", ".svn", ".hg", "node_modules"})
	v.SetDefault("entropy_threshold", 7.2)
	v.SetDefault("entropy_window", "4M")
	v.SetDefault("definitions_path", "configs/definitions")
	v.SetDefault("vault_dir", "quarantine")
	v.SetDefault("logs_dir", "logs")

	// Read environment variables
	v.SetEnvPrefix("FILEWARDEN")
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
