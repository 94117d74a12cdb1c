package config

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration settings
type Config struct {
	// FalkorDB connection
	FalkorDB FalkorDBConfig `yaml:"falkordb"`

	// Source analysis settings
	Analyzer AnalyzerConfig `yaml:"analyzer"`

	// Logging settings
	Logging LoggingConfig `yaml:"logging"`
}

type FalkorDBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// Addr returns the host:port address of the FalkorDB server.
func (c FalkorDBConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

type AnalyzerConfig struct {
	// Glob patterns of paths excluded from analysis.
	IgnorePatterns []string `yaml:"ignore_patterns"`
	// Max concurrent file analyses during a full repository scan.
	// Zero means one worker per CPU.
	Workers int `yaml:"workers"`
}

type LoggingConfig struct {
	Level string `yaml:"level"` // "debug", "info", "warn", "error"
	File  string `yaml:"file"`  // empty means stderr
	JSON  bool   `yaml:"json"`
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		FalkorDB: FalkorDBConfig{
			Host: "localhost",
			Port: 6379,
		},
		Analyzer: AnalyzerConfig{
			IgnorePatterns: []string{
				"**/node_modules/**",
				"**/venv/**",
				"**/.venv/**",
				"**/__pycache__/**",
			},
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from file
func Load(path string) (*Config, error) {
	// Load .env files first (in order of precedence)
	loadEnvFiles()

	v := viper.New()
	v.SetConfigType("yaml")

	// Set defaults
	cfg := Default()
	v.SetDefault("falkordb", cfg.FalkorDB)
	v.SetDefault("analyzer", cfg.Analyzer)
	v.SetDefault("logging", cfg.Logging)

	// Load from environment variables
	v.SetEnvPrefix("CODEGRAPH")
	v.AutomaticEnv()

	// Try to find config file
	if path != "" {
		v.SetConfigFile(path)
	} else {
		// Search for config in standard locations
		v.SetConfigName("config")
		v.AddConfigPath(".codegraph")
		v.AddConfigPath(".")
		homeDir, _ := os.UserHomeDir()
		v.AddConfigPath(filepath.Join(homeDir, ".codegraph"))
	}

	// Read config file if it exists
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found is OK, use defaults
	}

	// Unmarshal into struct
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Apply environment variable overrides
	applyEnvOverrides(cfg)

	return cfg, nil
}

// loadEnvFiles loads .env files in order of precedence
func loadEnvFiles() {
	envFiles := []string{
		".env.local", // Local overrides (highest precedence)
		".env",       // Main environment file
	}

	for _, file := range envFiles {
		if _, err := os.Stat(file); err == nil {
			godotenv.Load(file)
		}
	}

	// Also try loading from home directory
	homeDir, _ := os.UserHomeDir()
	homeEnvFile := filepath.Join(homeDir, ".codegraph", ".env")
	if _, err := os.Stat(homeEnvFile); err == nil {
		godotenv.Load(homeEnvFile)
	}
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(cfg *Config) {
	if host := os.Getenv("FALKORDB_HOST"); host != "" {
		cfg.FalkorDB.Host = host
	}
	if port := os.Getenv("FALKORDB_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.FalkorDB.Port = p
		}
	}
	if user := os.Getenv("FALKORDB_USERNAME"); user != "" {
		cfg.FalkorDB.Username = user
	}
	if pass := os.Getenv("FALKORDB_PASSWORD"); pass != "" {
		cfg.FalkorDB.Password = pass
	}
	if level := os.Getenv("CODEGRAPH_LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}
}
