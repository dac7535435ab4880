package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Environment names recognized by the server. Production disables the
// development auth bypass.
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Config holds all server configuration. It is constructed once at startup
// and passed into each component; nothing else reads the environment.
type Config struct {
	ServerPort    int
	TransportMode string
	LogLevel      string
	Environment   string
	AuthToken     string
	DBConfig      DatabaseConfig
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Type     string
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	// DSN, when set, overrides the discrete fields above.
	DSN string
}

// LoadConfig loads the configuration from a .env file (if present) and the
// environment.
func LoadConfig() (*Config, error) {
	// Missing .env is fine; the environment alone is enough.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	port, err := strconv.Atoi(getEnv("SERVER_PORT", "9090"))
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT: %w", err)
	}
	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "3306"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}

	cfg := &Config{
		ServerPort:    port,
		TransportMode: getEnv("TRANSPORT_MODE", "sse"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		Environment:   getEnv("ENVIRONMENT", EnvDevelopment),
		AuthToken:     getEnv("AUTH_TOKEN", ""),
		DBConfig: DatabaseConfig{
			Type:     getEnv("DB_TYPE", "mysql"),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     dbPort,
			User:     getEnv("DB_USER", ""),
			Password: getEnv("DB_PASSWORD", ""),
			Name:     getEnv("DB_NAME", ""),
			DSN:      getEnv("DB_DSN", ""),
		},
	}

	// A production deployment must bring its own secret; there is no
	// fallback token in any environment.
	if cfg.Environment == EnvProduction && cfg.AuthToken == "" {
		return nil, fmt.Errorf("AUTH_TOKEN must be set when ENVIRONMENT=production")
	}

	return cfg, nil
}

// IsProduction reports whether the server runs with production settings.
func (c *Config) IsProduction() bool {
	return c.Environment == EnvProduction
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
