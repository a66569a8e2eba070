// Package config loads the export service settings from a YAML file, with
// secrets and the active company overridable from the environment or a .env
// file.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gartstein/cafexport/internal/export/db"
	"github.com/gartstein/cafexport/internal/export/models"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// PathEnv names the variable that overrides DefaultPath.
const PathEnv = "EXPORT_CONFIG"

var DefaultPath = filepath.Join("internal", "export", "config", "config.yaml")

type Config struct {
	GRPCPort      int      `yaml:"GRPC_PORT"`
	HTTPPort      int      `yaml:"HTTP_PORT"`
	DBHost        string   `yaml:"DB_HOST"`
	DBPort        int      `yaml:"DB_PORT"`
	DBUser        string   `yaml:"DB_USER"`
	DBPassword    string   `yaml:"DB_PASSWORD"`
	DBName        string   `yaml:"DB_NAME"`
	DBSSLMode     string   `yaml:"DB_SSLMODE"`
	KafkaBrokers  []string `yaml:"KAFKA_BROKERS"`
	Topic         string   `yaml:"TOPIC"`
	EventsGroupID string   `yaml:"EVENTS_GROUP_ID"`
	JWTSecret     string   `yaml:"JWT_SECRET"`
	ActiveCompany string   `yaml:"ACTIVE_COMPANY"`
}

// Load reads .env (if present), then the YAML file at the EXPORT_CONFIG path
// or DefaultPath, and applies the environment overrides.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	path := os.Getenv(PathEnv)
	if path == "" {
		path = DefaultPath
	}
	return LoadFile(path)
}

// LoadFile reads the YAML file at path and applies the environment overrides.
func LoadFile(path string) (*Config, error) {
	file, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(file, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	overrideFromEnv(&cfg.DBPassword, "DB_PASSWORD")
	overrideFromEnv(&cfg.JWTSecret, "JWT_SECRET")
	overrideFromEnv(&cfg.ActiveCompany, "ACTIVE_COMPANY")

	if cfg.ActiveCompany != "" {
		if _, err := models.ParseCompany(cfg.ActiveCompany); err != nil {
			return nil, fmt.Errorf("invalid ACTIVE_COMPANY %q: %w", cfg.ActiveCompany, err)
		}
	}
	return &cfg, nil
}

func overrideFromEnv(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

// Company returns the active company, or ErrInvalidInput when none is set.
func (c *Config) Company() (models.Company, error) {
	return models.ParseCompany(c.ActiveCompany)
}

// Database converts the DB_* settings into a repository config.
func (c *Config) Database() *db.Config {
	return &db.Config{
		Host:     c.DBHost,
		Port:     c.DBPort,
		User:     c.DBUser,
		Password: c.DBPassword,
		DBName:   c.DBName,
		SSLMode:  c.DBSSLMode,
	}
}
