package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Templates TemplatesConfig `yaml:"templates"`
	Output    OutputConfig    `yaml:"output"`
	Database  DatabaseConfig  `yaml:"database"`
	PDF       PDFConfig       `yaml:"pdf"`
	Server    ServerConfig    `yaml:"server"`
}

type TemplatesConfig struct {
	Dir         string        `yaml:"dir"`
	CatalogFile string        `yaml:"catalog_file"` // JSON catalog, used when no database is configured
	Debounce    time.Duration `yaml:"debounce"`
}

type OutputConfig struct {
	Dir string `yaml:"dir"`
}

type DatabaseConfig struct {
	Type    string `yaml:"type"` // sqlite, mysql, none
	DSN     string `yaml:"dsn"`
	Verbose bool   `yaml:"verbose"`
}

type PDFConfig struct {
	Enabled         bool          `yaml:"enabled"`
	LibreOfficePath string        `yaml:"libreoffice_path"`
	ChromePath      string        `yaml:"chrome_path"`
	Timeout         time.Duration `yaml:"timeout"`
}

type ServerConfig struct {
	Port string `yaml:"port"`
	Mode string `yaml:"mode"` // debug, release
}

// Default - settings used when neither file nor environment says otherwise.
func Default() *Config {
	return &Config{
		Templates: TemplatesConfig{
			Dir:      "./templates",
			Debounce: 300 * time.Millisecond,
		},
		Output: OutputConfig{
			Dir: "./output",
		},
		Database: DatabaseConfig{
			Type: "sqlite",
			DSN:  "./data/suratgen.db",
		},
		PDF: PDFConfig{
			Enabled: true,
			Timeout: 30 * time.Second,
		},
		Server: ServerConfig{
			Port: "8080",
			Mode: "debug",
		},
	}
}

// Load - defaults, then the yaml file at path (missing file is fine), then
// .env, then environment variables. An empty path falls back to
// SURATGEN_CONFIG and then config.yaml.
func Load(path string) (*Config, error) {
	cfg := Default()

	// .env is optional
	_ = godotenv.Load()

	if path == "" {
		path = os.Getenv("SURATGEN_CONFIG")
	}
	if path == "" {
		path = "config.yaml"
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case os.IsNotExist(err):
	default:
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	applyEnv(cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.Templates.Dir = getEnv("TEMPLATES_DIR", cfg.Templates.Dir)
	cfg.Templates.CatalogFile = getEnv("CATALOG_FILE", cfg.Templates.CatalogFile)
	cfg.Output.Dir = getEnv("OUTPUT_DIR", cfg.Output.Dir)
	cfg.Database.Type = getEnv("DB_TYPE", cfg.Database.Type)
	cfg.Database.DSN = getEnv("DB_DSN", cfg.Database.DSN)
	cfg.PDF.Enabled = getEnvBool("PDF_ENABLED", cfg.PDF.Enabled)
	cfg.PDF.LibreOfficePath = getEnv("LIBREOFFICE_PATH", cfg.PDF.LibreOfficePath)
	cfg.PDF.ChromePath = getEnv("CHROME_PATH", cfg.PDF.ChromePath)
	cfg.Server.Port = getEnv("PORT", cfg.Server.Port)
	cfg.Server.Mode = getEnv("GIN_MODE", cfg.Server.Mode)
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable or returns a default value
func getEnvBool(key string, defaultValue bool) bool {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return b
}

// Save writes the configuration as yaml.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
