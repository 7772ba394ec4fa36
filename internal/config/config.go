// Package config handles loading and parsing application configuration.
// It supports two sources (in priority order):
//  1. An environment variable:  CONFIG_PATH=/path/to/config.yaml
//  2. A command-line flag:      --config=/path/to/config.yaml
//
// The parsed values are returned as a *Config pointer so the struct is
// shared by reference rather than copied everywhere.
package config

import (
	"flag"
	"log"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
)

// Storage drivers.
const (
	DriverSQLite     = "sqlite"
	DriverPostgres   = "postgres"
	DriverGormSQLite = "gorm-sqlite"
	DriverMemory     = "memory"
)

// Upload providers.
const (
	ProviderCloudinary = "cloudinary"
	ProviderLocal      = "local"
)

// Config is the root configuration structure.
// Every field maps to a key in the YAML file AND can be overridden
// by the corresponding environment variable (env:"...").
//
// env-required:"true" means the app refuses to start if that value is
// missing.
type Config struct {
	// Env controls log format and verbosity.
	// Valid values: "dev", "staging", "prod"
	Env string `yaml:"env" env:"ENV" env-required:"true"`

	Storage    Storage    `yaml:"storage"`
	HTTPServer HTTPServer `yaml:"http_server"`
	Upload     Upload     `yaml:"upload"`
}

// Storage selects and configures the persistence backend.
type Storage struct {
	// Driver is one of "sqlite", "postgres", "gorm-sqlite", "memory".
	Driver string `yaml:"driver" env:"STORAGE_DRIVER" env-default:"sqlite"`

	// Path is the SQLite .db file for the sqlite and gorm-sqlite drivers.
	Path string `yaml:"path" env:"STORAGE_PATH" env-default:"storage/alumnos.db"`

	// DSN is the PostgreSQL connection string for the postgres driver.
	DSN string `yaml:"dsn" env:"STORAGE_DSN"`
}

// HTTPServer holds settings specific to the HTTP server.
// Nested under http_server: in the YAML file.
type HTTPServer struct {
	// Addr is the TCP address the server listens on, e.g. "localhost:8082".
	Addr string `yaml:"address" env:"HTTP_SERVER_ADDR" env-required:"true"`

	// MaxUploadMB bounds the size of a multipart create request.
	MaxUploadMB int64 `yaml:"max_upload_mb" env:"HTTP_SERVER_MAX_UPLOAD_MB" env-default:"10"`
}

// Upload configures where profile images go.
type Upload struct {
	// Provider is "cloudinary" or "local".
	Provider string `yaml:"provider" env:"UPLOAD_PROVIDER" env-default:"local"`

	// CloudinaryURL has the form cloudinary://<api_key>:<api_secret>@<cloud_name>.
	CloudinaryURL string `yaml:"cloudinary_url" env:"CLOUDINARY_URL"`

	// LocalDir and BaseURL configure the local provider.
	LocalDir string `yaml:"local_dir" env:"UPLOAD_LOCAL_DIR" env-default:"uploads"`
	BaseURL  string `yaml:"base_url" env:"UPLOAD_BASE_URL"`

	// DefaultFolder is used when a create request names no folder.
	DefaultFolder string `yaml:"default_folder" env:"UPLOAD_DEFAULT_FOLDER" env-default:"alumnos"`
}

// Load reads the config file at path, applies environment overrides and
// validates env-required fields.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// MustLoad reads, validates, and returns the application config.
//
// Functions prefixed with "Must" are allowed to fatal on failure. If this
// function returns, the config is valid.
func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")

	if configPath == "" {
		flags := flag.String("config", "", "Path to the configuration YAML file")
		flag.Parse()
		configPath = *flags
	}

	if configPath == "" {
		log.Fatal("config path is not set: use --config flag or CONFIG_PATH env var")
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		log.Fatalf("config file does not exist: %s", configPath)
	}

	cfg, err := Load(configPath)
	if err != nil {
		log.Fatalf("cannot read config: %s", err.Error())
	}

	return cfg
}
