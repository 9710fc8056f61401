package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/vasapolrittideah/mflix-api/shared/database"
)

// MflixServiceConfig holds the configuration of the mflix service.
type MflixServiceConfig struct {
	Environment    string      `env:"ENVIRONMENT"      envDefault:"development"`
	LogLevel       string      `env:"LOG_LEVEL"        envDefault:"info"`
	InternalAPIKey string      `env:"INTERNAL_API_KEY"`
	HTTP           HTTPConfig  `envPrefix:"HTTP_"`
	Mongo          MongoConfig `envPrefix:"MONGO_"`
}

// HTTPConfig holds the HTTP server settings.
type HTTPConfig struct {
	Addr            string        `env:"ADDR"             envDefault:":8080"`
	ReadTimeout     time.Duration `env:"READ_TIMEOUT"     envDefault:"10s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT"    envDefault:"10s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// MongoConfig holds the MongoDB client settings.
// WriteTimeout is the acknowledgment timeout for majority writes.
type MongoConfig struct {
	URI                    string        `env:"URI"`
	Database               string        `env:"DATABASE"                 envDefault:"sample_mflix"`
	AppName                string        `env:"APP_NAME"                 envDefault:"mflix"`
	MaxPoolSize            uint64        `env:"MAX_POOL_SIZE"            envDefault:"50"`
	ConnectTimeout         time.Duration `env:"CONNECT_TIMEOUT"          envDefault:"2s"`
	ServerSelectionTimeout time.Duration `env:"SERVER_SELECTION_TIMEOUT" envDefault:"5s"`
	WriteTimeout           time.Duration `env:"WRITE_TIMEOUT"            envDefault:"2500ms"`
}

// Client returns the settings used to build the mongo client.
func (c MongoConfig) Client() database.MongoConfig {
	return database.MongoConfig{
		URI:                    c.URI,
		Database:               c.Database,
		AppName:                c.AppName,
		MaxPoolSize:            c.MaxPoolSize,
		ConnectTimeout:         c.ConnectTimeout,
		ServerSelectionTimeout: c.ServerSelectionTimeout,
	}
}

// Load reads the configuration from the environment after loading envFiles, if any.
// Missing env files are ignored; variables already set in the environment win.
func Load(envFiles ...string) (*MflixServiceConfig, error) {
	for _, file := range envFiles {
		if file == "" {
			continue
		}
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load env file %s: %w", file, err)
		}
	}

	cfg, err := env.ParseAs[MflixServiceConfig]()
	if err != nil {
		return nil, fmt.Errorf("failed to parse environment variables: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// validate checks if the configuration is valid.
func (c *MflixServiceConfig) validate() error {
	if c.Mongo.URI == "" {
		return fmt.Errorf("missing MONGO_URI environment variable")
	}
	if c.Mongo.Database == "" {
		return fmt.Errorf("missing MONGO_DATABASE environment variable")
	}
	if c.Mongo.WriteTimeout <= 0 {
		return fmt.Errorf("MONGO_WRITE_TIMEOUT must be positive")
	}
	if c.HTTP.Addr == "" {
		return fmt.Errorf("missing HTTP_ADDR environment variable")
	}

	return nil
}
