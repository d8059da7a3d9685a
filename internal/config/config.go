package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is prepended to every environment override, e.g. FORMFLOW_REDIS_ADDR.
const EnvPrefix = "FORMFLOW_"

type Config struct {
	Server struct {
		Port         string `yaml:"port" env:"PORT"`
		ReadTimeout  string `yaml:"readTimeout" env:"READ_TIMEOUT"`
		WriteTimeout string `yaml:"writeTimeout" env:"WRITE_TIMEOUT"`
	} `yaml:"server" envPrefix:"SERVER_"`
	Log struct {
		Level  string `yaml:"level" env:"LEVEL"`
		Format string `yaml:"format" env:"FORMAT"`
	} `yaml:"log" envPrefix:"LOG_"`
	Redis struct {
		Addr     string `yaml:"addr" env:"ADDR"`
		Password string `yaml:"password" env:"PASSWORD"`
		DB       int    `yaml:"db" env:"DB"`
		TTL      string `yaml:"ttl" env:"TTL"`
	} `yaml:"redis" envPrefix:"REDIS_"`
	Postgres struct {
		URL string `yaml:"url" env:"URL"`
	} `yaml:"postgres" envPrefix:"POSTGRES_"`
	Forms struct {
		CacheTTL string `yaml:"cacheTTL" env:"CACHE_TTL"`
		SeedDir  string `yaml:"seedDir" env:"SEED_DIR"`
	} `yaml:"forms" envPrefix:"FORMS_"`
	Sessions struct {
		TTL string `yaml:"ttl" env:"TTL"`
	} `yaml:"sessions" envPrefix:"SESSIONS_"`
}

// Default returns the settings used when neither the file nor the environment sets a value.
func Default() Config {
	var cfg Config
	cfg.Server.Port = "8080"
	cfg.Server.ReadTimeout = "15s"
	cfg.Server.WriteTimeout = "15s"
	cfg.Log.Level = "info"
	cfg.Log.Format = "text"
	cfg.Forms.CacheTTL = "10m"
	cfg.Sessions.TTL = "30m"
	return cfg
}

// Load reads YAML config from path on top of the defaults, then applies
// FORMFLOW_* environment overrides. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return cfg, err
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parse %s: %w", path, err)
			}
		}
	}
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
