package config

import (
	"errors"
	"io/fs"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
	StorageSQLite   = "sqlite"
)

type Config struct {
	Server struct {
		Port           string   `yaml:"port"`
		AllowedOrigins []string `yaml:"allowed_origins"`
	} `yaml:"server"`
	Storage struct {
		Driver string `yaml:"driver"`
		SQLite struct {
			Path string `yaml:"path"`
		} `yaml:"sqlite"`
	} `yaml:"storage"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Auth struct {
		JWTSecret string `yaml:"jwt_secret"`
		TokenTTL  string `yaml:"token_ttl"`
	} `yaml:"auth"`
	Gemini struct {
		APIKey string `yaml:"api_key"`
		Model  string `yaml:"model"`
	} `yaml:"gemini"`
	SMTP struct {
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		Username string `yaml:"username"`
		Password string `yaml:"password"`
		FromName string `yaml:"from_name"`
		Timezone string `yaml:"timezone"`
	} `yaml:"smtp"`
}

// Load reads YAML config from path, then applies .env and process environment overrides.
// A missing file is not an error; the service can be configured from the environment alone.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return cfg, err
	}
	if err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, err
		}
	}

	// .env is optional; existing environment variables win over it.
	_ = godotenv.Load()
	cfg.applyEnv(os.Getenv)
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv(getenv func(string) string) {
	set := func(dst *string, key string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}
	set(&c.Auth.JWTSecret, "JWT_SECRET")
	set(&c.Gemini.APIKey, "GOOGLE_API_KEY")
	set(&c.SMTP.Username, "SMTP_EMAIL")
	set(&c.SMTP.Password, "SMTP_PASSWORD")
	set(&c.SMTP.Host, "SMTP_HOST")
	set(&c.Postgres.URL, "DATABASE_URL")
	set(&c.Redis.Addr, "REDIS_ADDR")
	set(&c.Storage.Driver, "STORAGE_DRIVER")
}

func (c *Config) applyDefaults() {
	if c.Storage.Driver == "" {
		if c.Postgres.URL != "" {
			c.Storage.Driver = StoragePostgres
		} else {
			c.Storage.Driver = StorageMemory
		}
	}
	if c.Storage.SQLite.Path == "" {
		c.Storage.SQLite.Path = "quiz.db"
	}
	if c.Gemini.Model == "" {
		c.Gemini.Model = "gemini-1.5-flash"
	}
	if c.SMTP.Host == "" && c.SMTP.Username != "" {
		c.SMTP.Host = "smtp.gmail.com"
	}
	if c.SMTP.Port == 0 {
		c.SMTP.Port = 465
	}
	if c.SMTP.Timezone == "" {
		c.SMTP.Timezone = "Asia/Kolkata"
	}
}

// Validate reports settings the server cannot start without.
func (c Config) Validate() error {
	switch c.Storage.Driver {
	case StorageMemory, StorageSQLite:
	case StoragePostgres:
		if c.Postgres.URL == "" {
			return errors.New("storage driver postgres requires postgres.url or DATABASE_URL")
		}
	default:
		return errors.New("unknown storage driver " + c.Storage.Driver)
	}
	if c.Auth.JWTSecret == "" {
		return errors.New("auth.jwt_secret or JWT_SECRET must be set")
	}
	return nil
}

// Location resolves the report timezone, falling back to UTC.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.SMTP.Timezone)
	if err != nil {
		log.Printf("unknown timezone %q, using UTC: %v", c.SMTP.Timezone, err)
		return time.UTC
	}
	return loc
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
