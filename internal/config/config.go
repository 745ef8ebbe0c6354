package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type ServerConfig struct {
	Port string `mapstructure:"port"`
}

type ListingsConfig struct {
	BaseURL string        `mapstructure:"baseURL"`
	FeedURL string        `mapstructure:"feedURL"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type JWTConfig struct {
	Secret string `mapstructure:"secret"`
}

type RedisConfig struct {
	URL string `mapstructure:"url"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	Port     string `mapstructure:"port"`
	SSLMode  string `mapstructure:"sslmode"`
}

// DSN builds the postgres connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		d.Host, d.User, d.Password, d.Name, d.Port, d.SSLMode,
	)
}

// Enabled reports whether a database was configured at all.
func (d DatabaseConfig) Enabled() bool {
	return d.Host != ""
}

type FirebaseConfig struct {
	ServiceAccountPath string `mapstructure:"serviceAccountPath"`
}

type LockConfig struct {
	Backend string        `mapstructure:"backend"` // memory or redis
	TTL     time.Duration `mapstructure:"ttl"`
}

type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Listings ListingsConfig `mapstructure:"listings"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Database DatabaseConfig `mapstructure:"database"`
	Firebase FirebaseConfig `mapstructure:"firebase"`
	Lock     LockConfig     `mapstructure:"lock"`
	Log      LogConfig      `mapstructure:"log"`
}

var envBindings = map[string]string{
	"server.port":                 "PORT",
	"listings.baseURL":            "LISTINGS_BASE_URL",
	"listings.feedURL":            "LISTINGS_FEED_URL",
	"listings.timeout":            "LISTINGS_TIMEOUT",
	"jwt.secret":                  "JWT_SECRET",
	"redis.url":                   "REDIS_URL",
	"database.host":               "DB_HOST",
	"database.user":               "DB_USER",
	"database.password":           "DB_PASSWORD",
	"database.name":               "DB_NAME",
	"database.port":               "DB_PORT",
	"database.sslmode":            "DB_SSLMODE",
	"firebase.serviceAccountPath": "FIREBASE_SERVICE_ACCOUNT_PATH",
	"lock.backend":                "LOCK_BACKEND",
	"lock.ttl":                    "LOCK_TTL",
	"log.level":                   "LOG_LEVEL",
	"log.development":             "LOG_DEVELOPMENT",
}

// LoadConfig reads config.yaml from path (optional) and overrides it with
// environment variables. A .env file in the working directory is loaded first
// when present.
func LoadConfig(path string) (Config, error) {
	var cfg Config

	// .env is optional; real deployments inject the environment directly.
	_ = godotenv.Load()

	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.SetDefault("server.port", "8080")
	v.SetDefault("listings.timeout", 30*time.Second)
	v.SetDefault("redis.url", "redis://redis:6379")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("lock.backend", "memory")
	v.SetDefault("lock.ttl", 30*time.Second)
	v.SetDefault("log.level", "info")

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return cfg, fmt.Errorf("bind env %s: %w", env, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return cfg, fmt.Errorf("read config: %w", err)
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.Listings.BaseURL == "" {
		return cfg, errors.New("listings.baseURL is required")
	}
	if cfg.JWT.Secret == "" {
		return cfg, errors.New("jwt.secret is required")
	}
	return cfg, nil
}
