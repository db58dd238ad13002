package utils

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const devSecret = "dev-secret-change-me"

type AuthConfig struct {
	JWTSecret   string
	JWTIssuer   string
	JWTDuration time.Duration
	BcryptCost  int
}

type Config struct {
	Port               string
	Env                string
	StoreURL           string
	MongoDatabase      string
	CORSAllowedOrigins []string
	FeedTCPAddr        string
	RedisURL           string
	LogLevel           string
	LogFormat          string
	Auth               AuthConfig
}

// Load reads the configuration from the environment. A .env file in the
// working directory is loaded first when present; real environment variables
// win over it.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:               getEnv("PORT", "5000"),
		Env:                strings.ToLower(getEnv("APP_ENV", "development")),
		StoreURL:           getEnv("STORE_URL", defaultStorePath()),
		MongoDatabase:      getEnv("MONGO_DATABASE", "reviewme"),
		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:5173"}),
		FeedTCPAddr:        getEnv("FEED_TCP_ADDR", ""),
		RedisURL:           getEnv("REDIS_URL", ""),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		LogFormat:          getEnv("LOG_FORMAT", "console"),
		Auth: AuthConfig{
			JWTSecret:   getEnv("JWT_SECRET", devSecret),
			JWTIssuer:   getEnv("JWT_ISSUER", "reviewme"),
			JWTDuration: time.Duration(getEnvAsInt("JWT_TTL_HOURS", 24)) * time.Hour,
			BcryptCost:  getEnvAsInt("BCRYPT_COST", 10),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Port == "" {
		return errors.New("PORT must not be empty")
	}
	if c.Auth.JWTDuration <= 0 {
		return errors.New("JWT_TTL_HOURS must be positive")
	}
	if c.IsProduction() && (c.Auth.JWTSecret == "" || c.Auth.JWTSecret == devSecret) {
		return errors.New("JWT_SECRET is required in production")
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production" || c.Env == "prod"
}

// IsLocal reports whether the service runs on a developer machine, where
// session cookies are sent without the Secure attribute.
func (c *Config) IsLocal() bool {
	switch c.Env {
	case "", "local", "dev", "development", "test":
		return true
	default:
		return false
	}
}

func (c *Config) UsesMongo() bool {
	return strings.HasPrefix(c.StoreURL, "mongodb://") || strings.HasPrefix(c.StoreURL, "mongodb+srv://")
}

func (c *Config) Addr() string {
	return ":" + c.Port
}

func defaultStorePath() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		home = "."
	}
	return filepath.Join(home, ".reviewme", "data.db")
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvAsList(key string, fallback []string) []string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
