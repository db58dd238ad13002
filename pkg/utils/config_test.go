package utils

import (
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"PORT", "APP_ENV", "STORE_URL", "MONGO_DATABASE", "CORS_ALLOWED_ORIGINS",
		"FEED_TCP_ADDR", "REDIS_URL", "LOG_LEVEL", "LOG_FORMAT",
		"JWT_SECRET", "JWT_ISSUER", "JWT_TTL_HOURS", "BCRYPT_COST",
	} {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	t.Chdir(t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "5000" {
		t.Errorf("Port = %q, want 5000", cfg.Port)
	}
	if cfg.Auth.JWTDuration != 24*time.Hour {
		t.Errorf("JWTDuration = %v, want 24h", cfg.Auth.JWTDuration)
	}
	if cfg.Auth.BcryptCost != 10 {
		t.Errorf("BcryptCost = %d, want 10", cfg.Auth.BcryptCost)
	}
	if !cfg.IsLocal() {
		t.Error("default environment should be local")
	}
	if cfg.UsesMongo() {
		t.Error("default store should be sqlite")
	}
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Chdir(t.TempDir())
	t.Setenv("PORT", "8081")
	t.Setenv("APP_ENV", "staging")
	t.Setenv("STORE_URL", "mongodb://localhost:27017")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example,")
	t.Setenv("JWT_TTL_HOURS", "2")
	t.Setenv("BCRYPT_COST", "not-a-number")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Addr() != ":8081" {
		t.Errorf("Addr = %q", cfg.Addr())
	}
	if cfg.IsLocal() {
		t.Error("staging must not be treated as local")
	}
	if !cfg.UsesMongo() {
		t.Error("mongodb:// should select mongo")
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "https://b.example" {
		t.Errorf("CORSAllowedOrigins = %v", cfg.CORSAllowedOrigins)
	}
	if cfg.Auth.JWTDuration != 2*time.Hour {
		t.Errorf("JWTDuration = %v", cfg.Auth.JWTDuration)
	}
	if cfg.Auth.BcryptCost != 10 {
		t.Errorf("invalid BCRYPT_COST should fall back, got %d", cfg.Auth.BcryptCost)
	}
}

func TestProductionRequiresSecret(t *testing.T) {
	clearEnv(t)
	t.Chdir(t.TempDir())
	t.Setenv("APP_ENV", "production")

	if _, err := Load(); err == nil {
		t.Fatal("expected error without JWT_SECRET in production")
	}

	t.Setenv("JWT_SECRET", "s3cr3t")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.IsLocal() {
		t.Error("production must not be local")
	}
}
