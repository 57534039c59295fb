package infrastructure

import (
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("APP_JWT_SECRET", "test-secret")

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("server.port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.DB.Host != "localhost" || cfg.DB.Database != "estore" {
		t.Errorf("db defaults = %+v", cfg.DB)
	}
	if cfg.JWT.TokenTTL != 24*time.Hour {
		t.Errorf("jwt.token_ttl = %v, want 24h", cfg.JWT.TokenTTL)
	}
	if cfg.Redis.Addr != "" {
		t.Errorf("redis.addr = %q, want disabled by default", cfg.Redis.Addr)
	}
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("APP_JWT_SECRET", "test-secret")
	t.Setenv("APP_SERVER_PORT", "9090")
	t.Setenv("APP_DB_HOST", "db.internal")

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("server.port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.DB.Host != "db.internal" {
		t.Errorf("db.host = %q, want db.internal", cfg.DB.Host)
	}
}

func TestLoadConfigRequiresJWTSecret(t *testing.T) {
	t.Setenv("APP_JWT_SECRET", "")

	if _, err := LoadConfig(""); err == nil {
		t.Error("expected an error when jwt.secret is unset")
	}
}

func TestDSN(t *testing.T) {
	cfg := DBConfig{
		Host: "localhost", Port: "5432",
		User: "postgres", Password: "postgres",
		Database: "estore", SSLMode: "disable",
	}
	want := "host=localhost port=5432 user=postgres password=postgres dbname=estore sslmode=disable"
	if got := cfg.DSN(); got != want {
		t.Errorf("DSN() = %q, want %q", got, want)
	}
}
