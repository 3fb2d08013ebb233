package config

import (
	"strings"
	"testing"
	"time"
)

func setBaseEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "postgresql://app:secret@db:5432/soundshelf?sslmode=disable")
	t.Setenv("JWT_SECRET", "0123456789abcdef-secret")
}

func TestLoadDefaults(t *testing.T) {
	setBaseEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Storage != StoragePostgres {
		t.Fatalf("Storage = %q", cfg.Storage)
	}
	if cfg.Server.Addr() != "0.0.0.0:8080" {
		t.Fatalf("Addr = %q", cfg.Server.Addr())
	}
	if cfg.Security.TokenTTL != time.Hour {
		t.Fatalf("TokenTTL = %v", cfg.Security.TokenTTL)
	}
	if cfg.Security.BcryptCost != 10 {
		t.Fatalf("BcryptCost = %d", cfg.Security.BcryptCost)
	}
	if len(cfg.CORS.AllowedOrigins) != 2 {
		t.Fatalf("AllowedOrigins = %v", cfg.CORS.AllowedOrigins)
	}
}

func TestLoadOverrides(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("JWT_TTL", "15m")
	t.Setenv("LOG_FORMAT", "TEXT")
	t.Setenv("CORS_ALLOWED_ORIGINS", " https://a.example , ,https://b.example")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Fatalf("Port = %d", cfg.Server.Port)
	}
	if cfg.Security.TokenTTL != 15*time.Minute {
		t.Fatalf("TokenTTL = %v", cfg.Security.TokenTTL)
	}
	if cfg.Logging.Format != "text" {
		t.Fatalf("Format = %q", cfg.Logging.Format)
	}
	want := []string{"https://a.example", "https://b.example"}
	if strings.Join(cfg.CORS.AllowedOrigins, ",") != strings.Join(want, ",") {
		t.Fatalf("AllowedOrigins = %v", cfg.CORS.AllowedOrigins)
	}
}

func TestLoadBuildsURLFromParts(t *testing.T) {
	t.Setenv("JWT_SECRET", "0123456789abcdef-secret")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("DB_USER", "app")
	t.Setenv("DB_PASSWORD", "pw")
	t.Setenv("DB_NAME", "soundshelf")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := "postgresql://app:pw@localhost:5432/soundshelf?sslmode=disable"
	if cfg.Database.URL != want {
		t.Fatalf("URL = %q, want %q", cfg.Database.URL, want)
	}
}

func TestMemoryStorageNeedsNoDatabase(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("DB_USER", "")
	t.Setenv("STORAGE", "memory")
	t.Setenv("JWT_SECRET", "0123456789abcdef-secret")

	if _, err := Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
}

func TestValidateAggregatesProblems(t *testing.T) {
	cfg := &Config{
		Storage:  "sqlite",
		Security: SecurityConfig{JWTSecret: "short", BcryptCost: 4},
		Logging:  LoggingConfig{Level: "loud", Format: "xml"},
	}

	err := cfg.Validate()
	if err == nil {
		t.Fatalf("expected validation error")
	}
	for _, fragment := range []string{"STORAGE", "JWT_SECRET", "JWT_TTL", "BCRYPT_COST", "PORT", "AUTH_RATE_LIMIT", "AUTH_RATE_BURST", "LOG_LEVEL", "LOG_FORMAT"} {
		if !strings.Contains(err.Error(), fragment) {
			t.Errorf("expected %s in %q", fragment, err.Error())
		}
	}
}

func TestDatabaseConnectOptions(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("DB_CONNECT_TIMEOUT", "1m")
	t.Setenv("DB_MAX_OPEN_CONNS", "10")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	opts := cfg.Database.ConnectOptions()
	if opts.PingTimeout != 5*time.Second || opts.MaxWait != time.Minute {
		t.Fatalf("timeouts = %v / %v", opts.PingTimeout, opts.MaxWait)
	}
	if opts.MaxOpenConns != 10 || opts.MaxIdleConns != 5 || opts.ConnMaxLifetime != 30*time.Minute {
		t.Fatalf("pool = %+v", opts)
	}
}

func TestValidateDatabasePool(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("DB_PING_TIMEOUT", "10s")
	t.Setenv("DB_CONNECT_TIMEOUT", "5s")
	t.Setenv("DB_MAX_OPEN_CONNS", "2")
	t.Setenv("DB_MAX_IDLE_CONNS", "4")

	_, err := Load()
	if err == nil {
		t.Fatalf("expected validation error")
	}
	for _, fragment := range []string{"DB_CONNECT_TIMEOUT", "DB_MAX_OPEN_CONNS"} {
		if !strings.Contains(err.Error(), fragment) {
			t.Errorf("expected %s in %q", fragment, err.Error())
		}
	}
}
