package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"soundshelf/internal/auth"
	"soundshelf/internal/store"
)

// Storage backends.
const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

// Config holds all application configuration
type Config struct {
	// Storage selects the repository backend: postgres or memory
	Storage string

	Database  DatabaseConfig
	Server    ServerConfig
	Security  SecurityConfig
	RateLimit RateLimitConfig
	CORS      CORSConfig
	Logging   LoggingConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	URL string // Full PostgreSQL URL
	// AutoMigrate applies pending schema migrations at startup
	AutoMigrate bool
	Host        string
	Port        int
	User        string
	Password    string
	Name        string
	SSLMode     string

	// Pool sizing and how long startup waits for the database to answer.
	PingTimeout     time.Duration
	ConnectTimeout  time.Duration
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port int
	Host string
}

// Addr is the listen address of the HTTP server.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// SecurityConfig holds token and password hashing settings
type SecurityConfig struct {
	JWTSecret  string
	TokenTTL   time.Duration
	Issuer     string
	BcryptCost int
}

// RateLimitConfig throttles register and login per client address
type RateLimitConfig struct {
	PerSecond float64
	Burst     int
}

// CORSConfig holds CORS settings
type CORSConfig struct {
	AllowedOrigins []string
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, text
}

// Load reads configuration from .env files and environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load("config/local.env")
	_ = godotenv.Load(".env")

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	cfg := &Config{
		Storage: strings.ToLower(v.GetString("STORAGE")),
		Server: ServerConfig{
			Port: v.GetInt("PORT"),
			Host: v.GetString("HOST"),
		},
		Security: SecurityConfig{
			JWTSecret:  v.GetString("JWT_SECRET"),
			TokenTTL:   v.GetDuration("JWT_TTL"),
			Issuer:     v.GetString("JWT_ISSUER"),
			BcryptCost: v.GetInt("BCRYPT_COST"),
		},
		RateLimit: RateLimitConfig{
			PerSecond: v.GetFloat64("AUTH_RATE_LIMIT"),
			Burst:     v.GetInt("AUTH_RATE_BURST"),
		},
		CORS: CORSConfig{
			AllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		},
		Logging: LoggingConfig{
			Level:  strings.ToLower(v.GetString("LOG_LEVEL")),
			Format: strings.ToLower(v.GetString("LOG_FORMAT")),
		},
	}
	cfg.loadDatabase(v)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("STORAGE", StoragePostgres)
	v.SetDefault("PORT", 8080)
	v.SetDefault("HOST", "0.0.0.0")
	v.SetDefault("JWT_TTL", time.Hour)
	v.SetDefault("JWT_ISSUER", "soundshelf")
	v.SetDefault("BCRYPT_COST", auth.MinCost)
	v.SetDefault("AUTH_RATE_LIMIT", 1.0)
	v.SetDefault("AUTH_RATE_BURST", 5)
	v.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:5173")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("AUTO_MIGRATE", false)
	v.SetDefault("DB_PING_TIMEOUT", 5*time.Second)
	v.SetDefault("DB_CONNECT_TIMEOUT", 30*time.Second)
	v.SetDefault("DB_MAX_OPEN_CONNS", 25)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_CONN_MAX_LIFETIME", 30*time.Minute)
}

func (c *Config) loadDatabase(v *viper.Viper) {
	c.Database = DatabaseConfig{
		URL:         v.GetString("DATABASE_URL"),
		AutoMigrate: v.GetBool("AUTO_MIGRATE"),
		Host:        v.GetString("DB_HOST"),
		Port:        v.GetInt("DB_PORT"),
		User:        v.GetString("DB_USER"),
		Password:    v.GetString("DB_PASSWORD"),
		Name:        v.GetString("DB_NAME"),
		SSLMode:     v.GetString("DB_SSLMODE"),

		PingTimeout:     v.GetDuration("DB_PING_TIMEOUT"),
		ConnectTimeout:  v.GetDuration("DB_CONNECT_TIMEOUT"),
		MaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
		ConnMaxLifetime: v.GetDuration("DB_CONN_MAX_LIFETIME"),
	}

	// Construct URL if all components are present
	if c.Database.URL == "" && c.Database.User != "" && c.Database.Name != "" {
		c.Database.URL = fmt.Sprintf(
			"postgresql://%s:%s@%s:%d/%s?sslmode=%s",
			c.Database.User,
			c.Database.Password,
			c.Database.Host,
			c.Database.Port,
			c.Database.Name,
			c.Database.SSLMode,
		)
	}
}

// ConnectOptions maps the pool and startup wait settings onto the store.
func (d DatabaseConfig) ConnectOptions() store.ConnectOptions {
	return store.ConnectOptions{
		PingTimeout:     d.PingTimeout,
		MaxWait:         d.ConnectTimeout,
		MaxOpenConns:    d.MaxOpenConns,
		MaxIdleConns:    d.MaxIdleConns,
		ConnMaxLifetime: d.ConnMaxLifetime,
	}
}

// Validate checks that all required configuration is present and valid
func (c *Config) Validate() error {
	var problems []string

	switch c.Storage {
	case StoragePostgres:
		if c.Database.URL == "" {
			problems = append(problems, "DATABASE_URL is required (or DB_HOST, DB_USER, DB_NAME)")
		}
		if c.Database.PingTimeout <= 0 || c.Database.ConnectTimeout < c.Database.PingTimeout {
			problems = append(problems, "DB_CONNECT_TIMEOUT must be at least DB_PING_TIMEOUT, both positive")
		}
		if c.Database.MaxOpenConns < 1 || c.Database.MaxIdleConns > c.Database.MaxOpenConns {
			problems = append(problems, "DB_MAX_OPEN_CONNS must be positive and not below DB_MAX_IDLE_CONNS")
		}
	case StorageMemory:
	default:
		problems = append(problems, "STORAGE must be one of: postgres, memory")
	}

	if len(c.Security.JWTSecret) < 16 {
		problems = append(problems, "JWT_SECRET must be at least 16 characters")
	}
	if c.Security.TokenTTL <= 0 {
		problems = append(problems, "JWT_TTL must be a positive duration")
	}
	if c.Security.BcryptCost < auth.MinCost || c.Security.BcryptCost > 31 {
		problems = append(problems, fmt.Sprintf("BCRYPT_COST must be between %d and 31", auth.MinCost))
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		problems = append(problems, "PORT must be between 1 and 65535")
	}

	if c.RateLimit.PerSecond <= 0 {
		problems = append(problems, "AUTH_RATE_LIMIT must be positive")
	}
	if c.RateLimit.Burst < 1 {
		problems = append(problems, "AUTH_RATE_BURST must be at least 1")
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		problems = append(problems, "LOG_LEVEL must be one of: debug, info, warn, error")
	}

	validLogFormats := map[string]bool{"json": true, "text": true}
	if !validLogFormats[c.Logging.Format] {
		problems = append(problems, "LOG_FORMAT must be one of: json, text")
	}

	if len(problems) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(problems, "\n  - "))
	}

	return nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
