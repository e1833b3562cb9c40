package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the auth stub server
type Config struct {
	// Server Configuration
	Server ServerConfig

	// Database Configuration
	Database DatabaseConfig

	// Auth Configuration
	Auth AuthConfig

	// Logging Configuration
	Logging LoggingConfig
}

// ServerConfig holds HTTP listener configuration
type ServerConfig struct {
	Port           string
	AllowedOrigins []string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	URL string
}

// AuthConfig holds token and registration settings
type AuthConfig struct {
	JWTSecret                string
	TokenTTL                 time.Duration
	RequireEmailVerification bool // Register returns no token when set
}

// LoggingConfig holds logging-related configuration
type LoggingConfig struct {
	Level  string
	Format string // json, console
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env files (fails silently if files don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	// Database URL - in-memory by default, the stub is for development
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		dbURL = "file::memory:?cache=shared"
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8000"
	}

	origins := []string{"http://localhost:3000", "http://localhost:5173"}
	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		origins = splitList(v)
	}

	// An empty secret makes the server generate one per process
	jwtSecret := os.Getenv("JWT_SECRET")

	tokenTTL := 7 * 24 * time.Hour
	if v := os.Getenv("ACCESS_TOKEN_EXPIRE_MINUTES"); v != "" {
		if minutes, err := strconv.Atoi(v); err == nil && minutes > 0 {
			tokenTTL = time.Duration(minutes) * time.Minute
		}
	}

	requireVerification, _ := strconv.ParseBool(os.Getenv("REQUIRE_EMAIL_VERIFICATION"))

	// Logging configuration - console output suits a dev server
	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}

	logFormat := os.Getenv("LOG_FORMAT")
	if logFormat == "" {
		logFormat = "console"
	}

	return &Config{
		Server: ServerConfig{
			Port:           port,
			AllowedOrigins: origins,
		},
		Database: DatabaseConfig{
			URL: dbURL,
		},
		Auth: AuthConfig{
			JWTSecret:                jwtSecret,
			TokenTTL:                 tokenTTL,
			RequireEmailVerification: requireVerification,
		},
		Logging: LoggingConfig{
			Level:  logLevel,
			Format: logFormat,
		},
	}, nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
