package config

import (
	"os"
	"strconv"
	"time"
)

const (
	DefaultPort              = 8080
	DefaultTokenTTLSec       = 604800
	DefaultSessionCookieName = "token"
	DefaultFrontendURL       = "http://localhost:3000"
	DefaultCacheTTLSec       = 300
	DefaultAppName           = "Accord API"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Auth     AuthConfig
	Cache    CacheConfig
}

type ServerConfig struct {
	Env         string
	Host        string
	Port        int
	LogLevel    string
	FrontendURL string
}

type DatabaseConfig struct {
	URL string
}

type AuthConfig struct {
	// JWTSecret signs session tokens; the service refuses to start
	// without it outside development.
	JWTSecret string
	TokenTTL  time.Duration

	// EncryptionKey is a base64-encoded 32-byte key for TOTP seeds at rest.
	EncryptionKey string

	SessionCookieName string
	SecureCookie      bool
}

type CacheConfig struct {
	TTL time.Duration
}

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Env:         getEnv("APP_ENV", "development"),
			Host:        getEnv("HOST", "0.0.0.0"),
			Port:        getEnvInt("PORT", DefaultPort),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
			FrontendURL: getEnv("FRONTEND_URL", DefaultFrontendURL),
		},
		Database: DatabaseConfig{
			URL: getEnv("DATABASE_URL", ""),
		},
		Auth: AuthConfig{
			JWTSecret:         getEnv("JWT_SECRET", ""),
			TokenTTL:          time.Duration(getEnvInt("TOKEN_TTL", DefaultTokenTTLSec)) * time.Second,
			EncryptionKey:     getEnv("TOTP_ENCRYPTION_KEY", ""),
			SessionCookieName: getEnv("SESSION_COOKIE_NAME", DefaultSessionCookieName),
			SecureCookie:      getEnv("SESSION_SECURE", "false") == "true",
		},
		Cache: CacheConfig{
			TTL: time.Duration(getEnvInt("CACHE_TTL", DefaultCacheTTLSec)) * time.Second,
		},
	}
}

func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
