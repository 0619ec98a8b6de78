package stubapi

import (
	"fmt"
	"strings"
	"time"
)

const (
	defaultListenAddr    = ":3001"
	defaultDatabaseURL   = "sqlite:///tmp/stubtrader.db"
	defaultTokenIssuer   = "stubtrader"
	defaultTokenTTL      = 24 * time.Hour
	defaultAllowedOrigin = "http://localhost:5173"
)

// Config aggregates runtime settings for the stub trading backend.
type Config struct {
	ListenAddr     string
	DatabaseURL    string
	SigningKey     string
	TokenIssuer    string
	TokenTTL       time.Duration
	AllowedOrigins []string
}

// Validate ensures the configuration contains sane values.
func (cfg *Config) Validate() error {
	cfg.ListenAddr = defaultIfEmpty(cfg.ListenAddr, defaultListenAddr)
	cfg.DatabaseURL = defaultIfEmpty(cfg.DatabaseURL, defaultDatabaseURL)
	cfg.TokenIssuer = defaultIfEmpty(cfg.TokenIssuer, defaultTokenIssuer)
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = defaultTokenTTL
	}
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{defaultAllowedOrigin}
	}
	if len(cfg.SigningKey) == 0 {
		return fmt.Errorf("jwt signing key is required")
	}
	return nil
}

func defaultIfEmpty(value string, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

// ParseAllowedOrigins splits comma-delimited origins into a slice.
func ParseAllowedOrigins(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return []string{}
	}
	parts := strings.Split(raw, ",")
	normalized := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			normalized = append(normalized, trimmed)
		}
	}
	return normalized
}
