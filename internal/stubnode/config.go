package stubnode

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	defaultListenAddr = ":8336"
	defaultSessionTTL = 12 * time.Hour
)

// defaultInitialBalance funds every new profile's default account so local
// development flows have something to spend.
var defaultInitialBalance = decimal.RequireFromString("1000")

// Config aggregates runtime settings for the stub node.
type Config struct {
	ListenAddr     string
	SigningKey     string
	SessionTTL     time.Duration
	AllowedOrigins []string
	InitialBalance decimal.Decimal
}

// Validate ensures the configuration contains sane values.
func (cfg *Config) Validate() error {
	cfg.ListenAddr = defaultIfEmpty(cfg.ListenAddr, defaultListenAddr)
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = defaultSessionTTL
	}
	if cfg.InitialBalance.IsZero() {
		cfg.InitialBalance = defaultInitialBalance
	}
	if strings.TrimSpace(cfg.SigningKey) == "" {
		return fmt.Errorf("signing key is required")
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
