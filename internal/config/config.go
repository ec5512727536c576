package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	APIID      string
	APIHash    string
	Phone      string
	APIURL     string
	TargetLink string
	LogLevel   string
}

func Load() Config {
	// Optional .env next to the binary; real env vars win.
	_ = godotenv.Load()

	return Config{
		APIID:      envStr("TG_API_ID", ""),
		APIHash:    envStr("TG_API_HASH", ""),
		Phone:      envStr("TG_PHONE", ""),
		APIURL:     envStr("TG_API_URL", "https://gateway.telegram-export.dev"),
		TargetLink: envStr("TG_TARGET_LINK", ""),
		LogLevel:   envStr("LOG_LEVEL", "info"),
	}
}

// Validate checks that the credentials required for API access are present.
func (c Config) Validate() error {
	if c.APIID == "" {
		return fmt.Errorf("TG_API_ID is required")
	}
	if _, err := strconv.Atoi(c.APIID); err != nil {
		return fmt.Errorf("TG_API_ID must be numeric: %q", c.APIID)
	}
	if c.APIHash == "" {
		return fmt.Errorf("TG_API_HASH is required")
	}
	return nil
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
