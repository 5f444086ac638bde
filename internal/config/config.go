package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config carries process-level settings sourced from the environment.
type Config struct {
	ListenAddr    string
	DatabaseDSN   string
	AdminEmail    string
	AdminPassword string
	SecureCookies bool
	RateBurst     int
	RatePerSec    int
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getenvInt(k string, def int) int {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Fatalf("invalid integer for %s: %q", k, v)
	}
	return n
}

func must(v string, name string) string {
	if v == "" {
		log.Fatalf("missing required env %s", name)
	}
	return v
}

// Load reads configuration from the environment. A .env file in the working
// directory is applied first when present.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		ListenAddr:    getenv("SKINCHECK_ADDR", ":8080"),
		DatabaseDSN:   must(os.Getenv("SKINCHECK_PG_DSN"), "SKINCHECK_PG_DSN"),
		AdminEmail:    getenv("SKINCHECK_ADMIN_EMAIL", "admin@skincare-ai.com"),
		AdminPassword: getenv("SKINCHECK_ADMIN_PASSWORD", "admin123"),
		SecureCookies: getenv("SKINCHECK_SECURE_COOKIES", "false") == "true",
		RateBurst:     getenvInt("SKINCHECK_RATE_BURST", 20),
		RatePerSec:    getenvInt("SKINCHECK_RATE_PER_SEC", 10),
	}
}
