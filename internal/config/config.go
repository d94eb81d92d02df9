package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Defaults. The cooldown default honors the documented once-per-minute
// placement rule.
const (
	DefaultPort          = "3000"
	DefaultCooldown      = 60 * time.Second
	DefaultStatsInterval = 60 * time.Second
	DefaultPublicDir     = "public"
)

type Config struct {
	Port          string
	DatabaseURL   string
	Cooldown      time.Duration
	StatsInterval time.Duration
	PublicDir     string
}

// Load reads .env (if present) and the environment.
func Load() Config {
	_ = godotenv.Load() // .env is optional

	return Config{
		Port:          getenv("PORT", DefaultPort),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		Cooldown:      secondsEnv("PLACE_COOLDOWN_SECONDS", DefaultCooldown),
		StatsInterval: secondsEnv("STATS_INTERVAL_SECONDS", DefaultStatsInterval),
		PublicDir:     getenv("PUBLIC_DIR", DefaultPublicDir),
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func secondsEnv(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return fallback
	}
	return time.Duration(n) * time.Second
}
