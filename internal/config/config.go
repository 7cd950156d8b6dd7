package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env         string
	ListenAddr  string
	StrategyDir string
	PolicyPath  string
	LogLevel    string
	ShareTTL    time.Duration
	DefaultView string
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def, fmt.Errorf("%s: %w", key, err)
	}
	if d <= 0 {
		return def, fmt.Errorf("%s must be positive", key)
	}
	return d, nil
}

// LoadDotEnv reads the given .env files, or ./.env when none are named.
// A missing ./.env is not an error, but a named file must exist. Variables
// already set win.
func LoadDotEnv(files ...string) error {
	err := godotenv.Load(files...)
	if err != nil && len(files) == 0 && errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

func Load() (Config, error) {
	cfg := Config{
		Env:         getenv("APP_ENV", "development"),
		ListenAddr:  getenv("LISTEN_ADDR", ":8080"),
		StrategyDir: getenv("STRATEGY_DIR", "strategies"),
		PolicyPath:  os.Getenv("POLICY_PATH"),
		LogLevel:    getenv("LOG_LEVEL", "info"),
		DefaultView: getenv("DEFAULT_VIEW", "client"),
	}
	ttl, err := getenvDuration("SHARE_TTL", 7*24*time.Hour)
	cfg.ShareTTL = ttl
	if err != nil {
		// Not fatal; callers decide whether a bad TTL should stop startup.
		return cfg, err
	}
	return cfg, nil
}
