package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds the server settings, read from ARENACHESS_* environment
// variables.
type Config struct {
	Addr          string
	AllowedOrigin string
	ComputerDelay time.Duration
	LogLevel      string
	LogPretty     bool
}

func Default() Config {
	return Config{
		Addr:          ":3000",
		AllowedOrigin: "http://localhost:5173",
		ComputerDelay: 500 * time.Millisecond,
		LogLevel:      "info",
		LogPretty:     true,
	}
}

// Load reads the environment on top of the defaults.
func Load() (Config, error) {
	return load(os.LookupEnv)
}

func load(lookup func(string) (string, bool)) (Config, error) {
	cfg := Default()

	if v, ok := lookup("ARENACHESS_ADDR"); ok && v != "" {
		cfg.Addr = v
	}
	if v, ok := lookup("ARENACHESS_ALLOWED_ORIGIN"); ok && v != "" {
		cfg.AllowedOrigin = v
	}
	if v, ok := lookup("ARENACHESS_COMPUTER_DELAY"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d < 0 {
			return Config{}, fmt.Errorf("invalid ARENACHESS_COMPUTER_DELAY %q", v)
		}
		cfg.ComputerDelay = d
	}
	if v, ok := lookup("ARENACHESS_LOG_LEVEL"); ok && v != "" {
		cfg.LogLevel = v
	}
	if v, ok := lookup("ARENACHESS_LOG_PRETTY"); ok && v != "" {
		pretty, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid ARENACHESS_LOG_PRETTY %q: %w", v, err)
		}
		cfg.LogPretty = pretty
	}
	return cfg, nil
}
