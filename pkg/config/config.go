// Package config loads environment-driven settings, optionally seeded from a
// .env file, plus the symbol profile table.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"signal-core/internal/signal"
)

// Config holds the runtime settings for the signal core.
type Config struct {
	Port string

	// Feed transport
	FeedURL string
	Symbols []string

	// Simulation fallback
	SimSeed         int64
	SimSignalChance float64

	// Symbol profile overrides
	SymbolsFile string

	LogLevel string
}

// Load reads environment variables (optionally via .env) into Config.
func Load() (*Config, error) {
	// Ignore error so the app still starts when .env is missing.
	_ = godotenv.Load()

	symbols := splitAndTrim(getEnv("SYMBOLS", "EURUSD,GBPUSD,USDJPY,AUDUSD"))
	if len(symbols) == 0 {
		return nil, fmt.Errorf("SYMBOLS must name at least one instrument")
	}

	return &Config{
		Port:            getEnv("PORT", "8080"),
		FeedURL:         getEnv("FEED_URL", "ws://localhost:8000/ws"),
		Symbols:         symbols,
		SimSeed:         int64(getEnvInt("SIM_SEED", 0)),
		SimSignalChance: getEnvFloat("SIM_SIGNAL_CHANCE", 0.3),
		SymbolsFile:     getEnv("SYMBOLS_FILE", ""),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
	}, nil
}

// Profiles returns the symbol profile table: built-in defaults merged with
// any overrides from the YAML file named by SYMBOLS_FILE.
func (c *Config) Profiles() (map[string]signal.Profile, error) {
	profiles := signal.DefaultProfiles()
	if c.SymbolsFile == "" {
		return profiles, nil
	}

	raw, err := os.ReadFile(c.SymbolsFile)
	if err != nil {
		return nil, fmt.Errorf("read symbols file: %w", err)
	}

	var overrides struct {
		Symbols []signal.Profile `yaml:"symbols"`
	}
	if err := yaml.Unmarshal(raw, &overrides); err != nil {
		return nil, fmt.Errorf("parse symbols file: %w", err)
	}

	for _, p := range overrides.Symbols {
		if p.Symbol == "" {
			continue
		}
		profiles[p.Symbol] = p
	}
	return profiles, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func splitAndTrim(val string) []string {
	parts := strings.Split(val, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func getEnvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}
