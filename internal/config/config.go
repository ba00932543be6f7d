package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type APIConfig struct {
	Addr            string
	StoreBackend    string // postgres, sqlite or memory
	DatabaseURL     string
	SQLitePath      string
	AuthMode        string // provider or local
	AuthProviderURL string
	AuthProviderKey string
	LocalAuthSecret string
	TickEvery       time.Duration
	LeaderboardSize int
}

type CLIConfig struct {
	APIBaseURL string
}

func LoadAPIFromEnv() (APIConfig, error) {
	addr := os.Getenv("PORT")
	if addr != "" {
		if !strings.HasPrefix(addr, ":") {
			addr = ":" + addr
		}
	} else {
		addr = envDefault("DEVTYCOON_API_ADDR", ":8080")
	}

	cfg := APIConfig{
		Addr:            addr,
		StoreBackend:    strings.ToLower(envDefault("DEVTYCOON_STORE", "postgres")),
		DatabaseURL:     strings.TrimSpace(os.Getenv("DATABASE_URL")),
		SQLitePath:      envDefault("DEVTYCOON_SQLITE_PATH", "devtycoon.db"),
		AuthMode:        strings.ToLower(envDefault("DEVTYCOON_AUTH_MODE", "provider")),
		AuthProviderURL: strings.TrimRight(strings.TrimSpace(os.Getenv("DEVTYCOON_AUTH_URL")), "/"),
		AuthProviderKey: strings.TrimSpace(os.Getenv("DEVTYCOON_AUTH_ANON_KEY")),
		LocalAuthSecret: strings.TrimSpace(os.Getenv("DEVTYCOON_LOCAL_AUTH_SECRET")),
		TickEvery:       envDurationDefault("DEVTYCOON_TICK_EVERY", 5*time.Second),
		LeaderboardSize: envIntDefault("DEVTYCOON_LEADERBOARD_SIZE", 20),
	}

	switch cfg.StoreBackend {
	case "postgres":
		if cfg.DatabaseURL == "" {
			return cfg, fmt.Errorf("DATABASE_URL is required for the postgres store")
		}
	case "sqlite", "memory":
	default:
		return cfg, fmt.Errorf("DEVTYCOON_STORE must be postgres, sqlite or memory")
	}

	switch cfg.AuthMode {
	case "provider":
		if cfg.AuthProviderURL == "" {
			return cfg, fmt.Errorf("DEVTYCOON_AUTH_URL is required for provider auth")
		}
		if cfg.AuthProviderKey == "" {
			return cfg, fmt.Errorf("DEVTYCOON_AUTH_ANON_KEY is required for provider auth")
		}
	case "local":
		if cfg.LocalAuthSecret == "" {
			return cfg, fmt.Errorf("DEVTYCOON_LOCAL_AUTH_SECRET is required for local auth")
		}
	default:
		return cfg, fmt.Errorf("DEVTYCOON_AUTH_MODE must be provider or local")
	}

	return cfg, nil
}

func LoadCLIFromEnv() CLIConfig {
	return CLIConfig{
		APIBaseURL: strings.TrimRight(envDefault("DVT_API_BASE_URL", "http://localhost:8080"), "/"),
	}
}

func envDefault(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

func envDurationDefault(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func envIntDefault(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
