// Package config holds runtime settings and the designer catalog file format.
package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/talgya/caravan-market/internal/economy"
)

// Restock units name the engine callback that drives economy.Tick.
const (
	UnitTick = "tick"
	UnitHour = "hour"
	UnitDay  = "day"
)

// Settings configure the shopsim host.
type Settings struct {
	DBPath       string
	CatalogPath  string
	Port         int
	AdminKey     string
	Seed         int64
	TickInterval time.Duration
	RestockUnit  string
	RestockMode  economy.RestockMode
	GlobalRate   int
}

// Default returns the settings used when no environment is set.
func Default() Settings {
	return Settings{
		DBPath:       "data/caravan.db",
		CatalogPath:  "data/catalog.yaml",
		Port:         8080,
		Seed:         42,
		TickInterval: time.Second,
		RestockUnit:  UnitHour,
		RestockMode:  economy.RestockPerShop,
		GlobalRate:   24,
	}
}

// FromEnv loads settings from SHOPSIM_* environment variables.
// Unset or malformed values keep their defaults.
func FromEnv() Settings {
	cfg := Default()

	if val := os.Getenv("SHOPSIM_DB"); val != "" {
		cfg.DBPath = val
	}
	if val := os.Getenv("SHOPSIM_CATALOG"); val != "" {
		cfg.CatalogPath = val
	}
	if val := getEnvInt("SHOPSIM_PORT"); val > 0 {
		cfg.Port = val
	}
	cfg.AdminKey = os.Getenv("SHOPSIM_ADMIN_KEY")
	if val := os.Getenv("SHOPSIM_SEED"); val != "" {
		if seed, err := strconv.ParseInt(val, 10, 64); err == nil {
			cfg.Seed = seed
		} else {
			slog.Warn("ignoring SHOPSIM_SEED", "value", val, "error", err)
		}
	}
	if val := getEnvInt("SHOPSIM_TICK_MS"); val > 0 {
		cfg.TickInterval = time.Duration(val) * time.Millisecond
	}
	if val := strings.ToLower(os.Getenv("SHOPSIM_RESTOCK_UNIT")); val != "" {
		switch val {
		case UnitTick, UnitHour, UnitDay:
			cfg.RestockUnit = val
		default:
			slog.Warn("ignoring SHOPSIM_RESTOCK_UNIT", "value", val)
		}
	}
	if val := os.Getenv("SHOPSIM_RESTOCK_MODE"); val != "" {
		if mode, err := economy.ParseRestockMode(val); err == nil {
			cfg.RestockMode = mode
		} else {
			slog.Warn("ignoring SHOPSIM_RESTOCK_MODE", "error", err)
		}
	}
	if val := getEnvInt("SHOPSIM_GLOBAL_RATE"); val > 0 {
		cfg.GlobalRate = val
	}

	return cfg
}

func getEnvInt(key string) int {
	val := os.Getenv(key)
	if val == "" {
		return 0
	}
	num, err := strconv.Atoi(val)
	if err != nil {
		return 0
	}
	return num
}
