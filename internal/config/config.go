package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DBDriver    string
	DatabaseURL string
	Port        string

	SweepInterval    time.Duration
	SweepConcurrency int
	ReminderLead     time.Duration
	WarningLead      time.Duration
	NotifyTimeout    time.Duration
}

func defaults() Config {
	return Config{
		DBDriver:         "sqlite3",
		DatabaseURL:      "file:bracket.db?_busy_timeout=5000",
		Port:             "8080",
		SweepInterval:    time.Minute,
		SweepConcurrency: 4,
		ReminderLead:     24 * time.Hour,
		WarningLead:      2 * time.Hour,
		NotifyTimeout:    5 * time.Second,
	}
}

// Load reads a .env file if there is one and then the process environment.
// Unset variables keep their defaults.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found, using environment variables")
	}
	return FromEnv(os.Getenv)
}

func FromEnv(getenv func(string) string) (Config, error) {
	cfg := defaults()

	if v := getenv("DB_DRIVER"); v != "" {
		cfg.DBDriver = v
	}
	if v := getenv("DATABASE_URL"); v != "" {
		cfg.DatabaseURL = v
	}
	if v := getenv("PORT"); v != "" {
		cfg.Port = v
	}

	durations := []struct {
		key string
		dst *time.Duration
	}{
		{"SWEEP_INTERVAL", &cfg.SweepInterval},
		{"REMINDER_LEAD", &cfg.ReminderLead},
		{"WARNING_LEAD", &cfg.WarningLead},
		{"NOTIFY_TIMEOUT", &cfg.NotifyTimeout},
	}
	for _, d := range durations {
		v := getenv(d.key)
		if v == "" {
			continue
		}
		parsed, err := time.ParseDuration(v)
		if err != nil || parsed <= 0 {
			return Config{}, fmt.Errorf("invalid %s %q: must be a positive duration", d.key, v)
		}
		*d.dst = parsed
	}

	if v := getenv("SWEEP_CONCURRENCY"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return Config{}, fmt.Errorf("invalid SWEEP_CONCURRENCY %q: must be a positive integer", v)
		}
		cfg.SweepConcurrency = n
	}

	switch cfg.DBDriver {
	case "sqlite3", "postgres":
	default:
		return Config{}, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}
	if cfg.WarningLead > cfg.ReminderLead {
		return Config{}, fmt.Errorf("WARNING_LEAD %s is longer than REMINDER_LEAD %s", cfg.WarningLead, cfg.ReminderLead)
	}
	return cfg, nil
}
