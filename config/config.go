package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	AppEnv             string `mapstructure:"APP_ENV"`
	Port               string `mapstructure:"PORT"`
	DatabaseURL        string `mapstructure:"DATABASE_URL"`
	DBConnectRetries   int    `mapstructure:"DB_CONNECT_RETRIES"`
	BaseURL            string `mapstructure:"BASE_URL"`
	ShortIDLength      int    `mapstructure:"SHORT_ID_LENGTH"`
	ShortenMaxAttempts int    `mapstructure:"SHORTEN_MAX_ATTEMPTS"`
	StatsBuffer        int    `mapstructure:"STATS_BUFFER"`
	LogLevel           string `mapstructure:"LOG_LEVEL"`
	CORSOrigins        string `mapstructure:"CORS_ORIGINS"`
}

// MaxShortIDLength is the number of hex digits in a uuid.
const MaxShortIDLength = 32

// App selects the per-binary defaults.
type App string

const (
	ShortURL App = "shorturl"
	Todo     App = "todo"
)

func Load(app App) (Config, error) {
	v := viper.New()

	v.SetDefault("APP_ENV", "local")
	v.SetDefault("DB_CONNECT_RETRIES", 5)
	v.SetDefault("BASE_URL", "")
	v.SetDefault("SHORT_ID_LENGTH", 6)
	v.SetDefault("SHORTEN_MAX_ATTEMPTS", 10)
	v.SetDefault("STATS_BUFFER", 1000)
	v.SetDefault("LOG_LEVEL", "debug")
	v.SetDefault("CORS_ORIGINS", "*")

	switch app {
	case ShortURL:
		v.SetDefault("PORT", "8000")
		v.SetDefault("DATABASE_URL", "sqlite://./data/url.db")
	case Todo:
		v.SetDefault("PORT", "8001")
		v.SetDefault("DATABASE_URL", "sqlite://./data/todo.db")
	default:
		return Config{}, fmt.Errorf("unknown app %q", app)
	}

	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unable to decode config: %w", err)
	}

	if cfg.ShortIDLength < 1 {
		return Config{}, fmt.Errorf("SHORT_ID_LENGTH must be positive, got %d", cfg.ShortIDLength)
	}
	if cfg.ShortIDLength > MaxShortIDLength {
		return Config{}, fmt.Errorf("SHORT_ID_LENGTH must be at most %d, got %d", MaxShortIDLength, cfg.ShortIDLength)
	}
	if cfg.ShortenMaxAttempts < 1 {
		return Config{}, fmt.Errorf("SHORTEN_MAX_ATTEMPTS must be positive, got %d", cfg.ShortenMaxAttempts)
	}

	return cfg, nil
}

// Origins splits CORS_ORIGINS on commas. A lone "*" means any origin.
func (c Config) Origins() []string {
	var origins []string
	for _, o := range strings.Split(c.CORSOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

func (c Config) Addr() string {
	return ":" + strings.TrimPrefix(c.Port, ":")
}

// Logger builds the process logger: JSON in production, text otherwise.
func (c Config) Logger() *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if c.AppEnv == "production" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	return slog.New(handler)
}
