package poststats

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/Ratio1/poststats_go/pkg/kvstore"
	"github.com/Ratio1/poststats_go/pkg/remote"
)

// Runtime modes.
const (
	ModeAuto = "auto"
	ModeHTTP = "http"
	ModeMock = "mock"
)

// Config is the environment contract of a poststats runtime. A zero
// ViewDelay reports the view as soon as the page is loaded.
type Config struct {
	Mode      string        `env:"POSTSTATS_RUNTIME_MODE" envDefault:"auto"`
	APIURL    string        `env:"POSTSTATS_API_URL"`
	MockSeed  string        `env:"POSTSTATS_MOCK_SEED"`
	BatchMax  int           `env:"POSTSTATS_BATCH_MAX" envDefault:"80"`
	ViewDelay time.Duration `env:"POSTSTATS_VIEW_DELAY" envDefault:"300ms"`
	LogLevel  string        `env:"POSTSTATS_LOG_LEVEL" envDefault:"info"`
	Storage   kvstore.EnvConfig
}

// LoadConfig reads Config from the process environment.
func LoadConfig() (Config, error) {
	return parseConfig(env.Options{})
}

// LoadConfigFrom reads Config from the given variables only.
func LoadConfigFrom(vars map[string]string) (Config, error) {
	return parseConfig(env.Options{Environment: vars})
}

func parseConfig(opts env.Options) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return Config{}, fmt.Errorf("poststats: parse env: %w", err)
	}
	cfg.Mode = strings.ToLower(strings.TrimSpace(cfg.Mode))
	cfg.APIURL = strings.TrimSpace(cfg.APIURL)
	cfg.MockSeed = strings.TrimSpace(cfg.MockSeed)
	if cfg.BatchMax <= 0 || cfg.BatchMax > remote.DefaultMaxBatch {
		return Config{}, fmt.Errorf("poststats: POSTSTATS_BATCH_MAX must be in 1..%d, got %d", remote.DefaultMaxBatch, cfg.BatchMax)
	}
	if cfg.ViewDelay < 0 {
		return Config{}, fmt.Errorf("poststats: POSTSTATS_VIEW_DELAY must not be negative")
	}
	return cfg, nil
}

// ParseLogLevel maps a level name to a slog.Level, defaulting to info.
func ParseLogLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
