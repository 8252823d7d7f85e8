package kvstore

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
)

// Backend names accepted by Open.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// EnvConfig selects and locates a storage backend.
type EnvConfig struct {
	Backend string `env:"POSTSTATS_STORAGE" envDefault:"memory"`
	Path    string `env:"POSTSTATS_STORAGE_PATH"`
}

// NewFromEnv builds a Storage from POSTSTATS_STORAGE and
// POSTSTATS_STORAGE_PATH and returns the resolved backend name.
func NewFromEnv() (Storage, string, error) {
	var cfg EnvConfig
	if err := env.Parse(&cfg); err != nil {
		return nil, "", fmt.Errorf("kvstore: parse env: %w", err)
	}
	return Open(cfg)
}

// Open builds the Storage described by cfg.
func Open(cfg EnvConfig) (Storage, string, error) {
	backend := strings.ToLower(strings.TrimSpace(cfg.Backend))
	path := strings.TrimSpace(cfg.Path)

	switch backend {
	case "", BackendMemory:
		return NewMemory(), BackendMemory, nil
	case BackendFile:
		if path == "" {
			return nil, "", fmt.Errorf("kvstore: %s backend requires POSTSTATS_STORAGE_PATH", BackendFile)
		}
		f, err := OpenFile(path)
		if err != nil {
			return nil, "", err
		}
		return f, BackendFile, nil
	case BackendSQLite:
		if path == "" {
			return nil, "", fmt.Errorf("kvstore: %s backend requires POSTSTATS_STORAGE_PATH", BackendSQLite)
		}
		s, err := OpenSQLite(path)
		if err != nil {
			return nil, "", err
		}
		return s, BackendSQLite, nil
	default:
		return nil, "", fmt.Errorf("kvstore: unsupported POSTSTATS_STORAGE value %q", cfg.Backend)
	}
}
