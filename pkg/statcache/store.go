package statcache

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/Ratio1/poststats_go/pkg/kvstore"
	"github.com/Ratio1/poststats_go/pkg/stats"
)

// DefaultCacheKey is the storage key of the counters blob.
const DefaultCacheKey = "stats-cache-v1"

// Option configures a Store or a Ledger.
type Option func(*options)

type options struct {
	key    string
	prefix string
	logger *slog.Logger
}

// WithKey overrides the blob key used by a Store.
func WithKey(key string) Option {
	return func(o *options) {
		if strings.TrimSpace(key) != "" {
			o.key = key
		}
	}
}

// WithPrefix overrides the flag key prefix used by a Ledger.
func WithPrefix(prefix string) Option {
	return func(o *options) {
		if prefix != "" {
			o.prefix = prefix
		}
	}
}

// WithLogger sets the logger used for diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{
		key:    DefaultCacheKey,
		prefix: DefaultLikePrefix,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Store is the local cache of counters keyed by item id.
type Store struct {
	storage kvstore.Storage
	key     string
	logger  *slog.Logger
}

// NewStore returns a Store persisting into storage.
func NewStore(storage kvstore.Storage, opts ...Option) *Store {
	o := buildOptions(opts)
	return &Store{storage: storage, key: o.key, logger: o.logger}
}

// Key returns the storage key of the blob.
func (s *Store) Key() string { return s.key }

// Load returns the cached counters. Absence, read errors and malformed
// blobs all yield an empty, non-nil mapping.
func (s *Store) Load(ctx context.Context) map[string]stats.Record {
	out := make(map[string]stats.Record)
	if s == nil || s.storage == nil {
		return out
	}
	raw, ok, err := s.storage.GetItem(ctx, s.key)
	if err != nil {
		s.logger.Debug("stats cache unreadable", "key", s.key, "error", err)
		return out
	}
	if !ok || strings.TrimSpace(raw) == "" {
		return out
	}
	var decoded map[string]stats.Record
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		s.logger.Debug("stats cache discarded", "key", s.key, "error", err)
		return out
	}
	for id, rec := range decoded {
		out[id] = rec
	}
	return out
}

// Save persists the counters. Failures such as kvstore.ErrQuotaExceeded are
// logged at debug level and dropped.
func (s *Store) Save(ctx context.Context, records map[string]stats.Record) {
	if s == nil || s.storage == nil {
		return
	}
	if records == nil {
		records = map[string]stats.Record{}
	}
	data, err := json.Marshal(records)
	if err != nil {
		s.logger.Debug("stats cache encode failed", "error", err)
		return
	}
	if err := s.storage.SetItem(ctx, s.key, string(data)); err != nil {
		s.logger.Debug("stats cache save failed", "key", s.key, "error", err)
	}
}
