package statcache

import (
	"context"
	"log/slog"

	"github.com/Ratio1/poststats_go/pkg/kvstore"
)

// DefaultLikePrefix namespaces the per-item like markers.
const DefaultLikePrefix = "liked:"

// Ledger records which items this device has already liked. A marker is
// never removed.
type Ledger struct {
	storage kvstore.Storage
	prefix  string
	logger  *slog.Logger
}

// NewLedger returns a Ledger persisting into storage.
func NewLedger(storage kvstore.Storage, opts ...Option) *Ledger {
	o := buildOptions(opts)
	return &Ledger{storage: storage, prefix: o.prefix, logger: o.logger}
}

// FlagKey returns the storage key of the marker for id.
func (l *Ledger) FlagKey(id string) string { return l.prefix + id }

// Liked reports whether id carries a marker. Unreadable storage counts as not
// liked.
func (l *Ledger) Liked(ctx context.Context, id string) bool {
	if l == nil || l.storage == nil {
		return false
	}
	value, ok, err := l.storage.GetItem(ctx, l.FlagKey(id))
	if err != nil {
		l.logger.Debug("like ledger unreadable", "id", id, "error", err)
		return false
	}
	return ok && value != ""
}

// MarkLiked stores the marker for id. Write failures are dropped.
func (l *Ledger) MarkLiked(ctx context.Context, id string) {
	if l == nil || l.storage == nil {
		return
	}
	if err := l.storage.SetItem(ctx, l.FlagKey(id), "1"); err != nil {
		l.logger.Debug("like ledger save failed", "id", id, "error", err)
	}
}
