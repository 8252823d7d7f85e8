package reconcile

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/Ratio1/poststats_go/pkg/page"
	"github.com/Ratio1/poststats_go/pkg/remote"
	"github.com/Ratio1/poststats_go/pkg/statcache"
	"github.com/Ratio1/poststats_go/pkg/stats"
)

// Reconciler drives one page instance.
type Reconciler struct {
	page   page.Page
	cache  *statcache.Store
	ledger *statcache.Ledger
	remote Remote

	batchSize     int
	viewDelay     time.Duration
	notifier      Notifier
	failureNotice string
	clock         Clock
	logger        *slog.Logger

	// mu serializes every load-modify-save turn over the page and the cache.
	// Network calls are made without holding it.
	mu        sync.Mutex
	ids       []string
	attached  bool
	closed    bool
	loaded    bool
	viewID    string
	viewTimer Timer
	locked    map[string]bool
}

// New wires a Reconciler. cache and ledger usually share one storage.
func New(p page.Page, cache *statcache.Store, ledger *statcache.Ledger, rem Remote, opts ...Option) *Reconciler {
	r := &Reconciler{
		page:          p,
		cache:         cache,
		ledger:        ledger,
		remote:        rem,
		batchSize:     remote.DefaultMaxBatch,
		viewDelay:     DefaultViewDelay,
		failureNotice: DefaultFailureNotice,
		clock:         realClock{},
		logger:        slog.Default(),
		locked:        make(map[string]bool),
	}
	r.notifier = NotifierFunc(func(msg string) { r.logger.Warn(msg) })
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run performs the page-load sequence. It returns nil when the page has no
// ids. Batch failures are logged and skipped; only a cancelled ctx stops the
// sequence early.
func (r *Reconciler) Run(ctx context.Context) error {
	ids := r.page.CollectIDs()
	if len(ids) == 0 {
		r.logger.Debug("no stat containers on page")
		return nil
	}

	r.hydrate(ctx, ids)

	for i, batch := range remote.Batches(ids, r.batchSize) {
		if err := ctx.Err(); err != nil {
			return err
		}
		data, err := r.remote.FetchStatsBatch(ctx, batch)
		if err != nil {
			r.logger.Warn("fetch stats batch failed", "batch", i, "size", len(batch), "error", err)
			continue
		}
		r.apply(ctx, data)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.ids = ids
	if r.closed {
		return nil
	}
	if len(ids) == 1 {
		r.viewID = ids[0]
		r.scheduleViewLocked()
	}
	r.attached = true
	return nil
}

// IDs returns the ids collected by Run.
func (r *Reconciler) IDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.ids...)
}

// Close cancels a pending view report and detaches the like handler.
func (r *Reconciler) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	r.attached = false
	if r.viewTimer != nil {
		r.viewTimer.Stop()
	}
}

func (r *Reconciler) hydrate(ctx context.Context, ids []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cached := r.cache.Load(ctx)
	for _, id := range ids {
		if rec, ok := cached[id]; ok {
			r.page.RenderStats(id, rec)
		}
	}
}

func (r *Reconciler) apply(ctx context.Context, updates map[string]stats.Record) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cached := r.cache.Load(ctx)
	for id, rec := range updates {
		cached[id] = rec
		r.page.RenderStats(id, rec)
	}
	r.cache.Save(ctx, cached)
}
