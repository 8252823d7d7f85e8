package reconcile_test

import (
	"context"
	"sync"
	"time"

	"github.com/Ratio1/poststats_go/pkg/reconcile"
	"github.com/Ratio1/poststats_go/pkg/stats"
)

type fakeRemote struct {
	mu      sync.Mutex
	batches [][]string
	views   []string
	likes   []string

	stats     map[string]stats.Record
	fetchErr  func(call int) error
	onFetch   func(call int)
	likeTotal int64
	likeErr   error
	onLike    func(id string)
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{stats: make(map[string]stats.Record)}
}

func (f *fakeRemote) FetchStatsBatch(ctx context.Context, ids []string) (map[string]stats.Record, error) {
	f.mu.Lock()
	f.batches = append(f.batches, append([]string(nil), ids...))
	call := len(f.batches)
	onFetch, fetchErr := f.onFetch, f.fetchErr
	f.mu.Unlock()

	if onFetch != nil {
		onFetch(call)
	}
	if fetchErr != nil {
		if err := fetchErr(call); err != nil {
			return nil, err
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]stats.Record)
	for _, id := range ids {
		if rec, ok := f.stats[id]; ok {
			out[id] = rec
		}
	}
	return out, nil
}

func (f *fakeRemote) ReportView(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.views = append(f.views, id)
}

func (f *fakeRemote) ReportLike(ctx context.Context, id string) (int64, error) {
	f.mu.Lock()
	f.likes = append(f.likes, id)
	onLike := f.onLike
	total, err := f.likeTotal, f.likeErr
	f.mu.Unlock()

	if onLike != nil {
		onLike(id)
	}
	return total, err
}

func (f *fakeRemote) viewCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.views)
}

func (f *fakeRemote) likeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.likes)
}

func (f *fakeRemote) batchSizes() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	sizes := make([]int, 0, len(f.batches))
	for _, b := range f.batches {
		sizes = append(sizes, len(b))
	}
	return sizes
}

type fakeClock struct {
	mu     sync.Mutex
	timers []*fakeTimer
}

type fakeTimer struct {
	delay   time.Duration
	fn      func()
	stopped bool
	fired   bool
}

func (t *fakeTimer) Stop() bool {
	was := !t.stopped && !t.fired
	t.stopped = true
	return was
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) reconcile.Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{delay: d, fn: f}
	c.timers = append(c.timers, t)
	return t
}

// fire runs every pending timer once.
func (c *fakeClock) fire() {
	c.mu.Lock()
	pending := append([]*fakeTimer(nil), c.timers...)
	c.mu.Unlock()
	for _, t := range pending {
		if t.stopped || t.fired {
			continue
		}
		t.fired = true
		t.fn()
	}
}

func (c *fakeClock) scheduled() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]time.Duration, 0, len(c.timers))
	for _, t := range c.timers {
		out = append(out, t.delay)
	}
	return out
}

type notices struct {
	mu   sync.Mutex
	msgs []string
}

func (n *notices) Notify(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.msgs = append(n.msgs, msg)
}

func (n *notices) all() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.msgs...)
}
