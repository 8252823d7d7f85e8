package reconcile

import (
	"context"
	"log/slog"
	"time"

	"github.com/Ratio1/poststats_go/pkg/remote"
	"github.com/Ratio1/poststats_go/pkg/stats"
)

const (
	// DefaultViewDelay is how long after page load a view is reported.
	DefaultViewDelay = 300 * time.Millisecond
	// DefaultFailureNotice is shown when a like is not confirmed.
	DefaultFailureNotice = "Could not send your like, please try again later."
)

// Remote is the subset of remote.Client the reconciler needs.
type Remote interface {
	FetchStatsBatch(ctx context.Context, ids []string) (map[string]stats.Record, error)
	ReportView(id string)
	ReportLike(ctx context.Context, id string) (int64, error)
}

var _ Remote = (*remote.Client)(nil)

// Notifier surfaces a message to the user.
type Notifier interface {
	Notify(message string)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(message string)

// Notify implements Notifier.
func (f NotifierFunc) Notify(message string) { f(message) }

// Timer is a scheduled callback that can be cancelled.
type Timer interface {
	Stop() bool
}

// Clock schedules callbacks. The default uses time.AfterFunc.
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realClock struct{}

func (realClock) AfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithBatchSize sets the number of ids per read request.
func WithBatchSize(n int) Option {
	return func(r *Reconciler) {
		if n > 0 {
			r.batchSize = n
		}
	}
}

// WithViewDelay sets the delay between page load and the view report.
func WithViewDelay(d time.Duration) Option {
	return func(r *Reconciler) {
		if d >= 0 {
			r.viewDelay = d
		}
	}
}

// WithNotifier sets where like failures are announced.
func WithNotifier(n Notifier) Option {
	return func(r *Reconciler) {
		if n != nil {
			r.notifier = n
		}
	}
}

// WithFailureNotice overrides DefaultFailureNotice.
func WithFailureNotice(msg string) Option {
	return func(r *Reconciler) {
		if msg != "" {
			r.failureNotice = msg
		}
	}
}

// WithClock replaces the timer source.
func WithClock(c Clock) Option {
	return func(r *Reconciler) {
		if c != nil {
			r.clock = c
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Reconciler) {
		if l != nil {
			r.logger = l
		}
	}
}
