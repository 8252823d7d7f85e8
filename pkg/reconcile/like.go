package reconcile

import (
	"context"

	"github.com/Ratio1/poststats_go/pkg/stats"
)

// LikeOutcome describes what a like activation did.
type LikeOutcome int

const (
	// LikeIgnored means the handler is not attached or the id is empty.
	LikeIgnored LikeOutcome = iota
	// LikeAlreadyLiked means the ledger already holds a marker; no request
	// was sent.
	LikeAlreadyLiked
	// LikeInFlight means the control is disabled by an earlier activation.
	LikeInFlight
	// LikeConfirmed means the endpoint accepted the like.
	LikeConfirmed
	// LikeFailed means the endpoint rejected the like and the page was
	// rolled back.
	LikeFailed
)

func (o LikeOutcome) String() string {
	switch o {
	case LikeIgnored:
		return "ignored"
	case LikeAlreadyLiked:
		return "already-liked"
	case LikeInFlight:
		return "in-flight"
	case LikeConfirmed:
		return "confirmed"
	case LikeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Like handles a user activation of the like control of id.
//
// The displayed count is bumped and the control disabled before the request
// is sent. On confirmation the ledger marker is written, the cached likes
// take the server total (or the optimistic value when the server sent none)
// and the control stays disabled. On failure the displayed count is restored,
// the control re-enabled, the user notified and the error returned.
func (r *Reconciler) Like(ctx context.Context, id string) (LikeOutcome, error) {
	r.mu.Lock()
	if !r.attached || id == "" {
		r.mu.Unlock()
		return LikeIgnored, nil
	}
	if r.ledger.Liked(ctx, id) {
		r.mu.Unlock()
		return LikeAlreadyLiked, nil
	}
	if r.locked[id] || !r.page.LikeEnabled(id) {
		r.mu.Unlock()
		return LikeInFlight, nil
	}
	original := r.page.DisplayedLikes(id)
	optimistic := original + 1
	r.page.SetDisplayedLikes(id, optimistic)
	r.page.SetLikeEnabled(id, false)
	r.locked[id] = true
	r.mu.Unlock()

	confirmed, err := r.remote.ReportLike(ctx, id)
	if err != nil {
		r.mu.Lock()
		delete(r.locked, id)
		r.page.SetDisplayedLikes(id, original)
		r.page.SetLikeEnabled(id, true)
		r.mu.Unlock()

		r.logger.Warn("like not confirmed", "id", id, "error", err)
		r.notifier.Notify(r.failureNotice)
		return LikeFailed, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.ledger.MarkLiked(ctx, id)
	if confirmed <= 0 {
		confirmed = optimistic
	}
	cached := r.cache.Load(ctx)
	rec := cached[id]
	rec.Likes = stats.Count(confirmed)
	cached[id] = rec
	r.cache.Save(ctx, cached)
	return LikeConfirmed, nil
}
