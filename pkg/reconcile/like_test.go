package reconcile_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ratio1/poststats_go/pkg/kvstore"
	"github.com/Ratio1/poststats_go/pkg/page"
	pagemock "github.com/Ratio1/poststats_go/pkg/page/mock"
	"github.com/Ratio1/poststats_go/pkg/reconcile"
	"github.com/Ratio1/poststats_go/pkg/statcache"
	"github.com/Ratio1/poststats_go/pkg/stats"
)

func likeHarness(t *testing.T, displayed stats.Record, opts ...reconcile.Option) *harness {
	t.Helper()
	p := pagemock.New("post")
	h := newHarness(p, kvstore.NewMemory(), opts...)
	h.remote.stats["post"] = displayed
	require.NoError(t, h.rec.Run(context.Background()))
	return h
}

func TestLikeConfirmed(t *testing.T) {
	h := likeHarness(t, stats.Record{Views: 40, Likes: 10})
	h.remote.likeTotal = 15

	var during pagemock.Item
	var enabledDuring bool
	h.remote.onLike = func(string) {
		during, _ = h.page.Item("post")
		enabledDuring = h.page.LikeEnabled("post")
	}

	outcome, err := h.rec.Like(context.Background(), "post")
	require.NoError(t, err)
	assert.Equal(t, reconcile.LikeConfirmed, outcome)
	assert.Equal(t, "11", during.Likes, "optimistic increment happens before the request")
	assert.False(t, enabledDuring)

	assert.True(t, h.ledger.Liked(context.Background(), "post"))
	assert.Equal(t, stats.Record{Views: 40, Likes: 15}, h.cache.Load(context.Background())["post"])
	assert.False(t, h.page.LikeEnabled("post"), "control stays disabled after confirmation")
	assert.Equal(t, int64(11), h.page.DisplayedLikes("post"))
	assert.Empty(t, h.notices.all())
}

func TestLikeConfirmedWithoutServerTotal(t *testing.T) {
	h := likeHarness(t, stats.Record{Likes: 10})
	h.remote.likeTotal = 0

	outcome, err := h.rec.Like(context.Background(), "post")
	require.NoError(t, err)
	assert.Equal(t, reconcile.LikeConfirmed, outcome)
	assert.Equal(t, stats.Count(11), h.cache.Load(context.Background())["post"].Likes)
}

func TestLikeOnUncachedItemCreatesEntry(t *testing.T) {
	p := pagemock.New("fresh")
	h := newHarness(p, kvstore.NewMemory())
	h.remote.fetchErr = func(int) error { return errors.New("offline") }
	h.remote.likeTotal = 1
	require.NoError(t, h.rec.Run(context.Background()))

	_, err := h.rec.Like(context.Background(), "fresh")
	require.NoError(t, err)
	assert.Equal(t, stats.Record{Views: 0, Likes: 1}, h.cache.Load(context.Background())["fresh"])
}

func TestLikeRollback(t *testing.T) {
	h := likeHarness(t, stats.Record{Likes: 10})
	h.remote.likeErr = errors.New("like failed")

	var during int64
	h.remote.onLike = func(string) { during = h.page.DisplayedLikes("post") }

	outcome, err := h.rec.Like(context.Background(), "post")
	assert.Error(t, err)
	assert.Equal(t, reconcile.LikeFailed, outcome)
	assert.Equal(t, int64(11), during)
	assert.Equal(t, int64(10), h.page.DisplayedLikes("post"))
	assert.True(t, h.page.LikeEnabled("post"))
	assert.False(t, h.ledger.Liked(context.Background(), "post"))
	assert.Equal(t, []string{reconcile.DefaultFailureNotice}, h.notices.all())
	assert.Equal(t, stats.Count(10), h.cache.Load(context.Background())["post"].Likes)

	// The control is usable again and a retry reaches the network.
	h.remote.likeErr = nil
	h.remote.likeTotal = 11
	h.remote.onLike = nil
	outcome, err = h.rec.Like(context.Background(), "post")
	require.NoError(t, err)
	assert.Equal(t, reconcile.LikeConfirmed, outcome)
	assert.Equal(t, 2, h.remote.likeCount())
}

func TestLikeAlreadyLikedIsNoop(t *testing.T) {
	storage := kvstore.NewMemory()
	statcache.NewLedger(storage).MarkLiked(context.Background(), "post")

	p := pagemock.New("post")
	h := newHarness(p, storage)
	h.remote.stats["post"] = stats.Record{Likes: 7}
	require.NoError(t, h.rec.Run(context.Background()))

	for i := 0; i < 2; i++ {
		outcome, err := h.rec.Like(context.Background(), "post")
		require.NoError(t, err)
		assert.Equal(t, reconcile.LikeAlreadyLiked, outcome)
	}
	assert.Zero(t, h.remote.likeCount())
	assert.Equal(t, int64(7), p.DisplayedLikes("post"))
	assert.True(t, p.LikeEnabled("post"))
}

func TestSecondLikeAfterConfirmationIsNoop(t *testing.T) {
	h := likeHarness(t, stats.Record{Likes: 1})
	h.remote.likeTotal = 2

	_, err := h.rec.Like(context.Background(), "post")
	require.NoError(t, err)
	outcome, err := h.rec.Like(context.Background(), "post")
	require.NoError(t, err)
	assert.Equal(t, reconcile.LikeAlreadyLiked, outcome)
	assert.Equal(t, 1, h.remote.likeCount())
	assert.Equal(t, int64(2), h.page.DisplayedLikes("post"))
}

func TestLikeInFlightGuard(t *testing.T) {
	h := likeHarness(t, stats.Record{Likes: 3})
	h.remote.likeTotal = 4

	release := make(chan struct{})
	entered := make(chan struct{})
	h.remote.onLike = func(string) {
		close(entered)
		<-release
	}

	done := make(chan reconcile.LikeOutcome)
	go func() {
		outcome, _ := h.rec.Like(context.Background(), "post")
		done <- outcome
	}()
	<-entered

	outcome, err := h.rec.Like(context.Background(), "post")
	require.NoError(t, err)
	assert.Equal(t, reconcile.LikeInFlight, outcome)
	assert.Equal(t, int64(4), h.page.DisplayedLikes("post"), "second activation must not bump again")

	close(release)
	assert.Equal(t, reconcile.LikeConfirmed, <-done)
	assert.Equal(t, 1, h.remote.likeCount())
}

func TestLikeGuardWithoutControl(t *testing.T) {
	p := pagemock.New("post")
	p.RemoveControl("post")
	h := newHarness(p, kvstore.NewMemory(kvstore.WithSetError(errors.New("quota"))))
	h.remote.likeTotal = 1
	require.NoError(t, h.rec.Run(context.Background()))

	outcome, err := h.rec.Like(context.Background(), "post")
	require.NoError(t, err)
	assert.Equal(t, reconcile.LikeConfirmed, outcome)

	// The ledger write failed, but the page instance still refuses a repeat.
	outcome, err = h.rec.Like(context.Background(), "post")
	require.NoError(t, err)
	assert.Equal(t, reconcile.LikeInFlight, outcome)
	assert.Equal(t, 1, h.remote.likeCount())
}

func TestLikeOnHTMLDocument(t *testing.T) {
	doc, err := page.ParseString(`<article data-post-id="p"><span class="views">0</span><span class="likes">10</span></article>
<button class="like-btn" data-post-id="p">like</button>`)
	require.NoError(t, err)
	h := newHarness(doc, kvstore.NewMemory(), reconcile.WithFailureNotice("nope"))
	h.remote.fetchErr = func(int) error { return errors.New("offline") }
	h.remote.likeErr = errors.New("down")
	require.NoError(t, h.rec.Run(context.Background()))

	_, err = h.rec.Like(context.Background(), "p")
	require.Error(t, err)
	assert.Contains(t, doc.String(), `<span class="likes">10</span>`)
	assert.True(t, doc.LikeEnabled("p"))
	assert.Equal(t, []string{"nope"}, h.notices.all())
}

func TestLikeOutcomeString(t *testing.T) {
	assert.Equal(t, "confirmed", reconcile.LikeConfirmed.String())
	assert.Equal(t, "already-liked", reconcile.LikeAlreadyLiked.String())
	assert.Equal(t, "unknown", reconcile.LikeOutcome(99).String())
}
