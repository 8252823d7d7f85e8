package remote

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/Ratio1/poststats_go/internal/httpx"
	"github.com/Ratio1/poststats_go/internal/statsapi"
	"github.com/Ratio1/poststats_go/pkg/stats"
)

// Fallback messages used when a failed response carries no "msg".
const (
	msgGetFailed  = "server error"
	msgLikeFailed = "like failed"
)

// ErrBatchTooLarge is returned when FetchStatsBatch receives more ids than the
// configured batch size.
var ErrBatchTooLarge = errors.New("remote: batch exceeds max batch size")

// ServerError is the error type returned when the endpoint answers without
// ok:true.
type ServerError = statsapi.ServerError

// Option configures a Client.
type Option func(*config)

type config struct {
	httpOpts    []httpx.Option
	maxBatch    int
	sender      Sender
	viewTimeout time.Duration
	logger      *slog.Logger
}

// WithHTTPOptions forwards options to the underlying httpx client.
func WithHTTPOptions(opts ...httpx.Option) Option {
	return func(c *config) { c.httpOpts = append(c.httpOpts, opts...) }
}

// WithMaxBatch sets the largest id count accepted by FetchStatsBatch.
func WithMaxBatch(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.maxBatch = n
		}
	}
}

// WithSender replaces the default beacon-with-fallback view transport.
func WithSender(s Sender) Option {
	return func(c *config) { c.sender = s }
}

// WithViewTimeout bounds each best-effort view request.
func WithViewTimeout(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.viewTimeout = d
		}
	}
}

// WithLogger sets the client logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// Client performs the three endpoint operations.
type Client struct {
	http     *httpx.Client
	sender   Sender
	maxBatch int
	logger   *slog.Logger
}

// New constructs a Client bound to the endpoint URL.
func New(endpoint string, opts ...Option) (*Client, error) {
	cfg := config{
		maxBatch:    DefaultMaxBatch,
		viewTimeout: 5 * time.Second,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	httpOpts := append([]httpx.Option{
		httpx.WithHeaders(http.Header{"Accept": {"application/json"}}),
		httpx.WithLogger(cfg.logger),
	}, cfg.httpOpts...)
	hc, err := httpx.NewClient(endpoint, httpOpts...)
	if err != nil {
		return nil, fmt.Errorf("remote: %w", err)
	}

	c := &Client{http: hc, maxBatch: cfg.maxBatch, logger: cfg.logger}
	c.sender = cfg.sender
	if c.sender == nil {
		c.sender = FallbackSender(
			NewBeaconSender(c.postView, 16, cfg.viewTimeout),
			NewKeepaliveSender(c.postView, cfg.viewTimeout),
		)
	}
	return c, nil
}

// MaxBatch returns the configured batch size.
func (c *Client) MaxBatch() int { return c.maxBatch }

// FetchStatsBatch reads the counters of up to MaxBatch ids in one request.
// Ids unknown to the server are simply absent from the result.
func (c *Client) FetchStatsBatch(ctx context.Context, ids []string) (map[string]stats.Record, error) {
	if len(ids) > c.maxBatch {
		return nil, fmt.Errorf("%w: %d > %d", ErrBatchTooLarge, len(ids), c.maxBatch)
	}
	body, err := c.http.PostJSON(ctx, statsapi.Request{Action: statsapi.ActionGet, IDs: ids}, false)
	if err != nil {
		return nil, statsapi.FromHTTPError(statsapi.ActionGet, err, msgGetFailed)
	}
	var res statsapi.GetResult
	if err := statsapi.Decode(statsapi.ActionGet, body, msgGetFailed, &res); err != nil {
		return nil, err
	}
	if res.Data == nil {
		res.Data = map[string]stats.Record{}
	}
	return res.Data, nil
}

// ReportView notifies the endpoint that id was viewed. It never blocks on the
// network and never reports failure.
func (c *Client) ReportView(id string) {
	payload, err := httpx.MarshalJSON(statsapi.Request{Action: statsapi.ActionView, ID: id})
	if err != nil {
		return
	}
	_ = c.sender.Send(payload)
}

// ReportLike records a like for id and returns the new total reported by the
// server, or zero when the server omitted it.
func (c *Client) ReportLike(ctx context.Context, id string) (int64, error) {
	body, err := c.http.PostJSON(ctx, statsapi.Request{Action: statsapi.ActionLike, ID: id}, true)
	if err != nil {
		return 0, statsapi.FromHTTPError(statsapi.ActionLike, err, msgLikeFailed)
	}
	var res statsapi.LikeResult
	if err := statsapi.Decode(statsapi.ActionLike, body, msgLikeFailed, &res); err != nil {
		return 0, err
	}
	return res.Likes.Int64(), nil
}

// Close drains pending view reports.
func (c *Client) Close() error {
	closeSender(c.sender)
	return nil
}

func (c *Client) postView(ctx context.Context, payload []byte) error {
	resp, err := c.http.Do(ctx, &httpx.Request{
		Header:       http.Header{"Content-Type": []string{"application/json"}},
		Body:         payload,
		DisableRetry: true,
	})
	if err != nil {
		return err
	}
	_, err = httpx.ReadAllAndClose(resp.Body)
	return err
}
