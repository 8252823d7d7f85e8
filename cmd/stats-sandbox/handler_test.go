package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ratio1/poststats_go/internal/httpx"
	"github.com/Ratio1/poststats_go/pkg/remote"
	"github.com/Ratio1/poststats_go/pkg/remote/mock"
	"github.com/Ratio1/poststats_go/pkg/stats"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func newSandbox(t *testing.T, svc *mock.Service, cfg handlerConfig) *httptest.Server {
	t.Helper()
	reg := prometheus.NewRegistry()
	srv := httptest.NewServer(newHandler(svc, cfg, newMetrics(reg), reg, quiet))
	t.Cleanup(srv.Close)
	return srv
}

func newClient(t *testing.T, url string) *remote.Client {
	t.Helper()
	client, err := remote.New(url,
		remote.WithLogger(quiet),
		remote.WithHTTPOptions(httpx.WithRetryPolicy(httpx.RetryPolicy{MaxRetries: 0})),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func scrape(t *testing.T, url string) string {
	t.Helper()
	resp, err := http.Get(url + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(body)
}

func TestSandboxServesProtocol(t *testing.T) {
	svc := mock.New()
	svc.Set("post", stats.Record{Views: 10, Likes: 2})
	srv := newSandbox(t, svc, handlerConfig{})
	client := newClient(t, srv.URL+"/exec")

	got, err := client.FetchStatsBatch(context.Background(), []string{"post", "other"})
	require.NoError(t, err)
	assert.Equal(t, stats.Record{Views: 10, Likes: 2}, got["post"])
	assert.Equal(t, stats.Record{}, got["other"])

	total, err := client.ReportLike(context.Background(), "post")
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)

	client.ReportView("post")
	require.NoError(t, client.Close())
	assert.Equal(t, stats.Count(11), svc.Stats("post").Views)

	metrics := scrape(t, srv.URL)
	assert.Contains(t, metrics, `poststats_sandbox_requests_total{action="get",result="ok"} 1`)
	assert.Contains(t, metrics, `poststats_sandbox_requests_total{action="like",result="ok"} 1`)
	assert.Contains(t, metrics, `poststats_sandbox_requests_total{action="view",result="ok"} 1`)
	assert.Contains(t, metrics, `poststats_sandbox_request_duration_seconds_count{action="get"} 1`)
}

func TestSandboxRejectsUnknownAction(t *testing.T) {
	srv := newSandbox(t, mock.New(), handlerConfig{})

	resp, err := http.Post(srv.URL, "application/json", strings.NewReader(`{"action":"delete","id":"x"}`))
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"ok":false,"msg":"unknown action \"delete\""}`, string(body))

	assert.Contains(t, scrape(t, srv.URL), `poststats_sandbox_requests_total{action="unknown",result="rejected"} 1`)
}

func TestSandboxRequiresPost(t *testing.T) {
	srv := newSandbox(t, mock.New(), handlerConfig{})

	resp, err := http.Get(srv.URL + "/exec")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	assert.Equal(t, http.MethodPost, resp.Header.Get("Allow"))
}

func TestSandboxInjectsFailures(t *testing.T) {
	svc := mock.New()
	srv := newSandbox(t, svc, handlerConfig{
		fail: failConfig{rate: 0.5, code: http.StatusServiceUnavailable},
		roll: func() float64 { return 0.1 },
	})
	client := newClient(t, srv.URL)

	_, err := client.FetchStatsBatch(context.Background(), []string{"a"})
	var serverErr *remote.ServerError
	require.True(t, errors.As(err, &serverErr))
	assert.Equal(t, "failure injected", serverErr.Message)
	assert.Equal(t, http.StatusServiceUnavailable, serverErr.StatusCode)

	_, err = client.ReportLike(context.Background(), "a")
	require.Error(t, err)
	assert.Equal(t, stats.Count(0), svc.Stats("a").Likes)
	assert.Empty(t, svc.Requests(), "failed requests never reach the counters")

	assert.Contains(t, scrape(t, srv.URL), "poststats_sandbox_injected_failures_total 2")
}

func TestSandboxLatency(t *testing.T) {
	srv := newSandbox(t, mock.New(), handlerConfig{latency: 30 * time.Millisecond})
	client := newClient(t, srv.URL)

	start := time.Now()
	_, err := client.FetchStatsBatch(context.Background(), []string{"a"})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
}

func TestParseFailConfig(t *testing.T) {
	cfg, err := parseFailConfig("")
	require.NoError(t, err)
	assert.Zero(t, cfg.rate)

	cfg, err = parseFailConfig("rate=0.25, code=502")
	require.NoError(t, err)
	assert.Equal(t, failConfig{rate: 0.25, code: 502}, cfg)

	cfg, err = parseFailConfig("rate=1")
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, cfg.code)

	for _, bad := range []string{"rate", "rate=x", "rate=2", "code=200", "speed=1"} {
		_, err := parseFailConfig(bad)
		assert.Error(t, err, bad)
	}
}
