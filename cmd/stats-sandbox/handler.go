package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Ratio1/poststats_go/internal/statsapi"
	"github.com/Ratio1/poststats_go/pkg/remote/mock"
)

type failConfig struct {
	rate float64
	code int
}

type handlerConfig struct {
	latency time.Duration
	fail    failConfig
	// roll returns a number in [0,1); nil uses math/rand.
	roll func() float64
}

type metrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	injected prometheus.Counter
}

func newMetrics(reg prometheus.Registerer) *metrics {
	m := &metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "poststats",
			Subsystem: "sandbox",
			Name:      "requests_total",
			Help:      "Requests served, by action and result.",
		}, []string{"action", "result"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "poststats",
			Subsystem: "sandbox",
			Name:      "request_duration_seconds",
			Help:      "Time spent serving a request, including injected latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"action"}),
		injected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "poststats",
			Subsystem: "sandbox",
			Name:      "injected_failures_total",
			Help:      "Requests answered with an injected failure.",
		}),
	}
	reg.MustRegister(m.requests, m.duration, m.injected)
	return m
}

func newHandler(svc *mock.Service, cfg handlerConfig, m *metrics, gatherer prometheus.Gatherer, logger *slog.Logger) http.Handler {
	if cfg.roll == nil {
		cfg.roll = rand.Float64
	}
	exec := func(w http.ResponseWriter, r *http.Request) {
		handleExec(w, r, svc, cfg, m, logger)
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/", exec)
	mux.HandleFunc("/exec", exec)
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	return mux
}

func handleExec(w http.ResponseWriter, r *http.Request, svc *mock.Service, cfg handlerConfig, m *metrics, logger *slog.Logger) {
	start := time.Now()
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeJSON(w, http.StatusMethodNotAllowed, map[string]any{"ok": false, "msg": "method not allowed"})
		return
	}

	var req statsapi.Request
	data, err := io.ReadAll(r.Body)
	if err == nil {
		err = json.Unmarshal(data, &req)
	}
	action := actionLabel(req.Action)
	if err != nil {
		m.requests.WithLabelValues(action, "invalid").Inc()
		writeJSON(w, http.StatusOK, map[string]any{"ok": false, "msg": "invalid json"})
		return
	}
	defer func() {
		m.duration.WithLabelValues(action).Observe(time.Since(start).Seconds())
	}()

	if cfg.latency > 0 {
		time.Sleep(cfg.latency)
	}
	if cfg.fail.rate > 0 && cfg.roll() < cfg.fail.rate {
		status := cfg.fail.code
		if status == 0 {
			status = http.StatusInternalServerError
		}
		m.injected.Inc()
		m.requests.WithLabelValues(action, "injected").Inc()
		logger.Debug("failure injected", "action", req.Action, "status", status)
		writeJSON(w, status, map[string]any{"ok": false, "msg": "failure injected"})
		return
	}

	resp := svc.Handle(req)
	result := "ok"
	if ok, _ := resp["ok"].(bool); !ok {
		result = "rejected"
	}
	m.requests.WithLabelValues(action, result).Inc()
	logger.Info("exec request", "action", req.Action, "id", req.ID, "ids", len(req.IDs), "result", result)
	writeJSON(w, http.StatusOK, resp)
}

// actionLabel bounds label cardinality to the known actions.
func actionLabel(action string) string {
	switch action {
	case statsapi.ActionGet, statsapi.ActionView, statsapi.ActionLike:
		return action
	default:
		return "unknown"
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func parseFailConfig(raw string) (failConfig, error) {
	if strings.TrimSpace(raw) == "" {
		return failConfig{}, nil
	}
	cfg := failConfig{code: http.StatusInternalServerError}
	parts := strings.Split(raw, ",")
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		keyVal := strings.SplitN(part, "=", 2)
		if len(keyVal) != 2 {
			return failConfig{}, fmt.Errorf("invalid fail segment %q", part)
		}
		switch strings.TrimSpace(keyVal[0]) {
		case "rate":
			val, err := strconv.ParseFloat(strings.TrimSpace(keyVal[1]), 64)
			if err != nil {
				return failConfig{}, err
			}
			if val < 0 || val > 1 {
				return failConfig{}, fmt.Errorf("fail rate %v outside [0,1]", val)
			}
			cfg.rate = val
		case "code":
			val, err := strconv.Atoi(strings.TrimSpace(keyVal[1]))
			if err != nil {
				return failConfig{}, err
			}
			if val < 400 || val > 599 {
				return failConfig{}, fmt.Errorf("fail code %d is not an error status", val)
			}
			cfg.code = val
		default:
			return failConfig{}, fmt.Errorf("unknown fail key %q", keyVal[0])
		}
	}
	return cfg, nil
}
