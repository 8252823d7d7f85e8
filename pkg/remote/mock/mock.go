// Package mock implements an in-memory counting service that speaks the same
// protocol as the production endpoint. It serves HTTP directly or plugs into
// an http.Client as an in-process RoundTripper.
package mock

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"

	"github.com/Ratio1/poststats_go/internal/devseed"
	"github.com/Ratio1/poststats_go/internal/statsapi"
	"github.com/Ratio1/poststats_go/pkg/stats"
)

// FailureFunc decides whether a request should be answered with ok:false.
// It receives the 1-based index of the request among those with the same
// action and returns the failure message, or "" to serve normally.
type FailureFunc func(req statsapi.Request, nth int) string

// Service holds the counters and a log of served requests.
type Service struct {
	mu       sync.Mutex
	counters map[string]stats.Record
	log      []statsapi.Request
	perKind  map[string]int
	failure  FailureFunc
}

// Option configures a Service.
type Option func(*Service)

// WithFailure installs a failure injector.
func WithFailure(fn FailureFunc) Option {
	return func(s *Service) { s.failure = fn }
}

// New returns an empty Service.
func New(opts ...Option) *Service {
	s := &Service{
		counters: make(map[string]stats.Record),
		perKind:  make(map[string]int),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Seed loads initial counters.
func (s *Service) Seed(entries []devseed.StatsSeedEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range entries {
		s.counters[e.ID] = stats.Record{Views: stats.Count(e.Views), Likes: stats.Count(e.Likes)}
	}
}

// Set overwrites the counters of id.
func (s *Service) Set(id string, rec stats.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counters[id] = rec
}

// Stats returns the counters of id.
func (s *Service) Stats(id string) stats.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counters[id]
}

// Requests returns the served requests in arrival order.
func (s *Service) Requests() []statsapi.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]statsapi.Request(nil), s.log...)
}

// RequestsFor returns the served requests with the given action.
func (s *Service) RequestsFor(action string) []statsapi.Request {
	var out []statsapi.Request
	for _, req := range s.Requests() {
		if req.Action == action {
			out = append(out, req)
		}
	}
	return out
}

// Transport returns a RoundTripper that answers every request in process.
func (s *Service) Transport() http.RoundTripper {
	return roundTripper{s}
}

type roundTripper struct{ s *Service }

func (rt roundTripper) RoundTrip(r *http.Request) (*http.Response, error) {
	if r.Body != nil {
		defer r.Body.Close()
	}
	rec := httptest.NewRecorder()
	rt.s.ServeHTTP(rec, r)
	resp := rec.Result()
	resp.Request = r
	return resp, nil
}

// ServeHTTP implements http.Handler.
func (s *Service) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeJSON(w, http.StatusMethodNotAllowed, map[string]any{"ok": false, "msg": "method not allowed"})
		return
	}
	data, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "msg": "unreadable body"})
		return
	}
	var req statsapi.Request
	if err := json.Unmarshal(data, &req); err != nil {
		writeJSON(w, http.StatusOK, map[string]any{"ok": false, "msg": "invalid json"})
		return
	}
	writeJSON(w, http.StatusOK, s.Handle(req))
}

// Handle serves one decoded request and returns the response document.
func (s *Service) Handle(req statsapi.Request) map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.log = append(s.log, req)
	s.perKind[req.Action]++
	if s.failure != nil {
		if msg := s.failure(req, s.perKind[req.Action]); msg != "" {
			return map[string]any{"ok": false, "msg": msg}
		}
	}

	switch req.Action {
	case statsapi.ActionGet:
		out := make(map[string]stats.Record, len(req.IDs))
		for _, id := range req.IDs {
			out[id] = s.counters[id]
		}
		return map[string]any{"ok": true, "data": out}
	case statsapi.ActionView:
		if strings.TrimSpace(req.ID) == "" {
			return map[string]any{"ok": false, "msg": "missing id"}
		}
		rec := s.counters[req.ID]
		rec.Views++
		s.counters[req.ID] = rec
		return map[string]any{"ok": true, "views": rec.Views}
	case statsapi.ActionLike:
		if strings.TrimSpace(req.ID) == "" {
			return map[string]any{"ok": false, "msg": "missing id"}
		}
		rec := s.counters[req.ID]
		rec.Likes++
		s.counters[req.ID] = rec
		return map[string]any{"ok": true, "likes": rec.Likes}
	default:
		return map[string]any{"ok": false, "msg": fmt.Sprintf("unknown action %q", req.Action)}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
