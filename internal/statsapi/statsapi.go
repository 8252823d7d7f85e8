// Package statsapi describes the wire format of the counting endpoint: one
// JSON request shape keyed by action and a response envelope whose "ok" flag
// must be true for the call to count as a success.
package statsapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Ratio1/poststats_go/internal/httpx"
	"github.com/Ratio1/poststats_go/pkg/stats"
)

// Actions understood by the endpoint.
const (
	ActionGet  = "get"
	ActionView = "view"
	ActionLike = "like"
)

// Request is the body posted for every action.
type Request struct {
	Action string   `json:"action"`
	ID     string   `json:"id,omitempty"`
	IDs    []string `json:"ids,omitempty"`
}

// GetResult is the payload of a successful get.
type GetResult struct {
	Data map[string]stats.Record `json:"data"`
}

// LikeResult is the payload of a successful like. Likes is zero when the
// server omitted the new total.
type LikeResult struct {
	Likes stats.Count `json:"likes"`
}

// ServerError reports a response that did not carry ok:true.
type ServerError struct {
	Action     string
	Message    string
	StatusCode int
}

func (e *ServerError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("statsapi: %s: %s (status %d)", e.Action, e.Message, e.StatusCode)
	}
	return fmt.Sprintf("statsapi: %s: %s", e.Action, e.Message)
}

type envelope struct {
	OK  json.RawMessage `json:"ok"`
	Msg json.RawMessage `json:"msg"`
}

// Decode checks the envelope of body and, on success, decodes it into out.
// Missing or non-true "ok" yields a *ServerError whose message is the server
// "msg" string or fallback.
func Decode(action string, body []byte, fallback string, out any) error {
	trimmed := bytes.TrimSpace(body)
	var env envelope
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return fmt.Errorf("statsapi: %s: decode response: %w", action, err)
	}
	if !bytes.Equal(bytes.TrimSpace(env.OK), []byte("true")) {
		return &ServerError{Action: action, Message: message(env.Msg, fallback)}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(trimmed, out); err != nil {
		return fmt.Errorf("statsapi: %s: decode payload: %w", action, err)
	}
	return nil
}

// FromHTTPError converts an httpx.HTTPError into a *ServerError so that
// failures reported through a status code keep the server message. Other
// errors are returned unchanged.
func FromHTTPError(action string, err error, fallback string) error {
	var httpErr *httpx.HTTPError
	if !errors.As(err, &httpErr) {
		return err
	}
	msg := fallback
	if obj, ok := httpErr.JSON.(map[string]any); ok {
		if s, ok := obj["msg"].(string); ok && s != "" {
			msg = s
		}
	}
	return &ServerError{Action: action, Message: msg, StatusCode: httpErr.StatusCode}
}

func message(raw json.RawMessage, fallback string) string {
	var s string
	if len(raw) > 0 && json.Unmarshal(raw, &s) == nil && s != "" {
		return s
	}
	return fallback
}
