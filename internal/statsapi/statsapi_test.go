package statsapi

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ratio1/poststats_go/internal/httpx"
	"github.com/Ratio1/poststats_go/pkg/stats"
)

func TestDecodeSuccess(t *testing.T) {
	var got GetResult
	err := Decode(ActionGet, []byte(`{"ok":true,"data":{"a":{"views":"5","likes":null}}}`), "server error", &got)
	require.NoError(t, err)
	assert.Equal(t, map[string]stats.Record{"a": {Views: 5}}, got.Data)
}

func TestDecodeFailures(t *testing.T) {
	tests := []struct {
		name string
		body string
		msg  string
	}{
		{name: "ok false with msg", body: `{"ok":false,"msg":"quota"}`, msg: "quota"},
		{name: "ok false without msg", body: `{"ok":false}`, msg: "server error"},
		{name: "ok missing", body: `{"data":{}}`, msg: "server error"},
		{name: "ok truthy but not true", body: `{"ok":1,"msg":""}`, msg: "server error"},
		{name: "msg not a string", body: `{"ok":false,"msg":42}`, msg: "server error"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := Decode(ActionGet, []byte(tc.body), "server error", &GetResult{})
			var serverErr *ServerError
			require.True(t, errors.As(err, &serverErr), "got %v", err)
			assert.Equal(t, tc.msg, serverErr.Message)
			assert.Equal(t, ActionGet, serverErr.Action)
		})
	}
}

func TestDecodeMalformedBody(t *testing.T) {
	err := Decode(ActionLike, []byte(`<html>`), "like failed", &LikeResult{})
	require.Error(t, err)
	var serverErr *ServerError
	assert.False(t, errors.As(err, &serverErr))
}

func TestLikeResultOmittedTotal(t *testing.T) {
	var res LikeResult
	require.NoError(t, Decode(ActionLike, []byte(`{"ok":true}`), "like failed", &res))
	assert.Zero(t, res.Likes)
}

func TestFromHTTPError(t *testing.T) {
	err := FromHTTPError(ActionLike, &httpx.HTTPError{
		StatusCode: http.StatusTooManyRequests,
		JSON:       map[string]any{"ok": false, "msg": "slow down"},
	}, "like failed")
	var serverErr *ServerError
	require.True(t, errors.As(err, &serverErr))
	assert.Equal(t, "slow down", serverErr.Message)
	assert.Equal(t, http.StatusTooManyRequests, serverErr.StatusCode)
	assert.Contains(t, serverErr.Error(), "status 429")

	plain := errors.New("dial tcp: refused")
	assert.Same(t, plain, FromHTTPError(ActionLike, plain, "like failed"))

	err = FromHTTPError(ActionGet, &httpx.HTTPError{StatusCode: 500}, "server error")
	require.True(t, errors.As(err, &serverErr))
	assert.Equal(t, "server error", serverErr.Message)
}
