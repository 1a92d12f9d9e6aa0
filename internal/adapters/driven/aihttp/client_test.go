package aihttp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/folio/internal/core/domain"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	header := http.Header{}
	header.Set("x-api-key", "secret")
	return New(Config{
		Provider:    "test",
		BaseURL:     srv.URL + "/",
		Header:      header,
		Unavailable: domain.ErrLLMUnavailable,
	})
}

func TestNew_TrimsBaseURL(t *testing.T) {
	c := New(Config{BaseURL: "https://api.example.com/v1//"})

	assert.Equal(t, "https://api.example.com/v1", c.BaseURL())
}

func TestPost_SendsJSONAndDecodes(t *testing.T) {
	type request struct {
		Prompt string `json:"prompt"`
	}
	type response struct {
		Text string `json:"text"`
	}

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/complete", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "secret", r.Header.Get("x-api-key"))

		var got request
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		assert.Equal(t, "Down the rabbit-hole", got.Prompt)
		_, _ = w.Write([]byte(`{"text":"Alice fell."}`))
	})

	var out response
	err := c.Post(context.Background(), "/v1/complete", request{Prompt: "Down the rabbit-hole"}, &out)

	require.NoError(t, err)
	assert.Equal(t, "Alice fell.", out.Text)
}

func TestGet_NilOut(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		_, _ = w.Write([]byte(`not json`))
	})

	assert.NoError(t, c.Get(context.Background(), "/models", nil))
}

func TestDo_StatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		target error
	}{
		{name: "rate limited", status: http.StatusTooManyRequests, target: domain.ErrRateLimited},
		{name: "forbidden", status: http.StatusForbidden, target: domain.ErrLLMUnavailable},
		{name: "outage", status: http.StatusServiceUnavailable, target: domain.ErrLLMUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
			})

			err := c.Get(context.Background(), "/models", nil)

			assert.ErrorIs(t, err, tt.target)
		})
	}
}

func TestDo_BadRequestIsNotAnOutage(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"prompt too long"}`))
	})

	err := c.Post(context.Background(), "/complete", map[string]string{}, nil)

	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrLLMUnavailable)
	assert.Contains(t, err.Error(), "prompt too long")
}

func TestDo_DecodeError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{`))
	})

	var out map[string]any
	err := c.Get(context.Background(), "/models", &out)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "test: decode response")
}

func TestDo_Unreachable(t *testing.T) {
	c := New(Config{Provider: "test", BaseURL: "http://127.0.0.1:1", Unavailable: domain.ErrEmbeddingUnavailable})

	err := c.Get(context.Background(), "/models", nil)

	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
}

func TestDo_Cancelled(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := c.Get(ctx, "/models", nil)

	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, domain.ErrLLMUnavailable)
}
