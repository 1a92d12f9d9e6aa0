package gemini

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/folio/internal/core/domain"
)

func newTestService(t *testing.T, handler http.HandlerFunc) *EmbeddingService {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	svc, err := NewEmbeddingService(context.Background(), Config{APIKey: "key", BaseURL: srv.URL})
	require.NoError(t, err)
	return svc
}

func TestNewEmbeddingService_RequiresKey(t *testing.T) {
	_, err := NewEmbeddingService(context.Background(), Config{})

	assert.Error(t, err)
}

func TestEmbed(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "models/"+DefaultModel+":embedContent"), r.URL.Path)
		_, _ = w.Write([]byte(`{"embedding":{"values":[0.25,0.5]}}`))
	})

	vec, err := svc.Embed(context.Background(), "chapter")

	require.NoError(t, err)
	assert.Equal(t, []float32{0.25, 0.5}, vec)
	assert.Equal(t, DefaultDimensions, svc.Dimensions())
}

func TestEmbedBatch_Chunks(t *testing.T) {
	var calls int
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		var req struct {
			Requests []json.RawMessage `json:"requests"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		resp := `{"embeddings":[`
		for i := range req.Requests {
			if i > 0 {
				resp += ","
			}
			resp += `{"values":[1,0]}`
		}
		_, _ = w.Write([]byte(resp + `]}`))
	})

	texts := make([]string, maxBatch+3)
	for i := range texts {
		texts[i] = "t"
	}

	vecs, err := svc.EmbedBatch(context.Background(), texts)

	require.NoError(t, err)
	assert.Len(t, vecs, len(texts))
	assert.Equal(t, 2, calls)
}

func TestEmbed_RateLimited(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"slow down"}}`))
	})

	_, err := svc.Embed(context.Background(), "a")

	assert.ErrorIs(t, err, domain.ErrRateLimited)
}
