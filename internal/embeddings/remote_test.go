package embeddings

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/promptgate/internal/config"
)

func remoteTestServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func TestRemoteProvider_EmbedDocuments(t *testing.T) {
	srv := remoteTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req embeddingRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "embedding-2", req.Model)
		assert.Equal(t, []string{"hello", "world"}, req.Input)

		resp := embeddingResponse{}
		resp.Data = make([]struct {
			Embedding []float32 `json:"embedding"`
		}, len(req.Input))
		for i := range req.Input {
			resp.Data[i].Embedding = []float32{1, 2, 3}
		}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	})

	p, err := NewRemoteProvider(config.RemoteEmbeddingConfig{
		BaseURL: srv.URL,
		Model:   "embedding-2",
		APIKey:  config.Secret("test-key"),
		Timeout: config.Duration(5 * time.Second),
	})
	require.NoError(t, err)

	vectors, err := p.EmbedDocuments(context.Background(), []string{"hello", "world"})
	require.NoError(t, err)
	require.Len(t, vectors, 2)
	assert.Equal(t, []float32{1, 2, 3}, vectors[0])
}

func TestRemoteProvider_ServerError(t *testing.T) {
	srv := remoteTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	p, err := NewRemoteProvider(config.RemoteEmbeddingConfig{
		BaseURL: srv.URL,
		Model:   "embedding-2",
	})
	require.NoError(t, err)

	_, err = p.EmbedQuery(context.Background(), "hello")
	assert.ErrorIs(t, err, ErrEmbeddingFailed)
}

func TestRemoteProvider_CountMismatch(t *testing.T) {
	srv := remoteTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"data":[]}`))
	})

	p, err := NewRemoteProvider(config.RemoteEmbeddingConfig{
		BaseURL: srv.URL,
		Model:   "embedding-2",
	})
	require.NoError(t, err)

	_, err = p.EmbedDocuments(context.Background(), []string{"hello"})
	assert.ErrorIs(t, err, ErrEmbeddingFailed)
}

func TestRemoteProvider_RequiresBaseURL(t *testing.T) {
	_, err := NewRemoteProvider(config.RemoteEmbeddingConfig{Model: "embedding-2"})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestRemoteProvider_EmptyInput(t *testing.T) {
	p, err := NewRemoteProvider(config.RemoteEmbeddingConfig{BaseURL: "http://localhost:9"})
	require.NoError(t, err)

	_, err = p.EmbedDocuments(context.Background(), nil)
	assert.ErrorIs(t, err, ErrEmptyInput)
}
