package embeddings

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockOllamaServer answers /api/embeddings and records the prompts it receives
func mockOllamaServer(t *testing.T, vector []float32, prompts *[]string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/embeddings" {
			http.NotFound(w, r)
			return
		}

		var req ollamaEmbedRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if prompts != nil {
			*prompts = append(*prompts, req.Prompt)
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{"embedding": vector})
	}))
	t.Cleanup(server.Close)
	return server
}

func TestOllamaEmbedder_Embed(t *testing.T) {
	var prompts []string
	server := mockOllamaServer(t, []float32{0.1, 0.2, 0.3, 0.4}, &prompts)

	embedder := NewOllamaEmbedder(EmbeddingModelConfig{Model: "nomic-embed-text", Dims: 4}, Options{OllamaHost: server.URL + "/"})

	vector, err := embedder.Embed(context.Background(), "a\nb")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2, 0.3, 0.4}, vector)
	assert.Equal(t, []string{"a b"}, prompts)
}

func TestOllamaEmbedder_DefaultsModel(t *testing.T) {
	embedder := NewOllamaEmbedder(EmbeddingModelConfig{}, Options{})
	assert.Equal(t, "nomic-embed-text", embedder.Config().Model)
	assert.Equal(t, defaultOllamaHost, embedder.baseURL)
}

func TestOllamaEmbedder_StatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"model \"missing\" not found"}`))
	}))
	defer server.Close()

	embedder := NewOllamaEmbedder(EmbeddingModelConfig{Model: "missing"}, Options{OllamaHost: server.URL})

	_, err := embedder.Embed(context.Background(), "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
	assert.Contains(t, err.Error(), "not found")
}

func TestOllamaEmbedder_EmptyEmbedding(t *testing.T) {
	server := mockOllamaServer(t, []float32{}, nil)

	embedder := NewOllamaEmbedder(EmbeddingModelConfig{Model: "m"}, Options{OllamaHost: server.URL})

	_, err := embedder.Embed(context.Background(), "hello")
	assert.ErrorIs(t, err, ErrNoEmbedding)
}

func TestOllamaEmbedder_DimensionMismatch(t *testing.T) {
	server := mockOllamaServer(t, []float32{1, 2, 3}, nil)

	embedder := NewOllamaEmbedder(EmbeddingModelConfig{Model: "m", Dims: 768}, Options{OllamaHost: server.URL})

	_, err := embedder.Embed(context.Background(), "hello")
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}
