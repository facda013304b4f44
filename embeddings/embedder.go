// Package embeddings maps text to vectors through a configured embedding provider.
package embeddings

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/snow-ghost/memllm/pkg/logging"
	"github.com/snow-ghost/memllm/pkg/metrics"
	"github.com/snow-ghost/memllm/pkg/tokens"
	"github.com/snow-ghost/memllm/pkg/tracing"
)

var (
	// ErrEmptyText is returned when Embed is called with an empty string.
	ErrEmptyText = errors.New("text to embed is empty")
	// ErrNoEmbedding is returned when the provider answers without a vector.
	ErrNoEmbedding = errors.New("no embeddings returned")
	// ErrDimensionMismatch is returned when the vector length differs from the configured dims.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)

// Embedder defines the interface for text embedding generation
type Embedder interface {
	// Embed converts text to a vector representation
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Options carries credentials and collaborators for an embedder.
// Nothing here is read from the environment.
type Options struct {
	APIKey     string
	BaseURL    string // OpenAI-compatible endpoint; empty means api.openai.com
	OllamaHost string // empty means http://localhost:11434

	HTTPClient *http.Client
	Logger     *logging.Logger
	Metrics    *metrics.Metrics
	Tracer     trace.Tracer
	Tokens     *tokens.Registry
}

func (o Options) withDefaults() Options {
	if o.Logger == nil {
		o.Logger = logging.NewNop()
	}
	if o.Tokens == nil {
		o.Tokens = tokens.DefaultRegistry()
	}
	return o
}

// New validates cfg and creates the embedder for its provider.
// An invalid configuration fails before any client is created.
func New(cfg EmbedderConfig, opts Options) (Embedder, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	switch cfg.Provider {
	case ProviderOpenAI:
		return NewOpenAIEmbedder(cfg.Config, opts), nil
	case ProviderOllama:
		return NewOllamaEmbedder(cfg.Config, opts), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedProvider, cfg.Provider)
	}
}

// prepareText rejects empty input and flattens newlines
func prepareText(text string) (string, error) {
	if text == "" {
		return "", ErrEmptyText
	}
	return strings.ReplaceAll(text, "\n", " "), nil
}

// checkDims enforces the configured vector length when dims is set
func checkDims(vector []float32, dims int) error {
	if dims > 0 && len(vector) != dims {
		return fmt.Errorf("%w: expected %d, got %d", ErrDimensionMismatch, dims, len(vector))
	}
	return nil
}

// observe wraps one provider round trip with a span, a log line and metrics
func observe(ctx context.Context, opts Options, provider, model string, call func(ctx context.Context) (int, error)) error {
	ctx, span := tracing.StartProviderSpan(ctx, opts.Tracer, "embeddings.embed", provider, model)
	start := time.Now()

	inputTokens, err := call(ctx)

	duration := time.Since(start)
	tracing.RecordSpanTokens(span, inputTokens, 0)
	tracing.EndSpan(span, duration, err)
	opts.Logger.LogProviderCall(ctx, provider, model, "embed", duration, err)
	opts.Metrics.RecordRequest(provider, model, "embed", duration, err)
	if err == nil {
		opts.Metrics.RecordTokens(provider, model, inputTokens, 0)
	}
	return err
}
