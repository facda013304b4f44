package tokens

import (
	"fmt"
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

// Encoder counts tokens for a specific model family
type Encoder interface {
	Count(text string) (int, error)
}

// TiktokenEncoder implements Encoder using tiktoken-go
type TiktokenEncoder struct {
	encoding *tiktoken.Tiktoken
}

// NewTiktokenEncoder creates a new tiktoken encoder
func NewTiktokenEncoder(encodingName string) (*TiktokenEncoder, error) {
	encoding, err := tiktoken.GetEncoding(encodingName)
	if err != nil {
		return nil, fmt.Errorf("failed to get encoding %s: %w", encodingName, err)
	}

	return &TiktokenEncoder{
		encoding: encoding,
	}, nil
}

// Count returns the number of tokens in text
func (e *TiktokenEncoder) Count(text string) (int, error) {
	return len(e.encoding.Encode(text, nil, nil)), nil
}

// EstimateEncoder approximates four characters per token
type EstimateEncoder struct{}

// NewEstimateEncoder creates a new character-based encoder
func NewEstimateEncoder() *EstimateEncoder {
	return &EstimateEncoder{}
}

// Count returns an estimate of at least one token for non-empty text
func (e *EstimateEncoder) Count(text string) (int, error) {
	if text == "" {
		return 0, nil
	}
	count := len(text) / 4
	if count < 1 {
		count = 1
	}
	return count, nil
}

// Registry maps model IDs to encoders and falls back to an estimate.
// The shared cl100k_base encoding is loaded lazily on first use because
// tiktoken-go fetches its BPE ranks on demand.
type Registry struct {
	mu       sync.RWMutex
	encoders map[string]Encoder
	bpe      map[string]bool
	fallback Encoder

	loadOnce sync.Once
	cl100k   Encoder
}

// NewRegistry creates an empty registry with the estimate fallback
func NewRegistry() *Registry {
	return &Registry{
		encoders: make(map[string]Encoder),
		bpe:      make(map[string]bool),
		fallback: NewEstimateEncoder(),
	}
}

// Register registers an encoder for a model
func (r *Registry) Register(modelID string, encoder Encoder) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.encoders[modelID] = encoder
}

// RegisterBPE marks a model as using the cl100k_base encoding
func (r *Registry) RegisterBPE(modelIDs ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range modelIDs {
		r.bpe[id] = true
	}
}

// Encoder returns the encoder for a model, or the fallback if none is known
func (r *Registry) Encoder(modelID string) Encoder {
	r.mu.RLock()
	encoder, exists := r.encoders[modelID]
	useBPE := r.bpe[modelID]
	r.mu.RUnlock()

	if exists {
		return encoder
	}
	if useBPE {
		r.loadOnce.Do(func() {
			if enc, err := NewTiktokenEncoder("cl100k_base"); err == nil {
				r.cl100k = enc
			}
		})
		if r.cl100k != nil {
			return r.cl100k
		}
	}
	return r.fallback
}

// Count counts tokens in text for a model, never failing: encoder errors
// degrade to the estimate.
func (r *Registry) Count(modelID, text string) int {
	count, err := r.Encoder(modelID).Count(text)
	if err != nil {
		count, _ = r.fallback.Count(text)
	}
	return count
}

// CountAll sums token counts over several texts
func (r *Registry) CountAll(modelID string, texts []string) int {
	total := 0
	for _, text := range texts {
		total += r.Count(modelID, text)
	}
	return total
}

// DefaultRegistry returns a registry knowing the common OpenAI models
func DefaultRegistry() *Registry {
	registry := NewRegistry()
	registry.RegisterBPE(
		"gpt-4", "gpt-4-turbo", "gpt-4o", "gpt-4o-mini",
		"gpt-3.5-turbo",
		"text-embedding-3-small", "text-embedding-3-large",
		"text-embedding-ada-002",
	)
	return registry
}
