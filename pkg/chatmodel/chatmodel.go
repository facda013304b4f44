// Package chatmodel is the chat-completion client the chat adapters talk to.
// It speaks the legacy function-calling shape: callers pass a list of
// function definitions and get back a sequence of reply fragments, some of
// which may carry a function call.
package chatmodel

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Model types accepted by Get
const (
	ModelTypeOAI = "oai"
)

var (
	// ErrStreamingUnsupported is returned when Params ask for a streamed reply.
	ErrStreamingUnsupported = errors.New("streaming responses are not supported")
	// ErrUnknownModelType is returned by Get for an unrecognized model type.
	ErrUnknownModelType = errors.New("unknown chat model type")
	// ErrInvalidResponseFormat is returned for a response_format the client cannot send as given.
	ErrInvalidResponseFormat = errors.New("invalid response_format")
)

// GenerateConfig holds sampling parameters applied to every request
type GenerateConfig struct {
	Temperature float32 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens"`
	TopP        float32 `json:"top_p"`
}

// Config describes how to reach a chat model
type Config struct {
	Model       string         `json:"model"`
	ModelType   string         `json:"model_type,omitempty"`
	ModelServer string         `json:"model_server,omitempty"` // base URL; empty means the provider default
	APIKey      string         `json:"-"`
	GenerateCfg GenerateConfig `json:"generate_cfg"`
}

// Message is a role-tagged conversation entry
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// FunctionDefinition describes a callable function in the legacy shape
type FunctionDefinition struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description,omitempty"`
	Parameters  map[string]interface{} `json:"parameters,omitempty"`
}

// FunctionCall is a model request to invoke a function.
// Arguments is the JSON-encoded argument object as sent by the model.
type FunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// Fragment is one message in a reply sequence
type Fragment struct {
	Role         string        `json:"role"`
	Content      string        `json:"content"`
	FunctionCall *FunctionCall `json:"function_call,omitempty"`
}

// Usage reports token accounting for a reply, when the server provides it
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
}

// Reply is the decoded result of a chat call
type Reply struct {
	Fragments []Fragment `json:"fragments"`
	Usage     Usage      `json:"usage"`
}

// Params are the per-call inputs to Chat
type Params struct {
	Messages       []Message
	Functions      []FunctionDefinition
	ResponseFormat map[string]interface{}
	Stream         bool
	DeltaStream    bool
}

// ChatModel performs one non-streaming chat round trip
type ChatModel interface {
	Chat(ctx context.Context, params Params) (*Reply, error)
}

// Option customizes a chat model built by Get
type Option func(*options)

type options struct {
	httpClient *http.Client
}

// WithHTTPClient sets the HTTP client used for requests
func WithHTTPClient(client *http.Client) Option {
	return func(o *options) {
		o.httpClient = client
	}
}

// Get resolves a chat model client for cfg
func Get(cfg Config, opts ...Option) (ChatModel, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	switch cfg.ModelType {
	case "", ModelTypeOAI:
		return newOAIModel(cfg, o), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownModelType, cfg.ModelType)
	}
}

func checkParams(params Params) error {
	if params.Stream || params.DeltaStream {
		return ErrStreamingUnsupported
	}
	return nil
}
