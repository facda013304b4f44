// Package llms adapts role-tagged conversations to chat-completion providers.
package llms

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/snow-ghost/memllm/pkg/chatmodel"
	"github.com/snow-ghost/memllm/pkg/logging"
	"github.com/snow-ghost/memllm/pkg/metrics"
	"github.com/snow-ghost/memllm/pkg/tokens"
	"github.com/snow-ghost/memllm/pkg/tracing"
)

// ProviderOpenAILike is the metrics and log label of OpenAILikeLLM
const ProviderOpenAILike = "openai_like"

var (
	// ErrEmptyResponse is returned when the chat model replies with no fragments.
	ErrEmptyResponse = errors.New("chat model returned no messages")
	// ErrInvalidArguments is returned when a function call carries malformed JSON arguments.
	ErrInvalidArguments = errors.New("invalid function call arguments")
)

// Options carries credentials and collaborators for a chat adapter.
// Nothing here is read from the environment.
type Options struct {
	APIKey  string
	BaseURL string

	HTTPClient *http.Client
	// ChatModel overrides the client resolved from the configuration.
	ChatModel chatmodel.ChatModel

	Logger  *logging.Logger
	Metrics *metrics.Metrics
	Tracer  trace.Tracer
	Tokens  *tokens.Registry
}

// OpenAILikeLLM generates replies through an OpenAI-compatible chat model
// using the legacy function-calling shape.
type OpenAILikeLLM struct {
	config       ChatConfig
	clientConfig chatmodel.Config
	client       chatmodel.ChatModel

	logger  *logging.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer
	tokens  *tokens.Registry
}

// NewOpenAILike creates the adapter. An empty model selects DefaultModel.
func NewOpenAILike(config ChatConfig, opts Options) (*OpenAILikeLLM, error) {
	if config.Model == "" {
		config.Model = DefaultModel
	}

	clientConfig := chatmodel.Config{
		Model:       config.Model,
		ModelServer: opts.BaseURL,
		APIKey:      opts.APIKey,
		GenerateCfg: chatmodel.GenerateConfig{
			Temperature: config.Temperature,
			MaxTokens:   config.MaxTokens,
			TopP:        config.TopP,
		},
	}

	client := opts.ChatModel
	if client == nil {
		var clientOpts []chatmodel.Option
		if opts.HTTPClient != nil {
			clientOpts = append(clientOpts, chatmodel.WithHTTPClient(opts.HTTPClient))
		}
		var err error
		client, err = chatmodel.Get(clientConfig, clientOpts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create chat model: %w", err)
		}
	}

	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	registry := opts.Tokens
	if registry == nil {
		registry = tokens.DefaultRegistry()
	}

	return &OpenAILikeLLM{
		config:       config,
		clientConfig: clientConfig,
		client:       client,
		logger:       logger,
		metrics:      opts.Metrics,
		tracer:       opts.Tracer,
		tokens:       registry,
	}, nil
}

// Config returns the effective chat configuration
func (l *OpenAILikeLLM) Config() ChatConfig {
	return l.config
}

// ClientConfig returns the configuration the chat model client was built from
func (l *OpenAILikeLLM) ClientConfig() chatmodel.Config {
	return l.clientConfig
}

// GenerateResponse sends messages to the chat model and parses its reply.
// With tools the result carries the first reply's content and every
// function call in the reply; without tools it carries the last reply's content.
func (l *OpenAILikeLLM) GenerateResponse(ctx context.Context, messages []Message, req GenerateRequest) (*Response, error) {
	params := chatmodel.Params{
		Messages:    make([]chatmodel.Message, len(messages)),
		Stream:      false,
		DeltaStream: false,
	}
	for i, msg := range messages {
		params.Messages[i] = chatmodel.Message{Role: msg.Role, Content: msg.Content}
	}
	if req.ResponseFormat != nil {
		params.ResponseFormat = req.ResponseFormat
	}
	if len(req.Tools) > 0 {
		params.Functions = make([]chatmodel.FunctionDefinition, len(req.Tools))
		for i, tool := range req.Tools {
			params.Functions[i] = chatmodel.FunctionDefinition{
				Name:        tool.Function.Name,
				Description: tool.Function.Description,
				Parameters:  tool.Function.Parameters,
			}
		}
	}
	if req.ToolChoice != "" && req.ToolChoice != DefaultToolChoice {
		// TODO: forward tool_choice once the function_call equivalent is confirmed for OpenAI-compatible servers.
		l.logger.Debug("tool_choice is not forwarded", "tool_choice", req.ToolChoice)
	}

	ctx, span := tracing.StartProviderSpan(ctx, l.tracer, "llms.generate", ProviderOpenAILike, l.config.Model)
	start := time.Now()

	reply, err := l.client.Chat(ctx, params)
	var response *Response
	if err == nil {
		response, err = parseResponse(reply.Fragments, len(req.Tools) > 0)
	}

	duration := time.Since(start)
	inputTokens, outputTokens := l.usage(params, reply)
	tracing.RecordSpanTokens(span, inputTokens, outputTokens)
	tracing.EndSpan(span, duration, err)
	l.logger.LogProviderCall(ctx, ProviderOpenAILike, l.config.Model, "chat", duration, err)
	l.metrics.RecordRequest(ProviderOpenAILike, l.config.Model, "chat", duration, err)
	if err != nil {
		return nil, err
	}
	l.metrics.RecordTokens(ProviderOpenAILike, l.config.Model, inputTokens, outputTokens)

	return response, nil
}

// usage prefers server-reported token counts and estimates otherwise
func (l *OpenAILikeLLM) usage(params chatmodel.Params, reply *chatmodel.Reply) (int, int) {
	if reply == nil {
		return 0, 0
	}
	if reply.Usage.PromptTokens > 0 || reply.Usage.CompletionTokens > 0 {
		return reply.Usage.PromptTokens, reply.Usage.CompletionTokens
	}

	inputs := make([]string, len(params.Messages))
	for i, msg := range params.Messages {
		inputs[i] = msg.Content
	}
	outputs := make([]string, len(reply.Fragments))
	for i, fragment := range reply.Fragments {
		outputs[i] = fragment.Content
	}
	return l.tokens.CountAll(l.config.Model, inputs), l.tokens.CountAll(l.config.Model, outputs)
}

// parseResponse converts reply fragments into a Response
func parseResponse(fragments []chatmodel.Fragment, withTools bool) (*Response, error) {
	if len(fragments) == 0 {
		return nil, ErrEmptyResponse
	}

	if !withTools {
		return &Response{
			Kind:    ResponseText,
			Content: fragments[len(fragments)-1].Content,
		}, nil
	}

	response := &Response{
		Kind:      ResponseToolCalls,
		Content:   fragments[0].Content,
		ToolCalls: []ToolCall{},
	}
	for _, fragment := range fragments {
		if fragment.FunctionCall == nil {
			continue
		}

		var args map[string]interface{}
		if err := json.Unmarshal([]byte(fragment.FunctionCall.Arguments), &args); err != nil {
			return nil, fmt.Errorf("%w for %q: %w", ErrInvalidArguments, fragment.FunctionCall.Name, err)
		}
		response.ToolCalls = append(response.ToolCalls, ToolCall{
			Name:      fragment.FunctionCall.Name,
			Arguments: args,
		})
	}

	return response, nil
}
