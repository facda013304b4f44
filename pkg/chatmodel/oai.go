package chatmodel

import (
	"context"
	"encoding/json"
	"fmt"
	"math"

	"github.com/sashabaranov/go-openai"
)

// oaiModel talks to an OpenAI-compatible chat completions endpoint
type oaiModel struct {
	client *openai.Client
	cfg    Config
}

func newOAIModel(cfg Config, o options) *oaiModel {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.ModelServer != "" {
		clientConfig.BaseURL = cfg.ModelServer
	}
	if o.httpClient != nil {
		clientConfig.HTTPClient = o.httpClient
	}

	return &oaiModel{
		client: openai.NewClientWithConfig(clientConfig),
		cfg:    cfg,
	}
}

// Chat performs chat completion using the OpenAI API
func (m *oaiModel) Chat(ctx context.Context, params Params) (*Reply, error) {
	if err := checkParams(params); err != nil {
		return nil, err
	}

	request, err := m.buildRequest(params)
	if err != nil {
		return nil, err
	}

	response, err := m.client.CreateChatCompletion(ctx, request)
	if err != nil {
		return nil, fmt.Errorf("openai chat completion failed: %w", err)
	}

	return decodeResponse(response), nil
}

func (m *oaiModel) buildRequest(params Params) (openai.ChatCompletionRequest, error) {
	messages := make([]openai.ChatCompletionMessage, len(params.Messages))
	for i, msg := range params.Messages {
		messages[i] = openai.ChatCompletionMessage{
			Role:    msg.Role,
			Content: msg.Content,
		}
	}

	request := openai.ChatCompletionRequest{
		Model:       m.cfg.Model,
		Messages:    messages,
		Temperature: m.cfg.GenerateCfg.Temperature,
		TopP:        m.cfg.GenerateCfg.TopP,
		MaxTokens:   m.cfg.GenerateCfg.MaxTokens,
	}
	// go-openai drops a zero temperature; the smallest float keeps it on the wire.
	if request.Temperature == 0 {
		request.Temperature = math.SmallestNonzeroFloat32
	}

	for _, fn := range params.Functions {
		def := openai.FunctionDefinition{
			Name:        fn.Name,
			Description: fn.Description,
			Parameters:  fn.Parameters,
		}
		if fn.Parameters == nil {
			def.Parameters = map[string]interface{}{"type": "object", "properties": map[string]interface{}{}}
		}
		request.Functions = append(request.Functions, def)
	}

	if params.ResponseFormat != nil {
		format, err := convertResponseFormat(params.ResponseFormat)
		if err != nil {
			return openai.ChatCompletionRequest{}, err
		}
		request.ResponseFormat = format
	}

	return request, nil
}

// convertResponseFormat maps an OpenAI-style response_format object
// ({"type": ..., "json_schema": {...}}) onto the client type.
func convertResponseFormat(raw map[string]interface{}) (*openai.ChatCompletionResponseFormat, error) {
	formatType, ok := raw["type"].(string)
	if !ok || formatType == "" {
		return nil, fmt.Errorf("%w: type must be a non-empty string, got %v", ErrInvalidResponseFormat, raw["type"])
	}
	for key := range raw {
		if key != "type" && key != "json_schema" {
			return nil, fmt.Errorf("%w: unsupported key %q", ErrInvalidResponseFormat, key)
		}
	}
	format := &openai.ChatCompletionResponseFormat{
		Type: openai.ChatCompletionResponseFormatType(formatType),
	}

	schemaRaw, ok := raw["json_schema"]
	if !ok {
		return format, nil
	}

	var schemaSpec struct {
		Name        string          `json:"name"`
		Description string          `json:"description"`
		Strict      bool            `json:"strict"`
		Schema      json.RawMessage `json:"schema"`
	}
	data, err := json.Marshal(schemaRaw)
	if err != nil {
		return nil, fmt.Errorf("failed to encode response_format json_schema: %w", err)
	}
	if err := json.Unmarshal(data, &schemaSpec); err != nil {
		return nil, fmt.Errorf("%w: json_schema: %w", ErrInvalidResponseFormat, err)
	}

	format.JSONSchema = &openai.ChatCompletionResponseFormatJSONSchema{
		Name:        schemaSpec.Name,
		Description: schemaSpec.Description,
		Strict:      schemaSpec.Strict,
	}
	if len(schemaSpec.Schema) > 0 {
		format.JSONSchema.Schema = schemaSpec.Schema
	}
	return format, nil
}

// decodeResponse turns choices into reply fragments. Tool calls sent in the
// newer shape are surfaced as extra fragments carrying a function call.
func decodeResponse(response openai.ChatCompletionResponse) *Reply {
	reply := &Reply{
		Usage: Usage{
			PromptTokens:     response.Usage.PromptTokens,
			CompletionTokens: response.Usage.CompletionTokens,
		},
	}

	for _, choice := range response.Choices {
		msg := choice.Message
		fragment := Fragment{
			Role:    msg.Role,
			Content: msg.Content,
		}
		if msg.FunctionCall != nil {
			fragment.FunctionCall = &FunctionCall{
				Name:      msg.FunctionCall.Name,
				Arguments: msg.FunctionCall.Arguments,
			}
		}
		reply.Fragments = append(reply.Fragments, fragment)
		// Some servers echo the same call in both shapes.
		if msg.FunctionCall != nil {
			continue
		}

		for _, tc := range msg.ToolCalls {
			if tc.Function.Name == "" {
				continue
			}
			reply.Fragments = append(reply.Fragments, Fragment{
				Role: msg.Role,
				FunctionCall: &FunctionCall{
					Name:      tc.Function.Name,
					Arguments: tc.Function.Arguments,
				},
			})
		}
	}

	return reply
}
