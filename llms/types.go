package llms

// Message represents a chat message
type Message struct {
	Role    string `json:"role"` // "system", "user", "assistant"
	Content string `json:"content"`
}

// Tool represents a tool that can be called
type Tool struct {
	Type     string       `json:"type"`
	Function ToolFunction `json:"function"`
}

// ToolFunction defines a function tool
type ToolFunction struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description,omitempty"`
	Parameters  map[string]interface{} `json:"parameters,omitempty"`
}

// ToolCall is a decoded function call requested by the model
type ToolCall struct {
	Name      string                 `json:"name"`
	Arguments map[string]interface{} `json:"arguments"`
}

// ResponseFormat is forwarded to the provider unchanged,
// e.g. {"type": "json_object"}.
type ResponseFormat map[string]interface{}

// ResponseKind tells which fields of a Response are meaningful
type ResponseKind int

const (
	// ResponseText is a plain reply; only Content is set.
	ResponseText ResponseKind = iota
	// ResponseToolCalls is a reply to a request with tools; ToolCalls may be empty.
	ResponseToolCalls
)

func (k ResponseKind) String() string {
	switch k {
	case ResponseText:
		return "text"
	case ResponseToolCalls:
		return "tool_calls"
	default:
		return "unknown"
	}
}

// Response is the result of GenerateResponse
type Response struct {
	Kind      ResponseKind `json:"-"`
	Content   string       `json:"content"`
	ToolCalls []ToolCall   `json:"tool_calls,omitempty"`
}

// GenerateRequest holds the optional inputs of GenerateResponse
type GenerateRequest struct {
	ResponseFormat ResponseFormat
	Tools          []Tool
	// ToolChoice is accepted for interface compatibility and is not sent
	// to the provider.
	ToolChoice string
}
