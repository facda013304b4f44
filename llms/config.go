package llms

// DefaultModel is used when ChatConfig.Model is empty
const DefaultModel = "gpt-4o"

// DefaultToolChoice is the tool choice assumed when none is given
const DefaultToolChoice = "auto"

// ChatConfig holds model selection and generation parameters
type ChatConfig struct {
	Model       string  `json:"model" yaml:"model" toml:"model"`
	Temperature float32 `json:"temperature" yaml:"temperature" toml:"temperature"`
	MaxTokens   int     `json:"max_tokens" yaml:"max_tokens" toml:"max_tokens"`
	TopP        float32 `json:"top_p" yaml:"top_p" toml:"top_p"`
}

// DefaultChatConfig returns the default generation parameters.
// Model is left empty so the adapter picks DefaultModel.
func DefaultChatConfig() ChatConfig {
	return ChatConfig{
		Temperature: 0,
		MaxTokens:   3000,
		TopP:        1,
	}
}
