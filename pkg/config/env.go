package config

import "os"

// Environment variable names read by FromEnv
const (
	EnvOpenAIAPIKey  = "OPENAI_API_KEY"
	EnvOpenAIBaseURL = "OPENAI_BASE_URL"
	EnvOllamaHost    = "OLLAMA_HOST"
	EnvConfigPath    = "MEMLLM_CONFIG"
	EnvLogLevel      = "LOG_LEVEL"
)

// Environment holds the process-level settings. It is resolved once by the
// program entry point and passed down explicitly.
type Environment struct {
	OpenAIAPIKey  string
	OpenAIBaseURL string
	OllamaHost    string
	ConfigPath    string
	LogLevel      string
}

// FromEnv resolves the environment using getenv; nil means os.Getenv
func FromEnv(getenv func(string) string) Environment {
	if getenv == nil {
		getenv = os.Getenv
	}
	return Environment{
		OpenAIAPIKey:  getenv(EnvOpenAIAPIKey),
		OpenAIBaseURL: getenv(EnvOpenAIBaseURL),
		OllamaHost:    getenv(EnvOllamaHost),
		ConfigPath:    getenv(EnvConfigPath),
		LogLevel:      getenv(EnvLogLevel),
	}
}

// Apply overlays environment settings that also exist in the file
func (e Environment) Apply(cfg *Config) {
	if e.LogLevel != "" {
		cfg.Logging.Level = e.LogLevel
	}
}
