// Package config loads adapter settings from a YAML or TOML file and
// resolves credentials from the process environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/snow-ghost/memllm/embeddings"
	"github.com/snow-ghost/memllm/llms"
	"github.com/snow-ghost/memllm/pkg/logging"
	"github.com/snow-ghost/memllm/pkg/tracing"
)

// EmbedderSection is the file form of an embedder configuration.
// A missing config block selects the provider's default model.
type EmbedderSection struct {
	Provider string                           `yaml:"provider" toml:"provider"`
	Config   *embeddings.EmbeddingModelConfig `yaml:"config" toml:"config"`
}

// File is the on-disk configuration
type File struct {
	Embedder EmbedderSection `yaml:"embedder" toml:"embedder"`
	LLM      llms.ChatConfig `yaml:"llm" toml:"llm"`
	Logging  logging.Config  `yaml:"logging" toml:"logging"`
	Tracing  tracing.Config  `yaml:"tracing" toml:"tracing"`
}

// Config is the validated configuration handed to the adapters
type Config struct {
	Embedder embeddings.EmbedderConfig
	LLM      llms.ChatConfig
	Logging  logging.Config
	Tracing  tracing.Config
}

// DefaultFile returns the configuration used for keys a file omits
func DefaultFile() File {
	return File{
		Embedder: EmbedderSection{Provider: embeddings.ProviderOpenAI},
		LLM:      llms.DefaultChatConfig(),
		Logging:  logging.DefaultConfig(),
		Tracing: tracing.Config{
			ServiceName:    "memllm",
			ServiceVersion: "dev",
			Environment:    "development",
		},
	}
}

// Loader handles loading configuration files
type Loader struct {
	configPath string
}

// NewLoader creates a new configuration loader. An empty path loads defaults only.
func NewLoader(configPath string) *Loader {
	return &Loader{configPath: configPath}
}

// Load reads the file, applies defaults and validates the result
func (l *Loader) Load() (*Config, error) {
	file := DefaultFile()

	if l.configPath != "" {
		data, err := os.ReadFile(l.configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", l.configPath, err)
		}
		if err := decode(l.configPath, data, &file); err != nil {
			return nil, err
		}
	}

	return file.Resolve()
}

// LoadBytes parses data in the given format ("yaml" or "toml")
func LoadBytes(format string, data []byte) (*Config, error) {
	file := DefaultFile()
	if err := decode("config."+format, data, &file); err != nil {
		return nil, err
	}
	return file.Resolve()
}

func decode(path string, data []byte, file *File) error {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, file); err != nil {
			return fmt.Errorf("failed to parse YAML config: %w", err)
		}
	case ".toml":
		if _, err := toml.Decode(string(data), file); err != nil {
			return fmt.Errorf("failed to parse TOML config: %w", err)
		}
	default:
		return fmt.Errorf("unsupported config format %q", ext)
	}
	return nil
}

// Resolve validates the file form and builds the adapter configuration
func (f File) Resolve() (*Config, error) {
	embedder, err := embeddings.NewEmbedderConfig(f.Embedder.Provider, f.Embedder.Config)
	if err != nil {
		return nil, fmt.Errorf("invalid embedder config: %w", err)
	}
	if f.LLM.MaxTokens < 0 {
		return nil, fmt.Errorf("invalid llm config: max_tokens must not be negative, got %d", f.LLM.MaxTokens)
	}

	return &Config{
		Embedder: embedder,
		LLM:      f.LLM,
		Logging:  f.Logging,
		Tracing:  f.Tracing,
	}, nil
}
