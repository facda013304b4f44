package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/trace"

	"github.com/snow-ghost/memllm/embeddings"
	"github.com/snow-ghost/memllm/llms"
	"github.com/snow-ghost/memllm/pkg/config"
	"github.com/snow-ghost/memllm/pkg/logging"
	"github.com/snow-ghost/memllm/pkg/metrics"
	"github.com/snow-ghost/memllm/pkg/tokens"
	"github.com/snow-ghost/memllm/pkg/tracing"
)

// app is the composition root: environment and file configuration are
// resolved here once and handed to the adapters explicitly.
type app struct {
	configPath  string
	metricsFile string
	getenv      func(string) string

	env      config.Environment
	cfg      *config.Config
	logger   *logging.Logger
	registry *prometheus.Registry
	metrics  *metrics.Metrics
	tracer   *tracing.Tracer
	tokens   *tokens.Registry
}

func newRootCmd() *cobra.Command {
	return newRootCmdWithEnv(nil)
}

func newRootCmdWithEnv(getenv func(string) string) *cobra.Command {
	a := &app{getenv: getenv}

	cmd := &cobra.Command{
		Use:   "memllm",
		Short: "Embed text and generate chat replies through configured providers",
		Long: `memllm drives the embedding and chat adapters from the command line.

Credentials come from OPENAI_API_KEY, OPENAI_BASE_URL and OLLAMA_HOST.
Settings come from a YAML or TOML file given by --config or MEMLLM_CONFIG.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
	}

	cmd.PersistentFlags().StringVar(&a.configPath, "config", "", "path to a .yaml/.yml/.toml config file")
	cmd.PersistentFlags().StringVar(&a.metricsFile, "metrics-file", "", "write Prometheus metrics to this file on exit")

	for _, sub := range []*cobra.Command{newEmbedCmd(a), newChatCmd(a)} {
		sub.RunE = a.withTeardown(sub.RunE)
		cmd.AddCommand(sub)
	}
	return cmd
}

// withTeardown runs teardown after run whether or not run fails.
// Cobra skips post-run hooks when RunE returns an error.
func (a *app) withTeardown(run func(*cobra.Command, []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) (err error) {
		defer func() {
			err = errors.Join(err, a.teardown())
		}()
		return run(cmd, args)
	}
}

func (a *app) setup() error {
	a.env = config.FromEnv(a.getenv)

	path := a.configPath
	if path == "" {
		path = a.env.ConfigPath
	}
	cfg, err := config.NewLoader(path).Load()
	if err != nil {
		return err
	}
	a.env.Apply(cfg)
	a.cfg = cfg

	logger, err := logging.NewLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	a.logger = logger

	a.registry = prometheus.NewRegistry()
	a.metrics = metrics.NewMetrics(a.registry)
	a.tokens = tokens.DefaultRegistry()

	if cfg.Tracing.Enabled() {
		tracer, err := tracing.NewTracer(cfg.Tracing)
		if err != nil {
			return err
		}
		a.tracer = tracer
	}

	return nil
}

func (a *app) teardown() error {
	if a.tracer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.tracer.Shutdown(ctx); err != nil {
			a.logger.Warn("failed to flush traces", "error", err)
		}
	}
	if a.metricsFile != "" && a.registry != nil {
		if err := prometheus.WriteToTextfile(a.metricsFile, a.registry); err != nil {
			return fmt.Errorf("failed to write metrics: %w", err)
		}
	}
	if a.logger != nil {
		_ = a.logger.Sync()
	}
	return nil
}

func (a *app) otelTracer() trace.Tracer {
	if a.tracer == nil {
		return nil
	}
	return a.tracer.Tracer()
}

func (a *app) embedder(cfg embeddings.EmbedderConfig) (embeddings.Embedder, error) {
	return embeddings.New(cfg, embeddings.Options{
		APIKey:     a.env.OpenAIAPIKey,
		BaseURL:    a.env.OpenAIBaseURL,
		OllamaHost: a.env.OllamaHost,
		Logger:     a.logger,
		Metrics:    a.metrics,
		Tracer:     a.otelTracer(),
		Tokens:     a.tokens,
	})
}

func (a *app) chat(cfg llms.ChatConfig) (*llms.OpenAILikeLLM, error) {
	return llms.NewOpenAILike(cfg, llms.Options{
		APIKey:  a.env.OpenAIAPIKey,
		BaseURL: a.env.OpenAIBaseURL,
		Logger:  a.logger,
		Metrics: a.metrics,
		Tracer:  a.otelTracer(),
		Tokens:  a.tokens,
	})
}
