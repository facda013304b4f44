package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/snow-ghost/memllm/embeddings"
)

type embedOutput struct {
	Text      string    `json:"text"`
	Embedding []float32 `json:"embedding"`
}

func newEmbedCmd(a *app) *cobra.Command {
	var (
		provider    string
		model       string
		dims        int
		concurrency int
	)

	cmd := &cobra.Command{
		Use:   "embed [text...]",
		Short: "Embed each argument (or each stdin line) and print JSON lines",
		Long: `Embed text with the configured embedding provider.

Examples:
  memllm embed "user prefers dark mode"
  memllm embed --provider ollama --model nomic-embed-text --dims 768 "hello"
  cat facts.txt | memllm embed --concurrency 4`,
		RunE: func(cmd *cobra.Command, args []string) error {
			texts := args
			if len(texts) == 0 {
				var err error
				if texts, err = readLines(cmd); err != nil {
					return err
				}
			}
			if len(texts) == 0 {
				return fmt.Errorf("nothing to embed: pass text arguments or pipe lines on stdin")
			}

			cfg := a.cfg.Embedder
			if cmd.Flags().Changed("provider") {
				var model *embeddings.EmbeddingModelConfig
				if !cmd.Flags().Changed("model") && !cmd.Flags().Changed("dims") && provider == cfg.Provider {
					model = &cfg.Config
				}
				var err error
				if cfg, err = embeddings.NewEmbedderConfig(provider, model); err != nil {
					return err
				}
			}
			if cmd.Flags().Changed("model") {
				cfg.Config.Model = model
			}
			if cmd.Flags().Changed("dims") {
				cfg.Config.Dims = dims
			}

			embedder, err := a.embedder(cfg)
			if err != nil {
				return err
			}

			if concurrency < 1 {
				concurrency = 1
			}
			results := make([]embedOutput, len(texts))
			g, ctx := errgroup.WithContext(cmd.Context())
			g.SetLimit(concurrency)
			for i, text := range texts {
				i, text := i, text
				g.Go(func() error {
					vector, err := embedder.Embed(ctx, text)
					if err != nil {
						return fmt.Errorf("embed %q: %w", truncate(text, 40), err)
					}
					results[i] = embedOutput{Text: text, Embedding: vector}
					return nil
				})
			}
			if err := g.Wait(); err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			for _, r := range results {
				if err := enc.Encode(r); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&provider, "provider", "", "embedding provider (openai, ollama)")
	cmd.Flags().StringVar(&model, "model", "", "embedding model name")
	cmd.Flags().IntVar(&dims, "dims", 0, "expected vector length (0 disables the check)")
	cmd.Flags().IntVar(&concurrency, "concurrency", 1, "number of texts embedded in parallel")
	return cmd
}

func readLines(cmd *cobra.Command) ([]string, error) {
	var lines []string
	scanner := bufio.NewScanner(cmd.InOrStdin())
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read stdin: %w", err)
	}
	return lines, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
