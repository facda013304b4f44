package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/snow-ghost/memllm/llms"
)

func newChatCmd(a *app) *cobra.Command {
	var (
		model          string
		system         string
		history        []string
		toolsFile      string
		responseFormat string
		toolChoice     string
	)

	cmd := &cobra.Command{
		Use:   "chat <message>",
		Short: "Send a conversation to the chat model and print the reply",
		Long: `Generate a reply with the OpenAI-compatible chat adapter.

Earlier turns are passed with --message role:content, in order. With --tools
the reply is printed as JSON carrying content and decoded tool calls.

Examples:
  memllm chat "Summarize: I moved to Berlin last year"
  memllm chat --system "Extract facts as JSON" --response-format json_object "I like tea"
  memllm chat --tools tools.json "Remember that my dog is called Rex"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var messages []llms.Message
			if system != "" {
				messages = append(messages, llms.Message{Role: "system", Content: system})
			}
			for _, h := range history {
				msg, err := parseMessage(h)
				if err != nil {
					return err
				}
				messages = append(messages, msg)
			}
			messages = append(messages, llms.Message{Role: "user", Content: strings.Join(args, " ")})

			req := llms.GenerateRequest{ToolChoice: toolChoice}
			if responseFormat != "" {
				req.ResponseFormat = llms.ResponseFormat{"type": responseFormat}
			}
			if toolsFile != "" {
				tools, err := readTools(toolsFile)
				if err != nil {
					return err
				}
				req.Tools = tools
			}

			cfg := a.cfg.LLM
			if model != "" {
				cfg.Model = model
			}
			llm, err := a.chat(cfg)
			if err != nil {
				return err
			}

			resp, err := llm.GenerateResponse(cmd.Context(), messages, req)
			if err != nil {
				return err
			}

			if resp.Kind == llms.ResponseText {
				fmt.Fprintln(cmd.OutOrStdout(), resp.Content)
				return nil
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(resp)
		},
	}

	cmd.Flags().StringVar(&model, "model", "", "chat model (defaults to the configured model, then gpt-4o)")
	cmd.Flags().StringVar(&system, "system", "", "system prompt")
	cmd.Flags().StringArrayVar(&history, "message", nil, "earlier turn as role:content (repeatable)")
	cmd.Flags().StringVar(&toolsFile, "tools", "", "JSON file with a list of {type, function} tool definitions")
	cmd.Flags().StringVar(&responseFormat, "response-format", "", "response format type, e.g. json_object")
	cmd.Flags().StringVar(&toolChoice, "tool-choice", llms.DefaultToolChoice, "tool choice (accepted, not sent to the provider)")
	return cmd
}

func parseMessage(s string) (llms.Message, error) {
	role, content, ok := strings.Cut(s, ":")
	if !ok || role == "" {
		return llms.Message{}, fmt.Errorf("invalid --message %q: want role:content", s)
	}
	return llms.Message{Role: role, Content: content}, nil
}

func readTools(path string) ([]llms.Tool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read tools file: %w", err)
	}
	var tools []llms.Tool
	if err := json.Unmarshal(data, &tools); err != nil {
		return nil, fmt.Errorf("parse tools file %s: %w", path, err)
	}
	return tools, nil
}
