package main

import (
	"context"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gorewood/ragprompt/internal/llm"
	"github.com/gorewood/ragprompt/internal/output"
)

// askFlags holds all flag values for the ask command.
type askFlags struct {
	input       promptInput
	model       string
	provider    string
	system      string
	temperature float64
	maxTokens   int
	timeout     int
}

// newAskCmd creates the ask command.
func newAskCmd() *cobra.Command {
	var flags askFlags

	cmd := &cobra.Command{
		Use:   "ask [query]",
		Short: "Resolve a prompt and send it to an LLM",
		Long: `Resolve a prompt exactly like "ragprompt resolve" and send it to an
OpenAI-compatible chat completions endpoint.

Defaults to the model from config (local if unset).

Examples:
  ragprompt ask "What color is the sky?" --context "The sky is blue."
  retrieve-docs | ragprompt ask --context-file - "How do I deploy?" --model mini

Model shortcuts:
  OpenAI: nano, mini, gpt (or openai-nano, openai-mini)
  Local:  local (uses the model loaded in LM Studio/Ollama)

Environment variables:
  OPENAI_API_KEY   Required for OpenAI models
  OPENAI_BASE_URL  OpenAI-compatible endpoint (default: https://api.openai.com/v1)
  LOCAL_LLM_URL    Local server URL (default: http://localhost:1234/v1)`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAsk(cmd, args, flags)
		},
	}

	flags.input.register(cmd)
	cmd.Flags().StringVarP(&flags.model, "model", "m", "", "Model name (default: config model)")
	cmd.Flags().StringVarP(&flags.provider, "provider", "p", "", "Provider (openai, local) - inferred if omitted")
	cmd.Flags().StringVarP(&flags.system, "system", "s", "", "System prompt")
	cmd.Flags().Float64Var(&flags.temperature, "temperature", 0, "Temperature (0.0-2.0, 0 uses model default)")
	cmd.Flags().IntVar(&flags.maxTokens, "max-tokens", 0, "Max tokens to generate (0 uses model default)")
	cmd.Flags().IntVar(&flags.timeout, "timeout", 120, "Completion timeout in seconds")

	return cmd
}

// validateAskFlags validates the LLM-related flags.
func validateAskFlags(flags askFlags) error {
	if flags.temperature < 0 || flags.temperature > 2 {
		return output.NewUserError("temperature must be between 0 and 2, got " + strconv.FormatFloat(flags.temperature, 'f', -1, 64))
	}
	if flags.timeout <= 0 {
		return output.NewUserError("timeout must be positive, got " + strconv.Itoa(flags.timeout))
	}
	if flags.maxTokens < 0 {
		return output.NewUserError("max-tokens must be non-negative, got " + strconv.Itoa(flags.maxTokens))
	}
	return nil
}

func runAsk(cmd *cobra.Command, args []string, flags askFlags) error {
	e, err := loadEnv(cmd)
	if err != nil {
		return err
	}

	if err := validateAskFlags(flags); err != nil {
		return e.fail(err)
	}

	contextText, query, err := flags.input.resolve(cmd, args)
	if err != nil {
		return e.fail(err)
	}

	model := flags.model
	if model == "" {
		model = e.cfg.Model
	}
	client, err := llm.New(model, llm.Provider(flags.provider))
	if err != nil {
		return e.fail(err)
	}

	res := e.resolver(e.client()).ResolveDetailed(cmd.Context(), e.cfg.Token, contextText, query)

	ctx, cancel := context.WithTimeout(cmd.Context(), time.Duration(flags.timeout)*time.Second)
	defer cancel()

	e.logger.Debug("sending prompt",
		zap.String("provider", string(client.Provider())),
		zap.String("model", client.Model()),
		zap.String("template_source", res.Source.String()))

	resp, err := client.Complete(ctx, llm.Request{
		System:      flags.system,
		Prompt:      res.Prompt,
		Temperature: flags.temperature,
		MaxTokens:   flags.maxTokens,
	})
	if err != nil {
		return e.fail(output.NewSystemErrorWithCause("completion failed", err))
	}

	if e.printer.IsJSON() {
		return e.printer.WriteJSON(map[string]any{
			"model":           resp.Model,
			"content":         resp.Content,
			"source":          res.Source,
			"fallback_reason": res.FallbackReason(),
		})
	}

	e.printer.Print("%s\n", resp.Content)
	return nil
}
