package main

import (
	"github.com/spf13/cobra"
)

// newResolveCmd creates the resolve command.
func newResolveCmd() *cobra.Command {
	var input promptInput

	cmd := &cobra.Command{
		Use:   "resolve [query]",
		Short: "Build a prompt from context and a query",
		Long: `Build a retrieval-augmented prompt.

The current template is fetched from the template service with the
configured token. Every occurrence of [context] is replaced with the
context text and every occurrence of [query] with the query. If the
template cannot be fetched for any reason, the built-in default template
is used instead; resolve never fails because of the service.

Examples:
  ragprompt resolve "What color is the sky?" --context "The sky is blue."
  retrieve-docs | ragprompt resolve --context-file - "How do I deploy?"
  ragprompt resolve --query "Why?" --json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResolve(cmd, args, input)
		},
	}

	input.register(cmd)
	return cmd
}

func runResolve(cmd *cobra.Command, args []string, input promptInput) error {
	e, err := loadEnv(cmd)
	if err != nil {
		return err
	}

	contextText, query, err := input.resolve(cmd, args)
	if err != nil {
		return e.fail(err)
	}

	res := e.resolver(e.client()).ResolveDetailed(cmd.Context(), e.cfg.Token, contextText, query)

	if e.printer.IsJSON() {
		return e.printer.WriteJSON(map[string]any{
			"prompt":          res.Prompt,
			"source":          res.Source,
			"fallback_reason": res.FallbackReason(),
		})
	}

	e.printer.Print("%s\n", res.Prompt)
	return nil
}
