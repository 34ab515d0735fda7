package main

import (
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gorewood/ragprompt/internal/config"
	"github.com/gorewood/ragprompt/internal/logging"
	"github.com/gorewood/ragprompt/internal/output"
	"github.com/gorewood/ragprompt/internal/ragtemplate"
	"github.com/gorewood/ragprompt/internal/templateapi"
)

// env is what a command needs after flags, config and environment are merged.
type env struct {
	cfg     *config.Config
	logger  *zap.Logger
	printer *output.Printer
}

// newPrinter builds a printer honoring --json and --color.
func newPrinter(cmd *cobra.Command) *output.Printer {
	out := cmd.OutOrStdout()
	isTTY := output.ResolveColorMode(flagValue(cmd, "color"), output.IsTTY(out))
	return output.NewPrinter(out, isJSONMode(cmd), isTTY).WithStderr(cmd.ErrOrStderr())
}

// loadEnv reads the config file and applies --api-url and --token on top.
// Config problems are reported through the printer and returned as user errors.
func loadEnv(cmd *cobra.Command) (*env, error) {
	printer := newPrinter(cmd)

	if _, err := output.ParseColorMode(flagValue(cmd, "color")); err != nil {
		printer.Error(err)
		return nil, err
	}

	cfg, err := config.Load(flagValue(cmd, "config"))
	if err != nil {
		userErr := output.NewUserError(err.Error())
		printer.Error(userErr)
		return nil, userErr
	}
	if v := flagValue(cmd, "api-url"); v != "" {
		cfg.APIBaseURL = v
	}
	if v := flagValue(cmd, "token"); v != "" {
		cfg.Token = v
	}
	if err := cfg.Validate(); err != nil {
		userErr := output.NewUserError(err.Error())
		printer.Error(userErr)
		return nil, userErr
	}

	logger := logging.New(logging.Options{
		Verbose: flagValue(cmd, "verbose") == "true",
		JSON:    isJSONMode(cmd),
		Writer:  cmd.ErrOrStderr(),
	})

	return &env{cfg: cfg, logger: logger, printer: printer}, nil
}

// client returns a template service client for the configured base URL.
func (e *env) client() *templateapi.Client {
	var opts []templateapi.Option
	if e.cfg.Timeout > 0 {
		opts = append(opts, templateapi.WithTimeout(e.cfg.Timeout))
	}
	return templateapi.New(e.cfg.APIBaseURL, opts...)
}

// resolver returns a Resolver backed by the template service client.
func (e *env) resolver(client *templateapi.Client) *ragtemplate.Resolver {
	return ragtemplate.NewResolver(client, ragtemplate.WithLogger(logging.Named(e.logger, "resolver")))
}

// fail reports err through the printer and returns it.
func (e *env) fail(err error) error {
	e.printer.Error(err)
	return err
}

// readSource reads path, with "-" meaning the command's stdin.
func readSource(cmd *cobra.Command, path string) (string, error) {
	if path == "-" {
		content, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", output.NewSystemErrorWithCause("failed to read stdin", err)
		}
		return string(content), nil
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return "", output.NewUserError("failed to read " + path + ": " + err.Error())
	}
	return string(content), nil
}

// promptInput holds the --context/--context-file/--query flags shared by
// resolve and ask.
type promptInput struct {
	context     string
	contextFile string
	query       string
}

func (p *promptInput) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&p.context, "context", "c", "", "Retrieved context text")
	cmd.Flags().StringVarP(&p.contextFile, "context-file", "f", "", "Read context from file (- for stdin)")
	cmd.Flags().StringVarP(&p.query, "query", "q", "", "Query text (alternative to the positional argument)")
}

// resolve returns the context and query. The query comes from the first
// argument or --query, but not both; an explicitly empty query is allowed.
func (p *promptInput) resolve(cmd *cobra.Command, args []string) (contextText, query string, err error) {
	queryFlagSet := cmd.Flags().Changed("query")
	switch {
	case len(args) > 0 && queryFlagSet:
		return "", "", output.NewUserError("give the query as an argument or with --query, not both")
	case len(args) > 0:
		query = args[0]
	case queryFlagSet:
		query = p.query
	default:
		return "", "", output.NewUserError("no query provided. Use an argument or --query")
	}

	if cmd.Flags().Changed("context") && p.contextFile != "" {
		return "", "", output.NewUserError("--context and --context-file are mutually exclusive")
	}
	contextText = p.context
	if p.contextFile != "" {
		contextText, err = readSource(cmd, p.contextFile)
		if err != nil {
			return "", "", err
		}
		contextText = strings.TrimSuffix(contextText, "\n")
	}
	return contextText, query, nil
}
