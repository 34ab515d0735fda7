package main

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/gorewood/ragprompt/internal/output"
	"github.com/gorewood/ragprompt/internal/ragtemplate"
	"github.com/gorewood/ragprompt/internal/templateapi"
	"github.com/gorewood/ragprompt/internal/templatesvc"
)

// newTemplateCmd creates the template command group.
func newTemplateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "template",
		Short: "Inspect and administer the prompt template",
		Long: `Inspect and administer the prompt template held by the template service.

Unlike resolve, these commands report service errors instead of falling
back to the built-in template. settings and set require an admin token.`,
	}

	cmd.AddCommand(newTemplateShowCmd())
	cmd.AddCommand(newTemplateDefaultCmd())
	cmd.AddCommand(newTemplateSettingsCmd())
	cmd.AddCommand(newTemplateSetCmd())
	return cmd
}

func newTemplateShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Fetch the current remote template",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := loadEnv(cmd)
			if err != nil {
				return err
			}
			tmpl, err := e.client().GetTemplate(cmd.Context(), e.cfg.Token)
			if err != nil {
				return e.fail(err)
			}
			return printTemplate(e.printer, "Remote template", tmpl)
		},
	}
}

func newTemplateDefaultCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "default",
		Short: "Print the built-in fallback template",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return printTemplate(newPrinter(cmd), "Default template", ragtemplate.DefaultTemplate)
		},
	}
}

// printTemplate prints tmpl raw when piped, boxed on a terminal, and warns
// about missing placeholders.
func printTemplate(printer *output.Printer, title, tmpl string) error {
	hasContext, hasQuery := ragtemplate.HasPlaceholders(tmpl)

	if printer.IsJSON() {
		return printer.WriteJSON(map[string]any{
			"template":    tmpl,
			"has_context": hasContext,
			"has_query":   hasQuery,
		})
	}

	if printer.IsTTY() {
		printer.Box(title, tmpl)
	} else {
		printer.Print("%s\n", tmpl)
	}
	if !hasContext {
		printer.Muted("template has no %s placeholder", ragtemplate.ContextToken)
	}
	if !hasQuery {
		printer.Muted("template has no %s placeholder", ragtemplate.QueryToken)
	}
	return nil
}

func newTemplateSettingsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "settings",
		Short: "Show the template and top-k retrieval setting (admin)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := loadEnv(cmd)
			if err != nil {
				return err
			}
			settings, err := e.client().QuerySettings(cmd.Context(), e.cfg.Token)
			if err != nil {
				return e.fail(err)
			}

			if e.printer.IsJSON() {
				return e.printer.WriteJSON(settings)
			}
			e.printer.KeyValue("k", strconv.Itoa(settings.K))
			e.printer.Section("Template")
			e.printer.Println(settings.Template)
			return nil
		},
	}
}

// templateSetFlags holds flag values for template set.
type templateSetFlags struct {
	file  string
	k     int
	reset bool
}

func newTemplateSetCmd() *cobra.Command {
	var flags templateSetFlags

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Update the template and/or top-k (admin)",
		Long: `Update the remote template and/or top-k.

A setting that is not given keeps its current value. --reset restores
the service's default template and sets top-k to ` + strconv.Itoa(templatesvc.ResetTopK) + `.

Examples:
  ragprompt template set --file prompt.txt
  ragprompt template set --k 8
  cat prompt.txt | ragprompt template set --file -
  ragprompt template set --reset`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTemplateSet(cmd, flags)
		},
	}

	cmd.Flags().StringVar(&flags.file, "file", "", "Read the new template from file (- for stdin)")
	cmd.Flags().IntVar(&flags.k, "k", 0, "Number of documents to retrieve")
	cmd.Flags().BoolVar(&flags.reset, "reset", false, "Restore the default template and set top-k to "+strconv.Itoa(templatesvc.ResetTopK))
	return cmd
}

// validateTemplateSetFlags checks the flag combination before any request.
func validateTemplateSetFlags(cmd *cobra.Command, flags templateSetFlags) error {
	kSet := cmd.Flags().Changed("k")
	switch {
	case flags.reset && (flags.file != "" || kSet):
		return output.NewUserError("--reset cannot be combined with --file or --k")
	case !flags.reset && flags.file == "" && !kSet:
		return output.NewUserError("nothing to update. Use --file, --k or --reset")
	case kSet && flags.k <= 0:
		return output.NewUserError("k must be positive, got " + strconv.Itoa(flags.k))
	}
	return nil
}

func runTemplateSet(cmd *cobra.Command, flags templateSetFlags) error {
	e, err := loadEnv(cmd)
	if err != nil {
		return err
	}
	if err := validateTemplateSetFlags(cmd, flags); err != nil {
		return e.fail(err)
	}

	client := e.client()
	update, err := buildSettingsUpdate(cmd, client, e.cfg.Token, flags)
	if err != nil {
		return e.fail(err)
	}

	tmpl, err := client.UpdateQuerySettings(cmd.Context(), e.cfg.Token, update)
	if err != nil {
		return e.fail(err)
	}

	if e.printer.IsJSON() {
		return e.printer.WriteJSON(map[string]any{"template": tmpl})
	}
	return e.printer.Success(map[string]any{"message": "Template settings updated"})
}

// buildSettingsUpdate fills in the settings the user did not give from the
// current remote values, since the service resets omitted fields.
func buildSettingsUpdate(cmd *cobra.Command, client *templateapi.Client, token string, flags templateSetFlags) (templateapi.QuerySettingsUpdate, error) {
	var update templateapi.QuerySettingsUpdate
	if flags.reset {
		return update, nil
	}

	if flags.file != "" {
		tmpl, err := readSource(cmd, flags.file)
		if err != nil {
			return update, err
		}
		if tmpl == "" {
			return update, output.NewUserError("template is empty. Use --reset to restore the default")
		}
		update.Template = &tmpl
	}
	if cmd.Flags().Changed("k") {
		k := flags.k
		update.K = &k
	}

	if update.Template == nil || update.K == nil {
		current, err := client.QuerySettings(cmd.Context(), token)
		if err != nil {
			return update, err
		}
		if update.Template == nil {
			update.Template = &current.Template
		}
		if update.K == nil {
			update.K = &current.K
		}
	}
	return update, nil
}
