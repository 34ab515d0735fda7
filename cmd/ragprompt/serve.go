package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/gorewood/ragprompt/internal/config"
	"github.com/gorewood/ragprompt/internal/logging"
	"github.com/gorewood/ragprompt/internal/output"
	"github.com/gorewood/ragprompt/internal/templatesvc"
)

// serveFlags holds flag values for the serve command.
type serveFlags struct {
	addr         string
	basePath     string
	settingsFile string
}

// newServeCmd creates the serve command for running the template service.
func newServeCmd() *cobra.Command {
	var flags serveFlags

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the template service",
		Long: `Run the template service over HTTP.

Routes (under the base path, default /rag/api/v1):
  GET  /                       status, no auth
  GET  /template               current template, user or admin token
  GET  /query/settings         template and top-k, admin token
  POST /query/settings/update  change template and/or top-k, admin token

Tokens are read from the server section of the config file:
  server:
    user_tokens: [...]
    admin_tokens: [...]

Settings are kept in memory unless --settings-file (or server.settings_file)
names a YAML file to persist them in.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, flags)
		},
	}

	cmd.Flags().StringVar(&flags.addr, "addr", "", "Listen address (default: server.addr or "+config.DefaultAddr+")")
	cmd.Flags().StringVar(&flags.basePath, "base-path", "", "Route prefix (default: server.base_path or "+config.DefaultBasePath+")")
	cmd.Flags().StringVar(&flags.settingsFile, "settings-file", "", "YAML file to persist settings in")
	return cmd
}

func runServe(cmd *cobra.Command, flags serveFlags) error {
	e, err := loadEnv(cmd)
	if err != nil {
		return err
	}

	if flags.addr != "" {
		e.cfg.Server.Addr = flags.addr
	}
	if flags.basePath != "" {
		e.cfg.Server.BasePath = flags.basePath
	}
	if flags.settingsFile != "" {
		e.cfg.Server.SettingsFile = flags.settingsFile
	}
	if err := e.cfg.Validate(); err != nil {
		return e.fail(output.NewUserError(err.Error()))
	}
	srvCfg := e.cfg.Server

	auth := templatesvc.NewAuthenticator(srvCfg.UserTokens, srvCfg.AdminTokens)
	if auth.Empty() {
		return e.fail(output.NewUserError("no tokens configured. Set server.user_tokens or server.admin_tokens in the config file"))
	}

	store := templatesvc.NewMemoryStore()
	if srvCfg.SettingsFile != "" {
		store, err = templatesvc.OpenStore(srvCfg.SettingsFile)
		if err != nil {
			return e.fail(output.NewSystemErrorWithCause("failed to open settings", err))
		}
	} else {
		e.printer.Muted("settings are kept in memory; use --settings-file to persist them")
	}

	server := templatesvc.NewServer(store, auth,
		templatesvc.WithBasePath(srvCfg.BasePath),
		templatesvc.WithLogger(logging.Named(e.logger, "server")))

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := server.ListenAndServe(ctx, srvCfg.Addr, nil); err != nil {
		return e.fail(output.NewSystemErrorWithCause("template service failed", err))
	}
	return nil
}
