package main

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	ragmcp "github.com/gorewood/ragprompt/internal/mcp"
)

// newMCPCmd creates the mcp command for running as an MCP server.
func newMCPCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Run as MCP server (stdio transport)",
		Long: `Run ragprompt as a Model Context Protocol (MCP) server over stdio.

This exposes prompt resolution as MCP tools that any MCP-capable agent
environment can use. The template service token comes from the config
file, RAGPROMPT_TOKEN or --token; agents never supply it.

Configure in your agent's MCP settings:
  {
    "mcpServers": {
      "ragprompt": {
        "command": "ragprompt",
        "args": ["mcp"]
      }
    }
  }

Available tools: resolve_prompt, default_template, fetch_template`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := loadEnv(cmd)
			if err != nil {
				return err
			}
			client := e.client()
			server := ragmcp.NewServer(buildVersion(), ragmcp.Deps{
				Resolver:   e.resolver(client),
				Fetcher:    client,
				Credential: e.cfg.Token,
			})
			return server.Run(cmd.Context(), &mcp.StdioTransport{})
		},
	}
}
