// Package mcp provides a Model Context Protocol server for ragprompt.
// It exposes prompt resolution as MCP tools that any MCP-capable agent can use.
package mcp

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/gorewood/ragprompt/internal/ragtemplate"
)

// Deps holds what the tools need. Credential is taken from configuration
// and is never accepted as tool input.
type Deps struct {
	Resolver   *ragtemplate.Resolver
	Fetcher    ragtemplate.Fetcher
	Credential string
}

// NewServer creates an MCP server with all ragprompt tools registered.
func NewServer(version string, deps Deps) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "ragprompt",
		Version: version,
	}, nil)
	registerTools(server, deps)
	return server
}

// boolPtr returns a pointer to a bool value.
func boolPtr(b bool) *bool {
	return &b
}

// readOnlyAnnotations returns annotations for tools that only read remote state.
func readOnlyAnnotations(openWorld bool) *mcp.ToolAnnotations {
	return &mcp.ToolAnnotations{
		ReadOnlyHint:   true,
		IdempotentHint: true,
		OpenWorldHint:  boolPtr(openWorld),
	}
}

func registerTools(server *mcp.Server, deps Deps) {
	mcp.AddTool(server, &mcp.Tool{
		Name: "resolve_prompt",
		Description: "Build a retrieval-augmented prompt from context and a query. " +
			"Uses the template service when reachable and the built-in default template otherwise.",
		Annotations: readOnlyAnnotations(true),
	}, handleResolvePrompt(deps))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "default_template",
		Description: "Return the built-in fallback template with its [context] and [query] placeholders.",
		Annotations: readOnlyAnnotations(false),
	}, handleDefaultTemplate())

	mcp.AddTool(server, &mcp.Tool{
		Name:        "fetch_template",
		Description: "Fetch the raw template from the template service. Fails instead of falling back.",
		Annotations: readOnlyAnnotations(true),
	}, handleFetchTemplate(deps))
}
