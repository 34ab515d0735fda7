package mcp

import (
	"context"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/gorewood/ragprompt/internal/ragtemplate"
)

// --- resolve_prompt ---

// ResolveInput is the input for the resolve_prompt tool.
type ResolveInput struct {
	Context string `json:"context" jsonschema:"retrieved context text inserted at [context]"`
	Query   string `json:"query"   jsonschema:"user question inserted at [query]"`
}

// ResolveOutput is the output for the resolve_prompt tool.
type ResolveOutput struct {
	Prompt         string `json:"prompt"                    jsonschema:"the fully substituted prompt"`
	Source         string `json:"source"                    jsonschema:"remote or fallback"`
	FallbackReason string `json:"fallback_reason,omitempty" jsonschema:"why the default template was used"`
}

func handleResolvePrompt(deps Deps) mcp.ToolHandlerFor[ResolveInput, ResolveOutput] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, in ResolveInput) (*mcp.CallToolResult, ResolveOutput, error) {
		if deps.Resolver == nil {
			return nil, ResolveOutput{}, errors.New("resolver not configured")
		}
		res := deps.Resolver.ResolveDetailed(ctx, deps.Credential, in.Context, in.Query)
		return nil, ResolveOutput{
			Prompt:         res.Prompt,
			Source:         res.Source.String(),
			FallbackReason: res.FallbackReason(),
		}, nil
	}
}

// --- default_template ---

// DefaultTemplateInput is the input for the default_template tool (no parameters needed).
type DefaultTemplateInput struct{}

// TemplateOutput carries a raw template and its placeholder coverage.
type TemplateOutput struct {
	Template   string `json:"template"    jsonschema:"raw template text"`
	HasContext bool   `json:"has_context" jsonschema:"template contains [context]"`
	HasQuery   bool   `json:"has_query"   jsonschema:"template contains [query]"`
}

func newTemplateOutput(tmpl string) TemplateOutput {
	hasContext, hasQuery := ragtemplate.HasPlaceholders(tmpl)
	return TemplateOutput{Template: tmpl, HasContext: hasContext, HasQuery: hasQuery}
}

func handleDefaultTemplate() mcp.ToolHandlerFor[DefaultTemplateInput, TemplateOutput] {
	return func(_ context.Context, _ *mcp.CallToolRequest, _ DefaultTemplateInput) (*mcp.CallToolResult, TemplateOutput, error) {
		return nil, newTemplateOutput(ragtemplate.DefaultTemplate), nil
	}
}

// --- fetch_template ---

// FetchTemplateInput is the input for the fetch_template tool (no parameters needed).
type FetchTemplateInput struct{}

func handleFetchTemplate(deps Deps) mcp.ToolHandlerFor[FetchTemplateInput, TemplateOutput] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, _ FetchTemplateInput) (*mcp.CallToolResult, TemplateOutput, error) {
		if deps.Fetcher == nil {
			return nil, TemplateOutput{}, ragtemplate.ErrNoFetcher
		}
		tmpl, err := deps.Fetcher.FetchTemplate(ctx, deps.Credential)
		if err != nil {
			return nil, TemplateOutput{}, fmt.Errorf("fetching template: %w", err)
		}
		return nil, newTemplateOutput(tmpl), nil
	}
}
