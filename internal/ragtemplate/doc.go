// Package ragtemplate resolves retrieval-augmented prompts.
//
// A prompt is built from a template that carries two placeholder tokens,
// [context] and [query]. The template is fetched from the remote template
// service on every call; when that fetch fails for any reason the built-in
// DefaultTemplate is used instead, so resolution itself never fails:
//
//	resolver := ragtemplate.NewResolver(client, ragtemplate.WithLogger(logger))
//	prompt := resolver.Resolve(ctx, token, retrievedContext, userQuery)
//
// # Substitution
//
// Substitute replaces every [context] token with the context text and every
// [query] token with the query text. Values are inserted verbatim and never
// re-scanned, so a context that itself contains "[query]" keeps that text.
// A consequence is that substitution is not idempotent: running it again over
// a prompt whose values contain tokens will replace those tokens.
//
// # Fetch outcome
//
// Obtain performs the fetch-or-fallback step and reports which template was
// used through an Outcome. Resolver.ResolveDetailed exposes the same
// information alongside the prompt for callers that want to report it.
package ragtemplate
