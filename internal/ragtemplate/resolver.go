package ragtemplate

import (
	"context"

	"go.uber.org/zap"
)

// Resolution is a resolved prompt together with how its template was obtained.
type Resolution struct {
	Prompt   string
	Source   Source
	FetchErr error // swallowed fetch failure, nil when Source is SourceRemote
}

// FallbackReason returns the swallowed fetch error as text, or "".
func (r Resolution) FallbackReason() string {
	if r.FetchErr == nil {
		return ""
	}
	return r.FetchErr.Error()
}

// Resolver turns a context/query pair into a prompt.
// It holds no mutable state and is safe for concurrent use.
type Resolver struct {
	fetcher Fetcher
	logger  *zap.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLogger sets the logger used to report fallbacks at debug level.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Resolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewResolver creates a Resolver that fetches templates with fetcher.
// A nil fetcher always resolves against DefaultTemplate.
func NewResolver(fetcher Fetcher, opts ...Option) *Resolver {
	r := &Resolver{
		fetcher: fetcher,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve fetches the current template and substitutes contextText and query
// into it. It always returns a prompt; fetch failures fall back to
// DefaultTemplate. No timeout is applied beyond what ctx and the fetcher impose.
func (r *Resolver) Resolve(ctx context.Context, credential, contextText, query string) string {
	return r.ResolveDetailed(ctx, credential, contextText, query).Prompt
}

// ResolveDetailed is Resolve plus the template source and any swallowed
// fetch error.
func (r *Resolver) ResolveDetailed(ctx context.Context, credential, contextText, query string) Resolution {
	outcome := Obtain(ctx, r.fetcher, credential)
	if outcome.UsedFallback() {
		r.logger.Debug("using default template", zap.Error(outcome.Err))
	}

	return Resolution{
		Prompt:   Substitute(outcome.Template, contextText, query),
		Source:   outcome.Source,
		FetchErr: outcome.Err,
	}
}
