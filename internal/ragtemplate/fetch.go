package ragtemplate

import (
	"context"
	"errors"
)

// ErrNoFetcher is recorded in an Outcome when no Fetcher was configured.
var ErrNoFetcher = errors.New("no template fetcher configured")

// Fetcher obtains the current template from the template service.
// The credential is passed through untouched.
type Fetcher interface {
	FetchTemplate(ctx context.Context, credential string) (string, error)
}

// FetchFunc adapts an ordinary function to the Fetcher interface.
type FetchFunc func(ctx context.Context, credential string) (string, error)

// FetchTemplate calls f.
func (f FetchFunc) FetchTemplate(ctx context.Context, credential string) (string, error) {
	return f(ctx, credential)
}

// Source identifies where a resolved template came from.
type Source int

// Template sources.
const (
	SourceRemote Source = iota
	SourceFallback
)

// String returns the lowercase source name used in JSON output.
func (s Source) String() string {
	switch s {
	case SourceRemote:
		return "remote"
	case SourceFallback:
		return "fallback"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s Source) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Outcome is the result of a fetch-or-fallback step.
// Err is set only when Source is SourceFallback.
type Outcome struct {
	Template string
	Source   Source
	Err      error
}

// UsedFallback reports whether the default template was used.
func (o Outcome) UsedFallback() bool {
	return o.Source == SourceFallback
}

// Obtain fetches the remote template, falling back to DefaultTemplate on
// any failure. It makes exactly one fetch attempt and never returns an error;
// the failure, if any, is carried in the Outcome.
func Obtain(ctx context.Context, fetcher Fetcher, credential string) Outcome {
	if fetcher == nil {
		return Outcome{Template: DefaultTemplate, Source: SourceFallback, Err: ErrNoFetcher}
	}

	tmpl, err := fetcher.FetchTemplate(ctx, credential)
	if err != nil {
		return Outcome{Template: DefaultTemplate, Source: SourceFallback, Err: err}
	}
	return Outcome{Template: tmpl, Source: SourceRemote}
}
