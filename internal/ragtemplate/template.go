package ragtemplate

import "strings"

// Placeholder tokens recognised in a template.
const (
	ContextToken = "[context]"
	QueryToken   = "[query]"
)

// DefaultTemplate is used whenever the remote template cannot be obtained.
// Clients already depend on its exact bytes, tabs included.
const DefaultTemplate = "Use the following context as your learned knowledge, inside <context></context> XML tags.\n" +
	"\t\t<context>\n" +
	"\t\t  [context]\n" +
	"\t\t</context>\n" +
	"\t\t\n" +
	"\t\tGiven the context information, answer the query.\n" +
	"\t\tQuery: [query]"

// Substitute replaces all ContextToken occurrences in tmpl with contextText
// and all QueryToken occurrences with query.
//
// The template is split on ContextToken first and QueryToken is replaced
// within each segment, so neither value is scanned for the other token.
func Substitute(tmpl, contextText, query string) string {
	segments := strings.Split(tmpl, ContextToken)
	for i, segment := range segments {
		segments[i] = strings.ReplaceAll(segment, QueryToken, query)
	}
	return strings.Join(segments, contextText)
}

// HasPlaceholders reports which placeholder tokens appear in tmpl.
func HasPlaceholders(tmpl string) (hasContext, hasQuery bool) {
	return strings.Contains(tmpl, ContextToken), strings.Contains(tmpl, QueryToken)
}
