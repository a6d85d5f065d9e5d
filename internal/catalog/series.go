package catalog

import "strings"

// DefaultFranchises are franchise tags whose titles collapse into one series regardless
// of punctuation. The match is a case-insensitive substring test, so it can over-merge
// unrelated titles that happen to contain the tag.
var DefaultFranchises = []string{"Gintama"}

// seriesDelimiters end the series prefix of a title name.
const seriesDelimiters = ":!()"

// SeriesName derives the series grouping key for a title name.
// A franchise tag contained in the name (case-insensitive) wins and is returned as
// configured; otherwise the key is the text before the first of ':', '!', '(' or ')',
// trimmed. Names that start with a delimiter fall back to the whole trimmed name.
func SeriesName(name string, franchises []string) string {
	lower := strings.ToLower(name)
	for _, f := range franchises {
		if f != "" && strings.Contains(lower, strings.ToLower(f)) {
			return f
		}
	}
	prefix := name
	if i := strings.IndexAny(name, seriesDelimiters); i >= 0 {
		prefix = name[:i]
	}
	if p := strings.TrimSpace(prefix); p != "" {
		return p
	}
	return strings.TrimSpace(name)
}

// seriesFunc binds franchises for models.NewTitle.
func seriesFunc(franchises []string) func(string) string {
	return func(name string) string { return SeriesName(name, franchises) }
}
