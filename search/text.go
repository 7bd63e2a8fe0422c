package search

import "strings"

// normalizeQuery canonicalizes a query so that trivially different spellings
// of the same question collapse to the same cache fingerprint: leading and
// trailing whitespace is trimmed, inner whitespace runs collapse to a single
// space, and the text is lowercased.
func normalizeQuery(query string) string {
	return strings.ToLower(strings.Join(strings.Fields(query), " "))
}
