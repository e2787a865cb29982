package store

import (
	"strings"
	"unicode"
)

var ftsMetacharacters = strings.NewReplacer(
	`"`, " ", "*", " ", "^", " ", ":", " ", "(", " ", ")", " ",
)

// isCamelCaseIdentifier reports whether term looks like a CamelCase or
// mixedCase identifier: at least 3 characters, contains both an upper
// and a lower case letter, and has no internal whitespace (already
// guaranteed by the caller's whitespace split).
func isCamelCaseIdentifier(term string) bool {
	if len(term) < 3 {
		return false
	}
	var hasUpper, hasLower bool
	for _, r := range term {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		}
	}
	return hasUpper && hasLower
}

// PrepareFTSQuery turns a raw user query into an FTS5 MATCH expression.
// CamelCase identifiers are quoted as exact phrases so "USearchError"
// doesn't collapse into a substring match on "Search"; other terms of
// at least 3 characters become quoted prefix matches; everything else
// is dropped. Terms are implicitly ANDed (FTS5's default for
// space-separated MATCH operands).
func PrepareFTSQuery(raw string) string {
	raw = ftsMetacharacters.Replace(raw)
	fields := strings.Fields(raw)
	if len(fields) == 0 {
		return ""
	}

	parts := make([]string, 0, len(fields))
	for _, term := range fields {
		switch {
		case isCamelCaseIdentifier(term):
			parts = append(parts, `"`+term+`"`)
		case len(term) >= 3:
			parts = append(parts, `"`+term+`"*`)
		}
	}
	return strings.Join(parts, " ")
}
