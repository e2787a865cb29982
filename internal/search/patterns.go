package search

import (
	"regexp"
	"strings"
	"unicode"
)

// conformancePattern extracts the target type from "what implements X",
// "implementations of X", "conforms to X" style queries: X is taken as
// the last capitalized identifier in the query.
var conformancePattern = regexp.MustCompile(`(?i)(?:what implements|implementations? of|conforms? to)\s+(.+)$`)

// capitalizedIdentifier finds a standalone CapitalizedIdentifier token.
var capitalizedIdentifier = regexp.MustCompile(`\b[A-Z][A-Za-z0-9_]*\b`)

// conceptualPrefix matches the how/what/where family of conceptual
// question starters that enable the standard-protocol demotion.
var conceptualPrefix = regexp.MustCompile(`(?i)^(how|what|where)\b`)

// isCamelCaseToken reports whether tok looks like a CamelCase or
// mixedCase identifier: at least 3 characters, contains both an upper
// and a lower case letter. Case order doesn't matter, so UpperCamelCase
// type names ("ChunkStore") match the same as mixedCase ("capacityExhausted").
func isCamelCaseToken(tok string) bool {
	if len(tok) < 3 {
		return false
	}
	var hasUpper, hasLower bool
	for _, r := range tok {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		}
	}
	return hasUpper && hasLower
}

// intent captures the intent-detection signals for one query.
type intent struct {
	// ConformanceTarget is the extracted type name X, or "" if the
	// query doesn't match a conformance pattern.
	ConformanceTarget string

	// Conceptual is true for a how/what/where prefixed query.
	Conceptual bool

	// CamelCaseTokens holds every CamelCase token found in the query,
	// verbatim, for the CamelCase-exact boost.
	CamelCaseTokens []string
}

// detectIntent runs the regex-lite intent detection described above.
func detectIntent(query string) intent {
	var it intent

	if m := conformancePattern.FindStringSubmatch(query); m != nil {
		if ids := capitalizedIdentifier.FindAllString(m[1], -1); len(ids) > 0 {
			it.ConformanceTarget = ids[len(ids)-1]
		}
	}

	it.Conceptual = conceptualPrefix.MatchString(strings.TrimSpace(query))

	for _, tok := range strings.Fields(query) {
		tok = strings.Trim(tok, `"'.,;:()`)
		if isCamelCaseToken(tok) {
			it.CamelCaseTokens = append(it.CamelCaseTokens, tok)
		}
	}

	return it
}
