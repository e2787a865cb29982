package chunk

import (
	"regexp"
	"strings"
)

// sanitizeForBraceCounting strips string-literal contents and comments from
// source while preserving line structure, so a naive brace counter isn't
// fooled by a "{" inside a string or a comment. This is a heuristic, not a
// full lexer — good enough for chunk boundary detection, matching the
// pragmatic regex/string-scan style the rest of the parser uses.
func sanitizeForBraceCounting(lines []string) []string {
	out := make([]string, len(lines))
	inBlockComment := false
	for i, line := range lines {
		var b strings.Builder
		inString := false
		var stringQuote byte
		runes := []byte(line)
		j := 0
		for j < len(runes) {
			ch := runes[j]
			if inBlockComment {
				if ch == '*' && j+1 < len(runes) && runes[j+1] == '/' {
					inBlockComment = false
					b.WriteByte(' ')
					b.WriteByte(' ')
					j += 2
					continue
				}
				b.WriteByte(' ')
				j++
				continue
			}
			if inString {
				b.WriteByte(' ')
				if ch == '\\' && j+1 < len(runes) {
					j += 2
					continue
				}
				if ch == stringQuote {
					inString = false
				}
				j++
				continue
			}
			if ch == '/' && j+1 < len(runes) && runes[j+1] == '/' {
				break // rest of line is a line comment
			}
			if ch == '/' && j+1 < len(runes) && runes[j+1] == '*' {
				inBlockComment = true
				b.WriteByte(' ')
				b.WriteByte(' ')
				j += 2
				continue
			}
			if ch == '"' || ch == '\'' {
				inString = true
				stringQuote = ch
				b.WriteByte(ch)
				j++
				continue
			}
			b.WriteByte(ch)
			j++
		}
		out[i] = b.String()
	}
	return out
}

// braceDelta returns the net change in brace depth contributed by a
// (sanitized) line.
func braceDelta(line string) int {
	delta := 0
	for _, ch := range line {
		switch ch {
		case '{':
			delta++
		case '}':
			delta--
		}
	}
	return delta
}

// docLineRe matches a `///` line comment.
var docLineRe = regexp.MustCompile(`^\s*///\s?(.*)$`)

// extractDocComment looks backward from declLine (0-indexed, exclusive) for
// a contiguous `///` block or a `/** */` block, allowing at most one blank
// line between the comment and the declaration.
func extractDocComment(rawLines []string, declLine int) string {
	i := declLine - 1
	blanksSeen := 0
	for i >= 0 {
		trimmedLine := strings.TrimSpace(rawLines[i])
		if trimmedLine == "" {
			blanksSeen++
			if blanksSeen > 1 {
				return ""
			}
			i--
			continue
		}
		break
	}
	if i < 0 {
		return ""
	}

	// Block doc comment: /** ... */ ending on line i.
	if strings.HasSuffix(strings.TrimSpace(rawLines[i]), "*/") {
		end := i
		start := end
		for start >= 0 && !strings.Contains(rawLines[start], "/**") {
			start--
		}
		if start >= 0 {
			block := strings.Join(rawLines[start:end+1], "\n")
			return strings.TrimSpace(block)
		}
		return ""
	}

	// Line doc comments: contiguous /// lines ending on line i.
	if docLineRe.MatchString(rawLines[i]) {
		end := i
		start := end
		for start >= 0 && docLineRe.MatchString(rawLines[start]) {
			start--
		}
		start++
		var parts []string
		for _, l := range rawLines[start : end+1] {
			m := docLineRe.FindStringSubmatch(l)
			parts = append(parts, m[1])
		}
		return strings.TrimSpace(strings.Join(parts, "\n"))
	}

	return ""
}

// splitConformances splits an inheritance clause ("Foo, Bar<Baz>, Sendable")
// into ordered identifier names, stripping generic parameters and any
// trailing where clause.
func splitConformances(clause string) []string {
	clause = strings.TrimSpace(clause)
	if clause == "" {
		return nil
	}
	parts := splitTopLevelComma(clause)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		last := false
		if idx := strings.Index(p, " where "); idx >= 0 {
			p, last = p[:idx], true
		}
		if idx := strings.IndexAny(p, "<("); idx >= 0 {
			p = p[:idx]
		}
		p = strings.TrimSpace(p)
		if p == "" || p == "where" {
			continue
		}
		if strings.HasPrefix(p, "where ") {
			break
		}
		out = append(out, p)
		if last {
			break
		}
	}
	return out
}

// splitTopLevelComma splits on commas that are not nested inside <...> or
// (...), since conformance clauses may contain generic argument lists.
func splitTopLevelComma(s string) []string {
	var parts []string
	depth := 0
	last := 0
	for i, ch := range s {
		switch ch {
		case '<', '(':
			depth++
		case '>', ')':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, s[last:i])
				last = i + 1
			}
		}
	}
	parts = append(parts, s[last:])
	return parts
}

var identifierRe = regexp.MustCompile(`\b[A-Za-z_][A-Za-z0-9_]*\b`)

var swiftKeywords = map[string]bool{
	"func": true, "class": true, "struct": true, "enum": true, "protocol": true,
	"extension": true, "actor": true, "macro": true, "var": true, "let": true,
	"if": true, "else": true, "guard": true, "return": true, "for": true, "in": true,
	"while": true, "switch": true, "case": true, "default": true, "break": true,
	"continue": true, "public": true, "private": true, "internal": true,
	"fileprivate": true, "open": true, "static": true, "final": true, "mutating": true,
	"throws": true, "rethrows": true, "try": true, "catch": true, "throw": true,
	"import": true, "self": true, "Self": true, "nil": true, "true": true, "false": true,
	"where": true, "as": true, "is": true, "some": true, "any": true, "async": true,
	"await": true, "init": true, "deinit": true, "subscript": true, "typealias": true,
	"associatedtype": true, "inout": true, "weak": true, "unowned": true, "lazy": true,
	"override": true, "required": true, "convenience": true, "indirect": true,
	"get": true, "set": true, "willSet": true, "didSet": true,
}

// extractReferences returns the set of non-keyword identifiers referenced in
// content, excluding the declared symbol name itself, capped to a sane size
// so a large function body doesn't blow up the reference list.
func extractReferences(content string, ownName string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, m := range identifierRe.FindAllString(content, -1) {
		if swiftKeywords[m] || m == ownName || seen[m] {
			continue
		}
		seen[m] = true
		out = append(out, m)
		if len(out) >= 200 {
			break
		}
	}
	return out
}
