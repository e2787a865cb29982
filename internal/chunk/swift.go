package chunk

import (
	"fmt"
	"regexp"
	"strings"
)

// SwiftParser is a structured, line-scanning parser for Swift source. No
// Swift grammar ships with smacker/go-tree-sitter (or elsewhere in the
// example pack), so structure is recovered with a brace-depth scanner and
// a small set of declaration regexes rather than a true AST — the same
// pragmatic regex/string-scan style the rest of this package's extraction
// code uses for per-language metadata.
//
// It produces one type-declaration chunk per type header (class, struct,
// enum, actor, protocol, extension), one chunk per function/method body,
// and best-effort property chunks for properties declared directly in a
// type body. File-level properties outside any type get no chunk.
type SwiftParser struct{}

// NewSwiftParser constructs a SwiftParser. It holds no state.
func NewSwiftParser() *SwiftParser { return &SwiftParser{} }

var (
	importRe = regexp.MustCompile(`^import\s+([A-Za-z_][A-Za-z0-9_.]*)`)

	// These match only the declaration header text (everything before the
	// first "{"), never the brace itself — matchTypeHeader locates the
	// brace separately so an empty body on the same line ("class C {}")
	// doesn't defeat a trailing-anchor match.
	typeHeaderRe = regexp.MustCompile(
		`^(?:@\w+(?:\([^)]*\))?\s*)*` + // attributes
			`(?:(public|private|fileprivate|internal|open)\s+)?` +
			`(?:final\s+)?` +
			`(class|struct|enum|actor|protocol)\s+` +
			`([A-Za-z_][A-Za-z0-9_]*)` +
			`(?:<[^>]*>)?` +
			`(?:\s*:\s*(.+))?\s*$`)

	extensionHeaderRe = regexp.MustCompile(
		`^(?:@\w+(?:\([^)]*\))?\s*)*` +
			`(?:(public|private|fileprivate|internal|open)\s+)?` +
			`extension\s+([A-Za-z_][A-Za-z0-9_.]*)` +
			`(?:\s*:\s*(.+))?\s*$`)

	funcHeaderRe = regexp.MustCompile(
		`^(?:@\w+(?:\([^)]*\))?\s*)*` +
			`(?:(public|private|fileprivate|internal|open)\s+)?` +
			`(?:static\s+|class\s+)?(?:final\s+)?(?:override\s+)?(?:mutating\s+)?` +
			`func\s+([A-Za-z_][A-Za-z0-9_]*|` + "`[^`]+`" + `)`)

	macroHeaderRe = regexp.MustCompile(
		`^(?:(public|private|fileprivate|internal|open)\s+)?` +
			`macro\s+([A-Za-z_][A-Za-z0-9_]*)`)

	propertyHeaderRe = regexp.MustCompile(
		`^(?:(public|private|fileprivate|internal|open)\s+)?` +
			`(?:static\s+)?(?:final\s+)?(?:lazy\s+)?(?:weak\s+|unowned\s+)?` +
			`(var|let)\s+([A-Za-z_][A-Za-z0-9_]*)`)
)

type swiftTypeFrame struct {
	name         string
	kind         Kind
	startDepth   int // brace depth immediately before this frame's opening "{"
	conformances []string
}

// breadcrumbPrefix renders the ancestor chain (not including the frame
// itself) as "A > B (extension)".
func breadcrumbPrefix(stack []swiftTypeFrame) string {
	parts := make([]string, 0, len(stack))
	for _, f := range stack {
		if f.kind == KindExtension {
			parts = append(parts, fmt.Sprintf("%s (extension)", f.name))
		} else {
			parts = append(parts, f.name)
		}
	}
	return strings.Join(parts, " > ")
}

func joinBreadcrumb(prefix, leaf string) string {
	if prefix == "" {
		return leaf
	}
	return prefix + " > " + leaf
}

// Parse extracts Swift chunks from content.
func (p *SwiftParser) Parse(path string, content []byte) ([]*Chunk, error) {
	text := string(content)
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	rawLines := strings.Split(text, "\n")
	braceLines := sanitizeForBraceCounting(rawLines)

	var chunks []*Chunk
	var imports []string
	var stack []swiftTypeFrame
	depth := 0

	i := 0
	for i < len(rawLines) {
		trimmedLine := strings.TrimSpace(braceLines[i])

		if m := importRe.FindStringSubmatch(trimmedLine); m != nil {
			imports = append(imports, m[1])
			depth += braceDelta(braceLines[i])
			i++
			continue
		}

		// Type header (class/struct/enum/actor/protocol) or extension.
		if kind, name, conformClause, headerEnd, matched := matchTypeHeader(braceLines, i); matched {
			conformances := splitConformances(conformClause)
			declContent := strings.Join(rawLines[i:headerEnd+1], "\n")
			startLine, endLine := i+1, headerEnd+1

			c := &Chunk{
				Path:              path,
				StartLine:         startLine,
				EndLine:           endLine,
				Kind:              kind,
				Language:          "swift",
				Content:           declContent,
				Symbols:           []string{name},
				Imports:           append([]string(nil), imports...),
				Conformances:      conformances,
				IsTypeDeclaration: true,
				Signature:         strings.TrimSpace(declContent),
				DocComment:        extractDocComment(rawLines, i),
				Breadcrumb:        joinBreadcrumb(breadcrumbPrefix(stack), name),
			}
			c.ID = ComputeID(path, startLine, endLine, kind)
			c.Finalize()
			chunks = append(chunks, c)

			// Advance depth through the header lines, then push the frame
			// only if its body is still open (an inline "class C {}" closes
			// on the same line and has nothing nested inside it).
			depthBeforeHeader := depth
			for j := i; j <= headerEnd; j++ {
				depth += braceDelta(braceLines[j])
			}
			if depth > depthBeforeHeader {
				stack = append(stack, swiftTypeFrame{name: name, kind: kind, startDepth: depthBeforeHeader, conformances: conformances})
			}
			i = headerEnd + 1
			continue
		}

		// Macro declaration (single-line, no body).
		if m := macroHeaderRe.FindStringSubmatch(trimmedLine); m != nil {
			name := m[2]
			startLine, endLine := i+1, i+1
			c := &Chunk{
				Path:       path,
				StartLine:  startLine,
				EndLine:    endLine,
				Kind:       KindMacro,
				Language:   "swift",
				Content:    rawLines[i],
				Symbols:    []string{name},
				Imports:    append([]string(nil), imports...),
				Signature:  strings.TrimSpace(rawLines[i]),
				DocComment: extractDocComment(rawLines, i),
				Breadcrumb: joinBreadcrumb(breadcrumbPrefix(stack), name),
			}
			c.ID = ComputeID(path, startLine, endLine, KindMacro)
			c.Finalize()
			chunks = append(chunks, c)
			depth += braceDelta(braceLines[i])
			i++
			continue
		}

		// Function / method.
		if m := funcHeaderRe.FindStringSubmatch(trimmedLine); m != nil {
			name := strings.Trim(m[2], "`")
			bodyStart := i
			bodyEnd, hasBody := findMatchingBrace(braceLines, i, depth)
			kind := KindFunction
			if len(stack) > 0 {
				kind = KindMethod
			}
			var end int
			if hasBody {
				end = bodyEnd
			} else {
				// Protocol requirement or single-line declaration (no body).
				end = i
			}
			bodyContent := strings.Join(rawLines[bodyStart:end+1], "\n")
			startLine, endLine := bodyStart+1, end+1

			c := &Chunk{
				Path:       path,
				StartLine:  startLine,
				EndLine:    endLine,
				Kind:       kind,
				Language:   "swift",
				Content:    bodyContent,
				Symbols:    []string{name},
				References: extractReferences(bodyContent, name),
				Imports:    append([]string(nil), imports...),
				Signature:  strings.TrimSpace(rawLines[bodyStart]),
				DocComment: extractDocComment(rawLines, bodyStart),
				Breadcrumb: joinBreadcrumb(breadcrumbPrefix(stack), name),
			}
			c.ID = ComputeID(path, startLine, endLine, kind)
			c.Finalize()
			chunks = append(chunks, c)

			for j := bodyStart; j <= end; j++ {
				depth += braceDelta(braceLines[j])
			}
			i = end + 1
			continue
		}

		// Stored property (only tracked when not already inside a function
		// body; nested stack depth equal to the innermost type's body depth
		// is a reasonable proxy since function bodies already consumed
		// their own lines above).
		if m := propertyHeaderRe.FindStringSubmatch(trimmedLine); m != nil && len(stack) > 0 {
			name := m[3]
			end := i
			// Accumulate a computed-property body ("{ get ... }") if present.
			if strings.Contains(braceLines[i], "{") {
				if e, ok := findMatchingBrace(braceLines, i, depth); ok {
					end = e
				}
			}
			propContent := strings.Join(rawLines[i:end+1], "\n")
			startLine, endLine := i+1, end+1
			c := &Chunk{
				Path:       path,
				StartLine:  startLine,
				EndLine:    endLine,
				Kind:       KindProperty,
				Language:   "swift",
				Content:    propContent,
				Symbols:    []string{name},
				Imports:    append([]string(nil), imports...),
				Signature:  strings.TrimSpace(rawLines[i]),
				DocComment: extractDocComment(rawLines, i),
				Breadcrumb: joinBreadcrumb(breadcrumbPrefix(stack), name),
			}
			c.ID = ComputeID(path, startLine, endLine, KindProperty)
			c.Finalize()
			chunks = append(chunks, c)

			for j := i; j <= end; j++ {
				depth += braceDelta(braceLines[j])
			}
			i = end + 1
			continue
		}

		depth += braceDelta(braceLines[i])
		// Pop any type frames whose body has closed.
		for len(stack) > 0 && depth <= stack[len(stack)-1].startDepth {
			stack = stack[:len(stack)-1]
		}
		i++
	}

	return chunks, nil
}

// matchTypeHeader tries to match a type or extension header starting at
// line i, accumulating continuation lines (generic/where clauses that wrap)
// until a "{" is found or a sane line budget is exhausted. Returns the
// header's kind, name, raw conformance clause, and the index of the line
// containing the opening brace. A blank (or comment-only) line never
// starts a header.
func matchTypeHeader(braceLines []string, i int) (kind Kind, name string, conformClause string, headerEnd int, ok bool) {
	joined := strings.TrimSpace(braceLines[i])
	if joined == "" {
		return "", "", "", 0, false
	}
	end := i
	for !strings.Contains(joined, "{") && end-i < 10 && end+1 < len(braceLines) {
		end++
		joined += " " + strings.TrimSpace(braceLines[end])
	}
	braceIdx := strings.Index(joined, "{")
	if braceIdx < 0 {
		return "", "", "", 0, false
	}
	headerText := strings.TrimSpace(joined[:braceIdx])

	if m := typeHeaderRe.FindStringSubmatch(headerText); m != nil {
		k := Kind(m[2])
		return k, m[3], m[4], end, true
	}
	if m := extensionHeaderRe.FindStringSubmatch(headerText); m != nil {
		return KindExtension, m[2], m[3], end, true
	}
	return "", "", "", 0, false
}

// findMatchingBrace scans forward from line i (which contains the opening
// "{" of a body) until the brace depth returns to its pre-line value,
// returning the index of the closing line. ok is false if the declaration
// has no body (e.g. a protocol requirement ending without "{").
func findMatchingBrace(braceLines []string, i int, depthBefore int) (int, bool) {
	if !strings.Contains(braceLines[i], "{") {
		return i, false
	}
	depth := depthBefore
	for j := i; j < len(braceLines); j++ {
		depth += braceDelta(braceLines[j])
		if depth <= depthBefore {
			return j, true
		}
	}
	// Never closed — treat end of file as the closing boundary.
	return len(braceLines) - 1, true
}
