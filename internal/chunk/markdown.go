package chunk

import (
	"regexp"
	"strings"
)

// MarkdownChunker implements header-based Markdown chunking. Each section
// becomes both a markdown_section Chunk (so it's reachable from a regular
// code search) and an InfoSnippet carrying the same accumulated breadcrumb
// (so it's reachable from the docs-only search surface).
type MarkdownChunker struct{}

// NewMarkdownChunker constructs a MarkdownChunker. It is stateless.
func NewMarkdownChunker() *MarkdownChunker { return &MarkdownChunker{} }

var mdHeaderRe = regexp.MustCompile(`(?m)^(#{1,6})\s+(.+)$`)

type mdSection struct {
	level      int
	title      string
	breadcrumb string
	startLine  int // 0-indexed within content
	content    string
}

// Parse splits content into header-delimited sections, returning one
// markdown_section Chunk and one InfoSnippet per non-empty section.
func (m *MarkdownChunker) Parse(path string, content []byte) ([]*Chunk, []*InfoSnippet, error) {
	text := string(content)
	if strings.TrimSpace(text) == "" {
		return nil, nil, nil
	}

	sections := parseMarkdownSections(text)
	if len(sections) == 0 {
		return nil, nil, nil
	}

	var chunks []*Chunk
	var snippets []*InfoSnippet
	for _, sec := range sections {
		body := strings.TrimRight(sec.content, "\n")
		if strings.TrimSpace(body) == "" {
			continue
		}
		startLine := sec.startLine + 1
		endLine := startLine + strings.Count(body, "\n")

		c := &Chunk{
			Path:       path,
			StartLine:  startLine,
			EndLine:    endLine,
			Kind:       KindMarkdownSection,
			Language:   "markdown",
			Content:    body,
			Breadcrumb: sec.breadcrumb,
		}
		if sec.title != "" {
			c.Symbols = []string{sec.title}
		}
		c.ID = ComputeID(path, startLine, endLine, KindMarkdownSection)
		c.Finalize()
		chunks = append(chunks, c)

		s := &InfoSnippet{
			Path:       path,
			StartLine:  startLine,
			EndLine:    endLine,
			Breadcrumb: sec.breadcrumb,
			Kind:       InfoSnippetMarkdownSection,
			Content:    body,
			ChunkID:    c.ID,
		}
		s.ID = ComputeID(path, startLine, endLine, Kind(InfoSnippetMarkdownSection))
		s.Finalize()
		snippets = append(snippets, s)
	}

	return chunks, snippets, nil
}

// parseMarkdownSections splits text on ATX headers, tracking an ambient
// header stack so each section's breadcrumb accumulates its ancestors
// ("Guide > Installation > Requirements").
func parseMarkdownSections(text string) []*mdSection {
	lines := strings.Split(text, "\n")
	var sections []*mdSection
	headerStack := make([]string, 6)

	var current *mdSection
	var body strings.Builder

	flush := func() {
		if current != nil {
			current.content = body.String()
			sections = append(sections, current)
			body.Reset()
		}
	}

	for lineNum, line := range lines {
		if m := mdHeaderRe.FindStringSubmatch(line); m != nil {
			flush()

			level := len(m[1])
			title := strings.TrimSpace(m[2])
			headerStack[level-1] = title
			for i := level; i < 6; i++ {
				headerStack[i] = ""
			}

			var parts []string
			for i := 0; i < level; i++ {
				if headerStack[i] != "" {
					parts = append(parts, headerStack[i])
				}
			}

			current = &mdSection{
				level:      level,
				title:      title,
				breadcrumb: strings.Join(parts, " > "),
				startLine:  lineNum,
			}
			body.WriteString(line)
			body.WriteString("\n")
			continue
		}

		if current == nil {
			current = &mdSection{startLine: lineNum}
		}
		body.WriteString(line)
		body.WriteString("\n")
	}
	flush()

	return sections
}
