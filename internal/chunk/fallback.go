package chunk

import "strings"

// lineWindowSize is the fallback chunker's window, in source lines.
const lineWindowSize = 200

// lineWindowFallback produces one free_code chunk per ~200-line window.
// It never errors: an empty file yields a chunkless ParseResult with
// Skipped set to "empty file", keeping parsing non-fatal to the indexing
// pipeline.
func lineWindowFallback(path string, content []byte) ParseResult {
	text := string(content)
	if strings.TrimSpace(text) == "" {
		return ParseResult{Skipped: "empty file"}
	}

	lines := strings.Split(text, "\n")
	language := DetectLanguage(path)

	var chunks []*Chunk
	for start := 0; start < len(lines); start += lineWindowSize {
		end := start + lineWindowSize
		if end > len(lines) {
			end = len(lines)
		}
		windowContent := strings.Join(lines[start:end], "\n")
		startLine := start + 1
		endLine := end

		c := &Chunk{
			Path:      path,
			StartLine: startLine,
			EndLine:   endLine,
			Kind:      KindFreeCode,
			Language:  language,
			Content:   windowContent,
		}
		c.ID = ComputeID(path, startLine, endLine, KindFreeCode)
		c.Finalize()
		chunks = append(chunks, c)
	}

	if len(chunks) == 0 {
		return ParseResult{Skipped: "no content after line split"}
	}
	return ParseResult{Chunks: chunks}
}
