package chunk

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/c"
	"github.com/smacker/go-tree-sitter/cpp"
	"github.com/smacker/go-tree-sitter/yaml"
)

// genericNodeKinds maps a tree-sitter node type, for a given language, to
// the Chunk.Kind it represents. Only top-level declaration node types are
// listed; everything else is skipped by the walk.
var genericNodeKinds = map[string]map[string]Kind{
	"c": {
		"function_definition": KindFunction,
		"struct_specifier":    KindStruct,
		"enum_specifier":      KindEnum,
	},
	"cpp": {
		"function_definition": KindFunction,
		"class_specifier":     KindClass,
		"struct_specifier":    KindStruct,
		"enum_specifier":      KindEnum,
	},
}

// genericGrammars maps an extension to the tree-sitter language used for
// it and the node-kind table above. Objective-C (.m/.h when used as an
// Obj-C header) has no dedicated grammar in the pack, so it is routed
// through the C grammar, and Objective-C++ (.mm) through the C++ grammar —
// a reasonable approximation since Obj-C's C-level
// declarations parse cleanly under it, even though Obj-C-specific
// constructs (@interface/@implementation) are not recognized as distinct
// node types and fall through to the walk's "no match" path (and
// ultimately the line-window fallback if nothing at all is found).
var genericGrammars = map[string]struct {
	lang     *sitter.Language
	langName string
}{
	".c":   {c.GetLanguage(), "c"},
	".h":   {c.GetLanguage(), "c"},
	".m":   {c.GetLanguage(), "c"},
	".mm":  {cpp.GetLanguage(), "cpp"},
	".cpp": {cpp.GetLanguage(), "cpp"},
	".cc":  {cpp.GetLanguage(), "cpp"},
	".hpp": {cpp.GetLanguage(), "cpp"},
}

// GenericChunker parses the generic-AST-chunker extensions (.m/.mm/.h/.c/
// .cpp/.hpp via tree-sitter; .json/.yaml/.yml structurally).
type GenericChunker struct {
	parser *sitter.Parser
}

// NewGenericChunker constructs a GenericChunker.
func NewGenericChunker() *GenericChunker {
	return &GenericChunker{parser: sitter.NewParser()}
}

// Close releases parser resources.
func (g *GenericChunker) Close() {
	if g.parser != nil {
		g.parser.Close()
	}
}

// Parse dispatches content to the appropriate generic strategy for ext.
func (g *GenericChunker) Parse(path string, content []byte, ext string) ([]*Chunk, error) {
	switch ext {
	case ".json":
		return g.parseJSON(path, content)
	case ".yaml", ".yml":
		return g.parseYAML(path, content)
	default:
		return g.parseTreeSitter(path, content, ext)
	}
}

func (g *GenericChunker) parseTreeSitter(path string, content []byte, ext string) ([]*Chunk, error) {
	grammar, ok := genericGrammars[ext]
	if !ok {
		return nil, fmt.Errorf("no generic grammar for extension %q", ext)
	}
	g.parser.SetLanguage(grammar.lang)
	tree, err := g.parser.ParseCtx(context.Background(), nil, content)
	if err != nil || tree == nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	root := convertNode(tree.RootNode(), content)
	kinds := genericNodeKinds[grammar.langName]
	language := DetectLanguage(path)

	var chunks []*Chunk
	var walk func(n *Node, depth int)
	walk = func(n *Node, depth int) {
		if depth > 1 {
			// Only the root's direct children (top-level declarations)
			// become chunks; deeper declarations such as methods inside a
			// class body are not chunked separately. This keeps output
			// proportional to the file's real top-level structure.
			return
		}
		if kind, ok := kinds[n.Type]; ok {
			chunks = append(chunks, g.chunkFromNode(path, n, content, kind, language))
		}
		for _, child := range n.Children {
			walk(child, depth+1)
		}
	}
	walk(root, 0)
	return chunks, nil
}

func (g *GenericChunker) chunkFromNode(path string, n *Node, source []byte, kind Kind, language string) *Chunk {
	startLine := int(n.StartPoint.Row) + 1
	endLine := int(n.EndPoint.Row) + 1
	body := n.GetContent(source)
	name := firstIdentifier(n, source)

	c := &Chunk{
		Path:              path,
		StartLine:         startLine,
		EndLine:           endLine,
		Kind:              kind,
		Language:          language,
		Content:           body,
		IsTypeDeclaration: IsTypeKind(kind),
	}
	if name != "" {
		c.Symbols = []string{name}
		c.References = extractReferences(body, name)
	}
	c.ID = ComputeID(path, startLine, endLine, kind)
	c.Finalize()
	return c
}

// firstIdentifier returns the text of the first "identifier" or
// "type_identifier" descendant, a cheap stand-in for a per-grammar name
// field.
func firstIdentifier(n *Node, source []byte) string {
	var found string
	n.Walk(func(node *Node) bool {
		if found != "" {
			return false
		}
		if node.Type == "identifier" || node.Type == "type_identifier" || node.Type == "field_identifier" {
			found = node.GetContent(source)
			return false
		}
		return true
	})
	return found
}

// parseJSON produces one chunk per top-level key/value pair. JSON has no
// function/class concept for an AST chunker to key off of, so a structural
// split on top-level object members is the natural granularity — this is
// why JSON is handled with the standard library's decoder rather than a
// tree-sitter grammar.
func (g *GenericChunker) parseJSON(path string, content []byte) ([]*Chunk, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(content, &raw); err != nil {
		return nil, err
	}
	language := DetectLanguage(path)
	lines := strings.Split(string(content), "\n")

	var chunks []*Chunk
	for key, val := range raw {
		valStr := string(val)
		startLine, endLine := locateJSONValue(lines, key)
		body := fmt.Sprintf("%q: %s", key, valStr)
		c := &Chunk{
			Path:      path,
			StartLine: startLine,
			EndLine:   endLine,
			Kind:      KindOther,
			Language:  language,
			Content:   body,
			Symbols:   []string{key},
		}
		c.ID = ComputeID(path, startLine, endLine, KindOther)
		c.Finalize()
		chunks = append(chunks, c)
	}
	return chunks, nil
}

// locateJSONValue finds the 1-indexed line of a top-level "key": occurrence
// for diagnostic line numbers; falls back to the whole file's span.
func locateJSONValue(lines []string, key string) (int, int) {
	needle := fmt.Sprintf("%q", key)
	for i, line := range lines {
		if strings.Contains(line, needle) {
			return i + 1, i + 1
		}
	}
	return 1, len(lines)
}

func (g *GenericChunker) parseYAML(path string, content []byte) ([]*Chunk, error) {
	grammar := yaml.GetLanguage()
	g.parser.SetLanguage(grammar)
	tree, err := g.parser.ParseCtx(context.Background(), nil, content)
	if err != nil || tree == nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	root := convertNode(tree.RootNode(), content)
	language := DetectLanguage(path)

	var chunks []*Chunk
	for _, n := range root.FindAllByType("block_mapping_pair") {
		keyNode := n.FindChildByType("flow_node")
		name := ""
		if keyNode != nil {
			name = keyNode.GetContent(content)
		}
		startLine := int(n.StartPoint.Row) + 1
		endLine := int(n.EndPoint.Row) + 1
		c := &Chunk{
			Path:      path,
			StartLine: startLine,
			EndLine:   endLine,
			Kind:      KindOther,
			Language:  language,
			Content:   n.GetContent(content),
		}
		if name != "" {
			c.Symbols = []string{name}
		}
		c.ID = ComputeID(path, startLine, endLine, KindOther)
		c.Finalize()
		chunks = append(chunks, c)
	}
	return chunks, nil
}
