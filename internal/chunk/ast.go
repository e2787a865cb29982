package chunk

import sitter "github.com/smacker/go-tree-sitter"

// Tree is a parsed AST, source-agnostic of the underlying grammar.
type Tree struct {
	Root     *Node
	Source   []byte
	Language string
}

// Node is a node in the AST.
type Node struct {
	Type       string
	StartByte  uint32
	EndByte    uint32
	StartPoint Point
	EndPoint   Point
	Children   []*Node
	HasError   bool
}

// Point is a position in source text.
type Point struct {
	Row    uint32 // 0-indexed line number
	Column uint32
}

// convertNode walks a tree-sitter node tree into the package's own Node
// shape, decoupling the rest of the package from the tree-sitter API past
// the initial parse call.
func convertNode(n *sitter.Node, source []byte) *Node {
	if n == nil {
		return nil
	}
	childCount := int(n.ChildCount())
	children := make([]*Node, 0, childCount)
	for i := 0; i < childCount; i++ {
		child := n.Child(i)
		if child == nil {
			continue
		}
		children = append(children, convertNode(child, source))
	}
	sp := n.StartPoint()
	ep := n.EndPoint()
	return &Node{
		Type:       n.Type(),
		StartByte:  n.StartByte(),
		EndByte:    n.EndByte(),
		StartPoint: Point{Row: sp.Row, Column: sp.Column},
		EndPoint:   Point{Row: ep.Row, Column: ep.Column},
		Children:   children,
		HasError:   n.HasError(),
	}
}

// GetContent returns the node's source text slice.
func (n *Node) GetContent(source []byte) string {
	if n == nil || int(n.EndByte) > len(source) || n.StartByte > n.EndByte {
		return ""
	}
	return string(source[n.StartByte:n.EndByte])
}

// FindChildByType returns the first direct child of the given type, or nil.
func (n *Node) FindChildByType(nodeType string) *Node {
	if n == nil {
		return nil
	}
	for _, c := range n.Children {
		if c.Type == nodeType {
			return c
		}
	}
	return nil
}

// FindChildrenByType returns all direct children of the given type.
func (n *Node) FindChildrenByType(nodeType string) []*Node {
	if n == nil {
		return nil
	}
	var out []*Node
	for _, c := range n.Children {
		if c.Type == nodeType {
			out = append(out, c)
		}
	}
	return out
}

// FindAllByType returns every descendant (at any depth, including n itself)
// matching nodeType, in pre-order.
func (n *Node) FindAllByType(nodeType string) []*Node {
	var out []*Node
	n.Walk(func(node *Node) bool {
		if node.Type == nodeType {
			out = append(out, node)
		}
		return true
	})
	return out
}

// Walk visits n and its descendants in pre-order, calling visit on each.
// visit returns false to skip that node's children.
func (n *Node) Walk(visit func(*Node) bool) {
	if n == nil {
		return
	}
	if !visit(n) {
		return
	}
	for _, c := range n.Children {
		c.Walk(visit)
	}
}
