package lang

import (
	"context"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
)

// Parse builds a syntax tree for src using the profile's grammar. The
// returned tree must be Closed by the caller.
func Parse(ctx context.Context, profile *Profile, src []byte) (*sitter.Tree, error) {
	if profile == nil || profile.Language == nil {
		return nil, fmt.Errorf("parse: no grammar profile")
	}
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(profile.Language)

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("failed to parse source: %w", err)
	}
	return tree, nil
}

// HasSyntaxError reports whether the tree contains any ERROR or missing
// node. tree-sitter always produces a tree, so this is the actual
// well-formedness signal.
func HasSyntaxError(tree *sitter.Tree) bool {
	return tree == nil || tree.RootNode().HasError()
}

// SyntaxErrorPosition walks the tree for the first ERROR or missing node
// and returns its 1-based line and column. Returns (1, 1) when the tree is
// broken in a way that leaves no locatable node.
func SyntaxErrorPosition(tree *sitter.Tree) (line, column int) {
	if tree == nil {
		return 1, 1
	}
	var found *sitter.Node
	Walk(tree.RootNode(), func(n *sitter.Node) bool {
		if found != nil {
			return false
		}
		if n.Type() == "ERROR" || n.IsMissing() {
			found = n
			return false
		}
		return true
	})
	if found == nil {
		return 1, 1
	}
	pt := found.StartPoint()
	return int(pt.Row) + 1, int(pt.Column) + 1
}

// CountErrorNodes counts ERROR and missing nodes in the tree. The engine
// uses this as a severity signal rather than a boolean.
func CountErrorNodes(tree *sitter.Tree) int {
	if tree == nil {
		return 0
	}
	count := 0
	Walk(tree.RootNode(), func(n *sitter.Node) bool {
		if n.Type() == "ERROR" || n.IsMissing() {
			count++
		}
		return true
	})
	return count
}

// Walk visits every node under root depth-first, anonymous tokens
// included. Returning false from fn skips the node's children.
func Walk(root *sitter.Node, fn func(n *sitter.Node) bool) {
	if root == nil {
		return
	}
	if !fn(root) {
		return
	}
	for i := 0; i < int(root.ChildCount()); i++ {
		Walk(root.Child(i), fn)
	}
}

// NodeLine returns the node's 1-based start line.
func NodeLine(n *sitter.Node) int {
	return int(n.StartPoint().Row) + 1
}

// NodeColumn returns the node's 1-based start column.
func NodeColumn(n *sitter.Node) int {
	return int(n.StartPoint().Column) + 1
}
