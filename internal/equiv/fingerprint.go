package equiv

import (
	sitter "github.com/smacker/go-tree-sitter"

	"stackshift/internal/lang"
)

// Fingerprint is a coarse structural summary of one syntax tree:
// control-flow construct counts, outgoing call names, and markup element
// count.
type Fingerprint struct {
	Functions    int
	Conditionals int
	Loops        int
	Returns      int
	Calls        []string
	Elements     int
}

// FingerprintTree walks the tree once and counts the constructs the
// checker compares.
func FingerprintTree(root *sitter.Node, src []byte) Fingerprint {
	var fp Fingerprint
	lang.Walk(root, func(n *sitter.Node) bool {
		switch n.Type() {
		case "function_declaration", "function_expression", "function",
			"arrow_function", "method_definition",
			"generator_function", "generator_function_declaration":
			fp.Functions++
		case "if_statement", "ternary_expression", "switch_statement":
			fp.Conditionals++
		case "for_statement", "while_statement", "do_statement", "for_in_statement":
			fp.Loops++
		case "return_statement":
			fp.Returns++
		case "call_expression":
			if callee := n.ChildByFieldName("function"); callee != nil {
				fp.Calls = append(fp.Calls, callee.Content(src))
			}
		case "jsx_element", "jsx_self_closing_element", "jsx_fragment":
			fp.Elements++
		}
		return true
	})
	return fp
}
