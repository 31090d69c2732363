package lang

import (
	"sort"

	sitter "github.com/smacker/go-tree-sitter"
)

// Edit replaces the byte range [Start, End) of a source buffer with
// Replacement. Edits are produced against one parse and applied in a
// single pass; the result is re-parsed rather than patched incrementally.
type Edit struct {
	Start       uint32
	End         uint32
	Replacement string
}

// EditNode builds an edit covering the node's span.
func EditNode(n *sitter.Node, replacement string) Edit {
	return Edit{Start: n.StartByte(), End: n.EndByte(), Replacement: replacement}
}

// DeleteNode builds an edit that removes the node's span.
func DeleteNode(n *sitter.Node) Edit {
	return Edit{Start: n.StartByte(), End: n.EndByte()}
}

// ApplyEdits rewrites src with the given edits. Edits are accepted in the
// order provided; an edit overlapping an already accepted span is dropped,
// so earlier producers keep priority. Accepted edits are applied from the
// end of the buffer backwards so offsets stay valid.
func ApplyEdits(src []byte, edits []Edit) []byte {
	if len(edits) == 0 {
		return src
	}

	accepted := make([]Edit, 0, len(edits))
	for _, e := range edits {
		if e.Start > e.End || int(e.End) > len(src) {
			continue
		}
		if overlapsAny(accepted, e) {
			continue
		}
		accepted = append(accepted, e)
	}
	if len(accepted) == 0 {
		return src
	}

	sort.Slice(accepted, func(i, j int) bool {
		return accepted[i].Start > accepted[j].Start
	})

	out := make([]byte, len(src))
	copy(out, src)
	for _, e := range accepted {
		patched := make([]byte, 0, len(out)-int(e.End-e.Start)+len(e.Replacement))
		patched = append(patched, out[:e.Start]...)
		patched = append(patched, e.Replacement...)
		patched = append(patched, out[e.End:]...)
		out = patched
	}
	return out
}

func overlapsAny(accepted []Edit, e Edit) bool {
	for _, a := range accepted {
		if spansConflict(a, e) {
			return true
		}
	}
	return false
}

func spansConflict(a, b Edit) bool {
	// A pure insertion conflicts with any edit whose span starts at or
	// covers its offset, since both would rewrite the same boundary.
	if a.Start == a.End {
		return b.Start <= a.Start && a.Start < b.End || (b.Start == b.End && a.Start == b.Start)
	}
	if b.Start == b.End {
		return a.Start <= b.Start && b.Start < a.End
	}
	return a.Start < b.End && b.Start < a.End
}
