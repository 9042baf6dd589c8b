package nativeparser

import (
	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/opencodeintel/tucore/internal/types"
)

// NativeDiagnostic is the native-layer diagnostic iteration result spec.md
// §4.A lists ("diagnostic iteration"). It carries no child notes — unlike
// libclang, tree-sitter's error recovery does not produce a parent/child
// diagnostic tree, so every diagnostic here is already a leaf; component
// G's child-note folding (spec.md §4.G) degrades to a no-op fold over an
// empty ChildNotes slice, which is the documented consequence of this
// backend rather than a missing feature.
type NativeDiagnostic struct {
	Severity   types.Severity
	Location   types.SourceLocation
	Length     int
	Spelling   string
	ChildNotes []string
}

// Diagnostics implements spec.md §4.A's native diagnostic iteration: it
// walks the tree for ERROR and MISSING nodes, tree-sitter's own signal for
// "the grammar could not make sense of this span," and reports one
// diagnostic per such node.
func (tu *TU) Diagnostics() []NativeDiagnostic {
	if tu == nil || tu.tree == nil {
		return nil
	}
	var out []NativeDiagnostic
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if n == nil {
			return
		}
		if n.IsMissing() {
			out = append(out, diagnosticFor(tu, n, "missing "+n.Kind()))
		} else if n.IsError() {
			out = append(out, diagnosticFor(tu, n, "syntax error"))
		}
		for i := uint(0); i < n.ChildCount(); i++ {
			walk(n.Child(i))
		}
	}
	walk(tu.tree.RootNode())
	return out
}

func diagnosticFor(tu *TU, n *sitter.Node, spelling string) NativeDiagnostic {
	pos := n.StartPosition()
	return NativeDiagnostic{
		Severity: types.SeverityError,
		Location: types.SourceLocation{
			FileName: tu.fileName,
			Line:     int(pos.Row) + 1,
			Column:   int(pos.Column) + 1,
			Offset:   int(n.StartByte()),
		},
		Length:   int(n.EndByte() - n.StartByte()),
		Spelling: spelling,
	}
}
