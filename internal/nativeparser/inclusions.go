package nativeparser

import (
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/opencodeintel/tucore/internal/types"
)

// Inclusion is one #include directive discovered during GetInclusions:
// the (possibly unresolved) included spelling and the location of the
// directive itself.
type Inclusion struct {
	IncludedFile string
	IsSystem     bool
	Location     types.SourceLocation
}

// InclusionVisitor mirrors libclang's CXInclusionVisitor.
type InclusionVisitor func(Inclusion)

// GetInclusions implements spec.md §4.A's "get_inclusions(tu, visitor)": a
// single depth-first walk of the TU's tree reporting every preproc_include
// node, in source order. tree-sitter parses only the literal text of a
// translation unit (it does not itself follow #include into the target
// file's tree, unlike libclang's full preprocessor), so this reports the
// *directives* this TU's own source contains; component E is responsible
// for following IncludedFile into other TUs' inclusion walks to build the
// project-wide dependency picture spec.md §4.E describes.
func GetInclusions(tu *TU, visit InclusionVisitor) {
	if tu == nil || tu.tree == nil || visit == nil {
		return
	}
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if n == nil {
			return
		}
		if n.Kind() == "preproc_include" {
			if inc, ok := parseInclude(n, tu); ok {
				visit(inc)
			}
		}
		for i := uint(0); i < n.ChildCount(); i++ {
			walk(n.Child(i))
		}
	}
	walk(tu.tree.RootNode())
}

func parseInclude(n *sitter.Node, tu *TU) (Inclusion, bool) {
	pathNode := findDescendant(n, "string_literal")
	isSystem := false
	if pathNode == nil {
		pathNode = findDescendant(n, "system_lib_string")
		isSystem = true
	}
	if pathNode == nil {
		return Inclusion{}, false
	}
	raw := tu.textOf(pathNode)
	raw = strings.Trim(raw, "\"<>")
	pos := n.StartPosition()
	return Inclusion{
		IncludedFile: raw,
		IsSystem:     isSystem,
		Location: types.SourceLocation{
			FileName: tu.fileName,
			Line:     int(pos.Row) + 1,
			Column:   int(pos.Column) + 1,
			Offset:   int(n.StartByte()),
		},
	}, true
}
