package nativeparser

import (
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/opencodeintel/tucore/internal/types"
)

// Cursor is a type-safe wrapper over a tree-sitter node plus the TU it came
// from, playing the role of libclang's CXCursor in spec.md §4.A/§4.E/§4.G.
// No raw *sitter.Node escapes this package (spec.md §9 "Opaque native
// pointers").
type Cursor struct {
	tu   *TU
	node *sitter.Node
}

// NullCursor is the zero-value "no such cursor" result.
var NullCursor = Cursor{}

func (c Cursor) IsNull() bool { return c.node == nil }

// Kind classifies the cursor via the grammar-to-CursorKind table in
// nodekind.go.
func (c Cursor) Kind() CursorKind {
	if c.node == nil {
		return KindUnexposed
	}
	return classifyNode(c.node, c.inRecordBody(), c.tu.source)
}

// Spelling is the cursor's source text (the declared name for a
// declaration cursor, the referenced name for a reference cursor).
func (c Cursor) Spelling() string {
	if c.node == nil {
		return ""
	}
	if name := declaratorName(c.node, c.tu.source); name != "" {
		return name
	}
	return c.tu.textOf(c.node)
}

// Location is the cursor's expansion location (spec.md's "instantiation
// location"); tree-sitter has no macro-expansion map distinct from the
// literal token position, so expansion/spelling/instantiation collapse to
// the same source position here, which is the documented simplification
// for this grammar.
func (c Cursor) Location() types.SourceLocation {
	if c.node == nil {
		return types.SourceLocation{}
	}
	p := c.node.StartPosition()
	return types.SourceLocation{
		FileName: c.tu.fileName,
		Line:     int(p.Row) + 1,
		Column:   int(p.Column) + 1,
		Offset:   int(c.node.StartByte()),
	}
}

// Extent returns the half-open byte range [start, end) the cursor spans.
func (c Cursor) Extent() (start, end int) {
	if c.node == nil {
		return 0, 0
	}
	return int(c.node.StartByte()), int(c.node.EndByte())
}

// Length is Extent()'s width, used by SourceMarker.Length.
func (c Cursor) Length() int {
	s, e := c.Extent()
	return e - s
}

// IsDefinition reports whether this cursor's own definition cursor equals
// itself — spec.md §4.E's "a cursor produces a Symbol iff ... its
// definition cursor equals itself." Tree-sitter parses one translation
// unit out of its own textual declarations and out-of-line definitions
// under different nodes are not merged back to a single decl, so every
// declaration-shaped node we classify as symbol-worthy is, by
// construction, its own definition. Reference/expression kinds (TypeRef,
// DeclRefExpr, CallExpr, ...) are excluded even though their Spelling()
// is also non-empty — that text names the thing referenced, not this
// cursor's own declaration.
func (c Cursor) IsDefinition() bool {
	return !c.IsNull() && c.Kind().IsDeclaration() && c.Spelling() != ""
}

// Definition implements spec.md §4.H step 3's "compute the cursor's
// definition": since IsDefinition documents that every symbol-worthy
// cursor this binding produces is already its own definition, this
// returns c unchanged when IsDefinition holds, or NullCursor otherwise.
func (c Cursor) Definition() Cursor {
	if c.IsDefinition() {
		return c
	}
	return NullCursor
}

// Children returns the direct children as Cursors, in source order.
func (c Cursor) Children() []Cursor {
	if c.node == nil {
		return nil
	}
	n := c.node.ChildCount()
	out := make([]Cursor, 0, n)
	for i := uint(0); i < n; i++ {
		child := c.node.Child(i)
		if child == nil {
			continue
		}
		out = append(out, Cursor{tu: c.tu, node: child})
	}
	return out
}

// inRecordBody reports whether this node is lexically inside a
// class/struct/union body, which disambiguates a bare "function_definition"
// cursor into CXXMethod/Constructor/Destructor instead of FunctionDecl.
func (c Cursor) inRecordBody() bool {
	for p := c.node.Parent(); p != nil; p = p.Parent() {
		switch p.Kind() {
		case "class_specifier", "struct_specifier", "union_specifier":
			return true
		case "function_definition", "namespace_definition":
			return false
		}
	}
	return false
}

// enclosingRecordName returns the name of the nearest enclosing
// class/struct/union, used to recognize constructors/destructors (whose
// declarator name matches, or matches with a leading '~').
func (c Cursor) enclosingRecordName() string {
	for p := c.node.Parent(); p != nil; p = p.Parent() {
		switch p.Kind() {
		case "class_specifier", "struct_specifier", "union_specifier":
			return fieldTextBytes(p, "name", c.tu.source)
		}
	}
	return ""
}

// IsVirtual reports whether a CXXMethod/Destructor cursor's declaration
// carries the "virtual" specifier.
func (c Cursor) IsVirtual() bool {
	if c.node == nil {
		return false
	}
	text := c.tu.textOf(c.node)
	return strings.Contains(strings.Fields(text)[0], "virtual") || hasChildKind(c.node, "virtual")
}

// HasOverrideOrFinal reports whether the declaration carries an
// "override" or "final" virt-specifier, mapped to MarkerPseudoKeyword.
func (c Cursor) HasOverrideOrFinal() bool {
	if c.node == nil {
		return false
	}
	text := c.tu.textOf(c.node)
	return strings.Contains(text, "override") || strings.Contains(text, "final")
}

func hasChildKind(n *sitter.Node, kind string) bool {
	for i := uint(0); i < n.ChildCount(); i++ {
		ch := n.Child(i)
		if ch != nil && ch.Kind() == kind {
			return true
		}
	}
	return false
}
