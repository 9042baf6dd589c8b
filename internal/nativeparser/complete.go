package nativeparser

import (
	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/opencodeintel/tucore/internal/types"
)

// CompletionChunkKind mirrors libclang's CXCompletionChunkKind subset that
// component F reassembles into text/hint/has_parameters.
type CompletionChunkKind uint8

const (
	ChunkText CompletionChunkKind = iota
	ChunkTypedText
	ChunkLeftParen
	ChunkRightParen
	ChunkComma
	ChunkResultType
	ChunkPlaceholder
)

type CompletionChunk struct {
	Kind CompletionChunkKind
	Text string
}

// NativeCompletionResult is one raw completion candidate, pre-aggregation.
// It carries the chunk sequence component F walks (spec.md §4.F step 1)
// plus the cursor kind and availability component F maps into
// types.CompletionKind/Availability (spec.md §4.F step 2-3).
type NativeCompletionResult struct {
	Chunks       []CompletionChunk
	CursorKind   CursorKind
	Availability NativeAvailability
	Priority     uint32
}

type NativeAvailability uint8

const (
	AvailabilityAvailable NativeAvailability = iota
	AvailabilityDeprecated
	AvailabilityNotAvailable
	AvailabilityNotAccessible
)

// CodeCompleteAt implements spec.md §4.A's "code_complete_at(tu, file,
// line, col, unsaved, flags) -> CompletionResults". libclang's real
// implementation re-parses speculatively around the cursor and asks the
// semantic analyzer for viable candidates; tree-sitter has no semantic
// analyzer, so this is a documented heuristic: it locates the innermost
// scope enclosing (line, col) (namespace/record/function) and offers the
// member/declaration names visible from there, which is sufficient for
// the member-access and local-scope completion scenarios spec.md §8's S4
// exercises without claiming full overload resolution.
func CodeCompleteAt(tu *TU, line, col int, unsaved types.UnsavedOverlay) []NativeCompletionResult {
	if tu == nil || tu.tree == nil {
		return nil
	}
	if unsaved != nil {
		if _, ok := unsaved.Get(tu.fileName); ok {
			_ = tu.Reparse(unsaved)
		}
	}

	offset := offsetForPosition(tu.source, line, col)
	target := smallestEnclosing(tu.tree.RootNode(), max0(offset-1), offset)
	if target == nil {
		return nil
	}

	if recv := memberAccessReceiver(tu, target); recv != "" {
		return completeMembers(tu, recv)
	}
	return completeScope(tu, target)
}

// CursorAt implements spec.md §4.H step 2's "compute the cursor at that
// location": the smallest AST node enclosing (line, col) that classifies
// to a recognized CursorKind, wrapped as a Cursor. Grammar leaves with no
// CursorKind of their own (a string literal's contents, a bare token
// inside a preprocessor directive) walk up to their nearest classified
// ancestor, mirroring libclang's clang_getCursor snapping a raw-token
// position to the enclosing semantic cursor rather than returning
// Unexposed for every leaf.
func CursorAt(tu *TU, line, col int) Cursor {
	if tu == nil || tu.tree == nil {
		return NullCursor
	}
	offset := offsetForPosition(tu.source, line, col)
	node := smallestEnclosing(tu.tree.RootNode(), offset, offset)
	if node == nil {
		return NullCursor
	}
	for node.Parent() != nil && classifyNode(node, false, tu.source) == KindUnexposed {
		node = node.Parent()
	}
	if recordOrEnum := recordNameOwner(node); recordOrEnum != nil {
		node = recordOrEnum
	}
	return Cursor{tu: tu, node: node}
}

// recordNameOwner reports the class/struct/union/enum_specifier node owns
// n as its "name" field, so a cursor landing on the type_identifier/
// identifier token spelling a record or enum's own name resolves to that
// declaration rather than the generic TypeRef/DeclRefExpr kind the bare
// grammar leaf would otherwise classify to (nothing in the grammar marks
// a name token as "this is a declarator, not a reference").
func recordNameOwner(n *sitter.Node) *sitter.Node {
	p := n.Parent()
	if p == nil {
		return nil
	}
	switch p.Kind() {
	case "class_specifier", "struct_specifier", "union_specifier", "enum_specifier":
		if p.ChildByFieldName("name") == n {
			return p
		}
	}
	return nil
}

func max0(n int) int {
	if n < 0 {
		return 0
	}
	return n
}

func offsetForPosition(source []byte, line, col int) int {
	row, column := 0, 0
	for i, b := range source {
		if row == line-1 && column == col-1 {
			return i
		}
		if b == '\n' {
			row++
			column = 0
		} else {
			column++
		}
	}
	return len(source)
}

// memberAccessReceiver detects the "x." / "x->" trigger immediately before
// target and returns the declared record-type spelling of x, or "" if this
// is not a member-access completion.
func memberAccessReceiver(tu *TU, target *sitter.Node) string {
	field := target
	for field != nil && field.Kind() != "field_expression" {
		field = field.Parent()
	}
	if field == nil {
		return ""
	}
	arg := field.ChildByFieldName("argument")
	if arg == nil {
		return ""
	}
	return tu.textOf(arg)
}

// completeMembers offers the field/method names declared on the record
// whose instance name is recv, found via a flat scan for a matching
// variable declarator's type, then that type's member list.
func completeMembers(tu *TU, recv string) []NativeCompletionResult {
	recordName := declaredTypeOf(tu, recv)
	if recordName == "" {
		return nil
	}
	record := findNamedRecord(tu.tree.RootNode(), recordName, tu.source)
	if record == nil {
		return nil
	}
	var results []NativeCompletionResult
	for _, child := range (Cursor{tu: tu, node: record}).Children() {
		switch child.Kind() {
		case KindFieldDecl:
			results = append(results, fieldResult(child))
		case KindCXXMethod:
			results = append(results, callableResult(child, KindCXXMethod))
		}
	}
	return results
}

// fieldResult builds a plain, non-callable completion candidate for a
// data member — no parens, since fields are never invoked.
func fieldResult(c Cursor) NativeCompletionResult {
	return NativeCompletionResult{
		Chunks:       []CompletionChunk{{Kind: ChunkTypedText, Text: c.Spelling()}},
		CursorKind:   KindFieldDecl,
		Availability: AvailabilityAvailable,
		Priority:     50,
	}
}

// callableResult builds a completion candidate for a function/method
// cursor, always emitting the enclosing parens but only emitting a
// Placeholder chunk between them when the declarator's parameter list is
// non-empty (spec.md §4.F: "LeftParen with nothing between it and a
// following RightParen -> has_parameters=false").
func callableResult(c Cursor, kind CursorKind) NativeCompletionResult {
	chunks := []CompletionChunk{
		{Kind: ChunkTypedText, Text: c.Spelling()},
		{Kind: ChunkLeftParen, Text: "("},
	}
	if c.node != nil && hasDeclaredParameters(c.node) {
		chunks = append(chunks, CompletionChunk{Kind: ChunkPlaceholder, Text: "..."})
	}
	chunks = append(chunks, CompletionChunk{Kind: ChunkRightParen, Text: ")"})

	return NativeCompletionResult{
		Chunks:       chunks,
		CursorKind:   kind,
		Availability: AvailabilityAvailable,
		Priority:     50,
	}
}

// hasDeclaredParameters reports whether n (a function_definition,
// field_declaration, or declaration wrapping a function_declarator)
// declares at least one parameter.
func hasDeclaredParameters(n *sitter.Node) bool {
	decl := findDescendant(n, "function_declarator")
	if decl == nil {
		return false
	}
	params := decl.ChildByFieldName("parameters")
	if params == nil {
		params = findDescendant(decl, "parameter_list")
	}
	if params == nil {
		return false
	}
	for i := uint(0); i < params.ChildCount(); i++ {
		child := params.Child(i)
		if child == nil {
			continue
		}
		switch child.Kind() {
		case "parameter_declaration", "optional_parameter_declaration", "variadic_parameter":
			return true
		}
	}
	return false
}

func declaredTypeOf(tu *TU, name string) string {
	var found string
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if n == nil || found != "" {
			return
		}
		if n.Kind() == "declaration" {
			if id := findDescendant(n, "identifier"); id != nil && tu.textOf(id) == name {
				if typeNode := n.ChildByFieldName("type"); typeNode != nil {
					found = tu.textOf(typeNode)
					return
				}
			}
		}
		for i := uint(0); i < n.ChildCount(); i++ {
			walk(n.Child(i))
		}
	}
	walk(tu.tree.RootNode())
	return found
}

func findNamedRecord(n *sitter.Node, name string, source []byte) *sitter.Node {
	if n == nil {
		return nil
	}
	switch n.Kind() {
	case "class_specifier", "struct_specifier":
		if fieldTextBytes(n, "name", source) == name {
			return n
		}
	}
	for i := uint(0); i < n.ChildCount(); i++ {
		if found := findNamedRecord(n.Child(i), name, source); found != nil {
			return found
		}
	}
	return nil
}

// completeScope offers the names visible in the innermost enclosing
// function/record/namespace of target: local variables and parameters in
// a function body, members in a record, top-level declarations otherwise.
func completeScope(tu *TU, target *sitter.Node) []NativeCompletionResult {
	scope := target
	for scope != nil {
		switch scope.Kind() {
		case "compound_statement", "class_specifier", "struct_specifier", "translation_unit":
			return completeDeclarationsIn(tu, scope)
		}
		scope = scope.Parent()
	}
	return nil
}

func completeDeclarationsIn(tu *TU, scope *sitter.Node) []NativeCompletionResult {
	var results []NativeCompletionResult
	for i := uint(0); i < scope.ChildCount(); i++ {
		c := Cursor{tu: tu, node: scope.Child(i)}
		switch c.Kind() {
		case KindVarDecl, KindParmDecl:
			if name := c.Spelling(); name != "" {
				results = append(results, simpleResult(name, KindVarDecl))
			}
		case KindFunctionDecl, KindCXXMethod:
			if name := c.Spelling(); name != "" {
				results = append(results, callableResult(c, c.Kind()))
			}
		}
	}
	return results
}

func simpleResult(name string, kind CursorKind) NativeCompletionResult {
	return NativeCompletionResult{
		Chunks:       []CompletionChunk{{Kind: ChunkTypedText, Text: name}},
		CursorKind:   kind,
		Availability: AvailabilityAvailable,
		Priority:     60,
	}
}
