package nativeparser

import (
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// classifyNode maps a tree-sitter-cpp grammar node onto the CursorKind
// vocabulary spec.md's components reason in. parentKind/inRecordBody give
// the contextual information libclang's own cursor kind already encodes
// (e.g. a CXXMethod is only a method because its semantic parent is a
// record) but the grammar leaves purely structural.
func classifyNode(n *sitter.Node, inRecordBody bool, source []byte) CursorKind {
	switch n.Kind() {
	case "translation_unit":
		return KindTranslationUnit
	case "namespace_definition":
		return KindNamespace
	case "linkage_specification":
		return KindLinkageSpec
	case "compound_statement", "declaration_list", "field_declaration_list":
		return KindUnexposedStmt
	case "class_specifier":
		return classifyTemplated(n, KindClassDecl)
	case "struct_specifier":
		return classifyTemplated(n, KindStructDecl)
	case "union_specifier":
		return KindUnionDecl
	case "enum_specifier":
		return KindEnumDecl
	case "enumerator":
		return KindEnumConstantDecl
	case "function_definition":
		return classifyFunctionLike(n, inRecordBody, source)
	case "field_declaration":
		if declaratorKind(n) == "function_declarator" {
			return KindCXXMethod
		}
		return KindFieldDecl
	case "declaration":
		if declaratorKind(n) == "function_declarator" {
			return KindFunctionDecl
		}
		return KindVarDecl
	case "parameter_declaration", "optional_parameter_declaration":
		return KindParmDecl
	case "type_definition":
		return KindTypedefDecl
	case "type_identifier":
		return KindTypeRef
	case "identifier", "field_identifier", "namespace_identifier", "qualified_identifier":
		return KindDeclRefExpr
	case "destructor_name":
		return KindDeclRefExpr
	case "call_expression":
		return KindCallExpr
	case "field_expression":
		return KindMemberRefExpr
	case "labeled_statement":
		return KindLabelStmt
	case "goto_statement":
		return KindLabelRef
	case "preproc_include":
		return KindInclusionDirective
	case "preproc_def", "preproc_function_def":
		return KindMacroDefinition
	case "preproc_call":
		return KindMacroExpansion
	}
	return KindUnexposed
}

// classifyTemplated promotes a class/struct cursor wrapped in a
// template_declaration to the ClassTemplate kind; partial specializations
// are recognized by a trailing template-argument-list on the name.
func classifyTemplated(n *sitter.Node, base CursorKind) CursorKind {
	parent := n.Parent()
	if parent == nil || parent.Kind() != "template_declaration" {
		return base
	}
	if hasChildKind(n, "template_argument_list") {
		return KindClassTemplatePartialSpecialization
	}
	return KindClassTemplate
}

// classifyFunctionLike distinguishes FunctionDecl/CXXMethod/Constructor/
// Destructor/FunctionTemplate for a function_definition node, per spec.md
// §4.E's symbol-kind table.
func classifyFunctionLike(n *sitter.Node, inRecordBody bool, source []byte) CursorKind {
	name := declaratorNameFromNode(n, source)
	isTemplate := n.Parent() != nil && n.Parent().Kind() == "template_declaration"

	if strings.HasPrefix(name, "~") {
		return KindDestructor
	}

	// A qualified out-of-line definition like "void N::C::f()" carries a
	// qualified_identifier declarator; its "record name" is the last
	// qualifier segment, which this resolves without needing a lexically
	// enclosing class_specifier.
	recordName := enclosingOrQualifiedRecordName(n, source)
	if recordName != "" && name == recordName {
		return KindConstructor
	}

	switch {
	case isTemplate:
		return KindFunctionTemplate
	case inRecordBody || recordName != "":
		return KindCXXMethod
	default:
		return KindFunctionDecl
	}
}

// enclosingOrQualifiedRecordName resolves the class a method/constructor
// definition belongs to, whether it is defined inline (lexically nested)
// or out-of-line via a qualified declarator ("N::C::f").
func enclosingOrQualifiedRecordName(n *sitter.Node, source []byte) string {
	for p := n.Parent(); p != nil; p = p.Parent() {
		switch p.Kind() {
		case "class_specifier", "struct_specifier", "union_specifier":
			return fieldTextBytes(p, "name", source)
		}
	}
	return qualifierBeforeLastSegment(n, source)
}

// qualifierBeforeLastSegment returns the second-to-last "::"-segment of a
// function_definition's qualified_identifier declarator, i.e. for
// "N::C::f" it returns "C".
func qualifierBeforeLastSegment(n *sitter.Node, source []byte) string {
	decl := findDescendant(n, "function_declarator")
	if decl == nil {
		return ""
	}
	qid := findDescendant(decl, "qualified_identifier")
	if qid == nil {
		return ""
	}
	text := string(source[qid.StartByte():qid.EndByte()])
	segs := strings.Split(text, "::")
	if len(segs) < 2 {
		return ""
	}
	return strings.TrimSpace(segs[len(segs)-2])
}

func findDescendant(n *sitter.Node, kind string) *sitter.Node {
	if n == nil {
		return nil
	}
	if n.Kind() == kind {
		return n
	}
	for i := uint(0); i < n.ChildCount(); i++ {
		if found := findDescendant(n.Child(i), kind); found != nil {
			return found
		}
	}
	return nil
}

func declaratorKind(n *sitter.Node) string {
	if decl := findDescendant(n, "function_declarator"); decl != nil {
		return "function_declarator"
	}
	return ""
}

// declaratorName extracts the leaf identifier spelling for a declaration
// cursor: the function/variable/field name, stripped of qualifiers and
// parameter lists.
func declaratorName(n *sitter.Node, source []byte) string {
	switch n.Kind() {
	case "class_specifier", "struct_specifier", "union_specifier", "enum_specifier":
		return fieldTextBytes(n, "name", source)
	case "namespace_definition":
		return fieldTextBytes(n, "name", source)
	case "function_definition":
		return declaratorNameFromNode(n, source)
	case "field_declaration":
		if decl := findDescendant(n, "function_declarator"); decl != nil {
			return leafIdentifier(decl, source)
		}
		if decl := findDescendant(n, "field_identifier"); decl != nil {
			return string(source[decl.StartByte():decl.EndByte()])
		}
	case "declaration":
		if decl := findDescendant(n, "function_declarator"); decl != nil {
			return leafIdentifier(decl, source)
		}
		if decl := findDescendant(n, "identifier"); decl != nil {
			return string(source[decl.StartByte():decl.EndByte()])
		}
	case "enumerator":
		if id := findDescendant(n, "identifier"); id != nil {
			return string(source[id.StartByte():id.EndByte()])
		}
	}
	return ""
}

func declaratorNameFromNode(n *sitter.Node, source []byte) string {
	decl := findDescendant(n, "function_declarator")
	if decl == nil {
		return ""
	}
	return leafIdentifier(decl, source)
}

func leafIdentifier(n *sitter.Node, source []byte) string {
	if id := findDescendant(n, "destructor_name"); id != nil {
		return string(source[id.StartByte():id.EndByte()])
	}
	if id := findDescendant(n, "field_identifier"); id != nil {
		return string(source[id.StartByte():id.EndByte()])
	}
	if id := findDescendant(n, "qualified_identifier"); id != nil {
		text := string(source[id.StartByte():id.EndByte()])
		segs := strings.Split(text, "::")
		return segs[len(segs)-1]
	}
	if id := findDescendant(n, "identifier"); id != nil {
		return string(source[id.StartByte():id.EndByte()])
	}
	return ""
}

func fieldTextBytes(n *sitter.Node, field string, source []byte) string {
	fn := n.ChildByFieldName(field)
	if fn == nil {
		return ""
	}
	return string(source[fn.StartByte():fn.EndByte()])
}
