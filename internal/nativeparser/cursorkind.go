package nativeparser

// CursorKind mirrors the subset of libclang's CXCursorKind vocabulary the
// spec's components are written against (spec.md §3, §4.E, §4.G). The
// native parser binding is the only place that knows these map onto
// tree-sitter-cpp grammar node kinds instead of libclang cursor kinds —
// every other component (B-H) reasons purely in terms of CursorKind.
type CursorKind uint8

const (
	KindUnexposed CursorKind = iota
	KindTranslationUnit
	KindNamespace
	KindLinkageSpec
	KindUnexposedStmt
	KindClassDecl
	KindStructDecl
	KindUnionDecl
	KindClassTemplate
	KindClassTemplatePartialSpecialization
	KindEnumDecl
	KindEnumConstantDecl
	KindFunctionDecl
	KindCXXMethod
	KindFunctionTemplate
	KindConstructor
	KindDestructor
	KindFieldDecl
	KindVarDecl
	KindParmDecl
	KindTypedefDecl
	KindTypeRef
	KindTemplateRef
	KindDeclRefExpr
	KindMemberRefExpr
	KindCallExpr
	KindLabelStmt
	KindLabelRef
	KindMacroDefinition
	KindMacroExpansion
	KindInclusionDirective
	KindObjCIvarDecl
	KindObjCPropertyDecl
	KindObjCMessageExpr
	KindObjCInterfaceDecl
	KindOverrideSpecifier
	KindFinalSpecifier
	KindObjCSelf
)

// IsRecordLike reports whether the kind is one of the class/struct/union
// family spec.md §4.E maps to Symbol kind Class.
func (k CursorKind) IsRecordLike() bool {
	switch k {
	case KindClassDecl, KindStructDecl, KindUnionDecl,
		KindClassTemplate, KindClassTemplatePartialSpecialization:
		return true
	}
	return false
}

// IsScopeProducing reports whether a cursor of this kind appends
// "::"+spelling to its parent's qualification during AST visitation
// (spec.md §4.E "AST visitation").
func (k CursorKind) IsScopeProducing() bool {
	return k.IsRecordLike() || k == KindNamespace
}

// IsDescendable reports whether the indexer's visitor descends into a
// cursor's children when it did not itself produce a symbol (spec.md
// §4.E: "Descend only into: the cursor just emitted, Namespace,
// LinkageSpec, UnexposedStmt.").
func (k CursorKind) IsDescendable() bool {
	switch k {
	case KindNamespace, KindLinkageSpec, KindUnexposedStmt:
		return true
	}
	return false
}

// IsDeclaration reports whether the kind is one this binding treats as a
// declaration site rather than a reference or expression — the kinds
// symbolKindFor recognizes during AST visitation, plus enum constants,
// parameters and the ObjC ivar/property/interface kinds. TypeRef, DeclRefExpr,
// MemberRefExpr, CallExpr, TemplateRef and LabelRef all carry non-empty
// Spelling() too (their text is the referenced name), but they name
// something declared elsewhere rather than being that declaration.
func (k CursorKind) IsDeclaration() bool {
	if k.IsRecordLike() {
		return true
	}
	switch k {
	case KindEnumDecl, KindEnumConstantDecl,
		KindFunctionDecl, KindCXXMethod, KindFunctionTemplate,
		KindConstructor, KindDestructor,
		KindFieldDecl, KindVarDecl, KindParmDecl, KindTypedefDecl,
		KindObjCIvarDecl, KindObjCPropertyDecl, KindObjCInterfaceDecl:
		return true
	}
	return false
}
