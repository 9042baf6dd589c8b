// Package navigator implements the Code Navigator of spec.md §4.H:
// resolve a (file, line, column) into a "follow definition" target,
// short-circuiting on #include directives and falling back to the Symbol
// Database's per-kind buckets when the native parser has no cursor
// definition to offer.
package navigator

import (
	"github.com/opencodeintel/tucore/internal/liveunits"
	"github.com/opencodeintel/tucore/internal/nativeparser"
	"github.com/opencodeintel/tucore/internal/symboldb"
	"github.com/opencodeintel/tucore/internal/tu"
	"github.com/opencodeintel/tucore/internal/types"
)

// Navigator is spec.md §4.H's "CodeNavigator(file, indexer)" collaborator,
// generalized to the explicit C/D handles it actually needs rather than a
// whole Indexer, so it can be constructed and tested independently of
// component E.
type Navigator struct {
	index *nativeparser.Index
	live  *liveunits.Manager
	db    *symboldb.DB
}

// New constructs a Navigator backed by idx (for background parses of
// untracked files), live (component C), and db (component D).
func New(idx *nativeparser.Index, live *liveunits.Manager, db *symboldb.DB) *Navigator {
	return &Navigator{index: idx, live: live, db: db}
}

// Follow implements spec.md §4.H's four-step resolution.
func (n *Navigator) Follow(file string, line, col int) types.SourceLocation {
	unit := n.live.RequestTracking(file, func() tu.TranslationUnit { return tu.New(n.index) })
	if !unit.IsLoaded() {
		// step 1: "creating one via a background parse if absent;
		// subscribers receive it on completion." Parse synchronously
		// here — the caller is already blocked on an answer, so there
		// is no benefit to deferring to a subscriber callback for this
		// path; UpdateUnit still fires so any other subscriber sees it.
		if err := unit.Parse(); err == nil {
			n.live.UpdateUnit(file, unit)
		}
	}

	native := unit.Handle()
	if native == nil {
		return types.SourceLocation{}
	}

	cursor := nativeparser.CursorAt(native, line, col)
	if cursor.IsNull() {
		return types.SourceLocation{}
	}

	if cursor.Kind() == nativeparser.KindInclusionDirective {
		if loc, ok := resolveInclusion(native, cursor); ok {
			return loc
		}
		return types.SourceLocation{}
	}

	if def := cursor.Definition(); !def.IsNull() {
		return def.Location()
	}

	return n.fallbackToDatabase(cursor)
}

// resolveInclusion implements spec.md §4.H step 2: re-walks the TU's
// inclusions (the native parser has no direct "resolve this one cursor"
// call) and matches the one whose directive starts at the same byte
// offset as cursor, returning a location pointing at the included file.
func resolveInclusion(native *nativeparser.TU, cursor nativeparser.Cursor) (types.SourceLocation, bool) {
	start, _ := cursor.Extent()
	var found types.SourceLocation
	var ok bool
	nativeparser.GetInclusions(native, func(inc nativeparser.Inclusion) {
		if ok || inc.Location.Offset != start {
			return
		}
		ok = true
		found = types.SourceLocation{FileName: inc.IncludedFile, Line: 1, Column: 1}
	})
	return found, ok
}

// fallbackToDatabase implements spec.md §4.H step 4: select D's bucket by
// cursor kind and linearly match on spelling, returning the first hit's
// location or a null location.
func (n *Navigator) fallbackToDatabase(cursor nativeparser.Cursor) types.SourceLocation {
	name := cursor.Spelling()
	if name == "" {
		return types.SourceLocation{}
	}

	var candidates []types.Symbol
	switch {
	case cursor.Kind().IsRecordLike(), cursor.Kind() == nativeparser.KindTypeRef:
		candidates = n.db.SymbolsOfKind(types.KindClass)
	case cursor.Kind() == nativeparser.KindConstructor:
		candidates = n.db.SymbolsOfKind(types.KindConstructor)
	case cursor.Kind() == nativeparser.KindDestructor:
		candidates = n.db.SymbolsOfKind(types.KindDestructor)
	case isCallableKind(cursor.Kind()), cursor.Kind() == nativeparser.KindDeclRefExpr,
		cursor.Kind() == nativeparser.KindMemberRefExpr, cursor.Kind() == nativeparser.KindCallExpr:
		// DeclRefExpr/MemberRefExpr/CallExpr are bare references the
		// grammar gives no further hint about; the only db buckets a
		// reference of this shape could resolve to are free functions
		// and methods, so both are searched.
		candidates = append(n.db.SymbolsOfKind(types.KindFunction), n.db.SymbolsOfKind(types.KindMethod)...)
	default:
		return types.SourceLocation{}
	}

	for _, sym := range candidates {
		if sym.Name == name {
			return sym.Location
		}
	}
	return types.SourceLocation{}
}

func isCallableKind(kind nativeparser.CursorKind) bool {
	switch kind {
	case nativeparser.KindFunctionDecl, nativeparser.KindCXXMethod, nativeparser.KindFunctionTemplate:
		return true
	default:
		return false
	}
}
