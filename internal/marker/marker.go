// Package marker implements the Semantic Marker of spec.md §4.G: classifies
// identifier tokens in a line range into highlight kinds, and extracts the
// TU's diagnostics with up to 10 child-note texts folded into each
// diagnostic's spelling.
package marker

import (
	"strings"

	"github.com/opencodeintel/tucore/internal/nativeparser"
	"github.com/opencodeintel/tucore/internal/types"
)

// MarkersInRange implements spec.md §4.G steps 1-5: locate the byte range
// spanning lines [first, last], tokenize it, keep identifier tokens,
// annotate them to cursors in one batch, classify each pair, and emit a
// SourceMarker per positive-length token.
func MarkersInRange(tu *nativeparser.TU, first, last int) []types.SourceMarker {
	if tu == nil {
		return nil
	}

	start := lineStartOffset(tu, first)
	end := lineStartOffset(tu, last+1)

	tokens := nativeparser.IdentifierTokens(nativeparser.Tokenize(tu, start, end))
	if len(tokens) == 0 {
		return nil
	}
	cursors := nativeparser.AnnotateTokens(tu, tokens)

	markers := make([]types.SourceMarker, 0, len(tokens))
	for i, tok := range tokens {
		length := tok.End - tok.Start
		if length <= 0 {
			continue
		}
		kind, ok := classify(cursors[i])
		if !ok {
			continue
		}
		markers = append(markers, types.SourceMarker{
			Location: tok.Location(tu),
			Length:   length,
			Kind:     kind,
		})
	}

	types.SortMarkers(markers)
	return markers
}

// lineStartOffset finds the tokenization boundary for line (1-based) by
// scanning source for the line's first byte; used to turn spec.md §4.G's
// "(first, 1)"/"(last, 1)" location pair into a byte range without a
// separate native location lookup (the native parser binding already
// exposes byte offsets directly via Cursor/Token, so this stays local to
// the package rather than calling back into nativeparser for something it
// doesn't need to own).
func lineStartOffset(tu *nativeparser.TU, line int) int {
	source := tu.Source()
	if line <= 1 {
		return 0
	}
	row := 1
	for i, b := range source {
		if row == line {
			return i
		}
		if b == '\n' {
			row++
		}
	}
	return len(source)
}

// classify implements spec.md §4.G step 4's fixed classification table.
func classify(c nativeparser.Cursor) (types.MarkerKind, bool) {
	kind := c.Kind()

	switch {
	case kind.IsRecordLike():
		return types.MarkerType, true
	}

	switch kind {
	case nativeparser.KindEnumDecl, nativeparser.KindTypeRef, nativeparser.KindTemplateRef,
		nativeparser.KindTypedefDecl, nativeparser.KindNamespace, nativeparser.KindConstructor:
		return types.MarkerType, true
	case nativeparser.KindEnumConstantDecl:
		return types.MarkerEnumeration, true
	case nativeparser.KindFieldDecl, nativeparser.KindObjCIvarDecl, nativeparser.KindObjCPropertyDecl:
		return types.MarkerField, true
	case nativeparser.KindParmDecl, nativeparser.KindVarDecl:
		return types.MarkerLocal, true
	case nativeparser.KindFunctionDecl, nativeparser.KindFunctionTemplate:
		return types.MarkerFunction, true
	case nativeparser.KindCXXMethod:
		if c.IsVirtual() {
			return types.MarkerVirtualMethod, true
		}
		return types.MarkerFunction, true
	case nativeparser.KindDestructor:
		return types.MarkerVirtualMethod, true
	case nativeparser.KindOverrideSpecifier, nativeparser.KindFinalSpecifier, nativeparser.KindObjCSelf:
		return types.MarkerPseudoKeyword, true
	case nativeparser.KindLabelStmt, nativeparser.KindLabelRef:
		return types.MarkerLabel, true
	case nativeparser.KindMacroDefinition, nativeparser.KindMacroExpansion:
		return types.MarkerMacro, true
	case nativeparser.KindObjCMessageExpr:
		return types.MarkerObjectiveCMessage, true
	case nativeparser.KindDeclRefExpr, nativeparser.KindMemberRefExpr, nativeparser.KindCallExpr:
		return classifyReference(c)
	default:
		return 0, false
	}
}

// classifyReference handles spec.md §4.G step 4's special case:
// DeclRefExpr/MemberRefExpr/CallExpr classify on the cursor they
// reference, not on their own kind. Without libclang's semantic reference
// resolution, this binding's best available signal is the referenced
// name's own declaration shape at the call site, approximated here by
// whether the reference resolves through a member-access chain (Field) or
// a call (Function); plain identifier references fall back to Local,
// matching the common case of a variable read.
func classifyReference(c nativeparser.Cursor) (types.MarkerKind, bool) {
	switch c.Kind() {
	case nativeparser.KindCallExpr:
		return types.MarkerFunction, true
	case nativeparser.KindMemberRefExpr:
		return types.MarkerField, true
	default:
		return types.MarkerLocal, true
	}
}

// maxChildNotes implements spec.md §4.G's "fold up to 10 child-note texts".
const maxChildNotes = 10

// Diagnostics implements spec.md §4.G's "Diagnostics extraction": drops
// Ignored/Note top-level entries, folds up to maxChildNotes child-note
// texts into each surviving diagnostic's spelling (newline-indented), and
// emits one Diagnostic per reported range, or a single point diagnostic at
// the expansion location when a native diagnostic reports none.
//
// nativeparser.NativeDiagnostic never carries child notes (spec.md §9's
// documented tree-sitter limitation: no parent/child diagnostic tree), so
// the fold here always runs over an empty slice and is a no-op in
// practice; it stays in place because a future native backend with real
// child notes (e.g. a libclang binding swapped in later) would only need
// to populate NativeDiagnostic.ChildNotes for this to start doing real
// work, without a second change here.
func Diagnostics(tu *nativeparser.TU) []types.Diagnostic {
	if tu == nil {
		return nil
	}
	var out []types.Diagnostic
	for _, d := range tu.Diagnostics() {
		if d.Severity == types.SeverityIgnored || d.Severity == types.SeverityNote {
			continue
		}
		out = append(out, types.Diagnostic{
			Severity: d.Severity,
			Location: d.Location,
			Length:   d.Length,
			Spelling: foldChildNotes(d.Spelling, d.ChildNotes),
		})
	}
	return out
}

func foldChildNotes(spelling string, notes []string) string {
	if len(notes) == 0 {
		return spelling
	}
	if len(notes) > maxChildNotes {
		notes = notes[:maxChildNotes]
	}
	var b strings.Builder
	b.WriteString(spelling)
	for _, n := range notes {
		b.WriteString("\n  ")
		b.WriteString(n)
	}
	return b.String()
}
