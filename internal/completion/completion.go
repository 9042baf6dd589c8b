// Package completion implements the Completion Engine of spec.md §4.F: it
// turns the native parser's raw chunk sequences into the ranked,
// IDE-facing types.CodeCompletionResult list, and separately assembles a
// short function-call hint string for the active-parameter case.
package completion

import (
	"strings"

	"github.com/opencodeintel/tucore/internal/nativeparser"
	"github.com/opencodeintel/tucore/internal/types"
)

// Complete implements spec.md §4.F step 1-3: calls into the native parser
// at (line, col), reassembles each raw result's chunk sequence into
// display text plus an optional hint, maps CursorKind/NativeAvailability
// into the IDE-facing vocabulary, and returns the list sorted per
// types.CodeCompletionResult.Less (spec.md §4.F: "stable, deterministic
// order for equal-priority candidates").
func Complete(tu *nativeparser.TU, line, col int, unsaved types.UnsavedOverlay) []types.CodeCompletionResult {
	native := nativeparser.CodeCompleteAt(tu, line, col, unsaved)

	results := make([]types.CodeCompletionResult, 0, len(native))
	for _, n := range native {
		r := assemble(n)
		if !r.Valid() {
			continue
		}
		results = append(results, r)
	}

	types.SortCompletions(results)
	return results
}

// assemble implements spec.md §4.F step 1: "text is the typed-text (the
// completion token); hint is the full chunk sequence rendered as a
// function signature, with a single space inserted between adjacent
// chunks when the prior hint text ends with an alphanumeric character;
// has_parameters is true iff a Placeholder chunk is present." The result
// type is part of the signature shown in hint, not of text.
func assemble(n nativeparser.NativeCompletionResult) types.CodeCompletionResult {
	var text strings.Builder
	var hint strings.Builder
	hasParams := false

	for _, chunk := range n.Chunks {
		switch chunk.Kind {
		case nativeparser.ChunkTypedText:
			text.WriteString(chunk.Text)
		case nativeparser.ChunkPlaceholder:
			hasParams = true
		}
		appendWithSpacing(&hint, chunk.Text)
	}

	return types.CodeCompletionResult{
		Priority:      n.Priority,
		Kind:          completionKindFor(n.CursorKind),
		Availability:  availabilityFor(n.Availability),
		Text:          text.String(),
		Hint:          hint.String(),
		HasParameters: hasParams,
	}
}

// appendWithSpacing appends s to b, inserting a single space first when b
// already ends with an alphanumeric/underscore character — otherwise
// adjacent chunks like a ResultType and a following TypedText would run
// together with no separator.
func appendWithSpacing(b *strings.Builder, s string) {
	if s == "" {
		return
	}
	if prior := b.String(); prior != "" && isIdentByte(prior[len(prior)-1]) {
		b.WriteByte(' ')
	}
	b.WriteString(s)
}

// completionKindFor implements spec.md §4.F step 2's CursorKind mapping.
func completionKindFor(kind nativeparser.CursorKind) types.CompletionKind {
	switch {
	case kind.IsRecordLike():
		return types.CompletionClass
	}
	switch kind {
	case nativeparser.KindFunctionDecl, nativeparser.KindFunctionTemplate:
		return types.CompletionFunction
	case nativeparser.KindCXXMethod:
		return types.CompletionFunction
	case nativeparser.KindConstructor:
		return types.CompletionConstructor
	case nativeparser.KindDestructor:
		return types.CompletionDestructor
	case nativeparser.KindVarDecl, nativeparser.KindFieldDecl, nativeparser.KindParmDecl:
		return types.CompletionVariable
	case nativeparser.KindEnumDecl:
		return types.CompletionEnum
	case nativeparser.KindEnumConstantDecl:
		return types.CompletionEnumerator
	case nativeparser.KindNamespace:
		return types.CompletionNamespace
	case nativeparser.KindMacroDefinition, nativeparser.KindMacroExpansion:
		return types.CompletionPreprocessor
	case nativeparser.KindObjCMessageExpr:
		return types.CompletionSlot
	default:
		return types.CompletionOther
	}
}

func availabilityFor(a nativeparser.NativeAvailability) types.Availability {
	switch a {
	case nativeparser.AvailabilityDeprecated:
		return types.Deprecated
	case nativeparser.AvailabilityNotAvailable:
		return types.NotAvailable
	case nativeparser.AvailabilityNotAccessible:
		return types.NotAccessible
	default:
		return types.Available
	}
}

// FunctionHint implements spec.md §4.F's function-hint mode: when the
// cursor sits inside a call's argument list, return the single best
// completion whose CursorKind is a callable (function/method/constructor)
// and HasParameters is true, formatted as its Hint string, for an IDE to
// show as a floating parameter-hint tooltip rather than a dropdown list.
func FunctionHint(tu *nativeparser.TU, line, col int, unsaved types.UnsavedOverlay) (hint string, ok bool) {
	results := Complete(tu, line, col, unsaved)
	for _, r := range results {
		if !r.HasParameters {
			continue
		}
		switch r.Kind {
		case types.CompletionFunction, types.CompletionConstructor:
			return r.Hint, true
		}
	}
	return "", false
}

// ShouldActivate implements spec.md §4.F's activation heuristic: completion
// triggers when the bytes just before the byte offset in source are an
// identifier character, '.', "->", or "::". Any other preceding byte,
// whitespace included, does not trigger; comments are not detected.
func ShouldActivate(source []byte, offset int) bool {
	if offset <= 0 || offset > len(source) {
		return false
	}
	prev := source[offset-1]
	switch {
	case isIdentByte(prev):
		return true
	case prev == '.':
		return true
	case prev == '>' && offset >= 2 && source[offset-2] == '-':
		return true
	case prev == ':' && offset >= 2 && source[offset-2] == ':':
		return true
	default:
		return false
	}
}

func isIdentByte(b byte) bool {
	return b == '_' ||
		(b >= 'a' && b <= 'z') ||
		(b >= 'A' && b <= 'Z') ||
		(b >= '0' && b <= '9')
}
