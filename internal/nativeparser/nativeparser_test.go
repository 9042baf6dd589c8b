package nativeparser

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/opencodeintel/tucore/internal/types"
)

func parseSource(t *testing.T, source string) *TU {
	t.Helper()
	InitProcess()
	dir := t.TempDir()
	path := filepath.Join(dir, "input.cpp")
	if err := os.WriteFile(path, []byte(source), 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}
	idx := NewIndex(false, false)
	tu, err := idx.Parse(ParseInput{FileName: path}, FlagNone)
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if tu == nil {
		t.Fatalf("Parse returned nil TU (ParseFailure) for valid source")
	}
	return tu
}

func TestParse_ClassAndOutOfLineMethod(t *testing.T) {
	tu := parseSource(t, "namespace N { class C { int x; void f(); }; } void N::C::f() { x = 1; }")
	defer tu.Dispose()

	if !tu.IsLoaded() {
		t.Fatalf("expected TU to be loaded after Parse")
	}

	var classes, methods []Cursor
	VisitChildren(tu.Cursor(), func(cursor, parent Cursor) VisitResult {
		switch cursor.Kind() {
		case KindClassDecl:
			classes = append(classes, cursor)
		case KindCXXMethod:
			methods = append(methods, cursor)
		}
		if cursor.Kind().IsDescendable() || cursor.Kind().IsRecordLike() || cursor.Kind() == KindTranslationUnit {
			return VisitRecurse
		}
		return VisitContinue
	})

	if len(classes) != 1 {
		t.Fatalf("expected exactly one class cursor, got %d", len(classes))
	}
	if got := classes[0].Spelling(); got != "C" {
		t.Errorf("class spelling = %q, want C", got)
	}

	foundOutOfLine := false
	for _, m := range methods {
		if m.Spelling() == "f" {
			foundOutOfLine = true
		}
	}
	if !foundOutOfLine {
		t.Errorf("expected to find method f among %d method cursors", len(methods))
	}
}

func TestParse_ConstructorDetection(t *testing.T) {
	tu := parseSource(t, "class P { public: P(); };\nP::P() {}")
	defer tu.Dispose()

	found := false
	VisitChildren(tu.Cursor(), func(cursor, parent Cursor) VisitResult {
		if cursor.Kind() == KindConstructor {
			found = true
		}
		return VisitRecurse
	})
	if !found {
		t.Errorf("expected a Constructor cursor for out-of-line P::P()")
	}
}

func TestTokenize_IdentifiersOnly(t *testing.T) {
	tu := parseSource(t, "int add(int a, int b) { return a + b; }")
	defer tu.Dispose()

	tokens := Tokenize(tu, 0, len(tu.source))
	idents := IdentifierTokens(tokens)
	if len(idents) == 0 {
		t.Fatalf("expected at least one identifier token")
	}
	for _, tok := range idents {
		if tok.Kind != TokenIdentifier {
			t.Errorf("IdentifierTokens leaked a non-identifier token: %+v", tok)
		}
	}

	cursors := AnnotateTokens(tu, idents)
	if len(cursors) != len(idents) {
		t.Fatalf("AnnotateTokens returned %d cursors for %d tokens", len(cursors), len(idents))
	}
}

func TestGetInclusions_ReportsDirectivesInOrder(t *testing.T) {
	tu := parseSource(t, "#include \"h.h\"\n#include <vector>\nint g() { return 0; }")
	defer tu.Dispose()

	var got []Inclusion
	GetInclusions(tu, func(inc Inclusion) { got = append(got, inc) })

	if len(got) != 2 {
		t.Fatalf("expected 2 inclusions, got %d: %+v", len(got), got)
	}
	if got[0].IncludedFile != "h.h" || got[0].IsSystem {
		t.Errorf("inclusion[0] = %+v, want IncludedFile=h.h IsSystem=false", got[0])
	}
	if got[1].IncludedFile != "vector" || !got[1].IsSystem {
		t.Errorf("inclusion[1] = %+v, want IncludedFile=vector IsSystem=true", got[1])
	}
}

func TestReparse_RebuildsTreeFromOverlay(t *testing.T) {
	tu := parseSource(t, "int x;")
	defer tu.Dispose()

	overlay := types.UnsavedOverlay{tu.FileName(): []byte("int x; int y;")}
	if err := tu.Reparse(overlay); err != nil {
		t.Fatalf("Reparse returned error: %v", err)
	}

	count := 0
	VisitChildren(tu.Cursor(), func(cursor, parent Cursor) VisitResult {
		if cursor.Kind() == KindVarDecl {
			count++
		}
		return VisitContinue
	})
	if count != 2 {
		t.Errorf("expected 2 var decls after reparse from overlay, got %d", count)
	}
}

func TestSave_WritesSexpDump(t *testing.T) {
	tu := parseSource(t, "int x;")
	defer tu.Dispose()

	out := filepath.Join(t.TempDir(), "dump.sexp")
	if err := tu.Save(out); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("reading saved dump: %v", err)
	}
	if len(data) == 0 {
		t.Errorf("expected non-empty S-expression dump")
	}
}

func TestDiagnostics_FlagsSyntaxError(t *testing.T) {
	tu := parseSource(t, "class { int x")
	defer tu.Dispose()

	diags := tu.Diagnostics()
	if len(diags) == 0 {
		t.Errorf("expected at least one diagnostic for malformed source")
	}
	for _, d := range diags {
		if d.Severity != types.SeverityError {
			t.Errorf("diagnostic severity = %v, want SeverityError", d.Severity)
		}
	}
}

func TestManagementFlags_AreDistinctPowersOfTwo(t *testing.T) {
	flags := []ManagementFlags{
		FlagDetailedPreprocessingRecord,
		FlagCacheCompletionResults,
		FlagIncludeBriefCommentsInCodeCompletion,
		FlagSkipFunctionBodies,
	}
	seen := ManagementFlags(0)
	for _, f := range flags {
		if seen&f != 0 {
			t.Fatalf("flag %d overlaps with a previous flag", f)
		}
		seen |= f
	}
}
