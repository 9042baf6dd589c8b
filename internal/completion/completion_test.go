package completion

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opencodeintel/tucore/internal/nativeparser"
)

func parseSource(t *testing.T, source string) *nativeparser.TU {
	t.Helper()
	nativeparser.InitProcess()
	dir := t.TempDir()
	path := filepath.Join(dir, "input.cpp")
	require.NoError(t, os.WriteFile(path, []byte(source), 0o644))
	idx := nativeparser.NewIndex(false, false)
	tu, err := idx.Parse(nativeparser.ParseInput{FileName: path}, nativeparser.FlagNone)
	require.NoError(t, err)
	require.NotNil(t, tu)
	return tu
}

func TestComplete_ScopeOffersLocalDeclarations(t *testing.T) {
	tu := parseSource(t, "void f() { int count; count; }")
	defer tu.Dispose()

	results := Complete(tu, 1, 24, nil)

	var names []string
	for _, r := range results {
		names = append(names, r.Text)
	}
	assert.Contains(t, names, "count")
}

func TestComplete_MemberAccessOffersFields(t *testing.T) {
	tu := parseSource(t, "class Widget { int size; void resize(); void grow(int delta); }; void use() { Widget w; w.  ; }")
	defer tu.Dispose()

	results := Complete(tu, 1, 91, nil)

	byName := make(map[string]bool)
	for _, r := range results {
		byName[r.Text] = r.HasParameters
	}
	assert.Contains(t, byName, "size")

	// spec.md §8 S4: a zero-arg method's LeftParen has nothing before the
	// following RightParen, so has_parameters must be false, not true just
	// because it is a method.
	hasParams, ok := byName["resize"]
	require.True(t, ok, "expected resize() in completion results")
	assert.False(t, hasParams, "resize() takes no arguments")

	hasParams, ok = byName["grow"]
	require.True(t, ok, "expected grow(int) in completion results")
	assert.True(t, hasParams, "grow(int delta) takes an argument")
}

func TestShouldActivate_TriggersAfterIdentifierAndOperators(t *testing.T) {
	assert.True(t, ShouldActivate([]byte("foo"), 3))
	assert.True(t, ShouldActivate([]byte("foo."), 4))
	assert.True(t, ShouldActivate([]byte("foo->"), 5))
	assert.True(t, ShouldActivate([]byte("foo::"), 5))
	assert.False(t, ShouldActivate([]byte("foo "), 4))
	assert.False(t, ShouldActivate([]byte(""), 0))
}

func TestFunctionHint_DoesNotPanicInsideCallArguments(t *testing.T) {
	tu := parseSource(t, "void f(int x); void use() { f(); }")
	defer tu.Dispose()

	assert.NotPanics(t, func() {
		FunctionHint(tu, 1, 31, nil)
	})
}
