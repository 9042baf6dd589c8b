package navigator

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opencodeintel/tucore/internal/liveunits"
	"github.com/opencodeintel/tucore/internal/nativeparser"
	"github.com/opencodeintel/tucore/internal/symboldb"
	"github.com/opencodeintel/tucore/internal/types"
)

func init() {
	nativeparser.InitProcess()
}

func writeFile(t *testing.T, dir, name, contents string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestFollow_DefinitionCursorReturnsOwnLocation(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "a.cpp", "class Widget {};\n")

	idx := nativeparser.NewIndex(false, false)
	live := liveunits.New()
	db := symboldb.New()
	nav := New(idx, live, db)

	loc := nav.Follow(path, 1, 7) // inside "Widget"
	assert.Equal(t, 1, loc.Line)
	assert.False(t, loc.IsNull())
}

func TestFollow_InclusionDirectiveReturnsIncludedFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "a.cpp", "#include \"b.h\"\nvoid f();\n")

	idx := nativeparser.NewIndex(false, false)
	live := liveunits.New()
	db := symboldb.New()
	nav := New(idx, live, db)

	loc := nav.Follow(path, 1, 12) // inside "b.h"
	assert.Equal(t, "b.h", loc.FileName)
}

func TestFollow_FallsBackToDatabaseWhenNoDefinitionCursor(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "a.cpp", "void use() { undeclared_call(); }\n")

	idx := nativeparser.NewIndex(false, false)
	live := liveunits.New()
	db := symboldb.New()
	db.InsertSymbol(types.Symbol{
		Name: "undeclared_call",
		Kind: types.KindFunction,
		Location: types.SourceLocation{FileName: "other.cpp", Line: 4, Column: 1},
	}, time.Now())

	nav := New(idx, live, db)
	loc := nav.Follow(path, 1, 16) // inside the call name
	assert.Equal(t, "other.cpp", loc.FileName)
	assert.Equal(t, 4, loc.Line)
}
