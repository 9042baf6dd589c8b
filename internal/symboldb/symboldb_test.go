package symboldb

import (
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coreerrors "github.com/opencodeintel/tucore/internal/errors"
	"github.com/opencodeintel/tucore/internal/types"
)

func sampleSymbol(file, name string) types.Symbol {
	return types.Symbol{
		Name:          name,
		Qualification: "N",
		Kind:          types.KindClass,
		Location:      types.SourceLocation{FileName: file, Line: 1, Column: 1, Offset: 0},
	}
}

func TestInsertSymbol_UpsertsOnSameCompositeKey(t *testing.T) {
	db := New()
	now := time.Now()

	sym := sampleSymbol("a.cpp", "C")
	db.InsertSymbol(sym, now)

	moved := sym
	moved.Location.Line = 5
	db.InsertSymbol(moved, now)

	got := db.SymbolsInFile("a.cpp")
	require.Len(t, got, 1)
	assert.Equal(t, 5, got[0].Location.Line)
}

func TestInsertSymbol_DistinctQualificationAppends(t *testing.T) {
	db := New()
	now := time.Now()

	a := sampleSymbol("a.cpp", "C")
	b := sampleSymbol("a.cpp", "C")
	b.Qualification = "M"

	db.InsertSymbol(a, now)
	db.InsertSymbol(b, now)

	assert.Len(t, db.SymbolsInFile("a.cpp"), 2)
}

func TestRemoveFile_RemovesAllEntries(t *testing.T) {
	db := New()
	now := time.Now()
	db.InsertSymbol(sampleSymbol("a.cpp", "C"), now)
	db.InsertSymbol(sampleSymbol("a.cpp", "D"), now)

	db.RemoveFile("a.cpp")

	assert.False(t, db.ContainsFile("a.cpp"))
	assert.Empty(t, db.SymbolsInFile("a.cpp"))
}

func TestValidate_StaleAfterTouch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.cpp")
	require.NoError(t, os.WriteFile(path, []byte("class C {};"), 0o644))

	db := New()
	db.InsertFile(path, time.Now())
	assert.True(t, db.Validate(path))

	time.Sleep(10 * time.Millisecond)
	future := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(path, future, future))

	assert.False(t, db.Validate(path))
}

func TestValidate_UntrackedFileIsFalse(t *testing.T) {
	db := New()
	assert.False(t, db.Validate("missing.cpp"))
}

func TestSerializeDeserialize_RoundTrips(t *testing.T) {
	db := New()
	now := time.Now().Truncate(time.Millisecond)
	db.InsertSymbol(sampleSymbol("a.cpp", "C"), now)
	db.InsertSymbol(sampleSymbol("b.cpp", "D"), now)
	db.InsertFile("c.h", now)

	data := db.Serialize()

	restored := New()
	require.NoError(t, restored.Deserialize(data))

	// cmp.Diff surfaces exactly which field regressed across a
	// serialize/deserialize round trip instead of just "not equal".
	opt := cmpopts.SortSlices(func(a, b types.Symbol) bool { return a.Name < b.Name })
	if diff := cmp.Diff(db.SymbolsInFile("a.cpp"), restored.SymbolsInFile("a.cpp"), opt); diff != "" {
		t.Errorf("a.cpp symbols mismatch after round trip (-original +restored):\n%s", diff)
	}
	if diff := cmp.Diff(db.SymbolsInFile("b.cpp"), restored.SymbolsInFile("b.cpp"), opt); diff != "" {
		t.Errorf("b.cpp symbols mismatch after round trip (-original +restored):\n%s", diff)
	}
	assert.True(t, restored.ContainsFile("c.h"))
}

func TestFiles_ReturnsEveryTrackedFile(t *testing.T) {
	db := New()
	now := time.Now()
	db.InsertSymbol(sampleSymbol("a.cpp", "C"), now)
	db.InsertFile("b.h", now)

	got := db.Files()
	sort.Strings(got)
	assert.Equal(t, []string{"a.cpp", "b.h"}, got)
}

func TestDeserialize_WrongMagicLeavesStoreUnchanged(t *testing.T) {
	db := New()
	db.InsertSymbol(sampleSymbol("a.cpp", "C"), time.Now())

	before := db.SymbolsInFile("a.cpp")

	bogus := []byte{0xEF, 0xBE, 0xAD, 0xDE, 0x01, 0x00}
	err := db.Deserialize(bogus)

	require.Error(t, err)
	assert.ErrorIs(t, err, coreerrors.FormatMismatch)
	assert.Equal(t, before, db.SymbolsInFile("a.cpp"))
}

func TestDeserialize_WrongVersionLeavesStoreUnchanged(t *testing.T) {
	db := New()
	db.InsertSymbol(sampleSymbol("a.cpp", "C"), time.Now())

	good := db.Serialize()
	// Corrupt the version field (bytes 4-5, little-endian u16) in place.
	corrupted := append([]byte(nil), good...)
	corrupted[4] = 0xFF
	corrupted[5] = 0xFF

	err := db.Deserialize(corrupted)
	require.Error(t, err)
	assert.ErrorIs(t, err, coreerrors.FormatMismatch)
}

func TestClear_EmptiesStore(t *testing.T) {
	db := New()
	db.InsertSymbol(sampleSymbol("a.cpp", "C"), time.Now())
	db.Clear()

	assert.False(t, db.ContainsFile("a.cpp"))
	assert.Equal(t, 0, db.FileCount())
}

func TestSymbolsOfKind_DerivedAcrossFiles(t *testing.T) {
	db := New()
	now := time.Now()
	db.InsertSymbol(sampleSymbol("a.cpp", "C"), now)
	db.InsertSymbol(sampleSymbol("b.cpp", "D"), now)

	classes := db.SymbolsOfKind(types.KindClass)
	assert.Len(t, classes, 2)
}
