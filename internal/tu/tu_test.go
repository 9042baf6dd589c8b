package tu

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coreerrors "github.com/opencodeintel/tucore/internal/errors"
	"github.com/opencodeintel/tucore/internal/nativeparser"
	"github.com/opencodeintel/tucore/internal/types"
)

func writeSource(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "input.cpp")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestParse_RequiresFileName(t *testing.T) {
	nativeparser.InitProcess()
	unit := New(nativeparser.NewIndex(false, false))

	err := unit.Parse()
	require.Error(t, err)
	assert.ErrorIs(t, err, coreerrors.NoHandle)
	assert.False(t, unit.IsLoaded())
}

func TestParse_MaterializesHandleAndTimestamp(t *testing.T) {
	nativeparser.InitProcess()
	path := writeSource(t, "int x;")

	unit := New(nativeparser.NewIndex(false, false))
	unit.SetFileName(path)

	require.NoError(t, unit.Parse())
	assert.True(t, unit.IsLoaded())
	assert.False(t, unit.Timestamp().IsZero())
}

func TestSetFileName_ChangeInvalidates(t *testing.T) {
	nativeparser.InitProcess()
	path := writeSource(t, "int x;")
	other := writeSource(t, "int y;")

	unit := New(nativeparser.NewIndex(false, false))
	unit.SetFileName(path)
	require.NoError(t, unit.Parse())
	require.True(t, unit.IsLoaded())

	unit.SetFileName(other)
	assert.False(t, unit.IsLoaded(), "changing file_name must invalidate the handle")
}

func TestSetCompileOptions_ChangeInvalidates(t *testing.T) {
	nativeparser.InitProcess()
	path := writeSource(t, "int x;")

	unit := New(nativeparser.NewIndex(false, false))
	unit.SetFileName(path)
	unit.SetCompileOptions([]string{"-std=c++11"})
	require.NoError(t, unit.Parse())
	require.True(t, unit.IsLoaded())

	unit.SetCompileOptions([]string{"-std=c++14"})
	assert.False(t, unit.IsLoaded())
}

func TestSetCompileOptions_SameValueDoesNotInvalidate(t *testing.T) {
	nativeparser.InitProcess()
	path := writeSource(t, "int x;")

	unit := New(nativeparser.NewIndex(false, false))
	unit.SetFileName(path)
	unit.SetCompileOptions([]string{"-std=c++11"})
	require.NoError(t, unit.Parse())

	unit.SetCompileOptions([]string{"-std=c++11"})
	assert.True(t, unit.IsLoaded())
}

func TestReparse_FailureInvalidatesHandle(t *testing.T) {
	nativeparser.InitProcess()
	path := writeSource(t, "int x;")

	unit := New(nativeparser.NewIndex(false, false))
	unit.SetFileName(path)
	require.NoError(t, unit.Parse())

	require.NoError(t, os.Remove(path))
	err := unit.Reparse()
	require.Error(t, err)
	assert.ErrorIs(t, err, coreerrors.ReparseFailure)
	assert.False(t, unit.IsLoaded())
}

func TestSave_NoHandleFails(t *testing.T) {
	nativeparser.InitProcess()
	unit := New(nativeparser.NewIndex(false, false))
	unit.SetFileName("never-parsed.cpp")

	err := unit.Save(filepath.Join(t.TempDir(), "out.sexp"))
	require.Error(t, err)
	assert.ErrorIs(t, err, coreerrors.NoHandle)
}

func TestMakeUnique_DetachesFromSharedState(t *testing.T) {
	nativeparser.InitProcess()
	path := writeSource(t, "int x;")

	original := New(nativeparser.NewIndex(false, false))
	original.SetFileName(path)
	require.NoError(t, original.Parse())

	detached := original.MakeUnique()
	assert.True(t, detached.IsLoaded())

	detached.SetFileName(writeSource(t, "int y;"))
	assert.False(t, detached.IsLoaded(), "mutating the detached copy must not affect the original")
	assert.True(t, original.IsLoaded(), "the original's handle must survive MakeUnique's detach")
}

func TestRetainRelease_TracksRefCount(t *testing.T) {
	nativeparser.InitProcess()
	unit := New(nativeparser.NewIndex(false, false))
	assert.EqualValues(t, 1, unit.RefCount())

	unit.Retain()
	assert.EqualValues(t, 2, unit.RefCount())

	unit.Release()
	assert.EqualValues(t, 1, unit.RefCount())
}

func TestSetUnsaved_DoesNotInvalidate(t *testing.T) {
	nativeparser.InitProcess()
	path := writeSource(t, "int x;")

	unit := New(nativeparser.NewIndex(false, false))
	unit.SetFileName(path)
	require.NoError(t, unit.Parse())

	unit.SetUnsaved(types.UnsavedOverlay{path: []byte("int x; int y;")})
	assert.True(t, unit.IsLoaded())
}

func TestIsEmpty_ZeroValue(t *testing.T) {
	var unit TranslationUnit
	assert.True(t, unit.IsEmpty())
	assert.False(t, unit.IsLoaded())
}
