package indexer

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opencodeintel/tucore/internal/config"
	"github.com/opencodeintel/tucore/internal/liveunits"
	"github.com/opencodeintel/tucore/internal/nativeparser"
	"github.com/opencodeintel/tucore/internal/symboldb"
	"github.com/opencodeintel/tucore/internal/types"
)

func init() {
	nativeparser.InitProcess()
}

func cppPart(name string) types.ProjectPart {
	return types.ProjectPart{Name: name, Language: types.LangCpp11}
}

func newTestIndexer(t *testing.T) *Indexer {
	t.Helper()
	idx := nativeparser.NewIndex(false, false)
	db := symboldb.New()
	live := liveunits.New()
	cfg := config.Default()
	return New(idx, db, live, cfg, "")
}

func writeFile(t *testing.T, dir, name, contents string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestRegenerate_FindsClassAndOutOfLineMethod(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "a.cpp", `
namespace N {
class C {
    int x;
    void f();
};
}
void N::C::f() { x = 1; }
`)

	ix := newTestIndexer(t)
	ix.AddFile(path, cppPart("p1"), false)

	require.NoError(t, ix.Regenerate(context.Background()))

	classes := ix.ClassesInFile(path)
	require.Len(t, classes, 1)
	assert.Equal(t, "C", classes[0].Name)
	assert.Equal(t, "N", classes[0].Qualification)

	methods := ix.MethodsInFile(path)
	var foundF bool
	for _, m := range methods {
		if m.Name == "f" {
			foundF = true
		}
	}
	assert.True(t, foundF, "expected method f to be indexed")
}

func TestEvaluateFile_OnlyIndexesRequestedFile(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.cpp", "class A {};")
	b := writeFile(t, dir, "b.cpp", "class B {};")

	ix := newTestIndexer(t)
	part := cppPart("p1")
	ix.AddFile(a, part, false)
	ix.AddFile(b, part, false)

	require.NoError(t, ix.EvaluateFile(context.Background(), a))

	assert.Len(t, ix.ClassesInFile(a), 1)
	assert.Empty(t, ix.ClassesInFile(b))
}

func TestQuerySurface_EmptyWhileLoading(t *testing.T) {
	ix := newTestIndexer(t)
	ix.mu.Lock()
	ix.loading = true
	ix.mu.Unlock()

	assert.Empty(t, ix.AllClasses())
	assert.Empty(t, ix.AllFunctions())
}

func TestRemoveFile_DropsSymbolsFromDatabase(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "a.cpp", "class A {};")

	ix := newTestIndexer(t)
	ix.AddFile(path, cppPart("p1"), false)
	require.NoError(t, ix.Regenerate(context.Background()))
	require.NotEmpty(t, ix.ClassesInFile(path))

	ix.RemoveFile(path)
	assert.Empty(t, ix.ClassesInFile(path))
}

func TestAddFile_DropsFileMatchingExcludeGlob(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "a_test.cpp", "class A {};")

	part := cppPart("p1")
	part.ExcludeGlobs = []string{"**/*_test.cpp"}

	ix := newTestIndexer(t)
	ix.AddFile(path, part, false)
	require.NoError(t, ix.Regenerate(context.Background()))

	assert.Empty(t, ix.ClassesInFile(path))
}

func TestRun_ConcurrentRequestIsQueued(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "a.cpp", "class A {};")

	ix := newTestIndexer(t)
	ix.AddFile(path, cppPart("p1"), false)

	ix.mu.Lock()
	ix.running = true
	ix.mu.Unlock()

	done := make(chan struct{})
	go func() {
		_ = ix.Regenerate(context.Background())
		close(done)
	}()

	// Give the queueing branch a moment to record the request.
	time.Sleep(20 * time.Millisecond)
	ix.mu.Lock()
	assert.True(t, ix.queuedFull)
	ix.running = false
	ix.mu.Unlock()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("queued Regenerate call never returned")
	}
}

func TestPersistence_RoundTripsThroughStorage(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "a.cpp", "class A {};")
	storage := filepath.Join(dir, ".tucore", "symbols.db")

	ix := newTestIndexer(t)
	ix.Initialize(storage)
	ix.AddFile(path, cppPart("p1"), false)
	require.NoError(t, ix.Regenerate(context.Background()))
	require.NoError(t, ix.Finalize())

	_, err := os.Stat(storage)
	require.NoError(t, err)

	ix2 := newTestIndexer(t)
	ix2.Initialize(storage)
	ix2.AddFile(path, cppPart("p1"), false)
	require.NoError(t, ix2.StartLoading(context.Background()))

	assert.NotEmpty(t, ix2.ClassesInFile(path))
}

func TestPersistence_StartLoadingDropsStaleFiles(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "a.cpp", "class A {};")
	storage := filepath.Join(dir, ".tucore", "symbols.db")

	ix := newTestIndexer(t)
	ix.Initialize(storage)
	ix.AddFile(path, cppPart("p1"), false)
	require.NoError(t, ix.Regenerate(context.Background()))
	require.NoError(t, ix.Finalize())

	time.Sleep(10 * time.Millisecond)
	future := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(path, future, future))

	ix2 := newTestIndexer(t)
	ix2.Initialize(storage)
	ix2.AddFile(path, cppPart("p1"), false)
	require.NoError(t, ix2.StartLoading(context.Background()))

	assert.Empty(t, ix2.ClassesInFile(path))
}

func TestSearchSymbols_LiteralSubstring(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "a.cpp", "class Alpha {}; class Beta {};")

	ix := newTestIndexer(t)
	ix.AddFile(path, cppPart("p1"), false)
	require.NoError(t, ix.Regenerate(context.Background()))

	var matches []SearchMatch
	err := ix.SearchSymbols(context.Background(), SearchOptions{Query: "Alp"}, func(chunk []SearchMatch) bool {
		matches = append(matches, chunk...)
		return true
	})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "Alpha", matches[0].Symbol.Name)
	assert.False(t, matches[0].Fuzzy)
}

func TestSearchSymbols_FuzzyFallbackWhenNoLiteralMatch(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "a.cpp", "class Alpha {};")

	ix := newTestIndexer(t)
	ix.cfg.Search.FuzzyThreshold = 0.5
	ix.AddFile(path, cppPart("p1"), false)
	require.NoError(t, ix.Regenerate(context.Background()))

	var matches []SearchMatch
	err := ix.SearchSymbols(context.Background(), SearchOptions{Query: "Alpha1"}, func(chunk []SearchMatch) bool {
		matches = append(matches, chunk...)
		return true
	})
	require.NoError(t, err)
	require.NotEmpty(t, matches)
	assert.True(t, matches[0].Fuzzy)
}

func TestCompileOptions_DropsBookkeepingDefine(t *testing.T) {
	part := types.ProjectPart{
		Language: types.LangCpp11,
		Defines:  []string{"#define FOO 1", "#define _X", "#define OBJC_NEW_PROPERTIES 1"},
	}
	opts := CompileOptions(part, false, "")
	assert.Contains(t, opts, "-DFOO=1")
	for _, o := range opts {
		assert.NotContains(t, o, "_X")
		assert.NotContains(t, o, "OBJC_NEW_PROPERTIES")
	}
}

func TestStartWatching_DisabledByConfigReturnsNil(t *testing.T) {
	ix := newTestIndexer(t)
	w, err := ix.StartWatching()
	require.NoError(t, err)
	assert.Nil(t, w)
}

func TestStartWatching_DebouncedWriteTriggersEvaluateFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "a.cpp", "class A {};")

	idx := nativeparser.NewIndex(false, false)
	db := symboldb.New()
	live := liveunits.New()
	cfg := config.Default()
	cfg.Indexing.WatchMode = true
	cfg.Indexing.WatchDebounceMs = 20
	ix := New(idx, db, live, cfg, "")
	ix.AddFile(path, cppPart("p1"), false)

	w, err := ix.StartWatching()
	require.NoError(t, err)
	require.NotNil(t, w)
	defer w.Stop()

	require.NoError(t, os.WriteFile(path, []byte("class A {}; class B {};"), 0o644))

	require.Eventually(t, func() bool {
		return len(ix.ClassesInFile(path)) == 2
	}, 2*time.Second, 10*time.Millisecond, "expected the debounced watch to re-evaluate the changed file")
}

func TestIsImplementationFile_ClassifiesByExtension(t *testing.T) {
	assert.True(t, IsImplementationFile("foo.cpp"))
	assert.True(t, IsImplementationFile("foo.MM"))
	assert.False(t, IsImplementationFile("foo.h"))
	assert.False(t, IsImplementationFile("foo.hpp"))
}
