package marker

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opencodeintel/tucore/internal/nativeparser"
	"github.com/opencodeintel/tucore/internal/types"
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

func TestMarkersInRange_ClassifiesClassAndFunction(t *testing.T) {
	tu := parseSource(t, "class Widget {};\nvoid build();\n")
	defer tu.Dispose()

	markers := MarkersInRange(tu, 1, 2)
	require.NotEmpty(t, markers)

	var sawType, sawFunc bool
	for _, m := range markers {
		switch m.Kind {
		case types.MarkerType:
			sawType = true
		case types.MarkerFunction:
			sawFunc = true
		}
	}
	assert.True(t, sawType, "expected a Type marker for the class name")
	assert.True(t, sawFunc, "expected a Function marker for build")
}

func TestMarkersInRange_SortedByLocation(t *testing.T) {
	tu := parseSource(t, "class A {};\nclass B {};\n")
	defer tu.Dispose()

	markers := MarkersInRange(tu, 1, 2)
	for i := 1; i < len(markers); i++ {
		assert.False(t, markers[i].Less(markers[i-1]))
	}
}

func TestDiagnostics_DropsIgnoredAndNote(t *testing.T) {
	tu := parseSource(t, "class {")
	defer tu.Dispose()

	diags := Diagnostics(tu)
	for _, d := range diags {
		assert.NotEqual(t, types.SeverityIgnored, d.Severity)
		assert.NotEqual(t, types.SeverityNote, d.Severity)
	}
}

func TestFoldChildNotes_CapsAtTen(t *testing.T) {
	notes := make([]string, 15)
	for i := range notes {
		notes[i] = "note"
	}
	got := foldChildNotes("base", notes)
	assert.Equal(t, maxChildNotes, countOccurrences(got, "note"))
}

func countOccurrences(s, substr string) int {
	count := 0
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			count++
			i += len(substr) - 1
		}
	}
	return count
}
