package indexer

import (
	"context"
	"os"
	"path/filepath"

	"github.com/opencodeintel/tucore/internal/errors"
)

// Initialize implements spec.md §4.E's persistence lifecycle step one:
// records the storage path the database will be loaded from and
// eventually serialized back to. It does not touch disk itself.
func (ix *Indexer) Initialize(storagePath string) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.storagePath = storagePath
	ix.finalized = false
}

// StartLoading implements spec.md §4.E's "deserialize the persisted store,
// then analyze the result for staleness": any tracked file whose on-disk
// mtime moved past its persisted timestamp has its symbols dropped (it
// gets re-indexed on the next Regenerate/EvaluateFile instead of serving
// stale data). Query methods return an empty result while loading is in
// flight, per spec.md §4.E's query surface.
//
// spec.md §9(c) explicitly elides the cross-file dependency graph a fuller
// implementation would use to also invalidate files that merely *include*
// a changed header — this pass only checks each tracked file against its
// own mtime.
func (ix *Indexer) StartLoading(ctx context.Context) error {
	ix.mu.Lock()
	ix.loading = true
	path := ix.storagePath
	ix.mu.Unlock()

	defer func() {
		ix.mu.Lock()
		ix.loading = false
		ix.mu.Unlock()
	}()

	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return errors.LoadFailure.WithFile(path)
	}

	if err := ix.db.Deserialize(data); err != nil {
		// FormatMismatch is a no-op on the store (spec.md §4.D); an
		// empty database is a perfectly valid starting point.
		return nil
	}

	ix.dropStaleFiles()
	return nil
}

// dropStaleFiles removes every tracked file whose on-disk state has
// advanced past what was persisted, per spec.md §4.E's staleness analysis.
func (ix *Indexer) dropStaleFiles() {
	var stale []string
	for _, file := range ix.trackedFiles() {
		if !ix.db.Validate(file) {
			stale = append(stale, file)
		}
	}
	ix.db.RemoveFiles(stale)
}

func (ix *Indexer) trackedFiles() []string {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	var files []string
	for _, pf := range ix.parts {
		for file := range pf.files {
			files = append(files, file)
		}
	}
	return files
}

// Finalize implements spec.md §4.E's shutdown sequence: cancel any
// in-flight run, serialize the current store to disk, then clear it.
func (ix *Indexer) Finalize() error {
	ix.Cancel()

	ix.mu.Lock()
	path := ix.storagePath
	ix.finalized = true
	ix.mu.Unlock()

	if path != "" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return errors.SaveFailure.WithFile(path)
			}
		}
		data := ix.db.Serialize()
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return errors.SaveFailure.WithFile(path)
		}
	}

	ix.db.Clear()
	return nil
}

// IsLoading reports whether StartLoading is currently in flight; the
// query surface (query.go) checks this to return empty results rather
// than a partially-deserialized view.
func (ix *Indexer) IsLoading() bool {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return ix.loading
}
