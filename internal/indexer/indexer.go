// Package indexer implements the project-wide Indexer of spec.md §4.E: it
// drives parallel TU construction across a project's files, visits each
// resulting AST with qualification tracking, applies the header-
// suppression dedup rule, and streams symbols into the Symbol Database.
package indexer

import (
	"context"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/opencodeintel/tucore/internal/config"
	"github.com/opencodeintel/tucore/internal/liveunits"
	"github.com/opencodeintel/tucore/internal/nativeparser"
	"github.com/opencodeintel/tucore/internal/symboldb"
	"github.com/opencodeintel/tucore/internal/types"
)

// partFiles tracks the file membership of one ProjectPart plus its
// per-file ObjC override (spec.md §4.E: "ObjC switch appended per-file
// when that file is ObjC").
type partFiles struct {
	part  types.ProjectPart
	files map[string]bool // file -> objC override
}

// Indexer is the spec.md §4.E orchestrator. One Indexer owns exactly one
// Symbol Database and one storage path; construct one per project.
type Indexer struct {
	cfg          *config.Config
	index        *nativeparser.Index
	db           *symboldb.DB
	live         *liveunits.Manager
	resourceRoot string

	mu    sync.Mutex
	parts map[string]*partFiles

	// run-state, protected by mu: spec.md §4.E "Queueing semantics".
	running     bool
	cancelFunc  context.CancelFunc
	queuedFull  bool
	queuedFiles map[string]struct{}

	// newlySeenHeaders tracks, per in-flight run, headers first
	// encountered during that run's inclusion walk (spec.md §4.E
	// "Inclusion tracking"). Reset at the start of each run.
	newlySeenHeaders map[string]struct{}

	storagePath  string
	loading      bool
	finalized    bool
}

// New constructs an Indexer backed by db, idx, and live (the optional
// LiveUnits manager TU publication targets — nil disables publication,
// useful in tests that only care about D).
func New(idx *nativeparser.Index, db *symboldb.DB, live *liveunits.Manager, cfg *config.Config, resourceRoot string) *Indexer {
	if cfg == nil {
		cfg = config.Default()
	}
	return &Indexer{
		cfg:              cfg,
		index:            idx,
		db:               db,
		live:             live,
		resourceRoot:     resourceRoot,
		parts:            make(map[string]*partFiles),
		queuedFiles:      make(map[string]struct{}),
		newlySeenHeaders: make(map[string]struct{}),
	}
}

// AddFile implements spec.md §6's consumer surface "add_file(file,
// project_part)". objC marks a per-file ObjC override within a part that
// is not itself globally ObjC (spec.md §4.E step 2). A file matching one
// of part's ExcludeGlobs is silently dropped, mirroring how an embedding
// IDE's own project scan would already have filtered it before ever
// calling add_file.
func (ix *Indexer) AddFile(file string, part types.ProjectPart, objC bool) {
	if matchesAnyGlob(part.ExcludeGlobs, file) {
		return
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()

	pf, ok := ix.parts[part.Name]
	if !ok {
		pf = &partFiles{part: part, files: make(map[string]bool)}
		ix.parts[part.Name] = pf
	}
	pf.files[file] = objC || part.ObjC
}

func matchesAnyGlob(patterns []string, file string) bool {
	for _, pattern := range patterns {
		if matched, err := doublestar.Match(pattern, file); err == nil && matched {
			return true
		}
	}
	return false
}

// RemoveFile drops file from whichever part tracks it and from D.
func (ix *Indexer) RemoveFile(file string) {
	ix.mu.Lock()
	for _, pf := range ix.parts {
		delete(pf.files, file)
	}
	ix.mu.Unlock()
	ix.db.RemoveFile(file)
}

// Database exposes the underlying Symbol Database for the query surface
// in query.go and for callers that want direct read access.
func (ix *Indexer) Database() *symboldb.DB { return ix.db }

func (ix *Indexer) compileOptionsFor(part types.ProjectPart, objC bool) []string {
	return CompileOptions(part, objC, ix.resourceRoot)
}

func nowTimestamp() time.Time { return time.Now() }
