// Package tu implements the shared-state Translation Unit value type of
// spec.md §4.B: a handle consumers copy freely, backed by one piece of
// reference-counted state that owns the native parser handle.
package tu

import (
	"sync"
	"time"

	"github.com/opencodeintel/tucore/internal/errors"
	"github.com/opencodeintel/tucore/internal/nativeparser"
	"github.com/opencodeintel/tucore/internal/types"
)

// state is the shared inner payload of a TranslationUnit. Every
// TranslationUnit value sharing the same state points at the same *state;
// make_unique detaches a consumer onto a fresh copy (spec.md §9 "Shared
// ownership of TUs").
type state struct {
	// mu is recursive-by-convention: every exported method on
	// TranslationUnit takes it once and calls only unexported helpers
	// that assume it is already held, so a visitor invoked indirectly
	// from within a locked method (spec.md §5's "callers must never
	// hold two TU mutexes simultaneously" concern) never needs a second
	// acquisition of this same lock.
	mu sync.Mutex

	fileName    string
	argv        []string
	pch         types.PCHHandle
	unsaved     types.UnsavedOverlay
	flags       nativeparser.ManagementFlags
	handle      *nativeparser.TU
	timestamp   time.Time
	refCount    int32
	index       *nativeparser.Index
}

// TranslationUnit is the value spec.md §4.B describes: copying it shares
// the same backing state until MakeUnique is called.
type TranslationUnit struct {
	s *state
}

// New constructs an empty TU (no file name, no handle) backed by idx.
func New(idx *nativeparser.Index) TranslationUnit {
	s := &state{index: idx, refCount: 1}
	return TranslationUnit{s: s}
}

// FromParsedHandle wraps an already-parsed native handle in a
// TranslationUnit without re-parsing, for the Indexer (component E) to
// publish a TU it built during a batch run into LiveUnits (component C)
// so editor consumers see the freshest parse (spec.md §4.E step 4).
func FromParsedHandle(idx *nativeparser.Index, handle *nativeparser.TU) TranslationUnit {
	s := &state{
		index:     idx,
		handle:    handle,
		fileName:  handle.FileName(),
		flags:     handle.Flags(),
		timestamp: time.Now(),
		refCount:  1,
	}
	return TranslationUnit{s: s}
}

// IsEmpty reports whether this is the zero-value TU with no backing state
// (LiveUnits.Find returns this for an untracked file, per spec.md §4.C).
func (t TranslationUnit) IsEmpty() bool { return t.s == nil }

func (t TranslationUnit) FileName() string {
	if t.s == nil {
		return ""
	}
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	return t.s.fileName
}

// SetFileName implements spec.md §4.B: "if changed, invalidate parser
// handle; keep options."
func (t TranslationUnit) SetFileName(path string) {
	if t.s == nil {
		return
	}
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	if t.s.fileName == path {
		return
	}
	t.s.fileName = path
	t.s.invalidateLocked()
}

// SetCompileOptions implements spec.md §4.B: "if changed, invalidate."
func (t TranslationUnit) SetCompileOptions(argv []string) {
	if t.s == nil {
		return
	}
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	if stringsEqual(t.s.argv, argv) {
		return
	}
	t.s.argv = append([]string(nil), argv...)
	t.s.invalidateLocked()
}

// SetUnsaved sets the unsaved overlay without invalidating the handle.
func (t TranslationUnit) SetUnsaved(overlay types.UnsavedOverlay) {
	if t.s == nil {
		return
	}
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	t.s.unsaved = overlay
}

// SetManagementFlags sets the management flags without invalidating.
func (t TranslationUnit) SetManagementFlags(flags nativeparser.ManagementFlags) {
	if t.s == nil {
		return
	}
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	t.s.flags = flags
}

func (t TranslationUnit) PCH() types.PCHHandle {
	if t.s == nil {
		return types.PCHHandle{}
	}
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	return t.s.pch
}

func (t TranslationUnit) SetPCH(pch types.PCHHandle) {
	if t.s == nil {
		return
	}
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	if t.s.pch != pch {
		t.s.pch = pch
		t.s.invalidateLocked()
	}
}

// Parse implements spec.md §4.B: "must be called when no parser handle
// exists; materializes one using the current file, options, overlay, and
// flags; updates time_stamp."
func (t TranslationUnit) Parse() error {
	if t.s == nil {
		return errors.NoHandle
	}
	t.s.mu.Lock()
	defer t.s.mu.Unlock()

	if t.s.handle != nil {
		return nil
	}
	if t.s.fileName == "" {
		return errors.NoHandle.WithFile(t.s.fileName)
	}

	handle, err := t.s.index.Parse(nativeparser.ParseInput{
		FileName: t.s.fileName,
		Argv:     t.s.argv,
		PCH:      t.s.pch,
		Unsaved:  t.s.unsaved,
	}, t.s.flags)
	if err != nil {
		return errors.ParseFailure.WithFile(t.s.fileName)
	}
	if handle == nil {
		return errors.ParseFailure.WithFile(t.s.fileName)
	}

	t.s.handle = handle
	t.s.timestamp = time.Now()
	return nil
}

// Reparse implements spec.md §4.B: "requires a handle; if the underlying
// operation fails, invalidate the handle."
func (t TranslationUnit) Reparse() error {
	if t.s == nil {
		return errors.NoHandle
	}
	t.s.mu.Lock()
	defer t.s.mu.Unlock()

	if t.s.handle == nil {
		return errors.NoHandle.WithFile(t.s.fileName)
	}
	if err := t.s.handle.Reparse(t.s.unsaved); err != nil {
		t.s.invalidateLocked()
		return errors.ReparseFailure.WithFile(t.s.fileName)
	}
	t.s.timestamp = time.Now()
	return nil
}

// Save implements spec.md §4.B: "writes a serialized TU to path; fails
// with NoHandle if no handle, propagates native errors otherwise."
func (t TranslationUnit) Save(path string) error {
	if t.s == nil {
		return errors.NoHandle
	}
	t.s.mu.Lock()
	defer t.s.mu.Unlock()

	if t.s.handle == nil {
		return errors.NoHandle.WithFile(t.s.fileName)
	}
	if err := t.s.handle.Save(path); err != nil {
		return errors.SaveFailure.WithFile(t.s.fileName)
	}
	return nil
}

// IsLoaded implements spec.md §4.B: "handle present and index present."
func (t TranslationUnit) IsLoaded() bool {
	if t.s == nil {
		return false
	}
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	return t.s.handle != nil && t.s.index != nil
}

// Handle returns the native parser handle for read-only use by F/G/H,
// which must hold no other TU's lock while calling into it (spec.md §5).
func (t TranslationUnit) Handle() *nativeparser.TU {
	if t.s == nil {
		return nil
	}
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	return t.s.handle
}

func (t TranslationUnit) Timestamp() time.Time {
	if t.s == nil {
		return time.Time{}
	}
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	return t.s.timestamp
}

// MakeUnique implements spec.md §4.B: "ensures exclusive ownership of the
// inner state; subsequent mutations do not affect other holders of the
// previous shared state." It is a copy-on-detach: the returned TU starts
// out identical to t but points at an independent *state.
func (t TranslationUnit) MakeUnique() TranslationUnit {
	if t.s == nil {
		return t
	}
	t.s.mu.Lock()
	defer t.s.mu.Unlock()

	clone := &state{
		fileName:  t.s.fileName,
		argv:      append([]string(nil), t.s.argv...),
		pch:       t.s.pch,
		unsaved:   t.s.unsaved.Clone(),
		flags:     t.s.flags,
		handle:    t.s.handle,
		timestamp: t.s.timestamp,
		refCount:  1,
		index:     t.s.index,
	}
	return TranslationUnit{s: clone}
}

// Invalidate drops the parser handle while preserving configuration,
// spec.md §3's TranslationUnit invariant for "replacing file name or
// options invalidates."
func (t TranslationUnit) Invalidate() {
	if t.s == nil {
		return
	}
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	t.s.invalidateLocked()
}

func (s *state) invalidateLocked() {
	if s.handle != nil {
		s.handle.Dispose()
		s.handle = nil
	}
}

// RefCount reports the shared-reference count LiveUnits uses to decide
// whether cancel_tracking may drop an entry (spec.md §4.C).
func (t TranslationUnit) RefCount() int32 {
	if t.s == nil {
		return 0
	}
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	return t.s.refCount
}

// Retain/Release implement the shared-refcount wrapper spec.md §9
// describes ("a shared-reference-count wrapper around its configuration
// state"). LiveUnits calls Retain when handing an already-tracked TU to
// another consumer; that consumer calls Release when it is done.
func (t TranslationUnit) Retain() TranslationUnit {
	if t.s == nil {
		return t
	}
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	t.s.refCount++
	return t
}

func (t TranslationUnit) Release() {
	if t.s == nil {
		return
	}
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	if t.s.refCount > 0 {
		t.s.refCount--
	}
}

func stringsEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
