// Package symboldb implements the Symbol Database of spec.md §4.D: an
// append-only store of symbols with composite indices by file, by kind,
// and by unqualified name, binary serialize/deserialize, and staleness
// validation against on-disk file modification times.
package symboldb

import (
	"os"
	"sync"
	"time"

	art "github.com/plar/go-adaptive-radix-tree"
	"github.com/cespare/xxhash/v2"

	"github.com/opencodeintel/tucore/internal/types"
)

// handle is a stable symbol identifier: the xxhash of the symbol's
// composite key (file, kind, qualification, name). Because it is derived
// purely from that key, looking up "does a symbol with this composite key
// already exist" (spec.md §4.D's insert_symbol upsert rule) is just a map
// probe on handle, with no secondary by-key index needed.
type handle uint64

func handleFor(key types.CompositeKey) handle {
	h := xxhash.New()
	h.WriteString(key.File)
	h.Write([]byte{0, byte(key.Kind), 0})
	h.WriteString(key.Qualification)
	h.Write([]byte{0})
	h.WriteString(key.Name)
	return handle(h.Sum64())
}

// fileEntry is one file's slot in the top-level index: the kind+name tree
// used for (file,kind,name)/(file,kind) point lookups, the ordered handle
// list used for "all symbols in this file" and for O(#symbols in file)
// removal, and the staleness bookkeeping from spec.md §4.D/§4.E.
type fileEntry struct {
	names     art.Tree // key: kind byte + 0x00 + name -> handle
	handles   []handle // insertion order, for symbols(file)
	timestamp time.Time
	upToDate  bool
}

func newFileEntry() *fileEntry {
	return &fileEntry{names: art.New()}
}

// DB is the Symbol Database. All mutations run under mu (spec.md §5:
// "all mutations under a single mutex. Reads ... may run concurrently
// with each other but not with writes").
type DB struct {
	mu      sync.RWMutex
	symbols map[handle]*types.Symbol
	files   art.Tree // key: file name -> *fileEntry
}

// New constructs an empty Symbol Database.
func New() *DB {
	return &DB{
		symbols: make(map[handle]*types.Symbol),
		files:   art.New(),
	}
}

func (db *DB) fileEntryLocked(file string) (*fileEntry, bool) {
	v, ok := db.files.Search(art.Key(file))
	if !ok {
		return nil, false
	}
	return v.(*fileEntry), true
}

func (db *DB) ensureFileEntryLocked(file string) *fileEntry {
	if fe, ok := db.fileEntryLocked(file); ok {
		return fe
	}
	fe := newFileEntry()
	db.files.Insert(art.Key(file), fe)
	return fe
}

func nameKey(kind types.SymbolKind, name string) art.Key {
	key := make([]byte, 0, len(name)+2)
	key = append(key, byte(kind), 0)
	key = append(key, name...)
	return art.Key(key)
}

// InsertSymbol implements spec.md §4.D: "if a symbol with the same
// (file, kind, qualification, name) already exists, update its location
// in place; otherwise append. Track time_stamp as the file's most
// recent."
func (db *DB) InsertSymbol(sym types.Symbol, timestamp time.Time) {
	db.mu.Lock()
	defer db.mu.Unlock()

	key := sym.Key()
	h := handleFor(key)

	if existing, ok := db.symbols[h]; ok {
		existing.Location = sym.Location
	} else {
		stored := sym
		db.symbols[h] = &stored
		fe := db.ensureFileEntryLocked(sym.Location.FileName)
		fe.names.Insert(nameKey(sym.Kind, sym.Name), h)
		fe.handles = append(fe.handles, h)
	}

	fe := db.ensureFileEntryLocked(sym.Location.FileName)
	if timestamp.After(fe.timestamp) {
		fe.timestamp = timestamp
	}
}

// InsertFile implements spec.md §4.D: "register a file even when no
// symbols were extracted (so staleness tracking covers it)."
func (db *DB) InsertFile(file string, timestamp time.Time) {
	db.mu.Lock()
	defer db.mu.Unlock()
	fe := db.ensureFileEntryLocked(file)
	if timestamp.After(fe.timestamp) {
		fe.timestamp = timestamp
	}
}

// SetUpToDate marks file's up_to_date bit; the Indexer's batch fold sets
// it for every file it indexes.
func (db *DB) SetUpToDate(file string, upToDate bool) {
	db.mu.Lock()
	defer db.mu.Unlock()
	fe := db.ensureFileEntryLocked(file)
	fe.upToDate = upToDate
}

// IsUpToDate reports a tracked file's up_to_date bit; false if untracked.
func (db *DB) IsUpToDate(file string) bool {
	db.mu.RLock()
	defer db.mu.RUnlock()
	fe, ok := db.fileEntryLocked(file)
	return ok && fe.upToDate
}

// SymbolsInFile implements spec.md §4.D's `symbols(file)`.
func (db *DB) SymbolsInFile(file string) []types.Symbol {
	db.mu.RLock()
	defer db.mu.RUnlock()
	fe, ok := db.fileEntryLocked(file)
	if !ok {
		return nil
	}
	out := make([]types.Symbol, 0, len(fe.handles))
	for _, h := range fe.handles {
		if sym, ok := db.symbols[h]; ok {
			out = append(out, *sym)
		}
	}
	return out
}

// SymbolsInFileOfKind implements `symbols(file, kind)`.
func (db *DB) SymbolsInFileOfKind(file string, kind types.SymbolKind) []types.Symbol {
	var out []types.Symbol
	for _, sym := range db.SymbolsInFile(file) {
		if sym.Kind == kind {
			out = append(out, sym)
		}
	}
	return out
}

// SymbolNamed implements `symbols(file, kind, name)`.
func (db *DB) SymbolNamed(file string, kind types.SymbolKind, name string) []types.Symbol {
	db.mu.RLock()
	defer db.mu.RUnlock()
	fe, ok := db.fileEntryLocked(file)
	if !ok {
		return nil
	}
	v, ok := fe.names.Search(nameKey(kind, name))
	if !ok {
		return nil
	}
	sym, ok := db.symbols[v.(handle)]
	if !ok {
		return nil
	}
	return []types.Symbol{*sym}
}

// SymbolsOfKind implements `symbols(kind)`: derived by iterating by_file,
// per spec.md §4.D's "by_kind[kind] (derivable by iteration over by_file
// — may be materialized or lazy)".
func (db *DB) SymbolsOfKind(kind types.SymbolKind) []types.Symbol {
	db.mu.RLock()
	defer db.mu.RUnlock()
	var out []types.Symbol
	db.files.ForEach(func(node art.Node) bool {
		fe := node.Value().(*fileEntry)
		for _, h := range fe.handles {
			if sym, ok := db.symbols[h]; ok && sym.Kind == kind {
				out = append(out, *sym)
			}
		}
		return true
	})
	return out
}

// AllFromFile is the same as SymbolsInFile, named to match spec.md §4.E's
// query-surface vocabulary (`all_from_file(file)`).
func (db *DB) AllFromFile(file string) []types.Symbol { return db.SymbolsInFile(file) }

// RemoveFile implements spec.md §4.D: remove all three index entries plus
// the underlying storage slot, in O(#symbols in file).
func (db *DB) RemoveFile(file string) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.removeFileLocked(file)
}

func (db *DB) removeFileLocked(file string) {
	fe, ok := db.fileEntryLocked(file)
	if !ok {
		return
	}
	for _, h := range fe.handles {
		delete(db.symbols, h)
	}
	db.files.Delete(art.Key(file))
}

// RemoveFiles implements spec.md §4.D's `remove_files(files)`.
func (db *DB) RemoveFiles(files []string) {
	db.mu.Lock()
	defer db.mu.Unlock()
	for _, f := range files {
		db.removeFileLocked(f)
	}
}

// Clear implements spec.md §4.D's `clear()`.
func (db *DB) Clear() {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.symbols = make(map[handle]*types.Symbol)
	db.files = art.New()
}

// ContainsFile implements spec.md §4.D's `contains_file(file) -> bool`.
func (db *DB) ContainsFile(file string) bool {
	db.mu.RLock()
	defer db.mu.RUnlock()
	_, ok := db.fileEntryLocked(file)
	return ok
}

// Validate implements spec.md §4.D: "returns true iff the tracked
// timestamp is present AND not older than the file's on-disk modification
// time."
func (db *DB) Validate(file string) bool {
	db.mu.RLock()
	fe, ok := db.fileEntryLocked(file)
	db.mu.RUnlock()
	if !ok || fe.timestamp.IsZero() {
		return false
	}
	info, err := os.Stat(file)
	if err != nil {
		return false
	}
	return !fe.timestamp.Before(info.ModTime())
}

// FileCount returns the number of distinct tracked files.
func (db *DB) FileCount() int {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return db.files.Size()
}

// Files returns every tracked file name, in radix-tree key order. Used by
// the Indexer's search pass to enumerate the full symbol set without
// needing a second by-file index of its own.
func (db *DB) Files() []string {
	db.mu.RLock()
	defer db.mu.RUnlock()
	files := make([]string, 0, db.files.Size())
	db.files.ForEach(func(node art.Node) bool {
		files = append(files, string(node.Key()))
		return true
	})
	return files
}
