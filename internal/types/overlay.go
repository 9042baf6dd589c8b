package types

// UnsavedOverlay maps a file path to its current in-editor byte contents,
// for files open in the editor but not yet written to disk. It is passed
// by value (a shallow copy of the map header) into every parse/reparse/
// complete call; callers must not mutate a shared overlay's byte slices
// after handing it to a parser call.
type UnsavedOverlay map[string][]byte

// Get returns the overlay contents for path and whether an entry exists.
func (o UnsavedOverlay) Get(path string) ([]byte, bool) {
	b, ok := o[path]
	return b, ok
}

// Clone returns a shallow copy safe to extend without affecting the
// original overlay's key set.
func (o UnsavedOverlay) Clone() UnsavedOverlay {
	if o == nil {
		return nil
	}
	cp := make(UnsavedOverlay, len(o))
	for k, v := range o {
		cp[k] = v
	}
	return cp
}
