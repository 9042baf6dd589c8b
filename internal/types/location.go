// Package types holds the data model shared by every component of the
// code-intelligence core: source locations, symbols, diagnostics, markers,
// and completion results. Nothing in here touches the native parser or any
// index storage — it is pure value types plus their documented invariants.
package types

import "fmt"

// SourceLocation identifies a byte position in a source file. Line and
// Column are 1-based; Offset is a 0-based byte position. A null location
// has an empty FileName and all-zero numeric fields.
type SourceLocation struct {
	FileName string
	Line     int
	Column   int
	Offset   int
}

// IsNull reports whether this is the null location.
func (l SourceLocation) IsNull() bool {
	return l.FileName == ""
}

func (l SourceLocation) String() string {
	if l.IsNull() {
		return "<null location>"
	}
	return fmt.Sprintf("%s:%d:%d", l.FileName, l.Line, l.Column)
}

// Less orders locations by (line, column); used for symbol-table and
// marker ordering where FileName is already fixed by the caller's scope.
func (l SourceLocation) Less(other SourceLocation) bool {
	if l.Line != other.Line {
		return l.Line < other.Line
	}
	return l.Column < other.Column
}
