package types

// Language is the compile-standard family a ProjectPart's files are built
// with.
type Language uint8

const (
	LangC89 Language = iota
	LangC99
	LangCpp98
	LangCpp11
)

// QtVersion selects the moc-generated-signature pre-header injected during
// compile-option synthesis for ObjC/C++ parts built against Qt.
type QtVersion uint8

const (
	QtNone QtVersion = iota
	Qt4
	Qt5
)

// PCHHandle is the opaque artifact produced by the external precompile
// collaborator (spec.md §6 "PCH handle"). An empty handle means "no PCH";
// the core never mutates the referenced path.
type PCHHandle struct {
	Path string
}

func (h PCHHandle) Empty() bool {
	return h.Path == ""
}

// ProjectPart groups files that share one compilation configuration. The
// Indexer is initialized with a set of parts and the files belonging to
// each (internal/indexer.Indexer.AddFile).
type ProjectPart struct {
	Name            string
	Language        Language
	ObjC            bool
	QtVersion       QtVersion
	Defines         []string // "#define NAME VAL" lines, verbatim
	IncludePaths    []string
	FrameworkPaths  []string
	PCH             PCHHandle
	ExcludeGlobs    []string // doublestar patterns excluded from this part's scan
}
