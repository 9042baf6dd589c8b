package nativeparser

import (
	"os"

	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_cpp "github.com/tree-sitter/tree-sitter-cpp/bindings/go"

	"github.com/opencodeintel/tucore/internal/types"
)

// Index is the opaque native-index handle of spec.md §4.A
// ("new_index(exclude_decls_from_pch, display_diagnostics) -> Index").
// libclang's CXIndex owns a shared PCH cache and a global diagnostic
// display switch; the tree-sitter grammar this binding wraps has neither,
// so both flags are recorded purely for interface parity. DisplayDiagnostics
// reads the display flag back; nothing in this package prints diagnostics
// or reads the PCH flag.
type Index struct {
	excludeDeclsFromPCH bool
	displayDiagnostics  bool
}

// NewIndex constructs an Index. Call nativeparser.InitProcess() once per
// process before the first NewIndex.
func NewIndex(excludeDeclsFromPCH, displayDiagnostics bool) *Index {
	return &Index{
		excludeDeclsFromPCH: excludeDeclsFromPCH,
		displayDiagnostics:  displayDiagnostics,
	}
}

func (idx *Index) DisplayDiagnostics() bool { return idx.displayDiagnostics }

// ManagementFlags mirrors libclang's CXTranslationUnit_* bitset (spec.md
// §3 TranslationUnit.management_flags).
type ManagementFlags uint32

const (
	FlagNone ManagementFlags = 0
	FlagDetailedPreprocessingRecord ManagementFlags = 1 << (iota - 1)
	FlagCacheCompletionResults
	FlagIncludeBriefCommentsInCodeCompletion
	FlagSkipFunctionBodies
)

// ParseInput bundles the per-TU parse configuration spec.md §3 lists on
// TranslationUnit: file name, ordered compile options, optional PCH, and
// the unsaved-buffer overlay.
type ParseInput struct {
	FileName string
	Argv     []string
	PCH      types.PCHHandle
	Unsaved  types.UnsavedOverlay
}

var cppLanguage = sitter.NewLanguage(tree_sitter_cpp.Language())

// resolveSource returns the bytes to parse: the unsaved overlay entry for
// FileName if present, otherwise the file's on-disk contents.
func resolveSource(fileName string, unsaved types.UnsavedOverlay) ([]byte, error) {
	if unsaved != nil {
		if b, ok := unsaved.Get(fileName); ok {
			return b, nil
		}
	}
	return os.ReadFile(fileName)
}

// Parse implements spec.md §4.A's "parse(index, file, argv, unsaved,
// flags) -> Option<TU>". A nil return (no error) means ParseFailure: the
// caller gets a non-loaded TU, never an exception (spec.md §7).
func (idx *Index) Parse(input ParseInput, flags ManagementFlags) (tu *TU, err error) {
	defer recoverInto(&err)

	source, rerr := resolveSource(input.FileName, input.Unsaved)
	if rerr != nil {
		return nil, nil // ParseFailure: caller sees a non-loaded TU
	}

	parser := sitter.NewParser()
	if err := parser.SetLanguage(cppLanguage); err != nil {
		return nil, nil
	}
	defer parser.Close()

	tree := parser.Parse(source, nil)
	if tree == nil {
		return nil, nil
	}

	return &TU{
		index:    idx,
		fileName: input.FileName,
		argv:     append([]string(nil), input.Argv...),
		pch:      input.PCH,
		source:   source,
		tree:     tree,
		flags:    flags,
	}, nil
}
