package nativeparser

import (
	"errors"
	"os"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/opencodeintel/tucore/internal/types"
)

// TU is the native parse handle of spec.md §4.A ("Reparse(tu, unsaved) ->
// bool", "Save(tu, path) -> bool"). It owns the parsed tree and the exact
// byte buffer it was parsed from; every Cursor derived from it borrows a
// reference to both rather than copying, so callers must serialize access
// the same way they would a CXTranslationUnit (component B's recursive
// mutex is what gives them that guarantee in practice).
type TU struct {
	index    *Index
	fileName string
	argv     []string
	pch      types.PCHHandle
	source   []byte
	tree     *sitter.Tree
	flags    ManagementFlags
}

// FileName returns the path this TU was parsed from.
func (tu *TU) FileName() string { return tu.fileName }

// Flags returns the ManagementFlags this TU was parsed with.
func (tu *TU) Flags() ManagementFlags { return tu.flags }

// Source returns the exact byte buffer this TU was parsed from, for
// callers (component G's line-range-to-offset conversion) that need to
// scan raw source without a dedicated native helper for it.
func (tu *TU) Source() []byte { return tu.source }

// Cursor returns the root cursor (the translation-unit cursor).
func (tu *TU) Cursor() Cursor {
	if tu.tree == nil {
		return NullCursor
	}
	root := tu.tree.RootNode()
	if root == nil {
		return NullCursor
	}
	return Cursor{tu: tu, node: root}
}

// textOf returns the exact source slice spanned by n, reading from this
// TU's own retained buffer. Every text-extraction helper in nodekind.go
// takes its source buffer as an explicit argument rather than reaching for
// package state, so this is the only place a *TU's bytes are dereferenced
// outside of Parse/Reparse themselves — there is no shared mutable buffer
// for concurrently-parsed TUs to race on.
func (tu *TU) textOf(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	return string(tu.source[n.StartByte():n.EndByte()])
}

// Reparse implements spec.md §4.A's "reparse(tu, unsaved) -> bool": the
// tree is rebuilt in place from either the supplied overlay or the file's
// current on-disk contents, reusing the previous tree as an incremental
// parse seed when tree-sitter can do so.
func (tu *TU) Reparse(unsaved types.UnsavedOverlay) (err error) {
	defer recoverInto(&err)

	source, rerr := resolveSource(tu.fileName, unsaved)
	if rerr != nil {
		return rerr // ReparseFailure: tu is left unchanged
	}

	parser := sitter.NewParser()
	if err := parser.SetLanguage(cppLanguage); err != nil {
		return err
	}
	defer parser.Close()

	newTree := parser.Parse(source, tu.tree)
	if newTree == nil {
		return errors.New("nativeparser: reparse produced no tree")
	}

	if tu.tree != nil {
		tu.tree.Close()
	}
	tu.tree = newTree
	tu.source = source
	return nil
}

// Save implements spec.md §4.A's "save(tu, path) -> bool". libclang
// serializes a reusable on-disk AST cache (a ".pch"-shaped blob); the
// tree-sitter backend has no equivalent opaque binary format, so this
// writes the tree's parenthesized S-expression dump, which is sufficient
// for the spec's contract (a file this package can later treat as "this
// TU was once saved here") without promising cross-run reparse-from-cache.
func (tu *TU) Save(path string) (err error) {
	defer recoverInto(&err)

	if tu.tree == nil {
		return errors.New("nativeparser: no parsed tree to save") // SaveFailure
	}
	dump := tu.tree.RootNode().String()
	return os.WriteFile(path, []byte(dump), 0o644)
}

// Dispose releases the native tree. Calling any other method on tu after
// Dispose is undefined, mirroring libclang's clang_disposeTranslationUnit
// contract; component B's value type never calls a method on a detached
// handle after it drops the last reference, so this is never raced against
// in practice.
func (tu *TU) Dispose() {
	if tu.tree != nil {
		tu.tree.Close()
		tu.tree = nil
	}
}

// IsLoaded reports whether this handle still has a parsed tree.
func (tu *TU) IsLoaded() bool { return tu.tree != nil }
