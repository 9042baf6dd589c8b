package indexer

import "github.com/opencodeintel/tucore/internal/types"

// query surface: spec.md §4.E's read-only accessors served directly from
// D, never triggering a parse. Each returns an empty slice while a
// StartLoading deserialize is in flight, rather than a partial view of a
// store that is still being rebuilt.

func (ix *Indexer) AllFunctions() []types.Symbol {
	if ix.IsLoading() {
		return nil
	}
	return ix.db.SymbolsOfKind(types.KindFunction)
}

func (ix *Indexer) AllClasses() []types.Symbol {
	if ix.IsLoading() {
		return nil
	}
	return ix.db.SymbolsOfKind(types.KindClass)
}

func (ix *Indexer) AllMethods() []types.Symbol {
	if ix.IsLoading() {
		return nil
	}
	return ix.db.SymbolsOfKind(types.KindMethod)
}

func (ix *Indexer) AllConstructors() []types.Symbol {
	if ix.IsLoading() {
		return nil
	}
	return ix.db.SymbolsOfKind(types.KindConstructor)
}

func (ix *Indexer) AllDestructors() []types.Symbol {
	if ix.IsLoading() {
		return nil
	}
	return ix.db.SymbolsOfKind(types.KindDestructor)
}

// FunctionsInFile, ClassesInFile, etc. narrow the corresponding All* query
// to one file, still served from D without parsing.

func (ix *Indexer) FunctionsInFile(file string) []types.Symbol {
	return ix.symbolsInFileOfKind(file, types.KindFunction)
}

func (ix *Indexer) ClassesInFile(file string) []types.Symbol {
	return ix.symbolsInFileOfKind(file, types.KindClass)
}

func (ix *Indexer) MethodsInFile(file string) []types.Symbol {
	return ix.symbolsInFileOfKind(file, types.KindMethod)
}

func (ix *Indexer) ConstructorsInFile(file string) []types.Symbol {
	return ix.symbolsInFileOfKind(file, types.KindConstructor)
}

func (ix *Indexer) DestructorsInFile(file string) []types.Symbol {
	return ix.symbolsInFileOfKind(file, types.KindDestructor)
}

func (ix *Indexer) symbolsInFileOfKind(file string, kind types.SymbolKind) []types.Symbol {
	if ix.IsLoading() {
		return nil
	}
	return ix.db.SymbolsInFileOfKind(file, kind)
}

// AllFromFile returns every symbol D holds for file, regardless of kind.
func (ix *Indexer) AllFromFile(file string) []types.Symbol {
	if ix.IsLoading() {
		return nil
	}
	return ix.db.AllFromFile(file)
}
