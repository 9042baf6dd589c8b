package types

// SymbolKind classifies a Symbol. The zero value is Unknown.
type SymbolKind uint8

const (
	KindUnknown SymbolKind = iota
	KindEnum
	KindClass
	KindMethod
	KindFunction
	KindDeclaration
	KindConstructor
	KindDestructor
)

func (k SymbolKind) String() string {
	switch k {
	case KindEnum:
		return "Enum"
	case KindClass:
		return "Class"
	case KindMethod:
		return "Method"
	case KindFunction:
		return "Function"
	case KindDeclaration:
		return "Declaration"
	case KindConstructor:
		return "Constructor"
	case KindDestructor:
		return "Destructor"
	default:
		return "Unknown"
	}
}

// Symbol is a named, qualified, located entity collected by the indexer.
// Qualification is the "::"-joined chain of enclosing namespaces/records,
// excluding the symbol's own name.
//
// Two Symbols are equal iff every field matches.
type Symbol struct {
	Name          string
	Qualification string
	Kind          SymbolKind
	Location      SourceLocation
}

// Equals implements the spec's four-field equality invariant.
func (s Symbol) Equals(other Symbol) bool {
	return s.Name == other.Name &&
		s.Qualification == other.Qualification &&
		s.Kind == other.Kind &&
		s.Location == other.Location
}

// QualifiedName renders "qualification::name", or just "name" when there is
// no enclosing scope.
func (s Symbol) QualifiedName() string {
	if s.Qualification == "" {
		return s.Name
	}
	return s.Qualification + "::" + s.Name
}

// CompositeKey is the (file, kind, qualification, name) tuple the Symbol
// Database uses to decide insert-vs-update in insert_symbol.
type CompositeKey struct {
	File          string
	Kind          SymbolKind
	Qualification string
	Name          string
}

func (s Symbol) Key() CompositeKey {
	return CompositeKey{
		File:          s.Location.FileName,
		Kind:          s.Kind,
		Qualification: s.Qualification,
		Name:          s.Name,
	}
}
