package nativeparser

import (
	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/opencodeintel/tucore/internal/types"
)

// TokenKind mirrors libclang's CXTokenKind.
type TokenKind uint8

const (
	TokenPunctuation TokenKind = iota
	TokenKeyword
	TokenIdentifier
	TokenLiteral
	TokenComment
)

// Token is a single lexical token produced by Tokenize, carrying enough to
// re-locate it (Extent) and later pair it with a Cursor via AnnotateTokens.
type Token struct {
	Kind     TokenKind
	Spelling string
	Start    int
	End      int
	node     *sitter.Node
}

func (t Token) Location(tu *TU) types.SourceLocation {
	if tu == nil {
		return types.SourceLocation{}
	}
	pos := t.node.StartPosition()
	return types.SourceLocation{
		FileName: tu.fileName,
		Line:     int(pos.Row) + 1,
		Column:   int(pos.Column) + 1,
		Offset:   t.Start,
	}
}

var keywordSet = map[string]struct{}{
	"alignas": {}, "alignof": {}, "and": {}, "asm": {}, "auto": {}, "bool": {},
	"break": {}, "case": {}, "catch": {}, "char": {}, "class": {}, "const": {},
	"constexpr": {}, "continue": {}, "default": {}, "delete": {}, "do": {},
	"double": {}, "else": {}, "enum": {}, "explicit": {}, "export": {},
	"extern": {}, "false": {}, "final": {}, "float": {}, "for": {}, "friend": {},
	"goto": {}, "if": {}, "inline": {}, "int": {}, "long": {}, "mutable": {},
	"namespace": {}, "new": {}, "noexcept": {}, "nullptr": {}, "operator": {},
	"override": {}, "private": {}, "protected": {}, "public": {}, "register": {},
	"return": {}, "short": {}, "signed": {}, "sizeof": {}, "static": {},
	"struct": {}, "switch": {}, "template": {}, "this": {}, "throw": {},
	"true": {}, "try": {}, "typedef": {}, "typename": {}, "union": {},
	"unsigned": {}, "using": {}, "virtual": {}, "void": {}, "volatile": {},
	"while": {},
}

// Tokenize implements spec.md §4.A's "tokenize(tu, range) -> Tokens": a flat
// leaf-token scan over the byte range [startOffset, endOffset), classified
// by grammar node kind the same way libclang classifies by lexer category.
func Tokenize(tu *TU, startOffset, endOffset int) []Token {
	if tu == nil || tu.tree == nil {
		return nil
	}
	var tokens []Token
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if n == nil {
			return
		}
		start, end := int(n.StartByte()), int(n.EndByte())
		if end <= startOffset || start >= endOffset {
			return
		}
		if n.ChildCount() == 0 {
			tokens = append(tokens, Token{
				Kind:     classifyToken(n, tu.source),
				Spelling: tu.textOf(n),
				Start:    start,
				End:      end,
				node:     n,
			})
			return
		}
		for i := uint(0); i < n.ChildCount(); i++ {
			walk(n.Child(i))
		}
	}
	walk(tu.tree.RootNode())
	return tokens
}

func classifyToken(n *sitter.Node, source []byte) TokenKind {
	switch n.Kind() {
	case "comment":
		return TokenComment
	case "identifier", "field_identifier", "type_identifier", "namespace_identifier":
		text := string(source[n.StartByte():n.EndByte()])
		if _, ok := keywordSet[text]; ok {
			return TokenKeyword
		}
		return TokenIdentifier
	case "number_literal", "string_literal", "char_literal", "raw_string_literal", "true", "false":
		return TokenLiteral
	}
	text := string(source[n.StartByte():n.EndByte()])
	if _, ok := keywordSet[text]; ok {
		return TokenKeyword
	}
	return TokenPunctuation
}

// IdentifierTokens filters to TokenIdentifier per spec.md §4.G step 2
// ("keep only tokens of kind Identifier").
func IdentifierTokens(tokens []Token) []Token {
	out := make([]Token, 0, len(tokens))
	for _, t := range tokens {
		if t.Kind == TokenIdentifier {
			out = append(out, t)
		}
	}
	return out
}

// AnnotateTokens implements spec.md §4.A's "annotate_tokens(tu, tokens) ->
// Cursors": one batch lookup pairing each token with the smallest AST node
// whose extent contains it, playing the libclang cursor-for-token role.
func AnnotateTokens(tu *TU, tokens []Token) []Cursor {
	if tu == nil || tu.tree == nil {
		return make([]Cursor, len(tokens))
	}
	out := make([]Cursor, len(tokens))
	root := tu.tree.RootNode()
	for i, t := range tokens {
		out[i] = Cursor{tu: tu, node: smallestEnclosing(root, t.Start, t.End)}
	}
	return out
}

func smallestEnclosing(n *sitter.Node, start, end int) *sitter.Node {
	if n == nil {
		return nil
	}
	if int(n.StartByte()) > start || int(n.EndByte()) < end {
		return nil
	}
	best := n
	for i := uint(0); i < n.ChildCount(); i++ {
		if found := smallestEnclosing(n.Child(i), start, end); found != nil {
			best = found
		}
	}
	return best
}
