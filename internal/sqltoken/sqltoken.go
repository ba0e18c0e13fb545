// Package sqltoken turns raw SQL text into a generic, kind-discriminated
// token tree.
//
// The tree is deliberately loose: it groups tokens the way a SQL reader
// would (identifiers with their qualifiers and aliases, comparisons,
// parenthesized groups, the WHERE region) without imposing a statement
// grammar. Consumers are expected to use only the narrow query surface
// (FirstOfKind, NextOfKind, TokensOfKind, keyword matching and text
// rendering) so that the concrete shape of the tree stays private to
// this package.
//
// Raw lexing is delegated to github.com/alecthomas/participle/v2/lexer;
// the grouping passes in group.go assemble the flat token stream into
// the tree.
package sqltoken

import "strings"

// Kind discriminates token-tree nodes.
type Kind int

const (
	// KindStatement is the root node of one tokenized statement.
	KindStatement Kind = iota

	// KindKeyword is a reserved word (SELECT, FROM, AND, ...). Text is
	// stored uppercase.
	KindKeyword

	// KindIdentifier is a (possibly qualified, possibly aliased) name.
	// A bare name is a leaf; "users.name AS n" is a group whose children
	// are the leaf parts, the dot punctuation and the AS keyword.
	KindIdentifier

	// KindIdentifierList is a comma-separated sequence of identifiers,
	// literals, functions or comparisons. Comma punctuation is kept as
	// children so the original token order can be reconstructed.
	KindIdentifierList

	// KindFunction is a name directly followed by a parenthesized group,
	// e.g. count(users.id). An AS alias, when present, is appended to
	// the children.
	KindFunction

	// KindParenthesis is a balanced ( ... ) group.
	KindParenthesis

	// KindComparison is <operand> <operator> <operand>, or the
	// IS [NOT] NULL form.
	KindComparison

	// KindWhere spans the WHERE keyword up to (not including) ORDER,
	// GROUP, HAVING, LIMIT or the end of the statement.
	KindWhere

	// KindLiteral is a string, number, TRUE, FALSE or NULL.
	KindLiteral

	// KindOperator is a comparison operator leaf (=, <, >=, <>, ...).
	KindOperator

	// KindPunctuation is a dot, comma or semicolon leaf.
	KindPunctuation

	// KindWildcard is the * token.
	KindWildcard
)

// Token is one node of the token tree. Leaves carry Text; groups carry
// Children (and an empty Text).
type Token struct {
	Kind     Kind
	Text     string
	Children []*Token
}

// FirstOfKind returns the first direct child of the given kind and its
// index, or (nil, -1).
func (t *Token) FirstOfKind(k Kind) (*Token, int) {
	return t.NextOfKind(k, 0)
}

// NextOfKind returns the first direct child of the given kind at or
// after index from, or (nil, -1).
func (t *Token) NextOfKind(k Kind, from int) (*Token, int) {
	for i := from; i < len(t.Children); i++ {
		if t.Children[i].Kind == k {
			return t.Children[i], i
		}
	}
	return nil, -1
}

// TokensOfKind returns all direct children of the given kind.
func (t *Token) TokensOfKind(k Kind) []*Token {
	var out []*Token
	for _, c := range t.Children {
		if c.Kind == k {
			out = append(out, c)
		}
	}
	return out
}

// NextKeyword returns the first keyword child matching any of the given
// words at or after index from, or (nil, -1).
func (t *Token) NextKeyword(from int, words ...string) (*Token, int) {
	for i := from; i < len(t.Children); i++ {
		c := t.Children[i]
		if c.Kind != KindKeyword {
			continue
		}
		for _, w := range words {
			if c.Text == strings.ToUpper(w) {
				return c, i
			}
		}
	}
	return nil, -1
}

// IsKeyword reports whether the token is the given keyword
// (case-insensitive).
func (t *Token) IsKeyword(word string) bool {
	return t.Kind == KindKeyword && t.Text == strings.ToUpper(word)
}

// Items returns the non-punctuation children of a group. For an
// IdentifierList this is the list of elements without the commas.
func (t *Token) Items() []*Token {
	var out []*Token
	for _, c := range t.Children {
		if c.Kind == KindPunctuation {
			continue
		}
		out = append(out, c)
	}
	return out
}

// Parts returns the dotted name parts of an identifier, excluding any
// alias. A leaf identifier yields its own text as the single part.
func (t *Token) Parts() []string {
	if t.Kind != KindIdentifier {
		return nil
	}
	if len(t.Children) == 0 {
		return []string{t.Text}
	}
	var parts []string
	for _, c := range t.Children {
		if c.IsKeyword("AS") {
			break
		}
		if c.Kind == KindIdentifier {
			parts = append(parts, c.Text)
		}
	}
	return parts
}

// Alias returns the AS alias of an identifier or function group, or ""
// when none was written.
func (t *Token) Alias() string {
	if t.Kind != KindIdentifier && t.Kind != KindFunction {
		return ""
	}
	for i, c := range t.Children {
		if c.IsKeyword("AS") && i+1 < len(t.Children) {
			return t.Children[i+1].Text
		}
	}
	return ""
}

// FunctionName returns the lowercased name of a function group. It also
// accepts the name-plus-parenthesis shape that DDL clauses such as
// REFERENCES users (id) produce.
func (t *Token) FunctionName() string {
	if t.Kind != KindFunction || len(t.Children) == 0 {
		return ""
	}
	return strings.ToLower(t.Children[0].Text)
}

// FunctionArgs returns the argument tokens of a function group (the
// items of its parenthesized child).
func (t *Token) FunctionArgs() []*Token {
	if t.Kind != KindFunction {
		return nil
	}
	paren, _ := t.FirstOfKind(KindParenthesis)
	if paren == nil {
		return nil
	}
	return paren.Items()
}

// Segments splits the direct children of a group on comma punctuation,
// expanding any IdentifierList children inline first. DDL consumers use
// this to walk column definitions regardless of how list grouping
// happened to fall.
func (t *Token) Segments() [][]*Token {
	var flat []*Token
	for _, c := range t.Children {
		if c.Kind == KindIdentifierList {
			flat = append(flat, c.Children...)
			continue
		}
		flat = append(flat, c)
	}
	var segs [][]*Token
	var cur []*Token
	for _, c := range flat {
		if isComma(c) {
			segs = append(segs, cur)
			cur = nil
			continue
		}
		cur = append(cur, c)
	}
	if len(cur) > 0 {
		segs = append(segs, cur)
	}
	return segs
}

// Value renders the token subtree back to SQL-ish text. It is used for
// diagnostics, not round-tripping: whitespace is normalized.
func (t *Token) Value() string {
	if len(t.Children) == 0 {
		return t.Text
	}
	var b strings.Builder
	for i, c := range t.Children {
		text := c.Value()
		if i > 0 && joinsTight(t.Children[i-1], c) {
			// No space around dots or before commas.
			b.WriteString(text)
			continue
		}
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(text)
	}
	switch t.Kind {
	case KindParenthesis:
		return "(" + b.String() + ")"
	case KindFunction:
		// Name and parenthesis render without an inner space.
		return strings.Replace(b.String(), " (", "(", 1)
	default:
		return b.String()
	}
}

func joinsTight(prev, cur *Token) bool {
	if prev.Kind == KindPunctuation && prev.Text == "." {
		return true
	}
	if cur.Kind == KindPunctuation && (cur.Text == "." || cur.Text == "," || cur.Text == ";") {
		return true
	}
	return false
}
