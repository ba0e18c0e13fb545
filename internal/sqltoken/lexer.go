package sqltoken

import (
	"fmt"
	"strings"

	"github.com/alecthomas/participle/v2/lexer"
	"golang.org/x/text/unicode/norm"
)

// sqlLexer defines the raw token types. Grouping into the tree happens
// afterwards, so the rules stay flat and order-sensitive (longest
// operators first).
var sqlLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "String", Pattern: `'(?:''|[^'])*'`},
	{Name: "Number", Pattern: `-?\d+(?:\.\d+)?`},
	{Name: "Operator", Pattern: `<=|>=|<>|!=|=|<|>`},
	{Name: "Star", Pattern: `\*`},
	{Name: "Dot", Pattern: `\.`},
	{Name: "Comma", Pattern: `,`},
	{Name: "LParen", Pattern: `\(`},
	{Name: "RParen", Pattern: `\)`},
	{Name: "Semicolon", Pattern: `;`},
	{Name: "QuotedIdent", Pattern: `"[^"]*"`},
	{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_]*`},
	{Name: "Whitespace", Pattern: `\s+`},
})

// symbolNames maps participle token types back to rule names.
var symbolNames = func() map[lexer.TokenType]string {
	names := make(map[lexer.TokenType]string, len(sqlLexer.Symbols()))
	for name, typ := range sqlLexer.Symbols() {
		names[typ] = name
	}
	return names
}()

// keywords are the reserved words this tokenizer recognizes. Anything
// else lexed as Ident stays an identifier, which keeps function names
// like count or sum out of the keyword space.
var keywords = map[string]bool{
	"SELECT": true, "FROM": true, "WHERE": true, "JOIN": true, "INNER": true,
	"LEFT": true, "RIGHT": true, "OUTER": true, "ON": true, "AND": true,
	"OR": true, "NOT": true, "AS": true, "ORDER": true, "GROUP": true,
	"BY": true, "ASC": true, "DESC": true, "LIMIT": true, "OFFSET": true,
	"HAVING": true, "DISTINCT": true, "INSERT": true, "INTO": true,
	"VALUES": true, "UPDATE": true, "SET": true, "DELETE": true,
	"CREATE": true, "TABLE": true, "INDEX": true, "UNIQUE": true,
	"ALTER": true, "COLUMN": true, "DROP": true, "ADD": true,
	"RENAME": true, "TO": true, "TYPE": true, "DEFAULT": true,
	"PRIMARY": true, "KEY": true, "FOREIGN": true, "REFERENCES": true,
	"CONSTRAINT": true, "CHECK": true, "IS": true, "IN": true,
	"BETWEEN": true, "LIKE": true, "USING": true,
}

// Tokenize lexes and groups one SQL statement into a token tree rooted
// at a KindStatement node.
func Tokenize(sql string) (*Token, error) {
	leaves, err := lex(sql)
	if err != nil {
		return nil, err
	}
	if len(leaves) == 0 {
		return nil, fmt.Errorf("empty statement")
	}
	children, err := group(leaves)
	if err != nil {
		return nil, err
	}
	return &Token{Kind: KindStatement, Children: children}, nil
}

// lex produces the flat leaf tokens for the grouping passes.
func lex(sql string) ([]*Token, error) {
	lx, err := sqlLexer.LexString("", sql)
	if err != nil {
		return nil, fmt.Errorf("lex sql: %w", err)
	}
	var out []*Token
	for {
		raw, err := lx.Next()
		if err != nil {
			return nil, fmt.Errorf("lex sql: %w", err)
		}
		if raw.EOF() {
			return out, nil
		}
		tok, keep := classify(symbolNames[raw.Type], raw.Value)
		if keep {
			out = append(out, tok)
		}
	}
}

// classify maps one raw lexer token to a leaf tree token. Whitespace is
// dropped here.
func classify(symbol, value string) (*Token, bool) {
	switch symbol {
	case "Whitespace":
		return nil, false
	case "String", "Number":
		return &Token{Kind: KindLiteral, Text: value}, true
	case "Operator":
		return &Token{Kind: KindOperator, Text: value}, true
	case "Star":
		return &Token{Kind: KindWildcard, Text: "*"}, true
	case "Dot", "Comma", "Semicolon", "LParen", "RParen":
		return &Token{Kind: KindPunctuation, Text: value}, true
	case "QuotedIdent":
		name := norm.NFC.String(strings.Trim(value, `"`))
		return &Token{Kind: KindIdentifier, Text: name}, true
	case "Ident":
		upper := strings.ToUpper(value)
		switch {
		case upper == "TRUE" || upper == "FALSE" || upper == "NULL":
			return &Token{Kind: KindLiteral, Text: upper}, true
		case keywords[upper]:
			return &Token{Kind: KindKeyword, Text: upper}, true
		default:
			return &Token{Kind: KindIdentifier, Text: norm.NFC.String(value)}, true
		}
	default:
		return &Token{Kind: KindPunctuation, Text: value}, true
	}
}
