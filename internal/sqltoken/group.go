package sqltoken

import "fmt"

// group runs the grouping passes over the flat leaf tokens. Passes are
// ordered: parentheses first (they establish nesting), then functions,
// identifiers, comparisons and lists inside every nesting level, and
// finally the WHERE region at statement level.
func group(leaves []*Token) ([]*Token, error) {
	toks, err := groupParens(leaves)
	if err != nil {
		return nil, err
	}
	toks = walk(toks, groupFunctions)
	toks = walk(toks, groupIdentifiers)
	toks = walk(toks, groupComparisons)
	toks = walk(toks, groupLists)
	toks = groupWhere(toks)
	return toks, nil
}

// walk applies pass to the children of every nested group, innermost
// first, then to the slice itself.
func walk(toks []*Token, pass func([]*Token) []*Token) []*Token {
	for _, t := range toks {
		if len(t.Children) > 0 {
			t.Children = walk(t.Children, pass)
		}
	}
	return pass(toks)
}

// groupParens folds balanced ( ... ) runs into Parenthesis nodes. The
// paren punctuation itself is dropped; Value() re-renders it.
func groupParens(toks []*Token) ([]*Token, error) {
	var out []*Token
	for i := 0; i < len(toks); i++ {
		t := toks[i]
		if t.Kind != KindPunctuation || t.Text != "(" {
			if t.Kind == KindPunctuation && t.Text == ")" {
				return nil, fmt.Errorf("unbalanced parenthesis")
			}
			out = append(out, t)
			continue
		}
		depth := 1
		j := i + 1
		for ; j < len(toks); j++ {
			if toks[j].Kind != KindPunctuation {
				continue
			}
			switch toks[j].Text {
			case "(":
				depth++
			case ")":
				depth--
			}
			if depth == 0 {
				break
			}
		}
		if depth != 0 {
			return nil, fmt.Errorf("unbalanced parenthesis")
		}
		inner, err := groupParens(toks[i+1 : j])
		if err != nil {
			return nil, err
		}
		out = append(out, &Token{Kind: KindParenthesis, Children: inner})
		i = j
	}
	return out, nil
}

// groupFunctions folds a name directly followed by a parenthesis into a
// Function node. This also captures DDL shapes like "users (id INT)";
// consumers read those through FunctionName/FunctionArgs.
func groupFunctions(toks []*Token) []*Token {
	var out []*Token
	for i := 0; i < len(toks); i++ {
		t := toks[i]
		if t.Kind == KindIdentifier && len(t.Children) == 0 &&
			i+1 < len(toks) && toks[i+1].Kind == KindParenthesis {
			out = append(out, &Token{Kind: KindFunction, Children: []*Token{t, toks[i+1]}})
			i++
			continue
		}
		out = append(out, t)
	}
	return out
}

// groupIdentifiers folds qualified names (a.b) and AS aliases into a
// single Identifier group. Aliases directly after a Function are folded
// into the Function node instead.
func groupIdentifiers(toks []*Token) []*Token {
	var out []*Token
	for i := 0; i < len(toks); i++ {
		t := toks[i]
		switch {
		case t.Kind == KindIdentifier && len(t.Children) == 0:
			parts := []*Token{t}
			j := i + 1
			for j+1 < len(toks) && isDot(toks[j]) && toks[j+1].Kind == KindIdentifier {
				parts = append(parts, toks[j], toks[j+1])
				j += 2
			}
			if j+1 < len(toks) && toks[j].IsKeyword("AS") && toks[j+1].Kind == KindIdentifier {
				parts = append(parts, toks[j], toks[j+1])
				j += 2
			}
			if len(parts) == 1 {
				out = append(out, t)
			} else {
				out = append(out, &Token{Kind: KindIdentifier, Children: parts})
				i = j - 1
			}
		case t.Kind == KindFunction:
			if i+2 < len(toks) && toks[i+1].IsKeyword("AS") && toks[i+2].Kind == KindIdentifier {
				t.Children = append(t.Children, toks[i+1], toks[i+2])
				i += 2
			}
			out = append(out, t)
		default:
			out = append(out, t)
		}
	}
	return out
}

// groupComparisons folds <operand> <op> <operand> and the IS [NOT] NULL
// form into Comparison nodes.
func groupComparisons(toks []*Token) []*Token {
	var out []*Token
	for i := 0; i < len(toks); i++ {
		t := toks[i]
		if isOperand(t) {
			// field <op> value
			if i+2 < len(toks) && toks[i+1].Kind == KindOperator && isOperand(toks[i+2]) {
				out = append(out, &Token{Kind: KindComparison, Children: []*Token{t, toks[i+1], toks[i+2]}})
				i += 2
				continue
			}
			// field IS [NOT] NULL
			if i+2 < len(toks) && toks[i+1].IsKeyword("IS") {
				if toks[i+2].Kind == KindLiteral && toks[i+2].Text == "NULL" {
					out = append(out, &Token{Kind: KindComparison, Children: []*Token{t, toks[i+1], toks[i+2]}})
					i += 2
					continue
				}
				if i+3 < len(toks) && toks[i+2].IsKeyword("NOT") &&
					toks[i+3].Kind == KindLiteral && toks[i+3].Text == "NULL" {
					out = append(out, &Token{Kind: KindComparison,
						Children: []*Token{t, toks[i+1], toks[i+2], toks[i+3]}})
					i += 3
					continue
				}
			}
		}
		out = append(out, t)
	}
	return out
}

// groupLists folds comma-separated runs of list-able tokens into an
// IdentifierList. The commas are kept as children so that flattened
// token order survives (DDL consumers depend on it).
func groupLists(toks []*Token) []*Token {
	var out []*Token
	for i := 0; i < len(toks); i++ {
		t := toks[i]
		if !listable(t) {
			out = append(out, t)
			continue
		}
		members := []*Token{t}
		j := i + 1
		for j+1 < len(toks) && isComma(toks[j]) && listable(toks[j+1]) {
			members = append(members, toks[j], toks[j+1])
			j += 2
		}
		if len(members) == 1 {
			out = append(out, t)
			continue
		}
		out = append(out, &Token{Kind: KindIdentifierList, Children: members})
		i = j - 1
	}
	return out
}

// groupWhere folds the WHERE region into a single node spanning up to
// ORDER, GROUP, HAVING, LIMIT or the end of the statement.
func groupWhere(toks []*Token) []*Token {
	var out []*Token
	for i := 0; i < len(toks); i++ {
		t := toks[i]
		if !t.IsKeyword("WHERE") {
			out = append(out, t)
			continue
		}
		members := []*Token{t}
		j := i + 1
		for ; j < len(toks); j++ {
			c := toks[j]
			if c.IsKeyword("ORDER") || c.IsKeyword("GROUP") || c.IsKeyword("HAVING") || c.IsKeyword("LIMIT") {
				break
			}
			if c.Kind == KindPunctuation && c.Text == ";" {
				break
			}
			members = append(members, c)
		}
		out = append(out, &Token{Kind: KindWhere, Children: members})
		i = j - 1
	}
	return out
}

func isDot(t *Token) bool {
	return t.Kind == KindPunctuation && t.Text == "."
}

func isComma(t *Token) bool {
	return t.Kind == KindPunctuation && t.Text == ","
}

func isOperand(t *Token) bool {
	switch t.Kind {
	case KindIdentifier, KindLiteral, KindFunction:
		return true
	default:
		return false
	}
}

func listable(t *Token) bool {
	switch t.Kind {
	case KindIdentifier, KindLiteral, KindFunction, KindComparison:
		return true
	default:
		return false
	}
}
