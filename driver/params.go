package driver

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// bindParams substitutes ? placeholders with rendered SQL literals.
// Question marks inside string literals are left alone. The number of
// placeholders must match the number of params exactly.
func bindParams(sql string, params []any) (string, error) {
	if len(params) == 0 && !strings.ContainsRune(sql, '?') {
		return sql, nil
	}

	var out strings.Builder
	next := 0
	inString := false
	for _, r := range sql {
		switch {
		case r == '\'':
			// A doubled quote inside a string toggles twice, which
			// lands back inside the string, so plain toggling is
			// sufficient.
			inString = !inString
			out.WriteRune(r)
		case r == '?' && !inString:
			if next >= len(params) {
				return "", fmt.Errorf("statement has more placeholders than the %d params", len(params))
			}
			lit, err := renderLiteral(params[next])
			if err != nil {
				return "", err
			}
			out.WriteString(lit)
			next++
		default:
			out.WriteRune(r)
		}
	}
	if next < len(params) {
		return "", fmt.Errorf("%d params for %d placeholders", len(params), next)
	}
	return out.String(), nil
}

// renderLiteral renders one parameter as a SQL literal.
func renderLiteral(v any) (string, error) {
	switch t := v.(type) {
	case nil:
		return "NULL", nil
	case string:
		return "'" + strings.ReplaceAll(t, "'", "''") + "'", nil
	case bool:
		if t {
			return "TRUE", nil
		}
		return "FALSE", nil
	case int:
		return strconv.Itoa(t), nil
	case int64:
		return strconv.FormatInt(t, 10), nil
	case float64:
		s := strconv.FormatFloat(t, 'f', -1, 64)
		if !strings.ContainsAny(s, ".eE") {
			s += ".0"
		}
		return s, nil
	case time.Time:
		return "'" + t.UTC().Format(time.RFC3339) + "'", nil
	case []any:
		return renderList(t)
	case []string:
		items := make([]any, len(t))
		for i, s := range t {
			items[i] = s
		}
		return renderList(items)
	case []int:
		items := make([]any, len(t))
		for i, n := range t {
			items[i] = n
		}
		return renderList(items)
	default:
		return "", fmt.Errorf("cannot render %T as a SQL literal", v)
	}
}

func renderList(items []any) (string, error) {
	parts := make([]string, len(items))
	for i, item := range items {
		lit, err := renderLiteral(item)
		if err != nil {
			return "", err
		}
		parts[i] = lit
	}
	return "(" + strings.Join(parts, ", ") + ")", nil
}
