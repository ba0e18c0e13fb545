// Package fqlgen builds FQL expressions from validated statement
// models. Every SQL statement kind maps to one expression tree; the
// trees only reference indexes that follow the package's naming
// convention, so the generated queries and the DDL that provisions
// the indexes stay in agreement by construction.
package fqlgen

import (
	"fmt"
)

// IndexType selects one of the index shapes the generator provisions
// and queries.
type IndexType int

const (
	// IndexAll covers every document of a collection.
	IndexAll IndexType = iota

	// IndexRef maps a foreign-key column's ref values back to the
	// documents holding them. It realizes the reverse join hop.
	IndexRef

	// IndexTerm matches documents by a column's exact value.
	IndexTerm

	// IndexValue emits (value, ref) tuples sorted by a column's value.
	// Ranges and ordering ride this shape.
	IndexValue
)

func (t IndexType) String() string {
	switch t {
	case IndexAll:
		return "all"
	case IndexRef:
		return "ref"
	case IndexTerm:
		return "term"
	case IndexValue:
		return "value"
	default:
		return fmt.Sprintf("IndexType(%d)", int(t))
	}
}

// ContractError reports an IndexName call that violates the naming
// contract. It indicates a generator bug, not bad user SQL, so it is
// distinct from the model's not-supported rejections.
type ContractError struct {
	Message string
}

func (e *ContractError) Error() string {
	return "index naming contract: " + e.Message
}

// IndexName derives the canonical index name for a table, an optional
// column, the index type and an optional foreign-key target.
//
//	users, "", All, ""              -> users_all
//	users, "", Ref, ""              -> users_ref
//	users, name, Term, ""           -> users_by_name_term
//	users, age, Value, ""           -> users_by_age_value
//	accounts, user_id, Ref, users   -> accounts_by_user_id_ref_to_users
//
// The column requires a type that uses it, a foreign-key target is
// only meaningful on a Ref index, and a Ref index over a column needs
// the foreign-key target to name the referenced table.
func IndexName(table, column string, typ IndexType, foreign string) (string, error) {
	switch {
	case column == "" && (typ == IndexTerm || typ == IndexValue):
		return "", &ContractError{Message: fmt.Sprintf(
			"a %s index on %q requires a column", typ, table)}
	case column != "" && typ == IndexAll:
		return "", &ContractError{Message: fmt.Sprintf(
			"an all index on %q cannot take column %q", table, column)}
	case foreign != "" && typ != IndexRef:
		return "", &ContractError{Message: fmt.Sprintf(
			"a %s index on %q cannot reference foreign table %q", typ, table, foreign)}
	case column != "" && typ == IndexRef && foreign == "":
		return "", &ContractError{Message: fmt.Sprintf(
			"a ref index on %q.%s requires the referenced table", table, column)}
	}

	if column == "" {
		return fmt.Sprintf("%s_%s", table, typ), nil
	}
	if foreign != "" {
		return fmt.Sprintf("%s_by_%s_ref_to_%s", table, column, foreign), nil
	}
	return fmt.Sprintf("%s_by_%s_%s", table, column, typ), nil
}

// mustIndexName is IndexName for call sites whose inputs are fixed by
// the generator itself.
func mustIndexName(table, column string, typ IndexType, foreign string) string {
	name, err := IndexName(table, column, typ, foreign)
	if err != nil {
		panic(err)
	}
	return name
}
