package fql

// Null is the wire null value.
func Null() Expr {
	return literal{nil}
}

// Value wraps a Go literal as an expression.
func Value(v any) Expr {
	return wrap(v)
}

// Collection references a collection by name.
func Collection(name string) Expr {
	return call("collection", name)
}

// Index references an index by name.
func Index(name string) Expr {
	return call("index", name)
}

// Ref builds a document reference within a collection.
func Ref(collection Expr, id string) Expr {
	return call("ref", collection, "id", id)
}

// Match builds the set of index entries, optionally narrowed by terms.
func Match(index Expr, terms ...any) Expr {
	if len(terms) == 0 {
		return call("match", index)
	}
	if len(terms) == 1 {
		return call("match", index, "terms", terms[0])
	}
	return call("match", index, "terms", Arr(terms...))
}

// Singleton builds a set containing one document reference.
func Singleton(ref Expr) Expr {
	return call("singleton", ref)
}

// Get reads the document behind a reference.
func Get(ref Expr) Expr {
	return call("get", ref)
}

// Var references a lambda binding.
func Var(name string) Expr {
	return call("var", name)
}

// Lambda builds an anonymous function. Bindings is either a single
// parameter name or a list of names for tuple destructuring.
func Lambda(bindings any, body Expr) Expr {
	return call("lambda", bindings, "expr", body)
}

// Binding is one named value of a Let.
type Binding struct {
	Name  string
	Value any
}

// Let binds named values, in order, for use in the body via Var.
func Let(bindings []Binding, in Expr) Expr {
	defs := make(arr, 0, len(bindings))
	for _, b := range bindings {
		defs = append(defs, fn{keys: []string{b.Name}, vals: []Expr{wrap(b.Value)}})
	}
	return call("let", defs, "in", in)
}

// Bind is a convenience for a single-binding Let.
func Bind(name string, value any, in Expr) Expr {
	return Let([]Binding{{Name: name, Value: value}}, in)
}

// Select extracts a value at path from an expression, with a default
// when the path is absent.
func Select(path []any, from Expr, fallback Expr) Expr {
	return call("select", Arr(path...), "from", from, "default", fallback)
}

// SelectStrict extracts a value at path, failing when absent.
func SelectStrict(path []any, from Expr) Expr {
	return call("select", Arr(path...), "from", from)
}

// Map applies a lambda to every member of a collection or page.
func Map(collection Expr, lam Expr) Expr {
	return call("map", lam, "collection", collection)
}

// Filter keeps the members for which the lambda returns true.
func Filter(collection Expr, lam Expr) Expr {
	return call("filter", lam, "collection", collection)
}

// Paginate materializes a set as a page of at most size entries.
func Paginate(set Expr, size int) Expr {
	return call("paginate", set, "size", size)
}

// Intersection builds the set intersection.
func Intersection(sets ...Expr) Expr {
	return call("intersection", arr(sets))
}

// Union builds the set union.
func Union(sets ...Expr) Expr {
	return call("union", arr(sets))
}

// Join maps each member of source through a lambda producing sets and
// unions the results.
func Join(source Expr, with Expr) Expr {
	return call("join", source, "with", with)
}

// Range narrows a set to entries between from and to, inclusive.
func Range(set Expr, from Expr, to Expr) Expr {
	return call("range", set, "from", from, "to", to)
}

// Reverse flips the order of a set or page.
func Reverse(set Expr) Expr {
	return call("reverse", set)
}

// Distinct removes duplicate entries from a set.
func Distinct(set Expr) Expr {
	return call("distinct", set)
}

// Count counts the members of a set.
func Count(set Expr) Expr {
	return call("count", set)
}

// IsNonEmpty reports whether a set has at least one member.
func IsNonEmpty(set Expr) Expr {
	return call("is_nonempty", set)
}

// Not negates a boolean expression.
func Not(x Expr) Expr {
	return call("not", x)
}

// Equals compares expressions for equality.
func Equals(a, b Expr) Expr {
	return call("equals", arr{a, b})
}

// If branches on a boolean condition.
func If(cond, then, els Expr) Expr {
	return call("if", cond, "then", then, "else", els)
}

// Create inserts a document into a collection.
func Create(collection Expr, params Expr) Expr {
	return call("create", collection, "params", params)
}

// Update patches the document behind a reference. Fields set to null
// are removed.
func Update(ref Expr, params Expr) Expr {
	return call("update", ref, "params", params)
}

// Delete removes the document behind a reference.
func Delete(ref Expr) Expr {
	return call("delete", ref)
}

// CreateCollection creates a collection.
func CreateCollection(params Expr) Expr {
	return call("create_collection", params)
}

// CreateIndexQ creates an index. The Q suffix keeps the constructor
// clear of the statement type of the same name.
func CreateIndexQ(params Expr) Expr {
	return call("create_index", params)
}

// Exists reports whether the referenced resource exists.
func Exists(ref Expr) Expr {
	return call("exists", ref)
}

// Do evaluates expressions in order and yields the last result.
func Do(exprs ...Expr) Expr {
	return call("do", arr(exprs))
}
