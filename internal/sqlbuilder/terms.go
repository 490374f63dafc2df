// Package sqlbuilder provides a small SQL expression and SELECT statement
// builder. Terms are opaque expression atoms that can be wrapped with an
// alias or combined with arithmetic; SelectQuery assembles them into a
// deterministic statement rendered with a dialect-supplied quote character.
package sqlbuilder

import (
	"strconv"
	"strings"
)

// Term is a renderable SQL expression fragment.
type Term interface {
	SQL(quote string) string
}

// Column is a bare column reference, rendered quoted.
type Column struct {
	Name string
}

func (c Column) SQL(quote string) string { return quoteName(c.Name, quote) }

// Qualified is a column reference qualified by a table or subquery alias.
type Qualified struct {
	Qualifier string
	Name      string
}

func (q Qualified) SQL(quote string) string {
	return quoteName(q.Qualifier, quote) + "." + quoteName(q.Name, quote)
}

// Raw is a verbatim SQL fragment. The builder never inspects or escapes it.
type Raw struct {
	Text string
}

func (r Raw) SQL(string) string { return r.Text }

// StringLiteral renders as a single-quoted SQL string.
type StringLiteral struct {
	Value string
}

func (s StringLiteral) SQL(string) string {
	return "'" + strings.ReplaceAll(s.Value, "'", "''") + "'"
}

// NumberLiteral renders as a bare integer literal.
type NumberLiteral struct {
	Value int
}

func (n NumberLiteral) SQL(string) string { return strconv.Itoa(n.Value) }

// Aliased wraps a term with a column alias, rendered without AS.
type Aliased struct {
	Term  Term
	Alias string
}

func (a Aliased) SQL(quote string) string {
	return a.Term.SQL(quote) + " " + quoteName(a.Alias, quote)
}

// Arith combines two terms with a binary arithmetic operator, rendered
// without surrounding whitespace.
type Arith struct {
	Op    string
	Left  Term
	Right Term
}

func (a Arith) SQL(quote string) string {
	return a.Left.SQL(quote) + a.Op + a.Right.SQL(quote)
}

// Func is a function call over zero or more argument terms.
type Func struct {
	Name string
	Args []Term
}

func (f Func) SQL(quote string) string {
	args := make([]string, len(f.Args))
	for i, a := range f.Args {
		args[i] = a.SQL(quote)
	}
	return f.Name + "(" + strings.Join(args, ",") + ")"
}

// Equals is a join predicate between two terms, rendered without
// whitespace around the operator.
type Equals struct {
	Left  Term
	Right Term
}

func (e Equals) SQL(quote string) string {
	return e.Left.SQL(quote) + "=" + e.Right.SQL(quote)
}

func quoteName(name, quote string) string {
	if quote == "" {
		return name
	}
	return quote + name + quote
}
