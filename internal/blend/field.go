// Package blend implements the dataset blending and query assembly engine.
//
// Datasets are immutable catalogs of typed fields bound to one table and one
// dialect adapter. A Blend composes one primary and N secondary datasets with
// per-secondary join mappings and exposes a unified field namespace. Query
// compilation aggregates each participating dataset in its own subquery,
// joins the subqueries on the resolved mappings, and rewrites every outward
// field reference to the owning subquery's positional alias. Compilation is
// a pure transform: no I/O, no shared mutable state, deterministic output.
package blend

import "blendql/internal/sqlbuilder"

// DataType enumerates the value types a field can carry.
type DataType string

const (
	Date    DataType = "date"
	Number  DataType = "number"
	Text    DataType = "text"
	Boolean DataType = "boolean"
)

// AliasSigil prefixes every field key to form its column alias, both in
// subquery SELECT lists and in all outer references.
const AliasSigil = "$"

// Field is a single named, typed SQL-expression column. A plain field
// belongs to exactly one dataset; a computed field references fields from
// any participating dataset of a blend and owns nothing.
type Field struct {
	key       string
	label     string
	def       sqlbuilder.Term
	expr      Expr
	dataType  DataType
	aggregate bool
	owner     *Dataset
}

// Dimension creates a groupable field from an SQL expression term.
func Dimension(key, label string, def sqlbuilder.Term, dt DataType) *Field {
	return &Field{key: key, label: label, def: def, dataType: dt}
}

// Metric creates an aggregated field from an SQL expression term.
func Metric(key, label string, def sqlbuilder.Term, dt DataType) *Field {
	return &Field{key: key, label: label, def: def, dataType: dt, aggregate: true}
}

// Computed creates a blended field whose definition is an expression over
// fields from one or more datasets. Its aggregate flag is derived: true when
// any referenced field is a metric.
func Computed(key, label string, def Expr, dt DataType) *Field {
	f := &Field{key: key, label: label, expr: def, dataType: dt}
	for _, leaf := range leaves(def) {
		if leaf.aggregate {
			f.aggregate = true
			break
		}
	}
	return f
}

// Key returns the field's key, unique within its owning dataset.
func (f *Field) Key() string { return f.key }

// Label returns the display label.
func (f *Field) Label() string { return f.label }

// DataType returns the field's value type.
func (f *Field) DataType() DataType { return f.dataType }

// IsAggregate reports whether the field is a metric.
func (f *Field) IsAggregate() bool { return f.aggregate }

// Alias returns the sigil-prefixed column alias used for this field in every
// compiled statement.
func (f *Field) Alias() string { return AliasSigil + f.key }

// IsComputed reports whether the field is a composite over other fields.
func (f *Field) IsComputed() bool { return f.expr != nil }

// Expr is an arithmetic expression over fields. A *Field is itself an Expr
// leaf; Add, Sub, Mul, and Div combine expressions.
type Expr interface {
	exprLeaves(acc []*Field) []*Field
	exprTerm(resolve func(*Field) sqlbuilder.Term) sqlbuilder.Term
}

func (f *Field) exprLeaves(acc []*Field) []*Field {
	if f.expr != nil {
		return f.expr.exprLeaves(acc)
	}
	return append(acc, f)
}

func (f *Field) exprTerm(resolve func(*Field) sqlbuilder.Term) sqlbuilder.Term {
	if f.expr != nil {
		return f.expr.exprTerm(resolve)
	}
	return resolve(f)
}

type arith struct {
	op    string
	left  Expr
	right Expr
}

func (a arith) exprLeaves(acc []*Field) []*Field {
	return a.right.exprLeaves(a.left.exprLeaves(acc))
}

func (a arith) exprTerm(resolve func(*Field) sqlbuilder.Term) sqlbuilder.Term {
	return sqlbuilder.Arith{Op: a.op, Left: a.left.exprTerm(resolve), Right: a.right.exprTerm(resolve)}
}

// Add combines two expressions with addition.
func Add(l, r Expr) Expr { return arith{op: "+", left: l, right: r} }

// Sub combines two expressions with subtraction.
func Sub(l, r Expr) Expr { return arith{op: "-", left: l, right: r} }

// Mul combines two expressions with multiplication.
func Mul(l, r Expr) Expr { return arith{op: "*", left: l, right: r} }

// Div combines two expressions with division.
func Div(l, r Expr) Expr { return arith{op: "/", left: l, right: r} }

// leaves collects the plain fields referenced by an expression, in
// left-to-right order.
func leaves(e Expr) []*Field {
	return e.exprLeaves(nil)
}
