package blend

import (
	"strconv"

	"blendql/internal/domain"
	"blendql/internal/sqlbuilder"
)

// Query is a request against a dataset or a blend: grouping dimensions plus
// the output fields a downstream widget requires. Dataset and Blend values
// stay immutable; the Query builder itself is a private working value.
type Query struct {
	dataset *Dataset
	blend   *Blend
	dims    []*Field
	outputs []*Field
}

// Query starts a query against the dataset alone.
func (d *Dataset) Query() *Query {
	return &Query{dataset: d}
}

// Query starts a query against the blend.
func (b *Blend) Query() *Query {
	return &Query{blend: b}
}

// Dimension appends grouping dimensions in declaration order.
func (q *Query) Dimension(fields ...*Field) *Query {
	q.dims = append(q.dims, fields...)
	return q
}

// Select appends requested output fields in declaration order.
func (q *Query) Select(fields ...*Field) *Query {
	q.outputs = append(q.outputs, fields...)
	return q
}

// Compiled is a ready-to-execute statement plus its output column aliases,
// dimensions first, in declared order.
type Compiled struct {
	Statement string
	Columns   []string
}

// Statements compiles the query into its executable statements. The engine
// always emits exactly one; the slice is the seam for reference and
// comparison queries that require several.
func (q *Query) Statements() ([]string, error) {
	c, err := q.Compile()
	if err != nil {
		return nil, err
	}
	return []string{c.Statement}, nil
}

// Compile builds the final statement. Compilation is deterministic: the same
// query over the same definitions yields byte-identical SQL.
func (q *Query) Compile() (*Compiled, error) {
	if len(q.outputs) == 0 {
		return nil, domain.ErrMetricRequired("the query requests no output fields")
	}
	if q.blend != nil {
		return q.compileBlend()
	}
	return q.compileDataset()
}

// compileDataset handles the single-dataset case: one aggregated SELECT, no
// subquery wrapping.
func (q *Query) compileDataset() (*Compiled, error) {
	d := q.dataset
	requested := newFieldSet()
	for _, f := range q.dims {
		if f.owner != d {
			return nil, domain.ErrForeignField("field %q does not belong to dataset %q", f.key, d.table)
		}
		requested.add(f)
	}
	for _, f := range q.outputs {
		if f.IsComputed() {
			return nil, domain.ErrForeignField("computed field %q requires a blend", f.key)
		}
		if f.owner != d {
			return nil, domain.ErrForeignField("field %q does not belong to dataset %q", f.key, d.table)
		}
		requested.add(f)
	}

	dims := dedupFields(q.dims)
	plan, err := d.CompileSubquery(requested.ordered, dims, dims)
	if err != nil {
		return nil, err
	}
	return &Compiled{
		Statement: plan.Query.SQL(d.adapter.QuoteChar()),
		Columns:   fieldAliases(requested.ordered),
	}, nil
}

// compileBlend runs the full pipeline: mapping resolution, per-dataset
// subquery compilation, and outer assembly.
func (q *Query) compileBlend() (*Compiled, error) {
	b := q.blend

	for _, f := range q.dims {
		if f.IsComputed() {
			return nil, domain.ErrValidation("computed field %q cannot be used as a dimension", f.key)
		}
		if !b.participates(f.owner) {
			return nil, domain.ErrForeignField("field %q does not belong to any dataset in the blend", f.key)
		}
	}
	for _, f := range q.outputs {
		if f.IsComputed() {
			for _, leaf := range leaves(f.expr) {
				if !b.participates(leaf.owner) {
					return nil, domain.ErrInvalidMapping("field %q references field %q outside the blend", f.key, leaf.key)
				}
			}
			continue
		}
		if !b.participates(f.owner) {
			return nil, domain.ErrForeignField("field %q does not belong to any dataset in the blend", f.key)
		}
	}

	dims := dedupFields(q.dims)
	mappings := q.resolveMappings(dims)

	plans, err := q.compileSubqueries(dims, mappings)
	if err != nil {
		return nil, err
	}
	return q.assembleOuter(dims, plans, mappings)
}

// resolveMappings fixes each secondary's join pairs for this query. Explicit
// pairs pass through untouched; inferred mappings intersect the requested
// grouping dimensions of the primary with the secondary's dimensions by key.
func (q *Query) resolveMappings(dims []*Field) [][]MappedPair {
	b := q.blend
	out := make([][]MappedPair, len(b.secondaries))
	for i, sec := range b.secondaries {
		if !sec.inferred {
			out[i] = sec.pairs
			continue
		}
		var pairs []MappedPair
		for _, dim := range dims {
			if dim.owner != b.primary || dim.aggregate {
				continue
			}
			if sf, ok := sec.ds.byKey[dim.key]; ok && !sf.aggregate {
				pairs = append(pairs, MappedPair{Primary: dim, Secondary: sf})
			}
		}
		out[i] = pairs
	}
	return out
}

// compileSubqueries selects, per participating dataset, the fields it must
// expose: its requested dimensions and join keys (grouped and ordered), then
// the requested outputs and computed-field leaves it owns, in request order.
// Fields excluded from the namespace by a key collision are never requested
// here by construction.
func (q *Query) compileSubqueries(dims []*Field, mappings [][]MappedPair) ([]*SubqueryPlan, error) {
	b := q.blend
	datasets := b.Datasets()
	plans := make([]*SubqueryPlan, len(datasets))

	for pos, d := range datasets {
		dimSet := newFieldSet()
		if pos == 0 {
			for _, f := range dims {
				if f.owner == d {
					dimSet.add(f)
				}
			}
			for _, pairs := range mappings {
				for _, p := range pairs {
					dimSet.add(p.Primary)
				}
			}
		} else {
			for _, p := range mappings[pos-1] {
				dimSet.add(p.Secondary)
			}
			for _, f := range dims {
				if f.owner == d {
					dimSet.add(f)
				}
			}
		}

		selected := newFieldSet()
		for _, f := range dimSet.ordered {
			selected.add(f)
		}
		for _, out := range q.outputs {
			if out.IsComputed() {
				for _, leaf := range leaves(out.expr) {
					if leaf.owner == d {
						selected.add(leaf)
					}
				}
				continue
			}
			if out.owner == d {
				selected.add(out)
			}
		}

		plan, err := d.CompileSubquery(selected.ordered, dimSet.ordered, dimSet.ordered)
		if err != nil {
			return nil, err
		}
		plans[pos] = plan
	}
	return plans, nil
}

// assembleOuter stitches the compiled subqueries into the final statement:
// sq0 first, mapped secondaries joined against sq0, unmapped ones appended
// as bare cross terms, and every outward reference rewritten to the owning
// subquery's alias. Aggregation stays inside the subqueries, so the outer
// query carries no GROUP BY; it orders by the bare dimension aliases.
func (q *Query) assembleOuter(dims []*Field, plans []*SubqueryPlan, mappings [][]MappedPair) (*Compiled, error) {
	b := q.blend

	outer := sqlbuilder.NewSelect()
	outer.From(sqlbuilder.Subquery{Query: plans[0].Query, Alias: subqueryAlias(0)})
	for i, pairs := range mappings {
		sub := sqlbuilder.Subquery{Query: plans[i+1].Query, Alias: subqueryAlias(i + 1)}
		if len(pairs) == 0 {
			outer.From(sub)
			continue
		}
		on := make([]sqlbuilder.Equals, len(pairs))
		for j, p := range pairs {
			on[j] = sqlbuilder.Equals{
				Left:  sqlbuilder.Qualified{Qualifier: subqueryAlias(0), Name: p.Primary.Alias()},
				Right: sqlbuilder.Qualified{Qualifier: subqueryAlias(i + 1), Name: p.Secondary.Alias()},
			}
		}
		outer.Join(sub, on...)
	}

	resolve := func(f *Field) sqlbuilder.Term {
		return sqlbuilder.Qualified{Qualifier: subqueryAlias(b.position(f.owner)), Name: f.Alias()}
	}

	// Each requested field renders exactly once: dimensions first, then the
	// outputs that are not already listed as dimensions.
	listed := newFieldSet()
	columns := make([]string, 0, len(dims)+len(q.outputs))
	for _, f := range dims {
		listed.add(f)
		outer.Select(sqlbuilder.Aliased{Term: resolve(f), Alias: f.Alias()})
		columns = append(columns, f.Alias())
	}
	for _, f := range dedupFields(q.outputs) {
		if listed.seen[f] {
			continue
		}
		listed.add(f)
		if f.IsComputed() {
			outer.Select(sqlbuilder.Aliased{Term: f.expr.exprTerm(resolve), Alias: f.Alias()})
		} else {
			outer.Select(sqlbuilder.Aliased{Term: resolve(f), Alias: f.Alias()})
		}
		columns = append(columns, f.Alias())
	}
	for _, f := range dims {
		outer.OrderBy(sqlbuilder.Column{Name: f.Alias()})
	}

	return &Compiled{
		Statement: outer.SQL(b.primary.adapter.QuoteChar()),
		Columns:   columns,
	}, nil
}

func subqueryAlias(pos int) string {
	return "sq" + strconv.Itoa(pos)
}

// fieldSet is an insertion-ordered set of fields.
type fieldSet struct {
	ordered []*Field
	seen    map[*Field]bool
}

func newFieldSet() *fieldSet {
	return &fieldSet{seen: make(map[*Field]bool)}
}

func (s *fieldSet) add(f *Field) {
	if s.seen[f] {
		return
	}
	s.seen[f] = true
	s.ordered = append(s.ordered, f)
}

func dedupFields(fields []*Field) []*Field {
	set := newFieldSet()
	for _, f := range fields {
		set.add(f)
	}
	return set.ordered
}

func fieldAliases(fields []*Field) []string {
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = f.Alias()
	}
	return out
}
