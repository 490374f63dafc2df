package blend

import (
	"blendql/internal/database"
	"blendql/internal/domain"
	"blendql/internal/sqlbuilder"
)

// Dataset is an immutable, table-backed catalog of fields compiled against
// one dialect adapter. Field order is declaration order.
type Dataset struct {
	table   string
	adapter database.Adapter
	fields  []*Field
	byKey   map[string]*Field
}

// NewDataset constructs a dataset owning the given fields. Field keys must
// be unique within the dataset, and a field may belong to only one dataset.
func NewDataset(table string, adapter database.Adapter, fields ...*Field) (*Dataset, error) {
	if table == "" {
		return nil, domain.ErrValidation("dataset table is required")
	}
	if adapter == nil {
		adapter = database.Generic{}
	}
	d := &Dataset{
		table:   table,
		adapter: adapter,
		fields:  make([]*Field, 0, len(fields)),
		byKey:   make(map[string]*Field, len(fields)),
	}
	for _, f := range fields {
		if f.IsComputed() {
			return nil, domain.ErrValidation("field %q: computed fields belong to blends, not datasets", f.key)
		}
		if f.owner != nil {
			return nil, domain.ErrValidation("field %q already belongs to dataset %q", f.key, f.owner.table)
		}
		if _, dup := d.byKey[f.key]; dup {
			return nil, domain.ErrConflict("duplicate field key %q in dataset %q", f.key, table)
		}
		f.owner = d
		d.fields = append(d.fields, f)
		d.byKey[f.key] = f
	}
	return d, nil
}

// Table returns the dataset's table reference.
func (d *Dataset) Table() string { return d.table }

// Adapter returns the dataset's dialect adapter.
func (d *Dataset) Adapter() database.Adapter { return d.adapter }

// Field returns the field registered under key.
func (d *Dataset) Field(key string) (*Field, error) {
	f, ok := d.byKey[key]
	if !ok {
		return nil, domain.ErrUnknownField("no field %q in dataset %q", key, d.table)
	}
	return f, nil
}

// MustField returns the field registered under key and panics if absent.
// Intended for statically-known keys in query construction.
func (d *Dataset) MustField(key string) *Field {
	f, err := d.Field(key)
	if err != nil {
		panic(err)
	}
	return f
}

// Fields returns the dataset's fields in declaration order.
func (d *Dataset) Fields() []*Field {
	out := make([]*Field, len(d.fields))
	copy(out, d.fields)
	return out
}

// Dimensions returns the groupable fields in declaration order.
func (d *Dataset) Dimensions() []*Field {
	var out []*Field
	for _, f := range d.fields {
		if !f.aggregate {
			out = append(out, f)
		}
	}
	return out
}

// Metrics returns the aggregated fields in declaration order.
func (d *Dataset) Metrics() []*Field {
	var out []*Field
	for _, f := range d.fields {
		if f.aggregate {
			out = append(out, f)
		}
	}
	return out
}

// SubqueryPlan is one dataset's compiled aggregate SELECT, before it is
// assigned a positional alias by the outer assembler.
type SubqueryPlan struct {
	Query    *sqlbuilder.SelectQuery
	Selected []*Field
	Grouped  bool
}

// CompileSubquery builds the dataset's aggregated SELECT over the requested
// fields: every field aliased with its sigil-prefixed key, GROUP BY and
// ORDER BY over the groupBy aliases in the given order. All fields must be
// owned by this dataset.
func (d *Dataset) CompileSubquery(requested, groupBy, orderBy []*Field) (*SubqueryPlan, error) {
	for _, set := range [][]*Field{requested, groupBy, orderBy} {
		for _, f := range set {
			if f.owner != d {
				return nil, domain.ErrForeignField("field %q does not belong to dataset %q", f.key, d.table)
			}
		}
	}

	q := sqlbuilder.NewSelect().From(sqlbuilder.Table{Name: d.table})
	for _, f := range requested {
		q.Select(sqlbuilder.Aliased{Term: f.def, Alias: f.Alias()})
	}
	for _, f := range groupBy {
		q.GroupBy(sqlbuilder.Column{Name: f.Alias()})
	}
	for _, f := range orderBy {
		q.OrderBy(sqlbuilder.Column{Name: f.Alias()})
	}
	return &SubqueryPlan{Query: q, Selected: requested, Grouped: len(groupBy) > 0}, nil
}
