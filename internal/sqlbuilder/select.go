package sqlbuilder

import "strings"

// FromItem is a source in a FROM clause: a table or an aliased subquery.
type FromItem interface {
	fromSQL(quote string) string
}

// Table references a physical table by name. A dotted name is treated as a
// schema-qualified reference and each part is quoted separately.
type Table struct {
	Name string
}

func (t Table) fromSQL(quote string) string {
	parts := strings.Split(t.Name, ".")
	for i, p := range parts {
		parts[i] = quoteName(p, quote)
	}
	return strings.Join(parts, ".")
}

// Subquery is a nested SELECT with a mandatory alias.
type Subquery struct {
	Query *SelectQuery
	Alias string
}

func (s Subquery) fromSQL(quote string) string {
	return "(" + s.Query.SQL(quote) + ") " + quoteName(s.Alias, quote)
}

// Join is an inner join onto a FROM source with ANDed equality predicates.
type Join struct {
	Source FromItem
	On     []Equals
}

// SelectQuery assembles SELECT/FROM/JOIN/GROUP BY/ORDER BY clauses into a
// single statement. Clause ordering follows insertion order throughout, so
// rendering is deterministic.
type SelectQuery struct {
	selects []Term
	from    []FromItem
	joins   []Join
	groupBy []Term
	orderBy []Term
}

// NewSelect creates an empty SelectQuery.
func NewSelect() *SelectQuery {
	return &SelectQuery{}
}

// Select appends projection terms.
func (s *SelectQuery) Select(terms ...Term) *SelectQuery {
	s.selects = append(s.selects, terms...)
	return s
}

// From appends a FROM source. Multiple sources render comma-separated as an
// unconstrained cross term.
func (s *SelectQuery) From(items ...FromItem) *SelectQuery {
	s.from = append(s.from, items...)
	return s
}

// Join appends an inner join with its ON predicates.
func (s *SelectQuery) Join(source FromItem, on ...Equals) *SelectQuery {
	s.joins = append(s.joins, Join{Source: source, On: on})
	return s
}

// GroupBy appends grouping terms.
func (s *SelectQuery) GroupBy(terms ...Term) *SelectQuery {
	s.groupBy = append(s.groupBy, terms...)
	return s
}

// OrderBy appends ordering terms.
func (s *SelectQuery) OrderBy(terms ...Term) *SelectQuery {
	s.orderBy = append(s.orderBy, terms...)
	return s
}

// SQL renders the statement using the given identifier quote character.
func (s *SelectQuery) SQL(quote string) string {
	var b strings.Builder

	b.WriteString("SELECT ")
	for i, t := range s.selects {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString(t.SQL(quote))
	}

	b.WriteString(" FROM ")
	for i, f := range s.from {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString(f.fromSQL(quote))
	}

	for _, j := range s.joins {
		b.WriteString(" JOIN ")
		b.WriteString(j.Source.fromSQL(quote))
		b.WriteString(" ON ")
		for i, p := range j.On {
			if i > 0 {
				b.WriteString(" AND ")
			}
			b.WriteString(p.SQL(quote))
		}
	}

	if len(s.groupBy) > 0 {
		b.WriteString(" GROUP BY ")
		for i, t := range s.groupBy {
			if i > 0 {
				b.WriteString(",")
			}
			b.WriteString(t.SQL(quote))
		}
	}

	if len(s.orderBy) > 0 {
		b.WriteString(" ORDER BY ")
		for i, t := range s.orderBy {
			if i > 0 {
				b.WriteString(",")
			}
			b.WriteString(t.SQL(quote))
		}
	}

	return b.String()
}
