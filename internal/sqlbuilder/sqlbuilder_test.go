package sqlbuilder

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTermRendering(t *testing.T) {
	cases := []struct {
		name string
		term Term
		want string
	}{
		{"column", Column{Name: "state"}, `"state"`},
		{"qualified", Qualified{Qualifier: "sq0", Name: "$state"}, `"sq0"."$state"`},
		{"raw", Raw{Text: `SUM("votes")`}, `SUM("votes")`},
		{"string literal", StringLiteral{Value: "day"}, `'day'`},
		{"string literal escapes quotes", StringLiteral{Value: "o'brien"}, `'o''brien'`},
		{"number literal", NumberLiteral{Value: 7}, `7`},
		{"aliased without AS", Aliased{Term: Column{Name: "votes"}, Alias: "$votes"}, `"votes" "$votes"`},
		{
			"arithmetic without spaces",
			Arith{Op: "/", Left: Qualified{"sq0", "$a"}, Right: Qualified{"sq1", "$b"}},
			`"sq0"."$a"/"sq1"."$b"`,
		},
		{
			"nested arithmetic stays left-associative",
			Arith{Op: "/", Left: Arith{Op: "/", Left: Column{Name: "a"}, Right: Column{Name: "b"}}, Right: Column{Name: "c"}},
			`"a"/"b"/"c"`,
		},
		{
			"function call",
			Func{Name: "TRUNC", Args: []Term{Column{Name: "timestamp"}, StringLiteral{Value: "DD"}}},
			`TRUNC("timestamp",'DD')`,
		},
		{
			"equality without spaces",
			Equals{Left: Qualified{"sq0", "$a"}, Right: Qualified{"sq1", "$b"}},
			`"sq0"."$a"="sq1"."$b"`,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.term.SQL(`"`))
		})
	}
}

func TestQuoteCharVariants(t *testing.T) {
	c := Column{Name: "state"}
	assert.Equal(t, "`state`", c.SQL("`"))
	assert.Equal(t, "state", c.SQL(""))
}

func TestSelectQueryRendering(t *testing.T) {
	q := NewSelect().
		Select(Aliased{Term: Column{Name: "state"}, Alias: "$state"}).
		Select(Aliased{Term: Raw{Text: `SUM("votes")`}, Alias: "$votes"}).
		From(Table{Name: "politics.politician"}).
		GroupBy(Column{Name: "$state"}).
		OrderBy(Column{Name: "$state"})

	assert.Equal(t,
		`SELECT "state" "$state",SUM("votes") "$votes" `+
			`FROM "politics"."politician" `+
			`GROUP BY "$state" ORDER BY "$state"`,
		q.SQL(`"`))
}

func TestSelectQueryJoinsAndCrossTerms(t *testing.T) {
	sq0 := NewSelect().Select(Column{Name: "a"}).From(Table{Name: "test0"})
	sq1 := NewSelect().Select(Column{Name: "b"}).From(Table{Name: "test1"})
	sq2 := NewSelect().Select(Column{Name: "c"}).From(Table{Name: "test2"})

	q := NewSelect().
		Select(Qualified{"sq0", "a"}).
		From(Subquery{Query: sq0, Alias: "sq0"}).
		From(Subquery{Query: sq2, Alias: "sq2"}).
		Join(Subquery{Query: sq1, Alias: "sq1"},
			Equals{Left: Qualified{"sq0", "a"}, Right: Qualified{"sq1", "b"}},
			Equals{Left: Qualified{"sq0", "a"}, Right: Qualified{"sq1", "c"}},
		)

	assert.Equal(t,
		`SELECT "sq0"."a" `+
			`FROM (SELECT "a" FROM "test0") "sq0",(SELECT "c" FROM "test2") "sq2" `+
			`JOIN (SELECT "b" FROM "test1") "sq1" `+
			`ON "sq0"."a"="sq1"."b" AND "sq0"."a"="sq1"."c"`,
		q.SQL(`"`))
}
