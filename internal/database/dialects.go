package database

import (
	"fmt"
	"strings"

	"blendql/internal/domain"
	"blendql/internal/sqlbuilder"
)

// Generic is a dialect-neutral adapter using ANSI double-quote identifiers
// and DATE_TRUNC.
type Generic struct{}

func (Generic) Name() string      { return "generic" }
func (Generic) QuoteChar() string { return `"` }

func (Generic) TruncDate(t sqlbuilder.Term, interval string) (sqlbuilder.Term, error) {
	if !validInterval(interval) {
		return nil, domain.ErrValidation("unknown date interval %q", interval)
	}
	return sqlbuilder.Func{
		Name: "DATE_TRUNC",
		Args: []sqlbuilder.Term{sqlbuilder.StringLiteral{Value: interval}, t},
	}, nil
}

func (Generic) DateAdd(t sqlbuilder.Term, interval string, n int) (sqlbuilder.Term, error) {
	if !validInterval(interval) {
		return nil, domain.ErrValidation("unknown date interval %q", interval)
	}
	return sqlbuilder.Func{
		Name: "TIMESTAMPADD",
		Args: []sqlbuilder.Term{
			sqlbuilder.StringLiteral{Value: interval},
			sqlbuilder.NumberLiteral{Value: n},
			t,
		},
	}, nil
}

// Vertica truncates with TRUNC and Vertica's format codes and adds dates
// with TIMESTAMPADD.
type Vertica struct{}

var verticaTruncCodes = map[string]string{
	IntervalHour:    "HH",
	IntervalDay:     "DD",
	IntervalWeek:    "IW",
	IntervalMonth:   "MM",
	IntervalQuarter: "Q",
	IntervalYear:    "Y",
}

func (Vertica) Name() string      { return "vertica" }
func (Vertica) QuoteChar() string { return `"` }

func (Vertica) TruncDate(t sqlbuilder.Term, interval string) (sqlbuilder.Term, error) {
	code, ok := verticaTruncCodes[interval]
	if !ok {
		return nil, domain.ErrValidation("unknown date interval %q", interval)
	}
	return sqlbuilder.Func{
		Name: "TRUNC",
		Args: []sqlbuilder.Term{t, sqlbuilder.StringLiteral{Value: code}},
	}, nil
}

func (Vertica) DateAdd(t sqlbuilder.Term, interval string, n int) (sqlbuilder.Term, error) {
	if !validInterval(interval) {
		return nil, domain.ErrValidation("unknown date interval %q", interval)
	}
	return sqlbuilder.Func{
		Name: "TIMESTAMPADD",
		Args: []sqlbuilder.Term{
			sqlbuilder.StringLiteral{Value: interval},
			sqlbuilder.NumberLiteral{Value: n},
			t,
		},
	}, nil
}

// Postgres truncates with DATE_TRUNC and adds dates with interval
// arithmetic.
type Postgres struct{}

func (Postgres) Name() string      { return "postgres" }
func (Postgres) QuoteChar() string { return `"` }

func (Postgres) TruncDate(t sqlbuilder.Term, interval string) (sqlbuilder.Term, error) {
	if !validInterval(interval) {
		return nil, domain.ErrValidation("unknown date interval %q", interval)
	}
	return sqlbuilder.Func{
		Name: "DATE_TRUNC",
		Args: []sqlbuilder.Term{sqlbuilder.StringLiteral{Value: interval}, t},
	}, nil
}

func (Postgres) DateAdd(t sqlbuilder.Term, interval string, n int) (sqlbuilder.Term, error) {
	if !validInterval(interval) {
		return nil, domain.ErrValidation("unknown date interval %q", interval)
	}
	return sqlbuilder.Arith{
		Op:    "+",
		Left:  t,
		Right: sqlbuilder.Raw{Text: fmt.Sprintf("INTERVAL '%d %s'", n, interval)},
	}, nil
}

// MySQL quotes identifiers with backticks and adds dates with DATE_ADD.
type MySQL struct{}

func (MySQL) Name() string      { return "mysql" }
func (MySQL) QuoteChar() string { return "`" }

func (MySQL) TruncDate(t sqlbuilder.Term, interval string) (sqlbuilder.Term, error) {
	if !validInterval(interval) {
		return nil, domain.ErrValidation("unknown date interval %q", interval)
	}
	// MySQL has no DATE_TRUNC; the closest portable shape for the grains the
	// engine uses is TIMESTAMP(DATE_FORMAT(...)) per grain format.
	format, ok := mysqlTruncFormats[interval]
	if !ok {
		return nil, domain.ErrValidation("date interval %q is not supported on mysql", interval)
	}
	return sqlbuilder.Func{
		Name: "TIMESTAMP",
		Args: []sqlbuilder.Term{sqlbuilder.Func{
			Name: "DATE_FORMAT",
			Args: []sqlbuilder.Term{t, sqlbuilder.StringLiteral{Value: format}},
		}},
	}, nil
}

var mysqlTruncFormats = map[string]string{
	IntervalHour:  "%Y-%m-%d %H:00:00",
	IntervalDay:   "%Y-%m-%d 00:00:00",
	IntervalMonth: "%Y-%m-01",
	IntervalYear:  "%Y-01-01",
}

func (MySQL) DateAdd(t sqlbuilder.Term, interval string, n int) (sqlbuilder.Term, error) {
	if !validInterval(interval) {
		return nil, domain.ErrValidation("unknown date interval %q", interval)
	}
	return sqlbuilder.Func{
		Name: "DATE_ADD",
		Args: []sqlbuilder.Term{
			t,
			sqlbuilder.Raw{Text: fmt.Sprintf("INTERVAL %d %s", n, strings.ToUpper(interval))},
		},
	}, nil
}
