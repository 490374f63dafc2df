// Package database defines the dialect adapter contract consumed by datasets.
// Adapters translate dialect-specific capabilities (identifier quoting, date
// truncation, date arithmetic); they never open connections or execute
// anything. Execution is the caller's concern.
package database

import (
	"blendql/internal/domain"
	"blendql/internal/sqlbuilder"
)

// Supported date intervals for TruncDate and DateAdd.
const (
	IntervalHour    = "hour"
	IntervalDay     = "day"
	IntervalWeek    = "week"
	IntervalMonth   = "month"
	IntervalQuarter = "quarter"
	IntervalYear    = "year"
)

// Adapter is the fixed dialect contract. Implementations must be stateless
// and safe for concurrent use.
type Adapter interface {
	Name() string
	QuoteChar() string
	TruncDate(t sqlbuilder.Term, interval string) (sqlbuilder.Term, error)
	DateAdd(t sqlbuilder.Term, interval string, n int) (sqlbuilder.Term, error)
}

// ForName resolves an adapter by its registered name.
func ForName(name string) (Adapter, error) {
	switch name {
	case "", "generic":
		return Generic{}, nil
	case "vertica":
		return Vertica{}, nil
	case "postgres":
		return Postgres{}, nil
	case "mysql":
		return MySQL{}, nil
	}
	return nil, domain.ErrValidation("unknown database adapter %q", name)
}

func validInterval(interval string) bool {
	switch interval {
	case IntervalHour, IntervalDay, IntervalWeek, IntervalMonth, IntervalQuarter, IntervalYear:
		return true
	}
	return false
}
