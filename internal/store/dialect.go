package store

import (
	"context"
	"database/sql"
)

// Dialect covers everything that differs between the two supported
// backends: placeholder style, DDL, time and aggregate expressions,
// array encoding and driver error shapes. Query code goes through this
// interface and never switches on the driver name itself.
type Dialect interface {
	// Name is "postgres" or "sqlite"; DriverName is what sql.Open wants.
	Name() string
	DriverName() string

	// Placeholder renders the 1-based parameter placeholder. Most code
	// uses a ParamBuilder instead and never tracks indices by hand.
	Placeholder(index int) string
	NewParamBuilder() ParamBuilder

	// NowExpr is the SQL expression for the current timestamp.
	NowExpr() string

	// SystemTablesSQL is the idempotent DDL for the system tables.
	SystemTablesSQL() string
	TableExists(ctx context.Context, db *sql.DB, tableName string) (bool, error)

	// IntervalDeleteExpr renders "col older than N days" with days bound
	// through pb.
	IntervalDeleteExpr(createdAtCol string, pb ParamBuilder, days string) string

	// ArrayParam encodes a string slice for a bind parameter: the slice
	// itself on postgres (TEXT[]), a JSON string on sqlite. ScanArray is
	// the inverse for values coming back from a row.
	ArrayParam(values []string) any
	ScanArray(src any) ([]string, error)

	// FilterCountExpr counts rows matching condition inside an aggregate
	// query.
	FilterCountExpr(condition string) string

	// SyncCommitOff relaxes commit durability inside a transaction, or
	// "" when the backend has no such toggle.
	SyncCommitOff() string

	// SupportsPercentile reports whether PercentileExpr works; when it
	// does not, callers compute percentiles themselves.
	SupportsPercentile() bool
	PercentileExpr(pct float64, orderCol string) string

	// MapError turns driver errors into the store's sentinel errors
	// where it can. Unknown errors pass through.
	MapError(err error) error

	// NeedsBoolFix reports that boolean columns come back as integers
	// and need NormalizeBooleans.
	NeedsBoolFix() bool
}

// ParamBuilder accumulates bind parameters while a query string is being
// assembled. Add hands back the placeholder to splice into the SQL.
type ParamBuilder interface {
	Add(v any) string
	Params() []any
}

// NewDialect returns the Dialect for a driver name. Anything that is not
// sqlite gets postgres, the default backend.
func NewDialect(driver string) Dialect {
	if driver == "sqlite" {
		return &SQLiteDialect{}
	}
	return &PostgresDialect{}
}

// paramBuilder implements ParamBuilder for both backends; the dialect
// supplies its placeholder style.
type paramBuilder struct {
	placeholder func(int) string
	params      []any
}

func (p *paramBuilder) Add(v any) string {
	p.params = append(p.params, v)
	return p.placeholder(len(p.params))
}

func (p *paramBuilder) Params() []any { return p.params }
