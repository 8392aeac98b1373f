package query

import "strings"

// QueryDialect abstracts SQL syntax differences needed for query building.
// Each database backend provides an implementation. The default is SQLite.
type QueryDialect interface {
	// Placeholder returns the parameter placeholder for the given 1-based index.
	// SQLite returns "?" (ignoring the index), PostgreSQL returns "$1", "$2", etc.
	Placeholder(index int) string

	// IDColumn returns the name of the column that records insertion order.
	IDColumn() string

	// QuoteIdent quotes a table or column name.
	QuoteIdent(name string) string
}

// sqliteQueryDialect is the default dialect, producing SQLite-compatible SQL.
type sqliteQueryDialect struct{}

func (d sqliteQueryDialect) Placeholder(index int) string  { return "?" }
func (d sqliteQueryDialect) IDColumn() string              { return "daybook_row" }
func (d sqliteQueryDialect) QuoteIdent(name string) string { return QuoteIdent(name) }

// DefaultDialect is the query dialect used when none is explicitly set.
var DefaultDialect QueryDialect = sqliteQueryDialect{}

// QuoteIdent wraps name in double quotes, doubling any embedded quotes.
// Both SQLite and PostgreSQL accept this form.
func QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
