package database

// Dialect abstracts all database-specific SQL generation.
// Each database backend (SQLite, PostgreSQL) implements this interface.
// The Placeholder, IDColumn, and QuoteIdent methods match the
// query.QueryDialect interface through Go structural typing, so a Dialect
// can also serve as a QueryDialect.
type Dialect interface {
	// DriverName returns the database/sql driver name (e.g. "sqlite", "pgx").
	DriverName() string

	// DSN returns the data source name for opening a connection.
	DSN(pathOrConnStr string) string

	// Placeholder returns the parameter placeholder for the given 1-based index.
	// SQLite: "?" (ignoring index), PostgreSQL: "$1", "$2", etc.
	Placeholder(index int) string

	// IDColumn returns the insertion-order column name.
	IDColumn() string

	// QuoteIdent quotes a table or column name.
	QuoteIdent(name string) string

	// CreateTableSQL returns the DDL for an event table with one TEXT column
	// per name plus the ID column.
	CreateTableSQL(table string, columns []string) string

	// DropTableSQL returns the DDL that removes table if it exists.
	DropTableSQL(table string) string

	// InsertRowSQL returns the parameterized INSERT for one row.
	InsertRowSQL(table string, columns []string) string

	// SanitizeValue adapts a value for storage.
	SanitizeValue(s string) interface{}
}
