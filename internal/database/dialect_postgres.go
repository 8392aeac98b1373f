package database

import (
	"fmt"
	"strings"

	"github.com/cdtdelta/daybook/internal/query"
)

// PostgresDialect implements the Dialect interface for PostgreSQL databases.
// It also satisfies query.QueryDialect through structural typing.
type PostgresDialect struct{}

func (d *PostgresDialect) DriverName() string              { return "pgx" }
func (d *PostgresDialect) DSN(pathOrConnStr string) string { return pathOrConnStr }
func (d *PostgresDialect) IDColumn() string                { return RowIDColumn }
func (d *PostgresDialect) QuoteIdent(name string) string   { return query.QuoteIdent(name) }

func (d *PostgresDialect) Placeholder(index int) string {
	return fmt.Sprintf("$%d", index)
}

// SanitizeValue strips null bytes (0x00). SQLite stores these fine but
// PostgreSQL rejects them with "invalid byte sequence for encoding UTF8".
func (d *PostgresDialect) SanitizeValue(s string) interface{} {
	if strings.ContainsRune(s, '\x00') {
		return strings.ReplaceAll(s, "\x00", "")
	}
	return s
}

func (d *PostgresDialect) CreateTableSQL(table string, columns []string) string {
	defs := []string{d.QuoteIdent(RowIDColumn) + " BIGSERIAL PRIMARY KEY"}
	for _, c := range columns {
		defs = append(defs, d.QuoteIdent(c)+" TEXT")
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", d.QuoteIdent(table), strings.Join(defs, ", "))
}

func (d *PostgresDialect) DropTableSQL(table string) string {
	return "DROP TABLE IF EXISTS " + d.QuoteIdent(table)
}

func (d *PostgresDialect) InsertRowSQL(table string, columns []string) string {
	return insertSQL(d, table, columns)
}
