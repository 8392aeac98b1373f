package database

import (
	"fmt"
	"strings"

	"github.com/cdtdelta/daybook/internal/query"
)

// SQLiteDialect implements the Dialect interface for SQLite databases.
// It also satisfies query.QueryDialect through structural typing.
type SQLiteDialect struct{}

func (d *SQLiteDialect) DriverName() string                 { return "sqlite" }
func (d *SQLiteDialect) DSN(pathOrConnStr string) string    { return pathOrConnStr }
func (d *SQLiteDialect) Placeholder(index int) string       { return "?" }
func (d *SQLiteDialect) IDColumn() string                   { return RowIDColumn }
func (d *SQLiteDialect) QuoteIdent(name string) string      { return query.QuoteIdent(name) }
func (d *SQLiteDialect) SanitizeValue(s string) interface{} { return s }

func (d *SQLiteDialect) CreateTableSQL(table string, columns []string) string {
	defs := []string{d.QuoteIdent(RowIDColumn) + " INTEGER PRIMARY KEY AUTOINCREMENT"}
	for _, c := range columns {
		defs = append(defs, d.QuoteIdent(c)+" TEXT")
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", d.QuoteIdent(table), strings.Join(defs, ", "))
}

func (d *SQLiteDialect) DropTableSQL(table string) string {
	return "DROP TABLE IF EXISTS " + d.QuoteIdent(table)
}

func (d *SQLiteDialect) InsertRowSQL(table string, columns []string) string {
	return insertSQL(d, table, columns)
}

// insertSQL builds an INSERT statement using the dialect's quoting and
// placeholders.
func insertSQL(d Dialect, table string, columns []string) string {
	cols := make([]string, len(columns))
	phs := make([]string, len(columns))
	for i, c := range columns {
		cols[i] = d.QuoteIdent(c)
		phs[i] = d.Placeholder(i + 1)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		d.QuoteIdent(table), strings.Join(cols, ", "), strings.Join(phs, ", "))
}
