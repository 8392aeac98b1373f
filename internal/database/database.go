package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cdtdelta/daybook/internal/model"
	"github.com/cdtdelta/daybook/internal/query"

	_ "modernc.org/sqlite"
)

// progressInterval is how many rows pass between onProgress callbacks.
const progressInterval = 10000

// sqlStore implements Store over database/sql for any Dialect.
type sqlStore struct {
	conn    *sql.DB
	dialect Dialect
}

// SQLiteStore manages an SQLite event database.
// It implements the Store interface.
type SQLiteStore struct {
	sqlStore
}

// OpenSQLite opens an SQLite database, creating the file if needed.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	d := &SQLiteDialect{}
	conn, err := sql.Open(d.DriverName(), d.DSN(path))
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// SQLite supports one writer; serialize access at the pool.
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	return &SQLiteStore{sqlStore: sqlStore{conn: conn, dialect: d}}, nil
}

// Close closes the database connection.
func (s *sqlStore) Close() error {
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}

// ImportRows creates table and inserts rows inside a single transaction.
// The onProgress callback is called every 10,000 rows with the current count.
func (s *sqlStore) ImportRows(ctx context.Context, table string, header []string, rows []model.RawRow, replace bool, onProgress func(int)) (int, error) {
	if err := validateColumns(table, header); err != nil {
		return 0, err
	}

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if replace {
		if _, err := tx.ExecContext(ctx, s.dialect.DropTableSQL(table)); err != nil {
			return 0, fmt.Errorf("dropping table %s: %w", table, err)
		}
	}
	if _, err := tx.ExecContext(ctx, s.dialect.CreateTableSQL(table, header)); err != nil {
		return 0, fmt.Errorf("creating table %s: %w", table, err)
	}

	stmt, err := tx.PrepareContext(ctx, s.dialect.InsertRowSQL(table, header))
	if err != nil {
		return 0, fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	args := make([]interface{}, len(header))
	count := 0
	for _, row := range rows {
		for i, col := range header {
			args[i] = s.dialect.SanitizeValue(row.Get(col))
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return count, fmt.Errorf("inserting row %d: %w", row.Line, err)
		}
		count++
		if onProgress != nil && count%progressInterval == 0 {
			onProgress(count)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing import: %w", err)
	}
	return count, nil
}

// Columns lists the data columns of table in definition order.
func (s *sqlStore) Columns(ctx context.Context, table string) ([]string, error) {
	rows, err := s.conn.QueryContext(ctx, "SELECT * FROM "+s.dialect.QuoteIdent(table)+" LIMIT 0")
	if err != nil {
		return nil, fmt.Errorf("reading columns of %s: %w", table, err)
	}
	defer rows.Close()

	all, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("reading columns of %s: %w", table, err)
	}
	cols := make([]string, 0, len(all))
	for _, c := range all {
		if c != RowIDColumn {
			cols = append(cols, c)
		}
	}
	return cols, nil
}

// CountRows returns the number of rows in table.
func (s *sqlStore) CountRows(ctx context.Context, table string) (int64, error) {
	countSQL, args := query.New(s.dialect, table, nil).BuildCount()
	var n int64
	if err := s.conn.QueryRowContext(ctx, countSQL, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting rows in %s: %w", table, err)
	}
	return n, nil
}

// ReadRows reads table in insertion order. NULL values read as "".
func (s *sqlStore) ReadRows(ctx context.Context, table string, opts ReadOptions) (*ReadResult, error) {
	cols, err := s.Columns(ctx, table)
	if err != nil {
		return nil, err
	}

	q := query.New(s.dialect, table, cols)
	if opts.OperationColumn != "" && (len(opts.Operations) > 0 || len(opts.Exclude) > 0) {
		col, ok := matchColumn(cols, opts.OperationColumn)
		if !ok {
			return nil, fmt.Errorf("table %s has no column %q", table, opts.OperationColumn)
		}
		for _, p := range []*query.Predicate{query.In(col, opts.Operations), query.NotIn(col, opts.Exclude)} {
			if err := q.AddPredicate(p); err != nil {
				return nil, err
			}
		}
	}
	if err := q.OrderBy(s.dialect.IDColumn()); err != nil {
		return nil, err
	}
	q.SetLimit(opts.Limit)

	selectSQL, args := q.Build()
	rows, err := s.conn.QueryContext(ctx, selectSQL, args...)
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", table, err)
	}
	defer rows.Close()

	result := &ReadResult{Header: cols}
	scan := make([]sql.NullString, len(cols))
	dest := make([]interface{}, len(cols))
	for i := range scan {
		dest[i] = &scan[i]
	}

	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		record := make([]string, len(cols))
		for i, v := range scan {
			record[i] = v.String
		}
		result.Count++
		result.Rows = append(result.Rows, model.NewRawRow(result.Count, cols, record))
	}

	return result, rows.Err()
}

// matchColumn finds name among cols, ignoring case.
func matchColumn(cols []string, name string) (string, bool) {
	key := model.FoldKey(name)
	for _, c := range cols {
		if model.FoldKey(c) == key {
			return c, true
		}
	}
	return "", false
}

// validateColumns rejects header layouts that cannot become a table:
// no columns, blank or duplicate names, or a clash with RowIDColumn.
// Names are compared case-insensitively because SQLite identifiers are.
func validateColumns(table string, header []string) error {
	if table == "" {
		return fmt.Errorf("table name is required")
	}
	if len(header) == 0 {
		return fmt.Errorf("no columns to import")
	}
	seen := make(map[string]bool, len(header))
	for _, col := range header {
		key := model.FoldKey(col)
		switch {
		case key == "":
			return fmt.Errorf("blank column name in header")
		case key == RowIDColumn:
			return fmt.Errorf("column name %q is reserved", col)
		case seen[key]:
			return fmt.Errorf("duplicate column %q in header", col)
		}
		seen[key] = true
	}
	return nil
}
