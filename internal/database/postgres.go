package database

import (
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// PostgresStore manages a PostgreSQL event database.
// It implements the Store interface.
type PostgresStore struct {
	sqlStore
}

// OpenPostgres connects to an existing PostgreSQL database. Tables are
// created on import.
func OpenPostgres(connStr string) (*PostgresStore, error) {
	d := &PostgresDialect{}

	conn, err := sql.Open(d.DriverName(), d.DSN(connStr))
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	return &PostgresStore{sqlStore: sqlStore{conn: conn, dialect: d}}, nil
}
