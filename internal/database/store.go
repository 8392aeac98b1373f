package database

import (
	"context"

	"github.com/cdtdelta/daybook/internal/model"
)

// RowIDColumn records insertion order in every imported table.
const RowIDColumn = "daybook_row"

// ReadOptions narrows a table read.
type ReadOptions struct {
	// OperationColumn names the column Operations and Exclude apply to.
	// Operations keeps only the given codes; Exclude drops the given codes.
	OperationColumn string
	Operations      []string
	Exclude         []string

	// Limit caps the number of rows. 0 means no limit.
	Limit int
}

// ReadResult contains the rows read from a table, in insertion order.
type ReadResult struct {
	Header []string
	Rows   []model.RawRow
	Count  int
}

// Store defines the operations daybook needs from an event database.
// Tables hold one TEXT column per input column plus RowIDColumn.
type Store interface {
	// ImportRows creates table (dropping any existing one when replace is
	// set) and inserts rows in a single transaction.
	ImportRows(ctx context.Context, table string, header []string, rows []model.RawRow, replace bool, onProgress func(int)) (int, error)

	// ReadRows returns the table's rows as RawRows. Line numbers follow the
	// stored insertion order.
	ReadRows(ctx context.Context, table string, opts ReadOptions) (*ReadResult, error)

	// Columns lists the data columns of table, excluding RowIDColumn.
	Columns(ctx context.Context, table string) ([]string, error)

	// CountRows returns the number of rows in table.
	CountRows(ctx context.Context, table string) (int64, error)

	Close() error
}
