package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/cdtdelta/daybook/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tempDBPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "test.db")
}

func createTestDB(t *testing.T) *SQLiteStore {
	t.Helper()
	db, err := OpenSQLite(tempDBPath(t))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

var sampleHeader = []string{"Time", "Event", "IP", "user"}

func sampleRows() []model.RawRow {
	return []model.RawRow{
		model.NewRawRow(1, sampleHeader, []string{"01/02/24 09:00", "LOGIN", "1.1.1.1", "bob"}),
		model.NewRawRow(2, sampleHeader, []string{"01/02/24 09:05", "LOGIN", "1.1.1.1", "bob"}),
		model.NewRawRow(3, sampleHeader, []string{"01/02/24 10:00", "LOGOUT", "", "bob"}),
	}
}

func TestImportAndReadRows(t *testing.T) {
	db := createTestDB(t)
	ctx := context.Background()

	n, err := db.ImportRows(ctx, "events", sampleHeader, sampleRows(), false, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	result, err := db.ReadRows(ctx, "events", ReadOptions{})
	require.NoError(t, err)

	assert.Equal(t, sampleHeader, result.Header)
	require.Equal(t, 3, result.Count)
	assert.Equal(t, "LOGOUT", result.Rows[2].Get("Event"))
	assert.Equal(t, 3, result.Rows[2].Line)
	assert.Equal(t, "", result.Rows[2].Get("IP"))
}

func TestReadRowsFiltersOperations(t *testing.T) {
	db := createTestDB(t)
	ctx := context.Background()
	_, err := db.ImportRows(ctx, "events", sampleHeader, sampleRows(), false, nil)
	require.NoError(t, err)

	result, err := db.ReadRows(ctx, "events", ReadOptions{OperationColumn: "event", Operations: []string{"LOGOUT"}})
	require.NoError(t, err)
	require.Equal(t, 1, result.Count)
	assert.Equal(t, "01/02/24 10:00", result.Rows[0].Get("Time"))

	result, err = db.ReadRows(ctx, "events", ReadOptions{Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Count)

	result, err = db.ReadRows(ctx, "events", ReadOptions{OperationColumn: "Event", Exclude: []string{"LOGIN"}})
	require.NoError(t, err)
	require.Equal(t, 1, result.Count)
	assert.Equal(t, "LOGOUT", result.Rows[0].Get("Event"))

	result, err = db.ReadRows(ctx, "events", ReadOptions{
		OperationColumn: "Event",
		Operations:      []string{"LOGIN", "LOGOUT"},
		Exclude:         []string{"LOGOUT"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Count)
}

func TestReadRowsUnknownOperationColumn(t *testing.T) {
	db := createTestDB(t)
	ctx := context.Background()
	_, err := db.ImportRows(ctx, "events", sampleHeader, sampleRows(), false, nil)
	require.NoError(t, err)

	_, err = db.ReadRows(ctx, "events", ReadOptions{OperationColumn: "Op", Operations: []string{"X"}})
	assert.Error(t, err)
}

func TestReadRowsMissingTable(t *testing.T) {
	db := createTestDB(t)
	_, err := db.ReadRows(context.Background(), "nope", ReadOptions{})
	assert.Error(t, err)
}

func TestImportAppendsOrReplaces(t *testing.T) {
	db := createTestDB(t)
	ctx := context.Background()

	_, err := db.ImportRows(ctx, "events", sampleHeader, sampleRows(), false, nil)
	require.NoError(t, err)
	_, err = db.ImportRows(ctx, "events", sampleHeader, sampleRows()[:1], false, nil)
	require.NoError(t, err)

	count, err := db.CountRows(ctx, "events")
	require.NoError(t, err)
	assert.Equal(t, int64(4), count)

	_, err = db.ImportRows(ctx, "events", sampleHeader, sampleRows()[:1], true, nil)
	require.NoError(t, err)
	count, err = db.CountRows(ctx, "events")
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestImportRejectsBadHeaders(t *testing.T) {
	db := createTestDB(t)
	ctx := context.Background()

	cases := [][]string{
		nil,
		{"Time", ""},
		{"Time", "time"},
		{"Time", "DAYBOOK_ROW"},
	}
	for _, header := range cases {
		_, err := db.ImportRows(ctx, "events", header, nil, false, nil)
		assert.Error(t, err, "%v", header)
	}

	_, err := db.ImportRows(ctx, "", sampleHeader, nil, false, nil)
	assert.Error(t, err)
}

func TestImportProgressAndQuotedNames(t *testing.T) {
	db := createTestDB(t)
	ctx := context.Background()

	header := []string{"Time", `odd "name"`, "select"}
	var rows []model.RawRow
	for i := 0; i < 10000; i++ {
		rows = append(rows, model.NewRawRow(i+1, header, []string{"01/02/24 09:00", "x", "y"}))
	}

	var calls int
	n, err := db.ImportRows(ctx, "my table", header, rows, false, func(int) { calls++ })
	require.NoError(t, err)
	assert.Equal(t, 10000, n)
	assert.Equal(t, 1, calls)

	cols, err := db.Columns(ctx, "my table")
	require.NoError(t, err)
	assert.Equal(t, header, cols)
}

func TestOpenStoreDrivers(t *testing.T) {
	store, err := OpenStore("sqlite", tempDBPath(t))
	require.NoError(t, err)
	require.NoError(t, store.Close())

	_, err = OpenStore("oracle", "x")
	assert.Error(t, err)
}

func TestPostgresDialect(t *testing.T) {
	d := &PostgresDialect{}

	assert.Equal(t, "$2", d.Placeholder(2))
	assert.Equal(t, `INSERT INTO "events" ("Time", "user") VALUES ($1, $2)`, d.InsertRowSQL("events", []string{"Time", "user"}))
	assert.Equal(t, `CREATE TABLE IF NOT EXISTS "events" ("daybook_row" BIGSERIAL PRIMARY KEY, "Time" TEXT)`, d.CreateTableSQL("events", []string{"Time"}))
	assert.Equal(t, "ab", d.SanitizeValue("a\x00b"))
}

func TestSQLiteDialect(t *testing.T) {
	d := &SQLiteDialect{}

	assert.Equal(t, "?", d.Placeholder(5))
	assert.Equal(t, `INSERT INTO "events" ("Time") VALUES (?)`, d.InsertRowSQL("events", []string{"Time"}))
	assert.Equal(t, "a\x00b", d.SanitizeValue("a\x00b"))
}
