package csvparser

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cdtdelta/daybook/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempCSV(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

const validEventsCSV = `Time,Event,IP,Details
01/02/24 09:00,LOGIN,1.1.1.1,
01/02/24 09:05,LOGIN,1.1.1.1,
01/02/24 10:00,LOGOUT,,"left early, badge 7"
`

func TestValidateHeader(t *testing.T) {
	path := writeTempCSV(t, "valid.csv", validEventsCSV)
	assert.NoError(t, ValidateHeader(path, "Time", "Event"))
}

func TestValidateHeaderCaseInsensitive(t *testing.T) {
	path := writeTempCSV(t, "valid.csv", validEventsCSV)
	assert.NoError(t, ValidateHeader(path, "time", "EVENT"))
}

func TestValidateHeaderMissingColumn(t *testing.T) {
	path := writeTempCSV(t, "bad.csv", "When,What\n1,2\n")
	err := ValidateHeader(path, "Time", "Event")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Time, Event")
}

func TestValidateHeaderEmptyFile(t *testing.T) {
	path := writeTempCSV(t, "empty.csv", "")
	assert.Error(t, ValidateHeader(path, "Time"))
}

func TestValidateHeaderMissingFile(t *testing.T) {
	assert.Error(t, ValidateHeader("/nonexistent/path.csv", "Time"))
}

func TestReadRows(t *testing.T) {
	path := writeTempCSV(t, "events.csv", validEventsCSV)

	result, err := ReadRows(path, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"Time", "Event", "IP", "Details"}, result.Header)
	require.Equal(t, 3, result.Count)
	require.Len(t, result.Rows, 3)

	first := result.Rows[0]
	assert.Equal(t, 1, first.Line)
	assert.Equal(t, "01/02/24 09:00", first.Get("Time"))
	assert.Equal(t, "1.1.1.1", first.Get("IP"))

	last := result.Rows[2]
	assert.Equal(t, 3, last.Line)
	assert.Equal(t, "left early, badge 7", last.Get("Details"))
}

func TestReadRowsShortAndLongRecords(t *testing.T) {
	path := writeTempCSV(t, "ragged.csv", "Time,Event,IP\n01/02/24 09:00,LOGIN\n01/02/24 09:01,LOGIN,1.1.1.1,extra\n")

	result, err := ReadRows(path, nil)
	require.NoError(t, err)

	assert.Equal(t, "", result.Rows[0].Get("IP"))
	assert.Equal(t, "1.1.1.1", result.Rows[1].Get("IP"))
	assert.Len(t, result.Rows[1].Values, 3)
}

func TestReadRowsStripsBOMAndNullBytes(t *testing.T) {
	content := "\ufeffTime,Event,User\n01/02/24 09:00,LOGIN,adm\x00in\n"
	path := writeTempCSV(t, "nulls.csv", content)

	result, err := ReadRows(path, nil)
	require.NoError(t, err)

	assert.Equal(t, "Time", result.Header[0])
	assert.Equal(t, "admin", result.Rows[0].Get("User"))
}

func TestReadRowsEmptyFile(t *testing.T) {
	path := writeTempCSV(t, "empty.csv", "")
	_, err := ReadRows(path, nil)
	assert.Error(t, err)
}

func TestReadRowsProgress(t *testing.T) {
	var b strings.Builder
	b.WriteString("Time,Event\n")
	for i := 0; i < 25000; i++ {
		b.WriteString("01/02/24 09:00,LOGIN\n")
	}
	path := writeTempCSV(t, "big.csv", b.String())

	var calls int
	result, err := ReadRows(path, func(count int) { calls++ })
	require.NoError(t, err)

	assert.Equal(t, 25000, result.Count)
	assert.Equal(t, 2, calls) // called at 10000 and 20000
}

func TestWriteRowsRoundTrip(t *testing.T) {
	header := []string{"Time", "Event", "Details"}
	rows := []model.RawRow{
		model.NewRawRow(1, header, []string{"01/02/24 09:00", "LOGIN", ""}),
		model.NewRawRow(2, header, []string{"01/02/24 10:00", "LOGOUT", "quote \" and, comma"}),
	}
	path := filepath.Join(t.TempDir(), "out.csv")

	require.NoError(t, WriteRows(path, header, rows))

	result, err := ReadRows(path, nil)
	require.NoError(t, err)
	assert.Equal(t, header, result.Header)
	assert.Equal(t, "quote \" and, comma", result.Rows[1].Get("Details"))
}

func TestWriteRowsBadPath(t *testing.T) {
	err := WriteRows("/nonexistent/dir/out.csv", []string{"a"}, nil)
	assert.Error(t, err)
}
