package csvparser

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/cdtdelta/daybook/internal/model"
)

// ReadResult contains the outcome of a CSV read.
type ReadResult struct {
	Header []string
	Rows   []model.RawRow
	Count  int
}

// ValidateHeader checks that a CSV file has a header row containing every
// required column. Column names are compared case-insensitively.
func ValidateHeader(path string, required ...string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening file: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(newNullStripper(f))
	reader.LazyQuotes = true
	header, err := reader.Read()
	if err == io.EOF {
		return fmt.Errorf("empty file: no header row")
	}
	if err != nil {
		return fmt.Errorf("reading header: %w", err)
	}

	return checkColumns(cleanHeader(header), required)
}

func checkColumns(header, required []string) error {
	present := make(map[string]bool, len(header))
	for _, col := range header {
		present[model.FoldKey(col)] = true
	}
	var missing []string
	for _, col := range required {
		if !present[model.FoldKey(col)] {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("header missing required column(s) %s (found: %s)",
			strings.Join(missing, ", "), strings.Join(header, ", "))
	}
	return nil
}

// ReadRows reads every data row from a CSV file with a header row.
// Short rows are padded with empty values and extra fields are dropped.
// An onProgress callback is called every 10,000 rows if non-nil.
func ReadRows(path string, onProgress func(count int)) (*ReadResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}
	defer f.Close()

	return Read(f, onProgress)
}

// Read is ReadRows over an arbitrary reader.
func Read(r io.Reader, onProgress func(count int)) (*ReadResult, error) {
	reader := csv.NewReader(newNullStripper(r))
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1 // allow variable field counts

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("empty file: no header row")
	}
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	header = cleanHeader(header)

	result := &ReadResult{Header: header}
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading row %d: %w", result.Count+1, err)
		}
		result.Count++
		result.Rows = append(result.Rows, model.NewRawRow(result.Count, header, record))

		if onProgress != nil && result.Count%10000 == 0 {
			onProgress(result.Count)
		}
	}

	return result, nil
}

// WriteRows writes a header and rows to a CSV file. Values are taken from
// each row by header name.
func WriteRows(path string, header []string, rows []model.RawRow) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating file: %w", err)
	}
	defer f.Close()

	writer := csv.NewWriter(f)

	if err := writer.Write(header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	record := make([]string, len(header))
	for _, row := range rows {
		for i, col := range header {
			record[i] = row.Get(col)
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("writing row %d: %w", row.Line, err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// cleanHeader trims column names and strips a UTF-8 byte order mark, which
// spreadsheet exports commonly prepend to the first column.
func cleanHeader(header []string) []string {
	out := make([]string, len(header))
	for i, col := range header {
		if i == 0 {
			col = strings.TrimPrefix(col, "\ufeff")
		}
		out[i] = strings.TrimSpace(col)
	}
	return out
}

// nullStripper wraps a reader and strips null bytes from the stream.
// encoding/csv rejects them, and exported logs occasionally contain them.
type nullStripper struct {
	r io.Reader
}

func newNullStripper(r io.Reader) io.Reader {
	return &nullStripper{r: r}
}

func (ns *nullStripper) Read(p []byte) (int, error) {
	n, err := ns.r.Read(p)
	if n > 0 {
		cleaned := strings.ReplaceAll(string(p[:n]), "\x00", "")
		copy(p, cleaned)
		n = len(cleaned)
	}
	return n, err
}
