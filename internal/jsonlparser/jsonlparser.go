package jsonlparser

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/cdtdelta/daybook/internal/model"
)

// ReadResult contains the outcome of a JSONL read. Header lists every key
// seen, in first-appearance order.
type ReadResult struct {
	Header []string
	Rows   []model.RawRow
	Count  int
}

// ValidateFile checks that the first non-blank line of a file is a JSON
// object.
func ValidateFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening file: %w", err)
	}
	defer f.Close()

	scanner := newScanner(f)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		if line[0] != '{' {
			return fmt.Errorf("first line is not a JSON object")
		}
		var raw map[string]json.RawMessage
		if err := json.Unmarshal(line, &raw); err != nil {
			return fmt.Errorf("first line is not valid JSON: %w", err)
		}
		return nil
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading file: %w", err)
	}
	return fmt.Errorf("empty file")
}

// ReadRows reads every object from a JSON-lines file. Blank lines are
// ignored; an unparseable line is an error naming its line number.
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
	scanner := newScanner(r)

	result := &ReadResult{}
	seen := make(map[string]bool)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var raw map[string]json.RawMessage
		if err := json.Unmarshal(line, &raw); err != nil {
			return nil, fmt.Errorf("parsing line %d: %w", lineNum, err)
		}

		keys := make([]string, 0, len(raw))
		for k := range raw {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		values := make(map[string]string, len(raw))
		for _, k := range keys {
			values[k] = stringify(raw[k])
			if !seen[k] {
				seen[k] = true
				result.Header = append(result.Header, k)
			}
		}

		result.Count++
		result.Rows = append(result.Rows, model.RawRow{Line: lineNum, Columns: keys, Values: values})

		if onProgress != nil && result.Count%10000 == 0 {
			onProgress(result.Count)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading file at line %d: %w", lineNum, err)
	}

	return result, nil
}

// newScanner allows lines up to 10MB; some exported events carry large
// payloads.
func newScanner(r io.Reader) *bufio.Scanner {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 1024*1024), 10*1024*1024)
	return scanner
}

// stringify renders a JSON value as row text. Strings are unquoted, null is
// empty, numbers keep their literal form, and nested values stay JSON.
func stringify(raw json.RawMessage) string {
	v := bytes.TrimSpace(raw)
	if len(v) == 0 {
		return ""
	}
	switch v[0] {
	case '"':
		var s string
		if err := json.Unmarshal(v, &s); err == nil {
			return s
		}
	case 'n':
		return ""
	case 't', 'f':
		if b, err := strconv.ParseBool(string(v)); err == nil {
			return strconv.FormatBool(b)
		}
	}
	return strings.TrimSpace(string(v))
}
