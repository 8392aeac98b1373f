package model

import (
	"sort"
	"time"
)

// RawRow is one record as produced by an input reader, before any parsing.
// Columns preserves the header order; Values is keyed by the header name as
// it appeared in the source.
type RawRow struct {
	Line    int // 1-based position: CSV data row (header excluded), JSONL file line
	Columns []string
	Values  map[string]string
}

// Get returns the value stored under column, or "" if the row has none.
func (r RawRow) Get(column string) string {
	return r.Values[column]
}

// NewRawRow builds a RawRow from a header and a positional record.
// Missing trailing fields are stored as empty strings.
func NewRawRow(line int, header, record []string) RawRow {
	values := make(map[string]string, len(header))
	for i, col := range header {
		if i < len(record) {
			values[col] = record[i]
		} else {
			values[col] = ""
		}
	}
	return RawRow{Line: line, Columns: header, Values: values}
}

// Event is a normalized timeline event. Attribute keys are case-folded so
// description templates can reference them case-insensitively.
type Event struct {
	Timestamp  time.Time         `json:"timestamp"`
	Operation  string            `json:"operation"`
	Attributes map[string]string `json:"attributes"`
	Line       int               `json:"line"`
	Origin     string            `json:"origin,omitempty"` // input file or table the row came from
}

// Day returns the calendar day of the event as a midnight timestamp.
func (e Event) Day() time.Time {
	y, m, d := e.Timestamp.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, e.Timestamp.Location())
}

// SameDay reports whether the event falls on the given calendar day.
func (e Event) SameDay(day time.Time) bool {
	y1, m1, d1 := e.Timestamp.Date()
	y2, m2, d2 := day.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

// Events is a slice of events sortable by timestamp.
type Events []Event

func (e Events) Len() int           { return len(e) }
func (e Events) Less(i, j int) bool { return e[i].Timestamp.Before(e[j].Timestamp) }
func (e Events) Swap(i, j int)      { e[i], e[j] = e[j], e[i] }

// SortEvents orders events chronologically. The sort is stable, so events
// sharing a timestamp keep their input order.
func SortEvents(events []Event) {
	sort.Stable(Events(events))
}
