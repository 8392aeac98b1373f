// Package normalize turns raw input rows into time-sortable events.
package normalize

import (
	"fmt"
	"strings"
	"time"

	"github.com/cdtdelta/daybook/internal/model"
	"go.uber.org/zap"
)

// Supported timestamp layouts, tried in order. Single-digit month, day and
// hour values are accepted as well as zero-padded ones.
const (
	Layout24Hour = "1/2/06 15:04"
	Layout12Hour = "1/2/06 3:04"
)

// Options names the columns that carry the timestamp and operation code.
// Column names are matched case-insensitively.
type Options struct {
	TimeColumn  string
	EventColumn string

	// AttributePrefix, when set, restricts attributes to columns whose
	// folded name starts with it (e.g. "arg"). DetailColumn is always kept.
	AttributePrefix string

	// DetailColumn names the extended-detail column.
	DetailColumn string
}

// MalformedRowError reports a row whose timestamp matches neither layout.
type MalformedRowError struct {
	Origin    string
	Line      int
	Timestamp string
}

func (e *MalformedRowError) Error() string {
	where := fmt.Sprintf("row %d", e.Line)
	if e.Origin != "" {
		where = e.Origin + ": " + where
	}
	return fmt.Sprintf("%s: malformed timestamp %q (expected MM/DD/YY HH:MM)", where, e.Timestamp)
}

// ParseTimestamp parses s with the 24-hour layout, falling back to the
// 12-hour layout.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	t, err := time.Parse(Layout24Hour, s)
	if err == nil {
		return t, nil
	}
	t, err2 := time.Parse(Layout12Hour, s)
	if err2 == nil {
		return t, nil
	}
	return time.Time{}, err
}

// Normalizer converts RawRows into events. It holds only its options and is
// safe for concurrent use.
type Normalizer struct {
	timeKey   string
	eventKey  string
	detailKey string
	prefixKey string
}

// New creates a Normalizer for the given column layout.
func New(opts Options) *Normalizer {
	return &Normalizer{
		timeKey:   model.FoldKey(opts.TimeColumn),
		eventKey:  model.FoldKey(opts.EventColumn),
		detailKey: model.FoldKey(opts.DetailColumn),
		prefixKey: model.FoldKey(opts.AttributePrefix),
	}
}

// HasColumns reports whether header contains both the timestamp and the
// operation column.
func (n *Normalizer) HasColumns(header []string) error {
	var haveTime, haveEvent bool
	for _, col := range header {
		switch model.FoldKey(col) {
		case n.timeKey:
			haveTime = true
		case n.eventKey:
			haveEvent = true
		}
	}
	if !haveTime {
		return fmt.Errorf("missing timestamp column %q", n.timeKey)
	}
	if !haveEvent {
		return fmt.Errorf("missing operation column %q", n.eventKey)
	}
	return nil
}

// Normalize converts a single row. The only failure is a malformed timestamp.
func (n *Normalizer) Normalize(row model.RawRow) (model.Event, error) {
	var stamp, op string
	attrs := make(map[string]string, len(row.Columns))

	for _, col := range row.Columns {
		key := model.FoldKey(col)
		val := row.Values[col]
		switch key {
		case n.timeKey:
			stamp = val
		case n.eventKey:
			op = strings.TrimSpace(val)
		default:
			if !n.keepAttribute(key) {
				continue
			}
			attrs[key] = val
		}
	}

	ts, err := ParseTimestamp(stamp)
	if err != nil {
		return model.Event{}, &MalformedRowError{Line: row.Line, Timestamp: stamp}
	}

	return model.Event{
		Timestamp:  ts,
		Operation:  op,
		Attributes: attrs,
		Line:       row.Line,
	}, nil
}

func (n *Normalizer) keepAttribute(key string) bool {
	if n.prefixKey == "" || strings.HasPrefix(key, n.prefixKey) {
		return true
	}
	return n.detailKey != "" && key == n.detailKey
}

// Result is the outcome of normalizing a batch of rows.
type Result struct {
	Events  []model.Event
	Skipped []*MalformedRowError
}

// NormalizeRows converts every row from one source. A malformed row aborts
// the batch unless skipMalformed is set, in which case it is logged and
// recorded in Result.Skipped.
func (n *Normalizer) NormalizeRows(origin string, rows []model.RawRow, skipMalformed bool, logger *zap.Logger) (*Result, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	result := &Result{Events: make([]model.Event, 0, len(rows))}
	for _, row := range rows {
		e, err := n.Normalize(row)
		if err != nil {
			mr := err.(*MalformedRowError)
			mr.Origin = origin
			if !skipMalformed {
				return nil, mr
			}
			logger.Warn("skipping malformed row",
				zap.String("origin", origin),
				zap.Int("row", mr.Line),
				zap.String("timestamp", mr.Timestamp),
			)
			result.Skipped = append(result.Skipped, mr)
			continue
		}
		e.Origin = origin
		result.Events = append(result.Events, e)
	}
	return result, nil
}
