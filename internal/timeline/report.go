package timeline

import (
	"strings"
	"time"
)

// Layouts used when rendering report lines.
const (
	DayHeaderLayout = "January 02, 2006"
	TimeLayout      = "15:04"
)

// LineKind distinguishes day headers from operation lines.
type LineKind int

const (
	DayHeader LineKind = iota
	OperationLine
)

// Line is one rendered report line.
type Line struct {
	Kind LineKind

	// Day is set on headers.
	Day time.Time

	// Operation lines.
	Start       time.Time
	End         time.Time
	Count       int
	Operation   string
	Name        string
	Description string
}

// TimeColumn is "HH:MM" for a single event and "HH:MM-HH:MM" for a run.
func (l Line) TimeColumn() string {
	if l.Count > 1 {
		return l.Start.Format(TimeLayout) + "-" + l.End.Format(TimeLayout)
	}
	return l.Start.Format(TimeLayout)
}

// String renders the line without a trailing newline.
func (l Line) String() string {
	if l.Kind == DayHeader {
		return l.Day.Format(DayHeaderLayout)
	}
	return l.TimeColumn() + "\t" + l.Name + "\t" + l.Description
}

// Report is an ordered timeline of day headers and operation lines.
type Report struct {
	Lines []Line
}

// String renders the report, one newline-terminated line per entry.
func (r *Report) String() string {
	var b strings.Builder
	for _, l := range r.Lines {
		b.WriteString(l.String())
		b.WriteByte('\n')
	}
	return b.String()
}

// Days returns the number of day headers.
func (r *Report) Days() int {
	n := 0
	for _, l := range r.Lines {
		if l.Kind == DayHeader {
			n++
		}
	}
	return n
}

// Entries returns the number of operation lines.
func (r *Report) Entries() int {
	return len(r.Lines) - r.Days()
}
