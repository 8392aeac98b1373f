package normalize

import (
	"fmt"
	"strings"
	"time"

	"github.com/cdtdelta/daybook/internal/model"
)

// DayLayout is the layout accepted for --from and --to.
const DayLayout = "2006-01-02"

// Filter restricts events by calendar day and operation code.
// Zero bounds are open; an empty Operations set admits every code.
// Codes in Exclude are dropped even when Operations lists them.
type Filter struct {
	From       time.Time
	To         time.Time
	Operations map[string]bool
	Exclude    map[string]bool
}

// NewFilter builds a Filter from textual day bounds and operation codes.
func NewFilter(from, to string, operations, exclude []string) (Filter, error) {
	var f Filter
	var err error
	if strings.TrimSpace(from) != "" {
		if f.From, err = time.Parse(DayLayout, strings.TrimSpace(from)); err != nil {
			return Filter{}, fmt.Errorf("invalid from date %q: %w", from, err)
		}
	}
	if strings.TrimSpace(to) != "" {
		if f.To, err = time.Parse(DayLayout, strings.TrimSpace(to)); err != nil {
			return Filter{}, fmt.Errorf("invalid to date %q: %w", to, err)
		}
	}
	if !f.From.IsZero() && !f.To.IsZero() && f.To.Before(f.From) {
		return Filter{}, fmt.Errorf("to date %s is before from date %s", to, from)
	}
	f.Operations = codeSet(operations)
	f.Exclude = codeSet(exclude)
	return f, nil
}

func codeSet(codes []string) map[string]bool {
	var set map[string]bool
	for _, op := range codes {
		if op = strings.TrimSpace(op); op != "" {
			if set == nil {
				set = make(map[string]bool)
			}
			set[op] = true
		}
	}
	return set
}

// Empty reports whether the filter admits everything.
func (f Filter) Empty() bool {
	return f.From.IsZero() && f.To.IsZero() && len(f.Operations) == 0 && len(f.Exclude) == 0
}

// Match reports whether e passes the filter. Both day bounds are inclusive.
func (f Filter) Match(e model.Event) bool {
	day := e.Day()
	if !f.From.IsZero() && day.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && day.After(f.To) {
		return false
	}
	if len(f.Operations) > 0 && !f.Operations[e.Operation] {
		return false
	}
	return !f.Exclude[e.Operation]
}

// Apply returns the events that pass the filter, preserving order.
func (f Filter) Apply(events []model.Event) []model.Event {
	if f.Empty() {
		return events
	}
	out := make([]model.Event, 0, len(events))
	for _, e := range events {
		if f.Match(e) {
			out = append(out, e)
		}
	}
	return out
}
