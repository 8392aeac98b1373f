// Package timeline renders sorted events into a day-grouped report,
// collapsing runs of repeated operations.
package timeline

import (
	"strconv"
	"strings"
	"time"

	"github.com/cdtdelta/daybook/internal/lookup"
	"github.com/cdtdelta/daybook/internal/model"
	"go.uber.org/zap"
)

// CountKey is the synthetic attribute holding a run's repeat count.
const CountKey = "count"

// DefaultDetailKey is the attribute that carries free-text extended detail.
const DefaultDetailKey = "details"

// Options controls formatting.
type Options struct {
	// Collapse merges consecutive same-day events with the same operation.
	Collapse bool

	// DetailKey names the extended-detail attribute. An event with a
	// non-empty value is never merged and its text is appended to the
	// description.
	DetailKey string

	// MissingText replaces placeholders with no matching attribute.
	MissingText string
}

// DefaultOptions returns collapsing enabled with the default detail key and
// sentinel text.
func DefaultOptions() Options {
	return Options{
		Collapse:    true,
		DetailKey:   DefaultDetailKey,
		MissingText: DefaultMissingText,
	}
}

// Formatter builds reports. It keeps no state between Format calls and may
// be shared across goroutines.
type Formatter struct {
	opts      Options
	detailKey string
	logger    *zap.Logger
}

// New creates a Formatter. A nil logger disables logging.
func New(opts Options, logger *zap.Logger) *Formatter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Formatter{
		opts:      opts,
		detailKey: model.FoldKey(opts.DetailKey),
		logger:    logger,
	}
}

// run is a group of consecutive same-day events rendered as one line.
type run struct {
	operation string
	first     time.Time
	last      time.Time
	count     int
	attrs     map[string]string
	detail    string
}

func newRun(e model.Event, detail string) *run {
	return &run{
		operation: e.Operation,
		first:     e.Timestamp,
		last:      e.Timestamp,
		count:     1,
		attrs:     e.Attributes,
		detail:    detail,
	}
}

// formatState is the per-call state machine.
type formatState struct {
	f        *Formatter
	resolver *lookup.Resolver
	report   *Report
	day      time.Time
	haveDay  bool
	open     *run
}

// Format renders events, which must already be sorted by timestamp.
// An empty input yields an empty report.
func (f *Formatter) Format(events []model.Event, table lookup.Table) *Report {
	st := &formatState{
		f:        f,
		resolver: lookup.NewResolver(table, f.logger),
		report:   &Report{},
	}

	for _, e := range events {
		detail := f.detail(e)
		switch {
		case !st.haveDay || !e.SameDay(st.day):
			st.flush()
			st.day = e.Day()
			st.haveDay = true
			st.report.Lines = append(st.report.Lines, Line{Kind: DayHeader, Day: st.day})
			st.open = newRun(e, detail)
		case f.opts.Collapse && st.open != nil && st.open.operation == e.Operation &&
			st.open.detail == "" && detail == "":
			st.open.count++
			st.open.last = e.Timestamp
			st.open.attrs = e.Attributes
		default:
			st.flush()
			st.open = newRun(e, detail)
		}
	}
	st.flush()

	return st.report
}

func (f *Formatter) detail(e model.Event) string {
	if f.detailKey == "" {
		return ""
	}
	return strings.TrimSpace(e.Attributes[f.detailKey])
}

// flush emits the open run, if any.
func (st *formatState) flush() {
	if st.open == nil {
		return
	}
	st.report.Lines = append(st.report.Lines, st.f.render(st.open, st.resolver))
	st.open = nil
}

func (f *Formatter) render(r *run, resolver *lookup.Resolver) Line {
	meta := resolver.Resolve(r.operation)

	attrs := make(map[string]string, len(r.attrs)+1)
	for k, v := range r.attrs {
		attrs[k] = v
	}
	attrs[CountKey] = strconv.Itoa(r.count)

	desc, missing := Render(meta.DescriptionTemplate, attrs, f.opts.MissingText)
	if len(missing) > 0 {
		f.logger.Debug("placeholder not provided",
			zap.String("code", r.operation),
			zap.Strings("placeholders", missing),
		)
	}
	if r.detail != "" {
		desc += " (" + r.detail + ")"
	}

	return Line{
		Kind:        OperationLine,
		Start:       r.first,
		End:         r.last,
		Count:       r.count,
		Operation:   r.operation,
		Name:        meta.CombinedName(),
		Description: desc,
	}
}
