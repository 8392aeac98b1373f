package main

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cdtdelta/daybook/internal/config"
	"github.com/cdtdelta/daybook/internal/csvparser"
	"github.com/cdtdelta/daybook/internal/database"
	"github.com/cdtdelta/daybook/internal/jsonlparser"
	"github.com/cdtdelta/daybook/internal/lookup"
	"github.com/cdtdelta/daybook/internal/model"
	"github.com/cdtdelta/daybook/internal/normalize"
	"github.com/cdtdelta/daybook/internal/output"
	"github.com/cdtdelta/daybook/internal/timeline"
	"github.com/dustin/go-humanize"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// App runs daybook's operations against one loaded configuration.
// Commands build an App and call its methods; it holds no state between
// calls.
type App struct {
	cfg    *config.Config
	logger *zap.Logger
	stdout io.Writer
	stderr io.Writer
}

// NewApp creates a new App instance. A nil logger disables logging.
func NewApp(cfg *config.Config, logger *zap.Logger, stdout, stderr io.Writer) *App {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &App{cfg: cfg, logger: logger, stdout: stdout, stderr: stderr}
}

// -- Input --

// tableRows is a header plus rows from any input reader.
type tableRows struct {
	header []string
	rows   []model.RawRow
}

func isJSONLines(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jsonl", ".ndjson":
		return true
	}
	return false
}

// readInput reads a CSV or JSON-lines file, chosen by extension.
func (a *App) readInput(path string) (*tableRows, error) {
	progress := func(count int) {
		a.logger.Debug("reading input", zap.String("path", path), zap.Int("rows", count))
	}

	if isJSONLines(path) {
		if err := jsonlparser.ValidateFile(path); err != nil {
			return nil, fmt.Errorf("invalid JSONL file %s: %w", path, err)
		}
		result, err := jsonlparser.ReadRows(path, progress)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		return &tableRows{header: result.Header, rows: result.Rows}, nil
	}

	if err := csvparser.ValidateHeader(path, a.cfg.Input.TimeColumn, a.cfg.Input.EventColumn); err != nil {
		return nil, fmt.Errorf("invalid CSV file %s: %w", path, err)
	}
	result, err := csvparser.ReadRows(path, progress)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return &tableRows{header: result.Header, rows: result.Rows}, nil
}

func (a *App) normalizer() *normalize.Normalizer {
	return normalize.New(normalize.Options{
		TimeColumn:      a.cfg.Input.TimeColumn,
		EventColumn:     a.cfg.Input.EventColumn,
		AttributePrefix: a.cfg.Input.AttributePrefix,
		DetailColumn:    a.cfg.Input.DetailColumn,
	})
}

// normalizeRows turns one source's rows into events. LoadEvents calls it
// from several goroutines, so it must not write to stderr; see warnSkipped.
func (a *App) normalizeRows(origin string, t *tableRows) (*normalize.Result, error) {
	n := a.normalizer()
	if err := n.HasColumns(t.header); err != nil {
		return nil, fmt.Errorf("%s: %w", origin, err)
	}

	result, err := n.NormalizeRows(origin, t.rows, a.cfg.Input.SkipMalformed, a.logger)
	if err != nil {
		return nil, err
	}
	a.logger.Info("loaded input",
		zap.String("origin", origin),
		zap.Int("rows", len(t.rows)),
		zap.Int("events", len(result.Events)),
	)
	return result, nil
}

func (a *App) warnSkipped(origin string, result *normalize.Result) {
	if len(result.Skipped) > 0 {
		printWarning(a.stderr, fmt.Sprintf("%s: skipped %s malformed row(s)",
			origin, humanize.Comma(int64(len(result.Skipped)))))
	}
}

// LoadEvents reads and normalizes every input file concurrently. Events
// keep input order within a file and files keep argument order, so the
// later stable sort breaks timestamp ties the same way on every run.
// Skipped-row warnings are printed after all files are read, in argument
// order.
func (a *App) LoadEvents(ctx context.Context, paths []string) ([]model.Event, error) {
	perFile := make([]*normalize.Result, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			t, err := a.readInput(path)
			if err != nil {
				return err
			}
			result, err := a.normalizeRows(path, t)
			if err != nil {
				return err
			}
			perFile[i] = result
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []model.Event
	for i, result := range perFile {
		a.warnSkipped(paths[i], result)
		all = append(all, result.Events...)
	}
	return all, nil
}

// LoadTableEvents reads the configured database table and normalizes it.
// Operation filtering is pushed into the query when --only or --exclude is
// set.
func (a *App) LoadTableEvents(ctx context.Context, store database.Store) ([]model.Event, error) {
	table := a.cfg.Database.Table
	result, err := store.ReadRows(ctx, table, database.ReadOptions{
		OperationColumn: a.cfg.Input.EventColumn,
		Operations:      a.cfg.Report.Only,
		Exclude:         a.cfg.Report.Exclude,
	})
	if err != nil {
		return nil, fmt.Errorf("reading table %s: %w", table, err)
	}
	origin := "table " + table
	normalized, err := a.normalizeRows(origin, &tableRows{header: result.Header, rows: result.Rows})
	if err != nil {
		return nil, err
	}
	a.warnSkipped(origin, normalized)
	return normalized.Events, nil
}

// collect loads the input files and, when store is set, the configured
// table.
func (a *App) collect(ctx context.Context, paths []string, store database.Store) ([]model.Event, error) {
	events, err := a.LoadEvents(ctx, paths)
	if err != nil {
		return nil, err
	}
	if store == nil {
		return events, nil
	}
	dbEvents, err := a.LoadTableEvents(ctx, store)
	if err != nil {
		return nil, err
	}
	return append(events, dbEvents...), nil
}

// -- Report --

// LoadLookup reads the operation code table.
func (a *App) LoadLookup() (lookup.Table, error) {
	table, err := lookup.Load(a.cfg.Lookup.Path)
	if err != nil {
		return nil, err
	}
	a.logger.Debug("loaded lookup table",
		zap.String("path", a.cfg.Lookup.Path),
		zap.Int("codes", len(table)),
	)
	return table, nil
}

// BuildReport sorts, filters and formats events.
func (a *App) BuildReport(events []model.Event, table lookup.Table) (*timeline.Report, error) {
	filter, err := normalize.NewFilter(a.cfg.Report.From, a.cfg.Report.To, a.cfg.Report.Only, a.cfg.Report.Exclude)
	if err != nil {
		return nil, err
	}

	model.SortEvents(events)
	events = filter.Apply(events)

	formatter := timeline.New(timeline.Options{
		Collapse:    a.cfg.Report.Collapse,
		DetailKey:   a.cfg.Input.DetailColumn,
		MissingText: a.cfg.Report.MissingText,
	}, a.logger)
	return formatter.Format(events, table), nil
}

// Publish writes the report to the configured sinks.
func (a *App) Publish(ctx context.Context, report *timeline.Report) error {
	sink := output.Select(a.stdout, a.cfg.Output.File, a.cfg.Output.Clipboard)
	if err := sink.Write(ctx, report.String()); err != nil {
		return err
	}

	var dest []string
	if a.cfg.Output.File != "" {
		dest = append(dest, a.cfg.Output.File)
	}
	if a.cfg.Output.Clipboard {
		dest = append(dest, "clipboard")
	}
	if len(dest) > 0 {
		printNotice(a.stderr, fmt.Sprintf("Wrote %s entries over %s day(s) to %s",
			humanize.Comma(int64(report.Entries())), humanize.Comma(int64(report.Days())),
			strings.Join(dest, " and ")))
	}
	return nil
}

// Report loads the lookup table, then the inputs, and publishes the
// formatted report. The lookup table is read first so a bad table fails
// before any input is parsed.
func (a *App) Report(ctx context.Context, paths []string, store database.Store) error {
	table, err := a.LoadLookup()
	if err != nil {
		return err
	}

	events, err := a.collect(ctx, paths, store)
	if err != nil {
		return err
	}

	report, err := a.BuildReport(events, table)
	if err != nil {
		return err
	}
	return a.Publish(ctx, report)
}

// -- Codes --

// CodeSummary describes one operation code seen in the input.
// MissingFields lists description placeholders that no row of the code
// carries a column for.
type CodeSummary struct {
	Code          string
	Count         int
	Name          string
	Known         bool
	MissingFields []string
}

// SummarizeCodes counts each distinct operation code, most frequent first.
func SummarizeCodes(events []model.Event, table lookup.Table) []CodeSummary {
	counts := make(map[string]int)
	columns := make(map[string]map[string]bool)
	for _, e := range events {
		counts[e.Operation]++
		if columns[e.Operation] == nil {
			columns[e.Operation] = make(map[string]bool)
		}
		for key := range e.Attributes {
			columns[e.Operation][key] = true
		}
	}

	out := make([]CodeSummary, 0, len(counts))
	for code, n := range counts {
		meta, _ := lookup.Resolve(code, table)
		var missing []string
		for _, name := range timeline.Placeholders(meta.DescriptionTemplate) {
			key := model.FoldKey(name)
			if key != timeline.CountKey && !columns[code][key] {
				missing = append(missing, name)
			}
		}
		out = append(out, CodeSummary{
			Code:          code,
			Count:         n,
			Name:          meta.CombinedName(),
			Known:         table.Known(code),
			MissingFields: missing,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Code < out[j].Code
	})
	return out
}

// Codes prints the code summary for the given inputs.
func (a *App) Codes(ctx context.Context, paths []string, store database.Store) error {
	table, err := a.LoadLookup()
	if err != nil {
		return err
	}

	events, err := a.collect(ctx, paths, store)
	if err != nil {
		return err
	}

	summary := SummarizeCodes(events, table)
	printCodes(a.stdout, summary)

	unknown := 0
	for _, s := range summary {
		if !s.Known {
			unknown++
		}
		if len(s.MissingFields) > 0 {
			printWarning(a.stderr, fmt.Sprintf("%s: description uses {%s} but no %s row has that column",
				s.Code, strings.Join(s.MissingFields, "}, {"), s.Code))
		}
	}
	if unknown > 0 {
		printWarning(a.stderr, fmt.Sprintf("%d of %d code(s) missing from %s",
			unknown, len(summary), a.cfg.Lookup.Path))
	}
	return nil
}

// -- Database --

// Import loads an input file into the configured table.
func (a *App) Import(ctx context.Context, path string, store database.Store, replace bool) (int, error) {
	t, err := a.readInput(path)
	if err != nil {
		return 0, err
	}
	if err := a.normalizer().HasColumns(t.header); err != nil {
		a.logger.Warn("imported table will not be reportable with current columns",
			zap.String("path", path), zap.Error(err))
	}

	table := a.cfg.Database.Table
	total := len(t.rows)
	n, err := store.ImportRows(ctx, table, t.header, t.rows, replace, func(count int) {
		a.logger.Info("importing rows",
			zap.String("table", table),
			zap.Int("count", count),
			zap.Int("total", total),
		)
	})
	if err != nil {
		return 0, fmt.Errorf("importing %s: %w", path, err)
	}

	held, err := store.CountRows(ctx, table)
	if err != nil {
		return n, fmt.Errorf("counting rows in %s: %w", table, err)
	}
	printNotice(a.stderr, fmt.Sprintf("Imported %s rows from %s into %s (%s total)",
		humanize.Comma(int64(n)), filepath.Base(path), table, humanize.Comma(held)))
	return n, nil
}

// Export writes the configured table to a CSV file. A positive limit caps
// the number of rows written.
func (a *App) Export(ctx context.Context, store database.Store, out string, limit int) (int, error) {
	table := a.cfg.Database.Table
	result, err := store.ReadRows(ctx, table, database.ReadOptions{Limit: limit})
	if err != nil {
		return 0, fmt.Errorf("reading table %s: %w", table, err)
	}

	if err := csvparser.WriteRows(out, result.Header, result.Rows); err != nil {
		return 0, fmt.Errorf("writing CSV: %w", err)
	}

	printNotice(a.stderr, fmt.Sprintf("Exported %s rows to %s", humanize.Comma(int64(result.Count)), out))
	return result.Count, nil
}
