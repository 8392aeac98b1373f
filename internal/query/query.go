package query

import (
	"fmt"
	"strings"
)

// Operator represents a SQL comparison operator.
type Operator string

const (
	Equal    Operator = "="
	NotEqual Operator = "!="
)

// validOperators is the set of allowed operators for validation.
var validOperators = map[Operator]bool{
	Equal: true, NotEqual: true,
}

// Predicate represents a single filter condition or a composite of conditions.
// Predicates use parameterized values to prevent SQL injection.
type Predicate struct {
	kind   predicateKind
	field  string
	op     Operator
	value  string
	values []string
	left   *Predicate
	right  *Predicate
}

type predicateKind int

const (
	predNone predicateKind = iota
	predSimple
	predIn
	predNotIn
	predComposite
)

// Simple creates a predicate that compares a field to a value.
// Returns nil if the field is empty or the operator is unrecognized.
func Simple(field string, op Operator, value string) *Predicate {
	if field == "" || !validOperators[op] {
		return nil
	}
	return &Predicate{
		kind:  predSimple,
		field: field,
		op:    op,
		value: value,
	}
}

// In creates a predicate matching any of values. A single value becomes an
// equality test. Returns nil for an empty field or value list.
func In(field string, values []string) *Predicate {
	return set(predIn, Equal, field, values)
}

// NotIn creates a predicate matching none of values. A single value becomes
// an inequality test. Returns nil for an empty field or value list.
func NotIn(field string, values []string) *Predicate {
	return set(predNotIn, NotEqual, field, values)
}

func set(kind predicateKind, single Operator, field string, values []string) *Predicate {
	if field == "" || len(values) == 0 {
		return nil
	}
	if len(values) == 1 {
		return Simple(field, single, values[0])
	}
	return &Predicate{
		kind:   kind,
		field:  field,
		values: append([]string(nil), values...),
	}
}

// Combine joins multiple predicates with AND.
// Returns nil for an empty slice. Returns the single predicate if only one is given.
// Nil predicates in the slice are skipped.
func Combine(preds []*Predicate) *Predicate {
	filtered := make([]*Predicate, 0, len(preds))
	for _, p := range preds {
		if p != nil {
			filtered = append(filtered, p)
		}
	}

	if len(filtered) == 0 {
		return nil
	}

	// Left-leaning tree: ((a AND b) AND c) ...
	result := filtered[0]
	for i := 1; i < len(filtered); i++ {
		result = &Predicate{
			kind:  predComposite,
			left:  result,
			right: filtered[i],
		}
	}
	return result
}

// WhereClause returns the SQL WHERE fragment and its parameter values.
// Placeholders are numbered from *next, which is advanced past the ones used.
func (p *Predicate) WhereClause(d QueryDialect, next *int) (string, []interface{}) {
	if p == nil {
		return "", nil
	}

	switch p.kind {
	case predSimple:
		ph := d.Placeholder(*next)
		*next++
		return fmt.Sprintf("(%s %s %s)", d.QuoteIdent(p.field), p.op, ph), []interface{}{p.value}

	case predIn, predNotIn:
		phs := make([]string, len(p.values))
		args := make([]interface{}, len(p.values))
		for i, v := range p.values {
			phs[i] = d.Placeholder(*next)
			*next++
			args[i] = v
		}
		op := "IN"
		if p.kind == predNotIn {
			op = "NOT IN"
		}
		return fmt.Sprintf("(%s %s (%s))", d.QuoteIdent(p.field), op, strings.Join(phs, ", ")), args

	case predComposite:
		leftSQL, leftArgs := p.left.WhereClause(d, next)
		rightSQL, rightArgs := p.right.WhereClause(d, next)

		if leftSQL == "" {
			return rightSQL, rightArgs
		}
		if rightSQL == "" {
			return leftSQL, leftArgs
		}
		return fmt.Sprintf("(%s AND %s)", leftSQL, rightSQL), append(leftArgs, rightArgs...)

	default:
		return "", nil
	}
}

// Fields returns the list of field names referenced by this predicate tree.
func (p *Predicate) Fields() []string {
	if p == nil {
		return nil
	}

	switch p.kind {
	case predSimple, predIn, predNotIn:
		return []string{p.field}
	case predComposite:
		seen := make(map[string]bool)
		var result []string
		for _, f := range append(p.left.Fields(), p.right.Fields()...) {
			if !seen[f] {
				seen[f] = true
				result = append(result, f)
			}
		}
		return result
	default:
		return nil
	}
}

// Query builds a SELECT statement over one table from predicates (joined
// with AND), ordering and an optional limit.
type Query struct {
	dialect    QueryDialect
	table      string
	columns    []string
	predicates []*Predicate
	orderBy    string
	limit      int
}

// New creates a Query selecting columns from table. A nil dialect uses
// DefaultDialect.
func New(d QueryDialect, table string, columns []string) *Query {
	if d == nil {
		d = DefaultDialect
	}
	return &Query{
		dialect: d,
		table:   table,
		columns: columns,
	}
}

// AddPredicate appends a predicate to the query. Nil predicates are ignored.
// Returns an error if the predicate references a column the query does not
// select.
func (q *Query) AddPredicate(p *Predicate) error {
	if p == nil {
		return nil
	}
	for _, f := range p.Fields() {
		if !q.hasColumn(f) {
			return fmt.Errorf("unknown column in filter: %s", f)
		}
	}
	q.predicates = append(q.predicates, p)
	return nil
}

// OrderBy sets the column to sort results by. The dialect's ID column is
// always accepted. Pass an empty string to clear ordering.
func (q *Query) OrderBy(field string) error {
	if field == "" {
		q.orderBy = ""
		return nil
	}
	if !q.hasColumn(field) && field != q.dialect.IDColumn() {
		return fmt.Errorf("invalid order by field: %s", field)
	}
	q.orderBy = field
	return nil
}

// SetLimit caps the number of rows returned. 0 means no limit.
func (q *Query) SetLimit(n int) {
	if n >= 0 {
		q.limit = n
	}
}

// Build generates the full SQL SELECT statement and its parameter values.
func (q *Query) Build() (string, []interface{}) {
	quoted := make([]string, len(q.columns))
	for i, c := range q.columns {
		quoted[i] = q.dialect.QuoteIdent(c)
	}
	sql := "SELECT " + strings.Join(quoted, ", ") + " FROM " + q.dialect.QuoteIdent(q.table)

	where, args := q.where()
	sql += where

	if q.orderBy != "" {
		sql += " ORDER BY " + q.dialect.QuoteIdent(q.orderBy)
	}
	if q.limit > 0 {
		sql += fmt.Sprintf(" LIMIT %d", q.limit)
	}
	return sql, args
}

// BuildCount generates a COUNT query using the same predicates.
func (q *Query) BuildCount() (string, []interface{}) {
	where, args := q.where()
	return "SELECT COUNT(*) FROM " + q.dialect.QuoteIdent(q.table) + where, args
}

func (q *Query) where() (string, []interface{}) {
	combined := Combine(q.predicates)
	if combined == nil {
		return "", nil
	}
	next := 1
	whereSQL, args := combined.WhereClause(q.dialect, &next)
	if whereSQL == "" {
		return "", nil
	}
	return " WHERE " + whereSQL, args
}

func (q *Query) hasColumn(name string) bool {
	for _, c := range q.columns {
		if c == name {
			return true
		}
	}
	return false
}
