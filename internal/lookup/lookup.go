// Package lookup maps operation codes to display metadata.
package lookup

import "go.uber.org/zap"

// Fallback values used for unknown codes and for fields missing from a
// table entry.
const (
	UnknownName        = "Unknown Event"
	UnknownSource      = "Unknown Source"
	UnknownDescription = "No description for this event."
)

// Entry is one lookup table record. Every field is optional; a nil field is
// backfilled from the fallback metadata.
type Entry struct {
	Name        *string `json:"name,omitempty" yaml:"name,omitempty"`
	Source      *string `json:"source,omitempty" yaml:"source,omitempty"`
	Description *string `json:"description,omitempty" yaml:"description,omitempty"`
}

// Table maps operation codes to entries. It is read-only once loaded.
type Table map[string]Entry

// Metadata is the fully resolved display information for an operation.
type Metadata struct {
	DisplayName         string
	SourceLabel         string
	DescriptionTemplate string
}

// Fallback returns the metadata used for unknown operation codes.
func Fallback() Metadata {
	return Metadata{
		DisplayName:         UnknownName,
		SourceLabel:         UnknownSource,
		DescriptionTemplate: UnknownDescription,
	}
}

// CombinedName renders "[source] name", or just the name when the source
// label is empty.
func (m Metadata) CombinedName() string {
	if m.SourceLabel == "" {
		return m.DisplayName
	}
	return "[" + m.SourceLabel + "] " + m.DisplayName
}

// Resolve looks up code in table. It never fails: unknown codes get the
// fallback, and fields absent from an entry keep their fallback values.
// The names of backfilled fields are returned so callers can report them.
func Resolve(code string, table Table) (Metadata, []string) {
	meta := Fallback()
	entry, ok := table[code]
	if !ok {
		return meta, nil
	}

	var missing []string
	if entry.Name != nil {
		meta.DisplayName = *entry.Name
	} else {
		missing = append(missing, "name")
	}
	if entry.Source != nil {
		meta.SourceLabel = *entry.Source
	} else {
		missing = append(missing, "source")
	}
	if entry.Description != nil {
		meta.DescriptionTemplate = *entry.Description
	} else {
		missing = append(missing, "description")
	}
	return meta, missing
}

// Known reports whether table has an entry for code.
func (t Table) Known(code string) bool {
	_, ok := t[code]
	return ok
}

// Resolver wraps Resolve with warning logs for incomplete entries. Each
// code is reported once per Resolver. A Resolver is not safe for concurrent
// use; the Table it reads is.
type Resolver struct {
	table  Table
	logger *zap.Logger
	warned map[string]bool
}

// NewResolver creates a Resolver over table. A nil logger disables logging.
func NewResolver(table Table, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{table: table, logger: logger, warned: make(map[string]bool)}
}

// Resolve returns the metadata for code.
func (r *Resolver) Resolve(code string) Metadata {
	meta, missing := Resolve(code, r.table)
	if len(missing) > 0 && !r.warned[code] {
		r.warned[code] = true
		r.logger.Warn("lookup entry missing fields, using defaults",
			zap.String("code", code),
			zap.Strings("fields", missing),
		)
	}
	return meta
}
