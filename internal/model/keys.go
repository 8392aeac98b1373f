package model

import (
	"strings"

	"golang.org/x/text/cases"
)

// FoldKey returns the canonical form of an attribute or column name.
// Casers carry state, so a fresh one is built per call.
func FoldKey(name string) string {
	return cases.Fold().String(strings.TrimSpace(name))
}
