package timeline

import (
	"io"
	"strings"

	"github.com/cdtdelta/daybook/internal/model"
	"github.com/valyala/fasttemplate"
)

// DefaultMissingText replaces placeholders that have no matching attribute.
const DefaultMissingText = "[Not Provided]"

// attrLookup is a total lookup over an attribute set: any key it does not
// hold resolves to the sentinel text.
type attrLookup struct {
	attrs    map[string]string
	sentinel string
	missing  []string
}

func (l *attrLookup) get(name string) string {
	if v, ok := l.attrs[model.FoldKey(name)]; ok {
		return v
	}
	l.missing = append(l.missing, name)
	return l.sentinel
}

// Escaped braces are swapped for private-use runes before tag scanning and
// restored only in literal text, so attribute values pass through untouched.
const (
	openEscape  = "\uE000"
	closeEscape = "\uE001"
)

var unescapeBraces = strings.NewReplacer(openEscape, "{", closeEscape, "}")

// escapeBraces replaces "{{" and "}}" outside placeholders, scanning left to
// right so "{{{n}}}" is an escape, a placeholder, then an escape.
func escapeBraces(tmpl string) string {
	if !strings.Contains(tmpl, "{{") && !strings.Contains(tmpl, "}}") {
		return tmpl
	}

	var b strings.Builder
	b.Grow(len(tmpl) + 8)
	inTag := false
	for i := 0; i < len(tmpl); i++ {
		c := tmpl[i]
		switch {
		case inTag:
			inTag = c != '}'
		case c == '{' && i+1 < len(tmpl) && tmpl[i+1] == '{':
			b.WriteString(openEscape)
			i++
			continue
		case c == '}' && i+1 < len(tmpl) && tmpl[i+1] == '}':
			b.WriteString(closeEscape)
			i++
			continue
		case c == '{':
			inTag = true
		}
		b.WriteByte(c)
	}
	return b.String()
}

// literalWriter receives the text between tags and restores escaped braces.
type literalWriter struct {
	b *strings.Builder
}

func (w literalWriter) Write(p []byte) (int, error) {
	if _, err := unescapeBraces.WriteString(w.b, string(p)); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Render substitutes {name} placeholders in tmpl from attrs. Names are
// matched case-insensitively against case-folded keys; anything after a ':'
// or '!' inside the braces is ignored. "{{" and "}}" produce literal braces
// and an unterminated '{' is copied through as text. Render never fails; it
// returns the names that fell back to the sentinel.
func Render(tmpl string, attrs map[string]string, sentinel string) (string, []string) {
	lookup := &attrLookup{attrs: attrs, sentinel: sentinel}

	var b strings.Builder
	b.Grow(len(tmpl))

	// The tag func never fails, so neither does ExecuteFunc.
	_, _ = fasttemplate.ExecuteFunc(escapeBraces(tmpl), "{", "}", literalWriter{b: &b},
		func(_ io.Writer, tag string) (int, error) {
			return b.WriteString(lookup.get(placeholderName(tag)))
		})
	return b.String(), lookup.missing
}

// Placeholders lists the attribute names referenced by tmpl, in order of
// first appearance.
func Placeholders(tmpl string) []string {
	var names []string
	seen := make(map[string]bool)
	_, _ = fasttemplate.ExecuteFunc(escapeBraces(tmpl), "{", "}", io.Discard,
		func(_ io.Writer, tag string) (int, error) {
			name := placeholderName(tag)
			if key := model.FoldKey(name); !seen[key] {
				seen[key] = true
				names = append(names, name)
			}
			return 0, nil
		})
	return names
}

// placeholderName strips conversion and format specs from a field.
func placeholderName(field string) string {
	if idx := strings.IndexAny(field, ":!"); idx >= 0 {
		field = field[:idx]
	}
	return strings.TrimSpace(field)
}
