package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	isatty "github.com/mattn/go-isatty"
)

const (
	ansiReset  = "\033[0m"
	ansiDim    = "\033[2m"
	ansiGreen  = "\033[32m"
	ansiYellow = "\033[33m"
)

// shouldUsePrettyOutput reports whether w is a color-capable terminal.
func shouldUsePrettyOutput(w io.Writer) bool {
	if strings.TrimSpace(os.Getenv("NO_COLOR")) != "" {
		return false
	}
	if strings.EqualFold(strings.TrimSpace(os.Getenv("TERM")), "dumb") {
		return false
	}
	f, ok := w.(interface{ Fd() uintptr })
	if !ok {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func printNotice(w io.Writer, message string) {
	if shouldUsePrettyOutput(w) {
		fmt.Fprintf(w, "%s%s%s\n", ansiGreen, message, ansiReset)
		return
	}
	fmt.Fprintln(w, message)
}

func printWarning(w io.Writer, message string) {
	if shouldUsePrettyOutput(w) {
		fmt.Fprintf(w, "%swarning:%s %s\n", ansiYellow, ansiReset, message)
		return
	}
	fmt.Fprintln(w, "warning: "+message)
}

// printCodes writes one tab-separated line per code: count, code, resolved
// name. Codes missing from the lookup table are marked "(unknown)".
func printCodes(w io.Writer, summary []CodeSummary) {
	pretty := shouldUsePrettyOutput(w)
	for _, s := range summary {
		count := humanize.Comma(int64(s.Count))
		name := s.Name
		if !s.Known {
			name += " (unknown)"
			if pretty {
				name = ansiYellow + name + ansiReset
			}
		}
		if pretty {
			count = ansiDim + count + ansiReset
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", count, s.Code, name)
	}
}
