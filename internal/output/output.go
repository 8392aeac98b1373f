// Package output delivers a finished report to its destinations.
package output

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/atotto/clipboard"
)

// clipboardWriteAll is replaced in tests; the real clipboard needs a
// display server.
var clipboardWriteAll = clipboard.WriteAll

// Sink receives the full report text.
type Sink interface {
	Write(ctx context.Context, text string) error
}

// WriterSink writes to an io.Writer such as os.Stdout.
type WriterSink struct {
	W io.Writer
}

func (s WriterSink) Write(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := io.WriteString(s.W, text); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	return nil
}

// FileSink creates or truncates Path and writes the report to it.
type FileSink struct {
	Path string
}

func (s FileSink) Write(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if dir := filepath.Dir(s.Path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}
	}
	if err := os.WriteFile(s.Path, []byte(text), 0644); err != nil {
		return fmt.Errorf("writing report to %s: %w", s.Path, err)
	}
	return nil
}

// ClipboardSink copies the report to the system clipboard.
type ClipboardSink struct{}

func (ClipboardSink) Write(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := clipboardWriteAll(text); err != nil {
		return fmt.Errorf("copying report to clipboard: %w", err)
	}
	return nil
}

// MultiSink writes to every sink in order. All sinks are attempted; the
// returned error joins every failure.
type MultiSink []Sink

func (m MultiSink) Write(ctx context.Context, text string) error {
	var errs []error
	for _, s := range m {
		if err := s.Write(ctx, text); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Select builds the sink for the given destinations. Stdout is used when no
// file or clipboard is requested.
func Select(stdout io.Writer, file string, toClipboard bool) Sink {
	var sinks MultiSink
	if file != "" {
		sinks = append(sinks, FileSink{Path: file})
	}
	if toClipboard {
		sinks = append(sinks, ClipboardSink{})
	}
	if len(sinks) == 0 {
		return WriterSink{W: stdout}
	}
	if len(sinks) == 1 {
		return sinks[0]
	}
	return sinks
}
