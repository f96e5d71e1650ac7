// Package printer renders allocator state — accounting snapshots and
// size-class tables — for humans and tooling. Text output formats
// numbers with locale-aware grouping; JSON output is stable for
// scripting.
package printer

import (
	"io"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Format specifies the output format for printing.
type Format string

const (
	// FormatText outputs human-readable aligned text.
	FormatText Format = "text"

	// FormatJSON outputs JSON.
	FormatJSON Format = "json"
)

// Options controls printing behavior.
type Options struct {
	// Format specifies output format (text, json).
	// Default: FormatText
	Format Format

	// ShowPeaks includes lifetime and interval peak figures in stats
	// output.
	// Default: true
	ShowPeaks bool

	// ShowOps includes internal operation counters in stats output.
	// Default: false
	ShowOps bool

	// Locale selects the number-formatting locale for text output.
	// Default: language.English
	Locale language.Tag
}

// DefaultOptions returns sensible defaults for printing.
func DefaultOptions() Options {
	return Options{
		Format:    FormatText,
		ShowPeaks: true,
		ShowOps:   false,
		Locale:    language.English,
	}
}

// Printer handles formatted output of allocator state.
type Printer struct {
	opts Options
	w    io.Writer
	msg  *message.Printer
}

// New creates a new Printer writing to w.
func New(w io.Writer, opts Options) *Printer {
	if opts.Format == "" {
		opts.Format = FormatText
	}
	if opts.Locale == (language.Tag{}) {
		opts.Locale = language.English
	}
	return &Printer{
		opts: opts,
		w:    w,
		msg:  message.NewPrinter(opts.Locale),
	}
}
