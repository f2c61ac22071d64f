package report

import (
	"encoding/json"
	"io"

	"github.com/nao1215/wikienrich/internal/model"
)

// JSONWriter outputs enriched events in JSON lines format: one JSON object
// per event, with the enrichment keys flattened next to the event fields.
//
// Design decision: We use standard encoding/json rather than a third-party
// JSON library because it is sufficient for flat string maps and it is what
// model.EnrichedEvent implements its MarshalJSON against.
type JSONWriter struct {
	baseWriter

	// indent enables pretty-printed JSON output.
	// When false, output is one compact object per line.
	indent bool

	// indentPrefix is the prefix for each line in indented output.
	indentPrefix string

	// indentString is the indentation string (typically "  " or "\t").
	indentString string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent enables pretty-printed JSON output.
// The prefix is prepended to each line, and indent is used for each level.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = prefix
		w.indentString = indent
	}
}

// WithPrettyPrint enables pretty-printed JSON with default indentation.
// This is a convenience wrapper for WithIndent("", "  ").
func WithPrettyPrint() JSONWriterOption {
	return WithIndent("", "  ")
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs every enriched event of the run, in event order.
func (w *JSONWriter) Write(run *model.Run) (int, error) {
	var total int
	for _, ev := range run.Enriched {
		n, err := w.writeJSON(ev)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// WritePages outputs every page as one JSON object.
func (w *JSONWriter) WritePages(pages []*model.EnrichedEntityPage) (int, error) {
	var total int
	for _, page := range pages {
		n, err := w.WritePage(page)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// WritePage outputs a single page. The resolve command calls it for each
// page as soon as the page is accepted.
func (w *JSONWriter) WritePage(page *model.EnrichedEntityPage) (int, error) {
	return w.writeJSON(page)
}

// writeJSON marshals the given value to JSON and writes it to the output.
func (w *JSONWriter) writeJSON(v any) (int, error) {
	var data []byte
	var err error

	if w.indent {
		data, err = json.MarshalIndent(v, w.indentPrefix, w.indentString)
	} else {
		data, err = json.Marshal(v)
	}

	if err != nil {
		return 0, err
	}

	data = append(data, '\n')

	return w.output.Write(data)
}

// JSONReport is a wrapper for a whole run with additional metadata.
//
// Design decision: We wrap the run rather than adding output fields to
// model.Run so that output-specific fields do not leak into the store.
type JSONReport struct {
	// Version is the wikienrich version that generated this report.
	Version string `json:"version"`

	// Run is the run summary: id, timestamps, inputs and stats.
	Run *model.Run `json:"run"`

	// Events are the enriched events.
	Events []model.EnrichedEvent `json:"events"`
}

// NewJSONReport creates a JSONReport wrapper with version information.
func NewJSONReport(run *model.Run, version string) *JSONReport {
	events := run.Enriched
	if events == nil {
		events = make([]model.EnrichedEvent, 0)
	}
	return &JSONReport{
		Version: version,
		Run:     run,
		Events:  events,
	}
}

// FullJSONWriter outputs a run as a single JSON document with metadata.
type FullJSONWriter struct {
	*JSONWriter

	// version is the wikienrich version string.
	version string
}

// NewFullJSONWriter creates a writer for complete runs with metadata.
func NewFullJSONWriter(output io.Writer, version string, opts ...JSONWriterOption) *FullJSONWriter {
	return &FullJSONWriter{
		JSONWriter: NewJSONWriter(output, opts...),
		version:    version,
	}
}

// Write outputs the run wrapped with metadata.
func (w *FullJSONWriter) Write(run *model.Run) (int, error) {
	return w.writeJSON(NewJSONReport(run, w.version))
}
