package report

import (
	"io"

	"github.com/nao1215/wikienrich/internal/model"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Writer defines the interface for report output.
//
// Design decision: We use an interface to allow different output formats
// and destinations. This enables writing to files or stdout with the same API.
type Writer interface {
	// Write outputs the report of a finished enrichment run.
	// Returns the number of bytes written and any error encountered.
	Write(run *model.Run) (int, error)

	// WritePages outputs resolved entity pages without events.
	// This is what the resolve command produces.
	WritePages(pages []*model.EnrichedEntityPage) (int, error)
}

// MultiWriter writes to multiple Writers simultaneously.
// This is useful for outputting to both terminal and file.
//
// Design decision: We implement this as a separate type rather than
// using io.MultiWriter because our Writer interface is different
// from io.Writer - we write reports, not raw bytes.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the run to all configured Writers.
// Returns the total bytes written across all writers.
// Stops on first error encountered.
func (m *MultiWriter) Write(run *model.Run) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(run)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// WritePages outputs the pages to all configured Writers.
func (m *MultiWriter) WritePages(pages []*model.EnrichedEntityPage) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.WritePages(pages)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// typeLabel returns the display name of an entity type, e.g. "Artist".
func typeLabel(t model.EntityType) string {
	return cases.Title(language.English).String(t.String())
}

// indicatorLabels describe what an event needs to count as enriched for a type.
var indicatorLabels = map[model.EntityType]string{
	model.EntityArtist:  "artist bio",
	model.EntityVenue:   "venue capacity",
	model.EntityCity:    "city population",
	model.EntityCountry: "country capital",
}

// runStatus returns a short status text for a run.
func runStatus(run *model.Run) string {
	switch {
	case run.Cancelled:
		return "Cancelled (partial results)"
	case run.ErrorMessage != "":
		return "Error - " + run.ErrorMessage
	default:
		return "Complete"
	}
}

// timeLayout is used for timestamps in human-readable reports.
const timeLayout = "2006-01-02 15:04:05 MST"
