package report

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/nao1215/wikienrich/internal/model"
)

// SimpleWriter outputs human-readable text reports for terminal display.
//
// Design decision: We use plain text with ASCII formatting rather than
// ANSI colors because it works in all terminals and is easy to pipe to
// files or other tools.
type SimpleWriter struct {
	baseWriter

	// showEmpty controls whether types with nothing to report are shown.
	showEmpty bool

	// verbose enables additional detail in the output.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithShowEmpty configures the writer to show types with zero counts.
func WithShowEmpty(show bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.showEmpty = show
	}
}

// WithVerbose enables verbose output with additional details.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the run summary in human-readable format.
func (w *SimpleWriter) Write(run *model.Run) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, run)
	w.writeMentions(&sb, run)
	w.writePages(&sb, run)
	w.writeEnrichment(&sb, run)
	w.writeFooter(&sb)

	return w.output.Write([]byte(sb.String()))
}

// WritePages outputs one line per page, followed by its section and field
// keys when verbose.
func (w *SimpleWriter) WritePages(pages []*model.EnrichedEntityPage) (int, error) {
	var sb strings.Builder

	for _, page := range pages {
		fmt.Fprintf(&sb, "[%s] %s (%s)\n", page.EntityType, page.Title, page.TitleNorm)
		if !w.verbose {
			continue
		}
		for _, key := range sortedKeys(page.Sections) {
			fmt.Fprintf(&sb, "    section %s: %d chars\n", key, len(page.Sections[key]))
		}
		for _, key := range sortedKeys(page.InfoboxFields) {
			fmt.Fprintf(&sb, "    %s = %s\n", key, page.InfoboxFields[key])
		}
	}
	fmt.Fprintf(&sb, "%d page(s)\n", len(pages))

	return w.output.Write([]byte(sb.String()))
}

// writeHeader writes the report header with run information.
func (w *SimpleWriter) writeHeader(sb *strings.Builder, run *model.Run) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                      WIKIENRICH RUN REPORT\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	fmt.Fprintf(sb, "Run:            %s\n", run.ID)
	fmt.Fprintf(sb, "Started:        %s\n", run.StartedAt.Format(timeLayout))
	if !run.FinishedAt.IsZero() {
		fmt.Fprintf(sb, "Duration:       %s\n", run.FinishedAt.Sub(run.StartedAt).Round(time.Millisecond))
	}
	if run.HTMLDir != "" {
		fmt.Fprintf(sb, "Setlists:       %s\n", run.HTMLDir)
	}
	if run.DumpPath != "" {
		fmt.Fprintf(sb, "Dump:           %s\n", run.DumpPath)
	}
	fmt.Fprintf(sb, "Status:         %s\n", runStatus(run))
	if w.verbose && len(run.PerformedSteps) > 0 {
		fmt.Fprintf(sb, "Steps:          %s\n", strings.Join(run.PerformedSteps, ", "))
	}
	sb.WriteString("\n")
}

// writeMentions writes the distinct mentions per type.
func (w *SimpleWriter) writeMentions(sb *strings.Builder, run *model.Run) {
	w.writeSection(sb, "EVENTS AND MENTIONS")

	fmt.Fprintf(sb, "  Events loaded:  %d\n", run.Stats.Events)
	for _, t := range model.MentionOrder {
		n := run.Stats.Mentions[t]
		if n == 0 && !w.showEmpty {
			continue
		}
		fmt.Fprintf(sb, "  %-14s  %d\n", typeLabel(t)+" mentions:", n)
	}
	sb.WriteString("\n")
}

// writePages writes the dump scan counters.
func (w *SimpleWriter) writePages(sb *strings.Builder, run *model.Run) {
	w.writeSection(sb, "DUMP PAGES")

	fmt.Fprintf(sb, "  Scanned:        %d\n", run.Stats.PagesScanned)
	fmt.Fprintf(sb, "  Matched:        %d\n", run.Stats.TotalMatched())
	for _, t := range model.MentionOrder {
		n := run.Stats.PagesMatched[t]
		if n == 0 && !w.showEmpty {
			continue
		}
		fmt.Fprintf(sb, "    %-12s  %d\n", typeLabel(t)+":", n)
	}
	fmt.Fprintf(sb, "  Duplicates:     %d\n", run.Stats.Duplicates)
	sb.WriteString("\n")
}

// writeEnrichment writes how many events gained data, per type.
func (w *SimpleWriter) writeEnrichment(sb *strings.Builder, run *model.Run) {
	w.writeSection(sb, "ENRICHMENT")

	for _, t := range []model.EntityType{model.EntityArtist, model.EntityVenue, model.EntityCity, model.EntityCountry} {
		n := run.Stats.EnrichedEvents[t]
		if n == 0 && !w.showEmpty {
			continue
		}
		fmt.Fprintf(sb, "  Events with %-16s %d (%.1f%%)\n", indicatorLabels[t]+":", n, run.Stats.Percent(n))
	}
	sb.WriteString("\n")
}

// writeSection writes a section title between rules.
func (w *SimpleWriter) writeSection(sb *strings.Builder, title string) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString(title)
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")
}

// writeFooter writes the report footer.
func (w *SimpleWriter) writeFooter(sb *strings.Builder) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("Report generated by wikienrich\n")
	sb.WriteString("https://github.com/nao1215/wikienrich\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
}

// sortedKeys returns the keys of m in lexical order.
func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
