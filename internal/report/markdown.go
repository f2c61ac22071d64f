package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
	"github.com/nao1215/wikienrich/internal/model"
)

// MarkdownWriter outputs reports in Markdown format.
// This format is designed for documentation and sharing.
//
// Design decision: We use the nao1215/markdown library for fluent markdown
// generation. It gives us tables, GitHub alerts and mermaid charts without
// hand-escaping pipes and backticks.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the run summary in Markdown format.
func (w *MarkdownWriter) Write(run *model.Run) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, run)
	w.writeMentions(md, run)
	w.writeMatches(md, run)
	w.writeEnrichment(md, run)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// WritePages outputs a table of resolved pages.
func (w *MarkdownWriter) WritePages(pages []*model.EnrichedEntityPage) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("Resolved Entity Pages")
	md.PlainText("")

	if len(pages) == 0 {
		md.Note("No page matched a mentioned entity.")
		md.PlainText("")
		return len(md.String()), md.Build()
	}

	rows := make([][]string, len(pages))
	for i, page := range pages {
		rows[i] = []string{
			page.Title,
			typeLabel(page.EntityType),
			"`" + page.TitleNorm + "`",
			strconv.Itoa(len(page.Sections)),
			strconv.Itoa(len(page.InfoboxFields)),
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Title", "Type", "Join Key", "Sections", "Infobox Fields"},
		Rows:   rows,
	})
	md.PlainText("")

	return len(md.String()), md.Build()
}

// writeHeader writes the report header with run information.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, run *model.Run) {
	md.H1("wikienrich Run Report")
	md.PlainText("")

	rows := [][]string{
		{"Run", "`" + run.ID + "`"},
		{"Started", run.StartedAt.Format(timeLayout)},
	}
	if !run.FinishedAt.IsZero() {
		rows = append(rows, []string{"Duration", run.FinishedAt.Sub(run.StartedAt).String()})
	}
	if run.HTMLDir != "" {
		rows = append(rows, []string{"Setlists", "`" + run.HTMLDir + "`"})
	}
	if run.DumpPath != "" {
		rows = append(rows, []string{"Dump", "`" + run.DumpPath + "`"})
	}
	rows = append(rows, []string{"Status", w.getStatusText(run)})

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows:   rows,
	})
	md.PlainText("")
}

// getStatusText returns the status text based on run state.
func (w *MarkdownWriter) getStatusText(run *model.Run) string {
	switch {
	case run.Cancelled:
		return "⚠️ " + runStatus(run)
	case run.ErrorMessage != "":
		return "❌ " + runStatus(run)
	default:
		return "✅ " + runStatus(run)
	}
}

// writeMentions writes the events and mentions section.
func (w *MarkdownWriter) writeMentions(md *markdown.Markdown, run *model.Run) {
	md.H2("Events and Mentions")
	md.PlainText("")

	rows := [][]string{{"Events", strconv.Itoa(run.Stats.Events)}}
	for _, t := range model.MentionOrder {
		rows = append(rows, []string{typeLabel(t) + " mentions", strconv.Itoa(run.Stats.Mentions[t])})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Item", "Count"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeMatches writes the dump scan section with a chart of matched types.
func (w *MarkdownWriter) writeMatches(md *markdown.Markdown, run *model.Run) {
	md.H2("Matched Pages")
	md.PlainText("")

	rows := make([][]string, 0, len(model.MentionOrder)+3)
	rows = append(rows, []string{"Scanned", strconv.Itoa(run.Stats.PagesScanned)})
	for _, t := range model.MentionOrder {
		rows = append(rows, []string{typeLabel(t), strconv.Itoa(run.Stats.PagesMatched[t])})
	}
	rows = append(rows,
		[]string{"Duplicates dropped", strconv.Itoa(run.Stats.Duplicates)},
		[]string{"**Total matched**", "**" + strconv.Itoa(run.Stats.TotalMatched()) + "**"},
	)
	md.Table(markdown.TableSet{
		Header: []string{"Pages", "Count"},
		Rows:   rows,
	})
	md.PlainText("")

	if run.Stats.TotalMatched() > 0 {
		w.writePieChart(md, run)
	}

	w.writeAlert(md, run)
}

// writePieChart writes a mermaid pie chart of matched pages per type.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, run *model.Run) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Matched Pages by Type"),
		piechart.WithShowData(true),
	)

	for _, t := range model.MentionOrder {
		if n := run.Stats.PagesMatched[t]; n > 0 {
			chart.LabelAndIntValue(typeLabel(t), uint64(n))
		}
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeAlert writes an alert summarising the outcome of the run.
func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, run *model.Run) {
	switch {
	case run.ErrorMessage != "":
		md.Cautionf("The run failed: %s", run.ErrorMessage)
	case run.Cancelled:
		md.Warningf("The run was cancelled after %d page(s). Counts cover only those pages.", run.Stats.PagesScanned)
	case run.Stats.PagesScanned > 0 && run.Stats.TotalMatched() == 0:
		md.Warningf("None of the %d scanned pages matched a mentioned entity.", run.Stats.PagesScanned)
	case run.Stats.Duplicates > 0:
		md.Note(fmt.Sprintf("%d duplicate page(s) were dropped; the first page in dump order was kept.", run.Stats.Duplicates))
	default:
		md.Tip("Every matched page was unique.")
	}
	md.PlainText("")
}

// writeEnrichment writes how many events gained data, per type.
func (w *MarkdownWriter) writeEnrichment(md *markdown.Markdown, run *model.Run) {
	md.H2("Enrichment")
	md.PlainText("")

	types := []model.EntityType{model.EntityArtist, model.EntityVenue, model.EntityCity, model.EntityCountry}
	rows := make([][]string, len(types))
	for i, t := range types {
		n := run.Stats.EnrichedEvents[t]
		rows[i] = []string{
			"Events with " + indicatorLabels[t],
			strconv.Itoa(n),
			fmt.Sprintf("%.1f%%", run.Stats.Percent(n)),
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Indicator", "Events", "Share"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [wikienrich](https://github.com/nao1215/wikienrich)*")
}
