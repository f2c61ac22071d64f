package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/wikienrich/internal/model"
)

// createTestRun creates a finished run with sample data for testing.
func createTestRun() *model.Run {
	run := model.NewRun()
	run.FinishedAt = run.StartedAt.Add(3 * time.Second)
	run.HTMLDir = "/crawl/rock"
	run.DumpPath = "/dumps/enwiki.xml.bz2"
	run.PerformedSteps = []string{"load_events", "build_mentions", "resolve_dump", "join"}
	run.Stats = model.Stats{
		Events: 4,
		Mentions: map[model.EntityType]int{
			model.EntityArtist: 2, model.EntityVenue: 3, model.EntityCity: 2, model.EntityCountry: 1,
		},
		PagesScanned: 1200,
		PagesMatched: map[model.EntityType]int{
			model.EntityArtist: 2, model.EntityCity: 1,
		},
		Duplicates: 1,
		EnrichedEvents: map[model.EntityType]int{
			model.EntityArtist: 3, model.EntityVenue: 0, model.EntityCity: 1, model.EntityCountry: 0,
		},
	}
	run.Enriched = []model.EnrichedEvent{
		{
			Event:      model.Event{URL: "a.html", Artist: "Sticky Fingers", Country: "Australia"},
			Enrichment: map[string]string{"artist_bio": "Formed in Sydney.", "artist_genre": "Rock"},
		},
		{
			Event: model.Event{URL: "b.html", Artist: "Unknown Band"},
		},
	}
	return run
}

func createTestPages() []*model.EnrichedEntityPage {
	return []*model.EnrichedEntityPage{
		{
			Title:         "Sticky Fingers (band)",
			TitleNorm:     "sticky fingers",
			EntityType:    model.EntityArtist,
			Sections:      map[string]string{"artist_bio": "Formed in Sydney."},
			InfoboxFields: map[string]string{"genre": "Rock", "origin": "Sydney"},
		},
		{
			Title:      "Chicago",
			TitleNorm:  "chicago",
			EntityType: model.EntityCity,
		},
	}
}

// TestSimpleWriter tests the human-readable report writer.
func TestSimpleWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes run summary", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		n, err := NewSimpleWriter(&buf).Write(createTestRun())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n != buf.Len() {
			t.Errorf("expected %d bytes reported, got %d", buf.Len(), n)
		}

		output := buf.String()
		expected := []string{
			"WIKIENRICH RUN REPORT",
			"/dumps/enwiki.xml.bz2",
			"Duration:       3s",
			"Status:         Complete",
			"Scanned:        1200",
			"Matched:        3",
			"Duplicates:     1",
			"artist bio:",
			"3 (75.0%)",
		}
		for _, want := range expected {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q", want)
			}
		}
		if strings.Contains(output, "venue capacity") {
			t.Error("expected zero counts to be hidden")
		}
		if strings.Contains(output, "Steps:") {
			t.Error("expected steps only in verbose mode")
		}
	})

	t.Run("show empty and verbose", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf, WithShowEmpty(true), WithVerbose(true))
		if _, err := w.Write(createTestRun()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "venue capacity") {
			t.Error("expected zero counts to be shown")
		}
		if !strings.Contains(output, "Steps:          load_events, build_mentions") {
			t.Error("expected performed steps in verbose mode")
		}
	})

	t.Run("reports failure", func(t *testing.T) {
		t.Parallel()

		run := createTestRun()
		run.Error = errors.New("dump truncated")
		run.ErrorMessage = run.Error.Error()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).Write(run); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "Error - dump truncated") {
			t.Errorf("expected error status, got %q", buf.String())
		}
	})

	t.Run("writes pages", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf, WithVerbose(true)).WritePages(createTestPages()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		for _, want := range []string{
			"[artist] Sticky Fingers (band) (sticky fingers)",
			"section artist_bio: 17 chars",
			"genre = Rock",
			"[city] Chicago (chicago)",
			"2 page(s)",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q, got %q", want, output)
			}
		}
	})
}

// TestJSONWriter tests the JSON lines writer.
func TestJSONWriter(t *testing.T) {
	t.Parallel()

	t.Run("one flattened object per event", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf).Write(createTestRun()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		if len(lines) != 2 {
			t.Fatalf("expected 2 lines, got %d", len(lines))
		}

		var first map[string]any
		if err := json.Unmarshal([]byte(lines[0]), &first); err != nil {
			t.Fatalf("failed to parse line: %v", err)
		}
		if first["artist_bio"] != "Formed in Sydney." {
			t.Errorf("expected flattened artist_bio, got %v", first["artist_bio"])
		}
		if first["url"] != "a.html" {
			t.Errorf("expected url a.html, got %v", first["url"])
		}

		var second map[string]any
		if err := json.Unmarshal([]byte(lines[1]), &second); err != nil {
			t.Fatalf("failed to parse line: %v", err)
		}
		if _, ok := second["artist_bio"]; ok {
			t.Error("expected absent enrichment keys to be omitted")
		}
	})

	t.Run("pretty print", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf, WithPrettyPrint()).WritePages(createTestPages()[:1]); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "\n  \"title\": \"Sticky Fingers (band)\"") {
			t.Errorf("expected indented output, got %q", buf.String())
		}
	})

	t.Run("pages round trip", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf).WritePages(createTestPages()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		decoder := json.NewDecoder(&buf)
		var page model.EnrichedEntityPage
		if err := decoder.Decode(&page); err != nil {
			t.Fatalf("failed to decode page: %v", err)
		}
		if page.TitleNorm != "sticky fingers" || page.InfoboxFields["origin"] != "Sydney" {
			t.Errorf("unexpected page: %+v", page)
		}
	})

	t.Run("empty run writes nothing", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		n, err := NewJSONWriter(&buf).Write(model.NewRun())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n != 0 || buf.Len() != 0 {
			t.Errorf("expected no output, got %q", buf.String())
		}
	})
}

// TestFullJSONWriter tests the single-document writer.
func TestFullJSONWriter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	run := createTestRun()
	if _, err := NewFullJSONWriter(&buf, "v1.2.3").Write(run); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var doc struct {
		Version string           `json:"version"`
		Run     map[string]any   `json:"run"`
		Events  []map[string]any `json:"events"`
	}
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("failed to parse document: %v", err)
	}
	if doc.Version != "v1.2.3" {
		t.Errorf("expected version v1.2.3, got %q", doc.Version)
	}
	if doc.Run["id"] != run.ID {
		t.Errorf("expected run id %s, got %v", run.ID, doc.Run["id"])
	}
	if len(doc.Events) != 2 {
		t.Errorf("expected 2 events, got %d", len(doc.Events))
	}

	empty := NewJSONReport(model.NewRun(), "dev")
	if empty.Events == nil {
		t.Error("expected non-nil events slice")
	}
}

// TestMarkdownWriter tests the Markdown writer.
func TestMarkdownWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes tables and chart", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).Write(createTestRun()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		for _, want := range []string{
			"# wikienrich Run Report",
			"## Events and Mentions",
			"## Matched Pages",
			"## Enrichment",
			"```mermaid",
			"Matched Pages by Type",
			"Artist",
			"75.0%",
			"duplicate page(s) were dropped",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q", want)
			}
		}
	})

	t.Run("no chart without matches", func(t *testing.T) {
		t.Parallel()

		run := createTestRun()
		run.Stats.PagesMatched = map[model.EntityType]int{}
		run.Stats.Duplicates = 0

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).Write(run); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if strings.Contains(output, "```mermaid") {
			t.Error("expected no chart")
		}
		if !strings.Contains(output, "None of the 1200 scanned pages matched") {
			t.Error("expected no-match warning")
		}
	})

	t.Run("writes page table", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).WritePages(createTestPages()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		output := buf.String()
		if !strings.Contains(output, "Sticky Fingers (band)") || !strings.Contains(output, "`chicago`") {
			t.Errorf("unexpected page table %q", output)
		}
	})

	t.Run("empty page list", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).WritePages(nil); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "No page matched") {
			t.Errorf("expected note, got %q", buf.String())
		}
	})
}

// TestMultiWriter tests writing to several writers.
func TestMultiWriter(t *testing.T) {
	t.Parallel()

	var simple, lines bytes.Buffer
	mw := NewMultiWriter(NewSimpleWriter(&simple), NewJSONWriter(&lines))

	n, err := mw.Write(createTestRun())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != simple.Len()+lines.Len() {
		t.Errorf("expected %d bytes, got %d", simple.Len()+lines.Len(), n)
	}

	simple.Reset()
	lines.Reset()
	if _, err := mw.WritePages(createTestPages()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if simple.Len() == 0 || lines.Len() == 0 {
		t.Error("expected both writers to receive pages")
	}
}

func TestTypeLabel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input model.EntityType
		want  string
	}{
		{model.EntityArtist, "Artist"},
		{model.EntityCountry, "Country"},
		{model.EntityUnknown, "Unknown"},
	}
	for _, tt := range tests {
		if got := typeLabel(tt.input); got != tt.want {
			t.Errorf("typeLabel(%q): expected %q, got %q", tt.input, tt.want, got)
		}
	}
}
