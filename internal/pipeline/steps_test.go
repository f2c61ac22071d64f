package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nao1215/wikienrich/internal/model"
)

const setlistPage = `<html><body>
<div class="setlistHeadline"><h1>
<a href="../setlists/sticky-fingers-4bd6.html"><span>Sticky Fingers</span></a> Setlist
at <a href="../venue/metro-chicago-usa-3bd6.html"><span>Metro, Chicago, USA</span></a>
</h1></div>
<span class="month">Oct</span><span class="day">5</span><span class="year">2019</span>
<a class="songLabel" href="../song1.html">Australian Street</a>
</body></html>`

// enrichmentPages covers every entity of setlistPage.
func enrichmentPages() []*model.RawPage {
	return []*model.RawPage{
		{Title: "Sticky Fingers (band)", MarkupText: artistMarkup},
		{Title: "Metro (Chicago)", MarkupText: "{{Infobox venue\n| capacity = 1,100\n| opened = 1982\n}}\n== History ==\nA rock club.\n"},
		{Title: "Chicago", MarkupText: "{{Infobox settlement\n| population = 2,746,388\n}}\n== History ==\nFounded in 1833.\n"},
		{Title: "United States", MarkupText: "{{Infobox country\n| capital = Washington\n}}\n== History ==\nIndependence in 1776.\n"},
	}
}

// memDump serves pages from memory and records Close.
type memDump struct {
	*sliceSource
	closed bool
}

func (m *memDump) Close() error {
	m.closed = true
	return nil
}

func memOpener(pages []*model.RawPage, opened **memDump) DumpOpener {
	return func(_ string) (DumpSource, error) {
		d := &memDump{sliceSource: &sliceSource{pages: pages}}
		if opened != nil {
			*opened = d
		}
		return d, nil
	}
}

// fakeStore records what the persist step writes.
type fakeStore struct {
	pages  []*model.EnrichedEntityPage
	events []model.EnrichedEvent
	runs   []string
	err    error
}

func (f *fakeStore) SaveEntityPages(_ context.Context, _ string, pages []*model.EnrichedEntityPage) (model.PageWrites, error) {
	if f.err != nil {
		return model.PageWrites{}, f.err
	}
	f.pages = append(f.pages, pages...)
	return model.PageWrites{Inserted: len(pages)}, nil
}

func (f *fakeStore) SaveEnrichedEvents(_ context.Context, _ string, events []model.EnrichedEvent) error {
	f.events = append(f.events, events...)
	return nil
}

func (f *fakeStore) SaveRun(_ context.Context, run *model.Run) error {
	f.runs = append(f.runs, run.ID)
	return nil
}

func writeSetlistDir(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "sticky-fingers-metro.html"), []byte(setlistPage), 0o600); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}
	return dir
}

func TestLoadEventsStep(t *testing.T) {
	t.Parallel()

	t.Run("loads events from directory", func(t *testing.T) {
		t.Parallel()

		run := model.NewRun()
		run.HTMLDir = writeSetlistDir(t)

		step := NewLoadEventsStep(nil, WithLoadLogger(discardLogger()))
		if step.Name() != "load_events" {
			t.Errorf("expected name %q, got %q", "load_events", step.Name())
		}
		if err := step.Do(context.Background(), run); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if run.Stats.Events != 1 || len(run.Events) != 1 {
			t.Fatalf("expected 1 event, got %d", len(run.Events))
		}
		ev := run.Events[0]
		if ev.Artist != "Sticky Fingers" || ev.Venue != "Metro" || ev.City != "Chicago" || ev.Country != "USA" {
			t.Errorf("unexpected event: %+v", ev)
		}
	})

	t.Run("requires a directory", func(t *testing.T) {
		t.Parallel()

		err := NewLoadEventsStep(nil).Do(context.Background(), model.NewRun())
		if !errors.Is(err, ErrNoHTMLDir) {
			t.Errorf("expected ErrNoHTMLDir, got %v", err)
		}
	})
}

func TestBuildMentionsStep(t *testing.T) {
	t.Parallel()

	run := model.NewRun()
	run.Events = []model.Event{
		{Artist: "Sticky Fingers", Venue: "Metro", City: "IL", Country: "USA"},
		{Artist: "sticky  fingers", Venue: "Enmore Theatre", City: "Sydney", Country: "Australia"},
	}

	step := NewBuildMentionsStep(WithMentionsLogger(discardLogger()))
	if err := step.Do(context.Background(), run); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tests := []struct {
		entity model.EntityType
		value  string
	}{
		{model.EntityArtist, "sticky fingers"},
		{model.EntityVenue, "enmore theatre"},
		{model.EntityCity, "illinois"},
		{model.EntityCountry, "united states"},
		{model.EntityCountry, "australia"},
	}
	for _, tt := range tests {
		if !run.Mentions.Contains(tt.entity, tt.value) {
			t.Errorf("expected %s mention %q", tt.entity, tt.value)
		}
	}

	if run.Stats.Mentions[model.EntityArtist] != 1 {
		t.Errorf("expected 1 distinct artist, got %d", run.Stats.Mentions[model.EntityArtist])
	}
	if run.Stats.Mentions[model.EntityCountry] != 2 {
		t.Errorf("expected 2 countries, got %d", run.Stats.Mentions[model.EntityCountry])
	}
}

func TestResolveDumpStep(t *testing.T) {
	t.Parallel()

	t.Run("resolves and closes the dump", func(t *testing.T) {
		t.Parallel()

		var opened *memDump
		run := model.NewRun()
		run.DumpPath = "memory.xml"
		run.Mentions = testMentions()

		step := NewResolveDumpStep(newTestBatch(),
			WithDumpOpener(memOpener(testPages(), &opened)),
			WithResolveLogger(discardLogger()),
		)
		if err := step.Do(context.Background(), run); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(run.Pages) != 2 {
			t.Errorf("expected 2 pages, got %d", len(run.Pages))
		}
		if run.Stats.PagesScanned != 6 {
			t.Errorf("expected 6 scanned pages, got %d", run.Stats.PagesScanned)
		}
		if run.Stats.Duplicates != 1 {
			t.Errorf("expected 1 duplicate, got %d", run.Stats.Duplicates)
		}
		if run.Stats.TotalMatched() != 2 {
			t.Errorf("expected 2 matched pages, got %d", run.Stats.TotalMatched())
		}
		if opened == nil || !opened.closed {
			t.Error("expected the dump to be closed")
		}
	})

	t.Run("skips the scan without mentions", func(t *testing.T) {
		t.Parallel()

		var opened *memDump
		run := model.NewRun()
		run.DumpPath = "memory.xml"
		run.Mentions = model.NewMentionSet(nil)

		step := NewResolveDumpStep(nil,
			WithDumpOpener(memOpener(testPages(), &opened)),
			WithResolveLogger(discardLogger()),
		)
		if err := step.Do(context.Background(), run); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if opened != nil {
			t.Error("expected the dump not to be opened")
		}
		if len(run.Pages) != 0 {
			t.Errorf("expected no pages, got %d", len(run.Pages))
		}
	})

	t.Run("input errors", func(t *testing.T) {
		t.Parallel()

		tests := []struct {
			name     string
			dumpPath string
			mentions *model.MentionSet
			want     error
		}{
			{name: "no dump", mentions: testMentions(), want: ErrNoDump},
			{name: "no mentions", dumpPath: "memory.xml", want: ErrNoMentions},
		}

		for _, tt := range tests {
			run := model.NewRun()
			run.DumpPath = tt.dumpPath
			run.Mentions = tt.mentions

			err := NewResolveDumpStep(nil).Do(context.Background(), run)
			if !errors.Is(err, tt.want) {
				t.Errorf("%s: expected %v, got %v", tt.name, tt.want, err)
			}
		}
	})

	t.Run("open failure is wrapped", func(t *testing.T) {
		t.Parallel()

		missing := errors.New("no such dump")
		run := model.NewRun()
		run.DumpPath = "missing.xml"
		run.Mentions = testMentions()

		step := NewResolveDumpStep(nil, WithDumpOpener(func(string) (DumpSource, error) {
			return nil, missing
		}))
		err := step.Do(context.Background(), run)
		if !errors.Is(err, missing) {
			t.Errorf("expected %v, got %v", missing, err)
		}
	})

	t.Run("real dump file", func(t *testing.T) {
		t.Parallel()

		_, err := OpenDump(filepath.Join(t.TempDir(), "absent.xml"))
		if err == nil {
			t.Error("expected an error for a missing file")
		}
	})
}

func TestJoinStep(t *testing.T) {
	t.Parallel()

	run := model.NewRun()
	run.Events = []model.Event{{Artist: "Sticky Fingers"}, {Artist: "Someone Else"}}
	run.Pages = []*model.EnrichedEntityPage{{
		Title:      "Sticky Fingers (band)",
		TitleNorm:  "sticky fingers",
		EntityType: model.EntityArtist,
		Sections:   map[string]string{"artist_bio": "Formed in Sydney."},
	}}

	if err := NewJoinStep(WithJoinLogger(discardLogger())).Do(context.Background(), run); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(run.Enriched) != 2 {
		t.Fatalf("expected 2 enriched events, got %d", len(run.Enriched))
	}
	if got := run.Enriched[0].Enrichment["artist_bio"]; got != "Formed in Sydney." {
		t.Errorf("expected artist bio, got %q", got)
	}
	if run.Enriched[1].Has("artist_bio") {
		t.Error("expected no bio for an unmatched artist")
	}
	if run.Stats.EnrichedEvents[model.EntityArtist] != 1 {
		t.Errorf("expected 1 event with artist bio, got %d", run.Stats.EnrichedEvents[model.EntityArtist])
	}
}

func TestPersistStep(t *testing.T) {
	t.Parallel()

	t.Run("writes pages events and run", func(t *testing.T) {
		t.Parallel()

		store := &fakeStore{}
		run := model.NewRun()
		run.Pages = []*model.EnrichedEntityPage{{Title: "A", TitleNorm: "a", EntityType: model.EntityArtist}}
		run.Enriched = []model.EnrichedEvent{{Event: model.Event{URL: "a.html"}}}

		if err := NewPersistStep(store, WithPersistLogger(discardLogger())).Do(context.Background(), run); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(store.pages) != 1 || len(store.events) != 1 {
			t.Errorf("expected 1 page and 1 event, got %d and %d", len(store.pages), len(store.events))
		}
		if len(store.runs) != 1 || store.runs[0] != run.ID {
			t.Errorf("expected run %s to be saved, got %v", run.ID, store.runs)
		}
		if run.Stats.StoredPages != (model.PageWrites{Inserted: 1}) {
			t.Errorf("expected 1 inserted page in stats, got %+v", run.Stats.StoredPages)
		}
	})

	t.Run("store failure is wrapped", func(t *testing.T) {
		t.Parallel()

		full := errors.New("disk full")
		err := NewPersistStep(&fakeStore{err: full}).Do(context.Background(), model.NewRun())
		if !errors.Is(err, full) {
			t.Errorf("expected %v, got %v", full, err)
		}
	})
}

func TestDefaultPipeline(t *testing.T) {
	t.Parallel()

	t.Run("step names without store", func(t *testing.T) {
		t.Parallel()

		p := DefaultPipeline(nil)
		want := []string{"load_events", "build_mentions", "resolve_dump", "join"}
		if got := strings.Join(p.StepNames(), ","); got != strings.Join(want, ",") {
			t.Errorf("expected steps %v, got %v", want, p.StepNames())
		}
	})

	t.Run("enriches events end to end", func(t *testing.T) {
		t.Parallel()

		store := &fakeStore{}
		p := DefaultPipeline(
			[]Option{WithLogger(discardLogger())},
			WithPipelineWorkers(4),
			WithPipelineLoadConcurrency(2),
			WithPipelineLogger(discardLogger()),
			WithPipelineStore(store),
			WithPipelineDumpOpener(memOpener(enrichmentPages(), nil)),
		)
		if p.StepCount() != 5 {
			t.Fatalf("expected 5 steps, got %d", p.StepCount())
		}

		run := model.NewRun()
		run.HTMLDir = writeSetlistDir(t)
		run.DumpPath = "memory.xml"

		if err := p.Execute(context.Background(), run); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(run.Enriched) != 1 {
			t.Fatalf("expected 1 enriched event, got %d", len(run.Enriched))
		}
		got := run.Enriched[0].Enrichment
		tests := []struct {
			key  string
			want string
		}{
			{"artist_genre", "Rock"},
			{"venue_capacity", "1,100"},
			{"city_population", "2,746,388"},
			{"country_capital", "Washington"},
		}
		for _, tt := range tests {
			if got[tt.key] != tt.want {
				t.Errorf("%s: expected %q, got %q", tt.key, tt.want, got[tt.key])
			}
		}
		if !strings.Contains(got["artist_bio"], "Formed in Sydney") {
			t.Errorf("expected artist bio, got %q", got["artist_bio"])
		}

		for _, entity := range model.MentionOrder {
			if run.Stats.EnrichedEvents[entity] != 1 {
				t.Errorf("expected 1 %s enrichment, got %d", entity, run.Stats.EnrichedEvents[entity])
			}
		}
		if len(store.pages) != 4 {
			t.Errorf("expected 4 stored pages, got %d", len(store.pages))
		}
		if len(run.PerformedSteps) != 5 {
			t.Errorf("expected 5 performed steps, got %v", run.PerformedSteps)
		}
	})
}
