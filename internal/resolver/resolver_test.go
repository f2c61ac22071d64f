package resolver

import (
	"io"
	"log/slog"
	"reflect"
	"sync"
	"testing"

	"github.com/nao1215/wikienrich/internal/model"
)

const stickyFingersMarkup = `{{Infobox musical artist
| name = Sticky Fingers
| origin = [[Sydney]], Australia
| genre = {{hlist|[[Reggae rock]]|[[Indie rock]]}}
| years_active = 2008–present
| website = {{URL|stickyfingers.com}}
}}
'''Sticky Fingers''' are an Australian band.
== History ==
Formed in [[Sydney]] in 2008.
=== Early years ===
Pub gigs.
== Discography ==
* ''Caress Your Soul'' (2013)
== References ==
{{reflist}}
[[Category:Australian rock bands]]`

const chicagoMarkup = `{{Infobox settlement
| name = Chicago
| population = 2,746,388
| area = 234 sq mi
}}
== History ==
Founded in 1833.
== Geography ==
On [[Lake Michigan]].
== References ==
{{reflist}}
[[Category:Cities in Illinois]]`

func newTestResolver() *Resolver {
	return New(WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
}

func mentionsOf(t model.EntityType, values ...string) *model.MentionSet {
	return model.NewMentionSet(map[model.EntityType][]string{t: values})
}

func TestResolvePageAccepts(t *testing.T) {
	t.Parallel()

	t.Run("artist with clarified title", func(t *testing.T) {
		t.Parallel()

		page := &model.RawPage{Title: "Sticky Fingers (band)", MarkupText: stickyFingersMarkup}
		got, ok := newTestResolver().ResolvePage(page, mentionsOf(model.EntityArtist, "sticky fingers"))
		if !ok {
			t.Fatal("expected page to be accepted")
		}

		if got.EntityType != model.EntityArtist {
			t.Errorf("expected type %q, got %q", model.EntityArtist, got.EntityType)
		}
		if got.TitleNorm != "sticky fingers" {
			t.Errorf("expected title norm %q, got %q", "sticky fingers", got.TitleNorm)
		}
		if got.Title != "Sticky Fingers (band)" {
			t.Errorf("expected original title, got %q", got.Title)
		}

		wantSections := map[string]string{
			"artist_bio":  "Formed in Sydney in 2008.\nEarly years\n\nPub gigs.",
			"discography": "Caress Your Soul (2013)",
		}
		if !reflect.DeepEqual(got.Sections, wantSections) {
			t.Errorf("expected sections %q, got %q", wantSections, got.Sections)
		}

		wantFields := map[string]string{
			"origin":       "Sydney, Australia",
			"genre":        "Reggae rock, Indie rock",
			"years_active": "2008–present",
			"website":      "stickyfingers.com",
		}
		if !reflect.DeepEqual(got.InfoboxFields, wantFields) {
			t.Errorf("expected fields %q, got %q", wantFields, got.InfoboxFields)
		}
		if got.MarkupHash != page.Fingerprint() {
			t.Errorf("expected markup hash %q, got %q", page.Fingerprint(), got.MarkupHash)
		}
	})

	t.Run("city with joined sections", func(t *testing.T) {
		t.Parallel()

		page := &model.RawPage{Title: "Chicago", MarkupText: chicagoMarkup}
		got, ok := newTestResolver().ResolvePage(page, mentionsOf(model.EntityCity, "chicago"))
		if !ok {
			t.Fatal("expected page to be accepted")
		}

		if got.EntityType != model.EntityCity {
			t.Errorf("expected type %q, got %q", model.EntityCity, got.EntityType)
		}
		if bio := got.Sections["city_bio"]; bio != "Founded in 1833.\n\nOn Lake Michigan." {
			t.Errorf("unexpected city_bio %q", bio)
		}
		wantFields := map[string]string{"population": "2,746,388", "area": "234 sq mi"}
		if !reflect.DeepEqual(got.InfoboxFields, wantFields) {
			t.Errorf("expected fields %q, got %q", wantFields, got.InfoboxFields)
		}
	})

	t.Run("unclassified page falls back to city", func(t *testing.T) {
		t.Parallel()

		page := &model.RawPage{Title: "Springfield", MarkupText: "== History ==\nOld town."}
		got, ok := newTestResolver().ResolvePage(page, mentionsOf(model.EntityCity, "springfield"))
		if !ok {
			t.Fatal("expected page to be accepted")
		}
		if got.EntityType != model.EntityCity {
			t.Errorf("expected type %q, got %q", model.EntityCity, got.EntityType)
		}
	})

	t.Run("unclassified page falls back to country", func(t *testing.T) {
		t.Parallel()

		page := &model.RawPage{Title: "France", MarkupText: "== Overview ==\nA country."}
		got, ok := newTestResolver().ResolvePage(page, mentionsOf(model.EntityCountry, "france"))
		if !ok {
			t.Fatal("expected page to be accepted")
		}
		if got.EntityType != model.EntityCountry {
			t.Errorf("expected type %q, got %q", model.EntityCountry, got.EntityType)
		}
		if got.Sections["country_bio"] != "A country." {
			t.Errorf("unexpected country_bio %q", got.Sections["country_bio"])
		}
	})

	t.Run("page without sections or infobox is still accepted", func(t *testing.T) {
		t.Parallel()

		page := &model.RawPage{Title: "Metro", MarkupText: "[[Category:Music venues in Chicago]]"}
		got, ok := newTestResolver().ResolvePage(page, mentionsOf(model.EntityVenue, "metro"))
		if !ok {
			t.Fatal("expected page to be accepted")
		}
		if len(got.Sections) != 0 || len(got.InfoboxFields) != 0 {
			t.Errorf("expected empty enrichment, got %v and %v", got.Sections, got.InfoboxFields)
		}
	})
}

func TestResolvePageRejects(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		page     *model.RawPage
		mentions *model.MentionSet
		want     Outcome
	}{
		{
			name:     "other namespace",
			page:     &model.RawPage{Title: "Chicago", Namespace: 1, MarkupText: chicagoMarkup},
			mentions: mentionsOf(model.EntityCity, "chicago"),
			want:     RejectedNamespace,
		},
		{
			name:     "redirect flag",
			page:     &model.RawPage{Title: "Chicago", IsRedirect: true, MarkupText: chicagoMarkup},
			mentions: mentionsOf(model.EntityCity, "chicago"),
			want:     RejectedRedirect,
		},
		{
			name:     "redirect body",
			page:     &model.RawPage{Title: "Chicago", MarkupText: "#REDIRECT [[Chicago, Illinois]]"},
			mentions: mentionsOf(model.EntityCity, "chicago"),
			want:     RejectedRedirect,
		},
		{
			name:     "disambiguation title",
			page:     &model.RawPage{Title: "Mercury (disambiguation)", MarkupText: "Mercury is"},
			mentions: mentionsOf(model.EntityArtist, "mercury"),
			want:     RejectedDisambiguation,
		},
		{
			name:     "may refer to",
			page:     &model.RawPage{Title: "Mercury", MarkupText: "'''Mercury''' may refer to:\n* a planet"},
			mentions: mentionsOf(model.EntityArtist, "mercury"),
			want:     RejectedDisambiguation,
		},
		{
			name:     "disambiguation template",
			page:     &model.RawPage{Title: "Mercury", MarkupText: "List.\n{{Disambig}}"},
			mentions: mentionsOf(model.EntityArtist, "mercury"),
			want:     RejectedDisambiguation,
		},
		{
			name:     "no mention of the title",
			page:     &model.RawPage{Title: "Chicago", MarkupText: chicagoMarkup},
			mentions: mentionsOf(model.EntityCity, "boston"),
			want:     RejectedUnmentioned,
		},
		{
			name:     "city page mentioned only as an artist",
			page:     &model.RawPage{Title: "Chicago", MarkupText: chicagoMarkup},
			mentions: mentionsOf(model.EntityArtist, "chicago"),
			want:     RejectedTypeMismatch,
		},
		{
			name:     "unclassified page mentioned only as an artist",
			page:     &model.RawPage{Title: "Foo", MarkupText: "Foo is a thing."},
			mentions: mentionsOf(model.EntityArtist, "foo"),
			want:     RejectedTypeMismatch,
		},
		{
			name:     "empty mention set",
			page:     &model.RawPage{Title: "Chicago", MarkupText: chicagoMarkup},
			mentions: model.NewMentionSet(nil),
			want:     RejectedUnmentioned,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, outcome := newTestResolver().Explain(tt.page, tt.mentions)
			if outcome != tt.want {
				t.Errorf("expected outcome %q, got %q", tt.want, outcome)
			}
			if got != nil {
				t.Errorf("expected no page, got %+v", got)
			}
		})
	}
}

func TestRequestedTypes(t *testing.T) {
	t.Parallel()

	mentions := model.NewMentionSet(map[model.EntityType][]string{
		model.EntityVenue:   {"georgia"},
		model.EntityArtist:  {"georgia"},
		model.EntityCountry: {"georgia"},
		model.EntityCity:    {"georgia"},
	})

	got := RequestedTypes([]string{"georgia (country)", "georgia"}, mentions)
	want := []model.EntityType{model.EntityCountry, model.EntityCity, model.EntityArtist, model.EntityVenue}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestResolvePageConcurrent(t *testing.T) {
	t.Parallel()

	r := newTestResolver()
	mentions := model.NewMentionSet(map[model.EntityType][]string{
		model.EntityArtist: {"sticky fingers"},
		model.EntityCity:   {"chicago"},
	})
	pages := []*model.RawPage{
		{Title: "Sticky Fingers (band)", MarkupText: stickyFingersMarkup},
		{Title: "Chicago", MarkupText: chicagoMarkup},
	}

	want := make([]*model.EnrichedEntityPage, len(pages))
	for i, p := range pages {
		want[i], _ = r.ResolvePage(p, mentions)
	}

	var wg sync.WaitGroup
	for range 8 {
		for i, p := range pages {
			wg.Add(1)
			go func() {
				defer wg.Done()
				got, _ := r.ResolvePage(p, mentions)
				if !reflect.DeepEqual(got, want[i]) {
					t.Errorf("concurrent resolution of %q differs", p.Title)
				}
			}()
		}
	}
	wg.Wait()
}

func TestOutputKeys(t *testing.T) {
	t.Parallel()

	got := OutputKeys(model.EntityVenue)
	want := []string{"venue_bio", "venue_capacity", "venue_location", "venue_opened"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
	if OutputKeys(model.EntityUnknown) != nil {
		t.Error("expected no keys for unknown type")
	}
}
