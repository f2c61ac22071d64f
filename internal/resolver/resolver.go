package resolver

import (
	"log/slog"
	"slices"
	"strings"

	"github.com/nao1215/wikienrich/internal/entity"
	"github.com/nao1215/wikienrich/internal/model"
	"github.com/nao1215/wikienrich/internal/wikitext"
)

// Outcome says why a page was accepted or rejected.
type Outcome string

const (
	// Accepted means the page produced an EnrichedEntityPage.
	Accepted Outcome = "accepted"

	// RejectedNamespace means the page is outside the main namespace.
	RejectedNamespace Outcome = "namespace"

	// RejectedRedirect means the page only points to another page.
	RejectedRedirect Outcome = "redirect"

	// RejectedDisambiguation means the page lists several meanings of its title.
	RejectedDisambiguation Outcome = "disambiguation"

	// RejectedUnmentioned means no event mentions the page title.
	RejectedUnmentioned Outcome = "unmentioned"

	// RejectedTypeMismatch means the page describes a different kind of
	// entity than the one its title was mentioned as.
	RejectedTypeMismatch Outcome = "type_mismatch"
)

// redirectPrefix opens the body of a redirect page.
const redirectPrefix = "#redirect"

// disambiguationTitle marks a disambiguation page by its title.
const disambiguationTitle = "(disambiguation)"

// disambiguationMarkers are lowercase body fragments that mark a
// disambiguation page.
var disambiguationMarkers = []string{
	"may refer to",
	"{{disambiguation",
	"{{disambig}}",
	"{{disambig|",
	"{{dab}}",
	"{{hndis",
	"{{geodis",
}

// Resolver matches dump pages against entity mentions.
type Resolver struct {
	logger *slog.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLogger sets the logger used to report page decisions at debug level.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) {
		r.logger = logger
	}
}

// New creates a Resolver.
func New(opts ...Option) *Resolver {
	r := &Resolver{}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	return r
}

// ResolvePage returns the enrichment of page when it describes an entity that
// mentions requests. It reports false for every rejected page; rejection is
// the common case, not an error.
func (r *Resolver) ResolvePage(page *model.RawPage, mentions *model.MentionSet) (*model.EnrichedEntityPage, bool) {
	enriched, outcome := r.Explain(page, mentions)
	return enriched, outcome == Accepted
}

// Explain resolves page like ResolvePage and also returns the outcome.
func (r *Resolver) Explain(page *model.RawPage, mentions *model.MentionSet) (*model.EnrichedEntityPage, Outcome) {
	if outcome := screen(page); outcome != Accepted {
		r.logger.Debug("page rejected", "title", page.Title, "outcome", outcome)
		return nil, outcome
	}

	variants := entity.TitleVariants(page.Title)
	requested := RequestedTypes(variants, mentions)
	if len(requested) == 0 {
		return nil, RejectedUnmentioned
	}

	detected, ok := entity.Classify(page.MarkupText)
	if !ok {
		detected = fallbackType(requested)
	}
	if !slices.Contains(requested, detected) {
		r.logger.Debug("page rejected",
			"title", page.Title,
			"outcome", RejectedTypeMismatch,
			"detected", detected,
			"requested", requested,
		)
		return nil, RejectedTypeMismatch
	}

	enriched := Extract(page, detected)
	enriched.TitleNorm = variants[len(variants)-1]

	r.logger.Debug("page accepted",
		"title", page.Title,
		"type", detected,
		"sections", len(enriched.Sections),
		"fields", len(enriched.InfoboxFields),
	)
	return enriched, Accepted
}

// screen rejects pages that carry no article content.
func screen(page *model.RawPage) Outcome {
	if page.Namespace != model.MainNamespace {
		return RejectedNamespace
	}

	body := strings.ToLower(page.MarkupText)
	if page.IsRedirect || strings.HasPrefix(strings.TrimSpace(body), redirectPrefix) {
		return RejectedRedirect
	}
	if strings.Contains(strings.ToLower(page.Title), disambiguationTitle) {
		return RejectedDisambiguation
	}
	for _, marker := range disambiguationMarkers {
		if strings.Contains(body, marker) {
			return RejectedDisambiguation
		}
	}
	return Accepted
}

// RequestedTypes returns the entity types whose mention set contains any of
// the title variants, in the order country, city, artist, venue.
func RequestedTypes(variants []string, mentions *model.MentionSet) []model.EntityType {
	var requested []model.EntityType
	for _, t := range model.MentionOrder {
		for _, v := range variants {
			if mentions.Contains(t, v) {
				requested = append(requested, t)
				break
			}
		}
	}
	return requested
}

// fallbackType picks a type for pages without classification signals.
// Geography pages frequently lack them, so city and then country are assumed
// when requested.
func fallbackType(requested []model.EntityType) model.EntityType {
	switch {
	case slices.Contains(requested, model.EntityCity):
		return model.EntityCity
	case slices.Contains(requested, model.EntityCountry):
		return model.EntityCountry
	default:
		return model.EntityUnknown
	}
}

// Extract builds the enrichment of page as an entity of type t: the cleaned
// text of the type's section groups and its non-empty infobox fields.
// TitleNorm is set to the page's canonical key.
func Extract(page *model.RawPage, t model.EntityType) *model.EnrichedEntityPage {
	enriched := &model.EnrichedEntityPage{
		Title:         page.Title,
		TitleNorm:     entity.CanonicalKey(page.Title),
		EntityType:    t,
		Sections:      make(map[string]string),
		InfoboxFields: make(map[string]string),
		MarkupHash:    page.Fingerprint(),
	}

	profile, ok := ProfileFor(t)
	if !ok {
		return enriched
	}

	for _, group := range profile.Sections {
		if text := sectionText(page.MarkupText, group.Sections); text != "" {
			enriched.Sections[group.Key] = text
		}
	}

	if len(profile.InfoboxFields) == 0 {
		return enriched
	}
	record, ok := wikitext.ExtractInfobox(page.MarkupText)
	if !ok {
		return enriched
	}
	for _, field := range profile.InfoboxFields {
		if value, ok := record.Get(field); ok && value != "" {
			enriched.InfoboxFields[field] = value
		}
	}
	return enriched
}

// sectionText cleans each named section found in markup and joins the
// non-empty results with a blank line.
func sectionText(markup string, names []string) string {
	parts := make([]string, 0, len(names))
	for _, name := range names {
		raw, ok := wikitext.FindSection(markup, name)
		if !ok {
			continue
		}
		if text := wikitext.Clean(raw); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, "\n\n")
}
