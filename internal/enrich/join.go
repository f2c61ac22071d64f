package enrich

import (
	"github.com/nao1215/wikienrich/internal/entity"
	"github.com/nao1215/wikienrich/internal/model"
	"github.com/nao1215/wikienrich/internal/resolver"
)

// Index looks accepted pages up by entity type and canonical title.
type Index struct {
	pages      map[model.PageKey]*model.EnrichedEntityPage
	duplicates int
}

// NewIndex indexes pages. When two pages share a (type, title) key the one
// that comes first wins; pages of unknown type are ignored.
func NewIndex(pages []*model.EnrichedEntityPage) *Index {
	idx := &Index{pages: make(map[model.PageKey]*model.EnrichedEntityPage, len(pages))}
	for _, p := range pages {
		if p == nil || !p.EntityType.Valid() {
			continue
		}
		key := p.Key()
		if _, seen := idx.pages[key]; seen {
			idx.duplicates++
			continue
		}
		idx.pages[key] = p
	}
	return idx
}

// Len returns the number of indexed pages.
func (idx *Index) Len() int {
	return len(idx.pages)
}

// Duplicates returns the number of pages dropped because an earlier page had
// the same key.
func (idx *Index) Duplicates() int {
	return idx.duplicates
}

// Lookup returns the page for an entity type and join key.
func (idx *Index) Lookup(t model.EntityType, key string) (*model.EnrichedEntityPage, bool) {
	p, ok := idx.pages[model.PageKey{Type: t, TitleNorm: key}]
	return p, ok
}

// Enrich attaches the matching pages' fields to ev. Events without any
// matching page come back with an empty enrichment.
func (idx *Index) Enrich(ev model.Event) model.EnrichedEvent {
	out := model.EnrichedEvent{Event: ev, Enrichment: make(map[string]string)}

	keys := entity.EventKeys(ev)
	for _, t := range model.MentionOrder {
		key, ok := keys[t]
		if !ok {
			continue
		}
		page, ok := idx.Lookup(t, key)
		if !ok {
			continue
		}
		for k, v := range page.Sections {
			if v != "" {
				out.Enrichment[k] = v
			}
		}
		for f, v := range page.InfoboxFields {
			if v != "" {
				out.Enrichment[resolver.FieldKey(t, f)] = v
			}
		}
	}
	return out
}

// Join enriches every event with the matching pages, keeping event order.
func Join(events []model.Event, pages []*model.EnrichedEntityPage) []model.EnrichedEvent {
	idx := NewIndex(pages)
	out := make([]model.EnrichedEvent, 0, len(events))
	for _, ev := range events {
		out = append(out, idx.Enrich(ev))
	}
	return out
}
