package enrich

import "github.com/nao1215/wikienrich/internal/model"

// indicatorKeys holds, per entity type, the output key whose presence counts
// an event as enriched with that type.
var indicatorKeys = map[model.EntityType]string{
	model.EntityArtist:  "artist_bio",
	model.EntityVenue:   "venue_capacity",
	model.EntityCity:    "city_population",
	model.EntityCountry: "country_capital",
}

// IndicatorKey returns the output key that marks an event as enriched with
// entity type t.
func IndicatorKey(t model.EntityType) string {
	return indicatorKeys[t]
}

// Count returns, per entity type, how many events carry that type's
// indicator key.
func Count(events []model.EnrichedEvent) map[model.EntityType]int {
	counts := make(map[model.EntityType]int, len(indicatorKeys))
	for _, t := range model.MentionOrder {
		counts[t] = 0
	}
	for _, ev := range events {
		for t, key := range indicatorKeys {
			if ev.Has(key) {
				counts[t]++
			}
		}
	}
	return counts
}
