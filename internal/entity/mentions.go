package entity

import "github.com/nao1215/wikienrich/internal/model"

// BuildMentionSet collects the normalized entity mentions of events into an
// immutable MentionSet. A city is only collected when its event also names a
// country, since the country decides how the city is normalized.
func BuildMentionSet(events []model.Event) *model.MentionSet {
	mentions := make(map[model.EntityType][]string, len(model.MentionOrder))

	for _, ev := range events {
		if ev.Artist != "" {
			mentions[model.EntityArtist] = append(mentions[model.EntityArtist],
				NormalizeMention(ev.Artist, model.EntityArtist, ""))
		}
		if ev.Venue != "" {
			mentions[model.EntityVenue] = append(mentions[model.EntityVenue],
				NormalizeMention(ev.Venue, model.EntityVenue, ""))
		}
		if ev.City != "" && ev.Country != "" {
			mentions[model.EntityCity] = append(mentions[model.EntityCity],
				NormalizeMention(ev.City, model.EntityCity, ev.Country))
		}
		if ev.Country != "" {
			mentions[model.EntityCountry] = append(mentions[model.EntityCountry],
				NormalizeMention(ev.Country, model.EntityCountry, ""))
		}
	}
	return model.NewMentionSet(mentions)
}

// EventKeys returns the join keys of an event per entity type, normalized the
// same way BuildMentionSet normalizes them. Empty fields have no key.
func EventKeys(ev model.Event) map[model.EntityType]string {
	keys := make(map[model.EntityType]string, len(model.MentionOrder))
	if ev.Artist != "" {
		keys[model.EntityArtist] = NormalizeMention(ev.Artist, model.EntityArtist, "")
	}
	if ev.Venue != "" {
		keys[model.EntityVenue] = NormalizeMention(ev.Venue, model.EntityVenue, "")
	}
	if ev.City != "" {
		keys[model.EntityCity] = NormalizeMention(ev.City, model.EntityCity, ev.Country)
	}
	if ev.Country != "" {
		keys[model.EntityCountry] = NormalizeMention(ev.Country, model.EntityCountry, "")
	}
	return keys
}
