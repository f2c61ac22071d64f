package resolver

import "github.com/nao1215/wikienrich/internal/model"

// SectionGroup names the output key for the cleaned text of one or more
// sections. Found sections are joined with a blank line in list order.
type SectionGroup struct {
	// Key is the output key, such as "artist_bio".
	Key string

	// Sections are the heading names tried, in order.
	Sections []string
}

// Profile lists what is extracted from a page of one entity type.
type Profile struct {
	// Sections are the section groups extracted from the page body.
	Sections []SectionGroup

	// InfoboxFields are the infobox parameters kept, by lowercase name.
	InfoboxFields []string
}

// profiles is the extraction table per entity type. Downstream consumers rely
// on exactly these output keys.
var profiles = map[model.EntityType]Profile{
	model.EntityArtist: {
		Sections: []SectionGroup{
			{
				Key: "artist_bio",
				Sections: []string{
					"History",
					"Background",
					"History and background",
					"Career",
					"Early life",
					"Early life and career",
					"Formation",
					"Formation and early years",
				},
			},
			{Key: "discography", Sections: []string{"Discography"}},
		},
		InfoboxFields: []string{"current_members", "years_active", "genre", "origin", "birth_name", "website"},
	},
	model.EntityVenue: {
		Sections:      []SectionGroup{{Key: "venue_bio", Sections: []string{"History", "Background", "Overview"}}},
		InfoboxFields: []string{"capacity", "location", "opened"},
	},
	model.EntityCity: {
		Sections:      []SectionGroup{{Key: "city_bio", Sections: []string{"History", "Overview", "Geography"}}},
		InfoboxFields: []string{"area", "population"},
	},
	model.EntityCountry: {
		Sections:      []SectionGroup{{Key: "country_bio", Sections: []string{"History", "Overview"}}},
		InfoboxFields: []string{"capital", "population", "area"},
	},
}

// ProfileFor returns the extraction profile of an entity type. The second
// result is false for EntityUnknown and invalid types.
func ProfileFor(t model.EntityType) (Profile, bool) {
	p, ok := profiles[t]
	return p, ok
}

// OutputKeys returns every key a page of type t can contribute to an event,
// in the form used on the event: section keys as-is and infobox fields
// prefixed with the type name ("venue_capacity").
func OutputKeys(t model.EntityType) []string {
	p, ok := profiles[t]
	if !ok {
		return nil
	}
	keys := make([]string, 0, len(p.Sections)+len(p.InfoboxFields))
	for _, g := range p.Sections {
		keys = append(keys, g.Key)
	}
	for _, f := range p.InfoboxFields {
		keys = append(keys, FieldKey(t, f))
	}
	return keys
}

// FieldKey is the event key of an infobox field of an entity type.
func FieldKey(t model.EntityType, field string) string {
	return string(t) + "_" + field
}
