package model

import "encoding/json"

// Event is one crawled setlist event extracted from an HTML page.
type Event struct {
	// URL is the page file name, which doubles as the event identifier.
	URL string `json:"url"`

	// Path is the location of the HTML file the event was read from.
	Path string `json:"path"`

	// SizeBytes is the size of the HTML file.
	SizeBytes int64 `json:"size_bytes"`

	// Artist is the performing artist as written on the page.
	Artist string `json:"artist,omitempty"`

	// Date is the event date formatted as "Mon D, YYYY".
	Date string `json:"date,omitempty"`

	// Tour is the tour name, if the page names one.
	Tour string `json:"tour,omitempty"`

	// Venue, City and Country come from the "VENUE, CITY, COUNTRY" line.
	Venue   string `json:"venue,omitempty"`
	City    string `json:"city,omitempty"`
	Country string `json:"country,omitempty"`

	// SongsCount is len(Songs), kept for flat output.
	SongsCount int `json:"songs_count"`

	// Songs is the played setlist in order.
	Songs []string `json:"songs"`
}

// EnrichedEvent is an event with the flattened enrichment keys attached.
type EnrichedEvent struct {
	Event

	// Enrichment maps prefixed output keys (e.g. "artist_genre") to values.
	Enrichment map[string]string `json:"-"`
}

// MarshalJSON writes the event fields and the enrichment keys as one flat
// object, the shape downstream consumers read.
func (e EnrichedEvent) MarshalJSON() ([]byte, error) {
	base, err := json.Marshal(e.Event)
	if err != nil {
		return nil, err
	}
	if len(e.Enrichment) == 0 {
		return base, nil
	}

	flat := make(map[string]any)
	if err := json.Unmarshal(base, &flat); err != nil {
		return nil, err
	}
	for k, v := range e.Enrichment {
		flat[k] = v
	}
	return json.Marshal(flat)
}

// Has reports whether the enrichment carries a non-empty value for key.
func (e EnrichedEvent) Has(key string) bool {
	return e.Enrichment[key] != ""
}
