package model

// InfoboxRecord holds the parsed parameters of a page's leading infobox.
type InfoboxRecord struct {
	// Name is the template name, e.g. "Infobox musical artist".
	Name string `json:"name"`

	// Fields maps lowercase, trimmed parameter names to cleaned values.
	// When a parameter repeats, the first occurrence is kept.
	Fields map[string]string `json:"fields"`
}

// Get returns the cleaned value stored under a lowercase field name.
func (r InfoboxRecord) Get(name string) (string, bool) {
	v, ok := r.Fields[name]
	return v, ok
}

// EnrichedEntityPage is the engine's output for one accepted dump page.
// It is consumed by the join stage keyed on (EntityType, TitleNorm).
type EnrichedEntityPage struct {
	// Title is the original dump title.
	Title string `json:"title"`

	// TitleNorm is the canonical join key: the last title variant.
	TitleNorm string `json:"title_norm"`

	// EntityType is the detected type of the page.
	EntityType EntityType `json:"entity_type"`

	// Sections maps output section names (e.g. "artist_bio") to plain text.
	Sections map[string]string `json:"sections"`

	// InfoboxFields maps infobox field names (e.g. "genre") to plain text.
	InfoboxFields map[string]string `json:"infobox_fields"`

	// MarkupHash is the fingerprint of the markup the page was built from.
	MarkupHash string `json:"markup_hash,omitempty"`
}

// PageKey identifies an enriched page for deduplication and joining.
type PageKey struct {
	Type      EntityType
	TitleNorm string
}

// Key returns the (type, titleNorm) key of the page.
func (p *EnrichedEntityPage) Key() PageKey {
	return PageKey{Type: p.EntityType, TitleNorm: p.TitleNorm}
}

// PageWrites counts what saving a batch of pages did to a store.
type PageWrites struct {
	// Inserted is the number of keys stored for the first time.
	Inserted int `json:"inserted"`

	// Updated is the number of stored pages whose markup changed.
	Updated int `json:"updated"`

	// Unchanged is the number of pages already stored with the same markup.
	Unchanged int `json:"unchanged"`
}
