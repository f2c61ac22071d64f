// Package enrich merges resolved entity pages onto events.
//
// Each event names up to four entities. Every entity is normalized into a
// join key the same way the mention sets were built, looked up among the
// accepted pages by (type, key), and the page's sections and infobox fields
// are flattened onto the event: sections under their own keys ("artist_bio",
// "discography", "venue_bio", ...) and infobox fields prefixed with the type
// ("artist_genre", "venue_capacity", ...).
package enrich
