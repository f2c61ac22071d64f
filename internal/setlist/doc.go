// Package setlist extracts concert events from crawled setlist pages.
//
// Each page describes one concert: the performing artist, the venue line
// ("Venue, City, Country"), the date, an optional tour and the songs played.
// Pages are parsed with golang.org/x/net/html and located by the class names
// and link shapes of the setlist site rather than by position, so cosmetic
// layout changes do not break extraction.
//
// # Usage
//
//	loader := setlist.NewLoader(setlist.WithConcurrency(8))
//	events, err := loader.LoadDir(ctx, "crawl/html")
package setlist
