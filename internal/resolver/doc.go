// Package resolver decides whether a dump page describes an entity that the
// crawled events mention, and if so extracts its enrichment.
//
// Resolution of a single page runs in this order:
//
//  1. Reject non-content pages (other namespaces, redirects, disambiguation)
//  2. Look the title variants up in the mention sets to get requested types
//  3. Classify the page markup, falling back to city then country
//  4. Accept only when the classified type was requested
//  5. Extract the type's sections and infobox fields
//
// A Resolver holds no per-page state. One Resolver may serve any number of
// goroutines, provided the MentionSet it is given is not modified.
package resolver
