// Package model defines the core data structures shared by wikienrich.
//
// This package contains the following main types:
//   - RawPage: One page record delivered by the dump reader
//   - EntityType: The real-world kind of entity a page describes
//   - MentionSet: The frozen per-type sets of normalized crawl mentions
//   - InfoboxRecord: Key/value facts parsed from a page's leading infobox
//   - EnrichedEntityPage: The engine's output for one accepted page
//   - Event / EnrichedEvent: Crawled setlist events before and after the join
//   - Run: The accumulated state of one enrichment run
//
// Design decision: We separate models into their own package to avoid circular
// dependencies. The wikitext, entity, resolver, pipeline, database and report
// packages all share these types, so centralizing them prevents import cycles.
//
// The models are designed to be serializable to JSON for report output and
// database storage.
package model
