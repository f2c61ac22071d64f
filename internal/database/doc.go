// Package database provides SQLite-based storage for enrichment runs.
//
// The EnrichDB stores:
//   - Runs, with their inputs and statistics, for later listing
//   - Accepted entity pages, one per (entity type, canonical title)
//   - Enriched events per run, as flattened JSON
//
// Design decision: We use SQLite (via modernc.org/sqlite) because the store
// is a single local file next to the operator's data and the CGO-free driver
// keeps cross-compilation simple.
//
// Entity pages are keyed UNIQUE(entity_type, title_norm) and written with
// insert-or-ignore, so the first page stored for a key wins across runs in
// the same way the first page in dump order wins within a run.
package database
