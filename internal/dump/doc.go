// Package dump streams pages out of an encyclopedia XML export.
//
// The export is a single <mediawiki> document holding one <page> element per
// article. Exports are commonly tens of gigabytes, so the Reader decodes one
// page at a time from a token stream and never holds more than the current
// page in memory. Files ending in ".bz2" are decompressed on the fly.
package dump
