// Package wikitext turns encyclopedia markup into plain text and structured
// records without building a document tree.
//
// The package provides four operations:
//   - NormalizeHeadings: guarantee every "== Heading ==" starts its own line
//   - FindSection: isolate the raw markup under a named heading
//   - Clean: rewrite markup to plain text through a fixed sequence of passes
//   - ExtractInfobox: locate and parse the leading "{{Infobox ...}}" block
//
// Design decision: Nested constructs ({{templates}}, {| tables |}) are handled
// by depth-counted scans over the input string rather than by a recursive
// parser. A scan is a single index loop bounded by the input length, so deeply
// nested or unbalanced markup can neither exhaust the stack nor loop forever;
// an unterminated construct simply runs to the end of the input.
//
// Every function in this package is pure and safe for concurrent use.
package wikitext
