// Package report provides report generation and output functionality.
//
// This package contains writers for different output formats:
//   - SimpleWriter: Human-readable run summary for terminal display
//   - JSONWriter: Enriched events (or entity pages) as JSON lines
//   - MarkdownWriter: Run summary with tables and a mermaid chart
//
// Design decision: We separate report writing from the run data structures
// (which are in the model package). This allows adding new output formats
// without modifying the core data structures.
//
// Writers implement the Writer interface, allowing them to be used
// interchangeably and composed for multi-format output.
package report
