// Package main provides the entry point for the wikienrich CLI.
//
// wikienrich enriches crawled setlist events with facts extracted from an
// encyclopedia XML dump: artist biographies, venue capacities, city
// populations and country capitals.
//
// Usage:
//
//	wikienrich enrich --html-dir crawl/ --dump enwiki.xml.bz2
//	wikienrich resolve --dump enwiki.xml.bz2 --mentions mentions.yaml
//	wikienrich clean page.wiki --section History
//
// See --help for all available options.
package main

// main is the entry point for wikienrich.
func main() {
	Execute()
}
