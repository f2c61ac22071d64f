// Package entity normalizes entity mentions and page titles into join keys
// and classifies encyclopedia pages by the kind of entity they describe.
//
// Mentions come from crawled events (artist, venue, city and country fields)
// and titles come from dump pages. Both sides go through the same
// normalization so that "Sticky Fingers" on an event and
// "Sticky Fingers (band)" in the dump meet on the key "sticky fingers".
//
// All functions are pure and safe for concurrent use.
package entity
