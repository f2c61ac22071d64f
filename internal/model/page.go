package model

import (
	"encoding/hex"

	"golang.org/x/crypto/sha3"
)

// MainNamespace is the dump namespace holding content pages.
const MainNamespace = 0

// RawPage is one page record produced by the dump reader.
// It is immutable once created; the engine never modifies it.
type RawPage struct {
	// Title is the page title exactly as it appears in the dump.
	Title string `json:"title"`

	// MarkupText is the wikitext body of the latest revision.
	MarkupText string `json:"-"` // Excluded from JSON due to size

	// Namespace is the numeric dump namespace (0 for articles).
	Namespace int `json:"namespace"`

	// IsRedirect is true when the dump flags the page as a redirect.
	IsRedirect bool `json:"is_redirect"`
}

// Fingerprint returns the hex SHA3-256 digest of the page markup.
// An empty body produces an empty fingerprint.
//
// Design decision: The fingerprint lets the store detect that a page it has
// already enriched changed between two dumps without keeping the markup.
func (p *RawPage) Fingerprint() string {
	if len(p.MarkupText) == 0 {
		return ""
	}
	sum := sha3.Sum256([]byte(p.MarkupText))
	return hex.EncodeToString(sum[:])
}
