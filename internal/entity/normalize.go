package entity

import (
	"regexp"
	"strings"

	"github.com/nao1215/wikienrich/internal/model"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// usaCode is how setlist sources spell the United States.
const usaCode = "USA"

// unitedStates is the page title the USA code resolves to.
const unitedStates = "United States"

// clarifierPattern matches a trailing parenthetical qualifier such as " (band)".
var clarifierPattern = regexp.MustCompile(`\s*\([^)]+\)\s*$`)

// NormalizeTitle trims s, collapses internal whitespace runs to one space and
// lowercases the result.
//
// Design decision: A cases.Caser carries state and is not safe for concurrent
// use, so a new one is created per call. Titles are normalized from many
// goroutines during batch resolution.
func NormalizeTitle(s string) string {
	collapsed := strings.Join(strings.Fields(s), " ")
	return cases.Lower(language.Und).String(collapsed)
}

// NormalizeMention normalizes an event field into a join key for entity type t.
//
// Two source quirks are corrected before normalizing:
//   - a country written "USA" becomes "united states"
//   - a US city field holding a state code ("NY") becomes the state name,
//     when country is "USA"
func NormalizeMention(value string, t model.EntityType, country string) string {
	upper := strings.ToUpper(strings.TrimSpace(value))

	if t == model.EntityCountry && upper == usaCode {
		return NormalizeTitle(unitedStates)
	}
	if t == model.EntityCity && strings.ToUpper(strings.TrimSpace(country)) == usaCode {
		if name, ok := StateName(upper); ok {
			return NormalizeTitle(name)
		}
	}
	return NormalizeTitle(value)
}

// TitleVariants returns the lookup keys for a page title. The first element is
// always the full normalized title. When the title ends with a parenthetical
// qualifier, the normalized title without it follows, if it differs and is not
// empty. The last element is the canonical join key.
//
//	TitleVariants("Sticky Fingers (band)") // ["sticky fingers (band)", "sticky fingers"]
//	TitleVariants("Chicago")               // ["chicago"]
func TitleVariants(title string) []string {
	full := NormalizeTitle(title)
	variants := []string{full}

	stripped := clarifierPattern.ReplaceAllString(title, "")
	if stripped == title {
		return variants
	}
	if short := NormalizeTitle(stripped); short != "" && short != full {
		variants = append(variants, short)
	}
	return variants
}

// CanonicalKey returns the join key for a page title, the last of its variants.
func CanonicalKey(title string) string {
	variants := TitleVariants(title)
	return variants[len(variants)-1]
}
