package wikitext

import "strings"

// FindSection returns the raw, uncleaned markup under the first heading named
// name, trimmed. The name comparison ignores case, surrounding whitespace and
// surrounding quote characters.
//
// The section runs until the next heading whose level is less than or equal
// to the matched one, so subsections stay inside their parent. The second
// result is false when no heading matches.
func FindSection(text, name string) (string, bool) {
	normalized := NormalizeHeadings(text)
	headings := scanHeadings(normalized)

	target := strings.ToLower(strings.TrimSpace(name))
	for idx, h := range headings {
		if headingKey(h.title) != target {
			continue
		}

		end := len(normalized)
		for _, next := range headings[idx+1:] {
			if next.level <= h.level {
				end = next.start
				break
			}
		}
		return strings.TrimSpace(normalized[h.end:end]), true
	}
	return "", false
}

// SectionTitles lists the titles of all line-start headings in text, in order.
func SectionTitles(text string) []string {
	headings := scanHeadings(NormalizeHeadings(text))
	titles := make([]string, 0, len(headings))
	for _, h := range headings {
		titles = append(titles, h.title)
	}
	return titles
}

// headingKey is the comparison form of a heading title.
func headingKey(title string) string {
	return strings.ToLower(strings.Trim(strings.TrimSpace(title), " '\""))
}
