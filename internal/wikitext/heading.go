package wikitext

import "strings"

// Heading markers are runs of 2 to 6 '=' characters.
const (
	minHeadingLevel = 2
	maxHeadingLevel = 6
)

// heading is one "== Title ==" marker found at the start of a line.
type heading struct {
	// level is the number of '=' characters on each side.
	level int

	// title is the trimmed text between the markers.
	title string

	// start is the offset of the first '='.
	start int

	// end is the offset just past the closing marker.
	end int
}

// NormalizeHeadings returns text in which every heading marker starts at the
// beginning of a line. A newline is inserted before any heading-looking run
// ("==", title, "==") that is not already preceded by one; the start of the
// text counts as a line start. The function is total and idempotent.
func NormalizeHeadings(text string) string {
	if !strings.Contains(text, "==") {
		return text
	}

	var b strings.Builder
	b.Grow(len(text) + 16)

	last := 0
	for i := 0; i < len(text); {
		if text[i] != '=' {
			i++
			continue
		}

		run := countRun(text, i, '=')
		if run < minHeadingLevel {
			i += run
			continue
		}
		end, ok := headingLikeEnd(text, i+run)
		if !ok {
			i += run
			continue
		}

		// Only the last six '=' of an over-long run can open a heading.
		start := i
		if run > maxHeadingLevel {
			start = i + run - maxHeadingLevel
		}
		if start > 0 && text[start-1] != '\n' {
			b.WriteString(text[last:start])
			b.WriteByte('\n')
			last = start
		}
		i = end
	}
	b.WriteString(text[last:])
	return b.String()
}

// headingLikeEnd checks for a title followed by a closing marker of 2 to 6
// '=' starting at text[p:], and returns the offset past the marker.
func headingLikeEnd(text string, p int) (int, bool) {
	q := p
	for q < len(text) && text[q] != '=' && text[q] != '\n' {
		q++
	}
	if q == p || q >= len(text) || text[q] != '=' {
		return 0, false
	}
	closing := countRun(text, q, '=')
	if closing < minHeadingLevel {
		return 0, false
	}
	return q + min(closing, maxHeadingLevel), true
}

// parseHeadingAt reads a heading whose opening marker starts at text[i].
// The closing marker must repeat at least as many '=' as the opening one.
func parseHeadingAt(text string, i int) (heading, bool) {
	level := countRun(text, i, '=')
	if level < minHeadingLevel || level > maxHeadingLevel {
		return heading{}, false
	}

	p := i + level
	q := p
	for q < len(text) && text[q] != '=' && text[q] != '\n' {
		q++
	}
	if q == p || q >= len(text) || text[q] != '=' {
		return heading{}, false
	}
	if countRun(text, q, '=') < level {
		return heading{}, false
	}

	return heading{
		level: level,
		title: strings.TrimSpace(text[p:q]),
		start: i,
		end:   q + level,
	}, true
}

// scanHeadings returns the headings that start a line, in document order.
func scanHeadings(text string) []heading {
	var found []heading
	for i := 0; i < len(text); {
		if h, ok := parseHeadingAt(text, i); ok {
			found = append(found, h)
		}
		next := strings.IndexByte(text[i:], '\n')
		if next < 0 {
			break
		}
		i += next + 1
	}
	return found
}

// RewriteHeadings replaces every line-start heading marker with a bare line
// holding just its title.
func RewriteHeadings(text string) string {
	headings := scanHeadings(text)
	if len(headings) == 0 {
		return text
	}

	var b strings.Builder
	b.Grow(len(text))

	last := 0
	for _, h := range headings {
		b.WriteString(text[last:h.start])
		b.WriteString(h.title)
		b.WriteByte('\n')
		last = h.end
	}
	b.WriteString(text[last:])
	return b.String()
}
