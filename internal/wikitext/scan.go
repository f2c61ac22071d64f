package wikitext

import "strings"

// Paired delimiters recognised by the depth-counted scans.
const (
	templateOpen  = "{{"
	templateClose = "}}"
	tableOpen     = "{|"
	tableClose    = "|}"
	linkOpen      = "[["
	linkClose     = "]]"
)

// skipBalanced scans a construct that opens at text[start:] with open and
// returns the offset just past its matching close. Nested opens increase the
// depth and closes decrease it. When the input ends before the depth returns
// to zero, it returns len(text) and false.
//
// The loop advances by at least one byte per iteration, so the scan is bounded
// by the input length whatever the nesting.
func skipBalanced(text string, start int, open, close string) (int, bool) {
	depth := 1
	i := start + len(open)
	for i < len(text) {
		switch {
		case strings.HasPrefix(text[i:], open):
			depth++
			i += len(open)
		case strings.HasPrefix(text[i:], close):
			depth--
			i += len(close)
			if depth == 0 {
				return i, true
			}
		default:
			i++
		}
	}
	return len(text), false
}

// removeBalanced deletes every construct delimited by open/close, counting
// nesting so that inner constructs go with their parent. An unterminated
// construct consumes the rest of the input.
func removeBalanced(text, open, close string) string {
	if !strings.Contains(text, open) {
		return text
	}

	var b strings.Builder
	b.Grow(len(text))

	last := 0
	for i := 0; i < len(text); {
		if !strings.HasPrefix(text[i:], open) {
			i++
			continue
		}
		b.WriteString(text[last:i])
		end, _ := skipBalanced(text, i, open, close)
		i = end
		last = end
	}
	b.WriteString(text[last:])
	return b.String()
}

// splitTopLevel splits text on sep wherever it is not inside a {{template}}
// or a [[link]]. A "[[" that never closes is plain text.
func splitTopLevel(text string, sep byte) []string {
	parts := make([]string, 0, 8)
	templates, links := 0, 0
	last := 0

	for i := 0; i < len(text); {
		switch {
		case strings.HasPrefix(text[i:], templateOpen):
			templates++
			i += len(templateOpen)
		case strings.HasPrefix(text[i:], templateClose):
			if templates > 0 {
				templates--
			}
			i += len(templateClose)
		case strings.HasPrefix(text[i:], linkOpen):
			if _, closed := skipBalanced(text, i, linkOpen, linkClose); closed {
				links++
			}
			i += len(linkOpen)
		case strings.HasPrefix(text[i:], linkClose):
			if links > 0 {
				links--
			}
			i += len(linkClose)
		case text[i] == sep && templates == 0 && links == 0:
			parts = append(parts, text[last:i])
			i++
			last = i
		default:
			i++
		}
	}
	return append(parts, text[last:])
}

// countRun returns how many consecutive c bytes start at text[i].
func countRun(text string, i int, c byte) int {
	n := 0
	for i+n < len(text) && text[i+n] == c {
		n++
	}
	return n
}
