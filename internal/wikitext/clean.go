package wikitext

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// Clean converts encyclopedia markup into readable plain text. It is total:
// any input, including malformed or unbalanced markup, yields a string.
//
// The passes run in a fixed order because later passes depend on the output
// of earlier ones (links are rewritten before list templates are inlined, so
// a piped link inside a list keeps its label):
//
//  1. DecodeEntities
//  2. RewriteHeadings
//  3. RemoveRefs
//  4. RemoveComments
//  5. RemoveTables
//  6. RemoveFileLinks
//  7. RewriteLinks
//  8. InlineListTemplates
//  9. RemoveTemplates
//  10. StripEmphasis
//  11. StripTags
//  12. NormalizeWhitespace
//  13. StripBullets
//  14. StripTableArtifacts
//  15. TidyPunctuation
func Clean(text string) string {
	if text == "" {
		return ""
	}
	for _, pass := range cleanPasses {
		text = pass(text)
	}
	return text
}

// cleanPasses is the ordered pass list applied by Clean.
var cleanPasses = []func(string) string{
	DecodeEntities,
	RewriteHeadings,
	RemoveRefs,
	RemoveComments,
	RemoveTables,
	RemoveFileLinks,
	RewriteLinks,
	InlineListTemplates,
	RemoveTemplates,
	StripEmphasis,
	StripTags,
	NormalizeWhitespace,
	StripBullets,
	StripTableArtifacts,
	TidyPunctuation,
}

var (
	// refSelfClosingPattern matches <ref name="x" /> and <references/>.
	refSelfClosingPattern = regexp.MustCompile(`(?i)<ref[^>]*/>`)

	// refBlockPattern matches a <ref>...</ref> footnote including its body.
	refBlockPattern = regexp.MustCompile(`(?is)<ref[^>]*>.*?</ref>`)

	commentPattern = regexp.MustCompile(`(?s)<!--.*?-->`)

	// fileLinkPattern matches embedded media links, captions included.
	fileLinkPattern = regexp.MustCompile(`(?i)\[\[(?:File|Image):[^\]]+\]\]`)

	linkPattern = regexp.MustCompile(`\[\[([^\]]+)\]\]`)

	// namespacePrefixPattern matches a "Category:" style prefix on a link target.
	namespacePrefixPattern = regexp.MustCompile(`^\s*[^:]*:\s*`)

	tagPattern = regexp.MustCompile(`</?[^>]+>`)

	blankLinesPattern = regexp.MustCompile(`\n{3,}`)
	spaceRunPattern   = regexp.MustCompile(`[ \t]{2,}`)

	// leadingBulletPattern matches a "* " list marker that opens a line.
	leadingBulletPattern = regexp.MustCompile(`(?:^|\n)\s*\*\s+`)
	inlineBulletPattern  = regexp.MustCompile(`\*\s+`)

	// tableArtifactPatterns match attribute debris left behind by table rows
	// and cells that were not wrapped in {| |}.
	tableArtifactPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)!\s*scope\s*=\s*["']?\w+["']?`),
		regexp.MustCompile(`(?i)rowspan\s*=\s*["']?\d+["']?`),
		regexp.MustCompile(`(?i)colspan\s*=\s*["']?\d+["']?`),
		regexp.MustCompile(`(?i)class\s*=\s*["'][^"']*["']`),
		regexp.MustCompile(`(?i)style\s*=\s*["'][^"']*["']`),
		regexp.MustCompile(`(?i)width\s*=\s*["']?[^"'\s]+["']?`),
	}

	// cellMarkerPattern matches stray row and cell markers (|-, |+, !).
	cellMarkerPattern = regexp.MustCompile(`[!+\-]{1,3}\s*`)

	pipeRunPattern       = regexp.MustCompile(`\|+`)
	commaRunPattern      = regexp.MustCompile(`,\s*,+`)
	leadingCommaPattern  = regexp.MustCompile(`^\s*,\s*`)
	trailingCommaPattern = regexp.MustCompile(`,\s*$`)
)

// DecodeEntities decodes HTML character references such as &amp; and &#8211;.
func DecodeEntities(text string) string {
	if !strings.Contains(text, "&") {
		return text
	}
	return html.UnescapeString(text)
}

// RemoveRefs deletes footnote references. Self-closing references are removed
// first so that a following <ref>...</ref> block cannot swallow them.
func RemoveRefs(text string) string {
	text = refSelfClosingPattern.ReplaceAllString(text, "")
	return refBlockPattern.ReplaceAllString(text, "")
}

// RemoveComments deletes <!-- ... --> comments.
func RemoveComments(text string) string {
	return commentPattern.ReplaceAllString(text, "")
}

// RemoveTables deletes {| ... |} tables, nested tables included. An
// unterminated table consumes the rest of the input.
func RemoveTables(text string) string {
	return removeBalanced(text, tableOpen, tableClose)
}

// RemoveFileLinks deletes [[File:...]] and [[Image:...]] links.
func RemoveFileLinks(text string) string {
	return fileLinkPattern.ReplaceAllString(text, "")
}

// RewriteLinks replaces internal links with their visible text: the label of
// [[target|label]], or the target of [[target]] without any namespace prefix.
func RewriteLinks(text string) string {
	if !strings.Contains(text, linkOpen) {
		return text
	}
	return linkPattern.ReplaceAllStringFunc(text, func(m string) string {
		inner := m[len(linkOpen) : len(m)-len(linkClose)]
		if idx := strings.LastIndexByte(inner, '|'); idx >= 0 {
			return strings.TrimSpace(inner[idx+1:])
		}
		return strings.TrimSpace(namespacePrefixPattern.ReplaceAllString(inner, ""))
	})
}

// listTemplates are templates whose arguments carry visible content. Their
// bodies are kept when templates are removed.
var listTemplates = map[string]struct{}{
	"plainlist":          {},
	"plain list":         {},
	"flatlist":           {},
	"flat list":          {},
	"hlist":              {},
	"ubl":                {},
	"unbulleted list":    {},
	"nowrap":             {},
	"url":                {},
	"official url":       {},
	"official website":   {},
	"start date":         {},
	"start date and age": {},
	"end date":           {},
	"end date and age":   {},
}

// InlineListTemplates replaces list-like templates such as {{hlist|a|b}} with
// their argument text ("a|b"); pipes become separators in a later pass. Other
// templates are left for RemoveTemplates. An unterminated list template
// contributes everything after its name.
func InlineListTemplates(text string) string {
	if !strings.Contains(text, templateOpen) {
		return text
	}

	var b strings.Builder
	b.Grow(len(text))

	for i := 0; i < len(text); {
		if !strings.HasPrefix(text[i:], templateOpen) {
			b.WriteByte(text[i])
			i++
			continue
		}

		nameStart := i + len(templateOpen)
		nameEnd := nameStart
		for nameEnd < len(text) && !strings.ContainsRune("|{}\n", rune(text[nameEnd])) {
			nameEnd++
		}
		name := strings.ToLower(strings.TrimSpace(text[nameStart:nameEnd]))
		if _, ok := listTemplates[name]; !ok || nameEnd >= len(text) || text[nameEnd] != '|' {
			b.WriteString(templateOpen)
			i = nameStart
			continue
		}

		contentStart := nameEnd + 1
		// Scan from the content with the template's own "{{" already counted.
		end, closed := skipBalanced(text, contentStart-len(templateOpen), templateOpen, templateClose)
		if !closed {
			b.WriteString(text[contentStart:])
			break
		}
		b.WriteString(text[contentStart : end-len(templateClose)])
		i = end
	}
	return b.String()
}

// RemoveTemplates deletes every {{...}} template, counting nesting so that
// "x {{a|{{b|c}}|d}} y" becomes "x  y".
func RemoveTemplates(text string) string {
	return removeBalanced(text, templateOpen, templateClose)
}

// StripEmphasis removes bold (''') and italic ('') quote markup.
func StripEmphasis(text string) string {
	text = strings.ReplaceAll(text, "'''", "")
	return strings.ReplaceAll(text, "''", "")
}

// StripTags removes any remaining HTML or XML tags, keeping their content.
func StripTags(text string) string {
	if !strings.Contains(text, "<") {
		return text
	}
	return tagPattern.ReplaceAllString(text, "")
}

// NormalizeWhitespace trims every line, collapses three or more newlines to a
// single blank line and collapses runs of spaces and tabs.
func NormalizeWhitespace(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	text = strings.Join(lines, "\n")
	text = blankLinesPattern.ReplaceAllString(text, "\n\n")
	return spaceRunPattern.ReplaceAllString(text, " ")
}

// StripBullets removes "* " list markers at line starts and turns any other
// "* " marker into a comma separator.
func StripBullets(text string) string {
	if !strings.Contains(text, "*") {
		return text
	}
	text = leadingBulletPattern.ReplaceAllString(text, "\n")
	return inlineBulletPattern.ReplaceAllString(text, ", ")
}

// StripTableArtifacts removes table attribute debris (scope, rowspan, colspan,
// class, style, width) and stray row or cell markers.
func StripTableArtifacts(text string) string {
	for _, p := range tableArtifactPatterns {
		text = p.ReplaceAllString(text, "")
	}
	return cellMarkerPattern.ReplaceAllString(text, " ")
}

// TidyPunctuation drops leftover [[ ]] brackets, turns pipe runs into comma
// separators, collapses repeated commas and spaces, and trims dangling commas
// and whitespace from both ends.
func TidyPunctuation(text string) string {
	text = strings.ReplaceAll(text, linkOpen, "")
	text = strings.ReplaceAll(text, linkClose, "")
	text = pipeRunPattern.ReplaceAllString(text, ", ")
	text = commaRunPattern.ReplaceAllString(text, ",")
	text = spaceRunPattern.ReplaceAllString(text, " ")
	text = leadingCommaPattern.ReplaceAllString(text, "")
	text = trailingCommaPattern.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}
