package wikitext

import (
	"strings"

	"github.com/nao1215/wikienrich/internal/model"
)

// infoboxPrefix opens the structured summary block of a page.
const infoboxPrefix = "{{Infobox"

// ExtractInfobox finds the first "{{Infobox" block in text and parses it.
// It reports false when there is no such block or the block never closes.
func ExtractInfobox(text string) (model.InfoboxRecord, bool) {
	block, ok := InfoboxBlock(text)
	if !ok {
		return model.InfoboxRecord{}, false
	}
	return ParseInfobox(block), true
}

// InfoboxBlock returns the raw "{{Infobox ...}}" block, nested templates
// included.
func InfoboxBlock(text string) (string, bool) {
	start := strings.Index(text, infoboxPrefix)
	if start < 0 {
		return "", false
	}
	end, closed := skipBalanced(text, start, templateOpen, templateClose)
	if !closed {
		return "", false
	}
	return text[start:end], true
}

// ParseInfobox parses a "{{Name|key=value|...}}" block. Parameters are split
// on top-level pipes only, so pipes inside nested templates and piped links
// stay with their value. Keys are lowercased and values are passed through
// Clean. Parameters without '=' are ignored, and when a key repeats the first
// occurrence wins.
func ParseInfobox(block string) model.InfoboxRecord {
	inner := strings.TrimSpace(block)
	inner = strings.TrimPrefix(inner, templateOpen)
	inner = strings.TrimSuffix(inner, templateClose)

	params := splitTopLevel(inner, '|')
	record := model.InfoboxRecord{
		Name:   strings.TrimSpace(params[0]),
		Fields: make(map[string]string, len(params)-1),
	}

	for _, param := range params[1:] {
		key, value, ok := strings.Cut(param, "=")
		if !ok {
			continue
		}
		key = strings.ToLower(strings.TrimSpace(key))
		if key == "" {
			continue
		}
		if _, seen := record.Fields[key]; seen {
			continue
		}
		record.Fields[key] = Clean(value)
	}
	return record
}
