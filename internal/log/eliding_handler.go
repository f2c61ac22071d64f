package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"
	"unicode/utf8"
)

// contentKeys lists attribute keys (lowercase) that carry page content.
// Their values are always shortened to ContentLimit runes.
var contentKeys = map[string]bool{
	"markup":     true,
	"text":       true,
	"body":       true,
	"wikitext":   true,
	"section":    true,
	"sections":   true,
	"infobox":    true,
	"value":      true,
	"html":       true,
	"raw":        true,
	"bio":        true,
	"artist_bio": true,
}

// markupPatterns detect values that look like wikitext or HTML regardless of
// the key they are logged under.
var markupPatterns = []*regexp.Regexp{
	// Template or link openers
	regexp.MustCompile(`\{\{|\[\[`),

	// Headings at line start
	regexp.MustCompile(`(?m)^={2,6}[^=]`),

	// HTML tags
	regexp.MustCompile(`</?[a-zA-Z][^>]*>`),
}

const (
	// ContentLimit is the number of runes kept of page content.
	ContentLimit = 80

	// ValueLimit is the number of runes kept of any other string value.
	ValueLimit = 512

	// NewlineMarker replaces line breaks in logged strings.
	NewlineMarker = `\n`

	// ellipsis is appended to a shortened value together with its full size.
	ellipsis = "..."
)

// ElidingHandler is a slog.Handler wrapper that keeps records short and on
// one line. It implements the slog.Handler interface.
type ElidingHandler struct {
	handler      slog.Handler
	contentLimit int
	valueLimit   int
}

// HandlerOption configures an ElidingHandler.
type HandlerOption func(*ElidingHandler)

// WithContentLimit sets the number of runes kept of page content.
func WithContentLimit(n int) HandlerOption {
	return func(h *ElidingHandler) {
		if n > 0 {
			h.contentLimit = n
		}
	}
}

// WithValueLimit sets the number of runes kept of other string values.
func WithValueLimit(n int) HandlerOption {
	return func(h *ElidingHandler) {
		if n > 0 {
			h.valueLimit = n
		}
	}
}

// NewElidingHandler creates a new ElidingHandler wrapping the given handler.
// If handler is nil, the default handler is used.
func NewElidingHandler(handler slog.Handler, opts ...HandlerOption) *ElidingHandler {
	if handler == nil {
		handler = slog.Default().Handler()
	}
	h := &ElidingHandler{
		handler:      handler,
		contentLimit: ContentLimit,
		valueLimit:   ValueLimit,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Enabled reports whether the handler handles records at the given level.
func (h *ElidingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle shortens the attributes of the record and passes it on.
func (h *ElidingHandler) Handle(ctx context.Context, r slog.Record) error {
	shortened := slog.NewRecord(r.Time, r.Level, flatten(r.Message), r.PC)

	r.Attrs(func(a slog.Attr) bool {
		shortened.AddAttrs(h.elideAttr(a))
		return true
	})

	return h.handler.Handle(ctx, shortened)
}

// WithAttrs returns a new ElidingHandler whose attributes are shortened.
func (h *ElidingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	shortened := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		shortened[i] = h.elideAttr(a)
	}
	return &ElidingHandler{
		handler:      h.handler.WithAttrs(shortened),
		contentLimit: h.contentLimit,
		valueLimit:   h.valueLimit,
	}
}

// WithGroup returns a new ElidingHandler with the given group name.
func (h *ElidingHandler) WithGroup(name string) slog.Handler {
	return &ElidingHandler{
		handler:      h.handler.WithGroup(name),
		contentLimit: h.contentLimit,
		valueLimit:   h.valueLimit,
	}
}

// elideAttr shortens a single attribute. Groups are handled recursively.
func (h *ElidingHandler) elideAttr(a slog.Attr) slog.Attr {
	value := a.Value.Resolve()

	if value.Kind() == slog.KindGroup {
		attrs := value.Group()
		shortened := make([]slog.Attr, len(attrs))
		for i, groupAttr := range attrs {
			shortened[i] = h.elideAttr(groupAttr)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(shortened...)}
	}

	if value.Kind() != slog.KindString {
		return slog.Attr{Key: a.Key, Value: value}
	}

	s := value.String()
	limit := h.valueLimit
	if contentKeys[strings.ToLower(a.Key)] || looksLikeMarkup(s) {
		limit = h.contentLimit
	}
	return slog.String(a.Key, Elide(s, limit))
}

// looksLikeMarkup reports whether s contains wikitext or HTML.
func looksLikeMarkup(s string) bool {
	for _, pattern := range markupPatterns {
		if pattern.MatchString(s) {
			return true
		}
	}
	return false
}

// Elide returns s on one line, cut to at most limit runes. A cut value ends
// with "..." and the original size in bytes.
//
//	Elide("== History ==\nFormed in 2008.", 12) // `== History =...(29 bytes)`
func Elide(s string, limit int) string {
	flat := flatten(s)
	if limit <= 0 || utf8.RuneCountInString(flat) <= limit {
		return flat
	}

	cut := 0
	for i := range flat {
		if cut == limit {
			return fmt.Sprintf("%s%s(%d bytes)", flat[:i], ellipsis, len(s))
		}
		cut++
	}
	return flat
}

// flatten replaces line breaks with NewlineMarker.
func flatten(s string) string {
	if !strings.ContainsAny(s, "\r\n") {
		return s
	}
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	return strings.ReplaceAll(s, "\n", NewlineMarker)
}

// NewLogger creates a text logger with eliding enabled.
// If verbose is true, the log level is set to Debug; otherwise, it's Warn.
//
// Design decision: We default to Warn level because the enrich command
// prints its report on stdout and progress lines would only get in the way.
func NewLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	textHandler := slog.NewTextHandler(w, opts)
	return slog.New(NewElidingHandler(textHandler))
}

// NewJSONLogger creates a JSON logger with eliding enabled.
// This is useful for structured logging in production environments.
func NewJSONLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	jsonHandler := slog.NewJSONHandler(w, opts)
	return slog.New(NewElidingHandler(jsonHandler))
}
