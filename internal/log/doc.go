// Package log provides logging helpers built on top of the standard slog
// package.
//
// The engine logs page titles, section names and, at debug level, pieces of
// page markup. A single encyclopedia page can be hundreds of kilobytes of
// wikitext spread over thousands of lines, which would turn one log record
// into an unreadable wall of text. The ElidingHandler wraps any slog.Handler
// and keeps every record on one line of bounded size:
//   - Attributes whose key names page content (markup, text, section, ...)
//     are shortened to a small limit
//   - String values that look like wikitext ({{ or [[) get the same limit
//   - Every other string value is shortened to a larger limit
//   - Newlines in string values are replaced with a visible marker
//
// # Usage
//
//	logger := log.NewLogger(os.Stderr, true) // verbose=true
//
//	logger.Debug("page accepted",
//	    "title", page.Title,
//	    "markup", page.MarkupText, // shortened, one line
//	)
//
//	slog.SetDefault(logger)
package log
