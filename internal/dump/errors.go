package dump

import "errors"

var (
	// ErrMalformedDump is returned when the export is not well-formed XML or a
	// page element cannot be decoded.
	ErrMalformedDump = errors.New("malformed dump")

	// ErrEmptyPath is returned when Open is called without a path.
	ErrEmptyPath = errors.New("dump path is empty")
)
