package pipeline

import "errors"

var (
	// ErrNoHTMLDir is returned when a run has no setlist directory to load.
	ErrNoHTMLDir = errors.New("no setlist HTML directory given")

	// ErrNoDump is returned when a run has no dump path to scan.
	ErrNoDump = errors.New("no dump path given")

	// ErrNoMentions is returned when a step needs a mention snapshot that an
	// earlier step did not build.
	ErrNoMentions = errors.New("mention snapshot has not been built")
)
