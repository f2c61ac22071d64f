package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() and provide specific
// information about what is wrong with the configuration.
//
// Design decision: We use package-level sentinel errors rather than
// creating new error instances in Validate(). This allows callers to use
// errors.Is() for programmatic error handling while still providing
// human-readable messages.
var (
	// ErrNoHTMLDir is returned when no setlist HTML directory is specified,
	// neither by --html-dir nor by the selected dataset.
	ErrNoHTMLDir = errors.New("no setlist directory specified: use --html-dir or a dataset")

	// ErrNoDump is returned when no dump file is specified.
	ErrNoDump = errors.New("no dump specified: use --dump or a dataset")

	// ErrInvalidWorkers is returned when the number of resolver workers is
	// not positive.
	ErrInvalidWorkers = errors.New("invalid workers: must be positive")

	// ErrInvalidLoadConcurrency is returned when the number of concurrent
	// HTML parses is not positive.
	ErrInvalidLoadConcurrency = errors.New("invalid load concurrency: must be positive")

	// ErrConflictingReportFormats is returned when both --json and --markdown
	// are specified. Only one output format can be used at a time.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")

	// ErrInvalidProgressEvery is returned when the progress interval is negative.
	// Use 0 to disable progress logging.
	ErrInvalidProgressEvery = errors.New("invalid progress interval: must be non-negative")

	// ErrUnknownDataset is returned when the selected dataset is not defined
	// in the configuration file.
	ErrUnknownDataset = errors.New("dataset not defined in configuration file")
)
