package config

import (
	"path/filepath"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "wikienrich"

	// DefaultWorkers is the number of dump pages resolved concurrently.
	// Resolution is CPU bound and the dump is read by a single goroutine,
	// so more workers than cores gains nothing.
	DefaultWorkers = 8

	// DefaultLoadConcurrency is the number of setlist HTML files parsed at once.
	DefaultLoadConcurrency = 8

	// DefaultProgressEvery is how many dump pages are read between progress
	// log lines. A full encyclopedia dump has millions of pages.
	DefaultProgressEvery = 100000

	// DefaultListLimit is the number of runs shown by "wikienrich runs".
	DefaultListLimit = 20
)

// Config holds all configuration options for wikienrich.
// This struct is populated from CLI flags and the configuration file and
// passed through the application rather than kept in global state.
//
// Design decision: We use a single flat struct instead of nested structs.
// The number of options is small and the commands read most of them.
type Config struct {
	// HTMLDir is the directory holding crawled setlist pages.
	HTMLDir string

	// DumpPath is the encyclopedia XML dump, optionally bzip2 compressed.
	DumpPath string

	// Dataset names an entry of the configuration file supplying HTMLDir
	// and DumpPath. Flags given on the command line take precedence.
	Dataset string

	// Workers is the number of dump pages resolved concurrently.
	Workers int

	// LoadConcurrency is the number of setlist HTML files parsed concurrently.
	LoadConcurrency int

	// ProgressEvery is the number of dump pages between progress log lines.
	// Zero disables progress logging.
	ProgressEvery int

	// Verbose enables detailed log output using slog.LevelDebug.
	// When false, only warnings and errors are logged.
	Verbose bool

	// ConfigFilePath is the path to the configuration file.
	// If empty, the tool searches for .wikienrich in the current directory,
	// the user's home directory and the XDG config directory.
	ConfigFilePath string

	// File holds the parsed configuration file, if one was found.
	File *File

	// JSONReport writes the enriched events as JSON lines.
	// Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport writes a Markdown run summary.
	// Mutually exclusive with JSONReport.
	MarkdownReport bool

	// ReportFile is the output file path for the report.
	// When set, the report is written to this file instead of stdout.
	// Directories are created automatically if they don't exist.
	ReportFile string

	// DBDir is the directory path for storing the SQLite database.
	// Defaults to XDG data directory (~/.local/share/wikienrich on Linux).
	DBDir string

	// SaveToDB indicates whether run results are persisted.
	SaveToDB bool
}

// NewConfig creates a new Config with default values.
//
// Design decision: We use a constructor function instead of relying on
// zero values because the worker counts default to non-zero values.
// This also serves as documentation of what the defaults are.
func NewConfig() *Config {
	return &Config{
		Workers:         DefaultWorkers,
		LoadConcurrency: DefaultLoadConcurrency,
		ProgressEvery:   DefaultProgressEvery,
		DBDir:           XDGDataDir(),
		SaveToDB:        true,
	}
}

// XDGDataDir returns the XDG data directory for wikienrich.
// On Linux: ~/.local/share/wikienrich
// On macOS: ~/Library/Application Support/wikienrich
// On Windows: %LOCALAPPDATA%\wikienrich
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for wikienrich.
// On Linux: ~/.config/wikienrich
// On macOS: ~/Library/Application Support/wikienrich
// On Windows: %APPDATA%\wikienrich
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// ApplyFile copies the settings of the configuration file onto c: first the
// file defaults, then the selected dataset. Only non-zero settings are
// copied. Callers apply command line flags afterwards so that flags win.
// It returns ErrUnknownDataset when Dataset names no entry of the file.
func (c *Config) ApplyFile(f *File) error {
	c.File = f
	if f == nil {
		if c.Dataset != "" {
			return ErrUnknownDataset
		}
		return nil
	}

	settings := f.Defaults
	if c.Dataset != "" {
		ds, ok := f.Datasets[c.Dataset]
		if !ok {
			return ErrUnknownDataset
		}
		settings = MergeDataset(f.Defaults, ds)
	}

	if settings.HTMLDir != "" {
		c.HTMLDir = settings.HTMLDir
	}
	if settings.Dump != "" {
		c.DumpPath = settings.Dump
	}
	if settings.Workers > 0 {
		c.Workers = settings.Workers
	}
	if settings.LoadConcurrency > 0 {
		c.LoadConcurrency = settings.LoadConcurrency
	}
	if settings.DBDir != "" {
		c.DBDir = settings.DBDir
	}
	return nil
}

// Validate checks if the configuration is valid for an enrichment run.
// It returns a specific error describing what is invalid.
//
// Design decision: We validate at the config level rather than at each
// point of use to fail fast and provide clear error messages upfront.
// We return the first error found because fixing one error often makes
// others irrelevant.
func (c *Config) Validate() error {
	if c.HTMLDir == "" {
		return ErrNoHTMLDir
	}
	return c.ValidateResolve()
}

// ValidateResolve checks the subset of the configuration a dump-only
// resolution needs. No setlist directory is required.
func (c *Config) ValidateResolve() error {
	if c.DumpPath == "" {
		return ErrNoDump
	}
	if c.Workers <= 0 {
		return ErrInvalidWorkers
	}
	if c.LoadConcurrency <= 0 {
		return ErrInvalidLoadConcurrency
	}
	if c.ProgressEvery < 0 {
		return ErrInvalidProgressEvery
	}
	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}
	return nil
}
