package setlist

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/nao1215/wikienrich/internal/model"
	"golang.org/x/sync/errgroup"
)

// htmlExt is the extension of crawled setlist pages.
const htmlExt = ".html"

// Loader reads a directory of crawled setlist pages into events.
type Loader struct {
	// concurrency is the maximum number of files parsed at once.
	concurrency int

	// logger reports skipped files.
	logger *slog.Logger
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithConcurrency sets the maximum number of files parsed at once.
// Default is 8. Values below 1 are ignored.
func WithConcurrency(n int) LoaderOption {
	return func(l *Loader) {
		if n > 0 {
			l.concurrency = n
		}
	}
}

// WithLogger sets the logger used to report skipped files.
func WithLogger(logger *slog.Logger) LoaderOption {
	return func(l *Loader) {
		l.logger = logger
	}
}

// NewLoader creates a Loader.
func NewLoader(opts ...LoaderOption) *Loader {
	l := &Loader{concurrency: 8}
	for _, opt := range opts {
		opt(l)
	}
	if l.logger == nil {
		l.logger = slog.Default()
	}
	return l
}

// LoadDir parses every ".html" file under dir and returns the events sorted
// by file path. Files that cannot be read or parsed are logged and skipped.
//
// Design decision: Results are written into a slice indexed by file position
// so that the output order does not depend on goroutine scheduling.
func (l *Loader) LoadDir(ctx context.Context, dir string) ([]model.Event, error) {
	paths, err := listHTML(dir)
	if err != nil {
		return nil, err
	}

	l.logger.Info("loading setlist pages", "dir", dir, "files", len(paths))

	parsed := make([]*model.Event, len(paths))
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(l.concurrency)

	for i, path := range paths {
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			ev, err := LoadFile(path)
			if err != nil {
				l.logger.Warn("skipping setlist page", "path", path, "error", err)
				return nil
			}

			mu.Lock()
			parsed[i] = &ev
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	events := make([]model.Event, 0, len(parsed))
	for _, ev := range parsed {
		if ev != nil {
			events = append(events, *ev)
		}
	}
	return events, nil
}

// LoadFile parses a single setlist page and fills in its file metadata.
func LoadFile(path string) (model.Event, error) {
	f, err := os.Open(path) //nolint:gosec // path comes from walking the operator's crawl directory
	if err != nil {
		return model.Event{}, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return model.Event{}, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	ev, err := Parse(f)
	if err != nil {
		return model.Event{}, fmt.Errorf("%s: %w", path, err)
	}
	ev.URL = filepath.Base(path)
	ev.Path = path
	ev.SizeBytes = info.Size()
	return ev, nil
}

// listHTML returns the sorted paths of all ".html" files under dir.
func listHTML(dir string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(path), htmlExt) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list setlist pages in %s: %w", dir, err)
	}
	sort.Strings(paths)
	return paths, nil
}
