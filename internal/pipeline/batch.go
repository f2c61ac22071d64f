package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/nao1215/wikienrich/internal/model"
	"github.com/nao1215/wikienrich/internal/resolver"
	"golang.org/x/sync/errgroup"
)

// PageSource yields raw dump pages one at a time and returns io.EOF when
// there are no more. *dump.Reader satisfies it.
type PageSource interface {
	Next() (*model.RawPage, error)
}

// BatchStats counts what happened to the pages of one batch.
type BatchStats struct {
	// Scanned is the number of pages read from the source.
	Scanned int

	// Matched counts emitted pages per entity type.
	Matched map[model.EntityType]int

	// Duplicates is the number of accepted pages dropped because an earlier
	// page produced the same (type, titleNorm).
	Duplicates int

	// Outcomes counts resolver decisions, accepted pages included.
	Outcomes map[resolver.Outcome]int
}

func newBatchStats() BatchStats {
	return BatchStats{
		Matched:  make(map[model.EntityType]int),
		Outcomes: make(map[resolver.Outcome]int),
	}
}

// BatchProcessor resolves dump pages concurrently.
// It uses errgroup to manage goroutines and respect the concurrency limit.
//
// Design decision: Resolution is a pure function of a page and the frozen
// mention snapshot, so workers share nothing but the output. Results are
// released in dump order through a small reorder buffer; deduplication
// then sees pages in the same order a sequential scan would, and the first
// page for a (type, titleNorm) key wins regardless of which worker
// finished first.
type BatchProcessor struct {
	// resolver decides per page.
	resolver *resolver.Resolver

	// concurrency is the maximum number of pages resolved at once.
	concurrency int

	// progressEvery logs a progress line after this many pages. Zero disables it.
	progressEvery int

	// logger is used for batch-level logging.
	logger *slog.Logger
}

// BatchOption configures a BatchProcessor.
type BatchOption func(*BatchProcessor)

// WithBatchLogger sets a custom logger for batch processing.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchProcessor) {
		b.logger = logger
	}
}

// WithConcurrency sets the maximum number of pages resolved at once.
// Default is 10 if not specified.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchProcessor) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// WithProgressEvery logs a progress line after every n pages read.
func WithProgressEvery(n int) BatchOption {
	return func(b *BatchProcessor) {
		if n >= 0 {
			b.progressEvery = n
		}
	}
}

// NewBatchProcessor creates a new BatchProcessor around r.
// A nil resolver is replaced by resolver.New().
func NewBatchProcessor(r *resolver.Resolver, opts ...BatchOption) *BatchProcessor {
	bp := &BatchProcessor{
		resolver:      r,
		concurrency:   10,
		progressEvery: 100000,
	}

	for _, opt := range opts {
		opt(bp)
	}

	if bp.logger == nil {
		bp.logger = slog.Default()
	}
	if bp.resolver == nil {
		bp.resolver = resolver.New(resolver.WithLogger(bp.logger))
	}

	return bp
}

// Concurrency returns the configured worker limit.
func (bp *BatchProcessor) Concurrency() int {
	return bp.concurrency
}

// ProcessStream reads every page from src, resolves the pages concurrently
// and calls emit for each accepted, non-duplicate page in dump order.
// emit is never called concurrently.
//
// The scan stops at the first read error, the first emit error, or when ctx
// ends; the stats gathered so far are returned with the error.
func (bp *BatchProcessor) ProcessStream(ctx context.Context, src PageSource, mentions *model.MentionSet, emit func(*model.EnrichedEntityPage) error) (BatchStats, error) {
	stats := newBatchStats()
	startTime := time.Now()

	bp.logger.Info("starting page resolution",
		"concurrency", bp.concurrency,
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)

	ord := newOrderer(bp.concurrency, &stats, emit)

	var readErr error
	read := 0
scan:
	for {
		select {
		case <-gctx.Done():
			break scan
		default:
		}

		if err := ord.acquire(gctx); err != nil {
			break
		}

		page, err := src.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			readErr = fmt.Errorf("failed to read page %d: %w", read+1, err)
			break
		}

		index := read
		read++
		g.Go(func() error {
			enriched, outcome := bp.resolver.Explain(page, mentions)
			return ord.complete(index, enriched, outcome)
		})

		if bp.progressEvery > 0 && read%bp.progressEvery == 0 {
			bp.logger.Info("resolution progress",
				"pages", read,
				"elapsed", time.Since(startTime).Round(time.Second),
			)
		}
	}

	waitErr := g.Wait()
	stats.Scanned = read

	bp.logger.Info("page resolution completed",
		"pages", stats.Scanned,
		"duplicates", stats.Duplicates,
		"duration", time.Since(startTime),
	)

	if readErr != nil {
		return stats, readErr
	}
	if waitErr != nil {
		return stats, waitErr
	}
	if err := ctx.Err(); err != nil {
		return stats, err
	}
	return stats, nil
}

// Collect resolves every page from src and returns the accepted pages,
// deduplicated, in dump order.
func (bp *BatchProcessor) Collect(ctx context.Context, src PageSource, mentions *model.MentionSet) ([]*model.EnrichedEntityPage, BatchStats, error) {
	pages := make([]*model.EnrichedEntityPage, 0)
	stats, err := bp.ProcessStream(ctx, src, mentions, func(page *model.EnrichedEntityPage) error {
		pages = append(pages, page)
		return nil
	})
	return pages, stats, err
}

// ProcessBatch resolves an in-memory slice of pages.
func (bp *BatchProcessor) ProcessBatch(ctx context.Context, pages []*model.RawPage, mentions *model.MentionSet) ([]*model.EnrichedEntityPage, BatchStats, error) {
	return bp.Collect(ctx, &sliceSource{pages: pages}, mentions)
}

// sliceSource serves pages from a slice.
type sliceSource struct {
	pages []*model.RawPage
	pos   int
}

func (s *sliceSource) Next() (*model.RawPage, error) {
	if s.pos >= len(s.pages) {
		return nil, io.EOF
	}
	page := s.pages[s.pos]
	s.pos++
	return page, nil
}

// orderer releases worker results in input order and applies first-wins
// deduplication on (type, titleNorm).
//
// Each page holds a slot from acquire until it is flushed, so resolving and
// buffered pages together never exceed the window, however slow an early
// page is.
type orderer struct {
	mu      sync.Mutex
	next    int
	slots   chan struct{}
	pending map[int]*model.EnrichedEntityPage
	seen    map[model.PageKey]struct{}
	stats   *BatchStats
	emit    func(*model.EnrichedEntityPage) error
	failed  bool
}

func newOrderer(window int, stats *BatchStats, emit func(*model.EnrichedEntityPage) error) *orderer {
	if window < 1 {
		window = 1
	}
	return &orderer{
		slots:   make(chan struct{}, window),
		pending: make(map[int]*model.EnrichedEntityPage),
		seen:    make(map[model.PageKey]struct{}),
		stats:   stats,
		emit:    emit,
	}
}

// acquire blocks until a page may enter the window or ctx ends.
func (o *orderer) acquire(ctx context.Context) error {
	select {
	case o.slots <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// complete records the result for the page at index and flushes every
// result that is now contiguous with the ones already released.
// A nil page marks a rejected page.
func (o *orderer) complete(index int, page *model.EnrichedEntityPage, outcome resolver.Outcome) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.stats.Outcomes[outcome]++
	if o.failed {
		return nil
	}
	o.pending[index] = page

	for {
		p, ok := o.pending[o.next]
		if !ok {
			return nil
		}
		delete(o.pending, o.next)
		o.next++
		<-o.slots

		if p == nil {
			continue
		}
		key := p.Key()
		if _, dup := o.seen[key]; dup {
			o.stats.Duplicates++
			continue
		}
		o.seen[key] = struct{}{}
		o.stats.Matched[p.EntityType]++

		if o.emit != nil {
			if err := o.emit(p); err != nil {
				o.failed = true
				return err
			}
		}
	}
}
