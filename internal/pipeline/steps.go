package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/nao1215/wikienrich/internal/config"
	"github.com/nao1215/wikienrich/internal/dump"
	"github.com/nao1215/wikienrich/internal/enrich"
	"github.com/nao1215/wikienrich/internal/entity"
	"github.com/nao1215/wikienrich/internal/model"
	"github.com/nao1215/wikienrich/internal/resolver"
	"github.com/nao1215/wikienrich/internal/setlist"
)

// LoadEventsStep parses the crawled setlist pages of run.HTMLDir into
// events.
type LoadEventsStep struct {
	// loader parses the HTML files.
	loader *setlist.Loader

	// logger for structured logging.
	logger *slog.Logger
}

// LoadEventsStepOption configures a LoadEventsStep.
type LoadEventsStepOption func(*LoadEventsStep)

// WithLoadLogger sets a custom logger for the load step.
func WithLoadLogger(logger *slog.Logger) LoadEventsStepOption {
	return func(s *LoadEventsStep) {
		s.logger = logger
	}
}

// NewLoadEventsStep creates a step that loads events with loader.
// A nil loader is replaced by setlist.NewLoader().
func NewLoadEventsStep(loader *setlist.Loader, opts ...LoadEventsStepOption) *LoadEventsStep {
	s := &LoadEventsStep{
		loader: loader,
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.loader == nil {
		s.loader = setlist.NewLoader(setlist.WithLogger(s.logger))
	}

	return s
}

// Name returns the step name.
func (s *LoadEventsStep) Name() string {
	return "load_events"
}

// Do executes the load step.
func (s *LoadEventsStep) Do(ctx context.Context, run *model.Run) error {
	if run.HTMLDir == "" {
		return ErrNoHTMLDir
	}

	events, err := s.loader.LoadDir(ctx, run.HTMLDir)
	if err != nil {
		return fmt.Errorf("failed to load setlist events: %w", err)
	}

	run.Events = events
	run.Stats.Events = len(events)

	s.logger.Info("events loaded",
		"dir", run.HTMLDir,
		"events", len(events),
	)

	return nil
}

// BuildMentionsStep freezes the mention snapshot of the loaded events.
// It must run before any page is resolved.
type BuildMentionsStep struct {
	logger *slog.Logger
}

// BuildMentionsStepOption configures a BuildMentionsStep.
type BuildMentionsStepOption func(*BuildMentionsStep)

// WithMentionsLogger sets a custom logger for the mention step.
func WithMentionsLogger(logger *slog.Logger) BuildMentionsStepOption {
	return func(s *BuildMentionsStep) {
		s.logger = logger
	}
}

// NewBuildMentionsStep creates a new mention step.
func NewBuildMentionsStep(opts ...BuildMentionsStepOption) *BuildMentionsStep {
	s := &BuildMentionsStep{
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the step name.
func (s *BuildMentionsStep) Name() string {
	return "build_mentions"
}

// Do executes the mention step.
func (s *BuildMentionsStep) Do(_ context.Context, run *model.Run) error {
	run.Mentions = entity.BuildMentionSet(run.Events)
	run.Stats.Mentions = MentionCounts(run.Mentions)

	if run.Mentions.Empty() {
		s.logger.Warn("no entity mentions found in events", "events", len(run.Events))
		return nil
	}

	s.logger.Info("mention snapshot built",
		"artists", run.Stats.Mentions[model.EntityArtist],
		"venues", run.Stats.Mentions[model.EntityVenue],
		"cities", run.Stats.Mentions[model.EntityCity],
		"countries", run.Stats.Mentions[model.EntityCountry],
	)

	return nil
}

// MentionCounts returns the number of distinct mentions per type.
func MentionCounts(mentions *model.MentionSet) map[model.EntityType]int {
	counts := make(map[model.EntityType]int, len(model.MentionOrder))
	for _, t := range model.MentionOrder {
		counts[t] = mentions.Len(t)
	}
	return counts
}

// DumpSource is an open dump that can be read page by page.
type DumpSource interface {
	PageSource
	io.Closer
}

// DumpOpener opens the dump at path.
type DumpOpener func(path string) (DumpSource, error)

// OpenDump opens a MediaWiki XML export, compressed or not.
func OpenDump(path string) (DumpSource, error) {
	r, err := dump.Open(path)
	if err != nil {
		return nil, err
	}
	return r, nil
}

// ResolveDumpStep scans run.DumpPath and keeps the pages that describe
// a mentioned entity.
//
// Design decision: The step owns opening and closing the dump so the
// caller never holds a file across pipeline steps. The opener is
// replaceable for tests that serve pages from memory.
type ResolveDumpStep struct {
	// batch resolves the pages concurrently.
	batch *BatchProcessor

	// open opens the dump file.
	open DumpOpener

	// logger for structured logging.
	logger *slog.Logger
}

// ResolveDumpStepOption configures a ResolveDumpStep.
type ResolveDumpStepOption func(*ResolveDumpStep)

// WithDumpOpener replaces the function used to open the dump.
func WithDumpOpener(open DumpOpener) ResolveDumpStepOption {
	return func(s *ResolveDumpStep) {
		if open != nil {
			s.open = open
		}
	}
}

// WithResolveLogger sets a custom logger for the resolve step.
func WithResolveLogger(logger *slog.Logger) ResolveDumpStepOption {
	return func(s *ResolveDumpStep) {
		s.logger = logger
	}
}

// NewResolveDumpStep creates a new resolve step.
// A nil batch processor is replaced by one with default settings.
func NewResolveDumpStep(batch *BatchProcessor, opts ...ResolveDumpStepOption) *ResolveDumpStep {
	s := &ResolveDumpStep{
		batch:  batch,
		open:   OpenDump,
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.batch == nil {
		s.batch = NewBatchProcessor(nil, WithBatchLogger(s.logger))
	}

	return s
}

// Name returns the step name.
func (s *ResolveDumpStep) Name() string {
	return "resolve_dump"
}

// Do executes the resolve step.
func (s *ResolveDumpStep) Do(ctx context.Context, run *model.Run) error {
	if run.DumpPath == "" {
		return ErrNoDump
	}
	if run.Mentions == nil {
		return ErrNoMentions
	}

	run.Pages = make([]*model.EnrichedEntityPage, 0)
	run.Stats.PagesMatched = make(map[model.EntityType]int)

	if run.Mentions.Empty() {
		s.logger.Warn("skipping dump scan, nothing to resolve", "dump", run.DumpPath)
		return nil
	}

	src, err := s.open(run.DumpPath)
	if err != nil {
		return fmt.Errorf("failed to open dump: %w", err)
	}
	defer func() {
		if cerr := src.Close(); cerr != nil {
			s.logger.Warn("failed to close dump", "dump", run.DumpPath, "error", cerr)
		}
	}()

	pages, stats, err := s.batch.Collect(ctx, src, run.Mentions)

	run.Pages = pages
	run.Stats.PagesScanned = stats.Scanned
	run.Stats.PagesMatched = stats.Matched
	run.Stats.Duplicates = stats.Duplicates

	if err != nil {
		return fmt.Errorf("failed to resolve dump %s: %w", run.DumpPath, err)
	}

	s.logger.Info("dump resolved",
		"pages", stats.Scanned,
		"matched", run.Stats.TotalMatched(),
		"duplicates", stats.Duplicates,
		"redirects", stats.Outcomes[resolver.RejectedRedirect],
		"disambiguations", stats.Outcomes[resolver.RejectedDisambiguation],
		"type_mismatches", stats.Outcomes[resolver.RejectedTypeMismatch],
	)

	return nil
}

// JoinStep attaches the accepted pages to the events.
type JoinStep struct {
	logger *slog.Logger
}

// JoinStepOption configures a JoinStep.
type JoinStepOption func(*JoinStep)

// WithJoinLogger sets a custom logger for the join step.
func WithJoinLogger(logger *slog.Logger) JoinStepOption {
	return func(s *JoinStep) {
		s.logger = logger
	}
}

// NewJoinStep creates a new join step.
func NewJoinStep(opts ...JoinStepOption) *JoinStep {
	s := &JoinStep{
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the step name.
func (s *JoinStep) Name() string {
	return "join"
}

// Do executes the join step.
func (s *JoinStep) Do(_ context.Context, run *model.Run) error {
	run.Enriched = enrich.Join(run.Events, run.Pages)
	run.Stats.EnrichedEvents = enrich.Count(run.Enriched)

	s.logger.Info("events enriched",
		"events", len(run.Enriched),
		"with_artist_bio", run.Stats.EnrichedEvents[model.EntityArtist],
		"with_venue_capacity", run.Stats.EnrichedEvents[model.EntityVenue],
		"with_city_population", run.Stats.EnrichedEvents[model.EntityCity],
		"with_country_capital", run.Stats.EnrichedEvents[model.EntityCountry],
	)

	return nil
}

// RunStore persists the results of a run. *database.EnrichDB satisfies it.
type RunStore interface {
	SaveEntityPages(ctx context.Context, runID string, pages []*model.EnrichedEntityPage) (model.PageWrites, error)
	SaveEnrichedEvents(ctx context.Context, runID string, events []model.EnrichedEvent) error
	SaveRun(ctx context.Context, run *model.Run) error
}

// PersistStep writes the accepted pages, the enriched events and the run
// record to a store.
type PersistStep struct {
	store  RunStore
	logger *slog.Logger
}

// PersistStepOption configures a PersistStep.
type PersistStepOption func(*PersistStep)

// WithPersistLogger sets a custom logger for the persist step.
func WithPersistLogger(logger *slog.Logger) PersistStepOption {
	return func(s *PersistStep) {
		s.logger = logger
	}
}

// NewPersistStep creates a step that writes to store.
func NewPersistStep(store RunStore, opts ...PersistStepOption) *PersistStep {
	s := &PersistStep{
		store:  store,
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the step name.
func (s *PersistStep) Name() string {
	return "persist"
}

// Do executes the persist step.
func (s *PersistStep) Do(ctx context.Context, run *model.Run) error {
	writes, err := s.store.SaveEntityPages(ctx, run.ID, run.Pages)
	if err != nil {
		return fmt.Errorf("failed to save entity pages: %w", err)
	}
	run.Stats.StoredPages = writes

	if len(run.Enriched) > 0 {
		if err := s.store.SaveEnrichedEvents(ctx, run.ID, run.Enriched); err != nil {
			return fmt.Errorf("failed to save enriched events: %w", err)
		}
	}

	if err := s.store.SaveRun(ctx, run); err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}

	s.logger.Info("run persisted",
		"run", run.ID,
		"new_pages", writes.Inserted,
		"updated_pages", writes.Updated,
		"unchanged_pages", writes.Unchanged,
		"events", len(run.Enriched),
	)

	return nil
}

// DefaultPipelineConfig holds configuration for the default pipeline.
type DefaultPipelineConfig struct {
	// Workers is the number of pages resolved concurrently.
	Workers int

	// LoadConcurrency is the number of HTML files parsed concurrently.
	LoadConcurrency int

	// ProgressEvery is the number of dump pages between progress log lines.
	ProgressEvery int

	// Store receives the results. When nil, no persist step is added.
	Store RunStore

	// Logger is handed to every step.
	Logger *slog.Logger

	// Opener replaces the dump opener, mainly for tests.
	Opener DumpOpener
}

// DefaultPipelineOption configures a DefaultPipelineConfig.
type DefaultPipelineOption func(*DefaultPipelineConfig)

// WithPipelineWorkers sets the number of resolver workers.
func WithPipelineWorkers(n int) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.Workers = n
	}
}

// WithPipelineLoadConcurrency sets the number of HTML files parsed at once.
func WithPipelineLoadConcurrency(n int) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.LoadConcurrency = n
	}
}

// WithPipelineProgressEvery sets how often dump progress is logged.
func WithPipelineProgressEvery(n int) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.ProgressEvery = n
	}
}

// WithPipelineStore adds a persist step writing to store.
func WithPipelineStore(store RunStore) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.Store = store
	}
}

// WithPipelineLogger sets the logger used by the steps.
func WithPipelineLogger(logger *slog.Logger) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.Logger = logger
	}
}

// WithPipelineDumpOpener replaces the dump opener.
func WithPipelineDumpOpener(open DumpOpener) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.Opener = open
	}
}

// DefaultPipeline creates the full enrichment pipeline:
// load_events, build_mentions, resolve_dump, join and, when a store is
// configured, persist.
//
// The first parameter accepts pipeline options (WithLogger, etc).
// The variadic parameter accepts config options (WithPipelineWorkers, etc).
func DefaultPipeline(pipelineOpts []Option, configOpts ...DefaultPipelineOption) *Pipeline {
	p := New(pipelineOpts...)

	cfg := &DefaultPipelineConfig{
		Workers:         config.DefaultWorkers,
		LoadConcurrency: config.DefaultLoadConcurrency,
		ProgressEvery:   config.DefaultProgressEvery,
		Logger:          slog.Default(),
		Opener:          OpenDump,
	}
	for _, opt := range configOpts {
		opt(cfg)
	}

	loader := setlist.NewLoader(
		setlist.WithConcurrency(cfg.LoadConcurrency),
		setlist.WithLogger(cfg.Logger),
	)
	batch := NewBatchProcessor(
		resolver.New(resolver.WithLogger(cfg.Logger)),
		WithConcurrency(cfg.Workers),
		WithProgressEvery(cfg.ProgressEvery),
		WithBatchLogger(cfg.Logger),
	)

	p.AddSteps(
		NewLoadEventsStep(loader, WithLoadLogger(cfg.Logger)),
		NewBuildMentionsStep(WithMentionsLogger(cfg.Logger)),
		NewResolveDumpStep(batch,
			WithDumpOpener(cfg.Opener),
			WithResolveLogger(cfg.Logger),
		),
		NewJoinStep(WithJoinLogger(cfg.Logger)),
	)

	if cfg.Store != nil {
		p.AddStep(NewPersistStep(cfg.Store, WithPersistLogger(cfg.Logger)))
	}

	return p
}
