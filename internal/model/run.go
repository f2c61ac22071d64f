package model

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

// NewRunID returns a new lexicographically sortable run identifier.
func NewRunID() string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Now(), entropy).String()
}

// Run is the accumulated state of one enrichment run.
// Pipeline steps receive the run and fill in their part of it.
//
// Design decision: As with a scan report, we use one struct that travels
// through every step rather than passing results from step to step. Steps stay
// independent and the finished run serializes directly to reports and the store.
type Run struct {
	// ID is a ULID identifying the run.
	ID string `json:"id"`

	// StartedAt and FinishedAt bracket the run.
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	// HTMLDir is the directory the setlist pages were read from.
	HTMLDir string `json:"html_dir,omitempty"`

	// DumpPath is the markup dump that was scanned.
	DumpPath string `json:"dump_path,omitempty"`

	// Events are the crawled setlist events.
	Events []Event `json:"-"`

	// Mentions is the frozen mention snapshot built from Events.
	Mentions *MentionSet `json:"-"`

	// Pages are the accepted entity pages, deduplicated, in dump order.
	Pages []*EnrichedEntityPage `json:"-"`

	// Enriched are the events after the join.
	Enriched []EnrichedEvent `json:"-"`

	// Stats summarises the run.
	Stats Stats `json:"stats"`

	// PerformedSteps lists the pipeline steps that ran, in order.
	PerformedSteps []string `json:"performed_steps"`

	// Error holds the last step error, if any.
	Error        error  `json:"-"`
	ErrorMessage string `json:"error,omitempty"`

	// Cancelled is true when the run stopped because its context ended.
	Cancelled bool `json:"cancelled"`
}

// NewRun creates an empty run with a fresh ID.
func NewRun() *Run {
	return &Run{
		ID:             NewRunID(),
		StartedAt:      time.Now(),
		PerformedSteps: make([]string, 0),
	}
}

// Stats holds the counters reported at the end of a run.
type Stats struct {
	// Events is the number of setlist events loaded.
	Events int `json:"events"`

	// Mentions counts distinct normalized mentions per type.
	Mentions map[EntityType]int `json:"mentions"`

	// PagesScanned is the number of dump pages read.
	PagesScanned int `json:"pages_scanned"`

	// PagesMatched counts accepted pages per detected type.
	PagesMatched map[EntityType]int `json:"pages_matched"`

	// Duplicates is the number of accepted pages dropped because an earlier
	// page already produced the same (type, titleNorm).
	Duplicates int `json:"duplicates"`

	// EnrichedEvents counts events that received data for each type.
	EnrichedEvents map[EntityType]int `json:"enriched_events"`

	// StoredPages says how saving the accepted pages changed the store.
	StoredPages PageWrites `json:"stored_pages"`
}

// TotalMatched returns the number of accepted pages across all types.
func (s Stats) TotalMatched() int {
	total := 0
	for _, n := range s.PagesMatched {
		total += n
	}
	return total
}

// Percent returns n as a percentage of the loaded events.
func (s Stats) Percent(n int) float64 {
	if s.Events == 0 {
		return 0
	}
	return 100 * float64(n) / float64(s.Events)
}
