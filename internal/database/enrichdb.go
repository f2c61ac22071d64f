package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/wikienrich/internal/model"
)

// FileName is the database file created inside the data directory.
const FileName = "wikienrich.db"

// timeLayout is a fixed-width UTC layout, so stored times sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// EnrichDB provides SQLite-based storage for runs, entity pages and
// enriched events.
type EnrichDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures EnrichDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging so that listing runs does not
	// block on a run that is writing.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates an EnrichDB in dbDir.
// If CreateIfNotExists is false and the database doesn't exist, an error
// wrapping ErrDatabaseNotFound is returned.
func Open(dbDir string, opts Options) (*EnrichDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("%w at %s", ErrDatabaseNotFound, dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// mode=rw refuses to create a missing file; mode=rwc creates it.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite only supports one writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	edb := &EnrichDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := edb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return edb, nil
}

// Close closes the database connection.
func (edb *EnrichDB) Close() error {
	return edb.db.Close()
}

// Path returns the database file path.
func (edb *EnrichDB) Path() string {
	return edb.dbPath
}

// createTables creates the database schema if it doesn't exist.
func (edb *EnrichDB) createTables() error {
	schema := `
	-- Runs record each enrichment run and its statistics
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		started_at TEXT NOT NULL,
		finished_at TEXT,
		html_dir TEXT,
		dump_path TEXT,
		stats_json TEXT NOT NULL,
		steps_json TEXT NOT NULL,
		error TEXT,
		cancelled INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);

	-- Entity pages hold one accepted page per entity type and canonical title
	CREATE TABLE IF NOT EXISTS entity_pages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		entity_type TEXT NOT NULL,
		title_norm TEXT NOT NULL,
		title TEXT NOT NULL,
		sections_json TEXT NOT NULL,
		infobox_json TEXT NOT NULL,
		markup_hash TEXT,
		run_id TEXT,
		timestamp DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(entity_type, title_norm)
	);

	CREATE INDEX IF NOT EXISTS idx_pages_type ON entity_pages(entity_type);

	-- Enriched events store the flattened output of a run
	CREATE TABLE IF NOT EXISTS enriched_events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		url TEXT NOT NULL,
		event_json TEXT NOT NULL,
		UNIQUE(run_id, url)
	);

	CREATE INDEX IF NOT EXISTS idx_events_run ON enriched_events(run_id);
	`

	_, err := edb.db.ExecContext(context.Background(), schema)
	return err
}

// execQuerier is satisfied by *sql.DB and *sql.Tx.
type execQuerier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// PageChange says what saving one entity page did to the store.
type PageChange int

const (
	// PageUnchanged means the key was already stored with the same markup.
	PageUnchanged PageChange = iota
	// PageInserted means the key was stored for the first time.
	PageInserted
	// PageUpdated means the stored page was rebuilt from changed markup.
	PageUpdated
)

const selectPageHashQuery = `
	SELECT markup_hash FROM entity_pages
	WHERE entity_type = ? AND title_norm = ?
	`

// upsertPageQuery refreshes a stored page only when its markup fingerprint
// differs, so rerunning over the same dump leaves rows untouched.
const upsertPageQuery = `
	INSERT INTO entity_pages (entity_type, title_norm, title, sections_json, infobox_json, markup_hash, run_id)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(entity_type, title_norm) DO UPDATE SET
		title = excluded.title,
		sections_json = excluded.sections_json,
		infobox_json = excluded.infobox_json,
		markup_hash = excluded.markup_hash,
		run_id = excluded.run_id,
		timestamp = CURRENT_TIMESTAMP
	WHERE entity_pages.markup_hash IS NOT excluded.markup_hash
	`

// SaveEntityPage stores page under its entity type and canonical title. A
// page already stored under that key is replaced only when its markup hash
// changed.
func (edb *EnrichDB) SaveEntityPage(ctx context.Context, runID string, page *model.EnrichedEntityPage) (PageChange, error) {
	return upsertPage(ctx, edb.db, runID, page)
}

// SaveEntityPages stores pages in one transaction. Within the batch the first
// page for a key wins and later ones count as unchanged; against earlier runs
// the rule of SaveEntityPage applies.
func (edb *EnrichDB) SaveEntityPages(ctx context.Context, runID string, pages []*model.EnrichedEntityPage) (model.PageWrites, error) {
	var writes model.PageWrites

	tx, err := edb.db.BeginTx(ctx, nil)
	if err != nil {
		return writes, fmt.Errorf("failed to begin transaction: %w", err)
	}

	seen := make(map[model.PageKey]struct{}, len(pages))
	for _, page := range pages {
		if _, dup := seen[page.Key()]; dup {
			writes.Unchanged++
			continue
		}
		seen[page.Key()] = struct{}{}

		change, err := upsertPage(ctx, tx, runID, page)
		if err != nil {
			_ = tx.Rollback()
			return model.PageWrites{}, err
		}
		switch change {
		case PageInserted:
			writes.Inserted++
		case PageUpdated:
			writes.Updated++
		default:
			writes.Unchanged++
		}
	}

	if err := tx.Commit(); err != nil {
		return model.PageWrites{}, fmt.Errorf("failed to commit entity pages: %w", err)
	}
	return writes, nil
}

func upsertPage(ctx context.Context, eq execQuerier, runID string, page *model.EnrichedEntityPage) (PageChange, error) {
	sectionsJSON, err := json.Marshal(page.Sections)
	if err != nil {
		return PageUnchanged, fmt.Errorf("failed to serialize sections: %w", err)
	}
	infoboxJSON, err := json.Marshal(page.InfoboxFields)
	if err != nil {
		return PageUnchanged, fmt.Errorf("failed to serialize infobox fields: %w", err)
	}

	var storedHash sql.NullString
	err = eq.QueryRowContext(ctx, selectPageHashQuery, string(page.EntityType), page.TitleNorm).Scan(&storedHash)
	existed := err == nil
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return PageUnchanged, fmt.Errorf("failed to look up entity page %q: %w", page.Title, err)
	}

	result, err := eq.ExecContext(ctx, upsertPageQuery,
		string(page.EntityType),
		page.TitleNorm,
		page.Title,
		string(sectionsJSON),
		string(infoboxJSON),
		page.MarkupHash,
		runID,
	)
	if err != nil {
		return PageUnchanged, fmt.Errorf("failed to save entity page %q: %w", page.Title, err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return PageUnchanged, fmt.Errorf("failed to read affected rows: %w", err)
	}
	switch {
	case n == 0:
		return PageUnchanged, nil
	case existed:
		return PageUpdated, nil
	default:
		return PageInserted, nil
	}
}

// GetEntityPage retrieves the stored page for an entity type and canonical
// title. It returns ErrNotFound when there is none.
func (edb *EnrichDB) GetEntityPage(ctx context.Context, t model.EntityType, titleNorm string) (*model.EnrichedEntityPage, error) {
	query := `
	SELECT title, title_norm, entity_type, sections_json, infobox_json, markup_hash
	FROM entity_pages
	WHERE entity_type = ? AND title_norm = ?
	`

	page, err := scanPage(edb.db.QueryRowContext(ctx, query, string(t), titleNorm))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("entity page %s/%q: %w", t, titleNorm, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get entity page: %w", err)
	}
	return page, nil
}

// ListEntityPages returns all stored pages in insertion order. An empty
// entity type lists pages of every type.
func (edb *EnrichDB) ListEntityPages(ctx context.Context, t model.EntityType) ([]*model.EnrichedEntityPage, error) {
	query := `
	SELECT title, title_norm, entity_type, sections_json, infobox_json, markup_hash
	FROM entity_pages
	WHERE 1=1
	`
	args := make([]any, 0, 1)
	if t != "" {
		query += " AND entity_type = ?"
		args = append(args, string(t))
	}
	query += " ORDER BY id"

	rows, err := edb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list entity pages: %w", err)
	}
	defer rows.Close()

	var pages []*model.EnrichedEntityPage
	for rows.Next() {
		page, err := scanPage(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan entity page: %w", err)
		}
		pages = append(pages, page)
	}
	return pages, rows.Err()
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanPage(row rowScanner) (*model.EnrichedEntityPage, error) {
	var (
		page         model.EnrichedEntityPage
		entityType   string
		sectionsJSON string
		infoboxJSON  string
		markupHash   sql.NullString
	)
	if err := row.Scan(&page.Title, &page.TitleNorm, &entityType, &sectionsJSON, &infoboxJSON, &markupHash); err != nil {
		return nil, err
	}
	page.EntityType = model.EntityType(entityType)
	page.MarkupHash = markupHash.String

	if err := json.Unmarshal([]byte(sectionsJSON), &page.Sections); err != nil {
		return nil, fmt.Errorf("failed to parse sections: %w", err)
	}
	if err := json.Unmarshal([]byte(infoboxJSON), &page.InfoboxFields); err != nil {
		return nil, fmt.Errorf("failed to parse infobox fields: %w", err)
	}
	return &page, nil
}

// CountEntityPages returns the number of stored pages per entity type.
func (edb *EnrichDB) CountEntityPages(ctx context.Context) (map[model.EntityType]int, error) {
	rows, err := edb.db.QueryContext(ctx, `SELECT entity_type, COUNT(*) FROM entity_pages GROUP BY entity_type`)
	if err != nil {
		return nil, fmt.Errorf("failed to count entity pages: %w", err)
	}
	defer rows.Close()

	counts := make(map[model.EntityType]int)
	for rows.Next() {
		var t string
		var n int
		if err := rows.Scan(&t, &n); err != nil {
			return nil, fmt.Errorf("failed to scan count: %w", err)
		}
		counts[model.EntityType(t)] = n
	}
	return counts, rows.Err()
}

const upsertEventQuery = `
	INSERT INTO enriched_events (run_id, url, event_json)
	VALUES (?, ?, ?)
	ON CONFLICT(run_id, url) DO UPDATE SET
		event_json = excluded.event_json
	`

// SaveEnrichedEvents stores the enriched events of a run in one transaction.
// An event already stored for the run under the same URL is replaced.
func (edb *EnrichDB) SaveEnrichedEvents(ctx context.Context, runID string, events []model.EnrichedEvent) error {
	tx, err := edb.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	for _, ev := range events {
		eventJSON, err := json.Marshal(ev)
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to serialize event %q: %w", ev.URL, err)
		}
		if _, err := tx.ExecContext(ctx, upsertEventQuery, runID, ev.URL, string(eventJSON)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to save event %q: %w", ev.URL, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit enriched events: %w", err)
	}
	return nil
}

// CountEnrichedEvents returns the number of events stored for a run.
func (edb *EnrichDB) CountEnrichedEvents(ctx context.Context, runID string) (int, error) {
	var n int
	err := edb.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM enriched_events WHERE run_id = ?`, runID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count enriched events: %w", err)
	}
	return n, nil
}

// RunRecord is the stored summary of a run.
type RunRecord struct {
	// ID is the run identifier.
	ID string

	// StartedAt and FinishedAt bound the run; FinishedAt is zero while running.
	StartedAt  time.Time
	FinishedAt time.Time

	// HTMLDir and DumpPath are the run inputs.
	HTMLDir  string
	DumpPath string

	// Stats are the run statistics.
	Stats model.Stats

	// Steps lists the steps the run performed.
	Steps []string

	// Error is the failure message, empty on success.
	Error string

	// Cancelled is true when the run was interrupted.
	Cancelled bool
}

// SaveRun inserts or updates the summary of run.
func (edb *EnrichDB) SaveRun(ctx context.Context, run *model.Run) error {
	statsJSON, err := json.Marshal(run.Stats)
	if err != nil {
		return fmt.Errorf("failed to serialize stats: %w", err)
	}
	stepsJSON, err := json.Marshal(run.PerformedSteps)
	if err != nil {
		return fmt.Errorf("failed to serialize steps: %w", err)
	}

	var finished any
	if !run.FinishedAt.IsZero() {
		finished = run.FinishedAt.UTC().Format(timeLayout)
	}

	query := `
	INSERT INTO runs (id, started_at, finished_at, html_dir, dump_path, stats_json, steps_json, error, cancelled)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		finished_at = excluded.finished_at,
		stats_json = excluded.stats_json,
		steps_json = excluded.steps_json,
		error = excluded.error,
		cancelled = excluded.cancelled
	`

	_, err = edb.db.ExecContext(ctx, query,
		run.ID,
		run.StartedAt.UTC().Format(timeLayout),
		finished,
		run.HTMLDir,
		run.DumpPath,
		string(statsJSON),
		string(stepsJSON),
		run.ErrorMessage,
		run.Cancelled,
	)
	if err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}
	return nil
}

const selectRunColumns = `
	SELECT id, started_at, finished_at, html_dir, dump_path, stats_json, steps_json, error, cancelled
	FROM runs
	`

// GetRun retrieves a run by ID. It returns ErrNotFound when there is none.
func (edb *EnrichDB) GetRun(ctx context.Context, id string) (*RunRecord, error) {
	rec, err := scanRun(edb.db.QueryRowContext(ctx, selectRunColumns+" WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %q: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return rec, nil
}

// ListRuns returns stored runs, most recent first. A limit of zero or less
// returns every run.
func (edb *EnrichDB) ListRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	query := selectRunColumns + " ORDER BY started_at DESC, id DESC"
	args := make([]any, 0, 1)
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := edb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []RunRecord
	for rows.Next() {
		rec, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, *rec)
	}
	return runs, rows.Err()
}

func scanRun(row rowScanner) (*RunRecord, error) {
	var (
		rec       RunRecord
		started   string
		finished  sql.NullString
		htmlDir   sql.NullString
		dumpPath  sql.NullString
		statsJSON string
		stepsJSON string
		errMsg    sql.NullString
	)
	if err := row.Scan(&rec.ID, &started, &finished, &htmlDir, &dumpPath, &statsJSON, &stepsJSON, &errMsg, &rec.Cancelled); err != nil {
		return nil, err
	}

	rec.StartedAt = parseTimestamp(started)
	if finished.Valid {
		rec.FinishedAt = parseTimestamp(finished.String)
	}
	rec.HTMLDir = htmlDir.String
	rec.DumpPath = dumpPath.String
	rec.Error = errMsg.String

	if err := json.Unmarshal([]byte(statsJSON), &rec.Stats); err != nil {
		return nil, fmt.Errorf("failed to parse stats: %w", err)
	}
	if err := json.Unmarshal([]byte(stepsJSON), &rec.Steps); err != nil {
		return nil, fmt.Errorf("failed to parse steps: %w", err)
	}
	return &rec, nil
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	timeLayout,                // Written by SaveRun
	time.RFC3339Nano,          // RFC3339 with nanoseconds
	"2006-01-02 15:04:05",     // SQLite default datetime format
	"2006-01-02T15:04:05Z",    // ISO 8601 with Z suffix
	"2006-01-02T15:04:05",     // ISO 8601 without timezone
	"2006-01-02 15:04:05.999", // SQLite with milliseconds
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
