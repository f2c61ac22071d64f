package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/nao1215/wikienrich/internal/config"
	"github.com/nao1215/wikienrich/internal/database"
	"github.com/nao1215/wikienrich/internal/model"
	"github.com/spf13/cobra"
)

// NewRunsCmd creates the runs command.
// This command lists the enrichment runs stored in the database.
func NewRunsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs [run-id]",
		Short: "List stored enrichment runs",
		Long: `Runs displays the enrichment runs recorded in the database, most recent first.

Given a run ID, it shows the full summary of that run instead.

Examples:
  # List the latest runs
  wikienrich runs

  # List every stored run
  wikienrich runs --limit 0

  # Show one run
  wikienrich runs 01JAB3XQ7V1N8M2K4R6T9W0Y5Z

  # Output the run list as JSON
  wikienrich runs --json`,
		Args: cobra.MaximumNArgs(1),
		RunE: runRunsCmd,
	}

	cmd.Flags().IntP("limit", "n", config.DefaultListLimit,
		"Maximum number of runs to list (0 lists all)")
	cmd.Flags().String("db-dir", "",
		"Directory of the run database (default: XDG data directory)")
	cmd.Flags().BoolP("json", "j", false,
		"Output runs in JSON format")

	return cmd
}

// runRunsCmd executes the runs command.
func runRunsCmd(cmd *cobra.Command, args []string) error {
	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}
	jsonOutput, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	db, err := openExistingDB(cmd)
	if errors.Is(err, database.ErrDatabaseNotFound) {
		fmt.Fprintln(out, "No runs recorded yet.")
		fmt.Fprintln(out, "\nUse 'wikienrich enrich' to run an enrichment.")
		return nil
	}
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := cmd.Context()
	if len(args) == 1 {
		rec, err := db.GetRun(ctx, args[0])
		if err != nil {
			return err
		}
		events, err := db.CountEnrichedEvents(ctx, rec.ID)
		if err != nil {
			return err
		}
		if jsonOutput {
			return writeRunsJSON(out, []database.RunRecord{*rec})
		}
		writeRunDetail(out, rec, events)
		return nil
	}

	runs, err := db.ListRuns(ctx, limit)
	if err != nil {
		return err
	}
	if jsonOutput {
		return writeRunsJSON(out, runs)
	}
	writeRunList(out, runs)
	return nil
}

// openExistingDB opens the run database without creating it.
func openExistingDB(cmd *cobra.Command) (*database.EnrichDB, error) {
	dbDir, err := cmd.Flags().GetString("db-dir")
	if err != nil {
		return nil, err
	}
	if dbDir == "" {
		dbDir = config.XDGDataDir()
	}

	opts := database.DefaultOptions()
	opts.CreateIfNotExists = false
	db, err := database.Open(dbDir, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

// runStatus returns a one-word status for a stored run.
func runStatus(rec database.RunRecord) string {
	switch {
	case rec.Error != "":
		return "failed"
	case rec.Cancelled:
		return "cancelled"
	case rec.FinishedAt.IsZero():
		return "running"
	default:
		return "complete"
	}
}

// writeRunList prints one line per run.
func writeRunList(out io.Writer, runs []database.RunRecord) {
	if len(runs) == 0 {
		fmt.Fprintln(out, "No runs recorded yet.")
		fmt.Fprintln(out, "\nUse 'wikienrich enrich' to run an enrichment.")
		return
	}

	fmt.Fprintf(out, "Stored runs (%d):\n\n", len(runs))
	fmt.Fprintf(out, "  %-26s  %-19s  %-9s  %7s  %7s  %s\n", "ID", "Started", "Status", "Events", "Pages", "Dump")
	fmt.Fprintln(out, "  "+strings.Repeat("-", 90))

	for _, rec := range runs {
		fmt.Fprintf(out, "  %-26s  %-19s  %-9s  %7d  %7d  %s\n",
			rec.ID,
			rec.StartedAt.Local().Format("2006-01-02 15:04:05"),
			runStatus(rec),
			rec.Stats.Events,
			rec.Stats.TotalMatched(),
			rec.DumpPath,
		)
	}

	fmt.Fprintln(out, "\nUse 'wikienrich runs <id>' to see the details of a run.")
}

// writeRunDetail prints the summary of one run.
func writeRunDetail(out io.Writer, rec *database.RunRecord, storedEvents int) {
	fmt.Fprintf(out, "Run:          %s\n", rec.ID)
	fmt.Fprintf(out, "Status:       %s\n", runStatus(*rec))
	fmt.Fprintf(out, "Started:      %s\n", rec.StartedAt.Local().Format("2006-01-02 15:04:05"))
	if !rec.FinishedAt.IsZero() {
		fmt.Fprintf(out, "Duration:     %s\n", rec.FinishedAt.Sub(rec.StartedAt).Round(time.Millisecond))
	}
	fmt.Fprintf(out, "Setlists:     %s\n", rec.HTMLDir)
	fmt.Fprintf(out, "Dump:         %s\n", rec.DumpPath)
	if rec.Error != "" {
		fmt.Fprintf(out, "Error:        %s\n", rec.Error)
	}
	fmt.Fprintf(out, "Steps:        %s\n", strings.Join(rec.Steps, ", "))
	fmt.Fprintf(out, "Events:       %d (%d stored)\n", rec.Stats.Events, storedEvents)
	fmt.Fprintf(out, "Scanned:      %d\n", rec.Stats.PagesScanned)
	fmt.Fprintf(out, "Duplicates:   %d\n", rec.Stats.Duplicates)
	fmt.Fprintf(out, "Stored pages: %d new, %d updated, %d unchanged\n",
		rec.Stats.StoredPages.Inserted, rec.Stats.StoredPages.Updated, rec.Stats.StoredPages.Unchanged)

	fmt.Fprintln(out, "\n  Type       Mentions  Matched  Enriched")
	for _, t := range []model.EntityType{model.EntityArtist, model.EntityVenue, model.EntityCity, model.EntityCountry} {
		fmt.Fprintf(out, "  %-9s  %8d  %7d  %8d\n",
			t,
			rec.Stats.Mentions[t],
			rec.Stats.PagesMatched[t],
			rec.Stats.EnrichedEvents[t],
		)
	}
}

// runJSON is the JSON form of a stored run.
type runJSON struct {
	ID         string      `json:"id"`
	Status     string      `json:"status"`
	StartedAt  time.Time   `json:"started_at"`
	FinishedAt *time.Time  `json:"finished_at,omitempty"`
	HTMLDir    string      `json:"html_dir"`
	DumpPath   string      `json:"dump_path"`
	Steps      []string    `json:"steps"`
	Error      string      `json:"error,omitempty"`
	Stats      model.Stats `json:"stats"`
}

// writeRunsJSON prints runs as an indented JSON array.
func writeRunsJSON(out io.Writer, runs []database.RunRecord) error {
	result := make([]runJSON, len(runs))
	for i, rec := range runs {
		result[i] = runJSON{
			ID:        rec.ID,
			Status:    runStatus(rec),
			StartedAt: rec.StartedAt,
			HTMLDir:   rec.HTMLDir,
			DumpPath:  rec.DumpPath,
			Steps:     rec.Steps,
			Error:     rec.Error,
			Stats:     rec.Stats,
		}
		if !rec.FinishedAt.IsZero() {
			finished := rec.FinishedAt
			result[i].FinishedAt = &finished
		}
	}

	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}
