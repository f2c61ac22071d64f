package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/nao1215/wikienrich/internal/config"
	"github.com/nao1215/wikienrich/internal/database"
	wlog "github.com/nao1215/wikienrich/internal/log"
	"github.com/nao1215/wikienrich/internal/model"
	"github.com/nao1215/wikienrich/internal/pipeline"
	"github.com/nao1215/wikienrich/internal/report"
	"github.com/spf13/cobra"
)

// NewEnrichCmd creates the enrich command.
func NewEnrichCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "enrich",
		Short: "Enrich crawled setlist events with encyclopedia data",
		Long: `Enrich runs the full pipeline over one crawl and one dump:

1. Load every setlist page of the HTML directory
2. Collect the distinct artists, venues, cities and countries mentioned
3. Stream the dump once, keeping the pages of mentioned entities
4. Join the cleaned sections and infobox fields onto the events

The run summary and the extracted pages are stored in the run database
unless --no-db is given.

Examples:
  # Enrich a crawl and print a summary
  wikienrich enrich --html-dir crawl/ --dump enwiki-latest-pages-articles.xml.bz2

  # Write the enriched events as JSON lines
  wikienrich enrich --html-dir crawl/ --dump enwiki.xml.bz2 --json -o out/events.jsonl

  # Use a dataset from the configuration file
  wikienrich enrich --dataset festivals --markdown

Configuration file (.wikienrich) example:
  defaults:
    workers: 16
  datasets:
    festivals:
      htmlDir: /data/crawl/festivals
      dump: /data/enwiki.xml.bz2`,
		Args: cobra.NoArgs,
		RunE: runEnrichCmd,
	}

	// Input flags
	cmd.Flags().String("html-dir", "",
		"Directory of crawled setlist HTML pages")
	cmd.Flags().String("dump", "",
		"Encyclopedia XML dump (plain or .bz2)")
	cmd.Flags().StringP("dataset", "d", "",
		"Named dataset from the configuration file")

	// Concurrency flags
	cmd.Flags().IntP("workers", "w", config.DefaultWorkers,
		"Number of dump pages resolved concurrently")
	cmd.Flags().Int("load-concurrency", config.DefaultLoadConcurrency,
		"Number of setlist pages parsed concurrently")
	cmd.Flags().Int("progress-every", config.DefaultProgressEvery,
		"Log progress every N dump pages (0 disables)")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .wikienrich in current or home directory)")

	// Report flags
	cmd.Flags().BoolP("json", "j", false,
		"Output enriched events as JSON lines (mutually exclusive with --markdown)")
	cmd.Flags().Bool("with-run", false,
		"With --json, output one document holding the run summary and the events")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output a Markdown run report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")

	// Storage flags
	cmd.Flags().String("db-dir", "",
		"Directory of the run database (default: XDG data directory)")
	cmd.Flags().Bool("no-db", false,
		"Do not store the run in the database")

	return cmd
}

// runEnrichCmd executes the enrich command.
func runEnrichCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := wlog.NewLogger(cmd.ErrOrStderr(), cfg.Verbose)
	slog.SetDefault(logger)

	withRun, err := cmd.Flags().GetBool("with-run")
	if err != nil {
		return err
	}

	ctx, stop := signalContext(cmd)
	defer stop()

	return runEnrich(ctx, cfg, withRun, cmd.OutOrStdout(), logger)
}

// signalContext returns the command context, cancelled on SIGINT or SIGTERM.
func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildConfig creates a Config from the configuration file and the flags
// of cmd. Settings from the file are applied first and flags given on the
// command line replace them.
func buildConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewConfig()
	cfg.Verbose = getVerboseFlag(cmd)

	var err error
	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	cfg.Dataset, err = cmd.Flags().GetString("dataset")
	if err != nil {
		return nil, err
	}

	file, err := loadConfigFile(cfg.ConfigFilePath)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyFile(file); err != nil {
		return nil, fmt.Errorf("dataset %q: %w", cfg.Dataset, err)
	}

	if err := applyFlags(cmd, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadConfigFile finds and parses the configuration file.
// If the user explicitly specified a path, a missing file is an error.
// Otherwise an empty configuration is used when no file is found.
func loadConfigFile(explicitPath string) (*config.File, error) {
	path := config.FindConfigFile(explicitPath)
	if path == "" {
		if explicitPath != "" {
			return nil, fmt.Errorf("configuration file not found: %s", explicitPath)
		}
		return &config.File{Datasets: make(map[string]config.Dataset)}, nil
	}

	file, err := config.LoadConfigFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
	}
	return file, nil
}

// applyFlags copies the flags the user set onto cfg. Flags left at their
// default keep the value taken from the configuration file. Flags a command
// does not define are skipped.
func applyFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	changed := func(name string) bool {
		f := flags.Lookup(name)
		return f != nil && f.Changed
	}

	var err error
	if changed("html-dir") {
		if cfg.HTMLDir, err = flags.GetString("html-dir"); err != nil {
			return err
		}
	}
	if changed("dump") {
		if cfg.DumpPath, err = flags.GetString("dump"); err != nil {
			return err
		}
	}
	if changed("workers") {
		if cfg.Workers, err = flags.GetInt("workers"); err != nil {
			return err
		}
	}
	if changed("load-concurrency") {
		if cfg.LoadConcurrency, err = flags.GetInt("load-concurrency"); err != nil {
			return err
		}
	}
	if changed("progress-every") {
		if cfg.ProgressEvery, err = flags.GetInt("progress-every"); err != nil {
			return err
		}
	}
	if changed("db-dir") {
		if cfg.DBDir, err = flags.GetString("db-dir"); err != nil {
			return err
		}
	}
	if changed("no-db") {
		noDB, err := flags.GetBool("no-db")
		if err != nil {
			return err
		}
		cfg.SaveToDB = !noDB
	}
	if changed("json") {
		if cfg.JSONReport, err = flags.GetBool("json"); err != nil {
			return err
		}
	}
	if changed("markdown") {
		if cfg.MarkdownReport, err = flags.GetBool("markdown"); err != nil {
			return err
		}
	}
	if changed("output") {
		if cfg.ReportFile, err = flags.GetString("output"); err != nil {
			return err
		}
	}
	return nil
}

// runEnrich executes one enrichment run and writes its report.
// The report is written even when the run failed or was cancelled, so that
// partial counts are not lost.
func runEnrich(ctx context.Context, cfg *config.Config, withRun bool, stdout io.Writer, logger *slog.Logger) error {
	logger.Info("starting enrichment",
		"html_dir", cfg.HTMLDir,
		"dump", cfg.DumpPath,
		"workers", cfg.Workers,
		"save_to_db", cfg.SaveToDB,
	)

	var db *database.EnrichDB
	if cfg.SaveToDB {
		var err error
		db, err = database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()
		logger.Info("database opened", "path", db.Path())
	}

	configOpts := []pipeline.DefaultPipelineOption{
		pipeline.WithPipelineWorkers(cfg.Workers),
		pipeline.WithPipelineLoadConcurrency(cfg.LoadConcurrency),
		pipeline.WithPipelineProgressEvery(cfg.ProgressEvery),
		pipeline.WithPipelineLogger(logger),
	}
	if db != nil {
		configOpts = append(configOpts, pipeline.WithPipelineStore(db))
	}
	p := pipeline.DefaultPipeline([]pipeline.Option{pipeline.WithLogger(logger)}, configOpts...)

	run := model.NewRun()
	run.HTMLDir = cfg.HTMLDir
	run.DumpPath = cfg.DumpPath

	runErr := p.Execute(ctx, run)
	run.FinishedAt = time.Now()

	// The persist step saved the run before it finished; store the final
	// state, also for runs that stopped before reaching that step.
	if db != nil {
		if err := db.SaveRun(context.WithoutCancel(ctx), run); err != nil {
			logger.Error("failed to save run", "run", run.ID, "error", err)
		}
	}

	if err := outputReport(cfg, run, withRun, stdout); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	if runErr != nil {
		return fmt.Errorf("enrichment run %s failed: %w", run.ID, runErr)
	}
	return nil
}

// openOutput returns the report destination: the report file when one is
// configured, otherwise stdout. The returned function closes the file.
func openOutput(path string, stdout io.Writer) (io.Writer, func() error, error) {
	if path == "" {
		return stdout, func() error { return nil }, nil
	}

	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600) //nolint:gosec // User-provided output path is intentional
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, f.Close, nil
}

// newRunWriter returns the report writer for the configured format.
func newRunWriter(cfg *config.Config, withRun bool, output io.Writer) report.Writer {
	switch {
	case cfg.JSONReport && withRun:
		return report.NewFullJSONWriter(output, getVersion(), report.WithPrettyPrint())
	case cfg.JSONReport:
		return report.NewJSONWriter(output)
	case cfg.MarkdownReport:
		return report.NewMarkdownWriter(output)
	default:
		return report.NewSimpleWriter(output, report.WithVerbose(cfg.Verbose))
	}
}

// outputReport writes the run report in the requested format.
func outputReport(cfg *config.Config, run *model.Run, withRun bool, stdout io.Writer) error {
	output, closeOutput, err := openOutput(cfg.ReportFile, stdout)
	if err != nil {
		return err
	}

	_, werr := newRunWriter(cfg, withRun, output).Write(run)
	cerr := closeOutput()
	if werr != nil {
		return werr
	}
	return cerr
}
