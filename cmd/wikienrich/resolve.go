package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/nao1215/wikienrich/internal/config"
	"github.com/nao1215/wikienrich/internal/entity"
	wlog "github.com/nao1215/wikienrich/internal/log"
	"github.com/nao1215/wikienrich/internal/model"
	"github.com/nao1215/wikienrich/internal/pipeline"
	"github.com/nao1215/wikienrich/internal/report"
	"github.com/nao1215/wikienrich/internal/resolver"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// errNoEntities is returned when a mentions file names no entity of a
// resolvable type.
var errNoEntities = errors.New("mentions file names no entity")

// NewResolveCmd creates the resolve command.
func NewResolveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Extract the dump pages of a list of entities",
		Long: `Resolve streams a dump and prints the pages describing the given entities,
without loading any setlist pages.

The mentions file maps entity types to names. Names are normalized the same
way setlist fields are, so "USA" finds the page "United States".

  artist:
    - Sticky Fingers
  venue:
    - Metro
  city:
    - Chicago
  country:
    - USA

By default every accepted page is printed as one JSON object per line as soon
as it is resolved, in dump order.

Examples:
  # Print matching pages as JSON lines
  wikienrich resolve --dump enwiki.xml.bz2 --mentions mentions.yaml

  # Print a Markdown table of the matching pages
  wikienrich resolve --dump enwiki.xml.bz2 --mentions mentions.yaml --markdown`,
		Args: cobra.NoArgs,
		RunE: runResolveCmd,
	}

	cmd.Flags().String("dump", "",
		"Encyclopedia XML dump (plain or .bz2)")
	cmd.Flags().String("mentions", "",
		"YAML file mapping entity types to names (required)")
	cmd.Flags().StringP("dataset", "d", "",
		"Named dataset from the configuration file supplying the dump")
	cmd.Flags().IntP("workers", "w", config.DefaultWorkers,
		"Number of dump pages resolved concurrently")
	cmd.Flags().Int("progress-every", config.DefaultProgressEvery,
		"Log progress every N dump pages (0 disables)")
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .wikienrich in current or home directory)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output a Markdown table instead of JSON lines")
	cmd.Flags().BoolP("text", "t", false,
		"Output one line per page instead of JSON lines")
	cmd.Flags().StringP("output", "o", "",
		"Write output to specified file path (creates directories if needed)")

	if err := cmd.MarkFlagRequired("mentions"); err != nil {
		panic(err)
	}

	return cmd
}

// runResolveCmd executes the resolve command.
func runResolveCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.ValidateResolve(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	mentionsPath, err := cmd.Flags().GetString("mentions")
	if err != nil {
		return err
	}
	mentions, err := loadMentions(mentionsPath)
	if err != nil {
		return err
	}

	text, err := cmd.Flags().GetBool("text")
	if err != nil {
		return err
	}
	if text && cfg.MarkdownReport {
		return fmt.Errorf("configuration error: %w", config.ErrConflictingReportFormats)
	}

	logger := wlog.NewLogger(cmd.ErrOrStderr(), cfg.Verbose)
	slog.SetDefault(logger)

	ctx, stop := signalContext(cmd)
	defer stop()

	output, closeOutput, err := openOutput(cfg.ReportFile, cmd.OutOrStdout())
	if err != nil {
		return err
	}

	var pageWriter report.Writer
	switch {
	case cfg.MarkdownReport:
		pageWriter = report.NewMarkdownWriter(output)
	case text:
		pageWriter = report.NewSimpleWriter(output, report.WithVerbose(cfg.Verbose))
	}

	stats, rerr := resolveDump(ctx, cfg, mentions, output, pageWriter, logger)
	cerr := closeOutput()
	if rerr != nil {
		return rerr
	}
	if cerr != nil {
		return cerr
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "Resolved %d page(s) from %d scanned (%d duplicate(s) dropped)\n",
		totalMatched(stats), stats.Scanned, stats.Duplicates)
	return nil
}

// resolveDump streams the dump through a batch processor. Without a page
// writer every accepted page is written as a JSON line as soon as it is
// released; otherwise the pages are collected and written at the end.
func resolveDump(ctx context.Context, cfg *config.Config, mentions *model.MentionSet, output io.Writer, pageWriter report.Writer, logger *slog.Logger) (pipeline.BatchStats, error) {
	src, err := pipeline.OpenDump(cfg.DumpPath)
	if err != nil {
		return pipeline.BatchStats{}, fmt.Errorf("failed to open dump: %w", err)
	}
	defer func() {
		if cerr := src.Close(); cerr != nil {
			logger.Warn("failed to close dump", "dump", cfg.DumpPath, "error", cerr)
		}
	}()

	bp := pipeline.NewBatchProcessor(
		resolver.New(resolver.WithLogger(logger)),
		pipeline.WithConcurrency(cfg.Workers),
		pipeline.WithProgressEvery(cfg.ProgressEvery),
		pipeline.WithBatchLogger(logger),
	)

	if pageWriter != nil {
		pages, stats, err := bp.Collect(ctx, src, mentions)
		if err != nil {
			return stats, fmt.Errorf("failed to resolve dump %s: %w", cfg.DumpPath, err)
		}
		if _, err := pageWriter.WritePages(pages); err != nil {
			return stats, fmt.Errorf("failed to write pages: %w", err)
		}
		return stats, nil
	}

	jw := report.NewJSONWriter(output)
	stats, err := bp.ProcessStream(ctx, src, mentions, func(page *model.EnrichedEntityPage) error {
		_, err := jw.WritePage(page)
		return err
	})
	if err != nil {
		return stats, fmt.Errorf("failed to resolve dump %s: %w", cfg.DumpPath, err)
	}
	return stats, nil
}

// loadMentions reads a YAML file mapping entity type names to entity names
// and builds a normalized mention snapshot from it.
func loadMentions(path string) (*model.MentionSet, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided mentions path is intentional
	if err != nil {
		return nil, fmt.Errorf("failed to read mentions file: %w", err)
	}

	var raw map[string][]string
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse mentions file %s: %w", path, err)
	}

	mentions := make(map[model.EntityType][]string, len(raw))
	for name, values := range raw {
		t, err := model.ParseEntityType(name)
		if err != nil {
			return nil, fmt.Errorf("mentions file %s: %w", path, err)
		}
		for _, v := range values {
			mentions[t] = append(mentions[t], entity.NormalizeMention(v, t, ""))
		}
	}

	ms := model.NewMentionSet(mentions)
	if ms.Empty() {
		return nil, fmt.Errorf("%w: %s", errNoEntities, path)
	}
	return ms, nil
}

// totalMatched sums the accepted pages of all types.
func totalMatched(stats pipeline.BatchStats) int {
	total := 0
	for _, n := range stats.Matched {
		total += n
	}
	return total
}
