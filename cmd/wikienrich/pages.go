package main

import (
	"errors"
	"fmt"

	"github.com/nao1215/wikienrich/internal/database"
	"github.com/nao1215/wikienrich/internal/entity"
	"github.com/nao1215/wikienrich/internal/model"
	"github.com/nao1215/wikienrich/internal/report"
	"github.com/spf13/cobra"
)

// NewPagesCmd creates the pages command.
// This command reads the entity pages stored by earlier runs.
func NewPagesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pages [type] [title]",
		Short: "Show entity pages stored by earlier runs",
		Long: `Pages reads the entity pages kept in the run database.

Without arguments it prints the number of stored pages per type. With a type
it lists the stored pages of that type, and with a type and a title it prints
the one page the title resolves to.

Examples:
  # Count stored pages
  wikienrich pages

  # List stored venues with their infobox fields
  wikienrich -v pages venue

  # Show one artist as JSON
  wikienrich pages artist "Sticky Fingers (band)" --json`,
		Args: cobra.MaximumNArgs(2),
		RunE: runPagesCmd,
	}

	cmd.Flags().String("db-dir", "",
		"Directory of the run database (default: XDG data directory)")
	cmd.Flags().BoolP("json", "j", false,
		"Output pages as JSON lines")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output pages as a Markdown table")

	cmd.MarkFlagsMutuallyExclusive("json", "markdown")

	return cmd
}

// runPagesCmd executes the pages command.
func runPagesCmd(cmd *cobra.Command, args []string) error {
	var t model.EntityType
	if len(args) > 0 {
		var err error
		if t, err = model.ParseEntityType(args[0]); err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	db, err := openExistingDB(cmd)
	if errors.Is(err, database.ErrDatabaseNotFound) {
		fmt.Fprintln(out, "No pages stored yet.")
		return nil
	}
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := cmd.Context()
	if len(args) == 0 {
		counts, err := db.CountEntityPages(ctx)
		if err != nil {
			return err
		}
		for _, t := range []model.EntityType{model.EntityArtist, model.EntityVenue, model.EntityCity, model.EntityCountry} {
			fmt.Fprintf(out, "%-8s %d\n", t, counts[t])
		}
		return nil
	}

	var pages []*model.EnrichedEntityPage
	if len(args) == 2 {
		page, err := db.GetEntityPage(ctx, t, entity.CanonicalKey(args[1]))
		if err != nil {
			return err
		}
		pages = []*model.EnrichedEntityPage{page}
	} else {
		pages, err = db.ListEntityPages(ctx, t)
		if err != nil {
			return err
		}
	}

	jsonOutput, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}
	markdownOutput, err := cmd.Flags().GetBool("markdown")
	if err != nil {
		return err
	}

	var w report.Writer
	switch {
	case jsonOutput:
		w = report.NewJSONWriter(out)
	case markdownOutput:
		w = report.NewMarkdownWriter(out)
	default:
		w = report.NewSimpleWriter(out, report.WithVerbose(getVerboseFlag(cmd)))
	}
	_, err = w.WritePages(pages)
	return err
}
