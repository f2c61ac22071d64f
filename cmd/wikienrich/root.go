package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for wikienrich.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wikienrich",
		Short: "Enrich setlist events with encyclopedia data",
		Long: `wikienrich joins crawled concert setlists with an encyclopedia XML dump.

It reads the setlist pages, collects the artists, venues, cities and countries
they mention, streams the dump once and keeps only the pages describing one of
those entities. The pages are cleaned into plain text sections and infobox
fields and joined back onto the events.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Add subcommands
	cmd.AddCommand(NewEnrichCmd())
	cmd.AddCommand(NewResolveCmd())
	cmd.AddCommand(NewCleanCmd())
	cmd.AddCommand(NewRunsCmd())
	cmd.AddCommand(NewPagesCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
