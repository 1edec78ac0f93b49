package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"eventfeed/internal/ics"
	"eventfeed/internal/importer"
)

func newImportCmd(root *rootOptions) *cobra.Command {
	var (
		force       bool
		organizer   string
		country     string
		tags        []string
		horizonDays int
	)

	cmd := &cobra.Command{
		Use:   "import <url> [url...]",
		Short: "Import events from external ICS feeds as event records",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.loadConfig()
			if err != nil {
				return err
			}

			sources := make([]ics.Source, 0, len(args))
			for _, raw := range args {
				src, err := importer.SourceFor(raw)
				if err != nil {
					return err
				}
				sources = append(sources, src)
			}

			opts := importer.Options{
				EventsDir: cfg.EventsDir,
				Horizon:   time.Duration(cfg.Import.HorizonDays) * 24 * time.Hour,
				Overwrite: force,
				Record: ics.ImportOptions{
					Organizer: cfg.Import.Organizer,
					Country:   cfg.Import.Country,
					Tags:      cfg.Import.Tags,
				},
			}
			if cmd.Flags().Changed("organizer") {
				opts.Record.Organizer = organizer
			}
			if cmd.Flags().Changed("country") {
				opts.Record.Country = country
			}
			if cmd.Flags().Changed("tag") {
				opts.Record.Tags = tags
			}
			if cmd.Flags().Changed("horizon-days") {
				opts.Horizon = time.Duration(horizonDays) * 24 * time.Hour
			}

			fetcher := ics.NewFetcher(cfg.Import.CacheDir, cfg.Import.RetryMax)
			sum, err := importer.Run(cmd.Context(), fetcher, sources, opts)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%d occurrence(s): %d written, %d skipped, %d failed\n",
				sum.Occurrences, sum.Written, sum.Skipped, sum.Failed)
			if sum.Failed > 0 {
				return fmt.Errorf("%d record(s) failed validation", sum.Failed)
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.BoolVar(&force, "force", false, "Overwrite records that already exist")
	f.StringVar(&organizer, "organizer", "", "Organizer name for imported events (overrides config)")
	f.StringVar(&country, "country", "", "Two-letter country for events with a LOCATION (overrides config)")
	f.StringSliceVar(&tags, "tag", nil, "Tag to add to imported events; repeatable (overrides config)")
	f.IntVar(&horizonDays, "horizon-days", 0, "Days ahead to expand recurring events (overrides config)")
	return cmd
}
