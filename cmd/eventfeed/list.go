package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"eventfeed/internal/loader"
	"eventfeed/internal/model"
)

func newListCmd(root *rootOptions) *cobra.Command {
	var (
		state  string
		at     string
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List events with their computed state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			switch model.State(state) {
			case "", model.StateUpcoming, model.StateOngoing, model.StatePast:
			default:
				return fmt.Errorf("invalid --state %q: want upcoming, ongoing or past", state)
			}

			cfg, err := root.loadConfig()
			if err != nil {
				return err
			}
			now, err := parseAt(at)
			if err != nil {
				return err
			}

			store := loader.NewStore(cfg.EventsDir)
			events, err := store.Events(now)
			if err != nil {
				return err
			}

			filtered := make([]model.ClassifiedEvent, 0, len(events))
			for _, ev := range events {
				if state == "" || ev.ComputedState == model.State(state) {
					filtered = append(filtered, ev)
				}
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(filtered)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tSTATE\tSTART\tTITLE")
			for _, ev := range filtered {
				start := ev.Date.Start
				if ev.Date.StartTime != "" {
					start += " " + ev.Date.StartTime
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", ev.ID, ev.ComputedState, start, ev.Title)
			}
			if err := tw.Flush(); err != nil {
				return err
			}

			if n := len(store.Report().Rejected); n > 0 {
				fmt.Fprintf(cmd.ErrOrStderr(), "%d file(s) rejected; see log for details\n", n)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&state, "state", "", "Only show events in this state (upcoming, ongoing, past)")
	cmd.Flags().StringVar(&at, "at", "", "Classify events at this RFC 3339 instant instead of now")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of a table")
	return cmd
}
