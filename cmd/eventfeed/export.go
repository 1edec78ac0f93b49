package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"eventfeed/internal/ics"
	"eventfeed/internal/loader"
)

func newExportCmd(root *rootOptions) *cobra.Command {
	var (
		output string
		at     string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Render the calendar feed once to a file or stdout",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := root.loadConfig()
			if err != nil {
				return err
			}
			now, err := parseAt(at)
			if err != nil {
				return err
			}

			events, err := loader.NewStore(cfg.EventsDir).Events(now)
			if err != nil {
				return err
			}
			body := ics.RenderFeed(events, cfg.ICSFeed(), now)

			if output == "" || output == "-" {
				_, err := io.WriteString(cmd.OutOrStdout(), body)
				return err
			}
			if err := os.MkdirAll(filepath.Dir(output), 0o755); err != nil {
				return err
			}
			return loader.WriteFileAtomic(output, []byte(body), 0o644)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the feed to this file instead of stdout")
	cmd.Flags().StringVar(&at, "at", "", "Classify events at this RFC 3339 instant instead of now")
	return cmd
}

// parseAt returns the current time when s is empty.
func parseAt(s string) (time.Time, error) {
	if s == "" {
		return time.Now().UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --at value %q: %w", s, err)
	}
	return t.UTC(), nil
}
