package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"eventfeed/internal/loader"
	appLog "eventfeed/internal/log"
	"eventfeed/internal/snapshot"
	"eventfeed/internal/web"
)

func newServeCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the events API and calendar feed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := root.loadConfig()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			store := loader.NewStore(cfg.EventsDir)
			report := store.Report()
			appLog.Info("events loaded",
				"dir", cfg.EventsDir,
				"loaded", report.Loaded,
				"rejected", len(report.Rejected),
			)

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				return web.NewServer(cfg, store).Run(gctx)
			})

			if cfg.Snapshot.Path != "" {
				w := &snapshot.Writer{
					Source: store,
					Feed:   cfg.ICSFeed(),
					Path:   cfg.Snapshot.Path,
				}
				g.Go(func() error {
					return snapshot.Run(gctx, w, cfg.Snapshot.Cron)
				})
			} else {
				appLog.Info("ics snapshot disabled; snapshot.path is empty")
			}

			if err := g.Wait(); err != nil {
				return err
			}
			appLog.Info("eventfeed exiting")
			return nil
		},
	}
}
