package main

import (
	"github.com/spf13/cobra"

	"eventfeed/internal/config"
	appLog "eventfeed/internal/log"
)

// rootOptions holds the persistent flags shared by every subcommand.
type rootOptions struct {
	configPath string
	listen     string
	eventsDir  string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "eventfeed",
		Short: "Serve, list and export a directory of event records as JSON and iCalendar.",
		Long: `eventfeed reads one YAML file per event, classifies each event as
upcoming, ongoing or past at request time, and publishes the result as a
JSON API and an RFC 5545 calendar feed. It can also import events from
external ICS feeds.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&opts.configPath, "config", "./config.yaml", "Path to config file (created with defaults if missing)")
	pf.StringVar(&opts.listen, "listen", "", "HTTP listen address (overrides config)")
	pf.StringVar(&opts.eventsDir, "events-dir", "", "Directory of event YAML files (overrides config)")
	pf.StringVarP(&opts.logLevel, "log-level", "l", "", "Log level: debug, info, warn, error (overrides config)")

	cmd.AddCommand(
		newServeCmd(opts),
		newExportCmd(opts),
		newListCmd(opts),
		newImportCmd(opts),
	)
	return cmd
}

// loadConfig reads the config file, applies flag overrides and sets the log
// level.
func (o *rootOptions) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}

	if o.listen != "" {
		cfg.Listen = o.listen
	}
	if o.eventsDir != "" {
		cfg.EventsDir = o.eventsDir
	}
	if o.logLevel != "" {
		cfg.LogLevel = o.logLevel
	}

	lvl, err := appLog.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	appLog.SetLevel(lvl)

	appLog.Debug("effective config",
		"config_path", o.configPath,
		"listen", cfg.Listen,
		"events_dir", cfg.EventsDir,
		"site_url", cfg.SiteURL,
		"snapshot_path", cfg.Snapshot.Path,
		"snapshot_cron", cfg.Snapshot.Cron,
	)
	return cfg, nil
}
