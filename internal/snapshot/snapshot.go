package snapshot

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/robfig/cron/v3"

	"eventfeed/internal/ics"
	"eventfeed/internal/loader"
	appLog "eventfeed/internal/log"
	"eventfeed/internal/model"
)

// EventSource yields events classified against now.
type EventSource interface {
	Events(now time.Time) ([]model.ClassifiedEvent, error)
}

// Writer renders the ICS feed into a static file.
type Writer struct {
	Source EventSource
	Feed   ics.Feed
	Path   string
	// Now defaults to time.Now.
	Now func() time.Time
}

// WriteOnce renders the feed at the current instant and replaces Path
// atomically.
func (w *Writer) WriteOnce() error {
	if w.Path == "" {
		return errors.New("snapshot: path is empty")
	}
	now := time.Now
	if w.Now != nil {
		now = w.Now
	}

	at := now()
	events, err := w.Source.Events(at)
	if err != nil {
		return fmt.Errorf("snapshot: load events: %w", err)
	}

	body := ics.RenderFeed(events, w.Feed, at)
	if err := os.MkdirAll(filepath.Dir(w.Path), 0o755); err != nil {
		return err
	}
	if err := loader.WriteFileAtomic(w.Path, []byte(body), 0o644); err != nil {
		return fmt.Errorf("snapshot: write %s: %w", w.Path, err)
	}

	appLog.Info("ics snapshot written", "path", w.Path, "bytes", len(body))
	return nil
}

// Run writes a snapshot immediately, then on every tick of the standard
// 5-field cron spec, until ctx is canceled. It returns once in-flight
// writes have finished.
func Run(ctx context.Context, w *Writer, spec string) error {
	if _, err := cron.ParseStandard(spec); err != nil {
		return fmt.Errorf("snapshot: invalid cron %q: %w", spec, err)
	}

	c := cron.New(cron.WithLocation(time.UTC), cron.WithLogger(cronLogger{}))
	if _, err := c.AddFunc(spec, func() {
		if err := w.WriteOnce(); err != nil {
			appLog.Error("scheduled ics snapshot failed", err, "path", w.Path)
		}
	}); err != nil {
		return err
	}

	if err := w.WriteOnce(); err != nil {
		appLog.Error("initial ics snapshot failed", err, "path", w.Path)
	}

	appLog.Info("ics snapshot scheduler started", "cron", spec, "path", w.Path)
	c.Start()

	<-ctx.Done()
	<-c.Stop().Done()
	appLog.Info("ics snapshot scheduler stopped")
	return nil
}

// cronLogger routes cron's own logging into the app logger.
type cronLogger struct{}

func (cronLogger) Info(msg string, kv ...interface{}) {
	appLog.Debug("cron: "+msg, kv...)
}

func (cronLogger) Error(err error, msg string, kv ...interface{}) {
	appLog.Error("cron: "+msg, err, kv...)
}
