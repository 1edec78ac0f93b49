package web

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"eventfeed/internal/config"
	"eventfeed/internal/ics"
	"eventfeed/internal/loader"
	appLog "eventfeed/internal/log"
	"eventfeed/internal/model"
)

// EventStore is the read side the server needs. *loader.Store satisfies it.
type EventStore interface {
	Events(now time.Time) ([]model.ClassifiedEvent, error)
	Find(id string, now time.Time) (model.ClassifiedEvent, error)
}

// Server provides the JSON API and the ICS feed endpoint.
type Server struct {
	cfg   *config.Config
	store EventStore
	feed  ics.Feed
	now   func() time.Time
	mux   *http.ServeMux
}

// Option customizes a Server.
type Option func(*Server)

// WithClock overrides the clock used to classify events per request.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// NewServer constructs a new Server.
func NewServer(cfg *config.Config, store EventStore, opts ...Option) *Server {
	s := &Server{
		cfg:   cfg,
		store: store,
		feed:  cfg.ICSFeed(),
		now:   time.Now,
		mux:   http.NewServeMux(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerRoutes()
	return s
}

// Handler returns the underlying http.Handler for this server.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
		return s.basicAuthMiddleware(h)
	}
	return h
}

// basicAuthEnabled reports whether HTTP Basic Auth is configured.
func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	// Blank username or password means disabled.
	return s.cfg.BasicAuth.Username != "" && s.cfg.BasicAuth.Password != ""
}

// basicAuthMiddleware wraps all handlers except /health with HTTP Basic Auth.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="eventfeed", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// secureCompare compares two strings in constant time.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// Run serves on cfg.Listen until ctx is canceled, then shuts down
// gracefully, allowing in-flight requests up to 5 seconds.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+s.cfg.Listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	appLog.Info("HTTP server stopped")
	return nil
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("GET /api/events", s.handleEvents)
	s.mux.HandleFunc("GET /api/events/{id}", s.handleEvent)
	s.mux.HandleFunc("GET /data/events/events.ics", s.handleFeed)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// handleEvents returns every record with its state computed at request time.
func (s *Server) handleEvents(w http.ResponseWriter, _ *http.Request) {
	events, err := s.store.Events(s.now())
	if err != nil {
		appLog.Error("api events: load failed", err)
		writeError(w, http.StatusInternalServerError, "Failed to load events")
		return
	}
	if events == nil {
		events = []model.ClassifiedEvent{}
	}
	writeJSON(w, http.StatusOK, events)
}

func (s *Server) handleEvent(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	ev, err := s.store.Find(id, s.now())
	switch {
	case errors.Is(err, loader.ErrNotFound):
		writeError(w, http.StatusNotFound, "Event not found")
		return
	case err != nil:
		appLog.Error("api event: load failed", err, "id", id)
		writeError(w, http.StatusInternalServerError, "Failed to load events")
		return
	}
	writeJSON(w, http.StatusOK, ev)
}

// handleFeed serves the calendar feed of upcoming and ongoing events.
func (s *Server) handleFeed(w http.ResponseWriter, _ *http.Request) {
	now := s.now()
	events, err := s.store.Events(now)
	if err != nil {
		appLog.Error("ics feed: load failed", err)
		http.Error(w, "Failed to load events", http.StatusInternalServerError)
		return
	}

	body := ics.RenderFeed(events, s.feed, now)
	w.Header().Set("Content-Type", ics.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+ics.Filename+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(body))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}
