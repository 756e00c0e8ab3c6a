package web

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/iimraane/pronote-ics-sync/internal/config"
	"github.com/iimraane/pronote-ics-sync/internal/feed"
	appLog "github.com/iimraane/pronote-ics-sync/internal/log"
	"github.com/iimraane/pronote-ics-sync/internal/timetable"
)

// Server exposes the timetable as an iCalendar feed. It resolves the window
// for a request, asks the cache for lessons and hands them to the builder;
// all timetable and conversion logic lives below it.
type Server struct {
	cfg     *config.Config
	cache   *timetable.Cache
	builder *feed.Builder
	loc     *time.Location
	mux     *http.ServeMux

	// now is swappable for tests.
	now func() time.Time
}

// NewServer constructs a new Server.
func NewServer(cfg *config.Config, cache *timetable.Cache, builder *feed.Builder, loc *time.Location) *Server {
	s := &Server{
		cfg:     cfg,
		cache:   cache,
		builder: builder,
		loc:     loc,
		mux:     http.NewServeMux(),
		now:     time.Now,
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

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/calendar.ics", s.handleCalendar)
	s.mux.HandleFunc("/calendar", s.handleCalendar)
	s.mux.HandleFunc("/", s.handleUsage)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// handleUsage catches every unknown path with a hint toward the feed URL.
func (s *Server) handleUsage(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusNotFound)
	_, _ = w.Write([]byte("Use /calendar.ics (optional: ?weeks=1..26)\n"))
}

// handleCalendar serves the iCalendar feed.
//
// GET /calendar.ics?weeks=8
//   - weeks: forward window size in weeks, 1..26. A missing, non-numeric or
//     out-of-range value falls back to the configured default instead of
//     failing the request.
//
// The served window always includes the past 7 days so that late-announced
// cancellations of already-passed lessons still reach the client.
func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	weeks := s.resolveWeeks(r.URL.Query().Get("weeks"))

	now := s.now().In(s.loc)
	window := timetable.ForwardWindow(timetable.DateOf(now), weeks)

	appLog.Info("calendar request", "weeks", weeks, "window", window)

	lessons, err := s.cache.Lessons(r.Context(), window, now)
	if err != nil {
		appLog.Error("timetable fetch failed", err, "window", window)
		writeError(w, http.StatusBadGateway, "failed to fetch timetable: "+err.Error())
		return
	}

	body := s.builder.Build(lessons)

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

// resolveWeeks parses the weeks query parameter, substituting the
// configured default for anything unusable.
func (s *Server) resolveWeeks(raw string) int {
	if raw == "" {
		return s.cfg.DefaultWeeks
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < config.MinWeeks || n > config.MaxWeeks {
		return s.cfg.DefaultWeeks
	}
	return n
}

// basicAuthEnabled reports whether HTTP Basic Auth is configured.
func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	// An empty username or password counts as disabled.
	if s.cfg.BasicAuth.Username == "" || s.cfg.BasicAuth.Password == "" {
		return false
	}
	return true
}

// basicAuthMiddleware wraps all handlers except /health with HTTP Basic Auth.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// /health stays reachable for liveness probes.
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="Pronote ICS", charset="UTF-8"`)
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

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(errResp{Error: msg}); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}
