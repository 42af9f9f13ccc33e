package web

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"pickcal/internal/calendar"
	"pickcal/internal/config"
	"pickcal/internal/grid"
	"pickcal/internal/ics"
	"pickcal/internal/locale"
	appLog "pickcal/internal/log"
	"pickcal/internal/picker"
	"pickcal/internal/selection"
)

// DefaultSessionID names the session that always exists.
const DefaultSessionID = "default"

const (
	marksCacheTTL = 30 * time.Second
	maxSessions   = 256
	maxBodyBytes  = 1 << 16
)

// Server exposes picker sessions and annotated month grids over JSON.
type Server struct {
	mux   *http.ServeMux
	debug bool
	now   func() time.Time

	cfgMu   sync.RWMutex
	cfg     *config.Config
	symbols *locale.Symbols

	sessionsMu sync.RWMutex
	sessions   map[string]*picker.Session
	// appliedMode is the config mode last pushed to sessions. Sessions
	// switched through the API keep their mode until the config's changes.
	appliedMode selection.Mode

	// In-memory cache for ICS marks so month requests do not refetch every
	// subscription.
	marksMu    sync.RWMutex
	marksCache *marksCache
	fetcher    *ics.Fetcher
}

type marksCache struct {
	marks     ics.Marks
	allowed   calendar.AllowedRange
	updatedAt time.Time
}

// NewServer constructs a new Server with the default session in place.
func NewServer(cfg *config.Config, debug bool) *Server {
	cacheDir := "/var/lib/pickcal/ics-cache"
	if debug {
		cacheDir = "./cache/ics-cache"
	}
	s := &Server{
		mux:      http.NewServeMux(),
		debug:    debug,
		now:      time.Now,
		cfg:      cfg,
		symbols:  locale.New(locale.Parse(cfg.Locale)),
		sessions: make(map[string]*picker.Session),
		fetcher:  ics.NewFetcher(cacheDir),
	}
	opts := s.sessionOptions()
	s.appliedMode = opts.Mode
	s.sessions[DefaultSessionID] = picker.NewSession(opts)
	sessionsGauge.Set(1)
	s.registerRoutes()
	return s
}

// Handler returns the underlying http.Handler for this server.
func (s *Server) Handler() http.Handler {
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled")
	}
	return s.basicAuthMiddleware(s.mux)
}

// ListenAndServe serves on cfg.Listen until ctx is canceled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.config().Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+srv.Addr, "debug", s.debug)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) config() *config.Config {
	s.cfgMu.RLock()
	defer s.cfgMu.RUnlock()
	return s.cfg
}

func (s *Server) localeSymbols() *locale.Symbols {
	s.cfgMu.RLock()
	defer s.cfgMu.RUnlock()
	return s.symbols
}

// params resolves the calendar and today's date for the current config.
func (s *Server) params() calendar.Params {
	cal := s.config().Calendar()
	return calendar.Params{Calendar: cal, Today: cal.DateOf(s.now())}
}

// allowedRange falls back to an empty range when the configured one cannot
// be parsed; Validate rejects that case at load time.
func (s *Server) allowedRange(today calendar.Date) calendar.AllowedRange {
	r, err := s.config().AllowedRange(today)
	if err != nil {
		appLog.Error("allowed range unavailable", err)
		return calendar.AllowedRange{Lower: today, Upper: today.AddDays(-1)}
	}
	return r
}

func (s *Server) sessionOptions() picker.Options {
	cfg := s.config()
	return picker.Options{
		Mode:             cfg.SelectionMode(),
		Allowed:          s.allowedRange(s.params().Today),
		AllowsRepetition: cfg.AllowsRepetition,
	}
}

// ApplyConfig swaps in a reloaded configuration. A changed config mode
// resets every session; a changed allowed range resets every session whose
// range moves.
func (s *Server) ApplyConfig(cfg *config.Config) {
	s.cfgMu.Lock()
	s.cfg = cfg
	s.symbols = locale.New(locale.Parse(cfg.Locale))
	s.cfgMu.Unlock()

	s.marksMu.Lock()
	s.marksCache = nil
	s.marksMu.Unlock()

	reset := s.syncSessions()
	appLog.Info("config applied",
		"mode", cfg.Mode,
		"locale", cfg.Locale,
		"week_start", cfg.WeekStart,
		"sessions_reset", reset,
	)
}

// RefreshToday re-evaluates a today-relative allowed range, resetting the
// sessions it moves.
func (s *Server) RefreshToday() {
	if reset := s.syncSessions(); reset > 0 {
		appLog.Info("allowed range moved with today", "sessions_reset", reset)
	}
}

func (s *Server) syncSessions() int {
	opts := s.sessionOptions()

	s.sessionsMu.Lock()
	defer s.sessionsMu.Unlock()

	pushMode := opts.Mode != s.appliedMode
	s.appliedMode = opts.Mode

	reset := 0
	for _, sess := range s.sessions {
		sess.SetRepetition(opts.AllowsRepetition)
		modeChanged := pushMode && sess.SetMode(opts.Mode)
		rangeChanged := sess.SetRange(opts.Allowed)
		if modeChanged || rangeChanged {
			reset++
		}
	}
	return reset
}

// RefreshMarks reloads ICS marks for the current allowed range, bypassing
// the cache.
func (s *Server) RefreshMarks(ctx context.Context) error {
	_, err := s.loadMarks(ctx)
	if err != nil {
		marksRefreshes.WithLabelValues("error").Inc()
		return err
	}
	marksRefreshes.WithLabelValues("ok").Inc()
	return nil
}

// marks returns cached marks, reloading when stale. A failed reload serves
// the previous marks, if any.
func (s *Server) marks(ctx context.Context) ics.Marks {
	allowed := s.allowedRange(s.params().Today)

	s.marksMu.RLock()
	mc := s.marksCache
	s.marksMu.RUnlock()
	if mc != nil && mc.allowed == allowed && s.now().Sub(mc.updatedAt) < marksCacheTTL {
		return mc.marks
	}

	m, err := s.loadMarks(ctx)
	if err != nil {
		appLog.Error("marks reload failed", err)
		if mc != nil {
			return mc.marks
		}
		return ics.Marks{}
	}
	return m
}

func (s *Server) loadMarks(ctx context.Context) (ics.Marks, error) {
	cfg := s.config()
	sources := ics.SourcesFromConfig(cfg.ICS)
	if len(sources) == 0 {
		return ics.Marks{}, nil
	}

	loc := cfg.Location()
	allowed := s.allowedRange(s.params().Today)
	if allowed.IsEmpty() {
		return ics.Marks{}, nil
	}

	m, err := ics.LoadMarks(ctx, s.fetcher, sources, ics.ExpandConfig{
		DisplayLocation: loc,
		RangeStart:      allowed.StartTime(loc),
		RangeEnd:        allowed.EndTime(loc),
	})
	if err != nil {
		return ics.Marks{}, err
	}

	s.marksMu.Lock()
	s.marksCache = &marksCache{marks: m, allowed: allowed, updatedAt: s.now()}
	s.marksMu.Unlock()
	return m, nil
}

func (s *Server) session(id string) (*picker.Session, bool) {
	s.sessionsMu.RLock()
	defer s.sessionsMu.RUnlock()
	sess, ok := s.sessions[id]
	return sess, ok
}

// basicAuthEnabled reports whether HTTP Basic Auth is configured.
func (s *Server) basicAuthEnabled() bool {
	return authConfigured(s.config())
}

func authConfigured(cfg *config.Config) bool {
	if cfg == nil || cfg.BasicAuth == nil {
		return false
	}
	return cfg.BasicAuth.Username != "" && cfg.BasicAuth.Password != ""
}

// basicAuthMiddleware wraps all handlers except /health with HTTP Basic Auth.
// Credentials are read per request so a reloaded basic_auth takes effect
// without a restart.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cfg := s.config()
		if r.URL.Path == "/health" || !authConfigured(cfg) {
			next.ServeHTTP(w, r)
			return
		}

		creds := cfg.BasicAuth
		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, creds.Username) || !secureCompare(p, creds.Password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="pickcal", charset="UTF-8"`)
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

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.Handle("GET /metrics", promhttp.Handler())

	s.mux.HandleFunc("GET /api/calendar", instrument("calendar", s.handleCalendar))
	s.mux.HandleFunc("GET /api/month", instrument("month", s.handleMonth))

	s.mux.HandleFunc("POST /api/sessions", instrument("session_create", s.handleCreateSession))
	s.mux.HandleFunc("GET /api/sessions/{id}", instrument("session_get", s.handleGetSession))
	s.mux.HandleFunc("DELETE /api/sessions/{id}", instrument("session_delete", s.handleDeleteSession))
	s.mux.HandleFunc("POST /api/sessions/{id}/tap", instrument("tap", s.handleTap))
	s.mux.HandleFunc("POST /api/sessions/{id}/undo", instrument("undo", s.handleUndo))
	s.mux.HandleFunc("POST /api/sessions/{id}/redo", instrument("redo", s.handleRedo))
	s.mux.HandleFunc("POST /api/sessions/{id}/reset", instrument("reset", s.handleReset))
	s.mux.HandleFunc("PUT /api/sessions/{id}/mode", instrument("mode", s.handleSetMode))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

type monthSummary struct {
	ID    string     `json:"id"`
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
	Title string     `json:"title"`
	Rows  int        `json:"rows"`
}

type calendarResponse struct {
	Locale           string                `json:"locale"`
	Timezone         string                `json:"timezone"`
	FirstWeekday     string                `json:"first_weekday"`
	WeekdayHeaders   []string              `json:"weekday_headers"`
	Mode             selection.Mode        `json:"mode"`
	AllowsRepetition bool                  `json:"allows_repetition"`
	Allowed          calendar.AllowedRange `json:"allowed"`
	Today            calendar.Date         `json:"today"`
	Months           []monthSummary        `json:"months"`
}

// handleCalendar describes the picker: locale symbols, mode, allowed range
// and the months a renderer should show.
//
// GET /api/calendar
func (s *Server) handleCalendar(w http.ResponseWriter, _ *http.Request) {
	cfg := s.config()
	sym := s.localeSymbols()
	params := s.params()
	allowed := s.allowedRange(params.Today)

	grids, err := grid.BuildRangeGrids(allowed, params.Calendar)
	if err != nil {
		appLog.Error("api calendar: build grids failed", err)
		writeError(w, http.StatusInternalServerError, "failed to build month grids")
		return
	}

	months := make([]monthSummary, 0, len(grids))
	for _, g := range grids {
		months = append(months, monthSummary{
			ID:    g.ID,
			Year:  g.Year,
			Month: g.Month,
			Title: sym.MonthTitle(g.Year, g.Month),
			Rows:  g.Rows(),
		})
	}

	first := params.Calendar.FirstWeekday()
	writeJSON(w, http.StatusOK, calendarResponse{
		Locale:           sym.Locale(),
		Timezone:         cfg.Location().String(),
		FirstWeekday:     first.String(),
		WeekdayHeaders:   sym.WeekdayHeaders(first),
		Mode:             cfg.SelectionMode(),
		AllowsRepetition: cfg.AllowsRepetition,
		Allowed:          allowed,
		Today:            params.Today,
		Months:           months,
	})
}

type monthResponse struct {
	picker.MonthView
	Title          string   `json:"title"`
	WeekdayHeaders []string `json:"weekday_headers"`
	Session        string   `json:"session"`
}

// handleMonth returns one annotated month grid for a session.
//
// GET /api/month?year=2024&month=3[&session=<id>]
//   - year, month: required
//   - session:     defaults to "default"
func (s *Server) handleMonth(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	year, err := strconv.Atoi(q.Get("year"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "year must be an integer")
		return
	}
	month, err := strconv.Atoi(q.Get("month"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "month must be an integer")
		return
	}

	id := q.Get("session")
	if id == "" {
		id = DefaultSessionID
	}
	sess, ok := s.session(id)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown session")
		return
	}

	params := s.params()
	deco := picker.Decorations{
		Highlighter: picker.TodayHighlighter{Today: params.Today, Style: s.config().TodayStyle},
		Marker:      s.marks(r.Context()),
	}

	view, err := picker.BuildMonthView(year, time.Month(month), sess.Snapshot(), params, deco)
	if errors.Is(err, grid.ErrInvalidMonth) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		appLog.Error("api month: build failed", err, "year", year, "month", month)
		writeError(w, http.StatusInternalServerError, "failed to build month")
		return
	}

	sym := s.localeSymbols()
	writeJSON(w, http.StatusOK, monthResponse{
		MonthView:      view,
		Title:          sym.MonthTitle(year, time.Month(month)),
		WeekdayHeaders: sym.WeekdayHeaders(params.Calendar.FirstWeekday()),
		Session:        id,
	})
}

type sessionResponse struct {
	ID      string `json:"id"`
	Changed *bool  `json:"changed,omitempty"`
	picker.Snapshot
}

func writeSession(w http.ResponseWriter, status int, id string, sess *picker.Session, changed *bool) {
	writeJSON(w, status, sessionResponse{ID: id, Changed: changed, Snapshot: sess.Snapshot()})
}

// handleCreateSession starts a new empty session with the configured mode
// and range.
//
// POST /api/sessions
func (s *Server) handleCreateSession(w http.ResponseWriter, _ *http.Request) {
	sess := picker.NewSession(s.sessionOptions())
	id := uuid.NewString()

	s.sessionsMu.Lock()
	if len(s.sessions) >= maxSessions {
		s.sessionsMu.Unlock()
		writeError(w, http.StatusTooManyRequests, "too many sessions")
		return
	}
	s.sessions[id] = sess
	n := len(s.sessions)
	s.sessionsMu.Unlock()

	sessionsGauge.Set(float64(n))
	appLog.Debug("session created", "id", id, "sessions", n)
	writeSession(w, http.StatusCreated, id, sess, nil)
}

// GET /api/sessions/{id}
func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	sess, ok := s.session(id)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown session")
		return
	}
	writeSession(w, http.StatusOK, id, sess, nil)
}

// DELETE /api/sessions/{id}; the default session cannot be deleted.
func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == DefaultSessionID {
		writeError(w, http.StatusBadRequest, "the default session cannot be deleted")
		return
	}

	s.sessionsMu.Lock()
	_, ok := s.sessions[id]
	delete(s.sessions, id)
	n := len(s.sessions)
	s.sessionsMu.Unlock()

	if !ok {
		writeError(w, http.StatusNotFound, "unknown session")
		return
	}
	sessionsGauge.Set(float64(n))
	w.WriteHeader(http.StatusNoContent)
}

type tapRequest struct {
	Date string `json:"date"`
}

// handleTap applies one tap to the session.
//
// POST /api/sessions/{id}/tap  {"date":"2024-03-10"}
func (s *Server) handleTap(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	sess, ok := s.session(id)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown session")
		return
	}

	var req tapRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	d, err := calendar.ParseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}

	_, changed := sess.Tap(d)
	tapsTotal.WithLabelValues(sess.Snapshot().Mode.String(), strconv.FormatBool(changed)).Inc()
	appLog.Debug("tap", "session", id, "date", d.String(), "changed", changed)
	writeSession(w, http.StatusOK, id, sess, &changed)
}

// POST /api/sessions/{id}/undo
func (s *Server) handleUndo(w http.ResponseWriter, r *http.Request) {
	s.historyStep(w, r, (*picker.Session).Undo)
}

// POST /api/sessions/{id}/redo
func (s *Server) handleRedo(w http.ResponseWriter, r *http.Request) {
	s.historyStep(w, r, (*picker.Session).Redo)
}

func (s *Server) historyStep(w http.ResponseWriter, r *http.Request, step func(*picker.Session) (selection.Selection, bool)) {
	id := r.PathValue("id")
	sess, ok := s.session(id)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown session")
		return
	}
	_, changed := step(sess)
	writeSession(w, http.StatusOK, id, sess, &changed)
}

// POST /api/sessions/{id}/reset
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	sess, ok := s.session(id)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown session")
		return
	}
	sess.Reset()
	writeSession(w, http.StatusOK, id, sess, nil)
}

type modeRequest struct {
	Mode string `json:"mode"`
}

// handleSetMode switches the session's selection mode; a different mode
// clears the selection and its history.
//
// PUT /api/sessions/{id}/mode  {"mode":"range"}
func (s *Server) handleSetMode(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	sess, ok := s.session(id)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown session")
		return
	}

	var req modeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	m, err := selection.ParseMode(req.Mode)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	changed := sess.SetMode(m)
	writeSession(w, http.StatusOK, id, sess, &changed)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
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
