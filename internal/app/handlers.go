package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	appLog "github.com/klabast/wb-services/lineup-planner/internal/log"
)

const (
	// sessionIdleTTL drops sessions nobody has touched for this long
	sessionIdleTTL = 12 * time.Hour

	defaultMaxSessions = 10000
)

// Server exposes the planner over HTTP. Every browser session (cookie) gets
// its own Planner; nothing is shared between sessions or kept across restarts.
// A session starts with the first recorded mark.
type Server struct {
	catalog *Catalog
	opts    ExportOptions
	mux     *http.ServeMux
	now     func() time.Time

	sessionsMu  sync.Mutex
	sessions    map[string]*session
	maxSessions int
}

type session struct {
	planner  *Planner
	lastSeen time.Time
}

// NewServer constructs a Server for catalog
func NewServer(catalog *Catalog, opts ExportOptions) *Server {
	s := &Server{
		catalog:  catalog,
		opts:     opts,
		mux:      http.NewServeMux(),
		now:         time.Now,
		sessions:    make(map[string]*session),
		maxSessions: defaultMaxSessions,
	}
	s.registerRoutes()
	return s
}

// Handler returns the underlying http.Handler
func (s *Server) Handler() http.Handler {
	return s.mux
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+addr, "days", len(s.catalog.Days))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	appLog.Info("shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/api/config", s.handleConfig)
	s.mux.HandleFunc("/api/lineup", s.handleLineup)
	s.mux.HandleFunc("/api/marks", s.handleRecord)
	s.mux.HandleFunc("/api/marks/undo", s.handleUndo)
	s.mux.HandleFunc("/api/schedule", s.handleSchedule)
	s.mux.HandleFunc("/api/download", s.handleDownload)
}

// planner returns the caller's session, nil if the request has none
func (s *Server) planner(r *http.Request) *Planner {
	c, err := r.Cookie(SessionCookie)
	if err != nil {
		return nil
	}

	s.sessionsMu.Lock()
	defer s.sessionsMu.Unlock()

	sess, ok := s.sessions[c.Value]
	if !ok {
		return nil
	}
	sess.lastSeen = s.now()
	return sess.planner
}

// startPlanner returns the caller's session, starting one if needed
func (s *Server) startPlanner(w http.ResponseWriter, r *http.Request) *Planner {
	if p := s.planner(r); p != nil {
		return p
	}

	s.sessionsMu.Lock()
	defer s.sessionsMu.Unlock()

	now := s.now()
	s.expireLocked(now)

	id := uuid.NewString()
	p := NewPlanner(s.catalog)
	s.sessions[id] = &session{planner: p, lastSeen: now}
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	appLog.Info("session started", "sessions", len(s.sessions))
	return p
}

// expireLocked drops idle sessions and, when the table is still full, the
// least recently used ones until a new session fits
func (s *Server) expireLocked(now time.Time) {
	for id, sess := range s.sessions {
		if now.Sub(sess.lastSeen) > sessionIdleTTL {
			delete(s.sessions, id)
			appLog.Debug("session expired", "idle", now.Sub(sess.lastSeen).String())
		}
	}

	for len(s.sessions) >= s.maxSessions && len(s.sessions) > 0 {
		var (
			oldestID string
			oldest   time.Time
		)
		for id, sess := range s.sessions {
			if oldestID == "" || sess.lastSeen.Before(oldest) {
				oldestID, oldest = id, sess.lastSeen
			}
		}
		delete(s.sessions, oldestID)
		appLog.Info("session evicted, table full", "max", s.maxSessions)
	}
}

// schedule is the caller's compiled schedule, empty without a session
func (s *Server) schedule(r *http.Request) CompiledSchedule {
	if p := s.planner(r); p != nil {
		return p.Schedule()
	}
	return CompiledSchedule{}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// handleConfig returns the roster, the lineup days and the festival timezone
func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"name":     s.catalog.Name,
		"people":   s.catalog.People,
		"days":     s.catalog.DayLabels(),
		"timezone": s.opts.Location.String(),
	})
}

type lineupCard struct {
	Band  string `json:"band"`
	Time  string `json:"time"`
	Stage string `json:"stage"`
	Marks []Mark `json:"marks"`
}

type lineupDay struct {
	Day   string       `json:"day"`
	Cards []lineupCard `json:"cards"`
}

// handleLineup returns the grid: every band with its slot and the session's marks
func (s *Server) handleLineup(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	p := s.planner(r)

	days := make([]lineupDay, 0, len(s.catalog.Days))
	for _, d := range s.catalog.Days {
		ld := lineupDay{Day: d.Label, Cards: make([]lineupCard, 0, len(d.Slots))}
		for _, slot := range d.Slots {
			var marks []Mark
			if p != nil {
				marks = p.MarksFor(d.Label, slot.Band)
			}
			if marks == nil {
				marks = []Mark{}
			}
			ld.Cards = append(ld.Cards, lineupCard{
				Band:  slot.Band,
				Time:  DisplayOrTBD(slot.Time),
				Stage: DisplayOrTBD(slot.Stage),
				Marks: marks,
			})
		}
		days = append(days, ld)
	}
	writeJSON(w, http.StatusOK, map[string]any{"days": days})
}

// handleRecord records a click or drop of a person onto a band card
func (s *Server) handleRecord(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req struct {
		Day    string `json:"day"`
		Band   string `json:"band"`
		Person string `json:"person"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, MsgInvalidRequest, http.StatusBadRequest)
		return
	}

	p := s.startPlanner(w, r)
	m, err := p.Record(req.Day, req.Band, req.Person)
	if err != nil {
		appLog.Info("mark rejected", "err", err, "day", req.Day, "band", req.Band, "person", req.Person)
		switch {
		case errors.Is(err, ErrUnknownDay):
			http.Error(w, MsgUnknownDay, http.StatusBadRequest)
		case errors.Is(err, ErrUnknownBand):
			http.Error(w, MsgUnknownBand, http.StatusBadRequest)
		case errors.Is(err, ErrUnknownPerson):
			http.Error(w, MsgUnknownPerson, http.StatusBadRequest)
		default:
			http.Error(w, MsgInternalServer, http.StatusInternalServerError)
		}
		return
	}

	writeJSON(w, http.StatusCreated, m)
}

// handleUndo removes the session's most recent mark
func (s *Server) handleUndo(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var (
		m  Mark
		ok bool
	)
	if p := s.planner(r); p != nil {
		m, ok = p.Undo()
	}
	if !ok {
		writeJSON(w, http.StatusOK, map[string]string{"status": "empty"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "removed": m})
}

// handleSchedule serves the compiled schedule to the on-page viewer.
// Clients can poll with If-None-Match.
func (s *Server) handleSchedule(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	var buf bytes.Buffer
	if err := WriteJSON(&buf, s.schedule(r)); err != nil {
		appLog.Error("encoding schedule", err)
		http.Error(w, MsgInternalServer, http.StatusInternalServerError)
		return
	}

	etag := contentETag(buf.Bytes())
	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "no-cache")
	if etagMatches(r.Header.Get("If-None-Match"), etag) {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("Content-Type", ContentTypeJSON)
	if _, err := buf.WriteTo(w); err != nil {
		appLog.Error("writing schedule response", err)
	}
}

// handleDownload handles export downloads in CSV, ICS or JSON format
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	format := r.URL.Query().Get("format")
	if format != "csv" && format != "ics" && format != "json" {
		http.Error(w, MsgInvalidFormat, http.StatusBadRequest)
		return
	}

	schedule := s.schedule(r)
	if schedule.Empty() {
		http.Error(w, MsgNoSelections, http.StatusConflict)
		return
	}

	now := s.now()
	var (
		buf         bytes.Buffer
		err         error
		contentType string
	)
	switch format {
	case "csv":
		contentType = ContentTypeCSV
		err = WriteCSV(&buf, schedule)
	case "ics":
		contentType = ContentTypeICS
		err = WriteICS(&buf, schedule, s.opts, now)
	case "json":
		contentType = ContentTypeJSON
		err = WriteJSON(&buf, schedule)
	}
	if err != nil {
		appLog.Error("export failed", err, "format", format)
		http.Error(w, MsgInternalServer, http.StatusInternalServerError)
		return
	}

	name := ExportFileName(s.opts.Prefix, now, format)
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	if _, err := buf.WriteTo(w); err != nil {
		appLog.Error("writing export response", err, "file", name)
		return
	}
	appLog.Info("export downloaded", "file", name, "days", len(schedule.Days))
}
