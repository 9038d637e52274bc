// Package server exposes the conversation archive over HTTP.
//
// The API is local-first: it binds to localhost and serves JSON for the
// CLI, scripts, and anything else that wants the archive without going
// through MCP.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/hkevin01/poe-search-sub001/internal/search"
	"github.com/hkevin01/poe-search-sub001/internal/store"
)

const DefaultPort = 7777

type Server struct {
	store  *store.Store
	engine *search.Engine
	port   int
	logger *log.Logger
}

func New(s *store.Store, port int) *Server {
	if port <= 0 {
		port = DefaultPort
	}
	return &Server{
		store:  s,
		engine: search.NewEngine(s),
		port:   port,
		logger: log.NewWithOptions(os.Stderr, log.Options{
			ReportTimestamp: true,
			Prefix:          "poesearch",
		}),
	}
}

func (s *Server) Run() error {
	addr := fmt.Sprintf("127.0.0.1:%d", s.port)
	s.logger.Info("listening", "addr", addr)
	return http.ListenAndServe(addr, s.Handler())
}

// ─── Routing ─────────────────────────────────────────────────────────────────

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)

	mux.HandleFunc("POST /conversations", s.handleSaveConversation)
	mux.HandleFunc("PUT /conversations/{id}", s.handleUpdateConversation)
	mux.HandleFunc("GET /conversations", s.handleListConversations)
	mux.HandleFunc("GET /conversations/{id}", s.handleGetConversation)
	mux.HandleFunc("HEAD /conversations/{id}", s.handleConversationExists)

	mux.HandleFunc("GET /search", s.handleSearch)
	mux.HandleFunc("GET /search/conversations", s.handleSearchConversations)
	mux.HandleFunc("GET /search/fuzzy", s.handleFuzzySearch)
	mux.HandleFunc("GET /search/range", s.handleSearchByDateRange)

	mux.HandleFunc("GET /bots", s.handleBots)
	mux.HandleFunc("GET /analytics", s.handleAnalytics)
	mux.HandleFunc("GET /stats", s.handleStats)

	mux.HandleFunc("GET /export", s.handleExport)
	mux.HandleFunc("POST /import", s.handleImport)

	return s.withRequestLog(mux)
}

// withRequestLog tags every request with an id and logs method, path,
// and duration on completion.
func (s *Server) withRequestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.NewString()
		w.Header().Set("X-Request-ID", requestID)

		started := time.Now()
		next.ServeHTTP(w, r)

		s.logger.Debug("request",
			"id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"duration", time.Since(started),
		)
	})
}

// ─── Handlers ────────────────────────────────────────────────────────────────

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleSaveConversation(w http.ResponseWriter, r *http.Request) {
	var conv store.Conversation
	if err := json.NewDecoder(r.Body).Decode(&conv); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decode body: %w", err))
		return
	}

	existed, err := s.store.ConversationExists(conv.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	if err := s.store.SaveConversation(conv); err != nil {
		writeError(w, statusForStoreError(err), err)
		return
	}

	status := http.StatusCreated
	if existed {
		status = http.StatusOK
	}
	writeJSON(w, status, map[string]string{"id": conv.ID})
}

func (s *Server) handleUpdateConversation(w http.ResponseWriter, r *http.Request) {
	var conv store.Conversation
	if err := json.NewDecoder(r.Body).Decode(&conv); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decode body: %w", err))
		return
	}
	if id := r.PathValue("id"); conv.ID == "" {
		conv.ID = id
	} else if conv.ID != id {
		writeError(w, http.StatusBadRequest, fmt.Errorf("body id %q does not match path id %q", conv.ID, id))
		return
	}

	if err := s.store.UpdateConversation(conv); err != nil {
		writeError(w, statusForStoreError(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": conv.ID})
}

func (s *Server) handleListConversations(w http.ResponseWriter, r *http.Request) {
	opts := store.ListOptions{
		Bot:   r.URL.Query().Get("bot"),
		Days:  intParam(r, "days", 0),
		Limit: intParam(r, "limit", 0),
	}

	convs, err := s.store.GetConversations(opts)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if convs == nil {
		convs = []store.Conversation{}
	}
	writeJSON(w, http.StatusOK, convs)
}

func (s *Server) handleGetConversation(w http.ResponseWriter, r *http.Request) {
	conv, err := s.store.GetConversation(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if conv == nil {
		writeError(w, http.StatusNotFound, fmt.Errorf("conversation %q not found", r.PathValue("id")))
		return
	}
	writeJSON(w, http.StatusOK, conv)
}

func (s *Server) handleConversationExists(w http.ResponseWriter, r *http.Request) {
	exists, err := s.store.ConversationExists(r.PathValue("id"))
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	if !exists {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	results, err := s.engine.Search(r.URL.Query().Get("q"), searchOptions(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeResults(w, results)
}

func (s *Server) handleSearchConversations(w http.ResponseWriter, r *http.Request) {
	results, err := s.engine.SearchConversations(r.URL.Query().Get("q"), searchOptions(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeResults(w, results)
}

func (s *Server) handleFuzzySearch(w http.ResponseWriter, r *http.Request) {
	threshold := 0.6
	if raw := r.URL.Query().Get("threshold"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil || parsed < 0 || parsed > 1 {
			writeError(w, http.StatusBadRequest, fmt.Errorf("threshold must be in [0,1], got %q", raw))
			return
		}
		threshold = parsed
	}

	results, err := s.engine.FuzzySearch(r.URL.Query().Get("q"), threshold, searchOptions(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeResults(w, results)
}

func (s *Server) handleSearchByDateRange(w http.ResponseWriter, r *http.Request) {
	start, err := parseDateParam(r, "start")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	end, err := parseDateParam(r, "end")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	// A date-only end bound means the whole of that day.
	if end.Hour() == 0 && end.Minute() == 0 && end.Second() == 0 {
		end = end.Add(24*time.Hour - time.Second)
	}

	results, err := s.engine.SearchByDateRange(start, end, searchOptions(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeResults(w, results)
}

func (s *Server) handleBots(w http.ResponseWriter, r *http.Request) {
	bots, err := s.store.GetBots()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if bots == nil {
		bots = []store.Bot{}
	}
	writeJSON(w, http.StatusOK, bots)
}

func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	period := r.URL.Query().Get("period")
	if period == "" {
		period = "month"
	}
	analytics, err := s.store.GetAnalytics(period)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, analytics)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.store.Stats()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	data, err := s.store.Export()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, data)
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	var data store.ExportData
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decode body: %w", err))
		return
	}

	result, err := s.store.Import(&data)
	if err != nil {
		writeError(w, statusForStoreError(err), err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

func searchOptions(r *http.Request) search.Options {
	opts := search.Options{
		Bot:         r.URL.Query().Get("bot"),
		Limit:       intParam(r, "limit", 0),
		Days:        intParam(r, "days", 0),
		MinMessages: intParam(r, "min_messages", 0),
	}
	if raw := r.URL.Query().Get("min_score"); raw != "" {
		if parsed, err := strconv.ParseFloat(raw, 64); err == nil {
			opts.MinScore = parsed
		}
	}
	return opts
}

func intParam(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return parsed
}

var dateParamLayouts = []string{time.RFC3339, "2006-01-02"}

func parseDateParam(r *http.Request, name string) (time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return time.Time{}, fmt.Errorf("missing required parameter %q", name)
	}
	for _, layout := range dateParamLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("parameter %q: cannot parse %q as a date", name, raw)
}

func statusForStoreError(err error) int {
	if errors.Is(err, store.ErrInvalidConversation) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func writeResults(w http.ResponseWriter, results []search.Result) {
	if results == nil {
		results = []search.Result{}
	}
	writeJSON(w, http.StatusOK, results)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
