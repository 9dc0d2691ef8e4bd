// Package api serves the consolidated daily documents and the run
// ledger over HTTP for the dashboard.
package api

import (
	"encoding/json"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"frota-etl/internal/config"
	"frota-etl/internal/ledger"

	"github.com/gorilla/mux"
)

// Server represents the API server
type Server struct {
	cfg    *config.Config
	store  *ledger.Store
	router *mux.Router
}

// NewServer creates a new API server. The ledger store may be nil, in
// which case the runs endpoint reports unavailable.
func NewServer(cfg *config.Config, store *ledger.Store) *Server {
	s := &Server{
		cfg:    cfg,
		store:  store,
		router: mux.NewRouter(),
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")

	s.router.HandleFunc("/api/v1/days", s.handleListDays).Methods("GET")
	s.router.HandleFunc("/api/v1/days/{date}", s.handleGetDay).Methods("GET")

	s.router.HandleFunc("/api/v1/runs", s.handleListRuns).Methods("GET")

	s.router.Use(loggingMiddleware)
	s.router.Use(jsonMiddleware)
}

// Router returns the configured router
func (s *Server) Router() *mux.Router {
	return s.router
}

// Middleware
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s %v", r.Method, r.URL.Path, time.Since(start))
	})
}

func jsonMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

// Response helpers
type apiResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(apiResponse{Success: true, Data: data})
}

func respondError(w http.ResponseWriter, status int, message string) {
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(apiResponse{Success: false, Error: message})
}

var dayFileRe = regexp.MustCompile(`_(\d{2}-\d{2}-\d{4})\.json$`)

// Handlers
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleListDays(w http.ResponseWriter, r *http.Request) {
	matches, err := filepath.Glob(filepath.Join(s.cfg.ConsolidatedDir(), "*.json"))
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	days := []string{}
	for _, m := range matches {
		if groups := dayFileRe.FindStringSubmatch(filepath.Base(m)); groups != nil {
			days = append(days, groups[1])
		}
	}
	sort.Strings(days)
	respondJSON(w, http.StatusOK, days)
}

func (s *Server) handleGetDay(w http.ResponseWriter, r *http.Request) {
	date := mux.Vars(r)["date"]
	if strings.ContainsAny(date, "/\\.") {
		respondError(w, http.StatusBadRequest, "invalid date")
		return
	}
	path := filepath.Join(s.cfg.ConsolidatedDir(), "colhedora_frota_"+date+".json")
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		respondError(w, http.StatusNotFound, "no consolidated data for "+date)
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		respondError(w, http.StatusServiceUnavailable, "run ledger not available")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	runs, err := s.store.Recent(limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, runs)
}
