package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/jayavardhan-g/govt-schemes/internal/logger"
	"github.com/jayavardhan-g/govt-schemes/rules"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

const slowRequestThreshold = 2 * time.Second

type Server struct {
	db        *sql.DB
	engine    *rules.Engine
	schemes   rules.SchemeStore
	rules     rules.RuleStore
	extractor *rules.Extractor
	router    *chi.Mux
}

// NewServer wires a server against PostgreSQL.
func NewServer(databaseURL string) (*Server, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return newServer(db, rules.NewPostgresSchemeStore(db), rules.NewPostgresRuleStore(db))
}

// NewServerWithStores wires a server against caller-supplied stores.
// Used by tests to run against in-memory storage.
func NewServerWithStores(schemeStore rules.SchemeStore, ruleStore rules.RuleStore) (*Server, error) {
	return newServer(nil, schemeStore, ruleStore)
}

func newServer(db *sql.DB, schemeStore rules.SchemeStore, ruleStore rules.RuleStore) (*Server, error) {
	engine, err := rules.NewEngine(schemeStore, ruleStore)
	if err != nil {
		return nil, fmt.Errorf("failed to create engine: %w", err)
	}

	s := &Server{
		db:        db,
		engine:    engine,
		schemes:   schemeStore,
		rules:     ruleStore,
		extractor: rules.NewExtractor(),
	}

	s.setupRoutes()

	return s, nil
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/api/v1/health", s.handleHealth)

	r.Post("/api/v1/extract", s.handleExtract)
	r.Post("/api/v1/match", s.handleMatch)

	r.Route("/api/v1/schemes", func(r chi.Router) {
		r.Get("/", s.handleListSchemes)
		r.Post("/", s.handleCreateScheme)

		r.Route("/{schemeId}", func(r chi.Router) {
			r.Get("/", s.handleGetScheme)
			r.Put("/", s.handleUpdateScheme)
			r.Delete("/", s.handleDeleteScheme)

			r.Post("/rules", s.handleCreateRule)
			r.Post("/rules/extract", s.handleExtractRule)
			r.Get("/rules", s.handleListRules)
			r.Get("/rules/{ruleId}", s.handleGetRule)
			r.Put("/rules/{ruleId}", s.handleUpdateRule)
			r.Delete("/rules/{ruleId}", s.handleDeleteRule)
			r.Post("/rules/{ruleId}/evaluate", s.handleEvaluateRule)
		})
	})

	s.router = r
}

// requestLogger records request outcomes and feeds the status counters.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		elapsed := time.Since(start)
		logger.CountHTTPStatus(ww.Status())
		if elapsed > slowRequestThreshold {
			logger.CountSlowRequest()
		}
		logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", elapsed.String(),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Health check handler
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	storage := "memory"
	if s.db != nil {
		storage = "postgres"
		if err := s.db.Ping(); err != nil {
			respondJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "unhealthy",
				"error":  err.Error(),
			})
			return
		}
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"status":  "healthy",
		"storage": storage,
	})
}

// Extraction preview handler: runs the extractor without persisting.
func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	var req ExtractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	result := s.extractor.Extract(req.Text)

	respondJSON(w, http.StatusOK, ExtractResponse{
		Tree:       result.Tree,
		Confidence: result.Confidence,
	})
}

// Match handler: evaluates a profile against every scheme.
func (s *Server) handleMatch(w http.ResponseWriter, r *http.Request) {
	var req MatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	if req.Profile == nil {
		respondError(w, http.StatusBadRequest, "profile is required", nil)
		return
	}

	startTime := time.Now()

	results, err := s.engine.MatchProfile(req.Profile)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "matching failed", err)
		return
	}

	respondJSON(w, http.StatusOK, MatchResponse{
		Results:        results,
		EvaluationTime: time.Since(startTime).String(),
	})
}

// List schemes handler
func (s *Server) handleListSchemes(w http.ResponseWriter, r *http.Request) {
	schemes, err := s.schemes.List()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list schemes", err)
		return
	}

	if schemes == nil {
		schemes = []*rules.Scheme{}
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"schemes": schemes,
	})
}

// Create scheme handler
func (s *Server) handleCreateScheme(w http.ResponseWriter, r *http.Request) {
	var req CreateSchemeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	if req.Title == "" {
		respondError(w, http.StatusBadRequest, "title is required", nil)
		return
	}

	scheme := &rules.Scheme{
		ID:          uuid.NewString(),
		Title:       req.Title,
		State:       req.State,
		Description: req.Description,
		SourceURL:   req.SourceURL,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}

	if err := s.schemes.Add(scheme); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to create scheme", err)
		return
	}

	respondJSON(w, http.StatusCreated, scheme)
}

// Get scheme handler
func (s *Server) handleGetScheme(w http.ResponseWriter, r *http.Request) {
	schemeID := chi.URLParam(r, "schemeId")

	scheme, err := s.schemes.Get(schemeID)
	if err != nil {
		respondError(w, http.StatusNotFound, "scheme not found", err)
		return
	}

	respondJSON(w, http.StatusOK, scheme)
}

// Update scheme handler
func (s *Server) handleUpdateScheme(w http.ResponseWriter, r *http.Request) {
	schemeID := chi.URLParam(r, "schemeId")

	var req CreateSchemeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	scheme := &rules.Scheme{
		ID:          schemeID,
		Title:       req.Title,
		State:       req.State,
		Description: req.Description,
		SourceURL:   req.SourceURL,
	}

	if err := s.schemes.Update(scheme); err != nil {
		respondError(w, http.StatusNotFound, "failed to update scheme", err)
		return
	}

	respondJSON(w, http.StatusOK, scheme)
}

// Delete scheme handler
func (s *Server) handleDeleteScheme(w http.ResponseWriter, r *http.Request) {
	schemeID := chi.URLParam(r, "schemeId")

	if err := s.schemes.Delete(schemeID); err != nil {
		respondError(w, http.StatusNotFound, "scheme not found", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Create rule handler: accepts a condition tree or a CEL expression.
func (s *Server) handleCreateRule(w http.ResponseWriter, r *http.Request) {
	schemeID := chi.URLParam(r, "schemeId")

	if _, err := s.schemes.Get(schemeID); err != nil {
		respondError(w, http.StatusNotFound, "scheme not found", err)
		return
	}

	var req CreateRuleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	kind := rules.RuleKind(req.Kind)
	if kind == "" {
		kind = rules.KindTree
		if req.Expression != "" {
			kind = rules.KindExpression
		}
	}

	rule := &rules.Rule{
		ID:         uuid.NewString(),
		SchemeID:   schemeID,
		Kind:       kind,
		Tree:       req.Tree,
		Expression: req.Expression,
		Snippet:    req.Snippet,
		Confidence: req.Confidence,
		Verified:   req.Verified,
		Active:     req.Active,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}

	if err := s.engine.AddRule(rule); err != nil {
		respondError(w, http.StatusBadRequest, "failed to add rule", err)
		return
	}

	respondJSON(w, http.StatusCreated, rule)
}

// Extract rule handler: runs the extractor over the supplied text (or
// the scheme description when no text is given) and persists the
// resulting tree rule.
func (s *Server) handleExtractRule(w http.ResponseWriter, r *http.Request) {
	schemeID := chi.URLParam(r, "schemeId")

	scheme, err := s.schemes.Get(schemeID)
	if err != nil {
		respondError(w, http.StatusNotFound, "scheme not found", err)
		return
	}

	var req ExtractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	text := req.Text
	if text == "" {
		text = scheme.Description
	}

	result := s.extractor.Extract(text)

	rule := &rules.Rule{
		ID:         uuid.NewString(),
		SchemeID:   schemeID,
		Kind:       rules.KindTree,
		Tree:       result.Tree,
		Snippet:    text,
		Confidence: result.Confidence,
		Active:     true,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}

	if err := s.engine.AddRule(rule); err != nil {
		respondError(w, http.StatusBadRequest, "failed to add extracted rule", err)
		return
	}

	respondJSON(w, http.StatusCreated, rule)
}

// List rules handler
func (s *Server) handleListRules(w http.ResponseWriter, r *http.Request) {
	schemeID := chi.URLParam(r, "schemeId")

	rulesList, err := s.rules.ListByScheme(schemeID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list rules", err)
		return
	}

	if rulesList == nil {
		rulesList = []*rules.Rule{}
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"rules": rulesList,
	})
}

// Get rule handler
func (s *Server) handleGetRule(w http.ResponseWriter, r *http.Request) {
	ruleID := chi.URLParam(r, "ruleId")

	rule, err := s.rules.Get(ruleID)
	if err != nil {
		respondError(w, http.StatusNotFound, "rule not found", err)
		return
	}

	respondJSON(w, http.StatusOK, rule)
}

// Update rule handler
func (s *Server) handleUpdateRule(w http.ResponseWriter, r *http.Request) {
	schemeID := chi.URLParam(r, "schemeId")
	ruleID := chi.URLParam(r, "ruleId")

	var req CreateRuleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	kind := rules.RuleKind(req.Kind)
	if kind == "" {
		kind = rules.KindTree
		if req.Expression != "" {
			kind = rules.KindExpression
		}
	}

	rule := &rules.Rule{
		ID:         ruleID,
		SchemeID:   schemeID,
		Kind:       kind,
		Tree:       req.Tree,
		Expression: req.Expression,
		Snippet:    req.Snippet,
		Confidence: req.Confidence,
		Verified:   req.Verified,
		Active:     req.Active,
		UpdatedAt:  time.Now(),
	}

	if err := s.engine.UpdateRule(rule); err != nil {
		respondError(w, http.StatusBadRequest, "failed to update rule", err)
		return
	}

	respondJSON(w, http.StatusOK, rule)
}

// Delete rule handler
func (s *Server) handleDeleteRule(w http.ResponseWriter, r *http.Request) {
	ruleID := chi.URLParam(r, "ruleId")

	if err := s.engine.DeleteRule(ruleID); err != nil {
		respondError(w, http.StatusNotFound, "rule not found", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Evaluate rule handler: evaluates one stored rule against a profile.
func (s *Server) handleEvaluateRule(w http.ResponseWriter, r *http.Request) {
	ruleID := chi.URLParam(r, "ruleId")

	var req MatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	if req.Profile == nil {
		respondError(w, http.StatusBadRequest, "profile is required", nil)
		return
	}

	verdict, err := s.engine.EvaluateRule(ruleID, req.Profile)
	if err != nil {
		respondError(w, http.StatusNotFound, "rule not found", err)
		return
	}

	respondJSON(w, http.StatusOK, verdict)
}

// Helper functions
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string, err error) {
	response := map[string]string{
		"error": message,
	}
	if err != nil {
		response["details"] = err.Error()
	}
	respondJSON(w, status, response)
}

func main() {
	// A local .env is optional; real deployments set the environment.
	_ = godotenv.Load()

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		logger.Fatal("DATABASE_URL environment variable is required")
	}

	server, err := NewServer(databaseURL)
	if err != nil {
		logger.Fatal("Failed to create server", "error", err)
	}
	defer server.db.Close()

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	httpServer := &http.Server{
		Addr:         ":" + port,
		Handler:      server,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("Server starting", "port", port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed to start", "error", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("Server shutdown error", "error", err)
	}

	if err := logger.Shutdown(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Logger shutdown error: %v\n", err)
	}

	logger.Info("Server stopped")
}
