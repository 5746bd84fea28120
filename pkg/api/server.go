// Package api exposes the operational HTTP surface: cost and community
// stats, knowledge base management, rules and FAQ administration. Message
// triage itself never goes through HTTP; this server is for operators and
// dashboards.
package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/openclaw/openclaw/pkg/accounting"
	"github.com/openclaw/openclaw/pkg/analytics"
	"github.com/openclaw/openclaw/pkg/faq"
	"github.com/openclaw/openclaw/pkg/observability"
	"github.com/openclaw/openclaw/pkg/rag"
	"github.com/openclaw/openclaw/pkg/rules"
)

// AdminAPIServer holds the server state and dependencies
type AdminAPIServer struct {
	tracker   *accounting.Tracker
	analytics *analytics.System
	knowledge *rag.System
	rules     *rules.Manager
	faqs      *faq.System
}

// Options wires the admin server's collaborators. Nil collaborators make
// the corresponding endpoints return 503.
type Options struct {
	Tracker   *accounting.Tracker
	Analytics *analytics.System
	Knowledge *rag.System
	Rules     *rules.Manager
	FAQs      *faq.System
}

// StatsResponse is the combined cost and community stats payload.
type StatsResponse struct {
	Costs     accounting.Report `json:"costs"`
	Heatmap   [24]int           `json:"hourly_activity"`
	Sentiment struct {
		Positive int `json:"positive"`
		Neutral  int `json:"neutral"`
		Negative int `json:"negative"`
	} `json:"sentiment_today"`
	UnansweredCount int `json:"unanswered_count"`
}

// IngestRequest is a knowledge document upload.
type IngestRequest struct {
	TenantID string `json:"tenant_id"`
	Filename string `json:"filename"`
	Content  string `json:"content"`
}

// RulesUpdateRequest replaces a tenant's rule set. Rules may be given as a
// list or as free text split on semicolons and newlines.
type RulesUpdateRequest struct {
	TenantID  string   `json:"tenant_id"`
	Rules     []string `json:"rules,omitempty"`
	RulesText string   `json:"rules_text,omitempty"`
}

// FAQCreateRequest adds a custom FAQ for a tenant.
type FAQCreateRequest struct {
	TenantID   string   `json:"tenant_id"`
	Question   string   `json:"question"`
	Variations []string `json:"variations,omitempty"`
	Answer     string   `json:"answer"`
}

// NewServer creates an admin API server.
func NewServer(opts Options) *AdminAPIServer {
	return &AdminAPIServer{
		tracker:   opts.Tracker,
		analytics: opts.Analytics,
		knowledge: opts.Knowledge,
		rules:     opts.Rules,
		faqs:      opts.FAQs,
	}
}

// StartAdminAPI starts the admin API server on the given port.
func StartAdminAPI(opts Options, port int) error {
	apiServer := NewServer(opts)

	mux := apiServer.setupRoutes()
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	observability.Infof("Admin API server listening on port %d", port)
	return server.ListenAndServe()
}

// setupRoutes configures all API routes
func (s *AdminAPIServer) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// Health check endpoint
	mux.HandleFunc("GET /health", s.handleHealth)

	// Stats endpoints
	mux.HandleFunc("GET /api/v1/stats", s.handleStats)

	// Knowledge base endpoints
	mux.HandleFunc("POST /api/v1/knowledge/ingest", s.handleKnowledgeIngest)
	mux.HandleFunc("GET /api/v1/knowledge/stats", s.handleKnowledgeStats)
	mux.HandleFunc("DELETE /api/v1/knowledge", s.handleKnowledgeClear)

	// Rules endpoints
	mux.HandleFunc("GET /api/v1/rules", s.handleGetRules)
	mux.HandleFunc("PUT /api/v1/rules", s.handleUpdateRules)

	// FAQ endpoints
	mux.HandleFunc("GET /api/v1/faqs", s.handleListFAQs)
	mux.HandleFunc("POST /api/v1/faqs", s.handleCreateFAQ)

	return mux
}

// handleHealth handles health check requests
func (s *AdminAPIServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status": "healthy", "service": "admin-api"}`))
}

func (s *AdminAPIServer) handleStats(w http.ResponseWriter, r *http.Request) {
	tenantID := r.URL.Query().Get("tenant")
	if tenantID == "" {
		s.writeErrorResponse(w, http.StatusBadRequest, "INVALID_INPUT", "tenant query parameter is required")
		return
	}

	var resp StatsResponse
	if s.tracker != nil {
		resp.Costs = s.tracker.Report()
	}
	if s.analytics != nil {
		sum := s.analytics.Summarize(tenantID)
		resp.Heatmap = sum.Heatmap
		resp.Sentiment.Positive = sum.Sentiment.Positive
		resp.Sentiment.Neutral = sum.Sentiment.Neutral
		resp.Sentiment.Negative = sum.Sentiment.Negative
		resp.UnansweredCount = sum.UnansweredCount
	}
	s.writeJSONResponse(w, http.StatusOK, resp)
}

func (s *AdminAPIServer) handleKnowledgeIngest(w http.ResponseWriter, r *http.Request) {
	if s.knowledge == nil {
		s.writeErrorResponse(w, http.StatusServiceUnavailable, "KNOWLEDGE_UNAVAILABLE", "knowledge base is not configured")
		return
	}

	var req IngestRequest
	if err := s.parseJSONRequest(r, &req); err != nil {
		s.writeErrorResponse(w, http.StatusBadRequest, "INVALID_INPUT", err.Error())
		return
	}
	if req.TenantID == "" || req.Content == "" {
		s.writeErrorResponse(w, http.StatusBadRequest, "INVALID_INPUT", "tenant_id and content are required")
		return
	}

	stored, err := s.knowledge.Ingest(r.Context(), req.TenantID, req.Content, req.Filename)
	if err != nil {
		s.writeErrorResponse(w, http.StatusInternalServerError, "INGEST_ERROR", err.Error())
		return
	}
	s.writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"chunks_stored": stored,
		"filename":      req.Filename,
	})
}

func (s *AdminAPIServer) handleKnowledgeStats(w http.ResponseWriter, r *http.Request) {
	if s.knowledge == nil {
		s.writeErrorResponse(w, http.StatusServiceUnavailable, "KNOWLEDGE_UNAVAILABLE", "knowledge base is not configured")
		return
	}
	tenantID := r.URL.Query().Get("tenant")
	if tenantID == "" {
		s.writeErrorResponse(w, http.StatusBadRequest, "INVALID_INPUT", "tenant query parameter is required")
		return
	}

	stats := s.knowledge.Stats(r.Context(), tenantID)
	s.writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"total_chunks": stats.TotalChunks,
		"documents":    stats.Documents,
	})
}

func (s *AdminAPIServer) handleKnowledgeClear(w http.ResponseWriter, r *http.Request) {
	if s.knowledge == nil {
		s.writeErrorResponse(w, http.StatusServiceUnavailable, "KNOWLEDGE_UNAVAILABLE", "knowledge base is not configured")
		return
	}
	tenantID := r.URL.Query().Get("tenant")
	if tenantID == "" {
		s.writeErrorResponse(w, http.StatusBadRequest, "INVALID_INPUT", "tenant query parameter is required")
		return
	}

	if err := s.knowledge.Clear(r.Context(), tenantID); err != nil {
		s.writeErrorResponse(w, http.StatusInternalServerError, "CLEAR_ERROR", err.Error())
		return
	}
	s.writeJSONResponse(w, http.StatusOK, map[string]interface{}{"cleared": true})
}

func (s *AdminAPIServer) handleGetRules(w http.ResponseWriter, r *http.Request) {
	if s.rules == nil {
		s.writeErrorResponse(w, http.StatusServiceUnavailable, "RULES_UNAVAILABLE", "rules manager is not configured")
		return
	}
	tenantID := r.URL.Query().Get("tenant")
	if tenantID == "" {
		s.writeErrorResponse(w, http.StatusBadRequest, "INVALID_INPUT", "tenant query parameter is required")
		return
	}

	s.writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"rules": s.rules.Get(r.Context(), tenantID),
	})
}

func (s *AdminAPIServer) handleUpdateRules(w http.ResponseWriter, r *http.Request) {
	if s.rules == nil {
		s.writeErrorResponse(w, http.StatusServiceUnavailable, "RULES_UNAVAILABLE", "rules manager is not configured")
		return
	}

	var req RulesUpdateRequest
	if err := s.parseJSONRequest(r, &req); err != nil {
		s.writeErrorResponse(w, http.StatusBadRequest, "INVALID_INPUT", err.Error())
		return
	}
	if req.TenantID == "" {
		s.writeErrorResponse(w, http.StatusBadRequest, "INVALID_INPUT", "tenant_id is required")
		return
	}

	ruleList := req.Rules
	if len(ruleList) == 0 && req.RulesText != "" {
		ruleList = rules.ParseRules(req.RulesText)
	}
	if err := s.rules.Set(r.Context(), req.TenantID, ruleList); err != nil {
		s.writeErrorResponse(w, http.StatusInternalServerError, "RULES_ERROR", err.Error())
		return
	}
	s.writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"rules": ruleList,
	})
}

func (s *AdminAPIServer) handleListFAQs(w http.ResponseWriter, r *http.Request) {
	if s.faqs == nil {
		s.writeErrorResponse(w, http.StatusServiceUnavailable, "FAQ_UNAVAILABLE", "FAQ system is not configured")
		return
	}
	tenantID := r.URL.Query().Get("tenant")
	if tenantID == "" {
		s.writeErrorResponse(w, http.StatusBadRequest, "INVALID_INPUT", "tenant query parameter is required")
		return
	}

	s.writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"faqs": s.faqs.All(r.Context(), tenantID),
	})
}

func (s *AdminAPIServer) handleCreateFAQ(w http.ResponseWriter, r *http.Request) {
	if s.faqs == nil {
		s.writeErrorResponse(w, http.StatusServiceUnavailable, "FAQ_UNAVAILABLE", "FAQ system is not configured")
		return
	}

	var req FAQCreateRequest
	if err := s.parseJSONRequest(r, &req); err != nil {
		s.writeErrorResponse(w, http.StatusBadRequest, "INVALID_INPUT", err.Error())
		return
	}
	if req.TenantID == "" || req.Question == "" || req.Answer == "" {
		s.writeErrorResponse(w, http.StatusBadRequest, "INVALID_INPUT", "tenant_id, question and answer are required")
		return
	}

	s.faqs.AddFAQ(r.Context(), req.TenantID, req.Question, req.Variations, req.Answer)
	s.writeJSONResponse(w, http.StatusCreated, map[string]interface{}{"created": true})
}

// Helper methods for JSON handling
func (s *AdminAPIServer) parseJSONRequest(r *http.Request, v interface{}) error {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return fmt.Errorf("failed to read request body: %w", err)
	}
	defer r.Body.Close()

	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("failed to parse JSON: %w", err)
	}

	return nil
}

func (s *AdminAPIServer) writeJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		observability.Errorf("Failed to encode JSON response: %v", err)
	}
}

func (s *AdminAPIServer) writeErrorResponse(w http.ResponseWriter, statusCode int, errorCode, message string) {
	errorResponse := map[string]interface{}{
		"error": map[string]interface{}{
			"code":      errorCode,
			"message":   message,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		},
	}

	s.writeJSONResponse(w, statusCode, errorResponse)
}
