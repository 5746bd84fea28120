package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openclaw/openclaw/pkg/accounting"
	"github.com/openclaw/openclaw/pkg/analytics"
	"github.com/openclaw/openclaw/pkg/faq"
	"github.com/openclaw/openclaw/pkg/rag"
	"github.com/openclaw/openclaw/pkg/rules"
)

type fixedEmbedder struct{}

func (fixedEmbedder) Embed(_ context.Context, text string) ([]float64, error) {
	vec := []float64{0.1, 0.1}
	if strings.Contains(strings.ToLower(text), "shipping") {
		vec[0] = 1
	}
	return vec, nil
}

func newTestServer() (*AdminAPIServer, *http.ServeMux) {
	s := NewServer(Options{
		Tracker:   accounting.NewTracker(),
		Analytics: analytics.NewSystem(),
		Knowledge: rag.NewSystem(rag.SystemOptions{Embedder: fixedEmbedder{}}),
		Rules:     rules.NewManager(nil),
		FAQs:      faq.NewSystem(nil),
	})
	return s, s.setupRoutes()
}

func doJSON(t *testing.T, mux *http.ServeMux, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	_, mux := newTestServer()
	rec := doJSON(t, mux, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "healthy")
}

func TestStats_RequiresTenant(t *testing.T) {
	_, mux := newTestServer()
	rec := doJSON(t, mux, http.MethodGet, "/api/v1/stats", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStats(t *testing.T) {
	s, mux := newTestServer()
	s.tracker.RecordCheapCall(0.00001)
	s.analytics.TrackMessage("t1")
	s.analytics.TrackSentiment("t1", analytics.SentimentPositive)

	rec := doJSON(t, mux, http.MethodGet, "/api/v1/stats?tenant=t1", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp StatsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, int64(1), resp.Costs.CheapCalls)
	assert.Equal(t, 1, resp.Sentiment.Positive)
}

func TestKnowledgeIngestAndStats(t *testing.T) {
	_, mux := newTestServer()

	rec := doJSON(t, mux, http.MethodPost, "/api/v1/knowledge/ingest",
		`{"tenant_id": "t1", "filename": "shipping.md", "content": "Shipping takes 3-5 business days."}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "chunks_stored")

	rec = doJSON(t, mux, http.MethodGet, "/api/v1/knowledge/stats?tenant=t1", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var stats map[string]int
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, 1, stats["documents"])
	assert.GreaterOrEqual(t, stats["total_chunks"], 1)

	rec = doJSON(t, mux, http.MethodDelete, "/api/v1/knowledge?tenant=t1", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, mux, http.MethodGet, "/api/v1/knowledge/stats?tenant=t1", "")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Zero(t, stats["total_chunks"])
}

func TestKnowledgeIngest_Validation(t *testing.T) {
	_, mux := newTestServer()

	rec := doJSON(t, mux, http.MethodPost, "/api/v1/knowledge/ingest", `{"tenant_id": "t1"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, mux, http.MethodPost, "/api/v1/knowledge/ingest", `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRulesRoundTrip(t *testing.T) {
	_, mux := newTestServer()

	rec := doJSON(t, mux, http.MethodPut, "/api/v1/rules",
		`{"tenant_id": "t1", "rules_text": "Be kind; No spam"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, mux, http.MethodGet, "/api/v1/rules?tenant=t1", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string][]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, []string{"Be kind", "No spam"}, resp["rules"])
}

func TestFAQCreateAndList(t *testing.T) {
	_, mux := newTestServer()

	rec := doJSON(t, mux, http.MethodPost, "/api/v1/faqs",
		`{"tenant_id": "t1", "question": "launch date", "answer": "We launch in October."}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, mux, http.MethodGet, "/api/v1/faqs?tenant=t1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "launch date")
}

func TestNilCollaboratorsReturn503(t *testing.T) {
	s := NewServer(Options{})
	mux := s.setupRoutes()

	rec := doJSON(t, mux, http.MethodPost, "/api/v1/knowledge/ingest", `{"tenant_id":"t1","content":"x"}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = doJSON(t, mux, http.MethodGet, "/api/v1/rules?tenant=t1", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
