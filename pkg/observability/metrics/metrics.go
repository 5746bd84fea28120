package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// =============================================================================
// Triage Metrics - Prometheus metrics for the message triage pipeline
// =============================================================================

var (
	// MessagesProcessed tracks every message that enters the pipeline
	MessagesProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "triage_messages_total",
			Help: "The total number of messages processed by the triage pipeline",
		},
		[]string{"state", "classification", "source"},
	)

	// DetectorHits tracks instant detector matches by classification
	DetectorHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "triage_detector_hits_total",
			Help: "The total number of instant detector matches",
		},
		[]string{"classification"},
	)

	// CacheLookups tracks response cache hits and misses
	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "triage_cache_lookups_total",
			Help: "The total number of response cache lookups",
		},
		[]string{"result"},
	)

	// ModelCallLatency tracks the latency of classifier and responder calls
	ModelCallLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "triage_model_call_latency_seconds",
			Help:    "The duration of model collaborator calls in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"tier", "status"},
	)

	// CostUnits tracks the total cost units spent on model calls
	CostUnits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "triage_cost_units_total",
			Help: "The total cost units attributed to model calls",
		},
	)

	// KnowledgeSearchResults tracks the number of chunks returned per search
	KnowledgeSearchResults = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "triage_knowledge_search_results",
			Help:    "The number of knowledge chunks returned per search",
			Buckets: []float64{0, 1, 2, 3, 5, 10},
		},
	)

	// KnowledgeChunksIngested tracks ingested chunks by status
	KnowledgeChunksIngested = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "triage_knowledge_chunks_ingested_total",
			Help: "The total number of knowledge chunks processed during ingestion",
		},
		[]string{"status"},
	)
)

// RecordMessage records a completed pipeline run.
func RecordMessage(state, classification, source string) {
	if classification == "" {
		classification = "none"
	}
	if source == "" {
		source = "none"
	}
	MessagesProcessed.WithLabelValues(state, classification, source).Inc()
}

// RecordDetectorHit records an instant detector match.
func RecordDetectorHit(classification string) {
	DetectorHits.WithLabelValues(classification).Inc()
}

// RecordCacheLookup records a response cache hit or miss.
func RecordCacheLookup(hit bool) {
	if hit {
		CacheLookups.WithLabelValues("hit").Inc()
	} else {
		CacheLookups.WithLabelValues("miss").Inc()
	}
}

// RecordModelCall records a model collaborator call with its duration and cost.
func RecordModelCall(tier string, err error, seconds, cost float64) {
	status := "success"
	if err != nil {
		status = "error"
	}
	ModelCallLatency.WithLabelValues(tier, status).Observe(seconds)
	if cost > 0 {
		CostUnits.Add(cost)
	}
}

// RecordKnowledgeSearch records the result count of a knowledge search.
func RecordKnowledgeSearch(resultCount int) {
	KnowledgeSearchResults.Observe(float64(resultCount))
}

// RecordChunkIngested records a single chunk ingestion attempt.
func RecordChunkIngested(ok bool) {
	if ok {
		KnowledgeChunksIngested.WithLabelValues("stored").Inc()
	} else {
		KnowledgeChunksIngested.WithLabelValues("embed_failed").Inc()
	}
}
