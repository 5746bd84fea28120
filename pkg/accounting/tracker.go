// Package accounting tracks model call counts and spend for the triage
// pipeline. Counters are process-wide and purely additive; persistence and
// external reporting belong to observability collaborators.
package accounting

import (
	"math"
	"sync/atomic"
)

// Tracker holds the cost and cache counters mutated by the pipeline.
// All methods are safe for concurrent use.
type Tracker struct {
	cheapCalls     atomic.Int64
	expensiveCalls atomic.Int64
	cacheHits      atomic.Int64
	cacheMisses    atomic.Int64
	totalCostBits  atomic.Uint64 // float64 bits, updated via CAS
}

// Report is a point-in-time snapshot of the tracker.
type Report struct {
	CheapCalls            int64   `json:"cheap_calls"`
	ExpensiveCalls        int64   `json:"expensive_calls"`
	CacheHits             int64   `json:"cache_hits"`
	CacheMisses           int64   `json:"cache_misses"`
	TotalCost             float64 `json:"total_cost"`
	CacheHitRate          float64 `json:"cache_hit_rate"`
	AverageCostPerMessage float64 `json:"average_cost_per_message"`
}

// NewTracker creates a zeroed tracker.
func NewTracker() *Tracker {
	return &Tracker{}
}

// RecordCheapCall counts one cheap classifier call and its cost.
func (t *Tracker) RecordCheapCall(cost float64) {
	t.cheapCalls.Add(1)
	t.addCost(cost)
}

// RecordExpensiveCall counts one expensive responder call and its cost.
func (t *Tracker) RecordExpensiveCall(cost float64) {
	t.expensiveCalls.Add(1)
	t.addCost(cost)
}

// RecordCacheHit counts one response cache hit.
func (t *Tracker) RecordCacheHit() {
	t.cacheHits.Add(1)
}

// RecordCacheMiss counts one response cache miss.
func (t *Tracker) RecordCacheMiss() {
	t.cacheMisses.Add(1)
}

func (t *Tracker) addCost(cost float64) {
	if cost <= 0 {
		return
	}
	for {
		old := t.totalCostBits.Load()
		next := math.Float64bits(math.Float64frombits(old) + cost)
		if t.totalCostBits.CompareAndSwap(old, next) {
			return
		}
	}
}

// TotalCost returns the accumulated cost units.
func (t *Tracker) TotalCost() float64 {
	return math.Float64frombits(t.totalCostBits.Load())
}

// Report returns the current counters plus derived rates. Calling it has no
// side effects: two reports without intervening events are identical.
func (t *Tracker) Report() Report {
	r := Report{
		CheapCalls:     t.cheapCalls.Load(),
		ExpensiveCalls: t.expensiveCalls.Load(),
		CacheHits:      t.cacheHits.Load(),
		CacheMisses:    t.cacheMisses.Load(),
		TotalCost:      t.TotalCost(),
	}
	if lookups := r.CacheHits + r.CacheMisses; lookups > 0 {
		r.CacheHitRate = float64(r.CacheHits) / float64(lookups)
	}
	if calls := r.CheapCalls + r.ExpensiveCalls; calls > 0 {
		r.AverageCostPerMessage = r.TotalCost / float64(calls)
	}
	return r
}
