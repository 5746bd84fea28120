package accounting

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTracker_EmptyReport(t *testing.T) {
	tr := NewTracker()
	r := tr.Report()

	assert.Zero(t, r.CheapCalls)
	assert.Zero(t, r.ExpensiveCalls)
	assert.Zero(t, r.CacheHitRate, "hit rate should be 0 with no lookups")
	assert.Zero(t, r.AverageCostPerMessage, "avg cost should be 0 with no calls")
}

func TestTracker_DerivedRates(t *testing.T) {
	tr := NewTracker()
	tr.RecordCacheHit()
	tr.RecordCacheHit()
	tr.RecordCacheHit()
	tr.RecordCacheMiss()

	tr.RecordCheapCall(0.00001)
	tr.RecordExpensiveCall(0.02)

	r := tr.Report()
	assert.InDelta(t, 0.75, r.CacheHitRate, 1e-9)
	assert.InDelta(t, 0.02001, r.TotalCost, 1e-9)
	assert.InDelta(t, 0.020010/2, r.AverageCostPerMessage, 1e-6)
}

func TestTracker_ReportIsIdempotent(t *testing.T) {
	tr := NewTracker()
	tr.RecordCheapCall(0.00001)
	tr.RecordCacheMiss()

	first := tr.Report()
	second := tr.Report()
	assert.Equal(t, first, second, "report must not mutate counters")
}

func TestTracker_ConcurrentIncrements(t *testing.T) {
	tr := NewTracker()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				tr.RecordCheapCall(0.001)
				tr.RecordCacheHit()
			}
		}()
	}
	wg.Wait()

	r := tr.Report()
	assert.Equal(t, int64(5000), r.CheapCalls)
	assert.Equal(t, int64(5000), r.CacheHits)
	assert.InDelta(t, 5.0, r.TotalCost, 1e-6)
}
