package detectors

import (
	"sync"
	"time"
)

// SpamRateDetector keeps a sliding window of message timestamps per
// tenant+user. Timestamps are appended in arrival order and pruned lazily on
// each observation; Sweep drops windows that emptied out.
type SpamRateDetector struct {
	mu        sync.Mutex
	windows   map[string][]time.Time // tenant\x00user -> ordered timestamps
	window    time.Duration
	threshold int
}

// NewSpamRateDetector creates a detector with the given window and threshold.
func NewSpamRateDetector(window time.Duration, threshold int) *SpamRateDetector {
	return &SpamRateDetector{
		windows:   make(map[string][]time.Time),
		window:    window,
		threshold: threshold,
	}
}

func rateKey(tenantID, userID string) string {
	return tenantID + "\x00" + userID
}

// Observe records one message from the user at the given instant and returns
// how many of their messages fall inside the window, this one included.
func (d *SpamRateDetector) Observe(tenantID, userID string, now time.Time) int {
	d.mu.Lock()
	defer d.mu.Unlock()

	key := rateKey(tenantID, userID)
	cutoff := now.Add(-d.window)

	ts := d.windows[key]
	// drop expired entries from the front; the slice stays ordered
	i := 0
	for i < len(ts) && ts[i].Before(cutoff) {
		i++
	}
	ts = append(ts[i:], now)
	d.windows[key] = ts
	return len(ts)
}

// Sweep removes windows whose entries have all expired.
func (d *SpamRateDetector) Sweep(now time.Time) {
	d.mu.Lock()
	defer d.mu.Unlock()

	cutoff := now.Add(-d.window)
	for key, ts := range d.windows {
		if len(ts) == 0 || !ts[len(ts)-1].After(cutoff) {
			delete(d.windows, key)
		}
	}
}

// Len returns the number of tracked windows. Used by tests and sweeps.
func (d *SpamRateDetector) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.windows)
}
