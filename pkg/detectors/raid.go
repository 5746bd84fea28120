package detectors

import (
	"sync"
	"time"

	"github.com/openclaw/openclaw/pkg/fingerprint"
)

// raidBucket tracks which distinct users posted one normalized message
// within the raid window. The user set only grows while the bucket is live;
// an expired bucket is replaced, never extended.
type raidBucket struct {
	firstSeen time.Time
	users     map[string]struct{}
}

// RaidDetector flags coordinated posting: several distinct users sending
// the same normalized text within a short window. Buckets are keyed by the
// shared message fingerprint.
type RaidDetector struct {
	mu        sync.Mutex
	buckets   map[string]*raidBucket
	window    time.Duration
	threshold int
}

// NewRaidDetector creates a detector with the given window and distinct-user
// threshold.
func NewRaidDetector(window time.Duration, threshold int) *RaidDetector {
	return &RaidDetector{
		buckets:   make(map[string]*raidBucket),
		window:    window,
		threshold: threshold,
	}
}

// Observe records that the user posted this text now and returns the number
// of distinct users in the live bucket for the text's fingerprint.
func (d *RaidDetector) Observe(text, userID string, now time.Time) int {
	fp := fingerprint.Of(text)

	d.mu.Lock()
	defer d.mu.Unlock()

	b, ok := d.buckets[fp]
	if !ok || now.Sub(b.firstSeen) > d.window {
		b = &raidBucket{firstSeen: now, users: make(map[string]struct{})}
		d.buckets[fp] = b
	}
	b.users[userID] = struct{}{}
	return len(b.users)
}

// Sweep discards buckets whose window has passed.
func (d *RaidDetector) Sweep(now time.Time) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for fp, b := range d.buckets {
		if now.Sub(b.firstSeen) > d.window {
			delete(d.buckets, fp)
		}
	}
}

// Len returns the number of live buckets. Used by tests and sweeps.
func (d *RaidDetector) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.buckets)
}
