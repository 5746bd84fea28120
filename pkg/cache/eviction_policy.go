package cache

import "time"

// Entry is the bookkeeping view of one cached response used by eviction
// policies.
type Entry struct {
	Key          string
	Value        string
	StoredAt     time.Time
	ExpiresAt    time.Time
	LastAccessAt time.Time
	HitCount     int
}

// EvictionPolicy selects which entry to drop when the in-memory backend is
// full. SelectVictim returns the index of the victim, or -1 for an empty set.
type EvictionPolicy interface {
	SelectVictim(entries []Entry) int
}

type FIFOPolicy struct{}

func (p *FIFOPolicy) SelectVictim(entries []Entry) int {
	if len(entries) == 0 {
		return -1
	}

	oldestIdx := 0
	for i := 1; i < len(entries); i++ {
		if entries[i].StoredAt.Before(entries[oldestIdx].StoredAt) {
			oldestIdx = i
		}
	}
	return oldestIdx
}

type LRUPolicy struct{}

func (p *LRUPolicy) SelectVictim(entries []Entry) int {
	if len(entries) == 0 {
		return -1
	}

	oldestIdx := 0
	for i := 1; i < len(entries); i++ {
		if entries[i].LastAccessAt.Before(entries[oldestIdx].LastAccessAt) {
			oldestIdx = i
		}
	}
	return oldestIdx
}

type LFUPolicy struct{}

func (p *LFUPolicy) SelectVictim(entries []Entry) int {
	if len(entries) == 0 {
		return -1
	}

	victimIdx := 0
	for i := 1; i < len(entries); i++ {
		if entries[i].HitCount < entries[victimIdx].HitCount {
			victimIdx = i
		} else if entries[i].HitCount == entries[victimIdx].HitCount {
			// Use LRU as tiebreaker to avoid random selection
			if entries[i].LastAccessAt.Before(entries[victimIdx].LastAccessAt) {
				victimIdx = i
			}
		}
	}
	return victimIdx
}

// NewEvictionPolicy maps a config name to a policy, defaulting to FIFO.
func NewEvictionPolicy(name string) EvictionPolicy {
	switch name {
	case "lru":
		return &LRUPolicy{}
	case "lfu":
		return &LFUPolicy{}
	default:
		return &FIFOPolicy{}
	}
}
