// Package analytics tallies community health counters fed by pipeline
// outcomes: activity per hour, daily sentiment, unanswered queries and top
// contributors. Counters live in memory and are flushed to an optional
// store on a schedule; losing a flush loses nothing the pipeline needs.
package analytics

import (
	"context"
	"sort"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/openclaw/openclaw/pkg/observability"
)

const (
	maxUnanswered      = 100
	unansweredQueryCap = 200 // stored query text is truncated to this many bytes
)

// Sentiment labels a message's tone.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNeutral  Sentiment = "neutral"
	SentimentNegative Sentiment = "negative"
)

// UnansweredQuery records a message the pipeline could not answer.
type UnansweredQuery struct {
	TenantID string
	UserID   string
	Query    string
	At       time.Time
}

// Contributor pairs a user with their helpful-contribution count.
type Contributor struct {
	UserID string
	Count  int
}

// SentimentCounts groups one day's sentiment tallies.
type SentimentCounts struct {
	Positive int `json:"positive"`
	Neutral  int `json:"neutral"`
	Negative int `json:"negative"`
}

// Summary is the per-tenant analytics snapshot.
type Summary struct {
	Heatmap         [24]int
	Sentiment       SentimentCounts
	UnansweredCount int
	Unanswered      []UnansweredQuery // most recent last, capped at 5
	TopContributors []Contributor     // capped at 5
}

// FlushStore is the optional persistence collaborator for analytics
// snapshots.
type FlushStore interface {
	SaveSentiment(ctx context.Context, tenantID, date string, counts SentimentCounts) error
	SaveActivity(ctx context.Context, tenantID, date string, hourly [24]int) error
}

// LogStore is a FlushStore that writes snapshots to the structured log, for
// deployments without a durable analytics store. Downstream log pipelines
// can aggregate the events; nothing in-process reads them back.
type LogStore struct{}

func (LogStore) SaveSentiment(_ context.Context, tenantID, date string, counts SentimentCounts) error {
	observability.LogEvent("analytics_sentiment", map[string]interface{}{
		"tenant_id": tenantID,
		"date":      date,
		"positive":  counts.Positive,
		"neutral":   counts.Neutral,
		"negative":  counts.Negative,
	})
	return nil
}

func (LogStore) SaveActivity(_ context.Context, tenantID, date string, hourly [24]int) error {
	observability.LogEvent("analytics_activity", map[string]interface{}{
		"tenant_id": tenantID,
		"date":      date,
		"hourly":    hourly,
	})
	return nil
}

// System holds the in-memory counters.
type System struct {
	mu             sync.Mutex
	hourlyActivity map[string]*[24]int        // tenantID -> per-hour counts
	sentiment      map[string]SentimentCounts // tenantID\x00date -> counts
	unanswered     []UnansweredQuery
	contributors   map[string]map[string]int // tenantID -> userID -> count
}

// NewSystem creates an empty analytics system.
func NewSystem() *System {
	return &System{
		hourlyActivity: make(map[string]*[24]int),
		sentiment:      make(map[string]SentimentCounts),
		contributors:   make(map[string]map[string]int),
	}
}

// TrackMessage counts one processed message in the tenant's hourly heatmap.
func (s *System) TrackMessage(tenantID string) {
	hour := time.Now().Hour()

	s.mu.Lock()
	defer s.mu.Unlock()

	counts, ok := s.hourlyActivity[tenantID]
	if !ok {
		counts = &[24]int{}
		s.hourlyActivity[tenantID] = counts
	}
	counts[hour]++
}

// TrackSentiment counts one message's sentiment for today.
func (s *System) TrackSentiment(tenantID string, sentiment Sentiment) {
	key := tenantID + "\x00" + time.Now().Format("2006-01-02")

	s.mu.Lock()
	defer s.mu.Unlock()

	counts := s.sentiment[key]
	switch sentiment {
	case SentimentPositive:
		counts.Positive++
	case SentimentNeutral:
		counts.Neutral++
	case SentimentNegative:
		counts.Negative++
	}
	s.sentiment[key] = counts
}

// TrackUnanswered records a query the pipeline failed to answer. The list
// keeps only the most recent entries and truncates long queries.
func (s *System) TrackUnanswered(tenantID, userID, query string) {
	query = truncateQuery(query)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.unanswered = append(s.unanswered, UnansweredQuery{
		TenantID: tenantID,
		UserID:   userID,
		Query:    query,
		At:       time.Now(),
	})
	if len(s.unanswered) > maxUnanswered {
		s.unanswered = s.unanswered[len(s.unanswered)-maxUnanswered:]
	}
}

// TrackContribution counts one helpful contribution by the user.
func (s *System) TrackContribution(tenantID, userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, ok := s.contributors[tenantID]
	if !ok {
		users = make(map[string]int)
		s.contributors[tenantID] = users
	}
	users[userID]++
}

// Summarize builds the tenant's analytics snapshot.
func (s *System) Summarize(tenantID string) Summary {
	s.mu.Lock()
	defer s.mu.Unlock()

	var sum Summary
	if counts, ok := s.hourlyActivity[tenantID]; ok {
		sum.Heatmap = *counts
	}
	sum.Sentiment = s.sentiment[tenantID+"\x00"+time.Now().Format("2006-01-02")]

	for _, q := range s.unanswered {
		if q.TenantID == tenantID {
			sum.UnansweredCount++
			sum.Unanswered = append(sum.Unanswered, q)
		}
	}
	if len(sum.Unanswered) > 5 {
		sum.Unanswered = sum.Unanswered[len(sum.Unanswered)-5:]
	}

	for userID, count := range s.contributors[tenantID] {
		sum.TopContributors = append(sum.TopContributors, Contributor{UserID: userID, Count: count})
	}
	sort.Slice(sum.TopContributors, func(i, j int) bool {
		if sum.TopContributors[i].Count != sum.TopContributors[j].Count {
			return sum.TopContributors[i].Count > sum.TopContributors[j].Count
		}
		return sum.TopContributors[i].UserID < sum.TopContributors[j].UserID
	})
	if len(sum.TopContributors) > 5 {
		sum.TopContributors = sum.TopContributors[:5]
	}
	return sum
}

// CheckMilestone reports whether a member count is a celebration milestone.
func CheckMilestone(memberCount int) bool {
	switch memberCount {
	case 100, 250, 500, 1000, 2500, 5000, 10000, 25000, 50000, 100000:
		return true
	}
	return false
}

// Flush persists current counters to the store. Safe to call from a
// scheduler; failures are logged and the counters stay in memory for the
// next attempt.
func (s *System) Flush(ctx context.Context, store FlushStore) {
	if store == nil {
		return
	}

	s.mu.Lock()
	sentiment := make(map[string]SentimentCounts, len(s.sentiment))
	for k, v := range s.sentiment {
		sentiment[k] = v
	}
	activity := make(map[string][24]int, len(s.hourlyActivity))
	for k, v := range s.hourlyActivity {
		activity[k] = *v
	}
	s.mu.Unlock()

	today := time.Now().Format("2006-01-02")
	for key, counts := range sentiment {
		tenantID, date, _ := splitKey(key)
		if err := store.SaveSentiment(ctx, tenantID, date, counts); err != nil {
			observability.Errorf("Analytics sentiment flush failed for tenant %s: %v", tenantID, err)
		}
	}
	for tenantID, hourly := range activity {
		if err := store.SaveActivity(ctx, tenantID, today, hourly); err != nil {
			observability.Errorf("Analytics activity flush failed for tenant %s: %v", tenantID, err)
		}
	}
	observability.Debugf("Analytics flushed: %d sentiment keys, %d tenants", len(sentiment), len(activity))
}

// truncateQuery bounds stored query text without splitting a UTF-8 rune.
func truncateQuery(query string) string {
	if len(query) <= unansweredQueryCap {
		return query
	}
	cut := unansweredQueryCap
	for cut > 0 && !utf8.RuneStart(query[cut]) {
		cut--
	}
	return query[:cut]
}

func splitKey(key string) (tenantID, date string, ok bool) {
	for i := 0; i < len(key); i++ {
		if key[i] == '\x00' {
			return key[:i], key[i+1:], true
		}
	}
	return key, "", false
}
