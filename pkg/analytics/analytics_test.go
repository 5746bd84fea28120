package analytics

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrackMessage_Heatmap(t *testing.T) {
	s := NewSystem()
	s.TrackMessage("t1")
	s.TrackMessage("t1")
	s.TrackMessage("t2")

	hour := time.Now().Hour()
	assert.Equal(t, 2, s.Summarize("t1").Heatmap[hour])
	assert.Equal(t, 1, s.Summarize("t2").Heatmap[hour])
}

func TestTrackSentiment(t *testing.T) {
	s := NewSystem()
	s.TrackSentiment("t1", SentimentPositive)
	s.TrackSentiment("t1", SentimentPositive)
	s.TrackSentiment("t1", SentimentNegative)

	sum := s.Summarize("t1")
	assert.Equal(t, 2, sum.Sentiment.Positive)
	assert.Equal(t, 0, sum.Sentiment.Neutral)
	assert.Equal(t, 1, sum.Sentiment.Negative)

	assert.Zero(t, s.Summarize("t2").Sentiment.Positive, "sentiment is tenant scoped")
}

func TestTrackUnanswered_CapAndTruncation(t *testing.T) {
	s := NewSystem()

	long := make([]byte, 500)
	for i := range long {
		long[i] = 'x'
	}
	s.TrackUnanswered("t1", "u1", string(long))

	for i := 0; i < 150; i++ {
		s.TrackUnanswered("t1", "u1", fmt.Sprintf("query %d", i))
	}

	sum := s.Summarize("t1")
	assert.Equal(t, maxUnanswered, sum.UnansweredCount, "ring keeps the most recent 100")
	assert.Len(t, sum.Unanswered, 5, "summary exposes only the last 5")
	assert.Equal(t, "query 149", sum.Unanswered[4].Query)
}

func TestTrackUnanswered_TruncationKeepsValidUTF8(t *testing.T) {
	s := NewSystem()

	// 199 ASCII bytes then a two-byte rune straddling the cap
	query := strings.Repeat("x", unansweredQueryCap-1) + "é" + strings.Repeat("y", 50)
	s.TrackUnanswered("t1", "u1", query)

	stored := s.Summarize("t1").Unanswered[0].Query
	assert.LessOrEqual(t, len(stored), unansweredQueryCap)
	assert.True(t, utf8.ValidString(stored), "truncation must not split a rune")
	assert.Equal(t, strings.Repeat("x", unansweredQueryCap-1), stored)
}

func TestTopContributors(t *testing.T) {
	s := NewSystem()
	for i := 0; i < 3; i++ {
		s.TrackContribution("t1", "alice")
	}
	s.TrackContribution("t1", "bob")
	for i := 0; i < 7; i++ {
		s.TrackContribution("t1", fmt.Sprintf("user%d", i))
	}

	top := s.Summarize("t1").TopContributors
	require.Len(t, top, 5)
	assert.Equal(t, "alice", top[0].UserID)
	assert.Equal(t, 3, top[0].Count)
}

func TestCheckMilestone(t *testing.T) {
	assert.True(t, CheckMilestone(1000))
	assert.False(t, CheckMilestone(1001))
}

type recordingStore struct {
	sentiments int
	activities int
}

func (r *recordingStore) SaveSentiment(context.Context, string, string, SentimentCounts) error {
	r.sentiments++
	return nil
}

func (r *recordingStore) SaveActivity(context.Context, string, string, [24]int) error {
	r.activities++
	return nil
}

func TestFlush(t *testing.T) {
	s := NewSystem()
	s.TrackMessage("t1")
	s.TrackSentiment("t1", SentimentNeutral)

	store := &recordingStore{}
	s.Flush(context.Background(), store)
	assert.Equal(t, 1, store.sentiments)
	assert.Equal(t, 1, store.activities)

	// nil store is a no-op, not a panic
	assert.NotPanics(t, func() { s.Flush(context.Background(), nil) })
}

func TestFlush_LogStore(t *testing.T) {
	var _ FlushStore = LogStore{}

	s := NewSystem()
	s.TrackMessage("t1")
	s.TrackSentiment("t1", SentimentPositive)
	assert.NotPanics(t, func() { s.Flush(context.Background(), LogStore{}) })
}
