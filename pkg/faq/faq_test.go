package faq

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindAnswer_DefaultSet(t *testing.T) {
	s := NewSystem(nil)
	ctx := context.Background()

	answer, found := s.FindAnswer(ctx, "t1", "hey, what are the RULES here?")
	require.True(t, found)
	assert.Contains(t, answer, "community guidelines")

	answer, found = s.FindAnswer(ctx, "t1", "how much does this cost?")
	require.True(t, found)
	assert.Contains(t, answer, "$49/mo")
}

func TestFindAnswer_NoMatch(t *testing.T) {
	s := NewSystem(nil)
	_, found := s.FindAnswer(context.Background(), "t1", "what's the airspeed of an unladen swallow")
	assert.False(t, found)
}

func TestAddFAQ_InMemoryWithoutStore(t *testing.T) {
	s := NewSystem(nil)
	ctx := context.Background()

	s.AddFAQ(ctx, "t1", "events", []string{"when is the event", "next event"}, "Events run every Friday at 8pm UTC!")

	answer, found := s.FindAnswer(ctx, "t1", "When is the EVENT?")
	require.True(t, found)
	assert.Contains(t, answer, "Friday")
}

func TestAddFAQ_TenantScoped(t *testing.T) {
	s := NewSystem(nil)
	ctx := context.Background()

	s.AddFAQ(ctx, "t1", "secret", []string{"secret word"}, "the secret is blue")

	_, found := s.FindAnswer(ctx, "t2", "tell me the secret word")
	assert.False(t, found, "custom FAQ must not leak to another tenant")
}

type stubStore struct {
	faqs   map[string][]FAQ
	failed bool
}

func (s *stubStore) LoadFAQs(_ context.Context, tenantID string) ([]FAQ, error) {
	if s.failed {
		return nil, errors.New("store unreachable")
	}
	return s.faqs[tenantID], nil
}

func (s *stubStore) SaveFAQ(_ context.Context, tenantID string, f FAQ) error {
	if s.failed {
		return errors.New("store unreachable")
	}
	if s.faqs == nil {
		s.faqs = make(map[string][]FAQ)
	}
	s.faqs[tenantID] = append(s.faqs[tenantID], f)
	return nil
}

func TestFindAnswer_StoreBacked(t *testing.T) {
	store := &stubStore{faqs: map[string][]FAQ{
		"t1": {{Question: "shipping", Variations: []string{"delivery"}, Answer: "ships in 3 days"}},
	}}
	s := NewSystem(store)

	answer, found := s.FindAnswer(context.Background(), "t1", "how long is delivery?")
	require.True(t, found)
	assert.Equal(t, "ships in 3 days", answer)
}

func TestFindAnswer_StoreFailureServesDefaults(t *testing.T) {
	s := NewSystem(&stubStore{failed: true})

	answer, found := s.FindAnswer(context.Background(), "t1", "help me out")
	require.True(t, found, "store outage degrades to the default set")
	assert.Contains(t, answer, "here to help")
}
