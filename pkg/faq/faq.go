// Package faq answers common questions from a tenant-scoped FAQ set before
// any knowledge search or model call is spent. Matching is plain substring
// lookup over questions and their variations.
package faq

import (
	"context"
	"strings"
	"sync"

	"github.com/openclaw/openclaw/pkg/observability"
)

// FAQ is one question with its accepted phrasings and canned answer.
type FAQ struct {
	Question   string   `json:"question"`
	Variations []string `json:"variations"`
	Answer     string   `json:"answer"`
	IsDefault  bool     `json:"is_default"`
}

// Store is the optional document-store collaborator for FAQs. All
// operations are tenant scoped.
type Store interface {
	LoadFAQs(ctx context.Context, tenantID string) ([]FAQ, error)
	SaveFAQ(ctx context.Context, tenantID string, faq FAQ) error
}

// defaultFAQs seed every new tenant.
var defaultFAQs = []FAQ{
	{
		Question:   "rules",
		Variations: []string{"rules", "what are the rules", "server rules", "guidelines"},
		Answer:     "Please check the rules channel for our community guidelines! The main ones are: be respectful, no spam, and have fun!",
		IsDefault:  true,
	},
	{
		Question:   "roles",
		Variations: []string{"how do i get roles", "roles", "color roles", "assign roles"},
		Answer:     "You can get roles by reacting in the roles channel or using the /role command!",
		IsDefault:  true,
	},
	{
		Question:   "help",
		Variations: []string{"help", "support", "i need help", "assistance"},
		Answer:     "I'm here to help! What do you need assistance with? You can also ping a moderator if it's urgent.",
		IsDefault:  true,
	},
	{
		Question:   "pricing",
		Variations: []string{"how much", "price", "cost", "is it free", "subscription"},
		Answer:     "Our Pro tier is $49/mo and Business is $99/mo. Both include unlimited AI responses! Check our website for details.",
		IsDefault:  true,
	},
	{
		Question:   "bot",
		Variations: []string{"what is this bot", "who are you", "what do you do", "bot help"},
		Answer:     "I'm your community assistant! I can answer questions, help with moderation, and keep track of community stats.",
		IsDefault:  true,
	},
}

// System serves FAQ lookups with a per-tenant cache over the optional
// store. Without a store, tenants get the default set plus any in-memory
// additions.
type System struct {
	store Store

	mu    sync.RWMutex
	cache map[string][]FAQ // tenantID -> faqs
}

// NewSystem creates an FAQ system. store may be nil.
func NewSystem(store Store) *System {
	return &System{store: store, cache: make(map[string][]FAQ)}
}

// FindAnswer returns the answer of the first FAQ whose question or any
// variation appears in the query. The second return is false when nothing
// matches.
func (s *System) FindAnswer(ctx context.Context, tenantID, query string) (string, bool) {
	lower := strings.ToLower(query)

	for _, f := range s.tenantFAQs(ctx, tenantID) {
		if f.Question != "" && strings.Contains(lower, strings.ToLower(f.Question)) {
			return f.Answer, true
		}
		for _, v := range f.Variations {
			if strings.Contains(lower, strings.ToLower(v)) {
				return f.Answer, true
			}
		}
	}
	return "", false
}

// AddFAQ stores a custom FAQ for the tenant and invalidates its cache.
// Store failures degrade to an in-memory-only entry.
func (s *System) AddFAQ(ctx context.Context, tenantID, question string, variations []string, answer string) {
	f := FAQ{
		Question:   strings.ToLower(question),
		Variations: lowerAll(variations),
		Answer:     answer,
	}

	if s.store != nil {
		if err := s.store.SaveFAQ(ctx, tenantID, f); err == nil {
			s.invalidate(tenantID)
			return
		} else {
			observability.Warnf("FAQ save failed for tenant %s, keeping in memory: %v", tenantID, err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	faqs, ok := s.cache[tenantID]
	if !ok {
		faqs = append([]FAQ(nil), defaultFAQs...)
	}
	s.cache[tenantID] = append(faqs, f)
}

// All returns the tenant's full FAQ set.
func (s *System) All(ctx context.Context, tenantID string) []FAQ {
	return s.tenantFAQs(ctx, tenantID)
}

func (s *System) tenantFAQs(ctx context.Context, tenantID string) []FAQ {
	s.mu.RLock()
	cached, ok := s.cache[tenantID]
	s.mu.RUnlock()
	if ok {
		return cached
	}

	faqs := defaultFAQs
	if s.store != nil {
		loaded, err := s.store.LoadFAQs(ctx, tenantID)
		switch {
		case err != nil:
			observability.Warnf("FAQ load failed for tenant %s, serving defaults: %v", tenantID, err)
		case len(loaded) > 0:
			faqs = loaded
		}
	}

	s.mu.Lock()
	s.cache[tenantID] = faqs
	s.mu.Unlock()
	return faqs
}

func (s *System) invalidate(tenantID string) {
	s.mu.Lock()
	delete(s.cache, tenantID)
	s.mu.Unlock()
}

func lowerAll(in []string) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.ToLower(v)
	}
	return out
}
