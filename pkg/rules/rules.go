// Package rules manages each tenant's community rules and builds the
// rules-specialist prompt context for the pipeline's rules_intent branch.
// The approval workflow around rule changes is a platform concern; this
// package only stores and formats the rules themselves.
package rules

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/openclaw/openclaw/pkg/observability"
)

// Store is the optional document-store collaborator for rules, tenant
// scoped like every other store in the system.
type Store interface {
	LoadRules(ctx context.Context, tenantID string) ([]string, error)
	SaveRules(ctx context.Context, tenantID string, rules []string) error
}

// Manager serves tenant rules with an in-memory fallback when no store is
// configured or the store is down.
type Manager struct {
	store Store

	mu     sync.RWMutex
	memory map[string][]string // tenantID -> rules
}

// NewManager creates a rules manager. store may be nil.
func NewManager(store Store) *Manager {
	return &Manager{store: store, memory: make(map[string][]string)}
}

// ParseRules splits free-form rules text on semicolons and newlines.
func ParseRules(text string) []string {
	var out []string
	for _, part := range strings.FieldsFunc(text, func(r rune) bool {
		return r == ';' || r == '\n'
	}) {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// Get returns the tenant's rules. Store failures degrade to the in-memory
// copy, which may be empty.
func (m *Manager) Get(ctx context.Context, tenantID string) []string {
	if m.store != nil {
		rules, err := m.store.LoadRules(ctx, tenantID)
		if err == nil {
			return rules
		}
		observability.Warnf("Rules load failed for tenant %s, using in-memory copy: %v", tenantID, err)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.memory[tenantID]
}

// Set replaces the tenant's rules.
func (m *Manager) Set(ctx context.Context, tenantID string, rules []string) error {
	m.mu.Lock()
	m.memory[tenantID] = rules
	m.mu.Unlock()

	if m.store == nil {
		return nil
	}
	if err := m.store.SaveRules(ctx, tenantID, rules); err != nil {
		return fmt.Errorf("save rules for tenant %s: %w", tenantID, err)
	}
	return nil
}

// PromptContext formats the tenant's rules for the rules-specialist
// persona prompt.
func (m *Manager) PromptContext(ctx context.Context, tenantID string) string {
	rules := m.Get(ctx, tenantID)
	if len(rules) == 0 {
		return "No rules have been set for this community yet."
	}

	var b strings.Builder
	b.WriteString("Current community rules:\n")
	for i, r := range rules {
		fmt.Fprintf(&b, "%d. %s\n", i+1, r)
	}
	return b.String()
}
