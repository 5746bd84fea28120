package rules

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRules(t *testing.T) {
	rules := ParseRules("Be respectful; No spam\nHave fun;  ")
	assert.Equal(t, []string{"Be respectful", "No spam", "Have fun"}, rules)
	assert.Empty(t, ParseRules("   "))
}

func TestManager_InMemoryRoundTrip(t *testing.T) {
	m := NewManager(nil)
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "t1", []string{"Be kind", "No spam"}))
	assert.Equal(t, []string{"Be kind", "No spam"}, m.Get(ctx, "t1"))
	assert.Empty(t, m.Get(ctx, "t2"), "rules are tenant scoped")
}

func TestManager_PromptContext(t *testing.T) {
	m := NewManager(nil)
	ctx := context.Background()

	assert.Contains(t, m.PromptContext(ctx, "t1"), "No rules have been set")

	require.NoError(t, m.Set(ctx, "t1", []string{"Be kind"}))
	prompt := m.PromptContext(ctx, "t1")
	assert.Contains(t, prompt, "1. Be kind")
}
