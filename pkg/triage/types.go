// Package triage implements the cost-ordered decision pipeline every
// inbound message runs through: instant detectors first, then the response
// cache, then a cheap classification, and only when necessary the expensive
// generative model. One run per message; free checks always precede paid
// ones.
package triage

import (
	"strings"
	"time"
)

// Message is the immutable inbound message handed to the pipeline.
type Message struct {
	TenantID   string
	UserID     string
	Username   string
	ChannelID  string
	Text       string
	ReceivedAt time.Time
}

// State is the terminal state of one pipeline run.
type State string

const (
	StateAnswered   State = "answered"
	StateSilent     State = "silent"
	StateModerated  State = "moderated"
	StateFailedSafe State = "failed_safe"
)

// Source names where a response came from.
type Source string

const (
	SourceCache     Source = "cache"
	SourceDetector  Source = "detector"
	SourceCanned    Source = "canned"
	SourceFiltered  Source = "filtered"
	SourceFAQ       Source = "faq"
	SourceKnowledge Source = "knowledge"
	SourceModel     Source = "model"
	SourceFallback  Source = "fallback"
)

// ModerationAction is what the platform-side moderation collaborator should
// do with the offending message. The pipeline never enforces anything
// itself.
type ModerationAction string

const (
	ActionNone    ModerationAction = "none"
	ActionDelete  ModerationAction = "delete"
	ActionTimeout ModerationAction = "timeout"
)

// Outcome is the pipeline's verdict for one message. It is returned to the
// delivery collaborator and never mutated afterwards.
type Outcome struct {
	Response         string // empty means nothing should be sent
	Source           Source
	Classification   string // detector class or model category; empty when absent
	ModerationAction ModerationAction
	CostUnits        float64
	LatencyMs        int64
	State            State
}

// Category is the closed set of classifier outputs. Raw model strings are
// coerced through ParseCategory and never travel further.
type Category string

const (
	CategoryGreeting    Category = "greeting"
	CategoryJunk        Category = "junk"
	CategoryFAQ         Category = "faq"
	CategoryRulesIntent Category = "rules_intent"
	CategoryToxic       Category = "toxic"
	CategoryComplex     Category = "complex"
)

// ParseCategory maps a raw classifier string onto the closed category set.
// Anything unrecognized becomes complex: fail open toward the capable path,
// never toward silence.
func ParseCategory(raw string) Category {
	switch c := Category(strings.ToLower(strings.TrimSpace(raw))); c {
	case CategoryGreeting, CategoryJunk, CategoryFAQ, CategoryRulesIntent, CategoryToxic, CategoryComplex:
		return c
	default:
		return CategoryComplex
	}
}
