// Package detectors implements the instant check bank that runs before any
// paid model call: PII, phishing and zalgo pattern matching plus the
// stateful spam-rate and raid detectors. Checks are pure CPU work over the
// message text and in-memory window state; they never touch the network.
package detectors

import (
	"math/rand"
	"time"

	"github.com/openclaw/openclaw/pkg/observability"
	"github.com/openclaw/openclaw/pkg/observability/metrics"
)

// Classification identifies which detector matched.
type Classification string

const (
	ClassPII      Classification = "pii"
	ClassPhishing Classification = "phishing"
	ClassZalgo    Classification = "zalgo"
	ClassSpam     Classification = "spam"
	ClassRaid     Classification = "raid"
)

// Action is the moderation action a detector match demands.
type Action string

const (
	ActionDelete  Action = "delete"
	ActionTimeout Action = "timeout"
)

// Result is a positive detector match. Response is the canned user-facing
// notice; no model call is involved.
type Result struct {
	Classification Classification
	Action         Action
	Response       string
}

// Input is the slice of an inbound message the detectors need.
type Input struct {
	TenantID string
	UserID   string
	Text     string
}

var notices = map[Classification]string{
	ClassPII:      "Heads up! I removed your message because it looked like it contained personal information. Please keep things like phone numbers and addresses out of public channels.",
	ClassPhishing: "That message was removed because it matched known scam patterns. Stay safe and never click suspicious links!",
	ClassZalgo:    "That message was removed for heavily obfuscated text. Please post in plain text.",
	ClassSpam:     "Whoa, slow down! You're sending messages too quickly, so I've put you in a short timeout.",
	ClassRaid:     "Coordinated spam detected. The message was removed and senders have been timed out while moderators review.",
}

const (
	spamWindow    = 10 * time.Second
	spamThreshold = 5 // more than this many messages in the window is spam
	raidWindow    = 30 * time.Second
	raidThreshold = 3 // distinct users posting identical content

	// roughly 1% of checks trigger an inline sweep of stale window state
	sweepProbability = 0.01
)

// Bank evaluates all instant detectors in fixed priority order.
// Stateless pattern checks come first, then the stateful window checks.
type Bank struct {
	spam *SpamRateDetector
	raid *RaidDetector
}

// NewBank creates a detector bank with fresh window state.
func NewBank() *Bank {
	return &Bank{
		spam: NewSpamRateDetector(spamWindow, spamThreshold),
		raid: NewRaidDetector(raidWindow, raidThreshold),
	}
}

// Check runs the detectors in priority order and returns the first match,
// or nil when the message is clean. First match wins: a PII hit means the
// spam and raid windows are not advanced for this message.
func (b *Bank) Check(in Input) *Result {
	defer b.maybeSweep()

	if matchPII(in.Text) {
		return b.hit(in, ClassPII, ActionDelete)
	}
	if matchPhishing(in.Text) {
		return b.hit(in, ClassPhishing, ActionDelete)
	}
	if matchZalgo(in.Text) {
		return b.hit(in, ClassZalgo, ActionDelete)
	}
	if b.spam.Observe(in.TenantID, in.UserID, time.Now()) > spamThreshold {
		return b.hit(in, ClassSpam, ActionTimeout)
	}
	if b.raid.Observe(in.Text, in.UserID, time.Now()) >= raidThreshold {
		return b.hit(in, ClassRaid, ActionTimeout)
	}
	return nil
}

func (b *Bank) hit(in Input, class Classification, action Action) *Result {
	metrics.RecordDetectorHit(string(class))
	observability.LogEvent("detector_hit", map[string]interface{}{
		"tenant_id":      in.TenantID,
		"user_id":        in.UserID,
		"classification": string(class),
		"action":         string(action),
	})
	return &Result{
		Classification: class,
		Action:         action,
		Response:       notices[class],
	}
}

// Sweep removes empty rate windows and stale raid buckets. Safe to call
// from a scheduler goroutine; it only contends on the detector locks.
func (b *Bank) Sweep() {
	b.spam.Sweep(time.Now())
	b.raid.Sweep(time.Now())
}

func (b *Bank) maybeSweep() {
	if rand.Float64() < sweepProbability {
		b.Sweep()
	}
}
