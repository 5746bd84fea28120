package triage

import (
	"context"
	"math/rand"
	"strings"
	"time"

	"github.com/openclaw/openclaw/pkg/accounting"
	"github.com/openclaw/openclaw/pkg/analytics"
	"github.com/openclaw/openclaw/pkg/cache"
	"github.com/openclaw/openclaw/pkg/detectors"
	"github.com/openclaw/openclaw/pkg/events"
	"github.com/openclaw/openclaw/pkg/faq"
	"github.com/openclaw/openclaw/pkg/observability"
	"github.com/openclaw/openclaw/pkg/observability/metrics"
	"github.com/openclaw/openclaw/pkg/persona"
	"github.com/openclaw/openclaw/pkg/rag"
	"github.com/openclaw/openclaw/pkg/rules"
)

// Default per-call cost units for the two model tiers.
const (
	DefaultCheapCost     = 0.00001
	DefaultExpensiveCost = 0.02
)

// Classifier is the cheap model tier: one short call that buckets a message.
type Classifier interface {
	Classify(ctx context.Context, text string) (string, error)
}

// Responder is the expensive model tier used only when a message earns it.
type Responder interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Options wires a pipeline's collaborators. Classifier and Responder are
// required; everything else degrades gracefully when nil.
type Options struct {
	Detectors  *detectors.Bank
	Cache      *cache.ResponseCache
	Knowledge  *rag.System
	FAQs       *faq.System
	Rules      *rules.Manager
	Classifier Classifier
	Responder  Responder
	Tracker    *accounting.Tracker
	Analytics  *analytics.System
	Bus        *events.Bus

	CheapCost     float64
	ExpensiveCost float64
}

// Pipeline runs each message through the staged checks in strict cost
// order. One message, one run, one outcome.
type Pipeline struct {
	detectors  *detectors.Bank
	cache      *cache.ResponseCache
	knowledge  *rag.System
	faqs       *faq.System
	rules      *rules.Manager
	classifier Classifier
	responder  Responder
	tracker    *accounting.Tracker
	analytics  *analytics.System
	bus        *events.Bus

	cheapCost     float64
	expensiveCost float64
}

// NewPipeline builds a pipeline from options, filling in defaults for the
// detector bank, tracker and costs.
func NewPipeline(opts Options) *Pipeline {
	p := &Pipeline{
		detectors:     opts.Detectors,
		cache:         opts.Cache,
		knowledge:     opts.Knowledge,
		faqs:          opts.FAQs,
		rules:         opts.Rules,
		classifier:    opts.Classifier,
		responder:     opts.Responder,
		tracker:       opts.Tracker,
		analytics:     opts.Analytics,
		bus:           opts.Bus,
		cheapCost:     opts.CheapCost,
		expensiveCost: opts.ExpensiveCost,
	}
	if p.detectors == nil {
		p.detectors = detectors.NewBank()
	}
	if p.tracker == nil {
		p.tracker = accounting.NewTracker()
	}
	if p.cheapCost <= 0 {
		p.cheapCost = DefaultCheapCost
	}
	if p.expensiveCost <= 0 {
		p.expensiveCost = DefaultExpensiveCost
	}
	return p
}

// Tracker exposes the pipeline's cost tracker for reporting surfaces.
func (p *Pipeline) Tracker() *accounting.Tracker {
	return p.tracker
}

// Process triages one message and returns its outcome. It never returns an
// error and never panics: any failure that escapes the staged handling
// degrades to a failed-safe apology at zero model cost.
func (p *Pipeline) Process(ctx context.Context, msg Message, per persona.Persona) Outcome {
	start := time.Now()

	out := func() (out Outcome) {
		defer func() {
			if r := recover(); r != nil {
				observability.Errorf("Pipeline panic for tenant %s: %v", msg.TenantID, r)
				out = Outcome{
					State:            StateFailedSafe,
					Response:         FallbackResponse,
					Source:           SourceFallback,
					ModerationAction: ActionNone,
				}
			}
		}()
		return p.run(ctx, msg, per)
	}()

	out.LatencyMs = time.Since(start).Milliseconds()
	p.finalize(msg, out)
	return out
}

func (p *Pipeline) run(ctx context.Context, msg Message, per persona.Persona) Outcome {
	// Stage 1: instant detectors. Free, and a hit short-circuits everything
	// downstream, so abusive content never reaches a model or the cache.
	if res := p.detectors.Check(detectors.Input{TenantID: msg.TenantID, UserID: msg.UserID, Text: msg.Text}); res != nil {
		return Outcome{
			State:            StateModerated,
			Response:         res.Response,
			Source:           SourceDetector,
			Classification:   string(res.Classification),
			ModerationAction: ModerationAction(res.Action),
		}
	}

	// Stage 2: response cache. A hit costs nothing and skips both model
	// tiers.
	if cached, ok := p.cache.Lookup(ctx, msg.TenantID, msg.Text); ok {
		p.tracker.RecordCacheHit()
		return Outcome{
			State:            StateAnswered,
			Response:         cached,
			Source:           SourceCache,
			ModerationAction: ActionNone,
		}
	}
	p.tracker.RecordCacheMiss()

	// Stage 3: cheap classification, then branch.
	var cost float64
	category := p.classify(ctx, msg.Text, &cost)
	out := p.respond(ctx, msg, per, category, &cost)
	out.CostUnits = cost

	// Stage 4: cache write-back for answered outcomes only. Moderation and
	// silence are never cached; a cached verdict would leak one user's
	// punishment onto another's identical text.
	if out.State == StateAnswered && out.Source != SourceFallback {
		p.cache.Store(ctx, msg.TenantID, msg.Text, out.Response)
	}
	return out
}

// classify runs the cheap tier and coerces whatever comes back onto the
// closed category set. Errors and unknown labels both land on complex.
func (p *Pipeline) classify(ctx context.Context, text string, cost *float64) Category {
	start := time.Now()
	raw, err := p.classifier.Classify(ctx, text)
	metrics.RecordModelCall("cheap", err, time.Since(start).Seconds(), p.cheapCost)
	p.tracker.RecordCheapCall(p.cheapCost)
	*cost += p.cheapCost

	if err != nil {
		observability.Warnf("Classification failed, treating message as complex: %v", err)
		return CategoryComplex
	}
	category := ParseCategory(raw)
	if string(category) != strings.ToLower(strings.TrimSpace(raw)) {
		observability.Debugf("Coerced unknown classifier output %q to %s", raw, category)
	}
	return category
}

func (p *Pipeline) respond(ctx context.Context, msg Message, per persona.Persona, category Category, cost *float64) Outcome {
	switch category {
	case CategoryGreeting:
		return Outcome{
			State:            StateAnswered,
			Response:         greetings[rand.Intn(len(greetings))],
			Source:           SourceCanned,
			Classification:   string(category),
			ModerationAction: ActionNone,
		}

	case CategoryJunk:
		return Outcome{
			State:            StateSilent,
			Source:           SourceFiltered,
			Classification:   string(category),
			ModerationAction: ActionNone,
		}

	case CategoryFAQ:
		if p.faqs != nil {
			if answer, ok := p.faqs.FindAnswer(ctx, msg.TenantID, msg.Text); ok {
				return Outcome{
					State:            StateAnswered,
					Response:         answer,
					Source:           SourceFAQ,
					Classification:   string(category),
					ModerationAction: ActionNone,
				}
			}
		}
		if p.knowledge != nil {
			if passages := p.knowledge.Search(ctx, msg.TenantID, msg.Text, rag.DefaultTopK); len(passages) > 0 {
				response, ok := p.generate(ctx, buildGroundedPrompt(per, msg.Text, passages), cost)
				source := SourceKnowledge
				if !ok {
					source = SourceFallback
				}
				return Outcome{
					State:            StateAnswered,
					Response:         response,
					Source:           source,
					Classification:   string(category),
					ModerationAction: ActionNone,
				}
			}
		}
		return p.generateOutcome(ctx, buildPersonaPrompt(per, msg.Text), category, cost)

	case CategoryRulesIntent:
		rulesContext := "No rules have been set for this server yet."
		if p.rules != nil {
			rulesContext = p.rules.PromptContext(ctx, msg.TenantID)
		}
		return p.generateOutcome(ctx, buildRulesPrompt(rulesContext, msg.Text), category, cost)

	case CategoryToxic:
		return p.assessToxicity(ctx, msg, cost)

	default:
		return p.generateOutcome(ctx, buildPersonaPrompt(per, msg.Text), category, cost)
	}
}

// assessToxicity grades model-flagged toxicity with one expensive call.
// Low severity is only monitored; everything else is removed with a notice
// whose firmness scales with the grade. An unparseable assessment escalates
// rather than acquits.
func (p *Pipeline) assessToxicity(ctx context.Context, msg Message, cost *float64) Outcome {
	raw, ok := p.generate(ctx, buildSeverityPrompt(msg.Text), cost)
	assessment := severityAssessment{Severity: 5, Reason: "assessment unavailable", Action: "escalate"}
	if ok {
		assessment = parseSeverity(raw)
	}
	observability.LogEvent("toxicity_assessed", map[string]interface{}{
		"tenant_id": msg.TenantID,
		"user_id":   msg.UserID,
		"severity":  assessment.Severity,
		"action":    assessment.Action,
		"reason":    assessment.Reason,
	})

	switch {
	case assessment.Severity <= 3:
		return Outcome{
			State:            StateSilent,
			Source:           SourceFiltered,
			Classification:   string(CategoryToxic),
			ModerationAction: ActionNone,
		}
	case assessment.Severity >= 7:
		return Outcome{
			State:            StateModerated,
			Response:         firmModerationNotice,
			Source:           SourceModel,
			Classification:   string(CategoryToxic),
			ModerationAction: ActionDelete,
		}
	default:
		return Outcome{
			State:            StateModerated,
			Response:         softModerationNotice,
			Source:           SourceModel,
			Classification:   string(CategoryToxic),
			ModerationAction: ActionDelete,
		}
	}
}

func (p *Pipeline) generateOutcome(ctx context.Context, prompt string, category Category, cost *float64) Outcome {
	response, ok := p.generate(ctx, prompt, cost)
	source := SourceModel
	if !ok {
		source = SourceFallback
	}
	return Outcome{
		State:            StateAnswered,
		Response:         response,
		Source:           source,
		Classification:   string(category),
		ModerationAction: ActionNone,
	}
}

// generate runs the expensive tier. The call is paid for whether or not it
// succeeds; failures yield the fixed fallback string.
func (p *Pipeline) generate(ctx context.Context, prompt string, cost *float64) (string, bool) {
	start := time.Now()
	text, err := p.responder.Generate(ctx, prompt)
	metrics.RecordModelCall("expensive", err, time.Since(start).Seconds(), p.expensiveCost)
	p.tracker.RecordExpensiveCall(p.expensiveCost)
	*cost += p.expensiveCost

	if err != nil || strings.TrimSpace(text) == "" {
		observability.Warnf("Responder failed, using fallback response: %v", err)
		return FallbackResponse, false
	}
	return text, true
}

// finalize records the outcome in metrics, analytics and the event bus.
// It runs for every message, including failed-safe ones.
func (p *Pipeline) finalize(msg Message, out Outcome) {
	metrics.RecordMessage(string(out.State), out.Classification, string(out.Source))

	if p.analytics != nil {
		p.analytics.TrackMessage(msg.TenantID)
		p.analytics.TrackSentiment(msg.TenantID, sentimentFor(out))
		if out.Source == SourceFallback || out.State == StateFailedSafe {
			p.analytics.TrackUnanswered(msg.TenantID, msg.UserID, msg.Text)
		}
	}

	if p.bus != nil {
		p.bus.Publish(events.Event{
			TenantID:       msg.TenantID,
			UserID:         msg.UserID,
			ChannelID:      msg.ChannelID,
			State:          string(out.State),
			Classification: out.Classification,
			Source:         string(out.Source),
			Action:         string(out.ModerationAction),
			CostUnits:      out.CostUnits,
			LatencyMs:      out.LatencyMs,
			At:             time.Now(),
		})
	}

	observability.LogEvent("message_triaged", map[string]interface{}{
		"tenant_id":      msg.TenantID,
		"user_id":        msg.UserID,
		"state":          string(out.State),
		"classification": out.Classification,
		"source":         string(out.Source),
		"action":         string(out.ModerationAction),
		"cost_units":     out.CostUnits,
		"latency_ms":     out.LatencyMs,
	})
}

func sentimentFor(out Outcome) analytics.Sentiment {
	switch {
	case out.Classification == string(CategoryToxic) || out.State == StateModerated:
		return analytics.SentimentNegative
	case out.Classification == string(CategoryGreeting):
		return analytics.SentimentPositive
	default:
		return analytics.SentimentNeutral
	}
}
