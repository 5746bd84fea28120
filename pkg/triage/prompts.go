package triage

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/openclaw/openclaw/pkg/persona"
)

// FallbackResponse is sent whenever the expensive responder fails. It is a
// fixed string so failures cost nothing extra and look the same everywhere.
const FallbackResponse = "I'm having a little trouble thinking right now. Please try again in a moment!"

var greetings = []string{
	"Hey there! How's it going?",
	"Hello! Great to see you!",
	"Hi! What's up?",
	"Hey! Welcome to the conversation!",
}

func buildPersonaPrompt(per persona.Persona, text string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are %s, a %s for a community chat server. Your tone is %s.\n", per.Name, per.Description, per.Tone)
	b.WriteString("Keep responses short (1-3 sentences) and conversational.\n\n")
	fmt.Fprintf(&b, "Message: %s\n\nRespond as %s:", text, per.Name)
	return b.String()
}

func buildGroundedPrompt(per persona.Persona, text string, passages []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are %s, a %s for a community chat server. Your tone is %s.\n", per.Name, per.Description, per.Tone)
	b.WriteString("Answer the question using ONLY the context below. If the context does not contain the answer, say you don't know.\n\nContext:\n")
	for _, p := range passages {
		b.WriteString("- ")
		b.WriteString(p)
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "\nQuestion: %s\n\nAnswer:", text)
	return b.String()
}

func buildRulesPrompt(rulesContext, text string) string {
	per := persona.Get(persona.RoleRules)
	var b strings.Builder
	fmt.Fprintf(&b, "You are %s, a %s. Your tone is %s.\n", per.Name, per.Description, per.Tone)
	fmt.Fprintf(&b, "Current server rules:\n%s\n\n", rulesContext)
	b.WriteString("A member sent the message below about the server rules. Explain the relevant rule, or if they are proposing a change, summarize the proposal for moderator review. Do not change any rules yourself.\n\n")
	fmt.Fprintf(&b, "Message: %s\n\nRespond as %s:", text, per.Name)
	return b.String()
}

const severityPromptTemplate = `Rate the severity of this message on a scale of 1-10, where 1 is mildly rude and 10 is threats or slurs.

Message: "%s"

Respond with ONLY a JSON object: {"severity": <1-10>, "reason": "<short reason>", "action": "<monitor|warn|escalate>"}`

func buildSeverityPrompt(text string) string {
	return fmt.Sprintf(severityPromptTemplate, text)
}

type severityAssessment struct {
	Severity int    `json:"severity"`
	Reason   string `json:"reason"`
	Action   string `json:"action"`
}

// parseSeverity pulls the JSON object out of a model response. Anything
// malformed or out of range falls back to a middle-severity escalation, so a
// confused model can never downgrade a toxic message to harmless.
func parseSeverity(raw string) severityAssessment {
	fallback := severityAssessment{Severity: 5, Reason: "unparseable assessment", Action: "escalate"}

	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return fallback
	}

	var assessment severityAssessment
	if err := json.Unmarshal([]byte(raw[start:end+1]), &assessment); err != nil {
		return fallback
	}
	if assessment.Severity < 1 || assessment.Severity > 10 {
		return fallback
	}
	return assessment
}

const (
	softModerationNotice = "Let's keep things friendly here. Your message was removed; please rephrase and try again."
	firmModerationNotice = "Your message was removed for violating community standards. Continued behavior like this will be escalated to the moderators."
)
