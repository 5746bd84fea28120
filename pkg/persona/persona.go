// Package persona holds the closed set of assistant personas and the
// keyword policy that picks one for a message. Selection is a pure function
// of message content and sits outside the triage pipeline, which only
// consumes the chosen persona as prompt context.
package persona

import "strings"

// Role identifies a persona variant.
type Role string

const (
	RoleWelcome    Role = "welcome"
	RoleModeration Role = "moderation"
	RoleAnalytics  Role = "analytics"
	RoleRules      Role = "rules"
)

// Persona is a fixed-field description of one assistant character.
type Persona struct {
	Role        Role
	Name        string
	Description string
	Tone        string
	Greeting    string
}

var personas = map[Role]Persona{
	RoleWelcome: {
		Role:        RoleWelcome,
		Name:        "Otter",
		Description: "playful, helpful community guide",
		Tone:        "warm, bubbly, enthusiastic",
		Greeting:    "Hey there! Welcome!",
	},
	RoleModeration: {
		Role:        RoleModeration,
		Name:        "Bear",
		Description: "protective, gentle giant moderation specialist",
		Tone:        "firm but kind, protective, fair",
		Greeting:    "Hey, I'm Bear. Let's keep this community safe and friendly.",
	},
	RoleAnalytics: {
		Role:        RoleAnalytics,
		Name:        "Owl",
		Description: "wise, data-driven insights and reporting",
		Tone:        "analytical, precise, thoughtful",
		Greeting:    "Greetings. Owl here, monitoring and analyzing.",
	},
	RoleRules: {
		Role:        RoleRules,
		Name:        "Bear",
		Description: "rules specialist who knows this community's guidelines",
		Tone:        "precise, fair, firm",
		Greeting:    "Bear here. Let's talk rules.",
	},
}

var (
	moderationKeywords = []string{"ban", "report", "toxic", "harass", "spam", "raid"}
	analyticsKeywords  = []string{"stats", "analytics", "data", "growth", "metrics"}
	welcomeKeywords    = []string{"welcome", "hello", "hi ", "new here", "joining"}
)

// Get returns the persona for a role.
func Get(role Role) Persona {
	return personas[role]
}

// Select picks the persona role for a message by keyword, defaulting to the
// welcome persona for general help.
func Select(text string) Role {
	content := strings.ToLower(text)

	for _, kw := range moderationKeywords {
		if strings.Contains(content, kw) {
			return RoleModeration
		}
	}
	for _, kw := range analyticsKeywords {
		if strings.Contains(content, kw) {
			return RoleAnalytics
		}
	}
	for _, kw := range welcomeKeywords {
		if strings.Contains(content, kw) {
			return RoleWelcome
		}
	}
	return RoleWelcome
}
