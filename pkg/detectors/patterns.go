package detectors

import (
	"regexp"
	"strings"
	"unicode"
)

// PII regex families. Any single match classifies the message.
var piiPatterns = []*regexp.Regexp{
	// phone numbers: 555-123-4567, (555) 123 4567, +1 555.123.4567
	regexp.MustCompile(`(\+\d{1,2}\s?)?(\(\d{3}\)|\d{3})[-.\s]?\d{3}[-.\s]?\d{4}\b`),
	// email addresses
	regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`),
	// national-ID-like digit groups: 123-45-6789 or 9+ unbroken digits
	regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`),
	regexp.MustCompile(`\b\d{9,}\b`),
	// street addresses: "123 Main Street", "42 Elm Ave"
	regexp.MustCompile(`(?i)\b\d+\s+[A-Za-z]+\s+(street|st|avenue|ave|road|rd|boulevard|blvd|lane|ln|drive|dr|court|ct)\b`),
}

func matchPII(text string) bool {
	for _, re := range piiPatterns {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

// phishingFragments are lowercase substrings of known lookalike domains and
// scam bait. Curated, not exhaustive: the paid toxic branch backstops misses.
var phishingFragments = []string{
	"discrod",
	"dlscord",
	"disc0rd",
	"discord-gift",
	"discordgift",
	"discord-nitro.click",
	"free-nitro",
	"freenitro",
	"nitro-free",
	"nitro-gift",
	"steamcommunlty",
	"steamcommunily",
	"free robux",
	"claim your prize",
	"crypto airdrop",
	"wallet verification",
}

func matchPhishing(text string) bool {
	lower := strings.ToLower(text)
	for _, frag := range phishingFragments {
		if strings.Contains(lower, frag) {
			return true
		}
	}
	return false
}

// matchZalgo reports whether the text carries three or more consecutive
// combining diacritic code points, the signature of zalgo-style obfuscation.
func matchZalgo(text string) bool {
	run := 0
	for _, r := range text {
		if unicode.Is(unicode.Mn, r) || unicode.Is(unicode.Me, r) {
			run++
			if run >= 3 {
				return true
			}
		} else {
			run = 0
		}
	}
	return false
}
