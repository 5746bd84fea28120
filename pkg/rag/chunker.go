package rag

import (
	"regexp"
	"strings"
)

// DefaultChunkTokens is the approximate token budget per chunk. Token count
// is estimated as len/4 characters.
const DefaultChunkTokens = 500

var sentenceSplit = regexp.MustCompile(`[.!?\n]+`)

// ChunkText splits a document on sentence boundaries and greedily packs
// sentences into chunks of roughly maxTokens tokens. A sentence that would
// push the current chunk past the budget starts the next chunk instead.
func ChunkText(text string, maxTokens int) []string {
	if maxTokens <= 0 {
		maxTokens = DefaultChunkTokens
	}

	var chunks []string
	var current string

	for _, sentence := range sentenceSplit.Split(text, -1) {
		trimmed := strings.TrimSpace(sentence)
		if trimmed == "" {
			continue
		}

		combined := trimmed
		if current != "" {
			combined = current + ". " + trimmed
		}

		if len(combined) > maxTokens*4 && current != "" {
			chunks = append(chunks, current)
			current = trimmed
		} else {
			current = combined
		}
	}

	if strings.TrimSpace(current) != "" {
		chunks = append(chunks, current)
	}
	return chunks
}
