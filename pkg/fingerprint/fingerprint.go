// Package fingerprint provides the single text normalization and hashing
// scheme shared by the response cache and the raid detector. Both must agree
// on what counts as "the same message", so neither carries its own copy.
package fingerprint

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/cespare/xxhash/v2"
)

// Normalize lowercases the text and strips everything that is not a letter
// or digit. "Hello, World!!" and "hello world" normalize identically.
func Normalize(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Of returns the fingerprint of the text: the xxhash digest of its
// normalized form, hex encoded.
func Of(text string) string {
	return strconv.FormatUint(xxhash.Sum64String(Normalize(text)), 16)
}
