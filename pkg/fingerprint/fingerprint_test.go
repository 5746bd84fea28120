package fingerprint

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize_StripsPunctuationAndCase(t *testing.T) {
	assert.Equal(t, "helloworld", Normalize("Hello, World!!"))
	assert.Equal(t, "helloworld", Normalize("hello world"))
	assert.Equal(t, "freenitro2024", Normalize("FREE nitro!!! 2024"))
}

func TestNormalize_KeepsUnicodeLetters(t *testing.T) {
	assert.Equal(t, "héllo", Normalize("Héllo!"))
}

func TestOf_EquivalentTextsShareFingerprint(t *testing.T) {
	assert.Equal(t, Of("Free Nitro!!"), Of("free nitro"))
	assert.NotEqual(t, Of("free nitro"), Of("free pizza"))
}

func TestOf_Deterministic(t *testing.T) {
	assert.Equal(t, Of("same input"), Of("same input"))
}
