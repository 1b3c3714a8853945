package tokenizer

import (
	"regexp"
	"slices"
	"strings"
)

// nonAlphanumericRegex matches sequences of characters outside [a-z0-9].
// It is applied after lowercasing, so upper-case ASCII never reaches it.
var nonAlphanumericRegex = regexp.MustCompile(`[^a-z0-9]+`)

// Normalize lowercases text and removes every character outside [a-z0-9].
// Any input normalizes to some string; an empty result means "no query".
func Normalize(text string) string {
	if text == "" {
		return ""
	}
	return nonAlphanumericRegex.ReplaceAllString(strings.ToLower(text), "")
}

// Signature returns the canonical signature of an already normalized string:
// its bytes sorted ascending. Two normalized strings are anagrams of one
// another iff their signatures are equal.
func Signature(normalized string) string {
	if len(normalized) < 2 {
		return normalized
	}
	b := []byte(normalized)
	slices.Sort(b)
	return string(b)
}

// CanonicalSignature normalizes text and returns its signature.
func CanonicalSignature(text string) string {
	return Signature(Normalize(text))
}
