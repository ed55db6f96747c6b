// Package speech estimates how long a text takes to read aloud and
// enforces the kiosk's character-set policy for speakable text.
package speech

import (
	"fmt"
	"strings"
	"unicode"
)

// Reading rates used for the duration estimate. Chinese is read at roughly
// four characters per second, English at roughly 2.5 words per second.
const (
	cjkCharsPerSecond = 4.0
	wordsPerSecond    = 2.5
)

// DefaultMaxSeconds is the default spoken-answer budget.
const DefaultMaxSeconds = 30.0

// EstimateSeconds returns an estimate of how many seconds it takes to read
// text aloud. CJK ideographs and whitespace-separated words are estimated
// independently and the slower of the two dominates: either modality can be
// the bottleneck depending on the language mix, so the estimates are not
// additive.
func EstimateSeconds(text string) float64 {
	var cjk int
	var sb strings.Builder
	for _, r := range text {
		if isCJK(r) {
			cjk++
			sb.WriteRune(' ')
			continue
		}
		sb.WriteRune(r)
	}

	words := len(strings.Fields(sb.String()))

	secCJK := float64(cjk) / cjkCharsPerSecond
	secWords := float64(words) / wordsPerSecond
	if secCJK > secWords {
		return secCJK
	}
	return secWords
}

// BudgetExceededError reports text whose estimated spoken duration exceeds
// the configured limit.
type BudgetExceededError struct {
	Seconds float64
	Limit   float64
}

func (e *BudgetExceededError) Error() string {
	return fmt.Sprintf("text would take %.1fs to speak, limit is %.0fs", e.Seconds, e.Limit)
}

// DisallowedCharacterError reports the first rune that falls outside the
// speakable character set.
type DisallowedCharacterError struct {
	Rune rune
}

func (e *DisallowedCharacterError) Error() string {
	return fmt.Sprintf("text contains disallowed character %q (allowed: Chinese, English and common punctuation)", e.Rune)
}

// allowedPunct is the fixed punctuation allow-list, covering both ASCII and
// fullwidth CJK forms.
const allowedPunct = ".,;:'\"!?，。！？；：“”‘’（）()-"

// Validate checks that text contains only CJK ideographs, Latin letters,
// digits, underscore, whitespace, and allow-listed punctuation. The first
// offending rune is reported via *DisallowedCharacterError.
func Validate(text string) error {
	for _, r := range text {
		if isCJK(r) || isWordRune(r) || unicode.IsSpace(r) || strings.ContainsRune(allowedPunct, r) {
			continue
		}
		return &DisallowedCharacterError{Rune: r}
	}
	return nil
}

// isCJK reports whether r is a CJK unified ideograph (U+4E00..U+9FFF).
func isCJK(r rune) bool {
	return r >= 0x4E00 && r <= 0x9FFF
}

// isWordRune matches the \w class: ASCII letters, digits, underscore.
func isWordRune(r rune) bool {
	return r == '_' ||
		(r >= '0' && r <= '9') ||
		(r >= 'a' && r <= 'z') ||
		(r >= 'A' && r <= 'Z')
}
