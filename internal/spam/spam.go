// Package spam is a pure keyword/pattern scorer over free text. It flags
// doctrine-hostile, mocking, and promotional content in incoming messages.
package spam

import (
	"fmt"
	"strings"
	"unicode"
)

// Verdict classifies a scored message.
type Verdict string

const (
	Clean      Verdict = "CLEAN"
	Suspicious Verdict = "SUSPICIOUS"
	Spam       Verdict = "SPAM"
)

// Verdict thresholds.
const (
	spamMin       = 6
	suspiciousMin = 3
)

// Category weights. Impersonalist doctrine weighs more than the rest.
const (
	weightImpersonalist = 3
	weightMockery       = 2
	weightPromotional   = 2
	weightAllCaps       = 2
	weightRepeatedRunes = 2
	weightTooShort      = 1
)

// Result is the outcome of evaluating one message.
type Result struct {
	Score   int
	Verdict Verdict
	Reasons []string
}

// Phrases holds the flagged phrase lists, lower-cased.
type Phrases struct {
	Impersonalist []string
	Mockery       []string
	Promotional   []string
}

// DefaultPhrases returns the built-in phrase lists.
func DefaultPhrases() Phrases {
	return Phrases{
		Impersonalist: []string{
			"we are all god",
			"i am god",
			"all gods are same",
			"all paths equal",
			"krishna is one of many",
			"everything is one",
		},
		Mockery: []string{
			"cult",
			"fake guru",
			"nonsense",
			"cow worship",
			"mythology",
			"brainwash",
		},
		Promotional: []string{
			"http://",
			"https://",
			"discord.gg",
			"free nitro",
			"click here",
			"dm me for",
		},
	}
}

// Evaluate scores a message against the default phrase lists.
func Evaluate(text string) Result {
	return EvaluateWith(text, DefaultPhrases())
}

// EvaluateWith scores a message against the given phrase lists.
// Deterministic given the lists; no side effects.
func EvaluateWith(text string, phrases Phrases) Result {
	lower := strings.ToLower(text)
	var score int
	var reasons []string

	score += matchPhrases(lower, phrases.Impersonalist, weightImpersonalist, "impersonalist phrase", &reasons)
	score += matchPhrases(lower, phrases.Mockery, weightMockery, "mocking phrase", &reasons)
	score += matchPhrases(lower, phrases.Promotional, weightPromotional, "promotional content", &reasons)

	if allUpper(text) && len(text) > 10 {
		score += weightAllCaps
		reasons = append(reasons, "message is all upper-case")
	}
	if hasRepeatedRun(text, 6) {
		score += weightRepeatedRunes
		reasons = append(reasons, "character repeated 6+ times")
	}
	if len([]rune(strings.TrimSpace(text))) < 3 {
		score += weightTooShort
		reasons = append(reasons, "message too short")
	}

	return Result{Score: score, Verdict: verdictFor(score), Reasons: reasons}
}

func verdictFor(score int) Verdict {
	switch {
	case score >= spamMin:
		return Spam
	case score >= suspiciousMin:
		return Suspicious
	default:
		return Clean
	}
}

func matchPhrases(lower string, phrases []string, weight int, label string, reasons *[]string) int {
	score := 0
	for _, p := range phrases {
		if strings.Contains(lower, p) {
			score += weight
			*reasons = append(*reasons, fmt.Sprintf("%s: %q", label, p))
		}
	}
	return score
}

// allUpper reports whether the text contains at least one letter and no
// lower-case letters.
func allUpper(text string) bool {
	hasLetter := false
	for _, r := range text {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsLetter(r) {
			hasLetter = true
		}
	}
	return hasLetter
}

// hasRepeatedRun reports whether any rune repeats n+ times consecutively.
// Rune-based so multi-byte symbols count as single characters.
func hasRepeatedRun(text string, n int) bool {
	var prev rune
	run := 0
	for _, r := range text {
		if r == prev {
			run++
			if run >= n {
				return true
			}
		} else {
			prev = r
			run = 1
		}
	}
	return false
}
