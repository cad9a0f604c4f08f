// Package normalize cleans raw answer text before scoring and storage:
// whitespace collapse, casual-contraction expansion, canonical capitalization
// of devotional terms, and punctuation repair.
package normalize

import (
	"regexp"
	"strings"
)

// replacement is a compiled word-boundary substitution.
type replacement struct {
	re   *regexp.Regexp
	with string
}

func wordFix(pattern, with string) replacement {
	return replacement{re: regexp.MustCompile(`(?i)\b` + pattern + `\b`), with: with}
}

// Casual-language expansions and canonical capitalization fixes, applied in
// order. Longer patterns come before their prefixes so "hare krishn" wins
// over "krishn".
var replacements = []replacement{
	wordFix(`ur`, "your"),
	wordFix(`u`, "you"),
	wordFix(`dont`, "don't"),
	wordFix(`cant`, "can't"),
	wordFix(`wont`, "won't"),
	wordFix(`im`, "I'm"),
	wordFix(`ive`, "I've"),
	wordFix(`theyre`, "they're"),
	wordFix(`theres`, "there's"),
	wordFix(`hare krishn(?:a)?`, "Hare Krishna"),
	wordFix(`krishn(?:a)?`, "Krishna"),
	wordFix(`prabhupaa?d(?:a)?`, "Prabhupada"),
	wordFix(`god`, "God"),
	wordFix(`spir(?:i)?tual`, "spiritual"),
	wordFix(`religi?ous`, "religious"),
	wordFix(`peacefull?`, "peaceful"),
	wordFix(`peacfull?`, "peaceful"),
	wordFix(`humble?`, "humble"),
}

var (
	multiDot      = regexp.MustCompile(`\.{2,}`)
	multiBang     = regexp.MustCompile(`!{2,}`)
	multiQuestion = regexp.MustCompile(`\?{2,}`)
	spaceBefore   = regexp.MustCompile(`\s+([.!?])`)
	noSpaceAfter  = regexp.MustCompile(`([.!?])([a-zA-Z])`)
)

// Words in the leading position that suggest a complete first-person thought.
var firstPersonLead = map[string]bool{
	"i": true, "my": true, "me": true, "am": true,
	"feel": true, "want": true, "think": true, "believe": true,
}

// Clean normalizes a raw answer. Empty input is returned unchanged.
// Single-pass: repeated application is not guaranteed to be a fixed point.
func Clean(raw string) string {
	if raw == "" {
		return raw
	}

	cleaned := strings.Join(strings.Fields(raw), " ")

	for _, r := range replacements {
		cleaned = r.re.ReplaceAllString(cleaned, r.with)
	}

	cleaned = multiDot.ReplaceAllString(cleaned, ".")
	cleaned = multiBang.ReplaceAllString(cleaned, "!")
	cleaned = multiQuestion.ReplaceAllString(cleaned, "?")
	cleaned = spaceBefore.ReplaceAllString(cleaned, "$1")
	cleaned = noSpaceAfter.ReplaceAllString(cleaned, "$1 $2")

	cleaned = strings.TrimSpace(cleaned)
	if cleaned != "" && !strings.ContainsAny(cleaned[len(cleaned)-1:], ".!?") {
		if looksComplete(cleaned) {
			cleaned += "."
		}
	}
	return cleaned
}

// looksComplete reports whether the text reads as a finished first-person
// sentence: more than 3 words and a first-person pronoun or volitional verb
// among the first 3.
func looksComplete(text string) bool {
	words := strings.Fields(text)
	if len(words) <= 3 {
		return false
	}
	for i, w := range words {
		if i >= 3 {
			break
		}
		if firstPersonLead[strings.ToLower(strings.Trim(w, ".,!?'\""))] {
			return true
		}
	}
	return false
}
