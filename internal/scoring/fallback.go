// Package scoring computes the final answer score for a completed
// verification session. It is two-tier: a deterministic rule-based scorer
// that always produces a result, and an oracle pass that refines it when
// credentials and budget allow. Oracle failures degrade to the rule-based
// result, never to an error the applicant sees.
package scoring

import (
	"fmt"
	"math"
	"strings"
)

// Weighted vocabulary for the rule-based scorer. The weights are empirically
// chosen product constants; do not re-derive them.
var (
	humilityPhrases = []string{
		"learn", "don't know", "want to understand", "feel peace",
		"inspired", "humble", "mercy", "guidance",
	}
	devotionalWords = []string{
		"krishna", "devotion", "service", "chanting", "prayer",
		"temple", "devotees",
	}
	seekingWords = []string{
		"spiritual", "connection", "divine", "peace", "grow", "journey",
	}
	impersonalistPhrases = []string{
		"all gods same", "we are all god", "i am god", "i am krishna",
		"all paths equal", "krishna is one of many",
	}
	offensiveWords = []string{
		"cult", "fake", "nonsense", "stupid", "bullshit",
		"cow worship", "mythology",
	}
	challengingPhrases = []string{
		"is krishna real though", "why would anyone believe",
		"don't you think this is", "prove it",
	}
	egoPhrases = []string{
		"i am already spiritual", "i don't need", "i am enlightened",
		"transcended religion",
	}
	vulnerableWords = []string{"lost", "confused", "hurt", "struggling", "difficult"}
	helpVerbs       = []string{"want", "hope", "help", "learn"}
	genericPhrases  = []string{
		"i want to learn more", "i am interested", "tell me more",
		"i would like to know", "please explain", "i need guidance",
		"i want to understand", "i seek knowledge",
	}
)

const neutralReasoning = "Rule-based scoring applied - answers show a neutral disposition"

// Fallback scores a completed answer set without the oracle: a neutral
// baseline of 5 adjusted per answer by fixed vocabulary weights, clamped to
// [0,10]. Reasoning lists up to three triggered observations. Deterministic
// and side-effect free.
func Fallback(questions, answers []string) (int, string) {
	score := 5.0
	var observations []string

	note := func(i int, msg string) {
		observations = append(observations, fmt.Sprintf("Q%d: %s", i+1, msg))
	}

	for i, answer := range answers {
		lower := strings.ToLower(answer)
		points := 0.0

		impersonalist := containsAny(lower, impersonalistPhrases)

		if containsAny(lower, humilityPhrases) {
			points += 2
			note(i, "shows humility and openness")
		}
		// A devotional mention inside an impersonalist claim is the claim
		// itself, not devotion.
		if !impersonalist && containsAny(lower, devotionalWords) {
			points += 2
			note(i, "mentions devotional concepts")
		}
		if containsAny(lower, seekingWords) {
			points++
		}
		if impersonalist {
			points -= 2
			note(i, "contains impersonalist views")
		}
		if containsAny(lower, offensiveWords) {
			points -= 3
			note(i, "contains offensive language")
		}
		if containsAny(lower, challengingPhrases) {
			points--
			note(i, "shows a challenging/testing attitude")
		}
		if containsAny(lower, egoPhrases) {
			points--
			note(i, "shows spiritual pride")
		}
		if containsAny(lower, vulnerableWords) && containsAny(lower, helpVerbs) {
			points++
			note(i, "vulnerable but seeking help")
		}

		trimmed := strings.TrimSpace(answer)
		switch {
		case len(trimmed) < 5:
			points -= 2
		case len(trimmed) > 50:
			points += 0.5
		}

		trimmedLower := strings.ToLower(trimmed)
		var questionLower string
		if i < len(questions) {
			questionLower = strings.ToLower(strings.TrimSpace(questions[i]))
		}
		if questionLower != "" && len(trimmedLower) > 10 {
			if trimmedLower == questionLower {
				points -= 8
				note(i, "identical to the question")
			} else if strings.Contains(questionLower, trimmedLower) ||
				strings.Contains(trimmedLower, questionLower) {
				points -= 5
				note(i, "copy-pasted from the question")
			}
		}

		if containsAny(trimmedLower, genericPhrases) && len(trimmed) < 30 {
			points--
			note(i, "generic template answer")
		}

		score += points
	}

	final := int(math.Floor(score))
	if final < 0 {
		final = 0
	} else if final > 10 {
		final = 10
	}

	reasoning := neutralReasoning
	if len(observations) > 0 {
		if len(observations) > 3 {
			observations = observations[:3]
		}
		reasoning = "Rule-based scoring: " + strings.Join(observations, "; ")
	}
	return final, reasoning
}

func containsAny(s string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}
