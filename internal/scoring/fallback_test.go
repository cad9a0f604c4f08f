package scoring

import (
	"strings"
	"testing"
)

var sampleQuestions = []string{
	"What brings you to our community?",
	"How do you feel when you hear chanting?",
	"Is Krishna the Supreme Personality of Godhead, or one of many gods?",
	"How do you respond when someone corrects you?",
}

func TestFallbackImpersonalismDominates(t *testing.T) {
	answers := []string{
		"I am Krishna and we are all God",
		"ok",
		"I want to learn and serve humbly",
		"I would try to understand peacefully",
	}
	score, reasoning := Fallback(sampleQuestions, answers)
	if score >= 5 {
		t.Errorf("expected score below 5, got %d", score)
	}
	if !strings.Contains(reasoning, "impersonalist") {
		t.Errorf("expected impersonalist observation in reasoning, got %q", reasoning)
	}
}

func TestFallbackNeutralAnswers(t *testing.T) {
	answers := []string{
		"my neighbor told me about it",
		"it sounds nice enough",
		"not sure what that means yet",
		"depends on the situation really",
	}
	score, reasoning := Fallback(sampleQuestions, answers)
	if score != 5 {
		t.Errorf("expected neutral score 5, got %d", score)
	}
	if reasoning != neutralReasoning {
		t.Errorf("expected neutral reasoning, got %q", reasoning)
	}
}

func TestFallbackRewardsSincerity(t *testing.T) {
	answers := []string{
		"I feel peace when I visit the temple and want to learn more about devotion",
		"Chanting fills me with a deep sense of connection and gratitude",
		"I believe Krishna is the Supreme Person, though I am still learning",
		"I try to stay humble and accept guidance from those wiser than me",
	}
	score, _ := Fallback(sampleQuestions, answers)
	if score < 8 {
		t.Errorf("expected high score for sincere answers, got %d", score)
	}
}

func TestFallbackPunishesCopyPaste(t *testing.T) {
	answers := []string{
		sampleQuestions[0],
		sampleQuestions[1],
		"yes",
		"fine",
	}
	score, reasoning := Fallback(sampleQuestions, answers)
	if score != 0 {
		t.Errorf("expected floor score 0 for copy-paste answers, got %d", score)
	}
	if !strings.Contains(reasoning, "identical") {
		t.Errorf("expected identical-answer observation, got %q", reasoning)
	}
}

func TestFallbackOffensiveLanguage(t *testing.T) {
	answers := []string{
		"this is a cult and you all know it",
		"complete nonsense",
		"mythology for gullible people",
		"prove it",
	}
	score, _ := Fallback(sampleQuestions, answers)
	if score >= 3 {
		t.Errorf("expected very low score for hostile answers, got %d", score)
	}
}

func TestFallbackClampUpper(t *testing.T) {
	sincere := "I feel peace at the temple and want to learn devotion and service humbly with guidance"
	answers := []string{sincere, sincere, sincere, sincere}
	score, _ := Fallback(sampleQuestions, answers)
	if score != 10 {
		t.Errorf("expected clamp at 10, got %d", score)
	}
}

func TestFallbackReasoningCapsAtThreeObservations(t *testing.T) {
	answers := []string{
		"we are all god anyway",
		"i am god too",
		"all paths equal in the end",
		"krishna is one of many deities",
	}
	_, reasoning := Fallback(sampleQuestions, answers)
	if n := strings.Count(reasoning, "Q"); n > 3 {
		t.Errorf("expected at most 3 observations, got %d in %q", n, reasoning)
	}
}
