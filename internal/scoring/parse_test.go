package scoring

import (
	"strings"
	"testing"
)

func TestParseReplyLabelled(t *testing.T) {
	score, reasoning := ParseReply("SCORE: 8\nREASON: Sincere and humble answers.")
	if score != 8 {
		t.Errorf("expected score 8, got %d", score)
	}
	if reasoning != "Sincere and humble answers." {
		t.Errorf("unexpected reasoning %q", reasoning)
	}
}

func TestParseReplyCaseInsensitiveLabels(t *testing.T) {
	score, reasoning := ParseReply("Final Score: 3\nreasoning: challenging tone throughout")
	if score != 3 {
		t.Errorf("expected score 3, got %d", score)
	}
	if reasoning != "challenging tone throughout" {
		t.Errorf("unexpected reasoning %q", reasoning)
	}
}

func TestParseReplyTrailingInteger(t *testing.T) {
	score, _ := ParseReply("The answers are quite sincere overall.\n7/10")
	if score != 7 {
		t.Errorf("expected score 7, got %d", score)
	}
}

func TestParseReplyNothingParses(t *testing.T) {
	score, reasoning := ParseReply("I cannot evaluate this.")
	if score != defaultScore {
		t.Errorf("expected default score %d, got %d", defaultScore, score)
	}
	if reasoning != "I cannot evaluate this." {
		t.Errorf("unexpected reasoning %q", reasoning)
	}
}

func TestParseReplyClampsScore(t *testing.T) {
	if score, _ := ParseReply("SCORE: 42"); score != 10 {
		t.Errorf("expected clamp to 10, got %d", score)
	}
}

func TestParseReplyReasoningFromBodyLines(t *testing.T) {
	text := "SCORE: 6\nThe tone is respectful.\nSome doctrinal confusion.\nWilling to learn.\nExtra line."
	_, reasoning := ParseReply(text)
	if strings.Contains(reasoning, "SCORE") {
		t.Errorf("label line leaked into reasoning: %q", reasoning)
	}
	if strings.Contains(reasoning, "Extra line") {
		t.Errorf("expected reasoning capped at 3 lines, got %q", reasoning)
	}
	if !strings.Contains(reasoning, "respectful") {
		t.Errorf("expected body text in reasoning, got %q", reasoning)
	}
}

func TestParseReplyTruncatesReasoning(t *testing.T) {
	_, reasoning := ParseReply("SCORE: 5\nREASON: " + strings.Repeat("x", 2*maxReasoningLength))
	if len([]rune(reasoning)) != maxReasoningLength {
		t.Errorf("expected reasoning truncated to %d runes, got %d", maxReasoningLength, len([]rune(reasoning)))
	}
}

func TestParseReplyEmpty(t *testing.T) {
	score, reasoning := ParseReply("")
	if score != defaultScore || reasoning != "No reasoning provided" {
		t.Errorf("got score %d reasoning %q", score, reasoning)
	}
}
