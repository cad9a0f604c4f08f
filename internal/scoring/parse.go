package scoring

import (
	"regexp"
	"strconv"
	"strings"
)

const (
	defaultScore       = 5
	maxReasoningLength = 500
)

var (
	scoreLabelRe = regexp.MustCompile(`(?i)(?:FINAL[^\n]*SCORE|OVERALL[^\n]*SCORE|SCORE)\s*:\s*(\d+)`)
	trailingIntRe = regexp.MustCompile(`(?m)(\d+)\s*(?:/10)?\s*$`)
	reasonLabelRe = regexp.MustCompile(`(?is)(?:REASONING|REASON|EXPLANATION|ANALYSIS)\s*:\s*(.+)`)
	labelLineRe   = regexp.MustCompile(`(?i)^\s*(?:SCORE|FINAL)`)
)

// ParseReply extracts a score and reasoning from free-form oracle text.
// The score comes from a "SCORE:"-labelled line, falling back to a trailing
// bare integer, clamped to [0,10], defaulting to 5 when nothing parses.
// Reasoning comes from a labelled section, falling back to the first three
// non-label lines, truncated to a bounded length.
func ParseReply(text string) (int, string) {
	score := defaultScore
	if m := scoreLabelRe.FindStringSubmatch(text); m != nil {
		score = atoiClamped(m[1])
	} else if m := trailingIntRe.FindStringSubmatch(strings.TrimSpace(text)); m != nil {
		score = atoiClamped(m[1])
	}

	var reasoning string
	if m := reasonLabelRe.FindStringSubmatch(text); m != nil {
		reasoning = strings.TrimSpace(m[1])
	} else {
		var kept []string
		for _, line := range strings.Split(strings.TrimSpace(text), "\n") {
			if labelLineRe.MatchString(line) {
				continue
			}
			kept = append(kept, line)
			if len(kept) == 3 {
				break
			}
		}
		reasoning = strings.TrimSpace(strings.Join(kept, "\n"))
	}
	if reasoning == "" {
		reasoning = "No reasoning provided"
	}
	if r := []rune(reasoning); len(r) > maxReasoningLength {
		reasoning = string(r[:maxReasoningLength])
	}

	return score, reasoning
}

func atoiClamped(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return defaultScore
	}
	if n < 0 {
		return 0
	}
	if n > 10 {
		return 10
	}
	return n
}
