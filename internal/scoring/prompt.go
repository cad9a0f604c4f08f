package scoring

import (
	"fmt"
	"strings"
)

// Position labels for the fixed question order.
var positionLabels = [4]string{"ENTRY", "RANDOM", "DOCTRINE", "RANDOM"}

const (
	promptQuestionLimit = 60
	promptAnswerLimit   = 100
)

// BuildPrompt renders the oracle scoring prompt: the rule-based score as
// context, then each question/answer pair under its position label, then the
// reply-format contract the parser expects. Long texts are truncated to keep
// the prompt compact.
func BuildPrompt(questions, answers []string, fallbackScore int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "MEMBERSHIP VERIFICATION REVIEW\n\nRule-based score: %d/10\n\n", fallbackScore)

	for i := range answers {
		label := "ADDITIONAL"
		if i < len(positionLabels) {
			label = positionLabels[i]
		}
		var question string
		if i < len(questions) {
			question = questions[i]
		}
		fmt.Fprintf(&b, "[%s QUESTION %d]\nQ: %s\nA: %s\n\n",
			label, i+1,
			truncate(question, promptQuestionLimit),
			truncate(answers[i], promptAnswerLimit))
	}

	b.WriteString(`Refine the score (0-10) considering:
- Sincerity versus recited knowledge
- Respectful tone and humility
- Genuine seeking versus superficial answers
- Copy-paste or invalid answers (score 0-2)

Reply format:
SCORE: X
REASON: [one sentence]
`)
	return b.String()
}

func truncate(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit]) + "..."
}
