// Package notify renders and delivers the admin- and community-facing
// notifications around a verification: start, delivery failure, manual
// review with full transcript, and the final decision. All rendering is
// plain text; embed styling is the chat gateway's concern.
package notify

import (
	"fmt"
	"strings"

	"github.com/temple-tools/dvarapala/internal/model"
	"github.com/temple-tools/dvarapala/internal/scoring"
)

func formatStarted(p model.Profile) string {
	return fmt.Sprintf("Verification started: @%s (%s) has joined and the "+
		"questions have been sent to their DMs.", p.Username, p.UserID)
}

func formatSuspicionAnalysis(p model.Profile, a model.Assessment) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Suspicion analysis for @%s (%s): %d/4", p.Username, p.UserID, a.Score)
	if a.Refined {
		b.WriteString(" (oracle refined)")
	}
	if len(a.Factors) > 0 {
		fmt.Fprintf(&b, "\nFactors: %s", strings.Join(a.Factors, "; "))
	}
	return b.String()
}

func formatDeliveryFailure(p model.Profile, reason model.FailureReason) string {
	cause := "message delivery failed"
	if reason == model.FailureRateLimited {
		cause = "rate limiting prevented DM delivery"
	}
	return fmt.Sprintf("Verification failed for @%s (%s): %s. "+
		"The user can run /verify in this channel to retry.",
		p.Username, p.UserID, cause)
}

func formatManualReview(s model.Session, result scoring.Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Manual review needed for @%s (%s): automated scoring "+
		"unavailable (%s).\n", s.Profile.Username, s.Profile.UserID, result.Outcome)
	fmt.Fprintf(&b, "Rule-based score for guidance: %d/10\n", result.Score)
	fmt.Fprintf(&b, "Suspicion: %d/4\n\nTranscript:\n", s.Suspicion.Score)
	b.WriteString(formatTranscript(s.Answers))
	b.WriteString("\nAssign a role manually once reviewed.")
	return b.String()
}

func formatTranscript(answers []model.Answer) string {
	var b strings.Builder
	for i, a := range answers {
		fmt.Fprintf(&b, "Q%d: %s\nA%d: %s\n", i+1, a.Question, i+1, a.Normalized)
	}
	return b.String()
}

func formatDecision(s model.Session) string {
	score := 0
	if s.FinalScore != nil {
		score = *s.FinalScore
	}
	return fmt.Sprintf("Verification complete: @%s (%s) scored %d/10 → %s (%s).\nReasoning: %s",
		s.Profile.Username, s.Profile.UserID, score, s.AssignedRole, s.Status, s.Reasoning)
}

func formatWelcome(p model.Profile, role model.Role) string {
	if role == model.RoleDevotee {
		return fmt.Sprintf("Please welcome @%s, our newest devotee! Hare Krishna!", p.Username)
	}
	return fmt.Sprintf("Please welcome @%s, joining us as a seeker.", p.Username)
}
