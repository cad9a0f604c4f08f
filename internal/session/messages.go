package session

import (
	"fmt"

	"github.com/temple-tools/dvarapala/internal/model"
)

const welcomeText = "Hare Krishna! Welcome to the community. Before you can join the " +
	"conversation you will be asked 4 short questions. Answer each one here, " +
	"in your own words. Take your time and answer honestly."

const manualReviewText = "Thank you for your answers. They are being reviewed " +
	"by a community admin; you will hear back soon."

func questionText(num, total int, question string) string {
	return fmt.Sprintf("Question %d/%d: %s", num, total, question)
}

func decisionText(role model.Role, score int) string {
	switch role {
	case model.RoleDevotee:
		return fmt.Sprintf("Thank you for your answers (score %d/10). You have been "+
			"welcomed as a devotee. Hare Krishna!", score)
	case model.RoleSeeker:
		return fmt.Sprintf("Thank you for your answers (score %d/10). You have been "+
			"welcomed as a seeker. Feel free to ask questions and get to know the community.", score)
	case model.RoleRestricted:
		return "Thank you for your answers. You have limited access for now; " +
			"a community admin may follow up with you."
	default:
		return "Thank you for your answers. Your verification did not pass this " +
			"time. You may contact a community admin to request a review."
	}
}
