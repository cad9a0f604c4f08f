// Package model defines the core types shared across the admission pipeline:
// the account profile captured at join time, the suspicion assessment, and
// the per-user verification session.
package model

import "time"

// QuestionCount is the fixed number of questions asked per verification.
const QuestionCount = 4

// Profile is an immutable snapshot of a prospective member at join time.
type Profile struct {
	UserID      string    `json:"user_id"`
	Username    string    `json:"username"`
	DisplayName string    `json:"display_name"`
	CreatedAt   time.Time `json:"created_at"`
	JoinedAt    time.Time `json:"joined_at"`
	HasAvatar   bool      `json:"has_avatar"`
	IsBot       bool      `json:"is_bot"`
}

// AccountAgeDays returns whole days since account creation, relative to now.
func (p Profile) AccountAgeDays(now time.Time) int {
	return int(now.Sub(p.CreatedAt).Hours() / 24)
}

// Assessment is a suspicion score in [0,4] plus the factors that produced it.
// Immutable once computed.
type Assessment struct {
	Score   int      `json:"score"`
	Factors []string `json:"factors"`
	Refined bool     `json:"refined"` // oracle replaced the deterministic score
}

// Role is the membership level granted at the end of verification.
type Role string

const (
	RoleDevotee    Role = "devotee"
	RoleSeeker     Role = "seeker"
	RoleRestricted Role = "restricted"
	RoleNone       Role = "none"
)

// Status is the lifecycle state of a verification session.
type Status string

const (
	// StatusStarting is the transient state of a manually-triggered session
	// before the first message send is attempted.
	StatusStarting Status = "starting"
	// StatusPending means questions are being asked and answered.
	StatusPending Status = "pending"
	// StatusScoring means all answers are collected and scoring is in flight.
	StatusScoring Status = "scoring"

	StatusApproved     Status = "approved"
	StatusConditional  Status = "conditionally_approved"
	StatusRestricted   Status = "assigned_restricted"
	StatusRejected     Status = "rejected"
	StatusManualReview Status = "pending_manual_review"
	StatusFailed       Status = "failed"
)

// Terminal reports whether the automated machine will not advance this status
// on its own. StatusFailed may be restarted by explicit user or admin action;
// StatusManualReview requires a human-performed role assignment.
func (s Status) Terminal() bool {
	switch s {
	case StatusApproved, StatusConditional, StatusRestricted,
		StatusRejected, StatusManualReview, StatusFailed:
		return true
	}
	return false
}

// FailureReason explains a StatusFailed session.
type FailureReason string

const (
	FailureRateLimited FailureReason = "rate_limited"
	FailureError       FailureReason = "error"
)

// Answer records one question/answer exchange within a session.
type Answer struct {
	Question   string    `json:"question"`
	Raw        string    `json:"raw"`
	Normalized string    `json:"normalized"`
	ReceivedAt time.Time `json:"received_at"`
}

// Session tracks one user's verification from join through role decision.
// Mutated only by the owning session manager: single writer per user id.
type Session struct {
	ID        string     `json:"id"`
	Profile   Profile    `json:"profile"`
	Suspicion Assessment `json:"suspicion"`
	Questions []string   `json:"questions"`
	Answers   []Answer   `json:"answers"`
	Index     int        `json:"index"` // next question to be answered, 0..4
	Status    Status     `json:"status"`
	Manual    bool       `json:"manual"` // started via command rather than auto-join
	StartedAt time.Time  `json:"started_at"`

	// FinalScore and AssignedRole are set together, atomically from the
	// machine's perspective, when the session reaches a scored terminal state.
	FinalScore    *int          `json:"final_score,omitempty"`
	AssignedRole  Role          `json:"assigned_role,omitempty"`
	Reasoning     string        `json:"reasoning,omitempty"`
	FailureReason FailureReason `json:"failure_reason,omitempty"`
}

// Active reports whether the session is still being advanced by the machine.
func (s *Session) Active() bool {
	return !s.Status.Terminal()
}
