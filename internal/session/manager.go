// Package session owns the verification state machine: one session per
// user, advanced run-to-completion by the event handler that holds it,
// from join through question/answer exchange to the final role decision.
// Sessions live in memory only; the role decision, not the session, is what
// gets persisted by the configuration store.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/temple-tools/dvarapala/internal/model"
	"github.com/temple-tools/dvarapala/internal/normalize"
	"github.com/temple-tools/dvarapala/internal/retry"
	"github.com/temple-tools/dvarapala/internal/scoring"
	"github.com/temple-tools/dvarapala/internal/transport"
)

var (
	// ErrSessionActive rejects a new trigger for a user whose session is
	// still being advanced; triggers never race an in-flight session.
	ErrSessionActive = errors.New("verification already in progress")
	// ErrNoSession means the user has no session to act on.
	ErrNoSession = errors.New("no verification session")
	// ErrNotFailed rejects a restart of a session that did not fail.
	ErrNotFailed = errors.New("session is not in a failed state")
)

// Assessor produces the join-time suspicion assessment.
type Assessor interface {
	Assess(ctx context.Context, p model.Profile) model.Assessment
}

// Selector builds the ordered question set for a suspicion score.
type Selector interface {
	Select(suspicionScore int) []string
}

// AnswerScorer produces the final verdict for a completed answer set.
type AnswerScorer interface {
	Score(ctx context.Context, questions, answers []string) scoring.Result
}

// Notifier surfaces session milestones to admin and community channels.
// Implementations must not block on user input; any method may be called
// from an event handler mid-session.
type Notifier interface {
	VerificationStarted(ctx context.Context, p model.Profile, suspicion model.Assessment)
	DeliveryFailed(ctx context.Context, p model.Profile, reason model.FailureReason)
	ManualReview(ctx context.Context, s model.Session, result scoring.Result)
	Decision(ctx context.Context, s model.Session)
}

// Policy maps a final score to a role decision. Thresholds and role ids
// come from the community configuration at decision time.
type Policy struct {
	DevoteeMin       int
	SeekerMin        int
	DevoteeRoleID    string
	SeekerRoleID     string
	RestrictedRoleID string
}

// DefaultPolicy returns the built-in thresholds.
func DefaultPolicy() Policy {
	return Policy{DevoteeMin: 8, SeekerMin: 5}
}

// Decide maps a score to the role and terminal status. A restricted role is
// granted only when one is configured; otherwise the session is rejected.
func (p Policy) Decide(score int) (model.Role, model.Status) {
	switch {
	case score >= p.DevoteeMin:
		return model.RoleDevotee, model.StatusApproved
	case score >= p.SeekerMin:
		return model.RoleSeeker, model.StatusConditional
	case p.RestrictedRoleID != "":
		return model.RoleRestricted, model.StatusRestricted
	default:
		return model.RoleNone, model.StatusRejected
	}
}

// RoleID returns the configured platform role id for a decided role.
func (p Policy) RoleID(role model.Role) string {
	switch role {
	case model.RoleDevotee:
		return p.DevoteeRoleID
	case model.RoleSeeker:
		return p.SeekerRoleID
	case model.RoleRestricted:
		return p.RestrictedRoleID
	}
	return ""
}

const deliveryAttempts = 3

// Manager owns all verification sessions, keyed by user id.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*model.Session

	log       *zap.Logger
	assessor  Assessor
	selector  Selector
	scorer    AnswerScorer
	messenger transport.Messenger
	notifier  Notifier
	assigner  transport.RoleAssigner
	policy    func() Policy

	delivery retry.Policy
	newID    func() string
	now      func() time.Time
}

// Config wires a Manager. Messenger, Assessor, Selector, and Scorer are
// required; Notifier and Assigner may be nil. A nil Policy falls back to
// the built-in thresholds.
type Config struct {
	Log       *zap.Logger
	Assessor  Assessor
	Selector  Selector
	Scorer    AnswerScorer
	Messenger transport.Messenger
	Notifier  Notifier
	Assigner  transport.RoleAssigner
	Policy    func() Policy
}

// NewManager creates an empty session manager.
func NewManager(cfg Config) *Manager {
	log := cfg.Log
	if log == nil {
		log = zap.NewNop()
	}
	policy := cfg.Policy
	if policy == nil {
		policy = DefaultPolicy
	}
	return &Manager{
		sessions:  make(map[string]*model.Session),
		log:       log,
		assessor:  cfg.Assessor,
		selector:  cfg.Selector,
		scorer:    cfg.Scorer,
		messenger: cfg.Messenger,
		notifier:  cfg.Notifier,
		assigner:  cfg.Assigner,
		policy:    policy,
		delivery: retry.Policy{
			MaxAttempts: deliveryAttempts,
			Backoff:     retry.DeliveryBackoff,
			Retryable:   transport.IsRateLimited,
		},
		newID: uuid.NewString,
		now:   time.Now,
	}
}

// Start opens a verification session for the profile and delivers the
// welcome message plus the first question. A still-active session rejects
// the new trigger; a failed session is replaced; a decided session is
// replaced only for manual triggers (re-verification is an admin/user
// decision, not an automatic one).
func (m *Manager) Start(ctx context.Context, p model.Profile, manual bool) (model.Session, error) {
	m.mu.Lock()
	if existing, ok := m.sessions[p.UserID]; ok {
		if existing.Active() {
			m.mu.Unlock()
			return *existing, ErrSessionActive
		}
		if existing.Status != model.StatusFailed && !manual {
			m.mu.Unlock()
			return *existing, ErrSessionActive
		}
	}
	s := &model.Session{
		ID:        m.newID(),
		Profile:   p,
		Status:    model.StatusStarting,
		Manual:    manual,
		StartedAt: m.now(),
	}
	m.sessions[p.UserID] = s
	m.mu.Unlock()

	assessment := m.assessor.Assess(ctx, p)
	selected := m.selector.Select(assessment.Score)

	m.mu.Lock()
	s.Suspicion = assessment
	s.Questions = selected
	m.mu.Unlock()

	m.log.Info("verification started",
		zap.String("user_id", p.UserID),
		zap.String("session_id", s.ID),
		zap.Int("suspicion", assessment.Score),
		zap.Bool("manual", manual))
	if m.notifier != nil {
		m.notifier.VerificationStarted(ctx, p, assessment)
	}

	if err := m.deliver(ctx, p.UserID, welcomeText); err != nil {
		return m.failDelivery(ctx, s, err)
	}
	if err := m.deliver(ctx, p.UserID, questionText(1, model.QuestionCount, selected[0])); err != nil {
		return m.failDelivery(ctx, s, err)
	}

	m.mu.Lock()
	s.Status = model.StatusPending
	snap := *s
	m.mu.Unlock()
	return snap, nil
}

// HandleAnswer records a direct-message reply for the user's pending
// session and advances it: the next question is delivered, or, on the
// final answer, the session moves to scoring and a decision is made.
// Returns false when the message does not belong to a pending session.
func (m *Manager) HandleAnswer(ctx context.Context, userID, content string) (bool, error) {
	m.mu.Lock()
	s, ok := m.sessions[userID]
	if !ok || s.Status != model.StatusPending {
		m.mu.Unlock()
		return false, nil
	}

	question := s.Questions[s.Index]
	s.Answers = append(s.Answers, model.Answer{
		Question:   question,
		Raw:        content,
		Normalized: normalize.Clean(content),
		ReceivedAt: m.now(),
	})
	s.Index++
	index := s.Index
	m.mu.Unlock()

	m.log.Info("answer received",
		zap.String("user_id", userID),
		zap.Int("answered", index),
		zap.Int("total", model.QuestionCount))

	if index < model.QuestionCount {
		next := questionText(index+1, model.QuestionCount, s.Questions[index])
		if err := m.deliver(ctx, userID, next); err != nil {
			_, ferr := m.failDelivery(ctx, s, err)
			return true, ferr
		}
		return true, nil
	}

	m.mu.Lock()
	s.Status = model.StatusScoring
	m.mu.Unlock()
	return true, m.complete(ctx, s)
}

// complete scores the finished answer set and applies the role decision.
// Score, role, and status land together under the lock, so no reader ever
// observes a partially-decided session.
func (m *Manager) complete(ctx context.Context, s *model.Session) error {
	m.mu.Lock()
	qs := make([]string, len(s.Answers))
	as := make([]string, len(s.Answers))
	for i, a := range s.Answers {
		qs[i] = a.Question
		as[i] = a.Normalized
	}
	userID := s.Profile.UserID
	m.mu.Unlock()

	result := m.scorer.Score(ctx, qs, as)

	if result.Outcome != scoring.OutcomeAISuccess && !result.BudgetExhausted {
		m.mu.Lock()
		s.Status = model.StatusManualReview
		s.Reasoning = fmt.Sprintf("scoring unavailable (%s); manual review required", result.Outcome)
		snap := *s
		m.mu.Unlock()

		m.log.Warn("oracle exhausted, escalating to manual review",
			zap.String("user_id", userID),
			zap.String("outcome", string(result.Outcome)))
		if m.notifier != nil {
			m.notifier.ManualReview(ctx, snap, result)
		}
		if err := m.messenger.SendDirect(ctx, userID, manualReviewText); err != nil {
			m.log.Warn("manual review notice undeliverable",
				zap.String("user_id", userID), zap.Error(err))
		}
		return nil
	}

	policy := m.policy()
	role, status := policy.Decide(result.Score)

	m.mu.Lock()
	score := result.Score
	s.FinalScore = &score
	s.AssignedRole = role
	s.Reasoning = result.Reasoning
	s.Status = status
	snap := *s
	m.mu.Unlock()

	m.log.Info("verification decided",
		zap.String("user_id", userID),
		zap.Int("score", result.Score),
		zap.String("role", string(role)),
		zap.String("status", string(status)),
		zap.String("outcome", string(result.Outcome)))

	if m.assigner != nil {
		if roleID := policy.RoleID(role); roleID != "" {
			if err := m.assigner.AssignRole(ctx, userID, roleID); err != nil {
				m.log.Error("role assignment failed",
					zap.String("user_id", userID),
					zap.String("role_id", roleID),
					zap.Error(err))
			}
		}
	}
	if err := m.messenger.SendDirect(ctx, userID, decisionText(role, result.Score)); err != nil {
		m.log.Warn("decision notice undeliverable",
			zap.String("user_id", userID), zap.Error(err))
	}
	if m.notifier != nil {
		m.notifier.Decision(ctx, snap)
	}
	return nil
}

// Restart re-runs delivery for a failed session, keeping the original
// suspicion assessment and question set but discarding any answers.
func (m *Manager) Restart(ctx context.Context, userID string) (model.Session, error) {
	m.mu.Lock()
	s, ok := m.sessions[userID]
	if !ok {
		m.mu.Unlock()
		return model.Session{}, ErrNoSession
	}
	if s.Status != model.StatusFailed {
		m.mu.Unlock()
		return *s, ErrNotFailed
	}
	s.Status = model.StatusStarting
	s.Answers = nil
	s.Index = 0
	s.FailureReason = ""
	m.mu.Unlock()

	m.log.Info("restarting failed verification", zap.String("user_id", userID))
	if err := m.deliver(ctx, userID, welcomeText); err != nil {
		return m.failDelivery(ctx, s, err)
	}
	if err := m.deliver(ctx, userID, questionText(1, model.QuestionCount, s.Questions[0])); err != nil {
		return m.failDelivery(ctx, s, err)
	}

	m.mu.Lock()
	s.Status = model.StatusPending
	snap := *s
	m.mu.Unlock()
	return snap, nil
}

// Reset evicts the user's session entirely.
func (m *Manager) Reset(userID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[userID]; !ok {
		return false
	}
	delete(m.sessions, userID)
	return true
}

// Get returns a snapshot of the user's session.
func (m *Manager) Get(userID string) (model.Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[userID]
	if !ok {
		return model.Session{}, false
	}
	return *s, true
}

// Stats returns session counts per status.
func (m *Manager) Stats() map[model.Status]int {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[model.Status]int, len(m.sessions))
	for _, s := range m.sessions {
		out[s.Status]++
	}
	return out
}

func (m *Manager) deliver(ctx context.Context, userID, content string) error {
	return m.delivery.Do(ctx, func() error {
		return m.messenger.SendDirect(ctx, userID, content)
	})
}

func (m *Manager) failDelivery(ctx context.Context, s *model.Session, err error) (model.Session, error) {
	reason := model.FailureError
	if transport.IsRateLimited(err) {
		reason = model.FailureRateLimited
	}

	m.mu.Lock()
	s.Status = model.StatusFailed
	s.FailureReason = reason
	snap := *s
	m.mu.Unlock()

	m.log.Warn("verification delivery failed",
		zap.String("user_id", s.Profile.UserID),
		zap.String("reason", string(reason)),
		zap.Error(err))
	if m.notifier != nil {
		m.notifier.DeliveryFailed(ctx, snap.Profile, reason)
	}
	return snap, fmt.Errorf("deliver verification message: %w", err)
}
