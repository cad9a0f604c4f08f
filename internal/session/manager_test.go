package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/temple-tools/dvarapala/internal/model"
	"github.com/temple-tools/dvarapala/internal/scoring"
	"github.com/temple-tools/dvarapala/internal/transport"
)

type fakeAssessor struct{ a model.Assessment }

func (f fakeAssessor) Assess(ctx context.Context, p model.Profile) model.Assessment { return f.a }

type fakeSelector struct{}

func (fakeSelector) Select(score int) []string {
	return []string{
		"What brings you here?",
		"How do you feel about chanting?",
		"Who is Krishna to you?",
		"How do you take correction?",
	}
}

type fakeScorer struct {
	result scoring.Result
	calls  int
	gotQs  []string
	gotAs  []string
}

func (f *fakeScorer) Score(ctx context.Context, qs, as []string) scoring.Result {
	f.calls++
	f.gotQs = qs
	f.gotAs = as
	return f.result
}

type fakeMessenger struct {
	mu      sync.Mutex
	directs []string
	// failFirst makes the first n direct sends fail with err.
	failFirst int
	err       error
}

func (f *fakeMessenger) SendDirect(ctx context.Context, userID, content string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failFirst > 0 {
		f.failFirst--
		return f.err
	}
	f.directs = append(f.directs, content)
	return nil
}

func (f *fakeMessenger) SendChannel(ctx context.Context, channelID, content string) error {
	return nil
}

func (f *fakeMessenger) sent() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.directs...)
}

type fakeNotifier struct {
	started  int
	failed   int
	manual   int
	decided  int
	lastSess model.Session
}

func (f *fakeNotifier) VerificationStarted(ctx context.Context, p model.Profile, a model.Assessment) {
	f.started++
}
func (f *fakeNotifier) DeliveryFailed(ctx context.Context, p model.Profile, r model.FailureReason) {
	f.failed++
}
func (f *fakeNotifier) ManualReview(ctx context.Context, s model.Session, r scoring.Result) {
	f.manual++
	f.lastSess = s
}
func (f *fakeNotifier) Decision(ctx context.Context, s model.Session) {
	f.decided++
	f.lastSess = s
}

type fakeAssigner struct {
	roleIDs []string
}

func (f *fakeAssigner) AssignRole(ctx context.Context, userID, roleID string) error {
	f.roleIDs = append(f.roleIDs, roleID)
	return nil
}

func testProfile() model.Profile {
	return model.Profile{
		UserID:    "u1",
		Username:  "visitor",
		CreatedAt: time.Now().Add(-100 * 24 * time.Hour),
		JoinedAt:  time.Now(),
	}
}

func noSleep(ctx context.Context, d time.Duration) error { return nil }

func newTestManager(scorer AnswerScorer, msg transport.Messenger, n Notifier, assigner transport.RoleAssigner, policy func() Policy) *Manager {
	m := NewManager(Config{
		Log:       zap.NewNop(),
		Assessor:  fakeAssessor{a: model.Assessment{Score: 1}},
		Selector:  fakeSelector{},
		Scorer:    scorer,
		Messenger: msg,
		Notifier:  n,
		Assigner:  assigner,
		Policy:    policy,
	})
	m.delivery.Sleep = noSleep
	return m
}

func answerAll(t *testing.T, m *Manager, userID string) {
	t.Helper()
	answers := []string{
		"A friend invited me and I felt drawn to it",
		"It gives me a deep sense of peace",
		"The Supreme Person, as far as I understand",
		"I try to listen and stay humble",
	}
	for _, a := range answers {
		handled, err := m.HandleAnswer(context.Background(), userID, a)
		if err != nil {
			t.Fatalf("HandleAnswer(%q): %v", a, err)
		}
		if !handled {
			t.Fatalf("HandleAnswer(%q) not handled", a)
		}
	}
}

func TestFullFlowApproved(t *testing.T) {
	scorer := &fakeScorer{result: scoring.Result{Score: 9, Reasoning: "sincere", Outcome: scoring.OutcomeAISuccess}}
	msg := &fakeMessenger{}
	notif := &fakeNotifier{}
	assigner := &fakeAssigner{}
	policy := func() Policy {
		return Policy{DevoteeMin: 8, SeekerMin: 5, DevoteeRoleID: "r-dev"}
	}
	m := newTestManager(scorer, msg, notif, assigner, policy)

	s, err := m.Start(context.Background(), testProfile(), false)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if s.Status != model.StatusPending {
		t.Fatalf("expected pending after start, got %s", s.Status)
	}

	answerAll(t, m, "u1")

	got, _ := m.Get("u1")
	if got.Status != model.StatusApproved {
		t.Errorf("expected approved, got %s", got.Status)
	}
	if got.FinalScore == nil || *got.FinalScore != 9 || got.AssignedRole != model.RoleDevotee {
		t.Errorf("expected score 9 devotee together, got %+v", got)
	}
	if scorer.calls != 1 {
		t.Errorf("expected one scoring call, got %d", scorer.calls)
	}
	if len(assigner.roleIDs) != 1 || assigner.roleIDs[0] != "r-dev" {
		t.Errorf("expected devotee role assigned, got %v", assigner.roleIDs)
	}
	if notif.started != 1 || notif.decided != 1 {
		t.Errorf("expected started and decision notifications, got %+v", notif)
	}

	// welcome + 4 questions + decision message
	sent := msg.sent()
	if len(sent) != 6 {
		t.Fatalf("expected 6 direct messages, got %d: %v", len(sent), sent)
	}
	if !strings.Contains(sent[1], "Question 1/4") || !strings.Contains(sent[4], "Question 4/4") {
		t.Errorf("question numbering off: %v", sent)
	}
}

func TestStartRejectsActiveSession(t *testing.T) {
	scorer := &fakeScorer{result: scoring.Result{Outcome: scoring.OutcomeAISuccess}}
	m := newTestManager(scorer, &fakeMessenger{}, nil, nil, nil)

	if _, err := m.Start(context.Background(), testProfile(), false); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := m.Start(context.Background(), testProfile(), true); !errors.Is(err, ErrSessionActive) {
		t.Errorf("expected ErrSessionActive, got %v", err)
	}
}

func TestStartFailsOnPersistentRateLimit(t *testing.T) {
	msg := &fakeMessenger{failFirst: 99, err: transport.RateLimited(errors.New("429"))}
	notif := &fakeNotifier{}
	m := newTestManager(&fakeScorer{}, msg, notif, nil, nil)

	s, err := m.Start(context.Background(), testProfile(), false)
	if err == nil {
		t.Fatal("expected delivery error")
	}
	if s.Status != model.StatusFailed || s.FailureReason != model.FailureRateLimited {
		t.Errorf("expected failed/rate_limited, got %s/%s", s.Status, s.FailureReason)
	}
	if notif.failed != 1 {
		t.Errorf("expected delivery-failure notification, got %d", notif.failed)
	}
}

func TestStartFailsFastOnPermanentError(t *testing.T) {
	msg := &fakeMessenger{failFirst: 99, err: transport.Forbidden(errors.New("DMs closed"))}
	m := newTestManager(&fakeScorer{}, msg, nil, nil, nil)

	s, err := m.Start(context.Background(), testProfile(), false)
	if err == nil {
		t.Fatal("expected delivery error")
	}
	if s.Status != model.StatusFailed || s.FailureReason != model.FailureError {
		t.Errorf("expected failed/error, got %s/%s", s.Status, s.FailureReason)
	}
	// Non-retryable failure uses a single attempt.
	if msg.failFirst != 98 {
		t.Errorf("expected one attempt, %d consumed", 99-msg.failFirst)
	}
}

func TestRestartFailedSession(t *testing.T) {
	msg := &fakeMessenger{failFirst: 99, err: transport.RateLimited(errors.New("429"))}
	m := newTestManager(&fakeScorer{result: scoring.Result{Score: 6, Outcome: scoring.OutcomeAISuccess}}, msg, nil, nil, nil)

	if _, err := m.Start(context.Background(), testProfile(), false); err == nil {
		t.Fatal("expected start to fail")
	}

	// Platform recovers.
	msg.mu.Lock()
	msg.failFirst = 0
	msg.mu.Unlock()

	s, err := m.Restart(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Restart: %v", err)
	}
	if s.Status != model.StatusPending {
		t.Errorf("expected pending after restart, got %s", s.Status)
	}

	answerAll(t, m, "u1")
	got, _ := m.Get("u1")
	if got.Status != model.StatusConditional || got.AssignedRole != model.RoleSeeker {
		t.Errorf("expected seeker decision after restart, got %+v", got)
	}
}

func TestRestartRequiresFailedState(t *testing.T) {
	m := newTestManager(&fakeScorer{}, &fakeMessenger{}, nil, nil, nil)
	if _, err := m.Restart(context.Background(), "u1"); !errors.Is(err, ErrNoSession) {
		t.Errorf("expected ErrNoSession, got %v", err)
	}
	_, _ = m.Start(context.Background(), testProfile(), false)
	if _, err := m.Restart(context.Background(), "u1"); !errors.Is(err, ErrNotFailed) {
		t.Errorf("expected ErrNotFailed, got %v", err)
	}
}

func TestOracleExhaustionGoesToManualReview(t *testing.T) {
	scorer := &fakeScorer{result: scoring.Result{Score: 4, Outcome: scoring.OutcomeBothKeysFailed}}
	notif := &fakeNotifier{}
	assigner := &fakeAssigner{}
	m := newTestManager(scorer, &fakeMessenger{}, notif, assigner, nil)

	_, _ = m.Start(context.Background(), testProfile(), false)
	answerAll(t, m, "u1")

	got, _ := m.Get("u1")
	if got.Status != model.StatusManualReview {
		t.Errorf("expected manual review, got %s", got.Status)
	}
	if got.FinalScore != nil || got.AssignedRole != "" {
		t.Errorf("expected no automatic score or role, got %+v", got)
	}
	if notif.manual != 1 || notif.decided != 0 {
		t.Errorf("expected manual-review notification only, got %+v", notif)
	}
	if len(assigner.roleIDs) != 0 {
		t.Errorf("expected no role assignment, got %v", assigner.roleIDs)
	}
}

func TestBudgetExhaustionFollowsNormalFlow(t *testing.T) {
	scorer := &fakeScorer{result: scoring.Result{
		Score: 6, Reasoning: "rules", Outcome: scoring.OutcomeNoKey, BudgetExhausted: true,
	}}
	notif := &fakeNotifier{}
	m := newTestManager(scorer, &fakeMessenger{}, notif, nil, nil)

	_, _ = m.Start(context.Background(), testProfile(), false)
	answerAll(t, m, "u1")

	got, _ := m.Get("u1")
	if got.Status != model.StatusConditional || got.AssignedRole != model.RoleSeeker {
		t.Errorf("expected seeker via degraded scoring, got %+v", got)
	}
	if notif.manual != 0 || notif.decided != 1 {
		t.Errorf("expected normal decision flow, got %+v", notif)
	}
}

func TestLowScoreRestrictedWhenConfigured(t *testing.T) {
	scorer := &fakeScorer{result: scoring.Result{Score: 2, Outcome: scoring.OutcomeAISuccess}}
	assigner := &fakeAssigner{}
	policy := func() Policy {
		return Policy{DevoteeMin: 8, SeekerMin: 5, RestrictedRoleID: "r-restricted"}
	}
	m := newTestManager(scorer, &fakeMessenger{}, nil, assigner, policy)

	_, _ = m.Start(context.Background(), testProfile(), false)
	answerAll(t, m, "u1")

	got, _ := m.Get("u1")
	if got.Status != model.StatusRestricted || got.AssignedRole != model.RoleRestricted {
		t.Errorf("expected restricted, got %+v", got)
	}
	if len(assigner.roleIDs) != 1 || assigner.roleIDs[0] != "r-restricted" {
		t.Errorf("expected restricted role assigned, got %v", assigner.roleIDs)
	}
}

func TestLowScoreRejectedWithoutRestrictedRole(t *testing.T) {
	scorer := &fakeScorer{result: scoring.Result{Score: 2, Outcome: scoring.OutcomeAISuccess}}
	m := newTestManager(scorer, &fakeMessenger{}, nil, nil, nil)

	_, _ = m.Start(context.Background(), testProfile(), false)
	answerAll(t, m, "u1")

	got, _ := m.Get("u1")
	if got.Status != model.StatusRejected || got.AssignedRole != model.RoleNone {
		t.Errorf("expected rejected, got %+v", got)
	}
}

func TestHandleAnswerIgnoresUnknownUser(t *testing.T) {
	m := newTestManager(&fakeScorer{}, &fakeMessenger{}, nil, nil, nil)
	handled, err := m.HandleAnswer(context.Background(), "ghost", "hello")
	if handled || err != nil {
		t.Errorf("expected unhandled, got handled=%v err=%v", handled, err)
	}
}

func TestAnswersAreNormalized(t *testing.T) {
	scorer := &fakeScorer{result: scoring.Result{Score: 6, Outcome: scoring.OutcomeAISuccess}}
	m := newTestManager(scorer, &fakeMessenger{}, nil, nil, nil)

	_, _ = m.Start(context.Background(), testProfile(), false)
	if _, err := m.HandleAnswer(context.Background(), "u1", "i   dont know   much about krishn"); err != nil {
		t.Fatalf("HandleAnswer: %v", err)
	}

	got, _ := m.Get("u1")
	if len(got.Answers) != 1 {
		t.Fatalf("expected one answer, got %d", len(got.Answers))
	}
	norm := got.Answers[0].Normalized
	if strings.Contains(norm, "dont") || strings.Contains(norm, "krishn ") || strings.Contains(norm, "  ") {
		t.Errorf("answer not normalized: %q", norm)
	}
	if got.Answers[0].Raw != "i   dont know   much about krishn" {
		t.Errorf("raw answer not preserved: %q", got.Answers[0].Raw)
	}
}

func TestScorerReceivesNormalizedAnswers(t *testing.T) {
	scorer := &fakeScorer{result: scoring.Result{Score: 6, Outcome: scoring.OutcomeAISuccess}}
	m := newTestManager(scorer, &fakeMessenger{}, nil, nil, nil)

	_, _ = m.Start(context.Background(), testProfile(), false)
	answerAll(t, m, "u1")

	if len(scorer.gotQs) != 4 || len(scorer.gotAs) != 4 {
		t.Fatalf("expected 4 question/answer pairs, got %d/%d", len(scorer.gotQs), len(scorer.gotAs))
	}
	if scorer.gotQs[2] != "Who is Krishna to you?" {
		t.Errorf("question order broken: %v", scorer.gotQs)
	}
}

func TestStatsAndReset(t *testing.T) {
	scorer := &fakeScorer{result: scoring.Result{Score: 9, Outcome: scoring.OutcomeAISuccess}}
	m := newTestManager(scorer, &fakeMessenger{}, nil, nil, nil)

	_, _ = m.Start(context.Background(), testProfile(), false)
	if got := m.Stats()[model.StatusPending]; got != 1 {
		t.Errorf("expected 1 pending, got %d", got)
	}

	answerAll(t, m, "u1")
	if got := m.Stats()[model.StatusApproved]; got != 1 {
		t.Errorf("expected 1 approved, got %d", got)
	}

	if !m.Reset("u1") {
		t.Error("expected reset to evict session")
	}
	if m.Reset("u1") {
		t.Error("expected second reset to report missing session")
	}
}
