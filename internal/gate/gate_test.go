package gate

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/temple-tools/dvarapala/internal/flood"
	"github.com/temple-tools/dvarapala/internal/model"
	"github.com/temple-tools/dvarapala/internal/questions"
	"github.com/temple-tools/dvarapala/internal/scoring"
	"github.com/temple-tools/dvarapala/internal/session"
	"github.com/temple-tools/dvarapala/internal/store"
)

type fakeAssessor struct{}

func (fakeAssessor) Assess(ctx context.Context, p model.Profile) model.Assessment {
	return model.Assessment{Score: 1}
}

type storeSelector struct{ qs *questions.Store }

func (s storeSelector) Select(score int) []string {
	return questions.Select(s.qs.Snapshot(), score)
}

type fakeScorer struct{ result scoring.Result }

func (f fakeScorer) Score(ctx context.Context, qs, as []string) scoring.Result { return f.result }

type fakeMessenger struct {
	directs  []string
	channels []string
}

func (f *fakeMessenger) SendDirect(ctx context.Context, userID, content string) error {
	f.directs = append(f.directs, content)
	return nil
}

func (f *fakeMessenger) SendChannel(ctx context.Context, channelID, content string) error {
	f.channels = append(f.channels, content)
	return nil
}

type fakeAdmin struct{ admins map[string]bool }

func (f fakeAdmin) IsAdmin(ctx context.Context, userID string) (bool, error) {
	return f.admins[userID], nil
}

type harness struct {
	gate *Gate
	msg  *fakeMessenger
	svc  *store.Service
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	ctx := context.Background()

	fs := store.OpenFile(filepath.Join(t.TempDir(), "config.json"))
	svc, err := store.NewService(ctx, fs, "g1")
	if err != nil {
		t.Fatalf("store service: %v", err)
	}

	qs, err := questions.NewStore("")
	if err != nil {
		t.Fatalf("question store: %v", err)
	}

	msg := &fakeMessenger{}
	sessions := session.NewManager(session.Config{
		Log:       zap.NewNop(),
		Assessor:  fakeAssessor{},
		Selector:  storeSelector{qs: qs},
		Scorer:    fakeScorer{result: scoring.Result{Score: 9, Outcome: scoring.OutcomeAISuccess}},
		Messenger: msg,
		Policy: func() session.Policy {
			cfg := svc.Current()
			devotee, seeker := cfg.Thresholds()
			return session.Policy{
				DevoteeMin:       devotee,
				SeekerMin:        seeker,
				DevoteeRoleID:    cfg.DevoteeRoleID,
				SeekerRoleID:     cfg.SeekerRoleID,
				RestrictedRoleID: cfg.RestrictedRoleID,
			}
		},
	})

	g := New(Config{
		Log:       zap.NewNop(),
		Sessions:  sessions,
		Store:     svc,
		Questions: qs,
		Admin:     fakeAdmin{admins: map[string]bool{"admin": true}},
		ReloadOracle: func() error {
			return nil
		},
	})
	return &harness{gate: g, msg: msg, svc: svc}
}

func validSetup() store.Config {
	return store.Config{
		DevoteeRoleID:         "r-dev",
		SeekerRoleID:          "r-seek",
		VerificationChannelID: "c-verify",
		AdminChannelID:        "c-admin",
	}
}

func joinProfile(id string) model.Profile {
	return model.Profile{
		UserID:    id,
		Username:  "visitor",
		CreatedAt: time.Now().Add(-100 * 24 * time.Hour),
		JoinedAt:  time.Now(),
	}
}

func TestJoinBlockedWhileUnconfigured(t *testing.T) {
	h := newHarness(t)
	err := h.gate.OnMemberJoin(context.Background(), joinProfile("u1"))
	if !errors.Is(err, ErrNotConfigured) {
		t.Errorf("expected ErrNotConfigured, got %v", err)
	}
	if len(h.msg.directs) != 0 {
		t.Errorf("expected no messages while unconfigured, got %v", h.msg.directs)
	}
}

func TestSetupThenJoin(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	reply, err := h.gate.Setup(ctx, "founder", validSetup())
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	if !strings.Contains(reply, "Setup complete") {
		t.Errorf("unexpected setup reply %q", reply)
	}
	if !h.svc.Configured() {
		t.Fatal("expected configured after setup")
	}

	if err := h.gate.OnMemberJoin(ctx, joinProfile("u1")); err != nil {
		t.Fatalf("OnMemberJoin: %v", err)
	}
	// welcome + first question
	if len(h.msg.directs) != 2 || !strings.Contains(h.msg.directs[1], "Question 1/4") {
		t.Errorf("expected welcome and first question, got %v", h.msg.directs)
	}
}

func TestSetupValidatesRequiredFields(t *testing.T) {
	h := newHarness(t)
	cfg := validSetup()
	cfg.DevoteeRoleID = ""
	if _, err := h.gate.Setup(context.Background(), "founder", cfg); err == nil {
		t.Error("expected error for missing devotee role")
	}
}

func TestReconfigureRequiresAdmin(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	if _, err := h.gate.Setup(ctx, "founder", validSetup()); err != nil {
		t.Fatalf("initial setup: %v", err)
	}
	if _, err := h.gate.Setup(ctx, "rando", validSetup()); !errors.Is(err, ErrNotAdmin) {
		t.Errorf("expected ErrNotAdmin for reconfigure, got %v", err)
	}
	if _, err := h.gate.Setup(ctx, "admin", validSetup()); err != nil {
		t.Errorf("expected admin reconfigure to pass, got %v", err)
	}
}

func TestBotAccountsSkipped(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	_, _ = h.gate.Setup(ctx, "founder", validSetup())

	p := joinProfile("u-bot")
	p.IsBot = true
	if err := h.gate.OnMemberJoin(ctx, p); err != nil {
		t.Fatalf("OnMemberJoin bot: %v", err)
	}
	if len(h.msg.directs) != 0 {
		t.Errorf("expected no verification for bot accounts, got %v", h.msg.directs)
	}
}

func TestDirectMessageAdvancesSession(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	_, _ = h.gate.Setup(ctx, "founder", validSetup())
	_ = h.gate.OnMemberJoin(ctx, joinProfile("u1"))

	handled, err := h.gate.OnDirectMessage(ctx, "u1", "A friend told me about this place")
	if err != nil || !handled {
		t.Fatalf("expected answer handled, got handled=%v err=%v", handled, err)
	}
	if !strings.Contains(h.msg.directs[len(h.msg.directs)-1], "Question 2/4") {
		t.Errorf("expected second question delivered, got %v", h.msg.directs)
	}

	handled, err = h.gate.OnDirectMessage(ctx, "stranger", "hello")
	if err != nil || handled {
		t.Errorf("expected stranger DM ignored, got handled=%v err=%v", handled, err)
	}
}

func TestFloodedMessagesDropped(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	_, _ = h.gate.Setup(ctx, "founder", validSetup())
	_ = h.gate.OnMemberJoin(ctx, joinProfile("u1"))

	h.gate.flood = flood.NewGuard(flood.Limit{MaxMessages: 1, Window: time.Minute})
	handled, err := h.gate.OnDirectMessage(ctx, "u1", "first answer arrives fine")
	if err != nil || !handled {
		t.Fatalf("expected first message handled, got handled=%v err=%v", handled, err)
	}
	handled, err = h.gate.OnDirectMessage(ctx, "u1", "second message in the same window")
	if err != nil || handled {
		t.Errorf("expected flooded message dropped, got handled=%v err=%v", handled, err)
	}

	s, _ := h.gate.sessions.Get("u1")
	if len(s.Answers) != 1 {
		t.Errorf("expected dropped message not recorded, got %d answers", len(s.Answers))
	}
}

func TestVerifyLifecycle(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	if _, err := h.gate.Verify(ctx, joinProfile("u1")); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured before setup, got %v", err)
	}

	_, _ = h.gate.Setup(ctx, "founder", validSetup())
	reply, err := h.gate.Verify(ctx, joinProfile("u1"))
	if err != nil || !strings.Contains(reply, "started") {
		t.Fatalf("expected verification start, got %q err=%v", reply, err)
	}

	reply, err = h.gate.Verify(ctx, joinProfile("u1"))
	if err != nil || !strings.Contains(reply, "in progress") {
		t.Errorf("expected progress reply for pending session, got %q err=%v", reply, err)
	}
}

func TestVerifyForRequiresAdmin(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	_, _ = h.gate.Setup(ctx, "founder", validSetup())

	if _, err := h.gate.VerifyFor(ctx, "rando", joinProfile("u2")); !errors.Is(err, ErrNotAdmin) {
		t.Errorf("expected ErrNotAdmin, got %v", err)
	}
	reply, err := h.gate.VerifyFor(ctx, "admin", joinProfile("u2"))
	if err != nil || !strings.Contains(reply, "started") {
		t.Errorf("expected admin-triggered start, got %q err=%v", reply, err)
	}
}

func TestQuestionCommandsRequireAdmin(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	if _, err := h.gate.QuestionStats(ctx, "rando"); !errors.Is(err, ErrNotAdmin) {
		t.Errorf("expected ErrNotAdmin for stats, got %v", err)
	}
	reply, err := h.gate.QuestionStats(ctx, "admin")
	if err != nil || !strings.Contains(reply, "Doctrine question present: true") {
		t.Errorf("unexpected stats reply %q err=%v", reply, err)
	}

	if _, err := h.gate.ReloadQuestions(ctx, "rando"); !errors.Is(err, ErrNotAdmin) {
		t.Errorf("expected ErrNotAdmin for reload, got %v", err)
	}
	reply, err = h.gate.ReloadQuestions(ctx, "admin")
	if err != nil || !strings.Contains(reply, "reloaded") {
		t.Errorf("unexpected reload reply %q err=%v", reply, err)
	}

	if _, err := h.gate.ReloadAIConfig(ctx, "admin"); err != nil {
		t.Errorf("ReloadAIConfig: %v", err)
	}
}

func TestResetConfig(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	_, _ = h.gate.Setup(ctx, "founder", validSetup())

	if _, err := h.gate.ResetConfig(ctx, "admin"); err != nil {
		t.Fatalf("ResetConfig: %v", err)
	}
	if h.svc.Configured() {
		t.Error("expected unconfigured after reset")
	}
}
