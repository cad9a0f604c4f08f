// Package gate ties the admission pipeline to the chat platform's events
// and commands: member joins, direct-message answers, and the admin
// command surface. Nothing here owns domain logic; the gate checks
// configuration and permissions, then delegates.
package gate

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/temple-tools/dvarapala/internal/flood"
	"github.com/temple-tools/dvarapala/internal/model"
	"github.com/temple-tools/dvarapala/internal/questions"
	"github.com/temple-tools/dvarapala/internal/session"
	"github.com/temple-tools/dvarapala/internal/spam"
	"github.com/temple-tools/dvarapala/internal/store"
	"github.com/temple-tools/dvarapala/internal/transport"
)

// ErrNotConfigured blocks every admission path until setup has run.
var ErrNotConfigured = errors.New("bot is not configured; run setup first")

// ErrNotAdmin rejects admin commands from non-admins.
var ErrNotAdmin = errors.New("administrator permission required")

// Gate is the platform-facing facade over the admission pipeline.
type Gate struct {
	log       *zap.Logger
	sessions  *session.Manager
	config    *store.Service
	questions *questions.Store
	admin     transport.AdminChecker
	flood     *flood.Guard

	// reloadOracle re-reads oracle credentials and limits; wired at
	// service start where the oracle client lives.
	reloadOracle func() error
}

// Config wires a Gate.
type Config struct {
	Log          *zap.Logger
	Sessions     *session.Manager
	Store        *store.Service
	Questions    *questions.Store
	Admin        transport.AdminChecker
	ReloadOracle func() error

	// Flood limits DM throughput per user; DefaultLimit when zero.
	Flood flood.Limit
}

// New creates a Gate.
func New(cfg Config) *Gate {
	log := cfg.Log
	if log == nil {
		log = zap.NewNop()
	}
	limit := cfg.Flood
	if !limit.Enabled() {
		limit = flood.DefaultLimit
	}
	return &Gate{
		log:          log,
		sessions:     cfg.Sessions,
		config:       cfg.Store,
		questions:    cfg.Questions,
		admin:        cfg.Admin,
		flood:        flood.NewGuard(limit),
		reloadOracle: cfg.ReloadOracle,
	}
}

// OnMemberJoin opens a verification session for a new member. Joins are
// not processed at all while the community is unconfigured, and bot
// accounts are never verified.
func (g *Gate) OnMemberJoin(ctx context.Context, p model.Profile) error {
	if !g.config.Configured() {
		g.log.Warn("skipping verification, community not configured",
			zap.String("user_id", p.UserID))
		return ErrNotConfigured
	}
	if p.IsBot {
		return nil
	}

	g.log.Info("new member joined", zap.String("user_id", p.UserID),
		zap.String("username", p.Username))
	_, err := g.sessions.Start(ctx, p, false)
	if errors.Is(err, session.ErrSessionActive) {
		return nil
	}
	return err
}

// OnDirectMessage routes a DM to the sender's pending session. Messages
// over the per-user flood limit are dropped before any processing. The
// text is screened by the spam heuristic next; flagged messages are still
// recorded (the scorers punish them), but the verdict is logged for the
// admins' audit trail. Returns true when the message advanced a session.
func (g *Gate) OnDirectMessage(ctx context.Context, userID, content string) (bool, error) {
	if !g.flood.Allow(userID) {
		g.log.Warn("dropping message over flood limit", zap.String("user_id", userID))
		return false, nil
	}

	verdict := spam.Evaluate(content)
	if verdict.Verdict != spam.Clean {
		g.log.Warn("flagged direct message",
			zap.String("user_id", userID),
			zap.String("verdict", string(verdict.Verdict)),
			zap.Int("score", verdict.Score),
			zap.Strings("reasons", verdict.Reasons))
	}
	return g.sessions.HandleAnswer(ctx, userID, content)
}

// Setup stores the community configuration and marks it configured.
// The first setup is open (there are no admin roles yet to check against);
// later changes require an admin.
func (g *Gate) Setup(ctx context.Context, actorID string, cfg store.Config) (string, error) {
	if g.config.Configured() {
		if err := g.requireAdmin(ctx, actorID); err != nil {
			return "", err
		}
	}
	if cfg.DevoteeRoleID == "" || cfg.SeekerRoleID == "" || cfg.VerificationChannelID == "" {
		return "", fmt.Errorf("setup requires devotee role, seeker role, and verification channel")
	}

	saved, err := g.config.Update(ctx, func(c *store.Config) {
		*c = cfg
		c.IsConfigured = true
		c.ConfiguredBy = actorID
	})
	if err != nil {
		return "", fmt.Errorf("persist configuration: %w", err)
	}
	g.log.Info("community configured",
		zap.String("by", actorID),
		zap.String("devotee_role", saved.DevoteeRoleID),
		zap.String("seeker_role", saved.SeekerRoleID))
	return "Setup complete. New members will now be verified automatically.", nil
}

// ReloadQuestions re-reads the question bank from disk.
func (g *Gate) ReloadQuestions(ctx context.Context, actorID string) (string, error) {
	if err := g.requireAdmin(ctx, actorID); err != nil {
		return "", err
	}
	if err := g.questions.Reload(); err != nil {
		return "", fmt.Errorf("reload question bank: %w", err)
	}
	bank := g.questions.Snapshot()
	return fmt.Sprintf("Question bank reloaded: %d questions (version %d).",
		bank.Size(), g.questions.Version()), nil
}

// ReloadAIConfig re-reads the oracle credentials and limits from disk.
func (g *Gate) ReloadAIConfig(ctx context.Context, actorID string) (string, error) {
	if err := g.requireAdmin(ctx, actorID); err != nil {
		return "", err
	}
	if g.reloadOracle == nil {
		return "", fmt.Errorf("oracle reload not available")
	}
	if err := g.reloadOracle(); err != nil {
		return "", fmt.Errorf("reload oracle config: %w", err)
	}
	return "Oracle configuration reloaded.", nil
}

// QuestionStats summarizes the current question bank for admins.
func (g *Gate) QuestionStats(ctx context.Context, actorID string) (string, error) {
	if err := g.requireAdmin(ctx, actorID); err != nil {
		return "", err
	}
	stats := g.questions.Snapshot().Stats()
	return fmt.Sprintf(
		"Question bank: %d entry, %d reflective, %d/%d/%d psychological "+
			"(trusted/medium/high), %d total. Doctrine question present: %t.",
		stats.Entry, stats.Reflective,
		stats.Trusted, stats.Medium, stats.High,
		stats.Total, stats.DoctrineFound), nil
}

// Verify starts (or restarts) the caller's own verification.
func (g *Gate) Verify(ctx context.Context, p model.Profile) (string, error) {
	if !g.config.Configured() {
		return "", ErrNotConfigured
	}

	if existing, ok := g.sessions.Get(p.UserID); ok {
		switch {
		case existing.Status == model.StatusPending:
			return fmt.Sprintf("Your verification is already in progress: question %d of %d. Check your DMs.",
				existing.Index+1, model.QuestionCount), nil
		case existing.Status == model.StatusFailed:
			if _, err := g.sessions.Restart(ctx, p.UserID); err != nil {
				return "", err
			}
			return "Verification restarted. Check your DMs.", nil
		case existing.Status.Terminal():
			return "Your verification is already complete.", nil
		default:
			return "Your verification is being processed. Please wait for the results.", nil
		}
	}

	if _, err := g.sessions.Start(ctx, p, true); err != nil {
		return "", err
	}
	return "Verification started. Check your DMs.", nil
}

// VerifyFor restarts verification for another user, discarding any prior
// session. Admin only.
func (g *Gate) VerifyFor(ctx context.Context, actorID string, target model.Profile) (string, error) {
	if err := g.requireAdmin(ctx, actorID); err != nil {
		return "", err
	}
	if !g.config.Configured() {
		return "", ErrNotConfigured
	}

	g.sessions.Reset(target.UserID)
	if _, err := g.sessions.Start(ctx, target, true); err != nil {
		return "", err
	}
	g.log.Info("admin-triggered verification",
		zap.String("admin", actorID),
		zap.String("target", target.UserID))
	return fmt.Sprintf("Verification started for @%s.", target.Username), nil
}

// ResetConfig clears the stored configuration. Admin only.
func (g *Gate) ResetConfig(ctx context.Context, actorID string) (string, error) {
	if err := g.requireAdmin(ctx, actorID); err != nil {
		return "", err
	}
	if err := g.config.Reset(ctx); err != nil {
		return "", fmt.Errorf("reset configuration: %w", err)
	}
	return "Configuration cleared. Run setup to reconfigure.", nil
}

func (g *Gate) requireAdmin(ctx context.Context, userID string) error {
	if g.admin == nil {
		return ErrNotAdmin
	}
	ok, err := g.admin.IsAdmin(ctx, userID)
	if err != nil {
		return fmt.Errorf("admin check: %w", err)
	}
	if !ok {
		return ErrNotAdmin
	}
	return nil
}
