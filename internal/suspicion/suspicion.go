// Package suspicion estimates join-time risk from account metadata: a
// deterministic age-based score in [0,4], optionally refined by a single
// oracle call for borderline cases. Clear-cut scores (0 or 4) never spend
// oracle budget.
package suspicion

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/temple-tools/dvarapala/internal/budget"
	"github.com/temple-tools/dvarapala/internal/model"
	"github.com/temple-tools/dvarapala/internal/oracle"
)

// Generator produces oracle text for a prompt under a given credential.
type Generator interface {
	Generate(ctx context.Context, apiKey, prompt string) (string, error)
}

// Base computes the deterministic age-based score and its factors.
// Age thresholds are empirically chosen product constants.
func Base(p model.Profile, now time.Time) (int, []string) {
	score := 0
	var factors []string

	age := p.AccountAgeDays(now)
	switch {
	case age < 1:
		score += 3
		factors = append(factors, "account created less than a day ago")
	case age < 7:
		score += 2
		factors = append(factors, "account less than a week old")
	case age < 30:
		score += 1
		factors = append(factors, "account less than a month old")
	case age > 365:
		score--
		factors = append(factors, "well-established account")
	}

	if score < 0 {
		score = 0
	} else if score > 4 {
		score = 4
	}
	return score, factors
}

// Scorer refines borderline deterministic scores through the oracle.
// The keyring and budget tracker are shared with the answer scorer.
type Scorer struct {
	log    *zap.Logger
	gen    Generator
	keys   *oracle.Keyring
	budget *budget.Tracker
	now    func() time.Time
}

// NewScorer wires the scorer to its shared collaborators.
func NewScorer(log *zap.Logger, gen Generator, keys *oracle.Keyring, tracker *budget.Tracker) *Scorer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Scorer{log: log, gen: gen, keys: keys, budget: tracker, now: time.Now}
}

// Assess scores the profile. The deterministic score stands unless it falls
// in the borderline band {1,2,3}, a credential is configured, budget
// remains, and the oracle returns a parseable integer in [0,4], in which
// case the oracle value replaces it. Any oracle failure keeps the
// deterministic result; Assess never returns an error.
func (s *Scorer) Assess(ctx context.Context, p model.Profile) model.Assessment {
	score, factors := Base(p, s.now())
	a := model.Assessment{Score: score, Factors: factors}

	if score < 1 || score > 3 {
		return a
	}
	if s.gen == nil || s.keys == nil || !s.keys.Configured() {
		return a
	}
	if !s.budget.TryReserve() {
		s.log.Info("oracle budget spent, keeping deterministic suspicion score",
			zap.String("user_id", p.UserID),
			zap.Int("score", score))
		return a
	}

	apiKey, slot, ok := s.keys.Active()
	if !ok {
		return a
	}
	reply, err := s.gen.Generate(ctx, apiKey, s.prompt(p, score))
	if err != nil {
		s.log.Warn("suspicion refinement failed, keeping deterministic score",
			zap.String("user_id", p.UserID),
			zap.String("key", slot),
			zap.Error(err))
		s.keys.MarkFailure()
		return a
	}

	refined, err := parseScore(reply)
	if err != nil {
		s.log.Warn("unusable suspicion refinement reply",
			zap.String("user_id", p.UserID),
			zap.String("reply", reply))
		return a
	}

	s.log.Info("oracle refined suspicion score",
		zap.String("user_id", p.UserID),
		zap.Int("base", score),
		zap.Int("refined", refined))
	a.Score = refined
	a.Refined = true
	return a
}

func (s *Scorer) prompt(p model.Profile, base int) string {
	return fmt.Sprintf(`Rate account suspicion (0-4):

User: %s | Age: %dd | Avatar: %t | Bot: %t | Rule score: %d

0 means clearly legitimate, 4 means very suspicious. Use the rule score as
guidance. Reply with a single number 0-4.
`, p.Username, p.AccountAgeDays(s.now()), p.HasAvatar, p.IsBot, base)
}

// parseScore accepts only a bare integer in [0,4]; anything else keeps the
// deterministic score.
func parseScore(reply string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(reply))
	if err != nil {
		return 0, fmt.Errorf("non-numeric reply: %w", err)
	}
	if n < 0 || n > 4 {
		return 0, fmt.Errorf("score %d out of range", n)
	}
	return n, nil
}
