package scoring

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/temple-tools/dvarapala/internal/budget"
	"github.com/temple-tools/dvarapala/internal/oracle"
)

const maxOracleAttempts = 3

// Outcome records how a score was produced.
type Outcome string

const (
	// OutcomeAISuccess means the oracle scored the answers.
	OutcomeAISuccess Outcome = "ai_success"
	// OutcomeBothKeysFailed means every attempt failed after the backup
	// credential was also tried.
	OutcomeBothKeysFailed Outcome = "both_keys_failed"
	// OutcomeAllRetriesFailed means every attempt failed with no backup
	// credential to fail over to.
	OutcomeAllRetriesFailed Outcome = "all_retries_failed"
	// OutcomeNoKey means the oracle was never attempted: no credential
	// configured, or the daily budget is spent.
	OutcomeNoKey Outcome = "no_key"
)

// Result is a final answer-set verdict.
type Result struct {
	Score     int
	Reasoning string
	Outcome   Outcome
	// BudgetExhausted distinguishes a budget-driven fallback from a
	// credential failure; the former follows the normal role flow, the
	// latter escalates to manual review.
	BudgetExhausted bool
	Cached          bool
}

// Generator produces oracle text for a prompt under a given credential.
type Generator interface {
	Generate(ctx context.Context, apiKey, prompt string) (string, error)
}

// Scorer runs the two-tier scoring pass. Safe for concurrent use; the
// budget tracker, keyring, and cache are shared across all callers.
type Scorer struct {
	log    *zap.Logger
	gen    Generator
	keys   *oracle.Keyring
	budget *budget.Tracker
	cache  *Cache
}

// NewScorer wires the scorer to its shared collaborators.
func NewScorer(log *zap.Logger, gen Generator, keys *oracle.Keyring, tracker *budget.Tracker) *Scorer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Scorer{
		log:    log,
		gen:    gen,
		keys:   keys,
		budget: tracker,
		cache:  NewCache(DefaultCacheSize),
	}
}

// CacheLen reports the number of memoized verdicts.
func (s *Scorer) CacheLen() int { return s.cache.Len() }

// Score produces the final verdict for a completed answer set.
//
// Order of operations: budget and credential gates first (fallback with
// OutcomeNoKey), then the cache, then the rule-based score (always
// computed, since it seeds the oracle prompt and is the guaranteed degraded
// result), then up to three oracle attempts with sticky failover to the
// backup credential. Oracle failure never surfaces as an error; the caller
// always gets a usable Result.
func (s *Scorer) Score(ctx context.Context, questions, answers []string) Result {
	if s.budget.Exhausted() {
		s.log.Info("oracle budget spent, scoring with rules only",
			zap.Int("used", s.budget.Used()),
			zap.Int("limit", s.budget.Limit()))
		score, reasoning := Fallback(questions, answers)
		return Result{Score: score, Reasoning: reasoning, Outcome: OutcomeNoKey, BudgetExhausted: true}
	}
	if s.keys == nil || !s.keys.Configured() {
		s.log.Warn("no oracle credential configured, scoring with rules only")
		score, reasoning := Fallback(questions, answers)
		return Result{Score: score, Reasoning: reasoning, Outcome: OutcomeNoKey}
	}

	key := Key(questions, answers)
	if cached, ok := s.cache.Get(key); ok {
		cached.Cached = true
		return cached
	}

	fbScore, fbReasoning := Fallback(questions, answers)
	s.flagDegenerateAnswers(questions, answers)
	prompt := BuildPrompt(questions, answers, fbScore)

	triedBackup := false
	for attempt := 1; attempt <= maxOracleAttempts; attempt++ {
		apiKey, slot, ok := s.keys.Active()
		if !ok {
			return Result{Score: fbScore, Reasoning: fbReasoning, Outcome: OutcomeNoKey}
		}
		if slot == oracle.SlotBackup {
			triedBackup = true
		}
		if !s.budget.TryReserve() {
			s.log.Info("oracle budget spent mid-scoring, using rule-based result")
			return Result{Score: fbScore, Reasoning: fbReasoning, Outcome: OutcomeNoKey, BudgetExhausted: true}
		}

		reply, err := s.gen.Generate(ctx, apiKey, prompt)
		if err == nil {
			score, reasoning := ParseReply(reply)
			res := Result{Score: score, Reasoning: reasoning, Outcome: OutcomeAISuccess}
			s.cache.Put(key, res)
			s.log.Info("oracle scoring succeeded",
				zap.Int("rule_score", fbScore),
				zap.Int("score", score),
				zap.Int("attempt", attempt),
				zap.String("key", slot))
			return res
		}

		s.log.Warn("oracle scoring attempt failed",
			zap.Int("attempt", attempt),
			zap.String("key", slot),
			zap.Error(err))
		if s.keys.MarkFailure() {
			triedBackup = true
			s.log.Info("switched to backup oracle credential")
		}
	}

	outcome := OutcomeAllRetriesFailed
	if triedBackup {
		outcome = OutcomeBothKeysFailed
	}
	s.log.Error("oracle scoring exhausted all attempts",
		zap.String("outcome", string(outcome)))
	return Result{Score: fbScore, Reasoning: fbReasoning, Outcome: outcome}
}

// flagDegenerateAnswers logs copy-paste and throwaway answers before the
// oracle pass. Detection does not change the flow; the penalties already
// live in the rule-based scorer and the oracle sees the full text.
func (s *Scorer) flagDegenerateAnswers(questions, answers []string) {
	var patterns []string
	for i, answer := range answers {
		answerLower := strings.ToLower(strings.TrimSpace(answer))
		var questionLower string
		if i < len(questions) {
			questionLower = strings.ToLower(strings.TrimSpace(questions[i]))
		}
		switch {
		case questionLower != "" && answerLower == questionLower:
			patterns = append(patterns, fmt.Sprintf("Q%d: identical to question", i+1))
		case len(answerLower) > 10 && questionLower != "" && strings.Contains(questionLower, answerLower):
			patterns = append(patterns, fmt.Sprintf("Q%d: copy-pasted from question", i+1))
		case len(answerLower) < 5:
			patterns = append(patterns, fmt.Sprintf("Q%d: answer too short", i+1))
		}
	}
	if len(patterns) > 0 {
		s.log.Warn("degenerate answer patterns detected",
			zap.Strings("patterns", patterns))
	}
}
